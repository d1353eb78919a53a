// Package main is the entry point for the msr CLI tool.
package main

import (
	"github.com/skysurvey/msr/internal/cmd"
)

func main() {
	cmd.Execute()
}
