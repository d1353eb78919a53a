// Package build is the file-level build orchestrator: it declares target
// dependency rules over generated artifacts, reruns only the stale ones,
// and invokes the external graph-layout and document-build tools. There is
// no custom scheduling; staleness is plain file-timestamp comparison.
package build

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Target is one build rule: outputs, their prerequisites, and the action
// that regenerates the outputs.
type Target struct {
	// Name identifies the target on the command line.
	Name string
	// Outputs are the files the target produces.
	Outputs []string
	// Prereqs are the files the outputs depend on.
	Prereqs []string
	// After names targets that must run before this one.
	After []string
	// Run regenerates the outputs.
	Run func() error
}

// Stale reports whether any output is missing or older than a prerequisite.
// A target without outputs is always stale (phony).
func (t *Target) Stale() (bool, error) {
	if len(t.Outputs) == 0 {
		return true, nil
	}
	for _, out := range t.Outputs {
		outInfo, err := os.Stat(out)
		if err != nil {
			if os.IsNotExist(err) {
				return true, nil
			}
			return false, fmt.Errorf("stat %s: %w", out, err)
		}
		for _, pre := range t.Prereqs {
			preInfo, err := os.Stat(pre)
			if err != nil {
				if os.IsNotExist(err) {
					continue // missing prereq is the loader's problem, not ours
				}
				return false, fmt.Errorf("stat %s: %w", pre, err)
			}
			if preInfo.ModTime().After(outInfo.ModTime()) {
				return true, nil
			}
		}
	}
	return false, nil
}

// Runner executes targets in declaration order, honoring After edges.
type Runner struct {
	targets map[string]*Target
	order   []string

	// Log receives progress lines; defaults to os.Stderr.
	Log io.Writer
}

// NewRunner creates an empty runner.
func NewRunner() *Runner {
	return &Runner{
		targets: make(map[string]*Target),
		Log:     os.Stderr,
	}
}

// Add registers a target. Duplicate names are a programming error.
func (r *Runner) Add(t *Target) error {
	if _, dup := r.targets[t.Name]; dup {
		return fmt.Errorf("duplicate target %s", t.Name)
	}
	r.targets[t.Name] = t
	r.order = append(r.order, t.Name)
	return nil
}

// Names returns all target names in declaration order.
func (r *Runner) Names() []string {
	return append([]string(nil), r.order...)
}

// Run brings the named targets (all, when names is empty) up to date.
// Force reruns targets even when fresh. A failing target aborts the build.
func (r *Runner) Run(names []string, force bool) error {
	if len(names) == 0 {
		names = r.order
	}

	ran := make(map[string]bool)
	var runOne func(name string) error
	runOne = func(name string) error {
		t, ok := r.targets[name]
		if !ok {
			return fmt.Errorf("unknown target %s (have: %s)", name, strings.Join(r.order, ", "))
		}
		if ran[name] {
			return nil
		}
		ran[name] = true

		for _, dep := range t.After {
			if err := runOne(dep); err != nil {
				return err
			}
		}

		stale, err := t.Stale()
		if err != nil {
			return err
		}
		if !stale && !force {
			fmt.Fprintf(r.Log, "%s: up to date\n", name)
			return nil
		}
		fmt.Fprintf(r.Log, "%s: building\n", name)
		if err := t.Run(); err != nil {
			return fmt.Errorf("target %s: %w", name, err)
		}
		return nil
	}

	for _, name := range names {
		if err := runOne(name); err != nil {
			return err
		}
	}
	return nil
}

// Command runs an external tool given as a command line (program plus
// arguments). The tool's stderr is included in the returned error so build
// failures carry the underlying diagnostic.
func Command(cmdline string, extraArgs ...string) error {
	fields := strings.Fields(cmdline)
	if len(fields) == 0 {
		return fmt.Errorf("empty command")
	}
	args := append(fields[1:], extraArgs...)

	cmd := exec.Command(fields[0], args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("%s: %w: %s", fields[0], err, msg)
		}
		return fmt.Errorf("%s: %w", fields[0], err)
	}
	return nil
}

// LookTool verifies an external tool is installed before the build starts.
func LookTool(cmdline string) error {
	fields := strings.Fields(cmdline)
	if len(fields) == 0 {
		return fmt.Errorf("empty command")
	}
	if _, err := exec.LookPath(fields[0]); err != nil {
		return fmt.Errorf("%s not found in PATH", fields[0])
	}
	return nil
}
