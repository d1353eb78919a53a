package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/skysurvey/msr/internal/mcp"
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start MCP server for AI agent integration",
	Long: `Start an MCP (Model Context Protocol) server over stdio.

This lets AI agents query the milestone store through MCP tools instead
of spawning CLI commands. The store is loaded once at startup; restart
the server to pick up a new baseline snapshot.

Available Tools:
  msr_status     Summary counts and remaining effort
  msr_show       One milestone in detail
  msr_overdue    Milestones overdue as of the snapshot month
  msr_burndown   The burndown series as text

Examples:
  msr serve                                # All tools
  msr serve --tools status,overdue         # Specific tools only
  msr serve --timeout 30m                  # Auto-stop after 30m idle
  msr serve --list-tools                   # Show available tools`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	serveTools     string
	serveTimeout   string
	serveListTools bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveTools, "tools", "", "Comma-separated list of tools to expose (default: all)")
	serveCmd.Flags().StringVar(&serveTimeout, "timeout", "30m", "Inactivity timeout (0 for no timeout)")
	serveCmd.Flags().BoolVar(&serveListTools, "list-tools", false, "List available tools")
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveListTools {
		fmt.Println("Available MCP tools:")
		fmt.Println()
		fmt.Println("  msr_status     Summary counts and remaining effort")
		fmt.Println("  msr_show       One milestone in detail")
		fmt.Println("  msr_overdue    Milestones overdue as of the snapshot month")
		fmt.Println("  msr_burndown   The burndown series as text")
		return nil
	}

	timeout, err := parseServeTimeout(serveTimeout)
	if err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}

	var tools []string
	if serveTools != "" {
		for _, t := range strings.Split(serveTools, ",") {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			// Allow shorthand (status -> msr_status)
			if !strings.HasPrefix(t, "msr_") {
				t = "msr_" + t
			}
			tools = append(tools, t)
		}
	}

	server, err := mcp.New(mcp.Config{
		Tools:   tools,
		Timeout: timeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintf(os.Stderr, "\nmsr serve: shutting down\n")
		os.Exit(0)
	}()

	// Log startup info to stderr (stdout is for MCP protocol)
	fmt.Fprintf(os.Stderr, "msr serve: starting MCP server\n")
	fmt.Fprintf(os.Stderr, "msr serve: tools: %v\n", server.ListTools())
	if timeout > 0 {
		fmt.Fprintf(os.Stderr, "msr serve: timeout: %v\n", timeout)
	}

	return server.ServeStdio()
}

func parseServeTimeout(s string) (time.Duration, error) {
	if s == "0" || s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
