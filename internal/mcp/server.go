// Package mcp provides an MCP (Model Context Protocol) server for msr.
// This allows AI agents to query the milestone store through MCP tools
// instead of CLI commands.
package mcp

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/skysurvey/msr/internal/burndown"
	"github.com/skysurvey/msr/internal/config"
	"github.com/skysurvey/msr/internal/store"
)

// Server wraps the MCP server with msr-specific functionality
type Server struct {
	mcpServer    *server.MCPServer
	store        *store.Store
	cfg          *config.Config
	tools        map[string]bool
	lastActivity time.Time
	timeout      time.Duration
	mu           sync.RWMutex
}

// Config holds server configuration
type Config struct {
	Tools   []string      // Which tools to expose (empty = all)
	Timeout time.Duration // Inactivity timeout (0 = no timeout)
}

// AllTools lists all available tools
var AllTools = []string{"msr_status", "msr_show", "msr_overdue", "msr_burndown"}

// New creates a new MCP server for msr
func New(cfg Config) (*Server, error) {
	appCfg, err := loadAppConfig()
	if err != nil {
		return nil, err
	}
	dataDir, err := appCfg.RequireDataDir()
	if err != nil {
		return nil, err
	}
	s, err := store.Load(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load milestone store: %w", err)
	}

	mcpServer := server.NewMCPServer(
		"msr",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	srv := &Server{
		mcpServer:    mcpServer,
		store:        s,
		cfg:          appCfg,
		tools:        make(map[string]bool),
		lastActivity: time.Now(),
		timeout:      cfg.Timeout,
	}

	toolsToRegister := cfg.Tools
	if len(toolsToRegister) == 0 {
		toolsToRegister = AllTools
	}
	for _, toolName := range toolsToRegister {
		if err := srv.registerTool(toolName); err != nil {
			return nil, fmt.Errorf("failed to register tool %s: %w", toolName, err)
		}
		srv.tools[toolName] = true
	}

	return srv, nil
}

func loadAppConfig() (*config.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}
	return config.Load(cwd)
}

// registerTool registers a single tool with the MCP server
func (s *Server) registerTool(name string) error {
	switch name {
	case "msr_status":
		return s.registerStatusTool()
	case "msr_show":
		return s.registerShowTool()
	case "msr_overdue":
		return s.registerOverdueTool()
	case "msr_burndown":
		return s.registerBurndownTool()
	default:
		return fmt.Errorf("unknown tool: %s", name)
	}
}

// ServeStdio starts the server using stdio transport
func (s *Server) ServeStdio() error {
	if s.timeout > 0 {
		go s.timeoutChecker()
	}
	return server.ServeStdio(s.mcpServer)
}

// timeoutChecker monitors for inactivity and exits if timeout exceeded
func (s *Server) timeoutChecker() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		s.mu.RLock()
		elapsed := time.Since(s.lastActivity)
		s.mu.RUnlock()

		if elapsed > s.timeout {
			fmt.Fprintf(os.Stderr, "msr serve: timeout after %v of inactivity\n", s.timeout)
			os.Exit(0)
		}
	}
}

// updateActivity updates the last activity timestamp
func (s *Server) updateActivity() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

// ListTools returns the list of registered tools
func (s *Server) ListTools() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tools := make([]string, 0, len(s.tools))
	for t := range s.tools {
		tools = append(tools, t)
	}
	sort.Strings(tools)
	return tools
}

// registerStatusTool registers the msr_status tool
func (s *Server) registerStatusTool() error {
	tool := mcp.NewTool("msr_status",
		mcp.WithDescription("Summarize milestone state: totals, completed, overdue, remaining effort."),
		mcp.WithString("wbs",
			mcp.Description("WBS prefix to summarize (default: configured prefix)"),
		),
	)

	s.mcpServer.AddTool(tool, s.handleStatus)
	return nil
}

func (s *Server) handleStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.updateActivity()

	args := req.GetArguments()
	prefix, _ := args["wbs"].(string)
	if prefix == "" {
		prefix = s.cfg.WBS
	}

	selected := s.store.WithPrefix(prefix)
	asOf := s.store.AsOf()

	var completed, overdue int
	var remaining float64
	for i := range selected {
		ms := &selected[i]
		if ms.IsCompleted() {
			completed++
			continue
		}
		remaining += ms.Effort
		if ms.IsOverdue(asOf) {
			overdue++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "WBS %s as of %s (snapshot %s)\n", prefix,
		asOf.Format("2006-01-02"), s.store.Snapshot.Month.Format("200601"))
	fmt.Fprintf(&b, "Milestones: %d\n", len(selected))
	fmt.Fprintf(&b, "Completed: %d\n", completed)
	fmt.Fprintf(&b, "Overdue: %d\n", overdue)
	fmt.Fprintf(&b, "Remaining effort: %.1f\n", remaining)

	return mcp.NewToolResultText(b.String()), nil
}

// registerShowTool registers the msr_show tool
func (s *Server) registerShowTool() error {
	tool := mcp.NewTool("msr_show",
		mcp.WithDescription("Show detailed information about one milestone."),
		mcp.WithString("code",
			mcp.Required(),
			mcp.Description("Milestone code to look up"),
		),
	)

	s.mcpServer.AddTool(tool, s.handleShow)
	return nil
}

func (s *Server) handleShow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.updateActivity()

	args := req.GetArguments()
	code, ok := args["code"].(string)
	if !ok || code == "" {
		return mcp.NewToolResultError("code parameter is required"), nil
	}

	ms := s.store.Get(code)
	if ms == nil {
		return mcp.NewToolResultError(fmt.Sprintf("milestone %s not found", code)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", ms.Code, ms.Name)
	fmt.Fprintf(&b, "WBS: %s\n", ms.WBS)
	if ms.Level > 0 {
		fmt.Fprintf(&b, "Level: %d\n", ms.Level)
	}
	if !ms.Due.IsZero() {
		fmt.Fprintf(&b, "Due: %s\n", ms.Due.Format("2006-01-02"))
	}
	if ms.IsCompleted() {
		fmt.Fprintf(&b, "Completed: %s\n", ms.Completed.Format("2006-01-02"))
	} else {
		fmt.Fprintf(&b, "Remaining effort: %.1f\n", ms.Effort)
	}
	if ms.Jira != "" {
		fmt.Fprintf(&b, "Jira: %s\n", ms.Jira)
	}
	if len(ms.Predecessors) > 0 {
		fmt.Fprintf(&b, "Predecessors: %s\n", strings.Join(ms.Predecessors, ", "))
	}
	if len(ms.Successors) > 0 {
		fmt.Fprintf(&b, "Successors: %s\n", strings.Join(ms.Successors, ", "))
	}
	if ms.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", ms.Description)
	}

	return mcp.NewToolResultText(b.String()), nil
}

// registerOverdueTool registers the msr_overdue tool
func (s *Server) registerOverdueTool() error {
	tool := mcp.NewTool("msr_overdue",
		mcp.WithDescription("List milestones overdue as of the baseline snapshot month."),
		mcp.WithString("wbs",
			mcp.Description("WBS prefix to check (default: configured prefix)"),
		),
	)

	s.mcpServer.AddTool(tool, s.handleOverdue)
	return nil
}

func (s *Server) handleOverdue(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.updateActivity()

	args := req.GetArguments()
	prefix, _ := args["wbs"].(string)
	if prefix == "" {
		prefix = s.cfg.WBS
	}

	selected := s.store.WithPrefix(prefix)
	asOf := s.store.AsOf()

	var late []store.Milestone
	for _, ms := range selected {
		if ms.IsOverdue(asOf) {
			late = append(late, ms)
		}
	}
	sort.Slice(late, func(i, j int) bool {
		if late[i].WBS != late[j].WBS {
			return late[i].WBS < late[j].WBS
		}
		return late[i].Code < late[j].Code
	})

	if len(late) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No milestones overdue as of %s.",
			asOf.Format("2006-01-02"))), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d milestones overdue as of %s:\n", len(late), asOf.Format("2006-01-02"))
	for _, ms := range late {
		fmt.Fprintf(&b, "- %s: %s [due %s]\n", ms.Code, ms.Name, ms.Due.Format("2006-01-02"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

// registerBurndownTool registers the msr_burndown tool
func (s *Server) registerBurndownTool() error {
	tool := mcp.NewTool("msr_burndown",
		mcp.WithDescription("Compute the burndown series: remaining effort sampled monthly over a trailing window."),
		mcp.WithNumber("months",
			mcp.Description("Trailing window in months (default: configured window)"),
		),
	)

	s.mcpServer.AddTool(tool, s.handleBurndown)
	return nil
}

func (s *Server) handleBurndown(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.updateActivity()

	args := req.GetArguments()
	months := s.cfg.Burndown.Months
	if m, ok := args["months"].(float64); ok && m > 0 {
		months = int(m)
	}

	series, err := burndown.Compute(s.store.WithPrefix(s.cfg.WBS), months, s.store.AsOf())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Remaining effort for %s, %d month window:\n", s.cfg.WBS, months)
	for _, p := range series.Points {
		fmt.Fprintf(&b, "%s  %.1f\n", p.Date.Format("2006-01"), p.Remaining)
	}
	for _, w := range series.Warnings {
		fmt.Fprintf(&b, "warning: %s\n", w)
	}

	return mcp.NewToolResultText(b.String()), nil
}
