package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/joescharf/worked/internal/jira"
	"github.com/joescharf/worked/internal/jql"
	"github.com/joescharf/worked/internal/report"
)

// Server exposes the worked report as MCP tools.
type Server struct {
	fetcher  report.Fetcher
	pageSize int
	version  string
}

// NewServer creates the MCP server wrapper. fetcher is used for every search.
func NewServer(f report.Fetcher, pageSize int, version string) *Server {
	return &Server{fetcher: f, pageSize: pageSize, version: version}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("worked", s.version, server.WithToolCapabilities(true))

	srv.AddTool(s.buildJQLTool())
	srv.AddTool(s.workedIssuesTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := s.MCPServer()
	stdioServer := server.NewStdioServer(srv)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// ---------------------------------------------------------------------------
// Tool definitions and handlers
// ---------------------------------------------------------------------------

// filterOptions are shared by every tool that takes a filter.
func filterOptions(description string) []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithDescription(description),
		mcp.WithString("users", mcp.Required(), mcp.Description("Comma-separated display names, usernames, or account ids")),
		mcp.WithString("from", mcp.Required(), mcp.Description("Window start date, YYYY-MM-DD (inclusive)")),
		mcp.WithString("to", mcp.Required(), mcp.Description("Window end date, YYYY-MM-DD (inclusive)")),
		mcp.WithString("projects", mcp.Description("Comma-separated project keys")),
		mcp.WithString("extra_jql", mcp.Description("Extra JQL ANDed onto the query, e.g. issuetype in (Bug, Story)")),
		mcp.WithString("in_progress_statuses", mcp.Description("Comma-separated statuses that count as active work")),
		mcp.WithBoolean("use_account_id", mcp.Description("Treat users as Jira account ids")),
	}
}

// filterFromRequest reads the shared filter arguments.
func filterFromRequest(request mcp.CallToolRequest) (jql.FilterSpec, error) {
	users, err := request.RequireString("users")
	if err != nil {
		return jql.FilterSpec{}, errors.New("missing required parameter: users")
	}
	fromStr, err := request.RequireString("from")
	if err != nil {
		return jql.FilterSpec{}, errors.New("missing required parameter: from")
	}
	toStr, err := request.RequireString("to")
	if err != nil {
		return jql.FilterSpec{}, errors.New("missing required parameter: to")
	}

	from, err := jql.ParseDate(fromStr)
	if err != nil {
		return jql.FilterSpec{}, err
	}
	to, err := jql.ParseDate(toStr)
	if err != nil {
		return jql.FilterSpec{}, err
	}

	return jql.FilterSpec{
		People:             jql.SplitList(users),
		From:               from,
		To:                 to,
		Projects:           jql.SplitList(request.GetString("projects", "")),
		Extra:              request.GetString("extra_jql", ""),
		UseAccountID:       request.GetBool("use_account_id", false),
		InProgressStatuses: jql.SplitList(request.GetString("in_progress_statuses", "")),
	}, nil
}

// jira_build_jql
func (s *Server) buildJQLTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("jira_build_jql",
		filterOptions("Build the JQL used to find issues the given users worked on between two dates. Does not contact Jira.")...,
	)
	return tool, s.handleBuildJQL
}

func (s *Server) handleBuildJQL(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	spec, err := filterFromRequest(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	q, err := jql.Build(spec)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(q), nil
}

// jira_worked_issues
func (s *Server) workedIssuesTool() (mcp.Tool, server.ToolHandlerFunc) {
	opts := append(filterOptions("Find Jira issues the given users worked on between two dates. Returns JSON with the JQL and the issues (key, summary, assignee, status, type, created, updated)."),
		mcp.WithBoolean("assignee_history", mcp.Description("Also report who held the assignee field during the window (one extra request per issue)")),
	)
	tool := mcp.NewTool("jira_worked_issues", opts...)
	return tool, s.handleWorkedIssues
}

func (s *Server) handleWorkedIssues(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	spec, err := filterFromRequest(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := report.Run(ctx, s.fetcher, spec, report.Options{
		PageSize:        s.pageSize,
		AssigneeHistory: request.GetBool("assignee_history", false),
	})
	if err != nil {
		msg := err.Error()
		if errors.Is(err, jira.ErrAuth) {
			msg += " (" + jira.AuthHint + ")"
		}
		return mcp.NewToolResultError(msg), nil
	}

	data, err := json.Marshal(res)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal issues: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
