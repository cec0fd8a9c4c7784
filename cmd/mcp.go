package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/joescharf/worked/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP stdio server for Claude Code integration",
	Long: `Start an MCP (Model Context Protocol) server on stdio.

This lets an MCP client ask worked which Jira issues people worked on.
Configure it with:

  {
    "mcpServers": {
      "worked": { "command": "worked", "args": ["mcp"] }
    }
  }

Jira credentials are read the same way as for the report.

Available tools: jira_build_jql, jira_worked_issues`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return mcpRun(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func mcpRun(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	f, err := newFetcher(cfg)
	if err != nil {
		return err
	}
	return mcp.NewServer(f, cfg.PageSize, buildVersion).ServeStdio(ctx)
}
