package cmd

import (
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/wesm/groupfn/internal/mcp"
	"github.com/wesm/groupfn/internal/query"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run MCP server for AI assistant integration",
	Long: `Start an MCP (Model Context Protocol) server over stdio.

This lets an MCP client group your imported tasks with tools like
group_tasks, list_fields, list_samples and get_stats.

Add to the client config:
  {
    "mcpServers": {
      "groupfn": {
        "command": "groupfn",
        "args": ["mcp"]
      }
    }
  }`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		engine := query.NewSQLiteEngine(s)
		settings := query.SettingsFromConfig(cfg, time.Now(), logger)
		if cfg.Grouping.Today == "" {
			// Unpinned: each call uses the date it runs on.
			settings.Today = time.Time{}
		}
		return mcpserver.Serve(cmd.Context(), engine, settings, Version)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
