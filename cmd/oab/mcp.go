package main

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"github.com/use-agent/oab/api/handler"
	"github.com/use-agent/oab/tool"
)

func (a *app) newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the oab_search tool over MCP stdio",
		Long: `Serve the oab_search tool over MCP stdio. The tool forwards to a running
"oab serve" at SCRAPER_API_URL (X-API-Key from SCRAPER_API_KEY).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// stdout carries the protocol.
			initLogger(a.cfg.Log, a.stderr)
			slog.Info("MCP server starting", "api", a.cfg.Tool.APIURL)

			s := tool.NewMCPServer(tool.NewSearchTool(a.cfg.Tool), handler.Version)
			return server.ServeStdio(s)
		},
	}
}
