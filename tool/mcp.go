package tool

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer exposes t as the oab_search tool of an MCP server.
func NewMCPServer(t *SearchTool, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"oab",
		version,
		server.WithToolCapabilities(false),
	)

	searchTool := mcp.NewTool(Name,
		mcp.WithDescription(Description),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Nome completo do advogado a ser buscado"),
		),
		mcp.WithString("uf",
			mcp.Description("UF/Seccional do advogado (ex: SP, MS, MG)"),
		),
	)
	s.AddTool(searchTool, handleSearch(t))

	return s
}

func handleSearch(t *SearchTool) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := request.RequireString("name")
		if err != nil {
			return mcp.NewToolResultError("name is required"), nil
		}
		uf := request.GetString("uf", "")

		obs, err := t.Search(ctx, name, uf)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(obs.JSON()), nil
	}
}
