package api

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hazyhaar/votemap/pkg/atlas"
	"github.com/hazyhaar/votemap/pkg/kit"
)

// RegisterMCPTools registers list_titles, region_metrics and refresh_title.
func RegisterMCPTools(srv *server.MCPServer, s *atlas.Session, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	kit.RegisterMCPTool(srv,
		mcp.NewTool("list_titles",
			mcp.WithDescription("List the referendum titles of the loaded table, optionally filtered by a case-insensitive substring."),
			mcp.WithString("query", mcp.Description("Substring filter, e.g. covid")),
		),
		kit.Logging(logger, "list_titles")(listTitlesEndpoint(s)),
		func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
			return &kit.MCPDecodeResult{Request: &titlesReq{Query: req.GetString("query", "")}}, nil
		})

	kit.RegisterMCPTool(srv,
		mcp.NewTool("region_metrics",
			mcp.WithDescription("Per-canton yes/no counts, total and yes share for one referendum, with regions left without data."),
			mcp.WithString("title", mcp.Description("Exact title or case-insensitive substring")),
			mcp.WithNumber("index", mcp.Description("Position in the sorted title list, used when title is empty")),
		),
		kit.Logging(logger, "region_metrics")(resultEndpoint(s)),
		decodeResultReq)

	kit.RegisterMCPTool(srv,
		mcp.NewTool("refresh_title",
			mcp.WithDescription("Rebuild the metrics of one referendum, discarding the cached result."),
			mcp.WithString("title", mcp.Required(), mcp.Description("Exact title or case-insensitive substring")),
		),
		kit.Logging(logger, "refresh_title")(refreshEndpoint(s)),
		decodeResultReq)
}

func decodeResultReq(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
	return &kit.MCPDecodeResult{Request: &resultReq{
		Title: req.GetString("title", ""),
		Index: req.GetInt("index", 0),
	}}, nil
}
