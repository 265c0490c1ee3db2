package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/designflow/internal/confirm"
	"github.com/HendryAvila/designflow/internal/rationale"
)

// ExportTool handles the design_export_rationale MCP tool.
type ExportTool struct {
	engine *confirm.Engine
}

// NewExportTool creates an ExportTool.
func NewExportTool(engine *confirm.Engine) *ExportTool {
	return &ExportTool{engine: engine}
}

// Definition returns the MCP tool definition for registration.
func (t *ExportTool) Definition() mcp.Tool {
	return mcp.NewTool("design_export_rationale",
		mcp.WithDescription(
			"Export the decisions, assumptions, alternatives and risks captured "+
				"for a design session, in the order they were recorded.",
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Identifier of the design session."),
		),
		mcp.WithString("format",
			mcp.Description("Output format. Default: markdown."),
			mcp.Enum(string(rationale.FormatMarkdown), string(rationale.FormatJSON), string(rationale.FormatYAML)),
		),
	)
}

// Handle processes the design_export_rationale tool call.
func (t *ExportTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := req.GetString("session_id", "")
	if sessionID == "" {
		return mcp.NewToolResultError("session_id is required"), nil
	}
	format := req.GetString("format", string(rationale.FormatMarkdown))
	if _, err := rationale.ParseFormat(format); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out, err := t.engine.ExportRationaleDocumentation(ctx, sessionID, format)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(out), nil
}
