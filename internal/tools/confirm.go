package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/designflow/internal/confirm"
	"github.com/HendryAvila/designflow/internal/session"
)

// ConfirmTool handles the design_confirm_phase MCP tool. It judges content
// for a phase without changing the session.
type ConfirmTool struct {
	store  session.Store
	engine *confirm.Engine
}

// NewConfirmTool creates a ConfirmTool.
func NewConfirmTool(store session.Store, engine *confirm.Engine) *ConfirmTool {
	return &ConfirmTool{store: store, engine: engine}
}

// Definition returns the MCP tool definition for registration.
func (t *ConfirmTool) Definition() mcp.Tool {
	return mcp.NewTool("design_confirm_phase",
		mcp.WithDescription(
			"Check whether content is good enough to finish a design phase. "+
				"Runs every confirmation check (criteria completion, coverage threshold, "+
				"constraint compliance, output quality, stakeholder approval) and reports "+
				"issues and recommendations. Does not change the session.",
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Identifier of the design session."),
		),
		mcp.WithString("phase_id",
			mcp.Required(),
			mcp.Description("Phase to confirm."),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("The phase's design content in markdown."),
		),
		mcp.WithBoolean("strict",
			mcp.Description("Require zero issues to proceed. Default: true."),
		),
		mcp.WithBoolean("capture_rationale",
			mcp.Description("Record decisions, assumptions, alternatives and risks when the phase can proceed. Default: false."),
		),
	)
}

// Handle processes the design_confirm_phase tool call.
func (t *ConfirmTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := req.GetString("session_id", "")
	phaseID := req.GetString("phase_id", "")
	text := req.GetString("content", "")
	if sessionID == "" || phaseID == "" || strings.TrimSpace(text) == "" {
		return mcp.NewToolResultError("session_id, phase_id and content are required"), nil
	}

	st, err := t.store.Get(sessionID)
	if err != nil {
		return errorResult(err)
	}

	res, err := t.engine.ConfirmPhaseCompletion(ctx, confirm.Request{
		State:   st,
		PhaseID: phaseID,
		Content: text,
		Options: confirm.Options{
			StrictMode:       boolArg(req, "strict", true),
			CaptureRationale: boolArg(req, "capture_rationale", false),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("confirming phase %q: %w", phaseID, err)
	}
	return mcp.NewToolResultText(formatConfirmation(phaseID, res)), nil
}

func formatConfirmation(phaseID string, res confirm.Result) string {
	var b strings.Builder

	verdict := "❌ Not passed"
	if res.Passed {
		verdict = "✅ Passed"
	}
	fmt.Fprintf(&b, "# Phase Confirmation: %s\n\n", phaseID)
	fmt.Fprintf(&b, "**Verdict:** %s\n", verdict)
	fmt.Fprintf(&b, "**Can proceed:** %t\n", res.CanProceed)
	fmt.Fprintf(&b, "**Phase coverage:** %.0f%% (minimum %.0f%%)\n", res.Coverage, res.PhaseThreshold)
	fmt.Fprintf(&b, "**Overall coverage:** %.0f%% (minimum %.0f%%)\n", res.OverallCoverage, res.OverallThreshold)
	fmt.Fprintf(&b, "**Criteria completeness:** %.0f%%\n", res.Completeness)
	if res.MinimalSession {
		b.WriteString("**Minimal session:** no constraints declared, lenient thresholds apply\n")
	}
	b.WriteString("\n")

	if len(res.Checks) > 0 {
		b.WriteString("## Checks\n\n")
		b.WriteString("| Check | Status | Score | Message |\n")
		b.WriteString("|-------|--------|-------|---------|\n")
		for _, c := range res.Checks {
			fmt.Fprintf(&b, "| %s | %s | %.0f | %s |\n", c.Name, c.Status, c.Score, c.Message)
		}
		b.WriteString("\n")
	}

	writeList(&b, "Issues", res.Issues)
	writeList(&b, "Recommendations", res.Recommendations)
	writeList(&b, "Next Steps", res.NextSteps)

	if r := res.Rationale; r != nil {
		fmt.Fprintf(&b, "## Rationale Captured\n\n%d record(s) logged for phase `%s`.\n", len(r.Records()), r.PhaseID)
	}
	return b.String()
}
