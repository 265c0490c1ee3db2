package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/designflow/internal/metrics"
	"github.com/HendryAvila/designflow/internal/pivot"
	"github.com/HendryAvila/designflow/internal/session"
)

// PivotTool handles the design_evaluate_pivot MCP tool.
type PivotTool struct {
	store     session.Store
	evaluator *pivot.Evaluator
	metrics   *metrics.Metrics
}

// NewPivotTool creates a PivotTool. m may be nil.
func NewPivotTool(store session.Store, evaluator *pivot.Evaluator, m *metrics.Metrics) *PivotTool {
	return &PivotTool{store: store, evaluator: evaluator, metrics: m}
}

// Definition returns the MCP tool definition for registration.
func (t *PivotTool) Definition() mcp.Tool {
	return mcp.NewTool("design_evaluate_pivot",
		mcp.WithDescription(
			"Estimate whether the design should change direction. Scores the content's "+
				"complexity and uncertainty (entropy), and reports the expected timeline, "+
				"resource, risk and confidence impact. Advisory only.",
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("Design content to evaluate."),
		),
		mcp.WithString("session_id",
			mcp.Description("Optional session whose constraints, requirements and coverage feed the scores."),
		),
	)
}

// Handle processes the design_evaluate_pivot tool call.
func (t *PivotTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := req.GetString("content", "")
	if strings.TrimSpace(text) == "" {
		return mcp.NewToolResultError("content is required"), nil
	}

	var st *session.State
	if id := req.GetString("session_id", ""); id != "" {
		var err error
		st, err = t.store.Get(id)
		if err != nil {
			return errorResult(err)
		}
	}

	d := t.evaluator.EvaluatePivotNeed(ctx, st, text)
	t.metrics.ObservePivot(d.Triggered)
	return mcp.NewToolResultText(formatPivot(d, pivot.Assess(d))), nil
}

func formatPivot(d pivot.Decision, impact pivot.Impact) string {
	var b strings.Builder

	verdict := "No pivot needed"
	if d.Triggered {
		verdict = "⚠️ Pivot recommended"
	}
	b.WriteString("# Pivot Evaluation\n\n")
	fmt.Fprintf(&b, "**Verdict:** %s\n", verdict)
	fmt.Fprintf(&b, "**Complexity:** %.0f (threshold %.0f)\n", d.Complexity, d.Threshold)
	fmt.Fprintf(&b, "**Entropy:** %.0f\n\n", d.Entropy)
	if d.Reason != "" {
		fmt.Fprintf(&b, "%s\n\n", d.Reason)
	}

	b.WriteString("## Impact\n\n")
	b.WriteString("| Dimension | Assessment |\n")
	b.WriteString("|-----------|------------|\n")
	fmt.Fprintf(&b, "| Timeline change | %s |\n", impact.TimelineChange)
	fmt.Fprintf(&b, "| Resources required | %s |\n", impact.ResourcesRequired)
	fmt.Fprintf(&b, "| Risk level | %s |\n", impact.RiskLevel)
	fmt.Fprintf(&b, "| Confidence | %.0f%% |\n\n", impact.ConfidenceLevel)

	writeList(&b, "Alternatives", d.Alternatives)
	return b.String()
}
