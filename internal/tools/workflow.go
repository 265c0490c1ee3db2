package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/designflow/internal/constraints"
	"github.com/HendryAvila/designflow/internal/session"
	"github.com/HendryAvila/designflow/internal/workflow"
)

// WorkflowTool handles the design_workflow MCP tool: start, advance,
// complete, reset and status of a design session.
type WorkflowTool struct {
	orch     *workflow.Orchestrator
	provider *constraints.Provider
}

// NewWorkflowTool creates a WorkflowTool.
func NewWorkflowTool(orch *workflow.Orchestrator, provider *constraints.Provider) *WorkflowTool {
	return &WorkflowTool{orch: orch, provider: provider}
}

// Definition returns the MCP tool definition for registration.
func (t *WorkflowTool) Definition() mcp.Tool {
	return mcp.NewTool("design_workflow",
		mcp.WithDescription(
			"Drive a structured design session through its phases "+
				"(discovery → requirements → architecture → specification → planning by default). "+
				"Actions: start (needs goal), advance (optional phase_id and content; content is confirmed first), "+
				"complete (phase_id and content, strict confirmation), reset, status.",
		),
		mcp.WithString("action",
			mcp.Required(),
			mcp.Description("Workflow action to run."),
			mcp.Enum(workflow.Actions()...),
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Identifier of the design session."),
		),
		mcp.WithString("goal",
			mcp.Description("start: what the design should achieve."),
		),
		mcp.WithString("context",
			mcp.Description("start: background for the design."),
		),
		mcp.WithArray("requirements",
			mcp.Description("start: known requirements."),
			mcp.WithStringItems(),
		),
		mcp.WithArray("constraints",
			mcp.Description(
				"start: constraints as catalog ids (e.g. \"technical.security\") or objects "+
					"{id, name, type: technical|business|architectural, mandatory, keywords}.",
			),
		),
		mcp.WithArray("phases",
			mcp.Description("start: custom phase order. Ignored when methodology_profile is set."),
			mcp.WithStringItems(),
		),
		mcp.WithString("methodology_profile",
			mcp.Description("start: methodology profile id (e.g. double-diamond, lean-mvp, policy-first)."),
		),
		mcp.WithString("phase_id",
			mcp.Description("advance: target phase. complete: phase to complete."),
		),
		mcp.WithString("content",
			mcp.Description("advance/complete: the phase's design content in markdown."),
		),
	)
}

// Handle processes the design_workflow tool call.
func (t *WorkflowTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	wr := workflow.Request{
		Action:             req.GetString("action", ""),
		SessionID:          req.GetString("session_id", ""),
		MethodologyProfile: req.GetString("methodology_profile", ""),
		PhaseID:            req.GetString("phase_id", ""),
		Content:            req.GetString("content", ""),
	}

	if wr.Action == workflow.ActionStart {
		cons, err := constraintsArg(req, t.provider)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		goal := req.GetString("goal", "")
		if strings.TrimSpace(goal) == "" {
			return mcp.NewToolResultError("start requires a goal"), nil
		}
		wr.Config = &session.Config{
			SessionID:    wr.SessionID,
			Goal:         goal,
			Context:      req.GetString("context", ""),
			Requirements: stringSliceArg(req, "requirements"),
			Constraints:  cons,
			Phases:       stringSliceArg(req, "phases"),
		}
	}

	res, err := t.orch.Execute(ctx, wr)
	if err != nil {
		return errorResult(err)
	}
	return mcp.NewToolResultText(formatWorkflowResponse(wr.Action, res)), nil
}

func formatWorkflowResponse(action string, res workflow.Response) string {
	var b strings.Builder

	outcome := "✅ Success"
	if !res.Success {
		outcome = "❌ Not applied"
	}
	fmt.Fprintf(&b, "# Design Workflow: %s\n\n", action)
	fmt.Fprintf(&b, "**Result:** %s\n", outcome)
	fmt.Fprintf(&b, "**Message:** %s\n", res.Message)
	if st := res.SessionState; st != nil {
		fmt.Fprintf(&b, "**Session:** `%s` (%s)\n", st.Config.SessionID, st.Status)
		if st.Sequence.Methodology != "" {
			fmt.Fprintf(&b, "**Methodology:** %s\n", st.Sequence.Methodology)
		}
		fmt.Fprintf(&b, "**Overall coverage:** %.0f%%\n", st.Coverage.Overall)
	}
	fmt.Fprintf(&b, "**Current phase:** %s\n", res.CurrentPhase)
	if res.NextPhase != "" {
		fmt.Fprintf(&b, "**Next phase:** %s\n", res.NextPhase)
	}
	b.WriteString("\n")

	writeList(&b, "Issues", res.Issues)
	writeList(&b, "Recommendations", res.Recommendations)
	writePhaseTable(&b, res.SessionState)

	if res.Pivot != nil {
		fmt.Fprintf(&b, "## Pivot Check\n\nComplexity %.0f, entropy %.0f (threshold %.0f): ",
			res.Pivot.Complexity, res.Pivot.Entropy, res.Pivot.Threshold)
		if res.Pivot.Triggered {
			b.WriteString("pivot recommended.\n\n")
		} else {
			b.WriteString("no pivot needed.\n\n")
		}
	}

	if len(res.Artifacts) > 0 {
		fmt.Fprintf(&b, "## Artifacts\n\n%d artifact(s) recorded:\n", len(res.Artifacts))
		for _, a := range res.Artifacts {
			fmt.Fprintf(&b, "- `%s` (%s, %d bytes)\n", a.Name, a.PhaseID, len(a.Content))
		}
	}
	return b.String()
}
