package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/HendryAvila/designflow/internal/confirm"
	"github.com/HendryAvila/designflow/internal/constraints"
	"github.com/HendryAvila/designflow/internal/methodology"
	"github.com/HendryAvila/designflow/internal/metrics"
	"github.com/HendryAvila/designflow/internal/pivot"
	"github.com/HendryAvila/designflow/internal/rationale"
	"github.com/HendryAvila/designflow/internal/session"
	"github.com/HendryAvila/designflow/internal/workflow"
)

// --- Test helpers ---

type toolSet struct {
	registry *session.Registry
	provider *constraints.Provider
	metrics  *metrics.Metrics
	workflow *WorkflowTool
	confirm  *ConfirmTool
	pivot    *PivotTool
	export   *ExportTool
}

func newToolSet(t *testing.T) *toolSet {
	t.Helper()
	provider, err := constraints.NewDefaultProvider()
	if err != nil {
		t.Fatalf("NewDefaultProvider: %v", err)
	}
	ts := &toolSet{
		registry: session.NewRegistry(),
		provider: provider,
		metrics:  metrics.New(prometheus.NewRegistry()),
	}
	engine := confirm.NewEngine(confirm.Deps{Provider: provider, Log: rationale.NewMemoryLog(), Metrics: ts.metrics})
	evaluator := pivot.NewEvaluator(pivot.Options{}, provider.Analyzer())
	orch, err := workflow.New(workflow.Deps{
		Store:         ts.registry,
		Provider:      provider,
		Engine:        engine,
		Pivot:         evaluator,
		Methodologies: methodology.NewRegistry(),
		Metrics:       ts.metrics,
	})
	if err != nil {
		t.Fatalf("workflow.New: %v", err)
	}
	ts.workflow = NewWorkflowTool(orch, provider)
	ts.confirm = NewConfirmTool(ts.registry, engine)
	ts.pivot = NewPivotTool(ts.registry, evaluator, ts.metrics)
	ts.export = NewExportTool(engine)
	return ts
}

type handler interface {
	Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

func call(t *testing.T, h handler, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	result, err := h.Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle: unexpected error: %v", err)
	}
	return result
}

func startSession(t *testing.T, ts *toolSet, id string) {
	t.Helper()
	result := call(t, ts.workflow, map[string]interface{}{
		"action":     "start",
		"session_id": id,
		"goal":       "design a decision log",
	})
	if isErrorResult(result) {
		t.Fatalf("start failed: %s", getResultText(result))
	}
}

// isErrorResult checks if a CallToolResult represents an error.
func isErrorResult(result *mcp.CallToolResult) bool {
	return result != nil && result.IsError
}

// getResultText extracts the text content from a CallToolResult.
func getResultText(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

const discoveryContent = `# Discovery
The problem is scattered design decisions. Each stakeholder has a different context.
Our goal is one shared log; success criteria are agreed below.
We decided to keep a single append-only log.

## Problem statement
## Stakeholder analysis
## Context map`

const uncertainContent = "Scope is unclear, ownership unknown, budget tbd, hosting undecided, team unsure, " +
	"requirements ambiguous and conflicting, one open question, not sure about scale, maybe later."

// --- Definitions ---

func TestToolDefinitions(t *testing.T) {
	ts := newToolSet(t)
	tests := []struct {
		name string
		tool mcp.Tool
	}{
		{"design_workflow", ts.workflow.Definition()},
		{"design_confirm_phase", ts.confirm.Definition()},
		{"design_evaluate_pivot", ts.pivot.Definition()},
		{"design_export_rationale", ts.export.Definition()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.tool.Name != tt.name {
				t.Errorf("Name = %q, want %q", tt.tool.Name, tt.name)
			}
			if tt.tool.Description == "" {
				t.Error("description should not be empty")
			}
		})
	}
}

// --- WorkflowTool ---

func TestWorkflowTool_Start(t *testing.T) {
	ts := newToolSet(t)
	result := call(t, ts.workflow, map[string]interface{}{
		"action":       "start",
		"session_id":   "s1",
		"goal":         "design a decision log",
		"requirements": []interface{}{"searchable", "exportable"},
		"constraints":  []interface{}{"technical.security"},
	})
	if isErrorResult(result) {
		t.Fatalf("unexpected error result: %s", getResultText(result))
	}
	text := getResultText(result)
	for _, want := range []string{"✅ Success", "**Current phase:** discovery", "**Next phase:** requirements", "## Phases"} {
		if !strings.Contains(text, want) {
			t.Errorf("response missing %q:\n%s", want, text)
		}
	}

	st, err := ts.registry.Get("s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(st.Config.Requirements) != 2 {
		t.Errorf("requirements = %v", st.Config.Requirements)
	}
	if len(st.Config.Constraints) != 1 || !st.Config.Constraints[0].Mandatory {
		t.Errorf("constraints = %+v, want the catalog's mandatory security constraint", st.Config.Constraints)
	}
}

func TestWorkflowTool_StartWithMethodology(t *testing.T) {
	ts := newToolSet(t)
	result := call(t, ts.workflow, map[string]interface{}{
		"action":              "start",
		"session_id":          "s1",
		"goal":                "redesign onboarding",
		"methodology_profile": "double-diamond",
	})
	if isErrorResult(result) {
		t.Fatalf("unexpected error result: %s", getResultText(result))
	}
	if !strings.Contains(getResultText(result), "**Methodology:** double-diamond") {
		t.Errorf("methodology not shown:\n%s", getResultText(result))
	}
}

func TestWorkflowTool_CallerErrors(t *testing.T) {
	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"start without goal", map[string]interface{}{"action": "start", "session_id": "s1"}},
		{"unknown action", map[string]interface{}{"action": "rewind", "session_id": "s1"}},
		{"missing session", map[string]interface{}{"action": "status", "session_id": "nope"}},
		{"unknown methodology", map[string]interface{}{
			"action": "start", "session_id": "s1", "goal": "x", "methodology_profile": "waterfall",
		}},
		{"constraint without id", map[string]interface{}{
			"action": "start", "session_id": "s1", "goal": "x",
			"constraints": []interface{}{map[string]interface{}{"name": "Nameless"}},
		}},
		{"bad constraint item", map[string]interface{}{
			"action": "start", "session_id": "s1", "goal": "x", "constraints": []interface{}{42.0},
		}},
		{"complete without content", map[string]interface{}{
			"action": "complete", "session_id": "s1", "phase_id": "discovery",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newToolSet(t)
			result := call(t, ts.workflow, tt.args)
			if !isErrorResult(result) {
				t.Errorf("expected error result, got: %s", getResultText(result))
			}
		})
	}
}

func TestWorkflowTool_AdvanceRejectedIsNotAnError(t *testing.T) {
	ts := newToolSet(t)
	call(t, ts.workflow, map[string]interface{}{
		"action":      "start",
		"session_id":  "s1",
		"goal":        "design a decision log",
		"constraints": "technical.security",
	})

	result := call(t, ts.workflow, map[string]interface{}{
		"action":     "advance",
		"session_id": "s1",
		"content":    "Nothing useful here.",
	})
	if isErrorResult(result) {
		t.Fatalf("rejection should be a normal result: %s", getResultText(result))
	}
	text := getResultText(result)
	if !strings.Contains(text, "❌ Not applied") || !strings.Contains(text, "## Issues") {
		t.Errorf("rejection not rendered:\n%s", text)
	}
}

func TestWorkflowTool_AdvanceAndStatus(t *testing.T) {
	ts := newToolSet(t)
	startSession(t, ts, "s1")

	result := call(t, ts.workflow, map[string]interface{}{
		"action":     "advance",
		"session_id": "s1",
		"content":    discoveryContent,
	})
	if isErrorResult(result) {
		t.Fatalf("advance: %s", getResultText(result))
	}
	text := getResultText(result)
	for _, want := range []string{"✅ Success", "**Current phase:** requirements", "## Pivot Check", "## Artifacts"} {
		if !strings.Contains(text, want) {
			t.Errorf("advance response missing %q:\n%s", want, text)
		}
	}

	status := getResultText(call(t, ts.workflow, map[string]interface{}{"action": "status", "session_id": "s1"}))
	if !strings.Contains(status, "1/5 phases completed") {
		t.Errorf("status message:\n%s", status)
	}
	if !strings.Contains(status, "✅ Discovery") {
		t.Errorf("completed phase marker missing:\n%s", status)
	}
}

// --- ConfirmTool ---

func TestConfirmTool_Passes(t *testing.T) {
	ts := newToolSet(t)
	startSession(t, ts, "s1")

	result := call(t, ts.confirm, map[string]interface{}{
		"session_id": "s1",
		"phase_id":   "discovery",
		"content":    discoveryContent,
	})
	if isErrorResult(result) {
		t.Fatalf("unexpected error result: %s", getResultText(result))
	}
	text := getResultText(result)
	for _, want := range []string{"✅ Passed", "**Can proceed:** true", "## Checks", confirm.CheckStakeholderApproval} {
		if !strings.Contains(text, want) {
			t.Errorf("confirmation missing %q:\n%s", want, text)
		}
	}
	if got := testutil.ToFloat64(ts.metrics.ConfirmationsTotal.WithLabelValues(metrics.ResultSuccess)); got != 1 {
		t.Errorf("confirmations_total{success} = %v, want 1", got)
	}

	st, _ := ts.registry.Get("s1")
	if st.Phase("discovery").Status != session.PhaseInProgress {
		t.Error("confirmation must not change the session")
	}
}

func TestConfirmTool_Errors(t *testing.T) {
	ts := newToolSet(t)
	startSession(t, ts, "s1")

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"missing content", map[string]interface{}{"session_id": "s1", "phase_id": "discovery"}},
		{"missing phase", map[string]interface{}{"session_id": "s1", "content": discoveryContent}},
		{"unknown session", map[string]interface{}{"session_id": "nope", "phase_id": "discovery", "content": discoveryContent}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := call(t, ts.confirm, tt.args); !isErrorResult(result) {
				t.Errorf("expected error result, got: %s", getResultText(result))
			}
		})
	}
}

// --- PivotTool ---

func TestPivotTool_Triggered(t *testing.T) {
	ts := newToolSet(t)
	result := call(t, ts.pivot, map[string]interface{}{"content": uncertainContent})
	if isErrorResult(result) {
		t.Fatalf("unexpected error result: %s", getResultText(result))
	}
	text := getResultText(result)
	for _, want := range []string{"⚠️ Pivot recommended", "## Impact", "## Alternatives", "discovery spike"} {
		if !strings.Contains(text, want) {
			t.Errorf("pivot response missing %q:\n%s", want, text)
		}
	}
	if got := testutil.ToFloat64(ts.metrics.PivotsTriggeredTotal); got != 1 {
		t.Errorf("pivots_triggered_total = %v, want 1", got)
	}
}

func TestPivotTool_Calm(t *testing.T) {
	ts := newToolSet(t)
	startSession(t, ts, "s1")
	result := call(t, ts.pivot, map[string]interface{}{
		"session_id": "s1",
		"content":    "A small form with one field.",
	})
	text := getResultText(result)
	if !strings.Contains(text, "No pivot needed") || strings.Contains(text, "## Alternatives") {
		t.Errorf("unexpected pivot response:\n%s", text)
	}
}

func TestPivotTool_Errors(t *testing.T) {
	ts := newToolSet(t)
	if result := call(t, ts.pivot, map[string]interface{}{"content": "  "}); !isErrorResult(result) {
		t.Error("blank content should be an error result")
	}
	if result := call(t, ts.pivot, map[string]interface{}{"session_id": "nope", "content": "x"}); !isErrorResult(result) {
		t.Error("unknown session should be an error result")
	}
}

// --- ExportTool ---

func TestExportTool_AfterCapture(t *testing.T) {
	ts := newToolSet(t)
	startSession(t, ts, "s1")
	call(t, ts.confirm, map[string]interface{}{
		"session_id":        "s1",
		"phase_id":          "discovery",
		"content":           discoveryContent,
		"capture_rationale": true,
	})

	text := getResultText(call(t, ts.export, map[string]interface{}{"session_id": "s1"}))
	for _, want := range []string{"# Design Rationale: s1", "## Phase: discovery", "keep a single append-only log"} {
		if !strings.Contains(text, want) {
			t.Errorf("export missing %q:\n%s", want, text)
		}
	}

	jsonText := getResultText(call(t, ts.export, map[string]interface{}{"session_id": "s1", "format": "json"}))
	if !strings.Contains(jsonText, `"session_id": "s1"`) {
		t.Errorf("json export:\n%s", jsonText)
	}
}

func TestExportTool_Empty(t *testing.T) {
	ts := newToolSet(t)
	text := getResultText(call(t, ts.export, map[string]interface{}{"session_id": "fresh"}))
	if !strings.Contains(text, "_No rationale captured yet._") {
		t.Errorf("empty export:\n%s", text)
	}
}

func TestExportTool_Errors(t *testing.T) {
	ts := newToolSet(t)
	if result := call(t, ts.export, map[string]interface{}{}); !isErrorResult(result) {
		t.Error("missing session_id should be an error result")
	}
	if result := call(t, ts.export, map[string]interface{}{"session_id": "s1", "format": "docx"}); !isErrorResult(result) {
		t.Error("unknown format should be an error result")
	}
}

// --- Argument helpers ---

func TestStringSliceArg(t *testing.T) {
	tests := []struct {
		name string
		val  interface{}
		want []string
	}{
		{"array", []interface{}{"a", " b ", "", 3.0}, []string{"a", "b"}},
		{"comma string", "a, b,,c", []string{"a", "b", "c"}},
		{"missing", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := mcp.CallToolRequest{}
			req.Params.Arguments = map[string]interface{}{"items": tt.val}
			got := stringSliceArg(req, "items")
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("stringSliceArg = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConstraintsArg_MixedItems(t *testing.T) {
	ts := newToolSet(t)
	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]interface{}{
		"constraints": []interface{}{
			"technical.security",
			map[string]interface{}{
				"id":        "business.budget",
				"type":      "business",
				"mandatory": true,
				"keywords":  []interface{}{"cost", "budget"},
			},
		},
	}
	got, err := constraintsArg(req, ts.provider)
	if err != nil {
		t.Fatalf("constraintsArg: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d constraints, want 2", len(got))
	}
	custom := got[1]
	if custom.Name != "business.budget" || custom.Type != session.ConstraintBusiness || !custom.Mandatory {
		t.Errorf("custom constraint = %+v", custom)
	}
	if len(custom.Keywords) != 2 {
		t.Errorf("keywords = %v", custom.Keywords)
	}
}
