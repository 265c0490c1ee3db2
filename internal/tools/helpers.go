// Package tools implements the MCP tool handlers of the design workflow.
//
// Each tool is a struct holding its dependencies, a Definition() that
// returns the mcp.Tool schema, and a Handle() compatible with mcp-go's
// CallToolRequest signature. Caller mistakes become tool error results;
// only infrastructure failures are returned as Go errors.
package tools

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/designflow/internal/constraints"
	"github.com/HendryAvila/designflow/internal/session"
	"github.com/HendryAvila/designflow/internal/workflow"
)

// callerErrors are the workflow errors caused by bad input.
var callerErrors = []error{
	workflow.ErrUnknownAction,
	workflow.ErrMissingConfig,
	workflow.ErrInvalidConfig,
	workflow.ErrMissingSessionID,
	workflow.ErrMissingContent,
	workflow.ErrMissingPhaseID,
	workflow.ErrSessionNotFound,
	workflow.ErrPhaseNotFound,
	workflow.ErrUnknownMethodology,
	session.ErrNotFound,
}

// isCallerError reports whether err should be shown to the caller as a
// tool error rather than failing the call.
func isCallerError(err error) bool {
	for _, target := range callerErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// errorResult maps err to a tool result or a Go error.
func errorResult(err error) (*mcp.CallToolResult, error) {
	if isCallerError(err) {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return nil, err
}

// boolArg extracts a boolean argument from a tool request.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// stringSliceArg extracts an array of strings. Non-string items are
// skipped; a single string is treated as a comma-separated list.
func stringSliceArg(req mcp.CallToolRequest, key string) []string {
	switch v := req.GetArguments()[key].(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	case []string:
		return v
	case string:
		var out []string
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// constraintsArg reads the constraints argument. Items are either catalog
// ids (strings) or objects with id, name, type, mandatory and keywords.
func constraintsArg(req mcp.CallToolRequest, provider *constraints.Provider) ([]session.Constraint, error) {
	raw, ok := req.GetArguments()["constraints"]
	if !ok || raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		ids := stringSliceArg(req, "constraints")
		return provider.Lookup(ids), nil
	}

	out := make([]session.Constraint, 0, len(items))
	for i, item := range items {
		switch v := item.(type) {
		case string:
			out = append(out, provider.Lookup([]string{v})...)
		case map[string]any:
			c, err := constraintFromMap(v)
			if err != nil {
				return nil, fmt.Errorf("constraints[%d]: %w", i, err)
			}
			out = append(out, c)
		default:
			return nil, fmt.Errorf("constraints[%d]: expected a string id or an object", i)
		}
	}
	return out, nil
}

func constraintFromMap(m map[string]any) (session.Constraint, error) {
	str := func(key string) string {
		s, _ := m[key].(string)
		return strings.TrimSpace(s)
	}
	c := session.Constraint{
		ID:          str("id"),
		Name:        str("name"),
		Description: str("description"),
		Type:        session.ConstraintType(str("type")),
	}
	if c.ID == "" {
		return c, fmt.Errorf("%w: constraint id is required", workflow.ErrInvalidConfig)
	}
	if c.Name == "" {
		c.Name = c.ID
	}
	if c.Type == "" {
		c.Type = session.ConstraintTechnical
	}
	c.Mandatory, _ = m["mandatory"].(bool)
	if kws, ok := m["keywords"].([]any); ok {
		for _, kw := range kws {
			if s, ok := kw.(string); ok && s != "" {
				c.Keywords = append(c.Keywords, s)
			}
		}
	}
	return c, nil
}

// --- Rendering ---

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n", title)
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
	b.WriteString("\n")
}

func statusMarker(s session.PhaseStatus) string {
	switch s {
	case session.PhaseCompleted:
		return "✅"
	case session.PhaseInProgress:
		return "🔄"
	default:
		return "⬜"
	}
}

// writePhaseTable renders the session's phases in sequence order.
func writePhaseTable(b *strings.Builder, st *session.State) {
	if st == nil {
		return
	}
	b.WriteString("## Phases\n\n")
	b.WriteString("| Phase | Status | Coverage | Artifacts |\n")
	b.WriteString("|-------|--------|----------|-----------|\n")
	for _, ph := range st.OrderedPhases() {
		name := ph.Name
		if name == "" {
			name = ph.ID
		}
		fmt.Fprintf(b, "| %s %s (`%s`) | %s | %.0f%% | %d |\n",
			statusMarker(ph.Status), name, ph.ID, ph.Status, ph.Coverage, len(ph.Artifacts))
	}
	b.WriteString("\n")
}
