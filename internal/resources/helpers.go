package resources

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/designflow/internal/constraints"
	"github.com/HendryAvila/designflow/internal/session"
)

// sessionSummary is the listing shape of one session.
type sessionSummary struct {
	SessionID       string    `json:"session_id"`
	Goal            string    `json:"goal"`
	Status          string    `json:"status"`
	Methodology     string    `json:"methodology,omitempty"`
	CurrentPhase    string    `json:"current_phase"`
	CompletedPhases int       `json:"completed_phases"`
	TotalPhases     int       `json:"total_phases"`
	Coverage        float64   `json:"coverage"`
	Artifacts       int       `json:"artifacts"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func summarize(st *session.State) sessionSummary {
	return sessionSummary{
		SessionID:       st.Config.SessionID,
		Goal:            st.Config.Goal,
		Status:          string(st.Status),
		Methodology:     st.Sequence.Methodology,
		CurrentPhase:    st.CurrentPhase,
		CompletedPhases: st.CompletedCount(),
		TotalPhases:     len(st.Sequence.PhaseIDs),
		Coverage:        st.Coverage.Overall,
		Artifacts:       len(st.Artifacts),
		UpdatedAt:       st.UpdatedAt,
	}
}

type constraintView struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	Mandatory   bool     `json:"mandatory"`
	Keywords    []string `json:"keywords"`
}

type catalogJSON struct {
	Thresholds  constraints.Thresholds         `json:"coverage_thresholds"`
	Phases      []constraints.PhaseRequirement `json:"phases"`
	Constraints []constraintView               `json:"constraints"`
}

func catalogView(cat *constraints.Catalog) catalogJSON {
	out := catalogJSON{
		Thresholds:  cat.Thresholds,
		Phases:      cat.Phases,
		Constraints: make([]constraintView, 0, len(cat.Constraints)),
	}
	for _, d := range cat.Constraints {
		out.Constraints = append(out.Constraints, constraintView{
			ID:          d.ID,
			Name:        d.Name,
			Description: d.Description,
			Type:        string(d.Type),
			Mandatory:   d.Mandatory,
			Keywords:    d.Keywords,
		})
	}
	return out
}

// jsonResource marshals v as a single JSON resource.
func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
