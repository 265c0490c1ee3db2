// Package workflow is the design session state machine.
//
// The Orchestrator owns every mutation of session state. Each operation
// holds the registry's per-session lock for its whole duration, works on a
// clone of the stored state, and writes the clone back only when the
// operation succeeds. A soft failure (a phase that is not ready, no more
// phases) returns Success:false and leaves the stored state untouched;
// structural caller errors are returned as errors.
package workflow

import (
	"errors"

	"github.com/HendryAvila/designflow/internal/pivot"
	"github.com/HendryAvila/designflow/internal/session"
)

// Hard errors. Callers match them with errors.Is.
var (
	ErrUnknownAction      = errors.New("unknown workflow action")
	ErrMissingConfig      = errors.New("session config is required")
	ErrInvalidConfig      = errors.New("invalid session config")
	ErrMissingSessionID   = errors.New("session id is required")
	ErrMissingContent     = errors.New("content is required")
	ErrMissingPhaseID     = errors.New("phase id is required")
	ErrSessionNotFound    = errors.New("session not found")
	ErrPhaseNotFound      = errors.New("phase not found")
	ErrUnknownMethodology = errors.New("unknown methodology profile")
)

// Action names accepted by Execute.
const (
	ActionStart    = "start"
	ActionAdvance  = "advance"
	ActionComplete = "complete"
	ActionReset    = "reset"
	ActionStatus   = "status"
)

// Actions lists the valid action names in documentation order.
func Actions() []string {
	return []string{ActionStart, ActionAdvance, ActionComplete, ActionReset, ActionStatus}
}

// Request is the input to Execute. Which fields are required depends on
// Action.
type Request struct {
	Action             string          `json:"action"`
	SessionID          string          `json:"session_id"`
	Config             *session.Config `json:"config,omitempty"`
	MethodologyProfile string          `json:"methodology_profile,omitempty"`
	PhaseID            string          `json:"phase_id,omitempty"`
	Content            string          `json:"content,omitempty"`
}

// Response is the outcome of one workflow operation.
type Response struct {
	Success         bool               `json:"success"`
	SessionState    *session.State     `json:"session_state"`
	CurrentPhase    string             `json:"current_phase"`
	NextPhase       string             `json:"next_phase,omitempty"`
	Recommendations []string           `json:"recommendations"`
	Artifacts       []session.Artifact `json:"artifacts"`
	Message         string             `json:"message"`
	// Issues carries the confirmation issues of a soft failure.
	Issues []string `json:"issues,omitempty"`
	// Pivot is set when an advance with content was evaluated.
	Pivot *pivot.Decision `json:"pivot,omitempty"`
}

// newResponse fills the fields every response shares from st.
func newResponse(st *session.State) Response {
	res := Response{
		Recommendations: []string{},
		Artifacts:       []session.Artifact{},
	}
	if st == nil {
		return res
	}
	res.SessionState = st.Clone()
	res.CurrentPhase = st.CurrentPhase
	if next, ok := ComputeNextPhase(st.CurrentPhase, st); ok {
		res.NextPhase = next
	}
	res.Artifacts = append(res.Artifacts, st.Artifacts...)
	return res
}
