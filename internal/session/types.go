// Package session holds the data model of a design session and the
// in-process registry that owns session state.
//
// A session walks a fixed (or methodology-selected) sequence of phases.
// The workflow package is the only mutator of SessionState; everything
// in here is plain data plus the registry that stores it.
package session

import (
	"fmt"
	"maps"
	"slices"
	"time"
)

// --- Phase status enum ---

// PhaseStatus tracks progress of a single phase.
type PhaseStatus string

const (
	PhasePending    PhaseStatus = "pending"
	PhaseInProgress PhaseStatus = "in-progress"
	PhaseCompleted  PhaseStatus = "completed"
)

// --- Session status enum ---

// Status tracks the overall lifecycle of a session.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// --- Constraint type enum ---

// ConstraintType categorizes a declared constraint.
type ConstraintType string

const (
	ConstraintTechnical     ConstraintType = "technical"
	ConstraintBusiness      ConstraintType = "business"
	ConstraintArchitectural ConstraintType = "architectural"
)

// validConstraintTypes is the set of allowed constraint types.
var validConstraintTypes = map[ConstraintType]bool{
	ConstraintTechnical:     true,
	ConstraintBusiness:      true,
	ConstraintArchitectural: true,
}

// ValidateConstraintType returns an error if the type is not recognized.
func ValidateConstraintType(t ConstraintType) error {
	if !validConstraintTypes[t] {
		return fmt.Errorf("invalid constraint type %q: must be one of: technical, business, architectural", t)
	}
	return nil
}

// --- Event type enum ---

// EventType classifies a history entry.
type EventType string

const (
	EventPhaseStart          EventType = "phase-start"
	EventPhaseComplete       EventType = "phase-complete"
	EventCoverageUpdate      EventType = "coverage-update"
	EventMethodologySelected EventType = "methodology-selected"
	EventSessionReset        EventType = "session-reset"
)

// --- Default phase sequence ---

// Phase ids of the built-in five-phase sequence.
const (
	PhaseDiscovery     = "discovery"
	PhaseRequirements  = "requirements"
	PhaseArchitecture  = "architecture"
	PhaseSpecification = "specification"
	PhasePlanning      = "planning"
)

// defaultSequence is the canonical phase order.
var defaultSequence = []string{
	PhaseDiscovery,
	PhaseRequirements,
	PhaseArchitecture,
	PhaseSpecification,
	PhasePlanning,
}

// DefaultSequence returns a copy of the built-in phase order.
func DefaultSequence() []string {
	return slices.Clone(defaultSequence)
}

// --- Core data structures ---

// Constraint is a declared rule a session must satisfy.
type Constraint struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Type        ConstraintType `json:"type"`
	Mandatory   bool           `json:"mandatory"`
	// Keywords are matched against submitted content. Optional: the
	// constraint provider fills them in when empty.
	Keywords []string `json:"keywords,omitempty"`
}

// Config identifies a session and carries its goal and quality bar.
// It never changes after Start.
type Config struct {
	SessionID    string       `json:"session_id"`
	Goal         string       `json:"goal"`
	Context      string       `json:"context"`
	Requirements []string     `json:"requirements"`
	Constraints  []Constraint `json:"constraints"`
	// Phases is an optional custom phase order. A methodology profile
	// takes precedence over it.
	Phases []string `json:"phases,omitempty"`
}

// ConstraintIDs returns the ids of all constraints attached to the config.
func (c Config) ConstraintIDs() []string {
	ids := make([]string, 0, len(c.Constraints))
	for _, con := range c.Constraints {
		ids = append(ids, con.ID)
	}
	return ids
}

// Artifact is a work product captured during a phase.
type Artifact struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Content   string    `json:"content"`
	Format    string    `json:"format"`
	PhaseID   string    `json:"phase_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Phase is one stage of the design process.
type Phase struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Description  string      `json:"description"`
	Inputs       []string    `json:"inputs"`
	Outputs      []string    `json:"outputs"`
	Criteria     []string    `json:"criteria"`
	Coverage     float64     `json:"coverage"`
	Status       PhaseStatus `json:"status"`
	Artifacts    []Artifact  `json:"artifacts"`
	Dependencies []string    `json:"dependencies"`
}

// Clone returns a deep copy of the phase.
func (p *Phase) Clone() *Phase {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Inputs = slices.Clone(p.Inputs)
	cp.Outputs = slices.Clone(p.Outputs)
	cp.Criteria = slices.Clone(p.Criteria)
	cp.Artifacts = slices.Clone(p.Artifacts)
	cp.Dependencies = slices.Clone(p.Dependencies)
	return &cp
}

// Coverage is the session-wide coverage snapshot.
type Coverage struct {
	Overall     float64            `json:"overall"`
	Phases      map[string]float64 `json:"phases"`
	Constraints map[string]float64 `json:"constraints"`
}

// NewCoverage returns an empty coverage snapshot.
func NewCoverage() Coverage {
	return Coverage{
		Phases:      make(map[string]float64),
		Constraints: make(map[string]float64),
	}
}

// Event is an append-only history entry.
type Event struct {
	ID          string         `json:"id"`
	Timestamp   time.Time      `json:"timestamp"`
	Type        EventType      `json:"type"`
	Phase       string         `json:"phase,omitempty"`
	Description string         `json:"description"`
	Data        map[string]any `json:"data,omitempty"`
}

// State is the root data structure for a session.
type State struct {
	Config       Config            `json:"config"`
	CurrentPhase string            `json:"current_phase"`
	Phases       map[string]*Phase `json:"phases"`
	Sequence     Sequence          `json:"sequence"`
	Coverage     Coverage          `json:"coverage"`
	Artifacts    []Artifact        `json:"artifacts"`
	History      []Event           `json:"history"`
	Status       Status            `json:"status"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// Clone returns a deep copy. Callers outside the workflow only ever see
// clones, so the registry's copy can't be mutated behind its back.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Config.Requirements = slices.Clone(s.Config.Requirements)
	cp.Config.Phases = slices.Clone(s.Config.Phases)
	cp.Config.Constraints = make([]Constraint, len(s.Config.Constraints))
	for i, c := range s.Config.Constraints {
		c.Keywords = slices.Clone(c.Keywords)
		cp.Config.Constraints[i] = c
	}
	cp.Phases = make(map[string]*Phase, len(s.Phases))
	for id, p := range s.Phases {
		cp.Phases[id] = p.Clone()
	}
	cp.Sequence.PhaseIDs = slices.Clone(s.Sequence.PhaseIDs)
	cp.Sequence.MethodologyPhases = slices.Clone(s.Sequence.MethodologyPhases)
	cp.Coverage.Phases = maps.Clone(s.Coverage.Phases)
	cp.Coverage.Constraints = maps.Clone(s.Coverage.Constraints)
	cp.Artifacts = slices.Clone(s.Artifacts)
	cp.History = make([]Event, len(s.History))
	for i, e := range s.History {
		e.Data = maps.Clone(e.Data)
		cp.History[i] = e
	}
	return &cp
}

// Phase returns the phase with the given id, or nil.
func (s *State) Phase(id string) *Phase {
	return s.Phases[id]
}

// OrderedPhases returns the session's phases in sequence order.
func (s *State) OrderedPhases() []*Phase {
	out := make([]*Phase, 0, len(s.Sequence.PhaseIDs))
	for _, id := range s.Sequence.PhaseIDs {
		if p, ok := s.Phases[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

// CompletedCount returns how many phases of the sequence are completed.
func (s *State) CompletedCount() int {
	n := 0
	for _, p := range s.OrderedPhases() {
		if p.Status == PhaseCompleted {
			n++
		}
	}
	return n
}
