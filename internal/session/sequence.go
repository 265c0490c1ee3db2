package session

import "slices"

// SequenceKind names where a session's phase order came from.
type SequenceKind string

const (
	SequenceDefault     SequenceKind = "default"
	SequenceMethodology SequenceKind = "methodology"
	SequenceCustom      SequenceKind = "custom"
)

// SequenceSource is a closed union of the places a phase order can come
// from. It is resolved once, at Start, and frozen into a Sequence.
type SequenceSource interface {
	Kind() SequenceKind
	PhaseIDs() []string
	sequenceSource()
}

// DefaultSource selects the built-in five-phase order.
type DefaultSource struct{}

func (DefaultSource) Kind() SequenceKind { return SequenceDefault }
func (DefaultSource) PhaseIDs() []string { return DefaultSequence() }
func (DefaultSource) sequenceSource()    {}

// MethodologySource selects the phase order of a methodology profile.
type MethodologySource struct {
	ProfileID string
	Phases    []string
}

func (m MethodologySource) Kind() SequenceKind { return SequenceMethodology }
func (m MethodologySource) PhaseIDs() []string { return slices.Clone(m.Phases) }
func (MethodologySource) sequenceSource()      {}

// CustomSource selects a caller-supplied phase order.
type CustomSource struct {
	Phases []string
}

func (c CustomSource) Kind() SequenceKind { return SequenceCustom }
func (c CustomSource) PhaseIDs() []string { return slices.Clone(c.Phases) }
func (CustomSource) sequenceSource()      {}

// Sequence is the frozen phase order stored on a session.
type Sequence struct {
	Kind     SequenceKind `json:"kind"`
	PhaseIDs []string     `json:"phase_ids"`
	// Methodology and MethodologyPhases are set when a profile was selected.
	Methodology       string   `json:"methodology,omitempty"`
	MethodologyPhases []string `json:"methodology_phases,omitempty"`
}

// NewSequence freezes a source into a Sequence. Duplicate and empty ids
// are dropped, keeping first occurrence.
func NewSequence(src SequenceSource) Sequence {
	seq := Sequence{Kind: src.Kind(), PhaseIDs: dedupe(src.PhaseIDs())}
	if m, ok := src.(MethodologySource); ok {
		seq.Methodology = m.ProfileID
		seq.MethodologyPhases = slices.Clone(seq.PhaseIDs)
	}
	return seq
}

// Index returns the position of id in the sequence, or -1.
func (s Sequence) Index(id string) int {
	return slices.Index(s.PhaseIDs, id)
}

// First returns the first phase id, or "" for an empty sequence.
func (s Sequence) First() string {
	if len(s.PhaseIDs) == 0 {
		return ""
	}
	return s.PhaseIDs[0]
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
