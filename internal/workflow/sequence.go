package workflow

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/HendryAvila/designflow/internal/methodology"
	"github.com/HendryAvila/designflow/internal/session"
)

// ComputeNextPhase returns the successor of currentPhaseID. The sequence
// is taken from the session itself, then from its methodology phase list,
// then the default order. An id not in the sequence counts as the first
// element. The bool is false at the end of the sequence.
func ComputeNextPhase(currentPhaseID string, st *session.State) (string, bool) {
	seq := resolveSequence(st)
	if len(seq) == 0 {
		return "", false
	}

	idx := -1
	for i, id := range seq {
		if id == currentPhaseID {
			idx = i
			break
		}
	}
	if idx < 0 {
		idx = 0
	}
	if idx+1 >= len(seq) {
		return "", false
	}
	return seq[idx+1], true
}

func resolveSequence(st *session.State) []string {
	switch {
	case st == nil:
		return session.DefaultSequence()
	case len(st.Sequence.PhaseIDs) > 0:
		return st.Sequence.PhaseIDs
	case len(st.Sequence.MethodologyPhases) > 0:
		return st.Sequence.MethodologyPhases
	default:
		return session.DefaultSequence()
	}
}

// selectSource resolves where the phase order comes from. A profile wins
// over a custom order in cfg, which wins over the default.
func (o *Orchestrator) selectSource(cfg session.Config, profileID string) (session.SequenceSource, *methodology.Profile, error) {
	if profileID != "" {
		p, err := o.methodologies.Get(profileID)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrUnknownMethodology, err)
		}
		return p.Source(), &p, nil
	}
	if len(cfg.Phases) > 0 {
		return session.CustomSource{Phases: cfg.Phases}, nil, nil
	}
	return session.DefaultSource{}, nil, nil
}

// buildPhases creates the start-shape phase map for seq. Definitions come
// from the methodology profile, then the constraint catalog, then a
// generic placeholder. Each phase depends on its predecessor.
func (o *Orchestrator) buildPhases(seq session.Sequence, profile *methodology.Profile) map[string]*session.Phase {
	phases := make(map[string]*session.Phase, len(seq.PhaseIDs))
	for i, id := range seq.PhaseIDs {
		ph := o.definePhase(id, profile)
		ph.Status = session.PhasePending
		ph.Dependencies = []string{}
		if i > 0 {
			ph.Dependencies = append(ph.Dependencies, seq.PhaseIDs[i-1])
		}
		if i == 0 {
			ph.Status = session.PhaseInProgress
		}
		phases[id] = ph
	}
	return phases
}

func (o *Orchestrator) definePhase(id string, profile *methodology.Profile) *session.Phase {
	if profile != nil {
		if def, ok := profile.Definition(id); ok {
			name := def.Name
			if name == "" {
				name = displayName(id)
			}
			return &session.Phase{
				ID:          id,
				Name:        name,
				Description: def.Description,
				Inputs:      append([]string{}, def.Inputs...),
				Outputs:     append([]string{}, def.Outputs...),
				Criteria:    append([]string{}, def.Criteria...),
				Artifacts:   []session.Artifact{},
			}
		}
	}
	if o.provider != nil {
		if req, ok := o.provider.Requirement(id); ok {
			ph := req.Phase()
			ph.Artifacts = []session.Artifact{}
			return ph
		}
	}
	return genericPhase(id)
}

// genericPhase is the fallback for ids neither a profile nor the catalog
// define. It has no criteria, so confirmation judges it on quality and
// constraints alone.
func genericPhase(id string) *session.Phase {
	return &session.Phase{
		ID:          id,
		Name:        displayName(id),
		Description: "Custom design phase " + id,
		Inputs:      []string{},
		Outputs:     []string{},
		Criteria:    []string{},
		Artifacts:   []session.Artifact{},
	}
}

// displayName turns "policy-analysis" into "Policy Analysis".
func displayName(id string) string {
	words := strings.FieldsFunc(id, func(r rune) bool { return r == '-' || r == '_' || r == ' ' })
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// resetPhase returns ph to its start shape.
func resetPhase(ph *session.Phase) {
	ph.Status = session.PhasePending
	ph.Coverage = 0
	ph.Artifacts = []session.Artifact{}
}
