package confirm

import (
	"context"
	"errors"
	"fmt"

	"github.com/HendryAvila/designflow/internal/constraints"
	"github.com/HendryAvila/designflow/internal/session"
)

// ErrUnknownPhase is returned by EnforceContent for a phase id the
// constraint catalog does not define.
var ErrUnknownPhase = errors.New("unknown phase")

// GateResult is the binary verdict of the coverage gate.
type GateResult struct {
	Passed          bool     `json:"passed"`
	PhaseCoverage   float64  `json:"phase_coverage"`
	OverallCoverage float64  `json:"overall_coverage"`
	Threshold       float64  `json:"threshold"`
	Gaps            []string `json:"gaps"`
}

// Gate enforces coverage thresholds by running the engine in strict mode.
type Gate struct {
	engine *Engine
}

// NewGate wraps an engine.
func NewGate(engine *Engine) *Gate {
	return &Gate{engine: engine}
}

// Enforce runs a strict confirmation of phaseID in state.
func (g *Gate) Enforce(ctx context.Context, state *session.State, phaseID, text string) (GateResult, error) {
	res, err := g.engine.ConfirmPhaseCompletion(ctx, Request{
		State:   state,
		PhaseID: phaseID,
		Content: text,
		Options: Options{StrictMode: true},
	})
	if err != nil {
		return GateResult{}, err
	}

	gr := GateResult{
		Passed:          res.Passed,
		PhaseCoverage:   res.Coverage,
		OverallCoverage: res.OverallCoverage,
		Threshold:       res.PhaseThreshold,
		Gaps:            append([]string{}, res.Issues...),
	}
	for _, v := range res.Violations {
		if v.Severity == constraints.SeverityError {
			gr.Gaps = append(gr.Gaps, v.Message)
		}
	}
	return gr, nil
}

// EnforceContent gates content for a catalog phase without a session.
// cfg supplies the constraints; its phase list is ignored.
func (g *Gate) EnforceContent(ctx context.Context, cfg session.Config, phaseID, text string) (GateResult, error) {
	provider := g.engine.Provider()
	if provider == nil {
		return GateResult{}, errors.New("confirm: gate has no constraint provider")
	}
	req, ok := provider.Requirement(phaseID)
	if !ok {
		return GateResult{}, fmt.Errorf("%w: %q", ErrUnknownPhase, phaseID)
	}

	phase := req.Phase()
	phase.Status = session.PhaseInProgress
	st := &session.State{
		Config:       cfg,
		CurrentPhase: phaseID,
		Phases:       map[string]*session.Phase{phaseID: phase},
		Sequence:     session.NewSequence(session.CustomSource{Phases: []string{phaseID}}),
		Coverage:     session.NewCoverage(),
		Status:       session.StatusActive,
	}
	return g.Enforce(ctx, st, phaseID, text)
}
