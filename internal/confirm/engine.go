// Package confirm decides whether a design phase is done.
//
// The Engine runs a fixed battery of independent checks over submitted
// content (criteria completion, coverage, constraint compliance, output
// quality, stakeholder approval) and folds them into one verdict. A check
// that fails degrades to an error result; it never aborts the run.
//
// Sessions without constraints are treated as minimal: their coverage
// thresholds are capped at the lenient threshold so exploratory sessions
// are not blocked by a quality bar nobody declared.
package confirm

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/HendryAvila/designflow/internal/constraints"
	"github.com/HendryAvila/designflow/internal/content"
	"github.com/HendryAvila/designflow/internal/logging"
	"github.com/HendryAvila/designflow/internal/metrics"
	"github.com/HendryAvila/designflow/internal/rationale"
	"github.com/HendryAvila/designflow/internal/session"
)

// DefaultLenientThreshold caps thresholds for minimal sessions.
const DefaultLenientThreshold = 50

// Options tune a confirmation run.
type Options struct {
	// StrictMode requires zero issues to proceed (minimal sessions excepted).
	StrictMode bool
	// AutoAdvance marks a run made on behalf of an advance.
	AutoAdvance bool
	// CaptureRationale extracts rationale into the log when the phase can
	// proceed.
	CaptureRationale bool
}

// Request is the single input to ConfirmPhaseCompletion.
type Request struct {
	State   *session.State
	PhaseID string
	Content string
	Options Options
}

// Result is the verdict of one confirmation. It is returned, not stored.
type Result struct {
	Passed           bool                    `json:"passed"`
	CanProceed       bool                    `json:"can_proceed"`
	Coverage         float64                 `json:"coverage"`
	OverallCoverage  float64                 `json:"overall_coverage"`
	Completeness     float64                 `json:"completeness"`
	PhaseThreshold   float64                 `json:"phase_threshold"`
	OverallThreshold float64                 `json:"overall_threshold"`
	MinimalSession   bool                    `json:"minimal_session"`
	Issues           []string                `json:"issues"`
	Recommendations  []string                `json:"recommendations"`
	NextSteps        []string                `json:"next_steps"`
	Checks           []CheckResult           `json:"checks"`
	Violations       []constraints.Violation `json:"violations"`
	Quality          Quality                 `json:"quality"`
	Rationale        *rationale.Rationale    `json:"rationale,omitempty"`
}

// HasErrors reports whether any constraint violation blocks.
func (r Result) HasErrors() bool {
	for _, v := range r.Violations {
		if v.Severity == constraints.SeverityError {
			return true
		}
	}
	return false
}

// Deps wires an Engine.
type Deps struct {
	Provider *constraints.Provider
	Log      rationale.Log
	Logger   *logging.Logger
	Metrics  *metrics.Metrics
	// LenientThreshold caps minimal-session thresholds. Zero uses
	// DefaultLenientThreshold.
	LenientThreshold float64
}

// Engine confirms phases. Safe for concurrent use.
type Engine struct {
	provider *constraints.Provider
	analyzer content.Analyzer
	log      rationale.Log
	logger   *logging.Logger
	metrics  *metrics.Metrics
	lenient  float64
	checks   []check
}

// NewEngine creates an engine.
func NewEngine(d Deps) *Engine {
	e := &Engine{
		provider: d.Provider,
		log:      d.Log,
		logger:   d.Logger,
		metrics:  d.Metrics,
		lenient:  d.LenientThreshold,
		checks:   defaultChecks(),
	}
	if e.log == nil {
		e.log = rationale.NewMemoryLog()
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	if e.lenient <= 0 {
		e.lenient = DefaultLenientThreshold
	}
	if e.provider != nil {
		e.analyzer = e.provider.Analyzer()
	} else {
		e.analyzer = content.NewKeywordAnalyzer()
	}
	return e
}

// Provider returns the engine's constraint provider.
func (e *Engine) Provider() *constraints.Provider { return e.provider }

// ConfirmPhaseCompletion judges whether req.PhaseID is done. An unknown
// phase is a failed result, not an error; errors are reserved for a nil
// state and rationale log failures.
func (e *Engine) ConfirmPhaseCompletion(ctx context.Context, req Request) (Result, error) {
	if req.State == nil {
		return Result{}, errors.New("confirm: session state is required")
	}

	phase := req.State.Phase(req.PhaseID)
	if phase == nil {
		res := newResult()
		res.Issues = append(res.Issues, fmt.Sprintf("Phase '%s' not found", req.PhaseID))
		res.NextSteps = append(res.NextSteps, "Check the phase id against the session's phase sequence")
		e.metrics.ObserveConfirmation(false)
		return res, nil
	}

	minimal := len(req.State.Config.Constraints) == 0
	phaseMin, overallMin := e.thresholds(phase.ID)
	if minimal {
		phaseMin = math.Min(phaseMin, e.lenient)
		overallMin = math.Min(overallMin, e.lenient)
	}

	ev := &evaluation{
		state:    req.State,
		phase:    phase,
		content:  req.Content,
		provider: e.provider,
		analyzer: e.analyzer,
		phaseMin: phaseMin,
	}

	res := newResult()
	res.MinimalSession = minimal
	res.PhaseThreshold = phaseMin
	res.OverallThreshold = overallMin

	for _, c := range e.checks {
		cr := runCheck(ctx, c, ev)
		if cr.Status == StatusError {
			e.logger.Warn(ctx, "confirmation check failed",
				zap.String("check", cr.Name), zap.String("phase", phase.ID), zap.String("error", cr.Message))
			res.Recommendations = append(res.Recommendations,
				fmt.Sprintf("Check '%s' could not run: %s", cr.Name, cr.Message))
		}
		res.Checks = append(res.Checks, cr)
	}

	res.Completeness = ev.completeness
	res.Coverage = content.Clamp(ev.phaseCoverage)
	res.Quality = ev.quality
	res.Violations = append(res.Violations, ev.validation.Violations...)
	constraintCoverage := res.Coverage
	if ev.validated {
		constraintCoverage = ev.validation.Coverage
	}
	// Mean of phase and constraint coverage. This is not the session-wide
	// CoverageReport.Overall.
	res.OverallCoverage = content.Clamp((res.Coverage + constraintCoverage) / 2)

	if res.Coverage < phaseMin {
		res.Issues = append(res.Issues,
			fmt.Sprintf("Phase '%s' coverage %.0f%% is below the %.0f%% minimum", phase.ID, res.Coverage, phaseMin))
		_, missing := criteriaCompleteness(e.analyzer, phase.Criteria, req.Content)
		if len(missing) > 0 {
			res.Recommendations = append(res.Recommendations,
				fmt.Sprintf("Address the missing criteria: %s", joinQuoted(missing)))
		}
	}
	if res.OverallCoverage < overallMin {
		res.Issues = append(res.Issues,
			fmt.Sprintf("Overall coverage %.0f%% is below the %.0f%% minimum", res.OverallCoverage, overallMin))
		res.Recommendations = append(res.Recommendations,
			"Cover the session's constraints and the phase criteria more completely")
	}
	for _, out := range phase.Outputs {
		kw := content.OutputKeyword(out)
		if !e.analyzer.Contains(req.Content, kw) {
			res.Issues = append(res.Issues, fmt.Sprintf("Missing required output: %s", kw))
			res.Recommendations = append(res.Recommendations, fmt.Sprintf("Add a section covering %s", kw))
		}
	}
	for _, v := range res.Violations {
		if v.Severity != constraints.SeverityInfo {
			res.Recommendations = append(res.Recommendations, v.Message)
		}
	}

	hasErrors := res.HasErrors()
	meets := res.Coverage >= phaseMin && res.OverallCoverage >= overallMin
	if req.Options.StrictMode && !minimal {
		res.CanProceed = !hasErrors && meets && len(res.Issues) == 0
	} else {
		res.CanProceed = !hasErrors && (meets || minimal)
	}
	res.Passed = res.CanProceed && (minimal || len(res.Issues) == 0)

	res.NextSteps = e.nextSteps(req.State, phase.ID, res)

	if req.Options.CaptureRationale && res.CanProceed {
		r := rationale.Extract(e.analyzer, req.State.Config.SessionID, phase.ID, req.Content)
		if err := e.log.Append(ctx, r); err != nil {
			return Result{}, fmt.Errorf("capturing rationale: %w", err)
		}
		res.Rationale = &r
	}

	e.metrics.ObserveConfirmation(res.Passed)
	e.logger.Debug(ctx, "phase confirmation",
		zap.String("phase", phase.ID),
		zap.Bool("passed", res.Passed),
		zap.Bool("can_proceed", res.CanProceed),
		zap.Float64("coverage", res.Coverage),
		zap.Float64("overall_coverage", res.OverallCoverage),
		zap.Int("issues", len(res.Issues)),
	)
	return res, nil
}

// ExportRationaleDocumentation renders the session's rationale history.
func (e *Engine) ExportRationaleDocumentation(ctx context.Context, sessionID, format string) (string, error) {
	f, err := rationale.ParseFormat(format)
	if err != nil {
		return "", err
	}
	entries, err := e.log.List(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("listing rationale: %w", err)
	}
	return rationale.Export(sessionID, entries, f)
}

func (e *Engine) thresholds(phaseID string) (phase, overall float64) {
	if e.provider == nil {
		return 80, 85
	}
	cat := e.provider.Catalog()
	return cat.PhaseMinimum(phaseID), cat.Thresholds.OverallMinimum
}

func (e *Engine) nextSteps(st *session.State, phaseID string, res Result) []string {
	var steps []string
	if res.Passed {
		idx := st.Sequence.Index(phaseID)
		if idx >= 0 && idx+1 < len(st.Sequence.PhaseIDs) {
			steps = append(steps, fmt.Sprintf("Advance to '%s'", st.Sequence.PhaseIDs[idx+1]))
		} else {
			steps = append(steps, "Complete the session and review the full design")
		}
	} else {
		steps = append(steps, "Revise the phase content to address the issues", "Run the confirmation again")
	}
	return append(steps, "Obtain stakeholder approval (not tracked automatically)")
}

func newResult() Result {
	return Result{
		Issues:          []string{},
		Recommendations: []string{},
		NextSteps:       []string{},
		Checks:          []CheckResult{},
		Violations:      []constraints.Violation{},
	}
}

func joinQuoted(items []string) string {
	out := ""
	for i, s := range items {
		if i > 0 {
			out += ", "
		}
		out += "'" + s + "'"
	}
	return out
}
