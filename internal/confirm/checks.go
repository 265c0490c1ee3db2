package confirm

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/designflow/internal/constraints"
	"github.com/HendryAvila/designflow/internal/content"
	"github.com/HendryAvila/designflow/internal/session"
)

// Check names.
const (
	CheckPhaseCompletion      = "phase-completion"
	CheckCoverageThreshold    = "coverage-threshold"
	CheckConstraintCompliance = "constraint-compliance"
	CheckOutputQuality        = "output-quality"
	CheckStakeholderApproval  = "stakeholder-approval"
)

// Check statuses.
const (
	StatusComplete   = "complete"
	StatusIncomplete = "incomplete"
	StatusPassed     = "passed"
	StatusFailed     = "failed"
	StatusPending    = "pending"
	StatusError      = "error"
)

// CheckResult is the outcome of one micro-method.
type CheckResult struct {
	Name    string         `json:"name"`
	Status  string         `json:"status"`
	Score   float64        `json:"score"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// evaluation is the shared input and output of one confirmation run.
// Checks read the inputs and record their findings; a check that fails
// leaves its findings at the zero value.
type evaluation struct {
	state    *session.State
	phase    *session.Phase
	content  string
	provider *constraints.Provider
	analyzer content.Analyzer
	phaseMin float64

	completeness  float64
	phaseCoverage float64
	validation    constraints.ValidationResult
	validated     bool
	quality       Quality
}

// check is one independent micro-method.
type check interface {
	Name() string
	Run(ctx context.Context, ev *evaluation) (CheckResult, error)
}

func defaultChecks() []check {
	return []check{
		completionCheck{},
		coverageCheck{},
		complianceCheck{},
		qualityCheck{},
		stakeholderCheck{},
	}
}

// runCheck runs c, turning an error or panic into a StatusError result.
func runCheck(ctx context.Context, c check, ev *evaluation) (res CheckResult) {
	defer func() {
		if r := recover(); r != nil {
			res = CheckResult{Name: c.Name(), Status: StatusError, Message: fmt.Sprintf("check panicked: %v", r)}
		}
	}()
	res, err := c.Run(ctx, ev)
	if err != nil {
		return CheckResult{Name: c.Name(), Status: StatusError, Message: err.Error()}
	}
	res.Name = c.Name()
	return res
}

// criteriaCompleteness is the share of criteria present in text; 100 when
// there are none.
func criteriaCompleteness(a content.Analyzer, criteria []string, text string) (float64, []string) {
	if len(criteria) == 0 {
		return 100, nil
	}
	matched := a.Matched(text, criteria)
	hit := make(map[string]bool, len(matched))
	for _, m := range matched {
		hit[m] = true
	}
	var missing []string
	for _, c := range criteria {
		if !hit[c] {
			missing = append(missing, c)
		}
	}
	return content.Fraction(len(matched), len(criteria)), missing
}

// --- phase-completion ---

type completionCheck struct{}

func (completionCheck) Name() string { return CheckPhaseCompletion }

func (completionCheck) Run(_ context.Context, ev *evaluation) (CheckResult, error) {
	score, missing := criteriaCompleteness(ev.analyzer, ev.phase.Criteria, ev.content)
	ev.completeness = score

	res := CheckResult{Status: StatusIncomplete, Score: score}
	if score >= 80 {
		res.Status = StatusComplete
	}
	res.Message = fmt.Sprintf("%.0f%% of phase criteria addressed", score)
	if len(missing) > 0 {
		res.Details = map[string]any{"missing_criteria": missing}
	}
	return res, nil
}

// --- coverage-threshold ---

type coverageCheck struct{}

func (coverageCheck) Name() string { return CheckCoverageThreshold }

func (coverageCheck) Run(_ context.Context, ev *evaluation) (CheckResult, error) {
	if ev.provider == nil {
		return CheckResult{}, fmt.Errorf("no constraint provider configured")
	}
	cov, ok := ev.provider.PhaseCoverage(ev.phase.ID, ev.content)
	source := "catalog"
	if !ok {
		cov, _ = criteriaCompleteness(ev.analyzer, ev.phase.Criteria, ev.content)
		source = "phase criteria"
	}
	ev.phaseCoverage = cov

	res := CheckResult{
		Status:  StatusFailed,
		Score:   cov,
		Message: fmt.Sprintf("phase coverage %.0f%% against minimum %.0f%% (%s)", cov, ev.phaseMin, source),
		Details: map[string]any{"threshold": ev.phaseMin, "source": source},
	}
	if cov >= ev.phaseMin {
		res.Status = StatusPassed
	}
	return res, nil
}

// --- constraint-compliance ---

type complianceCheck struct{}

func (complianceCheck) Name() string { return CheckConstraintCompliance }

func (complianceCheck) Run(_ context.Context, ev *evaluation) (CheckResult, error) {
	if ev.provider == nil {
		return CheckResult{}, fmt.Errorf("no constraint provider configured")
	}
	v := ev.provider.ValidateConstraints(ev.content, ev.state.Config.Constraints)
	ev.validation = v
	ev.validated = true

	res := CheckResult{
		Status:  StatusPassed,
		Score:   v.Coverage,
		Message: fmt.Sprintf("%d constraint(s), %d violation(s)", len(ev.state.Config.Constraints), len(v.Violations)),
	}
	if !v.Passed {
		res.Status = StatusFailed
	}
	if len(v.Violations) > 0 {
		ids := make([]string, 0, len(v.Violations))
		for _, vi := range v.Violations {
			ids = append(ids, fmt.Sprintf("%s(%s)", vi.ConstraintID, vi.Severity))
		}
		res.Details = map[string]any{"violations": strings.Join(ids, ", ")}
	}
	return res, nil
}

// --- output-quality ---

type qualityCheck struct{}

func (qualityCheck) Name() string { return CheckOutputQuality }

func (qualityCheck) Run(_ context.Context, ev *evaluation) (CheckResult, error) {
	q := AssessQuality(ev.analyzer, ev.content, ev.phase.Outputs)
	ev.quality = q
	return CheckResult{
		Status:  q.Rating,
		Score:   q.Score,
		Message: fmt.Sprintf("output quality %.0f (%s)", q.Score, q.Rating),
		Details: map[string]any{
			"length":       q.Length,
			"structure":    q.Structure,
			"clarity":      q.Clarity,
			"completeness": q.Completeness,
		},
	}, nil
}

// --- stakeholder-approval ---

// stakeholderCheck is an approval gate with no approval source wired in.
// It never passes on its own.
type stakeholderCheck struct{}

func (stakeholderCheck) Name() string { return CheckStakeholderApproval }

func (stakeholderCheck) Run(_ context.Context, _ *evaluation) (CheckResult, error) {
	return CheckResult{
		Status:  StatusPending,
		Message: "stakeholder approval is not tracked automatically",
		Details: map[string]any{"approval": false},
	}, nil
}
