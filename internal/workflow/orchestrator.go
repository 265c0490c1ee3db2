package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/HendryAvila/designflow/internal/confirm"
	"github.com/HendryAvila/designflow/internal/constraints"
	"github.com/HendryAvila/designflow/internal/logging"
	"github.com/HendryAvila/designflow/internal/methodology"
	"github.com/HendryAvila/designflow/internal/metrics"
	"github.com/HendryAvila/designflow/internal/pivot"
	"github.com/HendryAvila/designflow/internal/session"
)

// maxPivotAlternatives is how many pivot alternatives an advance surfaces.
const maxPivotAlternatives = 2

// Deps wires an Orchestrator. Store, Provider and Engine are required;
// the rest fall back to working defaults.
type Deps struct {
	Store         session.Store
	Provider      *constraints.Provider
	Engine        *confirm.Engine
	Pivot         *pivot.Evaluator
	Methodologies *methodology.Registry
	Logger        *logging.Logger
	Metrics       *metrics.Metrics
	// CaptureRationale extracts rationale from content whenever a phase
	// is confirmed during advance or complete.
	CaptureRationale bool
}

// Orchestrator drives design sessions. Safe for concurrent use.
type Orchestrator struct {
	store            session.Store
	provider         *constraints.Provider
	engine           *confirm.Engine
	pivot            *pivot.Evaluator
	methodologies    *methodology.Registry
	logger           *logging.Logger
	metrics          *metrics.Metrics
	captureRationale bool
}

// New creates an orchestrator.
func New(d Deps) (*Orchestrator, error) {
	if d.Store == nil {
		return nil, errors.New("workflow: session store is required")
	}
	if d.Provider == nil {
		return nil, errors.New("workflow: constraint provider is required")
	}
	if d.Engine == nil {
		return nil, errors.New("workflow: confirmation engine is required")
	}

	o := &Orchestrator{
		store:            d.Store,
		provider:         d.Provider,
		engine:           d.Engine,
		pivot:            d.Pivot,
		methodologies:    d.Methodologies,
		logger:           d.Logger,
		metrics:          d.Metrics,
		captureRationale: d.CaptureRationale,
	}
	if o.pivot == nil {
		o.pivot = pivot.NewEvaluator(pivot.Options{}, d.Provider.Analyzer())
	}
	if o.methodologies == nil {
		o.methodologies = methodology.NewRegistry()
	}
	if o.logger == nil {
		o.logger = logging.NewNop()
	}
	return o, nil
}

// Engine returns the confirmation engine the orchestrator uses.
func (o *Orchestrator) Engine() *confirm.Engine { return o.engine }

// --- start ---

// Start creates (or replaces) the session sessionID. An empty sessionID
// falls back to cfg.SessionID.
func (o *Orchestrator) Start(ctx context.Context, sessionID string, cfg *session.Config, profileID string) (Response, error) {
	if cfg == nil {
		return Response{}, ErrMissingConfig
	}
	c := *cfg
	if sessionID == "" {
		sessionID = c.SessionID
	}
	if sessionID == "" {
		return Response{}, ErrMissingSessionID
	}
	c.SessionID = sessionID
	for _, con := range c.Constraints {
		if strings.TrimSpace(con.ID) == "" {
			return Response{}, fmt.Errorf("%w: constraint without id", ErrInvalidConfig)
		}
		if err := session.ValidateConstraintType(con.Type); err != nil {
			return Response{}, fmt.Errorf("%w: constraint %q: %v", ErrInvalidConfig, con.ID, err)
		}
	}

	src, profile, err := o.selectSource(c, profileID)
	if err != nil {
		return Response{}, err
	}
	seq := session.NewSequence(src)
	if len(seq.PhaseIDs) == 0 {
		return Response{}, fmt.Errorf("%w: phase sequence is empty", ErrInvalidConfig)
	}

	now := session.Now()
	st := &session.State{
		Config:       c,
		CurrentPhase: seq.First(),
		Phases:       o.buildPhases(seq, profile),
		Sequence:     seq,
		Coverage:     session.NewCoverage(),
		Artifacts:    []session.Artifact{},
		History:      []session.Event{},
		Status:       session.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if profile != nil {
		st.History = append(st.History, session.NewEvent(session.EventMethodologySelected, seq.First(),
			fmt.Sprintf("Methodology '%s' selected", profile.ID),
			map[string]any{"methodology": profile.ID, "phases": strings.Join(seq.PhaseIDs, ",")}))
	} else {
		st.History = append(st.History, session.NewEvent(session.EventPhaseStart, seq.First(),
			fmt.Sprintf("Phase '%s' started", seq.First()), nil))
	}

	unlock := o.store.Lock(sessionID)
	defer unlock()
	if err := o.store.Put(st); err != nil {
		return Response{}, fmt.Errorf("storing session: %w", err)
	}
	o.metrics.ObserveSessionStarted()
	o.logger.Info(ctx, "design session started",
		zap.String("session_id", sessionID),
		zap.String("sequence", string(seq.Kind)),
		zap.Int("phases", len(seq.PhaseIDs)),
	)

	res := newResponse(st)
	res.Success = true
	res.Message = fmt.Sprintf("Design session '%s' started with %d phases (%s sequence)",
		sessionID, len(seq.PhaseIDs), seq.Kind)
	res.Recommendations = append(res.Recommendations, phaseFocus(st.Phase(st.CurrentPhase))...)
	return res, nil
}

// --- advance ---

// Advance moves the session to targetPhaseID, or to the successor of the
// current phase when targetPhaseID is empty. Non-empty content is
// confirmed first and recorded as an artifact of the phase being left.
func (o *Orchestrator) Advance(ctx context.Context, sessionID, targetPhaseID, text string) (Response, error) {
	unlock := o.store.Lock(sessionID)
	defer unlock()

	st, err := o.load(sessionID)
	if err != nil {
		return Response{}, err
	}

	nextID := targetPhaseID
	if nextID == "" {
		next, ok := ComputeNextPhase(st.CurrentPhase, st)
		if !ok {
			return o.softFailure(ctx, st, fmt.Sprintf("No more phases after '%s'", st.CurrentPhase), nil, nil), nil
		}
		nextID = next
	}
	next := st.Phase(nextID)
	if next == nil {
		return Response{}, fmt.Errorf("%w: %q in session %q", ErrPhaseNotFound, nextID, sessionID)
	}
	if nextID == st.CurrentPhase {
		return o.softFailure(ctx, st, fmt.Sprintf("Phase '%s' is already the current phase", nextID), nil, nil), nil
	}
	if next.Status == session.PhaseCompleted {
		return o.softFailure(ctx, st, fmt.Sprintf("Phase '%s' is already completed", nextID), nil, nil), nil
	}

	current := st.Phase(st.CurrentPhase)
	coverage := 0.0
	if current != nil {
		coverage = current.Coverage
	}
	if text != "" && current != nil {
		cr, err := o.engine.ConfirmPhaseCompletion(ctx, confirm.Request{
			State:   st,
			PhaseID: current.ID,
			Content: text,
			Options: confirm.Options{AutoAdvance: true, CaptureRationale: o.captureRationale},
		})
		if err != nil {
			return Response{}, fmt.Errorf("confirming phase %q: %w", current.ID, err)
		}
		if !cr.CanProceed {
			return o.softFailure(ctx, st,
				fmt.Sprintf("Phase '%s' is not ready to advance", current.ID), cr.Issues, cr.Recommendations), nil
		}
		coverage = cr.Coverage
	}

	var recs []string
	if current != nil {
		current.Status = session.PhaseCompleted
		current.Coverage = coverage
		if text != "" {
			art := session.NewArtifact(current.ID, current.ID+"-submission", "phase-output", "markdown", text)
			current.Artifacts = append(current.Artifacts, art)
			st.Artifacts = append(st.Artifacts, art)
		}
		if st.Coverage.Phases == nil {
			st.Coverage.Phases = make(map[string]float64)
		}
		st.Coverage.Phases[current.ID] = coverage
		st.Coverage.Overall = sequenceCoverage(st)
		st.History = append(st.History, session.NewEvent(session.EventPhaseComplete, current.ID,
			fmt.Sprintf("Phase '%s' completed", current.ID), map[string]any{"coverage": coverage}))
	}
	next.Status = session.PhaseInProgress
	st.CurrentPhase = next.ID
	st.History = append(st.History, session.NewEvent(session.EventPhaseStart, next.ID,
		fmt.Sprintf("Phase '%s' started", next.ID), nil))
	st.UpdatedAt = session.Now()

	var decision *pivot.Decision
	if text != "" {
		d := o.pivot.EvaluatePivotNeed(ctx, st, text)
		o.metrics.ObservePivot(d.Triggered)
		decision = &d
		if d.Triggered {
			recs = append(recs, d.Reason)
			alts := d.Alternatives
			if len(alts) > maxPivotAlternatives {
				alts = alts[:maxPivotAlternatives]
			}
			recs = append(recs, alts...)
		}
	}

	if err := o.store.Put(st); err != nil {
		return Response{}, fmt.Errorf("storing session: %w", err)
	}
	from := ""
	if current != nil {
		from = current.ID
	}
	o.logger.Info(ctx, "phase advanced",
		zap.String("session_id", sessionID),
		zap.String("from", from),
		zap.String("to", next.ID),
		zap.Float64("coverage", coverage),
	)

	res := newResponse(st)
	res.Success = true
	res.Pivot = decision
	res.Message = fmt.Sprintf("Advanced from '%s' to '%s'", from, next.ID)
	res.Recommendations = append(res.Recommendations, phaseFocus(next)...)
	res.Recommendations = append(res.Recommendations, recs...)
	return res, nil
}

// --- complete ---

// Complete confirms phaseID in strict mode and marks it completed. The
// session completes once every phase of its sequence is completed.
func (o *Orchestrator) Complete(ctx context.Context, sessionID, phaseID, text string) (Response, error) {
	if phaseID == "" {
		return Response{}, ErrMissingPhaseID
	}
	if text == "" {
		return Response{}, ErrMissingContent
	}

	unlock := o.store.Lock(sessionID)
	defer unlock()

	st, err := o.load(sessionID)
	if err != nil {
		return Response{}, err
	}
	ph := st.Phase(phaseID)
	if ph == nil {
		return Response{}, fmt.Errorf("%w: %q in session %q", ErrPhaseNotFound, phaseID, sessionID)
	}

	cr, err := o.engine.ConfirmPhaseCompletion(ctx, confirm.Request{
		State:   st,
		PhaseID: phaseID,
		Content: text,
		Options: confirm.Options{StrictMode: true, CaptureRationale: o.captureRationale},
	})
	if err != nil {
		return Response{}, fmt.Errorf("confirming phase %q: %w", phaseID, err)
	}
	if !cr.Passed {
		return o.softFailure(ctx, st,
			fmt.Sprintf("Phase '%s' did not pass confirmation", phaseID), cr.Issues, cr.Recommendations), nil
	}

	ph.Status = session.PhaseCompleted
	ph.Coverage = cr.Coverage
	art := session.NewArtifact(ph.ID, ph.ID+"-submission", "phase-output", "markdown", text)
	ph.Artifacts = append(ph.Artifacts, art)
	st.Artifacts = append(st.Artifacts, art)

	o.recomputeCoverage(st, text)
	st.History = append(st.History,
		session.NewEvent(session.EventCoverageUpdate, ph.ID,
			fmt.Sprintf("Session coverage updated to %.0f%%", st.Coverage.Overall),
			map[string]any{"overall": st.Coverage.Overall}),
		session.NewEvent(session.EventPhaseComplete, ph.ID,
			fmt.Sprintf("Phase '%s' completed", ph.ID), map[string]any{"coverage": ph.Coverage}),
	)
	if st.CompletedCount() == len(st.Sequence.PhaseIDs) {
		st.Status = session.StatusCompleted
	}
	st.UpdatedAt = session.Now()

	if err := o.store.Put(st); err != nil {
		return Response{}, fmt.Errorf("storing session: %w", err)
	}
	o.logger.Info(ctx, "phase completed",
		zap.String("session_id", sessionID),
		zap.String("phase", phaseID),
		zap.Float64("coverage", ph.Coverage),
		zap.String("status", string(st.Status)),
	)

	res := newResponse(st)
	res.Success = true
	res.Message = fmt.Sprintf("Phase '%s' completed with %.0f%% coverage", phaseID, ph.Coverage)
	res.Recommendations = append(res.Recommendations, cr.Recommendations...)
	if st.Status == session.StatusCompleted {
		res.Message += ". The design session is complete"
		res.Recommendations = append(res.Recommendations, "Export the design rationale for review")
	}
	return res, nil
}

// --- reset ---

// Reset returns every phase to its start shape. Config and history are
// kept; a reset event is appended.
func (o *Orchestrator) Reset(ctx context.Context, sessionID string) (Response, error) {
	unlock := o.store.Lock(sessionID)
	defer unlock()

	st, err := o.load(sessionID)
	if err != nil {
		return Response{}, err
	}

	for i, id := range st.Sequence.PhaseIDs {
		ph := st.Phase(id)
		if ph == nil {
			continue
		}
		resetPhase(ph)
		if i == 0 {
			ph.Status = session.PhaseInProgress
		}
	}
	st.CurrentPhase = st.Sequence.First()
	st.Artifacts = []session.Artifact{}
	st.Coverage = session.NewCoverage()
	st.Status = session.StatusActive
	st.History = append(st.History, session.NewEvent(session.EventSessionReset, st.CurrentPhase,
		"Session reset to its first phase", nil))
	st.UpdatedAt = session.Now()

	if err := o.store.Put(st); err != nil {
		return Response{}, fmt.Errorf("storing session: %w", err)
	}
	o.logger.Info(ctx, "design session reset", zap.String("session_id", sessionID))

	res := newResponse(st)
	res.Success = true
	res.Message = fmt.Sprintf("Session '%s' reset to phase '%s'", sessionID, st.CurrentPhase)
	res.Recommendations = append(res.Recommendations, phaseFocus(st.Phase(st.CurrentPhase))...)
	return res, nil
}

// --- status ---

// Status reports progress without mutating the session.
func (o *Orchestrator) Status(ctx context.Context, sessionID string) (Response, error) {
	unlock := o.store.Lock(sessionID)
	defer unlock()

	st, err := o.load(sessionID)
	if err != nil {
		return Response{}, err
	}

	name := st.CurrentPhase
	if ph := st.Phase(st.CurrentPhase); ph != nil && ph.Name != "" {
		name = ph.Name
	}
	res := newResponse(st)
	res.Success = true
	res.Message = fmt.Sprintf("%d/%d phases completed. Current phase: %s. Overall coverage: %.0f%%",
		st.CompletedCount(), len(st.Sequence.PhaseIDs), name, st.Coverage.Overall)
	if st.Status == session.StatusCompleted {
		res.Message += ". The design session is complete"
		res.Recommendations = append(res.Recommendations, "Export the design rationale for review")
	} else {
		res.Recommendations = append(res.Recommendations, phaseFocus(st.Phase(st.CurrentPhase))...)
	}
	o.logger.Debug(ctx, "session status", zap.String("session_id", sessionID))
	return res, nil
}

// --- helpers ---

func (o *Orchestrator) load(sessionID string) (*session.State, error) {
	if sessionID == "" {
		return nil, ErrMissingSessionID
	}
	st, err := o.store.Get(sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, fmt.Errorf("%w: %q", ErrSessionNotFound, sessionID)
		}
		return nil, fmt.Errorf("loading session %q: %w", sessionID, err)
	}
	return st, nil
}

// softFailure reports a non-mutating failure. st is the loaded clone and
// is never written back.
func (o *Orchestrator) softFailure(ctx context.Context, st *session.State, msg string, issues, recs []string) Response {
	o.logger.Warn(ctx, "workflow step rejected",
		zap.String("session_id", st.Config.SessionID),
		zap.String("phase", st.CurrentPhase),
		zap.String("reason", msg),
		zap.Int("issues", len(issues)),
	)
	res := newResponse(st)
	res.Message = msg
	res.Issues = append([]string{}, issues...)
	res.Recommendations = append(res.Recommendations, recs...)
	return res
}

// recomputeCoverage refreshes session coverage after a completion: the
// constraint scores come from the provider's report over text, and the
// overall score averages the sequence phases and the constraints.
func (o *Orchestrator) recomputeCoverage(st *session.State, text string) {
	rep := o.provider.CoverageReport(st.Config, text)
	cov := session.NewCoverage()
	for id, v := range rep.Constraints {
		cov.Constraints[id] = v
	}

	var sum float64
	n := 0
	for _, ph := range st.OrderedPhases() {
		cov.Phases[ph.ID] = ph.Coverage
		sum += ph.Coverage
		n++
	}
	for _, v := range cov.Constraints {
		sum += v
		n++
	}
	if n > 0 {
		cov.Overall = sum / float64(n)
	}
	st.Coverage = cov
}

// sequenceCoverage is the mean coverage of the sequence phases combined
// with any recorded constraint coverage.
func sequenceCoverage(st *session.State) float64 {
	var sum float64
	n := 0
	for _, ph := range st.OrderedPhases() {
		sum += ph.Coverage
		n++
	}
	for _, v := range st.Coverage.Constraints {
		sum += v
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// phaseFocus lists what the next piece of content for ph should cover.
func phaseFocus(ph *session.Phase) []string {
	if ph == nil {
		return nil
	}
	name := ph.Name
	if name == "" {
		name = ph.ID
	}
	var out []string
	if len(ph.Criteria) > 0 {
		out = append(out, fmt.Sprintf("Focus %s on: %s", name, strings.Join(ph.Criteria, ", ")))
	}
	if len(ph.Outputs) > 0 {
		out = append(out, fmt.Sprintf("Produce: %s", strings.Join(ph.Outputs, ", ")))
	}
	return out
}
