// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates concrete implementations and
// injects them into the tools, prompts and resources that depend on them.
// No business logic lives here, only wiring.
package server

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/HendryAvila/designflow/internal/config"
	"github.com/HendryAvila/designflow/internal/confirm"
	"github.com/HendryAvila/designflow/internal/constraints"
	"github.com/HendryAvila/designflow/internal/logging"
	"github.com/HendryAvila/designflow/internal/methodology"
	"github.com/HendryAvila/designflow/internal/metrics"
	"github.com/HendryAvila/designflow/internal/pivot"
	"github.com/HendryAvila/designflow/internal/prompts"
	"github.com/HendryAvila/designflow/internal/rationale"
	"github.com/HendryAvila/designflow/internal/resources"
	"github.com/HendryAvila/designflow/internal/session"
	"github.com/HendryAvila/designflow/internal/tools"
	"github.com/HendryAvila/designflow/internal/workflow"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Components are the shared dependencies behind the MCP surface.
type Components struct {
	Store         *session.Registry
	Provider      *constraints.Provider
	Methodologies *methodology.Registry
	Rationale     rationale.Log
	Engine        *confirm.Engine
	Pivot         *pivot.Evaluator
	Orchestrator  *workflow.Orchestrator
}

// Build resolves every dependency from cfg.
//
// The returned cleanup function closes the rationale log and must be
// called on shutdown (typically via defer). It is always non-nil.
func Build(cfg *config.Config, logger *logging.Logger, m *metrics.Metrics) (*Components, func(), error) {
	ctx := context.Background()
	if logger == nil {
		logger = logging.NewNop()
	}

	// --- Constraint catalog ---

	cat, err := constraints.DefaultCatalog()
	if cfg.Workflow.ConstraintsFile != "" {
		cat, err = constraints.LoadCatalog(cfg.Workflow.ConstraintsFile)
	}
	if err != nil {
		return nil, noop, fmt.Errorf("loading constraint catalog: %w", err)
	}
	provider := constraints.NewProvider(cat, nil)

	// --- Methodology profiles ---

	methodologies := methodology.NewRegistry()
	if dir := cfg.Workflow.MethodologyDir; dir != "" {
		n, err := methodologies.LoadDir(dir)
		if err != nil {
			return nil, noop, fmt.Errorf("loading methodologies: %w", err)
		}
		logger.Info(ctx, "methodology profiles loaded", zap.String("dir", dir), zap.Int("count", n))
	}

	// --- Rationale log ---

	var log rationale.Log
	switch cfg.Rationale.Backend {
	case config.BackendSQLite:
		sqliteLog, err := rationale.NewSQLiteLog(rationale.SQLiteConfig{DataDir: cfg.Rationale.DataDir}, logger.Named("rationale"))
		if err != nil {
			return nil, noop, fmt.Errorf("opening rationale log: %w", err)
		}
		log = sqliteLog
	default:
		log = rationale.NewMemoryLog()
	}
	cleanup := func() {
		if err := log.Close(); err != nil {
			logger.Warn(ctx, "rationale log close", zap.Error(err))
		}
	}

	// --- Engines ---

	engine := confirm.NewEngine(confirm.Deps{
		Provider:         provider,
		Log:              log,
		Logger:           logger.Named("confirm"),
		Metrics:          m,
		LenientThreshold: cfg.Workflow.LenientThreshold,
	})
	evaluator := pivot.NewEvaluator(pivot.Options{
		ComplexityThreshold: cfg.Pivot.ComplexityThreshold,
		EntropyThreshold:    cfg.Pivot.EntropyThreshold,
	}, provider.Analyzer())

	store := session.NewRegistry()
	orch, err := workflow.New(workflow.Deps{
		Store:            store,
		Provider:         provider,
		Engine:           engine,
		Pivot:            evaluator,
		Methodologies:    methodologies,
		Logger:           logger.Named("workflow"),
		Metrics:          m,
		CaptureRationale: cfg.Workflow.CaptureRationale,
	})
	if err != nil {
		cleanup()
		return nil, noop, fmt.Errorf("creating orchestrator: %w", err)
	}

	return &Components{
		Store:         store,
		Provider:      provider,
		Methodologies: methodologies,
		Rationale:     log,
		Engine:        engine,
		Pivot:         evaluator,
		Orchestrator:  orch,
	}, cleanup, nil
}

// New creates and configures the MCP server with all tools, prompts,
// and resources registered. This is the single place where all
// dependencies are resolved.
func New(cfg *config.Config, logger *logging.Logger, m *metrics.Metrics) (*server.MCPServer, func(), error) {
	c, cleanup, err := Build(cfg, logger, m)
	if err != nil {
		return nil, noop, err
	}

	s := server.NewMCPServer(
		cfg.Server.Name,
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register tools ---

	workflowTool := tools.NewWorkflowTool(c.Orchestrator, c.Provider)
	s.AddTool(workflowTool.Definition(), workflowTool.Handle)

	confirmTool := tools.NewConfirmTool(c.Store, c.Engine)
	s.AddTool(confirmTool.Definition(), confirmTool.Handle)

	pivotTool := tools.NewPivotTool(c.Store, c.Pivot, m)
	s.AddTool(pivotTool.Definition(), pivotTool.Handle)

	exportTool := tools.NewExportTool(c.Engine)
	s.AddTool(exportTool.Definition(), exportTool.Handle)

	// --- Register prompts ---

	startPrompt := prompts.NewStartPrompt(c.Methodologies)
	s.AddPrompt(startPrompt.Definition(), startPrompt.Handle)

	statusPrompt := prompts.NewStatusPrompt()
	s.AddPrompt(statusPrompt.Definition(), statusPrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(c.Store, c.Methodologies, c.Provider)
	s.AddResource(resourceHandler.SessionsResource(), resourceHandler.HandleSessions)
	s.AddResource(resourceHandler.MethodologiesResource(), resourceHandler.HandleMethodologies)
	s.AddResource(resourceHandler.ConstraintsResource(), resourceHandler.HandleConstraints)

	return s, cleanup, nil
}

// noop is the cleanup returned when nothing was opened.
func noop() {}

// serverInstructions returns the system instructions that tell the AI
// how to use designflow effectively.
func serverInstructions() string {
	return `You have access to designflow, a design session workflow server.

## WHEN TO USE designflow

Suggest a design session when the user:
- Wants to design a new system, service or major feature
- Describes a vague idea and wants a plan before coding
- Asks for an architecture, API or data model review with a clear goal

You do NOT need a design session for bug fixes, small refactors,
questions or one-line changes.

## CRITICAL: How Tools Work
designflow tools JUDGE and RECORD content YOU write with the user.
1. TALK to the user about the phase's concerns
2. WRITE the phase content yourself, in markdown
3. CONFIRM it with design_confirm_phase
4. ADVANCE with design_workflow (action=advance) passing the same content

NEVER submit placeholder text. Confirmation scores real content only.

## Phases
The default sequence is:
1. discovery: problem statement, stakeholder analysis, context map
2. requirements: functional and non-functional requirements, acceptance criteria
3. architecture: system architecture, component design, data flow
4. specification: API specification, data model, error handling
5. planning: implementation plan, milestones, risk assessment

A methodology profile (see design://methodologies) replaces this sequence.

## Constraints
Constraints declared at start (see design://constraints) must be addressed
in every phase. A violated mandatory constraint blocks the phase. Sessions
without constraints use relaxed thresholds.

## Pivots
Each advance with content reports complexity and entropy. When a pivot is
recommended, stop and discuss the alternatives with the user before going on.
design_evaluate_pivot runs the same check on demand.

## Rationale
Decisions ("decided to", "chose"), assumptions, alternatives and risks in the
content are captured when a phase passes. design_export_rationale exports them.`
}
