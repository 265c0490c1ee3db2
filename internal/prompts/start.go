// Package prompts implements MCP prompt handlers for design sessions.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/designflow/internal/methodology"
	"github.com/HendryAvila/designflow/internal/session"
)

// StartPrompt handles the design-start MCP prompt.
// It guides the AI to open a design session and work its first phase.
type StartPrompt struct {
	methodologies *methodology.Registry
}

// NewStartPrompt creates a StartPrompt.
func NewStartPrompt(methodologies *methodology.Registry) *StartPrompt {
	return &StartPrompt{methodologies: methodologies}
}

// Definition returns the MCP prompt definition for registration.
func (p *StartPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("design-start",
		mcp.WithPromptDescription(
			"Start a structured design session. "+
				"Walks the design from discovery to an implementation plan, "+
				"confirming each phase before moving on.",
		),
		mcp.WithArgument("goal",
			mcp.ArgumentDescription("What the design should achieve"),
		),
		mcp.WithArgument("methodology",
			mcp.ArgumentDescription(
				"Optional methodology profile ("+strings.Join(p.methodologies.IDs(), ", ")+"). Default: the five-phase sequence",
			),
		),
	)
}

// Handle processes the design-start prompt request.
func (p *StartPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	goal := "a new system"
	profile := ""
	if args := req.Params.Arguments; args != nil {
		if g, ok := args["goal"]; ok && g != "" {
			goal = g
		}
		if m, ok := args["methodology"]; ok && m != "" {
			profile = m
		}
	}

	phases := session.DefaultSequence()
	profileArg := ""
	if profile != "" {
		prof, err := p.methodologies.Get(profile)
		if err != nil {
			return nil, fmt.Errorf("design-start: %w", err)
		}
		phases = prof.Phases
		profileArg = fmt.Sprintf(", methodology_profile='%s'", prof.ID)
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Start design session: %s", goal),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"I want to design %s.\n\n"+
						"Please:\n"+
						"1. Pick a short session id and run `design_workflow` with action='start', goal='%s'%s. "+
						"Ask me for context, known requirements and constraints first (e.g. technical.security)\n"+
						"2. Work through the phases in order: %s\n"+
						"3. For each phase, draft the content with me, then run `design_confirm_phase` before advancing\n"+
						"4. When a phase passes, run `design_workflow` with action='advance' and the phase content\n"+
						"5. If the design feels tangled or uncertain, run `design_evaluate_pivot`\n"+
						"6. At the end, export the rationale with `design_export_rationale`",
					goal, goal, profileArg, strings.Join(phases, " → "),
				)),
			},
		},
	}, nil
}
