package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// StatusPrompt handles the design-status MCP prompt.
// It instructs the AI to read and present a session's progress.
type StatusPrompt struct{}

// NewStatusPrompt creates a StatusPrompt.
func NewStatusPrompt() *StatusPrompt {
	return &StatusPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StatusPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("design-status",
		mcp.WithPromptDescription(
			"Check the progress of a design session. "+
				"Shows phase progress, coverage, and what to do next.",
		),
		mcp.WithArgument("session_id",
			mcp.ArgumentDescription("Session to inspect. Omit to list all sessions"),
		),
	)
}

// Handle processes the design-status prompt request.
func (p *StatusPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	lookup := "Please read the `design://sessions` resource and ask me which session to inspect."
	if id := req.Params.Arguments["session_id"]; id != "" {
		lookup = fmt.Sprintf("Please run `design_workflow` with action='status' and session_id='%s'.", id)
	}

	return &mcp.GetPromptResult{
		Description: "Design Session Status",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					lookup + "\n\n" +
						"Then:\n" +
						"1. Show me the phase progress in a clear, visual format\n" +
						"2. Highlight phases with low coverage or unmet constraints\n" +
						"3. Tell me exactly what I should do next\n" +
						"4. If artifacts were recorded, give me a brief summary of each",
				),
			},
		},
	}, nil
}
