package prompts

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/designflow/internal/methodology"
)

func promptText(t *testing.T, res *mcp.GetPromptResult) string {
	t.Helper()
	if len(res.Messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(res.Messages))
	}
	tc, ok := res.Messages[0].Content.(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want mcp.TextContent", res.Messages[0].Content)
	}
	return tc.Text
}

func TestStartPrompt_Default(t *testing.T) {
	p := NewStartPrompt(methodology.NewRegistry())
	if got := p.Definition().Name; got != "design-start" {
		t.Errorf("Name = %q", got)
	}

	res, err := p.Handle(context.Background(), mcp.GetPromptRequest{})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	text := promptText(t, res)
	if !strings.Contains(text, "discovery → requirements → architecture → specification → planning") {
		t.Errorf("default sequence missing:\n%s", text)
	}
	if strings.Contains(text, "methodology_profile") {
		t.Error("no profile was requested")
	}
}

func TestStartPrompt_Methodology(t *testing.T) {
	p := NewStartPrompt(methodology.NewRegistry())
	req := mcp.GetPromptRequest{}
	req.Params.Arguments = map[string]string{"goal": "a billing portal", "methodology": "lean-mvp"}

	res, err := p.Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	text := promptText(t, res)
	if !strings.Contains(text, "methodology_profile='lean-mvp'") || !strings.Contains(text, "a billing portal") {
		t.Errorf("unexpected prompt:\n%s", text)
	}
}

func TestStartPrompt_UnknownMethodology(t *testing.T) {
	p := NewStartPrompt(methodology.NewRegistry())
	req := mcp.GetPromptRequest{}
	req.Params.Arguments = map[string]string{"methodology": "waterfall"}
	if _, err := p.Handle(context.Background(), req); err == nil {
		t.Error("expected error for unknown methodology")
	}
}

func TestStatusPrompt(t *testing.T) {
	p := NewStatusPrompt()

	res, err := p.Handle(context.Background(), mcp.GetPromptRequest{})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !strings.Contains(promptText(t, res), "design://sessions") {
		t.Error("without a session id the prompt should point at the session list")
	}

	req := mcp.GetPromptRequest{}
	req.Params.Arguments = map[string]string{"session_id": "s1"}
	res, err = p.Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !strings.Contains(promptText(t, res), "session_id='s1'") {
		t.Error("session id not passed through")
	}
}
