package rationale

import (
	"context"
	"errors"
	"slices"
	"sync"
)

// Log is an append-only, per-session rationale history.
type Log interface {
	Append(ctx context.Context, r Rationale) error
	List(ctx context.Context, sessionID string) ([]Rationale, error)
	Close() error
}

// MemoryLog keeps rationale in process memory.
type MemoryLog struct {
	mu      sync.RWMutex
	entries map[string][]Rationale
}

// NewMemoryLog creates an empty in-memory log.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{entries: make(map[string][]Rationale)}
}

// Append adds r to its session's history.
func (l *MemoryLog) Append(_ context.Context, r Rationale) error {
	if r.SessionID == "" {
		return errors.New("rationale: session id is required")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[r.SessionID] = append(l.entries[r.SessionID], cloneRationale(r))
	return nil
}

// List returns the session's rationale in append order.
func (l *MemoryLog) List(_ context.Context, sessionID string) ([]Rationale, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	src := l.entries[sessionID]
	out := make([]Rationale, len(src))
	for i, r := range src {
		out[i] = cloneRationale(r)
	}
	return out, nil
}

// Close is a no-op.
func (l *MemoryLog) Close() error { return nil }

func cloneRationale(r Rationale) Rationale {
	r.Decisions = slices.Clone(r.Decisions)
	r.Assumptions = slices.Clone(r.Assumptions)
	r.Alternatives = slices.Clone(r.Alternatives)
	r.Risks = slices.Clone(r.Risks)
	return r
}
