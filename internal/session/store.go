package session

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrNotFound is returned when a session id is not in the registry.
var ErrNotFound = errors.New("session not found")

// Store defines the persistence interface for session state.
// Abstracted so the orchestrator can be tested against any backend.
type Store interface {
	Get(sessionID string) (*State, error)
	Put(state *State) error
	List() ([]*State, error)
	// Lock serializes all operations on one session id. The returned
	// func releases the lock.
	Lock(sessionID string) func()
}

// Registry implements Store in process memory. Entries live until the
// process exits; there is no eviction.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*State
	locks    map[string]*sessionLock
}

// sessionLock is a per-session mutex shared by its current holder and
// waiters. refs counts both; the entry is dropped when it reaches zero.
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// NewRegistry creates an empty in-memory session registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*State),
		locks:    make(map[string]*sessionLock),
	}
}

// Get returns a clone of the stored state for sessionID.
func (r *Registry) Get(sessionID string) (*State, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st, ok := r.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, sessionID)
	}
	return st.Clone(), nil
}

// Put stores a clone of state, overwriting any prior entry for its id.
func (r *Registry) Put(state *State) error {
	if state == nil {
		return errors.New("session: cannot store nil state")
	}
	id := state.Config.SessionID
	if id == "" {
		return errors.New("session: state has no session id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id] = state.Clone()
	return nil
}

// List returns clones of all sessions ordered by session id.
func (r *Registry) List() ([]*State, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*State, 0, len(r.sessions))
	for _, st := range r.sessions {
		out = append(out, st.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Config.SessionID < out[j].Config.SessionID
	})
	return out, nil
}

// Lock acquires the per-session mutex for sessionID. The mutex entry
// only lives while someone holds or waits on it, so ids that never reach
// the registry leave nothing behind.
func (r *Registry) Lock(sessionID string) func() {
	r.mu.Lock()
	l, ok := r.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		r.locks[sessionID] = l
	}
	l.refs++
	r.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		r.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(r.locks, sessionID)
		}
		r.mu.Unlock()
	}
}
