package orchestrator

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jjudge-oj/workbench/types"
)

const defaultRegistrySize = 256

// Registry keeps the sessions of recently edited problems, one per user
// and problem. The least recently used session is dropped when the
// registry is full.
type Registry struct {
	mu       sync.Mutex
	sessions *lru.Cache[string, *Session]
}

// NewRegistry constructs a Registry holding up to size sessions.
func NewRegistry(size int) (*Registry, error) {
	if size <= 0 {
		size = defaultRegistrySize
	}
	sessions, err := lru.NewWithEvict(size, func(_ string, s *Session) {
		s.release()
	})
	if err != nil {
		return nil, err
	}
	return &Registry{sessions: sessions}, nil
}

// Session returns the session of userID on id, creating it when needed.
func (r *Registry) Session(userID string, id types.ProblemIdentity) *Session {
	key := userID + "\x00" + id.String()

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions.Get(key); ok {
		return s
	}
	s := NewSession(userID, id)
	r.sessions.Add(key, s)
	return s
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	return r.sessions.Len()
}

// Purge drops every session.
func (r *Registry) Purge() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions.Purge()
}
