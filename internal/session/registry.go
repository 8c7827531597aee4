package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry tracks open sessions by id
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	opts     []Option
}

// NewRegistry creates a registry whose sessions expire after ttl of inactivity.
// opts are applied to every session it creates.
func NewRegistry(ttl time.Duration, opts ...Option) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		opts:     opts,
	}
}

// Create opens a new session
func (r *Registry) Create() *Session {
	s := New(uuid.New().String(), r.opts...)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID()] = s
	return s
}

// Get returns the session with id
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Delete closes and removes the session with id
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if ok {
		s.Close()
	}
	return ok
}

// Len returns the number of open sessions
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep closes sessions idle for longer than the ttl and returns how many were removed
func (r *Registry) Sweep(now time.Time) int {
	if r.ttl <= 0 {
		return 0
	}

	var expired []*Session
	r.mu.Lock()
	for id, s := range r.sessions {
		if now.Sub(s.LastAccess()) > r.ttl {
			expired = append(expired, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range expired {
		s.Close()
	}
	return len(expired)
}
