package chat

import (
	"sort"
	"sync"

	"github.com/samber/lo"
)

// Registry maps usernames to live sessions. It is the only shared mutable
// state reached by more than one connection handler, so it is the sole
// locking boundary in the server.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Register inserts the session if the name is free. The check and the insert
// happen under one lock, so of any set of concurrent callers with the same
// name exactly one wins.
func (r *Registry) Register(name string, s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[name]; exists {
		return false
	}
	r.sessions[name] = s
	ConnectedSessions.Set(float64(len(r.sessions)))
	return true
}

// Unregister removes the entry if present and reports whether this call
// removed it. Removing twice is a no-op; the boolean is the single gate for
// leave side effects.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[name]; !exists {
		return false
	}
	delete(r.sessions, name)
	ConnectedSessions.Set(float64(len(r.sessions)))
	return true
}

func (r *Registry) Lookup(name string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[name]
	return s, ok
}

// Usernames returns a sorted snapshot of everyone online.
func (r *Registry) Usernames() []string {
	r.mu.RLock()
	names := lo.Keys(r.sessions)
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Sessions returns a point-in-time snapshot for fan-out.
func (r *Registry) Sessions() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Values(r.sessions)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
