package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/otcheredev/medpres-client/internal/adapters"
	"github.com/otcheredev/medpres-client/internal/store"
)

// Manager hands out one Session per browser. Only signed-in sessions stay
// cached; anonymous ones are rebuilt from storage on each Get.
type Manager struct {
	store   store.Store
	backend adapters.AuthService
	opts    []Option

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a manager whose sessions share st and backend.
func NewManager(st store.Store, backend adapters.AuthService, opts ...Option) *Manager {
	return &Manager{
		store:    st,
		backend:  backend,
		opts:     opts,
		sessions: make(map[string]*Session),
	}
}

// NewID returns a fresh session id.
func (m *Manager) NewID() string {
	return uuid.NewString()
}

// Get returns the session for sid, hydrating it from storage the first
// time. A cached session is checked against storage on every call, so a
// credential that expired or was removed elsewhere signs it out.
func (m *Manager) Get(ctx context.Context, sid string) (*Session, error) {
	if _, err := uuid.Parse(sid); err != nil {
		return nil, fmt.Errorf("session: invalid id %q", sid)
	}

	m.mu.Lock()
	s, ok := m.sessions[sid]
	m.mu.Unlock()
	if ok {
		if err := s.verify(ctx); err != nil {
			return nil, err
		}
		if !s.Authenticated() {
			m.untrack(s)
		}
		return s, nil
	}

	s = New(sid, m.store, m.backend, m.opts...)
	s.hooks = hooks{onLogin: m.track, onLogout: m.untrack}
	if err := s.Init(ctx); err != nil {
		return nil, err
	}
	if s.Authenticated() {
		m.track(s)
	}
	return s, nil
}

// Len reports how many signed-in sessions are cached.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) track(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.id] = s
}

func (m *Manager) untrack(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessions[s.id] == s {
		delete(m.sessions, s.id)
	}
}
