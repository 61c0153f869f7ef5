package server

import (
	"context"
	"sync"

	"github.com/matst80/slask-storefront/pkg/reconcile"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var liveSessions = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "storefront_live_sessions",
	Help: "Open live filter sessions",
})

// SessionStore tracks the reconciler of every open live session so they can
// be closed on shutdown.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*reconcile.Reconciler
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*reconcile.Reconciler)}
}

func (s *SessionStore) Add(id string, r *reconcile.Reconciler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = r
	liveSessions.Set(float64(len(s.sessions)))
}

// Remove closes and forgets the session.
func (s *SessionStore) Remove(id string) {
	s.mu.Lock()
	r, ok := s.sessions[id]
	delete(s.sessions, id)
	liveSessions.Set(float64(len(s.sessions)))
	s.mu.Unlock()
	if ok {
		r.Close()
	}
}

func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// CloseAll is a shutdown hook.
func (s *SessionStore) CloseAll(ctx context.Context) error {
	s.mu.Lock()
	open := s.sessions
	s.sessions = make(map[string]*reconcile.Reconciler)
	liveSessions.Set(0)
	s.mu.Unlock()
	for _, r := range open {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.Close()
	}
	return nil
}
