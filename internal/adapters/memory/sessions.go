// Package memory provides in-process stores for single-instance deployments
// and tests. Nothing survives a restart.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/samirrijal/mapart/internal/core/domain"
)

type sessionEntry struct {
	session   domain.Session
	expiresAt time.Time
}

// SessionStore implements ports.SessionStore in memory.
type SessionStore struct {
	mu        sync.Mutex
	ttl       time.Duration
	sessions  map[string]sessionEntry
	exporting map[string]bool
	now       func() time.Time
}

// NewSessionStore creates a store whose sessions expire ttl after their last
// save. A zero ttl keeps sessions until deleted.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		ttl:       ttl,
		sessions:  make(map[string]sessionEntry),
		exporting: make(map[string]bool),
		now:       time.Now,
	}
}

func (s *SessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok || s.expired(e) {
		delete(s.sessions, id)
		delete(s.exporting, id)
		return nil, domain.ErrSessionNotFound
	}
	sess := e.session
	sess.Polygon = append(domain.Polygon(nil), e.session.Polygon...)
	sess.Exporting = s.exporting[id]
	return &sess, nil
}

func (s *SessionStore) Save(ctx context.Context, sess *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sess
	cp.ID = strings.Clone(sess.ID)
	cp.Polygon = append(domain.Polygon(nil), sess.Polygon...)
	e := sessionEntry{session: cp}
	if s.ttl > 0 {
		e.expiresAt = s.now().Add(s.ttl)
	}
	s.sessions[cp.ID] = e
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	delete(s.exporting, id)
	return nil
}

func (s *SessionStore) AcquireExport(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.exporting[id] {
		return false, nil
	}
	s.exporting[strings.Clone(id)] = true
	return true, nil
}

func (s *SessionStore) ReleaseExport(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.exporting, id)
	return nil
}

// Len reports live sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.sessions {
		if !s.expired(e) {
			n++
		}
	}
	return n
}

func (s *SessionStore) expired(e sessionEntry) bool {
	return !e.expiresAt.IsZero() && s.now().After(e.expiresAt)
}
