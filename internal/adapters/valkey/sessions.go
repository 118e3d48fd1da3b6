package valkey

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/samirrijal/mapart/internal/core/domain"
)

// SessionStore implements ports.SessionStore on Valkey. Sessions are JSON
// values that expire ttl after their last save.
type SessionStore struct {
	cache     *Cache
	ttl       time.Duration
	exportTTL time.Duration
}

// NewSessionStore creates a SessionStore. exportTTL bounds how long an
// exporting flag can outlive a crashed export.
func NewSessionStore(cache *Cache, ttl, exportTTL time.Duration) *SessionStore {
	return &SessionStore{cache: cache, ttl: ttl, exportTTL: exportTTL}
}

func (s *SessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	data, err := s.cache.Get(ctx, s.cache.key("session", id))
	if errors.Is(err, errMiss) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if sess.Exporting, err = s.cache.Exists(ctx, s.exportKey(id)); err != nil {
		return nil, fmt.Errorf("get export flag: %w", err)
	}
	return &sess, nil
}

func (s *SessionStore) Save(ctx context.Context, sess *domain.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, s.cache.key("session", sess.ID), data, s.ttl)
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	return s.cache.Delete(ctx, s.cache.key("session", id), s.exportKey(id))
}

func (s *SessionStore) AcquireExport(ctx context.Context, id string) (bool, error) {
	return s.cache.SetNX(ctx, s.exportKey(id), []byte("1"), s.exportTTL)
}

func (s *SessionStore) ReleaseExport(ctx context.Context, id string) error {
	return s.cache.Delete(ctx, s.exportKey(id))
}

// Ping checks the backing connection.
func (s *SessionStore) Ping(ctx context.Context) error { return s.cache.Ping(ctx) }

func (s *SessionStore) exportKey(id string) string {
	return s.cache.key("session", id, "exporting")
}
