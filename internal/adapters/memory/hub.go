package memory

import (
	"context"
	"sync"

	"github.com/samirrijal/mapart/internal/core/domain"
)

// Hub fans notifications out to in-process subscribers. It implements
// ports.Notifier and ports.NotificationFeed.
type Hub struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]func(domain.Notification)
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[int]func(domain.Notification))}
}

// Notify delivers n synchronously to the session's subscribers.
func (h *Hub) Notify(ctx context.Context, n domain.Notification) error {
	h.mu.RLock()
	fns := make([]func(domain.Notification), 0, len(h.subs[n.SessionID]))
	for _, fn := range h.subs[n.SessionID] {
		fns = append(fns, fn)
	}
	h.mu.RUnlock()

	for _, fn := range fns {
		fn(n)
	}
	return nil
}

func (h *Hub) Subscribe(ctx context.Context, sessionID string, fn func(domain.Notification)) (func(), error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[int]func(domain.Notification))
	}
	h.subs[sessionID][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[sessionID], id)
			if len(h.subs[sessionID]) == 0 {
				delete(h.subs, sessionID)
			}
		})
	}, nil
}
