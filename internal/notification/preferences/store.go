// Package preferences stores per-user notification opt-ins.
package preferences

import (
	"context"
	"sync"

	"order-notifications/internal/models"
)

// Store reads and replaces a user's preferences.
//
// Get returns the stored value, or persists and returns the defaults when
// nothing is stored yet. Concurrent first reads never overwrite a value
// written in between. Set is a full replace.
type Store interface {
	Get(ctx context.Context, userID string) (models.NotificationPreferences, error)
	Set(ctx context.Context, userID string, prefs models.NotificationPreferences) error
}

// MemoryStore keeps preferences in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	prefs map[string]models.NotificationPreferences
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{prefs: make(map[string]models.NotificationPreferences)}
}

func (s *MemoryStore) Get(_ context.Context, userID string) (models.NotificationPreferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.prefs[userID]; ok {
		return p, nil
	}
	p := models.DefaultPreferences()
	s.prefs[userID] = p
	return p, nil
}

func (s *MemoryStore) Set(_ context.Context, userID string, prefs models.NotificationPreferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prefs[userID] = prefs
	return nil
}
