package store

import (
	"context"
	"maps"
	"sync"
	"time"

	"livesync/internal/app/model"
	"livesync/internal/pkg/errs"
)

// PresenceService is the slice of the API the PresenceStore needs.
type PresenceService interface {
	Presence(ctx context.Context, userID string) (model.Presence, *errs.CustomError)
}

// PresenceStore tracks the online state of the users the session looked at.
type PresenceStore struct {
	slot

	api PresenceService

	mu      sync.RWMutex
	entries map[string]model.Presence
}

func NewPresenceStore(api PresenceService) *PresenceStore {
	return &PresenceStore{api: api, entries: make(map[string]model.Presence)}
}

// Fetch returns the presence of userID, asking the service only for users not yet tracked.
func (s *PresenceStore) Fetch(ctx context.Context, userID string) (model.Presence, bool) {
	if p, ok := s.Get(userID); ok {
		s.succeed()
		return p, true
	}

	return call(&s.slot, func() (model.Presence, *errs.CustomError) {
		return shared(&s.slot, userID, func() (model.Presence, *errs.CustomError) {
			if p, ok := s.Get(userID); ok {
				return p, nil
			}

			p, err := s.api.Presence(ctx, userID)
			if err != nil {
				return model.Presence{}, err
			}

			s.mu.Lock()
			s.entries[userID] = p
			s.mu.Unlock()

			return p, nil
		})
	})
}

// ApplyStatusUpdate records a pushed status change. Updates for users that are
// not tracked are dropped; it reports whether the update was applied.
func (s *PresenceStore) ApplyStatusUpdate(userID string, p model.Presence) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[userID]; !ok {
		return false
	}

	s.entries[userID] = p
	return true
}

// Get returns the tracked presence of userID.
func (s *PresenceStore) Get(userID string) (model.Presence, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.entries[userID]
	return p, ok
}

func (s *PresenceStore) IsOnline(userID string) bool {
	p, _ := s.Get(userID)
	return p.Online
}

func (s *PresenceStore) LastSeen(userID string) *time.Time {
	p, _ := s.Get(userID)
	return p.LastSeen
}

// Snapshot returns a copy of every tracked entry.
func (s *PresenceStore) Snapshot() map[string]model.Presence {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return maps.Clone(s.entries)
}

// Clear stops tracking every user.
func (s *PresenceStore) Clear() {
	s.mu.Lock()
	s.entries = make(map[string]model.Presence)
	s.mu.Unlock()
}
