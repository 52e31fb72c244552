package store

import (
	"context"
	"sync"

	"livesync/internal/app/model"
	"livesync/internal/pkg/errs"
)

// SettingsService is the slice of the API the SettingsStore needs.
type SettingsService interface {
	Settings(ctx context.Context) (model.Settings, *errs.CustomError)
	UpdateSettings(ctx context.Context, in model.SettingsUpdate) (bool, *errs.CustomError)
}

// SettingsStore holds the single settings record of the session.
type SettingsStore struct {
	slot

	api SettingsService

	mu       sync.RWMutex
	settings *model.Settings
}

func NewSettingsStore(api SettingsService) *SettingsStore {
	return &SettingsStore{api: api}
}

// Fetch loads the settings record.
func (s *SettingsStore) Fetch(ctx context.Context) bool {
	st, ok := call(&s.slot, func() (model.Settings, *errs.CustomError) {
		return s.api.Settings(ctx)
	})
	if !ok {
		return false
	}

	s.mu.Lock()
	s.settings = &st
	s.mu.Unlock()

	return true
}

// Settings returns the cached record.
func (s *SettingsStore) Settings() (model.Settings, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.settings == nil {
		return model.Settings{}, false
	}
	return *s.settings, true
}

// Update sends the set fields of u and merges them on success. An update that
// changes nothing succeeds without a network call.
func (s *SettingsStore) Update(ctx context.Context, u model.SettingsUpdate) bool {
	if u.Empty() {
		s.succeed()
		return true
	}
	if cur, ok := s.Settings(); ok && u.Apply(cur) == cur {
		s.succeed()
		return true
	}

	_, ok := call(&s.slot, func() (bool, *errs.CustomError) {
		return s.api.UpdateSettings(ctx, u)
	})
	if !ok {
		return false
	}

	s.mu.Lock()
	if s.settings != nil {
		next := u.Apply(*s.settings)
		s.settings = &next
	}
	s.mu.Unlock()

	return true
}

// Clear drops the record.
func (s *SettingsStore) Clear() {
	s.mu.Lock()
	s.settings = nil
	s.mu.Unlock()
}
