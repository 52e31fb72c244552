package store

import (
	"context"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"livesync/internal/app/model"
	"livesync/internal/pkg/errs"
	"livesync/internal/pkg/logx"
)

// ProfileService is the slice of the API the ProfileStore needs.
type ProfileService interface {
	MyProfile(ctx context.Context) (model.Profile, *errs.CustomError)
	Profile(ctx context.Context, id string) (model.Profile, *errs.CustomError)
	Profiles(ctx context.Context) ([]model.Profile, *errs.CustomError)
	SearchProfiles(ctx context.Context, query string, limit int) ([]model.Profile, *errs.CustomError)
}

// ProfileStore caches the local profile, other users' profiles and the last
// search results.
type ProfileStore struct {
	slot

	api    ProfileService
	logger zerolog.Logger

	mu       sync.RWMutex
	me       *model.Profile
	active   *model.Profile
	profiles map[string]model.Profile
	query    string
	results  []model.Profile
}

// NewProfileStore returns an empty ProfileStore.
func NewProfileStore(api ProfileService) *ProfileStore {
	return &ProfileStore{
		api:      api,
		logger:   logx.Component("store.profile"),
		profiles: make(map[string]model.Profile),
	}
}

// FetchMe loads the local profile.
func (s *ProfileStore) FetchMe(ctx context.Context) bool {
	p, ok := call(&s.slot, func() (model.Profile, *errs.CustomError) {
		return s.api.MyProfile(ctx)
	})
	if !ok {
		return false
	}

	s.mu.Lock()
	s.me = &p
	s.mu.Unlock()

	return true
}

// Me returns the local profile.
func (s *ProfileStore) Me() (model.Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.me == nil {
		return model.Profile{}, false
	}
	return *s.me, true
}

// FetchProfile returns the profile of id, asking the service only when it is not cached.
// The profile is cached under id whatever id the service reports.
func (s *ProfileStore) FetchProfile(ctx context.Context, id string) (model.Profile, bool) {
	if p, ok := s.Profile(id); ok {
		s.succeed()
		return p, true
	}

	return call(&s.slot, func() (model.Profile, *errs.CustomError) {
		return shared(&s.slot, "profile:"+id, func() (model.Profile, *errs.CustomError) {
			if p, ok := s.Profile(id); ok {
				return p, nil
			}

			p, err := s.api.Profile(ctx, id)
			if err != nil {
				return model.Profile{}, err
			}

			s.mu.Lock()
			s.profiles[id] = p
			s.mu.Unlock()

			return p, nil
		})
	})
}

// Profile returns a cached profile.
func (s *ProfileStore) Profile(id string) (model.Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[id]
	return p, ok
}

// FetchAll loads every visible profile into the cache.
func (s *ProfileStore) FetchAll(ctx context.Context) ([]model.Profile, bool) {
	list, ok := call(&s.slot, func() ([]model.Profile, *errs.CustomError) {
		return s.api.Profiles(ctx)
	})
	if !ok {
		return nil, false
	}

	s.remember(list)
	return list, true
}

// Search runs a profile search and keeps its results. Results of an older query
// that resolves late replace newer ones.
func (s *ProfileStore) Search(ctx context.Context, query string, limit int) ([]model.Profile, bool) {
	list, ok := call(&s.slot, func() ([]model.Profile, *errs.CustomError) {
		return s.api.SearchProfiles(ctx, query, limit)
	})
	if !ok {
		return nil, false
	}

	s.remember(list)

	s.mu.Lock()
	s.query = query
	s.results = list
	s.mu.Unlock()

	return slices.Clone(list), true
}

// SearchResults returns the query and results of the last search that resolved.
func (s *ProfileStore) SearchResults() (string, []model.Profile) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.query, slices.Clone(s.results)
}

func (s *ProfileStore) remember(list []model.Profile) {
	s.mu.Lock()
	for _, p := range list {
		s.profiles[p.ID] = p
	}
	s.mu.Unlock()
}

// SetActiveProfile selects the profile shown in detail. Selecting the already
// active profile is a no-op.
func (s *ProfileStore) SetActiveProfile(p *model.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p == nil {
		s.active = nil
		return
	}
	if s.active != nil && s.active.ID == p.ID {
		return
	}

	cp := *p
	s.active = &cp
}

// ActiveProfile returns the selected profile.
func (s *ProfileStore) ActiveProfile() (model.Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.active == nil {
		return model.Profile{}, false
	}
	return *s.active, true
}

// Clear drops everything the store holds.
func (s *ProfileStore) Clear() {
	s.mu.Lock()
	s.me = nil
	s.active = nil
	s.profiles = make(map[string]model.Profile)
	s.query = ""
	s.results = nil
	s.mu.Unlock()
}
