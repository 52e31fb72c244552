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

// BlockService is the slice of the API the BlockStore needs.
type BlockService interface {
	Blocks(ctx context.Context) ([]model.Block, *errs.CustomError)
	BlockProfile(ctx context.Context, id string) (model.Block, *errs.CustomError)
	UnblockProfile(ctx context.Context, id string) (bool, *errs.CustomError)
	CheckBlocked(ctx context.Context, id string) (bool, *errs.CustomError)
}

// BlockStore tracks both directions of the block relation: profiles the session
// blocked, and profiles known to have blocked the session.
type BlockStore struct {
	slot

	api    BlockService
	logger zerolog.Logger

	mu        sync.RWMutex
	blocks    []model.Block
	blocked   map[string]struct{}
	blockedMe map[string]bool
}

// NewBlockStore returns an empty BlockStore.
func NewBlockStore(api BlockService) *BlockStore {
	return &BlockStore{
		api:       api,
		logger:    logx.Component("store.block"),
		blocked:   make(map[string]struct{}),
		blockedMe: make(map[string]bool),
	}
}

// FetchAll replaces the block list with the service's.
func (s *BlockStore) FetchAll(ctx context.Context) bool {
	list, ok := call(&s.slot, func() ([]model.Block, *errs.CustomError) {
		return s.api.Blocks(ctx)
	})
	if !ok {
		return false
	}

	blocked := make(map[string]struct{}, len(list))
	for _, b := range list {
		blocked[b.BlockedProfileID] = struct{}{}
	}

	s.mu.Lock()
	s.blocks = list
	s.blocked = blocked
	s.mu.Unlock()

	return true
}

// Block blocks a profile. Blocking an already blocked profile succeeds without a
// network call; concurrent calls for the same profile share one request.
func (s *BlockStore) Block(ctx context.Context, id string) bool {
	if s.IsBlocked(id) {
		s.succeed()
		return true
	}

	_, ok := call(&s.slot, func() (model.Block, *errs.CustomError) {
		return shared(&s.slot, "block:"+id, func() (model.Block, *errs.CustomError) {
			if s.IsBlocked(id) {
				return model.Block{}, nil
			}

			b, err := s.api.BlockProfile(ctx, id)
			if err != nil {
				return model.Block{}, err
			}
			if b.BlockedProfileID == "" {
				b.BlockedProfileID = id
			}

			s.mu.Lock()
			if _, dup := s.blocked[id]; !dup {
				s.blocks = append(slices.Clone(s.blocks), b)
				s.blocked[id] = struct{}{}
			}
			s.mu.Unlock()

			s.logger.Debug().Str("profile_id", id).Msg("Profile blocked")

			return b, nil
		})
	})

	return ok
}

// Unblock removes a block. Unblocking a profile that is not blocked succeeds
// without a network call.
func (s *BlockStore) Unblock(ctx context.Context, id string) bool {
	if !s.IsBlocked(id) {
		s.succeed()
		return true
	}

	_, ok := call(&s.slot, func() (bool, *errs.CustomError) {
		return shared(&s.slot, "unblock:"+id, func() (bool, *errs.CustomError) {
			if !s.IsBlocked(id) {
				return true, nil
			}

			if _, err := s.api.UnblockProfile(ctx, id); err != nil {
				return false, err
			}

			s.mu.Lock()
			s.blocks = slices.DeleteFunc(slices.Clone(s.blocks), func(b model.Block) bool {
				return b.BlockedProfileID == id
			})
			delete(s.blocked, id)
			s.mu.Unlock()

			s.logger.Debug().Str("profile_id", id).Msg("Profile unblocked")

			return true, nil
		})
	})

	return ok
}

// CheckIfBlockedMe learns whether id has blocked the session. The service is asked
// only when the answer is not already known.
func (s *BlockStore) CheckIfBlockedMe(ctx context.Context, id string) (bool, bool) {
	if v, known := s.blockedMeBy(id); known {
		s.succeed()
		return v, true
	}

	return call(&s.slot, func() (bool, *errs.CustomError) {
		return shared(&s.slot, "blocked-me:"+id, func() (bool, *errs.CustomError) {
			if v, known := s.blockedMeBy(id); known {
				return v, nil
			}

			blocked, err := s.api.CheckBlocked(ctx, id)
			if err != nil {
				return false, err
			}

			s.mu.Lock()
			s.blockedMe[id] = blocked
			s.mu.Unlock()

			return blocked, nil
		})
	})
}

func (s *BlockStore) blockedMeBy(id string) (bool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, known := s.blockedMe[id]
	return v, known
}

// ApplyBlockUpdate records a pushed change of whether blockerID blocks the session.
func (s *BlockStore) ApplyBlockUpdate(blockerID string, isBlocked bool) {
	s.mu.Lock()
	s.blockedMe[blockerID] = isBlocked
	s.mu.Unlock()
}

// IsBlocked reports whether the session blocked id.
func (s *BlockStore) IsBlocked(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.blocked[id]
	return ok
}

// IsBlockedMeBy reports whether id is known to have blocked the session.
func (s *BlockStore) IsBlockedMeBy(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.blockedMe[id]
}

// BlockedIDs returns the ids of the profiles the session blocked.
func (s *BlockStore) BlockedIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.blocks))
	for _, b := range s.blocks {
		ids = append(ids, b.BlockedProfileID)
	}
	return ids
}

// Blocks returns the block list.
func (s *BlockStore) Blocks() []model.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.blocks)
}

// Clear drops both directions.
func (s *BlockStore) Clear() {
	s.mu.Lock()
	s.blocks = nil
	s.blocked = make(map[string]struct{})
	s.blockedMe = make(map[string]bool)
	s.mu.Unlock()
}
