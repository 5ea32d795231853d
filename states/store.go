package states

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"shopbot/locks"
)

// UserStore is the slice of the user repository the state store needs.
type UserStore interface {
	SetConversation(ctx context.Context, telegramID int64, state string, scratch datatypes.JSON) error
}

// StateCache is an optional read-through cache for encoded states. The
// database row stays authoritative.
type StateCache interface {
	SetState(ctx context.Context, userID int64, state string, ttl time.Duration) error
	DeleteState(ctx context.Context, userID int64) error
}

// Store advances and resets conversation state. Set is the only way to
// move a user between wizard steps; Reset returns to normal and clears
// scratch unconditionally.
type Store struct {
	users  UserStore
	cache  StateCache
	ttl    time.Duration
	locks  *locks.KeyedMutex
	logger *zap.Logger
}

func NewStore(users UserStore, cache StateCache, ttl time.Duration, logger *zap.Logger) *Store {
	return &Store{
		users:  users,
		cache:  cache,
		ttl:    ttl,
		locks:  locks.NewKeyedMutex(),
		logger: logger,
	}
}

// Lock serializes event handling per user. Dispatch holds the lock for
// the whole read-modify-write of state, scratch and cart.
func (s *Store) Lock(userID int64) {
	s.locks.Lock(userID)
}

func (s *Store) Unlock(userID int64) {
	s.locks.Unlock(userID)
}

// Set persists the state and the wizard draft together. A nil draft
// clears scratch.
func (s *Store) Set(ctx context.Context, userID int64, st State, draft interface{}) error {
	scratch, err := MarshalDraft(draft)
	if err != nil {
		return err
	}
	if err := s.users.SetConversation(ctx, userID, st.Encode(), scratch); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.SetState(ctx, userID, st.Encode(), s.ttl); err != nil {
			s.logger.Warn("state cache write failed", zap.Int64("user_id", userID), zap.Error(err))
		}
	}
	return nil
}

// Reset returns the user to the normal state and discards scratch.
func (s *Store) Reset(ctx context.Context, userID int64) error {
	if err := s.users.SetConversation(ctx, userID, Normal().Encode(), nil); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.DeleteState(ctx, userID); err != nil {
			s.logger.Warn("state cache delete failed", zap.Int64("user_id", userID), zap.Error(err))
		}
	}
	return nil
}

// Current decodes the state string loaded with the user row. A value that
// no longer decodes (an old kind after a deploy) degrades to normal so
// the user is never stranded.
func (s *Store) Current(raw string) State {
	st, err := Decode(raw)
	if err != nil {
		s.logger.Warn("undecodable persisted state, resetting to normal", zap.Error(err))
		return Normal()
	}
	return st
}
