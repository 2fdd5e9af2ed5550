package store

import (
	"context"
	"sync"
	"time"

	"github.com/securefms/securefms/internal/logger"
	"github.com/securefms/securefms/models"
)

// memoryChallengeStore is the in-process [ChallengeStore]: a mutex-guarded
// map. Entries past their expiry stay visible until PurgeExpired removes
// them, which lets the challenge manager report "expired" rather than
// "not found" between reaper sweeps.
type memoryChallengeStore struct {
	mu         sync.RWMutex
	challenges map[string]models.Challenge
	logger     *logger.Logger

	// now is the clock used by PurgeExpired; overridable in tests.
	now func() time.Time
}

// NewMemoryChallengeStore constructs the in-process challenge store.
func NewMemoryChallengeStore(logger *logger.Logger) ChallengeStore {
	logger.Debug().Msg("creating in-memory challenge store")
	return &memoryChallengeStore{
		challenges: make(map[string]models.Challenge),
		logger:     logger,
		now:        time.Now,
	}
}

func (s *memoryChallengeStore) Get(_ context.Context, key string) (models.Challenge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ch, ok := s.challenges[key]
	if !ok {
		return models.Challenge{}, ErrChallengeNotFound
	}
	return ch, nil
}

func (s *memoryChallengeStore) Put(_ context.Context, key string, ch models.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.challenges[key] = ch
	return nil
}

func (s *memoryChallengeStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.challenges, key)
	return nil
}

// PurgeExpired removes every challenge past its expiry and reports the
// number removed. Called periodically by the reaper worker to bound memory
// growth from never-consumed challenges.
func (s *memoryChallengeStore) PurgeExpired(_ context.Context) (int, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, ch := range s.challenges {
		if now.After(ch.ExpiresAt) {
			delete(s.challenges, key)
			removed++
		}
	}

	return removed, nil
}
