package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/securefms/securefms/internal/config"
	"github.com/securefms/securefms/internal/logger"
	"github.com/securefms/securefms/models"
)

// challengeKeyPrefix namespaces challenge entries in a shared Redis.
const challengeKeyPrefix = "otp:"

// redisChallengeStore is the external [ChallengeStore] backed by a keyed
// cache with native TTL. Entries disappear at expiry on their own, so
// PurgeExpired is a no-op and an expired challenge surfaces as not-found —
// the same observable behaviour the in-memory store converges to after a
// reaper sweep.
type redisChallengeStore struct {
	rdb    *redis.Client
	logger *logger.Logger
}

// NewRedisChallengeStore connects to Redis and verifies connectivity with a
// ping before returning the store.
func NewRedisChallengeStore(ctx context.Context, cfg config.Redis, logger *logger.Logger) (ChallengeStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	logger.Info().Str("addr", cfg.Addr).Msg("connected to redis challenge store")

	return &redisChallengeStore{
		rdb:    rdb,
		logger: logger,
	}, nil
}

func (s *redisChallengeStore) Get(ctx context.Context, key string) (models.Challenge, error) {
	payload, err := s.rdb.Get(ctx, challengeKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Challenge{}, ErrChallengeNotFound
	}
	if err != nil {
		return models.Challenge{}, fmt.Errorf("redis get: %w", err)
	}

	var ch models.Challenge
	if err := json.Unmarshal(payload, &ch); err != nil {
		return models.Challenge{}, fmt.Errorf("decode challenge: %w", err)
	}

	return ch, nil
}

func (s *redisChallengeStore) Put(ctx context.Context, key string, ch models.Challenge) error {
	payload, err := json.Marshal(ch)
	if err != nil {
		return fmt.Errorf("encode challenge: %w", err)
	}

	ttl := time.Until(ch.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Second // entry already at expiry; keep it only briefly
	}

	if err := s.rdb.Set(ctx, challengeKeyPrefix+key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}

	return nil
}

func (s *redisChallengeStore) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, challengeKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// PurgeExpired is a no-op: Redis expires entries natively.
func (s *redisChallengeStore) PurgeExpired(context.Context) (int, error) {
	return 0, nil
}
