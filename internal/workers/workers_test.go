package workers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/securefms/securefms/internal/config"
	"github.com/securefms/securefms/internal/logger"
	"github.com/securefms/securefms/internal/store"
	"github.com/securefms/securefms/models"
)

func TestChallengeReaper_SweepsExpiredChallenges(t *testing.T) {
	challenges := store.NewMemoryChallengeStore(logger.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	expired := models.Challenge{
		Identifier: "old@example.com",
		Purpose:    models.PurposeLogin,
		Code:       "123456",
		IssuedAt:   time.Now().Add(-10 * time.Minute),
		ExpiresAt:  time.Now().Add(-5 * time.Minute),
	}
	live := models.Challenge{
		Identifier: "new@example.com",
		Purpose:    models.PurposeLogin,
		Code:       "654321",
		IssuedAt:   time.Now(),
		ExpiresAt:  time.Now().Add(5 * time.Minute),
	}
	require.NoError(t, challenges.Put(ctx, expired.Key(), expired))
	require.NoError(t, challenges.Put(ctx, live.Key(), live))

	NewWorkers(ctx, challenges, config.Workers{ReapInterval: 10 * time.Millisecond}, logger.Nop()).Run()

	// Wait for the sweep to remove the expired entry.
	require.Eventually(t, func() bool {
		_, err := challenges.Get(ctx, expired.Key())
		return err != nil
	}, 2*time.Second, 10*time.Millisecond, "the expired challenge should be reaped")

	// The live challenge survives.
	_, err := challenges.Get(ctx, live.Key())
	require.NoError(t, err)
}

func TestChallengeReaper_StopsOnContextCancel(t *testing.T) {
	challenges := store.NewMemoryChallengeStore(logger.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	NewWorkers(ctx, challenges, config.Workers{ReapInterval: 5 * time.Millisecond}, logger.Nop()).Run()
	cancel()

	// After cancellation the loop no longer sweeps: a freshly expired entry
	// stays put.
	time.Sleep(20 * time.Millisecond)
	expired := models.Challenge{
		Identifier: "old@example.com",
		Purpose:    models.PurposeLogin,
		ExpiresAt:  time.Now().Add(-time.Minute),
	}
	require.NoError(t, challenges.Put(context.Background(), expired.Key(), expired))

	time.Sleep(50 * time.Millisecond)
	_, err := challenges.Get(context.Background(), expired.Key())
	require.NoError(t, err, "a cancelled reaper must not touch the store")
}
