package workers

import (
	"context"
	"time"

	"github.com/securefms/securefms/internal/logger"
	"github.com/securefms/securefms/internal/store"
)

// challengeReaper periodically sweeps expired, never-consumed OTP
// challenges out of the challenge store. Backends with native TTL make the
// sweep a cheap no-op; the in-memory store depends on it to reclaim
// entries.
type challengeReaper struct {
	ctx        context.Context
	challenges store.ChallengeStore
	interval   time.Duration

	logger *logger.Logger
}

func newChallengeReaper(ctx context.Context, challenges store.ChallengeStore, interval time.Duration, logger *logger.Logger) *challengeReaper {
	return &challengeReaper{
		ctx:        ctx,
		challenges: challenges,
		interval:   interval,
		logger:     logger,
	}
}

// Run starts the sweep loop in its own goroutine and returns immediately.
// The loop stops when the worker context is cancelled.
func (c *challengeReaper) Run() {
	go func() {
		c.logger.Info().Dur("interval", c.interval).Msg("challenge reaper started")

		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		for {
			select {
			case <-c.ctx.Done():
				c.logger.Info().Msg("challenge reaper stopped")
				return
			case <-ticker.C:
				removed, err := c.challenges.PurgeExpired(c.ctx)
				if err != nil {
					c.logger.Err(err).Msg("challenge sweep failed")
					continue
				}
				if removed > 0 {
					c.logger.Debug().Int("removed", removed).Msg("expired challenges swept")
				}
			}
		}
	}()
}
