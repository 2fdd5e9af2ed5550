package workers

import (
	"context"

	"github.com/securefms/securefms/internal/config"
	"github.com/securefms/securefms/internal/logger"
	"github.com/securefms/securefms/internal/store"
)

type Workers struct {
	workers []Worker
}

// NewWorkers assembles the background workers of the server process.
func NewWorkers(ctx context.Context, challenges store.ChallengeStore, cfg config.Workers, logger *logger.Logger) *Workers {
	return &Workers{
		workers: []Worker{
			newChallengeReaper(ctx, challenges, cfg.ReapInterval, logger),
		},
	}
}

func (w *Workers) Run() {
	for _, worker := range w.workers {
		worker.Run()
	}
}
