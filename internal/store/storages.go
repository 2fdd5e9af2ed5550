package store

import (
	"context"
	"fmt"

	"github.com/securefms/securefms/internal/config"
	"github.com/securefms/securefms/internal/logger"
)

// Storages aggregates every persistence collaborator the service layer
// depends on.
type Storages struct {
	Users      UserRepository
	Roles      RoleRepository
	Files      FileRepository
	Blobs      BlobStorage
	Challenges ChallengeStore
}

// NewStorages wires all repositories over the shared database handle and
// selects the blob and challenge backends from configuration.
func NewStorages(ctx context.Context, db *DB, cfg config.Storage, log *logger.Logger) (*Storages, error) {
	var blobs BlobStorage
	var err error
	switch cfg.Files.Backend {
	case "s3":
		blobs, err = NewS3BlobStorage(ctx, cfg.S3, log)
	default:
		blobs, err = NewFilesystemBlobStorage(cfg.Files, log)
	}
	if err != nil {
		return nil, fmt.Errorf("error creating blob storage: %w", err)
	}

	var challenges ChallengeStore
	switch cfg.Challenges.Backend {
	case "redis":
		challenges, err = NewRedisChallengeStore(ctx, cfg.Redis, log)
		if err != nil {
			return nil, fmt.Errorf("error creating challenge store: %w", err)
		}
	default:
		challenges = NewMemoryChallengeStore(log)
	}

	return &Storages{
		Users:      NewUserRepository(db, log),
		Roles:      NewRoleRepository(db, log),
		Files:      NewFileRepository(db, log),
		Blobs:      blobs,
		Challenges: challenges,
	}, nil
}
