package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/securefms/securefms/internal/config"
	"github.com/securefms/securefms/internal/logger"
)

// filesystemBlobStorage is the default [BlobStorage]: one file per blob in a
// flat directory. Names are server-generated UUIDs, so no path sanitisation
// beyond a join is needed; filepath.Base is applied anyway as a backstop
// against a corrupted stored name reaching the filesystem.
type filesystemBlobStorage struct {
	dir    string
	logger *logger.Logger
}

// NewFilesystemBlobStorage ensures the target directory exists and returns
// the filesystem-backed blob storage.
func NewFilesystemBlobStorage(cfg config.Files, logger *logger.Logger) (BlobStorage, error) {
	if err := os.MkdirAll(cfg.Dir, 0o700); err != nil {
		return nil, fmt.Errorf("create blob directory: %w", err)
	}
	logger.Debug().Str("dir", cfg.Dir).Msg("creating filesystem blob storage")

	return &filesystemBlobStorage{
		dir:    cfg.Dir,
		logger: logger,
	}, nil
}

func (s *filesystemBlobStorage) path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name))
}

func (s *filesystemBlobStorage) Save(_ context.Context, name string, blob []byte) error {
	if err := os.WriteFile(s.path(name), blob, 0o600); err != nil {
		return fmt.Errorf("write blob %s: %w", name, err)
	}
	return nil
}

func (s *filesystemBlobStorage) Load(_ context.Context, name string) ([]byte, error) {
	blob, err := os.ReadFile(s.path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrBlobNotFound
		}
		return nil, fmt.Errorf("read blob %s: %w", name, err)
	}
	return blob, nil
}

func (s *filesystemBlobStorage) Remove(_ context.Context, name string) error {
	if err := os.Remove(s.path(name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrBlobNotFound
		}
		return fmt.Errorf("remove blob %s: %w", name, err)
	}
	return nil
}
