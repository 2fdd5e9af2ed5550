package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/securefms/securefms/internal/config"
	"github.com/securefms/securefms/internal/logger"
)

func newTestBlobStorage(t *testing.T) (BlobStorage, string) {
	t.Helper()

	dir := t.TempDir()
	s, err := NewFilesystemBlobStorage(config.Files{Dir: dir}, logger.Nop())
	require.NoError(t, err)
	return s, dir
}

func TestFilesystemBlobStorage_SaveLoadRemove(t *testing.T) {
	s, dir := newTestBlobStorage(t)
	ctx := context.Background()

	blob := []byte("sealed bytes")
	require.NoError(t, s.Save(ctx, "blob-a", blob))

	got, err := s.Load(ctx, "blob-a")
	require.NoError(t, err)
	assert.Equal(t, blob, got)

	// Blobs are written owner-only.
	info, err := os.Stat(filepath.Join(dir, "blob-a"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, s.Remove(ctx, "blob-a"))
	_, err = s.Load(ctx, "blob-a")
	require.ErrorIs(t, err, ErrBlobNotFound)
}

func TestFilesystemBlobStorage_MissingBlob(t *testing.T) {
	s, _ := newTestBlobStorage(t)
	ctx := context.Background()

	_, err := s.Load(ctx, "nope")
	require.ErrorIs(t, err, ErrBlobNotFound)

	err = s.Remove(ctx, "nope")
	require.ErrorIs(t, err, ErrBlobNotFound)
}

func TestFilesystemBlobStorage_NameIsConfinedToDir(t *testing.T) {
	s, dir := newTestBlobStorage(t)
	ctx := context.Background()

	// A corrupted stored name must not escape the blob directory.
	require.NoError(t, s.Save(ctx, "../escape", []byte("x")))

	_, err := os.Stat(filepath.Join(dir, "escape"))
	require.NoError(t, err, "the blob must land inside the directory")
	_, err = os.Stat(filepath.Join(dir, "..", "escape"))
	assert.True(t, os.IsNotExist(err))
}

func TestFilesystemBlobStorage_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "uploads")

	_, err := NewFilesystemBlobStorage(config.Files{Dir: dir}, logger.Nop())
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
