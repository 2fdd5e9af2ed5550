package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/securefms/securefms/internal/crypto"
	"github.com/securefms/securefms/internal/logger"
	"github.com/securefms/securefms/internal/store"
	"github.com/securefms/securefms/models"
)

func testCodec(t *testing.T) crypto.Codec {
	t.Helper()
	codec, err := crypto.NewAESCodec(bytes.Repeat([]byte{0x11}, crypto.KeySize))
	require.NoError(t, err)
	return codec
}

func activePrincipalLookup(owner models.User) *mockUserRepository {
	return &mockUserRepository{
		findUserByIDFn: func(_ context.Context, id int64) (models.User, error) {
			if id == owner.ID {
				return owner, nil
			}
			return models.User{}, store.ErrNoUserWasFound
		},
	}
}

func TestFileService_Store_EncryptsBeforeBlobWrite(t *testing.T) {
	owner := userWithRole(1, models.RoleUser, true)
	blobs := newMockBlobStorage()
	codec := testCodec(t)

	var insertedMeta models.FileMetadata
	files := &mockFileRepository{
		createFileFn: func(_ context.Context, meta models.FileMetadata) (models.FileMetadata, error) {
			insertedMeta = meta
			meta.ID = 42
			return meta, nil
		},
	}

	svc := NewFileService(files, activePrincipalLookup(owner), blobs, codec, logger.Nop())

	content := []byte("quarterly report")
	meta, err := svc.Store(context.Background(), owner, FileUpload{
		OriginalName: "report.pdf",
		MimeType:     "application/pdf",
		Content:      content,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(42), meta.ID)
	assert.Equal(t, int64(len(content)), meta.Size, "metadata records the plaintext size")
	assert.NotEmpty(t, insertedMeta.StoredName)
	assert.NotEqual(t, "report.pdf", insertedMeta.StoredName, "stored name must be opaque")

	// The blob at rest must be ciphertext, not the plaintext.
	stored := blobs.blobs[insertedMeta.StoredName]
	require.NotEmpty(t, stored)
	assert.NotContains(t, string(stored), "quarterly report")

	roundTripped, err := codec.Decrypt(stored)
	require.NoError(t, err)
	assert.Equal(t, content, roundTripped)
}

func TestFileService_Store_InactiveOwner(t *testing.T) {
	owner := userWithRole(1, models.RoleUser, true)
	stale := owner
	stale.Active = false

	blobs := newMockBlobStorage()
	svc := NewFileService(&mockFileRepository{}, activePrincipalLookup(stale), blobs, testCodec(t), logger.Nop())

	// Principal still carries an authenticated snapshot, but the live
	// record was deactivated in the meantime.
	_, err := svc.Store(context.Background(), owner, FileUpload{OriginalName: "a.txt", Content: []byte("x")})
	require.ErrorIs(t, err, ErrReferentialIntegrity)
	assert.Empty(t, blobs.ops, "no blob may be written for an inactive owner")
}

func TestFileService_Store_MetadataFailureRemovesBlob(t *testing.T) {
	owner := userWithRole(1, models.RoleUser, true)
	blobs := newMockBlobStorage()

	files := &mockFileRepository{
		createFileFn: func(_ context.Context, _ models.FileMetadata) (models.FileMetadata, error) {
			return models.FileMetadata{}, errStorage
		},
	}

	svc := NewFileService(files, activePrincipalLookup(owner), blobs, testCodec(t), logger.Nop())

	_, err := svc.Store(context.Background(), owner, FileUpload{OriginalName: "a.txt", Content: []byte("x")})
	require.ErrorIs(t, err, errStorage)

	assert.Equal(t, []string{"save", "remove"}, blobs.ops, "orphan blob must be removed after the insert failure")
	assert.Empty(t, blobs.blobs)
}

func TestFileService_Retrieve_Outcomes(t *testing.T) {
	owner := userWithRole(1, models.RoleUser, true)
	stranger := userWithRole(2, models.RoleUser, true)
	admin := userWithRole(3, models.RoleAdmin, true)

	codec := testCodec(t)
	blobs := newMockBlobStorage()
	require.NoError(t, blobs.saveDirect(codec, "stored-a", []byte("secret content")))

	meta := models.FileMetadata{ID: 10, OwnerID: owner.ID, StoredName: "stored-a", OriginalName: "a.txt"}
	files := &mockFileRepository{
		findFileByIDFn: func(_ context.Context, id int64) (models.FileMetadata, error) {
			if id == meta.ID {
				return meta, nil
			}
			return models.FileMetadata{}, store.ErrFileNotFound
		},
	}

	svc := NewFileService(files, activePrincipalLookup(owner), blobs, codec, logger.Nop())
	ctx := context.Background()

	// unknown ID → not found
	_, _, err := svc.Retrieve(ctx, owner, 999)
	require.ErrorIs(t, err, ErrNotFound)

	// stranger → forbidden, never not-found
	_, _, err = svc.Retrieve(ctx, stranger, meta.ID)
	require.ErrorIs(t, err, ErrForbidden)

	// owner → plaintext
	got, plaintext, err := svc.Retrieve(ctx, owner, meta.ID)
	require.NoError(t, err)
	assert.Equal(t, meta.OriginalName, got.OriginalName)
	assert.Equal(t, []byte("secret content"), plaintext)

	// view_all_files → plaintext for someone else's file
	_, plaintext, err = svc.Retrieve(ctx, admin, meta.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("secret content"), plaintext)
}

func TestFileService_Retrieve_CorruptBlobIsCryptoErrorNotAbsence(t *testing.T) {
	owner := userWithRole(1, models.RoleUser, true)
	codec := testCodec(t)

	blobs := newMockBlobStorage()
	blobs.blobs["stored-a"] = []byte("this is not a valid sealed blob")

	meta := models.FileMetadata{ID: 10, OwnerID: owner.ID, StoredName: "stored-a"}
	files := &mockFileRepository{
		findFileByIDFn: func(_ context.Context, _ int64) (models.FileMetadata, error) { return meta, nil },
	}

	svc := NewFileService(files, activePrincipalLookup(owner), blobs, codec, logger.Nop())

	_, _, err := svc.Retrieve(context.Background(), owner, meta.ID)
	require.ErrorIs(t, err, crypto.ErrCrypto)
	require.NotErrorIs(t, err, ErrNotFound, "an unreadable file must not report as absent")
}

func TestFileService_Delete_OwnershipAndPermissions(t *testing.T) {
	owner := userWithRole(1, models.RoleUser, true)
	admin := userWithRole(2, models.RoleAdmin, true)
	superadmin := userWithRole(3, models.RoleSuperadmin, true)

	meta := models.FileMetadata{ID: 10, OwnerID: owner.ID, StoredName: "stored-a"}

	newSvc := func() (*mockBlobStorage, *mockFileRepository, FileService) {
		blobs := newMockBlobStorage()
		blobs.blobs["stored-a"] = []byte("ciphertext")
		files := &mockFileRepository{
			findFileByIDFn: func(_ context.Context, _ int64) (models.FileMetadata, error) { return meta, nil },
		}
		return blobs, files, NewFileService(files, activePrincipalLookup(owner), blobs, testCodec(t), logger.Nop())
	}
	ctx := context.Background()

	// owner deletes own file
	_, _, svc := newSvc()
	require.NoError(t, svc.Delete(ctx, owner, meta.ID))

	// admin can read any file but holds no delete_any_file
	blobs, _, svc := newSvc()
	err := svc.Delete(ctx, admin, meta.ID)
	require.ErrorIs(t, err, ErrForbidden)
	assert.NotContains(t, blobs.ops, "remove", "a forbidden delete must not touch the blob")

	// superadmin deletes anyone's file
	_, _, svc = newSvc()
	require.NoError(t, svc.Delete(ctx, superadmin, meta.ID))
}

func TestFileService_Delete_BlobBeforeMetadata(t *testing.T) {
	owner := userWithRole(1, models.RoleUser, true)
	meta := models.FileMetadata{ID: 10, OwnerID: owner.ID, StoredName: "stored-a"}

	blobs := newMockBlobStorage()
	blobs.blobs["stored-a"] = []byte("ciphertext")

	var order []string
	files := &mockFileRepository{
		findFileByIDFn: func(_ context.Context, _ int64) (models.FileMetadata, error) { return meta, nil },
		deleteFileFn: func(_ context.Context, _ int64) error {
			order = append(order, "metadata")
			return nil
		},
	}

	svc := NewFileService(files, activePrincipalLookup(owner), blobs, testCodec(t), logger.Nop())
	require.NoError(t, svc.Delete(context.Background(), owner, meta.ID))

	require.Equal(t, []string{"metadata"}, order)
	assert.Equal(t, []string{"remove"}, blobs.ops, "blob removal must precede the metadata delete")
}

func TestFileService_Delete_BlobRemovalFailureKeepsMetadata(t *testing.T) {
	owner := userWithRole(1, models.RoleUser, true)
	meta := models.FileMetadata{ID: 10, OwnerID: owner.ID, StoredName: "stored-a"}

	blobs := newMockBlobStorage()
	blobs.blobs["stored-a"] = []byte("ciphertext")
	blobs.removeErr = errStorage

	metadataDeleted := false
	files := &mockFileRepository{
		findFileByIDFn: func(_ context.Context, _ int64) (models.FileMetadata, error) { return meta, nil },
		deleteFileFn: func(_ context.Context, _ int64) error {
			metadataDeleted = true
			return nil
		},
	}

	svc := NewFileService(files, activePrincipalLookup(owner), blobs, testCodec(t), logger.Nop())

	err := svc.Delete(context.Background(), owner, meta.ID)
	require.ErrorIs(t, err, errStorage)
	assert.False(t, metadataDeleted, "metadata must survive when the blob could not be removed")
}

func TestFileService_List_Scoped(t *testing.T) {
	user := userWithRole(1, models.RoleUser, true)
	admin := userWithRole(2, models.RoleAdmin, true)

	ownFiles := []models.FileMetadata{{ID: 1, OwnerID: user.ID}}
	allFiles := []models.FileMetadata{{ID: 1, OwnerID: user.ID}, {ID: 2, OwnerID: 99}}

	files := &mockFileRepository{
		listFilesByOwnerFn: func(_ context.Context, ownerID int64) ([]models.FileMetadata, error) {
			assert.Equal(t, user.ID, ownerID)
			return ownFiles, nil
		},
		listAllFilesFn: func(_ context.Context) ([]models.FileMetadata, error) {
			return allFiles, nil
		},
	}

	svc := NewFileService(files, &mockUserRepository{}, newMockBlobStorage(), testCodec(t), logger.Nop())
	ctx := context.Background()

	got, err := svc.List(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, ownFiles, got)

	got, err = svc.List(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, allFiles, got)
}
