package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/securefms/securefms/internal/crypto"
	"github.com/securefms/securefms/internal/logger"
	"github.com/securefms/securefms/internal/store"
	"github.com/securefms/securefms/models"
)

// fileService is the concrete implementation of FileService. Plaintext only
// exists inside a request: it is sealed through the codec before touching
// the blob store and opened again only on retrieval.
type fileService struct {
	files store.FileRepository
	users store.UserRepository
	blobs store.BlobStorage
	codec crypto.Codec

	logger *logger.Logger
}

// NewFileService constructs the FileService.
func NewFileService(files store.FileRepository, users store.UserRepository, blobs store.BlobStorage, codec crypto.Codec, logger *logger.Logger) FileService {
	return &fileService{
		files:  files,
		users:  users,
		blobs:  blobs,
		codec:  codec,
		logger: logger,
	}
}

// Store encrypts the upload and persists it under a fresh opaque name.
//
// Order matters: the owner is re-checked against the live store before any
// byte is written (ErrReferentialIntegrity on a missing or inactive
// account), the encrypted blob is written first, and the metadata row is
// created only after the blob write succeeded. If the metadata insert fails
// the blob is removed again so no orphan ciphertext survives.
func (f *fileService) Store(ctx context.Context, principal models.User, upload FileUpload) (models.FileMetadata, error) {
	log := logger.FromContext(ctx)

	if err := Authorize(principal, models.PermissionUploadFile); err != nil {
		return models.FileMetadata{}, err
	}
	if upload.OriginalName == "" {
		return models.FileMetadata{}, fmt.Errorf("%w: file name is required", ErrValidation)
	}

	owner, err := f.users.FindUserByID(ctx, principal.ID)
	if err != nil {
		if errors.Is(err, store.ErrNoUserWasFound) {
			return models.FileMetadata{}, ErrReferentialIntegrity
		}
		return models.FileMetadata{}, fmt.Errorf("owner lookup failed: %w", err)
	}
	if !owner.Active {
		return models.FileMetadata{}, ErrReferentialIntegrity
	}

	blob, err := f.codec.Encrypt(upload.Content)
	if err != nil {
		return models.FileMetadata{}, fmt.Errorf("file encryption failed: %w", err)
	}

	// The stored name is an opaque UUID; the user-supplied name never
	// reaches the blob store.
	storedName := uuid.NewString()

	if err := f.blobs.Save(ctx, storedName, blob); err != nil {
		return models.FileMetadata{}, fmt.Errorf("blob write failed: %w", err)
	}

	meta, err := f.files.CreateFile(ctx, models.FileMetadata{
		OwnerID:      owner.ID,
		StoredName:   storedName,
		OriginalName: upload.OriginalName,
		MimeType:     upload.MimeType,
		Size:         int64(len(upload.Content)),
	})
	if err != nil {
		if removeErr := f.blobs.Remove(ctx, storedName); removeErr != nil {
			log.Err(removeErr).Str("stored_name", storedName).Msg("orphan blob cleanup failed after metadata insert error")
		}
		if errors.Is(err, store.ErrOwnerNotFound) {
			return models.FileMetadata{}, ErrReferentialIntegrity
		}
		return models.FileMetadata{}, fmt.Errorf("file metadata insert failed: %w", err)
	}

	log.Info().Int64("file_id", meta.ID).Int64("owner_id", owner.ID).Int64("size", meta.Size).Msg("file stored")
	return meta, nil
}

// Retrieve loads and decrypts a file. The three failure modes stay
// distinct: an unknown ID is ErrNotFound, a visible-but-unauthorized file
// is ErrForbidden, and an unreadable blob is crypto.ErrCrypto — an
// undecryptable file never reports as absent.
func (f *fileService) Retrieve(ctx context.Context, principal models.User, fileID int64) (models.FileMetadata, []byte, error) {
	meta, err := f.findFile(ctx, fileID)
	if err != nil {
		return models.FileMetadata{}, nil, err
	}

	if !CanReadFile(principal, meta) {
		return models.FileMetadata{}, nil, fmt.Errorf("%w: file belongs to another principal", ErrForbidden)
	}

	blob, err := f.blobs.Load(ctx, meta.StoredName)
	if err != nil {
		// A metadata row without its blob is corruption, not absence.
		return models.FileMetadata{}, nil, fmt.Errorf("blob read failed for file %d: %w", fileID, err)
	}

	plaintext, err := f.codec.Decrypt(blob)
	if err != nil {
		logger.FromContext(ctx).Err(err).Int64("file_id", fileID).Msg("file decryption failed")
		return models.FileMetadata{}, nil, fmt.Errorf("file %d: %w", fileID, err)
	}

	return meta, plaintext, nil
}

// Delete removes a file. Own files need delete_own_file; another
// principal's files need delete_any_file — view_all_files grants read, not
// delete. The blob is removed first; the metadata row is deleted only after
// the blob removal is confirmed, so a failed removal leaves the record
// visible rather than leaking an unreferenced ciphertext.
func (f *fileService) Delete(ctx context.Context, principal models.User, fileID int64) error {
	meta, err := f.findFile(ctx, fileID)
	if err != nil {
		return err
	}

	if err := Authorize(principal, deletePermissionFor(principal, meta)); err != nil {
		return err
	}

	if err := f.blobs.Remove(ctx, meta.StoredName); err != nil && !errors.Is(err, store.ErrBlobNotFound) {
		return fmt.Errorf("blob removal failed for file %d: %w", fileID, err)
	}

	if err := f.files.DeleteFile(ctx, meta.ID); err != nil {
		return fmt.Errorf("file metadata delete failed: %w", err)
	}

	logger.FromContext(ctx).Info().Int64("file_id", fileID).Int64("actor_id", principal.ID).Msg("file deleted")
	return nil
}

// List returns the files visible to the principal: everything for a role
// holding view_all_files, otherwise only the principal's own.
func (f *fileService) List(ctx context.Context, principal models.User) ([]models.FileMetadata, error) {
	if !principal.Active {
		return nil, fmt.Errorf("%w: principal is inactive", ErrForbidden)
	}

	if Authorize(principal, models.PermissionViewAllFiles) == nil {
		files, err := f.files.ListAllFiles(ctx)
		if err != nil {
			return nil, fmt.Errorf("file listing failed: %w", err)
		}
		return files, nil
	}

	files, err := f.files.ListFilesByOwner(ctx, principal.ID)
	if err != nil {
		return nil, fmt.Errorf("file listing failed: %w", err)
	}
	return files, nil
}

func (f *fileService) findFile(ctx context.Context, fileID int64) (models.FileMetadata, error) {
	meta, err := f.files.FindFileByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, store.ErrFileNotFound) {
			return models.FileMetadata{}, fmt.Errorf("%w: file %d", ErrNotFound, fileID)
		}
		return models.FileMetadata{}, fmt.Errorf("file lookup failed: %w", err)
	}
	return meta, nil
}
