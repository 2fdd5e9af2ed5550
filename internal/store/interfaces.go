package store

import (
	"context"

	"github.com/securefms/securefms/models"
)

// UserRepository is the persistence contract for principals. Identifier
// lookups match either the email or the username.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindUserByIdentifier(ctx context.Context, identifier string) (models.User, error)
	FindUserByID(ctx context.Context, id int64) (models.User, error)
	UpdateUser(ctx context.Context, update models.UserUpdate) error
	DeleteUser(ctx context.Context, id int64) error

	// ListUsers returns all users, or only those provisioned by createdBy
	// when the filter is non-nil.
	ListUsers(ctx context.Context, createdBy *int64) ([]models.User, error)
}

// RoleRepository resolves roles of the closed vocabulary.
type RoleRepository interface {
	FindRoleByName(ctx context.Context, name models.RoleName) (models.Role, error)
}

// FileRepository is the persistence contract for file metadata records.
// Blob content lives in a BlobStorage, addressed by StoredName.
type FileRepository interface {
	CreateFile(ctx context.Context, meta models.FileMetadata) (models.FileMetadata, error)
	FindFileByID(ctx context.Context, id int64) (models.FileMetadata, error)
	DeleteFile(ctx context.Context, id int64) error
	ListFilesByOwner(ctx context.Context, ownerID int64) ([]models.FileMetadata, error)
	ListAllFiles(ctx context.Context) ([]models.FileMetadata, error)
}

// BlobStorage persists opaque encrypted blobs by name. Implementations must
// never see plaintext: callers encrypt before Save and decrypt after Load.
type BlobStorage interface {
	Save(ctx context.Context, name string, blob []byte) error
	Load(ctx context.Context, name string) ([]byte, error)
	Remove(ctx context.Context, name string) error
}

// ChallengeStore keeps live OTP challenges keyed by (identifier, purpose).
// Entries are ephemeral: either consumed, replaced, or removed by TTL /
// the reaper. The store itself is a plain KV contract; per-key
// linearization is the challenge manager's responsibility.
type ChallengeStore interface {
	// Get returns the challenge stored under key, or ErrChallengeNotFound.
	// A returned challenge may already be past its expiry; the caller
	// decides how to report that.
	Get(ctx context.Context, key string) (models.Challenge, error)

	// Put stores ch under key, replacing any previous entry.
	Put(ctx context.Context, key string, ch models.Challenge) error

	// Delete removes the entry under key. Deleting a missing key is not
	// an error.
	Delete(ctx context.Context, key string) error

	// PurgeExpired removes every entry past its expiry and reports how
	// many were removed. Backends with native TTL may implement this as
	// a no-op.
	PurgeExpired(ctx context.Context) (int, error)
}
