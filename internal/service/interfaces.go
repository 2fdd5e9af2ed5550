package service

import (
	"context"

	"github.com/securefms/securefms/internal/otp"
	"github.com/securefms/securefms/models"
)

// FileUpload carries one inbound file from the transport layer. Content is
// the plaintext; encryption happens inside the service, never before.
type FileUpload struct {
	OriginalName string
	MimeType     string
	Content      []byte
}

// AuthService covers account lifecycle and session tokens: registration,
// the passwordless login flow, password reset, and token validation.
type AuthService interface {
	Register(ctx context.Context, req models.RegisterRequest) (models.User, models.Token, error)

	// BeginLogin starts the login flow for an identifier, optionally
	// checking a password first, and issues the login OTP challenge.
	BeginLogin(ctx context.Context, identifier, password string) (otp.IssueResult, error)

	// VerifyLogin consumes the login challenge and mints a session token.
	VerifyLogin(ctx context.Context, identifier, code string) (models.User, models.Token, error)

	ResendOTP(ctx context.Context, identifier string, purpose models.ChallengePurpose) (otp.IssueResult, error)

	BeginPasswordReset(ctx context.Context, identifier string) (otp.IssueResult, error)
	CompletePasswordReset(ctx context.Context, identifier, code, newPassword string) error

	// ValidateToken verifies a session token and re-fetches its principal.
	// A deactivated or role-changed principal yields ErrTokenRevoked even
	// when the signature and expiry are valid.
	ValidateToken(ctx context.Context, tokenString string) (models.User, error)
}

// FileService is the encrypted blob store facade: every stored byte is
// encrypted on the way in and decrypted on the way out, failing closed.
type FileService interface {
	Store(ctx context.Context, principal models.User, upload FileUpload) (models.FileMetadata, error)
	Retrieve(ctx context.Context, principal models.User, fileID int64) (models.FileMetadata, []byte, error)
	Delete(ctx context.Context, principal models.User, fileID int64) error
	List(ctx context.Context, principal models.User) ([]models.FileMetadata, error)
}

// AdminService covers privileged account management. Every operation is
// scope-checked against the acting principal.
type AdminService interface {
	CreateUser(ctx context.Context, actor models.User, req models.CreateUserRequest) (models.User, error)
	UpdateUser(ctx context.Context, actor models.User, userID int64, req models.UpdateUserRequest) (models.User, error)

	// DeleteUser removes the account and all its files: each blob is
	// removed before its metadata row, then the user row itself.
	DeleteUser(ctx context.Context, actor models.User, userID int64) error

	ListUsers(ctx context.Context, actor models.User) ([]models.User, error)
}
