package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/securefms/securefms/internal/config"
	"github.com/securefms/securefms/internal/logger"
	"github.com/securefms/securefms/internal/otp"
	"github.com/securefms/securefms/internal/service"
	"github.com/securefms/securefms/models"
)

// Shared function-field stubs for the transport tests. A nil field means
// "succeed with the zero value"; tests override only what they assert on.

const testBearerToken = "good-token"

func testPrincipal() models.User {
	return models.User{
		ID:       7,
		Username: "alice",
		Email:    "alice@example.com",
		Active:   true,
		Role: models.Role{
			ID:          1,
			Name:        models.RoleUser,
			Permissions: models.DefaultRolePermissions[models.RoleUser],
		},
	}
}

// ─────────────────────────────────────────────
// Stub: service.AuthService
// ─────────────────────────────────────────────

type stubAuthService struct {
	registerFn              func(ctx context.Context, req models.RegisterRequest) (models.User, models.Token, error)
	beginLoginFn            func(ctx context.Context, identifier, password string) (otp.IssueResult, error)
	verifyLoginFn           func(ctx context.Context, identifier, code string) (models.User, models.Token, error)
	resendOTPFn             func(ctx context.Context, identifier string, purpose models.ChallengePurpose) (otp.IssueResult, error)
	beginPasswordResetFn    func(ctx context.Context, identifier string) (otp.IssueResult, error)
	completePasswordResetFn func(ctx context.Context, identifier, code, newPassword string) error
	validateTokenFn         func(ctx context.Context, tokenString string) (models.User, error)
}

func (s *stubAuthService) Register(ctx context.Context, req models.RegisterRequest) (models.User, models.Token, error) {
	if s.registerFn != nil {
		return s.registerFn(ctx, req)
	}
	return models.User{}, models.Token{}, nil
}

func (s *stubAuthService) BeginLogin(ctx context.Context, identifier, password string) (otp.IssueResult, error) {
	if s.beginLoginFn != nil {
		return s.beginLoginFn(ctx, identifier, password)
	}
	return otp.IssueResult{}, nil
}

func (s *stubAuthService) VerifyLogin(ctx context.Context, identifier, code string) (models.User, models.Token, error) {
	if s.verifyLoginFn != nil {
		return s.verifyLoginFn(ctx, identifier, code)
	}
	return models.User{}, models.Token{}, nil
}

func (s *stubAuthService) ResendOTP(ctx context.Context, identifier string, purpose models.ChallengePurpose) (otp.IssueResult, error) {
	if s.resendOTPFn != nil {
		return s.resendOTPFn(ctx, identifier, purpose)
	}
	return otp.IssueResult{}, nil
}

func (s *stubAuthService) BeginPasswordReset(ctx context.Context, identifier string) (otp.IssueResult, error) {
	if s.beginPasswordResetFn != nil {
		return s.beginPasswordResetFn(ctx, identifier)
	}
	return otp.IssueResult{}, nil
}

func (s *stubAuthService) CompletePasswordReset(ctx context.Context, identifier, code, newPassword string) error {
	if s.completePasswordResetFn != nil {
		return s.completePasswordResetFn(ctx, identifier, code, newPassword)
	}
	return nil
}

// ValidateToken accepts exactly testBearerToken unless overridden.
func (s *stubAuthService) ValidateToken(ctx context.Context, tokenString string) (models.User, error) {
	if s.validateTokenFn != nil {
		return s.validateTokenFn(ctx, tokenString)
	}
	if tokenString == testBearerToken {
		return testPrincipal(), nil
	}
	return models.User{}, service.ErrTokenInvalid
}

// ─────────────────────────────────────────────
// Stub: service.FileService
// ─────────────────────────────────────────────

type stubFileService struct {
	storeFn    func(ctx context.Context, principal models.User, upload service.FileUpload) (models.FileMetadata, error)
	retrieveFn func(ctx context.Context, principal models.User, fileID int64) (models.FileMetadata, []byte, error)
	deleteFn   func(ctx context.Context, principal models.User, fileID int64) error
	listFn     func(ctx context.Context, principal models.User) ([]models.FileMetadata, error)
}

func (s *stubFileService) Store(ctx context.Context, principal models.User, upload service.FileUpload) (models.FileMetadata, error) {
	if s.storeFn != nil {
		return s.storeFn(ctx, principal, upload)
	}
	return models.FileMetadata{}, nil
}

func (s *stubFileService) Retrieve(ctx context.Context, principal models.User, fileID int64) (models.FileMetadata, []byte, error) {
	if s.retrieveFn != nil {
		return s.retrieveFn(ctx, principal, fileID)
	}
	return models.FileMetadata{}, nil, nil
}

func (s *stubFileService) Delete(ctx context.Context, principal models.User, fileID int64) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, principal, fileID)
	}
	return nil
}

func (s *stubFileService) List(ctx context.Context, principal models.User) ([]models.FileMetadata, error) {
	if s.listFn != nil {
		return s.listFn(ctx, principal)
	}
	return nil, nil
}

// ─────────────────────────────────────────────
// Stub: service.AdminService
// ─────────────────────────────────────────────

type stubAdminService struct {
	createUserFn func(ctx context.Context, actor models.User, req models.CreateUserRequest) (models.User, error)
	updateUserFn func(ctx context.Context, actor models.User, userID int64, req models.UpdateUserRequest) (models.User, error)
	deleteUserFn func(ctx context.Context, actor models.User, userID int64) error
	listUsersFn  func(ctx context.Context, actor models.User) ([]models.User, error)
}

func (s *stubAdminService) CreateUser(ctx context.Context, actor models.User, req models.CreateUserRequest) (models.User, error) {
	if s.createUserFn != nil {
		return s.createUserFn(ctx, actor, req)
	}
	return models.User{}, nil
}

func (s *stubAdminService) UpdateUser(ctx context.Context, actor models.User, userID int64, req models.UpdateUserRequest) (models.User, error) {
	if s.updateUserFn != nil {
		return s.updateUserFn(ctx, actor, userID, req)
	}
	return models.User{}, nil
}

func (s *stubAdminService) DeleteUser(ctx context.Context, actor models.User, userID int64) error {
	if s.deleteUserFn != nil {
		return s.deleteUserFn(ctx, actor, userID)
	}
	return nil
}

func (s *stubAdminService) ListUsers(ctx context.Context, actor models.User) ([]models.User, error) {
	if s.listUsersFn != nil {
		return s.listUsersFn(ctx, actor)
	}
	return nil, nil
}

// newTestRouter builds the full router over the given stubs; nil stubs are
// replaced with permissive defaults.
func newTestRouter(auth *stubAuthService, files *stubFileService, admin *stubAdminService) http.Handler {
	if auth == nil {
		auth = &stubAuthService{}
	}
	if files == nil {
		files = &stubFileService{}
	}
	if admin == nil {
		admin = &stubAdminService{}
	}

	h := NewHandler(&service.Services{Auth: auth, Files: files, Admin: admin}, config.Server{MaxUploadBytes: 1 << 20}, logger.Nop())
	return h.Init()
}

// doRequest runs one request through the router and returns the recorder.
func doRequest(t *testing.T, router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}
