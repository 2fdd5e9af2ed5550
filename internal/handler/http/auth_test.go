package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/securefms/securefms/internal/otp"
	"github.com/securefms/securefms/internal/service"
	"github.com/securefms/securefms/internal/store"
	"github.com/securefms/securefms/models"
)

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func TestRegister_Created(t *testing.T) {
	auth := &stubAuthService{
		registerFn: func(_ context.Context, req models.RegisterRequest) (models.User, models.Token, error) {
			user := testPrincipal()
			user.Username = req.Username
			return user, models.Token{SignedString: "issued-token"}, nil
		},
	}
	router := newTestRouter(auth, nil, nil)

	rec := doRequest(t, router, postJSON("/api/auth/register", `{"username":"alice","email":"alice@example.com","password":"correct horse"}`))
	require.Equal(t, http.StatusCreated, rec.Code)

	session := decodeBody[models.SessionResponse](t, rec)
	assert.Equal(t, "issued-token", session.Token)
	assert.Equal(t, "alice", session.User.Username)
}

func TestRegister_DuplicateIdentifierIsConflict(t *testing.T) {
	auth := &stubAuthService{
		registerFn: func(_ context.Context, _ models.RegisterRequest) (models.User, models.Token, error) {
			return models.User{}, models.Token{}, store.ErrIdentifierTaken
		},
	}
	router := newTestRouter(auth, nil, nil)

	rec := doRequest(t, router, postJSON("/api/auth/register", `{"username":"alice","email":"alice@example.com","password":"correct horse"}`))
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestLogin_IssuesChallenge(t *testing.T) {
	expiresAt := time.Now().Add(5 * time.Minute)
	auth := &stubAuthService{
		beginLoginFn: func(_ context.Context, identifier, _ string) (otp.IssueResult, error) {
			assert.Equal(t, "alice@example.com", identifier)
			return otp.IssueResult{ExpiresAt: expiresAt}, nil
		},
	}
	router := newTestRouter(auth, nil, nil)

	rec := doRequest(t, router, postJSON("/api/auth/login", `{"email":"alice@example.com"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	ack := decodeBody[models.OTPIssuedResponse](t, rec)
	assert.Equal(t, otpIssuedMessage, ack.Message)
	assert.WithinDuration(t, expiresAt, ack.ExpiresAt, time.Second)
}

func TestLogin_UnknownIdentifierGetsGenericAck(t *testing.T) {
	auth := &stubAuthService{
		beginLoginFn: func(_ context.Context, _, _ string) (otp.IssueResult, error) {
			return otp.IssueResult{}, otp.ErrIdentityNotFound
		},
	}
	router := newTestRouter(auth, nil, nil)

	rec := doRequest(t, router, postJSON("/api/auth/login", `{"email":"nobody@example.com"}`))

	// Same status and shape as success; no expiry leaks.
	require.Equal(t, http.StatusOK, rec.Code)
	ack := decodeBody[models.OTPIssuedResponse](t, rec)
	assert.Equal(t, otpIssuedMessage, ack.Message)
	assert.True(t, ack.ExpiresAt.IsZero())
}

func TestLogin_PasswordMismatchIsUnauthorized(t *testing.T) {
	auth := &stubAuthService{
		beginLoginFn: func(_ context.Context, _, _ string) (otp.IssueResult, error) {
			return otp.IssueResult{}, service.ErrAuthentication
		},
	}
	router := newTestRouter(auth, nil, nil)

	rec := doRequest(t, router, postJSON("/api/auth/login", `{"email":"alice@example.com","password":"wrong"}`))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin_RateLimited(t *testing.T) {
	auth := &stubAuthService{
		beginLoginFn: func(_ context.Context, _, _ string) (otp.IssueResult, error) {
			return otp.IssueResult{}, &otp.RateLimitError{RetryAfter: 12 * time.Second}
		},
	}
	router := newTestRouter(auth, nil, nil)

	rec := doRequest(t, router, postJSON("/api/auth/login", `{"email":"alice@example.com"}`))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	body := decodeBody[models.RateLimitedResponse](t, rec)
	assert.Equal(t, int64(13), body.RetryAfterSeconds, "the wait is rounded up")
}

func TestLogin_InvalidJSON(t *testing.T) {
	router := newTestRouter(nil, nil, nil)

	rec := doRequest(t, router, postJSON("/api/auth/login", `{`))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerifyOTP_Success(t *testing.T) {
	auth := &stubAuthService{
		verifyLoginFn: func(_ context.Context, identifier, code string) (models.User, models.Token, error) {
			assert.Equal(t, "alice@example.com", identifier)
			assert.Equal(t, "123456", code)
			return testPrincipal(), models.Token{SignedString: "session-token"}, nil
		},
	}
	router := newTestRouter(auth, nil, nil)

	rec := doRequest(t, router, postJSON("/api/auth/verify-otp", `{"identifier":"alice@example.com","code":"123456"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	session := decodeBody[models.SessionResponse](t, rec)
	assert.Equal(t, "session-token", session.Token)
	assert.Equal(t, models.RoleUser, session.User.Role)
}

func TestVerifyOTP_MismatchReportsAttemptsRemaining(t *testing.T) {
	auth := &stubAuthService{
		verifyLoginFn: func(_ context.Context, _, _ string) (models.User, models.Token, error) {
			return models.User{}, models.Token{}, &otp.MismatchError{Remaining: 3}
		},
	}
	router := newTestRouter(auth, nil, nil)

	rec := doRequest(t, router, postJSON("/api/auth/verify-otp", `{"identifier":"alice@example.com","code":"000000"}`))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	body := decodeBody[models.OTPMismatchResponse](t, rec)
	assert.Equal(t, 3, body.AttemptsRemaining)
}

func TestVerifyOTP_ExhaustedAttempts(t *testing.T) {
	auth := &stubAuthService{
		verifyLoginFn: func(_ context.Context, _, _ string) (models.User, models.Token, error) {
			return models.User{}, models.Token{}, otp.ErrTooManyAttempts
		},
	}
	router := newTestRouter(auth, nil, nil)

	rec := doRequest(t, router, postJSON("/api/auth/verify-otp", `{"identifier":"alice@example.com","code":"123456"}`))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestResendOTP_UnknownIdentifierGetsGenericAck(t *testing.T) {
	// The service already suppresses unknown identifiers with a zero result;
	// the handler answers with the standard acknowledgement.
	router := newTestRouter(&stubAuthService{}, nil, nil)

	rec := doRequest(t, router, postJSON("/api/auth/resend-otp", `{"identifier":"nobody@example.com"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	ack := decodeBody[models.OTPIssuedResponse](t, rec)
	assert.Equal(t, otpIssuedMessage, ack.Message)
}

func TestForgotPassword_AlwaysAcknowledges(t *testing.T) {
	auth := &stubAuthService{
		beginPasswordResetFn: func(_ context.Context, _ string) (otp.IssueResult, error) {
			return otp.IssueResult{}, otp.ErrIdentityInactive
		},
	}
	router := newTestRouter(auth, nil, nil)

	rec := doRequest(t, router, postJSON("/api/auth/forgot-password", `{"identifier":"blocked@example.com"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	ack := decodeBody[models.OTPIssuedResponse](t, rec)
	assert.Equal(t, otpIssuedMessage, ack.Message)
}

func TestResetPassword_Flow(t *testing.T) {
	auth := &stubAuthService{
		completePasswordResetFn: func(_ context.Context, identifier, code, newPassword string) error {
			assert.Equal(t, "alice@example.com", identifier)
			assert.Equal(t, "123456", code)
			assert.Equal(t, "battery staple", newPassword)
			return nil
		},
	}
	router := newTestRouter(auth, nil, nil)

	rec := doRequest(t, router, postJSON("/api/auth/reset-password", `{"identifier":"alice@example.com","code":"123456","new_password":"battery staple"}`))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestResetPassword_MismatchReportsAttemptsRemaining(t *testing.T) {
	auth := &stubAuthService{
		completePasswordResetFn: func(_ context.Context, _, _, _ string) error {
			return &otp.MismatchError{Remaining: 1}
		},
	}
	router := newTestRouter(auth, nil, nil)

	rec := doRequest(t, router, postJSON("/api/auth/reset-password", `{"identifier":"alice@example.com","code":"000000","new_password":"battery staple"}`))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	body := decodeBody[models.OTPMismatchResponse](t, rec)
	assert.Equal(t, 1, body.AttemptsRemaining)
}

func TestMe_ReturnsPrincipalSummary(t *testing.T) {
	router := newTestRouter(nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+testBearerToken)

	rec := doRequest(t, router, req)
	require.Equal(t, http.StatusOK, rec.Code)

	summary := decodeBody[models.UserSummary](t, rec)
	assert.Equal(t, testPrincipal().ID, summary.ID)
	assert.Equal(t, models.RoleUser, summary.Role)
	assert.ElementsMatch(t, models.DefaultRolePermissions[models.RoleUser], summary.Permissions)
}
