package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/securefms/securefms/internal/config"
	"github.com/securefms/securefms/internal/crypto"
	"github.com/securefms/securefms/internal/logger"
	"github.com/securefms/securefms/internal/otp"
	"github.com/securefms/securefms/internal/store"
	"github.com/securefms/securefms/internal/utils"
	"github.com/securefms/securefms/models"
)

// authService is the concrete implementation of AuthService. It handles
// registration, the passwordless login flow (challenge issue + verify),
// password reset, and the JWT session token lifecycle.
type authService struct {
	users  store.UserRepository
	roles  store.RoleRepository
	otp    *otp.Manager
	hasher crypto.PasswordHasher

	// tokenSignKey signs new tokens; tokenPrevSignKey, when set, is still
	// honoured for verification during a key-rotation overlap window.
	tokenSignKey     string
	tokenPrevSignKey string
	tokenIssuer      string
	tokenDuration    time.Duration

	logger *logger.Logger
}

// NewAuthService constructs the AuthService. The returned service is safe
// for concurrent use; all state is read-only after construction.
func NewAuthService(users store.UserRepository, roles store.RoleRepository, otpManager *otp.Manager, hasher crypto.PasswordHasher, cfg config.App, logger *logger.Logger) AuthService {
	return &authService{
		users:            users,
		roles:            roles,
		otp:              otpManager,
		hasher:           hasher,
		tokenSignKey:     cfg.TokenSignKey,
		tokenPrevSignKey: cfg.TokenPrevSignKey,
		tokenIssuer:      cfg.TokenIssuer,
		tokenDuration:    cfg.TokenDuration,
		logger:           logger,
	}
}

// Register creates a self-service account with the base user role and
// returns the persisted user together with a fresh session token.
//
// Returns ErrValidation for malformed input and store.ErrIdentifierTaken
// (wrapped) when the username or email is already registered.
func (a *authService) Register(ctx context.Context, req models.RegisterRequest) (models.User, models.Token, error) {
	log := logger.FromContext(ctx)

	if err := validateUsername(req.Username); err != nil {
		return models.User{}, models.Token{}, err
	}
	if err := validateEmail(req.Email); err != nil {
		return models.User{}, models.Token{}, err
	}
	if err := validatePassword(req.Password); err != nil {
		return models.User{}, models.Token{}, err
	}

	hash, err := a.hasher.Hash(req.Password)
	if err != nil {
		return models.User{}, models.Token{}, fmt.Errorf("password hashing failed: %w", err)
	}

	role, err := a.roles.FindRoleByName(ctx, models.RoleUser)
	if err != nil {
		return models.User{}, models.Token{}, fmt.Errorf("default role lookup failed: %w", err)
	}

	user, err := a.users.CreateUser(ctx, models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		RoleID:       role.ID,
		Role:         role,
		Active:       true,
	})
	if err != nil {
		log.Err(err).Str("username", req.Username).Msg("user registration failed")
		return models.User{}, models.Token{}, fmt.Errorf("user creation ended with error: %w", err)
	}

	token, err := a.CreateToken(ctx, user)
	if err != nil {
		return models.User{}, models.Token{}, err
	}

	return user, token, nil
}

// BeginLogin starts the login flow. When a password is supplied it is
// verified before any challenge is issued; a mismatch is ErrAuthentication
// and no code is sent. With or without a password, success means a login
// OTP challenge was issued and delivered.
//
// otp.ErrIdentityNotFound and otp.ErrIdentityInactive pass through so the
// transport layer can shape them into a generic acknowledgement.
func (a *authService) BeginLogin(ctx context.Context, identifier, password string) (otp.IssueResult, error) {
	if identifier == "" {
		return otp.IssueResult{}, fmt.Errorf("%w: identifier is required", ErrValidation)
	}

	if password != "" {
		user, err := a.users.FindUserByIdentifier(ctx, identifier)
		if err != nil {
			if errors.Is(err, store.ErrNoUserWasFound) {
				return otp.IssueResult{}, otp.ErrIdentityNotFound
			}
			return otp.IssueResult{}, fmt.Errorf("user search by identifier failed: %w", err)
		}

		ok, err := a.hasher.Verify(password, user.PasswordHash)
		if err != nil || !ok {
			logger.FromContext(ctx).Info().Int64("user_id", user.ID).Msg("password verification failed")
			return otp.IssueResult{}, ErrAuthentication
		}
	}

	return a.otp.Issue(ctx, identifier, models.PurposeLogin)
}

// VerifyLogin consumes the login challenge and, on success, re-fetches the
// principal and mints a session token.
func (a *authService) VerifyLogin(ctx context.Context, identifier, code string) (models.User, models.Token, error) {
	if identifier == "" || code == "" {
		return models.User{}, models.Token{}, fmt.Errorf("%w: identifier and code are required", ErrValidation)
	}

	principalID, err := a.otp.Verify(ctx, identifier, models.PurposeLogin, code)
	if err != nil {
		return models.User{}, models.Token{}, err
	}

	user, err := a.users.FindUserByID(ctx, principalID)
	if err != nil {
		return models.User{}, models.Token{}, fmt.Errorf("principal lookup after verification failed: %w", err)
	}
	if !user.Active {
		// Deactivated between issue and verify.
		return models.User{}, models.Token{}, ErrAuthentication
	}

	token, err := a.CreateToken(ctx, user)
	if err != nil {
		return models.User{}, models.Token{}, err
	}

	return user, token, nil
}

// ResendOTP re-issues the challenge for (identifier, purpose) under the
// manager's cooldown rule.
func (a *authService) ResendOTP(ctx context.Context, identifier string, purpose models.ChallengePurpose) (otp.IssueResult, error) {
	if identifier == "" {
		return otp.IssueResult{}, fmt.Errorf("%w: identifier is required", ErrValidation)
	}
	if purpose == "" {
		purpose = models.PurposeLogin
	}
	if !purpose.Valid() {
		return otp.IssueResult{}, fmt.Errorf("%w: unknown challenge purpose", ErrValidation)
	}

	return a.otp.Resend(ctx, identifier, purpose)
}

// BeginPasswordReset issues a password-reset challenge.
func (a *authService) BeginPasswordReset(ctx context.Context, identifier string) (otp.IssueResult, error) {
	if identifier == "" {
		return otp.IssueResult{}, fmt.Errorf("%w: identifier is required", ErrValidation)
	}

	return a.otp.Issue(ctx, identifier, models.PurposePasswordReset)
}

// CompletePasswordReset consumes the password-reset challenge and replaces
// the principal's password hash. The new password is validated before the
// challenge is touched, so a weak password does not burn an attempt.
func (a *authService) CompletePasswordReset(ctx context.Context, identifier, code, newPassword string) error {
	if identifier == "" || code == "" {
		return fmt.Errorf("%w: identifier and code are required", ErrValidation)
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	principalID, err := a.otp.Verify(ctx, identifier, models.PurposePasswordReset, code)
	if err != nil {
		return err
	}

	hash, err := a.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("password hashing failed: %w", err)
	}

	if err := a.users.UpdateUser(ctx, models.UserUpdate{ID: principalID, PasswordHash: &hash}); err != nil {
		return fmt.Errorf("password update failed: %w", err)
	}

	logger.FromContext(ctx).Info().Int64("user_id", principalID).Msg("password reset completed")
	return nil
}

// CreateToken issues a signed JWT carrying the principal ID as the subject
// and the role name at mint time.
func (a *authService) CreateToken(ctx context.Context, user models.User) (models.Token, error) {
	token, err := utils.GenerateJWTToken(a.tokenIssuer, user.ID, user.Role.Name, a.tokenDuration, a.tokenSignKey)
	if err != nil {
		return models.Token{}, fmt.Errorf("token creation failed: %w", err)
	}

	return token, nil
}

// ValidateToken verifies the token string against the current (and, during
// rotation, the previous) signing key, then re-fetches the principal. The
// role claim inside the token is only a cache hint: a token minted before a
// role change or deactivation is ErrTokenRevoked even though it still
// carries a valid signature and expiry.
func (a *authService) ValidateToken(ctx context.Context, tokenString string) (models.User, error) {
	token, err := utils.ValidateAndParseJWTToken(tokenString, a.tokenIssuer, a.tokenSignKey, a.tokenPrevSignKey)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return models.User{}, fmt.Errorf("%w: expired", ErrTokenInvalid)
		}
		return models.User{}, ErrTokenInvalid
	}

	user, err := a.users.FindUserByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNoUserWasFound) {
			return models.User{}, ErrTokenRevoked
		}
		return models.User{}, fmt.Errorf("principal lookup failed: %w", err)
	}

	if !user.Active || user.Role.Name != token.Role {
		logger.FromContext(ctx).Info().
			Int64("user_id", user.ID).
			Bool("active", user.Active).
			Msg("token rejected against live principal record")
		return models.User{}, ErrTokenRevoked
	}

	return user, nil
}
