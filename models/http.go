package models

import "time"

// Request and response shapes exchanged with the HTTP layer.

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest starts the passwordless flow. Email and Username are accepted
// as aliases for Identifier to stay compatible with older clients. Password
// is optional: when present it is checked before the code is issued.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Email      string `json:"email"`
	Username   string `json:"username"`
	Password   string `json:"password"`
}

// LoginIdentifier resolves the identifier from whichever alias was sent.
func (r LoginRequest) LoginIdentifier() string {
	switch {
	case r.Identifier != "":
		return r.Identifier
	case r.Email != "":
		return r.Email
	default:
		return r.Username
	}
}

type VerifyOTPRequest struct {
	Identifier string `json:"identifier"`
	Code       string `json:"code"`
}

type ResendOTPRequest struct {
	Identifier string           `json:"identifier"`
	Purpose    ChallengePurpose `json:"purpose"`
}

type ForgotPasswordRequest struct {
	Identifier string `json:"identifier"`
}

type ResetPasswordRequest struct {
	Identifier  string `json:"identifier"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

type CreateUserRequest struct {
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	RoleName RoleName `json:"role_name"`
}

// UpdateUserRequest is a partial admin update; nil fields are untouched.
type UpdateUserRequest struct {
	Username *string   `json:"username"`
	Email    *string   `json:"email"`
	Password *string   `json:"password"`
	RoleName *RoleName `json:"role_name"`
	Active   *bool     `json:"is_active"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// OTPIssuedResponse acknowledges a challenge request. The shape is identical
// whether or not the account exists, so callers cannot probe for identifiers.
type OTPIssuedResponse struct {
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

type SessionResponse struct {
	Token string      `json:"token"`
	User  UserSummary `json:"user"`
}

type RateLimitedResponse struct {
	Message           string `json:"message"`
	RetryAfterSeconds int64  `json:"retry_after_seconds"`
}

type OTPMismatchResponse struct {
	Message           string `json:"message"`
	AttemptsRemaining int    `json:"attempts_remaining"`
}
