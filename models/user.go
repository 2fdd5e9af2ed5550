package models

import "time"

// User is a principal record. Exactly one role is assigned per user.
//
// PasswordHash is only populated for accounts that use the password
// fallback login path; OTP-first accounts may carry an empty hash.
// It is never serialised to JSON.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	RoleID       int64     `json:"-"`
	Role         Role      `json:"role"`
	Active       bool      `json:"active"`
	CreatedBy    *int64    `json:"created_by,omitempty"`
	CreatedAt    time.Time `json:"created_at,omitzero"`
}

// UserUpdate is a partial update of a user record. Nil fields are left
// untouched; the repository builds the UPDATE statement dynamically.
type UserUpdate struct {
	ID           int64
	Username     *string
	Email        *string
	PasswordHash *string
	RoleID       *int64
	Active       *bool
}

// UserSummary is the principal shape returned to API clients after
// authentication: identity, role name and the resolved permission set.
type UserSummary struct {
	ID          int64        `json:"id"`
	Username    string       `json:"username"`
	Email       string       `json:"email"`
	Role        RoleName     `json:"role"`
	Permissions []Permission `json:"permissions"`
}

// Summary projects the user onto its API-facing summary.
func (u User) Summary() UserSummary {
	return UserSummary{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Role:        u.Role.Name,
		Permissions: u.Role.Permissions,
	}
}
