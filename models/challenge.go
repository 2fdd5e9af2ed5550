package models

import (
	"strings"
	"time"
)

// ChallengePurpose distinguishes independent OTP flows for the same
// identifier. Each (identifier, purpose) pair holds at most one live
// challenge at a time.
type ChallengePurpose string

const (
	PurposeLogin         ChallengePurpose = "login"
	PurposePasswordReset ChallengePurpose = "password-reset"
)

// Valid reports whether the purpose is one of the known flows.
func (p ChallengePurpose) Valid() bool {
	return p == PurposeLogin || p == PurposePasswordReset
}

// Challenge is one live OTP challenge. It exists only between issuance and
// consumption (or expiry) and is never part of the durable audit trail.
type Challenge struct {
	Identifier  string           `json:"identifier"`
	Purpose     ChallengePurpose `json:"purpose"`
	Code        string           `json:"code"`
	PrincipalID int64            `json:"principal_id"`
	IssuedAt    time.Time        `json:"issued_at"`
	ExpiresAt   time.Time        `json:"expires_at"`
	Attempts    int              `json:"attempts"`
}

// ChallengeKey builds the store key for an (identifier, purpose) pair.
// Identifiers are case-folded so "Alice@example.com" and "alice@example.com"
// address the same challenge.
func ChallengeKey(identifier string, purpose ChallengePurpose) string {
	return string(purpose) + ":" + strings.ToLower(identifier)
}

// Key returns the store key of the challenge.
func (c Challenge) Key() string {
	return ChallengeKey(c.Identifier, c.Purpose)
}
