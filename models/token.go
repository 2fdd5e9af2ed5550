package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is the JWT claim set carried by session tokens. The role name
// is a snapshot taken at mint time and is treated as a cache hint only; the
// verifier re-checks the live record on every validation.
type TokenClaims struct {
	jwt.RegisteredClaims
	Role RoleName `json:"role"`
}

// Token is the result of minting or validating a session token.
type Token struct {
	SignedString string
	UserID       int64
	Role         RoleName
	ExpiresAt    time.Time
}
