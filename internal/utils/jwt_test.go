package utils

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/securefms/securefms/models"
)

const (
	testIssuer  = "securefms"
	testSignKey = "unit-test-sign-key"
)

func TestGenerateJWTToken_RoundTrip(t *testing.T) {
	token, err := GenerateJWTToken(testIssuer, 7, models.RoleAdmin, time.Hour, testSignKey)
	require.NoError(t, err)
	require.NotEmpty(t, token.SignedString)

	assert.Equal(t, int64(7), token.UserID)
	assert.Equal(t, models.RoleAdmin, token.Role)
	assert.WithinDuration(t, time.Now().Add(time.Hour), token.ExpiresAt, 2*time.Second)

	parsed, err := ValidateAndParseJWTToken(token.SignedString, testIssuer, testSignKey)
	require.NoError(t, err)

	assert.Equal(t, token.UserID, parsed.UserID)
	assert.Equal(t, token.Role, parsed.Role)
	assert.WithinDuration(t, token.ExpiresAt, parsed.ExpiresAt, time.Second)
}

func TestGenerateJWTToken_InvalidParams(t *testing.T) {
	tests := []struct {
		name     string
		issuer   string
		role     models.RoleName
		duration time.Duration
		signKey  string
	}{
		{"empty issuer", "", models.RoleUser, time.Hour, testSignKey},
		{"zero duration", testIssuer, models.RoleUser, 0, testSignKey},
		{"empty sign key", testIssuer, models.RoleUser, time.Hour, ""},
		{"unknown role", testIssuer, models.RoleName("owner"), time.Hour, testSignKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GenerateJWTToken(tt.issuer, 7, tt.role, tt.duration, tt.signKey)
			require.Error(t, err)
		})
	}
}

func TestValidateAndParseJWTToken_WrongKey(t *testing.T) {
	token, err := GenerateJWTToken(testIssuer, 7, models.RoleUser, time.Hour, testSignKey)
	require.NoError(t, err)

	_, err = ValidateAndParseJWTToken(token.SignedString, testIssuer, "some-other-key")
	require.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestValidateAndParseJWTToken_WrongIssuer(t *testing.T) {
	token, err := GenerateJWTToken("someone-else", 7, models.RoleUser, time.Hour, testSignKey)
	require.NoError(t, err)

	_, err = ValidateAndParseJWTToken(token.SignedString, testIssuer, testSignKey)
	require.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)
}

func TestValidateAndParseJWTToken_Expired(t *testing.T) {
	token, err := GenerateJWTToken(testIssuer, 7, models.RoleUser, time.Nanosecond, testSignKey)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	_, err = ValidateAndParseJWTToken(token.SignedString, testIssuer, testSignKey)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestValidateAndParseJWTToken_KeyRotationOverlap(t *testing.T) {
	token, err := GenerateJWTToken(testIssuer, 7, models.RoleUser, time.Hour, "old-key")
	require.NoError(t, err)

	// The previous key is tried after the current one.
	parsed, err := ValidateAndParseJWTToken(token.SignedString, testIssuer, "new-key", "old-key")
	require.NoError(t, err)
	assert.Equal(t, int64(7), parsed.UserID)

	// Empty key slots are skipped, not treated as a match.
	parsed, err = ValidateAndParseJWTToken(token.SignedString, testIssuer, "", "old-key")
	require.NoError(t, err)
	assert.Equal(t, int64(7), parsed.UserID)

	// With the old key retired the token no longer verifies.
	_, err = ValidateAndParseJWTToken(token.SignedString, testIssuer, "new-key")
	require.Error(t, err)
}

func TestValidateAndParseJWTToken_NoKeysConfigured(t *testing.T) {
	token, err := GenerateJWTToken(testIssuer, 7, models.RoleUser, time.Hour, testSignKey)
	require.NoError(t, err)

	_, err = ValidateAndParseJWTToken(token.SignedString, testIssuer)
	require.Error(t, err)
}

func TestPrincipalContext(t *testing.T) {
	ctx := context.Background()

	_, ok := PrincipalFromContext(ctx)
	require.False(t, ok)

	user := models.User{ID: 7, Username: "alice"}
	got, ok := PrincipalFromContext(WithPrincipal(ctx, user))
	require.True(t, ok)
	assert.Equal(t, user, got)
}
