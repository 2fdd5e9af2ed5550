package utils

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/securefms/securefms/models"
)

// GenerateJWTToken creates a signed HMAC-SHA256 JWT session token.
//
// The token includes the following claims:
//   - Issuer    (iss): identifies the service that issued the token
//   - Subject   (sub): the principal ID encoded as a string
//   - IssuedAt  (iat): the current time
//   - ExpiresAt (exp): the current time plus tokenDuration
//   - role:            the principal's role name at mint time (cache hint)
//
// All parameters are required. Returns an error if any of them are empty or
// zero.
func GenerateJWTToken(issuer string, userID int64, role models.RoleName, tokenDuration time.Duration, signKey string) (models.Token, error) {
	if issuer == "" || tokenDuration == 0 || signKey == "" || !role.Valid() {
		return models.Token{}, errors.New("invalid params for generating JWT Token")
	}

	now := time.Now()
	expiresAt := now.Add(tokenDuration)
	claims := &models.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatInt(userID, 10),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Role: role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(signKey))
	if err != nil {
		return models.Token{}, fmt.Errorf("error occurred during signing JWT token: %w", err)
	}

	return models.Token{
		SignedString: tokenString,
		UserID:       userID,
		Role:         role,
		ExpiresAt:    expiresAt,
	}, nil
}

// ValidateAndParseJWTToken validates the given JWT token string against each
// of signKeys in order and extracts its claims. Multiple keys exist only to
// support a short rotation overlap window: the first key is the current one,
// any further keys are previous keys still being honoured.
//
// Validation includes signature verification, issuer check, expiry check and
// subject presence. A signature mismatch moves on to the next key; any other
// failure (expired, wrong issuer, malformed) is returned immediately.
func ValidateAndParseJWTToken(tokenString, tokenIssuer string, signKeys ...string) (models.Token, error) {
	var lastErr error

	for _, signKey := range signKeys {
		if signKey == "" {
			continue
		}

		claims := &models.TokenClaims{}
		_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
			return []byte(signKey), nil
		}, jwt.WithIssuer(tokenIssuer), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			lastErr = err
			if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
				continue // token may be signed with an older key
			}
			return models.Token{}, fmt.Errorf("error occurred validating and parsing token: %w", err)
		}

		userIDStr, err := claims.GetSubject()
		if err != nil || userIDStr == "" {
			return models.Token{}, errors.New("empty subject error")
		}

		userID, err := strconv.ParseInt(userIDStr, 10, 64)
		if err != nil {
			return models.Token{}, fmt.Errorf("error occurred during converting subject to user ID: %w", err)
		}

		var expiresAt time.Time
		if claims.ExpiresAt != nil {
			expiresAt = claims.ExpiresAt.Time
		}

		return models.Token{
			SignedString: tokenString,
			UserID:       userID,
			Role:         claims.Role,
			ExpiresAt:    expiresAt,
		}, nil
	}

	if lastErr == nil {
		lastErr = errors.New("no signing keys configured")
	}
	return models.Token{}, fmt.Errorf("error occurred validating and parsing token: %w", lastErr)
}
