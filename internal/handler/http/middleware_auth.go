package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/securefms/securefms/internal/logger"
	"github.com/securefms/securefms/internal/service"
	"github.com/securefms/securefms/internal/utils"
	"github.com/securefms/securefms/models"
)

// auth is an HTTP middleware that enforces JWT-based authentication.
//
// It inspects the incoming "Authorization" header, extracts the bearer token,
// validates it via [service.AuthService.ValidateToken], and — on success —
// stores the re-fetched live principal in the request context before
// delegating to the next handler.
//
// The middleware rejects requests with HTTP 401 Unauthorized in the following
// cases:
//   - The "Authorization" header is absent ([ErrEmptyAuthorizationHeader]).
//   - The header value cannot be parsed as a bearer token
//     ([ErrInvalidAuthorizationHeader] or [ErrEmptyToken]).
//   - The token has expired or fails validation ([service.ErrTokenInvalid]).
//   - The token's principal was deactivated or changed role since the token
//     was minted ([service.ErrTokenRevoked]).
func (h *Handler) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromRequest(r)

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			log.Err(ErrEmptyAuthorizationHeader).Send()
			http.Error(w, ErrEmptyAuthorizationHeader.Error(), http.StatusUnauthorized)
			return
		}

		tokenString, err := getTokenFromAuthHeader(authHeader)
		if err != nil {
			log.Err(err).Send()
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}

		ctx := r.Context()
		principal, err := h.services.Auth.ValidateToken(ctx, tokenString)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrTokenRevoked):
				log.Err(err).Msg("token revoked")
				http.Error(w, service.ErrTokenRevoked.Error(), http.StatusUnauthorized)
				return
			case errors.Is(err, service.ErrTokenInvalid):
				log.Err(err).Msg("token invalid")
				http.Error(w, service.ErrTokenInvalid.Error(), http.StatusUnauthorized)
				return
			default:
				log.Err(err).Msg("error occurred during token validation")
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
		}

		// Store the live principal in the context so that downstream
		// handlers never re-parse the token or re-fetch the record.
		ctx = utils.WithPrincipal(ctx, principal)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// adminOnly gates the /api/admin routes: the principal must hold the
// view_users permission. Runs after auth, so a missing principal is a
// programming error answered with 401.
func (h *Handler) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromRequest(r)

		principal, ok := utils.PrincipalFromContext(r.Context())
		if !ok {
			log.Error().Msg("admin route reached without principal in context")
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		if err := service.Authorize(principal, models.PermissionViewUsers); err != nil {
			log.Err(err).Int64("user_id", principal.ID).Msg("admin route denied")
			http.Error(w, service.ErrForbidden.Error(), http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// getTokenFromAuthHeader extracts the bearer token string from a raw
// "Authorization" HTTP header value.
//
// The header is expected to follow the standard format:
//
//	Authorization: <scheme> <token>
//
// It returns the following sentinel errors:
//   - [ErrInvalidAuthorizationHeader] — if the header contains fewer than
//     two space-separated parts (i.e. the token is missing entirely).
//   - [ErrEmptyToken] — if the second part exists but is an empty string.
func getTokenFromAuthHeader(authHeader string) (string, error) {
	parts := strings.Split(authHeader, " ")
	if len(parts) < 2 {
		return "", ErrInvalidAuthorizationHeader
	}

	tokenString := parts[1]
	if tokenString == "" {
		return "", ErrEmptyToken
	}

	return tokenString, nil
}
