package http

import (
	"errors"
	"net/http"

	"github.com/securefms/securefms/internal/crypto"
	"github.com/securefms/securefms/internal/notify"
	"github.com/securefms/securefms/internal/otp"
	"github.com/securefms/securefms/internal/service"
	"github.com/securefms/securefms/internal/store"
)

// errorStatusMap translates service and store sentinels into HTTP status
// codes. Crypto failures map to 500 with an opaque body: the details are
// logged server-side and never reach the client.
var errorStatusMap = map[error]int{
	service.ErrValidation:           http.StatusBadRequest,
	service.ErrAuthentication:       http.StatusUnauthorized,
	service.ErrTokenInvalid:         http.StatusUnauthorized,
	service.ErrTokenRevoked:         http.StatusUnauthorized,
	service.ErrForbidden:            http.StatusForbidden,
	service.ErrNotFound:             http.StatusNotFound,
	service.ErrReferentialIntegrity: http.StatusUnprocessableEntity,

	otp.ErrChallengeExpired: http.StatusUnauthorized,
	otp.ErrTooManyAttempts:  http.StatusTooManyRequests,
	notify.ErrDelivery:      http.StatusBadGateway,

	store.ErrIdentifierTaken:   http.StatusConflict,
	store.ErrChallengeNotFound: http.StatusUnauthorized,
	store.ErrRoleNotFound:      http.StatusBadRequest,
	store.ErrNoUserWasFound:    http.StatusNotFound,
	store.ErrFileNotFound:      http.StatusNotFound,
	crypto.ErrCrypto:           http.StatusInternalServerError,
}

func statusFromError(err error) int {
	for target, status := range errorStatusMap {
		if errors.Is(err, target) {
			return status
		}
	}
	return http.StatusInternalServerError
}

// clientMessageFromError picks a response body that does not leak
// internals; anything unmapped gets the bare status text.
func clientMessageFromError(err error, status int) string {
	if status >= http.StatusInternalServerError {
		return http.StatusText(status)
	}

	for target := range errorStatusMap {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return http.StatusText(status)
}
