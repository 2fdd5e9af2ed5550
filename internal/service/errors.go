package service

import "errors"

// Sentinel errors of the service layer. The HTTP layer maps them to status
// codes with [errors.Is]; repository and crypto sentinels are translated
// into these before leaving a service, so handlers never match on storage
// internals.
var (
	// ErrValidation marks a request rejected before any side effect:
	// missing fields, malformed email, weak password, unknown role name.
	ErrValidation = errors.New("invalid data provided")

	// ErrAuthentication marks a failed credential check: wrong password,
	// unresolvable principal on a credentialed path.
	ErrAuthentication = errors.New("authentication failed")

	// ErrForbidden marks an authenticated principal attempting an
	// operation its role or scope does not allow. Violations are reported,
	// never silently ignored.
	ErrForbidden = errors.New("operation is not permitted")

	// ErrNotFound marks a lookup of a resource that does not exist within
	// the caller's visibility.
	ErrNotFound = errors.New("resource was not found")

	// ErrReferentialIntegrity marks a write whose owner reference does not
	// resolve to an existing active principal.
	ErrReferentialIntegrity = errors.New("owner does not resolve to an active principal")

	// ErrTokenInvalid marks a session token that failed signature, issuer,
	// expiry or shape validation.
	ErrTokenInvalid = errors.New("token is expired or invalid")

	// ErrTokenRevoked marks a well-formed, correctly signed token whose
	// principal no longer matches the live record: deactivated, deleted,
	// or holding a different role than at mint time.
	ErrTokenRevoked = errors.New("token has been revoked")
)
