package otp

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors of the challenge manager. Callers match them with
// [errors.Is]; the two parameterised failures ([RateLimitError],
// [MismatchError]) are matched with [errors.As].
var (
	// ErrIdentityNotFound is returned by Issue when the identifier does
	// not resolve to a principal. The HTTP layer converts this into a
	// generic success shape to avoid identifier enumeration.
	ErrIdentityNotFound = errors.New("identity was not found")

	// ErrIdentityInactive is returned when the identifier resolves to a
	// deactivated principal.
	ErrIdentityInactive = errors.New("identity is inactive")

	// ErrChallengeExpired is returned by Verify when the stored challenge
	// is past its expiry. The challenge is removed.
	ErrChallengeExpired = errors.New("challenge has expired")

	// ErrTooManyAttempts is returned by Verify once the attempt counter
	// passes the cap. The challenge is removed and stays unusable even
	// with the correct code.
	ErrTooManyAttempts = errors.New("too many verification attempts")
)

// RateLimitError is returned by Issue and Resend while the cooldown window
// since the previous issuance has not elapsed.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("challenge already issued, retry in %s", e.RetryAfter.Round(time.Second))
}

// MismatchError is returned by Verify when the submitted code is wrong but
// attempts remain.
type MismatchError struct {
	Remaining int
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("code mismatch, %d attempts remaining", e.Remaining)
}
