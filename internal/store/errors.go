package store

import "errors"

// Sentinel errors returned by repository methods to signal well-known failure
// conditions. Callers should use [errors.Is] to match against these values.
var (
	// ErrIdentifierTaken is returned when creating or updating a user
	// fails because the username or email is already registered.
	ErrIdentifierTaken = errors.New("identifier already taken")

	// ErrNoUserWasFound is returned when a query expected to match at
	// least one user record produces an empty result set.
	ErrNoUserWasFound = errors.New("no user was found")

	// ErrRoleNotFound is returned when a role name does not resolve to a
	// persisted role record.
	ErrRoleNotFound = errors.New("role was not found")

	// ErrOwnerNotFound is returned when persisting a file fails because
	// the owner reference does not resolve to an existing user.
	ErrOwnerNotFound = errors.New("file owner does not exist")

	// ErrFileNotFound is returned when a file metadata lookup by ID
	// produces no record.
	ErrFileNotFound = errors.New("file was not found")

	// ErrChallengeNotFound is returned when no live OTP challenge exists
	// under the requested key.
	ErrChallengeNotFound = errors.New("challenge was not found")

	// ErrBlobNotFound is returned when the blob storage has no content
	// under the requested name.
	ErrBlobNotFound = errors.New("blob was not found")
)
