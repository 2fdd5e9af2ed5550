// Package otp implements the one-time-passcode challenge state machine:
// issue, verify, resend, expire. A challenge is keyed by (identifier,
// purpose) and moves through
//
//	none → issued → consumed | expired | attempts_exhausted | superseded
//
// where issued is the only non-terminal state; every terminal transition
// removes the challenge from the store.
package otp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/securefms/securefms/internal/logger"
	"github.com/securefms/securefms/internal/notify"
	"github.com/securefms/securefms/internal/store"
	"github.com/securefms/securefms/models"
)

// MaxAttempts caps verification attempts per challenge. The counter is
// persisted before the comparison, so a failed attempt always counts.
const MaxAttempts = 5

// expiryFor returns how long a challenge of the given purpose stays valid.
func expiryFor(purpose models.ChallengePurpose) time.Duration {
	if purpose == models.PurposePasswordReset {
		return 10 * time.Minute
	}
	return 5 * time.Minute
}

// cooldownFor returns how long after an issuance the same key rejects a new
// one with [RateLimitError].
func cooldownFor(purpose models.ChallengePurpose) time.Duration {
	if purpose == models.PurposePasswordReset {
		return time.Minute
	}
	return 30 * time.Second
}

// IssueResult acknowledges a successfully issued (or success-shaped)
// challenge.
type IssueResult struct {
	ExpiresAt time.Time
}

// Manager owns the challenge lifecycle. All state lives in the
// [store.ChallengeStore]; the manager adds per-key linearization, rate
// limiting, attempt accounting and delivery rollback on top.
type Manager struct {
	challenges store.ChallengeStore
	users      store.UserRepository
	notifier   notify.Notifier
	logger     *logger.Logger

	keys keyMutex

	// now is the clock for expiry and cooldown decisions; overridable in
	// tests.
	now func() time.Time
}

// NewManager wires the challenge manager to its collaborators.
func NewManager(challenges store.ChallengeStore, users store.UserRepository, notifier notify.Notifier, logger *logger.Logger) *Manager {
	logger.Debug().Msg("creating otp challenge manager")
	return &Manager{
		challenges: challenges,
		users:      users,
		notifier:   notifier,
		logger:     logger,
		now:        time.Now,
	}
}

// Issue creates and delivers a fresh challenge for (identifier, purpose).
//
// Returns:
//   - ErrIdentityNotFound / ErrIdentityInactive when the identifier does
//     not resolve to an active principal;
//   - *RateLimitError while the cooldown since the previous issuance has
//     not elapsed (the live challenge is kept);
//   - a notify.ErrDelivery-wrapped error when the code could not be
//     delivered — the stored challenge is rolled back so no undelivered
//     code remains valid.
//
// A successful Issue replaces any prior challenge for the key.
func (m *Manager) Issue(ctx context.Context, identifier string, purpose models.ChallengePurpose) (IssueResult, error) {
	key := models.ChallengeKey(identifier, purpose)
	lock := m.keys.Lock(key)
	defer lock.Unlock()

	return m.issueLocked(ctx, key, identifier, purpose)
}

// issueLocked is the body of Issue; the caller holds the key lock.
func (m *Manager) issueLocked(ctx context.Context, key, identifier string, purpose models.ChallengePurpose) (IssueResult, error) {
	log := logger.FromContext(ctx)

	user, err := m.users.FindUserByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, store.ErrNoUserWasFound) {
			return IssueResult{}, ErrIdentityNotFound
		}
		return IssueResult{}, fmt.Errorf("identity lookup failed: %w", err)
	}
	if !user.Active {
		return IssueResult{}, ErrIdentityInactive
	}

	now := m.now()

	// The cooldown gate: a still-live challenge issued less than the
	// cooldown ago blocks reissue instead of being silently overwritten.
	if existing, err := m.challenges.Get(ctx, key); err == nil && now.Before(existing.ExpiresAt) {
		if elapsed := now.Sub(existing.IssuedAt); elapsed < cooldownFor(purpose) {
			return IssueResult{}, &RateLimitError{RetryAfter: cooldownFor(purpose) - elapsed}
		}
	} else if err != nil && !errors.Is(err, store.ErrChallengeNotFound) {
		return IssueResult{}, fmt.Errorf("challenge lookup failed: %w", err)
	}

	code, err := GenerateCode(CodeLength)
	if err != nil {
		return IssueResult{}, fmt.Errorf("code generation failed: %w", err)
	}

	expiry := expiryFor(purpose)
	challenge := models.Challenge{
		Identifier:  identifier,
		Purpose:     purpose,
		Code:        code,
		PrincipalID: user.ID,
		IssuedAt:    now,
		ExpiresAt:   now.Add(expiry),
	}

	if err := m.challenges.Put(ctx, key, challenge); err != nil {
		return IssueResult{}, fmt.Errorf("challenge store failed: %w", err)
	}

	err = m.notifier.SendOTP(ctx, notify.OTPMessage{
		Email:     user.Email,
		Username:  user.Username,
		Code:      code,
		Purpose:   purpose,
		ExpiresIn: expiry,
	})
	if err != nil {
		// Roll back: a code that was never delivered must not stay
		// verifiable.
		if delErr := m.challenges.Delete(ctx, key); delErr != nil {
			log.Err(delErr).Str("purpose", string(purpose)).Msg("challenge rollback failed after delivery error")
		}
		return IssueResult{}, fmt.Errorf("challenge delivery failed: %w", err)
	}

	return IssueResult{ExpiresAt: challenge.ExpiresAt}, nil
}

// Verify checks submittedCode against the live challenge for (identifier,
// purpose) and returns the associated principal ID on success. The
// challenge is single-use: success removes it, so a second verify with the
// same code reports store.ErrChallengeNotFound.
//
// The attempt counter is incremented and persisted before the comparison,
// so every submission counts; once the counter passes [MaxAttempts] the
// challenge is removed and ErrTooManyAttempts is returned even for the
// correct code.
func (m *Manager) Verify(ctx context.Context, identifier string, purpose models.ChallengePurpose, submittedCode string) (int64, error) {
	key := models.ChallengeKey(identifier, purpose)
	lock := m.keys.Lock(key)
	defer lock.Unlock()

	challenge, err := m.challenges.Get(ctx, key)
	if err != nil {
		if errors.Is(err, store.ErrChallengeNotFound) {
			return 0, store.ErrChallengeNotFound
		}
		return 0, fmt.Errorf("challenge lookup failed: %w", err)
	}

	if m.now().After(challenge.ExpiresAt) {
		if err := m.challenges.Delete(ctx, key); err != nil {
			return 0, fmt.Errorf("expired challenge cleanup failed: %w", err)
		}
		return 0, ErrChallengeExpired
	}

	challenge.Attempts++
	if challenge.Attempts > MaxAttempts {
		if err := m.challenges.Delete(ctx, key); err != nil {
			return 0, fmt.Errorf("exhausted challenge cleanup failed: %w", err)
		}
		return 0, ErrTooManyAttempts
	}

	if err := m.challenges.Put(ctx, key, challenge); err != nil {
		return 0, fmt.Errorf("attempt accounting failed: %w", err)
	}

	if challenge.Code != submittedCode {
		return 0, &MismatchError{Remaining: MaxAttempts - challenge.Attempts}
	}

	if err := m.challenges.Delete(ctx, key); err != nil {
		return 0, fmt.Errorf("consumed challenge cleanup failed: %w", err)
	}

	return challenge.PrincipalID, nil
}

// Resend re-runs Issue under the same cooldown rule. For an unknown or
// inactive identifier it returns a success-shaped zero result without
// touching the store or the notifier, so callers cannot probe for account
// existence.
func (m *Manager) Resend(ctx context.Context, identifier string, purpose models.ChallengePurpose) (IssueResult, error) {
	key := models.ChallengeKey(identifier, purpose)
	lock := m.keys.Lock(key)
	defer lock.Unlock()

	result, err := m.issueLocked(ctx, key, identifier, purpose)
	if errors.Is(err, ErrIdentityNotFound) || errors.Is(err, ErrIdentityInactive) {
		logger.FromContext(ctx).Info().Str("purpose", string(purpose)).Msg("resend for unresolvable identifier suppressed")
		return IssueResult{}, nil
	}

	return result, err
}
