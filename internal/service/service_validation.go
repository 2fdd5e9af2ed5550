package service

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// validateEmail rejects anything that is not shaped like an address. The
// check is deliberately loose; deliverability is the notifier's problem.
func validateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return fmt.Errorf("%w: malformed email address", ErrValidation)
	}
	return nil
}

// validateUsername rejects empty and whitespace-padded usernames.
func validateUsername(username string) error {
	if username == "" || strings.TrimSpace(username) != username {
		return fmt.Errorf("%w: invalid username", ErrValidation)
	}
	return nil
}

// validatePassword enforces the minimum length for self-service passwords.
func validatePassword(plain string) error {
	if len(plain) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}
	return nil
}

// validateStrongPassword enforces the stricter policy for admin-provisioned
// accounts: minimum length plus at least one digit and one special
// character.
func validateStrongPassword(plain string) error {
	if err := validatePassword(plain); err != nil {
		return err
	}

	var hasDigit, hasSpecial bool
	for _, r := range plain {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case !unicode.IsLetter(r) && !unicode.IsSpace(r):
			hasSpecial = true
		}
	}
	if !hasDigit || !hasSpecial {
		return fmt.Errorf("%w: password must contain a digit and a special character", ErrValidation)
	}
	return nil
}
