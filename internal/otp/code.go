package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// CodeLength is the number of digits in a generated passcode.
const CodeLength = 6

var ten = big.NewInt(10)

// GenerateCode produces an n-digit numeric code. Every digit is drawn
// uniformly over 0–9 from the OS CSPRNG; modulo-reduction of a wider random
// value is deliberately avoided because it skews the distribution.
func GenerateCode(n int) (string, error) {
	digits := make([]byte, n)
	for i := range digits {
		v, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("generate code digit: %w", err)
		}
		digits[i] = '0' + byte(v.Int64())
	}
	return string(digits), nil
}
