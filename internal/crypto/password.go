package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

// PasswordHasher produces and verifies password hashes. It is injected as a
// collaborator so services never see a plaintext persistence path and unit
// tests can substitute a cheap implementation.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, encoded string) (bool, error)
}

// argon2idHasher hashes passwords with Argon2id using the OWASP (2024)
// recommended parameters: 1 iteration, 64 MiB memory, 4 threads, 32-byte key.
type argon2idHasher struct {
	time    uint32
	memory  uint32
	threads uint8
	keyLen  uint32
	saltLen int
}

// NewArgon2Hasher constructs the production PasswordHasher.
func NewArgon2Hasher() PasswordHasher {
	return &argon2idHasher{
		time:    1,
		memory:  64 * 1024, // 64 MiB
		threads: 4,
		keyLen:  32,
		saltLen: 16,
	}
}

// Hash derives an Argon2id digest over plain with a fresh random salt and
// encodes salt, parameters and digest into a single storable string:
//
//	argon2id$v1$t=1,m=65536,p=4$<b64 salt>$<b64 digest>
func (h *argon2idHasher) Hash(plain string) (string, error) {
	salt := make([]byte, h.saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	digest := argon2.IDKey([]byte(plain), salt, h.time, h.memory, h.threads, h.keyLen)

	return fmt.Sprintf("argon2id$v1$t=%d,m=%d,p=%d$%s$%s",
		h.time, h.memory, h.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(digest),
	), nil
}

// Verify re-derives the digest from plain using the salt and parameters
// embedded in encoded and compares in constant time.
func (h *argon2idHasher) Verify(plain, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 5 || parts[0] != "argon2id" || parts[1] != "v1" {
		return false, errors.New("malformed password hash")
	}

	var t, m uint32
	var p uint8
	if _, err := fmt.Sscanf(parts[2], "t=%d,m=%d,p=%d", &t, &m, &p); err != nil {
		return false, fmt.Errorf("malformed password hash parameters: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil {
		return false, fmt.Errorf("decode salt: %w", err)
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("decode digest: %w", err)
	}

	got := argon2.IDKey([]byte(plain), salt, t, m, p, uint32(len(want)))

	return subtle.ConstantTimeCompare(got, want) == 1, nil
}
