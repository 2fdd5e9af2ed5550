// Package crypto holds the symmetric file codec and the password hasher.
// Both are pure over byte buffers / strings so they can be invoked inline
// from request handling or from a worker without changing their contract.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// KeySize is the required symmetric key length: 256 bits.
const KeySize = 32

// ErrCrypto marks every decryption or integrity failure. Callers must be
// able to distinguish "exists but unreadable" from "never existed", so this
// error is never folded into a not-found result.
var ErrCrypto = errors.New("crypto failure")

// Codec encrypts and decrypts opaque byte payloads. Implementations are
// stateless after construction and safe for concurrent use.
type Codec interface {
	// Encrypt seals plaintext and returns the blob to persist: a fresh
	// random nonce followed by the ciphertext. Identical plaintexts
	// produce different blobs.
	Encrypt(plaintext []byte) ([]byte, error)

	// Decrypt splits the nonce off the blob and opens the ciphertext.
	// Any tampering, truncation, or wrong-key failure yields an error
	// matching ErrCrypto, never a silent wrong plaintext.
	Decrypt(blob []byte) ([]byte, error)
}

// aesGCMCodec implements Codec with AES-256-GCM. The 12-byte GCM nonce
// plays the role of the IV and is prepended to the ciphertext:
// blob = nonce ‖ ciphertext.
type aesGCMCodec struct {
	aead cipher.AEAD
}

// NewAESCodec builds a Codec from a 32-byte key. The key is read-only after
// construction and must never be logged or echoed.
func NewAESCodec(key []byte) (Codec, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", KeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}

	return &aesGCMCodec{aead: gcm}, nil
}

// KeyFromHex decodes a hex-encoded 256-bit key, the form the key takes in
// configuration.
func KeyFromHex(encoded string) ([]byte, error) {
	key, err := hex.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode encryption key: %w", err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", KeySize, len(key))
	}
	return key, nil
}

func (c *aesGCMCodec) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	// Prepend the nonce so Decrypt can split it out again.
	ciphertext := c.aead.Seal(nil, nonce, plaintext, nil)
	return append(nonce, ciphertext...), nil
}

func (c *aesGCMCodec) Decrypt(blob []byte) ([]byte, error) {
	nonceSize := c.aead.NonceSize()
	if len(blob) < nonceSize {
		return nil, fmt.Errorf("%w: blob shorter than nonce", ErrCrypto)
	}

	nonce, ciphertext := blob[:nonceSize], blob[nonceSize:]

	// An auth-tag mismatch here means a corrupt blob or a wrong key.
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCrypto, err)
	}

	return plaintext, nil
}
