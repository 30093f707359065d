// Package envelope provides per-field authenticated encryption for
// sensitive ledger values. Every encrypted field is a self-contained
// base64 blob laid out as iv(16) || tag(16) || ciphertext, so a stored
// value needs no external metadata to decrypt. The layout is frozen:
// changing it would orphan every ciphertext already at rest.
package envelope

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
)

const (
	ivSize  = 16
	tagSize = 16
	keySize = 32
)

var (
	// ErrInvalidKeyLength is returned when the decoded key is not exactly 32 bytes.
	ErrInvalidKeyLength = errors.New("envelope: encryption key must be 32 bytes")
	// ErrKeyNotInitialized is returned by any operation on a nil cipher.
	ErrKeyNotInitialized = errors.New("envelope: encryption key not initialized")
	// ErrDecryptionFailed is returned when authentication fails: tampered
	// ciphertext, the wrong key, or input that is not an envelope at all.
	ErrDecryptionFailed = errors.New("envelope: decryption failed")
)

// Cipher encrypts and decrypts individual field values with AES-256-GCM.
// The zero value is unusable; construct with NewCipher. A Cipher is
// read-only after construction and safe for concurrent use.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher builds a Cipher from a hex-encoded 256-bit key.
func NewCipher(keyHex string) (*Cipher, error) {
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyLength, err)
	}
	return NewCipherFromKey(key)
}

// NewCipherFromKey builds a Cipher from a raw 32-byte key.
func NewCipherFromKey(key []byte) (*Cipher, error) {
	if len(key) != keySize {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidKeyLength, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCMWithNonceSize(block, ivSize)
	if err != nil {
		return nil, err
	}
	return &Cipher{aead: aead}, nil
}

// EncryptString encrypts a plaintext field value. A fresh random IV is drawn
// per call, so encrypting the same value twice yields different blobs.
func (c *Cipher) EncryptString(plaintext string) (string, error) {
	if c == nil || c.aead == nil {
		return "", ErrKeyNotInitialized
	}

	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", fmt.Errorf("envelope: iv: %w", err)
	}

	// Seal appends the tag after the payload; the stored layout wants the
	// tag between the IV and the payload.
	sealed := c.aead.Seal(nil, iv, []byte(plaintext), nil)
	payload := sealed[:len(sealed)-tagSize]
	tag := sealed[len(sealed)-tagSize:]

	blob := make([]byte, 0, ivSize+tagSize+len(payload))
	blob = append(blob, iv...)
	blob = append(blob, tag...)
	blob = append(blob, payload...)

	return base64.StdEncoding.EncodeToString(blob), nil
}

// DecryptString reverses EncryptString. It fails closed: any tampering,
// wrong key, or non-envelope input yields ErrDecryptionFailed.
func (c *Cipher) DecryptString(ciphertext string) (string, error) {
	if c == nil || c.aead == nil {
		return "", ErrKeyNotInitialized
	}

	blob, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	if len(blob) < ivSize+tagSize {
		return "", ErrDecryptionFailed
	}

	iv := blob[:ivSize]
	tag := blob[ivSize : ivSize+tagSize]
	payload := blob[ivSize+tagSize:]

	sealed := make([]byte, 0, len(payload)+tagSize)
	sealed = append(sealed, payload...)
	sealed = append(sealed, tag...)

	plaintext, err := c.aead.Open(nil, iv, sealed, nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plaintext), nil
}

// EncryptAmount encrypts a monetary amount as its canonical decimal string.
func (c *Cipher) EncryptAmount(amount decimal.Decimal) (string, error) {
	return c.EncryptString(amount.String())
}

// DecryptAmount decrypts and parses a value produced by EncryptAmount.
func (c *Cipher) DecryptAmount(ciphertext string) (decimal.Decimal, error) {
	plaintext, err := c.DecryptString(ciphertext)
	if err != nil {
		return decimal.Decimal{}, err
	}
	amount, err := decimal.NewFromString(plaintext)
	if err != nil {
		return decimal.Decimal{}, ErrDecryptionFailed
	}
	return amount, nil
}

// EncryptOptional encrypts an optional field. Absent values stay absent;
// no envelope is ever produced for nil.
func (c *Cipher) EncryptOptional(plaintext *string) (*string, error) {
	if plaintext == nil {
		return nil, nil
	}
	out, err := c.EncryptString(*plaintext)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DecryptOptional reverses EncryptOptional.
func (c *Cipher) DecryptOptional(ciphertext *string) (*string, error) {
	if ciphertext == nil {
		return nil, nil
	}
	out, err := c.DecryptString(*ciphertext)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// IsEnvelope reports whether the value decrypts under this cipher. Used by
// the backfill tool to tell stored plaintext from ciphertext; decryption
// failure is the signal, there is no marker byte in the layout.
func (c *Cipher) IsEnvelope(value string) bool {
	_, err := c.DecryptString(value)
	return err == nil
}
