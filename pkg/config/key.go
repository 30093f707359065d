package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const pbkdf2Iterations = 600_000

// Key resolves the 32-byte field-encryption key. A hex-encoded key takes
// precedence; otherwise the key is derived from the passphrase and salt.
func (e EncryptionConfig) Key() ([]byte, error) {
	if e.KeyHex != "" {
		key, err := hex.DecodeString(e.KeyHex)
		if err != nil {
			return nil, fmt.Errorf("ENCRYPTION_KEY is not valid hex: %w", err)
		}
		return key, nil
	}

	if e.Salt == "" {
		return nil, fmt.Errorf("ENCRYPTION_SALT is required with ENCRYPTION_PASSPHRASE")
	}
	return pbkdf2.Key([]byte(e.Passphrase), []byte(e.Salt), pbkdf2Iterations, 32, sha256.New), nil
}
