package authsvc

import (
	"crypto/rand"
	"fmt"
)

// DefaultKeySize is the size in bytes of generated HMAC signing keys.
const DefaultKeySize = 32

// GenerateSigningKey creates a random HMAC signing key of the given size.
func GenerateSigningKey(size int) ([]byte, error) {
	key := make([]byte, size)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}

	return key, nil
}

// GetSigningKey returns the signing key derived from the configured secret.
// An empty secret yields a random key, which invalidates sessions on restart.
func GetSigningKey(secret string) (key []byte, generated bool, err error) {
	if secret != "" {
		return []byte(secret), false, nil
	}

	key, err = GenerateSigningKey(DefaultKeySize)
	if err != nil {
		return nil, false, err
	}

	return key, true, nil
}
