package authsvc

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// resetTokenBytes is the entropy of a password reset token.
const resetTokenBytes = 32

// generateResetToken returns a random URL-safe token (43 characters).
func generateResetToken() (string, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}
