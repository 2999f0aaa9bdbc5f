package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// NewCode generates a cryptographically random 128-character hex code
// (64 random bytes) for email verification and password reset links.
func NewCode() (string, error) {
	b := make([]byte, 64)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return hex.EncodeToString(b), nil
}
