// Package internal holds helpers shared across authkit packages that are
// not part of the public API.
package internal

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const stateTokenBytes = 32

// NewStateToken returns a URL-safe random token for OAuth state binding.
func NewStateToken() (string, error) {
	buf := make([]byte, stateTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("state token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
