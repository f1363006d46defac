package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// SessionTokenSize is the entropy of an X-Auth-Token in bytes (256 bits).
const SessionTokenSize = 32

// GenerateToken returns size random bytes as unpadded base64url.
func GenerateToken(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("token size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// FingerprintToken returns the base64url SHA-256 of token (43 chars). Only
// fingerprints are persisted; the token itself is handed to the client once.
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// NewSessionToken returns a fresh session token and its fingerprint.
func NewSessionToken() (token, fingerprint string, err error) {
	token, err = GenerateToken(SessionTokenSize)
	if err != nil {
		return "", "", err
	}
	return token, FingerprintToken(token), nil
}
