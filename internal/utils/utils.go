package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashEmail creates a consistent hash for logging without exposing PII.
// Input is normalised so "Alice@Example.com " and "alice@example.com" match.
func HashEmail(email string) string {
	hash := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(hash[:])[:12]
}

// HashCode shortens a verification code or subject for log lines.
func HashCode(code string) string {
	hash := sha256.Sum256([]byte(code))
	return hex.EncodeToString(hash[:])[:8]
}
