package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"
)

// DefaultTTL is how long an idle session stays valid.
const DefaultTTL = 7 * 24 * time.Hour

var (
	ErrInvalidToken = errors.New("invalid or expired session")
	ErrNotFound     = errors.New("session not found")
)

// Session is the persisted state of an admin session.
type Session struct {
	CreatedAt      time.Time `json:"created_at"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
}

// Key returns the store key for a session token.
func Key(token string) string {
	return "session:" + token
}

// GenerateToken returns 32 random bytes hex encoded.
func GenerateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
