package kv

import (
	"errors"
	"fmt"
	"regexp"
)

const (
	MaxKeyLength = 256
	MaxValueSize = 10 * 1024 * 1024
)

var (
	ErrInvalidKey   = errors.New("invalid key")
	ErrInvalidValue = errors.New("invalid value")
)

// Colons are allowed so callers can address namespaced keys such as
// "protect:<id>:red_team". User input can therefore reach any namespace.
var keyPattern = regexp.MustCompile(`^[a-zA-Z0-9_:-]+$`)

// ValidateKey checks a caller-supplied key.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: key must be a non-empty string", ErrInvalidKey)
	}
	if len(key) > MaxKeyLength {
		return fmt.Errorf("%w: key must not exceed %d characters", ErrInvalidKey, MaxKeyLength)
	}
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("%w: key contains invalid characters; only alphanumeric, hyphen, underscore, and colon are allowed", ErrInvalidKey)
	}
	return nil
}

// ValidateValue checks a caller-supplied value.
func ValidateValue(value string) error {
	if len(value) > MaxValueSize {
		return fmt.Errorf("%w: value size exceeds maximum allowed size of %d bytes", ErrInvalidValue, MaxValueSize)
	}
	return nil
}
