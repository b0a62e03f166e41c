package keystore

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/same-say/same-say/internal/domain/interaction"
)

// ErrNoKeys is returned when verification is attempted without any
// configured public key.
var ErrNoKeys = errors.New("no public key configured")

// StaticKeyStore holds the application public keys that interaction
// signatures are checked against. More than one key is accepted while a
// key is being rotated.
type StaticKeyStore struct {
	keys []ed25519.PublicKey
}

// Parse builds a keystore from a comma separated list of hex encoded
// Ed25519 public keys. An empty string yields an empty keystore, which
// rejects every signature.
func Parse(raw string) (*StaticKeyStore, error) {
	ks := &StaticKeyStore{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		b, err := hex.DecodeString(part)
		if err != nil {
			return nil, fmt.Errorf("invalid public key: %w", err)
		}
		if len(b) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("invalid public key: want %d bytes, got %d", ed25519.PublicKeySize, len(b))
		}
		ks.keys = append(ks.keys, ed25519.PublicKey(b))
	}
	return ks, nil
}

// Configured reports whether any key is loaded.
func (s *StaticKeyStore) Configured() bool {
	return len(s.keys) > 0
}

// Verify checks the signature against every configured key.
func (s *StaticKeyStore) Verify(signature, timestamp string, body []byte) error {
	if len(s.keys) == 0 {
		return ErrNoKeys
	}
	for _, k := range s.keys {
		if interaction.VerifySignature(k, signature, timestamp, body) {
			return nil
		}
	}
	return interaction.ErrInvalidSignature
}
