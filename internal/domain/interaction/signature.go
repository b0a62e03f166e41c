package interaction

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
)

// ErrInvalidSignature means the signature headers are missing or do not
// match the body.
var ErrInvalidSignature = errors.New("invalid request signature")

// Header names carrying the request signature.
const (
	HeaderSignature = "X-Signature-Ed25519"
	HeaderTimestamp = "X-Signature-Timestamp"
)

// VerifySignature checks an Ed25519 signature over timestamp||body.
// body must be the raw request bytes as received.
func VerifySignature(publicKey ed25519.PublicKey, signature, timestamp string, body []byte) bool {
	if len(publicKey) != ed25519.PublicKeySize || signature == "" || timestamp == "" {
		return false
	}
	sig, err := hex.DecodeString(signature)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return false
	}
	msg := make([]byte, 0, len(timestamp)+len(body))
	msg = append(msg, timestamp...)
	msg = append(msg, body...)
	return ed25519.Verify(publicKey, msg, sig)
}
