package interaction

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(priv ed25519.PrivateKey, timestamp string, body []byte) string {
	return hex.EncodeToString(ed25519.Sign(priv, append([]byte(timestamp), body...)))
}

func TestVerifySignature(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	body := []byte(`{"type":1}`)
	ts := "1700000000"
	sig := sign(priv, ts, body)

	assert.True(t, VerifySignature(pub, sig, ts, body))
	assert.False(t, VerifySignature(pub, sig, "1700000001", body))
	assert.False(t, VerifySignature(pub, "", ts, body))
	assert.False(t, VerifySignature(pub, sig, "", body))
	assert.False(t, VerifySignature(nil, sig, ts, body))
	assert.False(t, VerifySignature(pub, "not-hex", ts, body))
	assert.False(t, VerifySignature(pub, sig[:10], ts, body))
}

func TestVerifySignatureRejectsBitFlips(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	body := []byte(`{"type":2,"data":{"name":"lol-echo"}}`)
	ts := "1700000000"
	rawSig := ed25519.Sign(priv, append([]byte(ts), body...))

	for i := 0; i < len(body)*8; i++ {
		mutated := append([]byte(nil), body...)
		mutated[i/8] ^= 1 << (i % 8)
		if VerifySignature(pub, hex.EncodeToString(rawSig), ts, mutated) {
			t.Fatalf("body bit %d flip still verified", i)
		}
	}
	for i := 0; i < len(rawSig)*8; i++ {
		mutated := append([]byte(nil), rawSig...)
		mutated[i/8] ^= 1 << (i % 8)
		if VerifySignature(pub, hex.EncodeToString(mutated), ts, body) {
			t.Fatalf("signature bit %d flip still verified", i)
		}
	}
}
