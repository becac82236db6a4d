package keys

import (
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"
)

// PublicKey is a base58-renderable ed25519 public key identifying a depositor,
// the administrator, or a deployed external program.
type PublicKey ed25519.PublicKey

// Parse decodes a base58 string into a public key.
func Parse(s string) (PublicKey, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("decode public key: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("public key must be %d bytes, got %d", ed25519.PublicKeySize, len(raw))
	}
	return PublicKey(raw), nil
}

// String renders the key in base58.
func (k PublicKey) String() string {
	return base58.Encode(k)
}

// Equal reports whether two keys are the same.
func (k PublicKey) Equal(other PublicKey) bool {
	return ed25519.PublicKey(k).Equal(ed25519.PublicKey(other))
}

// Verify checks an ed25519 signature made by the holder of this key.
func (k PublicKey) Verify(message, sig []byte) bool {
	if len(k) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(k), message, sig)
}
