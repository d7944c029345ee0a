// Package identity implements the addressing and authorization unit of
// skylog: an ed25519 signing keypair plus the curve25519 encryption keypair
// derived from it.
//
// The encryption keys are a pure function of the signing secret key, so an
// identity restored from its exported secret always re-derives the same
// encryption keys. The conversion is only ever applied to our own secret
// key; there is deliberately no signing-public → encryption-public
// conversion, because every sealed box targets the identity's own derived
// public key.
package identity

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/curve25519"

	"github.com/skylog-app/skylog/internal/common"
)

const (
	// SigningPublicKeySize is the size of the ed25519 public key.
	SigningPublicKeySize = ed25519.PublicKeySize
	// SigningSecretKeySize is the size of the ed25519 secret key (seed ‖ public key).
	SigningSecretKeySize = ed25519.PrivateKeySize
	// EncryptionKeySize is the size of the derived curve25519 keys.
	EncryptionKeySize = 32
)

// Identity holds a signing keypair and its derived encryption keypair.
// The hex-encoded signing public key is the identity's address on the store.
type Identity struct {
	SigningPublic ed25519.PublicKey
	SigningSecret ed25519.PrivateKey

	EncryptionPublic [EncryptionKeySize]byte
	EncryptionSecret [EncryptionKeySize]byte
}

// Generate produces a fresh identity from the system's CSPRNG.
func Generate() (*Identity, error) {
	pub, sec, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating signing key: %w", err)
	}
	return fromSigningKey(pub, sec)
}

// Restore reconstructs an identity from a 64-byte signing secret key, the
// sole backup/transfer artifact. Encryption keys are re-derived identically
// to Generate.
func Restore(secret []byte) (*Identity, error) {
	if len(secret) != SigningSecretKeySize {
		return nil, common.ErrInvalidKeyLength
	}
	sec := ed25519.PrivateKey(bytes.Clone(secret))
	pub, ok := sec.Public().(ed25519.PublicKey)
	if !ok {
		return nil, common.ErrInvalidKeyLength
	}
	return fromSigningKey(pub, sec)
}

// RestoreBase64 decodes an exported secret key (see ExportSecret) and
// restores the identity from it.
func RestoreBase64(s string) (*Identity, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidKeyLength, err)
	}
	return Restore(raw)
}

func fromSigningKey(pub ed25519.PublicKey, sec ed25519.PrivateKey) (*Identity, error) {
	id := &Identity{SigningPublic: pub, SigningSecret: sec}
	id.EncryptionSecret = deriveEncryptionSecret(sec)

	encPub, err := curve25519.X25519(id.EncryptionSecret[:], curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("deriving encryption public key: %w", err)
	}
	copy(id.EncryptionPublic[:], encPub)
	return id, nil
}

// deriveEncryptionSecret converts the ed25519 seed into a curve25519 scalar:
// SHA-512 of the seed, clamped (low 3 bits of byte 0 cleared, high bit of
// byte 31 cleared, second-highest set), truncated to 32 bytes.
func deriveEncryptionSecret(sec ed25519.PrivateKey) [EncryptionKeySize]byte {
	h := sha512.Sum512(sec.Seed())
	h[0] &= 248
	h[31] &= 127
	h[31] |= 64

	var out [EncryptionKeySize]byte
	copy(out[:], h[:EncryptionKeySize])
	return out
}

// Address returns the lowercase-hex signing public key, the identity's
// address on the store.
func (id *Identity) Address() string {
	return hex.EncodeToString(id.SigningPublic)
}

// ExportSecret returns the base64-encoded signing secret key. Anyone holding
// this string has full read/write control of the identity's log.
func (id *Identity) ExportSecret() string {
	return base64.StdEncoding.EncodeToString(id.SigningSecret)
}
