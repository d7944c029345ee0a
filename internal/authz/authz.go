// Package authz implements write authorization for the store: a detached
// ed25519 signature binding an identity to one exact ciphertext. The store
// verifies the same message construction before accepting an append.
package authz

import (
	"crypto/ed25519"
	"encoding/hex"

	"github.com/skylog-app/skylog/internal/common"
	"github.com/skylog-app/skylog/internal/identity"
)

// AddressHexLen is the length of an identity address: 32 bytes of signing
// public key, lowercase hex.
const AddressHexLen = 2 * identity.SigningPublicKeySize

// AppendMessage returns the exact bytes bound by an append signature:
// UTF-8 "{publicKeyHexLower}:{ciphertextBase64}".
func AppendMessage(pubHex, ciphertextB64 string) []byte {
	return []byte(pubHex + ":" + ciphertextB64)
}

// SignForAppend signs the append message for one ciphertext with the
// identity's signing secret key. The sequence number is deliberately not
// part of the message; the store assigns it atomically at insert time.
func SignForAppend(id *identity.Identity, ciphertextB64 string) []byte {
	return ed25519.Sign(id.SigningSecret, AppendMessage(id.Address(), ciphertextB64))
}

// VerifyAppend checks an append signature against the claimed address and
// ciphertext. Malformed addresses and wrong-size signatures fail without
// any curve arithmetic.
func VerifyAppend(pubHex, ciphertextB64 string, sig []byte) bool {
	pub, err := DecodeAddress(pubHex)
	if err != nil {
		return false
	}
	if len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(pub, AppendMessage(pubHex, ciphertextB64), sig)
}

// DecodeAddress validates the fixed-length lowercase-hex address form and
// returns the signing public key it encodes.
func DecodeAddress(s string) (ed25519.PublicKey, error) {
	if len(s) != AddressHexLen {
		return nil, common.ErrInvalidPublicKey
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return nil, common.ErrInvalidPublicKey
		}
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, common.ErrInvalidPublicKey
	}
	return ed25519.PublicKey(raw), nil
}
