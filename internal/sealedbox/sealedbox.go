// Package sealedbox implements anonymous-sender authenticated encryption:
// a fresh ephemeral keypair per message, a nonce derived from the two public
// keys, and a NaCl box underneath. The sender needs no identity of its own,
// which fits the only sender we have — the owning device encrypting for its
// future self.
package sealedbox

import (
	"crypto/rand"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/nacl/box"

	"github.com/skylog-app/skylog/internal/common"
)

const (
	ephemeralKeySize = 32
	nonceSize        = 24

	// Overhead is the fixed size added to every message: the ephemeral
	// public key plus the box MAC. Independent of message size.
	Overhead = ephemeralKeySize + box.Overhead
)

// Seal encrypts message for the recipient's encryption public key.
// Output layout: ephemeral public key ‖ authenticated ciphertext.
func Seal(message []byte, recipientPub *[32]byte) ([]byte, error) {
	epk, esk, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}

	nonce := sealNonce(epk, recipientPub)

	out := make([]byte, 0, len(message)+Overhead)
	out = append(out, epk[:]...)
	return box.Seal(out, message, &nonce, recipientPub, esk), nil
}

// Open decrypts a sealed message. Any failure — short input, wrong keys,
// tampered bytes — returns common.ErrDecryptFailed; callers treat it as
// "skip this record", never as fatal.
func Open(sealed []byte, recipientPub, recipientSec *[32]byte) ([]byte, error) {
	if len(sealed) < Overhead {
		return nil, common.ErrDecryptFailed
	}

	var epk [32]byte
	copy(epk[:], sealed[:ephemeralKeySize])

	nonce := sealNonce(&epk, recipientPub)

	message, ok := box.Open(nil, sealed[ephemeralKeySize:], &nonce, &epk, recipientSec)
	if !ok {
		return nil, common.ErrDecryptFailed
	}
	return message, nil
}

// sealNonce derives the box nonce as BLAKE2b-192 of (ephemeral ‖ recipient)
// public keys. Both sides can recompute it, so it never travels on the wire.
func sealNonce(epk, rpk *[32]byte) [nonceSize]byte {
	h, err := blake2b.New(nonceSize, nil)
	if err != nil {
		// only reachable with an invalid digest size, which is constant here
		panic(err)
	}
	h.Write(epk[:])
	h.Write(rpk[:])

	var nonce [nonceSize]byte
	copy(nonce[:], h.Sum(nil))
	return nonce
}
