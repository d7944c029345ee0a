package sealedbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skylog-app/skylog/internal/common"
	"github.com/skylog-app/skylog/internal/identity"
)

func TestSealOpen_RoundTrip(t *testing.T) {
	id, err := identity.Generate()
	require.NoError(t, err)

	for _, msg := range [][]byte{
		[]byte("hello"),
		{},
		make([]byte, 4096),
	} {
		sealed, err := Seal(msg, &id.EncryptionPublic)
		require.NoError(t, err)
		assert.Len(t, sealed, len(msg)+Overhead)

		opened, err := Open(sealed, &id.EncryptionPublic, &id.EncryptionSecret)
		require.NoError(t, err)
		assert.Equal(t, msg, opened)
	}
}

func TestOpen_WrongKeypair(t *testing.T) {
	alice, err := identity.Generate()
	require.NoError(t, err)
	bob, err := identity.Generate()
	require.NoError(t, err)

	sealed, err := Seal([]byte("secret"), &alice.EncryptionPublic)
	require.NoError(t, err)

	_, err = Open(sealed, &bob.EncryptionPublic, &bob.EncryptionSecret)
	assert.ErrorIs(t, err, common.ErrDecryptFailed)
}

func TestOpen_Truncated(t *testing.T) {
	id, err := identity.Generate()
	require.NoError(t, err)

	sealed, err := Seal([]byte("secret"), &id.EncryptionPublic)
	require.NoError(t, err)

	for _, n := range []int{0, 1, Overhead - 1} {
		_, err := Open(sealed[:n], &id.EncryptionPublic, &id.EncryptionSecret)
		assert.ErrorIs(t, err, common.ErrDecryptFailed, "len %d", n)
	}
}

func TestOpen_Tampered(t *testing.T) {
	id, err := identity.Generate()
	require.NoError(t, err)

	sealed, err := Seal([]byte("secret"), &id.EncryptionPublic)
	require.NoError(t, err)

	// flip one byte in the ciphertext region (past the ephemeral key)
	sealed[len(sealed)-1] ^= 0x01

	_, err = Open(sealed, &id.EncryptionPublic, &id.EncryptionSecret)
	assert.ErrorIs(t, err, common.ErrDecryptFailed)
}

func TestSeal_FreshEphemeralPerMessage(t *testing.T) {
	id, err := identity.Generate()
	require.NoError(t, err)

	a, err := Seal([]byte("x"), &id.EncryptionPublic)
	require.NoError(t, err)
	b, err := Seal([]byte("x"), &id.EncryptionPublic)
	require.NoError(t, err)

	assert.NotEqual(t, a[:32], b[:32])
}
