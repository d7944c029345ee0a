package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skylog-app/skylog/internal/common"
)

func TestGenerate(t *testing.T) {
	id, err := Generate()
	require.NoError(t, err)

	assert.Len(t, id.SigningPublic, SigningPublicKeySize)
	assert.Len(t, id.SigningSecret, SigningSecretKeySize)
	assert.Len(t, id.Address(), 2*SigningPublicKeySize)
	assert.NotEqual(t, [EncryptionKeySize]byte{}, id.EncryptionPublic)
	assert.NotEqual(t, [EncryptionKeySize]byte{}, id.EncryptionSecret)
}

func TestRestore_Deterministic(t *testing.T) {
	id, err := Generate()
	require.NoError(t, err)

	restored, err := Restore(id.SigningSecret)
	require.NoError(t, err)

	assert.Equal(t, id.SigningPublic, restored.SigningPublic)
	assert.Equal(t, id.EncryptionPublic, restored.EncryptionPublic)
	assert.Equal(t, id.EncryptionSecret, restored.EncryptionSecret)

	// deriving twice from the same secret yields identical keys
	again, err := Restore(id.SigningSecret)
	require.NoError(t, err)
	assert.Equal(t, restored.EncryptionPublic, again.EncryptionPublic)
	assert.Equal(t, restored.EncryptionSecret, again.EncryptionSecret)
}

func TestRestore_InvalidLength(t *testing.T) {
	_, err := Restore(make([]byte, 32))
	assert.ErrorIs(t, err, common.ErrInvalidKeyLength)

	_, err = Restore(nil)
	assert.ErrorIs(t, err, common.ErrInvalidKeyLength)
}

func TestRestoreBase64_RoundTrip(t *testing.T) {
	id, err := Generate()
	require.NoError(t, err)

	restored, err := RestoreBase64(id.ExportSecret())
	require.NoError(t, err)
	assert.Equal(t, id.Address(), restored.Address())
}

func TestRestoreBase64_Garbage(t *testing.T) {
	_, err := RestoreBase64("not base64 at all!!!")
	assert.ErrorIs(t, err, common.ErrInvalidKeyLength)
}

func TestEncryptionSecret_Clamped(t *testing.T) {
	id, err := Generate()
	require.NoError(t, err)

	sec := id.EncryptionSecret
	assert.EqualValues(t, 0, sec[0]&7)
	assert.EqualValues(t, 0, sec[31]&128)
	assert.EqualValues(t, 64, sec[31]&64)
}
