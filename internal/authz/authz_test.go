package authz

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skylog-app/skylog/internal/common"
	"github.com/skylog-app/skylog/internal/identity"
)

func TestSignVerify(t *testing.T) {
	id, err := identity.Generate()
	require.NoError(t, err)

	sig := SignForAppend(id, "Y2lwaGVydGV4dA==")
	assert.True(t, VerifyAppend(id.Address(), "Y2lwaGVydGV4dA==", sig))
}

func TestVerify_SignatureBinding(t *testing.T) {
	a, err := identity.Generate()
	require.NoError(t, err)
	b, err := identity.Generate()
	require.NoError(t, err)

	sig := SignForAppend(a, "Y2lwaGVyWA==")

	// different ciphertext
	assert.False(t, VerifyAppend(a.Address(), "Y2lwaGVyWQ==", sig))
	// different identity
	assert.False(t, VerifyAppend(b.Address(), "Y2lwaGVyWA==", sig))
	// wrong-size signature
	assert.False(t, VerifyAppend(a.Address(), "Y2lwaGVyWA==", sig[:32]))
}

func TestDecodeAddress(t *testing.T) {
	id, err := identity.Generate()
	require.NoError(t, err)

	pub, err := DecodeAddress(id.Address())
	require.NoError(t, err)
	assert.EqualValues(t, id.SigningPublic, pub)

	tests := []struct {
		name string
		addr string
	}{
		{"too short", "abcd"},
		{"uppercase hex", strings.ToUpper(id.Address())},
		{"non-hex chars", strings.Repeat("zz", 32)},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeAddress(tt.addr)
			assert.ErrorIs(t, err, common.ErrInvalidPublicKey)
		})
	}
}
