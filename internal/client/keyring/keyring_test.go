package keyring

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skylog-app/skylog/internal/common"
	"github.com/skylog-app/skylog/internal/kv"
)

func TestLoad_Empty(t *testing.T) {
	_, err := Load(context.Background(), kv.NewMemoryStore())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestLoadOrGenerate_Persists(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()

	first, err := LoadOrGenerate(ctx, store)
	require.NoError(t, err)

	second, err := LoadOrGenerate(ctx, store)
	require.NoError(t, err)

	assert.Equal(t, first.Address(), second.Address())
	assert.Equal(t, first.EncryptionSecret, second.EncryptionSecret)
}
