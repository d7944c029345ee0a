// Package keyring persists the device's identity secret in the injected
// key-value store. The secret key is the whole identity: losing it loses
// the log, leaking it leaks read/write control.
package keyring

import (
	"context"
	"errors"

	"github.com/skylog-app/skylog/internal/common"
	"github.com/skylog-app/skylog/internal/identity"
	"github.com/skylog-app/skylog/internal/kv"
)

const secretKey = "identity:secret"

// Load restores the stored identity, or returns common.ErrNotFound when no
// identity has been saved yet.
func Load(ctx context.Context, store kv.Store) (*identity.Identity, error) {
	raw, err := store.Get(ctx, secretKey)
	if err != nil {
		return nil, err
	}
	return identity.Restore(raw)
}

// LoadOrGenerate restores the stored identity, generating and saving a
// fresh one on first use.
func LoadOrGenerate(ctx context.Context, store kv.Store) (*identity.Identity, error) {
	id, err := Load(ctx, store)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	id, err = identity.Generate()
	if err != nil {
		return nil, err
	}
	if err := Save(ctx, store, id); err != nil {
		return nil, err
	}
	return id, nil
}

// Save stores the identity's signing secret key.
func Save(ctx context.Context, store kv.Store, id *identity.Identity) error {
	return store.Set(ctx, secretKey, id.SigningSecret)
}
