// Package kv defines the key-value storage capability injected into
// client-side components, with in-memory and SQLite-backed implementations.
// The cache never reaches for a global store; it always receives one of
// these explicitly, which keeps identity isolation testable without real
// persistence.
package kv

import "context"

// Store is the minimal get/set/remove contract. Get returns
// common.ErrNotFound for a missing key.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
