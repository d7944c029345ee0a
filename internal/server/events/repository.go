// Package events implements the store's event log: opaque ciphertexts under
// (identity address, sequence), with the sequence assigned atomically at
// insert time.
package events

import (
	"context"
	"time"
)

// StoredEvent is one accepted ciphertext with its assigned sequence.
type StoredEvent struct {
	Seq        int64
	Ciphertext []byte
	CreatedAt  time.Time
}

// Repository persists per-identity event logs.
//
// Append must assign seq = current max + 1 for the address atomically, so
// concurrent appends under one identity serialize into distinct, gapless
// sequence numbers instead of conflicting.
type Repository interface {
	Append(ctx context.Context, addr string, ciphertext []byte) (StoredEvent, error)

	// List returns up to limit events with seq > after, ascending.
	List(ctx context.Context, addr string, after int64, limit int) ([]StoredEvent, error)

	// Head returns the event count and latest sequence for the address.
	Head(ctx context.Context, addr string) (count, latest int64, err error)
}
