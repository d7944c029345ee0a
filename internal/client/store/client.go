// Package store defines the blob-store surface the sync engine consumes:
// append one signed ciphertext, read pages of events after a sequence, and
// probe head metadata. The server holds only what these types carry —
// opaque ciphertext under (identity, seq).
package store

import "context"

// Event is the store's envelope around one encrypted record. Seq is the
// per-identity, gapless, store-assigned sequence; Ciphertext is base64.
type Event struct {
	Seq        int64  `json:"seq"`
	Ciphertext string `json:"ciphertext"`
	CreatedAt  int64  `json:"created_at"`
}

// Page is one read response.
type Page struct {
	Events  []Event `json:"events"`
	HasMore bool    `json:"has_more"`
}

// Head is the lightweight metadata probe result, used to short-circuit
// pulls when nothing changed.
type Head struct {
	Count     int64 `json:"count"`
	LatestSeq int64 `json:"latest_seq"`
}

// Client is the network interface to the store.
type Client interface {
	// Append uploads one ciphertext under the identity's address, with a
	// detached signature over "{pubHex}:{ciphertextB64}". The store assigns
	// the sequence and returns the stored envelope.
	Append(ctx context.Context, pubHex, ciphertextB64 string, sig []byte) (Event, error)

	// Read returns events with seq > after in ascending order, page-capped.
	// limit <= 0 requests the server default.
	Read(ctx context.Context, pubHex string, after int64, limit int) (Page, error)

	// Head returns event count and latest sequence without ciphertext.
	Head(ctx context.Context, pubHex string) (Head, error)
}
