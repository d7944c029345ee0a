// Package common defines shared sentinel errors used across client and
// server layers of skylog. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Key / format errors, rejected before any crypto or network work.
	ErrInvalidKeyLength = errors.New("invalid key length")
	ErrInvalidPublicKey = errors.New("invalid public key")

	// ErrDecryptFailed signals a sealed box that could not be opened or
	// authenticated. Callers skip the record, they never abort on it.
	ErrDecryptFailed = errors.New("decrypt failed")

	// Authorization errors.
	ErrInvalidSignature = errors.New("invalid signature")

	// Event validation errors.
	ErrInvalidEvent     = errors.New("invalid event")
	ErrUnknownEventType = errors.New("unknown event type")
	ErrPayloadTooLarge  = errors.New("payload too large")

	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Transient transport errors; pending state stays intact for retry.
	ErrUnavailable = errors.New("store unavailable")
	ErrBadRequest  = errors.New("bad request")

	// Identity-merge state machine errors.
	ErrMergeDecisionPending = errors.New("merge decision pending")
	ErrNoMergePending       = errors.New("no merge pending")
)
