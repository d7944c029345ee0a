package events

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/skylog-app/skylog/internal/authz"
	"github.com/skylog-app/skylog/internal/common"
	"github.com/skylog-app/skylog/internal/logging"
)

const (
	// MaxCiphertextBytes caps one event's decoded ciphertext.
	MaxCiphertextBytes = 10 * 1024

	// DefaultPageLimit applies when a read specifies no limit.
	DefaultPageLimit = 1000
	// MaxPageLimit is the hard per-page cap.
	MaxPageLimit = 5000
)

// Service validates and authorizes store operations before touching the
// repository. Addresses are checked before any storage access; append
// signatures are verified with the exact message construction clients sign.
type Service struct {
	repo Repository
	log  logging.Logger
}

func NewService(repo Repository, log logging.Logger) *Service {
	return &Service{repo: repo, log: log.With("module", "events")}
}

// Append verifies the address, signature and size cap, then stores the
// ciphertext with an atomically assigned sequence.
func (s *Service) Append(ctx context.Context, addr, ciphertextB64, sigB64 string) (StoredEvent, error) {
	if _, err := authz.DecodeAddress(addr); err != nil {
		return StoredEvent{}, err
	}

	sig, err := base64.StdEncoding.DecodeString(sigB64)
	if err != nil {
		return StoredEvent{}, fmt.Errorf("%w: signature not base64", common.ErrInvalidSignature)
	}
	if !authz.VerifyAppend(addr, ciphertextB64, sig) {
		return StoredEvent{}, common.ErrInvalidSignature
	}

	ciphertext, err := base64.StdEncoding.DecodeString(ciphertextB64)
	if err != nil {
		return StoredEvent{}, fmt.Errorf("%w: ciphertext not base64", common.ErrBadRequest)
	}
	if len(ciphertext) == 0 {
		return StoredEvent{}, fmt.Errorf("%w: empty ciphertext", common.ErrBadRequest)
	}
	if len(ciphertext) > MaxCiphertextBytes {
		return StoredEvent{}, common.ErrPayloadTooLarge
	}

	ev, err := s.repo.Append(ctx, addr, ciphertext)
	if err != nil {
		return StoredEvent{}, err
	}
	s.log.Debug(ctx, "event appended", "address", addr, "seq", ev.Seq)
	return ev, nil
}

// List returns events with seq > after plus a has-more flag. The limit is
// clamped to [1, MaxPageLimit], defaulting to DefaultPageLimit.
func (s *Service) List(ctx context.Context, addr string, after int64, limit int) ([]StoredEvent, bool, error) {
	if _, err := authz.DecodeAddress(addr); err != nil {
		return nil, false, err
	}

	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	// one extra row tells us whether another page exists
	result, err := s.repo.List(ctx, addr, after, limit+1)
	if err != nil {
		return nil, false, err
	}

	hasMore := len(result) > limit
	if hasMore {
		result = result[:limit]
	}
	return result, hasMore, nil
}

// Head returns count and latest sequence without transferring ciphertext.
func (s *Service) Head(ctx context.Context, addr string) (count, latest int64, err error) {
	if _, err := authz.DecodeAddress(addr); err != nil {
		return 0, 0, err
	}
	return s.repo.Head(ctx, addr)
}
