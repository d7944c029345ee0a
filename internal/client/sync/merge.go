package sync

import (
	"context"
	"fmt"

	"github.com/skylog-app/skylog/internal/common"
	"github.com/skylog-app/skylog/internal/event"
	"github.com/skylog-app/skylog/internal/identity"
)

// MergeState is the identity-merge conflict state machine:
// Idle → AwaitingMergeDecision → Idle. The only transitions out of
// AwaitingMergeDecision are ResolveMerge(DecisionMerge) and
// ResolveMerge(DecisionDiscard); the decision is irreversible.
type MergeState int

const (
	MergeIdle MergeState = iota
	AwaitingMergeDecision
)

// MergeDecision resolves an identity-merge conflict.
type MergeDecision int

const (
	// DecisionMerge adopts the imported identity and re-uploads the entire
	// local history under its log. The old identity's server log is untouched.
	DecisionMerge MergeDecision = iota
	// DecisionDiscard wipes all local state and pulls the imported
	// identity's log fresh.
	DecisionDiscard
)

// MergeStatus reports the current conflict state.
func (e *Engine) MergeStatus() MergeState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mergeState
}

// ImportIdentity restores an identity from an exported secret key. A parse
// failure aborts the import and leaves everything untouched. Importing a
// different identity while local unsynced events exist does not switch yet:
// it parks the candidate and returns decisionNeeded=true; the caller must
// settle it via ResolveMerge.
func (e *Engine) ImportIdentity(ctx context.Context, secretB64 string) (decisionNeeded bool, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.mergeState == AwaitingMergeDecision {
		return false, common.ErrMergeDecisionPending
	}

	imported, err := identity.RestoreBase64(secretB64)
	if err != nil {
		return false, fmt.Errorf("importing identity: %w", err)
	}

	if imported.Address() == e.id.Address() {
		// same identity, nothing to do
		return false, nil
	}

	pending, err := e.cache.PendingEvents(ctx, e.id.Address())
	if err != nil {
		return false, err
	}
	if len(pending) > 0 {
		e.candidate = imported
		e.mergeState = AwaitingMergeDecision
		e.log.Info(ctx, "identity import needs a merge decision",
			"pending", len(pending), "candidate", imported.Address())
		return true, nil
	}

	e.id = imported
	e.log.Info(ctx, "adopted imported identity", "address", imported.Address())
	return false, nil
}

// ResolveMerge settles a parked identity import. Merge queues the whole
// local history (confirmed and pending alike) for re-upload under the new
// identity and runs a full sync; Discard wipes local state and pulls fresh.
// Returns the decrypted log under the adopted identity.
func (e *Engine) ResolveMerge(ctx context.Context, decision MergeDecision) ([]Record, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.mergeState != AwaitingMergeDecision {
		return nil, common.ErrNoMergePending
	}

	oldAddr := e.id.Address()
	imported := e.candidate

	switch decision {
	case DecisionMerge:
		records, err := e.decryptCached(ctx)
		if err != nil {
			return nil, err
		}
		pending, err := e.cache.PendingEvents(ctx, oldAddr)
		if err != nil {
			return nil, err
		}

		history := make([]event.Event, 0, len(records)+len(pending))
		for _, r := range records {
			history = append(history, r.Event)
		}
		history = append(history, pending...)

		if err := e.cache.MarkAllPending(ctx, imported.Address(), history); err != nil {
			return nil, err
		}
		if err := e.cache.Clear(ctx, oldAddr); err != nil {
			return nil, err
		}
		if err := e.cache.ClearPending(ctx, oldAddr); err != nil {
			return nil, err
		}

		e.adopt(ctx, imported)
		// a failed sync here leaves the history pending under the new
		// identity; the decision itself is already committed
		return e.syncAll(ctx)

	case DecisionDiscard:
		if err := e.cache.Clear(ctx, oldAddr); err != nil {
			return nil, err
		}
		if err := e.cache.ClearPending(ctx, oldAddr); err != nil {
			return nil, err
		}

		e.adopt(ctx, imported)
		return e.pull(ctx)
	}

	return nil, fmt.Errorf("unknown merge decision: %d", decision)
}

func (e *Engine) adopt(ctx context.Context, imported *identity.Identity) {
	e.id = imported
	e.candidate = nil
	e.mergeState = MergeIdle
	e.log.Info(ctx, "adopted imported identity", "address", imported.Address())
}
