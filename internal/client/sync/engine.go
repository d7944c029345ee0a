// Package sync reconciles the local cache against the store's per-identity
// sequence: push (seal → sign → upload → cache) and pull (probe → paginate →
// cache → open), plus the identity-merge conflict flow.
package sync

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/skylog-app/skylog/internal/authz"
	"github.com/skylog-app/skylog/internal/client/cache"
	"github.com/skylog-app/skylog/internal/client/store"
	"github.com/skylog-app/skylog/internal/event"
	"github.com/skylog-app/skylog/internal/identity"
	"github.com/skylog-app/skylog/internal/logging"
	"github.com/skylog-app/skylog/internal/sealedbox"
)

// DefaultPageLimit bounds one pull page. The store may cap it lower.
const DefaultPageLimit = 1000

// Record pairs a decrypted event with its server-assigned sequence.
type Record struct {
	Seq   int64
	Event event.Event
}

// Engine drives push and pull for one identity. All operations serialize on
// an internal mutex: the cache and the fold are single-timeline by design,
// and cross-device concurrency is resolved by the store's atomic sequence
// assignment instead of client-side locking.
type Engine struct {
	mu        sync.Mutex
	id        *identity.Identity
	store     store.Client
	cache     *cache.Cache
	log       logging.Logger
	pageLimit int

	mergeState MergeState
	candidate  *identity.Identity
}

func New(id *identity.Identity, sc store.Client, c *cache.Cache, log logging.Logger) *Engine {
	return &Engine{
		id:        id,
		store:     sc,
		cache:     c,
		log:       log.With("module", "sync"),
		pageLimit: DefaultPageLimit,
	}
}

// Identity returns the engine's current identity. It changes only through
// the merge flow.
func (e *Engine) Identity() *identity.Identity {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.id
}

// Pull brings the cache up to the store's latest sequence and returns the
// decrypted log. When the store has nothing new, no pages are fetched and
// the cached log is returned as-is.
func (e *Engine) Pull(ctx context.Context) ([]Record, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pull(ctx)
}

func (e *Engine) pull(ctx context.Context) ([]Record, error) {
	addr := e.id.Address()

	lastSeq, err := e.cache.LastSeq(ctx, addr)
	if err != nil {
		return nil, err
	}

	head, err := e.store.Head(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("probing store head: %w", err)
	}

	if head.LatestSeq > lastSeq {
		after := lastSeq
		for {
			page, err := e.store.Read(ctx, addr, after, e.pageLimit)
			if err != nil {
				return nil, fmt.Errorf("reading events after %d: %w", after, err)
			}
			if len(page.Events) == 0 {
				break
			}
			if err := e.cache.AppendEvents(ctx, addr, page.Events); err != nil {
				return nil, err
			}
			after = page.Events[len(page.Events)-1].Seq
			if !page.HasMore {
				break
			}
		}
	}

	return e.decryptCached(ctx)
}

// decryptCached opens every cached ciphertext with the current identity.
// Entries that fail to decrypt or to parse as a valid event are logged and
// skipped; they may be another identity's ciphertext or corrupted, and must
// never block the rest of the timeline.
func (e *Engine) decryptCached(ctx context.Context) ([]Record, error) {
	cached, err := e.cache.Events(ctx, e.id.Address())
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(cached))
	for _, se := range cached {
		raw, err := base64.StdEncoding.DecodeString(se.Ciphertext)
		if err != nil {
			e.log.Warn(ctx, "skipping event with malformed ciphertext", "seq", se.Seq, "err", err)
			continue
		}
		plain, err := sealedbox.Open(raw, &e.id.EncryptionPublic, &e.id.EncryptionSecret)
		if err != nil {
			e.log.Warn(ctx, "skipping undecryptable event", "seq", se.Seq)
			continue
		}
		ev, err := event.Unmarshal(plain)
		if err != nil {
			e.log.Warn(ctx, "skipping unparseable event", "seq", se.Seq, "err", err)
			continue
		}
		records = append(records, Record{Seq: se.Seq, Event: ev})
	}
	return records, nil
}

// LocalEvents returns the device's full offline view: the decrypted cached
// log in sequence order followed by pending events in authoring order. No
// network calls are made.
func (e *Engine) LocalEvents(ctx context.Context) ([]event.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	records, err := e.decryptCached(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := e.cache.PendingEvents(ctx, e.id.Address())
	if err != nil {
		return nil, err
	}

	events := make([]event.Event, 0, len(records)+len(pending))
	for _, r := range records {
		events = append(events, r.Event)
	}
	return append(events, pending...), nil
}

// Push seals, signs and uploads one event, then caches it under its
// server-assigned sequence.
func (e *Engine) Push(ctx context.Context, ev event.Event) (Record, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.push(ctx, ev)
}

func (e *Engine) push(ctx context.Context, ev event.Event) (Record, error) {
	plain, err := event.Marshal(ev)
	if err != nil {
		return Record{}, err
	}

	sealed, err := sealedbox.Seal(plain, &e.id.EncryptionPublic)
	if err != nil {
		return Record{}, fmt.Errorf("sealing event: %w", err)
	}
	ciphertextB64 := base64.StdEncoding.EncodeToString(sealed)
	sig := authz.SignForAppend(e.id, ciphertextB64)

	addr := e.id.Address()
	se, err := e.store.Append(ctx, addr, ciphertextB64, sig)
	if err != nil {
		return Record{}, fmt.Errorf("appending event: %w", err)
	}

	// the append response carries only seq and created_at; pair them with
	// the ciphertext we just uploaded so the cache row is complete
	cached := store.Event{Seq: se.Seq, Ciphertext: ciphertextB64, CreatedAt: se.CreatedAt}
	if err := e.cache.AddEvent(ctx, addr, cached); err != nil {
		return Record{}, err
	}

	e.log.Debug(ctx, "pushed event", "kind", ev.Kind, "seq", se.Seq)
	return Record{Seq: se.Seq, Event: ev}, nil
}

// RecordLocal queues a locally authored event and tries to push it
// immediately. A failed push leaves the event in the pending queue for the
// next SyncAll; the returned error reports the push outcome either way.
func (e *Engine) RecordLocal(ctx context.Context, ev event.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	addr := e.id.Address()
	if err := e.cache.AddPending(ctx, addr, ev); err != nil {
		return err
	}

	if _, err := e.push(ctx, ev); err != nil {
		e.log.Warn(ctx, "push failed, event stays pending", "kind", ev.Kind, "err", err)
		return err
	}
	return e.cache.MarkSynced(ctx, addr, ev.ID)
}

// PushUnsynced pushes every pending event in authoring order, marking each
// synced on success. A failure partway through stops and leaves the
// remainder pending for the next attempt; already-pushed events stay synced.
func (e *Engine) PushUnsynced(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pushUnsynced(ctx)
}

func (e *Engine) pushUnsynced(ctx context.Context) error {
	addr := e.id.Address()
	pending, err := e.cache.PendingEvents(ctx, addr)
	if err != nil {
		return err
	}

	for _, ev := range pending {
		if _, err := e.push(ctx, ev); err != nil {
			return fmt.Errorf("pushing pending event %s: %w", ev.ID, err)
		}
		if err := e.cache.MarkSynced(ctx, addr, ev.ID); err != nil {
			return err
		}
	}
	return nil
}

// SyncAll pushes all pending events, pulls the remote log, and clears the
// pending queue only after both steps succeeded.
func (e *Engine) SyncAll(ctx context.Context) ([]Record, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.syncAll(ctx)
}

func (e *Engine) syncAll(ctx context.Context) ([]Record, error) {
	if err := e.pushUnsynced(ctx); err != nil {
		return nil, err
	}
	records, err := e.pull(ctx)
	if err != nil {
		return nil, err
	}
	if err := e.cache.ClearPending(ctx, e.id.Address()); err != nil {
		return nil, err
	}
	return records, nil
}
