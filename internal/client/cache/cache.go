// Package cache keeps the client's local view of an identity's log: the
// server-confirmed events addressed by sequence, plus a pending-upload queue
// of locally authored events addressed by event id. It is backed purely by
// the injected kv capability.
//
// The cache is not safe for concurrent use against the same identity; the
// sync engine drives it from a single execution context.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/skylog-app/skylog/internal/common"
	"github.com/skylog-app/skylog/internal/event"
	"github.com/skylog-app/skylog/internal/client/store"
	"github.com/skylog-app/skylog/internal/kv"
)

// Cache stores per-identity sync state in a kv.Store. Keys are namespaced
// by the identity's address, so several identities can share one store
// without seeing each other's state.
type Cache struct {
	kv  kv.Store
	now func() time.Time
}

func New(store kv.Store) *Cache {
	return &Cache{kv: store, now: time.Now}
}

// WithClock replaces the time source; tests use it to pin lastSyncAt.
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

func eventsKey(addr string) string  { return "cache:" + addr + ":events" }
func metaKey(addr string) string    { return "cache:" + addr + ":meta" }
func pendingKey(addr string) string { return "pending:" + addr }

type meta struct {
	LastSeq    int64 `json:"last_seq"`
	LastSyncAt int64 `json:"last_sync_at"`
}

func (c *Cache) getJSON(ctx context.Context, key string, v any) (bool, error) {
	raw, err := c.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("corrupt cache entry %s: %w", key, err)
	}
	return true, nil
}

func (c *Cache) setJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.kv.Set(ctx, key, raw)
}

// Events returns the confirmed events for addr in ascending sequence order.
func (c *Cache) Events(ctx context.Context, addr string) ([]store.Event, error) {
	var events []store.Event
	if _, err := c.getJSON(ctx, eventsKey(addr), &events); err != nil {
		return nil, err
	}
	return events, nil
}

// LastSeq returns the high-water mark, 0 when nothing is cached.
func (c *Cache) LastSeq(ctx context.Context, addr string) (int64, error) {
	var m meta
	if _, err := c.getJSON(ctx, metaKey(addr), &m); err != nil {
		return 0, err
	}
	return m.LastSeq, nil
}

// LastSyncAt returns the unix time of the last cache update, 0 if never.
func (c *Cache) LastSyncAt(ctx context.Context, addr string) (int64, error) {
	var m meta
	if _, err := c.getJSON(ctx, metaKey(addr), &m); err != nil {
		return 0, err
	}
	return m.LastSyncAt, nil
}

// AppendEvents adds confirmed events, dropping anything at or below the
// current high-water mark, then advances the mark and sync timestamp.
// Replaying an overlapping page is a no-op for the overlap, which makes
// retried pulls idempotent.
func (c *Cache) AppendEvents(ctx context.Context, addr string, events []store.Event) error {
	cached, err := c.Events(ctx, addr)
	if err != nil {
		return err
	}
	var m meta
	if _, err := c.getJSON(ctx, metaKey(addr), &m); err != nil {
		return err
	}

	for _, ev := range events {
		if ev.Seq <= m.LastSeq {
			continue
		}
		cached = append(cached, ev)
		m.LastSeq = ev.Seq
	}
	m.LastSyncAt = c.now().Unix()

	if err := c.setJSON(ctx, eventsKey(addr), cached); err != nil {
		return err
	}
	return c.setJSON(ctx, metaKey(addr), m)
}

// AddEvent is a single-event convenience over AppendEvents, used after a
// successful push returns the server-assigned sequence.
func (c *Cache) AddEvent(ctx context.Context, addr string, ev store.Event) error {
	return c.AppendEvents(ctx, addr, []store.Event{ev})
}

// Clear wipes the confirmed cache and its metadata for addr.
func (c *Cache) Clear(ctx context.Context, addr string) error {
	if err := c.kv.Delete(ctx, eventsKey(addr)); err != nil {
		return err
	}
	return c.kv.Delete(ctx, metaKey(addr))
}

// PendingEvents returns locally authored events awaiting confirmation,
// in authoring order.
func (c *Cache) PendingEvents(ctx context.Context, addr string) ([]event.Event, error) {
	var pending []event.Event
	if _, err := c.getJSON(ctx, pendingKey(addr), &pending); err != nil {
		return nil, err
	}
	return pending, nil
}

// AddPending appends one locally authored event to the queue.
func (c *Cache) AddPending(ctx context.Context, addr string, ev event.Event) error {
	pending, err := c.PendingEvents(ctx, addr)
	if err != nil {
		return err
	}
	return c.setJSON(ctx, pendingKey(addr), append(pending, ev))
}

// MarkSynced removes the event with the given id from the pending queue.
func (c *Cache) MarkSynced(ctx context.Context, addr, eventID string) error {
	pending, err := c.PendingEvents(ctx, addr)
	if err != nil {
		return err
	}
	kept := pending[:0]
	for _, ev := range pending {
		if ev.ID != eventID {
			kept = append(kept, ev)
		}
	}
	return c.setJSON(ctx, pendingKey(addr), kept)
}

// ClearPending drops the whole pending queue.
func (c *Cache) ClearPending(ctx context.Context, addr string) error {
	return c.kv.Delete(ctx, pendingKey(addr))
}

// MarkAllPending replaces the pending queue with the given events. The merge
// flow uses it to queue the entire local history for re-upload under a new
// identity, regardless of prior sync state.
func (c *Cache) MarkAllPending(ctx context.Context, addr string, events []event.Event) error {
	return c.setJSON(ctx, pendingKey(addr), events)
}
