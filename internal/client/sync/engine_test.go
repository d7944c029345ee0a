package sync

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skylog-app/skylog/internal/client/cache"
	"github.com/skylog-app/skylog/internal/client/store"
	"github.com/skylog-app/skylog/internal/common"
	"github.com/skylog-app/skylog/internal/event"
	"github.com/skylog-app/skylog/internal/identity"
	"github.com/skylog-app/skylog/internal/kv"
	"github.com/skylog-app/skylog/internal/logging"
	"github.com/skylog-app/skylog/internal/sealedbox"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// fakeStore is an in-memory store.Client with injectable failures and call
// counters. Appends assign gapless sequences like the real store.
type fakeStore struct {
	events    []store.Event
	appendErr error
	// appendErrAt fails only the nth Append call (1-based); zero fails all
	// calls whenever appendErr is set.
	appendErrAt int
	readErr     error
	headErr     error

	appendCalls int
	readCalls   int
	headCalls   int
}

func (f *fakeStore) Append(_ context.Context, _, ciphertextB64 string, _ []byte) (store.Event, error) {
	f.appendCalls++
	if f.appendErr != nil && (f.appendErrAt == 0 || f.appendErrAt == f.appendCalls) {
		return store.Event{}, f.appendErr
	}
	ev := store.Event{
		Seq:        int64(len(f.events)) + 1,
		Ciphertext: ciphertextB64,
		CreatedAt:  time.Now().Unix(),
	}
	f.events = append(f.events, ev)
	return store.Event{Seq: ev.Seq, CreatedAt: ev.CreatedAt}, nil
}

func (f *fakeStore) Read(_ context.Context, _ string, after int64, limit int) (store.Page, error) {
	f.readCalls++
	if f.readErr != nil {
		return store.Page{}, f.readErr
	}
	var page store.Page
	for _, ev := range f.events {
		if ev.Seq <= after {
			continue
		}
		if len(page.Events) == limit {
			page.HasMore = true
			break
		}
		page.Events = append(page.Events, ev)
	}
	return page, nil
}

func (f *fakeStore) Head(_ context.Context, _ string) (store.Head, error) {
	f.headCalls++
	if f.headErr != nil {
		return store.Head{}, f.headErr
	}
	head := store.Head{Count: int64(len(f.events))}
	if len(f.events) > 0 {
		head.LatestSeq = f.events[len(f.events)-1].Seq
	}
	return head, nil
}

func newTestEngine(t *testing.T) (*Engine, *fakeStore, *cache.Cache) {
	t.Helper()
	id, err := identity.Generate()
	require.NoError(t, err)

	fs := &fakeStore{}
	c := cache.New(kv.NewMemoryStore())
	return New(id, fs, c, testLogger()), fs, c
}

func TestPush_CachesUnderServerSequence(t *testing.T) {
	ctx := context.Background()
	e, _, c := newTestEngine(t)

	rec, err := e.Push(ctx, event.NewTimerStart(1000))
	require.NoError(t, err)
	assert.EqualValues(t, 1, rec.Seq)

	seq, err := c.LastSeq(ctx, e.Identity().Address())
	require.NoError(t, err)
	assert.EqualValues(t, 1, seq)

	// the cached row decrypts back to the pushed event
	records, err := e.Pull(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, rec.Event.ID, records[0].Event.ID)
}

func TestPull_HeadShortCircuit(t *testing.T) {
	ctx := context.Background()
	e, fs, _ := newTestEngine(t)

	_, err := e.Push(ctx, event.NewTimerStart(1000))
	require.NoError(t, err)

	// cache already holds seq 1; head says nothing newer, so no Read happens
	records, err := e.Pull(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 0, fs.readCalls)
	assert.Equal(t, 1, fs.headCalls)
}

func TestPull_Paginates(t *testing.T) {
	ctx := context.Background()
	e, fs, _ := newTestEngine(t)
	e.pageLimit = 2

	for i := 0; i < 5; i++ {
		_, err := e.Push(ctx, event.NewManualEntry(int64(i*100), int64(i*100+60), int64(i)))
		require.NoError(t, err)
	}

	// fresh device for the same identity
	fresh := New(e.Identity(), fs, cache.New(kv.NewMemoryStore()), testLogger())
	fresh.pageLimit = 2

	records, err := fresh.Pull(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 5)
	assert.GreaterOrEqual(t, fs.readCalls, 3)
}

func TestPull_HeadError(t *testing.T) {
	ctx := context.Background()
	e, fs, _ := newTestEngine(t)
	fs.headErr = common.ErrUnavailable

	_, err := e.Pull(ctx)
	assert.ErrorIs(t, err, common.ErrUnavailable)
}

func TestPull_SkipsForeignAndCorruptCiphertext(t *testing.T) {
	ctx := context.Background()
	e, fs, _ := newTestEngine(t)

	// a good event
	_, err := e.Push(ctx, event.NewTimerStart(1000))
	require.NoError(t, err)

	// ciphertext sealed for a different identity landing in the same log
	other, err := identity.Generate()
	require.NoError(t, err)
	plain, err := event.Marshal(event.NewTimerStart(2000))
	require.NoError(t, err)
	foreign, err := sealedbox.Seal(plain, &other.EncryptionPublic)
	require.NoError(t, err)
	fs.events = append(fs.events, store.Event{
		Seq: 2, Ciphertext: base64.StdEncoding.EncodeToString(foreign),
	})

	// outright garbage
	fs.events = append(fs.events, store.Event{Seq: 3, Ciphertext: "bm90IGEgYm94"})

	// valid box around invalid plaintext
	junk, err := sealedbox.Seal([]byte(`{"weird":true}`), &e.Identity().EncryptionPublic)
	require.NoError(t, err)
	fs.events = append(fs.events, store.Event{
		Seq: 4, Ciphertext: base64.StdEncoding.EncodeToString(junk),
	})

	records, err := e.Pull(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.EqualValues(t, 1, records[0].Seq)
}

func TestRecordLocal_FailedPushStaysPending(t *testing.T) {
	ctx := context.Background()
	e, fs, c := newTestEngine(t)
	fs.appendErr = common.ErrUnavailable

	ev := event.NewTimerStart(1000)
	err := e.RecordLocal(ctx, ev)
	assert.ErrorIs(t, err, common.ErrUnavailable)

	pending, err := c.PendingEvents(ctx, e.Identity().Address())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, ev.ID, pending[0].ID)
}

func TestRecordLocal_SuccessClearsPending(t *testing.T) {
	ctx := context.Background()
	e, _, c := newTestEngine(t)

	require.NoError(t, e.RecordLocal(ctx, event.NewTimerStart(1000)))

	pending, err := c.PendingEvents(ctx, e.Identity().Address())
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestPushUnsynced_StopsAtFirstFailure(t *testing.T) {
	ctx := context.Background()
	e, fs, c := newTestEngine(t)
	addr := e.Identity().Address()

	a := event.NewTimerStart(1000)
	b := event.NewTimerStop(a.ID, 1900)
	require.NoError(t, c.AddPending(ctx, addr, a))
	require.NoError(t, c.AddPending(ctx, addr, b))

	fs.appendErr = common.ErrUnavailable
	fs.appendErrAt = 2

	err := e.PushUnsynced(ctx)
	assert.ErrorIs(t, err, common.ErrUnavailable)

	// a made it through; b stays queued for the next attempt
	pending, err := c.PendingEvents(ctx, addr)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, b.ID, pending[0].ID)

	seq, err := c.LastSeq(ctx, addr)
	require.NoError(t, err)
	assert.EqualValues(t, 1, seq)
}

func TestPushUnsynced_DrainsQueueInOrder(t *testing.T) {
	ctx := context.Background()
	e, fs, c := newTestEngine(t)
	addr := e.Identity().Address()

	a := event.NewTimerStart(1000)
	b := event.NewTimerStop(a.ID, 1900)
	require.NoError(t, c.AddPending(ctx, addr, a))
	require.NoError(t, c.AddPending(ctx, addr, b))

	require.NoError(t, e.PushUnsynced(ctx))
	assert.Equal(t, 2, fs.appendCalls)

	pending, err := c.PendingEvents(ctx, addr)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestLocalEvents_CombinesCachedAndPending(t *testing.T) {
	ctx := context.Background()
	e, fs, c := newTestEngine(t)
	addr := e.Identity().Address()

	start := event.NewTimerStart(1000)
	_, err := e.Push(ctx, start)
	require.NoError(t, err)

	stop := event.NewTimerStop(start.ID, 1900)
	require.NoError(t, c.AddPending(ctx, addr, stop))

	evs, err := e.LocalEvents(ctx)
	require.NoError(t, err)
	require.Len(t, evs, 2)
	assert.Equal(t, start.ID, evs[0].ID)
	assert.Equal(t, stop.ID, evs[1].ID)

	// no network traffic
	assert.Equal(t, 0, fs.readCalls)
	assert.Equal(t, 0, fs.headCalls)
}

func TestSyncAll_ClearsPendingAfterSuccess(t *testing.T) {
	ctx := context.Background()
	e, _, c := newTestEngine(t)
	addr := e.Identity().Address()

	a := event.NewTimerStart(1000)
	require.NoError(t, c.AddPending(ctx, addr, a))

	records, err := e.SyncAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)

	pending, err := c.PendingEvents(ctx, addr)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestSyncAll_PullFailureKeepsNothingLost(t *testing.T) {
	ctx := context.Background()
	e, fs, c := newTestEngine(t)
	addr := e.Identity().Address()

	a := event.NewTimerStart(1000)
	require.NoError(t, c.AddPending(ctx, addr, a))
	fs.headErr = errors.New("connection reset")

	_, err := e.SyncAll(ctx)
	require.Error(t, err)

	// the push succeeded and was marked synced; the cache still holds it
	seq, err := c.LastSeq(ctx, addr)
	require.NoError(t, err)
	assert.EqualValues(t, 1, seq)
}
