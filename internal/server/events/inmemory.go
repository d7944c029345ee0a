package events

import (
	"bytes"
	"context"
	"sync"
	"time"
)

// MemoryRepository is a mutex-guarded in-memory Repository used by tests and
// by the server's -dev mode. The mutex gives appends the same serialization
// guarantee the postgres advisory lock does.
type MemoryRepository struct {
	mu   sync.Mutex
	logs map[string][]StoredEvent
	now  func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{logs: make(map[string][]StoredEvent), now: time.Now}
}

func (r *MemoryRepository) Append(_ context.Context, addr string, ciphertext []byte) (StoredEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	log := r.logs[addr]
	ev := StoredEvent{
		Seq:        int64(len(log)) + 1,
		Ciphertext: bytes.Clone(ciphertext),
		CreatedAt:  r.now().UTC(),
	}
	r.logs[addr] = append(log, ev)
	return ev, nil
}

func (r *MemoryRepository) List(_ context.Context, addr string, after int64, limit int) ([]StoredEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []StoredEvent
	for _, ev := range r.logs[addr] {
		if ev.Seq <= after {
			continue
		}
		result = append(result, ev)
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

func (r *MemoryRepository) Head(_ context.Context, addr string) (count, latest int64, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	log := r.logs[addr]
	count = int64(len(log))
	if count > 0 {
		latest = log[count-1].Seq
	}
	return count, latest, nil
}
