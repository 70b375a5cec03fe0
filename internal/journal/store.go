package journal

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrClosed is returned by a closed store
	ErrClosed = errors.New("journal is closed")
	// ErrSeqConflict is returned when appending an out-of-order event
	ErrSeqConflict = errors.New("journal sequence conflict")
)

// Store persists events.
type Store interface {
	// Append stores e, which must follow the last stored event.
	Append(ctx context.Context, e Event) error
	// Last returns the newest event, or nil when empty.
	Last(ctx context.Context) (*Event, error)
	// Range returns up to limit events with Seq >= from in order.
	Range(ctx context.Context, from uint64, limit int) ([]Event, error)
	Close() error
}

// MemoryStore keeps events in memory.
type MemoryStore struct {
	mu     sync.RWMutex
	events []Event
	closed bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Append(_ context.Context, e Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if e.Seq != uint64(len(m.events))+1 {
		return ErrSeqConflict
	}
	m.events = append(m.events, e)
	return nil
}

func (m *MemoryStore) Last(_ context.Context) (*Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	if len(m.events) == 0 {
		return nil, nil
	}
	e := m.events[len(m.events)-1]
	return &e, nil
}

func (m *MemoryStore) Range(_ context.Context, from uint64, limit int) ([]Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	if from == 0 {
		from = 1
	}
	if from > uint64(len(m.events)) {
		return nil, nil
	}
	out := m.events[from-1:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return append([]Event(nil), out...), nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
