package journal

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Hooks are invoked synchronously after an event is stored.
type Hooks struct {
	OnAppend func(e Event)
}

// Journal appends hash-chained events to a Store and fans them out to
// live subscribers.
type Journal struct {
	mu    sync.Mutex
	store Store
	head  *Event
	hooks *Hooks
	log   *zap.Logger

	subMu      sync.Mutex
	subs       map[uint64]chan Event
	nextSub    uint64
	bufferSize int
}

// Open wraps store, loading its current head.
func Open(ctx context.Context, store Store, bufferSize int, log *zap.Logger) (*Journal, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if bufferSize <= 0 {
		bufferSize = NewConfig().SubscriberBuffer
	}
	head, err := store.Last(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load journal head: %w", err)
	}
	return &Journal{
		store:      store,
		head:       head,
		log:        log,
		subs:       make(map[uint64]chan Event),
		bufferSize: bufferSize,
	}, nil
}

// New opens the backend named by config.
func New(ctx context.Context, config *Config, log *zap.Logger) (*Journal, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	var store Store
	if config.Driver == DriverMemory {
		store = NewMemoryStore()
	} else {
		s, err := OpenSQL(ctx, config)
		if err != nil {
			return nil, err
		}
		store = s
	}
	j, err := Open(ctx, store, config.SubscriberBuffer, log)
	if err != nil {
		store.Close()
		return nil, err
	}
	return j, nil
}

// SetHooks installs append hooks.
func (j *Journal) SetHooks(h *Hooks) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.hooks = h
}

// Append links entry to the head of the chain and stores it.
func (j *Journal) Append(ctx context.Context, entry Entry) (Event, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	e := Event{
		Seq:    1,
		Time:   entry.Time,
		Op:     entry.Op,
		Signer: entry.Signer,
		Code:   entry.Code,
		Detail: entry.Detail,
	}
	if j.head != nil {
		e.Seq = j.head.Seq + 1
		e.PrevHash = j.head.Hash
	}
	e.Hash = e.ComputeHash()

	if err := j.store.Append(ctx, e); err != nil {
		return Event{}, fmt.Errorf("failed to append journal event: %w", err)
	}
	stored := e
	j.head = &stored

	if j.hooks != nil && j.hooks.OnAppend != nil {
		j.hooks.OnAppend(e)
	}
	j.publish(e)
	return e, nil
}

// Head returns the newest event, or nil when the journal is empty.
func (j *Journal) Head() *Event {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.head == nil {
		return nil
	}
	e := *j.head
	return &e
}

// Tail returns up to limit of the newest events in order.
func (j *Journal) Tail(ctx context.Context, limit int) ([]Event, error) {
	head := j.Head()
	if head == nil {
		return nil, nil
	}
	from := uint64(1)
	if limit > 0 && head.Seq > uint64(limit) {
		from = head.Seq - uint64(limit) + 1
	}
	return j.store.Range(ctx, from, limit)
}

// Range returns up to limit events starting at seq from.
func (j *Journal) Range(ctx context.Context, from uint64, limit int) ([]Event, error) {
	return j.store.Range(ctx, from, limit)
}

const verifyBatch = 512

// Verify walks the whole chain and returns a *ChainError for the first
// broken link.
func (j *Journal) Verify(ctx context.Context) error {
	var (
		prev    Hash
		prevSeq uint64
	)
	for {
		batch, err := j.store.Range(ctx, prevSeq+1, verifyBatch)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		if err := VerifyChain(prev, prevSeq, batch); err != nil {
			return err
		}
		last := batch[len(batch)-1]
		prev, prevSeq = last.Hash, last.Seq
	}
}

// Subscribe returns a channel of newly appended events and a cancel
// function. A subscriber that falls behind is dropped and its channel
// closed.
func (j *Journal) Subscribe() (<-chan Event, func()) {
	j.subMu.Lock()
	defer j.subMu.Unlock()

	id := j.nextSub
	j.nextSub++
	ch := make(chan Event, j.bufferSize)
	j.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() { j.unsubscribe(id) })
	}
}

func (j *Journal) unsubscribe(id uint64) {
	j.subMu.Lock()
	defer j.subMu.Unlock()
	if ch, ok := j.subs[id]; ok {
		delete(j.subs, id)
		close(ch)
	}
}

func (j *Journal) publish(e Event) {
	j.subMu.Lock()
	defer j.subMu.Unlock()
	for id, ch := range j.subs {
		select {
		case ch <- e:
		default:
			j.log.Warn("dropping slow journal subscriber", zap.Uint64("subscriber", id))
			delete(j.subs, id)
			close(ch)
		}
	}
}

// Close closes all subscriptions and the underlying store.
func (j *Journal) Close() error {
	j.subMu.Lock()
	for id, ch := range j.subs {
		delete(j.subs, id)
		close(ch)
	}
	j.subMu.Unlock()
	return j.store.Close()
}
