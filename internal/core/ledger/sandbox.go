package ledger

import (
	"bytes"
	"context"
	"sort"

	"github.com/gagliardetto/solana-go"

	"github.com/LeJamon/poolgovd/internal/core/keylet"
	"github.com/LeJamon/poolgovd/internal/core/state"
)

// Action represents the type of modification to an account
type Action int

const (
	// ActionCache means the entry was read but not modified
	ActionCache Action = iota
	// ActionInsert means a new entry was created
	ActionInsert
	// ActionModify means an existing entry was modified
	ActionModify
	// ActionErase means an entry was deleted
	ActionErase
)

func (a Action) String() string {
	switch a {
	case ActionCache:
		return "cache"
	case ActionInsert:
		return "insert"
	case ActionModify:
		return "modify"
	case ActionErase:
		return "erase"
	default:
		return "unknown"
	}
}

// TrackedEntry represents an account being tracked for changes
type TrackedEntry struct {
	Action   Action
	Original *state.Account // nil for inserts
	Current  *state.Account // nil after erase
}

// Sandbox wraps a base view and buffers every modification until Apply.
// Sandboxes nest: a sandbox is itself a Base.
type Sandbox struct {
	base  Base
	items map[solana.PublicKey]*TrackedEntry
}

// NewSandbox creates a sandbox over base.
func NewSandbox(base Base) *Sandbox {
	return &Sandbox{
		base:  base,
		items: make(map[solana.PublicKey]*TrackedEntry),
	}
}

// Read reads an account, tracking it as cached
func (s *Sandbox) Read(ctx context.Context, k keylet.Keylet) (*state.Account, error) {
	if entry, exists := s.items[k.Key]; exists {
		if entry.Action == ActionErase {
			return nil, nil
		}
		return entry.Current.Clone(), nil
	}

	a, err := s.base.Read(ctx, k)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, nil
	}

	s.items[k.Key] = &TrackedEntry{
		Action:   ActionCache,
		Original: a,
		Current:  a.Clone(),
	}
	return a.Clone(), nil
}

// Exists checks if an account exists
func (s *Sandbox) Exists(ctx context.Context, k keylet.Keylet) (bool, error) {
	if entry, exists := s.items[k.Key]; exists {
		return entry.Action != ActionErase, nil
	}
	return s.base.Exists(ctx, k)
}

// Insert adds a new account
func (s *Sandbox) Insert(ctx context.Context, k keylet.Keylet, a *state.Account) error {
	if entry, exists := s.items[k.Key]; exists {
		if entry.Action != ActionErase {
			return ErrEntryExists
		}
		// Re-inserting a deleted entry becomes a modify
		entry.Action = ActionModify
		entry.Current = a.Clone()
		return nil
	}

	exists, err := s.base.Exists(ctx, k)
	if err != nil {
		return err
	}
	if exists {
		return ErrEntryExists
	}

	s.items[k.Key] = &TrackedEntry{
		Action:  ActionInsert,
		Current: a.Clone(),
	}
	return nil
}

// Update replaces an existing account
func (s *Sandbox) Update(ctx context.Context, k keylet.Keylet, a *state.Account) error {
	if entry, exists := s.items[k.Key]; exists {
		switch entry.Action {
		case ActionErase:
			return ErrEntryNotFound
		case ActionCache:
			entry.Action = ActionModify
		}
		entry.Current = a.Clone()
		return nil
	}

	original, err := s.base.Read(ctx, k)
	if err != nil {
		return err
	}
	if original == nil {
		return ErrEntryNotFound
	}

	s.items[k.Key] = &TrackedEntry{
		Action:   ActionModify,
		Original: original,
		Current:  a.Clone(),
	}
	return nil
}

// Erase removes an account
func (s *Sandbox) Erase(ctx context.Context, k keylet.Keylet) error {
	if entry, exists := s.items[k.Key]; exists {
		switch entry.Action {
		case ActionErase:
			return ErrEntryNotFound
		case ActionInsert:
			delete(s.items, k.Key)
			return nil
		}
		entry.Action = ActionErase
		entry.Current = nil
		return nil
	}

	original, err := s.base.Read(ctx, k)
	if err != nil {
		return err
	}
	if original == nil {
		return ErrEntryNotFound
	}

	s.items[k.Key] = &TrackedEntry{
		Action:   ActionErase,
		Original: original,
	}
	return nil
}

// ForEach visits the merged view of base and pending changes.
func (s *Sandbox) ForEach(ctx context.Context, fn func(key solana.PublicKey, a *state.Account) bool) error {
	stopped := false
	err := s.base.ForEach(ctx, func(key solana.PublicKey, a *state.Account) bool {
		if entry, tracked := s.items[key]; tracked {
			if entry.Action == ActionErase {
				return true
			}
			a = entry.Current.Clone()
		}
		if !fn(key, a) {
			stopped = true
			return false
		}
		return true
	})
	if err != nil || stopped {
		return err
	}

	for _, key := range s.sortedKeys() {
		entry := s.items[key]
		if entry.Action == ActionInsert {
			if !fn(key, entry.Current.Clone()) {
				return nil
			}
		}
	}
	return nil
}

// Changes returns the pending modifications in key order.
func (s *Sandbox) Changes() []Change {
	var changes []Change
	for _, key := range s.sortedKeys() {
		entry := s.items[key]
		if entry.Action == ActionCache {
			continue
		}
		changes = append(changes, Change{Key: key, Action: entry.Action, Account: entry.Current})
	}
	return changes
}

// Commit folds changes from a nested sandbox into this one.
func (s *Sandbox) Commit(ctx context.Context, changes []Change) error {
	for _, c := range changes {
		k := keylet.Keylet{Key: c.Key}
		var err error
		switch c.Action {
		case ActionInsert:
			err = s.Insert(ctx, k, c.Account)
		case ActionModify:
			err = s.Update(ctx, k, c.Account)
		case ActionErase:
			err = s.Erase(ctx, k)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Apply commits all pending changes to the base in one step and resets
// the sandbox.
func (s *Sandbox) Apply(ctx context.Context) error {
	changes := s.Changes()
	if len(changes) > 0 {
		if err := s.base.Commit(ctx, changes); err != nil {
			return err
		}
	}
	s.Discard()
	return nil
}

// Discard drops all pending changes.
func (s *Sandbox) Discard() {
	s.items = make(map[solana.PublicKey]*TrackedEntry)
}

func (s *Sandbox) sortedKeys() []solana.PublicKey {
	keys := make([]solana.PublicKey, 0, len(s.items))
	for k := range s.items {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i][:], keys[j][:]) < 0
	})
	return keys
}
