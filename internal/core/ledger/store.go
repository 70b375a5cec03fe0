package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/LeJamon/poolgovd/internal/core/keylet"
	"github.com/LeJamon/poolgovd/internal/core/state"
	"github.com/LeJamon/poolgovd/internal/storage/compression"
	"github.com/LeJamon/poolgovd/internal/storage/database"
)

// accountPrefix namespaces account records in the key-value store.
var accountPrefix = []byte("acct/")

// StoreConfig holds configuration for the store
type StoreConfig struct {
	// CacheSize is the number of decoded accounts kept in memory
	CacheSize int
	// Compression names a registered compressor; empty selects compression.Default
	Compression string
}

// Store is the persistent account view backed by a key-value database.
type Store struct {
	mu sync.RWMutex

	db         database.DB
	compressor compression.Compressor

	// Key: account address
	cache *lru.Cache[solana.PublicKey, *state.Account]

	// Metrics
	hits   uint64
	misses uint64
}

// StoreStats reports cache effectiveness.
type StoreStats struct {
	Hits    uint64
	Misses  uint64
	Entries int
}

// NewStore creates a store over db.
func NewStore(db database.DB, config StoreConfig) (*Store, error) {
	if config.CacheSize <= 0 {
		config.CacheSize = 1024 // Default cache size
	}
	cache, err := lru.New[solana.PublicKey, *state.Account](config.CacheSize)
	if err != nil {
		return nil, err
	}
	compressor, err := compression.Get(config.Compression)
	if err != nil {
		return nil, err
	}

	return &Store{
		db:         db,
		compressor: compressor,
		cache:      cache,
	}, nil
}

func accountKey(key solana.PublicKey) []byte {
	k := make([]byte, 0, len(accountPrefix)+len(key))
	k = append(k, accountPrefix...)
	return append(k, key[:]...)
}

// Read returns the account at k, or nil when absent.
func (s *Store) Read(ctx context.Context, k keylet.Keylet) (*state.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.load(ctx, k.Key)
	if err != nil || a == nil {
		return nil, err
	}
	return a.Clone(), nil
}

func (s *Store) load(ctx context.Context, key solana.PublicKey) (*state.Account, error) {
	if a, found := s.cache.Get(key); found {
		s.hits++
		return a, nil
	}
	s.misses++

	raw, err := s.db.Read(ctx, accountKey(key))
	if errors.Is(err, database.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read account %s: %w", key, err)
	}
	a, err := s.decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decode account %s: %w", key, err)
	}
	s.cache.Add(key, a)
	return a, nil
}

func (s *Store) decode(raw []byte) (*state.Account, error) {
	plain, err := s.compressor.Decompress(raw)
	if err != nil {
		return nil, err
	}
	return state.DecodeAccount(plain)
}

func (s *Store) encode(a *state.Account) ([]byte, error) {
	plain, err := state.EncodeAccount(a)
	if err != nil {
		return nil, err
	}
	return s.compressor.Compress(plain)
}

// Exists reports whether an account is present.
func (s *Store) Exists(ctx context.Context, k keylet.Keylet) (bool, error) {
	a, err := s.Read(ctx, k)
	return a != nil, err
}

// Insert stores a new account.
func (s *Store) Insert(ctx context.Context, k keylet.Keylet, a *state.Account) error {
	return s.Commit(ctx, []Change{{Key: k.Key, Action: ActionInsert, Account: a}})
}

// Update replaces an existing account.
func (s *Store) Update(ctx context.Context, k keylet.Keylet, a *state.Account) error {
	return s.Commit(ctx, []Change{{Key: k.Key, Action: ActionModify, Account: a}})
}

// Erase deletes an account.
func (s *Store) Erase(ctx context.Context, k keylet.Keylet) error {
	return s.Commit(ctx, []Change{{Key: k.Key, Action: ActionErase}})
}

// Commit writes changes in a single database batch. Either every change
// lands or none does.
func (s *Store) Commit(ctx context.Context, changes []Change) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ops := make([]database.BatchOperation, 0, len(changes))
	for _, c := range changes {
		existing, err := s.load(ctx, c.Key)
		if err != nil {
			return err
		}
		switch c.Action {
		case ActionInsert:
			if existing != nil {
				return fmt.Errorf("insert %s: %w", c.Key, ErrEntryExists)
			}
		case ActionModify, ActionErase:
			if existing == nil {
				return fmt.Errorf("%s %s: %w", c.Action, c.Key, ErrEntryNotFound)
			}
		default:
			continue
		}

		if c.Action == ActionErase {
			ops = append(ops, database.Del(accountKey(c.Key)))
			continue
		}
		raw, err := s.encode(c.Account)
		if err != nil {
			return fmt.Errorf("encode account %s: %w", c.Key, err)
		}
		ops = append(ops, database.Put(accountKey(c.Key), raw))
	}

	if len(ops) == 0 {
		return nil
	}
	if err := s.db.Batch(ctx, ops); err != nil {
		return err
	}

	for _, c := range changes {
		switch c.Action {
		case ActionErase:
			s.cache.Remove(c.Key)
		case ActionInsert, ActionModify:
			s.cache.Add(c.Key, c.Account.Clone())
		}
	}
	return nil
}

// ForEach visits every stored account in key order. fn runs after the
// scan completes, so it may read from the store.
func (s *Store) ForEach(ctx context.Context, fn func(key solana.PublicKey, a *state.Account) bool) error {
	type entry struct {
		key     solana.PublicKey
		account *state.Account
	}
	var entries []entry

	err := func() error {
		s.mu.RLock()
		defer s.mu.RUnlock()

		end := append([]byte(nil), accountPrefix...)
		end[len(end)-1]++

		iter, err := s.db.Iterator(ctx, accountPrefix, end)
		if err != nil {
			return err
		}
		defer iter.Close()

		for iter.Next() {
			raw := iter.Key()
			if len(raw) != len(accountPrefix)+len(solana.PublicKey{}) {
				continue
			}
			key := solana.PublicKeyFromBytes(raw[len(accountPrefix):])
			a, err := s.decode(iter.Value())
			if err != nil {
				return fmt.Errorf("decode account %s: %w", key, err)
			}
			entries = append(entries, entry{key: key, account: a})
		}
		return iter.Error()
	}()
	if err != nil {
		return err
	}

	for _, e := range entries {
		if !fn(e.key, e.account) {
			break
		}
	}
	return nil
}

// Stats returns cache statistics.
func (s *Store) Stats() StoreStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StoreStats{Hits: s.hits, Misses: s.misses, Entries: s.cache.Len()}
}
