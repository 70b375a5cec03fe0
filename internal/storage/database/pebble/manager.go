package pebble

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/pebble"

	"github.com/LeJamon/poolgovd/internal/storage/database"
)

// Options tunes the pebble instances opened by a Manager.
type Options struct {
	// CacheMB sizes one block cache shared by every database of the
	// manager. Zero keeps pebble's default per-instance cache.
	CacheMB int
	// NoSync commits without waiting for the WAL to reach disk.
	NoSync bool
}

// Manager keeps one pebble instance per database name under path.
type Manager struct {
	path  string
	opts  Options
	cache *pebble.Cache
	dbs   map[string]*pebble.DB
	mu    sync.Mutex
}

// NewManager returns a manager storing databases as <path>/<name>.db.
func NewManager(path string, opts Options) *Manager {
	return &Manager{
		path: path,
		opts: opts,
		dbs:  make(map[string]*pebble.DB),
	}
}

func (m *Manager) writeOptions() *pebble.WriteOptions {
	if m.opts.NoSync {
		return pebble.NoSync
	}
	return pebble.Sync
}

// OpenDB opens name or returns a new handle on the already open instance.
func (m *Manager) OpenDB(name string) (database.DB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if db, exists := m.dbs[name]; exists {
		return newDB(db, m.writeOptions()), nil
	}

	if m.cache == nil && m.opts.CacheMB > 0 {
		m.cache = pebble.NewCache(int64(m.opts.CacheMB) << 20)
	}
	db, err := pebble.Open(filepath.Join(m.path, name+".db"), &pebble.Options{Cache: m.cache})
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble database %s: %w", name, err)
	}

	m.dbs[name] = db
	return newDB(db, m.writeOptions()), nil
}

// CloseDB closes one database. Handles obtained for it stop working.
func (m *Manager) CloseDB(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	db, exists := m.dbs[name]
	if !exists {
		return fmt.Errorf("pebble database %s is not open: %w", name, database.ErrDBClosed)
	}
	delete(m.dbs, name)
	return db.Close()
}

// Close closes every database and releases the shared block cache.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for name, db := range m.dbs {
		if err := db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close pebble database %s: %w", name, err))
		}
		delete(m.dbs, name)
	}
	if m.cache != nil {
		m.cache.Unref()
		m.cache = nil
	}
	return errors.Join(errs...)
}
