// Package backend selects a database implementation by name.
package backend

import (
	"fmt"
	"os"

	"github.com/LeJamon/poolgovd/internal/storage/database"
	"github.com/LeJamon/poolgovd/internal/storage/database/bbolt"
	"github.com/LeJamon/poolgovd/internal/storage/database/leveldb"
	"github.com/LeJamon/poolgovd/internal/storage/database/memory"
	"github.com/LeJamon/poolgovd/internal/storage/database/pebble"
)

// Supported backend names.
const (
	Pebble  = "pebble"
	LevelDB = "leveldb"
	BBolt   = "bbolt"
	Memory  = "memory"
)

// Names lists the supported backends.
func Names() []string {
	return []string{Pebble, LevelDB, BBolt, Memory}
}

// Options carries the engine settings shared by every backend. Settings an
// engine has no equivalent for are ignored.
type Options struct {
	// Path is the directory holding the database files.
	Path string
	// CacheMB sizes the engine block cache.
	CacheMB int
	// NoSync trades durability of the last commits for write latency.
	NoSync bool
}

// NewManager returns a manager for the named backend.
func NewManager(name string, opts Options) (database.Manager, error) {
	if name != Memory {
		if err := os.MkdirAll(opts.Path, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory %s: %w", opts.Path, err)
		}
	}

	switch name {
	case Pebble:
		return pebble.NewManager(opts.Path, pebble.Options{CacheMB: opts.CacheMB, NoSync: opts.NoSync}), nil
	case LevelDB:
		return leveldb.NewManager(opts.Path, leveldb.Options{CacheMB: opts.CacheMB, NoSync: opts.NoSync}), nil
	case BBolt:
		return bbolt.NewManager(opts.Path, bbolt.Options{NoSync: opts.NoSync}), nil
	case Memory:
		return memory.NewManager(), nil
	default:
		return nil, fmt.Errorf("%w: %q", database.ErrUnknownBackend, name)
	}
}
