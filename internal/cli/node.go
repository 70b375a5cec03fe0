package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/LeJamon/poolgovd/internal/config"
	"github.com/LeJamon/poolgovd/internal/core/ledger"
	"github.com/LeJamon/poolgovd/internal/core/processor"
	"github.com/LeJamon/poolgovd/internal/journal"
	"github.com/LeJamon/poolgovd/internal/storage/database"
	"github.com/LeJamon/poolgovd/internal/storage/database/backend"
)

// accountsDB names the key-value database holding account records.
const accountsDB = "accounts"

// node wires storage, the processor and the journal from configuration.
type node struct {
	cfg     *config.Config
	log     *zap.Logger
	manager database.Manager
	store   *ledger.Store
	proc    *processor.Processor
	journal *journal.Journal
}

func openNode(ctx context.Context, cfg *config.Config, log *zap.Logger) (*node, error) {
	programID, loaderID, err := cfg.Keys()
	if err != nil {
		return nil, err
	}

	manager, err := backend.NewManager(cfg.Storage.Backend, backend.Options{
		Path:    cfg.Storage.Path,
		CacheMB: cfg.Storage.BlockCacheMB,
		NoSync:  cfg.Storage.NoSync,
	})
	if err != nil {
		return nil, err
	}
	n := &node{cfg: cfg, log: log, manager: manager}

	db, err := manager.OpenDB(accountsDB)
	if err != nil {
		n.Close()
		return nil, fmt.Errorf("failed to open account database: %w", err)
	}
	n.store, err = ledger.NewStore(db, ledger.StoreConfig{
		CacheSize:   cfg.Storage.CacheSize,
		Compression: cfg.Storage.Compression,
	})
	if err != nil {
		n.Close()
		return nil, err
	}

	pc := processor.DefaultConfig(programID)
	pc.LoaderID = loaderID
	pc.Fees = cfg.Fees
	pc.Treasury = cfg.Treasury
	n.proc, err = processor.New(n.store, pc, log)
	if err != nil {
		n.Close()
		return nil, err
	}

	if cfg.Journal.Driver == journal.DriverSQLite && cfg.Journal.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Journal.Path), 0o755); err != nil {
			n.Close()
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}
	n.journal, err = journal.New(ctx, &cfg.Journal, log.Named("journal"))
	if err != nil {
		n.Close()
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	n.proc.SetRecorder(n.journal)

	log.Debug("node opened",
		zap.String("program", programID.String()),
		zap.String("storage", cfg.Storage.Backend),
		zap.String("journal", cfg.Journal.Driver),
	)
	return n, nil
}

// Close releases the journal and the storage manager.
func (n *node) Close() error {
	var errs []error
	if n.journal != nil {
		errs = append(errs, n.journal.Close())
	}
	if n.manager != nil {
		errs = append(errs, n.manager.Close())
	}
	return errors.Join(errs...)
}

// withNode loads the configuration, opens a node, runs fn and closes it.
func withNode(ctx context.Context, fn func(n *node) error) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer log.Sync()

	n, err := openNode(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer n.Close()
	return fn(n)
}
