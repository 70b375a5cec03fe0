package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/lib/pq"  // PostgreSQL driver
	_ "modernc.org/sqlite" // SQLite driver
)

const createTable = `
CREATE TABLE IF NOT EXISTS journal_events (
	seq       BIGINT PRIMARY KEY,
	time      BIGINT NOT NULL,
	op        TEXT NOT NULL,
	signer    TEXT NOT NULL,
	code      INTEGER NOT NULL,
	detail    TEXT NOT NULL,
	prev_hash TEXT NOT NULL,
	hash      TEXT NOT NULL
)`

const createOpIndex = `CREATE INDEX IF NOT EXISTS idx_journal_events_op ON journal_events(op)`

// SQLStore persists events in PostgreSQL or SQLite.
type SQLStore struct {
	db     *sql.DB
	driver string
	config *Config
}

// OpenSQL opens the configured SQL backend and creates the schema.
func OpenSQL(ctx context.Context, config *Config) (*SQLStore, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if config.Driver == DriverMemory {
		return nil, fmt.Errorf("%w: memory is not a SQL driver", ErrInvalidDriver)
	}

	db, err := sql.Open(config.Driver, config.BuildConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}
	if config.Driver == DriverSQLite {
		// A single connection keeps an in-memory database alive and
		// serializes writers.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(config.MaxOpenConns)
	}

	pingCtx, cancel := context.WithTimeout(ctx, config.DefaultTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping journal database: %w", err)
	}

	s := &SQLStore{db: db, driver: config.Driver, config: config}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLStore) initSchema(ctx context.Context) error {
	for _, stmt := range []string{createTable, createOpIndex} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) Append(ctx context.Context, e Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var last sql.NullInt64
	if err := tx.QueryRowContext(ctx, "SELECT MAX(seq) FROM journal_events").Scan(&last); err != nil {
		return fmt.Errorf("failed to read journal head: %w", err)
	}
	if uint64(last.Int64)+1 != e.Seq {
		return ErrSeqConflict
	}

	_, err = tx.ExecContext(ctx, s.rebind(
		`INSERT INTO journal_events (seq, time, op, signer, code, detail, prev_hash, hash)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		int64(e.Seq), e.Time, e.Op, e.Signer, e.Code, e.Detail, e.PrevHash.String(), e.Hash.String())
	if err != nil {
		return fmt.Errorf("failed to insert journal event: %w", err)
	}
	return tx.Commit()
}

func (s *SQLStore) Last(ctx context.Context) (*Event, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT seq, time, op, signer, code, detail, prev_hash, hash
		 FROM journal_events ORDER BY seq DESC LIMIT 1`)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (s *SQLStore) Range(ctx context.Context, from uint64, limit int) ([]Event, error) {
	query := `SELECT seq, time, op, signer, code, detail, prev_hash, hash
		FROM journal_events WHERE seq >= ? ORDER BY seq`
	args := []interface{}{int64(from)}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row scanner) (*Event, error) {
	var (
		e              Event
		seq            int64
		prevHash, hash string
	)
	if err := row.Scan(&seq, &e.Time, &e.Op, &e.Signer, &e.Code, &e.Detail, &prevHash, &hash); err != nil {
		return nil, err
	}
	e.Seq = uint64(seq)
	if err := e.PrevHash.UnmarshalText([]byte(prevHash)); err != nil {
		return nil, fmt.Errorf("corrupt prev_hash at seq %d: %w", seq, err)
	}
	if err := e.Hash.UnmarshalText([]byte(hash)); err != nil {
		return nil, fmt.Errorf("corrupt hash at seq %d: %w", seq, err)
	}
	return &e, nil
}
