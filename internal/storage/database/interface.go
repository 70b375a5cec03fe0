// Package database abstracts the key-value engines that persist account
// records. Backends live in subpackages and are selected by name through
// the backend package.
package database

import (
	"context"
	"errors"
)

var (
	// ErrDBClosed is returned by every operation on a closed handle.
	ErrDBClosed = errors.New("database is closed")

	// ErrKeyNotFound is returned by Read for absent keys.
	ErrKeyNotFound = errors.New("key not found")

	// ErrUnknownBackend is returned when no backend matches the configured name.
	ErrUnknownBackend = errors.New("unknown storage backend")

	// ErrBatchOperationFailed wraps engine errors raised while committing a batch.
	ErrBatchOperationFailed = errors.New("batch operation failed")
)

// DB is the key-value surface the ledger store is written against.
type DB interface {
	Read(ctx context.Context, key []byte) ([]byte, error)
	Write(ctx context.Context, key []byte, value []byte) error
	Delete(ctx context.Context, key []byte) error

	// Batch applies all operations atomically.
	Batch(ctx context.Context, ops []BatchOperation) error

	// Iterator walks keys in [start, end). A nil bound is open.
	Iterator(ctx context.Context, start, end []byte) (Iterator, error)
}

// Manager opens named databases below a common directory.
type Manager interface {
	OpenDB(name string) (DB, error)
	CloseDB(name string) error
	Close() error
}

// Iterator yields entries in key order.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Error() error
	Close() error
}

// BatchOpType selects what a BatchOperation does.
type BatchOpType int

const (
	BatchPut BatchOpType = iota
	BatchDelete
)

// BatchOperation is one write or delete inside a Batch call.
type BatchOperation struct {
	Type  BatchOpType
	Key   []byte
	Value []byte
}

// Put returns a batch write of key.
func Put(key, value []byte) BatchOperation {
	return BatchOperation{Type: BatchPut, Key: key, Value: value}
}

// Del returns a batch delete of key.
func Del(key []byte) BatchOperation {
	return BatchOperation{Type: BatchDelete, Key: key}
}
