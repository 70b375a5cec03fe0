// Package ledger provides the account views operations run against: the
// persistent store and the per-call sandbox that makes a call all-or-nothing.
package ledger

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"

	"github.com/LeJamon/poolgovd/internal/core/keylet"
	"github.com/LeJamon/poolgovd/internal/core/state"
)

var (
	// ErrEntryExists is returned when inserting over an existing account
	ErrEntryExists = errors.New("entry already exists")
	// ErrEntryNotFound is returned when updating or erasing a missing account
	ErrEntryNotFound = errors.New("entry not found")
)

// View is read/write access to accounts. Read returns nil for a missing
// account. Returned accounts are copies; mutations take effect via Update.
type View interface {
	Read(ctx context.Context, k keylet.Keylet) (*state.Account, error)
	Exists(ctx context.Context, k keylet.Keylet) (bool, error)
	Insert(ctx context.Context, k keylet.Keylet, a *state.Account) error
	Update(ctx context.Context, k keylet.Keylet, a *state.Account) error
	Erase(ctx context.Context, k keylet.Keylet) error
	ForEach(ctx context.Context, fn func(key solana.PublicKey, a *state.Account) bool) error
}

// Committer atomically applies a set of changes.
type Committer interface {
	Commit(ctx context.Context, changes []Change) error
}

// Base is a view that sandboxes can commit into.
type Base interface {
	View
	Committer
}

// Change is one account modification produced by a sandbox.
type Change struct {
	Key     solana.PublicKey
	Action  Action
	Account *state.Account
}
