// Package guard protects value movement against unexpected account changes.
//
// A Snapshot records an account before an operation and validates the exact
// balance delta afterwards. Guard combines snapshots with per-call account
// locks so that wrapped transfers, mints and burns cannot be re-entered.
package guard

import (
	"context"
	"math"
	"strconv"

	"github.com/gagliardetto/solana-go"

	"github.com/LeJamon/poolgovd/internal/core/keylet"
	"github.com/LeJamon/poolgovd/internal/core/ledger"
	"github.com/LeJamon/poolgovd/internal/core/result"
)

// Snapshot is the value-relevant state of one account at one instant.
type Snapshot struct {
	Keylet  keylet.Keylet
	Balance uint64
	Owner   solana.PublicKey
	Mint    solana.PublicKey
	Frozen  bool
}

// Capture reads the account at k.
func Capture(ctx context.Context, v ledger.View, k keylet.Keylet) (*Snapshot, error) {
	a, err := v.Read(ctx, k)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, result.Errorf(result.InvalidTokenAccount, "snapshot of missing account %s", k.Key)
	}
	return &Snapshot{
		Keylet:  k,
		Balance: a.Balance,
		Owner:   a.Owner,
		Mint:    a.Mint,
		Frozen:  a.Frozen,
	}, nil
}

// ValidateChange re-reads the account and fails with ReentrancyDetected
// unless its mint, owner and frozen flag are unchanged and its balance moved
// by exactly expectedDelta.
func (s *Snapshot) ValidateChange(ctx context.Context, v ledger.View, expectedDelta int64) error {
	after, err := Capture(ctx, v, s.Keylet)
	if err != nil {
		return result.Wrap(result.ReentrancyDetected, err)
	}

	switch {
	case after.Mint != s.Mint:
		return result.Errorf(result.ReentrancyDetected, "%s: mint changed from %s to %s", s.Keylet.Key, s.Mint, after.Mint)
	case after.Owner != s.Owner:
		return result.Errorf(result.ReentrancyDetected, "%s: owner changed from %s to %s", s.Keylet.Key, s.Owner, after.Owner)
	case after.Frozen != s.Frozen:
		return result.Errorf(result.ReentrancyDetected, "%s: frozen flag changed to %t", s.Keylet.Key, after.Frozen)
	}

	delta, ok := Delta(s.Balance, after.Balance)
	if !ok || delta != expectedDelta {
		return result.Errorf(result.ReentrancyDetected, "%s: balance changed by %s, expected %d",
			s.Keylet.Key, describeDelta(s.Balance, after.Balance), expectedDelta)
	}
	return nil
}

// Delta returns after-before as a signed value. ok is false when the
// difference does not fit an int64.
func Delta(before, after uint64) (int64, bool) {
	if after >= before {
		d := after - before
		if d > math.MaxInt64 {
			return 0, false
		}
		return int64(d), true
	}
	d := before - after
	if d > math.MaxInt64 {
		return 0, false
	}
	return -int64(d), true
}

// Signed converts a transfer amount to a delta.
func Signed(amount uint64) (int64, error) {
	if amount > math.MaxInt64 {
		return 0, result.Errorf(result.ArithmeticOverflow, "amount %d exceeds the guarded range", amount)
	}
	return int64(amount), nil
}

func describeDelta(before, after uint64) string {
	if d, ok := Delta(before, after); ok {
		return strconv.FormatInt(d, 10)
	}
	if after > before {
		return "+" + strconv.FormatUint(after-before, 10)
	}
	return "-" + strconv.FormatUint(before-after, 10)
}
