package ledger

import (
	"context"
	"math"

	"github.com/LeJamon/poolgovd/internal/core/keylet"
	"github.com/LeJamon/poolgovd/internal/core/result"
	"github.com/LeJamon/poolgovd/internal/core/state"
)

// Transfer moves exactly amount from one account to another of the same mint.
func Transfer(ctx context.Context, v View, from, to keylet.Keylet, amount uint64) error {
	src, err := v.Read(ctx, from)
	if err != nil {
		return err
	}
	if src == nil {
		return result.Errorf(result.InvalidTokenAccount, "source %s does not exist", from.Key)
	}
	if from.Key == to.Key {
		if src.Balance < amount {
			return insufficient(from, src.Balance, amount)
		}
		return nil
	}

	dst, err := v.Read(ctx, to)
	if err != nil {
		return err
	}
	if dst == nil {
		return result.Errorf(result.InvalidTokenAccount, "destination %s does not exist", to.Key)
	}

	switch {
	case src.Frozen:
		return result.Errorf(result.AccountFrozen, "source %s", from.Key)
	case dst.Frozen:
		return result.Errorf(result.AccountFrozen, "destination %s", to.Key)
	case src.Mint != dst.Mint:
		return result.Errorf(result.InvalidTokenAccount, "mint mismatch %s != %s", src.Mint, dst.Mint)
	case src.Balance < amount:
		return insufficient(from, src.Balance, amount)
	case dst.Balance > math.MaxUint64-amount:
		return result.Errorf(result.ArithmeticOverflow, "credit %d to %s", amount, to.Key)
	}

	src.Balance -= amount
	dst.Balance += amount
	if err := v.Update(ctx, from, src); err != nil {
		return err
	}
	return v.Update(ctx, to, dst)
}

// Credit adds amount to an account, creating a native account when missing.
func Credit(ctx context.Context, v View, k keylet.Keylet, amount uint64) error {
	a, err := v.Read(ctx, k)
	if err != nil {
		return err
	}
	if a == nil {
		return v.Insert(ctx, k, state.NewAccount(k.Key, amount))
	}
	if a.Balance > math.MaxUint64-amount {
		return result.Errorf(result.ArithmeticOverflow, "credit %d to %s", amount, k.Key)
	}
	a.Balance += amount
	return v.Update(ctx, k, a)
}

// Debit removes amount from an account.
func Debit(ctx context.Context, v View, k keylet.Keylet, amount uint64) error {
	a, err := v.Read(ctx, k)
	if err != nil {
		return err
	}
	if a == nil {
		return result.Errorf(result.InvalidTokenAccount, "account %s does not exist", k.Key)
	}
	if a.Balance < amount {
		return insufficient(k, a.Balance, amount)
	}
	a.Balance -= amount
	return v.Update(ctx, k, a)
}

// Balance returns the held value of an account, zero when absent.
func Balance(ctx context.Context, v View, k keylet.Keylet) (uint64, error) {
	a, err := v.Read(ctx, k)
	if err != nil || a == nil {
		return 0, err
	}
	return a.Balance, nil
}

func insufficient(k keylet.Keylet, have, want uint64) error {
	return result.Errorf(result.InsufficientFunds, "%s holds %d, needs %d", k.Key, have, want)
}
