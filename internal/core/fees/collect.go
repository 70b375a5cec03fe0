package fees

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/LeJamon/poolgovd/internal/core/guard"
	"github.com/LeJamon/poolgovd/internal/core/keylet"
	"github.com/LeJamon/poolgovd/internal/core/ledger"
	"github.com/LeJamon/poolgovd/internal/core/result"
)

// Side names the account whose balance failed reconciliation.
type Side string

const (
	SidePayer    Side = "payer"
	SideTreasury Side = "treasury"
)

// ReconciliationError reports a post-transfer delta that differs from the
// collected amount.
type ReconciliationError struct {
	Side     Side
	Expected uint64
	Before   uint64
	After    uint64
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("%s side moved %d -> %d, expected a change of %d", e.Side, e.Before, e.After, e.Expected)
}

// TransferFunc moves value between two accounts.
type TransferFunc func(ctx context.Context, v ledger.View, from, to keylet.Keylet, amount uint64) error

// Collection describes one fee payment.
type Collection struct {
	Payer       keylet.Keylet
	Destination keylet.Keylet
	// Writable reports whether the caller supplied the destination as writable.
	Writable bool
	// Expected is the address the destination must match.
	Expected solana.PublicKey
	Type     DestinationType
	Amount   uint64
	Context  Context
}

// Collector executes fee collections.
type Collector struct {
	transfer TransferFunc
	log      *zap.Logger
}

// NewCollector creates a collector using the ledger transfer.
func NewCollector(log *zap.Logger) *Collector {
	return NewCollectorWithTransfer(ledger.Transfer, log)
}

// NewCollectorWithTransfer creates a collector with a custom transfer.
func NewCollectorWithTransfer(transfer TransferFunc, log *zap.Logger) *Collector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Collector{transfer: transfer, log: log}
}

// CollectAtomic validates, executes and reconciles a fee payment. On
// success the payer lost exactly c.Amount and the destination gained it.
// The accounts are locked in g for the duration when g is not nil.
func (col *Collector) CollectAtomic(ctx context.Context, v ledger.View, g *guard.Guard, c Collection) error {
	payer, err := v.Read(ctx, c.Payer)
	if err != nil {
		return err
	}
	var available uint64
	if payer != nil {
		available = payer.Balance
	}

	check := ValidatePayment(available, c.Amount, c.Context)
	if !check.IsValid {
		return result.Errorf(result.InsufficientFeeBalance, "%s", check.ErrorMessage)
	}
	if err := ValidateDestination(Destination{Key: c.Destination.Key, Writable: c.Writable}, c.Expected, c.Type); err != nil {
		return err
	}

	if g != nil {
		release, err := g.Enter(fmt.Sprintf("fee:%d", c.Context), c.Payer.Key, c.Destination.Key)
		if err != nil {
			return err
		}
		defer release()
	}

	payerBefore, err := ledger.Balance(ctx, v, c.Payer)
	if err != nil {
		return err
	}
	destBefore, err := ledger.Balance(ctx, v, c.Destination)
	if err != nil {
		return err
	}

	if err := col.transfer(ctx, v, c.Payer, c.Destination, c.Amount); err != nil {
		return result.Wrap(result.FeeCollectionFailed, err)
	}

	payerAfter, err := ledger.Balance(ctx, v, c.Payer)
	if err != nil {
		return err
	}
	destAfter, err := ledger.Balance(ctx, v, c.Destination)
	if err != nil {
		return err
	}

	if payerBefore < payerAfter || payerBefore-payerAfter != c.Amount {
		return col.mismatch(SidePayer, c.Amount, payerBefore, payerAfter)
	}
	if destAfter < destBefore || destAfter-destBefore != c.Amount {
		return col.mismatch(SideTreasury, c.Amount, destBefore, destAfter)
	}

	col.log.Debug("fee collected",
		zap.String("payer", c.Payer.Key.String()),
		zap.String("destination", c.Destination.Key.String()),
		zap.Uint64("amount", c.Amount),
		zap.Uint8("context", uint8(c.Context)))
	return nil
}

func (col *Collector) mismatch(side Side, amount, before, after uint64) error {
	err := &ReconciliationError{Side: side, Expected: amount, Before: before, After: after}
	col.log.Error("fee reconciliation failed", zap.Error(err))
	return result.Wrap(result.FeeCollectionFailed, err)
}
