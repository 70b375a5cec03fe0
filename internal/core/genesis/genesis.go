// Package genesis seeds an empty ledger with the platform record and the
// initial account balances.
package genesis

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/LeJamon/poolgovd/internal/core/keylet"
	"github.com/LeJamon/poolgovd/internal/core/ledger"
	"github.com/LeJamon/poolgovd/internal/core/state"
)

// ErrAlreadySeeded is returned when the platform record already exists.
var ErrAlreadySeeded = errors.New("ledger already has a platform record")

// Allocation funds one account at genesis.
type Allocation struct {
	Account solana.PublicKey `toml:"account" mapstructure:"account"`
	Balance uint64           `toml:"balance" mapstructure:"balance"`
}

// Config describes the genesis ledger.
type Config struct {
	ProgramID solana.PublicKey
	LoaderID  solana.PublicKey
	// UpgradeAuthority is recorded in the platform record; nil marks the
	// program immutable.
	UpgradeAuthority *solana.PublicKey
	Slot             uint64
	Allocations      []Allocation
}

// DefaultConfig returns a genesis for programID under the upgradeable loader.
func DefaultConfig(programID solana.PublicKey, upgradeAuthority *solana.PublicKey) Config {
	return Config{
		ProgramID:        programID,
		LoaderID:         solana.BPFLoaderUpgradeableProgramID,
		UpgradeAuthority: upgradeAuthority,
	}
}

// Result lists what Create wrote.
type Result struct {
	PlatformRecord solana.PublicKey
	Funded         int
	TotalSupply    uint64
}

// Create writes the platform record and the allocations to base in a single
// batch.
func Create(ctx context.Context, base ledger.Base, cfg Config) (*Result, error) {
	if cfg.ProgramID.IsZero() {
		return nil, fmt.Errorf("genesis: program id is required")
	}

	sb := ledger.NewSandbox(base)
	pk := keylet.PlatformData(cfg.LoaderID, cfg.ProgramID)
	exists, err := sb.Exists(ctx, pk)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadySeeded
	}

	record := &state.PlatformData{Slot: cfg.Slot, UpgradeAuthority: cfg.UpgradeAuthority}
	if err := sb.Insert(ctx, pk, &state.Account{Owner: cfg.LoaderID, Data: record.Encode()}); err != nil {
		return nil, err
	}

	res := &Result{PlatformRecord: pk.Key}
	for _, alloc := range cfg.Allocations {
		if err := ledger.Credit(ctx, sb, keylet.Account(alloc.Account), alloc.Balance); err != nil {
			return nil, fmt.Errorf("genesis: funding %s: %w", alloc.Account, err)
		}
		res.Funded++
		res.TotalSupply += alloc.Balance
	}

	if err := sb.Apply(ctx); err != nil {
		return nil, err
	}
	return res, nil
}
