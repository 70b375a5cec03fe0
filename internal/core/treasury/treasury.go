// Package treasury keeps the protocol treasury: its running ledger,
// withdrawals and the consolidation of fees accumulated in pools.
package treasury

import (
	"context"

	"go.uber.org/zap"

	"github.com/LeJamon/poolgovd/internal/core/guard"
	"github.com/LeJamon/poolgovd/internal/core/keylet"
	"github.com/LeJamon/poolgovd/internal/core/ledger"
	"github.com/LeJamon/poolgovd/internal/core/result"
	"github.com/LeJamon/poolgovd/internal/core/state"
)

// Config holds treasury policy.
type Config struct {
	// RentExemptMinimum is the reserved floor of a new treasury.
	RentExemptMinimum uint64 `toml:"rent_exempt_minimum" mapstructure:"rent_exempt_minimum"`
	// PoolRentExemptMinimum is the floor kept in each pool account.
	PoolRentExemptMinimum uint64 `toml:"pool_rent_exempt_minimum" mapstructure:"pool_rent_exempt_minimum"`
	// RestartPenalty locks withdrawals for this many seconds after an unpause.
	RestartPenalty int64 `toml:"restart_penalty" mapstructure:"restart_penalty"`
	// MaxPoolsPerConsolidation bounds a consolidation batch.
	MaxPoolsPerConsolidation int `toml:"max_pools_per_consolidation" mapstructure:"max_pools_per_consolidation"`
}

// DefaultConfig returns the default treasury policy.
func DefaultConfig() Config {
	return Config{
		RentExemptMinimum:        1_447_680,
		PoolRentExemptMinimum:    2_039_280,
		RestartPenalty:           0,
		MaxPoolsPerConsolidation: 20,
	}
}

// Treasury operates on the treasury account at Keylet.
type Treasury struct {
	Keylet keylet.Keylet
	Config Config
	Log    *zap.Logger
}

// New creates a treasury handle.
func New(k keylet.Keylet, cfg Config, log *zap.Logger) *Treasury {
	if log == nil {
		log = zap.NewNop()
	}
	return &Treasury{Keylet: k, Config: cfg, Log: log}
}

// Snapshot is the treasury account together with its decoded state.
type Snapshot struct {
	Account *state.Account
	State   *state.MainTreasuryState
	// Recovered is true when the stored record could not be decoded and
	// State was rebuilt from the account balance.
	Recovered bool
}

// Load reads the treasury. An undecodable record is rebuilt from the
// account's observed balance instead of failing.
func (t *Treasury) Load(ctx context.Context, v ledger.View, now int64) (*Snapshot, error) {
	a, err := v.Read(ctx, t.Keylet)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, result.Errorf(result.NotInitialized, "treasury %s not found", t.Keylet.Key)
	}

	s, err := state.DecodeMainTreasuryState(a.Data)
	if err != nil {
		t.Log.Warn("treasury record unreadable, rebuilding from balance",
			zap.String("treasury", t.Keylet.Key.String()),
			zap.Uint64("balance", a.Balance),
			zap.Error(err))
		return &Snapshot{
			Account:   a,
			State:     state.RecoverMainTreasuryState(a.Balance, t.Config.RentExemptMinimum, now),
			Recovered: true,
		}, nil
	}
	return &Snapshot{Account: a, State: s}, nil
}

// Save writes the state back into the treasury account, leaving its
// balance as currently held in v.
func (t *Treasury) Save(ctx context.Context, v ledger.View, s *state.MainTreasuryState) error {
	a, err := v.Read(ctx, t.Keylet)
	if err != nil {
		return err
	}
	if a == nil {
		return result.Errorf(result.NotInitialized, "treasury %s not found", t.Keylet.Key)
	}
	data, err := s.Encode()
	if err != nil {
		return err
	}
	a.Data = data
	return v.Update(ctx, t.Keylet, a)
}

// RecordPoolCreationFee books a pool-creation fee already moved into the
// treasury account.
func (t *Treasury) RecordPoolCreationFee(ctx context.Context, v ledger.View, amount uint64, now int64) error {
	snap, err := t.Load(ctx, v, now)
	if err != nil {
		return err
	}
	snap.State.AddPoolCreationFee(amount, now)
	snap.State.SyncBalance(snap.Account.Balance)
	return t.Save(ctx, v, snap.State)
}

// ApplyRestartPenalty locks withdrawals after a restart when a penalty is
// configured.
func (t *Treasury) ApplyRestartPenalty(ctx context.Context, v ledger.View, now int64) error {
	if t.Config.RestartPenalty <= 0 {
		return nil
	}
	snap, err := t.Load(ctx, v, now)
	if err != nil {
		return err
	}
	snap.State.ApplyRestartPenalty(now, t.Config.RestartPenalty)
	t.Log.Info("restart penalty applied",
		zap.Int64("locked_until", snap.State.LastWithdrawalTimestamp))
	return t.Save(ctx, v, snap.State)
}

// WithdrawResult reports a completed withdrawal.
type WithdrawResult struct {
	Amount    uint64 `json:"amount"`
	Available uint64 `json:"available"`
	Remaining uint64 `json:"remaining"`
}

// Withdraw moves requested (zero meaning everything available) from the
// treasury to dest. The reserved floor never leaves the treasury.
func (t *Treasury) Withdraw(ctx context.Context, v ledger.View, g *guard.Guard, dest keylet.Keylet, requested uint64, now int64) (WithdrawResult, error) {
	snap, err := t.Load(ctx, v, now)
	if err != nil {
		return WithdrawResult{}, err
	}
	s := snap.State

	if until := s.WithdrawalLockedUntil(now); until != 0 {
		return WithdrawResult{}, result.Errorf(result.WithdrawalLocked, "locked for %d more seconds", until-now)
	}

	available := s.AvailableForWithdrawal(snap.Account.Balance)
	amount := requested
	if amount == 0 {
		amount = available
	}
	if amount == 0 {
		return WithdrawResult{}, result.Errorf(result.InsufficientFunds, "no funds available for withdrawal")
	}
	if amount > available {
		return WithdrawResult{}, result.Errorf(result.InsufficientFunds, "requested %d exceeds available %d", amount, available)
	}

	exists, err := v.Exists(ctx, dest)
	if err != nil {
		return WithdrawResult{}, err
	}
	if !exists {
		if err := v.Insert(ctx, dest, state.NewAccount(dest.Key, 0)); err != nil {
			return WithdrawResult{}, err
		}
	}

	if err := g.Transfer(ctx, v, t.Keylet, dest, amount, "treasury_withdrawal", nil); err != nil {
		return WithdrawResult{}, err
	}

	balance, err := ledger.Balance(ctx, v, t.Keylet)
	if err != nil {
		return WithdrawResult{}, err
	}
	s.SyncBalance(snap.Account.Balance)
	if err := s.RecordWithdrawal(amount, now); err != nil {
		return WithdrawResult{}, result.Wrap(result.ArithmeticOverflow, err)
	}
	s.SyncBalance(balance)

	if err := t.Save(ctx, v, s); err != nil {
		return WithdrawResult{}, err
	}

	t.Log.Info("treasury withdrawal",
		zap.String("destination", dest.Key.String()),
		zap.Uint64("amount", amount),
		zap.Uint64("remaining", balance))
	return WithdrawResult{Amount: amount, Available: available, Remaining: balance}, nil
}
