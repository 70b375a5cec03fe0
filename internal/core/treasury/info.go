package treasury

import (
	"context"

	"github.com/LeJamon/poolgovd/internal/core/ledger"
)

// Info is the read-only analytics view of the treasury.
type Info struct {
	Address           string `json:"address"`
	AccountBalance    uint64 `json:"account_balance"`
	TotalBalance      uint64 `json:"total_balance"`
	TotalWithdrawn    uint64 `json:"total_withdrawn"`
	RentExemptMinimum uint64 `json:"rent_exempt_minimum"`
	Available         uint64 `json:"available_for_withdrawal"`

	PoolCreationCount       uint64 `json:"pool_creation_count"`
	LiquidityOperationCount uint64 `json:"liquidity_operation_count"`
	SwapCount               uint64 `json:"swap_count"`
	TotalPoolCreationFees   uint64 `json:"total_pool_creation_fees"`
	TotalLiquidityFees      uint64 `json:"total_liquidity_fees"`
	TotalSwapFees           uint64 `json:"total_swap_fees"`

	TreasuryWithdrawalCount      uint64 `json:"treasury_withdrawal_count"`
	TotalConsolidationsPerformed uint64 `json:"total_consolidations_performed"`
	LastConsolidationTimestamp   int64  `json:"last_consolidation_timestamp"`
	FailedOperationCount         uint64 `json:"failed_operation_count"`
	LastUpdateTimestamp          int64  `json:"last_update_timestamp"`
	WithdrawalLockedUntil        int64  `json:"withdrawal_locked_until,omitempty"`

	TotalFeesCollected       uint64  `json:"total_fees_collected"`
	TotalOperationsProcessed uint64  `json:"total_operations_processed"`
	AverageFeePerOperation   float64 `json:"average_fee_per_operation"`
	SuccessRate              float64 `json:"success_rate"`

	Recovered bool `json:"recovered,omitempty"`
}

// Info loads the treasury and derives its analytics without writing.
func (t *Treasury) Info(ctx context.Context, v ledger.View, now int64) (*Info, error) {
	snap, err := t.Load(ctx, v, now)
	if err != nil {
		return nil, err
	}
	s := snap.State
	return &Info{
		Address:                      t.Keylet.Key.String(),
		AccountBalance:               snap.Account.Balance,
		TotalBalance:                 s.TotalBalance,
		TotalWithdrawn:               s.TotalWithdrawn,
		RentExemptMinimum:            s.RentExemptMinimum,
		Available:                    s.AvailableForWithdrawal(snap.Account.Balance),
		PoolCreationCount:            s.PoolCreationCount,
		LiquidityOperationCount:      s.LiquidityOperationCount,
		SwapCount:                    s.SwapCount,
		TotalPoolCreationFees:        s.TotalPoolCreationFees,
		TotalLiquidityFees:           s.TotalLiquidityFees,
		TotalSwapFees:                s.TotalSwapFees,
		TreasuryWithdrawalCount:      s.TreasuryWithdrawalCount,
		TotalConsolidationsPerformed: s.TotalConsolidationsPerformed,
		LastConsolidationTimestamp:   s.LastConsolidationTimestamp,
		FailedOperationCount:         s.FailedOperationCount,
		LastUpdateTimestamp:          s.LastUpdateTimestamp,
		WithdrawalLockedUntil:        s.WithdrawalLockedUntil(now),
		TotalFeesCollected:           s.TotalFeesCollected(),
		TotalOperationsProcessed:     s.TotalOperationsProcessed(),
		AverageFeePerOperation:       s.AverageFeePerOperation(),
		SuccessRate:                  s.SuccessRate(),
		Recovered:                    snap.Recovered,
	}, nil
}
