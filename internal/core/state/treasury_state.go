package state

import (
	"math"

	"github.com/holiman/uint256"
)

// MainTreasuryState is the running ledger of the protocol treasury.
//
// TotalBalance mirrors the treasury account's held value after every
// mutation; callers sync it from the account rather than trusting deltas.
type MainTreasuryState struct {
	TotalBalance      uint64 `codec:"total_balance"`
	TotalWithdrawn    uint64 `codec:"total_withdrawn"`
	RentExemptMinimum uint64 `codec:"rent_exempt_minimum"`

	PoolCreationCount       uint64 `codec:"pool_creation_count"`
	LiquidityOperationCount uint64 `codec:"liquidity_operation_count"`
	SwapCount               uint64 `codec:"swap_count"`

	TotalPoolCreationFees uint64 `codec:"total_pool_creation_fees"`
	TotalLiquidityFees    uint64 `codec:"total_liquidity_fees"`
	TotalSwapFees         uint64 `codec:"total_swap_fees"`

	TreasuryWithdrawalCount      uint64 `codec:"treasury_withdrawal_count"`
	TotalConsolidationsPerformed uint64 `codec:"total_consolidations_performed"`
	LastConsolidationTimestamp   int64  `codec:"last_consolidation_timestamp"`
	FailedOperationCount         uint64 `codec:"failed_operation_count"`
	LastUpdateTimestamp          int64  `codec:"last_update_timestamp"`

	// LastWithdrawalTimestamp may lie in the future while a restart
	// penalty is active.
	LastWithdrawalTimestamp int64 `codec:"last_withdrawal_timestamp"`
}

// NewMainTreasuryState returns a zeroed treasury reserving rentExemptMinimum.
func NewMainTreasuryState(rentExemptMinimum uint64, now int64) *MainTreasuryState {
	return &MainTreasuryState{
		RentExemptMinimum:   rentExemptMinimum,
		LastUpdateTimestamp: now,
	}
}

// RecoverMainTreasuryState rebuilds a treasury whose record could not be
// decoded. Counters restart at zero and the balance is seeded from the
// account's observed value.
func RecoverMainTreasuryState(observedBalance, rentExemptMinimum uint64, now int64) *MainTreasuryState {
	s := NewMainTreasuryState(rentExemptMinimum, now)
	s.TotalBalance = observedBalance
	return s
}

// Encode serializes the treasury record.
func (s *MainTreasuryState) Encode() ([]byte, error) {
	return encodeRecord(recordTreasury, s)
}

// DecodeMainTreasuryState parses a treasury record.
func DecodeMainTreasuryState(data []byte) (*MainTreasuryState, error) {
	var s MainTreasuryState
	if err := decodeRecord(recordTreasury, data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// AddPoolCreationFee records a collected pool-creation fee.
func (s *MainTreasuryState) AddPoolCreationFee(amount uint64, now int64) {
	s.PoolCreationCount = saturatingAdd(s.PoolCreationCount, 1)
	s.TotalPoolCreationFees = saturatingAdd(s.TotalPoolCreationFees, amount)
	s.LastUpdateTimestamp = now
}

// AddLiquidityFees records consolidated liquidity fees for ops operations.
func (s *MainTreasuryState) AddLiquidityFees(amount, ops uint64, now int64) {
	s.LiquidityOperationCount = saturatingAdd(s.LiquidityOperationCount, ops)
	s.TotalLiquidityFees = saturatingAdd(s.TotalLiquidityFees, amount)
	s.LastUpdateTimestamp = now
}

// AddSwapFees records consolidated swap fees for ops operations.
func (s *MainTreasuryState) AddSwapFees(amount, ops uint64, now int64) {
	s.SwapCount = saturatingAdd(s.SwapCount, ops)
	s.TotalSwapFees = saturatingAdd(s.TotalSwapFees, amount)
	s.LastUpdateTimestamp = now
}

// SyncBalance sets TotalBalance to the account's observed value.
func (s *MainTreasuryState) SyncBalance(accountBalance uint64) {
	s.TotalBalance = accountBalance
}

// AvailableForWithdrawal returns the balance above the reserved floor.
func (s *MainTreasuryState) AvailableForWithdrawal(accountBalance uint64) uint64 {
	if accountBalance <= s.RentExemptMinimum {
		return 0
	}
	return accountBalance - s.RentExemptMinimum
}

// RecordWithdrawal books a completed withdrawal.
func (s *MainTreasuryState) RecordWithdrawal(amount uint64, now int64) error {
	if amount > s.TotalBalance {
		return ErrWithdrawalExceedsBalance
	}
	s.TotalBalance -= amount
	s.TotalWithdrawn = saturatingAdd(s.TotalWithdrawn, amount)
	s.TreasuryWithdrawalCount = saturatingAdd(s.TreasuryWithdrawalCount, 1)
	s.LastWithdrawalTimestamp = now
	s.LastUpdateTimestamp = now
	return nil
}

// RecordConsolidation books a consolidation batch.
func (s *MainTreasuryState) RecordConsolidation(now int64) {
	s.TotalConsolidationsPerformed = saturatingAdd(s.TotalConsolidationsPerformed, 1)
	s.LastConsolidationTimestamp = now
	s.LastUpdateTimestamp = now
}

// RecordFailedOperation counts an operation skipped for safety.
func (s *MainTreasuryState) RecordFailedOperation(now int64) {
	s.FailedOperationCount = saturatingAdd(s.FailedOperationCount, 1)
	s.LastUpdateTimestamp = now
}

// ApplyRestartPenalty blocks withdrawals until now+penalty seconds.
func (s *MainTreasuryState) ApplyRestartPenalty(now, penalty int64) {
	s.LastWithdrawalTimestamp = now + penalty
	s.LastUpdateTimestamp = now
}

// WithdrawalLockedUntil returns the end of an active restart penalty, or
// zero when withdrawals are open at now.
func (s *MainTreasuryState) WithdrawalLockedUntil(now int64) int64 {
	if s.LastWithdrawalTimestamp > now {
		return s.LastWithdrawalTimestamp
	}
	return 0
}

// TotalFeesCollected sums all fee categories, clamped to uint64.
func (s *MainTreasuryState) TotalFeesCollected() uint64 {
	return clampedSum(s.TotalPoolCreationFees, s.TotalLiquidityFees, s.TotalSwapFees)
}

// TotalOperationsProcessed sums all operation counters, clamped to uint64.
func (s *MainTreasuryState) TotalOperationsProcessed() uint64 {
	return clampedSum(s.PoolCreationCount, s.LiquidityOperationCount, s.SwapCount)
}

// AverageFeePerOperation returns zero when no operations were processed.
func (s *MainTreasuryState) AverageFeePerOperation() float64 {
	ops := s.TotalOperationsProcessed()
	if ops == 0 {
		return 0
	}
	return float64(s.TotalFeesCollected()) / float64(ops)
}

// SuccessRate is the share of processed operations that were not skipped.
func (s *MainTreasuryState) SuccessRate() float64 {
	ops := float64(s.TotalOperationsProcessed())
	total := ops + float64(s.FailedOperationCount)
	if total == 0 {
		return 1
	}
	return ops / total
}

func saturatingAdd(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}

func clampedSum(values ...uint64) uint64 {
	sum := new(uint256.Int)
	for _, v := range values {
		sum.Add(sum, uint256.NewInt(v))
	}
	if !sum.IsUint64() {
		return math.MaxUint64
	}
	return sum.Uint64()
}
