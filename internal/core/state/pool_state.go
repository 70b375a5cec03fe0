package state

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Pool flag bits.
const (
	PoolFlagOneToMany         uint8 = 1 << 0
	PoolFlagLiquidityPaused   uint8 = 1 << 1
	PoolFlagSwapsPaused       uint8 = 1 << 2
	PoolFlagWithdrawalProtect uint8 = 1 << 3
	PoolFlagSingleLPTokenMode uint8 = 1 << 4
	poolFlagsPauseMask        uint8 = PoolFlagLiquidityPaused | PoolFlagSwapsPaused
)

// PoolState is the governance-relevant part of a pool record. Fees charged
// to pool users accumulate in the pool account until consolidated into the
// treasury.
type PoolState struct {
	PoolID solana.PublicKey `codec:"pool_id"`
	Owner  solana.PublicKey `codec:"owner"`
	Flags  uint8            `codec:"flags"`

	LiquidityFee uint64 `codec:"liquidity_fee"`
	SwapFee      uint64 `codec:"swap_fee"`

	CollectedLiquidityFees uint64 `codec:"collected_liquidity_fees"`
	CollectedSwapFees      uint64 `codec:"collected_swap_fees"`
	PendingLiquidityOps    uint64 `codec:"pending_liquidity_ops"`
	PendingSwapOps         uint64 `codec:"pending_swap_ops"`

	TotalFeesCollected         uint64 `codec:"total_fees_collected"`
	TotalFeesConsolidated      uint64 `codec:"total_fees_consolidated"`
	TotalConsolidations        uint64 `codec:"total_consolidations"`
	LastConsolidationTimestamp int64  `codec:"last_consolidation_timestamp"`
	CreatedAt                  int64  `codec:"created_at"`
}

// Encode serializes the pool record.
func (p *PoolState) Encode() ([]byte, error) {
	return encodeRecord(recordPool, p)
}

// DecodePoolState parses a pool record.
func DecodePoolState(data []byte) (*PoolState, error) {
	var p PoolState
	if err := decodeRecord(recordPool, data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// LiquidityPaused reports whether deposits and withdrawals are suspended.
func (p *PoolState) LiquidityPaused() bool {
	return p.Flags&PoolFlagLiquidityPaused != 0
}

// SwapsPaused reports whether trading is suspended.
func (p *PoolState) SwapsPaused() bool {
	return p.Flags&PoolFlagSwapsPaused != 0
}

// ConsolidationEligible reports whether both liquidity and swaps are paused.
func (p *PoolState) ConsolidationEligible() bool {
	return p.Flags&poolFlagsPauseMask == poolFlagsPauseMask
}

// PendingFees is the value collected but not yet consolidated.
func (p *PoolState) PendingFees() uint64 {
	return saturatingAdd(p.CollectedLiquidityFees, p.CollectedSwapFees)
}

// RecordLiquidityFee books a collected liquidity-operation fee.
func (p *PoolState) RecordLiquidityFee(amount uint64) {
	p.CollectedLiquidityFees = saturatingAdd(p.CollectedLiquidityFees, amount)
	p.PendingLiquidityOps = saturatingAdd(p.PendingLiquidityOps, 1)
	p.TotalFeesCollected = saturatingAdd(p.TotalFeesCollected, amount)
}

// RecordSwapFee books a collected swap fee.
func (p *PoolState) RecordSwapFee(amount uint64) {
	p.CollectedSwapFees = saturatingAdd(p.CollectedSwapFees, amount)
	p.PendingSwapOps = saturatingAdd(p.PendingSwapOps, 1)
	p.TotalFeesCollected = saturatingAdd(p.TotalFeesCollected, amount)
}

// AvailableForConsolidation returns how much of the pending fees can leave
// the pool account without dropping it below rentExemptMinimum.
func (p *PoolState) AvailableForConsolidation(accountBalance, rentExemptMinimum uint64) uint64 {
	if accountBalance <= rentExemptMinimum {
		return 0
	}
	spare := accountBalance - rentExemptMinimum
	if pending := p.PendingFees(); pending < spare {
		return pending
	}
	return spare
}

// ValidateFeeConsistency checks that every collected fee is either pending
// or consolidated.
func (p *PoolState) ValidateFeeConsistency() error {
	accounted := saturatingAdd(p.TotalFeesConsolidated, p.PendingFees())
	if accounted != p.TotalFeesCollected {
		return fmt.Errorf("pool %s: collected %d but pending+consolidated is %d",
			p.PoolID, p.TotalFeesCollected, accounted)
	}
	return nil
}
