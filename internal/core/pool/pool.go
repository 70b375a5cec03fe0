// Package pool manages the governance flags and fees of individual pools.
package pool

import (
	"github.com/LeJamon/poolgovd/internal/core/fees"
	"github.com/LeJamon/poolgovd/internal/core/result"
	"github.com/LeJamon/poolgovd/internal/core/state"
)

// Pause flag arguments accepted by PausePool and UnpausePool.
const (
	PauseLiquidity uint8 = 1
	PauseSwaps     uint8 = 2
	PauseBoth      uint8 = PauseLiquidity | PauseSwaps
)

// Operation names reported by SetFlags.
const (
	OpLiquidity = "liquidity"
	OpSwaps     = "swaps"
)

// PoolBits maps a pause argument to the pool flag bits it controls.
func PoolBits(flags uint8) (uint8, error) {
	var bits uint8
	switch flags {
	case PauseLiquidity:
		bits = state.PoolFlagLiquidityPaused
	case PauseSwaps:
		bits = state.PoolFlagSwapsPaused
	case PauseBoth:
		bits = state.PoolFlagLiquidityPaused | state.PoolFlagSwapsPaused
	default:
		return 0, result.Errorf(result.InvalidPauseFlags, "flags %d", flags)
	}
	return bits, nil
}

// SetFlags sets every bit of mask to value. Bits already at value are left
// alone. The returned names list the operations whose bit changed; an empty
// list is a successful no-op.
func SetFlags(p *state.PoolState, mask uint8, value bool) []string {
	changed := []string{}
	for _, b := range []struct {
		bit  uint8
		name string
	}{
		{state.PoolFlagLiquidityPaused, OpLiquidity},
		{state.PoolFlagSwapsPaused, OpSwaps},
	} {
		if mask&b.bit == 0 {
			continue
		}
		current := p.Flags&b.bit != 0
		if current == value {
			continue
		}
		if value {
			p.Flags |= b.bit
		} else {
			p.Flags &^= b.bit
		}
		changed = append(changed, b.name)
	}
	return changed
}

// RequireOperational checks that the pool accepts an operation of the
// given kind.
func RequireOperational(p *state.PoolState, swap bool) error {
	if swap {
		if p.SwapsPaused() {
			return result.Errorf(result.PoolSwapsPaused, "pool %s", p.PoolID)
		}
		return nil
	}
	if p.LiquidityPaused() {
		return result.Errorf(result.PoolPaused, "pool %s", p.PoolID)
	}
	return nil
}

// UpdateFees applies a validated fee update selected by flags.
func UpdateFees(p *state.PoolState, flags uint8, liquidityFee, swapFee uint64) {
	if flags&fees.UpdateLiquidity != 0 {
		p.LiquidityFee = liquidityFee
	}
	if flags&fees.UpdateSwap != 0 {
		p.SwapFee = swapFee
	}
}
