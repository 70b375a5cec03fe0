package fees

import (
	"fmt"

	"github.com/LeJamon/poolgovd/internal/core/result"
)

// Default fee amounts in the smallest currency unit.
const (
	DefaultPoolCreationFee uint64 = 1_150_000_000
	DefaultLiquidityFee    uint64 = 1_300_000
	DefaultSwapFee         uint64 = 12_500

	DefaultMinLiquidityFee uint64 = 100_000
	DefaultMaxLiquidityFee uint64 = 100_000_000
	DefaultMinSwapFee      uint64 = 1_000
	DefaultMaxSwapFee      uint64 = 10_000_000
)

// Fee update flags.
const (
	UpdateLiquidity uint8 = 1
	UpdateSwap      uint8 = 2
	UpdateBoth      uint8 = UpdateLiquidity | UpdateSwap
)

// Kind is a chargeable operation category.
type Kind uint8

const (
	KindPoolCreation Kind = iota
	KindLiquidity
	KindSwap
)

func (k Kind) String() string {
	switch k {
	case KindPoolCreation:
		return "pool_creation"
	case KindLiquidity:
		return "liquidity"
	case KindSwap:
		return "swap"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Context returns the validation context of the kind.
func (k Kind) Context() Context {
	switch k {
	case KindLiquidity:
		return ContextLiquidity
	case KindSwap:
		return ContextSwap
	default:
		return ContextPoolCreation
	}
}

// ParseKind parses a kind name.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "pool_creation", "pool-creation":
		return KindPoolCreation, nil
	case "liquidity":
		return KindLiquidity, nil
	case "swap":
		return KindSwap, nil
	default:
		return 0, fmt.Errorf("unknown fee kind %q", s)
	}
}

// Schedule holds the fee amounts charged by the protocol and the bounds
// for per-pool fee updates.
type Schedule struct {
	PoolCreation uint64 `toml:"pool_creation" mapstructure:"pool_creation"`
	Liquidity    uint64 `toml:"liquidity" mapstructure:"liquidity"`
	Swap         uint64 `toml:"swap" mapstructure:"swap"`

	MinLiquidity uint64 `toml:"min_liquidity" mapstructure:"min_liquidity"`
	MaxLiquidity uint64 `toml:"max_liquidity" mapstructure:"max_liquidity"`
	MinSwap      uint64 `toml:"min_swap" mapstructure:"min_swap"`
	MaxSwap      uint64 `toml:"max_swap" mapstructure:"max_swap"`
}

// DefaultSchedule returns the protocol defaults.
func DefaultSchedule() Schedule {
	return Schedule{
		PoolCreation: DefaultPoolCreationFee,
		Liquidity:    DefaultLiquidityFee,
		Swap:         DefaultSwapFee,
		MinLiquidity: DefaultMinLiquidityFee,
		MaxLiquidity: DefaultMaxLiquidityFee,
		MinSwap:      DefaultMinSwapFee,
		MaxSwap:      DefaultMaxSwapFee,
	}
}

// Validate checks that the defaults lie within their bounds.
func (s Schedule) Validate() error {
	if s.MinLiquidity > s.MaxLiquidity {
		return fmt.Errorf("min_liquidity %d exceeds max_liquidity %d", s.MinLiquidity, s.MaxLiquidity)
	}
	if s.MinSwap > s.MaxSwap {
		return fmt.Errorf("min_swap %d exceeds max_swap %d", s.MinSwap, s.MaxSwap)
	}
	if s.Liquidity < s.MinLiquidity || s.Liquidity > s.MaxLiquidity {
		return fmt.Errorf("liquidity fee %d outside [%d, %d]", s.Liquidity, s.MinLiquidity, s.MaxLiquidity)
	}
	if s.Swap < s.MinSwap || s.Swap > s.MaxSwap {
		return fmt.Errorf("swap fee %d outside [%d, %d]", s.Swap, s.MinSwap, s.MaxSwap)
	}
	return nil
}

// ValidateUpdate checks a per-pool fee update. Only the fees selected by
// flags are checked.
func (s Schedule) ValidateUpdate(flags uint8, liquidityFee, swapFee uint64) error {
	switch flags {
	case UpdateLiquidity, UpdateSwap, UpdateBoth:
	default:
		return result.Errorf(result.InvalidFeeUpdateFlags, "flags %d", flags)
	}

	if flags&UpdateLiquidity != 0 && (liquidityFee < s.MinLiquidity || liquidityFee > s.MaxLiquidity) {
		return result.Errorf(result.InvalidFeeAmount, "liquidity fee %d outside [%d, %d]",
			liquidityFee, s.MinLiquidity, s.MaxLiquidity)
	}
	if flags&UpdateSwap != 0 && (swapFee < s.MinSwap || swapFee > s.MaxSwap) {
		return result.Errorf(result.InvalidFeeAmount, "swap fee %d outside [%d, %d]",
			swapFee, s.MinSwap, s.MaxSwap)
	}
	return nil
}
