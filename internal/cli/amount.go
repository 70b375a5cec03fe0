package cli

import (
	"fmt"

	"github.com/holiman/uint256"
)

// parseAmount parses a decimal or 0x-prefixed amount and rejects values
// that do not fit in 64 bits.
func parseAmount(s string) (uint64, error) {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		if v, err = uint256.FromHex(s); err != nil {
			return 0, fmt.Errorf("invalid amount %q", s)
		}
	}
	if !v.IsUint64() {
		return 0, fmt.Errorf("amount %s overflows 64 bits", s)
	}
	return v.Uint64(), nil
}
