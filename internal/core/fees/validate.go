// Package fees implements the fees-first collection protocol: payment is
// validated and collected before the action it pays for runs.
package fees

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/LeJamon/poolgovd/internal/core/result"
)

// Context identifies what a fee pays for in validation messages.
type Context uint8

const (
	ContextPoolCreation Context = 1
	ContextLiquidity    Context = 2
	ContextSwap         Context = 3
)

// DestinationType identifies the kind of account receiving a fee.
type DestinationType uint8

const (
	DestinationMainTreasury DestinationType = 0
	DestinationPool         DestinationType = 1
)

// ValidationResult is the outcome of a pre-flight affordability check.
type ValidationResult struct {
	IsValid          bool
	AvailableBalance uint64
	RequiredAmount   uint64
	ErrorMessage     string
}

// ValidatePayment checks that available covers required. It has no side
// effects.
func ValidatePayment(available, required uint64, context Context) ValidationResult {
	r := ValidationResult{
		IsValid:          available >= required,
		AvailableBalance: available,
		RequiredAmount:   required,
	}
	if !r.IsValid {
		r.ErrorMessage = fmt.Sprintf("Insufficient balance for context %d: required %d lamports, available %d lamports",
			context, required, available)
	}
	return r
}

// Destination is the account a fee is paid into, as supplied by the caller.
type Destination struct {
	Key      solana.PublicKey
	Writable bool
}

// ValidateDestination checks that dst is the expected address and writable.
func ValidateDestination(dst Destination, expected solana.PublicKey, kind DestinationType) error {
	if dst.Key != expected {
		return result.Errorf(result.TreasuryValidationFailed, "expected %s, provided %s (type %d)", expected, dst.Key, kind)
	}
	if !dst.Writable {
		return result.Errorf(result.FeeValidationFailed, "destination for type %d is not writable", kind)
	}
	return nil
}
