// Package result defines the stable error codes surfaced by governance and
// treasury operations.
package result

import (
	"errors"
	"fmt"
)

// Code is a stable integer identifying one failure kind.
type Code int

// Codes are grouped by the failure taxonomy. Values are part of the external
// interface and must never be renumbered.
const (
	Success Code = 0

	// Economic and account failures
	InsufficientFunds   Code = 1003
	InvalidTokenAccount Code = 1004

	// Pool operation gates
	PoolPaused Code = 1007

	// Authorization
	Unauthorized Code = 1012

	ArithmeticOverflow Code = 1019

	// System state machine
	SystemPaused        Code = 1023
	SystemAlreadyPaused Code = 1024
	SystemNotPaused     Code = 1025
	UnauthorizedAccess  Code = 1026

	PoolSwapsPaused        Code = 1027
	PoolSwapsAlreadyPaused Code = 1028
	PoolSwapsNotPaused     Code = 1029

	// Fee validation and collection
	InsufficientFeeBalance   Code = 1030
	TreasuryValidationFailed Code = 1031
	FeeValidationFailed      Code = 1032
	FeeCollectionFailed      Code = 1033

	// Integrity
	ReentrancyDetected Code = 1034

	// Fee parameters
	InvalidFeeUpdateFlags Code = 1035
	UnauthorizedFeeUpdate Code = 1036
	InvalidFeeAmount      Code = 1037

	InvalidPauseFlags        Code = 1038
	MissingRequiredSignature Code = 1039

	// Lifecycle and records
	AlreadyInitialized         Code = 1040
	NotInitialized             Code = 1041
	PoolNotFound               Code = 1042
	ConsolidationBatchTooLarge Code = 1043
	WithdrawalLocked           Code = 1044
	InvalidAccountData         Code = 1045
	AccountFrozen              Code = 1046
)

// String returns the name of the code.
func (c Code) String() string {
	switch c {
	case Success:
		return "Success"
	case InsufficientFunds:
		return "InsufficientFunds"
	case InvalidTokenAccount:
		return "InvalidTokenAccount"
	case PoolPaused:
		return "PoolPaused"
	case Unauthorized:
		return "Unauthorized"
	case ArithmeticOverflow:
		return "ArithmeticOverflow"
	case SystemPaused:
		return "SystemPaused"
	case SystemAlreadyPaused:
		return "SystemAlreadyPaused"
	case SystemNotPaused:
		return "SystemNotPaused"
	case UnauthorizedAccess:
		return "UnauthorizedAccess"
	case PoolSwapsPaused:
		return "PoolSwapsPaused"
	case PoolSwapsAlreadyPaused:
		return "PoolSwapsAlreadyPaused"
	case PoolSwapsNotPaused:
		return "PoolSwapsNotPaused"
	case InsufficientFeeBalance:
		return "InsufficientFeeBalance"
	case TreasuryValidationFailed:
		return "TreasuryValidationFailed"
	case FeeValidationFailed:
		return "FeeValidationFailed"
	case FeeCollectionFailed:
		return "FeeCollectionFailed"
	case ReentrancyDetected:
		return "ReentrancyDetected"
	case InvalidFeeUpdateFlags:
		return "InvalidFeeUpdateFlags"
	case UnauthorizedFeeUpdate:
		return "UnauthorizedFeeUpdate"
	case InvalidFeeAmount:
		return "InvalidFeeAmount"
	case InvalidPauseFlags:
		return "InvalidPauseFlags"
	case MissingRequiredSignature:
		return "MissingRequiredSignature"
	case AlreadyInitialized:
		return "AlreadyInitialized"
	case NotInitialized:
		return "NotInitialized"
	case PoolNotFound:
		return "PoolNotFound"
	case ConsolidationBatchTooLarge:
		return "ConsolidationBatchTooLarge"
	case WithdrawalLocked:
		return "WithdrawalLocked"
	case InvalidAccountData:
		return "InvalidAccountData"
	case AccountFrozen:
		return "AccountFrozen"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// Message returns a human-readable message for the code.
func (c Code) Message() string {
	switch c {
	case Success:
		return "The operation was applied."
	case InsufficientFunds:
		return "Insufficient funds for the operation."
	case InvalidTokenAccount:
		return "Invalid token account state or configuration."
	case PoolPaused:
		return "Pool liquidity operations are currently paused."
	case Unauthorized:
		return "Signer is not authorized for this operation."
	case ArithmeticOverflow:
		return "Arithmetic overflow."
	case SystemPaused:
		return "System is paused - all operations blocked except unpause."
	case SystemAlreadyPaused:
		return "System is already paused."
	case SystemNotPaused:
		return "System is not paused."
	case UnauthorizedAccess:
		return "Unauthorized access to system controls."
	case PoolSwapsPaused:
		return "Pool swaps are currently paused."
	case PoolSwapsAlreadyPaused:
		return "Pool swaps are already paused."
	case PoolSwapsNotPaused:
		return "Pool swaps are not currently paused."
	case InsufficientFeeBalance:
		return "Payer balance does not cover the required fee."
	case TreasuryValidationFailed:
		return "Fee destination does not match the expected treasury."
	case FeeValidationFailed:
		return "Fee destination is not writable."
	case FeeCollectionFailed:
		return "Post-transfer fee reconciliation failed."
	case ReentrancyDetected:
		return "Unexpected account change detected during a guarded operation."
	case InvalidFeeUpdateFlags:
		return "Fee update flags must be 1 (liquidity), 2 (swap) or 3 (both)."
	case UnauthorizedFeeUpdate:
		return "Only the upgrade authority may update pool fees."
	case InvalidFeeAmount:
		return "Fee is outside the allowed range."
	case InvalidPauseFlags:
		return "Pause flags must be 1 (liquidity), 2 (swaps) or 3 (both)."
	case MissingRequiredSignature:
		return "A required signature is missing or invalid."
	case AlreadyInitialized:
		return "Governance state is already initialized."
	case NotInitialized:
		return "Governance state is not initialized."
	case PoolNotFound:
		return "Pool record does not exist."
	case ConsolidationBatchTooLarge:
		return "Too many pools in one consolidation batch."
	case WithdrawalLocked:
		return "Treasury withdrawals are locked after a system restart."
	case InvalidAccountData:
		return "Account data is invalid."
	case AccountFrozen:
		return "Account is frozen."
	default:
		return "Unknown error."
	}
}

// Error makes a bare code usable as an error value.
func (c Code) Error() string {
	return c.String()
}

// IsSuccess returns true if the code indicates success.
func (c Code) IsSuccess() bool {
	return c == Success
}

// IsAuthorization returns true for codes that reject the caller.
func (c Code) IsAuthorization() bool {
	switch c {
	case Unauthorized, UnauthorizedAccess, UnauthorizedFeeUpdate, MissingRequiredSignature:
		return true
	}
	return false
}

// IsStateConflict returns true for pause state machine conflicts.
func (c Code) IsStateConflict() bool {
	switch c {
	case SystemPaused, SystemAlreadyPaused, SystemNotPaused, PoolPaused,
		PoolSwapsPaused, PoolSwapsAlreadyPaused, PoolSwapsNotPaused, WithdrawalLocked:
		return true
	}
	return false
}

// IsEconomic returns true for fee and balance failures.
func (c Code) IsEconomic() bool {
	switch c {
	case InsufficientFunds, InsufficientFeeBalance, TreasuryValidationFailed,
		FeeValidationFailed, FeeCollectionFailed:
		return true
	}
	return false
}

// IsIntegrity returns true for codes treated as a potential attack.
func (c Code) IsIntegrity() bool {
	return c == ReentrancyDetected
}

// Error is a code with call-specific detail.
type Error struct {
	Code   Code
	Detail string
	Err    error
}

// Errorf builds an Error with a formatted detail.
func Errorf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Detail: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code to an underlying error.
func Wrap(code Code, err error) *Error {
	return &Error{Code: code, Err: err}
}

func (e *Error) Error() string {
	switch {
	case e.Detail != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Detail, e.Err)
	case e.Detail != "":
		return fmt.Sprintf("%s: %s", e.Code, e.Detail)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	default:
		return e.Code.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error or a bare Code with the same code.
func (e *Error) Is(target error) bool {
	switch t := target.(type) {
	case Code:
		return e.Code == t
	case *Error:
		return e.Code == t.Code
	}
	return false
}

// CodeOf extracts the code carried by err. Nil maps to Success and errors
// without a code map to -1.
func CodeOf(err error) Code {
	if err == nil {
		return Success
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var c Code
	if errors.As(err, &c) {
		return c
	}
	return -1
}
