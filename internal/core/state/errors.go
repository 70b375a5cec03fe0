package state

import "errors"

var (
	// ErrShortRecord is returned when a record buffer is too small to decode
	ErrShortRecord = errors.New("record too short")

	// ErrRecordTag is returned when a buffer holds a different record type
	ErrRecordTag = errors.New("record tag mismatch")

	// ErrInvalidOption is returned when an optional field has an invalid tag
	ErrInvalidOption = errors.New("invalid option tag")

	// ErrWithdrawalExceedsBalance is returned when recorded withdrawals would
	// exceed the tracked balance
	ErrWithdrawalExceedsBalance = errors.New("withdrawal exceeds tracked balance")
)
