package state

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// SystemStateLen is the fixed encoded size of SystemState:
// pause flag (1) + pause timestamp (8) + reason code (1) + admin (32) +
// optional pending admin (1+32) + admin change timestamp (8).
const SystemStateLen = 1 + 8 + 1 + 32 + 33 + 8

// SystemState is the singleton governance record.
//
// PendingAdminAuthority is nil exactly when AdminChangeTimestamp is zero.
type SystemState struct {
	IsPaused              bool
	PauseTimestamp        int64
	PauseReasonCode       uint8
	AdminAuthority        solana.PublicKey
	PendingAdminAuthority *solana.PublicKey
	AdminChangeTimestamp  int64
}

// NewSystemState returns an active state administered by admin.
func NewSystemState(admin solana.PublicKey) *SystemState {
	return &SystemState{AdminAuthority: admin}
}

// HasPendingAdminChange reports whether an admin rotation is in progress.
func (s *SystemState) HasPendingAdminChange() bool {
	return s.PendingAdminAuthority != nil
}

// Encode serializes the state into its fixed little-endian layout.
func (s *SystemState) Encode() []byte {
	buf := make([]byte, SystemStateLen)
	off := 0

	if s.IsPaused {
		buf[off] = 1
	}
	off++
	binary.LittleEndian.PutUint64(buf[off:], uint64(s.PauseTimestamp))
	off += 8
	buf[off] = s.PauseReasonCode
	off++
	copy(buf[off:], s.AdminAuthority[:])
	off += 32
	if s.PendingAdminAuthority != nil {
		buf[off] = 1
		copy(buf[off+1:], s.PendingAdminAuthority[:])
	}
	off += 33
	binary.LittleEndian.PutUint64(buf[off:], uint64(s.AdminChangeTimestamp))

	return buf
}

// DecodeSystemState parses the fixed layout. Trailing bytes are rejected so
// that storage sized for a different layout is detected.
func DecodeSystemState(data []byte) (*SystemState, error) {
	if len(data) != SystemStateLen {
		return nil, fmt.Errorf("system state: expected %d bytes, got %d: %w", SystemStateLen, len(data), ErrShortRecord)
	}

	s := &SystemState{}
	off := 0

	switch data[off] {
	case 0:
	case 1:
		s.IsPaused = true
	default:
		return nil, fmt.Errorf("system state: invalid pause flag %d", data[off])
	}
	off++
	s.PauseTimestamp = int64(binary.LittleEndian.Uint64(data[off:]))
	off += 8
	s.PauseReasonCode = data[off]
	off++
	copy(s.AdminAuthority[:], data[off:off+32])
	off += 32
	switch data[off] {
	case 0:
	case 1:
		var pending solana.PublicKey
		copy(pending[:], data[off+1:off+33])
		s.PendingAdminAuthority = &pending
	default:
		return nil, fmt.Errorf("system state: pending admin tag %d: %w", data[off], ErrInvalidOption)
	}
	off += 33
	s.AdminChangeTimestamp = int64(binary.LittleEndian.Uint64(data[off:]))

	return s, nil
}
