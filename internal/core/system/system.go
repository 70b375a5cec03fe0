// Package system implements the global pause switch and the timelocked
// admin rotation.
package system

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/LeJamon/poolgovd/internal/core/result"
	"github.com/LeJamon/poolgovd/internal/core/state"
)

// AdminChangeTimelock is the minimum wait in seconds between the latest
// proposal of an admin and its commit.
const AdminChangeTimelock int64 = 259200

// Pause stops the system. The reason code is recorded as given.
func Pause(s *state.SystemState, reasonCode uint8, now int64) error {
	if s.IsPaused {
		return result.Errorf(result.SystemAlreadyPaused, "paused since %d with reason %d", s.PauseTimestamp, s.PauseReasonCode)
	}
	s.IsPaused = true
	s.PauseTimestamp = now
	s.PauseReasonCode = reasonCode
	return nil
}

// Unpause resumes the system and returns how long it was paused.
func Unpause(s *state.SystemState, now int64) (int64, error) {
	if !s.IsPaused {
		return 0, result.SystemNotPaused
	}
	duration := now - s.PauseTimestamp
	s.IsPaused = false
	s.PauseTimestamp = 0
	s.PauseReasonCode = 0
	return duration, nil
}

// RequireActive fails with SystemPaused while the system is paused.
func RequireActive(s *state.SystemState) error {
	if s.IsPaused {
		return result.Errorf(result.SystemPaused, "reason %d (%s)", s.PauseReasonCode, ReasonCode(s.PauseReasonCode))
	}
	return nil
}

// AdminChangeStatus is the outcome of ProcessAdminChange.
type AdminChangeStatus int

const (
	// AdminChangeInitiated means a new proposal started the timelock.
	AdminChangeInitiated AdminChangeStatus = iota
	// AdminChangePending means the proposal was re-affirmed and the timelock restarted.
	AdminChangePending
	// AdminChangeCompleted means the proposed admin took over.
	AdminChangeCompleted
	// AdminChangeCancelled means the pending change was cleared.
	AdminChangeCancelled
)

func (s AdminChangeStatus) String() string {
	switch s {
	case AdminChangeInitiated:
		return "initiated"
	case AdminChangePending:
		return "pending"
	case AdminChangeCompleted:
		return "completed"
	case AdminChangeCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// AdminChangeResult reports what ProcessAdminChange did.
type AdminChangeResult struct {
	Status        AdminChangeStatus
	PreviousAdmin solana.PublicKey
	// Remaining is the wait in seconds before the change can complete.
	Remaining int64
}

// ProcessAdminChange proposes, re-affirms, commits or cancels an admin
// rotation.
//
// A proposal of a new target starts the timelock. Proposing the same
// target again completes the change once the timelock has elapsed and
// otherwise restarts it. Proposing the current admin while a change is
// pending clears the pending change immediately.
func ProcessAdminChange(s *state.SystemState, newAdmin solana.PublicKey, now int64) AdminChangeResult {
	res := AdminChangeResult{PreviousAdmin: s.AdminAuthority}

	if newAdmin == s.AdminAuthority && s.HasPendingAdminChange() && *s.PendingAdminAuthority != newAdmin {
		clearPending(s)
		res.Status = AdminChangeCancelled
		return res
	}

	if !s.HasPendingAdminChange() || *s.PendingAdminAuthority != newAdmin {
		pending := newAdmin
		s.PendingAdminAuthority = &pending
		s.AdminChangeTimestamp = now
		res.Status = AdminChangeInitiated
		res.Remaining = AdminChangeTimelock
		return res
	}

	if now-s.AdminChangeTimestamp >= AdminChangeTimelock {
		clearPending(s)
		if newAdmin == s.AdminAuthority {
			res.Status = AdminChangeCancelled
			return res
		}
		s.AdminAuthority = newAdmin
		res.Status = AdminChangeCompleted
		return res
	}

	s.AdminChangeTimestamp = now
	res.Status = AdminChangePending
	res.Remaining = AdminChangeTimelock
	return res
}

// TimeRemaining returns the seconds left before a pending change can
// complete, or zero.
func TimeRemaining(s *state.SystemState, now int64) int64 {
	if !s.HasPendingAdminChange() {
		return 0
	}
	elapsed := now - s.AdminChangeTimestamp
	if elapsed >= AdminChangeTimelock {
		return 0
	}
	return AdminChangeTimelock - elapsed
}

func clearPending(s *state.SystemState) {
	s.PendingAdminAuthority = nil
	s.AdminChangeTimestamp = 0
}
