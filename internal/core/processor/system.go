package processor

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/LeJamon/poolgovd/internal/core/ledger"
	"github.com/LeJamon/poolgovd/internal/core/result"
	"github.com/LeJamon/poolgovd/internal/core/state"
	"github.com/LeJamon/poolgovd/internal/core/system"
	"github.com/LeJamon/poolgovd/internal/crypto/signer"
)

// Initialize creates the system state and the treasury. Only the platform
// upgrade authority may call it, and it pays the treasury's reserve.
func (p *Processor) Initialize(ctx context.Context, env signer.Envelope, req InitializeRequest) (ApplyResult, error) {
	return p.apply(ctx, env, req, func(ctx context.Context, sb *ledger.Sandbox, c *call) (string, error) {
		if _, err := p.upgradeAuthority(sb).Resolve(ctx, c.signer, nil); err != nil {
			return "", err
		}
		if req.InitialAdmin.IsZero() {
			return "", result.Errorf(result.InvalidAccountData, "initial admin is required")
		}

		sysKey := p.systemKeylet()
		exists, err := sb.Exists(ctx, sysKey)
		if err != nil {
			return "", err
		}
		if exists {
			return "", result.Errorf(result.AlreadyInitialized, "system state %s exists", sysKey.Key)
		}
		if exists, err = sb.Exists(ctx, p.treasury.Keylet); err != nil {
			return "", err
		} else if exists {
			return "", result.Errorf(result.AlreadyInitialized, "treasury %s exists", p.treasury.Keylet.Key)
		}

		sys := state.NewSystemState(req.InitialAdmin)
		if err := sb.Insert(ctx, sysKey, &state.Account{
			Owner: p.config.ProgramID,
			Data:  sys.Encode(),
		}); err != nil {
			return "", err
		}

		rent := req.RentExemptMinimum
		if rent == 0 {
			rent = p.config.Treasury.RentExemptMinimum
		}
		ts := state.NewMainTreasuryState(rent, c.now)
		data, err := ts.Encode()
		if err != nil {
			return "", err
		}
		if err := sb.Insert(ctx, p.treasury.Keylet, &state.Account{
			Owner: p.config.ProgramID,
			Data:  data,
		}); err != nil {
			return "", err
		}
		if rent > 0 {
			if err := ledger.Transfer(ctx, sb, accountOf(c.signer.Key), p.treasury.Keylet, rent); err != nil {
				return "", err
			}
			snap, err := p.treasury.Load(ctx, sb, c.now)
			if err != nil {
				return "", err
			}
			snap.State.SyncBalance(snap.Account.Balance)
			if err := p.treasury.Save(ctx, sb, snap.State); err != nil {
				return "", err
			}
		}
		return fmt.Sprintf("admin=%s rent_exempt_minimum=%d", req.InitialAdmin, rent), nil
	})
}

// PauseSystem halts every gated operation.
func (p *Processor) PauseSystem(ctx context.Context, env signer.Envelope, req PauseSystemRequest) (ApplyResult, error) {
	return p.apply(ctx, env, req, func(ctx context.Context, sb *ledger.Sandbox, c *call) (string, error) {
		sys, err := p.loadSystem(ctx, sb)
		if err != nil {
			return "", err
		}
		if _, err := p.adminChain(sb).Resolve(ctx, c.signer, sys); err != nil {
			return "", err
		}
		if err := system.Pause(sys, req.ReasonCode, c.now); err != nil {
			return "", err
		}
		if err := p.saveSystem(ctx, sb, sys); err != nil {
			return "", err
		}
		return fmt.Sprintf("reason=%d (%s)", req.ReasonCode, system.ReasonCode(req.ReasonCode)), nil
	})
}

// UnpauseSystem resumes the system and starts the restart penalty when one
// is configured.
func (p *Processor) UnpauseSystem(ctx context.Context, env signer.Envelope, req UnpauseSystemRequest) (ApplyResult, error) {
	return p.apply(ctx, env, req, func(ctx context.Context, sb *ledger.Sandbox, c *call) (string, error) {
		sys, err := p.loadSystem(ctx, sb)
		if err != nil {
			return "", err
		}
		if _, err := p.adminChain(sb).Resolve(ctx, c.signer, sys); err != nil {
			return "", err
		}
		paused, err := system.Unpause(sys, c.now)
		if err != nil {
			return "", err
		}
		if err := p.saveSystem(ctx, sb, sys); err != nil {
			return "", err
		}
		if err := p.treasury.ApplyRestartPenalty(ctx, sb, c.now); err != nil {
			return "", err
		}
		return fmt.Sprintf("paused_for=%ds", paused), nil
	})
}

// ProcessAdminChange advances the admin rotation. It is accepted while the
// system is paused.
func (p *Processor) ProcessAdminChange(ctx context.Context, env signer.Envelope, req AdminChangeRequest) (system.AdminChangeResult, error) {
	var out system.AdminChangeResult
	_, err := p.apply(ctx, env, req, func(ctx context.Context, sb *ledger.Sandbox, c *call) (string, error) {
		sys, err := p.loadSystem(ctx, sb)
		if err != nil {
			return "", err
		}
		if _, err := p.adminChain(sb).Resolve(ctx, c.signer, sys); err != nil {
			return "", err
		}
		if req.NewAdmin.IsZero() {
			return "", result.Errorf(result.InvalidAccountData, "new admin is required")
		}
		out = system.ProcessAdminChange(sys, req.NewAdmin, c.now)
		if err := p.saveSystem(ctx, sb, sys); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s new_admin=%s", out.Status, req.NewAdmin), nil
	})
	return out, err
}

// SystemStatus is the read-only view of the system state.
type SystemStatus struct {
	IsPaused             bool              `json:"is_paused"`
	PauseTimestamp       int64             `json:"pause_timestamp,omitempty"`
	PauseReasonCode      uint8             `json:"pause_reason_code"`
	PauseReason          string            `json:"pause_reason"`
	PausedFor            int64             `json:"paused_for,omitempty"`
	AdminAuthority       solana.PublicKey  `json:"admin_authority"`
	PendingAdmin         *solana.PublicKey `json:"pending_admin,omitempty"`
	AdminChangeTimestamp int64             `json:"admin_change_timestamp,omitempty"`
	AdminChangeRemaining int64             `json:"admin_change_remaining,omitempty"`
}

// SystemStatus reports the current system state.
func (p *Processor) SystemStatus(ctx context.Context) (*SystemStatus, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	sys, err := p.loadSystem(ctx, p.base)
	if err != nil {
		return nil, err
	}
	now := p.clock().Unix()
	st := &SystemStatus{
		IsPaused:             sys.IsPaused,
		PauseTimestamp:       sys.PauseTimestamp,
		PauseReasonCode:      sys.PauseReasonCode,
		PauseReason:          system.ReasonCode(sys.PauseReasonCode).String(),
		AdminAuthority:       sys.AdminAuthority,
		PendingAdmin:         sys.PendingAdminAuthority,
		AdminChangeTimestamp: sys.AdminChangeTimestamp,
		AdminChangeRemaining: system.TimeRemaining(sys, now),
	}
	if sys.IsPaused {
		st.PausedFor = now - sys.PauseTimestamp
	}
	return st, nil
}
