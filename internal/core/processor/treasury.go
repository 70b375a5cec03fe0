package processor

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/LeJamon/poolgovd/internal/core/keylet"
	"github.com/LeJamon/poolgovd/internal/core/ledger"
	"github.com/LeJamon/poolgovd/internal/core/system"
	"github.com/LeJamon/poolgovd/internal/core/treasury"
	"github.com/LeJamon/poolgovd/internal/crypto/signer"
)

// WithdrawTreasuryFees pays treasury funds above the reserve to a
// destination, the signer by default.
func (p *Processor) WithdrawTreasuryFees(ctx context.Context, env signer.Envelope, req WithdrawRequest) (treasury.WithdrawResult, error) {
	var out treasury.WithdrawResult
	_, err := p.apply(ctx, env, req, func(ctx context.Context, sb *ledger.Sandbox, c *call) (string, error) {
		sys, err := p.loadSystem(ctx, sb)
		if err != nil {
			return "", err
		}
		if _, err := p.adminChain(sb).Resolve(ctx, c.signer, sys); err != nil {
			return "", err
		}
		if err := system.RequireActive(sys); err != nil {
			return "", err
		}
		dest := c.signer.Key
		if req.Destination != nil {
			dest = *req.Destination
		}
		out, err = p.treasury.Withdraw(ctx, sb, c.guard, accountOf(dest), req.Amount, c.now)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("destination=%s amount=%d remaining=%d", dest, out.Amount, out.Remaining), nil
	})
	return out, err
}

// ConsolidatePoolFees moves pending pool fees into the treasury. While the
// system is paused every listed pool is eligible; otherwise only pools with
// both liquidity and swaps paused are.
func (p *Processor) ConsolidatePoolFees(ctx context.Context, env signer.Envelope, req ConsolidateRequest) (*treasury.Summary, error) {
	var out *treasury.Summary
	_, err := p.apply(ctx, env, req, func(ctx context.Context, sb *ledger.Sandbox, c *call) (string, error) {
		sys, err := p.loadSystem(ctx, sb)
		if err != nil {
			return "", err
		}
		if _, err := p.adminChain(sb).Resolve(ctx, c.signer, sys); err != nil {
			return "", err
		}
		pools := make([]keylet.Keylet, len(req.Pools))
		for i, id := range req.Pools {
			pools[i] = p.poolKeylet(id)
		}
		out, err = p.treasury.Consolidate(ctx, sb, c.guard, pools, sys.IsPaused, c.now)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("mode=%s pools_processed=%d total_consolidated=%d",
			out.Mode, out.PoolsProcessed, out.TotalConsolidated), nil
	})
	return out, err
}

// TreasuryInfo reports the treasury and its analytics.
func (p *Processor) TreasuryInfo(ctx context.Context) (*treasury.Info, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.treasury.Info(ctx, p.base, p.clock().Unix())
}

// TreasuryAddress returns the address of the treasury account.
func (p *Processor) TreasuryAddress() solana.PublicKey {
	return p.treasury.Keylet.Key
}

// PoolAddress returns the address of the pool record of poolID.
func (p *Processor) PoolAddress(poolID solana.PublicKey) solana.PublicKey {
	return p.poolKeylet(poolID).Key
}
