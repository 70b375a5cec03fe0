package processor

import (
	"context"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"

	"github.com/LeJamon/poolgovd/internal/core/fees"
	"github.com/LeJamon/poolgovd/internal/core/keylet"
	"github.com/LeJamon/poolgovd/internal/core/ledger"
	"github.com/LeJamon/poolgovd/internal/core/pool"
	"github.com/LeJamon/poolgovd/internal/core/result"
	"github.com/LeJamon/poolgovd/internal/core/state"
	"github.com/LeJamon/poolgovd/internal/core/system"
	"github.com/LeJamon/poolgovd/internal/crypto/signer"
)

func accountOf(key solana.PublicKey) keylet.Keylet {
	return keylet.Account(key)
}

// RegisterPool collects the pool-creation fee into the treasury and then
// creates the pool with the default fees. The payer also funds the pool
// account's reserve.
func (p *Processor) RegisterPool(ctx context.Context, env signer.Envelope, req RegisterPoolRequest) (ApplyResult, error) {
	return p.apply(ctx, env, req, func(ctx context.Context, sb *ledger.Sandbox, c *call) (string, error) {
		if err := requireSigner(c.signer); err != nil {
			return "", err
		}
		sys, err := p.loadSystem(ctx, sb)
		if err != nil {
			return "", err
		}
		if err := system.RequireActive(sys); err != nil {
			return "", err
		}
		if req.PoolID.IsZero() {
			return "", result.Errorf(result.InvalidAccountData, "pool id is required")
		}

		pk := p.poolKeylet(req.PoolID)
		exists, err := sb.Exists(ctx, pk)
		if err != nil {
			return "", err
		}
		if exists {
			return "", result.Errorf(result.AlreadyInitialized, "pool %s exists", req.PoolID)
		}

		payer := accountOf(c.signer.Key)
		fee := p.config.Fees.PoolCreation
		if err := p.collector.CollectAtomic(ctx, sb, c.guard, fees.Collection{
			Payer:       payer,
			Destination: p.treasury.Keylet,
			Writable:    true,
			Expected:    p.treasury.Keylet.Key,
			Type:        fees.DestinationMainTreasury,
			Amount:      fee,
			Context:     fees.ContextPoolCreation,
		}); err != nil {
			return "", err
		}
		if err := p.treasury.RecordPoolCreationFee(ctx, sb, fee, c.now); err != nil {
			return "", err
		}

		owner := req.Owner
		if owner.IsZero() {
			owner = c.signer.Key
		}
		ps := &state.PoolState{
			PoolID:       req.PoolID,
			Owner:        owner,
			LiquidityFee: p.config.Fees.Liquidity,
			SwapFee:      p.config.Fees.Swap,
			CreatedAt:    c.now,
		}
		data, err := ps.Encode()
		if err != nil {
			return "", err
		}
		if err := sb.Insert(ctx, pk, &state.Account{Owner: p.config.ProgramID, Data: data}); err != nil {
			return "", err
		}
		if rent := p.config.Treasury.PoolRentExemptMinimum; rent > 0 {
			if err := ledger.Transfer(ctx, sb, payer, pk, rent); err != nil {
				return "", err
			}
		}
		return fmt.Sprintf("pool=%s address=%s fee=%d", req.PoolID, pk.Key, fee), nil
	})
}

// PausePool sets the pause bits selected by flags. Bits already set are
// left alone; the result lists the operations that changed.
func (p *Processor) PausePool(ctx context.Context, env signer.Envelope, req PausePoolRequest) ([]string, error) {
	return p.setPoolFlags(ctx, env, req, req.Pool, req.Flags, true)
}

// UnpausePool clears the pause bits selected by flags.
func (p *Processor) UnpausePool(ctx context.Context, env signer.Envelope, req UnpausePoolRequest) ([]string, error) {
	return p.setPoolFlags(ctx, env, req, req.Pool, req.Flags, false)
}

func (p *Processor) setPoolFlags(ctx context.Context, env signer.Envelope, req Request, poolID solana.PublicKey, flags uint8, value bool) ([]string, error) {
	var changed []string
	_, err := p.apply(ctx, env, req, func(ctx context.Context, sb *ledger.Sandbox, c *call) (string, error) {
		sys, err := p.loadSystem(ctx, sb)
		if err != nil {
			return "", err
		}
		if _, err := p.upgradeAuthority(sb).Resolve(ctx, c.signer, sys); err != nil {
			return "", err
		}
		if err := system.RequireActive(sys); err != nil {
			return "", err
		}
		bits, err := pool.PoolBits(flags)
		if err != nil {
			return "", err
		}
		_, ps, err := p.loadPool(ctx, sb, poolID)
		if err != nil {
			return "", err
		}
		changed = pool.SetFlags(ps, bits, value)
		if len(changed) > 0 {
			if err := p.savePool(ctx, sb, ps); err != nil {
				return "", err
			}
		}
		return fmt.Sprintf("pool=%s changed=[%s]", poolID, strings.Join(changed, ",")), nil
	})
	if err != nil {
		return nil, err
	}
	return changed, nil
}

// UpdatePoolFees changes the fees of a pool. Only the upgrade authority
// may do so.
func (p *Processor) UpdatePoolFees(ctx context.Context, env signer.Envelope, req UpdatePoolFeesRequest) (ApplyResult, error) {
	return p.apply(ctx, env, req, func(ctx context.Context, sb *ledger.Sandbox, c *call) (string, error) {
		sys, err := p.loadSystem(ctx, sb)
		if err != nil {
			return "", err
		}
		if _, err := p.upgradeAuthority(sb).Resolve(ctx, c.signer, sys); err != nil {
			if result.CodeOf(err) == result.UnauthorizedAccess {
				return "", result.Wrap(result.UnauthorizedFeeUpdate, err)
			}
			return "", err
		}
		if err := system.RequireActive(sys); err != nil {
			return "", err
		}
		if err := p.config.Fees.ValidateUpdate(req.Flags, req.LiquidityFee, req.SwapFee); err != nil {
			return "", err
		}
		_, ps, err := p.loadPool(ctx, sb, req.Pool)
		if err != nil {
			return "", err
		}
		pool.UpdateFees(ps, req.Flags, req.LiquidityFee, req.SwapFee)
		if err := p.savePool(ctx, sb, ps); err != nil {
			return "", err
		}
		return fmt.Sprintf("pool=%s liquidity_fee=%d swap_fee=%d", req.Pool, ps.LiquidityFee, ps.SwapFee), nil
	})
}

// ChargeOperationFee collects a pool's current fee for the given kind of
// operation into the pool account before the operation runs.
func (p *Processor) ChargeOperationFee(ctx context.Context, env signer.Envelope, req ChargeFeeRequest) (ApplyResult, error) {
	return p.apply(ctx, env, req, func(ctx context.Context, sb *ledger.Sandbox, c *call) (string, error) {
		if err := requireSigner(c.signer); err != nil {
			return "", err
		}
		if req.Kind != fees.KindLiquidity && req.Kind != fees.KindSwap {
			return "", result.Errorf(result.InvalidAccountData, "operation fee kind %s", req.Kind)
		}
		sys, err := p.loadSystem(ctx, sb)
		if err != nil {
			return "", err
		}
		if err := system.RequireActive(sys); err != nil {
			return "", err
		}
		_, ps, err := p.loadPool(ctx, sb, req.Pool)
		if err != nil {
			return "", err
		}
		swap := req.Kind == fees.KindSwap
		if err := pool.RequireOperational(ps, swap); err != nil {
			return "", err
		}

		amount := ps.LiquidityFee
		if swap {
			amount = ps.SwapFee
		}
		pk := p.poolKeylet(req.Pool)
		if err := p.collector.CollectAtomic(ctx, sb, c.guard, fees.Collection{
			Payer:       accountOf(c.signer.Key),
			Destination: pk,
			Writable:    true,
			Expected:    pk.Key,
			Type:        fees.DestinationPool,
			Amount:      amount,
			Context:     req.Kind.Context(),
		}); err != nil {
			return "", err
		}

		if swap {
			ps.RecordSwapFee(amount)
		} else {
			ps.RecordLiquidityFee(amount)
		}
		if err := p.savePool(ctx, sb, ps); err != nil {
			return "", err
		}
		return fmt.Sprintf("pool=%s kind=%s amount=%d", req.Pool, req.Kind, amount), nil
	})
}

// PoolInfo is the read-only view of a pool.
type PoolInfo struct {
	PoolID                solana.PublicKey `json:"pool_id"`
	Address               solana.PublicKey `json:"address"`
	Owner                 solana.PublicKey `json:"owner"`
	Balance               uint64           `json:"balance"`
	LiquidityPaused       bool             `json:"liquidity_paused"`
	SwapsPaused           bool             `json:"swaps_paused"`
	ConsolidationEligible bool             `json:"consolidation_eligible"`

	LiquidityFee uint64 `json:"liquidity_fee"`
	SwapFee      uint64 `json:"swap_fee"`

	CollectedLiquidityFees uint64 `json:"collected_liquidity_fees"`
	CollectedSwapFees      uint64 `json:"collected_swap_fees"`
	PendingLiquidityOps    uint64 `json:"pending_liquidity_ops"`
	PendingSwapOps         uint64 `json:"pending_swap_ops"`
	PendingFees            uint64 `json:"pending_fees"`
	AvailableToConsolidate uint64 `json:"available_to_consolidate"`

	TotalFeesCollected         uint64 `json:"total_fees_collected"`
	TotalFeesConsolidated      uint64 `json:"total_fees_consolidated"`
	TotalConsolidations        uint64 `json:"total_consolidations"`
	LastConsolidationTimestamp int64  `json:"last_consolidation_timestamp,omitempty"`
	CreatedAt                  int64  `json:"created_at"`
}

// PoolInfo reports the state of a pool.
func (p *Processor) PoolInfo(ctx context.Context, poolID solana.PublicKey) (*PoolInfo, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	a, ps, err := p.loadPool(ctx, p.base, poolID)
	if err != nil {
		return nil, err
	}
	return &PoolInfo{
		PoolID:                     ps.PoolID,
		Address:                    p.poolKeylet(poolID).Key,
		Owner:                      ps.Owner,
		Balance:                    a.Balance,
		LiquidityPaused:            ps.LiquidityPaused(),
		SwapsPaused:                ps.SwapsPaused(),
		ConsolidationEligible:      ps.ConsolidationEligible(),
		LiquidityFee:               ps.LiquidityFee,
		SwapFee:                    ps.SwapFee,
		CollectedLiquidityFees:     ps.CollectedLiquidityFees,
		CollectedSwapFees:          ps.CollectedSwapFees,
		PendingLiquidityOps:        ps.PendingLiquidityOps,
		PendingSwapOps:             ps.PendingSwapOps,
		PendingFees:                ps.PendingFees(),
		AvailableToConsolidate:     ps.AvailableForConsolidation(a.Balance, p.config.Treasury.PoolRentExemptMinimum),
		TotalFeesCollected:         ps.TotalFeesCollected,
		TotalFeesConsolidated:      ps.TotalFeesConsolidated,
		TotalConsolidations:        ps.TotalConsolidations,
		LastConsolidationTimestamp: ps.LastConsolidationTimestamp,
		CreatedAt:                  ps.CreatedAt,
	}, nil
}
