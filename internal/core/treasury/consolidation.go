package treasury

import (
	"context"

	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/LeJamon/poolgovd/internal/core/guard"
	"github.com/LeJamon/poolgovd/internal/core/keylet"
	"github.com/LeJamon/poolgovd/internal/core/ledger"
	"github.com/LeJamon/poolgovd/internal/core/result"
	"github.com/LeJamon/poolgovd/internal/core/state"
)

// Mode selects which pools a consolidation may touch.
type Mode string

const (
	// ModeSystemPaused consolidates every listed pool.
	ModeSystemPaused Mode = "system_paused"
	// ModeIndividualPoolPause consolidates only pools with liquidity and
	// swaps both paused.
	ModeIndividualPoolPause Mode = "individual_pool_pause"
)

// Skip reasons reported per pool.
const (
	SkipNotEligible  = "not_eligible"
	SkipNoFees       = "no_pending_fees"
	SkipRentReserve  = "below_rent_reserve"
	SkipInconsistent = "inconsistent_fees"
)

// PoolConsolidation reports what happened to one pool.
type PoolConsolidation struct {
	Pool          string `json:"pool"`
	Amount        uint64 `json:"amount"`
	LiquidityFees uint64 `json:"liquidity_fees"`
	SwapFees      uint64 `json:"swap_fees"`
	Partial       bool   `json:"partial,omitempty"`
	Skipped       string `json:"skipped,omitempty"`
}

// Summary reports a consolidation batch.
type Summary struct {
	Mode              Mode                `json:"mode"`
	PoolsProcessed    int                 `json:"pools_processed"`
	TotalConsolidated uint64              `json:"total_consolidated"`
	Pools             []PoolConsolidation `json:"pools"`
}

// Split divides amount across the liquidity and swap categories in
// proportion to their pending values. The parts always sum to amount when
// amount does not exceed liquidity+swap.
func Split(amount, liquidity, swap uint64) (uint64, uint64) {
	total := new(uint256.Int).Add(uint256.NewInt(liquidity), uint256.NewInt(swap))
	if total.IsZero() {
		return 0, 0
	}
	if total.Cmp(uint256.NewInt(amount)) <= 0 {
		return liquidity, swap
	}
	liq := new(uint256.Int).Mul(uint256.NewInt(amount), uint256.NewInt(liquidity))
	liq.Div(liq, total)
	l := liq.Uint64()
	return l, amount - l
}

// scale returns count*part/whole rounded down.
func scale(count, part, whole uint64) uint64 {
	if whole == 0 {
		return 0
	}
	v := new(uint256.Int).Mul(uint256.NewInt(count), uint256.NewInt(part))
	v.Div(v, uint256.NewInt(whole))
	return v.Uint64()
}

// Consolidate moves fees accumulated in pools into the treasury. Each pool
// is processed in its own nested sandbox so a pool that fails its checks
// leaves no trace beyond the failure counter.
func (t *Treasury) Consolidate(ctx context.Context, v ledger.Base, g *guard.Guard, pools []keylet.Keylet, systemPaused bool, now int64) (*Summary, error) {
	if len(pools) == 0 {
		return nil, result.Errorf(result.InvalidAccountData, "no pools to consolidate")
	}
	if limit := t.Config.MaxPoolsPerConsolidation; limit > 0 && len(pools) > limit {
		return nil, result.Errorf(result.ConsolidationBatchTooLarge, "%d pools, maximum %d", len(pools), limit)
	}

	mode := ModeIndividualPoolPause
	if systemPaused {
		mode = ModeSystemPaused
	}

	snap, err := t.Load(ctx, v, now)
	if err != nil {
		return nil, err
	}
	s := snap.State

	summary := &Summary{Mode: mode}
	for _, pk := range pools {
		report, err := t.consolidatePool(ctx, v, g, pk, mode, s, now)
		if err != nil {
			return nil, err
		}
		if report.Skipped == SkipInconsistent {
			s.RecordFailedOperation(now)
		}
		if report.Skipped == "" {
			summary.PoolsProcessed++
			summary.TotalConsolidated += report.Amount
		}
		summary.Pools = append(summary.Pools, report)
	}

	balance, err := ledger.Balance(ctx, v, t.Keylet)
	if err != nil {
		return nil, err
	}
	s.RecordConsolidation(now)
	s.SyncBalance(balance)
	if err := t.Save(ctx, v, s); err != nil {
		return nil, err
	}

	t.Log.Info("consolidation completed",
		zap.String("mode", string(mode)),
		zap.Int("pools_processed", summary.PoolsProcessed),
		zap.Uint64("total_consolidated", summary.TotalConsolidated))
	return summary, nil
}

func (t *Treasury) consolidatePool(ctx context.Context, v ledger.Base, g *guard.Guard, pk keylet.Keylet, mode Mode, ts *state.MainTreasuryState, now int64) (PoolConsolidation, error) {
	report := PoolConsolidation{Pool: pk.Key.String()}

	a, err := v.Read(ctx, pk)
	if err != nil {
		return report, err
	}
	if a == nil {
		return report, result.Errorf(result.PoolNotFound, "pool %s", pk.Key)
	}
	p, err := state.DecodePoolState(a.Data)
	if err != nil {
		return report, result.Wrap(result.InvalidAccountData, err)
	}

	if mode == ModeIndividualPoolPause && !p.ConsolidationEligible() {
		report.Skipped = SkipNotEligible
		return report, nil
	}
	pending := p.PendingFees()
	if pending == 0 {
		report.Skipped = SkipNoFees
		return report, nil
	}
	available := p.AvailableForConsolidation(a.Balance, t.Config.PoolRentExemptMinimum)
	if available == 0 {
		report.Skipped = SkipRentReserve
		return report, nil
	}

	liq, swp := Split(available, p.CollectedLiquidityFees, p.CollectedSwapFees)
	liqOps := scale(p.PendingLiquidityOps, liq, p.CollectedLiquidityFees)
	swpOps := scale(p.PendingSwapOps, swp, p.CollectedSwapFees)

	p.CollectedLiquidityFees -= liq
	p.CollectedSwapFees -= swp
	p.PendingLiquidityOps -= liqOps
	p.PendingSwapOps -= swpOps
	p.TotalFeesConsolidated += available
	p.TotalConsolidations++
	p.LastConsolidationTimestamp = now

	report.Amount = available
	report.LiquidityFees = liq
	report.SwapFees = swp
	report.Partial = available < pending

	if err := p.ValidateFeeConsistency(); err != nil {
		t.Log.Warn("skipping pool with inconsistent fee accounting",
			zap.String("pool", pk.Key.String()), zap.Error(err))
		report.Skipped = SkipInconsistent
		return report, nil
	}

	sb := ledger.NewSandbox(v)
	data, err := p.Encode()
	if err != nil {
		return report, err
	}
	a.Data = data
	if err := sb.Update(ctx, pk, a); err != nil {
		return report, err
	}
	if err := g.Transfer(ctx, sb, pk, t.Keylet, available, "pool_consolidation", nil); err != nil {
		return report, err
	}
	if err := sb.Apply(ctx); err != nil {
		return report, err
	}

	ts.AddLiquidityFees(liq, liqOps, now)
	ts.AddSwapFees(swp, swpOps, now)

	t.Log.Debug("pool consolidated",
		zap.String("pool", pk.Key.String()),
		zap.Uint64("amount", available),
		zap.Bool("partial", report.Partial))
	return report, nil
}
