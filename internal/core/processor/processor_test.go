package processor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/poolgovd/internal/core/authority/mocks"
	"github.com/LeJamon/poolgovd/internal/core/fees"
	"github.com/LeJamon/poolgovd/internal/core/genesis"
	"github.com/LeJamon/poolgovd/internal/core/keylet"
	"github.com/LeJamon/poolgovd/internal/core/ledger"
	"github.com/LeJamon/poolgovd/internal/core/result"
	"github.com/LeJamon/poolgovd/internal/core/system"
	"github.com/LeJamon/poolgovd/internal/core/treasury"
	"github.com/LeJamon/poolgovd/internal/crypto/signer"
	"github.com/LeJamon/poolgovd/internal/journal"
	"github.com/LeJamon/poolgovd/internal/storage/database/memory"
)

var programID = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")

const startingBalance = 100_000_000_000

type harness struct {
	t       *testing.T
	ctx     context.Context
	db      *memory.DB
	store   *ledger.Store
	proc    *Processor
	journal *journal.Journal
	now     int64

	upgrade signer.Signer
	admin   signer.Signer
	payer   signer.Signer
	other   signer.Signer
}

func newHarness(t *testing.T, modify ...func(c *Config)) *harness {
	t.Helper()
	ctx := context.Background()

	db := memory.NewDB()
	store, err := ledger.NewStore(db, ledger.StoreConfig{})
	require.NoError(t, err)

	h := &harness{t: t, ctx: ctx, db: db, store: store, now: 1_700_000_000}
	h.upgrade = h.generate(signer.KeyTypeEd25519)
	h.admin = h.generate(signer.KeyTypeEd25519)
	h.payer = h.generate(signer.KeyTypeSecp256k1)
	h.other = h.generate(signer.KeyTypeEd25519)

	upgradeID := h.upgrade.Identity()
	gen := genesis.DefaultConfig(programID, &upgradeID)
	for _, s := range []signer.Signer{h.upgrade, h.admin, h.payer, h.other} {
		gen.Allocations = append(gen.Allocations, genesis.Allocation{Account: s.Identity(), Balance: startingBalance})
	}
	_, err = genesis.Create(ctx, store, gen)
	require.NoError(t, err)

	cfg := DefaultConfig(programID)
	for _, m := range modify {
		m(&cfg)
	}
	h.proc, err = New(store, cfg, nil)
	require.NoError(t, err)
	h.proc.SetClock(func() time.Time { return time.Unix(h.now, 0) })

	h.journal, err = journal.Open(ctx, journal.NewMemoryStore(), 16, nil)
	require.NoError(t, err)
	h.proc.SetRecorder(h.journal)
	return h
}

// reopen replaces the store and processor with fresh ones over the same
// database, so later reads decode what was persisted instead of hitting the
// account cache.
func (h *harness) reopen() {
	store, err := ledger.NewStore(h.db, ledger.StoreConfig{})
	require.NoError(h.t, err)
	proc, err := New(store, h.proc.Config(), nil)
	require.NoError(h.t, err)
	proc.SetClock(func() time.Time { return time.Unix(h.now, 0) })
	proc.SetRecorder(h.journal)
	h.store, h.proc = store, proc
}

func (h *harness) generate(kt signer.KeyType) signer.Signer {
	s, err := signer.Generate(kt)
	require.NoError(h.t, err)
	return s
}

func (h *harness) sign(s signer.Signer, req Request) signer.Envelope {
	env, err := Sign(s, req)
	require.NoError(h.t, err)
	return env
}

func (h *harness) balance(key solana.PublicKey) uint64 {
	b, err := ledger.Balance(h.ctx, h.store, keylet.Account(key))
	require.NoError(h.t, err)
	return b
}

func (h *harness) initialize() {
	req := InitializeRequest{InitialAdmin: h.admin.Identity()}
	_, err := h.proc.Initialize(h.ctx, h.sign(h.upgrade, req), req)
	require.NoError(h.t, err)
}

func (h *harness) registerPool() solana.PublicKey {
	poolID := solana.NewWallet().PublicKey()
	req := RegisterPoolRequest{PoolID: poolID}
	_, err := h.proc.RegisterPool(h.ctx, h.sign(h.payer, req), req)
	require.NoError(h.t, err)
	return poolID
}

func (h *harness) pause(s signer.Signer, reason uint8) error {
	req := PauseSystemRequest{ReasonCode: reason}
	_, err := h.proc.PauseSystem(h.ctx, h.sign(s, req), req)
	return err
}

func (h *harness) unpause(s signer.Signer) error {
	req := UnpauseSystemRequest{}
	_, err := h.proc.UnpauseSystem(h.ctx, h.sign(s, req), req)
	return err
}

func (h *harness) withdraw(s signer.Signer, amount uint64) (treasury.WithdrawResult, error) {
	req := WithdrawRequest{Amount: amount}
	return h.proc.WithdrawTreasuryFees(h.ctx, h.sign(s, req), req)
}

func (h *harness) adminChange(s signer.Signer, newAdmin solana.PublicKey) system.AdminChangeResult {
	req := AdminChangeRequest{NewAdmin: newAdmin}
	res, err := h.proc.ProcessAdminChange(h.ctx, h.sign(s, req), req)
	require.NoError(h.t, err)
	return res
}

func (h *harness) setPoolFlags(s signer.Signer, pool solana.PublicKey, flags uint8, pause bool) ([]string, error) {
	if pause {
		req := PausePoolRequest{Pool: pool, Flags: flags}
		return h.proc.PausePool(h.ctx, h.sign(s, req), req)
	}
	req := UnpausePoolRequest{Pool: pool, Flags: flags}
	return h.proc.UnpausePool(h.ctx, h.sign(s, req), req)
}

func (h *harness) charge(s signer.Signer, pool solana.PublicKey, kind fees.Kind) error {
	req := ChargeFeeRequest{Pool: pool, Kind: kind}
	_, err := h.proc.ChargeOperationFee(h.ctx, h.sign(s, req), req)
	return err
}

func (h *harness) codes() []int {
	events, err := h.journal.Tail(h.ctx, 0)
	require.NoError(h.t, err)
	out := make([]int, len(events))
	for i, e := range events {
		out[i] = e.Code
	}
	return out
}

func TestInitialize(t *testing.T) {
	h := newHarness(t)

	req := InitializeRequest{InitialAdmin: h.admin.Identity()}
	_, err := h.proc.Initialize(h.ctx, h.sign(h.admin, req), req)
	assert.ErrorIs(t, err, result.UnauthorizedAccess)

	res, err := h.proc.Initialize(h.ctx, h.sign(h.upgrade, req), req)
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, result.Success, res.Result)

	_, err = h.proc.Initialize(h.ctx, h.sign(h.upgrade, req), req)
	assert.ErrorIs(t, err, result.AlreadyInitialized)

	status, err := h.proc.SystemStatus(h.ctx)
	require.NoError(t, err)
	assert.False(t, status.IsPaused)
	assert.Equal(t, h.admin.Identity(), status.AdminAuthority)
	assert.Nil(t, status.PendingAdmin)

	info, err := h.proc.TreasuryInfo(h.ctx)
	require.NoError(t, err)
	rent := treasury.DefaultConfig().RentExemptMinimum
	assert.Equal(t, rent, info.AccountBalance)
	assert.Equal(t, rent, info.TotalBalance)
	assert.Equal(t, uint64(0), info.Available)
	assert.Equal(t, uint64(startingBalance-rent), h.balance(h.upgrade.Identity()))

	assert.Equal(t, []int{int(result.UnauthorizedAccess), 0, int(result.AlreadyInitialized)}, h.codes())
	require.NoError(t, h.journal.Verify(h.ctx))
}

func TestOperationsRequireInitialization(t *testing.T) {
	h := newHarness(t)
	assert.ErrorIs(t, h.pause(h.admin, 1), result.NotInitialized)
	_, err := h.proc.SystemStatus(h.ctx)
	assert.ErrorIs(t, err, result.NotInitialized)
	_, err = h.proc.TreasuryInfo(h.ctx)
	assert.ErrorIs(t, err, result.NotInitialized)
}

func TestPauseBlocksOperations(t *testing.T) {
	h := newHarness(t)
	h.initialize()
	h.registerPool()

	require.NoError(t, h.pause(h.admin, 1))
	assert.ErrorIs(t, h.pause(h.admin, 1), result.SystemAlreadyPaused)

	_, err := h.withdraw(h.admin, 1000)
	assert.ErrorIs(t, err, result.SystemPaused)

	h.now += 60
	status, err := h.proc.SystemStatus(h.ctx)
	require.NoError(t, err)
	assert.True(t, status.IsPaused)
	assert.Equal(t, "consolidation", status.PauseReason)
	assert.Equal(t, int64(60), status.PausedFor)

	require.NoError(t, h.unpause(h.admin))
	assert.ErrorIs(t, h.unpause(h.admin), result.SystemNotPaused)

	before := h.balance(h.admin.Identity())
	out, err := h.withdraw(h.admin, 1000)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), out.Amount)
	assert.Equal(t, before+1000, h.balance(h.admin.Identity()))

	info, err := h.proc.TreasuryInfo(h.ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, info.TotalBalance, info.RentExemptMinimum)
	assert.Equal(t, uint64(1), info.TreasuryWithdrawalCount)
	assert.Equal(t, uint64(1000), info.TotalWithdrawn)
}

func TestWithdrawAll(t *testing.T) {
	h := newHarness(t)
	h.initialize()
	h.registerPool()

	dest := solana.NewWallet().PublicKey()
	req := WithdrawRequest{Destination: &dest}
	out, err := h.proc.WithdrawTreasuryFees(h.ctx, h.sign(h.admin, req), req)
	require.NoError(t, err)
	assert.Equal(t, fees.DefaultPoolCreationFee, out.Amount)
	assert.Equal(t, fees.DefaultPoolCreationFee, h.balance(dest))

	info, err := h.proc.TreasuryInfo(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, info.RentExemptMinimum, info.TotalBalance)

	_, err = h.withdraw(h.admin, 0)
	assert.ErrorIs(t, err, result.InsufficientFunds)
}

func TestRejectedCallLeavesNoTrace(t *testing.T) {
	h := newHarness(t)
	h.initialize()
	h.registerPool()

	before, err := h.proc.TreasuryInfo(h.ctx)
	require.NoError(t, err)
	adminBefore := h.balance(h.admin.Identity())

	_, err = h.withdraw(h.admin, before.Available+1)
	assert.ErrorIs(t, err, result.InsufficientFunds)

	after, err := h.proc.TreasuryInfo(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, adminBefore, h.balance(h.admin.Identity()))

	codes := h.codes()
	assert.Equal(t, int(result.InsufficientFunds), codes[len(codes)-1])
}

func TestMissingSignature(t *testing.T) {
	h := newHarness(t)
	h.initialize()

	signed := PauseSystemRequest{ReasonCode: 1}
	tampered := PauseSystemRequest{ReasonCode: 2}
	_, err := h.proc.PauseSystem(h.ctx, h.sign(h.admin, signed), tampered)
	assert.ErrorIs(t, err, result.MissingRequiredSignature)

	_, err = h.proc.PauseSystem(h.ctx, signer.Envelope{}, tampered)
	assert.ErrorIs(t, err, result.MissingRequiredSignature)

	req := RegisterPoolRequest{PoolID: solana.NewWallet().PublicKey()}
	_, err = h.proc.RegisterPool(h.ctx, signer.Envelope{}, req)
	assert.ErrorIs(t, err, result.MissingRequiredSignature)
}

func TestAuthorityResolution(t *testing.T) {
	h := newHarness(t)
	h.initialize()

	// The upgrade authority is accepted in place of the admin.
	require.NoError(t, h.pause(h.upgrade, 3))
	require.NoError(t, h.unpause(h.admin))

	assert.ErrorIs(t, h.pause(h.other, 3), result.UnauthorizedAccess)
}

func TestPlatformLookupFailureFailsClosed(t *testing.T) {
	h := newHarness(t)
	h.initialize()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	platform := mocks.NewMockPlatformAuthority(ctrl)
	platform.EXPECT().UpgradeAuthority(gomock.Any()).Return(nil, errors.New("platform unavailable"))
	h.proc.SetPlatform(platform)

	// The admin never reaches the fallback.
	require.NoError(t, h.pause(h.admin, 4))
	assert.ErrorIs(t, h.unpause(h.other), result.UnauthorizedAccess)

	status, err := h.proc.SystemStatus(h.ctx)
	require.NoError(t, err)
	assert.True(t, status.IsPaused)
}

func TestAdminChangeTimelock(t *testing.T) {
	h := newHarness(t)
	h.initialize()
	next := h.other.Identity()

	res := h.adminChange(h.admin, next)
	assert.Equal(t, system.AdminChangeInitiated, res.Status)

	// Re-proposing restarts the clock.
	h.now += 100_000
	res = h.adminChange(h.admin, next)
	assert.Equal(t, system.AdminChangePending, res.Status)

	h.now += system.AdminChangeTimelock - 1
	status, err := h.proc.SystemStatus(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), status.AdminChangeRemaining)
	require.NotNil(t, status.PendingAdmin)
	assert.Equal(t, next, *status.PendingAdmin)

	res = h.adminChange(h.admin, next)
	assert.Equal(t, system.AdminChangePending, res.Status)

	h.now += system.AdminChangeTimelock
	res = h.adminChange(h.admin, next)
	assert.Equal(t, system.AdminChangeCompleted, res.Status)
	assert.Equal(t, h.admin.Identity(), res.PreviousAdmin)

	status, err = h.proc.SystemStatus(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, next, status.AdminAuthority)
	assert.Nil(t, status.PendingAdmin)

	assert.ErrorIs(t, h.pause(h.admin, 6), result.UnauthorizedAccess)
	require.NoError(t, h.pause(h.other, 6))
}

func TestAdminChangeCancellation(t *testing.T) {
	h := newHarness(t)
	h.initialize()
	require.NoError(t, h.pause(h.admin, 6))

	// Rotation is accepted while paused.
	res := h.adminChange(h.admin, h.other.Identity())
	assert.Equal(t, system.AdminChangeInitiated, res.Status)

	res = h.adminChange(h.admin, h.admin.Identity())
	assert.Equal(t, system.AdminChangeCancelled, res.Status)

	status, err := h.proc.SystemStatus(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, h.admin.Identity(), status.AdminAuthority)
	assert.Nil(t, status.PendingAdmin)
	assert.Zero(t, status.AdminChangeTimestamp)
}

func TestRegisterPool(t *testing.T) {
	h := newHarness(t)
	h.initialize()
	cfg := h.proc.Config()

	payerBefore := h.balance(h.payer.Identity())
	poolID := h.registerPool()
	assert.Equal(t, payerBefore-cfg.Fees.PoolCreation-cfg.Treasury.PoolRentExemptMinimum, h.balance(h.payer.Identity()))

	info, err := h.proc.PoolInfo(h.ctx, poolID)
	require.NoError(t, err)
	assert.Equal(t, h.payer.Identity(), info.Owner)
	assert.Equal(t, h.proc.PoolAddress(poolID), info.Address)
	assert.Equal(t, cfg.Fees.Liquidity, info.LiquidityFee)
	assert.Equal(t, cfg.Fees.Swap, info.SwapFee)
	assert.Equal(t, cfg.Treasury.PoolRentExemptMinimum, info.Balance)

	ti, err := h.proc.TreasuryInfo(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), ti.PoolCreationCount)
	assert.Equal(t, cfg.Fees.PoolCreation, ti.TotalPoolCreationFees)
	assert.Equal(t, cfg.Fees.PoolCreation, ti.Available)

	req := RegisterPoolRequest{PoolID: poolID}
	_, err = h.proc.RegisterPool(h.ctx, h.sign(h.payer, req), req)
	assert.ErrorIs(t, err, result.AlreadyInitialized)

	_, err = h.proc.PoolInfo(h.ctx, solana.NewWallet().PublicKey())
	assert.ErrorIs(t, err, result.PoolNotFound)
}

func TestRegisterPoolInsufficientFee(t *testing.T) {
	h := newHarness(t)
	h.initialize()

	poor := h.generate(signer.KeyTypeEd25519)
	require.NoError(t, ledger.Credit(h.ctx, h.store, keylet.Account(poor.Identity()), 10))

	req := RegisterPoolRequest{PoolID: solana.NewWallet().PublicKey()}
	_, err := h.proc.RegisterPool(h.ctx, h.sign(poor, req), req)
	assert.ErrorIs(t, err, result.InsufficientFeeBalance)
	assert.Equal(t, uint64(10), h.balance(poor.Identity()))

	_, err = h.proc.PoolInfo(h.ctx, req.PoolID)
	assert.ErrorIs(t, err, result.PoolNotFound)
}

func TestPoolFlags(t *testing.T) {
	h := newHarness(t)
	h.initialize()
	poolID := h.registerPool()

	tests := []struct {
		name    string
		signer  signer.Signer
		flags   uint8
		pause   bool
		changed []string
		err     result.Code
	}{
		{"admin is not upgrade authority", h.admin, 1, true, nil, result.UnauthorizedAccess},
		{"invalid flags", h.upgrade, 4, true, nil, result.InvalidPauseFlags},
		{"pause liquidity", h.upgrade, 1, true, []string{"liquidity"}, result.Success},
		{"pause liquidity again", h.upgrade, 1, true, []string{}, result.Success},
		{"pause both", h.upgrade, 3, true, []string{"swaps"}, result.Success},
		{"unpause swaps", h.upgrade, 2, false, []string{"swaps"}, result.Success},
		{"unpause both", h.upgrade, 3, false, []string{"liquidity"}, result.Success},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changed, err := h.setPoolFlags(tt.signer, poolID, tt.flags, tt.pause)
			if tt.err != result.Success {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.changed, changed)
		})
	}

	require.NoError(t, h.pause(h.admin, 4))
	_, err := h.setPoolFlags(h.upgrade, poolID, 1, true)
	assert.ErrorIs(t, err, result.SystemPaused)
}

func TestUpdatePoolFees(t *testing.T) {
	h := newHarness(t)
	h.initialize()
	poolID := h.registerPool()
	sched := fees.DefaultSchedule()

	tests := []struct {
		name string
		s    signer.Signer
		req  UpdatePoolFeesRequest
		err  result.Code
	}{
		{"admin rejected", h.admin, UpdatePoolFeesRequest{Pool: poolID, Flags: 1, LiquidityFee: sched.MinLiquidity}, result.UnauthorizedFeeUpdate},
		{"bad flags", h.upgrade, UpdatePoolFeesRequest{Pool: poolID, Flags: 0}, result.InvalidFeeUpdateFlags},
		{"below minimum", h.upgrade, UpdatePoolFeesRequest{Pool: poolID, Flags: 1, LiquidityFee: sched.MinLiquidity - 1}, result.InvalidFeeAmount},
		{"above maximum", h.upgrade, UpdatePoolFeesRequest{Pool: poolID, Flags: 2, SwapFee: sched.MaxSwap + 1}, result.InvalidFeeAmount},
		{"unknown pool", h.upgrade, UpdatePoolFeesRequest{Pool: solana.NewWallet().PublicKey(), Flags: 1, LiquidityFee: sched.MinLiquidity}, result.PoolNotFound},
		{"swap only", h.upgrade, UpdatePoolFeesRequest{Pool: poolID, Flags: 2, LiquidityFee: 1, SwapFee: sched.MaxSwap}, result.Success},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.proc.UpdatePoolFees(h.ctx, h.sign(tt.s, tt.req), tt.req)
			if tt.err != result.Success {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
		})
	}

	info, err := h.proc.PoolInfo(h.ctx, poolID)
	require.NoError(t, err)
	assert.Equal(t, sched.Liquidity, info.LiquidityFee)
	assert.Equal(t, sched.MaxSwap, info.SwapFee)
}

func TestChargeOperationFee(t *testing.T) {
	h := newHarness(t)
	h.initialize()
	poolID := h.registerPool()
	sched := fees.DefaultSchedule()
	user := h.other.Identity()

	before := h.balance(user)
	require.NoError(t, h.charge(h.other, poolID, fees.KindLiquidity))
	require.NoError(t, h.charge(h.other, poolID, fees.KindSwap))
	require.NoError(t, h.charge(h.other, poolID, fees.KindSwap))
	assert.Equal(t, before-sched.Liquidity-2*sched.Swap, h.balance(user))

	info, err := h.proc.PoolInfo(h.ctx, poolID)
	require.NoError(t, err)
	assert.Equal(t, sched.Liquidity, info.CollectedLiquidityFees)
	assert.Equal(t, 2*sched.Swap, info.CollectedSwapFees)
	assert.Equal(t, uint64(1), info.PendingLiquidityOps)
	assert.Equal(t, uint64(2), info.PendingSwapOps)
	assert.Equal(t, info.PendingFees, info.AvailableToConsolidate)

	_, err = h.setPoolFlags(h.upgrade, poolID, 1, true)
	require.NoError(t, err)
	assert.ErrorIs(t, h.charge(h.other, poolID, fees.KindLiquidity), result.PoolPaused)
	require.NoError(t, h.charge(h.other, poolID, fees.KindSwap))

	_, err = h.setPoolFlags(h.upgrade, poolID, 2, true)
	require.NoError(t, err)
	assert.ErrorIs(t, h.charge(h.other, poolID, fees.KindSwap), result.PoolSwapsPaused)

	assert.ErrorIs(t, h.charge(h.other, poolID, fees.KindPoolCreation), result.InvalidAccountData)

	require.NoError(t, h.pause(h.admin, 4))
	assert.ErrorIs(t, h.charge(h.other, poolID, fees.KindSwap), result.SystemPaused)
}

func TestConsolidatePoolFees(t *testing.T) {
	h := newHarness(t)
	h.initialize()
	sched := fees.DefaultSchedule()

	eligible := h.registerPool()
	active := h.registerPool()
	for _, id := range []solana.PublicKey{eligible, active} {
		require.NoError(t, h.charge(h.other, id, fees.KindLiquidity))
		require.NoError(t, h.charge(h.other, id, fees.KindSwap))
	}
	_, err := h.setPoolFlags(h.upgrade, eligible, 3, true)
	require.NoError(t, err)

	before, err := h.proc.TreasuryInfo(h.ctx)
	require.NoError(t, err)

	req := ConsolidateRequest{Pools: []solana.PublicKey{eligible, active}}
	summary, err := h.proc.ConsolidatePoolFees(h.ctx, h.sign(h.admin, req), req)
	require.NoError(t, err)
	assert.Equal(t, treasury.ModeIndividualPoolPause, summary.Mode)
	assert.Equal(t, 1, summary.PoolsProcessed)
	assert.Equal(t, sched.Liquidity+sched.Swap, summary.TotalConsolidated)
	assert.Equal(t, treasury.SkipNotEligible, summary.Pools[1].Skipped)

	after, err := h.proc.TreasuryInfo(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, before.AccountBalance+summary.TotalConsolidated, after.AccountBalance)
	assert.Equal(t, after.AccountBalance, after.TotalBalance)
	assert.Equal(t, uint64(1), after.LiquidityOperationCount)
	assert.Equal(t, uint64(1), after.SwapCount)
	assert.Equal(t, uint64(1), after.TotalConsolidationsPerformed)

	pool, err := h.proc.PoolInfo(h.ctx, eligible)
	require.NoError(t, err)
	assert.Zero(t, pool.PendingFees)
	assert.Equal(t, sched.Liquidity+sched.Swap, pool.TotalFeesConsolidated)

	// A paused system makes every listed pool eligible.
	require.NoError(t, h.pause(h.admin, 1))
	summary, err = h.proc.ConsolidatePoolFees(h.ctx, h.sign(h.admin, req), req)
	require.NoError(t, err)
	assert.Equal(t, treasury.ModeSystemPaused, summary.Mode)
	assert.Equal(t, 1, summary.PoolsProcessed)
	assert.Equal(t, treasury.SkipNoFees, summary.Pools[0].Skipped)

	_, err = h.proc.ConsolidatePoolFees(h.ctx, h.sign(h.other, req), req)
	assert.ErrorIs(t, err, result.UnauthorizedAccess)
}

func TestConsolidationBatchLimit(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.Treasury.MaxPoolsPerConsolidation = 1 })
	h.initialize()

	req := ConsolidateRequest{Pools: []solana.PublicKey{h.registerPool(), h.registerPool()}}
	_, err := h.proc.ConsolidatePoolFees(h.ctx, h.sign(h.admin, req), req)
	assert.ErrorIs(t, err, result.ConsolidationBatchTooLarge)
}

func TestRestartPenalty(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.Treasury.RestartPenalty = 3600 })
	h.initialize()
	h.registerPool()

	require.NoError(t, h.pause(h.admin, 2))
	require.NoError(t, h.unpause(h.admin))

	_, err := h.withdraw(h.admin, 1000)
	assert.ErrorIs(t, err, result.WithdrawalLocked)

	h.now += 3600
	_, err = h.withdraw(h.admin, 1000)
	require.NoError(t, err)
}

func TestCorruptedTreasuryRecovery(t *testing.T) {
	h := newHarness(t)
	h.initialize()
	h.registerPool()

	healthy, err := h.proc.TreasuryInfo(h.ctx)
	require.NoError(t, err)
	assert.False(t, healthy.Recovered)
	assert.Equal(t, uint64(1), healthy.PoolCreationCount)

	k := keylet.MainTreasury(programID)
	a, err := h.store.Read(h.ctx, k)
	require.NoError(t, err)
	a.Data = []byte{0xde, 0xad}
	require.NoError(t, h.store.Update(h.ctx, k, a))

	info, err := h.proc.TreasuryInfo(h.ctx)
	require.NoError(t, err)
	assert.True(t, info.Recovered)
	assert.Equal(t, a.Balance, info.TotalBalance)
	assert.Zero(t, info.PoolCreationCount)
	assert.Zero(t, info.TreasuryWithdrawalCount)

	// Withdrawal stays available after recovery.
	_, err = h.withdraw(h.admin, 1000)
	require.NoError(t, err)
}

func TestStatePersistsAcrossReopen(t *testing.T) {
	h := newHarness(t)
	h.initialize()
	poolID := h.registerPool()
	cfg := h.proc.Config()

	h.reopen()

	status, err := h.proc.SystemStatus(h.ctx)
	require.NoError(t, err)
	assert.False(t, status.IsPaused)

	info, err := h.proc.TreasuryInfo(h.ctx)
	require.NoError(t, err)
	assert.False(t, info.Recovered)
	assert.Equal(t, uint64(1), info.PoolCreationCount)
	assert.Equal(t, cfg.Fees.PoolCreation, info.TotalPoolCreationFees)
	assert.Equal(t, cfg.Treasury.RentExemptMinimum, info.RentExemptMinimum)

	pool, err := h.proc.PoolInfo(h.ctx, poolID)
	require.NoError(t, err)
	assert.Equal(t, poolID, pool.PoolID)
	assert.Equal(t, cfg.Fees.Liquidity, pool.LiquidityFee)

	changed, err := h.setPoolFlags(h.upgrade, poolID, 3, true)
	require.NoError(t, err)
	assert.Len(t, changed, 2)

	h.reopen()

	pool, err = h.proc.PoolInfo(h.ctx, poolID)
	require.NoError(t, err)
	assert.True(t, pool.ConsolidationEligible)
}

func TestMessageBindsArguments(t *testing.T) {
	a := Message(PauseSystemRequest{ReasonCode: 1})
	b := Message(PauseSystemRequest{ReasonCode: 2})
	c := Message(UnpauseSystemRequest{})
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)

	dest := solana.NewWallet().PublicKey()
	assert.NotEqual(t, Message(WithdrawRequest{Amount: 5}), Message(WithdrawRequest{Amount: 5, Destination: &dest}))
	assert.Equal(t, Message(WithdrawRequest{Amount: 5}), Message(WithdrawRequest{Amount: 5}))
}
