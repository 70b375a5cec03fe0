package fees

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/poolgovd/internal/core/guard"
	"github.com/LeJamon/poolgovd/internal/core/keylet"
	"github.com/LeJamon/poolgovd/internal/core/ledger"
	"github.com/LeJamon/poolgovd/internal/core/result"
	"github.com/LeJamon/poolgovd/internal/core/state"
	"github.com/LeJamon/poolgovd/internal/storage/database/memory"
)

func TestValidatePayment(t *testing.T) {
	tests := []struct {
		name      string
		available uint64
		required  uint64
		valid     bool
	}{
		{name: "exact", available: 100, required: 100, valid: true},
		{name: "surplus", available: 101, required: 100, valid: true},
		{name: "short by one", available: 99, required: 100},
		{name: "zero fee", available: 0, required: 0, valid: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ValidatePayment(tt.available, tt.required, ContextSwap)
			assert.Equal(t, tt.valid, r.IsValid)
			assert.Equal(t, tt.available, r.AvailableBalance)
			assert.Equal(t, tt.required, r.RequiredAmount)
			if tt.valid {
				assert.Empty(t, r.ErrorMessage)
			} else {
				assert.Equal(t, "Insufficient balance for context 3: required 100 lamports, available 99 lamports", r.ErrorMessage)
			}
		})
	}
}

func TestValidateDestination(t *testing.T) {
	expected := solana.NewWallet().PublicKey()

	err := ValidateDestination(Destination{Key: expected, Writable: true}, expected, DestinationMainTreasury)
	assert.NoError(t, err)

	err = ValidateDestination(Destination{Key: solana.NewWallet().PublicKey(), Writable: true}, expected, DestinationMainTreasury)
	assert.Equal(t, result.TreasuryValidationFailed, result.CodeOf(err))

	err = ValidateDestination(Destination{Key: expected}, expected, DestinationPool)
	assert.Equal(t, result.FeeValidationFailed, result.CodeOf(err))
}

type collectFixture struct {
	view     *ledger.Sandbox
	payer    keylet.Keylet
	treasury keylet.Keylet
}

func newCollectFixture(t *testing.T, payerBalance uint64) *collectFixture {
	t.Helper()
	ctx := context.Background()
	store, err := ledger.NewStore(memory.NewDB(), ledger.StoreConfig{})
	require.NoError(t, err)

	f := &collectFixture{
		view:     ledger.NewSandbox(store),
		payer:    keylet.Account(solana.NewWallet().PublicKey()),
		treasury: keylet.MainTreasury(solana.SystemProgramID),
	}
	require.NoError(t, f.view.Insert(ctx, f.payer, state.NewAccount(f.payer.Key, payerBalance)))
	require.NoError(t, f.view.Insert(ctx, f.treasury, state.NewAccount(solana.SystemProgramID, 50)))
	return f
}

func (f *collectFixture) collection(amount uint64) Collection {
	return Collection{
		Payer:       f.payer,
		Destination: f.treasury,
		Writable:    true,
		Expected:    f.treasury.Key,
		Type:        DestinationMainTreasury,
		Amount:      amount,
		Context:     ContextPoolCreation,
	}
}

func TestCollectAtomic(t *testing.T) {
	ctx := context.Background()

	t.Run("conserves value", func(t *testing.T) {
		f := newCollectFixture(t, 1000)
		require.NoError(t, NewCollector(nil).CollectAtomic(ctx, f.view, guard.New(nil), f.collection(400)))

		payer, err := ledger.Balance(ctx, f.view, f.payer)
		require.NoError(t, err)
		treasury, err := ledger.Balance(ctx, f.view, f.treasury)
		require.NoError(t, err)
		assert.Equal(t, uint64(1000-400), payer)
		assert.Equal(t, uint64(50+400), treasury)
	})

	t.Run("insufficient balance aborts before transfer", func(t *testing.T) {
		f := newCollectFixture(t, 399)
		err := NewCollector(nil).CollectAtomic(ctx, f.view, nil, f.collection(400))
		assert.Equal(t, result.InsufficientFeeBalance, result.CodeOf(err))
		assert.Contains(t, err.Error(), "required 400 lamports, available 399 lamports")
	})

	t.Run("wrong destination", func(t *testing.T) {
		f := newCollectFixture(t, 1000)
		c := f.collection(10)
		c.Expected = solana.NewWallet().PublicKey()
		err := NewCollector(nil).CollectAtomic(ctx, f.view, nil, c)
		assert.Equal(t, result.TreasuryValidationFailed, result.CodeOf(err))
	})

	t.Run("read-only destination", func(t *testing.T) {
		f := newCollectFixture(t, 1000)
		c := f.collection(10)
		c.Writable = false
		err := NewCollector(nil).CollectAtomic(ctx, f.view, nil, c)
		assert.Equal(t, result.FeeValidationFailed, result.CodeOf(err))
	})

	mismatches := []struct {
		name     string
		transfer TransferFunc
		side     Side
	}{
		{
			name: "payer over-debited",
			transfer: func(ctx context.Context, v ledger.View, from, to keylet.Keylet, amount uint64) error {
				if err := ledger.Debit(ctx, v, from, 1); err != nil {
					return err
				}
				return ledger.Transfer(ctx, v, from, to, amount)
			},
			side: SidePayer,
		},
		{
			name: "treasury under-credited",
			transfer: func(ctx context.Context, v ledger.View, from, to keylet.Keylet, amount uint64) error {
				return ledger.Debit(ctx, v, from, amount)
			},
			side: SideTreasury,
		},
	}
	for _, tt := range mismatches {
		t.Run(tt.name, func(t *testing.T) {
			f := newCollectFixture(t, 1000)
			err := NewCollectorWithTransfer(tt.transfer, nil).CollectAtomic(ctx, f.view, nil, f.collection(100))
			assert.Equal(t, result.FeeCollectionFailed, result.CodeOf(err))

			var rec *ReconciliationError
			require.True(t, errors.As(err, &rec))
			assert.Equal(t, tt.side, rec.Side)
		})
	}

	t.Run("transfer failure", func(t *testing.T) {
		f := newCollectFixture(t, 1000)
		boom := errors.New("boom")
		failing := func(context.Context, ledger.View, keylet.Keylet, keylet.Keylet, uint64) error { return boom }
		err := NewCollectorWithTransfer(failing, nil).CollectAtomic(ctx, f.view, nil, f.collection(1))
		assert.Equal(t, result.FeeCollectionFailed, result.CodeOf(err))
		assert.ErrorIs(t, err, boom)
	})

	t.Run("locked account", func(t *testing.T) {
		f := newCollectFixture(t, 1000)
		g := guard.New(nil)
		release, err := g.Enter("outer", f.payer.Key)
		require.NoError(t, err)
		defer release()

		err = NewCollector(nil).CollectAtomic(ctx, f.view, g, f.collection(1))
		assert.Equal(t, result.ReentrancyDetected, result.CodeOf(err))
	})
}

func TestScheduleValidateUpdate(t *testing.T) {
	s := DefaultSchedule()
	require.NoError(t, s.Validate())

	tests := []struct {
		name      string
		flags     uint8
		liquidity uint64
		swap      uint64
		code      result.Code
	}{
		{name: "liquidity only ignores swap", flags: UpdateLiquidity, liquidity: s.MinLiquidity, swap: 0},
		{name: "swap only ignores liquidity", flags: UpdateSwap, liquidity: 0, swap: s.MaxSwap},
		{name: "both", flags: UpdateBoth, liquidity: s.Liquidity, swap: s.Swap},
		{name: "zero flags", flags: 0, code: result.InvalidFeeUpdateFlags},
		{name: "unknown flag", flags: 4, code: result.InvalidFeeUpdateFlags},
		{name: "liquidity below min", flags: UpdateLiquidity, liquidity: s.MinLiquidity - 1, code: result.InvalidFeeAmount},
		{name: "swap above max", flags: UpdateBoth, liquidity: s.Liquidity, swap: s.MaxSwap + 1, code: result.InvalidFeeAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.ValidateUpdate(tt.flags, tt.liquidity, tt.swap)
			assert.Equal(t, tt.code, result.CodeOf(err))
		})
	}
}

func TestScheduleValidate(t *testing.T) {
	s := DefaultSchedule()
	s.MinSwap = s.MaxSwap + 1
	assert.Error(t, s.Validate())

	s = DefaultSchedule()
	s.Liquidity = s.MaxLiquidity + 1
	assert.Error(t, s.Validate())
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{KindPoolCreation, KindLiquidity, KindSwap} {
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}
	_, err := ParseKind("mint")
	assert.Error(t, err)
}
