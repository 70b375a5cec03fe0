package state

import (
	"math"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemStateLayout(t *testing.T) {
	admin := solana.NewWallet().PublicKey()
	pending := solana.NewWallet().PublicKey()

	tests := []struct {
		name  string
		state SystemState
	}{
		{
			name:  "fresh",
			state: SystemState{AdminAuthority: admin},
		},
		{
			name: "paused with pending rotation",
			state: SystemState{
				IsPaused:              true,
				PauseTimestamp:        1_700_000_000,
				PauseReasonCode:       3,
				AdminAuthority:        admin,
				PendingAdminAuthority: &pending,
				AdminChangeTimestamp:  1_700_000_100,
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			buf := tc.state.Encode()
			require.Len(t, buf, 83)

			got, err := DecodeSystemState(buf)
			require.NoError(t, err)
			assert.Equal(t, tc.state, *got)
		})
	}
}

func TestDecodeSystemStateRejectsBadInput(t *testing.T) {
	valid := NewSystemState(solana.NewWallet().PublicKey()).Encode()

	tests := []struct {
		name string
		data []byte
	}{
		{"short", valid[:82]},
		{"long", append(append([]byte(nil), valid...), 0)},
		{"bad pause flag", func() []byte { b := append([]byte(nil), valid...); b[0] = 2; return b }()},
		{"bad option tag", func() []byte { b := append([]byte(nil), valid...); b[42] = 7; return b }()},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeSystemState(tc.data)
			assert.Error(t, err)
		})
	}
}

func TestMainTreasuryStateCodec(t *testing.T) {
	s := NewMainTreasuryState(890_880, 100)
	s.AddPoolCreationFee(1_150_000_000, 101)
	s.TotalBalance = 1_150_890_880

	buf, err := s.Encode()
	require.NoError(t, err)

	got, err := DecodeMainTreasuryState(buf)
	require.NoError(t, err)
	assert.Equal(t, s, got)

	_, err = DecodeMainTreasuryState([]byte{recordTreasury, 0xc1})
	assert.Error(t, err)

	_, err = DecodeMainTreasuryState([]byte{recordPool, 0x80})
	assert.ErrorIs(t, err, ErrRecordTag)
}

func TestRecoverMainTreasuryState(t *testing.T) {
	s := RecoverMainTreasuryState(5_000, 1_000, 42)
	assert.Equal(t, uint64(5_000), s.TotalBalance)
	assert.Equal(t, uint64(1_000), s.RentExemptMinimum)
	assert.Zero(t, s.TotalWithdrawn)
	assert.Zero(t, s.TotalOperationsProcessed())
	assert.Zero(t, s.TotalFeesCollected())
}

func TestTreasuryAccounting(t *testing.T) {
	s := NewMainTreasuryState(1_000, 0)

	assert.Zero(t, s.AvailableForWithdrawal(999))
	assert.Zero(t, s.AvailableForWithdrawal(1_000))
	assert.Equal(t, uint64(500), s.AvailableForWithdrawal(1_500))

	s.SyncBalance(1_500)
	require.NoError(t, s.RecordWithdrawal(500, 10))
	assert.Equal(t, uint64(1_000), s.TotalBalance)
	assert.Equal(t, uint64(500), s.TotalWithdrawn)
	assert.Equal(t, uint64(1), s.TreasuryWithdrawalCount)
	assert.ErrorIs(t, s.RecordWithdrawal(2_000, 11), ErrWithdrawalExceedsBalance)

	s.AddPoolCreationFee(1_000, 12)
	s.AddLiquidityFees(300, 3, 12)
	s.AddSwapFees(200, 4, 12)
	assert.Equal(t, uint64(1_500), s.TotalFeesCollected())
	assert.Equal(t, uint64(8), s.TotalOperationsProcessed())
	assert.InDelta(t, 187.5, s.AverageFeePerOperation(), 1e-9)

	s.RecordFailedOperation(13)
	assert.InDelta(t, 8.0/9.0, s.SuccessRate(), 1e-9)
}

func TestTreasuryTotalsClamp(t *testing.T) {
	s := &MainTreasuryState{
		TotalPoolCreationFees: math.MaxUint64,
		TotalSwapFees:         10,
	}
	assert.Equal(t, uint64(math.MaxUint64), s.TotalFeesCollected())
	s.AddSwapFees(math.MaxUint64, 1, 0)
	assert.Equal(t, uint64(math.MaxUint64), s.TotalSwapFees)
}

func TestRestartPenalty(t *testing.T) {
	s := NewMainTreasuryState(0, 0)
	assert.Zero(t, s.WithdrawalLockedUntil(100))

	s.ApplyRestartPenalty(100, 71*3600)
	assert.Equal(t, int64(100+71*3600), s.WithdrawalLockedUntil(100))
	assert.Zero(t, s.WithdrawalLockedUntil(100+71*3600))
}

func TestPoolFlagsAndFees(t *testing.T) {
	p := &PoolState{PoolID: solana.NewWallet().PublicKey(), LiquidityFee: 1_300_000, SwapFee: 12_500}
	assert.False(t, p.ConsolidationEligible())

	p.Flags |= PoolFlagLiquidityPaused
	assert.True(t, p.LiquidityPaused())
	assert.False(t, p.ConsolidationEligible())

	p.Flags |= PoolFlagSwapsPaused
	assert.True(t, p.ConsolidationEligible())

	p.RecordLiquidityFee(1_300_000)
	p.RecordSwapFee(12_500)
	assert.Equal(t, uint64(1_312_500), p.PendingFees())
	require.NoError(t, p.ValidateFeeConsistency())

	assert.Equal(t, uint64(1_312_500), p.AvailableForConsolidation(10_000_000, 1_000))
	assert.Equal(t, uint64(500), p.AvailableForConsolidation(1_500, 1_000))
	assert.Zero(t, p.AvailableForConsolidation(900, 1_000))

	p.TotalFeesCollected++
	assert.Error(t, p.ValidateFeeConsistency())

	buf, err := p.Encode()
	require.NoError(t, err)
	got, err := DecodePoolState(buf)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestPlatformData(t *testing.T) {
	authority := solana.NewWallet().PublicKey()

	p := &PlatformData{Slot: 77, UpgradeAuthority: &authority}
	buf := append(p.Encode(), []byte("program bytes")...)
	got, err := DecodePlatformData(buf)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	immutable, err := DecodePlatformData((&PlatformData{Slot: 1}).Encode())
	require.NoError(t, err)
	assert.Nil(t, immutable.UpgradeAuthority)

	bad := p.Encode()
	bad[0] = 2
	_, err = DecodePlatformData(bad)
	assert.ErrorIs(t, err, ErrRecordTag)
}

func TestAccountCodec(t *testing.T) {
	a := NewAccount(solana.NewWallet().PublicKey(), 42)
	a.Data = []byte{1, 2, 3}

	buf, err := EncodeAccount(a)
	require.NoError(t, err)
	got, err := DecodeAccount(buf)
	require.NoError(t, err)
	assert.Equal(t, a, got)
	assert.True(t, got.IsNative())

	c := a.Clone()
	c.Data[0] = 9
	assert.Equal(t, byte(1), a.Data[0])
}

func TestRecordsCarryTag(t *testing.T) {
	tests := []struct {
		name   string
		tag    byte
		encode func() ([]byte, error)
		decode func([]byte) error
	}{
		{
			name:   "account",
			tag:    recordAccount,
			encode: func() ([]byte, error) { return EncodeAccount(NewAccount(solana.NewWallet().PublicKey(), 7)) },
			decode: func(b []byte) error { _, err := DecodeAccount(b); return err },
		},
		{
			name:   "treasury",
			tag:    recordTreasury,
			encode: NewMainTreasuryState(890_880, 1).Encode,
			decode: func(b []byte) error { _, err := DecodeMainTreasuryState(b); return err },
		},
		{
			name:   "pool",
			tag:    recordPool,
			encode: (&PoolState{PoolID: solana.NewWallet().PublicKey(), SwapFee: 12_500}).Encode,
			decode: func(b []byte) error { _, err := DecodePoolState(b); return err },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, err := tt.encode()
			require.NoError(t, err)
			require.Greater(t, len(buf), 1)
			assert.Equal(t, tt.tag, buf[0])
			assert.NoError(t, tt.decode(buf))
		})
	}
}
