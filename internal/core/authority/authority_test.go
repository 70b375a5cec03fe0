package authority

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/poolgovd/internal/core/authority/mocks"
	"github.com/LeJamon/poolgovd/internal/core/keylet"
	"github.com/LeJamon/poolgovd/internal/core/ledger"
	"github.com/LeJamon/poolgovd/internal/core/result"
	"github.com/LeJamon/poolgovd/internal/core/state"
	"github.com/LeJamon/poolgovd/internal/storage/database/memory"
)

func TestChainResolve(t *testing.T) {
	ctx := context.Background()
	admin := solana.NewWallet().PublicKey()
	upgrade := solana.NewWallet().PublicKey()
	stranger := solana.NewWallet().PublicKey()
	lookupErr := errors.New("platform record unavailable")

	tests := []struct {
		name       string
		signer     Signer
		sys        *state.SystemState
		authority  *solana.PublicKey
		lookupErr  error
		expectCall bool
		source     Source
		code       result.Code
	}{
		{
			name:   "admin matches",
			signer: Signer{Key: admin, IsSigner: true},
			sys:    state.NewSystemState(admin),
			source: SourceAdmin,
		},
		{
			name:       "fallback to upgrade authority",
			signer:     Signer{Key: upgrade, IsSigner: true},
			sys:        state.NewSystemState(admin),
			authority:  &upgrade,
			expectCall: true,
			source:     SourceUpgradeAuthority,
		},
		{
			name:       "fallback without system state",
			signer:     Signer{Key: upgrade, IsSigner: true},
			authority:  &upgrade,
			expectCall: true,
			source:     SourceUpgradeAuthority,
		},
		{
			name:       "stranger rejected",
			signer:     Signer{Key: stranger, IsSigner: true},
			sys:        state.NewSystemState(admin),
			authority:  &upgrade,
			expectCall: true,
			code:       result.UnauthorizedAccess,
		},
		{
			name:       "immutable program has no fallback",
			signer:     Signer{Key: upgrade, IsSigner: true},
			sys:        state.NewSystemState(admin),
			expectCall: true,
			code:       result.UnauthorizedAccess,
		},
		{
			name:       "lookup failure fails closed",
			signer:     Signer{Key: upgrade, IsSigner: true},
			sys:        state.NewSystemState(admin),
			lookupErr:  lookupErr,
			expectCall: true,
			code:       result.UnauthorizedAccess,
		},
		{
			name:   "admin without signature",
			signer: Signer{Key: admin},
			sys:    state.NewSystemState(admin),
			code:   result.MissingRequiredSignature,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			platform := mocks.NewMockPlatformAuthority(ctrl)
			if tt.expectCall {
				platform.EXPECT().UpgradeAuthority(gomock.Any()).Return(tt.authority, tt.lookupErr)
			}

			source, err := AdminChain(platform, nil).Resolve(ctx, tt.signer, tt.sys)
			assert.Equal(t, tt.code, result.CodeOf(err))
			assert.Equal(t, tt.source, source)
			if tt.lookupErr != nil {
				assert.ErrorIs(t, err, tt.lookupErr)
			}
		})
	}
}

func TestUpgradeAuthorityOnly(t *testing.T) {
	ctx := context.Background()
	admin := solana.NewWallet().PublicKey()
	upgrade := solana.NewWallet().PublicKey()

	ctrl := gomock.NewController(t)
	platform := mocks.NewMockPlatformAuthority(ctrl)
	platform.EXPECT().UpgradeAuthority(gomock.Any()).Return(&upgrade, nil).Times(2)

	chain := UpgradeAuthorityOnly(platform, nil)
	_, err := chain.Resolve(ctx, Signer{Key: admin, IsSigner: true}, state.NewSystemState(admin))
	assert.Equal(t, result.UnauthorizedAccess, result.CodeOf(err), "admin is not enough")

	source, err := chain.Resolve(ctx, Signer{Key: upgrade, IsSigner: true}, state.NewSystemState(admin))
	require.NoError(t, err)
	assert.Equal(t, SourceUpgradeAuthority, source)
}

func TestLedgerPlatform(t *testing.T) {
	ctx := context.Background()
	store, err := ledger.NewStore(memory.NewDB(), ledger.StoreConfig{})
	require.NoError(t, err)

	loader := solana.BPFLoaderUpgradeableProgramID
	program := solana.NewWallet().PublicKey()
	upgrade := solana.NewWallet().PublicKey()
	p := LedgerPlatform{View: store, LoaderID: loader, ProgramID: program}

	_, err = p.UpgradeAuthority(ctx)
	assert.Equal(t, result.InvalidAccountData, result.CodeOf(err))

	k := keylet.PlatformData(loader, program)
	record := &state.PlatformData{Slot: 42, UpgradeAuthority: &upgrade}
	require.NoError(t, store.Insert(ctx, k, &state.Account{Owner: loader, Data: record.Encode()}))

	got, err := p.UpgradeAuthority(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, upgrade, *got)

	t.Run("foreign owner", func(t *testing.T) {
		forged := &state.Account{Owner: solana.NewWallet().PublicKey(), Data: record.Encode()}
		require.NoError(t, store.Update(ctx, k, forged))
		_, err := p.UpgradeAuthority(ctx)
		assert.Equal(t, result.InvalidAccountData, result.CodeOf(err))
	})
}
