package authority

//go:generate mockgen -destination=mocks/platform_authority.go -package=mocks github.com/LeJamon/poolgovd/internal/core/authority PlatformAuthority

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/LeJamon/poolgovd/internal/core/keylet"
	"github.com/LeJamon/poolgovd/internal/core/ledger"
	"github.com/LeJamon/poolgovd/internal/core/result"
	"github.com/LeJamon/poolgovd/internal/core/state"
)

// LedgerPlatform reads the platform record of a program from a view.
type LedgerPlatform struct {
	View      ledger.View
	LoaderID  solana.PublicKey
	ProgramID solana.PublicKey
}

// UpgradeAuthority returns the upgrade authority held in the platform record.
// The record must be owned by the loader.
func (p LedgerPlatform) UpgradeAuthority(ctx context.Context) (*solana.PublicKey, error) {
	k := keylet.PlatformData(p.LoaderID, p.ProgramID)
	a, err := p.View.Read(ctx, k)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, result.Errorf(result.InvalidAccountData, "platform record %s not found", k.Key)
	}
	if a.Owner != p.LoaderID {
		return nil, result.Errorf(result.InvalidAccountData, "platform record owned by %s", a.Owner)
	}
	data, err := state.DecodePlatformData(a.Data)
	if err != nil {
		return nil, result.Wrap(result.InvalidAccountData, err)
	}
	return data.UpgradeAuthority, nil
}
