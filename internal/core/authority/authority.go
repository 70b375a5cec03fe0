// Package authority decides who may perform privileged operations.
//
// Resolution walks an ordered chain of resolvers. The admin recorded in the
// system state is tried first; the platform upgrade authority is accepted as
// a fallback while no admin has been configured. Every check fails closed.
package authority

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/LeJamon/poolgovd/internal/core/result"
	"github.com/LeJamon/poolgovd/internal/core/state"
)

// ErrNoMatch is returned by a resolver that does not recognize the signer.
var ErrNoMatch = errors.New("signer does not match")

// Signer is an identity that may have authorized the current call.
type Signer struct {
	Key      solana.PublicKey
	IsSigner bool
}

// Source names the resolver that accepted a signer.
type Source string

const (
	SourceAdmin            Source = "admin"
	SourceUpgradeAuthority Source = "upgrade_authority"
)

// Resolver checks a signer against one source of authority.
type Resolver interface {
	Source() Source
	// Resolve returns nil when signer is authorized, ErrNoMatch when it is
	// not, or another error when the check itself failed.
	Resolve(ctx context.Context, signer Signer, sys *state.SystemState) error
}

// PlatformAuthority reads the upgrade authority from the platform record.
// A nil key means the program is immutable.
type PlatformAuthority interface {
	UpgradeAuthority(ctx context.Context) (*solana.PublicKey, error)
}

// AdminResolver accepts the admin recorded in the system state.
type AdminResolver struct{}

func (AdminResolver) Source() Source { return SourceAdmin }

func (AdminResolver) Resolve(_ context.Context, signer Signer, sys *state.SystemState) error {
	if sys == nil || sys.AdminAuthority.IsZero() || signer.Key != sys.AdminAuthority {
		return ErrNoMatch
	}
	return nil
}

// UpgradeAuthorityResolver accepts the platform upgrade authority.
type UpgradeAuthorityResolver struct {
	Platform PlatformAuthority
}

func (r UpgradeAuthorityResolver) Source() Source { return SourceUpgradeAuthority }

func (r UpgradeAuthorityResolver) Resolve(ctx context.Context, signer Signer, _ *state.SystemState) error {
	if r.Platform == nil {
		return ErrNoMatch
	}
	authority, err := r.Platform.UpgradeAuthority(ctx)
	if err != nil {
		return err
	}
	if authority == nil || *authority != signer.Key {
		return ErrNoMatch
	}
	return nil
}

// Chain tries resolvers in order.
type Chain struct {
	resolvers []Resolver
	log       *zap.Logger
}

// NewChain creates a chain over resolvers.
func NewChain(log *zap.Logger, resolvers ...Resolver) *Chain {
	if log == nil {
		log = zap.NewNop()
	}
	return &Chain{resolvers: resolvers, log: log}
}

// AdminChain is the standard admin-then-upgrade-authority chain.
func AdminChain(platform PlatformAuthority, log *zap.Logger) *Chain {
	return NewChain(log, AdminResolver{}, UpgradeAuthorityResolver{Platform: platform})
}

// UpgradeAuthorityOnly accepts only the platform upgrade authority.
func UpgradeAuthorityOnly(platform PlatformAuthority, log *zap.Logger) *Chain {
	return NewChain(log, UpgradeAuthorityResolver{Platform: platform})
}

// Resolve returns the source that authorized signer. A non-signer, an
// unmatched signer, or a failing lookup yields UnauthorizedAccess.
func (c *Chain) Resolve(ctx context.Context, signer Signer, sys *state.SystemState) (Source, error) {
	if !signer.IsSigner {
		return "", result.Errorf(result.MissingRequiredSignature, "%s did not sign", signer.Key)
	}

	for i, r := range c.resolvers {
		err := r.Resolve(ctx, signer, sys)
		switch {
		case err == nil:
			if i > 0 {
				c.log.Warn("authority granted by fallback resolver",
					zap.String("source", string(r.Source())),
					zap.String("signer", signer.Key.String()))
			}
			return r.Source(), nil
		case errors.Is(err, ErrNoMatch):
			continue
		default:
			c.log.Error("authority lookup failed",
				zap.String("source", string(r.Source())),
				zap.Error(err))
			return "", result.Wrap(result.UnauthorizedAccess, err)
		}
	}
	return "", result.Errorf(result.UnauthorizedAccess, "%s is not an authority", signer.Key)
}
