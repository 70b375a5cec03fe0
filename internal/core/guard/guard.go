package guard

import (
	"context"
	"sync"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/LeJamon/poolgovd/internal/core/keylet"
	"github.com/LeJamon/poolgovd/internal/core/ledger"
	"github.com/LeJamon/poolgovd/internal/core/result"
)

// MaxDepth is the deepest legitimate nesting of guarded operations.
const MaxDepth = 2

// Operation is the wrapped action. It runs between capture and validation.
type Operation func(ctx context.Context) error

// Guard tracks the guarded operations of a single call. It is not shared
// between calls.
type Guard struct {
	mu     sync.Mutex
	depth  int
	locked map[solana.PublicKey]string
	log    *zap.Logger
}

// New creates a guard for one call.
func New(log *zap.Logger) *Guard {
	if log == nil {
		log = zap.NewNop()
	}
	return &Guard{
		locked: make(map[solana.PublicKey]string),
		log:    log,
	}
}

// Depth returns the number of guarded operations in progress.
func (g *Guard) Depth() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.depth
}

// Enter locks keys for op. The returned release must be called when the
// operation finishes.
func (g *Guard) Enter(op string, keys ...solana.PublicKey) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.depth >= MaxDepth {
		g.log.Warn("reentrancy depth exceeded", zap.String("op", op), zap.Int("depth", g.depth))
		return nil, result.Errorf(result.ReentrancyDetected, "%s: max depth %d exceeded", op, MaxDepth)
	}
	for _, k := range keys {
		if holder, busy := g.locked[k]; busy {
			g.log.Warn("account already locked",
				zap.String("op", op),
				zap.String("account", k.String()),
				zap.String("holder", holder))
			return nil, result.Errorf(result.ReentrancyDetected, "%s: account %s in use by %s", op, k, holder)
		}
	}

	acquired := make([]solana.PublicKey, 0, len(keys))
	for _, k := range keys {
		if _, dup := g.locked[k]; dup {
			continue
		}
		g.locked[k] = op
		acquired = append(acquired, k)
	}
	g.depth++
	g.log.Debug("guard entered", zap.String("op", op), zap.Int("depth", g.depth))

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			defer g.mu.Unlock()
			for _, k := range acquired {
				delete(g.locked, k)
			}
			g.depth--
		})
	}, nil
}

// Transfer runs fn, which must move exactly amount from one account to the
// other. When fn is nil the ledger transfer is used.
func (g *Guard) Transfer(ctx context.Context, v ledger.View, from, to keylet.Keylet, amount uint64, op string, fn Operation) error {
	delta, err := Signed(amount)
	if err != nil {
		return err
	}
	if fn == nil {
		fn = func(ctx context.Context) error {
			return ledger.Transfer(ctx, v, from, to, amount)
		}
	}

	release, err := g.Enter(op, from.Key, to.Key)
	if err != nil {
		return err
	}
	defer release()

	source, err := Capture(ctx, v, from)
	if err != nil {
		return err
	}
	dest, err := Capture(ctx, v, to)
	if err != nil {
		return err
	}

	if err := fn(ctx); err != nil {
		return err
	}

	if err := source.ValidateChange(ctx, v, -delta); err != nil {
		g.log.Warn("unexpected source change", zap.String("op", op), zap.Error(err))
		return err
	}
	if err := dest.ValidateChange(ctx, v, delta); err != nil {
		g.log.Warn("unexpected destination change", zap.String("op", op), zap.Error(err))
		return err
	}
	return nil
}

// Mint runs fn, which must increase dst by exactly amount.
func (g *Guard) Mint(ctx context.Context, v ledger.View, dst keylet.Keylet, amount uint64, op string, fn Operation) error {
	delta, err := Signed(amount)
	if err != nil {
		return err
	}
	return g.single(ctx, v, dst, delta, op, fn)
}

// Burn runs fn, which must decrease src by exactly amount.
func (g *Guard) Burn(ctx context.Context, v ledger.View, src keylet.Keylet, amount uint64, op string, fn Operation) error {
	delta, err := Signed(amount)
	if err != nil {
		return err
	}
	return g.single(ctx, v, src, -delta, op, fn)
}

func (g *Guard) single(ctx context.Context, v ledger.View, k keylet.Keylet, delta int64, op string, fn Operation) error {
	release, err := g.Enter(op, k.Key)
	if err != nil {
		return err
	}
	defer release()

	snap, err := Capture(ctx, v, k)
	if err != nil {
		return err
	}
	if err := fn(ctx); err != nil {
		return err
	}
	if err := snap.ValidateChange(ctx, v, delta); err != nil {
		g.log.Warn("unexpected balance change", zap.String("op", op), zap.Error(err))
		return err
	}
	return nil
}
