// Package processor executes governance and treasury calls against the
// ledger. Every call runs in its own sandbox: it either commits all of its
// changes or none of them, and its outcome is journaled either way.
package processor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/LeJamon/poolgovd/internal/core/authority"
	"github.com/LeJamon/poolgovd/internal/core/fees"
	"github.com/LeJamon/poolgovd/internal/core/guard"
	"github.com/LeJamon/poolgovd/internal/core/keylet"
	"github.com/LeJamon/poolgovd/internal/core/ledger"
	"github.com/LeJamon/poolgovd/internal/core/result"
	"github.com/LeJamon/poolgovd/internal/core/state"
	"github.com/LeJamon/poolgovd/internal/core/treasury"
	"github.com/LeJamon/poolgovd/internal/crypto/signer"
	"github.com/LeJamon/poolgovd/internal/journal"
)

// Config holds processor configuration
type Config struct {
	// ProgramID owns every governance record
	ProgramID solana.PublicKey
	// LoaderID owns the platform record naming the upgrade authority
	LoaderID solana.PublicKey

	Fees     fees.Schedule
	Treasury treasury.Config
}

// DefaultConfig returns a configuration for programID with default fees
// and treasury policy.
func DefaultConfig(programID solana.PublicKey) Config {
	return Config{
		ProgramID: programID,
		LoaderID:  solana.BPFLoaderUpgradeableProgramID,
		Fees:      fees.DefaultSchedule(),
		Treasury:  treasury.DefaultConfig(),
	}
}

// Recorder receives the outcome of every state-changing call.
type Recorder interface {
	Append(ctx context.Context, entry journal.Entry) (journal.Event, error)
}

// ApplyResult is the outcome of a state-changing call.
type ApplyResult struct {
	Result  result.Code
	Applied bool
	Message string
}

// Processor applies calls one at a time.
type Processor struct {
	mu sync.RWMutex

	base      ledger.Base
	config    Config
	treasury  *treasury.Treasury
	collector *fees.Collector
	log       *zap.Logger

	clock    func() time.Time
	platform authority.PlatformAuthority
	recorder Recorder
}

// New creates a processor over base.
func New(base ledger.Base, config Config, log *zap.Logger) (*Processor, error) {
	if config.ProgramID.IsZero() {
		return nil, fmt.Errorf("program id is required")
	}
	if err := config.Fees.Validate(); err != nil {
		return nil, fmt.Errorf("invalid fee schedule: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("component", "processor"))

	return &Processor{
		base:      base,
		config:    config,
		treasury:  treasury.New(keylet.MainTreasury(config.ProgramID), config.Treasury, log.Named("treasury")),
		collector: fees.NewCollector(log.Named("fees")),
		log:       log,
		clock:     time.Now,
	}, nil
}

// SetClock replaces the time source.
func (p *Processor) SetClock(clock func() time.Time) {
	p.clock = clock
}

// SetPlatform overrides the upgrade authority source. By default the
// platform record in the ledger is read.
func (p *Processor) SetPlatform(platform authority.PlatformAuthority) {
	p.platform = platform
}

// SetRecorder installs the journal that receives call outcomes.
func (p *Processor) SetRecorder(r Recorder) {
	p.recorder = r
}

// Config returns the processor configuration.
func (p *Processor) Config() Config {
	return p.config
}

// call carries what an operation needs beyond the sandbox.
type call struct {
	signer authority.Signer
	now    int64
	guard  *guard.Guard
}

type operation func(ctx context.Context, sb *ledger.Sandbox, c *call) (string, error)

// apply verifies env over req, runs fn in a fresh sandbox and commits on
// success.
func (p *Processor) apply(ctx context.Context, env signer.Envelope, req Request, fn operation) (ApplyResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	c := &call{
		signer: p.verify(env, req),
		now:    p.clock().Unix(),
		guard:  guard.New(p.log),
	}

	sb := ledger.NewSandbox(p.base)
	detail, err := fn(ctx, sb, c)
	if err == nil {
		err = sb.Apply(ctx)
	} else {
		sb.Discard()
	}

	res := ApplyResult{Result: result.CodeOf(err), Applied: err == nil, Message: detail}
	if err != nil {
		res.Message = err.Error()
		p.log.Info("call rejected",
			zap.String("op", req.Op()),
			zap.String("signer", c.signer.Key.String()),
			zap.Stringer("result", res.Result),
			zap.Error(err))
	} else {
		p.log.Info("call applied",
			zap.String("op", req.Op()),
			zap.String("signer", c.signer.Key.String()),
			zap.String("detail", detail))
	}
	p.record(ctx, req.Op(), c, res)
	return res, err
}

func (p *Processor) record(ctx context.Context, op string, c *call, res ApplyResult) {
	if p.recorder == nil {
		return
	}
	entry := journal.Entry{
		Time:   c.now,
		Op:     op,
		Code:   int(res.Result),
		Detail: res.Message,
	}
	if !c.signer.Key.IsZero() {
		entry.Signer = c.signer.Key.String()
	}
	if _, err := p.recorder.Append(ctx, entry); err != nil {
		p.log.Error("failed to journal call", zap.String("op", op), zap.Error(err))
	}
}

// verify maps an envelope onto a signer. An envelope that does not verify
// yields the claimed identity without signer status.
func (p *Processor) verify(env signer.Envelope, req Request) authority.Signer {
	msg := Message(req)
	id, err := env.Verify(msg[:])
	if err != nil {
		claimed, _ := env.Identity()
		if !env.IsZero() {
			p.log.Debug("envelope rejected", zap.String("op", req.Op()), zap.Error(err))
		}
		return authority.Signer{Key: claimed}
	}
	return authority.Signer{Key: id, IsSigner: true}
}

func (p *Processor) platformFor(v ledger.View) authority.PlatformAuthority {
	if p.platform != nil {
		return p.platform
	}
	return authority.LedgerPlatform{View: v, LoaderID: p.config.LoaderID, ProgramID: p.config.ProgramID}
}

func (p *Processor) adminChain(v ledger.View) *authority.Chain {
	return authority.AdminChain(p.platformFor(v), p.log)
}

func (p *Processor) upgradeAuthority(v ledger.View) *authority.Chain {
	return authority.UpgradeAuthorityOnly(p.platformFor(v), p.log)
}

func requireSigner(s authority.Signer) error {
	if !s.IsSigner {
		return result.Errorf(result.MissingRequiredSignature, "%s did not sign", s.Key)
	}
	return nil
}

func (p *Processor) systemKeylet() keylet.Keylet {
	return keylet.SystemState(p.config.ProgramID)
}

func (p *Processor) poolKeylet(poolID solana.PublicKey) keylet.Keylet {
	return keylet.Pool(p.config.ProgramID, poolID)
}

func (p *Processor) loadSystem(ctx context.Context, v ledger.View) (*state.SystemState, error) {
	a, err := v.Read(ctx, p.systemKeylet())
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, result.Errorf(result.NotInitialized, "system state not found")
	}
	s, err := state.DecodeSystemState(a.Data)
	if err != nil {
		return nil, result.Wrap(result.InvalidAccountData, err)
	}
	return s, nil
}

func (p *Processor) saveSystem(ctx context.Context, v ledger.View, s *state.SystemState) error {
	k := p.systemKeylet()
	a, err := v.Read(ctx, k)
	if err != nil {
		return err
	}
	if a == nil {
		return result.Errorf(result.NotInitialized, "system state not found")
	}
	a.Data = s.Encode()
	return v.Update(ctx, k, a)
}

func (p *Processor) loadPool(ctx context.Context, v ledger.View, poolID solana.PublicKey) (*state.Account, *state.PoolState, error) {
	a, err := v.Read(ctx, p.poolKeylet(poolID))
	if err != nil {
		return nil, nil, err
	}
	if a == nil {
		return nil, nil, result.Errorf(result.PoolNotFound, "pool %s", poolID)
	}
	if a.Owner != p.config.ProgramID {
		return nil, nil, result.Errorf(result.InvalidAccountData, "pool %s owned by %s", poolID, a.Owner)
	}
	ps, err := state.DecodePoolState(a.Data)
	if err != nil {
		return nil, nil, result.Wrap(result.InvalidAccountData, err)
	}
	return a, ps, nil
}

func (p *Processor) savePool(ctx context.Context, v ledger.View, ps *state.PoolState) error {
	k := p.poolKeylet(ps.PoolID)
	a, err := v.Read(ctx, k)
	if err != nil {
		return err
	}
	if a == nil {
		return result.Errorf(result.PoolNotFound, "pool %s", ps.PoolID)
	}
	data, err := ps.Encode()
	if err != nil {
		return err
	}
	a.Data = data
	return v.Update(ctx, k, a)
}
