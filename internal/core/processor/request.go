package processor

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"

	"github.com/LeJamon/poolgovd/internal/core/fees"
	crypto "github.com/LeJamon/poolgovd/internal/crypto/common"
	"github.com/LeJamon/poolgovd/internal/crypto/signer"
)

// Operation names. They prefix the signed message and label journal events.
const (
	OpInitialize         = "initialize"
	OpPauseSystem        = "pause_system"
	OpUnpauseSystem      = "unpause_system"
	OpAdminChange        = "process_admin_change"
	OpPausePool          = "pause_pool"
	OpUnpausePool        = "unpause_pool"
	OpUpdatePoolFees     = "update_pool_fees"
	OpWithdrawTreasury   = "withdraw_treasury_fees"
	OpConsolidatePools   = "consolidate_pool_fees"
	OpRegisterPool       = "register_pool"
	OpChargeOperationFee = "charge_operation_fee"
)

// Request is a state-changing call. Each request serializes its own
// arguments into the signed message.
type Request interface {
	Op() string
	writeArgs(w *argWriter)
}

// argWriter builds length-prefixed argument encodings.
type argWriter struct {
	buf []byte
}

func (w *argWriter) field(b []byte) {
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(b)))
	w.buf = append(w.buf, n[:]...)
	w.buf = append(w.buf, b...)
}

func (w *argWriter) key(k solana.PublicKey) { w.field(k[:]) }

func (w *argWriter) u8(v uint8) { w.field([]byte{v}) }

func (w *argWriter) u64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.field(b[:])
}

func (w *argWriter) optionalKey(k *solana.PublicKey) {
	if k == nil {
		w.field(nil)
		return
	}
	w.key(*k)
}

// Message returns the canonical hash a signer authorizes for req.
func Message(req Request) [32]byte {
	w := &argWriter{}
	req.writeArgs(w)
	return crypto.Sha512Half([]byte(req.Op()), []byte{0}, w.buf)
}

// Sign produces the envelope authorizing req.
func Sign(s signer.Signer, req Request) (signer.Envelope, error) {
	msg := Message(req)
	return s.Sign(msg[:])
}

// InitializeRequest creates the system state and the treasury.
type InitializeRequest struct {
	InitialAdmin solana.PublicKey
	// RentExemptMinimum of zero selects the configured default.
	RentExemptMinimum uint64
}

func (InitializeRequest) Op() string { return OpInitialize }

func (r InitializeRequest) writeArgs(w *argWriter) {
	w.key(r.InitialAdmin)
	w.u64(r.RentExemptMinimum)
}

// PauseSystemRequest halts the system.
type PauseSystemRequest struct {
	ReasonCode uint8
}

func (PauseSystemRequest) Op() string { return OpPauseSystem }

func (r PauseSystemRequest) writeArgs(w *argWriter) { w.u8(r.ReasonCode) }

// UnpauseSystemRequest resumes the system.
type UnpauseSystemRequest struct{}

func (UnpauseSystemRequest) Op() string { return OpUnpauseSystem }

func (UnpauseSystemRequest) writeArgs(*argWriter) {}

// AdminChangeRequest proposes, commits or cancels an admin rotation.
type AdminChangeRequest struct {
	NewAdmin solana.PublicKey
}

func (AdminChangeRequest) Op() string { return OpAdminChange }

func (r AdminChangeRequest) writeArgs(w *argWriter) { w.key(r.NewAdmin) }

// PausePoolRequest sets pool pause bits.
type PausePoolRequest struct {
	Pool  solana.PublicKey
	Flags uint8
}

func (PausePoolRequest) Op() string { return OpPausePool }

func (r PausePoolRequest) writeArgs(w *argWriter) {
	w.key(r.Pool)
	w.u8(r.Flags)
}

// UnpausePoolRequest clears pool pause bits.
type UnpausePoolRequest struct {
	Pool  solana.PublicKey
	Flags uint8
}

func (UnpausePoolRequest) Op() string { return OpUnpausePool }

func (r UnpausePoolRequest) writeArgs(w *argWriter) {
	w.key(r.Pool)
	w.u8(r.Flags)
}

// UpdatePoolFeesRequest changes the per-operation fees of a pool.
type UpdatePoolFeesRequest struct {
	Pool         solana.PublicKey
	Flags        uint8
	LiquidityFee uint64
	SwapFee      uint64
}

func (UpdatePoolFeesRequest) Op() string { return OpUpdatePoolFees }

func (r UpdatePoolFeesRequest) writeArgs(w *argWriter) {
	w.key(r.Pool)
	w.u8(r.Flags)
	w.u64(r.LiquidityFee)
	w.u64(r.SwapFee)
}

// WithdrawRequest withdraws from the treasury. A zero amount withdraws
// everything available and a nil destination pays the signer.
type WithdrawRequest struct {
	Amount      uint64
	Destination *solana.PublicKey
}

func (WithdrawRequest) Op() string { return OpWithdrawTreasury }

func (r WithdrawRequest) writeArgs(w *argWriter) {
	w.u64(r.Amount)
	w.optionalKey(r.Destination)
}

// ConsolidateRequest moves accumulated pool fees into the treasury.
type ConsolidateRequest struct {
	Pools []solana.PublicKey
}

func (ConsolidateRequest) Op() string { return OpConsolidatePools }

func (r ConsolidateRequest) writeArgs(w *argWriter) {
	w.u64(uint64(len(r.Pools)))
	for _, p := range r.Pools {
		w.key(p)
	}
}

// RegisterPoolRequest pays the pool-creation fee and creates a pool.
type RegisterPoolRequest struct {
	PoolID solana.PublicKey
	Owner  solana.PublicKey
}

func (RegisterPoolRequest) Op() string { return OpRegisterPool }

func (r RegisterPoolRequest) writeArgs(w *argWriter) {
	w.key(r.PoolID)
	w.key(r.Owner)
}

// ChargeFeeRequest collects a pool's operation fee ahead of a liquidity
// operation or swap.
type ChargeFeeRequest struct {
	Pool solana.PublicKey
	Kind fees.Kind
}

func (ChargeFeeRequest) Op() string { return OpChargeOperationFee }

func (r ChargeFeeRequest) writeArgs(w *argWriter) {
	w.key(r.Pool)
	w.u8(uint8(r.Kind))
}
