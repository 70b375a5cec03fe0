package rpc

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/gagliardetto/solana-go"

	"github.com/LeJamon/poolgovd/internal/core/processor"
	"github.com/LeJamon/poolgovd/internal/core/treasury"
	"github.com/LeJamon/poolgovd/internal/journal"
)

// Governance is the read side of the processor served over RPC.
type Governance interface {
	SystemStatus(ctx context.Context) (*processor.SystemStatus, error)
	TreasuryInfo(ctx context.Context) (*treasury.Info, error)
	PoolInfo(ctx context.Context, poolID solana.PublicKey) (*processor.PoolInfo, error)
}

// Journal is the audit log served over RPC and streamed over websocket.
type Journal interface {
	Tail(ctx context.Context, limit int) ([]journal.Event, error)
	Range(ctx context.Context, from uint64, limit int) ([]journal.Event, error)
	Verify(ctx context.Context) error
	Head() *journal.Event
	Subscribe() (<-chan journal.Event, func())
}

// RpcContext contains request-specific information
type RpcContext struct {
	Context  context.Context
	ClientIP string
}

// MethodHandler is implemented by every RPC method.
type MethodHandler interface {
	Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError)
}

// MethodFunc adapts a function to MethodHandler.
type MethodFunc func(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError)

func (f MethodFunc) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	return f(ctx, params)
}

// MethodRegistry maps method names to handlers. It is filled before the
// server starts and read-only afterwards.
type MethodRegistry struct {
	methods map[string]MethodHandler
}

func NewMethodRegistry() *MethodRegistry {
	return &MethodRegistry{
		methods: make(map[string]MethodHandler),
	}
}

func (r *MethodRegistry) Register(name string, handler MethodHandler) {
	r.methods[name] = handler
}

func (r *MethodRegistry) Get(name string) (MethodHandler, bool) {
	handler, exists := r.methods[name]
	return handler, exists
}

func (r *MethodRegistry) List() []string {
	methods := make([]string, 0, len(r.methods))
	for name := range r.methods {
		methods = append(methods, name)
	}
	sort.Strings(methods)
	return methods
}

// Request is the JSON-RPC request body: {"method": "name", "params": [{...}]}
type Request struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params,omitempty"`
}

// WebSocketCommand is a command received over websocket. Parameters sit at
// the top level next to the command name.
type WebSocketCommand struct {
	Command string
	ID      interface{}
	Params  json.RawMessage
}

type WebSocketResponse struct {
	Type   string      `json:"type"`
	ID     interface{} `json:"id,omitempty"`
	Status string      `json:"status,omitempty"`
	Result interface{} `json:"result,omitempty"`
}

// StreamJournal is the only websocket stream.
const StreamJournal = "journal"

// JournalMessage is pushed to subscribers of the journal stream.
type JournalMessage struct {
	Type  string        `json:"type"`
	Event journal.Event `json:"event"`
}
