package rpc

import (
	"encoding/json"
	"errors"

	"github.com/gagliardetto/solana-go"

	"github.com/LeJamon/poolgovd/internal/journal"
)

// Version is reported by server_info.
var Version = "dev"

type poolInfoParams struct {
	Pool string `json:"pool"`
}

type journalTailParams struct {
	Limit int     `json:"limit"`
	From  *uint64 `json:"from,omitempty"`
}

// registerAllMethods installs the read-only governance methods.
func (s *Server) registerAllMethods() {
	s.registry.Register("server_info", MethodFunc(s.serverInfo))
	s.registry.Register("ping", MethodFunc(func(*RpcContext, json.RawMessage) (interface{}, *RpcError) {
		return map[string]interface{}{}, nil
	}))
	s.registry.Register("system_status", MethodFunc(s.systemStatus))
	s.registry.Register("treasury_info", MethodFunc(s.treasuryInfo))
	s.registry.Register("pool_info", MethodFunc(s.poolInfo))
	s.registry.Register("journal_tail", MethodFunc(s.journalTail))
	s.registry.Register("journal_verify", MethodFunc(s.journalVerify))
}

func (s *Server) serverInfo(ctx *RpcContext, _ json.RawMessage) (interface{}, *RpcError) {
	info := map[string]interface{}{
		"version": Version,
		"methods": s.registry.List(),
	}
	if head := s.journal.Head(); head != nil {
		info["journal_seq"] = head.Seq
		info["journal_head"] = head.Hash.String()
	}
	return info, nil
}

func (s *Server) systemStatus(ctx *RpcContext, _ json.RawMessage) (interface{}, *RpcError) {
	status, err := s.gov.SystemStatus(ctx.Context)
	if err != nil {
		return nil, fromError(err)
	}
	return status, nil
}

func (s *Server) treasuryInfo(ctx *RpcContext, _ json.RawMessage) (interface{}, *RpcError) {
	info, err := s.gov.TreasuryInfo(ctx.Context)
	if err != nil {
		return nil, fromError(err)
	}
	return info, nil
}

func (s *Server) poolInfo(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var p poolInfoParams
	if params == nil {
		return nil, RpcErrorInvalidParams("missing field 'pool'")
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, RpcErrorInvalidParams(err.Error())
	}
	poolID, err := solana.PublicKeyFromBase58(p.Pool)
	if err != nil {
		return nil, RpcErrorInvalidParams("invalid field 'pool': " + err.Error())
	}
	info, err := s.gov.PoolInfo(ctx.Context, poolID)
	if err != nil {
		return nil, fromError(err)
	}
	return info, nil
}

func (s *Server) journalTail(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	p := journalTailParams{Limit: 20}
	if params != nil {
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, RpcErrorInvalidParams(err.Error())
		}
	}
	if p.Limit <= 0 || p.Limit > s.maxTail {
		p.Limit = s.maxTail
	}

	var (
		events []journal.Event
		err    error
	)
	if p.From != nil {
		events, err = s.journal.Range(ctx.Context, *p.From, p.Limit)
	} else {
		events, err = s.journal.Tail(ctx.Context, p.Limit)
	}
	if err != nil {
		return nil, RpcErrorInternal(err.Error())
	}
	if events == nil {
		events = []journal.Event{}
	}
	return map[string]interface{}{"events": events}, nil
}

func (s *Server) journalVerify(ctx *RpcContext, _ json.RawMessage) (interface{}, *RpcError) {
	err := s.journal.Verify(ctx.Context)
	var chainErr *journal.ChainError
	switch {
	case err == nil:
		return map[string]interface{}{"valid": true}, nil
	case errors.As(err, &chainErr):
		return map[string]interface{}{"valid": false, "seq": chainErr.Seq, "reason": chainErr.Reason}, nil
	default:
		return nil, RpcErrorInternal(err.Error())
	}
}
