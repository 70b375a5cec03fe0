package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/poolgovd/internal/config"
	"github.com/LeJamon/poolgovd/internal/core/genesis"
	"github.com/LeJamon/poolgovd/internal/core/ledger"
	"github.com/LeJamon/poolgovd/internal/core/processor"
	"github.com/LeJamon/poolgovd/internal/core/result"
	"github.com/LeJamon/poolgovd/internal/crypto/signer"
	"github.com/LeJamon/poolgovd/internal/journal"
	"github.com/LeJamon/poolgovd/internal/storage/database/memory"
)

var programID = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")

type fixture struct {
	t       *testing.T
	ctx     context.Context
	proc    *processor.Processor
	journal *journal.Journal
	http    *httptest.Server
	upgrade signer.Signer
	admin   signer.Signer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store, err := ledger.NewStore(memory.NewDB(), ledger.StoreConfig{})
	require.NoError(t, err)

	upgrade, err := signer.GenerateEd25519()
	require.NoError(t, err)
	admin, err := signer.GenerateEd25519()
	require.NoError(t, err)

	upgradeID := upgrade.Identity()
	gen := genesis.DefaultConfig(programID, &upgradeID)
	gen.Allocations = []genesis.Allocation{
		{Account: upgradeID, Balance: 100_000_000_000},
		{Account: admin.Identity(), Balance: 100_000_000_000},
	}
	_, err = genesis.Create(ctx, store, gen)
	require.NoError(t, err)

	proc, err := processor.New(store, processor.DefaultConfig(programID), nil)
	require.NoError(t, err)

	j, err := journal.Open(ctx, journal.NewMemoryStore(), 16, nil)
	require.NoError(t, err)
	proc.SetRecorder(j)

	srv := NewServer(proc, j, config.RPCConfig{
		Enabled:                true,
		MaxTail:                50,
		WebsocketPingFrequency: time.Second,
	}, nil)
	h := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		h.Close()
		_ = j.Close()
	})

	return &fixture{t: t, ctx: ctx, proc: proc, journal: j, http: h, upgrade: upgrade, admin: admin}
}

func (f *fixture) initialize() {
	req := processor.InitializeRequest{InitialAdmin: f.admin.Identity()}
	env, err := processor.Sign(f.upgrade, req)
	require.NoError(f.t, err)
	_, err = f.proc.Initialize(f.ctx, env, req)
	require.NoError(f.t, err)
}

func (f *fixture) pause() {
	req := processor.PauseSystemRequest{ReasonCode: 2}
	env, err := processor.Sign(f.admin, req)
	require.NoError(f.t, err)
	_, err = f.proc.PauseSystem(f.ctx, env, req)
	require.NoError(f.t, err)
}

// call posts a JSON-RPC request and returns the result object.
func (f *fixture) call(method string, params interface{}) map[string]interface{} {
	f.t.Helper()
	body := map[string]interface{}{"method": method}
	if params != nil {
		body["params"] = []interface{}{params}
	}
	data, err := json.Marshal(body)
	require.NoError(f.t, err)
	return f.post(data)
}

func (f *fixture) post(data []byte) map[string]interface{} {
	f.t.Helper()
	resp, err := http.Post(f.http.URL, "application/json", bytes.NewReader(data))
	require.NoError(f.t, err)
	defer resp.Body.Close()
	require.Equal(f.t, http.StatusOK, resp.StatusCode)

	var out struct {
		Result map[string]interface{} `json:"result"`
	}
	require.NoError(f.t, json.NewDecoder(resp.Body).Decode(&out))
	return out.Result
}

func TestSystemStatus(t *testing.T) {
	f := newFixture(t)

	res := f.call("system_status", nil)
	assert.Equal(t, "error", res["status"])
	assert.Equal(t, float64(result.NotInitialized), res["error_code"])
	assert.Equal(t, "NotInitialized", res["error"])

	f.initialize()
	res = f.call("system_status", nil)
	assert.Equal(t, "success", res["status"])
	assert.Equal(t, false, res["is_paused"])
	assert.Equal(t, f.admin.Identity().String(), res["admin_authority"])

	f.pause()
	res = f.call("system_status", nil)
	assert.Equal(t, true, res["is_paused"])
	assert.Equal(t, float64(2), res["pause_reason_code"])
}

func TestTreasuryInfo(t *testing.T) {
	f := newFixture(t)
	f.initialize()

	res := f.call("treasury_info", nil)
	require.Equal(t, "success", res["status"])
	assert.Equal(t, f.proc.TreasuryAddress().String(), res["address"])
	assert.Equal(t, float64(0), res["available_for_withdrawal"])
}

func TestPoolInfo(t *testing.T) {
	f := newFixture(t)
	f.initialize()

	tests := []struct {
		name   string
		params interface{}
		code   int
	}{
		{name: "missing params", code: RpcINVALID_PARAMS},
		{name: "bad key", params: map[string]string{"pool": "not-a-key"}, code: RpcINVALID_PARAMS},
		{name: "unknown pool", params: map[string]string{"pool": solana.NewWallet().PublicKey().String()}, code: int(result.PoolNotFound)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := f.call("pool_info", tt.params)
			assert.Equal(t, "error", res["status"])
			assert.Equal(t, float64(tt.code), res["error_code"])
			assert.Equal(t, "pool_info", res["request"].(map[string]interface{})["command"])
		})
	}
}

func TestJournalMethods(t *testing.T) {
	f := newFixture(t)
	f.initialize()
	f.pause()

	res := f.call("journal_tail", map[string]int{"limit": 1})
	require.Equal(t, "success", res["status"])
	events := res["events"].([]interface{})
	require.Len(t, events, 1)
	last := events[0].(map[string]interface{})
	assert.Equal(t, processor.OpPauseSystem, last["op"])
	assert.Equal(t, float64(2), last["seq"])

	res = f.call("journal_tail", map[string]interface{}{"from": 1, "limit": 10})
	assert.Len(t, res["events"].([]interface{}), 2)

	res = f.call("journal_verify", nil)
	assert.Equal(t, true, res["valid"])
}

func TestRequestErrors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		body string
		code int
	}{
		{name: "invalid json", body: "{", code: RpcPARSE_ERROR},
		{name: "missing method", body: `{"params":[{}]}`, code: RpcMISSING_COMMAND},
		{name: "unknown method", body: `{"method":"submit"}`, code: RpcMETHOD_NOT_FOUND},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := f.post([]byte(tt.body))
			assert.Equal(t, "error", res["status"])
			assert.Equal(t, float64(tt.code), res["error_code"])
		})
	}
}

func TestGetRequest(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Get(f.http.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out struct {
		Result map[string]interface{} `json:"result"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "success", out.Result["status"])
	assert.Contains(t, out.Result["methods"], "system_status")
}

func dialWS(t *testing.T, f *fixture) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.http.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	var msg map[string]interface{}
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWebSocketMethods(t *testing.T) {
	f := newFixture(t)
	f.initialize()
	conn := dialWS(t, f)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"id": 1, "command": "system_status"}))
	msg := readJSON(t, conn)
	assert.Equal(t, "success", msg["status"])
	assert.Equal(t, float64(1), msg["id"])
	assert.Equal(t, false, msg["result"].(map[string]interface{})["is_paused"])

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"id": 2, "command": "subscribe", "streams": []string{"ledger"}}))
	msg = readJSON(t, conn)
	assert.Equal(t, "error", msg["status"])
	assert.Equal(t, float64(RpcSTREAM_MALFORMED), msg["error_code"])

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"id": 3}))
	msg = readJSON(t, conn)
	assert.Equal(t, float64(RpcMISSING_COMMAND), msg["error_code"])
}

func TestWebSocketJournalStream(t *testing.T) {
	f := newFixture(t)
	f.initialize()
	conn := dialWS(t, f)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"id": "sub", "command": "subscribe", "streams": []string{StreamJournal}}))
	msg := readJSON(t, conn)
	require.Equal(t, "success", msg["status"])

	f.pause()

	var event JournalMessage
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, StreamJournal, event.Type)
	assert.Equal(t, processor.OpPauseSystem, event.Event.Op)
	assert.Equal(t, uint64(2), event.Event.Seq)
	assert.Equal(t, event.Event.ComputeHash(), event.Event.Hash)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"id": "unsub", "command": "unsubscribe"}))
	msg = readJSON(t, conn)
	assert.Equal(t, "unsub", msg["id"])
	assert.Equal(t, true, msg["result"].(map[string]interface{})["unsubscribed"])
}
