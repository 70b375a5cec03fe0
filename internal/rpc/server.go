// Package rpc serves read-only governance queries over HTTP JSON-RPC and
// streams journal events over websocket.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/LeJamon/poolgovd/internal/config"
)

const maxBodySize = 1 << 20

// Server handles HTTP JSON-RPC requests
type Server struct {
	registry *MethodRegistry
	gov      Governance
	journal  Journal
	config   config.RPCConfig
	maxTail  int
	log      *zap.Logger
	ws       *WebSocketServer
}

// NewServer creates a new RPC server over gov and j.
func NewServer(gov Governance, j Journal, cfg config.RPCConfig, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	server := &Server{
		registry: NewMethodRegistry(),
		gov:      gov,
		journal:  j,
		config:   cfg,
		maxTail:  cfg.MaxTail,
		log:      log.With(zap.String("component", "rpc")),
	}
	if server.maxTail <= 0 {
		server.maxTail = 1000
	}

	// Register all RPC methods
	server.registerAllMethods()
	server.ws = newWebSocketServer(server)

	return server
}

// Handler returns the HTTP routes: JSON-RPC on / and the websocket on /ws.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", s.ws)
	mux.Handle("/", s)
	return mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("rpc server listening", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.ws.closeAll()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

// ServeHTTP implements http.Handler interface
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Content-Type", "application/json")

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		s.handleGetRequest(w, r)
	case http.MethodPost:
		s.handlePostRequest(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleGetRequest processes GET requests with query parameters
func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	method := query.Get("command")
	if method == "" {
		method = "server_info"
	}

	var params json.RawMessage
	if pool := query.Get("pool"); pool != "" {
		params, _ = json.Marshal(map[string]string{"pool": pool})
	}

	ctx := &RpcContext{Context: r.Context(), ClientIP: getClientIP(r)}
	result, rpcErr := s.executeMethod(method, params, ctx)
	s.writeResponse(w, method, nil, result, rpcErr)
}

// handlePostRequest processes POST requests with a JSON-RPC payload
func (s *Server) handlePostRequest(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		s.writeError(w, nil, RpcErrorInternal("Failed to read request body"))
		return
	}

	var request Request
	if err := json.Unmarshal(body, &request); err != nil {
		s.writeError(w, nil, NewRpcError(RpcPARSE_ERROR, "jsonInvalid", "Invalid JSON: "+err.Error()))
		return
	}
	if request.Method == "" {
		s.writeError(w, nil, NewRpcError(RpcMISSING_COMMAND, "missingCommand", "Missing method field"))
		return
	}

	// params is an array holding one object
	var params json.RawMessage
	if len(request.Params) > 0 {
		params = request.Params[0]
	}

	ctx := &RpcContext{Context: r.Context(), ClientIP: getClientIP(r)}
	result, rpcErr := s.executeMethod(request.Method, params, ctx)

	var requestObj interface{}
	if rpcErr != nil {
		reqMap := map[string]interface{}{}
		if params != nil {
			_ = json.Unmarshal(params, &reqMap)
		}
		reqMap["command"] = request.Method
		requestObj = reqMap
	}

	s.writeResponse(w, request.Method, requestObj, result, rpcErr)
}

// executeMethod executes an RPC method with the given parameters
func (s *Server) executeMethod(method string, params json.RawMessage, ctx *RpcContext) (interface{}, *RpcError) {
	handler, exists := s.registry.Get(method)
	if !exists {
		return nil, RpcErrorMethodNotFound(method)
	}

	result, rpcErr := handler.Handle(ctx, params)
	if rpcErr != nil {
		s.log.Debug("rpc call failed",
			zap.String("method", method),
			zap.String("client", ctx.ClientIP),
			zap.Int("code", rpcErr.Code),
			zap.String("error", rpcErr.ErrorString),
		)
	}
	return result, rpcErr
}

// writeResponse writes a JSON-RPC response. result.status is "success" or
// "error" and error fields live inside result.
func (s *Server) writeResponse(w http.ResponseWriter, method string, request interface{}, result interface{}, rpcErr *RpcError) {
	if rpcErr != nil {
		s.writeError(w, request, rpcErr)
		return
	}

	resultObj, err := toMap(result)
	if err != nil {
		s.log.Error("failed to marshal result", zap.String("method", method), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	resultObj["status"] = "success"
	s.write(w, map[string]interface{}{"result": resultObj})
}

// writeError writes an error response
func (s *Server) writeError(w http.ResponseWriter, request interface{}, rpcErr *RpcError) {
	resultObj := map[string]interface{}{
		"status":        "error",
		"error":         rpcErr.ErrorString,
		"error_code":    rpcErr.Code,
		"error_message": rpcErr.Message,
	}
	if request != nil {
		resultObj["request"] = request
	}
	s.write(w, map[string]interface{}{"result": resultObj})
}

func (s *Server) write(w http.ResponseWriter, response interface{}) {
	responseData, err := json.Marshal(response)
	if err != nil {
		s.log.Error("failed to marshal response", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(responseData)
}

// toMap flattens a result struct into a JSON object so status can be added
// next to its fields.
func toMap(result interface{}) (map[string]interface{}, error) {
	if m, ok := result.(map[string]interface{}); ok {
		return m, nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	m := make(map[string]interface{})
	if err := json.Unmarshal(data, &m); err != nil {
		return map[string]interface{}{"data": result}, nil
	}
	return m, nil
}

// getClientIP extracts the client IP from the request
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
