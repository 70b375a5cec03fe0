package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/LeJamon/poolgovd/internal/journal"
)

const (
	wsReadLimit    = 64 * 1024
	wsWriteTimeout = 10 * time.Second
	wsSendBuffer   = 256
)

// WebSocketServer handles websocket connections for method calls and the
// journal stream.
type WebSocketServer struct {
	server      *Server
	upgrader    websocket.Upgrader
	connections map[string]*WebSocketConnection
	mu          sync.Mutex
	nextID      atomic.Uint64
	ping        time.Duration
	log         *zap.Logger
}

// WebSocketConnection represents a single websocket connection
type WebSocketConnection struct {
	ID          string
	conn        *websocket.Conn
	sendChannel chan []byte
	ctx         context.Context
	cancel      context.CancelFunc

	mu          sync.Mutex
	unsubscribe func()
	closeOnce   sync.Once
}

func newWebSocketServer(s *Server) *WebSocketServer {
	ping := s.config.WebsocketPingFrequency
	if ping <= 0 {
		ping = 30 * time.Second
	}
	return &WebSocketServer{
		server: s,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		connections: make(map[string]*WebSocketConnection),
		ping:        ping,
		log:         s.log,
	}
}

// ServeHTTP handles websocket upgrade requests
func (ws *WebSocketServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		ws.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	wsConn := &WebSocketConnection{
		ID:          "conn_" + strconv.FormatUint(ws.nextID.Add(1), 10),
		conn:        conn,
		sendChannel: make(chan []byte, wsSendBuffer),
		ctx:         ctx,
		cancel:      cancel,
	}

	ws.mu.Lock()
	ws.connections[wsConn.ID] = wsConn
	ws.mu.Unlock()

	ws.log.Debug("websocket connection opened", zap.String("conn", wsConn.ID), zap.String("client", getWebSocketClientIP(conn)))

	go ws.handleConnection(wsConn)
	go ws.handleSend(wsConn)
}

// handleConnection reads commands until the peer goes away.
func (ws *WebSocketServer) handleConnection(wsConn *WebSocketConnection) {
	defer ws.closeConnection(wsConn)

	wait := 2 * ws.ping
	wsConn.conn.SetReadLimit(wsReadLimit)
	_ = wsConn.conn.SetReadDeadline(time.Now().Add(wait))
	wsConn.conn.SetPongHandler(func(string) error {
		return wsConn.conn.SetReadDeadline(time.Now().Add(wait))
	})

	for {
		_, message, err := wsConn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				ws.log.Debug("websocket read failed", zap.String("conn", wsConn.ID), zap.Error(err))
			}
			return
		}
		_ = wsConn.conn.SetReadDeadline(time.Now().Add(wait))
		ws.handleMessage(wsConn, message)
	}
}

// handleSend owns all writes to the connection, including pings.
func (ws *WebSocketServer) handleSend(wsConn *WebSocketConnection) {
	ticker := time.NewTicker(ws.ping)
	defer ticker.Stop()
	defer ws.closeConnection(wsConn)

	for {
		select {
		case <-wsConn.ctx.Done():
			_ = wsConn.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			return
		case <-ticker.C:
			_ = wsConn.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := wsConn.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case message := <-wsConn.sendChannel:
			_ = wsConn.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := wsConn.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				ws.log.Debug("websocket send failed", zap.String("conn", wsConn.ID), zap.Error(err))
				return
			}
		}
	}
}

// handleMessage processes a single command
func (ws *WebSocketServer) handleMessage(wsConn *WebSocketConnection, message []byte) {
	var cmdMap map[string]interface{}
	if err := json.Unmarshal(message, &cmdMap); err != nil {
		ws.sendError(wsConn, NewRpcError(RpcPARSE_ERROR, "jsonInvalid", "Invalid JSON: "+err.Error()), nil)
		return
	}

	command, ok := cmdMap["command"].(string)
	if !ok || command == "" {
		ws.sendError(wsConn, NewRpcError(RpcMISSING_COMMAND, "missingCommand", "Missing command field"), cmdMap["id"])
		return
	}

	cmd := WebSocketCommand{Command: command, ID: cmdMap["id"]}
	delete(cmdMap, "command")
	delete(cmdMap, "id")
	if len(cmdMap) > 0 {
		cmd.Params, _ = json.Marshal(cmdMap)
	}

	switch cmd.Command {
	case "subscribe":
		ws.handleSubscribe(wsConn, cmd)
	case "unsubscribe":
		wsConn.stopStream()
		ws.sendResponse(wsConn, cmd.ID, map[string]interface{}{"unsubscribed": true})
	default:
		ctx := &RpcContext{Context: wsConn.ctx, ClientIP: getWebSocketClientIP(wsConn.conn)}
		result, rpcErr := ws.server.executeMethod(cmd.Command, cmd.Params, ctx)
		if rpcErr != nil {
			ws.sendError(wsConn, rpcErr, cmd.ID)
			return
		}
		ws.sendResponse(wsConn, cmd.ID, result)
	}
}

type subscribeParams struct {
	Streams []string `json:"streams"`
}

// handleSubscribe attaches the connection to the journal stream.
func (ws *WebSocketServer) handleSubscribe(wsConn *WebSocketConnection, cmd WebSocketCommand) {
	var p subscribeParams
	if cmd.Params != nil {
		if err := json.Unmarshal(cmd.Params, &p); err != nil {
			ws.sendError(wsConn, RpcErrorInvalidParams("Invalid subscription parameters"), cmd.ID)
			return
		}
	}
	if len(p.Streams) == 0 {
		ws.sendError(wsConn, NewRpcError(RpcSTREAM_MALFORMED, "malformedStream", "No streams requested"), cmd.ID)
		return
	}
	for _, stream := range p.Streams {
		if stream != StreamJournal {
			ws.sendError(wsConn, NewRpcError(RpcSTREAM_MALFORMED, "malformedStream", "Unknown stream '"+stream+"'"), cmd.ID)
			return
		}
	}

	wsConn.mu.Lock()
	if wsConn.unsubscribe == nil {
		events, cancel := ws.server.journal.Subscribe()
		wsConn.unsubscribe = cancel
		go ws.forward(wsConn, events)
	}
	wsConn.mu.Unlock()

	ws.sendResponse(wsConn, cmd.ID, map[string]interface{}{"subscribed": true})
}

// forward relays journal events until the subscription ends. A subscription
// closed by the journal for lagging closes the connection too, so the
// client knows it missed events.
func (ws *WebSocketServer) forward(wsConn *WebSocketConnection, events <-chan journal.Event) {
	for {
		select {
		case <-wsConn.ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				wsConn.mu.Lock()
				dropped := wsConn.unsubscribe != nil
				wsConn.unsubscribe = nil
				wsConn.mu.Unlock()
				if dropped {
					ws.log.Warn("journal stream dropped, closing connection", zap.String("conn", wsConn.ID))
					ws.closeConnection(wsConn)
				}
				return
			}
			data, err := json.Marshal(JournalMessage{Type: StreamJournal, Event: e})
			if err != nil {
				ws.log.Error("failed to marshal journal event", zap.Error(err))
				continue
			}
			if !ws.enqueue(wsConn, data) {
				return
			}
		}
	}
}

func (c *WebSocketConnection) stopStream() {
	c.mu.Lock()
	cancel := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (ws *WebSocketServer) sendResponse(wsConn *WebSocketConnection, id interface{}, result interface{}) {
	data, err := json.Marshal(WebSocketResponse{Type: "response", ID: id, Status: "success", Result: result})
	if err != nil {
		ws.log.Error("failed to marshal websocket response", zap.Error(err))
		return
	}
	ws.enqueue(wsConn, data)
}

// sendError sends an error response with flat error fields
func (ws *WebSocketServer) sendError(wsConn *WebSocketConnection, rpcErr *RpcError, id interface{}) {
	response := map[string]interface{}{
		"type":          "response",
		"status":        "error",
		"error":         rpcErr.ErrorString,
		"error_code":    rpcErr.Code,
		"error_message": rpcErr.Message,
	}
	if id != nil {
		response["id"] = id
	}
	data, err := json.Marshal(response)
	if err != nil {
		ws.log.Error("failed to marshal websocket error", zap.Error(err))
		return
	}
	ws.enqueue(wsConn, data)
}

// enqueue queues data for sending and closes connections whose buffer is
// full.
func (ws *WebSocketServer) enqueue(wsConn *WebSocketConnection, data []byte) bool {
	select {
	case wsConn.sendChannel <- data:
		return true
	case <-wsConn.ctx.Done():
		return false
	default:
		ws.log.Warn("websocket send buffer full, closing connection", zap.String("conn", wsConn.ID))
		ws.closeConnection(wsConn)
		return false
	}
}

// closeConnection releases a connection. It is safe to call repeatedly.
func (ws *WebSocketServer) closeConnection(wsConn *WebSocketConnection) {
	wsConn.closeOnce.Do(func() {
		wsConn.stopStream()
		wsConn.cancel()

		ws.mu.Lock()
		delete(ws.connections, wsConn.ID)
		ws.mu.Unlock()

		// let handleSend write the close frame before the socket goes away
		time.AfterFunc(time.Second, func() { _ = wsConn.conn.Close() })
		ws.log.Debug("websocket connection closed", zap.String("conn", wsConn.ID))
	})
}

func (ws *WebSocketServer) closeAll() {
	ws.mu.Lock()
	conns := make([]*WebSocketConnection, 0, len(ws.connections))
	for _, c := range ws.connections {
		conns = append(conns, c)
	}
	ws.mu.Unlock()
	for _, c := range conns {
		ws.closeConnection(c)
	}
}

// Connections reports the number of open websocket connections.
func (ws *WebSocketServer) Connections() int {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return len(ws.connections)
}

func getWebSocketClientIP(conn *websocket.Conn) string {
	addr := conn.RemoteAddr().String()
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			return addr[:i]
		}
	}
	return addr
}
