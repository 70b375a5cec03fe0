package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/LeJamon/poolgovd/internal/rpc"
)

// rpcCmd calls a method on a running server
var rpcCmd = &cobra.Command{
	Use:   "rpc <method> [params-json]",
	Short: "Call a method on a running server",
	Long: `Call a JSON-RPC method on a running poolgovd server and print the
result. Parameters are passed as one JSON object, for example:

  poolgovd rpc pool_info '{"pool":"<pool-id>"}'`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		url, err := serverURL(cmd, "http")
		if err != nil {
			return err
		}
		var params json.RawMessage
		if len(args) == 2 {
			params = json.RawMessage(args[1])
			if !json.Valid(params) {
				return fmt.Errorf("params must be a JSON object")
			}
		}
		res, err := callMethod(cmd.Context(), url, args[0], params)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

// watchCmd streams journal events from a running server
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream journal events from a running server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		url, err := serverURL(cmd, "ws")
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return watchJournal(ctx, url+"/ws", func(m rpc.JournalMessage) error {
			return printJSON(cmd.OutOrStdout(), m.Event)
		})
	},
}

// serverURL returns the --url flag or a URL built from rpc.listen.
func serverURL(cmd *cobra.Command, scheme string) (string, error) {
	if url, _ := cmd.Flags().GetString("url"); url != "" {
		return url, nil
	}
	cfg, _, err := loadConfig()
	if err != nil {
		return "", err
	}
	return scheme + "://" + cfg.RPC.Listen, nil
}

// callMethod posts one request and returns the result object. An error
// status is turned into an error.
func callMethod(ctx context.Context, url, method string, params json.RawMessage) (map[string]interface{}, error) {
	req := rpc.Request{Method: method}
	if params != nil {
		req.Params = []json.RawMessage{params}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned %s", resp.Status)
	}

	var out struct {
		Result map[string]interface{} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("invalid response: %w", err)
	}
	if out.Result["status"] == "error" {
		return nil, fmt.Errorf("RPC error [%v] %v: %v", out.Result["error_code"], out.Result["error"], out.Result["error_message"])
	}
	delete(out.Result, "status")
	return out.Result, nil
}

// watchJournal subscribes to the journal stream at url and calls fn for
// every event until ctx ends or the server closes the stream.
func watchJournal(ctx context.Context, url string, fn func(rpc.JournalMessage) error) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	if err := conn.WriteJSON(map[string]interface{}{
		"id":      "watch",
		"command": "subscribe",
		"streams": []string{rpc.StreamJournal},
	}); err != nil {
		return err
	}

	for {
		var msg struct {
			rpc.JournalMessage
			Status  string `json:"status"`
			Message string `json:"error_message"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return err
		}
		switch {
		case msg.Status == "error":
			return fmt.Errorf("subscribe failed: %s", msg.Message)
		case msg.Type == rpc.StreamJournal:
			if err := fn(msg.JournalMessage); err != nil {
				return err
			}
		}
	}
}

func init() {
	rpcCmd.Flags().String("url", "", "server URL (defaults to http://<rpc.listen>)")
	watchCmd.Flags().String("url", "", "server URL (defaults to ws://<rpc.listen>)")
	rootCmd.AddCommand(rpcCmd, watchCmd)
}
