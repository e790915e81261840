// Package ws bridges WebSocket clients to the assistant. Every text frame
// a client sends is one turn; the reply goes back as one text frame.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/m4xw311/steward/agent"
	"github.com/m4xw311/steward/errors"
)

// Reply is the JSON frame written back for each turn.
type Reply struct {
	Type   string `json:"type"` // "response" or "error"
	Text   string `json:"text"`
	Intent string `json:"intent,omitempty"`
}

// The zero Upgrader rejects browser handshakes whose Origin differs from
// the Host the bridge is served on.
var upgrader websocket.Upgrader

// Handler returns an http.Handler upgrading requests to WebSocket
// connections served by h. Turns on one connection are processed in order.
func Handler(h agent.Handler) http.Handler {
	log := slog.Default().With("component", "ws")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("upgrade failed", "remote", r.RemoteAddr, "error", err)
			return
		}
		defer conn.Close()
		log.Info("client connected", "remote", r.RemoteAddr)

		for {
			kind, msg, err := conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Warn("read failed", "remote", r.RemoteAddr, "error", err)
				}
				return
			}
			if kind != websocket.TextMessage {
				continue
			}

			reply := turn(r.Context(), h, string(msg), log)
			data, _ := json.Marshal(reply)
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn("write failed", "remote", r.RemoteAddr, "error", err)
				return
			}
		}
	})
}

func turn(ctx context.Context, h agent.Handler, text string, log *slog.Logger) Reply {
	req := agent.NewRequest(text)
	resp, err := h.Handle(ctx, req)
	if err != nil {
		log.WarnContext(ctx, "turn failed", "request_id", req.ID, "error", err)
		return Reply{Type: "error", Text: errors.Message(err)}
	}
	return Reply{Type: "response", Text: resp.Text, Intent: string(resp.Intent)}
}

// DefaultAddr binds the bridge to the loopback interface only.
const DefaultAddr = "127.0.0.1:8080"

// Serve listens on addr and serves the bridge at /ws until ctx is done.
func Serve(ctx context.Context, addr string, h agent.Handler) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", Handler(h))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	slog.Default().With("component", "ws").Info("websocket bridge listening", "addr", addr, "path", "/ws")

	select {
	case err := <-errCh:
		return errors.Fatal(err, "websocket bridge failed")
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
