package rpc

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/prism-wallet/prism/internal/status"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins
	},
}

// statusFrame is one message on the status stream.
type statusFrame struct {
	Overall   status.Status            `json:"overall"`
	Chains    map[string]status.Status `json:"chains"`
	Timestamp int64                    `json:"timestamp"`
}

// handleStatusWS streams connection status snapshots. The client gets the
// current snapshot immediately, then one frame per change.
func (s *Server) handleStatusWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("WebSocket upgrade failed", "error", err)
		return
	}

	// Buffered so a slow client cannot stall the aggregator; a full buffer
	// drops the oldest-style delivery and the client reconnects.
	frames := make(chan status.Snapshot, 16)
	unsubscribe := s.agg.Subscribe(func(snap status.Snapshot) {
		select {
		case frames <- snap:
		default:
		}
	})

	done := make(chan struct{})
	go s.statusReadPump(conn, done)
	go s.statusWritePump(conn, frames, done, unsubscribe)
}

// statusReadPump drains the connection so close frames and pongs are seen.
func (s *Server) statusReadPump(conn *websocket.Conn, done chan struct{}) {
	defer close(done)

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("status stream read error", "error", err)
			}
			return
		}
	}
}

func (s *Server) statusWritePump(conn *websocket.Conn, frames <-chan status.Snapshot, done <-chan struct{}, unsubscribe func()) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		unsubscribe()
		conn.Close()
	}()

	for {
		select {
		case snap := <-frames:
			data, err := json.Marshal(statusFrame{
				Overall:   snap.Overall,
				Chains:    snap.Chains,
				Timestamp: time.Now().Unix(),
			})
			if err != nil {
				s.log.Error("failed to marshal status frame", "error", err)
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-done:
			return
		}
	}
}
