package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"geotab/internal/pipeline"
)

// hub fans finished runs out to websocket clients.
type hub struct {
	log        *slog.Logger
	upgrader   websocket.Upgrader
	clients    map[*websocket.Conn]bool
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
}

func newHub(log *slog.Logger) *hub {
	return &hub{
		log: log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients:    make(map[*websocket.Conn]bool),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
	}
}

// run owns the client set until ctx is done or feed closes.
func (h *hub) run(ctx context.Context, feed <-chan pipeline.Result) {
	defer func() {
		close(h.done)
		for client := range h.clients {
			client.Close()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.clients[client] = true
			h.log.Debug("websocket client connected", "clients", len(h.clients))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
				h.log.Debug("websocket client disconnected", "clients", len(h.clients))
			}

		case res, ok := <-feed:
			if !ok {
				return
			}
			message, err := json.Marshal(newRunEvent(res))
			if err != nil {
				h.log.Warn("cannot encode run event", "job", res.Job.ID, "error", err)
				continue
			}
			for client := range h.clients {
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					delete(h.clients, client)
					client.Close()
				}
			}
		}
	}
}

func (h *hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	select {
	case h.register <- conn:
	case <-h.done:
		conn.Close()
		return
	}

	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		select {
		case h.unregister <- conn:
		case <-h.done:
		}
	}()
}
