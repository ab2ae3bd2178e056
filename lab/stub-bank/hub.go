package main

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

// hub tracks connected websocket clients and pushes the refresh signal to
// all of them whenever a mutation lands.
type hub struct {
	mu       sync.Mutex
	conns    map[string]*websocket.Conn
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func newHub(log *slog.Logger) *hub {
	return &hub{
		conns:  make(map[string]*websocket.Conn),
		logger: log,
	}
}

func (h *hub) handleConnect(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	h.mu.Lock()
	if old, ok := h.conns[clientID]; ok {
		_ = old.Close()
	}
	h.conns[clientID] = conn
	h.mu.Unlock()
	h.logger.Info("client connected", "client_id", clientID)

	// Drain reads so pings and close frames are processed; drop the
	// registration once the peer goes away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		h.mu.Lock()
		if h.conns[clientID] == conn {
			delete(h.conns, clientID)
		}
		h.mu.Unlock()
		_ = conn.Close()
		h.logger.Info("client disconnected", "client_id", clientID)
	}()
}

func (h *hub) broadcast() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for clientID, conn := range h.conns {
		if err := conn.WriteMessage(websocket.TextMessage, []byte("update")); err != nil {
			_ = conn.Close()
			delete(h.conns, clientID)
		}
	}
}
