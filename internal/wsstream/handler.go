package wsstream

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler upgrades HTTP requests to WebSocket connections and registers
// them with a Hub.
type Handler struct {
	hub    *Hub
	auth   Authenticator
	logger *slog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(hub *Hub, auth Authenticator, logger *slog.Logger) *Handler {
	return &Handler{hub: hub, auth: auth, logger: logger}
}

// ServeHTTP authenticates, upgrades, and registers one client connection.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	clientID, err := h.auth.Authenticate(r)
	if err != nil {
		h.logger.Warn("websocket authentication failed", "error", err, "remote_addr", r.RemoteAddr)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err, "remote_addr", r.RemoteAddr)
		return
	}

	if clientID == "" {
		clientID = uuid.NewString()
	}
	client := NewClient(clientID, h.hub, conn)

	h.logger.Info("websocket client connected", "client_id", clientID, "remote_addr", r.RemoteAddr)

	h.hub.register <- client
	go client.writePump()
	go client.readPump()
}
