package wsstream

import (
	"log/slog"
	"sync"
)

type broadcastMsg struct {
	sessionID string
	event     *StageEvent
}

// Hub manages WebSocket connections and broadcasts StageEvents to clients
// subscribed to the relevant session.
type Hub struct {
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *broadcastMsg

	bySessionID map[string]map[*Client]bool

	logger *slog.Logger
	mu     sync.RWMutex
}

// NewHub creates a new Hub instance. Call Run in a goroutine to start it.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:     make(map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		broadcast:   make(chan *broadcastMsg, 256),
		bySessionID: make(map[string]map[*Client]bool),
		logger:      logger,
	}
}

// Run starts the hub's main event loop; call it in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)
		case client := <-h.unregister:
			h.unregisterClient(client)
		case msg := <-h.broadcast:
			h.broadcastEvent(msg)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = true
	h.logger.Debug("client registered", "client_id", client.id, "total_clients", len(h.clients))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)

	client.subs.mu.RLock()
	for sessionID := range client.subs.sessions {
		if clients, ok := h.bySessionID[sessionID]; ok {
			delete(clients, client)
			if len(clients) == 0 {
				delete(h.bySessionID, sessionID)
			}
		}
	}
	client.subs.mu.RUnlock()

	h.logger.Debug("client unregistered", "client_id", client.id, "total_clients", len(h.clients))
}

// Broadcast delivers event to every client subscribed to sessionID.
func (h *Hub) Broadcast(sessionID string, event *StageEvent) {
	h.broadcast <- &broadcastMsg{sessionID: sessionID, event: event}
}

func (h *Hub) broadcastEvent(msg *broadcastMsg) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.bySessionID[msg.sessionID]
	if !ok {
		return
	}
	for client := range clients {
		select {
		case client.send <- msg.event:
		default:
			h.logger.Warn("client buffer full, dropping message", "client_id", client.id, "event_type", msg.event.Type)
		}
	}
}

// Subscribe adds a subscription to sessionID for client.
func (h *Hub) Subscribe(client *Client, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client.subs.mu.Lock()
	defer client.subs.mu.Unlock()

	client.subs.sessions[sessionID] = true
	if h.bySessionID[sessionID] == nil {
		h.bySessionID[sessionID] = make(map[*Client]bool)
	}
	h.bySessionID[sessionID][client] = true
}

// Unsubscribe removes client's subscription to sessionID.
func (h *Hub) Unsubscribe(client *Client, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client.subs.mu.Lock()
	defer client.subs.mu.Unlock()

	delete(client.subs.sessions, sessionID)
	if clients, ok := h.bySessionID[sessionID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.bySessionID, sessionID)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
