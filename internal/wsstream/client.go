package wsstream

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBufferSize = 64
)

// subscriptions tracks which sessions a client is subscribed to.
type subscriptions struct {
	sessions map[string]bool
	mu       sync.RWMutex
}

func newSubscriptions() *subscriptions {
	return &subscriptions{sessions: make(map[string]bool)}
}

// Client represents a single WebSocket connection to a benchmark dashboard.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan *StageEvent

	id   string
	subs *subscriptions
}

// NewClient creates a new Client instance.
func NewClient(id string, hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan *StageEvent, sendBufferSize),
		id:   id,
		subs: newSubscriptions(),
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		var cmd Command
		if err := json.Unmarshal(message, &cmd); err != nil {
			c.sendResponse(newErrorResponse("error", "invalid command format"))
			continue
		}
		c.handleCommand(&cmd)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleCommand(cmd *Command) {
	switch cmd.Action {
	case CmdSubscribe:
		if cmd.SessionID == "" {
			c.sendResponse(newErrorResponse(CmdSubscribe, "session_id required"))
			return
		}
		c.hub.Subscribe(c, cmd.SessionID)
		c.sendResponse(newSuccessResponse(CmdSubscribe, "subscribed to session: "+cmd.SessionID))

	case CmdUnsubscribe:
		if cmd.SessionID == "" {
			c.sendResponse(newErrorResponse(CmdUnsubscribe, "session_id required"))
			return
		}
		c.hub.Unsubscribe(c, cmd.SessionID)
		c.sendResponse(newSuccessResponse(CmdUnsubscribe, "unsubscribed from session: "+cmd.SessionID))

	default:
		c.sendResponse(newErrorResponse("error", "unknown command: "+cmd.Action))
	}
}

func (c *Client) sendResponse(resp *Response) {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteJSON(resp)
}
