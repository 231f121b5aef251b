package relay

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/linkedout/messaging-platform/internal/model"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// inboundCall is a client request arriving over the socket.
type inboundCall struct {
	Type          string `json:"type"`
	CounterpartID string `json:"counterpart_id,omitempty"`
	MessageID     string `json:"message_id,omitempty"`
	ReceiverID    string `json:"receiver_id,omitempty"`
	Content       string `json:"content,omitempty"`
}

// Client is one live websocket connection for an authenticated user.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	send   chan []byte

	mu         sync.RWMutex
	joinedWith string
}

// NewClient creates a client for an upgraded connection.
func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, 64),
	}
}

// JoinedWith returns the counterpart the client has advisorily joined, or "".
func (c *Client) JoinedWith() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.joinedWith
}

func (c *Client) setJoined(counterpartID string) {
	c.mu.Lock()
	c.joinedWith = counterpartID
	c.mu.Unlock()
}

// ReadPump reads client calls until the connection closes, then unregisters.
func (c *Client) ReadPump(ctx context.Context) {
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
		var call inboundCall
		if err := c.conn.ReadJSON(&call); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read error", "user_id", c.userID, "error", err)
			}
			return
		}
		c.handleCall(ctx, call)
	}
}

func (c *Client) handleCall(ctx context.Context, call inboundCall) {
	switch call.Type {
	case "join":
		// Advisory only: routes automatic acknowledgments, persists nothing.
		c.setJoined(call.CounterpartID)

	case "leave":
		c.setJoined("")

	case "ack":
		if err := c.hub.ack(ctx, call.MessageID, c.userID); err != nil {
			c.hub.logger.Warn("acknowledge failed", "message_id", call.MessageID, "user_id", c.userID, "error", err)
		}

	case "send":
		if _, err := c.hub.send(ctx, c.userID, call.ReceiverID, call.Content); err != nil {
			c.sendError(err.Error())
		}

	default:
		c.sendError("unknown call type: " + call.Type)
	}
}

func (c *Client) sendError(message string) {
	ev, err := model.NewEvent(model.EventError, model.ErrorPayload{Message: message})
	if err != nil {
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// WritePump writes hub deliveries and pings to the connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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
