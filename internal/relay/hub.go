// Package relay delivers events to users' live websocket connections.
// Delivery is best-effort: a user with no live connection simply misses the
// event and reconciles through polling.
package relay

import (
	"context"
	"encoding/json"

	"github.com/linkedout/messaging-platform/internal/model"
	"github.com/linkedout/messaging-platform/pkg/logger"
	"github.com/linkedout/messaging-platform/pkg/metrics"
)

// AckFunc acknowledges a single message on behalf of a user.
type AckFunc func(ctx context.Context, messageID, userID string) error

// SendFunc persists a message sent over a live connection.
type SendFunc func(ctx context.Context, senderID, receiverID, content string) (*model.Message, error)

type delivery struct {
	userID string
	event  model.Event
}

// Hub is the connection registry: user id to set of live clients. All state
// is owned by the Run goroutine; other goroutines talk to it over channels.
type Hub struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	deliveries chan delivery

	ack    AckFunc
	send   SendFunc
	logger *logger.Logger
}

// NewHub creates a hub. The ack and send hooks are invoked for websocket
// calls and for automatic acknowledgments routed by join state.
func NewHub(ack AckFunc, send SendFunc, log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliveries: make(chan delivery, 256),
		ack:        ack,
		send:       send,
		logger:     log,
	}
}

// Run owns the registry until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			conns, ok := h.clients[client.userID]
			if !ok {
				conns = make(map[*Client]struct{})
				h.clients[client.userID] = conns
			}
			conns[client] = struct{}{}
			metrics.IncrementWSConnections()
			h.logger.Info("client connected", "user_id", client.userID)

		case client := <-h.unregister:
			if conns, ok := h.clients[client.userID]; ok {
				if _, ok := conns[client]; ok {
					delete(conns, client)
					close(client.send)
					if len(conns) == 0 {
						delete(h.clients, client.userID)
					}
					metrics.DecrementWSConnections()
					h.logger.Info("client disconnected", "user_id", client.userID)
				}
			}

		case d := <-h.deliveries:
			h.deliver(d)

		case <-ctx.Done():
			return
		}
	}
}

// Register adds a client to the registry.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Deliver routes an event at every live connection of a user. Never blocks
// the caller: if the hub's queue is full the event is dropped.
func (h *Hub) Deliver(userID string, event model.Event) {
	select {
	case h.deliveries <- delivery{userID: userID, event: event}:
	default:
		metrics.RelayDeliveriesDropped.Inc()
		h.logger.Warn("relay queue full, event dropped", "user_id", userID, "event", string(event.Type))
	}
}

func (h *Hub) deliver(d delivery) {
	conns, ok := h.clients[d.userID]
	if !ok {
		// No live connection; the client catches up by polling.
		metrics.RelayDeliveriesDropped.Inc()
		return
	}

	data, err := json.Marshal(d.event)
	if err != nil {
		h.logger.Error("failed to encode event", "event", string(d.event.Type), "error", err)
		return
	}

	for client := range conns {
		select {
		case client.send <- data:
		default:
			// Slow consumer: drop the connection rather than block the hub.
			// Closing the conn lets the pumps wind down and unregister; the
			// send channel stays open so a late write cannot panic.
			delete(conns, client)
			if len(conns) == 0 {
				delete(h.clients, d.userID)
			}
			if client.conn != nil {
				client.conn.Close()
			}
			metrics.DecrementWSConnections()
			h.logger.Warn("client send buffer full, dropping connection", "user_id", client.userID)
			continue
		}

		// A client joined to the sender's conversation is looking at the
		// message right now; acknowledge it on their behalf.
		if d.event.Type == model.EventMessageCreated {
			var payload model.MessageCreatedPayload
			if err := json.Unmarshal(d.event.Payload, &payload); err != nil {
				continue
			}
			if client.JoinedWith() == payload.SenderID {
				go h.runAck(payload.ID, client.userID)
			}
		}
	}
}

func (h *Hub) runAck(messageID, userID string) {
	if err := h.ack(context.Background(), messageID, userID); err != nil {
		h.logger.Warn("auto acknowledge failed", "message_id", messageID, "user_id", userID, "error", err)
	}
}
