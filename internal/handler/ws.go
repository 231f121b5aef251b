package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/linkedout/messaging-platform/internal/middleware"
	"github.com/linkedout/messaging-platform/internal/relay"
	"github.com/linkedout/messaging-platform/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Cross-origin policy is enforced by the CORS middleware; the token in
	// the upgrade request is what authenticates the connection.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSHandler upgrades authenticated requests to relay connections.
type WSHandler struct {
	hub    *relay.Hub
	logger *logger.Logger
}

// NewWSHandler creates a new websocket handler.
func NewWSHandler(hub *relay.Hub, log *logger.Logger) *WSHandler {
	return &WSHandler{
		hub:    hub,
		logger: log,
	}
}

// Serve handles GET /ws
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "user_id", userID, "error", err)
		return
	}

	client := relay.NewClient(h.hub, conn, userID)
	h.hub.Register(client)

	// The request context dies when this handler returns; the pumps own the
	// hijacked connection's lifetime.
	go client.WritePump()
	go client.ReadPump(context.Background())
}
