package handler

import (
	"encoding/json"
	"net/http"

	"github.com/linkedout/messaging-platform/internal/middleware"
	"github.com/linkedout/messaging-platform/internal/model"
	"github.com/linkedout/messaging-platform/internal/service"
	"github.com/linkedout/messaging-platform/pkg/logger"
)

// MessageHandler handles message endpoints.
type MessageHandler struct {
	service *service.MessageService
	logger  *logger.Logger
}

// NewMessageHandler creates a new message handler.
func NewMessageHandler(svc *service.MessageService, log *logger.Logger) *MessageHandler {
	return &MessageHandler{
		service: svc,
		logger:  log,
	}
}

// Send handles POST /api/v1/messages
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	senderID := middleware.GetUserID(ctx)

	var req model.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateUserID(req.ReceiverID); err != nil {
		writeServiceError(w, err)
		return
	}

	msg, err := h.service.Send(ctx, senderID, req.ReceiverID, req.Content, "http")
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, &model.SendMessageResponse{Message: msg})
}
