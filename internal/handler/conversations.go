// Package handler provides HTTP handlers for the API.
package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/linkedout/messaging-platform/internal/middleware"
	"github.com/linkedout/messaging-platform/internal/model"
	"github.com/linkedout/messaging-platform/internal/service"
	"github.com/linkedout/messaging-platform/pkg/logger"
)

// ConversationHandler handles conversation endpoints.
type ConversationHandler struct {
	service      *service.ConversationService
	pollInterval time.Duration
	logger       *logger.Logger
}

// NewConversationHandler creates a new conversation handler.
func NewConversationHandler(svc *service.ConversationService, pollInterval time.Duration, log *logger.Logger) *ConversationHandler {
	return &ConversationHandler{
		service:      svc,
		pollInterval: pollInterval,
		logger:       log,
	}
}

// List handles GET /api/v1/conversations
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	currentUserID := middleware.GetUserID(ctx)

	conversations, err := h.service.ListConversations(ctx, currentUserID)
	if err != nil {
		h.logger.Error("failed to list conversations", "user_id", currentUserID, "error", err)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, &model.ListConversationsResponse{
		Conversations:       conversations,
		PollIntervalSeconds: int(h.pollInterval.Seconds()),
	})
}

// Open handles GET /api/v1/conversations/{counterpartID}. Fetching a
// conversation marks the unread messages from that counterpart as read and
// emits read receipts to them.
func (h *ConversationHandler) Open(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	currentUserID := middleware.GetUserID(ctx)
	counterpartID := chi.URLParam(r, "counterpartID")

	if err := middleware.ValidateUserID(counterpartID); err != nil {
		writeServiceError(w, err)
		return
	}

	messages, err := h.service.OpenConversation(ctx, currentUserID, counterpartID)
	if err != nil {
		h.logger.Error("failed to open conversation",
			"user_id", currentUserID, "counterpart_id", counterpartID, "error", err)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, &model.ListMessagesResponse{Messages: messages})
}
