package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/linkedout/messaging-platform/internal/apperrors"
	"github.com/linkedout/messaging-platform/internal/model"
	"github.com/linkedout/messaging-platform/pkg/logger"
	"github.com/linkedout/messaging-platform/pkg/metrics"
)

// MessageService handles message creation.
type MessageService struct {
	store  MessageStore
	users  UserDirectory
	relay  EventPublisher
	logger *logger.Logger
}

// NewMessageService creates a new message service.
func NewMessageService(store MessageStore, users UserDirectory, relay EventPublisher, log *logger.Logger) *MessageService {
	return &MessageService{
		store:  store,
		users:  users,
		relay:  relay,
		logger: log,
	}
}

// Send validates and persists a message, then pushes it at the receiver's
// live connections with a confirmation back to the sender. A failed send
// persists nothing; a failed relay push never fails the send.
func (s *MessageService) Send(ctx context.Context, senderID, receiverID, content string, transport string) (*model.Message, error) {
	if err := validateContent(content); err != nil {
		return nil, err
	}
	if receiverID == "" {
		return nil, apperrors.Validation("receiver_id", "must not be empty")
	}
	if receiverID == senderID {
		return nil, apperrors.Validation("receiver_id", "cannot send a message to yourself")
	}

	if _, err := s.users.GetByID(ctx, receiverID); err != nil {
		return nil, err
	}
	sender, err := s.users.GetByID(ctx, senderID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve sender: %w", err)
	}

	// UUIDv7 ids are time-ordered, so the (created_at, id) tie-break is
	// insertion order.
	msg := &model.Message{
		ID:         uuid.Must(uuid.NewV7()).String(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		IsRead:     false,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.store.Create(ctx, msg); err != nil {
		return nil, err
	}

	metrics.MessagesTotal.WithLabelValues(transport).Inc()
	s.logger.Info("message sent",
		"message_id", msg.ID, "sender_id", senderID, "receiver_id", receiverID)

	// Fire-and-forget after the write committed.
	s.publish(ctx, receiverID, model.EventMessageCreated, model.MessageCreatedPayload{
		ID:         msg.ID,
		SenderID:   senderID,
		SenderName: sender.DisplayName,
		Content:    msg.Content,
		Timestamp:  msg.CreatedAt,
	})
	s.publish(ctx, senderID, model.EventMessageSent, model.MessageSentPayload{
		ID:         msg.ID,
		ReceiverID: receiverID,
		Content:    msg.Content,
		Timestamp:  msg.CreatedAt,
	})

	return msg, nil
}

func (s *MessageService) publish(ctx context.Context, userID string, t model.EventType, payload any) {
	ev, err := model.NewEvent(t, payload)
	if err != nil {
		s.logger.Error("failed to encode relay event", "event", string(t), "error", err)
		return
	}
	s.relay.Publish(ctx, userID, ev)
}

func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return apperrors.Validation("content", "must not be empty")
	}
	if !utf8.ValidString(content) {
		return apperrors.Validation("content", "must be valid UTF-8")
	}
	if utf8.RuneCountInString(content) > model.MaxContentLength {
		return apperrors.Validation("content", fmt.Sprintf("exceeds %d characters", model.MaxContentLength))
	}
	return nil
}
