package service

import (
	"context"

	"github.com/linkedout/messaging-platform/internal/apperrors"
	"github.com/linkedout/messaging-platform/internal/model"
	"github.com/linkedout/messaging-platform/pkg/logger"
	"github.com/linkedout/messaging-platform/pkg/metrics"
)

// ConversationService derives conversation views and drives read-state
// transitions.
type ConversationService struct {
	store  MessageStore
	users  UserDirectory
	relay  EventPublisher
	logger *logger.Logger
}

// NewConversationService creates a new conversation service.
func NewConversationService(store MessageStore, users UserDirectory, relay EventPublisher, log *logger.Logger) *ConversationService {
	return &ConversationService{
		store:  store,
		users:  users,
		relay:  relay,
		logger: log,
	}
}

// ListConversations groups the user's messages by counterpart: last message
// preview and timestamp from either direction, unread count over messages
// addressed to the user. Ordered by last message, most recent first. Pure
// read; unread counts are recomputed from rows on every call.
func (s *ConversationService) ListConversations(ctx context.Context, currentUserID string) ([]model.Conversation, error) {
	msgs, err := s.store.ListForUser(ctx, currentUserID)
	if err != nil {
		return nil, err
	}

	// msgs is ordered most recent first, so the first message seen for a
	// counterpart is its preview and fixes the conversation's position.
	conversations := make([]model.Conversation, 0)
	index := make(map[string]int)
	for _, msg := range msgs {
		counterpartID := msg.SenderID
		if counterpartID == currentUserID {
			counterpartID = msg.ReceiverID
		}

		i, seen := index[counterpartID]
		if !seen {
			i = len(conversations)
			index[counterpartID] = i
			conversations = append(conversations, model.Conversation{
				CounterpartID:      counterpartID,
				LastMessageContent: msg.Content,
				LastMessageAt:      msg.CreatedAt,
			})
		}
		if msg.ReceiverID == currentUserID && !msg.IsRead {
			conversations[i].UnreadCount++
		}
	}

	for i := range conversations {
		user, err := s.users.GetByID(ctx, conversations[i].CounterpartID)
		if err != nil {
			if apperrors.IsNotFound(err) {
				// Counterpart account since removed; keep the conversation.
				s.logger.Warn("counterpart missing from user directory",
					"counterpart_id", conversations[i].CounterpartID)
				continue
			}
			return nil, err
		}
		conversations[i].CounterpartDisplayName = user.DisplayName
	}

	return conversations, nil
}

// OpenConversation returns the full ordered history with a counterpart and,
// as a side effect, marks every unread message from that counterpart as read,
// emitting one read receipt per transitioned message to the original sender.
func (s *ConversationService) OpenConversation(ctx context.Context, currentUserID, counterpartID string) ([]model.Message, error) {
	if _, err := s.users.GetByID(ctx, counterpartID); err != nil {
		return nil, err
	}

	unread, err := s.store.ListUnreadFrom(ctx, currentUserID, counterpartID)
	if err != nil {
		return nil, err
	}

	if len(unread) > 0 {
		ids := make([]string, len(unread))
		for i, msg := range unread {
			ids[i] = msg.ID
		}
		if err := s.store.MarkRead(ctx, ids); err != nil {
			return nil, err
		}
		metrics.ReadTransitionsTotal.Add(float64(len(ids)))

		for _, msg := range unread {
			s.publishRead(ctx, msg.SenderID, msg.ID)
		}
	}

	return s.store.ListBetween(ctx, currentUserID, counterpartID)
}

// Acknowledge marks a single message read on behalf of ackingUserID. A caller
// that is not the message's receiver gets a silent no-op: the check is a
// permission boundary, not an error, matching lenient real-time ack
// semantics. Already-read messages are also a no-op and emit no receipt.
func (s *ConversationService) Acknowledge(ctx context.Context, messageID, ackingUserID string) error {
	msg, err := s.store.GetByID(ctx, messageID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil
		}
		return err
	}
	if msg.ReceiverID != ackingUserID || msg.IsRead {
		return nil
	}

	if err := s.store.MarkRead(ctx, []string{msg.ID}); err != nil {
		return err
	}
	metrics.ReadTransitionsTotal.Inc()

	s.publishRead(ctx, msg.SenderID, msg.ID)
	return nil
}

func (s *ConversationService) publishRead(ctx context.Context, senderID, messageID string) {
	ev, err := model.NewEvent(model.EventMessageRead, model.MessageReadPayload{MessageID: messageID})
	if err != nil {
		s.logger.Error("failed to encode read receipt", "message_id", messageID, "error", err)
		return
	}
	s.relay.Publish(ctx, senderID, ev)
}
