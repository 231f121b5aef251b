package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/linkedout/messaging-platform/internal/apperrors"
	"github.com/linkedout/messaging-platform/internal/model"
)

// Messages persists and queries direct messages. Every read issues a fresh
// query; nothing is cached, so snapshots are always consistent with the rows.
type Messages struct {
	db *gorm.DB
}

// NewMessages creates a message repository.
func NewMessages(db *gorm.DB) *Messages {
	return &Messages{db: db}
}

// Create persists a new message.
func (r *Messages) Create(ctx context.Context, msg *model.Message) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// GetByID returns a single message.
func (r *Messages) GetByID(ctx context.Context, id string) (*model.Message, error) {
	var msg model.Message
	err := r.db.WithContext(ctx).First(&msg, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("message", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return &msg, nil
}

// ListBetween returns all messages exchanged between two users in either
// direction, ordered by created_at then id ascending.
func (r *Messages) ListBetween(ctx context.Context, userA, userB string) ([]model.Message, error) {
	var msgs []model.Message
	err := r.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userA, userB, userB, userA).
		Order("created_at ASC, id ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return msgs, nil
}

// ListForUser returns every message the user sent or received, most recent
// first. Feeds the conversation aggregation.
func (r *Messages) ListForUser(ctx context.Context, userID string) ([]model.Message, error) {
	var msgs []model.Message
	err := r.db.WithContext(ctx).
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Order("created_at DESC, id DESC").
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list messages for user: %w", err)
	}
	return msgs, nil
}

// ListUnreadFrom returns the unread messages a user received from one sender,
// ordered by created_at then id ascending.
func (r *Messages) ListUnreadFrom(ctx context.Context, receiverID, senderID string) ([]model.Message, error) {
	var msgs []model.Message
	err := r.db.WithContext(ctx).
		Where("receiver_id = ? AND sender_id = ? AND is_read = ?", receiverID, senderID, false).
		Order("created_at ASC, id ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list unread messages: %w", err)
	}
	return msgs, nil
}

// MarkRead flips is_read on the given messages. Already-read rows are left
// untouched, which makes the call idempotent and safe under concurrent
// overlapping calls: the transition is one-directional.
func (r *Messages) MarkRead(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Model(&model.Message{}).
		Where("id IN ? AND is_read = ?", ids, false).
		Update("is_read", true).Error
	if err != nil {
		return fmt.Errorf("failed to mark messages read: %w", err)
	}
	return nil
}
