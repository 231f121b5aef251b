// Package service provides business logic for the messaging platform.
package service

import (
	"context"

	"github.com/linkedout/messaging-platform/internal/model"
)

// MessageStore is the persistence contract the services depend on.
// Implemented by store.Messages.
type MessageStore interface {
	Create(ctx context.Context, msg *model.Message) error
	GetByID(ctx context.Context, id string) (*model.Message, error)
	ListBetween(ctx context.Context, userA, userB string) ([]model.Message, error)
	ListForUser(ctx context.Context, userID string) ([]model.Message, error)
	ListUnreadFrom(ctx context.Context, receiverID, senderID string) ([]model.Message, error)
	MarkRead(ctx context.Context, ids []string) error
}

// UserDirectory resolves user ids to display fields. Implemented by
// store.Users.
type UserDirectory interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// EventPublisher pushes a relay event at a user's live connections.
// Delivery is best-effort: implementations log and swallow failures, never
// returning them to the triggering request. Implemented by relay.Bridge.
type EventPublisher interface {
	Publish(ctx context.Context, userID string, event model.Event)
}
