// Package model defines data structures for the messaging platform.
package model

import (
	"time"
)

// Conversation is a derived view over the messages exchanged with one
// counterpart. It is recomputed on every read and never persisted, so the
// unread count cannot drift from the underlying rows.
type Conversation struct {
	CounterpartID          string    `json:"counterpart_id"`
	CounterpartDisplayName string    `json:"counterpart_display_name"`
	LastMessageContent     string    `json:"last_message_content"`
	LastMessageAt          time.Time `json:"last_message_at"`
	UnreadCount            int       `json:"unread_count"`
}

// ListConversationsResponse is the response for listing conversations.
// PollIntervalSeconds tells clients without a live websocket how often to
// refetch; polling is the delivery guarantee the relay does not provide.
type ListConversationsResponse struct {
	Conversations       []Conversation `json:"conversations"`
	PollIntervalSeconds int            `json:"poll_interval_seconds"`
}
