package model

import (
	"time"
)

// MaxContentLength is the maximum message content length in runes.
const MaxContentLength = 1000

// Message is a single direct message between two users. IsRead transitions
// false to true exactly once and never reverts; only actions performed in the
// receiver's context may flip it.
type Message struct {
	ID         string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	SenderID   string    `gorm:"type:varchar(36);not null;index:idx_messages_sender" json:"sender_id"`
	ReceiverID string    `gorm:"type:varchar(36);not null;index:idx_messages_receiver_read" json:"receiver_id"`
	Content    string    `gorm:"type:varchar(1000);not null" json:"content"`
	IsRead     bool      `gorm:"not null;default:false;index:idx_messages_receiver_read" json:"is_read"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

// SendMessageRequest is the request to send a new message.
type SendMessageRequest struct {
	ReceiverID string `json:"receiver_id"`
	Content    string `json:"content"`
}

// SendMessageResponse is the response after sending a message.
type SendMessageResponse struct {
	Message *Message `json:"message"`
}

// ListMessagesResponse is the response for a conversation history.
type ListMessagesResponse struct {
	Messages []Message `json:"messages"`
}
