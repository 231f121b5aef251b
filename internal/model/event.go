package model

import (
	"encoding/json"
	"time"
)

// EventType identifies a relay event on the wire. The names are part of the
// client contract.
type EventType string

const (
	// EventMessageCreated is pushed to a message's receiver after persistence.
	EventMessageCreated EventType = "ReceiveMessage"
	// EventMessageSent is the send confirmation pushed back to the sender.
	EventMessageSent EventType = "MessageSent"
	// EventMessageRead is pushed to the original sender after a read transition.
	EventMessageRead EventType = "MessageRead"
	// EventError reports a failed websocket call back to the issuing client.
	EventError EventType = "Error"
)

// Event is the envelope delivered over a live connection.
type Event struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// NewEvent marshals payload into an Event envelope.
func NewEvent(t EventType, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: t, Payload: data}, nil
}

// MessageCreatedPayload is the payload of an EventMessageCreated event.
type MessageCreatedPayload struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
}

// MessageSentPayload is the payload of an EventMessageSent confirmation.
type MessageSentPayload struct {
	ID         string    `json:"id"`
	ReceiverID string    `json:"receiver_id"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
}

// MessageReadPayload is the payload of an EventMessageRead receipt.
type MessageReadPayload struct {
	MessageID string `json:"message_id"`
}

// ErrorPayload is the payload of an EventError event.
type ErrorPayload struct {
	Message string `json:"message"`
}
