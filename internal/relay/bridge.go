package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"

	"github.com/linkedout/messaging-platform/internal/model"
	natsclient "github.com/linkedout/messaging-platform/internal/nats"
	"github.com/linkedout/messaging-platform/pkg/logger"
	"github.com/linkedout/messaging-platform/pkg/metrics"
)

// userSubjectPrefix is the NATS subject space for per-user relay events.
// Every instance publishes here and subscribes to the wildcard, so events
// reach the instance holding the target user's connection.
const userSubjectPrefix = "relay.user"

func userSubject(userID string) string {
	return fmt.Sprintf("%s.%s", userSubjectPrefix, userID)
}

// Bridge connects the local hub to the NATS backbone. It is the
// EventPublisher the services push into.
type Bridge struct {
	client *natsclient.Client
	hub    *Hub
	logger *logger.Logger
}

// NewBridge creates a bridge over an established NATS connection.
func NewBridge(client *natsclient.Client, hub *Hub, log *logger.Logger) *Bridge {
	return &Bridge{
		client: client,
		hub:    hub,
		logger: log,
	}
}

// Publish sends an event toward a user's live connections, wherever they are
// attached. Best-effort: failures are counted and logged, never returned.
// The triggering write is already durable and polling reconciles.
func (b *Bridge) Publish(ctx context.Context, userID string, event model.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("failed to encode relay event", "event", string(event.Type), "error", err)
		metrics.RecordRelayPublish(string(event.Type), false)
		return
	}

	if err := b.client.Conn().Publish(userSubject(userID), data); err != nil {
		b.logger.Warn("relay publish failed", "user_id", userID, "event", string(event.Type), "error", err)
		metrics.RecordRelayPublish(string(event.Type), false)
		return
	}
	metrics.RecordRelayPublish(string(event.Type), true)
}

// Start subscribes to the per-user subject space and routes incoming events
// into the local hub. Returns the subscription for shutdown.
func (b *Bridge) Start() (*nats.Subscription, error) {
	sub, err := b.client.Conn().Subscribe(userSubjectPrefix+".*", func(m *nats.Msg) {
		userID := strings.TrimPrefix(m.Subject, userSubjectPrefix+".")

		var event model.Event
		if err := json.Unmarshal(m.Data, &event); err != nil {
			b.logger.Warn("malformed relay event", "subject", m.Subject, "error", err)
			return
		}
		b.hub.Deliver(userID, event)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to relay subjects: %w", err)
	}
	return sub, nil
}
