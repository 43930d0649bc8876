package client

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/onair-media/be-editorial-workflow/internal/workflow"
)

// NotificationPublisher dispatches workflow notification intents to NATS for
// the downstream notification service to deliver (email, in-app).
//
// Subject convention: notifications.editorial.<intent_type>
// Intent types: assigned, revision_requested, published
//
// All publish operations are non-fatal — failures are logged but never
// propagated, so notification trouble never interrupts a committed
// transition. The workflow engine itself never calls this; the handler
// dispatches the intents the engine returns.
type NotificationPublisher struct {
	conn *nats.Conn
	log  zerolog.Logger
}

// NotificationEvent is the JSON schema published to NATS.
type NotificationEvent struct {
	EventType   string `json:"event_type"`
	RecipientID string `json:"recipient_id"`
	EntityType  string `json:"entity_type"`
	EntityID    string `json:"entity_id"`
	ActorID     string `json:"actor_id,omitempty"`
}

// NewNotificationPublisher connects to NATS. An empty URL yields a disabled
// publisher that logs and drops intents, for local development.
func NewNotificationPublisher(url string, log zerolog.Logger) (*NotificationPublisher, error) {
	if url == "" {
		log.Warn().Msg("NATS_URL not set; notification intents will be dropped")
		return &NotificationPublisher{log: log}, nil
	}
	conn, err := nats.Connect(url, nats.Name("be-editorial-workflow"))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NotificationPublisher{conn: conn, log: log}, nil
}

// Close drains the connection.
func (p *NotificationPublisher) Close() {
	if p.conn != nil {
		_ = p.conn.Drain()
	}
}

// Dispatch publishes every intent from a committed transition.
func (p *NotificationPublisher) Dispatch(actorID string, intents []workflow.NotificationIntent) {
	for _, intent := range intents {
		p.publish(actorID, intent)
	}
}

func (p *NotificationPublisher) publish(actorID string, intent workflow.NotificationIntent) {
	if p.conn == nil {
		p.log.Debug().
			Str("type", string(intent.Type)).
			Str("recipient_id", intent.RecipientID).
			Msg("notification: publisher disabled, intent dropped")
		return
	}

	event := &NotificationEvent{
		EventType:   string(intent.Type),
		RecipientID: intent.RecipientID,
		EntityType:  intent.EntityType,
		EntityID:    intent.EntityID,
		ActorID:     actorID,
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.log.Warn().Err(err).Str("type", string(intent.Type)).Msg("notification: failed to marshal event")
		return
	}

	subject := fmt.Sprintf("notifications.editorial.%s", intent.Type)
	if err := p.conn.Publish(subject, data); err != nil {
		p.log.Warn().Err(err).
			Str("subject", subject).
			Str("entity_id", intent.EntityID).
			Msg("notification: failed to publish NATS event (non-fatal)")
		return
	}

	p.log.Debug().
		Str("subject", subject).
		Str("entity_id", intent.EntityID).
		Str("recipient_id", intent.RecipientID).
		Msg("notification: event published")
}
