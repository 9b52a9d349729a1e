package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// DomainEventStream is the JetStream stream that receives forwarded events
const DomainEventStream = "plombir_events"

// SubjectPrefix is prepended to the event type to form the NATS subject
const SubjectPrefix = "plombir.events."

// MessagePublisher publishes raw payloads to a subject
type MessagePublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// Envelope wraps a forwarded event
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     EventType       `json:"event_type"`
	Timestamp     time.Time       `json:"timestamp"`
	SourceService string          `json:"source_service"`
	Payload       json.RawMessage `json:"payload"`
}

// Forwarder relays events from the in-process bus to an external broker so
// that a separate bot process can send notifications.
type Forwarder struct {
	publisher MessagePublisher
	now       func() time.Time
}

// NewForwarder creates a forwarder for the given publisher
func NewForwarder(publisher MessagePublisher) *Forwarder {
	return &Forwarder{publisher: publisher, now: time.Now}
}

// ForwardedEventTypes lists the events relayed to the broker
var ForwardedEventTypes = []EventType{
	EventTypeUserCreated,
	EventTypeOfferCreated,
	EventTypeDuelFinished,
	EventTypePromoRedeemed,
	EventTypeGiveawayJoined,
	EventTypeSocialSubmitted,
}

// Subjects returns the NATS subjects for the forwarded event types
func Subjects() []string {
	subjects := make([]string, 0, len(ForwardedEventTypes))
	for _, t := range ForwardedEventTypes {
		subjects = append(subjects, SubjectFor(t))
	}
	return subjects
}

// SubjectFor maps an event type to its NATS subject
func SubjectFor(t EventType) string {
	return SubjectPrefix + string(t)
}

// Attach subscribes the forwarder to every forwarded event type on bus
func (f *Forwarder) Attach(bus *Bus) {
	for _, t := range ForwardedEventTypes {
		bus.Subscribe(t, f.Handle)
	}
}

// Handle is a bus handler that forwards a single event
func (f *Forwarder) Handle(ctx context.Context, event Event) {
	if err := f.Forward(ctx, event); err != nil {
		log.WithFields(log.Fields{
			"eventType": event.Type(),
			"error":     err,
		}).Error("Failed to forward event")
	}
}

// Forward serializes event into an envelope and publishes it
func (f *Forwarder) Forward(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	envelope := Envelope{
		EventID:       uuid.NewString(),
		EventType:     event.Type(),
		Timestamp:     f.now().UTC(),
		SourceService: "plombir-api",
		Payload:       payload,
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	subject := SubjectFor(event.Type())
	if err := f.publisher.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish event to %s: %w", subject, err)
	}

	log.WithFields(log.Fields{
		"eventType": event.Type(),
		"eventId":   envelope.EventID,
		"subject":   subject,
	}).Debug("Forwarded event")
	return nil
}
