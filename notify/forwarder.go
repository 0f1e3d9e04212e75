package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"guardwars/events"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const sourceService = "guardwars"

// Publisher sends raw payloads to a subject
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// Envelope wraps every outgoing notification
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Timestamp     time.Time       `json:"timestamp"`
	SourceService string          `json:"source_service"`
	Payload       json.RawMessage `json:"payload"`
}

var subjects = map[events.EventType]string{
	events.EventTypeBalanceChange:  "guardwars.balance.changed",
	events.EventTypeAttackResolved: "guardwars.attack.resolved",
	events.EventTypeBoostExtended:  "guardwars.boost.extended",
	events.EventTypeWarDeclared:    "guardwars.war.declared",
	events.EventTypeWarCompleted:   "guardwars.war.completed",
}

// Subjects lists every subject the forwarder publishes to
func Subjects() []string {
	out := make([]string, 0, len(subjects))
	for _, s := range subjects {
		out = append(out, s)
	}
	return out
}

// Forwarder relays committed bus events to an external publisher
type Forwarder struct {
	publisher Publisher
	now       func() time.Time
}

// NewForwarder creates a forwarder writing to publisher
func NewForwarder(publisher Publisher) *Forwarder {
	return &Forwarder{
		publisher: publisher,
		now:       time.Now,
	}
}

// Subscribe registers the forwarder for every event type it knows a subject for
func (f *Forwarder) Subscribe(bus *events.Bus) {
	for eventType := range subjects {
		bus.Subscribe(eventType, f.handle)
	}
}

func (f *Forwarder) handle(ctx context.Context, event events.Event) {
	if err := f.Forward(ctx, event); err != nil {
		log.WithFields(log.Fields{
			"eventType": event.Type(),
			"error":     err,
		}).Error("Failed to forward event")
	}
}

// Forward publishes a single event wrapped in an envelope
func (f *Forwarder) Forward(ctx context.Context, event events.Event) error {
	subject, ok := subjects[event.Type()]
	if !ok {
		return fmt.Errorf("no subject for event type %s", event.Type())
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	envelope := Envelope{
		EventID:       uuid.New().String(),
		EventType:     string(event.Type()),
		Timestamp:     f.now().UTC(),
		SourceService: sourceService,
		Payload:       payload,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	if err := f.publisher.Publish(ctx, subject, data); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"eventType": event.Type(),
		"eventId":   envelope.EventID,
		"subject":   subject,
	}).Debug("Forwarded event")
	return nil
}
