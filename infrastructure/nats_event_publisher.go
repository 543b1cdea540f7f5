package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"coinflip/events"
	"coinflip/infrastructure/observability"
	"coinflip/layout"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

// SourceService identifies this service in event envelopes
const SourceService = "coinflip"

// EventEnvelope wraps every event published to NATS. Layout carries the
// binary account layout of the entity the event updated.
type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Timestamp     time.Time       `json:"timestamp"`
	SourceService string          `json:"source_service"`
	Payload       json.RawMessage `json:"payload"`
	Layout        []byte          `json:"layout,omitempty"`
}

// messagePublisher is the subset of NATSClient the publisher needs
type messagePublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// NATSEventPublisher forwards committed domain events to NATS JetStream
type NATSEventPublisher struct {
	client        messagePublisher
	subjectMapper *EventSubjectMapper
	now           func() time.Time
}

// NewNATSEventPublisher creates a new NATS event publisher
func NewNATSEventPublisher(client messagePublisher, subjectMapper *EventSubjectMapper) *NATSEventPublisher {
	return &NATSEventPublisher{
		client:        client,
		subjectMapper: subjectMapper,
		now:           time.Now,
	}
}

// Attach subscribes the publisher to every event type on the bus
func (p *NATSEventPublisher) Attach(bus *events.Bus) {
	bus.SubscribeAll(p.HandleEvent,
		events.EventTypeHouseInitialized,
		events.EventTypeHouseDeposited,
		events.EventTypeHouseWithdrawn,
		events.EventTypeBetPlaced,
		events.EventTypeBetSettled,
		events.EventTypeFundsTransferred,
	)
}

// HandleEvent is a bus handler that publishes and logs failures
func (p *NATSEventPublisher) HandleEvent(ctx context.Context, event events.Event) {
	if err := p.Publish(ctx, event); err != nil {
		log.WithFields(log.Fields{
			"eventType": event.Type(),
			"error":     err,
		}).Error("Failed to publish event to NATS")
	}
}

// Publish publishes an event to NATS using the appropriate subject
func (p *NATSEventPublisher) Publish(ctx context.Context, event events.Event) error {
	envelope, err := p.Envelope(event)
	if err != nil {
		return err
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	subject := p.subjectMapper.MapEventToSubject(event)
	if err := p.client.Publish(ctx, subject, data); err != nil {
		if errors.Is(err, nats.ErrNoStreamResponse) {
			log.WithField("subject", subject).Warn("No stream captured event")
			return nil
		}
		return fmt.Errorf("failed to publish event to NATS: %w", err)
	}

	observability.GetMetrics().RecordNATSMessagePublished(string(event.Type()))

	log.WithFields(log.Fields{
		"eventType": event.Type(),
		"eventId":   envelope.EventID,
		"subject":   subject,
	}).Debug("Successfully published event to NATS")

	return nil
}

// Envelope builds the envelope for an event without publishing it
func (p *NATSEventPublisher) Envelope(event events.Event) (*EventEnvelope, error) {
	payload, accountLayout := eventPayload(event)

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}

	return &EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     string(event.Type()),
		Timestamp:     p.now().UTC(),
		SourceService: SourceService,
		Payload:       payloadJSON,
		Layout:        accountLayout,
	}, nil
}

// EnsureEventStream ensures the event stream exists with every published subject
func (p *NATSEventPublisher) EnsureEventStream(client *NATSClient) error {
	return client.ensureStream(EventStreamName, p.subjectMapper.GetAllSubjects())
}

type houseEventPayload struct {
	House           HouseDTO `json:"house"`
	Amount          uint64   `json:"amount,omitempty"`
	TreasuryBalance uint64   `json:"treasury_balance"`
}

type betSettledPayload struct {
	Bet       BetDTO   `json:"bet"`
	House     HouseDTO `json:"house"`
	Combined  uint64   `json:"combined"`
	UserWon   bool     `json:"user_won"`
	Payout    uint64   `json:"payout"`
	Forfeited uint64   `json:"forfeited"`
}

// eventPayload returns the JSON payload of an event and the layout of the
// account it updated, if any
func eventPayload(event events.Event) (any, []byte) {
	switch e := event.(type) {
	case events.HouseInitializedEvent:
		return houseEventPayload{House: newHouseDTO(&e.House)}, layout.EncodeHouse(&e.House)
	case events.HouseDepositedEvent:
		return houseEventPayload{
			House:           newHouseDTO(&e.House),
			Amount:          e.Amount,
			TreasuryBalance: e.TreasuryBalance,
		}, layout.EncodeHouse(&e.House)
	case events.HouseWithdrawnEvent:
		return houseEventPayload{
			House:           newHouseDTO(&e.House),
			Amount:          e.Amount,
			TreasuryBalance: e.TreasuryBalance,
		}, layout.EncodeHouse(&e.House)
	case events.BetPlacedEvent:
		return newBetDTO(&e.Bet), layout.EncodeBet(&e.Bet)
	case events.BetSettledEvent:
		return betSettledPayload{
			Bet:       newBetDTO(&e.Bet),
			House:     newHouseDTO(&e.House),
			Combined:  e.Combined,
			UserWon:   e.UserWon,
			Payout:    e.Payout,
			Forfeited: e.Forfeited,
		}, layout.EncodeBet(&e.Bet)
	case events.FundsTransferredEvent:
		return TransferDTO{Kind: e.Kind, Amount: e.Amount, Delegated: e.Delegated}, nil
	default:
		return event, nil
	}
}
