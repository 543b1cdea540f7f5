package infrastructure

import (
	"fmt"

	"coinflip/events"
)

// EventStreamName is the JetStream stream holding every published domain event
const EventStreamName = "coinflip_events"

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its corresponding NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	switch event.Type() {
	case events.EventTypeHouseInitialized:
		return "house.initialized"
	case events.EventTypeHouseDeposited:
		return "house.deposited"
	case events.EventTypeHouseWithdrawn:
		return "house.withdrawn"
	case events.EventTypeBetPlaced:
		return "bets.placed"
	case events.EventTypeBetSettled:
		return "bets.settled"
	case events.EventTypeFundsTransferred:
		return "ledger.transferred"
	default:
		return fmt.Sprintf("unknown.%s", event.Type())
	}
}

// MapSubjectToEventType converts a NATS subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	switch subject {
	case "house.initialized":
		return events.EventTypeHouseInitialized
	case "house.deposited":
		return events.EventTypeHouseDeposited
	case "house.withdrawn":
		return events.EventTypeHouseWithdrawn
	case "bets.placed":
		return events.EventTypeBetPlaced
	case "bets.settled":
		return events.EventTypeBetSettled
	case "ledger.transferred":
		return events.EventTypeFundsTransferred
	default:
		return events.EventType(subject)
	}
}

// GetAllSubjects returns all subjects that this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{
		"house.initialized",
		"house.deposited",
		"house.withdrawn",
		"bets.placed",
		"bets.settled",
		"ledger.transferred",
	}
}
