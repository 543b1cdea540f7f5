package events

import (
	"context"
	"sync"

	"coinflip/models"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeHouseInitialized EventType = "house_initialized"
	EventTypeHouseDeposited   EventType = "house_deposited"
	EventTypeHouseWithdrawn   EventType = "house_withdrawn"
	EventTypeBetPlaced        EventType = "bet_placed"
	EventTypeBetSettled       EventType = "bet_settled"
	EventTypeFundsTransferred EventType = "funds_transferred"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// HouseInitializedEvent is emitted once the house singleton exists
type HouseInitializedEvent struct {
	House models.HouseTreasury
}

func (e HouseInitializedEvent) Type() EventType {
	return EventTypeHouseInitialized
}

// HouseDepositedEvent represents the authority funding the treasury
type HouseDepositedEvent struct {
	House           models.HouseTreasury
	Amount          uint64
	TreasuryBalance uint64
}

func (e HouseDepositedEvent) Type() EventType {
	return EventTypeHouseDeposited
}

// HouseWithdrawnEvent represents the authority draining the treasury
type HouseWithdrawnEvent struct {
	House           models.HouseTreasury
	Amount          uint64
	TreasuryBalance uint64
}

func (e HouseWithdrawnEvent) Type() EventType {
	return EventTypeHouseWithdrawn
}

// BetPlacedEvent represents a stake moved into escrow
type BetPlacedEvent struct {
	Bet models.BetRecord
}

func (e BetPlacedEvent) Type() EventType {
	return EventTypeBetPlaced
}

// BetSettledEvent represents a bet reaching its terminal state
type BetSettledEvent struct {
	Bet       models.BetRecord
	House     models.HouseTreasury
	Combined  uint64
	UserWon   bool
	Payout    uint64
	Forfeited uint64
}

func (e BetSettledEvent) Type() EventType {
	return EventTypeBetSettled
}

// FundsTransferredEvent is emitted for every committed ledger leg
type FundsTransferredEvent struct {
	Kind      models.TransferKind
	Amount    uint64
	Delegated bool
}

func (e FundsTransferredEvent) Type() EventType {
	return EventTypeFundsTransferred
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type on main event bus")
}

// SubscribeAll adds a handler for every given event type
func (b *Bus) SubscribeAll(handler Handler, eventTypes ...EventType) {
	for _, eventType := range eventTypes {
		b.Subscribe(eventType, handler)
	}
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers on main event bus")

	// Call handlers asynchronously to avoid blocking
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// TransactionalBus holds events raised inside a unit of work until the
// transaction commits, then flushes them to the underlying bus.
type TransactionalBus struct {
	real    *Bus
	pending []Event // stashed until Flush
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	log.WithFields(log.Fields{
		"eventType":    e.Type(),
		"pendingCount": len(b.pending),
	}).Debug("Adding event to transactional bus pending queue")
	b.pending = append(b.pending, e)
}

// Flush is called after a successful commit
func (b *TransactionalBus) Flush(ctx context.Context) error {
	log.WithFields(log.Fields{
		"pendingEventCount": len(b.pending),
	}).Debug("Flushing pending events from transactional bus to main event bus")

	// Events outlive the transaction context
	eventCtx := context.Background()

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// Discard is called after a rollback
func (b *TransactionalBus) Discard() {
	b.pending = nil
}

// Pending returns the number of events waiting for Flush
func (b *TransactionalBus) Pending() int {
	return len(b.pending)
}
