package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"coinflip/models"

	"github.com/stretchr/testify/assert"
)

func settledBet(userSeed, houseSeed uint64, guess bool) models.BetRecord {
	bet := models.BetRecord{
		Amount:    100,
		UserGuess: guess,
		UserSeed:  userSeed,
	}
	_ = bet.Settle(houseSeed, (userSeed+houseSeed)%2 == 0, time.Now())
	return bet
}

// TestEventDeliveryIntegration tests the complete event flow from TransactionalBus to main Bus
func TestEventDeliveryIntegration(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	eventReceived := make(chan BetSettledEvent, 1)
	var wg sync.WaitGroup
	wg.Add(1)

	mainBus.Subscribe(EventTypeBetSettled, func(ctx context.Context, event Event) {
		defer wg.Done()
		if settled, ok := event.(BetSettledEvent); ok {
			select {
			case eventReceived <- settled:
			case <-time.After(1 * time.Second):
				t.Error("Timeout sending event to channel")
			}
		} else {
			t.Errorf("Expected BetSettledEvent, got %T", event)
		}
	})

	testEvent := BetSettledEvent{
		Bet:      settledBet(5, 5, models.Heads),
		Combined: 10,
		UserWon:  true,
		Payout:   100,
	}

	// Publish inside the unit of work, flush on commit
	transactionalBus.Publish(testEvent)
	assert.Equal(t, 1, transactionalBus.Pending())

	err := transactionalBus.Flush(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 0, transactionalBus.Pending())

	wg.Wait()

	select {
	case received := <-eventReceived:
		assert.Equal(t, testEvent.Combined, received.Combined)
		assert.True(t, received.UserWon)
		assert.Equal(t, uint64(5), received.Bet.HouseSeed())
		assert.True(t, received.Bet.IsSettled())
	case <-time.After(2 * time.Second):
		t.Fatal("Event was not received within timeout")
	}
}

// TestMultipleEventsDelivery tests delivering multiple events in sequence
func TestMultipleEventsDelivery(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	eventsReceived := make(chan FundsTransferredEvent, 3)
	var wg sync.WaitGroup
	wg.Add(3)

	mainBus.Subscribe(EventTypeFundsTransferred, func(ctx context.Context, event Event) {
		defer wg.Done()
		if transferred, ok := event.(FundsTransferredEvent); ok {
			eventsReceived <- transferred
		}
	})

	legs := []FundsTransferredEvent{
		{Kind: models.TransferKindStake, Amount: 100},
		{Kind: models.TransferKindStakeReturn, Amount: 100, Delegated: true},
		{Kind: models.TransferKindPayout, Amount: 100, Delegated: true},
	}
	for _, leg := range legs {
		transactionalBus.Publish(leg)
	}

	err := transactionalBus.Flush(context.Background())
	assert.NoError(t, err)

	wg.Wait()

	kinds := make(map[models.TransferKind]bool)
	for i := 0; i < 3; i++ {
		select {
		case event := <-eventsReceived:
			kinds[event.Kind] = true
		case <-time.After(2 * time.Second):
			t.Fatalf("Only received %d out of 3 events", len(kinds))
		}
	}

	// Order may vary due to goroutines
	assert.True(t, kinds[models.TransferKindStake])
	assert.True(t, kinds[models.TransferKindStakeReturn])
	assert.True(t, kinds[models.TransferKindPayout])
}

// TestTransactionalBusDiscard tests that discarded events are not delivered
func TestTransactionalBusDiscard(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	eventReceived := make(chan bool, 1)

	mainBus.Subscribe(EventTypeBetPlaced, func(ctx context.Context, event Event) {
		eventReceived <- true
	})

	transactionalBus.Publish(BetPlacedEvent{Bet: models.BetRecord{Amount: 100}})

	// Rollback path
	transactionalBus.Discard()

	select {
	case <-eventReceived:
		t.Fatal("Event was received despite being discarded")
	case <-time.After(100 * time.Millisecond):
	}
}

// TestSubscribeAll tests one handler receiving several event types
func TestSubscribeAll(t *testing.T) {
	bus := NewBus()

	received := make(chan EventType, 2)
	bus.SubscribeAll(func(ctx context.Context, event Event) {
		received <- event.Type()
	}, EventTypeHouseDeposited, EventTypeHouseWithdrawn)

	bus.Emit(context.Background(), HouseDepositedEvent{Amount: 10})
	bus.Emit(context.Background(), HouseWithdrawnEvent{Amount: 5})

	seen := make(map[EventType]bool)
	for i := 0; i < 2; i++ {
		select {
		case eventType := <-received:
			seen[eventType] = true
		case <-time.After(2 * time.Second):
			t.Fatal("Event was not received within timeout")
		}
	}
	assert.True(t, seen[EventTypeHouseDeposited])
	assert.True(t, seen[EventTypeHouseWithdrawn])
}

// TestPanickingHandler tests that a panicking handler does not affect others
func TestPanickingHandler(t *testing.T) {
	bus := NewBus()

	done := make(chan struct{})
	bus.Subscribe(EventTypeHouseInitialized, func(ctx context.Context, event Event) {
		panic("boom")
	})
	bus.Subscribe(EventTypeHouseInitialized, func(ctx context.Context, event Event) {
		close(done)
	})

	bus.Emit(context.Background(), HouseInitializedEvent{})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Healthy handler was not called")
	}
}
