package realtime

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jarboard/backend/internal/logger"
)

func mustTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(log.Sync)
	return log
}

func testEvent(table Table, userID uuid.UUID) ChangeEvent {
	return ChangeEvent{
		Table:     table,
		Operation: OpUpdate,
		UserID:    userID,
		EntityID:  uuid.New(),
		Timestamp: time.Now().UTC(),
	}
}

func TestBusDeliversOnGlobalAndTableTopics(t *testing.T) {
	bus := NewBus(mustTestLogger(t))
	userID := uuid.New()

	var global, todoOnly, jarOnly int
	bus.Subscribe(TopicAll, func(ChangeEvent) { global++ })
	bus.Subscribe(TopicFor(TableTodo), func(ChangeEvent) { todoOnly++ })
	bus.Subscribe(TopicFor(TableJar), func(ChangeEvent) { jarOnly++ })

	bus.Publish(testEvent(TableTodo, userID))
	bus.Publish(testEvent(TableTodo, userID))
	bus.Publish(testEvent(TableNote, userID))

	if global != 3 {
		t.Fatalf("global handler: want 3 got %d", global)
	}
	if todoOnly != 2 {
		t.Fatalf("todo handler: want 2 got %d", todoOnly)
	}
	if jarOnly != 0 {
		t.Fatalf("jar handler: want 0 got %d", jarOnly)
	}
}

func TestBusUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus(mustTestLogger(t))

	var calls int
	unsub := bus.Subscribe(TopicAll, func(ChangeEvent) { calls++ })
	bus.Publish(testEvent(TableTodo, uuid.New()))
	unsub()
	unsub() // idempotent
	bus.Publish(testEvent(TableTodo, uuid.New()))

	if calls != 1 {
		t.Fatalf("want 1 delivery before unsubscribe, got %d", calls)
	}
}

func TestBusLateSubscriberSeesNothingEarlier(t *testing.T) {
	bus := NewBus(mustTestLogger(t))
	bus.Publish(testEvent(TableJar, uuid.New()))

	var calls int
	bus.Subscribe(TopicAll, func(ChangeEvent) { calls++ })
	if calls != 0 {
		t.Fatalf("late subscriber must not replay, got %d deliveries", calls)
	}
}

func TestBusUnsubscribeDuringPublishIsSafe(t *testing.T) {
	bus := NewBus(mustTestLogger(t))

	var unsubOther func()
	var otherCalls int
	bus.Subscribe(TopicAll, func(ChangeEvent) {
		// Handler tearing down a different subscription mid-fan-out must not
		// skip or double-notify anyone in this publish.
		if unsubOther != nil {
			unsubOther()
		}
	})
	unsubOther = bus.Subscribe(TopicAll, func(ChangeEvent) { otherCalls++ })

	bus.Publish(testEvent(TableTag, uuid.New()))
	if otherCalls != 1 {
		t.Fatalf("snapshot fan-out: want exactly 1 delivery, got %d", otherCalls)
	}

	bus.Publish(testEvent(TableTag, uuid.New()))
	if otherCalls != 1 {
		t.Fatalf("after unsubscribe: want no further deliveries, got %d", otherCalls)
	}
}
