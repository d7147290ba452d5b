package realtime

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func nextWithin(t *testing.T, s *Session, timeout time.Duration) ChangeEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	ev, err := s.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	return ev
}

func TestSessionFiltersByUserAndTable(t *testing.T) {
	bus := NewBus(mustTestLogger(t))
	userID := uuid.New()
	otherUser := uuid.New()

	s := NewSession(bus, userID, []Table{TableTodo})
	defer s.Close()

	bus.Publish(testEvent(TableTodo, otherUser)) // wrong user
	bus.Publish(testEvent(TableJar, userID))     // wrong table
	want := testEvent(TableTodo, userID)
	bus.Publish(want)

	got := nextWithin(t, s, time.Second)
	if got.UserID != userID || got.Table != TableTodo || got.EntityID != want.EntityID {
		t.Fatalf("filtered event mismatch: %+v", got)
	}

	// Nothing else should be buffered.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := s.Next(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want deadline exceeded on empty queue, got %v", err)
	}
}

func TestSessionBuffersBetweenNextCalls(t *testing.T) {
	bus := NewBus(mustTestLogger(t))
	userID := uuid.New()
	s := NewSession(bus, userID, []Table{TableTodo, TableNote})
	defer s.Close()

	events := []ChangeEvent{
		testEvent(TableTodo, userID),
		testEvent(TableNote, userID),
		testEvent(TableTodo, userID),
	}
	for _, ev := range events {
		bus.Publish(ev)
	}

	for i, want := range events {
		got := nextWithin(t, s, time.Second)
		if got.EntityID != want.EntityID {
			t.Fatalf("event %d out of order: want %s got %s", i, want.EntityID, got.EntityID)
		}
	}
}

func TestSessionCloseUnsubscribesAndWakesNext(t *testing.T) {
	bus := NewBus(mustTestLogger(t))
	userID := uuid.New()
	s := NewSession(bus, userID, []Table{TableTodo})

	errCh := make(chan error, 1)
	go func() {
		_, err := s.Next(context.Background())
		errCh <- err
	}()

	time.Sleep(10 * time.Millisecond)
	s.Close()
	s.Close() // idempotent

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrSessionClosed) {
			t.Fatalf("want ErrSessionClosed, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Next did not wake after Close")
	}

	// A publish after close must not reach the dead session.
	bus.Publish(testEvent(TableTodo, userID))
	if _, err := s.Next(context.Background()); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("closed session must stay closed, got %v", err)
	}
}

func TestSessionNextHonorsContextCancel(t *testing.T) {
	bus := NewBus(mustTestLogger(t))
	s := NewSession(bus, uuid.New(), []Table{TableTodo})
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	if _, err := s.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}
