package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakeConn struct {
	payloads chan string
	fail     chan struct{}
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		payloads: make(chan string, 16),
		fail:     make(chan struct{}),
	}
}

func (c *fakeConn) WaitForNotification(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-c.fail:
		return "", errors.New("connection lost")
	case p := <-c.payloads:
		return p, nil
	}
}

func (c *fakeConn) Close(context.Context) error { return nil }

type capturingBus struct {
	mu     sync.Mutex
	events []ChangeEvent
	wake   chan struct{}
}

func newCapturingBus() *capturingBus {
	return &capturingBus{wake: make(chan struct{}, 16)}
}

func (b *capturingBus) PublishChange(_ context.Context, ev ChangeEvent) error {
	b.mu.Lock()
	b.events = append(b.events, ev)
	b.mu.Unlock()
	select {
	case b.wake <- struct{}{}:
	default:
	}
	return nil
}

func (b *capturingBus) waitForCount(t *testing.T, n int, timeout time.Duration) []ChangeEvent {
	t.Helper()
	deadline := time.After(timeout)
	for {
		b.mu.Lock()
		if len(b.events) >= n {
			out := append([]ChangeEvent(nil), b.events...)
			b.mu.Unlock()
			return out
		}
		b.mu.Unlock()
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for %d published events", n)
		case <-b.wake:
		}
	}
}

func changePayload(table string, userID, entityID uuid.UUID) string {
	raw, _ := json.Marshal(map[string]any{
		"table":     table,
		"operation": "INSERT",
		"user_id":   userID,
		"id":        entityID,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
	return string(raw)
}

func waitForState(t *testing.T, l *Listener, want ListenerState, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if l.State() == want {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("listener never reached state %s (currently %s)", want, l.State())
}

func TestListenerPublishesParsedEvents(t *testing.T) {
	conn := newFakeConn()
	bus := newCapturingBus()
	l := NewListener(mustTestLogger(t), func(context.Context) (NotifyConn, error) {
		return conn, nil
	}, bus)
	l.backoff = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	waitForState(t, l, StateListening, time.Second)

	userID := uuid.New()
	first := uuid.New()
	second := uuid.New()
	conn.payloads <- changePayload("todo", userID, first)
	conn.payloads <- changePayload("jar", userID, second)

	events := bus.waitForCount(t, 2, time.Second)
	if events[0].EntityID != first || events[0].Table != TableTodo {
		t.Fatalf("first event: %+v", events[0])
	}
	if events[1].EntityID != second || events[1].Table != TableJar {
		t.Fatalf("second event: %+v", events[1])
	}
}

func TestListenerDropsMalformedPayloads(t *testing.T) {
	conn := newFakeConn()
	bus := newCapturingBus()
	l := NewListener(mustTestLogger(t), func(context.Context) (NotifyConn, error) {
		return conn, nil
	}, bus)
	l.backoff = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)
	waitForState(t, l, StateListening, time.Second)

	good := uuid.New()
	conn.payloads <- "{not json"
	conn.payloads <- changePayload("spreadsheet", uuid.New(), uuid.New()) // unknown table
	conn.payloads <- changePayload("note", uuid.New(), good)

	events := bus.waitForCount(t, 1, time.Second)
	if len(events) != 1 || events[0].EntityID != good {
		t.Fatalf("want only the well-formed event, got %+v", events)
	}
}

func TestListenerReconnectsAfterConnectionLoss(t *testing.T) {
	bus := newCapturingBus()

	var mu sync.Mutex
	var conns []*fakeConn
	connect := func(context.Context) (NotifyConn, error) {
		mu.Lock()
		defer mu.Unlock()
		c := newFakeConn()
		conns = append(conns, c)
		return c, nil
	}

	l := NewListener(mustTestLogger(t), connect, bus)
	l.backoff = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)
	waitForState(t, l, StateListening, time.Second)

	mu.Lock()
	firstConn := conns[0]
	mu.Unlock()
	close(firstConn.fail)

	// The listener still reports LISTENING for the dropped connection until
	// the receive loop notices, so wait on the second dial itself.
	var secondConn *fakeConn
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		if len(conns) >= 2 {
			secondConn = conns[len(conns)-1]
		}
		mu.Unlock()
		if secondConn != nil {
			break
		}
		time.Sleep(2 * time.Millisecond)
	}
	if secondConn == nil {
		mu.Lock()
		dials := len(conns)
		mu.Unlock()
		t.Fatalf("want a fresh connection after loss, got %d dials", dials)
	}
	waitForState(t, l, StateListening, time.Second)

	resumed := uuid.New()
	secondConn.payloads <- changePayload("todo", uuid.New(), resumed)
	events := bus.waitForCount(t, 1, time.Second)
	if events[0].EntityID != resumed {
		t.Fatalf("want event published after reconnect, got %+v", events[0])
	}
}

func TestListenerRetriesFailedConnect(t *testing.T) {
	bus := newCapturingBus()
	var mu sync.Mutex
	attempts := 0
	conn := newFakeConn()
	connect := func(context.Context) (NotifyConn, error) {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts < 3 {
			return nil, fmt.Errorf("dial refused (attempt %d)", attempts)
		}
		return conn, nil
	}

	l := NewListener(mustTestLogger(t), connect, bus)
	l.backoff = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	waitForState(t, l, StateListening, time.Second)
	mu.Lock()
	got := attempts
	mu.Unlock()
	if got != 3 {
		t.Fatalf("want 3 connect attempts, got %d", got)
	}
}

func TestParseChangePayloadValidation(t *testing.T) {
	userID := uuid.New()
	entityID := uuid.New()

	ev, err := ParseChangePayload(changePayload("tag", userID, entityID))
	if err != nil {
		t.Fatalf("valid payload rejected: %v", err)
	}
	if ev.Table != TableTag || ev.Operation != OpInsert || ev.UserID != userID || ev.EntityID != entityID {
		t.Fatalf("parsed event mismatch: %+v", ev)
	}

	bad := []string{
		"",
		"null",
		`{"table":"todo","operation":"UPSERT","user_id":"` + userID.String() + `","id":"` + entityID.String() + `"}`,
		`{"table":"todo","operation":"INSERT","user_id":"` + userID.String() + `"}`,
	}
	for _, payload := range bad {
		if _, err := ParseChangePayload(payload); err == nil {
			t.Fatalf("payload %q should have been rejected", payload)
		}
	}
}
