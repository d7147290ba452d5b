package realtime

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrSessionClosed is returned by Next once the session has terminated.
var ErrSessionClosed = errors.New("subscription session closed")

// Session is one client's live filtered view onto the bus: a lazy,
// non-restartable sequence of ChangeEvents for (userID, tables). Events that
// arrive between two Next calls queue in an unbounded FIFO, so nothing is
// dropped to a slow consumer once the subscription exists.
type Session struct {
	ID     uuid.UUID
	userID uuid.UUID
	tables map[Table]struct{}

	mu     sync.Mutex
	queue  []ChangeEvent
	notify chan struct{}
	done   chan struct{}
	closed bool

	unsubscribe func()
}

// NewSession subscribes to the bus immediately. The caller owns the session
// and must Close it on every exit path so the bus subscription never leaks.
func NewSession(bus *Bus, userID uuid.UUID, tables []Table) *Session {
	s := &Session{
		ID:     uuid.New(),
		userID: userID,
		tables: make(map[Table]struct{}, len(tables)),
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	for _, t := range tables {
		s.tables[t] = struct{}{}
	}
	s.unsubscribe = bus.Subscribe(TopicAll, s.enqueue)
	return s
}

// enqueue runs inside Bus.Publish: filter, append, signal, return.
func (s *Session) enqueue(ev ChangeEvent) {
	if ev.UserID != s.userID {
		return
	}
	if _, ok := s.tables[ev.Table]; !ok {
		return
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, ev)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Next blocks until an event is available, the context is canceled, or the
// session is closed. Events come out in the order the bus delivered them.
func (s *Session) Next(ctx context.Context) (ChangeEvent, error) {
	for {
		s.mu.Lock()
		if len(s.queue) > 0 {
			ev := s.queue[0]
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return ev, nil
		}
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return ChangeEvent{}, ErrSessionClosed
		}

		select {
		case <-ctx.Done():
			return ChangeEvent{}, ctx.Err()
		case <-s.done:
			return ChangeEvent{}, ErrSessionClosed
		case <-s.notify:
		}
	}
}

// Close unsubscribes from the bus and wakes any blocked Next. Idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.unsubscribe()
	close(s.done)
}
