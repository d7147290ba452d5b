package realtime

import (
	"context"
	"sync"

	"github.com/jarboard/backend/internal/logger"
)

// Handler receives a published event. Handlers run synchronously inside
// Publish and must only enqueue and return; a slow handler delays the
// publisher.
type Handler func(ev ChangeEvent)

// Bus is the in-process fan-out hub. Best-effort: no persistence, no replay;
// a handler registered after a publish never sees that event. Every event is
// delivered under both the global topic and its table topic.
type Bus struct {
	mu     sync.RWMutex
	log    *logger.Logger
	nextID uint64
	topics map[string]map[uint64]Handler
}

func NewBus(log *logger.Logger) *Bus {
	return &Bus{
		log:    log.With("component", "ChangeBus"),
		topics: make(map[string]map[uint64]Handler),
	}
}

// Subscribe registers a handler on a topic and returns its unsubscribe
// function. Unsubscribing twice is a no-op.
func (b *Bus) Subscribe(topic string, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	handlers, ok := b.topics[topic]
	if !ok {
		handlers = make(map[uint64]Handler)
		b.topics[topic] = handlers
	}
	handlers[id] = h

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if handlers, ok := b.topics[topic]; ok {
			delete(handlers, id)
			if len(handlers) == 0 {
				delete(b.topics, topic)
			}
		}
	}
}

// Publish fans ev out to the global topic and the event's table topic.
// Handlers are invoked from a snapshot, so a handler that unsubscribes (or a
// new subscriber that registers) mid-publish neither skips nor double-fires.
func (b *Bus) Publish(ev ChangeEvent) {
	b.mu.RLock()
	snapshot := make([]Handler, 0, 8)
	for _, topic := range []string{TopicAll, TopicFor(ev.Table)} {
		for _, h := range b.topics[topic] {
			snapshot = append(snapshot, h)
		}
	}
	b.mu.RUnlock()

	for _, h := range snapshot {
		h(ev)
	}
}

// PublishChange makes the bus usable as the listener's Publisher directly
// when no cross-instance relay is configured.
func (b *Bus) PublishChange(_ context.Context, ev ChangeEvent) error {
	b.Publish(ev)
	return nil
}
