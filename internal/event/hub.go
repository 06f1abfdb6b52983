package event

import (
	"log/slog"
	"sync"
)

// Topics published by the engine. Consumers subscribe by name.
const (
	TopicOrderCreated   = "order-created"
	TopicOrderFilled    = "order-filled"
	TopicOrderCanceled  = "order-canceled"
	TopicOrderCleanedUp = "order-cleaned-up"
	TopicOrderRetried   = "order-retried"
	TopicOrdersUpdated  = "orders-updated"
	TopicSyncComplete   = "sync-complete"
	TopicConnectionErr  = "connection-error"
)

// Handler receives a published payload. Payloads are value copies; handlers
// must not assume they can mutate shared engine state through them.
type Handler func(payload interface{})

type subscriber struct {
	id uint64
	fn Handler
}

// Hub fans out engine notifications to registered consumers. Publish is
// synchronous and preserves registration order per topic. A panicking
// handler is isolated: it is logged and the remaining handlers still run.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string][]subscriber
	nextID uint64
}

// NewHub creates an empty subscription hub.
func NewHub() *Hub {
	return &Hub{
		subs: make(map[string][]subscriber),
	}
}

// Subscribe registers fn for topic and returns a token for Unsubscribe.
// Handlers cannot be compared in Go, so removal is by token rather than by
// the callback itself.
func (h *Hub) Subscribe(topic string, fn Handler) uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	h.subs[topic] = append(h.subs[topic], subscriber{id: h.nextID, fn: fn})
	return h.nextID
}

// Unsubscribe removes the subscription identified by token. Unknown tokens
// are a no-op.
func (h *Hub) Unsubscribe(topic string, token uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	list := h.subs[topic]
	for i, s := range list {
		if s.id == token {
			h.subs[topic] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// SubscriberCount returns the number of handlers registered for topic.
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[topic])
}

// Publish delivers payload to every handler registered for topic, in
// registration order, on the caller's goroutine.
func (h *Hub) Publish(topic string, payload interface{}) {
	h.mu.RLock()
	list := h.subs[topic]
	h.mu.RUnlock()

	for _, s := range list {
		h.safeCall(topic, s, payload)
	}
}

func (h *Hub) safeCall(topic string, s subscriber, payload interface{}) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Subscriber panic recovered",
				slog.String("topic", topic),
				slog.Uint64("token", s.id),
				slog.Any("panic", r))
		}
	}()
	s.fn(payload)
}
