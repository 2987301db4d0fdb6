package events

import "sync"

// Handler consumes one published event.
type Handler func(Event)

// Bus is a typed publish/subscribe registry keyed by event type. Dispatch
// is synchronous and runs handlers in registration order, so a publisher
// observes all handler side effects before its Publish call returns.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Type][]Handler
	closed   bool
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[Type][]Handler),
	}
}

// Subscribe registers h for events of type t. Handlers cannot be removed
// individually; Reset drops them all.
func (b *Bus) Subscribe(t Type, h Handler) {
	if h == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[t] = append(b.handlers[t], h)
}

// SubscribeAll registers h for every event type.
func (b *Bus) SubscribeAll(h Handler) {
	for _, t := range Types {
		b.Subscribe(t, h)
	}
}

// Publish delivers ev to every handler registered for its type, in
// registration order. Publishing on a closed bus returns ErrBusClosed.
func (b *Bus) Publish(ev Event) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrBusClosed
	}
	hs := b.handlers[ev.Type]
	b.mu.RUnlock()

	for _, h := range hs {
		h(ev)
	}
	return nil
}

// Reset drops all registered handlers and reopens the bus.
func (b *Bus) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = make(map[Type][]Handler)
	b.closed = false
}

// Close stops further publishing. Registered handlers are kept so a
// Reset-free restart is intentional, not accidental.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
}
