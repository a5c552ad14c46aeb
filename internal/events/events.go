// Package events is the fire-and-forget event port the engine publishes
// lifecycle changes on.
package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Wildcard subscribes a handler to every event name.
const Wildcard = "*"

// Payload carries the event data.
type Payload map[string]any

// Event is the envelope delivered to subscribers.
type Event struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    Payload   `json:"payload"`
}

// Publisher triggers events. Trigger never fails the caller: delivery
// problems are the publisher's to log.
type Publisher interface {
	Trigger(ctx context.Context, name string, payload Payload)
}

// Handler receives one event.
type Handler func(ctx context.Context, e Event) error

// Bus dispatches events synchronously to in-process subscribers.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   *slog.Logger
	now      func() time.Time
}

// NewBus creates a bus. If logger is nil, a discard logger is used.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Bus{
		handlers: make(map[string][]Handler),
		logger:   logger,
		now:      time.Now,
	}
}

// Subscribe registers h for name, or for every event when name is Wildcard.
func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], h)
}

// Trigger delivers the event to the handlers of name, then to wildcard
// handlers. Handler errors and panics are logged and swallowed.
func (b *Bus) Trigger(ctx context.Context, name string, payload Payload) {
	e := Event{
		ID:         uuid.NewString(),
		Name:       name,
		OccurredAt: b.now().UTC(),
		Payload:    payload,
	}

	b.mu.RLock()
	hs := make([]Handler, 0, len(b.handlers[name])+len(b.handlers[Wildcard]))
	hs = append(hs, b.handlers[name]...)
	hs = append(hs, b.handlers[Wildcard]...)
	b.mu.RUnlock()

	for _, h := range hs {
		if err := b.call(ctx, h, e); err != nil {
			b.logger.Warn("event subscriber failed",
				slog.String("event", name),
				slog.String("event_id", e.ID),
				slog.String("error", err.Error()))
		}
	}
}

func (b *Bus) call(ctx context.Context, h Handler, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return h(ctx, e)
}

// Noop discards every event.
type Noop struct{}

// Trigger does nothing.
func (Noop) Trigger(context.Context, string, Payload) {}

// LogPublisher writes every event to a logger at info level.
type LogPublisher struct {
	Logger *slog.Logger
}

// Trigger logs the event.
func (p LogPublisher) Trigger(ctx context.Context, name string, payload Payload) {
	if p.Logger == nil {
		return
	}
	attrs := make([]any, 0, len(payload)+1)
	attrs = append(attrs, slog.String("event", name))
	for k, v := range payload {
		attrs = append(attrs, slog.Any(k, v))
	}
	p.Logger.InfoContext(ctx, "event", attrs...)
}

// Recorder keeps every triggered event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Trigger records the event.
func (r *Recorder) Trigger(_ context.Context, name string, payload Payload) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{
		ID:         uuid.NewString(),
		Name:       name,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	})
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Names returns the recorded event names in order.
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Name
	}
	return out
}

// Reset forgets the recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// Multi fans an event out to several publishers.
type Multi []Publisher

// Trigger forwards to each publisher in order.
func (m Multi) Trigger(ctx context.Context, name string, payload Payload) {
	for _, p := range m {
		p.Trigger(ctx, name, payload)
	}
}

var (
	_ Publisher = (*Bus)(nil)
	_ Publisher = Noop{}
	_ Publisher = LogPublisher{}
	_ Publisher = (*Recorder)(nil)
	_ Publisher = Multi(nil)
)
