package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Emitter receives factory events. Emission happens after the operation's
// effects are committed; emitters must not fail the operation.
type Emitter interface {
	Emit(ctx context.Context, event Event)
}

// NewBase stamps the shared event fields
func NewBase(factory string, at time.Time) Base {
	return Base{
		ID:      uuid.NewString(),
		Factory: factory,
		At:      at,
	}
}

// Recorder keeps every emitted event in memory, in emission order. It backs
// the /events API endpoint and test assertions.
type Recorder struct {
	mu     sync.RWMutex
	events []Event
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Emit appends the event
func (r *Recorder) Emit(ctx context.Context, event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns all recorded events in order
func (r *Recorder) Events() []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// ByFactory returns recorded events for one factory, in order
func (r *Recorder) ByFactory(factory string) []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Event
	for _, e := range r.events {
		if e.EventFactory() == factory {
			out = append(out, e)
		}
	}
	return out
}

// Slog logs each event as a structured log line
type Slog struct{}

// Emit logs the event
func (Slog) Emit(ctx context.Context, event Event) {
	slog.Info("factory event",
		"type", event.EventType(),
		"factory", event.EventFactory(),
		"at", event.OccurredAt(),
	)
}

// Multi fans out to several emitters in order
type Multi []Emitter

// Emit forwards the event to every emitter
func (m Multi) Emit(ctx context.Context, event Event) {
	for _, e := range m {
		e.Emit(ctx, event)
	}
}
