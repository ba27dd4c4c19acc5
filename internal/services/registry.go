package services

import (
	"context"

	"factory/internal/events"
	"factory/internal/factory"
	"factory/internal/models"
)

// Registry owns the running factory engines and sits between the HTTP surface
// and the engines. Engines are registered once during startup; afterwards the
// registry is read-only and safe for concurrent use.
type Registry struct {
	engines  map[string]*factory.Engine
	order    []string
	recorder *events.Recorder
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{engines: make(map[string]*factory.Engine)}
}

// Add registers an engine under its factory name
func (r *Registry) Add(eng *factory.Engine) {
	if _, exists := r.engines[eng.Name()]; !exists {
		r.order = append(r.order, eng.Name())
	}
	r.engines[eng.Name()] = eng
}

// Get returns the engine registered under name
func (r *Registry) Get(name string) (*factory.Engine, bool) {
	eng, ok := r.engines[name]
	return eng, ok
}

// Names returns the registered factory names in registration order
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// SetRecorder attaches the event recorder backing the /events endpoint
func (r *Registry) SetRecorder(rec *events.Recorder) {
	r.recorder = rec
}

// Events returns recorded events, optionally filtered to one factory
func (r *Registry) Events(factoryName string) []events.Event {
	if r.recorder == nil {
		return nil
	}
	if factoryName == "" {
		return r.recorder.Events()
	}
	return r.recorder.ByFactory(factoryName)
}

// FactorySummary is the list-view projection of one factory
type FactorySummary struct {
	Name         string        `json:"name"`
	Family       models.Family `json:"family"`
	Address      string        `json:"address"`
	Admin        string        `json:"admin,omitempty"`
	PendingAdmin string        `json:"pending_admin,omitempty"`
	Paused       bool          `json:"paused"`
	Count        uint32        `json:"deployment_count"`
	Kinds        []models.Kind `json:"kinds"`
}

// Summarize builds the projection for one engine
func Summarize(eng *factory.Engine) FactorySummary {
	s := FactorySummary{
		Name:    eng.Name(),
		Family:  eng.Family(),
		Address: eng.Address(),
		Paused:  eng.IsPaused(),
		Count:   eng.Count(),
		Kinds:   eng.Kinds(),
	}
	if admin, err := eng.Admin(); err == nil {
		s.Admin = admin
	}
	if pending, ok := eng.PendingAdmin(); ok {
		s.PendingAdmin = pending
	}
	return s
}

// Summaries returns projections for every registered factory
func (r *Registry) Summaries(ctx context.Context) []FactorySummary {
	out := make([]FactorySummary, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, Summarize(r.engines[name]))
	}
	return out
}

// Slots returns the master factory's populated singleton slots
func Slots(eng *factory.Engine) map[models.Kind]string {
	out := make(map[models.Kind]string)
	for _, kind := range eng.Kinds() {
		if addr, ok := eng.Slot(kind); ok {
			out[kind] = addr
		}
	}
	return out
}
