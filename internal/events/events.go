package events

import (
	"time"

	"factory/internal/models"
)

// Event is one append-only notification emitted by a factory. Every event
// carries the factory it came from, the acting identity where applicable,
// and the time it occurred.
type Event interface {
	EventType() string
	EventFactory() string
	OccurredAt() time.Time
}

// Base carries the fields shared by all events
type Base struct {
	ID      string    `json:"id"`
	Factory string    `json:"factory"`
	At      time.Time `json:"at"`
}

func (b Base) EventFactory() string  { return b.Factory }
func (b Base) OccurredAt() time.Time { return b.At }

// Deployed is emitted once per successful deployment
type Deployed struct {
	Base
	Kind     models.Kind `json:"kind"`
	Address  string      `json:"address"`
	Deployer string      `json:"deployer"`
	Name     string      `json:"name,omitempty"`
	Symbol   string      `json:"symbol,omitempty"`
}

func (Deployed) EventType() string { return "deployed" }

// WasmUpdated is emitted when a template catalog entry is set or overwritten
type WasmUpdated struct {
	Base
	Kind  models.Kind     `json:"kind"`
	Admin string          `json:"admin"`
	Wasm  models.WasmHash `json:"wasm"`
}

func (WasmUpdated) EventType() string { return "wasm_updated" }

// Paused is emitted when the admin pauses the factory
type Paused struct {
	Base
	Admin string `json:"admin"`
}

func (Paused) EventType() string { return "paused" }

// Unpaused is emitted when the admin unpauses the factory
type Unpaused struct {
	Base
	Admin string `json:"admin"`
}

func (Unpaused) EventType() string { return "unpaused" }

// Upgraded is emitted when the factory swaps its own executable template
type Upgraded struct {
	Base
	NewWasm models.WasmHash `json:"new_wasm"`
}

func (Upgraded) EventType() string { return "upgraded" }

// TransferInitiated is emitted on step 1 of an admin transfer
type TransferInitiated struct {
	Base
	NewAdmin string `json:"new_admin"`
}

func (TransferInitiated) EventType() string { return "admin_transfer_initiated" }

// TransferAccepted is emitted on step 2 of an admin transfer
type TransferAccepted struct {
	Base
	NewAdmin string `json:"new_admin"`
}

func (TransferAccepted) EventType() string { return "admin_transfer_accepted" }

// TransferCancelled is emitted when a pending transfer is cancelled
type TransferCancelled struct {
	Base
	Admin string `json:"admin"`
}

func (TransferCancelled) EventType() string { return "admin_transfer_cancelled" }
