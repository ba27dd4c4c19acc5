package models

import "time"

// DeploymentRecord is one entry in a factory's append-only deployment registry
type DeploymentRecord struct {
	// Identification
	Address string `json:"address"` // strkey contract address of the instance
	Kind    Kind   `json:"kind"`
	Owner   string `json:"owner"` // admin or owner the instance was created for

	// Deployment metadata
	CreatedAt time.Time `json:"created_at"`
	LedgerSeq uint32    `json:"ledger_seq"`

	// Optional descriptive fields (name/symbol for tokens, etc.)
	Metadata map[string]string `json:"metadata,omitempty"`
}

// FactoryState is the always-resident singleton state of one factory instance
type FactoryState struct {
	Admin        string            `json:"admin"`
	PendingAdmin string            `json:"pending_admin,omitempty"` // empty means none
	Paused       bool              `json:"paused"`
	Count        uint32            `json:"deployment_count"`
	OwnWasm      WasmHash          `json:"own_wasm,omitempty"` // factory's own executable template
	Catalog      map[Kind]WasmHash `json:"catalog"`
	Slots        map[Kind]string   `json:"slots,omitempty"` // master only: singleton instance per kind
}

// NewFactoryState initializes state for a freshly constructed factory
func NewFactoryState(admin string) FactoryState {
	return FactoryState{
		Admin:   admin,
		Catalog: make(map[Kind]WasmHash),
		Slots:   make(map[Kind]string),
	}
}

// Clone returns a deep copy so callers can mutate without aliasing stored state
func (s FactoryState) Clone() FactoryState {
	out := s
	out.Catalog = make(map[Kind]WasmHash, len(s.Catalog))
	for k, v := range s.Catalog {
		out.Catalog[k] = v
	}
	out.Slots = make(map[Kind]string, len(s.Slots))
	for k, v := range s.Slots {
		out.Slots[k] = v
	}
	return out
}
