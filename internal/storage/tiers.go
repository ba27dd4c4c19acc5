package storage

import (
	"context"

	"factory/internal/models"
)

// The factory engine persists through three retention tiers with different
// lifetime contracts, mirroring Soroban's instance/persistent/temporary
// contract-data durabilities.

// InstanceStore is the always-resident tier: the factory's singleton state and
// its append-only deployment registry live and die with the factory.
type InstanceStore interface {
	// GetState loads the factory state; found is false for a fresh factory
	GetState(ctx context.Context, factory string) (state models.FactoryState, found bool, err error)

	// PutState overwrites the factory state
	PutState(ctx context.Context, factory string, state models.FactoryState) error

	// AppendRecord appends one deployment record; records are never mutated
	// or removed afterwards
	AppendRecord(ctx context.Context, factory string, rec models.DeploymentRecord) error

	// Records returns the registry in append order
	Records(ctx context.Context, factory string) ([]models.DeploymentRecord, error)
}

// PersistentStore is the long-lived tier: consumed salts survive independently
// of the factory and are never pruned.
type PersistentStore interface {
	HasSalt(ctx context.Context, factory string, salt models.Salt) (bool, error)
	MarkSalt(ctx context.Context, factory string, salt models.Salt) error
}

// TemporaryStore is the expiring tier: per-window rate counters that the host
// may drop once their window has passed.
type TemporaryStore interface {
	// WindowCount returns the counter for the given window key
	WindowCount(ctx context.Context, factory string, window uint32) (uint32, error)

	// IncrWindow increments the counter for the given window key and returns
	// the new value; implementations evict counters from stale windows
	IncrWindow(ctx context.Context, factory string, window uint32) (uint32, error)
}
