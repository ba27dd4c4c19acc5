package retry

import (
	"context"
	"time"
)

// Strategy wraps transient-failure handling around calls to the Soroban RPC
// endpoint. Engine-level failures are never retried here; retries only cover
// the transport between the service and the network.
type Strategy interface {
	// Execute runs the operation with the configured retry behavior
	Execute(ctx context.Context, operation Operation) error
}

// Operation is a function that can be retried
type Operation func() error

// Config holds retry tuning
type Config struct {
	Enabled      bool
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultConfig returns conservative retry tuning for RPC calls
func DefaultConfig() Config {
	return Config{
		Enabled:      true,
		MaxRetries:   5,
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
	}
}

// New creates a strategy from config
func New(config Config) Strategy {
	if !config.Enabled {
		return NewNoRetry()
	}
	return NewExponential(config.MaxRetries, config.InitialDelay, config.MaxDelay)
}
