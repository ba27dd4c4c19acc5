package retry

import "context"

// NoRetry executes operations exactly once
type NoRetry struct{}

// NewNoRetry creates a strategy that never retries
func NewNoRetry() *NoRetry {
	return &NoRetry{}
}

// Execute runs the operation once
func (s *NoRetry) Execute(ctx context.Context, operation Operation) error {
	return operation()
}
