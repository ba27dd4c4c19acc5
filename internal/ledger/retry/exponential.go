package retry

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Exponential retries recoverable failures with exponentially growing delays
type Exponential struct {
	maxRetries   int
	initialDelay time.Duration
	maxDelay     time.Duration
}

// NewExponential creates an exponential backoff strategy
func NewExponential(maxRetries int, initialDelay, maxDelay time.Duration) *Exponential {
	return &Exponential{
		maxRetries:   maxRetries,
		initialDelay: initialDelay,
		maxDelay:     maxDelay,
	}
}

// Execute runs the operation, retrying recoverable failures up to maxRetries
func (s *Exponential) Execute(ctx context.Context, operation Operation) error {
	var lastErr error
	delay := s.initialDelay

	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		err := operation()
		if err == nil {
			if attempt > 0 {
				slog.Info("RPC call succeeded after retry", "attempt", attempt+1)
			}
			return nil
		}

		lastErr = err

		if !isRecoverableError(err) {
			return err
		}
		if attempt >= s.maxRetries {
			break
		}

		slog.Warn("RPC call failed, retrying",
			"attempt", attempt+1,
			"max_attempts", s.maxRetries+1,
			"retry_in", delay,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled during retry: %w", ctx.Err())
		case <-time.After(delay):
			delay *= 2
			if delay > s.maxDelay {
				delay = s.maxDelay
			}
		}
	}

	return fmt.Errorf("operation failed after %d attempts: %w", s.maxRetries+1, lastErr)
}

// isRecoverableError reports whether the failure looks like a transient
// transport problem rather than a hard rejection
func isRecoverableError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())

	recoverablePatterns := []string{
		"connection reset by peer",
		"connection refused",
		"timeout",
		"temporary failure",
		"network is unreachable",
		"broken pipe",
		"i/o timeout",
		"eof",
		"tls handshake timeout",
		"no such host",
		"dial tcp",
	}

	for _, pattern := range recoverablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}
