package ledger

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"factory/internal/ledger/retry"

	rpcclient "github.com/stellar/go/clients/rpcclient"
)

// RPC reads the latest ledger sequence from a Soroban RPC endpoint. The
// sequence is cached briefly so a burst of deploys does not turn into a burst
// of health checks; one ledger closes roughly every 5 seconds anyway.
type RPC struct {
	client *rpcclient.Client
	retry  retry.Strategy

	mu        sync.Mutex
	cachedSeq uint32
	fetchedAt time.Time
	ttl       time.Duration
}

// NewRPC creates an RPC-backed clock for the given endpoint
func NewRPC(rpcServerURL string, strategy retry.Strategy) *RPC {
	if strategy == nil {
		strategy = retry.NewNoRetry()
	}
	return &RPC{
		client: rpcclient.NewClient(rpcServerURL, &http.Client{}),
		retry:  strategy,
		ttl:    2 * time.Second,
	}
}

// Sequence returns the latest closed ledger sequence
func (r *RPC) Sequence(ctx context.Context) (uint32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if time.Since(r.fetchedAt) < r.ttl && r.cachedSeq != 0 {
		return r.cachedSeq, nil
	}

	var seq uint32
	err := r.retry.Execute(ctx, func() error {
		health, err := r.client.GetHealth(ctx)
		if err != nil {
			return err
		}
		seq = health.LatestLedger
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get latest ledger: %w", err)
	}

	r.cachedSeq = seq
	r.fetchedAt = time.Now()
	return seq, nil
}

// Now returns the current wall time
func (r *RPC) Now() time.Time {
	return time.Now().UTC()
}
