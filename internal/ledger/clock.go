package ledger

import (
	"context"
	"sync"
	"time"
)

// Clock reports the current ledger sequence, which the engine uses as the
// rate-limit window key, and the wall time recorded on deployment records.
// Ordering between operations is whatever the enclosing ledger gives us; the
// engine never assumes anything beyond "one operation finishes before the
// next starts".
type Clock interface {
	Sequence(ctx context.Context) (uint32, error)
	Now() time.Time
}

// Manual is a hand-advanced clock for tests and local runs
type Manual struct {
	mu  sync.Mutex
	seq uint32
}

// NewManual creates a manual clock starting at the given sequence
func NewManual(seq uint32) *Manual {
	return &Manual{seq: seq}
}

// Sequence returns the current sequence
func (m *Manual) Sequence(ctx context.Context) (uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seq, nil
}

// Advance moves the clock forward by n ledgers
func (m *Manual) Advance(n uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq += n
}

// Now returns the current wall time
func (m *Manual) Now() time.Time {
	return time.Now().UTC()
}

// Interval derives the sequence from wall time at a fixed cadence, so local
// runs without an RPC endpoint still get advancing windows.
type Interval struct {
	start   time.Time
	cadence time.Duration
}

// NewInterval creates a clock ticking one sequence per cadence. Stellar closes
// a ledger roughly every 5 seconds; pass that for network-like behavior.
func NewInterval(cadence time.Duration) *Interval {
	return &Interval{start: time.Now().UTC(), cadence: cadence}
}

// Sequence returns the number of cadence intervals elapsed since start
func (i *Interval) Sequence(ctx context.Context) (uint32, error) {
	return uint32(time.Since(i.start) / i.cadence), nil
}

// Now returns the current wall time
func (i *Interval) Now() time.Time {
	return time.Now().UTC()
}
