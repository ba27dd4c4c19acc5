package factory

import "sync"

// deployGuard is the non-reentrant lock around the master factory's deploy
// pipeline. It is a guarded resource: acquired at entry, released on every
// exit path through the returned release func, so a failure partway through
// instantiation can never leave the flag stuck.
//
// Unlike a plain mutex, a second acquisition while held fails instead of
// blocking; an instantiation callback that reenters deploy must surface
// ErrReentrancy, not deadlock.
type deployGuard struct {
	mu   sync.Mutex
	held bool
}

// acquire takes the guard, failing with ErrReentrancy if it is already held.
// The returned release is idempotent and safe to defer.
func (g *deployGuard) acquire() (release func(), err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.held {
		return nil, ErrReentrancy
	}
	g.held = true

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			g.held = false
			g.mu.Unlock()
		})
	}, nil
}
