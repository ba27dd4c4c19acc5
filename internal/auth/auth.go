package auth

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotAuthorized is returned when a caller has not proven control of the
// identity an operation claims to act as
var ErrNotAuthorized = errors.New("caller has not proven control of identity")

// Authorizer asserts that the caller of the current invocation has proven
// control of the given address. A failed assertion fails the whole invocation
// before any state is touched.
type Authorizer interface {
	RequireAuth(ctx context.Context, identity string) error
}

type provenKey struct{}

// WithProven returns a context carrying identities whose control the
// transport layer has verified for this invocation
func WithProven(ctx context.Context, identities ...string) context.Context {
	set := make(map[string]bool, len(identities))
	for existing := range provenFrom(ctx) {
		set[existing] = true
	}
	for _, id := range identities {
		set[id] = true
	}
	return context.WithValue(ctx, provenKey{}, set)
}

func provenFrom(ctx context.Context) map[string]bool {
	set, _ := ctx.Value(provenKey{}).(map[string]bool)
	return set
}

// Proofs authorizes identities attached to the request context via
// WithProven. It is the engine-side half of credential checking: the
// transport verifies credentials and attaches proven identities, the engine
// only asserts membership.
type Proofs struct{}

// RequireAuth fails unless the context proves control of identity
func (Proofs) RequireAuth(ctx context.Context, identity string) error {
	if !provenFrom(ctx)[identity] {
		return fmt.Errorf("%w: %s", ErrNotAuthorized, identity)
	}
	return nil
}

// AllowAll authorizes every identity; for local runs and tests only
type AllowAll struct{}

func (AllowAll) RequireAuth(ctx context.Context, identity string) error { return nil }

// Credentials maps identities to shared secrets for the HTTP surface
type Credentials map[string]string

// Verify reports whether the presented secret proves control of identity
func (c Credentials) Verify(identity, secret string) bool {
	want, ok := c[identity]
	return ok && secret != "" && want == secret
}
