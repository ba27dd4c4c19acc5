package api

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"factory/internal/auth"
	"factory/internal/factory"
)

// Mutating endpoints authenticate with shared-secret headers. The transport
// verifies the secret and attaches the proven identity to the request context;
// the engines re-check it through their authorizer.
const (
	headerIdentity = "X-Identity"
	headerSecret   = "X-Secret"
)

// mutating wraps a mutating handler with method, credential and identity
// checks, and passes the proven identity through
func (s *Server) mutating(
	w http.ResponseWriter,
	r *http.Request,
	eng *factory.Engine,
	handler func(http.ResponseWriter, *http.Request, *factory.Engine, string),
) {
	if r.Method != http.MethodPost {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	identity := r.Header.Get(headerIdentity)
	if identity == "" {
		s.sendError(w, "X-Identity header required", http.StatusUnauthorized)
		return
	}

	// With credentials configured, the secret must prove the identity
	if len(s.creds) > 0 && !s.creds.Verify(identity, r.Header.Get(headerSecret)) {
		s.sendError(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	r = r.WithContext(auth.WithProven(r.Context(), identity))
	handler(w, r, eng, identity)
}

// callerLimiter applies a per-caller token-bucket rate limit across the whole
// HTTP surface. Callers are keyed by identity header when present, otherwise
// by remote host.
type callerLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	rps      rate.Limit
	burst    int
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newCallerLimiter(rps float64, burst int) *callerLimiter {
	cl := &callerLimiter{
		limiters: make(map[string]*limiterEntry),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
	go cl.cleanup()
	return cl
}

func (cl *callerLimiter) get(key string) *rate.Limiter {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	entry, ok := cl.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(cl.rps, cl.burst)}
		cl.limiters[key] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

// cleanup drops limiters for callers idle longer than three minutes
func (cl *callerLimiter) cleanup() {
	for range time.Tick(time.Minute) {
		cl.mu.Lock()
		for key, entry := range cl.limiters {
			if time.Since(entry.lastSeen) > 3*time.Minute {
				delete(cl.limiters, key)
			}
		}
		cl.mu.Unlock()
	}
}

// wrap applies the rate limit in front of the mux
func (cl *callerLimiter) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(headerIdentity)
		if key == "" {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}
			key = host
		}

		if !cl.get(key).Allow() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"Too Many Requests","message":"rate limit exceeded","code":429}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}
