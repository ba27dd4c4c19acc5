package factory

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"factory/internal/auth"
	"factory/internal/deployer"
	"factory/internal/events"
	"factory/internal/ledger"
	"factory/internal/metrics"
	"factory/internal/models"
	"factory/internal/storage"
)

// DefaultRateLimit is the maximum number of master-factory deployments
// allowed within one ledger window.
const DefaultRateLimit = 10

// Options configures one factory engine
type Options struct {
	// Name keys this factory's state, registry, salts and counters in storage
	Name string

	// Address is the factory's own contract address; instance addresses are
	// derived from it and the caller's salt
	Address string

	// Admin is the initial admin, used only when storage has no prior state
	// for this factory
	Admin string

	Spec FamilySpec

	Instance   storage.InstanceStore
	Persistent storage.PersistentStore
	Temporary  storage.TemporaryStore

	Deployer deployer.Deployer
	Auth     auth.Authorizer
	Clock    ledger.Clock
	Emitter  events.Emitter

	// RateLimit caps master deployments per ledger window; zero means
	// DefaultRateLimit. Ignored for non-master families.
	RateLimit uint32
}

// Engine runs the shared deployment pipeline for one factory. The per-family
// differences (kinds, validation, constructor arguments, master protections)
// come from the FamilySpec; everything else is common.
type Engine struct {
	name    string
	address string
	spec    FamilySpec

	instance   storage.InstanceStore
	persistent storage.PersistentStore
	temporary  storage.TemporaryStore

	deployer  deployer.Deployer
	auth      auth.Authorizer
	clock     ledger.Clock
	emitter   events.Emitter
	rateLimit uint32

	// mu protects the cached state. It is never held across the
	// instantiation call; the master's deployGuard covers that span instead,
	// so a reentrant callback fails with ErrReentrancy rather than
	// deadlocking.
	mu    sync.Mutex
	state models.FactoryState
	guard deployGuard
}

// New constructs an engine, loading prior state from storage or initializing
// fresh state with the configured admin.
func New(ctx context.Context, opts Options) (*Engine, error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("factory name is required")
	}
	if opts.Address == "" {
		return nil, fmt.Errorf("factory address is required")
	}
	if opts.Spec.Validate == nil || opts.Spec.BuildArgs == nil {
		return nil, fmt.Errorf("family spec is incomplete")
	}
	if opts.Instance == nil || opts.Persistent == nil || opts.Temporary == nil {
		return nil, fmt.Errorf("all three storage tiers are required")
	}
	if opts.Deployer == nil {
		return nil, fmt.Errorf("deployer is required")
	}
	if opts.Auth == nil {
		opts.Auth = auth.AllowAll{}
	}
	if opts.Clock == nil {
		return nil, fmt.Errorf("ledger clock is required")
	}
	if opts.Emitter == nil {
		opts.Emitter = events.Slog{}
	}
	if opts.RateLimit == 0 {
		opts.RateLimit = DefaultRateLimit
	}

	state, found, err := opts.Instance.GetState(ctx, opts.Name)
	if err != nil {
		return nil, fmt.Errorf("loading state for %s: %w", opts.Name, err)
	}
	if !found {
		if opts.Admin == "" {
			return nil, fmt.Errorf("admin is required to initialize factory %s", opts.Name)
		}
		state = models.NewFactoryState(opts.Admin)
		if err := opts.Instance.PutState(ctx, opts.Name, state); err != nil {
			return nil, fmt.Errorf("initializing state for %s: %w", opts.Name, err)
		}
	}

	e := &Engine{
		name:       opts.Name,
		address:    opts.Address,
		spec:       opts.Spec,
		instance:   opts.Instance,
		persistent: opts.Persistent,
		temporary:  opts.Temporary,
		deployer:   opts.Deployer,
		auth:       opts.Auth,
		clock:      opts.Clock,
		emitter:    opts.Emitter,
		rateLimit:  opts.RateLimit,
		state:      state,
	}

	metrics.DeploymentCount.WithLabelValues(e.name).Set(float64(state.Count))
	metrics.PausedState.WithLabelValues(e.name).Set(boolGauge(state.Paused))
	return e, nil
}

// Deploy runs the full pipeline for one deployment request and returns the
// new instance's contract address. Every check runs before instantiation, and
// all bookkeeping commits only after instantiation succeeds.
func (e *Engine) Deploy(ctx context.Context, from string, cfg models.DeploymentConfig) (string, error) {
	start := time.Now()

	addr, err := e.deploy(ctx, from, cfg)
	if err != nil {
		metrics.DeployFailuresTotal.WithLabelValues(e.name, failureReason(err)).Inc()
		return "", err
	}

	metrics.DeploymentsTotal.WithLabelValues(e.name, string(cfg.TemplateKind())).Inc()
	metrics.DeployDuration.WithLabelValues(e.name).Observe(time.Since(start).Seconds())
	return addr, nil
}

func (e *Engine) deploy(ctx context.Context, from string, cfg models.DeploymentConfig) (string, error) {
	if err := e.auth.RequireAuth(ctx, from); err != nil {
		return "", err
	}

	kind := cfg.TemplateKind()
	if !e.spec.validKind(kind) {
		return "", validationErr(CodeInvalidKind, "kind %q is not deployable by the %s factory", kind, e.spec.Family)
	}

	e.mu.Lock()
	if e.spec.Master && e.state.Admin != from {
		e.mu.Unlock()
		return "", ErrNotAdmin
	}
	if e.state.Paused {
		e.mu.Unlock()
		return "", ErrPaused
	}
	e.mu.Unlock()

	if e.spec.Master {
		release, err := e.guard.acquire()
		if err != nil {
			return "", err
		}
		defer release()
	}

	window, err := e.clock.Sequence(ctx)
	if err != nil {
		return "", fmt.Errorf("reading ledger sequence: %w", err)
	}

	salt := cfg.DeploySalt()
	if e.spec.Master {
		used, err := e.temporary.WindowCount(ctx, e.name, window)
		if err != nil {
			return "", fmt.Errorf("reading rate window: %w", err)
		}
		if used >= e.rateLimit {
			return "", ErrRateLimited
		}

		seen, err := e.persistent.HasSalt(ctx, e.name, salt)
		if err != nil {
			return "", fmt.Errorf("checking salt: %w", err)
		}
		if seen {
			return "", ErrDuplicateSalt
		}
	}

	e.mu.Lock()
	if e.spec.Master {
		if _, occupied := e.state.Slots[kind]; occupied {
			e.mu.Unlock()
			return "", ErrAlreadyDeployed
		}
	}
	wasm := e.state.Catalog[kind]
	count := e.state.Count
	e.mu.Unlock()

	if wasm.IsZero() {
		return "", fmt.Errorf("%w: %s", ErrWasmNotSet, kind)
	}
	if count == math.MaxUint32 {
		return "", ErrCounterOverflow
	}

	if err := e.spec.Validate(cfg); err != nil {
		return "", err
	}
	args, err := e.spec.BuildArgs(from, cfg)
	if err != nil {
		return "", err
	}

	// The external call. No engine lock is held here; a callback that
	// reenters Deploy on the master hits the guard above.
	addr, err := e.deployer.Deploy(ctx, e.address, salt, wasm, args)
	if err != nil {
		return "", fmt.Errorf("instantiating %s: %w", kind, err)
	}

	if err := e.commit(ctx, from, cfg, addr, window); err != nil {
		// The instance exists on the network but the registry missed it;
		// surface loudly so the operator can reconcile.
		slog.Error("deployment bookkeeping failed after instantiation",
			"factory", e.name, "kind", kind, "address", addr, "error", err)
		return "", err
	}

	meta := cfg.RecordMetadata()
	e.emitter.Emit(ctx, events.Deployed{
		Base:     events.NewBase(e.name, e.clock.Now()),
		Kind:     kind,
		Address:  addr,
		Deployer: from,
		Name:     meta["name"],
		Symbol:   meta["symbol"],
	})
	return addr, nil
}

// commit records a successful instantiation: salt, rate counter, singleton
// slot, registry entry and deployment counter, then the state snapshot.
func (e *Engine) commit(ctx context.Context, from string, cfg models.DeploymentConfig, addr string, window uint32) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := e.state.Clone()
	if st.Count == math.MaxUint32 {
		return ErrCounterOverflow
	}

	kind := cfg.TemplateKind()
	if e.spec.Master {
		if err := e.persistent.MarkSalt(ctx, e.name, cfg.DeploySalt()); err != nil {
			return fmt.Errorf("marking salt: %w", err)
		}
		used, err := e.temporary.IncrWindow(ctx, e.name, window)
		if err != nil {
			return fmt.Errorf("incrementing rate window: %w", err)
		}
		metrics.RateWindowUsage.WithLabelValues(e.name).Set(float64(used))
		st.Slots[kind] = addr
	}

	rec := models.DeploymentRecord{
		Address:   addr,
		Kind:      kind,
		Owner:     cfg.RecordOwner(from),
		CreatedAt: e.clock.Now(),
		LedgerSeq: window,
		Metadata:  cfg.RecordMetadata(),
	}
	if err := e.instance.AppendRecord(ctx, e.name, rec); err != nil {
		return fmt.Errorf("appending deployment record: %w", err)
	}

	st.Count++
	if err := e.instance.PutState(ctx, e.name, st); err != nil {
		return fmt.Errorf("persisting state: %w", err)
	}
	e.state = st
	metrics.DeploymentCount.WithLabelValues(e.name).Set(float64(st.Count))
	return nil
}

// Name returns the factory's registry key
func (e *Engine) Name() string { return e.name }

// Address returns the factory's own contract address
func (e *Engine) Address() string { return e.address }

// Family returns the factory's template family
func (e *Engine) Family() models.Family { return e.spec.Family }

// Kinds returns the template kinds this factory can deploy
func (e *Engine) Kinds() []models.Kind { return models.FamilyKinds(e.spec.Family) }

// Admin returns the current admin, or ErrAdminNotSet
func (e *Engine) Admin() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Admin == "" {
		return "", ErrAdminNotSet
	}
	return e.state.Admin, nil
}

// PendingAdmin returns the pending admin of an in-flight transfer, if any
func (e *Engine) PendingAdmin() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.PendingAdmin, e.state.PendingAdmin != ""
}

// IsPaused reports whether deployments are suspended
func (e *Engine) IsPaused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Paused
}

// Count returns the number of deployments this factory has performed
func (e *Engine) Count() uint32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Count
}

// OwnWasm returns the factory's own executable template hash
func (e *Engine) OwnWasm() models.WasmHash {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.OwnWasm
}

// Wasm returns the registered template hash for a kind, or ErrWasmNotSet
func (e *Engine) Wasm(kind models.Kind) (models.WasmHash, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	h := e.state.Catalog[kind]
	if h.IsZero() {
		return models.WasmHash{}, fmt.Errorf("%w: %s", ErrWasmNotSet, kind)
	}
	return h, nil
}

// Slot returns the singleton instance address deployed for a kind, if any.
// Only the master factory populates slots.
func (e *Engine) Slot(kind models.Kind) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	addr, ok := e.state.Slots[kind]
	return addr, ok
}

// Deployed returns the full deployment registry in append order
func (e *Engine) Deployed(ctx context.Context) ([]models.DeploymentRecord, error) {
	return e.instance.Records(ctx, e.name)
}

// ByKind returns the registry entries for one template kind, in append order
func (e *Engine) ByKind(ctx context.Context, kind models.Kind) ([]models.DeploymentRecord, error) {
	recs, err := e.instance.Records(ctx, e.name)
	if err != nil {
		return nil, err
	}
	var out []models.DeploymentRecord
	for _, r := range recs {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out, nil
}

// ByOwner returns the registry entries recorded for one owner, in append order
func (e *Engine) ByOwner(ctx context.Context, owner string) ([]models.DeploymentRecord, error) {
	recs, err := e.instance.Records(ctx, e.name)
	if err != nil {
		return nil, err
	}
	var out []models.DeploymentRecord
	for _, r := range recs {
		if r.Owner == owner {
			out = append(out, r)
		}
	}
	return out, nil
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
