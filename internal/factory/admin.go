package factory

import (
	"context"
	"fmt"

	"factory/internal/events"
	"factory/internal/metrics"
	"factory/internal/models"
)

// Admin operations. Each one authenticates the caller, checks it against the
// stored admin, persists the updated state, and emits exactly one event.

// SetWasm registers (or overwrites) the template hash for a kind
func (e *Engine) SetWasm(ctx context.Context, caller string, kind models.Kind, wasm models.WasmHash) error {
	if err := e.auth.RequireAuth(ctx, caller); err != nil {
		return err
	}
	if !e.spec.validKind(kind) {
		return validationErr(CodeInvalidKind, "kind %q is not deployable by the %s factory", kind, e.spec.Family)
	}
	if wasm.IsZero() {
		return fmt.Errorf("%w: zero hash for %s", ErrWasmNotSet, kind)
	}

	e.mu.Lock()
	if err := e.requireAdmin(caller); err != nil {
		e.mu.Unlock()
		return err
	}
	st := e.state.Clone()
	st.Catalog[kind] = wasm
	if err := e.instance.PutState(ctx, e.name, st); err != nil {
		e.mu.Unlock()
		return fmt.Errorf("persisting state: %w", err)
	}
	e.state = st
	e.mu.Unlock()

	metrics.AdminOpsTotal.WithLabelValues(e.name, "set_wasm").Inc()
	e.emitter.Emit(ctx, events.WasmUpdated{
		Base:  events.NewBase(e.name, e.clock.Now()),
		Kind:  kind,
		Admin: caller,
		Wasm:  wasm,
	})
	return nil
}

// Pause suspends deployments. Pausing an already-paused factory is allowed
// and still emits an event.
func (e *Engine) Pause(ctx context.Context, caller string) error {
	return e.setPaused(ctx, caller, true)
}

// Unpause resumes deployments
func (e *Engine) Unpause(ctx context.Context, caller string) error {
	return e.setPaused(ctx, caller, false)
}

func (e *Engine) setPaused(ctx context.Context, caller string, paused bool) error {
	if err := e.auth.RequireAuth(ctx, caller); err != nil {
		return err
	}

	e.mu.Lock()
	if err := e.requireAdmin(caller); err != nil {
		e.mu.Unlock()
		return err
	}
	st := e.state.Clone()
	st.Paused = paused
	if err := e.instance.PutState(ctx, e.name, st); err != nil {
		e.mu.Unlock()
		return fmt.Errorf("persisting state: %w", err)
	}
	e.state = st
	e.mu.Unlock()

	metrics.PausedState.WithLabelValues(e.name).Set(boolGauge(paused))
	base := events.NewBase(e.name, e.clock.Now())
	if paused {
		metrics.AdminOpsTotal.WithLabelValues(e.name, "pause").Inc()
		e.emitter.Emit(ctx, events.Paused{Base: base, Admin: caller})
	} else {
		metrics.AdminOpsTotal.WithLabelValues(e.name, "unpause").Inc()
		e.emitter.Emit(ctx, events.Unpaused{Base: base, Admin: caller})
	}
	return nil
}

// Upgrade swaps the factory's own executable template and pauses the factory,
// forcing an explicit unpause before deployments resume on the new code. The
// stored admin must authorize the call.
func (e *Engine) Upgrade(ctx context.Context, newWasm models.WasmHash) error {
	if newWasm.IsZero() {
		return fmt.Errorf("%w: zero upgrade hash", ErrWasmNotSet)
	}

	e.mu.Lock()
	admin := e.state.Admin
	e.mu.Unlock()
	if admin == "" {
		return ErrAdminNotSet
	}
	if err := e.auth.RequireAuth(ctx, admin); err != nil {
		return err
	}

	e.mu.Lock()
	st := e.state.Clone()
	st.OwnWasm = newWasm
	st.Paused = true
	if err := e.instance.PutState(ctx, e.name, st); err != nil {
		e.mu.Unlock()
		return fmt.Errorf("persisting state: %w", err)
	}
	e.state = st
	e.mu.Unlock()

	metrics.PausedState.WithLabelValues(e.name).Set(1)
	metrics.AdminOpsTotal.WithLabelValues(e.name, "upgrade").Inc()
	e.emitter.Emit(ctx, events.Upgraded{
		Base:    events.NewBase(e.name, e.clock.Now()),
		NewWasm: newWasm,
	})
	return nil
}

// InitiateTransfer starts a two-step admin handover. The current admin stays
// in charge until the new admin accepts; initiating again overwrites the
// pending candidate.
func (e *Engine) InitiateTransfer(ctx context.Context, caller, newAdmin string) error {
	if err := e.auth.RequireAuth(ctx, caller); err != nil {
		return err
	}
	if newAdmin == "" {
		return validationErr(CodeInvalidConfig, "new admin must not be empty")
	}

	e.mu.Lock()
	if err := e.requireAdmin(caller); err != nil {
		e.mu.Unlock()
		return err
	}
	st := e.state.Clone()
	st.PendingAdmin = newAdmin
	if err := e.instance.PutState(ctx, e.name, st); err != nil {
		e.mu.Unlock()
		return fmt.Errorf("persisting state: %w", err)
	}
	e.state = st
	e.mu.Unlock()

	metrics.AdminOpsTotal.WithLabelValues(e.name, "transfer_initiate").Inc()
	e.emitter.Emit(ctx, events.TransferInitiated{
		Base:     events.NewBase(e.name, e.clock.Now()),
		NewAdmin: newAdmin,
	})
	return nil
}

// AcceptTransfer completes a pending handover; only the pending admin may call
func (e *Engine) AcceptTransfer(ctx context.Context, caller string) error {
	if err := e.auth.RequireAuth(ctx, caller); err != nil {
		return err
	}

	e.mu.Lock()
	if e.state.PendingAdmin == "" {
		e.mu.Unlock()
		return ErrNoPendingAdmin
	}
	if e.state.PendingAdmin != caller {
		e.mu.Unlock()
		return ErrNotPendingAdmin
	}
	st := e.state.Clone()
	st.Admin = caller
	st.PendingAdmin = ""
	if err := e.instance.PutState(ctx, e.name, st); err != nil {
		e.mu.Unlock()
		return fmt.Errorf("persisting state: %w", err)
	}
	e.state = st
	e.mu.Unlock()

	metrics.AdminOpsTotal.WithLabelValues(e.name, "transfer_accept").Inc()
	e.emitter.Emit(ctx, events.TransferAccepted{
		Base:     events.NewBase(e.name, e.clock.Now()),
		NewAdmin: caller,
	})
	return nil
}

// CancelTransfer withdraws a pending handover; only the current admin may call
func (e *Engine) CancelTransfer(ctx context.Context, caller string) error {
	if err := e.auth.RequireAuth(ctx, caller); err != nil {
		return err
	}

	e.mu.Lock()
	if err := e.requireAdmin(caller); err != nil {
		e.mu.Unlock()
		return err
	}
	if e.state.PendingAdmin == "" {
		e.mu.Unlock()
		return ErrNoPendingAdmin
	}
	st := e.state.Clone()
	st.PendingAdmin = ""
	if err := e.instance.PutState(ctx, e.name, st); err != nil {
		e.mu.Unlock()
		return fmt.Errorf("persisting state: %w", err)
	}
	e.state = st
	e.mu.Unlock()

	metrics.AdminOpsTotal.WithLabelValues(e.name, "transfer_cancel").Inc()
	e.emitter.Emit(ctx, events.TransferCancelled{
		Base:  events.NewBase(e.name, e.clock.Now()),
		Admin: caller,
	})
	return nil
}

// requireAdmin checks the caller against stored admin; e.mu must be held
func (e *Engine) requireAdmin(caller string) error {
	if e.state.Admin == "" {
		return ErrAdminNotSet
	}
	if e.state.Admin != caller {
		return ErrNotAdmin
	}
	return nil
}
