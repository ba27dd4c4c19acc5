package factory

import (
	"errors"
	"testing"

	"factory/internal/events"
	"factory/internal/models"
)

func countEvents(r *events.Recorder, factory, eventType string) int {
	var n int
	for _, ev := range r.ByFactory(factory) {
		if ev.EventType() == eventType {
			n++
		}
	}
	return n
}

func TestAdminTransfer(t *testing.T) {
	f := newTokenFixture(t)

	if err := f.engine.InitiateTransfer(f.ctx, "admin", "new-admin"); err != nil {
		t.Fatalf("InitiateTransfer: %v", err)
	}
	if pending, ok := f.engine.PendingAdmin(); !ok || pending != "new-admin" {
		t.Errorf("PendingAdmin = %q, %v", pending, ok)
	}

	// The old admin stays in charge until the transfer is accepted
	if admin, err := f.engine.Admin(); err != nil || admin != "admin" {
		t.Errorf("Admin = %q, %v; want admin", admin, err)
	}

	if err := f.engine.AcceptTransfer(f.ctx, "new-admin"); err != nil {
		t.Fatalf("AcceptTransfer: %v", err)
	}
	if admin, err := f.engine.Admin(); err != nil || admin != "new-admin" {
		t.Errorf("Admin = %q, %v; want new-admin", admin, err)
	}
	if _, ok := f.engine.PendingAdmin(); ok {
		t.Error("pending admin not cleared after acceptance")
	}

	// The old admin has lost control
	if err := f.engine.Pause(f.ctx, "admin"); !errors.Is(err, ErrNotAdmin) {
		t.Errorf("old admin Pause err = %v, want ErrNotAdmin", err)
	}
	if err := f.engine.Pause(f.ctx, "new-admin"); err != nil {
		t.Errorf("new admin Pause: %v", err)
	}
}

func TestAdminTransferRejections(t *testing.T) {
	f := newTokenFixture(t)

	if err := f.engine.AcceptTransfer(f.ctx, "anyone"); !errors.Is(err, ErrNoPendingAdmin) {
		t.Errorf("accept with no transfer: err = %v, want ErrNoPendingAdmin", err)
	}
	if err := f.engine.CancelTransfer(f.ctx, "admin"); !errors.Is(err, ErrNoPendingAdmin) {
		t.Errorf("cancel with no transfer: err = %v, want ErrNoPendingAdmin", err)
	}
	if err := f.engine.InitiateTransfer(f.ctx, "mallory", "mallory"); !errors.Is(err, ErrNotAdmin) {
		t.Errorf("initiate by non-admin: err = %v, want ErrNotAdmin", err)
	}

	if err := f.engine.InitiateTransfer(f.ctx, "admin", "new-admin"); err != nil {
		t.Fatalf("InitiateTransfer: %v", err)
	}
	if err := f.engine.AcceptTransfer(f.ctx, "mallory"); !errors.Is(err, ErrNotPendingAdmin) {
		t.Errorf("accept by wrong identity: err = %v, want ErrNotPendingAdmin", err)
	}

	// Re-initiating overwrites the pending candidate
	if err := f.engine.InitiateTransfer(f.ctx, "admin", "other-admin"); err != nil {
		t.Fatalf("re-initiate: %v", err)
	}
	if pending, _ := f.engine.PendingAdmin(); pending != "other-admin" {
		t.Errorf("PendingAdmin = %q, want other-admin", pending)
	}

	if err := f.engine.CancelTransfer(f.ctx, "admin"); err != nil {
		t.Fatalf("CancelTransfer: %v", err)
	}
	if _, ok := f.engine.PendingAdmin(); ok {
		t.Error("pending admin not cleared after cancel")
	}
	if err := f.engine.AcceptTransfer(f.ctx, "other-admin"); !errors.Is(err, ErrNoPendingAdmin) {
		t.Errorf("accept after cancel: err = %v, want ErrNoPendingAdmin", err)
	}
}

func TestPauseUnpauseIdempotent(t *testing.T) {
	f := newTokenFixture(t)

	if err := f.engine.Pause(f.ctx, "admin"); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if err := f.engine.Pause(f.ctx, "admin"); err != nil {
		t.Fatalf("second Pause: %v", err)
	}
	if !f.engine.IsPaused() {
		t.Error("factory not paused")
	}
	if got := countEvents(f.recorder, "token", "paused"); got != 2 {
		t.Errorf("got %d paused events, want one per call (2)", got)
	}

	if err := f.engine.Unpause(f.ctx, "admin"); err != nil {
		t.Fatalf("Unpause: %v", err)
	}
	if f.engine.IsPaused() {
		t.Error("factory still paused")
	}
	if got := countEvents(f.recorder, "token", "unpaused"); got != 1 {
		t.Errorf("got %d unpaused events, want 1", got)
	}
}

func TestUpgradeAutoPauses(t *testing.T) {
	f := newTokenFixture(t)

	next := wasmOf(0xAA)
	if err := f.engine.Upgrade(f.ctx, next); err != nil {
		t.Fatalf("Upgrade: %v", err)
	}
	if got := f.engine.OwnWasm(); got != next {
		t.Errorf("OwnWasm = %s, want %s", got, next)
	}
	if !f.engine.IsPaused() {
		t.Error("upgrade did not pause the factory")
	}

	// Deployments stay blocked until an explicit unpause
	_, err := f.engine.Deploy(f.ctx, "alice", basicToken(models.KindAllowlist, 1))
	if !errors.Is(err, ErrPaused) {
		t.Errorf("deploy after upgrade: err = %v, want ErrPaused", err)
	}
	if err := f.engine.Unpause(f.ctx, "admin"); err != nil {
		t.Fatalf("Unpause: %v", err)
	}
	if _, err := f.engine.Deploy(f.ctx, "alice", basicToken(models.KindAllowlist, 1)); err != nil {
		t.Fatalf("deploy after unpause: %v", err)
	}

	if got := countEvents(f.recorder, "token", "upgraded"); got != 1 {
		t.Errorf("got %d upgraded events, want 1", got)
	}
}

func TestUpgradeRejectsZeroHash(t *testing.T) {
	f := newTokenFixture(t)

	if err := f.engine.Upgrade(f.ctx, models.WasmHash{}); !errors.Is(err, ErrWasmNotSet) {
		t.Fatalf("err = %v, want ErrWasmNotSet", err)
	}
}

func TestSetWasm(t *testing.T) {
	f := newTokenFixture(t)

	next := wasmOf(0xBB)
	if err := f.engine.SetWasm(f.ctx, "admin", models.KindCapped, next); err != nil {
		t.Fatalf("SetWasm: %v", err)
	}
	if got, err := f.engine.Wasm(models.KindCapped); err != nil || got != next {
		t.Errorf("Wasm = %s, %v; want %s", got, err, next)
	}

	if err := f.engine.SetWasm(f.ctx, "mallory", models.KindCapped, wasmOf(0xCC)); !errors.Is(err, ErrNotAdmin) {
		t.Errorf("SetWasm by non-admin: err = %v, want ErrNotAdmin", err)
	}
	if err := f.engine.SetWasm(f.ctx, "admin", models.KindMultisig, wasmOf(0xCC)); err == nil {
		t.Error("SetWasm accepted a kind from another family")
	}

	if got := countEvents(f.recorder, "token", "wasm_updated"); got < 1 {
		t.Errorf("got %d wasm_updated events, want at least 1", got)
	}
}
