package storage

import (
	"context"
	"testing"

	"factory/internal/models"
)

func TestMemoryStateRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if _, found, err := m.GetState(ctx, "master"); err != nil || found {
		t.Fatalf("GetState on empty store = found %v, err %v", found, err)
	}

	state := models.NewFactoryState("admin")
	state.Catalog[models.KindTokenFactory] = models.WasmHash{1}
	if err := m.PutState(ctx, "master", state); err != nil {
		t.Fatalf("PutState: %v", err)
	}

	got, found, err := m.GetState(ctx, "master")
	if err != nil || !found {
		t.Fatalf("GetState = found %v, err %v", found, err)
	}
	if got.Admin != "admin" || got.Catalog[models.KindTokenFactory] != (models.WasmHash{1}) {
		t.Errorf("unexpected state: %+v", got)
	}

	// Mutating the returned copy must not alias stored state
	got.Catalog[models.KindNFTFactory] = models.WasmHash{2}
	again, _, _ := m.GetState(ctx, "master")
	if _, ok := again.Catalog[models.KindNFTFactory]; ok {
		t.Error("stored state aliased by returned copy")
	}
}

func TestMemoryRecordsAppendOrder(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	for _, addr := range []string{"C1", "C2", "C3"} {
		if err := m.AppendRecord(ctx, "token", models.DeploymentRecord{Address: addr}); err != nil {
			t.Fatalf("AppendRecord: %v", err)
		}
	}

	recs, err := m.Records(ctx, "token")
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(recs) != 3 || recs[0].Address != "C1" || recs[2].Address != "C3" {
		t.Errorf("unexpected registry: %+v", recs)
	}

	other, _ := m.Records(ctx, "nft")
	if len(other) != 0 {
		t.Errorf("registries not isolated per factory: %+v", other)
	}
}

func TestMemorySalts(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	salt := models.Salt{42}

	if used, err := m.HasSalt(ctx, "master", salt); err != nil || used {
		t.Fatalf("HasSalt before mark = %v, %v", used, err)
	}
	if err := m.MarkSalt(ctx, "master", salt); err != nil {
		t.Fatalf("MarkSalt: %v", err)
	}
	if used, _ := m.HasSalt(ctx, "master", salt); !used {
		t.Error("salt not marked")
	}
	// Salt sets are keyed per factory
	if used, _ := m.HasSalt(ctx, "token", salt); used {
		t.Error("salt leaked across factories")
	}
}

func TestMemoryWindowCounters(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	for i := 1; i <= 3; i++ {
		n, err := m.IncrWindow(ctx, "master", 100)
		if err != nil {
			t.Fatalf("IncrWindow: %v", err)
		}
		if n != uint32(i) {
			t.Errorf("IncrWindow = %d, want %d", n, i)
		}
	}
	if n, _ := m.WindowCount(ctx, "master", 100); n != 3 {
		t.Errorf("WindowCount = %d, want 3", n)
	}
	if n, _ := m.WindowCount(ctx, "master", 101); n != 0 {
		t.Errorf("fresh window count = %d, want 0", n)
	}
}

func TestMemoryWindowEviction(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if _, err := m.IncrWindow(ctx, "master", 10); err != nil {
		t.Fatalf("IncrWindow: %v", err)
	}
	// Advancing far past the retention horizon evicts the old window
	if _, err := m.IncrWindow(ctx, "master", 10+m.windowRetention+1); err != nil {
		t.Fatalf("IncrWindow: %v", err)
	}
	if len(m.windows["master"]) != 1 {
		t.Errorf("stale windows kept: %v", m.windows["master"])
	}
}
