package factory

import (
	"context"
	"testing"

	"factory/internal/auth"
	"factory/internal/deployer"
	"factory/internal/events"
	"factory/internal/ledger"
	"factory/internal/models"
	"factory/internal/storage"
)

// The full chain: the master factory deploys a token factory at a
// deterministic address, a second engine is stood up on that address, and it
// deploys a token instance. All three contracts share one simulated host.
func TestMasterToTokenChain(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	host := deployer.NewLocal(testPassphrase)
	clock := ledger.NewManual(500)
	recorder := events.NewRecorder()

	master, err := NewMasterFactory(ctx, Options{
		Name:       "master",
		Address:    masterAddress,
		Admin:      "admin",
		Instance:   store,
		Persistent: store,
		Temporary:  store,
		Deployer:   host,
		Auth:       auth.AllowAll{},
		Clock:      clock,
		Emitter:    recorder,
	})
	if err != nil {
		t.Fatalf("NewMasterFactory: %v", err)
	}

	tokenFactoryWasm := wasmOf(0x11)
	host.UploadWasm(tokenFactoryWasm)
	if err := master.SetWasm(ctx, "admin", models.KindTokenFactory, tokenFactoryWasm); err != nil {
		t.Fatalf("SetWasm: %v", err)
	}

	factoryAddr, err := master.Deploy(ctx, "admin", models.MasterConfig{
		Kind: models.KindTokenFactory,
		Salt: saltOf(1),
	})
	if err != nil {
		t.Fatalf("master deploy: %v", err)
	}

	inst, ok := host.Get(factoryAddr)
	if !ok {
		t.Fatalf("no instance at %s", factoryAddr)
	}
	if inst.Wasm != tokenFactoryWasm {
		t.Errorf("instance wasm = %s, want %s", inst.Wasm, tokenFactoryWasm)
	}
	// The deployer becomes the sub-factory's admin
	if len(inst.Args) != 1 || inst.Args[0] != "admin" {
		t.Errorf("constructor args = %v, want [admin]", inst.Args)
	}

	// Stand up the deployed token factory at its on-network address
	tokenFactory, err := NewTokenFactory(ctx, Options{
		Name:       "token",
		Address:    factoryAddr,
		Admin:      "admin",
		Instance:   store,
		Persistent: store,
		Temporary:  store,
		Deployer:   host,
		Auth:       auth.AllowAll{},
		Clock:      clock,
		Emitter:    recorder,
	})
	if err != nil {
		t.Fatalf("NewTokenFactory: %v", err)
	}

	tokenWasm := wasmOf(0x22)
	host.UploadWasm(tokenWasm)
	if err := tokenFactory.SetWasm(ctx, "admin", models.KindPausable, tokenWasm); err != nil {
		t.Fatalf("SetWasm: %v", err)
	}

	cfg := basicToken(models.KindPausable, 2)
	tokenAddr, err := tokenFactory.Deploy(ctx, "alice", cfg)
	if err != nil {
		t.Fatalf("token deploy: %v", err)
	}
	if tokenAddr == factoryAddr {
		t.Fatal("token deployed at the factory's own address")
	}

	token, ok := host.Get(tokenAddr)
	if !ok {
		t.Fatalf("no instance at %s", tokenAddr)
	}
	// Plain token constructor: (admin, manager, supply, name, symbol, decimals)
	if len(token.Args) != 6 {
		t.Fatalf("constructor args = %v, want 6 values", token.Args)
	}
	if token.Args[0] != cfg.Admin || token.Args[4] != cfg.Symbol {
		t.Errorf("constructor args = %v", token.Args)
	}

	recs, err := tokenFactory.Deployed(ctx)
	if err != nil {
		t.Fatalf("Deployed: %v", err)
	}
	if len(recs) != 1 || recs[0].Metadata["symbol"] != cfg.Symbol {
		t.Errorf("registry = %+v", recs)
	}

	// Both factories emitted exactly one deployment event each
	for _, name := range []string{"master", "token"} {
		if got := countEvents(recorder, name, "deployed"); got != 1 {
			t.Errorf("factory %s: %d deployed events, want 1", name, got)
		}
	}
}
