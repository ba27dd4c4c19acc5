package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"factory/internal/api"
	"factory/internal/auth"
	"factory/internal/config"
	"factory/internal/deployer"
	"factory/internal/events"
	"factory/internal/factory"
	"factory/internal/ledger"
	"factory/internal/ledger/retry"
	"factory/internal/models"
	"factory/internal/services"
	"factory/internal/storage"
)

func main() {
	fmt.Println("Starting factory engine...")

	// 1. Load configuration
	_ = godotenv.Load()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// 2. Configure logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	slog.Info("Configuration loaded",
		"network", cfg.NetworkPassphrase,
		"rpc_server", cfg.RPCServerURL,
		"log_level", cfg.LogLevel,
	)

	// 3. Load the factory catalog
	var catalog *config.Catalog
	if cfg.CatalogPath != "" {
		loaded, err := config.LoadCatalog(cfg.CatalogPath)
		if err != nil {
			log.Fatalf("Invalid catalog: %v", err)
		}
		catalog = loaded
		slog.Info("Catalog loaded", "path", cfg.CatalogPath, "factories", len(catalog.Factories))
	} else {
		catalog = config.DefaultCatalog()
		slog.Warn("No catalog file configured, using built-in defaults")
	}

	// 4. Initialize storage tiers
	ctx := context.Background()
	memory := storage.NewMemory()

	var instance storage.InstanceStore = memory
	var persistent storage.PersistentStore = memory
	if cfg.DatabaseURL != "" {
		pg, err := storage.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer pg.Close()
		instance = pg
		persistent = pg
		slog.Info("Database connected successfully")
	}

	// 5. Ledger clock: RPC-backed when configured, local cadence otherwise
	var clock ledger.Clock
	if cfg.RPCServerURL != "" {
		clock = ledger.NewRPC(cfg.RPCServerURL, retry.New(retry.DefaultConfig()))
	} else {
		clock = ledger.NewInterval(cfg.LedgerInterval)
	}

	// 6. Instantiation primitive and event sinks
	host := deployer.NewLocal(cfg.NetworkPassphrase)
	recorder := events.NewRecorder()
	emitter := events.Multi{recorder, events.Slog{}}

	creds := auth.Credentials(catalog.Credentials)
	var authorizer auth.Authorizer = auth.AllowAll{}
	if len(creds) > 0 {
		authorizer = auth.Proofs{}
	}

	// 7. Stand up the factory engines from the catalog
	registry := services.NewRegistry()
	registry.SetRecorder(recorder)

	for _, name := range []string{"master", "token", "nft", "governance"} {
		entry, ok := catalog.Factories[name]
		if !ok {
			continue
		}
		family, _ := config.Family(name)
		admin := catalog.AdminFor(name)

		opts := factory.Options{
			Name:       name,
			Address:    entry.Address,
			Admin:      admin,
			Instance:   instance,
			Persistent: persistent,
			Temporary:  memory,
			Deployer:   host,
			Auth:       authorizer,
			Clock:      clock,
			Emitter:    emitter,
			RateLimit:  catalog.RateLimit,
		}

		var eng *factory.Engine
		var err error
		switch family {
		case models.FamilyMaster:
			eng, err = factory.NewMasterFactory(ctx, opts)
		case models.FamilyToken:
			eng, err = factory.NewTokenFactory(ctx, opts)
		case models.FamilyNFT:
			eng, err = factory.NewNFTFactory(ctx, opts)
		case models.FamilyGovernance:
			eng, err = factory.NewGovernanceFactory(ctx, opts)
		}
		if err != nil {
			log.Fatalf("Failed to start factory %s: %v", name, err)
		}

		// Register catalog template hashes as the factory's admin
		hashes, err := catalog.WasmCatalogFor(name)
		if err != nil {
			log.Fatalf("Invalid wasm catalog for %s: %v", name, err)
		}
		bootCtx := auth.WithProven(ctx, admin)
		for kind, hash := range hashes {
			host.UploadWasm(hash)
			if err := eng.SetWasm(bootCtx, admin, kind, hash); err != nil {
				log.Fatalf("Failed to register wasm for %s/%s: %v", name, kind, err)
			}
		}

		registry.Add(eng)
		slog.Info("Factory started",
			"name", name,
			"family", family,
			"address", entry.Address,
			"templates", len(hashes),
		)
	}

	if len(registry.Names()) == 0 {
		log.Fatal("Catalog produced no factories")
	}

	// 8. Start the HTTP API
	server := api.NewServer(cfg.Port, registry, creds)
	if err := server.Start(); err != nil {
		log.Fatalf("Failed to start API server: %v", err)
	}

	// 9. Wait for interrupt, then drain
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	slog.Warn("Interrupt received, shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Error shutting down API server", "error", err)
	}

	slog.Info("Factory engine stopped")
}
