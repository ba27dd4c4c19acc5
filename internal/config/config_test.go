package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"factory/internal/models"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"FACTORY_API_PORT", "FACTORY_NETWORK_PASSPHRASE", "FACTORY_RPC_URL",
		"FACTORY_DATABASE_URL", "FACTORY_LEDGER_INTERVAL", "FACTORY_CATALOG_FILE",
		"FACTORY_LOG_LEVEL",
	} {
		os.Unsetenv(key)
	}

	cfg := Load()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.LedgerInterval != 5*time.Second {
		t.Errorf("LedgerInterval = %v, want 5s", cfg.LedgerInterval)
	}
	if !strings.Contains(cfg.NetworkPassphrase, "Test SDF") {
		t.Errorf("NetworkPassphrase = %q", cfg.NetworkPassphrase)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("FACTORY_API_PORT", "9999")
	t.Setenv("FACTORY_LEDGER_INTERVAL", "250ms")
	t.Setenv("FACTORY_LOG_LEVEL", "debug")

	cfg := Load()
	if cfg.Port != 9999 {
		t.Errorf("Port = %d, want 9999", cfg.Port)
	}
	if cfg.LedgerInterval != 250*time.Millisecond {
		t.Errorf("LedgerInterval = %v, want 250ms", cfg.LedgerInterval)
	}
	if cfg.SlogLevel().String() != "DEBUG" {
		t.Errorf("SlogLevel = %v, want DEBUG", cfg.SlogLevel())
	}
}

func TestValidate(t *testing.T) {
	cfg := Load()
	cfg.Port = -1
	if err := cfg.Validate(); err == nil {
		t.Error("negative port accepted")
	}

	cfg = Load()
	cfg.NetworkPassphrase = ""
	if err := cfg.Validate(); err == nil {
		t.Error("empty passphrase accepted")
	}
}

const catalogYAML = `
admin: GBOOTSTRAP
rate_limit: 5
factories:
  master:
    address: CAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAABSC4
    catalog:
      token-factory: "1111111111111111111111111111111111111111111111111111111111111111"
  token:
    address: CAAQCAIBAEAQCAIBAEAQCAIBAEAQCAIBAEAQCAIBAEAQCAIBAEAQC526
    admin: GTOKENADMIN
credentials:
  operator: hunter2
`

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	return path
}

func TestLoadCatalog(t *testing.T) {
	cat, err := LoadCatalog(writeCatalog(t, catalogYAML))
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}

	if cat.RateLimit != 5 {
		t.Errorf("RateLimit = %d, want 5", cat.RateLimit)
	}
	if cat.AdminFor("master") != "GBOOTSTRAP" {
		t.Errorf("AdminFor(master) = %q", cat.AdminFor("master"))
	}
	if cat.AdminFor("token") != "GTOKENADMIN" {
		t.Errorf("AdminFor(token) = %q", cat.AdminFor("token"))
	}
	if cat.Credentials["operator"] != "hunter2" {
		t.Errorf("Credentials = %v", cat.Credentials)
	}

	wasm, err := cat.WasmCatalogFor("master")
	if err != nil {
		t.Fatalf("WasmCatalogFor: %v", err)
	}
	want, _ := models.ParseWasmHash(strings.Repeat("11", 32))
	if wasm[models.KindTokenFactory] != want {
		t.Errorf("catalog hash = %v", wasm[models.KindTokenFactory])
	}
}

func TestLoadCatalogRejectsBadEntries(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			"unknown factory",
			"admin: G\nfactories:\n  bogus:\n    address: C123\n",
		},
		{
			"missing address",
			"admin: G\nfactories:\n  master: {}\n",
		},
		{
			"no admin anywhere",
			"factories:\n  master:\n    address: C123\n",
		},
		{
			"kind from wrong family",
			"admin: G\nfactories:\n  master:\n    address: C123\n    catalog:\n      capped: \"" + strings.Repeat("22", 32) + "\"\n",
		},
		{
			"bad wasm hex",
			"admin: G\nfactories:\n  master:\n    address: C123\n    catalog:\n      token-factory: nothex\n",
		},
		{
			"no factories",
			"admin: G\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadCatalog(writeCatalog(t, tt.yaml)); err == nil {
				t.Error("invalid catalog accepted")
			}
		})
	}
}

func TestDefaultCatalog(t *testing.T) {
	cat := DefaultCatalog()
	if err := cat.Validate(); err != nil {
		t.Fatalf("default catalog invalid: %v", err)
	}
	for _, name := range []string{"master", "token", "nft", "governance"} {
		if _, ok := cat.Factories[name]; !ok {
			t.Errorf("default catalog missing %s", name)
		}
		if _, ok := Family(name); !ok {
			t.Errorf("no family mapping for %s", name)
		}
	}
}
