package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"factory/internal/models"
)

// Config holds the service configuration, read from environment variables.
// godotenv.Load in main lets a local .env file populate them.
type Config struct {
	// Port for the HTTP API
	Port int

	// Network passphrase ( mainnet or testnet )
	NetworkPassphrase string

	// RPC Server URL; empty means no RPC, the ledger clock runs locally
	RPCServerURL string

	// Database URL; empty means in-memory storage only
	DatabaseURL string

	// Ledger cadence for the local clock when no RPC is configured
	LedgerInterval time.Duration

	// Path to the YAML factory catalog; empty means built-in defaults
	CatalogPath string

	// Log level: debug, info, warn, error
	LogLevel string
}

// Load reads the configuration from the environment
func Load() *Config {
	return &Config{
		Port:              envInt("FACTORY_API_PORT", 8080),
		NetworkPassphrase: envStr("FACTORY_NETWORK_PASSPHRASE", "Test SDF Network ; September 2015"),
		RPCServerURL:      envStr("FACTORY_RPC_URL", ""),
		DatabaseURL:       envStr("FACTORY_DATABASE_URL", ""),
		LedgerInterval:    envDuration("FACTORY_LEDGER_INTERVAL", 5*time.Second),
		CatalogPath:       envStr("FACTORY_CATALOG_FILE", ""),
		LogLevel:          envStr("FACTORY_LOG_LEVEL", "info"),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid API port %d", c.Port)
	}
	if c.NetworkPassphrase == "" {
		return fmt.Errorf("NetworkPassphrase is required")
	}
	if c.LedgerInterval <= 0 {
		return fmt.Errorf("LedgerInterval must be positive")
	}
	return nil
}

// SlogLevel maps the configured log level onto slog
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// FactoryEntry configures one factory instance in the catalog file
type FactoryEntry struct {
	// Address is the factory's own contract address
	Address string `yaml:"address"`

	// Admin overrides the catalog-wide admin for this factory
	Admin string `yaml:"admin,omitempty"`

	// Catalog maps template kinds to wasm hashes (hex)
	Catalog map[string]string `yaml:"catalog,omitempty"`
}

// Catalog is the YAML file describing the factories to run, their template
// hashes, and the credentials gating the mutating API endpoints.
type Catalog struct {
	// Admin is the bootstrap admin for factories without their own
	Admin string `yaml:"admin"`

	// RateLimit overrides the master's deployments-per-window limit
	RateLimit uint32 `yaml:"rate_limit,omitempty"`

	// Factories maps factory name (master, token, nft, governance) to entry
	Factories map[string]FactoryEntry `yaml:"factories"`

	// Credentials maps identities to shared secrets
	Credentials map[string]string `yaml:"credentials,omitempty"`
}

var factoryFamilies = map[string]models.Family{
	"master":     models.FamilyMaster,
	"token":      models.FamilyToken,
	"nft":        models.FamilyNFT,
	"governance": models.FamilyGovernance,
}

// Family returns the template family a catalog factory name maps to
func Family(name string) (models.Family, bool) {
	f, ok := factoryFamilies[name]
	return f, ok
}

// LoadCatalog reads and validates the YAML catalog file
func LoadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}

	var cat Catalog
	if err := yaml.Unmarshal(raw, &cat); err != nil {
		return nil, fmt.Errorf("parsing catalog file: %w", err)
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return &cat, nil
}

// DefaultCatalog returns a catalog for local runs: all four factories at
// placeholder addresses, one bootstrap admin, no credentials.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Admin: "local-admin",
		Factories: map[string]FactoryEntry{
			"master":     {Address: "CAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAABSC4"},
			"token":      {Address: "CAAQCAIBAEAQCAIBAEAQCAIBAEAQCAIBAEAQCAIBAEAQCAIBAEAQC526"},
			"nft":        {Address: "CABAEAQCAIBAEAQCAIBAEAQCAIBAEAQCAIBAEAQCAIBAEAQCAIBAFNSZ"},
			"governance": {Address: "CABQGAYDAMBQGAYDAMBQGAYDAMBQGAYDAMBQGAYDAMBQGAYDAMBQGCK3"},
		},
	}
}

// Validate checks the catalog for structural problems
func (c *Catalog) Validate() error {
	if len(c.Factories) == 0 {
		return fmt.Errorf("catalog declares no factories")
	}
	for name, entry := range c.Factories {
		family, ok := Family(name)
		if !ok {
			return fmt.Errorf("unknown factory %q in catalog", name)
		}
		if entry.Address == "" {
			return fmt.Errorf("factory %q has no address", name)
		}
		if entry.Admin == "" && c.Admin == "" {
			return fmt.Errorf("factory %q has no admin and no catalog-wide admin is set", name)
		}
		for kindName, hash := range entry.Catalog {
			if !kindInFamily(models.Kind(kindName), family) {
				return fmt.Errorf("factory %q: kind %q does not belong to the %s family", name, kindName, family)
			}
			if _, err := models.ParseWasmHash(hash); err != nil {
				return fmt.Errorf("factory %q kind %q: %w", name, kindName, err)
			}
		}
	}
	return nil
}

// AdminFor returns the effective admin for a factory entry
func (c *Catalog) AdminFor(name string) string {
	if entry, ok := c.Factories[name]; ok && entry.Admin != "" {
		return entry.Admin
	}
	return c.Admin
}

// WasmCatalogFor returns the parsed template hashes for a factory entry
func (c *Catalog) WasmCatalogFor(name string) (map[models.Kind]models.WasmHash, error) {
	entry, ok := c.Factories[name]
	if !ok {
		return nil, fmt.Errorf("factory %q not in catalog", name)
	}
	out := make(map[models.Kind]models.WasmHash, len(entry.Catalog))
	for kindName, hex := range entry.Catalog {
		hash, err := models.ParseWasmHash(hex)
		if err != nil {
			return nil, fmt.Errorf("factory %q kind %q: %w", name, kindName, err)
		}
		out[models.Kind(kindName)] = hash
	}
	return out, nil
}

func kindInFamily(kind models.Kind, family models.Family) bool {
	for _, k := range models.FamilyKinds(family) {
		if k == kind {
			return true
		}
	}
	return false
}
