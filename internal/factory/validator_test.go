package factory

import (
	"errors"
	"math/big"
	"strings"
	"testing"

	"factory/internal/models"
)

func wantCode(t *testing.T, err error, code string) {
	t.Helper()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError %s", err, code)
	}
	if verr.Code != code {
		t.Fatalf("code = %s, want %s (err: %v)", verr.Code, code, err)
	}
}

func TestValidateToken(t *testing.T) {
	str := func(s string) *string { return &s }
	u32 := func(n uint32) *uint32 { return &n }

	base := func() models.TokenConfig { return basicToken(models.KindAllowlist, 1) }

	tests := []struct {
		name     string
		mutate   func(*models.TokenConfig)
		wantCode string
	}{
		{"valid allowlist", func(c *models.TokenConfig) {}, ""},
		{"empty name", func(c *models.TokenConfig) { c.Name = "" }, CodeInvalidName},
		{"name too long", func(c *models.TokenConfig) { c.Name = strings.Repeat("a", 31) }, CodeInvalidName},
		{"name at limit", func(c *models.TokenConfig) { c.Name = strings.Repeat("a", 30) }, ""},
		{"empty symbol", func(c *models.TokenConfig) { c.Symbol = "" }, CodeInvalidSymbol},
		{"symbol too long", func(c *models.TokenConfig) { c.Symbol = strings.Repeat("A", 13) }, CodeInvalidSymbol},
		{"nul byte in name", func(c *models.TokenConfig) { c.Name = "bad\x00name" }, CodeInvalidCharacters},
		{"control byte in symbol", func(c *models.TokenConfig) { c.Symbol = "T\x01ST" }, CodeInvalidCharacters},
		{"tab in name allowed", func(c *models.TokenConfig) { c.Name = "two\twords" }, ""},
		{"decimals too high", func(c *models.TokenConfig) { c.Decimals = 19 }, CodeInvalidDecimals},
		{"decimals at limit", func(c *models.TokenConfig) { c.Decimals = 18 }, ""},
		{"missing admin", func(c *models.TokenConfig) { c.Admin = "" }, CodeInvalidConfig},
		{"missing supply", func(c *models.TokenConfig) { c.InitialSupply = nil }, CodeInvalidConfig},
		{"negative supply", func(c *models.TokenConfig) { c.InitialSupply = big.NewInt(-1) }, CodeNegativeSupply},
		{"zero supply", func(c *models.TokenConfig) { c.InitialSupply = big.NewInt(0) }, ""},
		{"supply at bound", func(c *models.TokenConfig) { c.InitialSupply = new(big.Int).Set(models.MaxSupply) }, ""},
		{
			"supply above bound",
			func(c *models.TokenConfig) {
				c.InitialSupply = new(big.Int).Add(models.MaxSupply, big.NewInt(1))
			},
			CodeSupplyTooLarge,
		},
		{
			"capped without cap",
			func(c *models.TokenConfig) { c.Kind = models.KindCapped },
			CodeMissingCap,
		},
		{
			"capped supply exceeds cap",
			func(c *models.TokenConfig) {
				c.Kind = models.KindCapped
				c.InitialSupply = big.NewInt(2_000_000)
				c.Cap = big.NewInt(1_000_000)
			},
			CodeCapTooLow,
		},
		{
			"capped valid",
			func(c *models.TokenConfig) {
				c.Kind = models.KindCapped
				c.Cap = big.NewInt(2000)
			},
			"",
		},
		{
			"capped cap above bound",
			func(c *models.TokenConfig) {
				c.Kind = models.KindCapped
				c.Cap = new(big.Int).Add(models.MaxSupply, big.NewInt(1))
			},
			CodeSupplyTooLarge,
		},
		{
			"capped with vault fields",
			func(c *models.TokenConfig) {
				c.Kind = models.KindCapped
				c.Cap = big.NewInt(2000)
				c.Asset = str("CASSET")
			},
			CodeInvalidConfig,
		},
		{
			"vault valid",
			func(c *models.TokenConfig) {
				c.Kind = models.KindVault
				c.Asset = str("CASSET")
				c.DecimalsOffset = u32(0)
			},
			"",
		},
		{
			"vault missing asset",
			func(c *models.TokenConfig) {
				c.Kind = models.KindVault
				c.DecimalsOffset = u32(0)
			},
			CodeInvalidConfig,
		},
		{
			"vault missing offset",
			func(c *models.TokenConfig) {
				c.Kind = models.KindVault
				c.Asset = str("CASSET")
			},
			CodeInvalidConfig,
		},
		{
			"vault with cap",
			func(c *models.TokenConfig) {
				c.Kind = models.KindVault
				c.Asset = str("CASSET")
				c.DecimalsOffset = u32(0)
				c.Cap = big.NewInt(1)
			},
			CodeUnexpectedCap,
		},
		{
			"plain token with cap",
			func(c *models.TokenConfig) { c.Cap = big.NewInt(1) },
			CodeUnexpectedCap,
		},
		{
			"plain token with vault fields",
			func(c *models.TokenConfig) { c.DecimalsOffset = u32(1) },
			CodeInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := validateToken(cfg)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			wantCode(t, err, tt.wantCode)
		})
	}
}

func TestValidateNFT(t *testing.T) {
	str := func(s string) *string { return &s }

	tests := []struct {
		name    string
		cfg     models.NFTConfig
		wantErr bool
	}{
		{
			"enumerable valid",
			models.NFTConfig{Kind: models.KindEnumerable, Owner: "owner"},
			false,
		},
		{
			"enumerable with admin",
			models.NFTConfig{Kind: models.KindEnumerable, Owner: "owner", Admin: str("admin")},
			true,
		},
		{
			"enumerable with manager",
			models.NFTConfig{Kind: models.KindEnumerable, Owner: "owner", Manager: str("manager")},
			true,
		},
		{
			"missing owner",
			models.NFTConfig{Kind: models.KindEnumerable},
			true,
		},
		{
			"royalties valid",
			models.NFTConfig{Kind: models.KindRoyalties, Owner: "owner", Admin: str("admin"), Manager: str("manager")},
			false,
		},
		{
			"royalties missing manager",
			models.NFTConfig{Kind: models.KindRoyalties, Owner: "owner", Admin: str("admin")},
			true,
		},
		{
			"royalties missing admin",
			models.NFTConfig{Kind: models.KindRoyalties, Owner: "owner", Manager: str("manager")},
			true,
		},
		{
			"access-control valid",
			models.NFTConfig{Kind: models.KindAccessControl, Owner: "owner", Admin: str("admin")},
			false,
		},
		{
			"access-control missing admin",
			models.NFTConfig{Kind: models.KindAccessControl, Owner: "owner"},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateNFT(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}

func TestNFTArgsApplyDefaults(t *testing.T) {
	str := func(s string) *string { return &s }

	args, err := nftArgs("deployer", models.NFTConfig{Kind: models.KindEnumerable, Owner: "owner"})
	if err != nil {
		t.Fatalf("nftArgs: %v", err)
	}
	want := []any{"owner", defaultBaseURI, defaultCollectionName, defaultCollectionSymbol}
	if len(args) != len(want) {
		t.Fatalf("got %d args, want %d", len(args), len(want))
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("args[%d] = %v, want %v", i, args[i], want[i])
		}
	}

	args, err = nftArgs("deployer", models.NFTConfig{
		Kind:    models.KindRoyalties,
		Owner:   "owner",
		Admin:   str("admin"),
		Manager: str("manager"),
		Name:    str("Art"),
		Symbol:  str("ART"),
	})
	if err != nil {
		t.Fatalf("nftArgs: %v", err)
	}
	if args[2] != defaultRoyaltiesBaseURI || args[3] != "Art" || args[4] != "ART" {
		t.Errorf("royalties args = %v", args)
	}
}

func TestValidateGovernance(t *testing.T) {
	u32 := func(n uint32) *uint32 { return &n }
	root := saltOf(0xFF)

	tests := []struct {
		name    string
		cfg     models.GovernanceConfig
		wantErr bool
	}{
		{
			"merkle valid",
			models.GovernanceConfig{Kind: models.KindMerkleVoting, Admin: "admin", RootHash: &root},
			false,
		},
		{
			"merkle missing root",
			models.GovernanceConfig{Kind: models.KindMerkleVoting, Admin: "admin"},
			true,
		},
		{
			"multisig valid",
			models.GovernanceConfig{Kind: models.KindMultisig, Admin: "admin", Owners: []string{"a", "b", "c"}, Threshold: u32(2)},
			false,
		},
		{
			"multisig threshold equals owners",
			models.GovernanceConfig{Kind: models.KindMultisig, Admin: "admin", Owners: []string{"a", "b"}, Threshold: u32(2)},
			false,
		},
		{
			"multisig zero threshold",
			models.GovernanceConfig{Kind: models.KindMultisig, Admin: "admin", Owners: []string{"a"}, Threshold: u32(0)},
			true,
		},
		{
			"multisig threshold above owners",
			models.GovernanceConfig{Kind: models.KindMultisig, Admin: "admin", Owners: []string{"a"}, Threshold: u32(2)},
			true,
		},
		{
			"multisig no owners",
			models.GovernanceConfig{Kind: models.KindMultisig, Admin: "admin", Threshold: u32(1)},
			true,
		},
		{
			"missing admin",
			models.GovernanceConfig{Kind: models.KindMerkleVoting, RootHash: &root},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateGovernance(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateConfigTypeMismatch(t *testing.T) {
	err := validateMaster(basicToken(models.KindAllowlist, 1))
	wantCode(t, err, CodeInvalidConfig)

	err = validateToken(models.MasterConfig{Kind: models.KindTokenFactory})
	wantCode(t, err, CodeInvalidConfig)
}
