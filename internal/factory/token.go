package factory

import (
	"context"
	"math/big"

	"factory/internal/models"
)

const (
	maxTokenNameLen   = 30
	maxTokenSymbolLen = 12
	maxTokenDecimals  = 18
)

// TokenSpec describes the fungible-token factory
func TokenSpec() FamilySpec {
	return FamilySpec{
		Family:    models.FamilyToken,
		Validate:  validateToken,
		BuildArgs: tokenArgs,
	}
}

// NewTokenFactory constructs the token factory engine
func NewTokenFactory(ctx context.Context, opts Options) (*Engine, error) {
	opts.Spec = TokenSpec()
	return New(ctx, opts)
}

func validateToken(cfg models.DeploymentConfig) error {
	c, ok := cfg.(models.TokenConfig)
	if !ok {
		return validationErr(CodeInvalidConfig, "expected a token config, got %T", cfg)
	}

	if l := len(c.Name); l == 0 || l > maxTokenNameLen {
		return validationErr(CodeInvalidName, "name must be 1-%d characters, got %d", maxTokenNameLen, l)
	}
	if l := len(c.Symbol); l == 0 || l > maxTokenSymbolLen {
		return validationErr(CodeInvalidSymbol, "symbol must be 1-%d characters, got %d", maxTokenSymbolLen, l)
	}
	if !cleanString(c.Name) {
		return validationErr(CodeInvalidCharacters, "name contains control characters")
	}
	if !cleanString(c.Symbol) {
		return validationErr(CodeInvalidCharacters, "symbol contains control characters")
	}
	if c.Decimals > maxTokenDecimals {
		return validationErr(CodeInvalidDecimals, "decimals must be at most %d, got %d", maxTokenDecimals, c.Decimals)
	}
	if c.Admin == "" || c.Manager == "" {
		return validationErr(CodeInvalidConfig, "admin and manager are required")
	}

	if c.InitialSupply == nil {
		return validationErr(CodeInvalidConfig, "initial supply is required")
	}
	if c.InitialSupply.Sign() < 0 {
		return validationErr(CodeNegativeSupply, "initial supply must not be negative")
	}
	if c.InitialSupply.Cmp(models.MaxSupply) > 0 {
		return validationErr(CodeSupplyTooLarge, "initial supply exceeds the safe bound")
	}

	switch c.Kind {
	case models.KindCapped:
		if c.Cap == nil {
			return validationErr(CodeMissingCap, "capped tokens require a cap")
		}
		if c.InitialSupply.Cmp(c.Cap) > 0 {
			return validationErr(CodeCapTooLow, "initial supply exceeds the cap")
		}
		if c.Cap.Cmp(models.MaxSupply) > 0 {
			return validationErr(CodeSupplyTooLarge, "cap exceeds the safe bound")
		}
		if c.Asset != nil || c.DecimalsOffset != nil {
			return validationErr(CodeInvalidConfig, "vault fields are not allowed for %s tokens", c.Kind)
		}
	case models.KindVault:
		if c.Asset == nil || *c.Asset == "" {
			return validationErr(CodeInvalidConfig, "vault tokens require an underlying asset")
		}
		if c.DecimalsOffset == nil {
			return validationErr(CodeInvalidConfig, "vault tokens require a decimals offset")
		}
		if c.Cap != nil {
			return validationErr(CodeUnexpectedCap, "vault tokens must not carry a cap")
		}
	default:
		if c.Cap != nil {
			return validationErr(CodeUnexpectedCap, "%s tokens must not carry a cap", c.Kind)
		}
		if c.Asset != nil || c.DecimalsOffset != nil {
			return validationErr(CodeInvalidConfig, "vault fields are not allowed for %s tokens", c.Kind)
		}
	}
	return nil
}

func tokenArgs(_ string, cfg models.DeploymentConfig) ([]any, error) {
	c := cfg.(models.TokenConfig)
	supply := new(big.Int).Set(c.InitialSupply)

	switch c.Kind {
	case models.KindCapped:
		capAmount := new(big.Int).Set(c.Cap)
		return []any{c.Admin, c.Manager, supply, capAmount, c.Name, c.Symbol, c.Decimals}, nil
	case models.KindVault:
		// Vault constructor signature: (asset, decimals_offset)
		return []any{*c.Asset, *c.DecimalsOffset}, nil
	default:
		return []any{c.Admin, c.Manager, supply, c.Name, c.Symbol, c.Decimals}, nil
	}
}

// cleanString rejects NUL and control bytes, allowing tab, LF and CR
func cleanString(s string) bool {
	for i := 0; i < len(s); i++ {
		b := s[i]
		if b == '\t' || b == '\n' || b == '\r' {
			continue
		}
		if b < 0x20 || b == 0x7f {
			return false
		}
	}
	return true
}
