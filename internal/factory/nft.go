package factory

import (
	"context"

	"factory/internal/models"
)

// Collection metadata defaults applied when optional fields are absent.
// Applied while building constructor args, never during validation.
const (
	defaultCollectionName   = "My Token"
	defaultCollectionSymbol = "TKN"
	defaultBaseURI          = "www.mytoken.com"
	defaultRoyaltiesBaseURI = "https://example.com/nft/"
)

// NFTSpec describes the NFT collection factory
func NFTSpec() FamilySpec {
	return FamilySpec{
		Family:    models.FamilyNFT,
		Validate:  validateNFT,
		BuildArgs: nftArgs,
	}
}

// NewNFTFactory constructs the NFT factory engine
func NewNFTFactory(ctx context.Context, opts Options) (*Engine, error) {
	opts.Spec = NFTSpec()
	return New(ctx, opts)
}

func validateNFT(cfg models.DeploymentConfig) error {
	c, ok := cfg.(models.NFTConfig)
	if !ok {
		return validationErr(CodeInvalidConfig, "expected an nft config, got %T", cfg)
	}
	if c.Owner == "" {
		return validationErr(CodeInvalidConfig, "owner is required")
	}

	switch c.Kind {
	case models.KindRoyalties:
		if c.Admin == nil || c.Manager == nil {
			return validationErr(CodeInvalidConfig, "royalties collections require admin and manager")
		}
	case models.KindAccessControl:
		if c.Admin == nil {
			return validationErr(CodeInvalidConfig, "access-control collections require an admin")
		}
	case models.KindEnumerable:
		if c.Admin != nil || c.Manager != nil {
			return validationErr(CodeInvalidConfig, "enumerable collections must not carry admin or manager")
		}
	}
	return nil
}

func nftArgs(_ string, cfg models.DeploymentConfig) ([]any, error) {
	c := cfg.(models.NFTConfig)
	name := orDefault(c.Name, defaultCollectionName)
	symbol := orDefault(c.Symbol, defaultCollectionSymbol)

	switch c.Kind {
	case models.KindRoyalties:
		// Constructor signature: (admin, manager, base_uri, name, symbol)
		base := orDefault(c.BaseURI, defaultRoyaltiesBaseURI)
		return []any{*c.Admin, *c.Manager, base, name, symbol}, nil
	case models.KindAccessControl:
		// Constructor signature: (admin, base_uri, name, symbol)
		base := orDefault(c.BaseURI, defaultBaseURI)
		return []any{*c.Admin, base, name, symbol}, nil
	default:
		// Enumerable constructor signature: (owner, base_uri, name, symbol)
		base := orDefault(c.BaseURI, defaultBaseURI)
		return []any{c.Owner, base, name, symbol}, nil
	}
}

func orDefault(s *string, def string) string {
	if s == nil || *s == "" {
		return def
	}
	return *s
}
