package factory

import (
	"context"

	"factory/internal/models"
)

// GovernanceSpec describes the governance factory
func GovernanceSpec() FamilySpec {
	return FamilySpec{
		Family:    models.FamilyGovernance,
		Validate:  validateGovernance,
		BuildArgs: governanceArgs,
	}
}

// NewGovernanceFactory constructs the governance factory engine
func NewGovernanceFactory(ctx context.Context, opts Options) (*Engine, error) {
	opts.Spec = GovernanceSpec()
	return New(ctx, opts)
}

func validateGovernance(cfg models.DeploymentConfig) error {
	c, ok := cfg.(models.GovernanceConfig)
	if !ok {
		return validationErr(CodeInvalidConfig, "expected a governance config, got %T", cfg)
	}
	if c.Admin == "" {
		return validationErr(CodeInvalidConfig, "admin is required")
	}

	switch c.Kind {
	case models.KindMerkleVoting:
		if c.RootHash == nil {
			return validationErr(CodeInvalidConfig, "merkle-voting requires a root hash")
		}
	case models.KindMultisig:
		if len(c.Owners) == 0 || c.Threshold == nil {
			return validationErr(CodeInvalidConfig, "multisig requires owners and a threshold")
		}
		if *c.Threshold == 0 || *c.Threshold > uint32(len(c.Owners)) {
			return validationErr(CodeInvalidConfig,
				"threshold must be between 1 and %d, got %d", len(c.Owners), *c.Threshold)
		}
	}
	return nil
}

func governanceArgs(_ string, cfg models.DeploymentConfig) ([]any, error) {
	c := cfg.(models.GovernanceConfig)

	switch c.Kind {
	case models.KindMerkleVoting:
		// Constructor signature: (root_hash)
		return []any{*c.RootHash}, nil
	default:
		// Multisig constructor signature: (admin, owners, threshold)
		owners := append([]string(nil), c.Owners...)
		return []any{c.Admin, owners, *c.Threshold}, nil
	}
}
