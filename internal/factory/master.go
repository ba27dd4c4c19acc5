package factory

import (
	"context"

	"factory/internal/models"
)

// MasterSpec describes the root factory: one singleton slot per sub-factory
// kind, deploys gated on the admin, and the full protection set (reentrancy
// guard, rate limit, used-salt set).
func MasterSpec() FamilySpec {
	return FamilySpec{
		Family:    models.FamilyMaster,
		Master:    true,
		Validate:  validateMaster,
		BuildArgs: masterArgs,
	}
}

// NewMasterFactory constructs the master factory engine
func NewMasterFactory(ctx context.Context, opts Options) (*Engine, error) {
	opts.Spec = MasterSpec()
	return New(ctx, opts)
}

func validateMaster(cfg models.DeploymentConfig) error {
	if _, ok := cfg.(models.MasterConfig); !ok {
		return validationErr(CodeInvalidConfig, "expected a master config, got %T", cfg)
	}
	return nil
}

// The deployer becomes the new sub-factory's admin
func masterArgs(deployer string, cfg models.DeploymentConfig) ([]any, error) {
	return []any{deployer}, nil
}
