package factory

import "factory/internal/models"

// FamilySpec parameterizes the generic engine with one family's template
// catalog and deployment strategy. The four factories share a single
// pipeline; only the kinds, the validation rules, the constructor-argument
// shapes, and the master-only protections differ.
type FamilySpec struct {
	Family models.Family

	// Master enables the protections unique to the root factory: the
	// reentrancy guard, the per-window rate limit, the persistent used-salt
	// set, one singleton slot per kind, and admin-only deploys.
	Master bool

	// Validate checks a config against the family's rules. It must be pure:
	// no storage writes, no instantiation, run to completion before the
	// executor touches anything.
	Validate func(cfg models.DeploymentConfig) error

	// BuildArgs produces the constructor-argument list for the new instance.
	// It runs after validation, so required optional fields are present.
	BuildArgs func(deployer string, cfg models.DeploymentConfig) ([]any, error)
}

// validKind reports whether the kind belongs to this family
func (s FamilySpec) validKind(kind models.Kind) bool {
	for _, k := range models.FamilyKinds(s.Family) {
		if k == kind {
			return true
		}
	}
	return false
}
