package models

import "math/big"

// DeploymentConfig is the transient, per-request configuration for one deploy.
// Each family has its own concrete shape; the engine only needs the kind, the
// salt, and the identity the new instance is recorded against.
type DeploymentConfig interface {
	TemplateKind() Kind
	DeploySalt() Salt
	RecordOwner(deployer string) string
	RecordMetadata() map[string]string
}

// MaxSupply is the safe upper bound for token supplies and caps: half of the
// maximum representable signed 128-bit value, leaving headroom against
// later arithmetic overflow inside the deployed token.
var MaxSupply = new(big.Int).Rsh(new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1)), 1)

// MasterConfig configures deployment of one sub-factory. The deployer becomes
// the sub-factory's admin.
type MasterConfig struct {
	Kind Kind `json:"kind"`
	Salt Salt `json:"salt"`
}

func (c MasterConfig) TemplateKind() Kind { return c.Kind }
func (c MasterConfig) DeploySalt() Salt   { return c.Salt }

func (c MasterConfig) RecordOwner(deployer string) string { return deployer }

func (c MasterConfig) RecordMetadata() map[string]string { return nil }

// TokenConfig configures deployment of one fungible token instance
type TokenConfig struct {
	Kind          Kind     `json:"kind"`
	Admin         string   `json:"admin"`
	Manager       string   `json:"manager"`
	InitialSupply *big.Int `json:"initial_supply"`
	Cap           *big.Int `json:"cap,omitempty"` // capped kind only
	Name          string   `json:"name"`
	Symbol        string   `json:"symbol"`
	Decimals      uint32   `json:"decimals"`
	Salt          Salt     `json:"salt"`

	// Vault kind only
	Asset          *string `json:"asset,omitempty"`           // underlying asset address
	DecimalsOffset *uint32 `json:"decimals_offset,omitempty"` // vault share decimals offset
}

func (c TokenConfig) TemplateKind() Kind { return c.Kind }
func (c TokenConfig) DeploySalt() Salt   { return c.Salt }

func (c TokenConfig) RecordOwner(string) string { return c.Admin }

func (c TokenConfig) RecordMetadata() map[string]string {
	return map[string]string{"name": c.Name, "symbol": c.Symbol}
}

// NFTConfig configures deployment of one NFT collection instance
type NFTConfig struct {
	Kind    Kind    `json:"kind"`
	Owner   string  `json:"owner"`             // enumerable kind
	Admin   *string `json:"admin,omitempty"`   // royalties + access-control kinds
	Manager *string `json:"manager,omitempty"` // royalties kind
	Salt    Salt    `json:"salt"`

	Name    *string `json:"name,omitempty"`
	Symbol  *string `json:"symbol,omitempty"`
	BaseURI *string `json:"base_uri,omitempty"`
}

func (c NFTConfig) TemplateKind() Kind { return c.Kind }
func (c NFTConfig) DeploySalt() Salt   { return c.Salt }

func (c NFTConfig) RecordOwner(string) string {
	if c.Admin != nil {
		return *c.Admin
	}
	return c.Owner
}

func (c NFTConfig) RecordMetadata() map[string]string {
	m := make(map[string]string)
	if c.Name != nil {
		m["name"] = *c.Name
	}
	if c.Symbol != nil {
		m["symbol"] = *c.Symbol
	}
	if len(m) == 0 {
		return nil
	}
	return m
}

// GovernanceConfig configures deployment of one governance instance
type GovernanceConfig struct {
	Kind  Kind   `json:"kind"`
	Admin string `json:"admin"`
	Salt  Salt   `json:"salt"`

	RootHash  *Salt    `json:"root_hash,omitempty"` // merkle-voting kind: 32-byte merkle root
	Owners    []string `json:"owners,omitempty"`    // multisig kind
	Threshold *uint32  `json:"threshold,omitempty"` // multisig kind
}

func (c GovernanceConfig) TemplateKind() Kind { return c.Kind }
func (c GovernanceConfig) DeploySalt() Salt   { return c.Salt }

func (c GovernanceConfig) RecordOwner(string) string { return c.Admin }

func (c GovernanceConfig) RecordMetadata() map[string]string { return nil }
