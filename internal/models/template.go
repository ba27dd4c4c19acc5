package models

import (
	"encoding/hex"
	"fmt"
)

// Family identifies which factory a template kind belongs to
type Family string

const (
	FamilyMaster     Family = "master"
	FamilyToken      Family = "token"
	FamilyNFT        Family = "nft"
	FamilyGovernance Family = "governance"
)

// Kind identifies a deployable template within a family
type Kind string

// Master factory kinds (one singleton slot each)
const (
	KindTokenFactory      Kind = "token-factory"
	KindNFTFactory        Kind = "nft-factory"
	KindGovernanceFactory Kind = "governance-factory"
)

// Token factory kinds
const (
	KindAllowlist Kind = "allowlist"
	KindBlocklist Kind = "blocklist"
	KindCapped    Kind = "capped"
	KindPausable  Kind = "pausable"
	KindVault     Kind = "vault"
)

// NFT factory kinds
const (
	KindEnumerable    Kind = "enumerable"
	KindRoyalties     Kind = "royalties"
	KindAccessControl Kind = "access-control"
)

// Governance factory kinds
const (
	KindMerkleVoting Kind = "merkle-voting"
	KindMultisig     Kind = "multisig"
)

// FamilyKinds returns the template kinds a family can deploy
func FamilyKinds(f Family) []Kind {
	switch f {
	case FamilyMaster:
		return []Kind{KindTokenFactory, KindNFTFactory, KindGovernanceFactory}
	case FamilyToken:
		return []Kind{KindAllowlist, KindBlocklist, KindCapped, KindPausable, KindVault}
	case FamilyNFT:
		return []Kind{KindEnumerable, KindRoyalties, KindAccessControl}
	case FamilyGovernance:
		return []Kind{KindMerkleVoting, KindMultisig}
	}
	return nil
}

// WasmHash is the content identifier of an uploaded code template
type WasmHash [32]byte

// ParseWasmHash decodes a 64-character hex string into a WasmHash
func ParseWasmHash(s string) (WasmHash, error) {
	var h WasmHash
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("invalid wasm hash: %w", err)
	}
	if len(b) != 32 {
		return h, fmt.Errorf("invalid wasm hash: expected 32 bytes, got %d", len(b))
	}
	copy(h[:], b)
	return h, nil
}

func (h WasmHash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether the hash is unset
func (h WasmHash) IsZero() bool {
	return h == WasmHash{}
}

// Salt is the caller-supplied value combined with the factory address to
// derive a deterministic instance address
type Salt [32]byte

// ParseSalt decodes a 64-character hex string into a Salt
func ParseSalt(s string) (Salt, error) {
	var salt Salt
	b, err := hex.DecodeString(s)
	if err != nil {
		return salt, fmt.Errorf("invalid salt: %w", err)
	}
	if len(b) != 32 {
		return salt, fmt.Errorf("invalid salt: expected 32 bytes, got %d", len(b))
	}
	copy(salt[:], b)
	return salt, nil
}

func (s Salt) String() string {
	return hex.EncodeToString(s[:])
}
