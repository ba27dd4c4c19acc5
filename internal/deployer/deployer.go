package deployer

import (
	"context"
	"crypto/sha256"
	"fmt"

	"factory/internal/models"

	"github.com/stellar/go/network"
	"github.com/stellar/go/strkey"
	"github.com/stellar/go/xdr"
)

// Deployer is the external instantiation primitive: given the deploying
// factory's address, a salt, a code template, and constructor arguments, it
// either creates a new addressable instance and returns its address or fails.
// Nothing is committed by the engine unless Deploy succeeds.
type Deployer interface {
	Deploy(ctx context.Context, from string, salt models.Salt, wasm models.WasmHash, args []any) (string, error)
}

// DeriveContractAddress computes the deterministic Soroban contract address
// for a deployment from the given address with the given salt:
// sha256 of the HashIDPreimage over (network id, from address, salt),
// strkey-encoded as a C... contract address.
func DeriveContractAddress(networkPassphrase, from string, salt models.Salt) (string, error) {
	scAddr, err := scAddressFromStrkey(from)
	if err != nil {
		return "", err
	}

	networkID := network.ID(networkPassphrase)
	preimage := xdr.HashIdPreimage{
		Type: xdr.EnvelopeTypeEnvelopeTypeContractId,
		ContractId: &xdr.HashIdPreimageContractId{
			NetworkId: xdr.Hash(networkID),
			ContractIdPreimage: xdr.ContractIdPreimage{
				Type: xdr.ContractIdPreimageTypeContractIdPreimageFromAddress,
				FromAddress: &xdr.ContractIdPreimageFromAddress{
					Address: scAddr,
					Salt:    xdr.Uint256(salt),
				},
			},
		},
	}

	raw, err := preimage.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("failed to marshal contract id preimage: %w", err)
	}

	contractID := sha256.Sum256(raw)
	address, err := strkey.Encode(strkey.VersionByteContract, contractID[:])
	if err != nil {
		return "", fmt.Errorf("failed to encode contract address: %w", err)
	}
	return address, nil
}

// scAddressFromStrkey converts a G... account or C... contract strkey into an
// ScAddress for use in a contract id preimage
func scAddressFromStrkey(address string) (xdr.ScAddress, error) {
	if raw, err := strkey.Decode(strkey.VersionByteContract, address); err == nil {
		var id xdr.ContractId
		copy(id[:], raw)
		return xdr.ScAddress{
			Type:       xdr.ScAddressTypeScAddressTypeContract,
			ContractId: &id,
		}, nil
	}

	accountID, err := xdr.AddressToAccountId(address)
	if err != nil {
		return xdr.ScAddress{}, fmt.Errorf("invalid deployer address %q: %w", address, err)
	}
	return xdr.ScAddress{
		Type:      xdr.ScAddressTypeScAddressTypeAccount,
		AccountId: &accountID,
	}, nil
}
