package main

import (
	"fmt"
	"os"

	"factory/internal/deployer"
	"factory/internal/models"
)

// Derives the deterministic contract address a factory deploy will land on,
// so operators can predict instance addresses before submitting anything.
func main() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: derive_address <factory-address> <salt-hex> [network-passphrase]")
		os.Exit(1)
	}

	factoryAddress := os.Args[1]
	salt, err := models.ParseSalt(os.Args[2])
	if err != nil {
		fmt.Printf("Error parsing salt: %v\n", err)
		os.Exit(1)
	}

	passphrase := "Test SDF Network ; September 2015"
	if len(os.Args) > 3 {
		passphrase = os.Args[3]
	}

	address, err := deployer.DeriveContractAddress(passphrase, factoryAddress, salt)
	if err != nil {
		fmt.Printf("Error deriving address: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%s\n", address)
}
