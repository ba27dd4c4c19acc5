package deployer

import (
	"context"
	"fmt"
	"sync"

	"factory/internal/models"
)

// Instance is one contract instance created by the local deployer
type Instance struct {
	Address string
	Wasm    models.WasmHash
	Args    []any
}

// Local simulates the host's create-if-absent instantiation against an
// in-process address space. Addresses are derived exactly as the real host
// derives them, so a deployment sequence replayed against the network would
// land on the same addresses.
type Local struct {
	networkPassphrase string

	mu        sync.Mutex
	instances map[string]Instance
	uploaded  map[models.WasmHash]bool
}

// NewLocal creates a local deployer for the given network passphrase
func NewLocal(networkPassphrase string) *Local {
	return &Local{
		networkPassphrase: networkPassphrase,
		instances:         make(map[string]Instance),
		uploaded:          make(map[models.WasmHash]bool),
	}
}

// UploadWasm registers a code template as available for instantiation. If no
// template was ever uploaded the deployer accepts any hash, which keeps tests
// and local runs lightweight.
func (l *Local) UploadWasm(hash models.WasmHash) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.uploaded[hash] = true
}

// Deploy derives the deterministic address and creates the instance, failing
// if an instance already exists at that address or the template is unknown
func (l *Local) Deploy(ctx context.Context, from string, salt models.Salt, wasm models.WasmHash, args []any) (string, error) {
	address, err := DeriveContractAddress(l.networkPassphrase, from, salt)
	if err != nil {
		return "", err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.uploaded) > 0 && !l.uploaded[wasm] {
		return "", fmt.Errorf("wasm %s not uploaded", wasm)
	}
	if _, exists := l.instances[address]; exists {
		return "", fmt.Errorf("contract already exists at %s", address)
	}

	l.instances[address] = Instance{Address: address, Wasm: wasm, Args: args}
	return address, nil
}

// Instances returns all created instances, for inspection in tests
func (l *Local) Instances() []Instance {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Instance, 0, len(l.instances))
	for _, inst := range l.instances {
		out = append(out, inst)
	}
	return out
}

// Get returns the instance at an address, if any
func (l *Local) Get(address string) (Instance, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	inst, ok := l.instances[address]
	return inst, ok
}
