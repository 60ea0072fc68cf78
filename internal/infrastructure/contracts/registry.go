package contracts

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// LocalChainID is the chain ID of the local development network.
const LocalChainID uint64 = 1337

// Descriptor is a registered contract: its ABI and deployments per chain.
type Descriptor struct {
	Name      string
	ABI       *abi.ABI
	Addresses map[uint64]common.Address
}

// AddressOn returns the deployment on the given chain.
func (d *Descriptor) AddressOn(chainID uint64) (common.Address, bool) {
	addr, ok := d.Addresses[chainID]
	return addr, ok
}

var (
	parsedABIs     map[string]*abi.ABI
	parsedABIsOnce sync.Once
)

var rawABIs = map[string]string{
	VaultFactory:               vaultFactoryABI,
	PositionVault:              positionVaultABI,
	BobStrategy:                bobStrategyABI,
	FedStrategy:                fedStrategyABI,
	ERC20:                      erc20ABI,
	NonfungiblePositionManager: nonfungiblePositionManagerABI,
	UniswapV3Factory:           uniswapV3FactoryABI,
	UniswapV3Pool:              uniswapV3PoolABI,
}

// Deployments for the local network come from the deterministic deploy script.
var defaultDeployments = map[string]map[uint64]string{
	VaultFactory: {LocalChainID: "0x5FbDB2315678afecb367f032d93F642f64180aa3"},
	BobStrategy:  {LocalChainID: "0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512"},
	FedStrategy:  {LocalChainID: "0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0"},
}

func initParsedABIs() {
	parsedABIsOnce.Do(func() {
		parsedABIs = make(map[string]*abi.ABI, len(rawABIs))
		for name, raw := range rawABIs {
			parsed, err := abi.JSON(strings.NewReader(raw))
			if err != nil {
				// ABIs are compiled in, a parse failure is a programming error
				panic(fmt.Sprintf("failed to parse %s ABI: %v", name, err))
			}
			parsedABIs[name] = &parsed
		}
	})
}

// ABI returns the parsed ABI of a registered contract.
func ABI(name string) (*abi.ABI, bool) {
	initParsedABIs()
	parsed, ok := parsedABIs[name]
	return parsed, ok
}

// Registry is the immutable contract registry.
type Registry struct {
	descriptors map[string]*Descriptor
}

// NewRegistry builds the registry from the built-in deployments merged with overrides
// (contract name -> chain ID -> address).
func NewRegistry(overrides map[string]map[uint64]string) (*Registry, error) {
	initParsedABIs()

	r := &Registry{descriptors: make(map[string]*Descriptor, len(parsedABIs))}
	for name, parsed := range parsedABIs {
		d := &Descriptor{Name: name, ABI: parsed, Addresses: make(map[uint64]common.Address)}
		for chainID, addr := range defaultDeployments[name] {
			d.Addresses[chainID] = common.HexToAddress(addr)
		}
		r.descriptors[name] = d
	}

	for name, byChain := range overrides {
		d, ok := r.descriptors[name]
		if !ok {
			return nil, fmt.Errorf("address override for unknown contract %q", name)
		}
		for chainID, addr := range byChain {
			if !common.IsHexAddress(addr) {
				return nil, fmt.Errorf("invalid address %q for %s on chain %d", addr, name, chainID)
			}
			d.Addresses[chainID] = common.HexToAddress(addr)
		}
	}
	return r, nil
}

// Get returns the descriptor of a registered contract.
func (r *Registry) Get(name string) (*Descriptor, bool) {
	d, ok := r.descriptors[name]
	return d, ok
}

// Names returns every registered contract name, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.descriptors))
	for name := range r.descriptors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
