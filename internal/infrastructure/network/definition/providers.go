package networkdefinition

import (
	"fmt"
	"sort"
	"strings"

	"vault_client/internal/app/port"
	"vault_client/internal/domain/entity"
	"vault_client/internal/infrastructure/configloader"
)

// Platform identifiers.
const (
	PlatformUniswapV3   = "uniswapV3"
	PlatformSushiswapV3 = "sushiswapV3"
)

// Platforms is the static platform table. Every entry is read by a Uniswap V3 style adapter.
var Platforms = map[string]entity.PlatformDefinition{ //nolint:gochecknoglobals // Global for definitions
	PlatformUniswapV3:   {ID: PlatformUniswapV3, Name: "Uniswap V3", Type: "uniswapV3"},
	PlatformSushiswapV3: {ID: PlatformSushiswapV3, Name: "SushiSwap V3", Type: "uniswapV3"},
}

var uniswapV3Mainnet = entity.PlatformAddresses{
	Factory:         "0x1F98431c8aD98523631AE4a59f267346ea31F984",
	PositionManager: "0xC36442b4a4522E871399CD717aBDD847Ab11FE88",
}

// Predefined chain definitions
var ( //nolint:gochecknoglobals // Global for definitions
	Ethereum = entity.ChainConfig{
		ChainID:          1,
		Name:             "Ethereum Mainnet",
		Identifier:       "ethereum",
		PrimaryRPCURL:    "https://ethereum-rpc.publicnode.com",
		FallbackRPCURLs:  []string{"https://rpc.ankr.com/eth", "https://ethereum.publicnode.com"},
		NativeCurrency:   entity.NativeCurrency{Name: "Ether", Symbol: "ETH", Decimals: 18},
		BlockExplorerURL: "https://etherscan.io",
		Platforms: map[string]entity.PlatformAddresses{
			PlatformUniswapV3: uniswapV3Mainnet,
		},
		DEXScreenerChainID:        "ethereum",
		WrappedNativeTokenAddress: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", // WETH
	}
	Arbitrum = entity.ChainConfig{
		ChainID:          42161,
		Name:             "Arbitrum One",
		Identifier:       "arbitrum",
		PrimaryRPCURL:    "https://arb1.arbitrum.io/rpc",
		FallbackRPCURLs:  []string{"https://arbitrum.llamarpc.com", "https://arbitrum.publicnode.com"},
		NativeCurrency:   entity.NativeCurrency{Name: "Ether", Symbol: "ETH", Decimals: 18},
		BlockExplorerURL: "https://arbiscan.io",
		Platforms: map[string]entity.PlatformAddresses{
			PlatformUniswapV3: uniswapV3Mainnet,
			PlatformSushiswapV3: {
				Factory:         "0x1af415a1EbA07a4986a52B6f2e7dE7003D82231e",
				PositionManager: "0xF0cBce1942A68BEB3d1b73F0dd86C8DCc363eF49",
			},
		},
		DEXScreenerChainID:        "arbitrum",
		WrappedNativeTokenAddress: "0x82aF49447D8a07e3bd95BD0d56f35241523fBab1", // WETH on Arbitrum
	}
	Base = entity.ChainConfig{
		ChainID:          8453,
		Name:             "Base Mainnet",
		Identifier:       "base",
		PrimaryRPCURL:    "https://1rpc.io/base",
		FallbackRPCURLs:  []string{"https://base.publicnode.com", "https://base.llamarpc.com"},
		NativeCurrency:   entity.NativeCurrency{Name: "Ether", Symbol: "ETH", Decimals: 18},
		BlockExplorerURL: "https://basescan.org",
		Platforms: map[string]entity.PlatformAddresses{
			PlatformUniswapV3: {
				Factory:         "0x33128a8fC17869897dcE68Ed026d694621f6FDfD",
				PositionManager: "0x03a520b32C04BF3bEEf7BEb72E919cf822Ed34f1",
			},
		},
		DEXScreenerChainID:        "base",
		WrappedNativeTokenAddress: "0x4200000000000000000000000000000000000006", // WETH on Base
	}
	// Local is an Arbitrum fork; prices are looked up on Arbitrum.
	Local = entity.ChainConfig{
		ChainID:         1337,
		Name:            "Local Arbitrum Fork",
		Identifier:      "local",
		PrimaryRPCURL:   "http://localhost:8545",
		NativeCurrency:  entity.NativeCurrency{Name: "Ether", Symbol: "ETH", Decimals: 18},
		ExecutorAddress: "0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
		Platforms: map[string]entity.PlatformAddresses{
			PlatformUniswapV3: uniswapV3Mainnet,
		},
		DEXScreenerChainID:        "arbitrum",
		WrappedNativeTokenAddress: "0x82aF49447D8a07e3bd95BD0d56f35241523fBab1",
	}
)

// allKnownDefinitions is a helper to quickly access all hardcoded definitions.
var allKnownDefinitions = []entity.ChainConfig{Ethereum, Arbitrum, Base, Local}

// ChainDefinitionProvider provides chain definitions with configured RPC overrides applied.
type ChainDefinitionProvider struct {
	logger port.Logger
	chains map[uint64]entity.ChainConfig
}

// NewChainDefinitionProvider creates a new ChainDefinitionProvider.
func NewChainDefinitionProvider(log port.Logger, cfg *configloader.Config) *ChainDefinitionProvider {
	p := &ChainDefinitionProvider{
		logger: log,
		chains: make(map[uint64]entity.ChainConfig, len(allKnownDefinitions)),
	}
	for _, def := range allKnownDefinitions {
		p.chains[def.ChainID] = cloneChain(def)
	}

	if cfg != nil {
		for _, override := range cfg.Networks {
			def, ok := p.chains[override.ChainID]
			if !ok {
				p.logger.Warn(fmt.Sprintf("RPC override for unknown chain %d, skipping.", override.ChainID))
				continue
			}
			if override.RPCURL != "" {
				def.PrimaryRPCURL = override.RPCURL
			}
			if len(override.FallbackRPCURLs) > 0 {
				def.FallbackRPCURLs = append([]string(nil), override.FallbackRPCURLs...)
			}
			p.chains[override.ChainID] = def
			p.logger.Debug("Applied RPC override", "chain_id", override.ChainID, "rpc_primary", def.PrimaryRPCURL)
		}
	}

	p.logger.Info(fmt.Sprintf("ChainDefinitionProvider initialized. Chains: %d", len(p.chains)))
	return p
}

var _ port.ChainDefinitionProvider = (*ChainDefinitionProvider)(nil)

func cloneChain(def entity.ChainConfig) entity.ChainConfig {
	def.FallbackRPCURLs = append([]string(nil), def.FallbackRPCURLs...)
	platforms := make(map[string]entity.PlatformAddresses, len(def.Platforms))
	for id, addrs := range def.Platforms {
		platforms[id] = addrs
	}
	def.Platforms = platforms
	return def
}

// GetAllChains returns all chain definitions ordered by chain ID.
func (p *ChainDefinitionProvider) GetAllChains() []entity.ChainConfig {
	if p == nil {
		return []entity.ChainConfig{}
	}
	out := make([]entity.ChainConfig, 0, len(p.chains))
	for _, def := range p.chains {
		out = append(out, cloneChain(def))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChainID < out[j].ChainID })
	return out
}

// GetChainByID returns a specific chain definition by its chain ID.
func (p *ChainDefinitionProvider) GetChainByID(chainID uint64) (entity.ChainConfig, bool) {
	if p == nil {
		return entity.ChainConfig{}, false
	}
	def, ok := p.chains[chainID]
	if !ok {
		return entity.ChainConfig{}, false
	}
	return cloneChain(def), true
}

// GetChainByIdentifier returns a chain definition by identifier, case-insensitively.
func (p *ChainDefinitionProvider) GetChainByIdentifier(identifier string) (entity.ChainConfig, bool) {
	if p == nil {
		return entity.ChainConfig{}, false
	}
	for _, def := range p.chains {
		if strings.EqualFold(def.Identifier, identifier) {
			return cloneChain(def), true
		}
	}
	return entity.ChainConfig{}, false
}

// GetPlatforms returns the platforms deployed on a chain, ordered by ID.
func (p *ChainDefinitionProvider) GetPlatforms(chainID uint64) []entity.PlatformDefinition {
	def, ok := p.GetChainByID(chainID)
	if !ok {
		return nil
	}
	out := make([]entity.PlatformDefinition, 0, len(def.Platforms))
	for id := range def.Platforms {
		platform, known := Platforms[id]
		if !known {
			p.logger.Warn("Chain references unknown platform", "chain_id", chainID, "platform", id)
			continue
		}
		out = append(out, platform)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
