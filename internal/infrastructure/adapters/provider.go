// Package adapters builds the platform adapters available on a chain.
package adapters

import (
	"vault_client/internal/app/port"
	"vault_client/internal/infrastructure/adapters/uniswapv3"
	"vault_client/internal/pkg/logger"
)

// PlatformTypeUniswapV3 is the platform type read by the uniswapv3 adapter.
const PlatformTypeUniswapV3 = "uniswapV3"

// Provider implements port.AdapterProvider from the chain definitions.
type Provider struct {
	chains        port.ChainDefinitionProvider
	resolver      port.ContractResolver
	maxConcurrent int
	logger        port.Logger
}

var _ port.AdapterProvider = (*Provider)(nil)

func NewProvider(chains port.ChainDefinitionProvider, resolver port.ContractResolver, maxConcurrent int, l port.Logger) *Provider {
	return &Provider{
		chains:        chains,
		resolver:      resolver,
		maxConcurrent: maxConcurrent,
		logger:        l,
	}
}

// GetAdapters returns one adapter per platform deployed on chainID, ordered by platform ID.
// Platforms of an unknown type or without addresses are skipped.
func (p *Provider) GetAdapters(chainID uint64, reader port.ChainReader) []port.PlatformAdapter {
	chain, ok := p.chains.GetChainByID(chainID)
	if !ok {
		p.logger.Warn("No chain definition, no adapters", "chain_id", chainID)
		return []port.PlatformAdapter{}
	}

	out := make([]port.PlatformAdapter, 0, len(chain.Platforms))
	for _, platform := range p.chains.GetPlatforms(chainID) {
		addrs := chain.Platforms[platform.ID]
		if addrs.PositionManager == "" || addrs.Factory == "" {
			p.logger.Warn("Platform has no deployment addresses", "platform", platform.ID, "chain_id", chainID)
			continue
		}
		switch platform.Type {
		case PlatformTypeUniswapV3:
			out = append(out, uniswapv3.NewAdapter(
				platform.ID, chainID, addrs, p.resolver, reader, p.maxConcurrent,
				logger.With(p.logger, "platform", platform.ID),
			))
		default:
			p.logger.Warn("Unsupported platform type", "platform", platform.ID, "type", platform.Type)
		}
	}
	return out
}
