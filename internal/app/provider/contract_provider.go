package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"vault_client/internal/app/port"
	"vault_client/internal/domain/entity"
	"vault_client/internal/infrastructure/contracts"
	"vault_client/internal/pkg/metrics"

	"github.com/ethereum/go-ethereum/common"
)

// contractProviderImpl implements port.ContractResolver on top of the contract registry.
type contractProviderImpl struct {
	registry    *contracts.Registry
	strategies  map[string]string // contract key -> strategy ID
	callTimeout time.Duration
	metrics     *metrics.Metrics
	logger      port.Logger
}

// NewContractProvider creates the resolver. strategies supplies the contract
// key of every strategy that has an on-chain implementation.
func NewContractProvider(
	registry *contracts.Registry,
	strategies []entity.StrategySchema,
	callTimeout time.Duration,
	m *metrics.Metrics,
	l port.Logger,
) port.ContractResolver {
	keys := make(map[string]string)
	for _, s := range strategies {
		if s.ContractKey != "" {
			keys[s.ContractKey] = s.ID
		}
	}
	return &contractProviderImpl{
		registry:    registry,
		strategies:  keys,
		callTimeout: callTimeout,
		metrics:     m,
		logger:      l,
	}
}

// GetContract resolves the reader's chain ID and binds the registered deployment on it.
func (p *contractProviderImpl) GetContract(ctx context.Context, name string, reader port.ChainReader) (port.BoundContract, error) {
	if reader == nil {
		return nil, &entity.InvalidProviderError{Reason: "no chain reader supplied"}
	}
	if name == "" {
		return nil, fmt.Errorf("%w: contract name", entity.ErrMissingArgument)
	}
	d, ok := p.registry.Get(name)
	if !ok {
		return nil, &entity.NotFoundError{Kind: "contract", Name: name}
	}

	id, err := reader.ChainID(ctx)
	if err != nil {
		return nil, &entity.InvalidProviderError{Reason: "failed to resolve chain id", Err: err}
	}
	if id == nil || !id.IsUint64() {
		return nil, &entity.InvalidProviderError{Reason: "reader returned an unusable chain id"}
	}
	chainID := id.Uint64()

	addr, ok := d.AddressOn(chainID)
	if !ok {
		return nil, &entity.NoDeploymentError{Contract: name, ChainID: chainID}
	}
	return contracts.Bind(name, addr, d.ABI, reader, chainID, p.callTimeout, p.metrics.RPCCall), nil
}

func (p *contractProviderImpl) GetContractAt(chainID uint64, name string, address string, reader port.ChainReader) (port.BoundContract, error) {
	if reader == nil {
		return nil, &entity.InvalidProviderError{Reason: "no chain reader supplied"}
	}
	if name == "" || address == "" {
		return nil, fmt.Errorf("%w: contract name and address", entity.ErrMissingArgument)
	}
	d, ok := p.registry.Get(name)
	if !ok {
		return nil, &entity.NotFoundError{Kind: "contract", Name: name}
	}
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid %s address %q", name, address)
	}
	return contracts.Bind(name, common.HexToAddress(address), d.ABI, reader, chainID, p.callTimeout, p.metrics.RPCCall), nil
}

// StrategyAddressMap is keyed by lowercase address.
func (p *contractProviderImpl) StrategyAddressMap(chainID uint64) map[string]entity.StrategyRef {
	out := make(map[string]entity.StrategyRef)
	for key, strategyID := range p.strategies {
		d, ok := p.registry.Get(key)
		if !ok {
			p.logger.Warn("Strategy contract key not registered", "contract", key, "strategy", strategyID)
			continue
		}
		addr, ok := d.AddressOn(chainID)
		if !ok {
			continue
		}
		out[strings.ToLower(addr.Hex())] = entity.StrategyRef{
			StrategyID:  strategyID,
			ContractKey: key,
			ChainID:     chainID,
		}
	}
	return out
}
