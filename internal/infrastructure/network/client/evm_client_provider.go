package client

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"vault_client/internal/app/port"
	"vault_client/internal/domain/entity"
	"vault_client/internal/infrastructure/configloader"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

type dialFunc func(chain entity.ChainConfig, limiter *rate.Limiter, connectionTimeout, rpcCallTimeout time.Duration) (*EVMClient, error)

const defaultProviderConnectionTimeout = 10 * time.Second

// EVMClientProvider implements port.ChainReaderProvider, one cached client per chain.
type EVMClientProvider struct {
	chains            port.ChainDefinitionProvider
	clients           map[uint64]*EVMClient
	mu                sync.Mutex
	dials             singleflight.Group
	dial              dialFunc
	logger            port.Logger
	connectionTimeout time.Duration
	rpcCallTimeout    time.Duration
	rateLimit         rate.Limit
	burst             int
}

// NewEVMClientProvider creates a provider dialing chains known to chains.
func NewEVMClientProvider(cfg *configloader.Config, chains port.ChainDefinitionProvider, l port.Logger) *EVMClientProvider {
	p := &EVMClientProvider{
		chains:            chains,
		clients:           make(map[uint64]*EVMClient),
		dial:              NewEVMClient,
		logger:            l,
		connectionTimeout: defaultProviderConnectionTimeout,
		rpcCallTimeout:    time.Duration(cfg.Performance.RPCCallTimeoutSeconds) * time.Second,
		rateLimit:         rate.Inf,
		burst:             cfg.RpcClient.BurstLimit,
	}
	if cfg.Performance.ConnectionTimeoutSeconds > 0 {
		p.connectionTimeout = time.Duration(cfg.Performance.ConnectionTimeoutSeconds) * time.Second
	}
	if cfg.RpcClient.RateLimit > 0 {
		p.rateLimit = rate.Limit(cfg.RpcClient.RateLimit)
	}
	return p
}

// GetReader returns the cached client for chainID, dialing it on first use.
// The dial runs outside the provider lock; concurrent callers for the same
// chain share one dial.
func (p *EVMClientProvider) GetReader(chainID uint64) (port.ChainReader, error) {
	if c, ok := p.cached(chainID); ok {
		return c, nil
	}

	chain, ok := p.chains.GetChainByID(chainID)
	if !ok {
		return nil, fmt.Errorf("chain %d is not configured", chainID)
	}

	v, err, _ := p.dials.Do(strconv.FormatUint(chainID, 10), func() (any, error) {
		if c, ok := p.cached(chainID); ok {
			return c, nil
		}
		p.logger.Info("Creating new EVM client", "network", chain.Name, "chain_id", chainID, "rpc_primary", chain.PrimaryRPCURL)
		// Лимитер общий на все вызовы одной сети
		limiter := rate.NewLimiter(p.rateLimit, p.burst)
		c, err := p.dial(chain, limiter, p.connectionTimeout, p.rpcCallTimeout)
		if err != nil {
			p.logger.Error("Failed to create EVM client", "network", chain.Name, "error", err)
			return nil, fmt.Errorf("failed to create EVM client for %s: %w", chain.Name, err)
		}
		p.mu.Lock()
		p.clients[chainID] = c
		p.mu.Unlock()
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*EVMClient), nil
}

func (p *EVMClientProvider) cached(chainID uint64) (*EVMClient, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.clients[chainID]
	return c, ok
}

// Close closes every cached client.
func (p *EVMClientProvider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, c := range p.clients {
		c.Close()
		delete(p.clients, id)
	}
}
