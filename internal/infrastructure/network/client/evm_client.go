package client

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"vault_client/internal/app/port"
	"vault_client/internal/domain/entity"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"golang.org/x/time/rate"
)

// EVMClient implements port.BatchChainReader for one EVM chain.
type EVMClient struct {
	ethClient      *ethclient.Client
	chain          entity.ChainConfig
	rpcCallTimeout time.Duration
	limiter        *rate.Limiter

	chainIDMu sync.Mutex
	chainID   *big.Int
}

var _ port.BatchChainReader = (*EVMClient)(nil)

// NewEVMClient dials the primary RPC endpoint and falls back to the others in order.
// A nil limiter disables throttling.
func NewEVMClient(chain entity.ChainConfig, limiter *rate.Limiter, connectionTimeout, rpcCallTimeout time.Duration) (*EVMClient, error) {
	rpcURLs := append([]string{chain.PrimaryRPCURL}, chain.FallbackRPCURLs...)
	var lastErr error

	for _, rpcURL := range rpcURLs {
		if rpcURL == "" {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
		c, err := ethclient.DialContext(ctx, rpcURL)
		cancel()

		if err == nil {
			return newEVMClient(c, chain, limiter, rpcCallTimeout), nil
		}
		lastErr = fmt.Errorf("failed to connect to RPC %s: %w", rpcURL, err)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no RPC endpoints configured")
	}
	return nil, fmt.Errorf("all RPC connection attempts failed for network %s: %w", chain.Name, lastErr)
}

func newEVMClient(c *ethclient.Client, chain entity.ChainConfig, limiter *rate.Limiter, rpcCallTimeout time.Duration) *EVMClient {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 0)
	}
	return &EVMClient{
		ethClient:      c,
		chain:          chain,
		rpcCallTimeout: rpcCallTimeout,
		limiter:        limiter,
	}
}

func (c *EVMClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.rpcCallTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.rpcCallTimeout)
}

// ChainID asks the node and caches the first successful answer.
func (c *EVMClient) ChainID(ctx context.Context) (*big.Int, error) {
	c.chainIDMu.Lock()
	defer c.chainIDMu.Unlock()
	if c.chainID != nil {
		return new(big.Int).Set(c.chainID), nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	callCtx, cancel := c.withTimeout(ctx)
	defer cancel()
	id, err := c.ethClient.ChainID(callCtx)
	if err != nil {
		return nil, err
	}
	if c.chain.ChainID != 0 && id.Uint64() != c.chain.ChainID {
		return nil, fmt.Errorf("chainID mismatch for %s: expected %d, got %s", c.chain.Name, c.chain.ChainID, id)
	}
	c.chainID = id
	return new(big.Int).Set(id), nil
}

// CallContract executes eth_call against the latest block unless blockNumber is set.
func (c *EVMClient) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	callCtx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.ethClient.CallContract(callCtx, msg, blockNumber)
}

// BatchCallContract sends every msg as one JSON-RPC batch of eth_call requests.
func (c *EVMClient) BatchCallContract(ctx context.Context, msgs []ethereum.CallMsg) ([][]byte, []error, error) {
	if len(msgs) == 0 {
		return [][]byte{}, []error{}, nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, err
	}

	batchElems := make([]rpc.BatchElem, len(msgs))
	for i, msg := range msgs {
		callArgs := map[string]interface{}{
			"data": hexutil.Bytes(msg.Data),
		}
		if msg.To != nil {
			callArgs["to"] = *msg.To
		}
		batchElems[i] = rpc.BatchElem{
			Method: "eth_call",
			Args:   []interface{}{callArgs, "latest"},
			Result: new(hexutil.Bytes),
		}
	}

	callCtx, cancel := c.withTimeout(ctx)
	defer cancel()
	if err := c.ethClient.Client().BatchCallContext(callCtx, batchElems); err != nil {
		return nil, nil, fmt.Errorf("RPC batch call failed: %w", err)
	}

	outputs := make([][]byte, len(msgs))
	errs := make([]error, len(msgs))
	for i, elem := range batchElems {
		if elem.Error != nil {
			errs[i] = elem.Error
			continue
		}
		if result, ok := elem.Result.(*hexutil.Bytes); ok && result != nil {
			outputs[i] = *result
		}
	}
	return outputs, errs, nil
}

// Definition returns the chain this client is connected to.
func (c *EVMClient) Definition() entity.ChainConfig {
	return c.chain
}

// Close releases the underlying RPC connection.
func (c *EVMClient) Close() {
	c.ethClient.Close()
}
