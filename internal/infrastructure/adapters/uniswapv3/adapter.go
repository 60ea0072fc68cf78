// Package uniswapv3 reads concentrated liquidity positions from Uniswap V3 style
// position managers (Uniswap, SushiSwap V3 and forks with the same ABI).
package uniswapv3

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"sync"

	"vault_client/internal/app/port"
	"vault_client/internal/domain/entity"
	"vault_client/internal/infrastructure/contracts"
	"vault_client/internal/pkg/utils"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"
)

const defaultMaxConcurrentCalls = 8

// Adapter implements port.PlatformAdapter for one Uniswap V3 deployment on one chain.
type Adapter struct {
	platformID    string
	chainID       uint64
	addresses     entity.PlatformAddresses
	resolver      port.ContractResolver
	reader        port.ChainReader
	logger        port.Logger
	maxConcurrent int
}

var _ port.PlatformAdapter = (*Adapter)(nil)

// NewAdapter creates an adapter reading through reader. maxConcurrent bounds
// the number of in-flight calls; values below one use the default.
func NewAdapter(
	platformID string,
	chainID uint64,
	addresses entity.PlatformAddresses,
	resolver port.ContractResolver,
	reader port.ChainReader,
	maxConcurrent int,
	l port.Logger,
) *Adapter {
	if maxConcurrent < 1 {
		maxConcurrent = defaultMaxConcurrentCalls
	}
	return &Adapter{
		platformID:    platformID,
		chainID:       chainID,
		addresses:     addresses,
		resolver:      resolver,
		reader:        reader,
		logger:        l,
		maxConcurrent: maxConcurrent,
	}
}

func (a *Adapter) PlatformID() string { return a.platformID }

type poolKey struct {
	token0 common.Address
	token1 common.Address
	fee    uint32
}

type rawPosition struct {
	id        *big.Int
	key       poolKey
	tickLower int
	tickUpper int
	liquidity *big.Int
}

// GetPositions enumerates the owner's position NFTs, drops closed (zero
// liquidity) positions and loads the pools and tokens they reference.
func (a *Adapter) GetPositions(ctx context.Context, owner string, chainID uint64) (*entity.AdapterPositions, error) {
	if chainID != a.chainID {
		return nil, fmt.Errorf("%s adapter bound to chain %d, asked for chain %d", a.platformID, a.chainID, chainID)
	}
	if !common.IsHexAddress(owner) {
		return nil, fmt.Errorf("invalid owner address %q", owner)
	}
	ownerAddr := common.HexToAddress(owner)

	npm, err := a.resolver.GetContractAt(a.chainID, contracts.NonfungiblePositionManager, a.addresses.PositionManager, a.reader)
	if err != nil {
		return nil, err
	}

	out, err := npm.Call(ctx, "balanceOf", ownerAddr)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read position count: %w", a.platformID, err)
	}
	count, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected balanceOf result %T", a.platformID, out[0])
	}

	result := &entity.AdapterPositions{
		Positions: []entity.Position{},
		PoolData:  make(map[string]entity.PoolData),
		TokenData: make(map[string]entity.TokenMetadata),
	}
	if count.Sign() == 0 {
		return result, nil
	}
	if !count.IsInt64() {
		return nil, fmt.Errorf("%s: implausible position count %s", a.platformID, count)
	}

	raw, err := a.loadPositions(ctx, npm, ownerAddr, int(count.Int64()))
	if err != nil {
		return nil, err
	}

	open := raw[:0]
	for _, p := range raw {
		if p.liquidity.Sign() > 0 {
			open = append(open, p)
		}
	}
	if len(open) == 0 {
		return result, nil
	}

	// пулы и токены, которые не удалось прочитать, просто отсутствуют в результате
	poolAddrs, pools, err := a.loadPools(ctx, open)
	if err != nil {
		return nil, err
	}
	tokens, err := a.loadTokens(ctx, open)
	if err != nil {
		return nil, err
	}

	for _, p := range open {
		poolAddr := poolAddrs[p.key]
		result.Positions = append(result.Positions, entity.Position{
			ID:          p.id.String(),
			PoolAddress: poolAddr,
			Platform:    a.platformID,
			Token0:      p.key.token0.Hex(),
			Token1:      p.key.token1.Hex(),
			Fee:         p.key.fee,
			TickLower:   p.tickLower,
			TickUpper:   p.tickUpper,
			Liquidity:   p.liquidity.String(),
		})
		if pool, ok := pools[p.key]; ok {
			result.PoolData[poolAddr] = pool
		}
	}
	for addr, meta := range tokens {
		result.TokenData[addr] = meta
	}
	return result, nil
}

func (a *Adapter) loadPositions(ctx context.Context, npm port.BoundContract, owner common.Address, count int) ([]rawPosition, error) {
	positions := make([]rawPosition, count)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.maxConcurrent)
	for i := 0; i < count; i++ {
		i := i
		g.Go(func() error {
			out, err := npm.Call(gctx, "tokenOfOwnerByIndex", owner, big.NewInt(int64(i)))
			if err != nil {
				return fmt.Errorf("%s: tokenOfOwnerByIndex(%d): %w", a.platformID, i, err)
			}
			tokenID, ok := out[0].(*big.Int)
			if !ok {
				return fmt.Errorf("%s: unexpected token id type %T", a.platformID, out[0])
			}

			out, err = npm.Call(gctx, "positions", tokenID)
			if err != nil {
				return fmt.Errorf("%s: positions(%s): %w", a.platformID, tokenID, err)
			}
			p, err := decodePosition(tokenID, out)
			if err != nil {
				return fmt.Errorf("%s: %w", a.platformID, err)
			}
			positions[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return positions, nil
}

// decodePosition reads the NonfungiblePositionManager.positions tuple.
func decodePosition(tokenID *big.Int, out []any) (rawPosition, error) {
	if len(out) < 8 {
		return rawPosition{}, fmt.Errorf("positions(%s): expected 12 outputs, got %d", tokenID, len(out))
	}
	token0, ok0 := out[2].(common.Address)
	token1, ok1 := out[3].(common.Address)
	fee, ok2 := out[4].(*big.Int)
	tickLower, ok3 := out[5].(*big.Int)
	tickUpper, ok4 := out[6].(*big.Int)
	liquidity, ok5 := out[7].(*big.Int)
	if !(ok0 && ok1 && ok2 && ok3 && ok4 && ok5) {
		return rawPosition{}, fmt.Errorf("positions(%s): unexpected output types", tokenID)
	}
	return rawPosition{
		id:        tokenID,
		key:       poolKey{token0: token0, token1: token1, fee: uint32(fee.Uint64())},
		tickLower: int(tickLower.Int64()),
		tickUpper: int(tickUpper.Int64()),
		liquidity: liquidity,
	}, nil
}

// loadPools resolves the pool address and state of every distinct pool key.
// A failed read drops only that pool: its address is kept when getPool succeeded,
// its state is left out.
func (a *Adapter) loadPools(ctx context.Context, positions []rawPosition) (map[poolKey]string, map[poolKey]entity.PoolData, error) {
	factory, err := a.resolver.GetContractAt(a.chainID, contracts.UniswapV3Factory, a.addresses.Factory, a.reader)
	if err != nil {
		return nil, nil, err
	}

	keys := make([]poolKey, 0)
	seen := make(map[poolKey]struct{})
	for _, p := range positions {
		if _, ok := seen[p.key]; !ok {
			seen[p.key] = struct{}{}
			keys = append(keys, p.key)
		}
	}

	var mu sync.Mutex
	addrs := make(map[poolKey]string, len(keys))
	pools := make(map[poolKey]entity.PoolData, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.maxConcurrent)
	for _, key := range keys {
		key := key
		g.Go(func() error {
			out, err := factory.Call(gctx, "getPool", key.token0, key.token1, new(big.Int).SetUint64(uint64(key.fee)))
			if err != nil {
				a.skipPool(key, "", fmt.Errorf("getPool: %w", err))
				return nil
			}
			poolAddr, ok := out[0].(common.Address)
			if !ok || poolAddr == (common.Address{}) {
				a.skipPool(key, "", errors.New("factory has no pool for key"))
				return nil
			}
			mu.Lock()
			addrs[key] = poolAddr.Hex()
			mu.Unlock()

			pool, err := a.poolState(gctx, key, poolAddr)
			if err != nil {
				a.skipPool(key, poolAddr.Hex(), err)
				return nil
			}
			mu.Lock()
			pools[key] = pool
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return addrs, pools, nil
}

func (a *Adapter) poolState(ctx context.Context, key poolKey, poolAddr common.Address) (entity.PoolData, error) {
	pool, err := a.resolver.GetContractAt(a.chainID, contracts.UniswapV3Pool, poolAddr.Hex(), a.reader)
	if err != nil {
		return entity.PoolData{}, err
	}
	slot0, err := pool.Call(ctx, "slot0")
	if err != nil {
		return entity.PoolData{}, fmt.Errorf("slot0: %w", err)
	}
	liq, err := pool.Call(ctx, "liquidity")
	if err != nil {
		return entity.PoolData{}, fmt.Errorf("liquidity: %w", err)
	}
	sqrtPrice, ok1 := slot0[0].(*big.Int)
	tick, ok2 := slot0[1].(*big.Int)
	poolLiquidity, ok3 := liq[0].(*big.Int)
	if !(ok1 && ok2 && ok3) {
		return entity.PoolData{}, errors.New("unexpected pool state types")
	}
	return entity.PoolData{
		Address:      poolAddr.Hex(),
		Platform:     a.platformID,
		Token0:       key.token0.Hex(),
		Token1:       key.token1.Hex(),
		Fee:          key.fee,
		SqrtPriceX96: sqrtPrice.String(),
		Tick:         int(tick.Int64()),
		Liquidity:    poolLiquidity.String(),
	}, nil
}

func (a *Adapter) skipPool(key poolKey, poolAddr string, err error) {
	a.logger.Warn("Pool state unavailable, positions reported without it",
		"platform", a.platformID,
		"chain_id", a.chainID,
		"pool", poolAddr,
		"token0", key.token0.Hex(),
		"token1", key.token1.Hex(),
		"fee", key.fee,
		"error", err)
}

// loadTokens reads metadata for every token the positions reference.
// Tokens whose decimals or symbol cannot be read are left out.
func (a *Adapter) loadTokens(ctx context.Context, positions []rawPosition) (map[string]entity.TokenMetadata, error) {
	seen := make(map[common.Address]struct{})
	var addrs []common.Address
	for _, p := range positions {
		for _, t := range []common.Address{p.key.token0, p.key.token1} {
			if _, ok := seen[t]; !ok {
				seen[t] = struct{}{}
				addrs = append(addrs, t)
			}
		}
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i].Hex() < addrs[j].Hex() })

	var mu sync.Mutex
	tokens := make(map[string]entity.TokenMetadata, len(addrs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.maxConcurrent)
	for _, addr := range addrs {
		addr := addr
		g.Go(func() error {
			meta, err := a.tokenMetadata(gctx, addr)
			if err != nil {
				a.logger.Warn("Token metadata unavailable, token skipped",
					"platform", a.platformID,
					"chain_id", a.chainID,
					"token", addr.Hex(),
					"error", err)
				return nil
			}
			mu.Lock()
			tokens[meta.Address] = meta
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return tokens, nil
}

func (a *Adapter) tokenMetadata(ctx context.Context, addr common.Address) (entity.TokenMetadata, error) {
	erc20, err := a.resolver.GetContractAt(a.chainID, contracts.ERC20, addr.Hex(), a.reader)
	if err != nil {
		return entity.TokenMetadata{}, err
	}
	meta := entity.TokenMetadata{Address: addr.Hex()}

	out, err := erc20.Call(ctx, "decimals")
	if err != nil {
		return meta, fmt.Errorf("decimals: %w", err)
	}
	if d, ok := out[0].(uint8); ok {
		meta.Decimals = d
	}
	out, err = erc20.Call(ctx, "symbol")
	if err != nil {
		return meta, fmt.Errorf("symbol: %w", err)
	}
	meta.Symbol, _ = out[0].(string)
	if meta.Symbol == "" {
		return meta, errors.New("empty symbol")
	}

	// name() is optional on some tokens
	if out, err = erc20.Call(ctx, "name"); err == nil {
		meta.Name, _ = out[0].(string)
	} else {
		a.logger.Debug("Token name unavailable", "platform", a.platformID, "token", addr.Hex(), "error", err)
	}
	return meta, nil
}

// CalculateTokenAmounts returns the token amounts backing a position at the pool's current price.
func (a *Adapter) CalculateTokenAmounts(position entity.Position, pool entity.PoolData, token0, token1 entity.TokenMetadata, chainID uint64) (*entity.TokenAmounts, error) {
	if chainID != a.chainID {
		return nil, fmt.Errorf("%s adapter bound to chain %d, asked for chain %d", a.platformID, a.chainID, chainID)
	}
	liquidity, ok := new(big.Int).SetString(position.Liquidity, 10)
	if !ok {
		return nil, fmt.Errorf("position %s: invalid liquidity %q", position.ID, position.Liquidity)
	}
	var sqrtPrice *big.Int
	if pool.SqrtPriceX96 != "" {
		if sqrtPrice, ok = new(big.Int).SetString(pool.SqrtPriceX96, 10); !ok {
			return nil, fmt.Errorf("pool %s: invalid sqrtPriceX96 %q", pool.Address, pool.SqrtPriceX96)
		}
	}
	if position.TickLower >= position.TickUpper {
		return nil, fmt.Errorf("position %s: tickLower %d must be below tickUpper %d", position.ID, position.TickLower, position.TickUpper)
	}

	raw0, raw1 := positionAmounts(liquidity, sqrtPrice, pool.Tick, position.TickLower, position.TickUpper)
	return &entity.TokenAmounts{
		Token0: entity.TokenAmount{Raw: raw0.String(), Formatted: utils.FormatUnits(raw0, token0.Decimals)},
		Token1: entity.TokenAmount{Raw: raw1.String(), Formatted: utils.FormatUnits(raw1, token1.Decimals)},
	}, nil
}
