package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"vault_client/internal/app/port"
	"vault_client/internal/client"
	dex_types "vault_client/internal/entity"
	"vault_client/internal/infrastructure/configloader"
	"vault_client/internal/pkg/metrics"
	"vault_client/internal/pkg/utils"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	stablecoinUSDCSymbol = "USDC"
	stablecoinUSDTSymbol = "USDT"
	stablecoinDAISymbol  = "DAI"

	defaultPriceBatchSize   = 30
	defaultPriceConcurrency = 5
)

var stablecoinSymbols = map[string]struct{}{
	stablecoinUSDCSymbol: {},
	stablecoinUSDTSymbol: {},
	stablecoinDAISymbol:  {},
}

// tokenPriceServiceImpl implements port.PriceService.
// Prices live in the injected cache; the optional store is consulted before DEXScreener.
type tokenPriceServiceImpl struct {
	tokenProvider     port.TokenProvider
	chains            port.ChainDefinitionProvider
	dexscreenerClient client.DEXScreenerClient
	cache             port.PriceCache
	store             port.PriceStore
	metrics           *metrics.Metrics
	logger            port.Logger
	batchSize         int
	maxConcurrent     int
}

// NewTokenPriceService creates a new instance of tokenPriceServiceImpl. store may be nil.
func NewTokenPriceService(
	tp port.TokenProvider,
	chains port.ChainDefinitionProvider,
	dsc client.DEXScreenerClient,
	cache port.PriceCache,
	store port.PriceStore,
	m *metrics.Metrics,
	l port.Logger,
	cfg *configloader.Config,
) port.PriceService {
	s := &tokenPriceServiceImpl{
		tokenProvider:     tp,
		chains:            chains,
		dexscreenerClient: dsc,
		cache:             cache,
		store:             store,
		metrics:           m,
		logger:            l,
		batchSize:         defaultPriceBatchSize,
		maxConcurrent:     defaultPriceConcurrency,
	}
	if cfg != nil {
		if cfg.TokenPriceSvc.MaxTokensPerBatchRequest > 0 {
			s.batchSize = cfg.TokenPriceSvc.MaxTokensPerBatchRequest
		}
		if cfg.TokenPriceSvc.MaxConcurrentRequests > 0 {
			s.maxConcurrent = cfg.TokenPriceSvc.MaxConcurrentRequests
		}
	}
	l.Info("TokenPriceService успешно инициализирован.", "batch_size", s.batchSize, "shared_store", store != nil)
	return s
}

// PrefetchPrices loads every symbol missing from the cache in as few requests as possible.
// Symbols no source knows about are left uncached; that is not an error.
func (s *tokenPriceServiceImpl) PrefetchPrices(ctx context.Context, chainID uint64, symbols []string) error {
	missing := make([]string, 0, len(symbols))
	requested := utils.UniqueUpper(symbols)
	for _, sym := range requested {
		if _, ok := s.cache.Get(sym); !ok {
			missing = append(missing, sym)
		}
	}
	s.metrics.PriceCacheHit(len(requested) - len(missing))
	if len(missing) == 0 {
		return nil
	}

	if s.store != nil {
		stored, err := s.store.GetPrices(ctx, missing)
		if err != nil {
			s.logger.Warn("Shared price store unavailable, falling back to DEXScreener", "error", err)
		} else {
			missing = s.absorb(missing, stored)
		}
		if len(missing) == 0 {
			return nil
		}
	}
	s.metrics.PriceCacheMiss(len(missing))

	chain, ok := s.chains.GetChainByID(chainID)
	if !ok || chain.DEXScreenerChainID == "" {
		return fmt.Errorf("no DEXScreener chain id for chain %d", chainID)
	}

	// адрес токена в сети -> символ
	byAddress := make(map[string]string, len(missing))
	addresses := make([]string, 0, len(missing))
	for _, sym := range missing {
		def, found := s.tokenProvider.GetTokenBySymbol(sym)
		if !found {
			s.logger.Debug("No token definition for symbol, price skipped", "symbol", sym)
			continue
		}
		addr, found := def.AddressOn(chainID)
		if !found {
			s.logger.Debug("Token has no address on chain, price skipped", "symbol", sym, "chain_id", chainID)
			continue
		}
		byAddress[strings.ToLower(addr)] = sym
		addresses = append(addresses, addr)
	}
	if len(addresses) == 0 {
		return nil
	}

	var (
		mu      sync.Mutex
		fetched = make(map[string]float64)
		errs    []error
	)
	batches := utils.BatchStrings(addresses, s.batchSize)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)
	for _, batch := range batches {
		batch := batch
		g.Go(func() error {
			pairs, err := s.dexscreenerClient.GetTokenPairsByAddresses(gctx, chain.DEXScreenerChainID, batch)
			if err != nil {
				s.metrics.PriceFetchError()
				s.logger.Error("Failed to get token pairs from DEXScreener",
					"dexScreenerID", chain.DEXScreenerChainID,
					"token_addresses_count", len(batch),
					"error", err)
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return nil
			}

			for _, addr := range batch {
				sym := byAddress[strings.ToLower(addr)]
				priceStr := s.selectBestPriceFromPairs(pairs, addr)
				if priceStr == "" {
					continue
				}
				price, err := strconv.ParseFloat(priceStr, 64)
				if err != nil || price <= 0 {
					s.logger.Warn("Failed to parse token price from DEXScreener", "symbol", sym, "price_string", priceStr, "error", err)
					continue
				}
				s.cache.Set(sym, price)
				mu.Lock()
				fetched[sym] = price
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if s.store != nil && len(fetched) > 0 {
		if err := s.store.SetPrices(ctx, fetched); err != nil {
			s.logger.Warn("Failed to write prices to shared store", "error", err)
		}
	}

	s.logger.Debug("Price prefetch finished", "chain_id", chainID, "requested", len(requested), "fetched", len(fetched), "failed_batches", len(errs))
	if len(errs) > 0 {
		return fmt.Errorf("%d of %d price batches failed: %w", len(errs), len(batches), errors.Join(errs...))
	}
	return nil
}

// absorb caches the found prices and returns the symbols still missing.
func (s *tokenPriceServiceImpl) absorb(symbols []string, prices map[string]float64) []string {
	rest := symbols[:0]
	for _, sym := range symbols {
		if price, ok := prices[sym]; ok {
			s.cache.Set(sym, price)
			continue
		}
		rest = append(rest, sym)
	}
	return rest
}

// selectBestPriceFromPairs prefers the deepest stablecoin-quoted pair, then the deepest pair overall.
func (s *tokenPriceServiceImpl) selectBestPriceFromPairs(pairs []dex_types.PairData, baseTokenAddress string) string {
	var bestOverallPair *dex_types.PairData
	var bestStablecoinPair *dex_types.PairData

	for i := range pairs {
		pair := &pairs[i]
		if !strings.EqualFold(pair.BaseToken.Address, baseTokenAddress) {
			continue
		}
		if pair.PriceUsd == "" || pair.PriceUsd == "0" {
			continue
		}

		if _, isStablecoin := stablecoinSymbols[strings.ToUpper(pair.QuoteToken.Symbol)]; isStablecoin {
			if bestStablecoinPair == nil || deeper(pair, bestStablecoinPair) {
				bestStablecoinPair = pair
			}
		}
		if bestOverallPair == nil || deeper(pair, bestOverallPair) {
			bestOverallPair = pair
		}
	}

	switch {
	case bestStablecoinPair != nil:
		s.logger.Debug("Selected best price from stablecoin pair",
			"baseTokenAddress", baseTokenAddress,
			"pairAddress", bestStablecoinPair.PairAddress,
			"priceUsd", bestStablecoinPair.PriceUsd,
			"liquidityUsd", utils.SafeDerefFloat64(bestStablecoinPair.Liquidity, func(l dex_types.DEXLiquidity) float64 { return l.Usd }),
			"quoteToken", bestStablecoinPair.QuoteToken.Symbol)
		return bestStablecoinPair.PriceUsd
	case bestOverallPair != nil:
		s.logger.Debug("Selected best price from overall highest liquidity pair",
			"baseTokenAddress", baseTokenAddress,
			"pairAddress", bestOverallPair.PairAddress,
			"priceUsd", bestOverallPair.PriceUsd,
			"quoteToken", bestOverallPair.QuoteToken.Symbol)
		return bestOverallPair.PriceUsd
	}

	s.logger.Warn("No suitable price found from pairs", "baseTokenAddress", baseTokenAddress, "evaluatedPairCount", len(pairs))
	return ""
}

func deeper(a, b *dex_types.PairData) bool {
	liq := func(l dex_types.DEXLiquidity) float64 { return l.Usd }
	return utils.SafeDerefFloat64(a.Liquidity, liq) > utils.SafeDerefFloat64(b.Liquidity, liq)
}

// GetPrice returns the cached USD price of symbol.
func (s *tokenPriceServiceImpl) GetPrice(symbol string) (float64, bool) {
	return s.cache.Get(strings.ToUpper(strings.TrimSpace(symbol)))
}

// GetUSDValueSync values a decimal amount string at the cached price. It never does I/O.
func (s *tokenPriceServiceImpl) GetUSDValueSync(amount string, symbol string) (float64, bool) {
	price, ok := s.GetPrice(symbol)
	if !ok {
		return 0, false
	}
	qty, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return 0, false
	}
	return qty.Mul(decimal.NewFromFloat(price)).InexactFloat64(), true
}
