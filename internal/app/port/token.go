package port

import (
	"context"

	"vault_client/internal/domain/entity"
)

// TokenProvider defines the interface for reading the global token table.
type TokenProvider interface {
	// GetAllTokens returns every token definition ordered by symbol.
	GetAllTokens() []entity.TokenDefinition

	// GetTokensByChain returns the tokens that have an address on the chain.
	GetTokensByChain(chainID uint64) []entity.ChainToken

	// GetTokenBySymbol looks a token up case-insensitively.
	GetTokenBySymbol(symbol string) (entity.TokenDefinition, bool)
}

// PriceService resolves USD prices by token symbol.
// Prices are prefetched in batches and then read synchronously from the cache.
type PriceService interface {
	PrefetchPrices(ctx context.Context, chainID uint64, symbols []string) error
	GetPrice(symbol string) (float64, bool)
	GetUSDValueSync(amount string, symbol string) (float64, bool)
}

// PriceCache is the in-process symbol to price cache shared by concurrent callers.
type PriceCache interface {
	Get(symbol string) (float64, bool)
	Set(symbol string, price float64)
}

// PriceStore is an optional shared price store consulted during prefetch.
type PriceStore interface {
	GetPrices(ctx context.Context, symbols []string) (map[string]float64, error)
	SetPrices(ctx context.Context, prices map[string]float64) error
}
