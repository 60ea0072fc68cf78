package port

import (
	"context"

	"vault_client/internal/domain/entity"
)

// PlatformAdapter reads liquidity positions from one platform.
type PlatformAdapter interface {
	PlatformID() string

	// GetPositions returns the positions owned by owner with their pools and tokens.
	GetPositions(ctx context.Context, owner string, chainID uint64) (*entity.AdapterPositions, error)

	// CalculateTokenAmounts returns the underlying token amounts of a position.
	CalculateTokenAmounts(position entity.Position, pool entity.PoolData, token0, token1 entity.TokenMetadata, chainID uint64) (*entity.TokenAmounts, error)
}

// AdapterProvider builds the adapters registered for a chain.
type AdapterProvider interface {
	GetAdapters(chainID uint64, reader ChainReader) []PlatformAdapter
}
