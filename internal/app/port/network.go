package port

import (
	"context"
	"math/big"

	"vault_client/internal/domain/entity"

	"github.com/ethereum/go-ethereum"
)

// ChainReader is the read capability the library needs from a provider.
// *ethclient.Client satisfies it.
type ChainReader interface {
	// ChainID resolves the network the reader is connected to.
	ChainID(ctx context.Context) (*big.Int, error)

	// CallContract executes a read-only call. A nil blockNumber means latest.
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// BatchChainReader is a ChainReader that can send several calls in one round trip.
// The returned slices are index-aligned with msgs; the error is set only when the
// whole batch failed.
type BatchChainReader interface {
	ChainReader
	BatchCallContract(ctx context.Context, msgs []ethereum.CallMsg) ([][]byte, []error, error)
}

// ChainDefinitionProvider defines the interface for providing chain definitions.
type ChainDefinitionProvider interface {
	// GetAllChains returns all configured chains ordered by chain ID.
	GetAllChains() []entity.ChainConfig

	// GetChainByID returns the chain definition for the given chain ID.
	GetChainByID(chainID uint64) (entity.ChainConfig, bool)

	// GetChainByIdentifier returns a chain definition by its identifier ("arbitrum", "base", ...).
	GetChainByIdentifier(identifier string) (entity.ChainConfig, bool)

	// GetPlatforms returns the platform definitions known for a chain.
	GetPlatforms(chainID uint64) []entity.PlatformDefinition
}

// ChainReaderProvider hands out connected readers, one per chain.
type ChainReaderProvider interface {
	GetReader(chainID uint64) (ChainReader, error)
}
