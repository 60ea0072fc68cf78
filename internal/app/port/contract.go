package port

import (
	"context"

	"vault_client/internal/domain/entity"
)

// BoundContract is a read-only handle bound to an ABI and an address.
type BoundContract interface {
	Name() string
	Address() string
	Call(ctx context.Context, method string, args ...any) ([]any, error)

	// CallExact fails with *contracts.UnpackError unless the result holds one word per output.
	CallExact(ctx context.Context, method string, args ...any) ([]any, error)
}

// ContractResolver binds registered contracts to readers.
type ContractResolver interface {
	// GetContract resolves the reader's chain and binds the registered deployment.
	GetContract(ctx context.Context, name string, reader ChainReader) (BoundContract, error)

	// GetContractAt binds a registered ABI to an explicit address on a known chain.
	GetContractAt(chainID uint64, name string, address string, reader ChainReader) (BoundContract, error)

	// StrategyAddressMap returns deployed strategy address -> strategy for a chain.
	StrategyAddressMap(chainID uint64) map[string]entity.StrategyRef
}
