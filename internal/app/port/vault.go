package port

import (
	"context"

	"vault_client/internal/domain/entity"
)

// VaultService aggregates on-chain vault state.
type VaultService interface {
	// GetVaultData aggregates a single vault. Failures are reported in the envelope.
	GetVaultData(ctx context.Context, vaultAddress string, reader ChainReader, chainID uint64) entity.VaultDataResult

	// GetAllUserVaultData aggregates every vault of a user plus the user's own positions.
	GetAllUserVaultData(ctx context.Context, userAddress string, reader ChainReader, chainID uint64) entity.UserVaultDataResult
}
