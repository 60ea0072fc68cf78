package entity

// VaultDataResult is the envelope returned for a single vault.
// When Success is false only Error is meaningful.
type VaultDataResult struct {
	Success         bool                     `json:"success"`
	Error           string                   `json:"error,omitempty"`
	Vault           *Vault                   `json:"vault,omitempty"`
	Positions       []Position               `json:"positions,omitempty"`
	VaultTokens     []TokenBalance           `json:"vaultTokens,omitempty"`
	TotalTokenValue float64                  `json:"totalTokenValue"`
	PoolData        map[string]PoolData      `json:"poolData,omitempty"`
	TokenData       map[string]TokenMetadata `json:"tokenData,omitempty"`
}

// PositionPartition splits a user's positions by vault membership.
type PositionPartition struct {
	VaultPositions    []Position `json:"vaultPositions"`
	NonVaultPositions []Position `json:"nonVaultPositions"`
}

// VaultFailure records a vault that could not be aggregated.
type VaultFailure struct {
	Address string `json:"address"`
	Stage   string `json:"stage,omitempty"`
	Error   string `json:"error"`
}

// UserVaultDataResult is the envelope returned for all vaults of a user.
type UserVaultDataResult struct {
	Success      bool                     `json:"success"`
	Error        string                   `json:"error,omitempty"`
	Vaults       []VaultDataResult        `json:"vaults,omitempty"`
	Positions    PositionPartition        `json:"positions"`
	PoolData     map[string]PoolData      `json:"poolData,omitempty"`
	TokenData    map[string]TokenMetadata `json:"tokenData,omitempty"`
	FailedVaults []VaultFailure           `json:"failedVaults,omitempty"`
}
