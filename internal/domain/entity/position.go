package entity

// Position is an adapter-reported concentrated liquidity position.
type Position struct {
	ID           string `json:"id"`
	PoolAddress  string `json:"poolAddress"`
	Platform     string `json:"platform"`
	Token0       string `json:"token0"`
	Token1       string `json:"token1"`
	Fee          uint32 `json:"fee"`
	TickLower    int    `json:"tickLower"`
	TickUpper    int    `json:"tickUpper"`
	Liquidity    string `json:"liquidity"`
	InVault      bool   `json:"inVault"`
	VaultAddress string `json:"vaultAddress,omitempty"`
}

// PoolData is the state of a pool referenced by one or more positions.
type PoolData struct {
	Address      string `json:"address"`
	Platform     string `json:"platform"`
	Token0       string `json:"token0"`
	Token1       string `json:"token1"`
	Fee          uint32 `json:"fee"`
	SqrtPriceX96 string `json:"sqrtPriceX96"`
	Tick         int    `json:"tick"`
	Liquidity    string `json:"liquidity"`
}

// AdapterPositions is what a platform adapter returns for an owner.
type AdapterPositions struct {
	Positions []Position               `json:"positions"`
	PoolData  map[string]PoolData      `json:"poolData"`
	TokenData map[string]TokenMetadata `json:"tokenData"`
}

// TokenAmount is one side of a position's underlying holdings.
type TokenAmount struct {
	Raw       string `json:"raw"`
	Formatted string `json:"formatted"`
}

// TokenAmounts are the underlying token holdings of a position.
type TokenAmounts struct {
	Token0 TokenAmount `json:"token0"`
	Token1 TokenAmount `json:"token1"`
}
