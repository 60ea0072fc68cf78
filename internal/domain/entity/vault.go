package entity

// Vault is the aggregated view of a single vault contract.
type Vault struct {
	Address           string            `json:"address"`
	Owner             string            `json:"owner"`
	Name              string            `json:"name"`
	CreationTime      int64             `json:"creationTime"`
	Executor          string            `json:"executor"`
	StrategyAddress   string            `json:"strategyAddress"`
	HasActiveStrategy bool              `json:"hasActiveStrategy"`
	Strategy          *StrategyInstance `json:"strategy"`
	// Parameters mirrors Strategy.Parameters; empty when no strategy is decoded.
	Parameters        ParamValues       `json:"parameters"`
	Positions         []string          `json:"positions"`
	Metrics           VaultMetrics      `json:"metrics"`
}

// VaultMetrics summarizes the value held by a vault.
type VaultMetrics struct {
	TVL            float64 `json:"tvl"`
	TokenTVL       float64 `json:"tokenTVL"`
	HasPartialData bool    `json:"hasPartialData"`
	PositionCount  int     `json:"positionCount"`
	LastTVLUpdate  int64   `json:"lastTVLUpdate"` // unix millis
}

// StrategyInstance is the strategy attached to a vault, decoded from contract state.
type StrategyInstance struct {
	StrategyID          string      `json:"strategyId"`
	StrategyAddress     string      `json:"strategyAddress"`
	SelectedTokens      []string    `json:"selectedTokens"`
	SelectedPlatforms   []string    `json:"selectedPlatforms"`
	Parameters          ParamValues `json:"parameters"`
	ActiveTemplate      string      `json:"activeTemplate"`
	CustomizationBitmap string      `json:"customizationBitmap"`
	LastUpdated         int64       `json:"lastUpdated"` // unix millis
}

// StrategyRef is an entry of the address to strategy map built from the contract registry.
type StrategyRef struct {
	StrategyID  string `json:"strategyId"`
	ContractKey string `json:"contractKey"`
	ChainID     uint64 `json:"chainId"`
}
