package entity

// NativeCurrency describes the gas token of a chain.
type NativeCurrency struct {
	Name     string `json:"name" yaml:"name"`
	Symbol   string `json:"symbol" yaml:"symbol"`
	Decimals uint8  `json:"decimals" yaml:"decimals"`
}

// PlatformAddresses holds the deployed contracts of one liquidity platform on a chain.
type PlatformAddresses struct {
	Factory         string `json:"factoryAddress" yaml:"factoryAddress"`
	PositionManager string `json:"positionManagerAddress" yaml:"positionManagerAddress"`
}

// ChainConfig holds the static configuration for a supported chain.
// This structure is defined at the domain level to be used across application and infrastructure layers.
type ChainConfig struct {
	ChainID          uint64                       `json:"chainId" yaml:"chainId"`
	Name             string                       `json:"name" yaml:"name"`
	Identifier       string                       `json:"identifier" yaml:"identifier"` // e.g. "ethereum", "arbitrum"
	PrimaryRPCURL    string                       `json:"primaryRpcUrl" yaml:"primaryRpcUrl"`
	FallbackRPCURLs  []string                     `json:"fallbackRpcUrls" yaml:"fallbackRpcUrls"`
	NativeCurrency   NativeCurrency               `json:"nativeCurrency" yaml:"nativeCurrency"`
	ExecutorAddress  string                       `json:"executorAddress,omitempty" yaml:"executorAddress,omitempty"`
	Platforms        map[string]PlatformAddresses `json:"platforms" yaml:"platforms"`
	BlockExplorerURL string                       `json:"blockExplorerUrl,omitempty" yaml:"blockExplorerUrl,omitempty"`

	DEXScreenerChainID        string `json:"dexScreenerChainId,omitempty" yaml:"dexScreenerChainId,omitempty"`
	WrappedNativeTokenAddress string `json:"wrappedNativeTokenAddress,omitempty" yaml:"wrappedNativeTokenAddress,omitempty"`
}

// PlatformDefinition describes a liquidity platform the adapters know how to read.
type PlatformDefinition struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"` // e.g. "uniswapV3"
}
