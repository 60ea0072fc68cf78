package entity

import "strconv"

// TokenDefinition is an entry of the global token table. Addresses are keyed by chain ID.
type TokenDefinition struct {
	Symbol       string            `json:"symbol"`
	Name         string            `json:"name"`
	Decimals     uint8             `json:"decimals"`
	LogoURI      string            `json:"logoURI,omitempty"`
	IsStablecoin bool              `json:"isStablecoin,omitempty"`
	Addresses    map[string]string `json:"addresses"` // chainId (decimal string) -> address
}

// AddressOn returns the token address on the given chain.
func (t TokenDefinition) AddressOn(chainID uint64) (string, bool) {
	addr, ok := t.Addresses[strconv.FormatUint(chainID, 10)]
	return addr, ok && addr != ""
}

// ChainToken is the projection of a TokenDefinition onto a single chain.
type ChainToken struct {
	ChainID      uint64
	Address      string
	Name         string
	Symbol       string
	Decimals     uint8
	LogoURI      string
	IsStablecoin bool
}

// TokenMetadata is the adapter-reported description of an ERC-20 token.
type TokenMetadata struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name,omitempty"`
	Decimals uint8  `json:"decimals"`
}

// TokenBalance is a non-zero ERC-20 balance held by a vault.
type TokenBalance struct {
	Symbol           string  `json:"symbol"`
	Name             string  `json:"name,omitempty"`
	Address          string  `json:"address"`
	Balance          string  `json:"balance"`
	NumericalBalance float64 `json:"numericalBalance"`
	ValueUSD         float64 `json:"valueUsd"`
	Decimals         uint8   `json:"decimals"`
	LogoURI          string  `json:"logoURI,omitempty"`
}
