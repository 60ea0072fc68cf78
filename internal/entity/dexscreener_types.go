// Package entity holds the wire types of the DEXScreener API.
package entity

// DEXTokenPair is the wrapped response shape ({"pairs": [...]}) some DEXScreener endpoints return.
// /tokens/v1 returns a bare array of PairData instead.
type DEXTokenPair struct {
	SchemaVersion string     `json:"schemaVersion"`
	Pairs         []PairData `json:"pairs"`
}

// PairData is one trading pair. Only the fields used for pricing are decoded.
type PairData struct {
	ChainID     string        `json:"chainId"`
	DexID       string        `json:"dexId"`
	PairAddress string        `json:"pairAddress"`
	BaseToken   DEXToken      `json:"baseToken"`
	QuoteToken  DEXToken      `json:"quoteToken"`
	PriceNative string        `json:"priceNative"`
	PriceUsd    string        `json:"priceUsd"`
	Liquidity   *DEXLiquidity `json:"liquidity"` // null for pairs without liquidity data
	Volume      PairVolume    `json:"volume"`
}

// DEXToken is one side of a pair.
type DEXToken struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

type DEXLiquidity struct {
	Usd   float64 `json:"usd"`
	Base  float64 `json:"base"`
	Quote float64 `json:"quote"`
}

type PairVolume struct {
	H24 float64 `json:"h24"`
}
