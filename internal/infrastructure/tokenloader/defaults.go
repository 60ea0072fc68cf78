package tokenloader

import "vault_client/internal/domain/entity"

const (
	chainEthereum = "1"
	chainArbitrum = "42161"
	chainBase     = "8453"
	chainLocal    = "1337" // Arbitrum fork
)

// DefaultTokens returns the built-in token table.
func DefaultTokens() []entity.TokenDefinition {
	return []entity.TokenDefinition{
		{
			Symbol: "WETH", Name: "Wrapped Ether", Decimals: 18,
			LogoURI: "https://assets.coingecko.com/coins/images/2518/small/weth.png",
			Addresses: map[string]string{
				chainEthereum: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
				chainArbitrum: "0x82aF49447D8a07e3bd95BD0d56f35241523fBab1",
				chainBase:     "0x4200000000000000000000000000000000000006",
				chainLocal:    "0x82aF49447D8a07e3bd95BD0d56f35241523fBab1",
			},
		},
		{
			Symbol: "USDC", Name: "USD Coin", Decimals: 6, IsStablecoin: true,
			LogoURI: "https://assets.coingecko.com/coins/images/6319/small/usdc.png",
			Addresses: map[string]string{
				chainEthereum: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
				chainArbitrum: "0xaf88d065e77c8cC2239327C5EDb3A432268e5831",
				chainBase:     "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
				chainLocal:    "0xaf88d065e77c8cC2239327C5EDb3A432268e5831",
			},
		},
		{
			Symbol: "USDT", Name: "Tether USD", Decimals: 6, IsStablecoin: true,
			LogoURI: "https://assets.coingecko.com/coins/images/325/small/Tether.png",
			Addresses: map[string]string{
				chainEthereum: "0xdAC17F958D2ee523a2206206994597C13D831ec7",
				chainArbitrum: "0xFd086bC7CD5C481DCC9C85ebE478A1C0b69FCbb9",
				chainBase:     "0xfde4C96c8593536E31F229EA8f37b2ADa2699bb2",
				chainLocal:    "0xFd086bC7CD5C481DCC9C85ebE478A1C0b69FCbb9",
			},
		},
		{
			Symbol: "DAI", Name: "Dai Stablecoin", Decimals: 18, IsStablecoin: true,
			LogoURI: "https://assets.coingecko.com/coins/images/9956/small/4943.png",
			Addresses: map[string]string{
				chainEthereum: "0x6B175474E89094C44Da98b954EedeAC495271d0F",
				chainArbitrum: "0xDA10009cBd5D07dd0CeCc66161FC93D7c9000da1",
				chainBase:     "0x50c5725949A6F0c72E6C4a641F24049A917DB0Cb",
				chainLocal:    "0xDA10009cBd5D07dd0CeCc66161FC93D7c9000da1",
			},
		},
		{
			Symbol: "WBTC", Name: "Wrapped BTC", Decimals: 8,
			LogoURI: "https://assets.coingecko.com/coins/images/7598/small/wrapped_bitcoin_wbtc.png",
			Addresses: map[string]string{
				chainEthereum: "0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599",
				chainArbitrum: "0x2f2a2543B76A4166549F7aaB2e75Bef0aefC5B0f",
				chainLocal:    "0x2f2a2543B76A4166549F7aaB2e75Bef0aefC5B0f",
			},
		},
		{
			Symbol: "ARB", Name: "Arbitrum", Decimals: 18,
			LogoURI: "https://assets.coingecko.com/coins/images/16547/small/photo_2023-03-29_21.47.00.jpeg",
			Addresses: map[string]string{
				chainEthereum: "0xB50721BCf8d664c30412Cfbc6cf7a15145234ad1",
				chainArbitrum: "0x912CE59144191C1204E64559FE8253a0e49E6548",
				chainLocal:    "0x912CE59144191C1204E64559FE8253a0e49E6548",
			},
		},
		{
			Symbol: "LINK", Name: "Chainlink", Decimals: 18,
			LogoURI: "https://assets.coingecko.com/coins/images/877/small/chainlink-new-logo.png",
			Addresses: map[string]string{
				chainEthereum: "0x514910771AF9Ca656af840dff83E8264EcF986CA",
				chainArbitrum: "0xf97f4df75117a78c1A5a0DBb814Af92458539FB4",
				chainBase:     "0x88Fb150BDc53A65fe94Dea0c9BA0a6dAf8C6e196",
				chainLocal:    "0xf97f4df75117a78c1A5a0DBb814Af92458539FB4",
			},
		},
	}
}
