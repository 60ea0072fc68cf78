package tokenloader

import (
	"os"
	"path/filepath"
	"testing"

	"vault_client/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTokensBuiltIn(t *testing.T) {
	tokens, err := LoadTokens("", logger.Nop())
	require.NoError(t, err)
	require.Len(t, tokens, len(DefaultTokens()))
	assert.Equal(t, "ARB", tokens[0].Symbol, "sorted by symbol")

	for _, tok := range tokens {
		assert.NoError(t, validateToken(tok), tok.Symbol)
	}
}

func TestLoadTokensMergesDirectory(t *testing.T) {
	dir := t.TempDir()
	body := `[
	  {"symbol":"USDC","name":"USD Coin","decimals":6,"isStablecoin":true,"addresses":{"10":"0x0b2C639c533813f4Aa9D7837CAf62653d097Ff85"}},
	  {"symbol":"GMX","name":"GMX","decimals":18,"addresses":{"42161":"0xfc5A1A6EB076a2C7aD06eD22C90d7E710E35ad0a"}},
	  {"symbol":"BAD","decimals":18,"addresses":{"1":"nope"}}
	]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "extra.json"), []byte(body), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("ignored"), 0o600))

	tokens, err := LoadTokens(dir, logger.Nop())
	require.NoError(t, err)

	bySymbol := map[string]int{}
	for i, tok := range tokens {
		bySymbol[tok.Symbol] = i
	}
	require.Contains(t, bySymbol, "GMX")
	assert.NotContains(t, bySymbol, "BAD")

	usdc := tokens[bySymbol["USDC"]]
	assert.Equal(t, "0x0b2C639c533813f4Aa9D7837CAf62653d097Ff85", usdc.Addresses["10"])
	assert.Equal(t, "0xaf88d065e77c8cC2239327C5EDb3A432268e5831", usdc.Addresses["42161"], "built-in addresses are kept")
}

func TestLoadTokensMissingDirectory(t *testing.T) {
	_, err := LoadTokens(filepath.Join(t.TempDir(), "absent"), logger.Nop())
	assert.Error(t, err)
}
