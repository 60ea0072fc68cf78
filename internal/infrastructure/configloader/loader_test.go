package configloader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "logging:\n  level: debug\n"))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, 1, cfg.Performance.MaxConcurrentVaults)
	assert.Equal(t, 10, cfg.Performance.RPCCallTimeoutSeconds)
	assert.Equal(t, 30, cfg.TokenPriceSvc.MaxTokensPerBatchRequest)
	assert.Equal(t, cfg.DEXScreener.RequestTimeoutMillis, cfg.TokenPriceSvc.RequestTimeoutMillis)
	assert.Equal(t, cfg.TokenPriceSvc.CacheTTLMinutes, cfg.PriceStore.TTLMinutes)
	assert.False(t, cfg.PriceStore.Enabled)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [unterminated"))
	assert.Error(t, err)
}

func TestLoadContractOverrides(t *testing.T) {
	body := `
contracts:
  VaultFactory:
    42161: "0x1111111111111111111111111111111111111111"
networks:
  - chainID: 42161
    rpcURL: "http://localhost:8545"
performance:
  max_concurrent_vaults: 4
`
	cfg, err := Load(writeConfig(t, body))
	require.NoError(t, err)
	assert.Equal(t, "0x1111111111111111111111111111111111111111", cfg.Contracts["VaultFactory"][42161])
	assert.Equal(t, 4, cfg.Performance.MaxConcurrentVaults)
	require.NotNil(t, cfg.NetworkOverride(42161))
	assert.Equal(t, "http://localhost:8545", cfg.NetworkOverride(42161).RPCURL)
	assert.Nil(t, cfg.NetworkOverride(1))
}

func TestLoadRejectsInvalidContractAddress(t *testing.T) {
	_, err := Load(writeConfig(t, "contracts:\n  VaultFactory:\n    1: \"0x12\"\n"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("RPC_URL_8453", "http://base.local")

	cfg, err := Load(writeConfig(t, "networks:\n  - chainID: 1\n    rpcURL: http://eth\n"))
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.True(t, cfg.PriceStore.Enabled)
	assert.Equal(t, "redis:6379", cfg.PriceStore.Addr)
	require.NotNil(t, cfg.NetworkOverride(8453))
	assert.Equal(t, "http://base.local", cfg.NetworkOverride(8453).RPCURL)
	assert.Equal(t, "http://eth", cfg.NetworkOverride(1).RPCURL)
}
