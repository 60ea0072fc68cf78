package configloader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// ServerConfig holds server-specific configurations.
type ServerConfig struct {
	Port         string `yaml:"port"`
	ReadTimeout  int    `yaml:"readTimeout"`
	WriteTimeout int    `yaml:"writeTimeout"`
	IdleTimeout  int    `yaml:"idleTimeout"`
}

// LoggingConfig holds logging-specific configurations.
type LoggingConfig struct {
	Level      string `yaml:"level"` // e.g., "debug", "info", "warn", "error"
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
	Compress   bool   `yaml:"compress"`
}

// DEXScreenerConfig holds DEXScreener API specific configurations.
type DEXScreenerConfig struct {
	BaseURL              string `yaml:"baseURL"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
}

// TokenPriceServiceConfig holds configuration for the price service.
type TokenPriceServiceConfig struct {
	MaxTokensPerBatchRequest int   `yaml:"maxTokensPerBatchRequest"`
	MaxConcurrentRequests    int   `yaml:"maxConcurrentRequests"`
	CacheTTLMinutes          int   `yaml:"cacheTTLMinutes"`
	CleanupIntervalMinutes   int   `yaml:"cleanupIntervalMinutes"`
	RequestTimeoutMillis     int64 `yaml:"requestTimeoutMillis"`
}

// PriceStoreConfig configures the optional Redis price store shared between instances.
type PriceStoreConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	KeyPrefix  string `yaml:"keyPrefix"`
	TTLMinutes int    `yaml:"ttlMinutes"`
}

// PerformanceConfig holds performance-related configurations.
type PerformanceConfig struct {
	MaxConcurrentRoutines    int `yaml:"max_concurrent_routines"`
	MaxConcurrentVaults      int `yaml:"max_concurrent_vaults"`
	RPCCallTimeoutSeconds    int `yaml:"rpc_call_timeout_seconds"`
	AdapterTimeoutSeconds    int `yaml:"adapter_timeout_seconds"`
	ConnectionTimeoutSeconds int `yaml:"connection_timeout_seconds"`
}

// RpcClientConfig holds configuration for RPC clients.
type RpcClientConfig struct {
	RateLimit  float64 `yaml:"rateLimit"` // requests per second, 0 disables throttling
	BurstLimit int     `yaml:"burstLimit"`
}

// NetworkNodeConfig overrides the RPC endpoints of a built-in chain.
type NetworkNodeConfig struct {
	ChainID         uint64   `yaml:"chainID"`
	RPCURL          string   `yaml:"rpcURL"`
	FallbackRPCURLs []string `yaml:"fallbackRpcURLs"`
}

// TokensConfig points at the token table overrides.
type TokensConfig struct {
	Directory string `yaml:"directory"`
}

// StrategiesConfig controls schema handling.
type StrategiesConfig struct {
	ValidateSchemas bool `yaml:"validateSchemas"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// Config is the top-level configuration structure.
type Config struct {
	Server        ServerConfig            `yaml:"server"`
	Logging       LoggingConfig           `yaml:"logging"`
	DEXScreener   DEXScreenerConfig       `yaml:"dexScreener"`
	TokenPriceSvc TokenPriceServiceConfig `yaml:"tokenPriceService"`
	PriceStore    PriceStoreConfig        `yaml:"priceStore"`
	Performance   PerformanceConfig       `yaml:"performance"`
	RpcClient     RpcClientConfig         `yaml:"rpcClient"`
	Networks      []NetworkNodeConfig     `yaml:"networks"`
	// Contracts overrides deployment addresses: contract name -> chain ID -> address.
	Contracts  map[string]map[uint64]string `yaml:"contracts"`
	Tokens     TokensConfig                 `yaml:"tokens"`
	Strategies StrategiesConfig             `yaml:"strategies"`
	Metrics    MetricsConfig                `yaml:"metrics"`
}

// LoadEnvironment loads variables from a .env file in the working directory, if present.
func LoadEnvironment() {
	if err := godotenv.Load(); err != nil {
		logrus.Debugf("No .env file loaded: %v", err)
		return
	}
	logrus.Info("Loaded environment from .env")
}

// Load reads the YAML configuration file from the given path, applies defaults and
// environment overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	logrus.Infof("Loading configuration from path: %s", path)

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logrus.Warnf("Config file %s not found, using defaults", path)
	case err != nil:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
		}
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logrus.Info("Configuration loaded successfully.")
	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = ":8080"
	}
	if cfg.Server.ReadTimeout <= 0 {
		cfg.Server.ReadTimeout = 15
	}
	if cfg.Server.WriteTimeout <= 0 {
		cfg.Server.WriteTimeout = 60
	}
	if cfg.Server.IdleTimeout <= 0 {
		cfg.Server.IdleTimeout = 120
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	if cfg.Performance.MaxConcurrentRoutines <= 0 {
		cfg.Performance.MaxConcurrentRoutines = 10
	}
	// One vault at a time unless configured otherwise.
	if cfg.Performance.MaxConcurrentVaults <= 0 {
		cfg.Performance.MaxConcurrentVaults = 1
	}
	if cfg.Performance.RPCCallTimeoutSeconds <= 0 {
		cfg.Performance.RPCCallTimeoutSeconds = 10
	}
	if cfg.Performance.AdapterTimeoutSeconds <= 0 {
		cfg.Performance.AdapterTimeoutSeconds = 30
		logrus.Infof("performance.adapter_timeout_seconds not set, defaulting to %d", cfg.Performance.AdapterTimeoutSeconds)
	}
	if cfg.Performance.ConnectionTimeoutSeconds <= 0 {
		cfg.Performance.ConnectionTimeoutSeconds = 10
	}

	if cfg.RpcClient.BurstLimit <= 0 {
		cfg.RpcClient.BurstLimit = 10
	}

	if cfg.DEXScreener.BaseURL == "" {
		cfg.DEXScreener.BaseURL = "https://api.dexscreener.com"
		logrus.Infof("DEXScreener.BaseURL not set, defaulting to %s", cfg.DEXScreener.BaseURL)
	}
	if cfg.DEXScreener.RequestTimeoutMillis == 0 {
		cfg.DEXScreener.RequestTimeoutMillis = 10000
	}

	if cfg.TokenPriceSvc.MaxTokensPerBatchRequest == 0 {
		cfg.TokenPriceSvc.MaxTokensPerBatchRequest = 30 // DEXScreener limit
		logrus.Infof("MaxTokensPerBatchRequest for TokenPriceSvc not set, defaulting to %d", cfg.TokenPriceSvc.MaxTokensPerBatchRequest)
	}
	if cfg.TokenPriceSvc.MaxConcurrentRequests <= 0 {
		cfg.TokenPriceSvc.MaxConcurrentRequests = 5
	}
	if cfg.TokenPriceSvc.CacheTTLMinutes == 0 {
		cfg.TokenPriceSvc.CacheTTLMinutes = 5
		logrus.Infof("CacheTTLMinutes for TokenPriceSvc not set, defaulting to %d minutes", cfg.TokenPriceSvc.CacheTTLMinutes)
	}
	if cfg.TokenPriceSvc.CleanupIntervalMinutes == 0 {
		cfg.TokenPriceSvc.CleanupIntervalMinutes = 10
	}
	if cfg.TokenPriceSvc.RequestTimeoutMillis == 0 {
		cfg.TokenPriceSvc.RequestTimeoutMillis = cfg.DEXScreener.RequestTimeoutMillis
		logrus.Infof("TokenPriceSvc.RequestTimeoutMillis not set, defaulting to DEXScreener.RequestTimeoutMillis: %d ms", cfg.TokenPriceSvc.RequestTimeoutMillis)
	}

	if cfg.PriceStore.Addr == "" {
		cfg.PriceStore.Addr = "localhost:6379"
	}
	if cfg.PriceStore.KeyPrefix == "" {
		cfg.PriceStore.KeyPrefix = "vault_client:price:"
	}
	if cfg.PriceStore.TTLMinutes <= 0 {
		cfg.PriceStore.TTLMinutes = cfg.TokenPriceSvc.CacheTTLMinutes
	}

	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = "vault_client"
	}
}

// applyEnvOverrides lets deployments override secrets and endpoints without editing the file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.PriceStore.Addr = v
		cfg.PriceStore.Enabled = true
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.PriceStore.Password = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		cfg.Server.Port = v
	}

	for i := range cfg.Networks {
		key := "RPC_URL_" + strconv.FormatUint(cfg.Networks[i].ChainID, 10)
		if v := os.Getenv(key); v != "" {
			cfg.Networks[i].RPCURL = v
		}
	}
	// RPC_URL_<chainId> may also introduce an override for a chain absent from the file.
	for _, chainID := range []uint64{1, 42161, 8453, 1337} {
		if cfg.NetworkOverride(chainID) != nil {
			continue
		}
		if v := os.Getenv("RPC_URL_" + strconv.FormatUint(chainID, 10)); v != "" {
			cfg.Networks = append(cfg.Networks, NetworkNodeConfig{ChainID: chainID, RPCURL: v})
		}
	}
}

// NetworkOverride returns the endpoint override for a chain, or nil.
func (c *Config) NetworkOverride(chainID uint64) *NetworkNodeConfig {
	for i := range c.Networks {
		if c.Networks[i].ChainID == chainID {
			return &c.Networks[i]
		}
	}
	return nil
}

// Validate checks values that have no sensible default.
func (c *Config) Validate() error {
	for _, n := range c.Networks {
		if n.ChainID == 0 {
			return fmt.Errorf("networks: chainID is required")
		}
	}
	for name, byChain := range c.Contracts {
		for chainID, addr := range byChain {
			if len(addr) != 42 {
				return fmt.Errorf("contracts.%s.%d: invalid address %q", name, chainID, addr)
			}
		}
	}
	if c.Tokens.Directory != "" {
		if _, err := os.Stat(filepath.Clean(c.Tokens.Directory)); err != nil {
			logrus.Warnf("tokens.directory %s is not readable, built-in token table only: %v", c.Tokens.Directory, err)
			c.Tokens.Directory = ""
		}
	}
	return nil
}
