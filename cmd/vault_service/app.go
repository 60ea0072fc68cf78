package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"vault_client/internal/app/port"
	"vault_client/internal/app/provider"
	"vault_client/internal/app/service"
	dex_client "vault_client/internal/client"
	"vault_client/internal/infrastructure/adapters"
	"vault_client/internal/infrastructure/configloader"
	"vault_client/internal/infrastructure/contracts"
	clientprovider "vault_client/internal/infrastructure/network/client"
	networkdefinition "vault_client/internal/infrastructure/network/definition"
	"vault_client/internal/infrastructure/pricecache"
	"vault_client/internal/infrastructure/strategydef"
	"vault_client/internal/infrastructure/tokenloader"
	"vault_client/internal/pkg/logger"
	"vault_client/internal/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// application holds every wired component of the process.
type application struct {
	cfg      *configloader.Config
	zap      *zap.Logger
	log      port.Logger
	registry *prometheus.Registry

	chains     port.ChainDefinitionProvider
	readers    *clientprovider.EVMClientProvider
	strategies port.StrategyService
	vaults     port.VaultService
	store      *pricecache.RedisStore
}

// newApplication loads the configuration and wires the services.
func newApplication(ctx context.Context, configPath string) (*application, error) {
	configloader.LoadEnvironment()
	cfg, err := configloader.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}

	zapLogger := logger.Init(logger.Options{
		Level:      cfg.Logging.Level,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	appLogger := logger.NewSlogAdapter()
	appLogger.Info("Configuration loaded", "path", configPath, "log_level", cfg.Logging.Level)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(registry, cfg.Metrics.Namespace)

	chains := networkdefinition.NewChainDefinitionProvider(appLogger, cfg)
	readers := clientprovider.NewEVMClientProvider(cfg, chains, appLogger)

	tokens, err := tokenloader.LoadTokens(cfg.Tokens.Directory, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to load token table: %w", err)
	}
	tokenProvider := provider.NewTokenProvider(tokens, appLogger)

	registryContracts, err := contracts.NewRegistry(cfg.Contracts)
	if err != nil {
		return nil, fmt.Errorf("failed to build contract registry: %w", err)
	}
	schemas := strategydef.All()
	resolver := provider.NewContractProvider(
		registryContracts,
		schemas,
		time.Duration(cfg.Performance.RPCCallTimeoutSeconds)*time.Second,
		m,
		appLogger,
	)
	strategyService := service.NewStrategyService(schemas, cfg.Strategies.ValidateSchemas, appLogger)

	var store *pricecache.RedisStore
	var priceStore port.PriceStore
	if cfg.PriceStore.Enabled {
		store, err = pricecache.NewRedisStore(ctx, pricecache.RedisConfig{
			Addr:      cfg.PriceStore.Addr,
			Password:  cfg.PriceStore.Password,
			DB:        cfg.PriceStore.DB,
			KeyPrefix: cfg.PriceStore.KeyPrefix,
			TTL:       time.Duration(cfg.PriceStore.TTLMinutes) * time.Minute,
		})
		if err != nil {
			// без общего хранилища цены берутся только из DEXScreener
			appLogger.Warn("Shared price store disabled", "addr", cfg.PriceStore.Addr, "error", err)
		} else {
			priceStore = store
			appLogger.Info("Shared price store connected", "addr", cfg.PriceStore.Addr)
		}
	}

	dexScreenerClient := dex_client.NewDEXScreenerClient(
		cfg.DEXScreener.BaseURL,
		time.Duration(cfg.TokenPriceSvc.RequestTimeoutMillis)*time.Millisecond,
		zapLogger,
		cfg.TokenPriceSvc.MaxTokensPerBatchRequest,
	)
	priceCache := pricecache.NewMemoryCache(
		time.Duration(cfg.TokenPriceSvc.CacheTTLMinutes)*time.Minute,
		time.Duration(cfg.TokenPriceSvc.CleanupIntervalMinutes)*time.Minute,
	)
	prices := service.NewTokenPriceService(tokenProvider, chains, dexScreenerClient, priceCache, priceStore, m, appLogger, cfg)

	adapterProvider := adapters.NewProvider(chains, resolver, cfg.Performance.MaxConcurrentRoutines, appLogger)
	vaultService := service.NewVaultService(resolver, strategyService, tokenProvider, adapterProvider, prices, m, appLogger, cfg)

	return &application{
		cfg:        cfg,
		zap:        zapLogger,
		log:        appLogger,
		registry:   registry,
		chains:     chains,
		readers:    readers,
		strategies: strategyService,
		vaults:     vaultService,
		store:      store,
	}, nil
}

// resolveChain accepts a chain ID or identifier ("arbitrum").
func (a *application) resolveChain(chain string) (uint64, port.ChainReader, error) {
	def, ok := a.chains.GetChainByIdentifier(chain)
	if !ok {
		if id, err := strconv.ParseUint(chain, 10, 64); err == nil {
			def, ok = a.chains.GetChainByID(id)
		}
	}
	if !ok {
		return 0, nil, fmt.Errorf("unknown chain %q", chain)
	}
	reader, err := a.readers.GetReader(def.ChainID)
	if err != nil {
		return 0, nil, err
	}
	return def.ChainID, reader, nil
}

func (a *application) Close() {
	a.readers.Close()
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("Failed to close price store", "error", err)
		}
	}
	_ = a.zap.Sync()
}
