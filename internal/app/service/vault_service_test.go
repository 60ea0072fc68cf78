package service

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"vault_client/internal/app/port"
	"vault_client/internal/app/provider"
	"vault_client/internal/domain/entity"
	"vault_client/internal/infrastructure/configloader"
	"vault_client/internal/infrastructure/contracts"
	"vault_client/internal/infrastructure/strategydef"
	"vault_client/internal/pkg/evmtest"
	"vault_client/internal/pkg/logger"
	"vault_client/internal/pkg/metrics"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	localChainID   = 1337
	factoryAddress = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
	bobAddress     = "0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512"

	vaultA       = "0x1000000000000000000000000000000000000001"
	vaultB       = "0x2000000000000000000000000000000000000002"
	vaultBroken  = "0x3000000000000000000000000000000000000003"
	userAddress  = "0x4000000000000000000000000000000000000004"
	executorAddr = "0x5000000000000000000000000000000000000005"
	localWETH    = "0x6000000000000000000000000000000000000006"
	localUSDC    = "0x7000000000000000000000000000000000000007"
	poolAddress  = "0x8000000000000000000000000000000000000008"
)

var fixedNow = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func hexOf(addr string) string { return common.HexToAddress(addr).Hex() }

var stubTokens = map[string]entity.TokenMetadata{
	hexOf(localWETH): {Address: hexOf(localWETH), Symbol: "WETH", Decimals: 18},
	hexOf(localUSDC): {Address: hexOf(localUSDC), Symbol: "USDC", Decimals: 6},
}

// stubAdapter serves canned positions per owner. Metadata is reported for
// stubTokens only, and never for pools listed in missingPools.
type stubAdapter struct {
	id           string
	byOwner      map[string][]entity.Position
	missingPools map[string]bool
	err          error
	calls        int32
}

func (a *stubAdapter) PlatformID() string { return a.id }

func (a *stubAdapter) GetPositions(_ context.Context, owner string, _ uint64) (*entity.AdapterPositions, error) {
	atomic.AddInt32(&a.calls, 1)
	if a.err != nil {
		return nil, a.err
	}
	res := &entity.AdapterPositions{
		Positions: []entity.Position{},
		PoolData:  map[string]entity.PoolData{},
		TokenData: map[string]entity.TokenMetadata{},
	}
	for _, p := range a.byOwner[owner] {
		res.Positions = append(res.Positions, p)
		if !a.missingPools[p.PoolAddress] {
			res.PoolData[p.PoolAddress] = entity.PoolData{Address: p.PoolAddress, Platform: a.id, Token0: p.Token0, Token1: p.Token1, Fee: p.Fee, SqrtPriceX96: "79228162514264337593543950336"}
		}
		for _, token := range []string{p.Token0, p.Token1} {
			if meta, ok := stubTokens[token]; ok {
				res.TokenData[token] = meta
			}
		}
	}
	return res, nil
}

// CalculateTokenAmounts reports 1 WETH and 500 USDC for every position.
func (a *stubAdapter) CalculateTokenAmounts(entity.Position, entity.PoolData, entity.TokenMetadata, entity.TokenMetadata, uint64) (*entity.TokenAmounts, error) {
	return &entity.TokenAmounts{
		Token0: entity.TokenAmount{Raw: "1000000000000000000", Formatted: "1.0"},
		Token1: entity.TokenAmount{Raw: "500000000", Formatted: "500.0"},
	}, nil
}

type stubAdapterProvider []port.PlatformAdapter

func (p stubAdapterProvider) GetAdapters(uint64, port.ChainReader) []port.PlatformAdapter { return p }

type stubPrices struct {
	mu         sync.Mutex
	prices     map[string]float64
	prefetches int
}

func (p *stubPrices) PrefetchPrices(context.Context, uint64, []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prefetches++
	return nil
}

func (p *stubPrices) GetPrice(symbol string) (float64, bool) {
	price, ok := p.prices[strings.ToUpper(symbol)]
	return price, ok
}

func (p *stubPrices) GetUSDValueSync(amount string, symbol string) (float64, bool) {
	price, ok := p.GetPrice(symbol)
	if !ok {
		return 0, false
	}
	qty, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, false
	}
	return qty.Mul(decimal.NewFromFloat(price)).InexactFloat64(), true
}

// batchingReader adds batch support to the fake reader.
type batchingReader struct {
	*evmtest.FakeReader
	batches int32
}

func (b *batchingReader) BatchCallContract(ctx context.Context, msgs []ethereum.CallMsg) ([][]byte, []error, error) {
	atomic.AddInt32(&b.batches, 1)
	out := make([][]byte, len(msgs))
	errs := make([]error, len(msgs))
	for i, msg := range msgs {
		out[i], errs[i] = b.CallContract(ctx, msg, nil)
	}
	return out, errs, nil
}

func position(id string) entity.Position {
	return entity.Position{
		ID:          id,
		PoolAddress: hexOf(poolAddress),
		Platform:    "uniswapV3",
		Token0:      hexOf(localWETH),
		Token1:      hexOf(localUSDC),
		Fee:         500,
		TickLower:   -600,
		TickUpper:   600,
		Liquidity:   "1000",
	}
}

func uniswapStub() *stubAdapter {
	return &stubAdapter{id: "uniswapV3", byOwner: map[string][]entity.Position{
		hexOf(vaultA):      {position("7")},
		hexOf(userAddress): {position("9"), position("7")},
	}}
}

type vaultFixture struct {
	reader  *evmtest.FakeReader
	svc     *vaultServiceImpl
	prices  *stubPrices
	metrics *metrics.Metrics
}

func newVaultFixture(t *testing.T, adapters ...port.PlatformAdapter) *vaultFixture {
	t.Helper()
	log := logger.Nop()
	m := metrics.NewMetrics(prometheus.NewRegistry(), "test")

	reg, err := contracts.NewRegistry(nil)
	require.NoError(t, err)
	resolver := provider.NewContractProvider(reg, strategydef.All(), time.Second, m, log)
	strategies := NewStrategyService(strategydef.All(), true, log)
	tokens := provider.NewTokenProvider([]entity.TokenDefinition{
		{Symbol: "WETH", Name: "Wrapped Ether", Decimals: 18, Addresses: map[string]string{"1337": localWETH}},
		{Symbol: "USDC", Name: "USD Coin", Decimals: 6, IsStablecoin: true, Addresses: map[string]string{"1337": localUSDC}},
	}, log)
	prices := &stubPrices{prices: map[string]float64{"WETH": 3000, "USDC": 1}}

	svc, ok := NewVaultService(resolver, strategies, tokens, stubAdapterProvider(adapters), prices, m, log, configloader.Default()).(*vaultServiceImpl)
	require.True(t, ok)
	svc.now = func() time.Time { return fixedNow }

	reader := evmtest.NewFakeReader(localChainID)
	seedVaults(t, reader)
	return &vaultFixture{reader: reader, svc: svc, prices: prices, metrics: m}
}

func seedVaults(t *testing.T, reader *evmtest.FakeReader) {
	t.Helper()
	factory, _ := contracts.ABI(contracts.VaultFactory)
	vault, _ := contracts.ABI(contracts.PositionVault)
	bob, _ := contracts.ABI(contracts.BobStrategy)
	erc20, _ := contracts.ABI(contracts.ERC20)

	reader.On(factoryAddress, factory, "getVaults", []common.Address{
		common.HexToAddress(vaultA), common.HexToAddress(vaultB),
	})
	reader.OnFunc(factoryAddress, factory, "getVaultInfo", func(args []any) ([]any, error) {
		name := "Vault " + args[0].(common.Address).Hex()[2:3]
		return []any{common.HexToAddress(userAddress), name, big.NewInt(1700000000)}, nil
	})

	reader.On(vaultA, vault, "executor", common.HexToAddress(executorAddr))
	reader.On(vaultA, vault, "strategy", common.HexToAddress(bobAddress))
	reader.On(vaultB, vault, "executor", common.HexToAddress(executorAddr))
	reader.On(vaultB, vault, "strategy", common.Address{})

	reader.On(bobAddress, bob, "selectedTemplate", uint8(2))
	reader.On(bobAddress, bob, "customizationBitmap", big.NewInt(5))
	reader.On(bobAddress, bob, "getAllParameters",
		uint16(10200), uint16(9800), uint16(200), uint16(200),
		true, big.NewInt(10000),
		uint16(8000), uint16(50), uint16(100), uint16(9500))
	reader.On(bobAddress, bob, "getSelectedTokens", []string{"WETH", "USDC"})
	reader.On(bobAddress, bob, "getSelectedPlatforms", []string{"uniswapV3"})

	balances := map[string]map[common.Address]*big.Int{
		localWETH: {common.HexToAddress(vaultA): big.NewInt(2e18)},
		localUSDC: {common.HexToAddress(vaultB): big.NewInt(1500e6)},
	}
	for token, byOwner := range balances {
		byOwner := byOwner
		reader.OnFunc(token, erc20, "balanceOf", func(args []any) ([]any, error) {
			if b, ok := byOwner[args[0].(common.Address)]; ok {
				return []any{b}, nil
			}
			return []any{big.NewInt(0)}, nil
		})
	}
}

func TestGetVaultData(t *testing.T) {
	fx := newVaultFixture(t, uniswapStub())

	res := fx.svc.GetVaultData(context.Background(), strings.ToLower(vaultA), fx.reader, localChainID)
	require.True(t, res.Success, res.Error)
	v := res.Vault
	require.NotNil(t, v)

	assert.Equal(t, hexOf(vaultA), v.Address)
	assert.Equal(t, hexOf(userAddress), v.Owner)
	assert.Equal(t, "Vault 1", v.Name)
	assert.Equal(t, int64(1700000000), v.CreationTime)
	assert.Equal(t, hexOf(executorAddr), v.Executor)
	assert.True(t, v.HasActiveStrategy)
	assert.Equal(t, hexOf(bobAddress), v.StrategyAddress)

	require.NotNil(t, v.Strategy)
	assert.Equal(t, "bob", v.Strategy.StrategyID)
	assert.Equal(t, "moderate", v.Strategy.ActiveTemplate)
	assert.Equal(t, "5", v.Strategy.CustomizationBitmap)
	assert.Equal(t, []string{"WETH", "USDC"}, v.Strategy.SelectedTokens)
	assert.Equal(t, []string{"uniswapV3"}, v.Strategy.SelectedPlatforms)
	assert.Equal(t, entity.StringParam("100.0"), v.Strategy.Parameters["reinvestmentTrigger"])
	assert.Equal(t, entity.NumberParam(102), v.Strategy.Parameters["targetRangeUpper"])
	assert.Equal(t, fixedNow.UnixMilli(), v.Strategy.LastUpdated)
	assert.Equal(t, v.Strategy.Parameters, v.Parameters)

	require.Len(t, res.VaultTokens, 1, "zero balances are dropped")
	weth := res.VaultTokens[0]
	assert.Equal(t, "WETH", weth.Symbol)
	assert.Equal(t, "2.0", weth.Balance)
	assert.Equal(t, 2.0, weth.NumericalBalance)
	assert.InDelta(t, 6000, weth.ValueUSD, 1e-9)
	assert.InDelta(t, 6000, res.TotalTokenValue, 1e-9)

	require.Len(t, res.Positions, 1)
	assert.True(t, res.Positions[0].InVault)
	assert.Equal(t, hexOf(vaultA), res.Positions[0].VaultAddress)
	assert.Equal(t, []string{"7"}, v.Positions)
	assert.Contains(t, res.PoolData, hexOf(poolAddress))
	assert.Len(t, res.TokenData, 2)

	assert.Equal(t, entity.VaultMetrics{
		TVL:            3500,
		TokenTVL:       6000,
		HasPartialData: false,
		PositionCount:  1,
		LastTVLUpdate:  fixedNow.UnixMilli(),
	}, v.Metrics)

	assert.Equal(t, 1, fx.prices.prefetches, "one prefetch per vault")
	assert.Equal(t, 1.0, testutil.ToFloat64(fx.metrics.VaultsProcessed.WithLabelValues("ok")))
}

func TestGetVaultDataBatchedBalances(t *testing.T) {
	fx := newVaultFixture(t, uniswapStub())
	reader := &batchingReader{FakeReader: fx.reader}

	res := fx.svc.GetVaultData(context.Background(), vaultA, reader, localChainID)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, int32(1), atomic.LoadInt32(&reader.batches))
	require.Len(t, res.VaultTokens, 1)
	assert.Equal(t, "WETH", res.VaultTokens[0].Symbol)
	assert.False(t, res.Vault.Metrics.HasPartialData)

	// same answer as the per-token path
	single := fx.svc.GetVaultData(context.Background(), vaultA, fx.reader, localChainID)
	assert.Equal(t, single, res)
}

func TestGetVaultDataWithoutStrategy(t *testing.T) {
	fx := newVaultFixture(t, uniswapStub())

	res := fx.svc.GetVaultData(context.Background(), vaultB, fx.reader, localChainID)
	require.True(t, res.Success, res.Error)
	assert.False(t, res.Vault.HasActiveStrategy)
	assert.Nil(t, res.Vault.Strategy)
	assert.Empty(t, res.Vault.StrategyAddress)
	assert.Equal(t, entity.ParamValues{}, res.Vault.Parameters)
	assert.Zero(t, fx.reader.Calls("getAllParameters"), "no decode is attempted")
	assert.Zero(t, fx.reader.Calls("selectedTemplate"))

	require.Len(t, res.VaultTokens, 1)
	assert.Equal(t, "USDC", res.VaultTokens[0].Symbol)
	assert.Equal(t, "1500.0", res.VaultTokens[0].Balance)
	assert.Empty(t, res.Positions)
	assert.Equal(t, []string{}, res.Vault.Positions)
	assert.Equal(t, 0.0, res.Vault.Metrics.TVL)
}

func TestGetVaultDataAdapterFailureIsIsolated(t *testing.T) {
	broken := &stubAdapter{id: "sushiswapV3", err: errors.New("subgraph unavailable")}
	fx := newVaultFixture(t, uniswapStub(), broken)

	res := fx.svc.GetVaultData(context.Background(), vaultA, fx.reader, localChainID)
	require.True(t, res.Success, res.Error)
	require.Len(t, res.Positions, 1)
	assert.Equal(t, "uniswapV3", res.Positions[0].Platform)
	assert.InDelta(t, 3500, res.Vault.Metrics.TVL, 1e-9)
	assert.True(t, res.Vault.Metrics.HasPartialData)
	assert.Equal(t, int32(1), atomic.LoadInt32(&broken.calls))
	assert.Equal(t, 1.0, testutil.ToFloat64(fx.metrics.AdapterErrors.WithLabelValues("sushiswapV3")))
}

func TestGetVaultDataDegradedStrategy(t *testing.T) {
	fx := newVaultFixture(t, uniswapStub())
	bob, _ := contracts.ABI(contracts.BobStrategy)
	fx.reader.Fail(bobAddress, bob, "selectedTemplate", errors.New("header not found"))

	res := fx.svc.GetVaultData(context.Background(), vaultA, fx.reader, localChainID)
	require.True(t, res.Success, res.Error)
	assert.True(t, res.Vault.HasActiveStrategy)
	assert.Nil(t, res.Vault.Strategy)
	assert.True(t, res.Vault.Metrics.HasPartialData)
	assert.Equal(t, 1.0, testutil.ToFloat64(fx.metrics.StageErrors.WithLabelValues(StageStrategy)))
}

func TestGetVaultDataMissingPrice(t *testing.T) {
	fx := newVaultFixture(t, uniswapStub())
	delete(fx.prices.prices, "USDC")

	res := fx.svc.GetVaultData(context.Background(), vaultA, fx.reader, localChainID)
	require.True(t, res.Success, res.Error)
	assert.True(t, res.Vault.Metrics.HasPartialData)
	assert.InDelta(t, 3000, res.Vault.Metrics.TVL, 1e-9, "known side is still counted")
}

func TestGetVaultDataBasicInfoFailure(t *testing.T) {
	fx := newVaultFixture(t, uniswapStub())
	vault, _ := contracts.ABI(contracts.PositionVault)
	fx.reader.Fail(vaultA, vault, "executor", errors.New("execution reverted"))

	res := fx.svc.GetVaultData(context.Background(), vaultA, fx.reader, localChainID)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, StageBasicInfo)
	assert.Nil(t, res.Vault)
	assert.Equal(t, 1.0, testutil.ToFloat64(fx.metrics.VaultsProcessed.WithLabelValues("failed")))
}

func TestGetVaultDataFactoryMetadataDegrades(t *testing.T) {
	fx := newVaultFixture(t, uniswapStub())
	factory, _ := contracts.ABI(contracts.VaultFactory)
	fx.reader.Fail(factoryAddress, factory, "getVaultInfo", errors.New("execution reverted"))

	res := fx.svc.GetVaultData(context.Background(), vaultA, fx.reader, localChainID)
	require.True(t, res.Success, res.Error)
	v := res.Vault
	assert.Empty(t, v.Owner)
	assert.Empty(t, v.Name)
	assert.Zero(t, v.CreationTime)
	assert.Equal(t, hexOf(executorAddr), v.Executor)
	require.NotNil(t, v.Strategy, "later stages still run")
	assert.True(t, v.Metrics.HasPartialData)
	assert.InDelta(t, 3500, v.Metrics.TVL, 1e-9)
	assert.Equal(t, 1.0, testutil.ToFloat64(fx.metrics.StageErrors.WithLabelValues(StageBasicInfo)))
	assert.Equal(t, 1.0, testutil.ToFloat64(fx.metrics.PartialResults.WithLabelValues("vault_factory")))
}

func TestGetVaultDataParameterDecodeErrors(t *testing.T) {
	bob, _ := contracts.ABI(contracts.BobStrategy)
	fed, _ := contracts.ABI(contracts.FedStrategy)
	bobOut, err := bob.Methods["getAllParameters"].Outputs.Pack(
		uint16(10200), uint16(9800), uint16(200), uint16(200),
		true, big.NewInt(10000),
		uint16(8000), uint16(50), uint16(100), uint16(9500))
	require.NoError(t, err)
	fedOut, err := fed.Methods["getAllParameters"].Outputs.Pack(uint16(100), uint16(50), true, uint16(50))
	require.NoError(t, err)

	longer := append(append([]byte(nil), bobOut...), make([]byte, 32)...)
	badBool := append([]byte(nil), bobOut...)
	badBool[5*32-1] = 2 // feeReinvestment

	tests := []struct {
		name    string
		output  []byte
		message string
	}{
		{"fed tuple on bob contract", fedOut, "expected 10 parameters, got 4"},
		{"extra trailing slot", longer, "expected 10 parameters, got 11"},
		{"malformed boolean slot", badBool, "undecodable parameters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newVaultFixture(t, uniswapStub())
			fx.reader.OnRaw(bobAddress, bob, "getAllParameters", tt.output)

			res := fx.svc.GetVaultData(context.Background(), vaultA, fx.reader, localChainID)
			assert.False(t, res.Success)
			assert.Nil(t, res.Vault)
			assert.Contains(t, res.Error, "stage "+StageStrategy)
			assert.Contains(t, res.Error, tt.message)
			assert.Equal(t, 1.0, testutil.ToFloat64(fx.metrics.VaultsProcessed.WithLabelValues("failed")))

			user := fx.svc.GetAllUserVaultData(context.Background(), userAddress, fx.reader, localChainID)
			require.True(t, user.Success, user.Error)
			require.Len(t, user.FailedVaults, 1)
			assert.Equal(t, StageStrategy, user.FailedVaults[0].Stage)
			require.Len(t, user.Vaults, 1)
			assert.Equal(t, hexOf(vaultB), user.Vaults[0].Vault.Address)
		})
	}
}

func TestGetVaultDataPartialPositions(t *testing.T) {
	const (
		otherPool    = "0x9100000000000000000000000000000000000091"
		unknownToken = "0x9200000000000000000000000000000000000092"
	)
	withPool := position("8")
	withPool.PoolAddress = hexOf(otherPool)
	withToken := position("8")
	withToken.Token1 = hexOf(unknownToken)
	withPlatform := position("8")
	withPlatform.Platform = "sushiswapV3"

	tests := []struct {
		name   string
		broken entity.Position
		reason string
	}{
		{"pool data missing", withPool, "pool_data"},
		{"token symbol missing", withToken, "token_data"},
		{"adapter missing", withPlatform, "adapter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := &stubAdapter{
				id:           "uniswapV3",
				byOwner:      map[string][]entity.Position{hexOf(vaultA): {position("7"), tt.broken}},
				missingPools: map[string]bool{hexOf(otherPool): true},
			}
			fx := newVaultFixture(t, adapter)

			res := fx.svc.GetVaultData(context.Background(), vaultA, fx.reader, localChainID)
			require.True(t, res.Success, res.Error)
			assert.Len(t, res.Positions, 2, "the position is still reported")
			assert.Equal(t, 2, res.Vault.Metrics.PositionCount)
			assert.True(t, res.Vault.Metrics.HasPartialData)
			assert.InDelta(t, 3500, res.Vault.Metrics.TVL, 1e-9, "only the complete position is valued")
			assert.Equal(t, 1.0, testutil.ToFloat64(fx.metrics.StageErrors.WithLabelValues(StageTVL)))
			assert.Equal(t, 1.0, testutil.ToFloat64(fx.metrics.PartialResults.WithLabelValues(tt.reason)))
		})
	}
}

func TestGetVaultDataMissingArguments(t *testing.T) {
	fx := newVaultFixture(t, uniswapStub())
	ctx := context.Background()

	tests := []struct {
		name    string
		address string
		reader  port.ChainReader
		chainID uint64
		wantErr string
	}{
		{"empty address", "", fx.reader, localChainID, "missing required argument"},
		{"nil reader", vaultA, nil, localChainID, "missing required argument"},
		{"zero chain", vaultA, fx.reader, 0, "missing required argument"},
		{"malformed address", "0x123", fx.reader, localChainID, "invalid argument"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := fx.svc.GetVaultData(ctx, tt.address, tt.reader, tt.chainID)
			assert.False(t, res.Success)
			assert.Contains(t, res.Error, tt.wantErr)

			user := fx.svc.GetAllUserVaultData(ctx, tt.address, tt.reader, tt.chainID)
			assert.False(t, user.Success)
			assert.Contains(t, user.Error, tt.wantErr)
		})
	}
	assert.Zero(t, fx.reader.Calls("executor"), "no I/O before argument checks")
	assert.Zero(t, fx.reader.Calls("getVaults"))
}

func TestGetVaultDataIsIdempotent(t *testing.T) {
	fx := newVaultFixture(t, uniswapStub())
	first := fx.svc.GetVaultData(context.Background(), vaultA, fx.reader, localChainID)
	fx.svc.now = func() time.Time { return fixedNow.Add(time.Minute) }
	second := fx.svc.GetVaultData(context.Background(), vaultA, fx.reader, localChainID)

	require.True(t, first.Success)
	require.True(t, second.Success)
	second.Vault.Metrics.LastTVLUpdate = first.Vault.Metrics.LastTVLUpdate
	second.Vault.Strategy.LastUpdated = first.Vault.Strategy.LastUpdated
	assert.Equal(t, first, second)
}

func TestGetAllUserVaultData(t *testing.T) {
	fx := newVaultFixture(t, uniswapStub())

	res := fx.svc.GetAllUserVaultData(context.Background(), userAddress, fx.reader, localChainID)
	require.True(t, res.Success, res.Error)
	require.Len(t, res.Vaults, 2)
	assert.Equal(t, hexOf(vaultA), res.Vaults[0].Vault.Address, "vault order follows the factory")
	assert.Equal(t, hexOf(vaultB), res.Vaults[1].Vault.Address)
	assert.Empty(t, res.FailedVaults)

	require.Len(t, res.Positions.VaultPositions, 1)
	assert.Equal(t, "7", res.Positions.VaultPositions[0].ID)
	assert.True(t, res.Positions.VaultPositions[0].InVault)

	require.Len(t, res.Positions.NonVaultPositions, 1, "vault positions are filtered out by ID")
	assert.Equal(t, "9", res.Positions.NonVaultPositions[0].ID)
	assert.False(t, res.Positions.NonVaultPositions[0].InVault)

	assert.Contains(t, res.PoolData, hexOf(poolAddress))
	assert.Contains(t, res.TokenData, hexOf(localWETH))
	assert.Equal(t, 2.0, testutil.ToFloat64(fx.metrics.VaultsProcessed.WithLabelValues("ok")))
}

func TestGetAllUserVaultDataIsolatesFailures(t *testing.T) {
	fx := newVaultFixture(t, uniswapStub())
	factory, _ := contracts.ABI(contracts.VaultFactory)
	fx.svc.maxConcurrentVaults = 2
	fx.reader.On(factoryAddress, factory, "getVaults", []common.Address{
		common.HexToAddress(vaultBroken), common.HexToAddress(vaultA),
	})

	res := fx.svc.GetAllUserVaultData(context.Background(), userAddress, fx.reader, localChainID)
	require.True(t, res.Success, res.Error)
	require.Len(t, res.Vaults, 1)
	assert.Equal(t, hexOf(vaultA), res.Vaults[0].Vault.Address)

	require.Len(t, res.FailedVaults, 1)
	failure := res.FailedVaults[0]
	assert.Equal(t, hexOf(vaultBroken), failure.Address)
	assert.Equal(t, StageBasicInfo, failure.Stage)
	assert.Contains(t, failure.Error, "execution reverted")
}

func TestGetAllUserVaultDataFactoryFailure(t *testing.T) {
	fx := newVaultFixture(t, uniswapStub())
	factory, _ := contracts.ABI(contracts.VaultFactory)
	fx.reader.Fail(factoryAddress, factory, "getVaults", errors.New("connection refused"))

	res := fx.svc.GetAllUserVaultData(context.Background(), userAddress, fx.reader, localChainID)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "connection refused")
	assert.Empty(t, res.Vaults)
}
