package provider

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"vault_client/internal/domain/entity"
	"vault_client/internal/infrastructure/contracts"
	"vault_client/internal/infrastructure/strategydef"
	"vault_client/internal/pkg/evmtest"
	"vault_client/internal/pkg/logger"
	"vault_client/internal/pkg/metrics"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContractProvider(t *testing.T, m *metrics.Metrics) *contractProviderImpl {
	t.Helper()
	reg, err := contracts.NewRegistry(nil)
	require.NoError(t, err)
	p, ok := NewContractProvider(reg, strategydef.All(), time.Second, m, logger.Nop()).(*contractProviderImpl)
	require.True(t, ok)
	return p
}

func TestGetContract(t *testing.T) {
	m := metrics.NewMetrics(prometheus.NewRegistry(), "test")
	p := newTestContractProvider(t, m)
	ctx := context.Background()

	reader := evmtest.NewFakeReader(contracts.LocalChainID)
	factoryABI, _ := contracts.ABI(contracts.VaultFactory)
	reader.On("0x5FbDB2315678afecb367f032d93F642f64180aa3", factoryABI, "getVaultCount", big.NewInt(3))

	c, err := p.GetContract(ctx, contracts.VaultFactory, reader)
	require.NoError(t, err)
	assert.Equal(t, contracts.VaultFactory, c.Name())
	assert.Equal(t, common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3").Hex(), c.Address())

	out, err := c.Call(ctx, "getVaultCount")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(3), out[0])
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RPCCalls.WithLabelValues("1337", "ok")))
}

func TestGetContractErrors(t *testing.T) {
	p := newTestContractProvider(t, nil)
	ctx := context.Background()

	var invalid *entity.InvalidProviderError
	_, err := p.GetContract(ctx, contracts.VaultFactory, nil)
	assert.ErrorAs(t, err, &invalid)

	broken := evmtest.NewFakeReader(1)
	rpcErr := errors.New("dial tcp: connection refused")
	broken.FailChainID(rpcErr)
	_, err = p.GetContract(ctx, contracts.VaultFactory, broken)
	require.ErrorAs(t, err, &invalid)
	assert.ErrorIs(t, err, rpcErr)

	var notFound *entity.NotFoundError
	_, err = p.GetContract(ctx, "Treasury", evmtest.NewFakeReader(1337))
	assert.ErrorAs(t, err, &notFound)

	var noDeployment *entity.NoDeploymentError
	_, err = p.GetContract(ctx, contracts.VaultFactory, evmtest.NewFakeReader(8453))
	require.ErrorAs(t, err, &noDeployment)
	assert.Equal(t, uint64(8453), noDeployment.ChainID)
}

func TestGetContractAt(t *testing.T) {
	p := newTestContractProvider(t, nil)
	reader := evmtest.NewFakeReader(1)

	c, err := p.GetContractAt(1, contracts.ERC20, "0xaf88d065e77c8cC2239327C5EDb3A432268e5831", reader)
	require.NoError(t, err)
	assert.Equal(t, contracts.ERC20, c.Name())

	_, err = p.GetContractAt(1, contracts.ERC20, "0x123", reader)
	assert.Error(t, err)

	_, err = p.GetContractAt(1, contracts.ERC20, "", reader)
	assert.ErrorIs(t, err, entity.ErrMissingArgument)
}

func TestStrategyAddressMap(t *testing.T) {
	p := newTestContractProvider(t, nil)

	local := p.StrategyAddressMap(contracts.LocalChainID)
	require.Len(t, local, 2)
	bob, ok := local["0xe7f1725e7734ce288f8367e1bb143e90bb3f0512"]
	require.True(t, ok)
	assert.Equal(t, entity.StrategyRef{StrategyID: "bob", ContractKey: contracts.BobStrategy, ChainID: contracts.LocalChainID}, bob)

	assert.Empty(t, p.StrategyAddressMap(1))
}
