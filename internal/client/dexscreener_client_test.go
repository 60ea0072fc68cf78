package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const arrayBody = `[{"chainId":"arbitrum","dexId":"uniswap","pairAddress":"0xpair",
"baseToken":{"address":"0xaaa","name":"Wrapped Ether","symbol":"WETH"},
"quoteToken":{"address":"0xbbb","name":"USD Coin","symbol":"USDC"},
"priceUsd":"3000.5","liquidity":{"usd":1000000}}]`

func TestGetTokenPairsByAddresses(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		switch r.URL.Path {
		case "/tokens/v1/arbitrum/0xaaa,0xccc":
			_, _ = w.Write([]byte(arrayBody))
		case "/tokens/v1/base/0xaaa":
			_, _ = w.Write([]byte(`{"schemaVersion":"1.0.0","pairs":null}`))
		default:
			w.WriteHeader(http.StatusTooManyRequests)
		}
	}))
	defer srv.Close()

	c := NewDEXScreenerClient(srv.URL+"/", time.Second, zap.NewNop(), 2)
	ctx := context.Background()

	pairs, err := c.GetTokenPairsByAddresses(ctx, "arbitrum", []string{"0xaaa", "0xccc"})
	require.NoError(t, err)
	assert.Equal(t, "/tokens/v1/arbitrum/0xaaa,0xccc", gotPath)
	require.Len(t, pairs, 1)
	assert.Equal(t, "WETH", pairs[0].BaseToken.Symbol)
	assert.Equal(t, "3000.5", pairs[0].PriceUsd)
	require.NotNil(t, pairs[0].Liquidity)
	assert.Equal(t, 1000000.0, pairs[0].Liquidity.Usd)

	pairs, err = c.GetTokenPairsByAddresses(ctx, "base", []string{"0xaaa"})
	require.NoError(t, err)
	assert.Empty(t, pairs)

	_, err = c.GetTokenPairsByAddresses(ctx, "ethereum", []string{"0xaaa"})
	assert.ErrorContains(t, err, "status 429")

	_, err = c.GetTokenPairsByAddresses(ctx, "arbitrum", []string{"0x1", "0x2", "0x3"})
	assert.ErrorContains(t, err, "exceeds max tokens")

	_, err = c.GetTokenPairsByAddresses(ctx, "arbitrum", nil)
	assert.Error(t, err)
}

func TestGetTokenPairsCanceledContext(t *testing.T) {
	c := NewDEXScreenerClient("http://127.0.0.1:1", time.Second, zap.NewNop(), 30)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.GetTokenPairsByAddresses(ctx, "arbitrum", []string{"0xaaa"})
	assert.ErrorIs(t, err, context.Canceled)
}
