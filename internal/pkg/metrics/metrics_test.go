package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg, "test")

	m.StageError("basic_info")
	m.StageError("basic_info")
	m.AdapterError("uniswapV3")
	m.Partial("missing_price")
	m.PriceCacheHit(3)
	m.PriceCacheMiss(0)
	m.RPCCall("1", errors.New("boom"))
	m.RPCCall("1", nil)
	m.ObserveStage("positions", time.Now())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.StageErrors.WithLabelValues("basic_info")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AdapterErrors.WithLabelValues("uniswapV3")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PartialResults.WithLabelValues("missing_price")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.PriceCacheHits))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.PriceCacheMisses))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RPCCalls.WithLabelValues("1", "error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.StageDuration))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.StageError("x")
		m.AdapterError("x")
		m.Partial("x")
		m.VaultProcessed("ok")
		m.PriceCacheHit(1)
		m.PriceCacheMiss(1)
		m.PriceFetchError()
		m.RPCCall("1", nil)
		m.ObserveStage("x", time.Now())
	})
}
