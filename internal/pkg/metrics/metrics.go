package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains the Prometheus metrics of the vault aggregation pipeline.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	StageDuration   *prometheus.HistogramVec
	StageErrors     *prometheus.CounterVec
	AdapterErrors   *prometheus.CounterVec
	PartialResults  *prometheus.CounterVec
	VaultsProcessed *prometheus.CounterVec

	PriceCacheHits   prometheus.Counter
	PriceCacheMisses prometheus.Counter
	PriceFetchErrors prometheus.Counter

	RPCCalls *prometheus.CounterVec
}

// NewMetrics creates and registers the metrics on reg.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "vault_pipeline_stage_duration_seconds",
			Help:      "Time spent in each stage of the vault aggregation pipeline.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		StageErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vault_pipeline_stage_errors_total",
			Help:      "Failures per pipeline stage, fatal or degraded.",
		}, []string{"stage"}),
		AdapterErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vault_pipeline_adapter_errors_total",
			Help:      "Platform adapter failures, labeled by platform.",
		}, []string{"platform"}),
		PartialResults: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vault_pipeline_partial_results_total",
			Help:      "Vault results flagged with partial data, labeled by reason.",
		}, []string{"reason"}),
		VaultsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vault_pipeline_vaults_processed_total",
			Help:      "Vaults aggregated, labeled by outcome.",
		}, []string{"outcome"}),

		PriceCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "price_cache_hits_total",
			Help:      "Symbols served from the in-memory price cache during prefetch.",
		}),
		PriceCacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "price_cache_misses_total",
			Help:      "Symbols that had to be fetched from a price source.",
		}),
		PriceFetchErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "price_fetch_errors_total",
			Help:      "Failed price source requests.",
		}),

		RPCCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_calls_total",
			Help:      "Contract calls issued, labeled by chain and outcome.",
		}, []string{"chain_id", "outcome"}),
	}
}

// ObserveStage records the duration of a stage started at start.
func (m *Metrics) ObserveStage(stage string, start time.Time) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// StageError counts a failed stage.
func (m *Metrics) StageError(stage string) {
	if m == nil {
		return
	}
	m.StageErrors.WithLabelValues(stage).Inc()
}

// AdapterError counts a failed adapter call.
func (m *Metrics) AdapterError(platform string) {
	if m == nil {
		return
	}
	m.AdapterErrors.WithLabelValues(platform).Inc()
}

// Partial counts a partial-data marker.
func (m *Metrics) Partial(reason string) {
	if m == nil {
		return
	}
	m.PartialResults.WithLabelValues(reason).Inc()
}

// VaultProcessed counts an aggregated vault by outcome ("ok", "partial", "failed").
func (m *Metrics) VaultProcessed(outcome string) {
	if m == nil {
		return
	}
	m.VaultsProcessed.WithLabelValues(outcome).Inc()
}

func (m *Metrics) PriceCacheHit(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.PriceCacheHits.Add(float64(n))
}

func (m *Metrics) PriceCacheMiss(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.PriceCacheMisses.Add(float64(n))
}

func (m *Metrics) PriceFetchError() {
	if m == nil {
		return
	}
	m.PriceFetchErrors.Inc()
}

// RPCCall counts a contract call on a chain.
func (m *Metrics) RPCCall(chainID string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.RPCCalls.WithLabelValues(chainID, outcome).Inc()
}
