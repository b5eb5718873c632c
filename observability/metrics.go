package observability

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "nanowallet/orchestrator"

// WalletMetrics tracks the transaction orchestration workflows and the peer
// calls they issue.
type WalletMetrics struct {
	workflows   *prometheus.CounterVec
	enrichment  *prometheus.CounterVec
	peerLatency *prometheus.HistogramVec
	stale       *prometheus.CounterVec
	pending     prometheus.Gauge

	workflowCounter metric.Int64Counter
	peerHistogram   metric.Float64Histogram
}

var (
	walletMetricsOnce sync.Once
	walletRegistry    *WalletMetrics
)

// Wallet returns the lazily-initialised metrics registered on the default
// Prometheus registerer.
func Wallet() *WalletMetrics {
	walletMetricsOnce.Do(func() {
		walletRegistry = NewWalletMetrics(prometheus.DefaultRegisterer)
	})
	return walletRegistry
}

// NewWalletMetrics builds a metrics set registered on reg. Tests pass a
// private registry to avoid duplicate registration panics. Workflow counts
// and peer latency are also exported through the global OTel meter provider.
func NewWalletMetrics(reg prometheus.Registerer) *WalletMetrics {
	return NewWalletMetricsWithMeter(reg, otel.GetMeterProvider().Meter(meterName))
}

// NewWalletMetricsWithMeter is NewWalletMetrics with an explicit OTel meter.
func NewWalletMetricsWithMeter(reg prometheus.Registerer, meter metric.Meter) *WalletMetrics {
	m := &WalletMetrics{
		workflows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "walletd",
			Subsystem: "orchestrator",
			Name:      "workflows_total",
			Help:      "Transaction workflow invocations segmented by workflow and outcome.",
		}, []string{"workflow", "outcome"}),
		enrichment: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "walletd",
			Subsystem: "orchestrator",
			Name:      "enrichment_failures_total",
			Help:      "Delegate lookups that failed and were dropped without surfacing an error.",
		}, []string{"workflow"}),
		peerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "walletd",
			Subsystem: "peer",
			Name:      "request_duration_seconds",
			Help:      "Latency distribution for peer API requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "outcome"}),
		stale: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "walletd",
			Subsystem: "store",
			Name:      "stale_results_total",
			Help:      "Workflow results ignored because the view moved on before they arrived.",
		}, []string{"action"}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "walletd",
			Subsystem: "store",
			Name:      "pending_transactions",
			Help:      "Number of locally pending transactions awaiting confirmation.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.workflows, m.enrichment, m.peerLatency, m.stale, m.pending)
	}
	m.initMeter(meter)
	return m
}

func (m *WalletMetrics) initMeter(meter metric.Meter) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter(meterName)
	}
	counter, err := meter.Int64Counter("walletd.orchestrator.workflows",
		metric.WithDescription("Transaction workflow invocations."))
	if err != nil {
		counter, _ = noop.NewMeterProvider().Meter(meterName).Int64Counter("walletd.orchestrator.workflows")
	}
	histogram, err := meter.Float64Histogram("walletd.peer.request.duration",
		metric.WithDescription("Peer API request latency."),
		metric.WithUnit("s"))
	if err != nil {
		histogram, _ = noop.NewMeterProvider().Meter(meterName).Float64Histogram("walletd.peer.request.duration")
	}
	m.workflowCounter = counter
	m.peerHistogram = histogram
}

// RecordWorkflow counts one workflow invocation. A nil error is a success.
func (m *WalletMetrics) RecordWorkflow(workflow string, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.workflows.WithLabelValues(normalizeLabel(workflow), outcome).Inc()
	if m.workflowCounter != nil {
		m.workflowCounter.Add(context.Background(), 1, metric.WithAttributes(
			attribute.String("workflow", normalizeLabel(workflow)),
			attribute.String("outcome", outcome)))
	}
}

// RecordEnrichmentFailure counts a swallowed delegate lookup failure.
func (m *WalletMetrics) RecordEnrichmentFailure(workflow string) {
	if m == nil {
		return
	}
	m.enrichment.WithLabelValues(normalizeLabel(workflow)).Inc()
}

// ObservePeer records the latency of one peer API call.
func (m *WalletMetrics) ObservePeer(operation string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.peerLatency.WithLabelValues(normalizeLabel(operation), outcome).Observe(duration.Seconds())
	if m.peerHistogram != nil {
		m.peerHistogram.Record(context.Background(), duration.Seconds(), metric.WithAttributes(
			attribute.String("operation", normalizeLabel(operation)),
			attribute.String("outcome", outcome)))
	}
}

// RecordStale counts a result discarded by the staleness guard.
func (m *WalletMetrics) RecordStale(action string) {
	if m == nil {
		return
	}
	m.stale.WithLabelValues(normalizeLabel(action)).Inc()
}

// SetPending publishes the current size of the pending set.
func (m *WalletMetrics) SetPending(count int) {
	if m == nil {
		return
	}
	m.pending.Set(float64(count))
}

// Collectors exposes the underlying collectors for test assertions.
func (m *WalletMetrics) Collectors() (workflows, enrichment, stale *prometheus.CounterVec, pending prometheus.Gauge) {
	return m.workflows, m.enrichment, m.stale, m.pending
}

func normalizeLabel(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "unknown"
	}
	return trimmed
}
