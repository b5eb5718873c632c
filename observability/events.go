package observability

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type streamMetrics struct {
	actions     *prometheus.CounterVec
	subscribers prometheus.Gauge
	dropped     prometheus.Counter
}

var (
	streamMetricsOnce sync.Once
	streamRegistry    *streamMetrics
)

// Stream returns the metrics registry tracking dispatched actions fanned out
// to stream subscribers.
func Stream() *streamMetrics {
	streamMetricsOnce.Do(func() {
		streamRegistry = &streamMetrics{
			actions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "walletd",
				Subsystem: "stream",
				Name:      "actions_total",
				Help:      "Count of store actions delivered to stream subscribers segmented by type.",
			}, []string{"type"}),
			subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "walletd",
				Subsystem: "stream",
				Name:      "subscribers",
				Help:      "Number of connected stream subscribers.",
			}),
			dropped: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "walletd",
				Subsystem: "stream",
				Name:      "dropped_total",
				Help:      "Actions dropped because a subscriber buffer was full.",
			}),
		}
		prometheus.MustRegister(streamRegistry.actions, streamRegistry.subscribers, streamRegistry.dropped)
	})
	return streamRegistry
}

// RecordAction increments the delivered counter for the supplied action type.
func (m *streamMetrics) RecordAction(actionType string) {
	if m == nil {
		return
	}
	normalized := strings.TrimSpace(actionType)
	if normalized == "" {
		normalized = "unknown"
	}
	m.actions.WithLabelValues(normalized).Inc()
}

// SubscriberConnected tracks a new stream subscriber.
func (m *streamMetrics) SubscriberConnected() {
	if m == nil {
		return
	}
	m.subscribers.Inc()
}

// SubscriberDisconnected tracks a closed stream subscriber.
func (m *streamMetrics) SubscriberDisconnected() {
	if m == nil {
		return
	}
	m.subscribers.Dec()
}

// RecordDropped counts an action a slow subscriber missed.
func (m *streamMetrics) RecordDropped() {
	if m == nil {
		return
	}
	m.dropped.Inc()
}
