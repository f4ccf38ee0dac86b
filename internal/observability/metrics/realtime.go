package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// RealtimeMetrics tracks the websocket distribution layer.
type RealtimeMetrics struct {
	openConnections     prometheus.Gauge
	activeSubscriptions prometheus.Gauge
	eventsPublished     *prometheus.CounterVec
	eventsDropped       *prometheus.CounterVec
}

// NewRealtimeMetrics registers distribution-layer instruments.
func NewRealtimeMetrics(cfg Config, reg *Registry) *RealtimeMetrics {
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": cfg.serviceName(),
		"env":     environment,
	}

	openConnections := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "procura_realtime_open_connections",
		Help:        "Number of live websocket connections.",
		ConstLabels: constLabels,
	})
	activeSubscriptions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "procura_realtime_active_subscriptions",
		Help:        "Number of resource subscriptions held across all connections.",
		ConstLabels: constLabels,
	})
	eventsPublished := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "procura_realtime_events_published_total",
		Help:        "Events fanned out to subscribers by scope.",
		ConstLabels: constLabels,
	}, []string{"scope"}) // global | resource | actor
	eventsDropped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "procura_realtime_events_dropped_total",
		Help:        "Events dropped because a connection could not accept them.",
		ConstLabels: constLabels,
	}, []string{"reason"}) // queue_full | closed

	if reg != nil && reg.Prometheus != nil {
		reg.Prometheus.MustRegister(openConnections, activeSubscriptions, eventsPublished, eventsDropped)
	}

	return &RealtimeMetrics{
		openConnections:     openConnections,
		activeSubscriptions: activeSubscriptions,
		eventsPublished:     eventsPublished,
		eventsDropped:       eventsDropped,
	}
}

func (m *RealtimeMetrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.openConnections.Inc()
}

func (m *RealtimeMetrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.openConnections.Dec()
}

func (m *RealtimeMetrics) SubscriptionAdded() {
	if m == nil {
		return
	}
	m.activeSubscriptions.Inc()
}

func (m *RealtimeMetrics) SubscriptionRemoved() {
	if m == nil {
		return
	}
	m.activeSubscriptions.Dec()
}

func (m *RealtimeMetrics) EventPublished(scope string) {
	if m == nil {
		return
	}
	m.eventsPublished.WithLabelValues(scope).Inc()
}

func (m *RealtimeMetrics) EventDropped(reason string) {
	if m == nil {
		return
	}
	m.eventsDropped.WithLabelValues(reason).Inc()
}
