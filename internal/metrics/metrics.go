package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "itemsync"

// Metrics holds Prometheus collectors of the sync engine and the reference server.
// All methods are safe to call on a nil *Metrics.
type Metrics struct {
	ConnectionTransitions *prometheus.CounterVec
	ReconnectAttempts     prometheus.Counter
	FramesDropped         *prometheus.CounterVec
	RemoteApplied         *prometheus.CounterVec
	OutboxPending         prometheus.Gauge
	DrainEntries          *prometheus.CounterVec
	SyncCycles            *prometheus.CounterVec

	ServerSessions   prometheus.Gauge
	ServerBroadcasts *prometheus.CounterVec
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
}

// New creates collectors and registers them with reg.
// A fresh registry per instance keeps tests free of duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ConnectionTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connection_transitions_total",
			Help:      "Connection state transitions by target state",
		}, []string{"state"}),
		ReconnectAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconnect_attempts_total",
			Help:      "Scheduled reconnect attempts",
		}),
		FramesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_dropped_total",
			Help:      "Inbound frames rejected by the codec",
		}, []string{"reason"}),
		RemoteApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_changes_total",
			Help:      "Remote changes by reconciliation outcome",
		}, []string{"outcome"}),
		OutboxPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "outbox_pending",
			Help:      "Pending changes in the outbox",
		}),
		DrainEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drain_entries_total",
			Help:      "Outbox entries processed by result",
		}, []string{"op", "result"}),
		SyncCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_cycles_total",
			Help:      "Sync cycles by kind and result",
		}, []string{"kind", "result"}),
		ServerSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "server_sessions",
			Help:      "Active websocket sessions",
		}),
		ServerBroadcasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "server_broadcasts_total",
			Help:      "Messages fanned out to sessions by type",
		}, []string{"type"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.ConnectionTransitions,
			m.ReconnectAttempts,
			m.FramesDropped,
			m.RemoteApplied,
			m.OutboxPending,
			m.DrainEntries,
			m.SyncCycles,
			m.ServerSessions,
			m.ServerBroadcasts,
			m.HTTPRequests,
			m.HTTPDuration,
		)
	}

	return m
}

func (m *Metrics) ConnectionState(state string) {
	if m == nil {
		return
	}
	m.ConnectionTransitions.WithLabelValues(state).Inc()
}

func (m *Metrics) ReconnectScheduled() {
	if m == nil {
		return
	}
	m.ReconnectAttempts.Inc()
}

func (m *Metrics) FrameDropped(reason string) {
	if m == nil {
		return
	}
	m.FramesDropped.WithLabelValues(reason).Inc()
}

func (m *Metrics) RemoteOutcome(outcome string) {
	if m == nil {
		return
	}
	m.RemoteApplied.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SetOutboxPending(n int) {
	if m == nil {
		return
	}
	m.OutboxPending.Set(float64(n))
}

func (m *Metrics) DrainEntry(op, result string) {
	if m == nil {
		return
	}
	m.DrainEntries.WithLabelValues(op, result).Inc()
}

func (m *Metrics) SyncCycle(kind, result string) {
	if m == nil {
		return
	}
	m.SyncCycles.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.ServerSessions.Inc()
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.ServerSessions.Dec()
}

func (m *Metrics) Broadcast(msgType string) {
	if m == nil {
		return
	}
	m.ServerBroadcasts.WithLabelValues(msgType).Inc()
}

func (m *Metrics) HTTPRequest(method, status string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, status).Inc()
	m.HTTPDuration.WithLabelValues(method).Observe(seconds)
}
