package metrics

import "github.com/prometheus/client_golang/prometheus"

// BackendMetrics exposes counters/histograms for backend calls.
type BackendMetrics struct {
	callsTotal   *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
	gateTotal    *prometheus.CounterVec
}

func NewBackendMetrics(reg prometheus.Registerer) *BackendMetrics {
	m := &BackendMetrics{
		callsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medpres",
			Subsystem: "backend",
			Name:      "calls_total",
			Help:      "Total backend calls by operation and outcome",
		}, []string{"mode", "operation", "outcome"}),
		callDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "medpres",
			Subsystem: "backend",
			Name:      "call_duration_seconds",
			Help:      "Latency of backend calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"mode", "operation"}),
		gateTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medpres",
			Subsystem: "authz",
			Name:      "decisions_total",
			Help:      "Authorization gate decisions by access level and decision",
		}, []string{"access", "decision"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.callsTotal, m.callDuration, m.gateTotal)
	return m
}

func (m *BackendMetrics) ObserveCall(mode, operation, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.callsTotal.WithLabelValues(mode, operation, outcome).Inc()
	m.callDuration.WithLabelValues(mode, operation).Observe(seconds)
}

func (m *BackendMetrics) ObserveDecision(access, decision string) {
	if m == nil {
		return
	}
	m.gateTotal.WithLabelValues(access, decision).Inc()
}
