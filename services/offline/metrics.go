package offline

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts cache lookups, revalidations and broadcasts.
type Metrics struct {
	requests      *prometheus.CounterVec
	revalidations *prometheus.CounterVec
	broadcasts    prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "urnik",
			Subsystem: "offline",
			Name:      "requests_total",
			Help:      "Requests handled by the offline worker by result (hit, miss, bypass, passthrough, fallback).",
		}, []string{"result"}),
		revalidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "urnik",
			Subsystem: "offline",
			Name:      "revalidations_total",
			Help:      "Background revalidations by result (changed, unchanged, error).",
		}, []string{"result"}),
		broadcasts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "urnik",
			Subsystem: "offline",
			Name:      "broadcasts_total",
			Help:      "Messages published on the cache-updates channel.",
		}),
	}
	reg.MustRegister(m.requests, m.revalidations, m.broadcasts)
	return m
}

func (m *Metrics) request(result string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(result).Inc()
}

func (m *Metrics) revalidation(result string) {
	if m == nil {
		return
	}
	m.revalidations.WithLabelValues(result).Inc()
}

func (m *Metrics) broadcast() {
	if m == nil {
		return
	}
	m.broadcasts.Inc()
}
