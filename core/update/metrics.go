package update

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	updates     *prometheus.CounterVec
	lastSuccess prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "urnik",
			Name:      "store_updates_total",
			Help:      "Store refreshes by task and result (ok, error, offline).",
		}, []string{"task", "result"}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "urnik",
			Name:      "last_successful_update_timestamp_seconds",
			Help:      "Time of the last successful store refresh.",
		}),
	}
	reg.MustRegister(m.updates, m.lastSuccess)
	return m
}

func (m *Metrics) observe(task, result string) {
	if m == nil {
		return
	}
	m.updates.WithLabelValues(task, result).Inc()
}

func (m *Metrics) success() {
	if m == nil {
		return
	}
	m.lastSuccess.SetToCurrentTime()
}
