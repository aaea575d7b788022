package committer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the committer's Prometheus collectors. A nil *Metrics records nothing.
type Metrics struct {
	rowsTotal    *prometheus.CounterVec
	sectorsTotal *prometheus.CounterVec
	duration     prometheus.Histogram
}

// NewMetrics registers the committer collectors on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		rowsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "laia_import",
			Name:      "rows_total",
			Help:      "Total number of committed rows by result.",
		}, []string{"result"}),
		sectorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "laia_import",
			Name:      "sectors_total",
			Help:      "Total number of sector creations by result.",
		}, []string{"result"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "laia_import",
			Name:      "commit_duration_seconds",
			Help:      "Duration of a full import commit.",
			Buckets: []float64{
				0.01, 0.05,
				0.1, 0.5,
				1, 2, 5, 10,
				30, 60, 120,
			},
		}),
	}
}

func (m *Metrics) row(result string) {
	if m == nil {
		return
	}
	m.rowsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) sector(result string) {
	if m == nil {
		return
	}
	m.sectorsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) observe(seconds float64) {
	if m == nil {
		return
	}
	m.duration.Observe(seconds)
}
