package gridsat

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus instrumentation for a Solver. It is
// optional: a Config with a nil Metrics field runs unmeasured.
type Metrics struct {
	queriesTotal  *prometheus.CounterVec
	queryDuration prometheus.Histogram
}

// NewMetrics builds a Metrics and registers it against reg. Passing the
// same reg to two Metrics instances will panic on the duplicate
// registration, matching prometheus.Registerer's own contract.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		queriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "linkmodel",
			Subsystem: "gridsat",
			Name:      "queries_total",
			Help:      "CheckSat calls, partitioned by outcome.",
		}, []string{"outcome"}),
		queryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "linkmodel",
			Subsystem: "gridsat",
			Name:      "query_duration_seconds",
			Help:      "Wall-clock time spent inside CheckSat.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.queriesTotal, m.queryDuration)
	return m
}

func (m *Metrics) observeQuery(d time.Duration, sat bool, cancelled bool) {
	if m == nil {
		return
	}
	outcome := "unsat"
	switch {
	case cancelled:
		outcome = "cancelled"
	case sat:
		outcome = "sat"
	}
	m.queriesTotal.WithLabelValues(outcome).Inc()
	m.queryDuration.Observe(d.Seconds())
}
