package memory

import (
	"github.com/prometheus/client_golang/prometheus"
)

// storeMetrics holds Prometheus metrics for the in-memory store.
type storeMetrics struct {
	appended prometheus.Counter
	rejected prometheus.Counter
	queries  prometheus.Counter
	flushed  prometheus.Counter
	entries  prometheus.GaugeFunc
}

// newStoreMetrics registers the buffer metrics on reg. size is sampled on
// every scrape so the entries gauge always matches the buffer.
func newStoreMetrics(reg prometheus.Registerer, size func() int) (*storeMetrics, error) {
	m := &storeMetrics{
		appended: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "datagen",
			Subsystem: "buffer",
			Name:      "appended_entries_total",
			Help:      "Total number of entries appended to the buffer",
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "datagen",
			Subsystem: "buffer",
			Name:      "rejected_lines_total",
			Help:      "Total number of lines dropped because they were not valid JSON",
		}),
		queries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "datagen",
			Subsystem: "buffer",
			Name:      "queries_total",
			Help:      "Total number of window queries",
		}),
		flushed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "datagen",
			Subsystem: "buffer",
			Name:      "flushed_entries_total",
			Help:      "Total number of entries removed by flushing queries",
		}),
		entries: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "datagen",
			Subsystem: "buffer",
			Name:      "entries",
			Help:      "Current number of entries in the buffer",
		}, func() float64 { return float64(size()) }),
	}

	for _, c := range []prometheus.Collector{m.appended, m.rejected, m.queries, m.flushed, m.entries} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}
