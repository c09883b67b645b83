package loadgen

import (
	"github.com/prometheus/client_golang/prometheus"
)

// RegisterMetrics exposes pipeline statistics on reg.
func RegisterMetrics(reg prometheus.Registerer, p *Pipeline) error {
	counter := func(name, help string, fn func() int64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "datagen",
			Subsystem: "loadgen",
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(fn()) })
	}
	gauge := func(name, help string, fn func() int64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "datagen",
			Subsystem: "loadgen",
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(fn()) })
	}

	collectors := []prometheus.Collector{
		counter("generated_total", "Total number of synthetic entries generated",
			p.Generator.totalGenerated.Load),
		counter("clock_errors_total", "Total number of generator ticks skipped because of the clock",
			p.Generator.clockErrors.Load),
		counter("staging_contended_total", "Total number of non-blocking staging attempts that found the lock held",
			p.Staging.contended.Load),
		counter("stored_total", "Total number of staged entries stored in the buffer",
			p.Storer.totalStored.Load),
		counter("store_failures_total", "Total number of storer ticks that failed",
			p.Storer.failedTicks.Load),
		gauge("generator_pending", "Entries held by the generator waiting for the staging lock",
			p.Generator.pendingCount.Load),
		gauge("staging_pending", "Entries staged and waiting for the storer",
			func() int64 { return int64(p.Staging.Len()) }),
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
