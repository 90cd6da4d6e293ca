package processor

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	queueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "spans_governor_processor_queue_depth",
		Help: "Current number of records waiting in the processor queue",
	})

	enqueuedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "spans_governor_processor_enqueued_total",
		Help: "Total number of records accepted into the processor queue",
	})

	droppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "spans_governor_processor_dropped_total",
		Help: "Total number of records dropped because the queue was full",
	})

	exportedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "spans_governor_processor_exported_total",
		Help: "Total number of records handed to the sink in successful exports",
	})

	exportFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "spans_governor_processor_export_failures_total",
		Help: "Total number of batch exports that failed or timed out",
	})

	flushesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "spans_governor_processor_flushes_total",
		Help: "Total number of force-flush requests served by the worker",
	})
)

func init() {
	prometheus.MustRegister(queueDepth)
	prometheus.MustRegister(enqueuedTotal)
	prometheus.MustRegister(droppedTotal)
	prometheus.MustRegister(exportedTotal)
	prometheus.MustRegister(exportFailuresTotal)
	prometheus.MustRegister(flushesTotal)

	queueDepth.Set(0)
	enqueuedTotal.Add(0)
	droppedTotal.Add(0)
	exportedTotal.Add(0)
	exportFailuresTotal.Add(0)
	flushesTotal.Add(0)
}
