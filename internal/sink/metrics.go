package sink

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	exportBytesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "spans_governor_export_bytes_total",
		Help: "Total bytes exported to the trace backend",
	}, []string{"compression"})

	exportRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "spans_governor_export_requests_total",
		Help: "Total number of export requests to the trace backend",
	})

	exportErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "spans_governor_export_errors_total",
		Help: "Total number of export errors by error type",
	}, []string{"error_type"})

	exportSpansTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "spans_governor_export_spans_total",
		Help: "Total number of spans exported to the trace backend",
	})
)

func init() {
	prometheus.MustRegister(exportBytesTotal)
	prometheus.MustRegister(exportRequestsTotal)
	prometheus.MustRegister(exportErrorsTotal)
	prometheus.MustRegister(exportSpansTotal)

	exportRequestsTotal.Add(0)
	exportSpansTotal.Add(0)
	exportErrorsTotal.WithLabelValues(string(ErrorTypeNetwork)).Add(0)
	exportErrorsTotal.WithLabelValues(string(ErrorTypeTimeout)).Add(0)
	exportErrorsTotal.WithLabelValues(string(ErrorTypeServerError)).Add(0)
	exportErrorsTotal.WithLabelValues(string(ErrorTypeClientError)).Add(0)
	exportErrorsTotal.WithLabelValues(string(ErrorTypeAuth)).Add(0)
	exportErrorsTotal.WithLabelValues(string(ErrorTypeRateLimit)).Add(0)
	exportErrorsTotal.WithLabelValues(string(ErrorTypeUnknown)).Add(0)
}

func recordExportError(errType ErrorType) {
	exportErrorsTotal.WithLabelValues(string(errType)).Inc()
}

func recordExportSuccess(spans int64) {
	exportSpansTotal.Add(float64(spans))
}
