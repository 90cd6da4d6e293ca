package receiver

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	receivedRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "spans_governor_receiver_requests_total",
		Help: "Total number of export requests received",
	}, []string{"protocol"})

	receivedSpansTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "spans_governor_receiver_spans_total",
		Help: "Total number of spans received",
	}, []string{"protocol"})

	rejectedRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "spans_governor_receiver_rejected_total",
		Help: "Total number of malformed or unsupported requests rejected",
	}, []string{"protocol", "reason"})

	duplicateSpansTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "spans_governor_receiver_duplicate_spans_total",
		Help: "Total number of spans whose IDs were probably seen before (advisory)",
	})
)

func init() {
	prometheus.MustRegister(receivedRequestsTotal)
	prometheus.MustRegister(receivedSpansTotal)
	prometheus.MustRegister(rejectedRequestsTotal)
	prometheus.MustRegister(duplicateSpansTotal)

	receivedRequestsTotal.WithLabelValues("grpc").Add(0)
	receivedRequestsTotal.WithLabelValues("http").Add(0)
	receivedSpansTotal.WithLabelValues("grpc").Add(0)
	receivedSpansTotal.WithLabelValues("http").Add(0)
	duplicateSpansTotal.Add(0)
}
