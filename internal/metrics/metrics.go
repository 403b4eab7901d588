package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_http_requests_total",
		Help: "Total HTTP requests processed, labeled by status code",
	}, []string{"method", "endpoint", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "marketplace_http_request_duration_seconds",
		Help:    "Latency distribution of HTTP requests",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"method", "endpoint"})

	TransactionTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_transaction_transitions_total",
		Help: "Committed transaction status transitions",
	}, []string{"from", "to"})

	PaymentCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_payment_calls_total",
		Help: "Calls to the payment provider by operation and outcome",
	}, []string{"operation", "outcome"})
)

const (
	OutcomeSuccess  = "success"
	OutcomeDeclined = "declined"
	OutcomeError    = "error"
)
