package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		gatewayResultsTotal,
		gatewayDuration,
		webhookRequestsTotal,
	)
}

var (
	// op: charge|refund|verify
	// result: ok|fail
	// code (fail only): bounded set of gateway failure codes
	gatewayResultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_results_total",
			Help: "Gateway operations by operation, result and failure code.",
		},
		[]string{"op", "result", "code"},
	)

	gatewayDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_duration_seconds",
			Help:    "Gateway call duration in seconds.",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"gateway", "op"},
	)

	// result: processed|ignored|rejected
	webhookRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_webhook_requests_total",
			Help: "Inbound payment webhooks by event and outcome.",
		},
		[]string{"event", "result"},
	)
)

func IncGatewayResult(op, result, code string) {
	gatewayResultsTotal.WithLabelValues(norm(op), norm(result), code).Inc()
}

func ObserveGateway(gateway, op string, d time.Duration) {
	gatewayDuration.WithLabelValues(norm(gateway), norm(op)).Observe(d.Seconds())
}

func IncWebhook(event, result string) {
	if event == "" {
		event = "none"
	}
	webhookRequestsTotal.WithLabelValues(norm(event), norm(result)).Inc()
}
