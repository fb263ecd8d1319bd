package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

func init() {
	register(
		paymentsTotal,
		paymentsRevenueTotal,
		refundsTotal,
		planChangesTotal,
	)
}

var (
	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Recorded payments by type and final status.",
		},
		[]string{"type", "status"},
	)

	paymentsRevenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_revenue_total",
			Help: "The total monetary value of completed charges, labeled by currency.",
		},
		[]string{"currency"},
	)

	refundsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_refunds_total",
			Help: "Refund attempts by result (refunded/rejected/gateway_failed).",
		},
		[]string{"result"},
	)

	planChangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plan_changes_total",
			Help: "Current-plan changes by source (subscribe/revert/clear).",
		},
		[]string{"source"},
	)
)

func IncPayment(typ, status string) {
	paymentsTotal.WithLabelValues(norm(typ), norm(status)).Inc()
}

func AddPaymentRevenue(currency string, amount decimal.Decimal) {
	f, _ := amount.Float64()
	paymentsRevenueTotal.WithLabelValues(norm(currency)).Add(f)
}

func IncRefund(result string) {
	refundsTotal.WithLabelValues(norm(result)).Inc()
}

func IncPlanChange(source string) {
	planChangesTotal.WithLabelValues(norm(source)).Inc()
}
