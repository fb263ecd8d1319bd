package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(planCacheRequestsTotal, planCacheInvalidationsTotal) }

// Plan cache lookups.
const (
	PlanCacheBySlug = "by_slug"
	PlanCacheActive = "active_list"
)

// Plan cache results. A read error falls through to Postgres and is
// counted separately from a plain miss.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

var (
	planCacheRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plan_cache_requests_total",
			Help: "Plan catalog cache lookups by lookup kind and result.",
		},
		[]string{"lookup", "result"},
	)

	planCacheInvalidationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plan_cache_invalidations_total",
			Help: "Plan catalog cache invalidations on save, by outcome.",
		},
		[]string{"result"},
	)
)

func IncPlanCache(lookup, result string) {
	planCacheRequestsTotal.WithLabelValues(norm(lookup), norm(result)).Inc()
}

func IncPlanCacheInvalidation(failed bool) {
	result := "ok"
	if failed {
		result = CacheError
	}
	planCacheInvalidationsTotal.WithLabelValues(result).Inc()
}
