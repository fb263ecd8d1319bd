package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(dbPoolConns, dbPoolAcquires) }

// PoolSnapshot is the subset of pgxpool.Stat exported on each scrape.
type PoolSnapshot struct {
	Total, Idle, Acquired, Constructing, Max int32
	Acquires, EmptyAcquires                  int64
}

var (
	dbPoolConns = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "db_pool_connections",
			Help: "Postgres pool connections by state.",
		},
		[]string{"state"}, // total|idle|acquired|constructing|max
	)

	// Cumulative in pgxpool, so exported as gauges set on scrape.
	dbPoolAcquires = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "db_pool_acquires",
			Help: "Cumulative Postgres pool acquires; kind=empty counts acquires that had to wait.",
		},
		[]string{"kind"},
	)
)

func SetDBPoolStats(s PoolSnapshot) {
	dbPoolConns.WithLabelValues("total").Set(float64(s.Total))
	dbPoolConns.WithLabelValues("idle").Set(float64(s.Idle))
	dbPoolConns.WithLabelValues("acquired").Set(float64(s.Acquired))
	dbPoolConns.WithLabelValues("constructing").Set(float64(s.Constructing))
	dbPoolConns.WithLabelValues("max").Set(float64(s.Max))
	dbPoolAcquires.WithLabelValues("all").Set(float64(s.Acquires))
	dbPoolAcquires.WithLabelValues("empty").Set(float64(s.EmptyAcquires))
}
