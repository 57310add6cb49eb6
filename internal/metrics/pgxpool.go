package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// RegisterPgxPoolMetrics exposes connection pool statistics for the service
// database as Prometheus gauges. The customer-database connections opened per
// backup run are short-lived and not pooled, so they never show up here.
func RegisterPgxPoolMetrics(pool *pgxpool.Pool) {
	prometheus.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "dbvault",
			Name:      "pgxpool_acquired_conns",
			Help:      "Number of currently acquired connections in the service database pool",
		}, func() float64 {
			return float64(pool.Stat().AcquiredConns())
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "dbvault",
			Name:      "pgxpool_max_conns",
			Help:      "Maximum number of connections in the service database pool",
		}, func() float64 {
			return float64(pool.Stat().MaxConns())
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "dbvault",
			Name:      "pgxpool_total_conns",
			Help:      "Total number of connections in the service database pool",
		}, func() float64 {
			return float64(pool.Stat().TotalConns())
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "dbvault",
			Name:      "pgxpool_idle_conns",
			Help:      "Number of idle connections in the service database pool",
		}, func() float64 {
			return float64(pool.Stat().IdleConns())
		}),
	)
}
