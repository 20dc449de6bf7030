package metrics

import (
	"context"
	"database/sql"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Database pool metrics sampled from sql.DBStats
var (
	// dbConnectionsOpen tracks currently open connections
	dbConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_open",
			Help: "Number of open database connections",
		},
	)

	// dbConnectionsIdle tracks idle connections in the pool
	dbConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections",
		},
	)

	// dbConnectionsInUse tracks connections currently executing queries
	dbConnectionsInUse = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_in_use",
			Help: "Number of database connections in use",
		},
	)

	// dbWaitCount tracks the cumulative number of waits for a connection
	dbWaitCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connection_wait_total",
			Help: "Cumulative number of waits for a database connection",
		},
	)
)

// RecordDBStats publishes one snapshot of the pool state.
func RecordDBStats(stats sql.DBStats) {
	dbConnectionsOpen.Set(float64(stats.OpenConnections))
	dbConnectionsIdle.Set(float64(stats.Idle))
	dbConnectionsInUse.Set(float64(stats.InUse))
	dbWaitCount.Set(float64(stats.WaitCount))
}

// CollectDBStats samples the database pool at the given interval until the
// context is canceled. It always returns nil so it can run under an errgroup
// without tearing the group down on shutdown.
func CollectDBStats(ctx context.Context, database *sql.DB, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			RecordDBStats(database.Stats())
		}
	}
}
