package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"sandbox-billing/internal/config"
	"sandbox-billing/internal/infra/metrics"
)

// Connect builds a pool from cfg and pings it before returning.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	pool, err := pgxpool.ConnectConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// ReportPoolStats copies the pool counters into the db_pool gauges.
func ReportPoolStats(pool *pgxpool.Pool) {
	st := pool.Stat()
	metrics.SetDBPoolStats(metrics.PoolSnapshot{
		Total:         st.TotalConns(),
		Idle:          st.IdleConns(),
		Acquired:      st.AcquiredConns(),
		Constructing:  st.ConstructingConns(),
		Max:           st.MaxConns(),
		Acquires:      st.AcquireCount(),
		EmptyAcquires: st.EmptyAcquireCount(),
	})
}
