package database

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/richxcame/ride-reputation/pkg/config"
	"github.com/richxcame/ride-reputation/pkg/logger"
	"github.com/richxcame/ride-reputation/pkg/resilience"
)

// DBPool holds the primary connection pool plus optional read replicas.
// Reads that tolerate replication lag go through GetReplica; everything
// else uses the primary.
type DBPool struct {
	Primary  *pgxpool.Pool
	Replicas []*pgxpool.Pool

	breaker       *resilience.CircuitBreaker
	metrics       *DBMetrics
	replicaCursor atomic.Uint64
}

// NewDBPool connects the primary and any configured replicas. A replica
// that fails to connect is skipped with a warning; the primary is required.
func NewDBPool(ctx context.Context, cfg *config.DatabaseConfig, serviceName string) (*DBPool, error) {
	primary, err := newPool(ctx, cfg.DSN(), cfg)
	if err != nil {
		return nil, fmt.Errorf("connect primary database: %w", err)
	}

	pool := &DBPool{
		Primary: primary,
		metrics: NewDBMetrics(serviceName),
	}

	for i, dsn := range cfg.ReplicaDSNs {
		replica, err := newPool(ctx, dsn, cfg)
		if err != nil {
			logger.Warn("read replica unavailable, continuing without it",
				zap.Int("replica", i),
				zap.Error(err))
			continue
		}
		pool.Replicas = append(pool.Replicas, replica)
	}

	if cfg.Breaker.Enabled {
		settings := resilience.BuildSettings(
			sanitizeBreakerName(serviceName+" database"),
			cfg.Breaker.IntervalSeconds,
			cfg.Breaker.TimeoutSeconds,
			cfg.Breaker.FailureThreshold,
			cfg.Breaker.SuccessThreshold,
		)
		pool.breaker = resilience.NewCircuitBreaker(settings, nil)
	}

	return pool, nil
}

func newPool(ctx context.Context, dsn string, cfg *config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	poolConfig.MaxConns = int32(max(cfg.MaxConns, 1))
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.AfterConnect = createStatementTimeoutCallback(resolveQueryTimeout(cfg.QueryTimeoutSeconds))

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// GetPrimary returns the writer pool.
func (p *DBPool) GetPrimary() *pgxpool.Pool {
	return p.Primary
}

// GetReplica returns the next read replica round-robin, falling back to the
// primary when no replicas are configured.
func (p *DBPool) GetReplica() *pgxpool.Pool {
	if len(p.Replicas) == 0 {
		return p.Primary
	}
	idx := p.replicaCursor.Add(1)
	return p.Replicas[int(idx)%len(p.Replicas)]
}

// Execute runs fn through the pool's circuit breaker when one is enabled.
func (p *DBPool) Execute(ctx context.Context, fn resilience.Operation) (interface{}, error) {
	if p.breaker == nil {
		return fn(ctx)
	}
	return p.breaker.Execute(ctx, fn)
}

// RecordQuery tracks one query execution for the pool's metrics.
func (p *DBPool) RecordQuery(query string, started time.Time, err error) {
	if p.metrics == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	p.metrics.queryTotal.WithLabelValues(query, status).Inc()
	p.metrics.queryDuration.WithLabelValues(query).Observe(time.Since(started).Seconds())
}

// Close closes every pool. Safe on a partially constructed DBPool.
func (p *DBPool) Close() {
	if p.Primary != nil {
		p.Primary.Close()
	}
	for _, replica := range p.Replicas {
		if replica != nil {
			replica.Close()
		}
	}
}

// DBMetrics exposes query counters and latency histograms. Register at most
// once per process per service name.
type DBMetrics struct {
	queryTotal    *prometheus.CounterVec
	queryDuration *prometheus.HistogramVec
}

// NewDBMetrics registers database metrics under the sanitized service name.
func NewDBMetrics(serviceName string) *DBMetrics {
	service := strings.ReplaceAll(sanitizeBreakerName(serviceName), "-", "_")
	if service == "" {
		service = "service"
	}
	return &DBMetrics{
		queryTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: service + "_db_queries_total",
			Help: "Database queries by name and status.",
		}, []string{"query", "status"}),
		queryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    service + "_db_query_duration_seconds",
			Help:    "Database query latency by name.",
			Buckets: prometheus.DefBuckets,
		}, []string{"query"}),
	}
}

// createStatementTimeoutCallback applies statement_timeout, in milliseconds,
// to every new connection so a runaway query cannot hold a pool slot.
func createStatementTimeoutCallback(timeoutSeconds int) func(context.Context, *pgx.Conn) error {
	timeoutMs := timeoutSeconds * 1000
	return func(ctx context.Context, conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, fmt.Sprintf("SET statement_timeout = %d", timeoutMs))
		return err
	}
}

func sanitizeBreakerName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-")
}

// resolveQueryTimeout returns the first positive timeout or the default.
func resolveQueryTimeout(timeoutSeconds ...int) int {
	if len(timeoutSeconds) > 0 && timeoutSeconds[0] > 0 {
		return timeoutSeconds[0]
	}
	return config.DefaultDatabaseQueryTimeout
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
