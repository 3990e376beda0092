package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stemsi/surveylab/internal/config"
)

// ReportsTable is the archive table created by migration 000001.
const ReportsTable = "analysis_reports"

// ErrSchemaMissing is returned when the archive table has not been migrated.
var ErrSchemaMissing = errors.New("report archive schema missing, run cmd/migrate up")

// NewPostgresPool opens the pool backing the report archive. The archive is
// written by a single worker and read by the history endpoint, so the pool is
// capped at MAX_DB_CONNS and keeps one idle connection for history reads. It
// fails fast when the archive table does not exist.
func NewPostgresPool(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MaxConns = max(cfg.MaxDBConns, 2)
	poolCfg.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	rows, err := countArchivedReports(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}

	log.Info().
		Int32("max_conns", poolCfg.MaxConns).
		Str("database", poolCfg.ConnConfig.Database).
		Int64("archived_reports", rows).
		Msg("PostgreSQL connected")

	return pool, nil
}

// countArchivedReports checks the archive table exists and returns its size.
func countArchivedReports(ctx context.Context, pool *pgxpool.Pool) (int64, error) {
	var reg *string
	if err := pool.QueryRow(ctx, "SELECT to_regclass($1)::text", ReportsTable).Scan(&reg); err != nil {
		return 0, fmt.Errorf("check archive schema: %w", err)
	}
	if reg == nil {
		return 0, ErrSchemaMissing
	}

	var n int64
	if err := pool.QueryRow(ctx, "SELECT count(*) FROM "+ReportsTable).Scan(&n); err != nil {
		return 0, fmt.Errorf("count archived reports: %w", err)
	}
	return n, nil
}
