package database

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/surveylab/internal/config"
)

// NewRedisClient creates the client shared by the session store and the
// report queue. When archiving is on it reports the backlog left in
// persist_reports_queue by a previous run, which the report worker drains
// first.
func NewRedisClient(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	event := log.Info().
		Str("addr", opt.Addr).
		Int("db", opt.DB).
		Str("session_backend", string(cfg.SessionBackend))

	if cfg.ArchiveReports {
		backlog, err := rdb.LLen(ctx, config.WorkerKey.PersistReportsQueue).Result()
		if err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("inspect report queue: %w", err)
		}
		event = event.Int64("pending_reports", backlog)
	}

	event.Msg("Redis connected")
	return rdb, nil
}
