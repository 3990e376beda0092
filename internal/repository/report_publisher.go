package repository

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/surveylab/internal/config"
	"github.com/stemsi/surveylab/internal/model"
)

// ReportPublisher hands finished analysis summaries to the archive.
type ReportPublisher interface {
	Publish(ctx context.Context, rep model.ArchivedReport) error
}

// RedisReportPublisher enqueues reports for the report worker.
type RedisReportPublisher struct {
	rdb *redis.Client
}

func NewRedisReportPublisher(rdb *redis.Client) *RedisReportPublisher {
	return &RedisReportPublisher{rdb: rdb}
}

func (p *RedisReportPublisher) Publish(ctx context.Context, rep model.ArchivedReport) error {
	raw, err := json.Marshal(rep)
	if err != nil {
		return err
	}
	return p.rdb.RPush(ctx, config.WorkerKey.PersistReportsQueue, raw).Err()
}

// NopReportPublisher discards reports; used when archiving is disabled.
type NopReportPublisher struct{}

func (NopReportPublisher) Publish(context.Context, model.ArchivedReport) error { return nil }
