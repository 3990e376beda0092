package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/surveylab/internal/config"
	"github.com/stemsi/surveylab/internal/metrics"
	"github.com/stemsi/surveylab/internal/model"
)

const (
	ReportBatchSize    = 50
	ReportBatchTimeout = 2 * time.Second
	ReportPollTimeout  = 1 * time.Second
)

// ReportStore is the write side of the report archive.
type ReportStore interface {
	InsertBatch(ctx context.Context, reports []model.ArchivedReport) error
	Insert(ctx context.Context, rep model.ArchivedReport) error
}

// ReportWorker moves analysis summaries from persist_reports_queue into
// PostgreSQL in batches.
type ReportWorker struct {
	store   ReportStore
	rdb     *redis.Client
	log     zerolog.Logger
	requeue func(ctx context.Context, raw []byte) error
}

func NewReportWorker(store ReportStore, rdb *redis.Client, log zerolog.Logger) *ReportWorker {
	w := &ReportWorker{
		store: store,
		rdb:   rdb,
		log:   log.With().Str("component", "report_worker").Logger(),
	}
	w.requeue = func(ctx context.Context, raw []byte) error {
		return w.rdb.RPush(ctx, config.WorkerKey.PersistReportsQueue, raw).Err()
	}
	return w
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

// Start consumes the queue until ctx is cancelled, then flushes what it
// holds and returns. Call in a goroutine.
func (w *ReportWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ReportWorker started")

	batch := make([]model.ArchivedReport, 0, ReportBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= ReportBatchSize || time.Since(lastFlush) >= ReportBatchTimeout) {
			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Int("pending", len(batch)).Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			w.log.Info().Msg("ReportWorker stopped")
			return

		default:
			item, err := w.rdb.BLPop(ctx, ReportPollTimeout, config.WorkerKey.PersistReportsQueue).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
					time.Sleep(ReportPollTimeout)
				}
				continue
			}
			if len(item) < 2 {
				continue
			}

			rep, ok := w.decode(item[1])
			if ok {
				batch = append(batch, rep)
			}
		}
	}
}

func (w *ReportWorker) decode(raw string) (model.ArchivedReport, bool) {
	var rep model.ArchivedReport
	if err := json.Unmarshal([]byte(raw), &rep); err != nil {
		w.log.Error().Err(err).Msg("Invalid JSON payload")
		return rep, false
	}
	if rep.SurveyID == "" || rep.Username == "" {
		w.log.Warn().Str("id", rep.ID.String()).Msg("Report without survey or user dropped")
		return rep, false
	}
	return rep, true
}

// ----------------------------------------------------------------
// Bulk insert with per-row fallback
// ----------------------------------------------------------------

func (w *ReportWorker) flushSafe(ctx context.Context, batch []model.ArchivedReport) {
	if len(batch) == 0 {
		return
	}

	err := w.store.InsertBatch(ctx, batch)
	if err == nil {
		metrics.ArchivedReports.WithLabelValues("bulk").Add(float64(len(batch)))
		w.log.Debug().Int("count", len(batch)).Msg("Reports archived")
		return
	}

	w.log.Warn().Err(err).Int("count", len(batch)).Msg("Bulk report insert failed, using fallback")

	for _, rep := range batch {
		if err := w.store.Insert(ctx, rep); err != nil {
			w.log.Error().Err(err).Str("survey_id", rep.SurveyID).Msg("Single insert failed, requeueing")
			raw, _ := json.Marshal(rep)
			if err := w.requeue(ctx, raw); err != nil {
				w.log.Error().Err(err).Str("survey_id", rep.SurveyID).Msg("Requeue failed, report lost")
				continue
			}
			metrics.ArchivedReports.WithLabelValues("requeued").Inc()
			continue
		}
		metrics.ArchivedReports.WithLabelValues("single").Inc()
	}
}
