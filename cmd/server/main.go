package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/surveylab/internal/config"
	"github.com/stemsi/surveylab/internal/database"
	"github.com/stemsi/surveylab/internal/handler"
	"github.com/stemsi/surveylab/internal/logger"
	"github.com/stemsi/surveylab/internal/middleware"
	"github.com/stemsi/surveylab/internal/repository"
	"github.com/stemsi/surveylab/internal/router"
	"github.com/stemsi/surveylab/internal/service"
	"github.com/stemsi/surveylab/internal/validator"
	"github.com/stemsi/surveylab/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("session_backend", string(cfg.SessionBackend)).
		Bool("archive_reports", cfg.ArchiveReports).
		Int("participants", cfg.Participants).
		Msg("Starting SurveyLab")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to Redis (sessions and/or archive queue) ──────────────
	var rdb *redis.Client
	if cfg.NeedsRedis() {
		var err error
		rdb, err = database.NewRedisClient(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
	}

	// ─── Connect to PostgreSQL (archive only) ──────────────────────────
	var pool *pgxpool.Pool
	if cfg.ArchiveReports {
		var err error
		pool, err = database.NewPostgresPool(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer pool.Close()
	}

	// ─── Initialize Repositories ───────────────────────────────────────
	var sessions repository.SessionRepository
	switch cfg.SessionBackend {
	case config.SessionBackendRedis:
		sessions = repository.NewRedisSessionRepository(rdb, cfg.SessionTTL)
	default:
		sessions = repository.NewMemorySessionRepository(cfg.SessionTTL)
	}

	var (
		publisher    repository.ReportPublisher = repository.NopReportPublisher{}
		reportLister service.ReportLister
		reportRepo   *repository.ReportRepository
	)
	if cfg.ArchiveReports {
		reportRepo = repository.NewReportRepository(pool)
		reportLister = reportRepo
		publisher = repository.NewRedisReportPublisher(rdb)
	}

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, sessions, log)
	wizardService := service.NewWizardService(
		sessions,
		publisher,
		service.NewPipeline(cfg),
		service.NewSimulatorFactory(cfg),
		log,
	)
	reportService := service.NewReportService(reportLister)

	// ─── Initialize Handlers ──────────────────────────────────────────
	limiter := middleware.NewPipelineLimiter(cfg.PipelineInterval, cfg.PipelineBurst)
	handlers := &router.Handlers{
		Auth:   handler.NewAuthHandler(authService, wizardService),
		Wizard: handler.NewWizardHandler(wizardService),
		Survey: handler.NewSurveyHandler(wizardService),
		Report: handler.NewReportHandler(reportService),
		WS:     handler.NewWSHandler(wizardService, limiter, log, cfg.AllowedOrigins),
		System: handler.NewSystemHandler(cfg, rdb, pool),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	workerDone := make(chan struct{})

	if cfg.ArchiveReports {
		reportWorker := worker.NewReportWorker(reportRepo, rdb, log)
		go func() {
			defer close(workerDone)
			reportWorker.Start(workerCtx)
		}()
	} else {
		close(workerDone)
	}

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case now := <-ticker.C:
				limiter.Cleanup(now)
			}
		}
	}()

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(router.Deps{
		AuthService: authService,
		Sessions:    sessions,
		Limiter:     limiter,
		Log:         log,
	}, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests. A deploy in flight may take a
	// while, so allow more than the usual few seconds.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for the archive batch to drain.
	workerCancel()
	select {
	case <-workerDone:
	case <-time.After(10 * time.Second):
		log.Warn().Msg("Report worker did not stop in time")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
