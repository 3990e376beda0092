package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/surveylab/internal/config"
	"github.com/stemsi/surveylab/internal/response"
)

const healthTimeout = 2 * time.Second

// SystemHandler reports process health and backing-store reachability.
// rdb and pool are nil when the configuration does not need them.
type SystemHandler struct {
	cfg       *config.Config
	rdb       *redis.Client
	pool      *pgxpool.Pool
	startTime time.Time
}

func NewSystemHandler(cfg *config.Config, rdb *redis.Client, pool *pgxpool.Pool) *SystemHandler {
	return &SystemHandler{cfg: cfg, rdb: rdb, pool: pool, startTime: time.Now()}
}

type healthStatus struct {
	Status         string            `json:"status"`
	Uptime         string            `json:"uptime"`
	GoVersion      string            `json:"go_version"`
	Goroutines     int               `json:"goroutines"`
	SessionBackend string            `json:"session_backend"`
	ArchiveReports bool              `json:"archive_reports"`
	Dependencies   map[string]string `json:"dependencies"`
}

// Health godoc
// GET /health
// Returns 200 when every configured dependency answers, 503 otherwise.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	status := healthStatus{
		Status:         "ok",
		Uptime:         time.Since(h.startTime).Truncate(time.Second).String(),
		GoVersion:      runtime.Version(),
		Goroutines:     runtime.NumGoroutine(),
		SessionBackend: string(h.cfg.SessionBackend),
		ArchiveReports: h.cfg.ArchiveReports,
		Dependencies:   map[string]string{},
	}

	if h.rdb != nil {
		status.Dependencies["redis"] = probe(h.rdb.Ping(ctx).Err())
	}
	if h.pool != nil {
		status.Dependencies["postgres"] = probe(h.pool.Ping(ctx))
	}

	code := http.StatusOK
	for _, v := range status.Dependencies {
		if v != "ok" {
			status.Status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}

	response.Success(c, code, status)
}

func probe(err error) string {
	if err != nil {
		return err.Error()
	}
	return "ok"
}
