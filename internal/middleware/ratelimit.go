package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/surveylab/internal/response"
	"golang.org/x/time/rate"
)

// PipelineLimiter throttles deploy and reanalyze per session. Each of those
// runs a full simulation and forest fit.
type PipelineLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	limit    rate.Limit
	burst    int
	idle     time.Duration
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewPipelineLimiter allows burst runs, refilled at one per interval.
func NewPipelineLimiter(interval time.Duration, burst int) *PipelineLimiter {
	return &PipelineLimiter{
		limiters: make(map[string]*limiterEntry),
		limit:    rate.Every(interval),
		burst:    burst,
		idle:     10 * time.Minute,
	}
}

// Middleware keys on the session id, falling back to client IP.
func (pl *PipelineLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if claims := GetClaims(c); claims != nil {
			key = claims.SessionID()
		}

		if !pl.allow(key, time.Now()) {
			response.AbortFail(c, http.StatusTooManyRequests, response.ErrRateLimited)
			return
		}
		c.Next()
	}
}

// Allow takes one run from the bucket of key. The WebSocket stream calls it
// directly with the session id, so both transports share one bucket.
func (pl *PipelineLimiter) Allow(key string) bool {
	return pl.allow(key, time.Now())
}

func (pl *PipelineLimiter) allow(key string, now time.Time) bool {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	e, ok := pl.limiters[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(pl.limit, pl.burst)}
		pl.limiters[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// Cleanup drops limiters idle for longer than the idle window. The server
// calls it from a ticker.
func (pl *PipelineLimiter) Cleanup(now time.Time) {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	for key, e := range pl.limiters {
		if now.Sub(e.lastSeen) > pl.idle {
			delete(pl.limiters, key)
		}
	}
}

// Size reports the number of tracked keys.
func (pl *PipelineLimiter) Size() int {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return len(pl.limiters)
}
