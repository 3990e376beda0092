package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/stemsi/surveylab/internal/config"
	"github.com/stemsi/surveylab/internal/handler"
	"github.com/stemsi/surveylab/internal/middleware"
	"github.com/stemsi/surveylab/internal/repository"
	"github.com/stemsi/surveylab/internal/response"
	"github.com/stemsi/surveylab/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth   *handler.AuthHandler
	Wizard *handler.WizardHandler
	Survey *handler.SurveyHandler
	Report *handler.ReportHandler
	WS     *handler.WSHandler
	System *handler.SystemHandler
}

// Deps carries what the route middlewares need.
type Deps struct {
	AuthService *service.AuthService
	Sessions    repository.SessionRepository
	Limiter     *middleware.PipelineLimiter
	Log         zerolog.Logger
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(deps Deps, handlers *Handlers, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// Restrict to AllowedOrigins when set; allow all otherwise.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", response.HeaderRequestID}
	corsConfig.ExposeHeaders = []string{response.HeaderRequestID}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.RequestLogger(deps.Log))
	router.Use(middleware.BrotliWithConfig(middleware.BrotliConfig{
		Quality:   middleware.DefaultBrotliConfig.Quality,
		MinLength: middleware.DefaultBrotliConfig.MinLength,
		// promhttp negotiates its own compression.
		Skipper: func(c *gin.Context) bool { return c.Request.URL.Path == "/metrics" },
	}))

	// ─── Operational ───────────────────────────────────────────────────
	router.GET("/health", handlers.System.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	requireSession := []gin.HandlerFunc{
		middleware.RequireJWT(deps.AuthService),
		middleware.RequireLiveSession(deps.Sessions),
	}

	// ─── 1. Auth Group ─────────────────────────────────────────────────
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/login", handlers.Auth.Login)
		auth.POST("/logout", append(requireSession, handlers.Auth.Logout)...)
	}

	// ─── 2. Session Group (JWT + live session) ─────────────────────────
	api := router.Group("/api/v1")
	api.Use(requireSession...)
	api.Use(middleware.NoStore())
	{
		api.GET("/session", handlers.Auth.GetSession)

		wizard := api.Group("/wizard")
		{
			wizard.POST("/create", handlers.Wizard.CreateSurvey)
			wizard.POST("/select", handlers.Wizard.SelectSurvey)
			wizard.POST("/title", handlers.Wizard.SaveTitle)
			wizard.POST("/description", handlers.Wizard.SaveDescription)
			wizard.POST("/deploy", deps.Limiter.Middleware(), handlers.Wizard.Deploy)
			wizard.POST("/reanalyze", deps.Limiter.Middleware(), handlers.Wizard.Reanalyze)
			wizard.POST("/restart", handlers.Wizard.Restart)
		}

		surveys := api.Group("/surveys")
		{
			surveys.GET("", handlers.Survey.ListSurveys)
			surveys.GET("/:id", handlers.Survey.GetSurvey)
			surveys.GET("/:id/report", handlers.Survey.GetReport)
		}

		api.GET("/reports/history", handlers.Report.History)
	}

	// ─── 3. WebSocket (token in query) ─────────────────────────────────
	router.GET("/ws/v1/wizard", append(requireSession, handlers.WS.WizardStream)...)

	return router
}
