package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-ingest/internal/analyses"
	"resume-ingest/internal/ingest"
	"resume-ingest/internal/services/health"
	"resume-ingest/internal/shared/config"
	"resume-ingest/internal/shared/metrics"
	"resume-ingest/internal/shared/server/middleware"
	"resume-ingest/internal/shared/server/respond"
	"resume-ingest/internal/uploads"
)

const (
	rateGroupAnalyze = "ANALYZE"
	rateGroupPolling = "POLLING"
	rateGroupDefault = "DEFAULT"
)

// RouterDeps carries the handlers the router mounts. Every handler except
// IngestHandler may be nil.
type RouterDeps struct {
	Config          config.Config
	IngestHandler   *ingest.Handler
	AnalysesHandler *analyses.Handler
	UploadsHandler  *uploads.Handler
	Health          *health.Service
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	origins := deps.Config.AllowOrigins()
	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(origins),
		middleware.Preflight(origins),
	)

	r.GET("/metrics", metrics.Handler())

	healthSvc := deps.Health
	if healthSvc == nil {
		healthSvc = health.NewService()
	}

	limited := middleware.RateLimit(middleware.RateLimitConfig{
		DefaultGroup: rateGroupDefault,
		GroupFor:     rateGroupFor,
		Rules:        rateRules(deps.Config),
	})

	api := r.Group("/api/v1", limited)
	api.GET("/health", func(c *gin.Context) {
		report := healthSvc.Status(c.Request.Context())
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	})

	if deps.IngestHandler != nil {
		deps.IngestHandler.RegisterRoutes(api)
		deps.IngestHandler.RegisterLegacyRoutes(r.Group("", limited))
	}
	if deps.AnalysesHandler != nil {
		deps.AnalysesHandler.RegisterRoutes(api)
	}
	if deps.UploadsHandler != nil {
		deps.UploadsHandler.RegisterRoutes(api)
	}

	return r
}

func rateGroupFor(c *gin.Context) string {
	switch c.FullPath() {
	case "/api/v1/resumes/analyze", "/api/v1/resumes/analyze/async", "/analyze-resume", "/api/v1/resumes/uploads":
		return rateGroupAnalyze
	case "/api/v1/resumes/analyses/:id":
		return rateGroupPolling
	default:
		return rateGroupDefault
	}
}

// rateRules limits analysis submissions to the configured rate. Polling and
// the remaining routes get more headroom.
func rateRules(cfg config.Config) map[string]middleware.RateLimitRule {
	rules := map[string]middleware.RateLimitRule{}
	if cfg.RateLimitRPS <= 0 || cfg.RateLimitBurst <= 0 {
		return rules
	}
	rules[rateGroupAnalyze] = middleware.RateLimitRule{Rate: cfg.RateLimitRPS, Burst: cfg.RateLimitBurst}
	rules[rateGroupPolling] = middleware.RateLimitRule{Rate: cfg.RateLimitRPS * 4, Burst: cfg.RateLimitBurst * 4}
	rules[rateGroupDefault] = middleware.RateLimitRule{Rate: cfg.RateLimitRPS * 2, Burst: cfg.RateLimitBurst * 2}
	return rules
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
