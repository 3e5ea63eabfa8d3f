package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/lavish-perfumes/seo-analyzer/metrics"
	"github.com/lavish-perfumes/seo-analyzer/middleware"
	"github.com/lavish-perfumes/seo-analyzer/stats"
)

// Deps are the shared services the router wires into middleware
type Deps struct {
	Logger      *zap.Logger
	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer
	Stats       *stats.Storage
	RateLimiter *middleware.RateLimiter
}

// NewRouter builds the gin engine with every route and middleware
func NewRouter(h *Handler, deps Deps) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()

	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog(logger))
	r.Use(middleware.Usage(deps.Stats, deps.Metrics))
	r.Use(middleware.ErrorHandler(logger))
	r.Use(cors())

	r.GET("/", h.Index)
	r.GET("/health", h.Health)
	r.GET("/statistics", h.Statistics)
	r.GET("/statistics/months", h.StatisticsMonths)
	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler(deps.Gatherer)))
	}

	analysis := r.Group("/")
	if deps.RateLimiter != nil {
		analysis.Use(deps.RateLimiter.RateLimit())
	}
	analysis.POST("/analyze", h.Analyze)
	analysis.POST("/reanalyze", h.Reanalyze)

	return r
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Origin, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
