package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lavish-perfumes/seo-analyzer/metrics"
	"github.com/lavish-perfumes/seo-analyzer/stats"
)

const (
	analysisKindKey    = "analysis_kind"
	analysisOutcomeKey = "analysis_outcome"
)

// MarkAnalysis flags the request as an analysis so Usage records it
func MarkAnalysis(c *gin.Context, kind stats.Kind) {
	c.Set(analysisKindKey, kind)
}

// SetOutcome stores how the analysis ended
func SetOutcome(c *gin.Context, outcome stats.Outcome) {
	c.Set(analysisOutcomeKey, outcome)
}

// Usage tracks request metrics and per-month analysis statistics
func Usage(storage *stats.Storage, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))

		value, ok := c.Get(analysisKindKey)
		if !ok {
			return
		}
		kind := value.(stats.Kind)

		var outcome stats.Outcome
		if v, ok := c.Get(analysisOutcomeKey); ok {
			outcome = v.(stats.Outcome)
		}

		if storage != nil {
			storage.Record(kind, outcome)
		}
		if outcome != "" {
			m.ObserveAnalysis(string(kind), string(outcome))
		}
	}
}
