package api

import (
	"context"
	_ "embed"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lavish-perfumes/seo-analyzer/analyzer"
	"github.com/lavish-perfumes/seo-analyzer/middleware"
	"github.com/lavish-perfumes/seo-analyzer/stats"
)

// Error messages returned to the UI
const (
	URLRequiredMessage = "URL is required"
	FetchFailedPrefix  = "فشل في تحميل الصفحة: "
)

//go:embed static/index.html
var indexHTML []byte

// SEOAnalyzer is the pipeline behind /analyze and /reanalyze
type SEOAnalyzer interface {
	Analyze(ctx context.Context, pageURL string) (*analyzer.SEOResult, error)
}

// AnalysisRequest is the body of /analyze and /reanalyze
type AnalysisRequest struct {
	URL string `json:"url"`
}

type Handler struct {
	analyzer SEOAnalyzer
	stats    *stats.Storage
	logger   *zap.Logger
}

func NewHandler(seoAnalyzer SEOAnalyzer, storage *stats.Storage, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{analyzer: seoAnalyzer, stats: storage, logger: logger}
}

// Index serves the single page UI
func (h *Handler) Index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Statistics reports usage counters for ?month=YYYY-MM, or the current month
func (h *Handler) Statistics(c *gin.Context) {
	month := c.Query("month")
	if month != "" {
		if _, err := time.Parse("2006-01", month); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "month must be YYYY-MM"})
			return
		}
	}

	if h.stats == nil {
		c.JSON(http.StatusOK, stats.MonthlyStats{})
		return
	}
	if month == "" {
		c.JSON(http.StatusOK, h.stats.GetCurrentStats())
		return
	}

	monthly, ok := h.stats.GetMonthlyStats(month)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no statistics for " + month})
		return
	}
	c.JSON(http.StatusOK, monthly)
}

// StatisticsMonths lists the retained months, newest first
func (h *Handler) StatisticsMonths(c *gin.Context) {
	months := []string{}
	if h.stats != nil {
		months = h.stats.GetAllMonths()
	}
	c.JSON(http.StatusOK, gin.H{"months": months})
}

func (h *Handler) Analyze(c *gin.Context) {
	h.analyze(c, stats.KindAnalyze)
}

// Reanalyze runs the whole pipeline again; the random word bank draws make
// the keywords and titles differ from the previous run.
func (h *Handler) Reanalyze(c *gin.Context) {
	h.analyze(c, stats.KindReanalyze)
}

func (h *Handler) analyze(c *gin.Context, kind stats.Kind) {
	middleware.MarkAnalysis(c, kind)

	var req AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.URL) == "" {
		middleware.SetOutcome(c, stats.OutcomeRejected)
		c.JSON(http.StatusBadRequest, gin.H{"error": URLRequiredMessage})
		return
	}
	pageURL := strings.TrimSpace(req.URL)

	result, err := h.analyzer.Analyze(c.Request.Context(), pageURL)
	if err != nil {
		var fetchErr *analyzer.FetchError
		if errors.As(err, &fetchErr) {
			middleware.SetOutcome(c, stats.OutcomeFetchError)
			c.JSON(http.StatusBadRequest, gin.H{"error": FetchFailedPrefix + err.Error()})
			return
		}

		h.logger.Error("analysis failed",
			zap.String("url", pageURL),
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err),
		)
		middleware.SetOutcome(c, stats.OutcomeInternalError)
		c.JSON(http.StatusInternalServerError, gin.H{"error": middleware.AnalysisFailedPrefix + err.Error()})
		return
	}

	middleware.SetOutcome(c, stats.OutcomeSuccess)
	c.JSON(http.StatusOK, result)
}
