package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lavish-perfumes/seo-analyzer/analyzer"
	"github.com/lavish-perfumes/seo-analyzer/metrics"
	"github.com/lavish-perfumes/seo-analyzer/middleware"
	"github.com/lavish-perfumes/seo-analyzer/stats"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type analyzerFunc func(ctx context.Context, pageURL string) (*analyzer.SEOResult, error)

func (f analyzerFunc) Analyze(ctx context.Context, pageURL string) (*analyzer.SEOResult, error) {
	return f(ctx, pageURL)
}

type testServer struct {
	router  *gin.Engine
	storage *stats.Storage
}

func newTestServer(t *testing.T, seoAnalyzer SEOAnalyzer, limiter *middleware.RateLimiter) *testServer {
	t.Helper()

	storage, err := stats.NewStorage(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { storage.Shutdown() })

	reg := prometheus.NewRegistry()
	router := NewRouter(NewHandler(seoAnalyzer, storage, nil), Deps{
		Metrics:     metrics.New(reg),
		Gatherer:    reg,
		Stats:       storage,
		RateLimiter: limiter,
	})
	return &testServer{router: router, storage: storage}
}

func (s *testServer) post(path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) get(path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"]
}

var sampleResult = &analyzer.SEOResult{
	Title:           "Oud Wood | Lavish",
	Description:     analyzer.NoDescription,
	MetaDescription: "عطر Oud Wood - عطر خشبي. عروض حصرية",
	ArabicKeywords:  "عطر خشبي، عود",
	EnglishKeywords: "oud, woody perfume",
	ArabicSEOTitle:  "Oud Wood | من لافيش | عطر فاخر",
	EnglishSEOTitle: "Oud Wood | from lavish | luxury perfume",
	ImageURL:        "https://site.com/oud.jpg",
}

func TestAnalyzeRejectsMissingURL(t *testing.T) {
	called := false
	s := newTestServer(t, analyzerFunc(func(context.Context, string) (*analyzer.SEOResult, error) {
		called = true
		return sampleResult, nil
	}), nil)

	for _, body := range []string{`{}`, `{"url": ""}`, `{"url": "   "}`, `not json`, ``} {
		for _, path := range []string{"/analyze", "/reanalyze"} {
			w := s.post(path, body)
			assert.Equal(t, http.StatusBadRequest, w.Code, "%s %q", path, body)
			assert.Equal(t, URLRequiredMessage, errorMessage(t, w))
		}
	}

	assert.False(t, called)
	assert.Equal(t, 10, s.storage.GetCurrentStats().Rejected)
}

func TestAnalyzeSuccess(t *testing.T) {
	var gotURL string
	s := newTestServer(t, analyzerFunc(func(_ context.Context, pageURL string) (*analyzer.SEOResult, error) {
		gotURL = pageURL
		return sampleResult, nil
	}), nil)

	w := s.post("/analyze", `{"url": "  https://site.com/products/oud-wood  "}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://site.com/products/oud-wood", gotURL)

	var got map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, map[string]string{
		"title":             sampleResult.Title,
		"description":       sampleResult.Description,
		"meta_description":  sampleResult.MetaDescription,
		"arabic_keywords":   sampleResult.ArabicKeywords,
		"english_keywords":  sampleResult.EnglishKeywords,
		"arabic_seo_title":  sampleResult.ArabicSEOTitle,
		"english_seo_title": sampleResult.EnglishSEOTitle,
		"image_url":         sampleResult.ImageURL,
	}, got)

	current := s.storage.GetCurrentStats()
	assert.Equal(t, 1, current.AnalyzeRequests)
	assert.Equal(t, 1, current.Succeeded)
}

func TestAnalyzeFetchFailure(t *testing.T) {
	s := newTestServer(t, analyzerFunc(func(_ context.Context, pageURL string) (*analyzer.SEOResult, error) {
		return nil, &analyzer.FetchError{URL: pageURL, StatusCode: http.StatusNotFound, Err: errors.New("404 Not Found")}
	}), nil)

	w := s.post("/reanalyze", `{"url": "https://site.com/missing"}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	msg := errorMessage(t, w)
	assert.True(t, strings.HasPrefix(msg, FetchFailedPrefix), msg)
	assert.Greater(t, len(msg), len(FetchFailedPrefix))
	assert.Equal(t, 1, s.storage.GetCurrentStats().FetchFailures)
}

func TestAnalyzeInternalFailure(t *testing.T) {
	s := newTestServer(t, analyzerFunc(func(context.Context, string) (*analyzer.SEOResult, error) {
		return nil, errors.New("extract: broken document")
	}), nil)

	w := s.post("/analyze", `{"url": "https://site.com/p"}`)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, middleware.AnalysisFailedPrefix+"extract: broken document", errorMessage(t, w))
	assert.Equal(t, 1, s.storage.GetCurrentStats().InternalFailures)
}

func TestAnalyzePanicBecomesInternalError(t *testing.T) {
	s := newTestServer(t, analyzerFunc(func(context.Context, string) (*analyzer.SEOResult, error) {
		panic("index out of range")
	}), nil)

	w := s.post("/analyze", `{"url": "https://site.com/p"}`)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.True(t, strings.HasPrefix(errorMessage(t, w), middleware.AnalysisFailedPrefix))

	current := s.storage.GetCurrentStats()
	assert.Equal(t, 1, current.AnalyzeRequests)
	assert.Equal(t, 1, current.InternalFailures)
}

func TestStatistics(t *testing.T) {
	s := newTestServer(t, analyzerFunc(func(context.Context, string) (*analyzer.SEOResult, error) {
		return sampleResult, nil
	}), nil)

	s.post("/analyze", `{"url": "https://site.com/p"}`)
	s.post("/reanalyze", `{"url": "https://site.com/p"}`)
	s.post("/reanalyze", `{}`)

	w := s.get("/statistics")
	require.Equal(t, http.StatusOK, w.Code)

	var got stats.MonthlyStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 1, got.AnalyzeRequests)
	assert.Equal(t, 2, got.ReanalyzeRequests)
	assert.Equal(t, 2, got.Succeeded)
	assert.Equal(t, 1, got.Rejected)
}

func TestStatisticsByMonth(t *testing.T) {
	s := newTestServer(t, analyzerFunc(func(context.Context, string) (*analyzer.SEOResult, error) {
		return sampleResult, nil
	}), nil)

	s.post("/analyze", `{"url": "https://site.com/p"}`)
	current := time.Now().Format("2006-01")

	t.Run("known month", func(t *testing.T) {
		w := s.get("/statistics?month=" + current)
		require.Equal(t, http.StatusOK, w.Code)

		var got stats.MonthlyStats
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, 1, got.AnalyzeRequests)
		assert.Equal(t, 1, got.Succeeded)
	})

	t.Run("month without data", func(t *testing.T) {
		w := s.get("/statistics?month=1999-01")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, errorMessage(t, w), "1999-01")
	})

	t.Run("malformed month", func(t *testing.T) {
		for _, month := range []string{"2024-13", "2024", "last"} {
			w := s.get("/statistics?month=" + month)
			assert.Equal(t, http.StatusBadRequest, w.Code, month)
		}
	})

	t.Run("months list", func(t *testing.T) {
		w := s.get("/statistics/months")
		require.Equal(t, http.StatusOK, w.Code)

		var got struct {
			Months []string `json:"months"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, []string{current}, got.Months)
	})
}

func TestIndexHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, analyzerFunc(func(context.Context, string) (*analyzer.SEOResult, error) {
		return sampleResult, nil
	}), nil)

	index := s.get("/")
	require.Equal(t, http.StatusOK, index.Code)
	assert.Contains(t, index.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, index.Body.String(), "/reanalyze")

	health := s.get("/health")
	require.Equal(t, http.StatusOK, health.Code)
	assert.JSONEq(t, `{"status":"ok"}`, health.Body.String())

	s.post("/analyze", `{"url": "https://site.com/p"}`)

	m := s.get("/metrics")
	require.Equal(t, http.StatusOK, m.Code)
	assert.Contains(t, m.Body.String(), `seo_analyzer_analyses_total{endpoint="analyze",outcome="success"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, analyzerFunc(func(context.Context, string) (*analyzer.SEOResult, error) {
		return sampleResult, nil
	}), nil)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/analyze", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestAnalyzeRateLimited(t *testing.T) {
	s := newTestServer(t, analyzerFunc(func(context.Context, string) (*analyzer.SEOResult, error) {
		return sampleResult, nil
	}), middleware.NewRateLimiter(0.001, 2))

	assert.Equal(t, http.StatusOK, s.post("/analyze", `{"url": "https://site.com/p"}`).Code)
	assert.Equal(t, http.StatusOK, s.post("/reanalyze", `{"url": "https://site.com/p"}`).Code)
	assert.Equal(t, http.StatusTooManyRequests, s.post("/analyze", `{"url": "https://site.com/p"}`).Code)

	assert.Equal(t, http.StatusOK, s.get("/health").Code, "only analysis routes are limited")
}

const productPage = `<html><head>
<title>Oud Wood EDP | Lavish Perfumes</title>
<meta name="description" content="عطر عود وود الخشبي للرجال">
<meta property="og:image" content="//cdn.site.com/oud-wood.jpg">
</head><body>
<p>Oud wood perfume for men. Smoky oud, rich oud, warm woods.</p>
<p>عطر خشبي دافئ بنفحات العود والعنبر</p>
</body></html>`

func TestAnalyzeAgainstLivePage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/products/oud-wood-men", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, productPage)
	})
	page := httptest.NewServer(mux)
	defer page.Close()

	seoAnalyzer := analyzer.New(analyzer.NewHTTPFetcher(analyzer.FetchOptions{}), analyzer.DefaultLexicon(),
		analyzer.WithRandSource(func() *rand.Rand { return rand.New(rand.NewPCG(rand.Uint64(), 1)) }),
	)
	s := newTestServer(t, seoAnalyzer, nil)

	body, err := json.Marshal(AnalysisRequest{URL: page.URL + "/products/oud-wood-men"})
	require.NoError(t, err)

	var runs []analyzer.SEOResult
	for i := 0; i < 2; i++ {
		w := s.post("/reanalyze", string(body))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var result analyzer.SEOResult
		require.NoError(t, json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(&result))
		runs = append(runs, result)
	}

	for _, run := range runs {
		assert.Equal(t, "Oud Wood EDP | Lavish Perfumes", run.Title)
		assert.Equal(t, "عطر عود وود الخشبي للرجال", run.Description)
		assert.Equal(t, "//cdn.site.com/oud-wood.jpg", run.ImageURL)
		assert.True(t, strings.HasPrefix(run.EnglishSEOTitle, "oud-wood-men | from lavish | men perfume "), run.EnglishSEOTitle)
	}

	missing := s.post("/analyze", `{"url": "`+page.URL+`/products/gone"}`)
	assert.Equal(t, http.StatusBadRequest, missing.Code)
	assert.True(t, strings.HasPrefix(errorMessage(t, missing), FetchFailedPrefix))
}
