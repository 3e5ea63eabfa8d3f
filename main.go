package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/lavish-perfumes/seo-analyzer/analyzer"
	"github.com/lavish-perfumes/seo-analyzer/api"
	"github.com/lavish-perfumes/seo-analyzer/config"
	"github.com/lavish-perfumes/seo-analyzer/logging"
	"github.com/lavish-perfumes/seo-analyzer/metrics"
	"github.com/lavish-perfumes/seo-analyzer/middleware"
	"github.com/lavish-perfumes/seo-analyzer/stats"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "seo-analyzer: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	envFileLoaded := config.LoadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	if !envFileLoaded {
		logger.Info("no .env file found, using environment variables")
	}

	gin.SetMode(cfg.GinMode)

	lexicon, err := analyzer.LoadLexicon(cfg.LexiconFile)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appMetrics := metrics.New(registry)

	var fetcher analyzer.Fetcher
	switch cfg.FetchMode {
	case config.FetchModeBrowser:
		browser := analyzer.NewBrowserFetcher(cfg.FetchOptions())
		defer browser.Close()
		fetcher = browser
	default:
		fetcher = analyzer.NewHTTPFetcher(cfg.FetchOptions())
	}

	seoAnalyzer := analyzer.New(fetcher, lexicon,
		analyzer.WithLogger(logger.Named("analyzer")),
		analyzer.WithMetrics(appMetrics),
	)

	statsStorage, err := stats.NewStorage(cfg.DataDir, logger.Named("stats"))
	if err != nil {
		return err
	}
	statsStorage.Cleanup()

	handler := api.NewHandler(seoAnalyzer, statsStorage, logger)
	router := api.NewRouter(handler, api.Deps{
		Logger:      logger,
		Metrics:     appMetrics,
		Gatherer:    registry,
		Stats:       statsStorage,
		RateLimiter: middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("fetch_mode", cfg.FetchMode),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	if err := statsStorage.Shutdown(); err != nil {
		logger.Error("failed to save statistics", zap.Error(err))
	}

	return nil
}
