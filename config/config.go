package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/lavish-perfumes/seo-analyzer/analyzer"
)

// Fetch modes
const (
	FetchModeHTTP    = "http"
	FetchModeBrowser = "browser"
)

// Config holds the application configuration
type Config struct {
	Port    string
	GinMode string

	LogLevel  string
	LogFormat string
	LogFile   string

	DataDir string

	FetchMode     string
	FetchTimeout  time.Duration
	FetchMaxBytes int64
	UserAgent     string

	LexiconFile string

	RateLimitRPS   float64
	RateLimitBurst int

	ShutdownTimeout time.Duration
}

// LoadEnvFiles loads .env.development, falling back to .env. Variables
// already present in the environment are never overridden. It reports
// whether a file was found.
func LoadEnvFiles() bool {
	if err := godotenv.Load(".env.development"); err == nil {
		return true
	}
	return godotenv.Load() == nil
}

// Load reads the configuration from the environment
func Load() (*Config, error) {
	p := &parser{}

	cfg := &Config{
		Port:            getEnv("PORT", "5000"),
		GinMode:         getEnv("GIN_MODE", "release"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "json"),
		LogFile:         getEnv("LOG_FILE", ""),
		DataDir:         getEnv("DATA_DIR", "data"),
		FetchMode:       getEnv("FETCH_MODE", FetchModeHTTP),
		FetchTimeout:    p.duration("FETCH_TIMEOUT", analyzer.DefaultFetchTimeout),
		FetchMaxBytes:   p.int64("FETCH_MAX_BYTES", analyzer.DefaultMaxBodyBytes),
		UserAgent:       getEnv("USER_AGENT", analyzer.DefaultUserAgent),
		LexiconFile:     getEnv("LEXICON_FILE", ""),
		RateLimitRPS:    p.float("RATE_LIMIT_RPS", 2),
		RateLimitBurst:  int(p.int64("RATE_LIMIT_BURST", 5)),
		ShutdownTimeout: p.duration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	if cfg.FetchMode != FetchModeHTTP && cfg.FetchMode != FetchModeBrowser {
		p.errs = append(p.errs, fmt.Errorf("FETCH_MODE: unknown mode %q", cfg.FetchMode))
	}
	if cfg.FetchTimeout <= 0 {
		p.errs = append(p.errs, errors.New("FETCH_TIMEOUT: must be positive"))
	}
	if cfg.RateLimitRPS <= 0 || cfg.RateLimitBurst <= 0 {
		p.errs = append(p.errs, errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive"))
	}

	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FetchOptions returns the fetcher settings
func (c *Config) FetchOptions() analyzer.FetchOptions {
	return analyzer.FetchOptions{
		Timeout:      c.FetchTimeout,
		UserAgent:    c.UserAgent,
		MaxBodyBytes: c.FetchMaxBytes,
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

// parser collects every malformed value so startup reports them together
type parser struct {
	errs []error
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return d
}

func (p *parser) int64(key string, fallback int64) int64 {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}

func (p *parser) float(key string, fallback float64) float64 {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}
