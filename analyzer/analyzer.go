package analyzer

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/lavish-perfumes/seo-analyzer/metrics"
)

// Analyzer runs the fetch, extract, rank and synthesize pipeline for one URL
type Analyzer struct {
	fetcher     Fetcher
	tokenizer   *Tokenizer
	synthesizer *Synthesizer
	newRand     func() *rand.Rand
	logger      *zap.Logger
	metrics     *metrics.Metrics
}

// Option customizes an Analyzer
type Option func(*Analyzer)

// WithRandSource sets the factory for the per-analysis random source.
// Tests pass a fixed seed to get reproducible output.
func WithRandSource(newRand func() *rand.Rand) Option {
	return func(a *Analyzer) {
		a.newRand = newRand
	}
}

// WithLogger sets the logger used by the pipeline
func WithLogger(logger *zap.Logger) Option {
	return func(a *Analyzer) {
		a.logger = logger
	}
}

// WithMetrics reports fetch timings to m
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Analyzer) {
		a.metrics = m
	}
}

// New creates a new Analyzer instance
func New(fetcher Fetcher, lexicon *Lexicon, opts ...Option) *Analyzer {
	a := &Analyzer{
		fetcher: fetcher,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}

	a.tokenizer = NewTokenizer(lexicon.StopwordSet())
	a.synthesizer = NewSynthesizer(lexicon, a.logger)
	return a
}

// Analyze fetches pageURL and synthesizes fresh SEO strings for it. Every
// call draws new random samples, so repeated calls on the same page differ
// in keywords and titles but not in the extracted metadata.
func (a *Analyzer) Analyze(ctx context.Context, pageURL string) (*SEOResult, error) {
	a.logger.Info("analyzing url", zap.String("url", pageURL))

	start := time.Now()
	body, err := a.fetcher.Fetch(ctx, pageURL)
	a.metrics.ObserveFetch(time.Since(start), err)
	if err != nil {
		a.logger.Warn("page fetch failed", zap.String("url", pageURL), zap.Error(err))
		return nil, err
	}

	page, err := Extract(pageURL, body)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", pageURL, err)
	}

	keywords := a.tokenizer.Keywords(page.Text)
	result := a.synthesizer.Synthesize(a.newRand(), page, keywords)

	a.logger.Info("analysis completed",
		zap.String("url", pageURL),
		zap.Int("arabic_keywords", len(keywords.Arabic)),
		zap.Int("english_keywords", len(keywords.English)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}
