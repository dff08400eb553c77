// Package sentiment turns user text into a normalized sentiment result using
// a single LLM provider.
package sentiment

import (
	"context"
	"strings"
	"time"

	"sentiment-aura/internal/common/config"
	apperrors "sentiment-aura/internal/common/errors"
	"sentiment-aura/internal/common/logger"
	"sentiment-aura/internal/common/metrics"
	"sentiment-aura/internal/common/observability"
	"sentiment-aura/internal/llm"
)

// Options is the analyze retry policy.
type Options struct {
	MaxAttempts    int
	Timeout        time.Duration
	BackoffUnit    time.Duration
	MaxInputLength int
}

// DefaultOptions: 3 attempts, 10s each, 1s backoff unit, 3000 characters.
func DefaultOptions() Options {
	return Options{
		MaxAttempts:    3,
		Timeout:        10 * time.Second,
		BackoffUnit:    time.Second,
		MaxInputLength: 3000,
	}
}

// OptionsFromConfig reads the retry policy from the llm config section.
func OptionsFromConfig(cfg config.LLMConfig) Options {
	return Options{
		MaxAttempts:    cfg.MaxRetries,
		Timeout:        config.GetDuration(cfg.Timeout),
		BackoffUnit:    config.GetDuration(cfg.BackoffUnit),
		MaxInputLength: cfg.MaxInputLength,
	}
}

// Analyzer is built once at startup and shared by all callers. It holds no
// per-call state.
type Analyzer struct {
	provider llm.Provider
	opts     Options
	logger   logger.Logger
	cache    Cache
	stats    *Stats
	obs      *observability.Observability
	onRetry  func(attempt int, delay time.Duration, err error)
}

// Option customizes an Analyzer.
type Option func(*Analyzer)

func WithCache(c Cache) Option {
	return func(a *Analyzer) { a.cache = c }
}

func WithStats(s *Stats) Option {
	return func(a *Analyzer) { a.stats = s }
}

func WithObservability(o *observability.Observability) Option {
	return func(a *Analyzer) { a.obs = o }
}

// WithRetryHook is called before each backoff wait.
func WithRetryHook(fn func(attempt int, delay time.Duration, err error)) Option {
	return func(a *Analyzer) { a.onRetry = fn }
}

// New wraps an already selected provider.
func New(provider llm.Provider, opts Options, log logger.Logger, extra ...Option) (*Analyzer, error) {
	if provider == nil {
		return nil, apperrors.NewConfigurationError("no provider configured")
	}

	defaults := DefaultOptions()
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaults.MaxAttempts
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaults.Timeout
	}
	if opts.BackoffUnit < 0 {
		opts.BackoffUnit = defaults.BackoffUnit
	}
	if opts.MaxInputLength <= 0 {
		opts.MaxInputLength = defaults.MaxInputLength
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	a := &Analyzer{
		provider: provider,
		opts:     opts,
		logger: log.With(map[string]interface{}{
			"component": "analyzer",
			"provider":  string(provider.Name()),
		}),
	}
	for _, opt := range extra {
		opt(a)
	}
	return a, nil
}

// NewFromConfig selects a provider from cfg and builds the Analyzer.
func NewFromConfig(cfg config.LLMConfig, log logger.Logger, providerOpts []llm.Option, extra ...Option) (*Analyzer, error) {
	provider, err := llm.New(cfg, providerOpts...)
	if err != nil {
		return nil, err
	}
	return New(provider, OptionsFromConfig(cfg), log, extra...)
}

// Provider returns the active provider identity.
func (a *Analyzer) Provider() llm.Identity { return a.provider.Name() }

// Model returns the active model name.
func (a *Analyzer) Model() string { return a.provider.Model() }

// Stats returns the attached tracker, or nil.
func (a *Analyzer) Stats() *Stats { return a.stats }

// Analyze sends text to the provider and normalizes the reply.
func (a *Analyzer) Analyze(ctx context.Context, text string) (*Result, error) {
	start := time.Now()
	provider := string(a.provider.Name())

	if strings.TrimSpace(text) == "" {
		err := apperrors.NewInvalidInputError("text is empty after trimming whitespace")
		a.finish(ctx, start, nil, err)
		return nil, err
	}

	prepared := Truncate(text, a.opts.MaxInputLength)

	key := ""
	if a.cache != nil {
		key = CacheKey(provider, prepared)
		if cached, ok := a.lookup(ctx, key); ok {
			a.finish(ctx, start, cached, nil)
			return cached, nil
		}
	}

	out, err := a.sendWithRetry(ctx, UserPrompt(prepared))
	if err != nil {
		var failure *apperrors.StandardError
		if out.timedOut {
			failure = apperrors.NewProviderTimeoutError(provider, out.attempts)
		} else {
			cause := out.lastErr
			if cause == nil {
				cause = err
			}
			failure = apperrors.NewProviderError(provider, cause)
		}
		a.finish(ctx, start, nil, failure)
		return nil, failure
	}

	obj, strategy := Extract(out.reply)
	result := Repair(obj)
	if strategy == StrategyDefault {
		a.logger.Warn("provider reply had no usable JSON, using defaults", map[string]interface{}{
			"reply": preview(out.reply, 200),
		})
	}

	if a.cache != nil {
		a.store(ctx, key, result)
	}

	a.logger.Info("analysis complete", map[string]interface{}{
		"type":       string(result.Sentiment.Type),
		"score":      result.Sentiment.Score,
		"attempts":   out.attempts,
		"extraction": string(strategy),
	})

	a.finish(ctx, start, &result, nil)
	return &result, nil
}

// Close tears down the provider if it supports it. Failures are logged only.
func (a *Analyzer) Close() error {
	if err := llm.Close(a.provider); err != nil {
		a.logger.Warn("provider close failed", map[string]interface{}{"error": err.Error()})
	}
	return nil
}

func (a *Analyzer) finish(ctx context.Context, start time.Time, result *Result, err error) {
	provider := string(a.provider.Name())
	outcome := "success"
	if err != nil {
		outcome = strings.ToLower(string(apperrors.Normalize(err).Code))
	}

	metrics.Analyses.WithLabelValues(provider, outcome).Inc()
	a.obs.RecordAnalysis(ctx, provider, outcome)
	a.obs.RecordAnalysisDuration(ctx, time.Since(start), provider, outcome)

	if a.stats == nil {
		return
	}
	if err != nil {
		a.stats.RecordFailure(string(apperrors.Normalize(err).Code))
		return
	}
	a.stats.RecordSuccess(*result)
}

func (a *Analyzer) lookup(ctx context.Context, key string) (*Result, bool) {
	cached, ok, err := a.cache.Get(ctx, key)
	switch {
	case err != nil:
		metrics.CacheLookups.WithLabelValues("error").Inc()
		a.logger.Warn("cache lookup failed", map[string]interface{}{"error": err.Error()})
		return nil, false
	case !ok:
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}
	metrics.CacheLookups.WithLabelValues("hit").Inc()
	a.logger.Debug("cache hit", map[string]interface{}{"key": key})
	return cached, true
}

func (a *Analyzer) store(ctx context.Context, key string, result Result) {
	if err := a.cache.Set(ctx, key, result); err != nil {
		a.logger.Warn("cache store failed", map[string]interface{}{"error": err.Error()})
	}
}

func preview(s string, n int) string {
	return Truncate(s, n)
}
