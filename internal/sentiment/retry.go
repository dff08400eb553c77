package sentiment

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"sentiment-aura/internal/common/metrics"
)

// linearBackOff waits attempt×unit before each retry: unit, 2·unit, ...
type linearBackOff struct {
	unit    time.Duration
	retries int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.retries++
	return time.Duration(b.retries) * b.unit
}

func (b *linearBackOff) Reset() { b.retries = 0 }

// attemptOutcome is what the retry loop learned about the final attempt.
type attemptOutcome struct {
	reply    string
	attempts int
	timedOut bool
	lastErr  error
}

// sendWithRetry runs up to MaxAttempts sequential provider calls, each under
// its own deadline.
func (a *Analyzer) sendWithRetry(ctx context.Context, userPrompt string) (attemptOutcome, error) {
	var out attemptOutcome
	provider := string(a.provider.Name())

	policy := backoff.WithContext(
		backoff.WithMaxRetries(&linearBackOff{unit: a.opts.BackoffUnit}, uint64(a.opts.MaxAttempts-1)),
		ctx,
	)

	operation := func() error {
		out.attempts++
		reply, err := a.attempt(ctx, out.attempts, userPrompt)
		if err == nil {
			out.reply = reply
			out.timedOut = false
			out.lastErr = nil
			return nil
		}

		out.lastErr = err
		out.timedOut = errors.Is(err, errAttemptTimeout)
		return err
	}

	notify := func(err error, next time.Duration) {
		a.logger.Warn("provider attempt failed, retrying", map[string]interface{}{
			"provider":    provider,
			"attempt":     out.attempts,
			"maxAttempts": a.opts.MaxAttempts,
			"nextRetryIn": next.String(),
			"error":       err.Error(),
		})
		if a.onRetry != nil {
			a.onRetry(out.attempts, next, err)
		}
	}

	err := backoff.RetryNotify(operation, policy, notify)
	return out, err
}

var errAttemptTimeout = errors.New("provider attempt timed out")

// attempt makes one provider call. The call is abandoned when the
// per-attempt deadline fires even if the adapter ignores its context.
func (a *Analyzer) attempt(ctx context.Context, n int, userPrompt string) (string, error) {
	provider := string(a.provider.Name())

	attemptCtx, cancel := context.WithTimeout(ctx, a.opts.Timeout)
	defer cancel()

	attemptCtx, span := a.obs.StartSpan(attemptCtx, "llm.attempt",
		attribute.String("provider", provider),
		attribute.Int("attempt", n),
	)
	defer span.End()

	type reply struct {
		text string
		err  error
	}
	done := make(chan reply, 1)
	go func() {
		text, err := a.provider.SendPrompt(attemptCtx, SystemPrompt, userPrompt)
		done <- reply{text: text, err: err}
	}()

	var r reply
	select {
	case r = <-done:
	case <-attemptCtx.Done():
		r = reply{err: attemptCtx.Err()}
	}

	if r.err == nil {
		metrics.ProviderAttempts.WithLabelValues(provider, "success").Inc()
		span.SetAttributes(attribute.String("outcome", "success"))
		return r.text, nil
	}

	span.RecordError(r.err)
	span.SetStatus(codes.Error, r.err.Error())

	if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		metrics.ProviderAttempts.WithLabelValues(provider, "timeout").Inc()
		span.SetAttributes(attribute.String("outcome", "timeout"))
		return "", errAttemptTimeout
	}

	metrics.ProviderAttempts.WithLabelValues(provider, "error").Inc()
	span.SetAttributes(attribute.String("outcome", "error"))
	return "", r.err
}
