package llm

import (
	"context"
	"errors"
	"time"

	llmclient "contractcreator/internal/llmClient"
	"contractcreator/internal/logging"
	"contractcreator/internal/metrics"
)

// Middleware decorates an LLMClient with a cross-cutting concern.
type Middleware func(llmclient.LLMClient) llmclient.LLMClient

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner llmclient.LLMClient, mws ...Middleware) llmclient.LLMClient {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// -------- Rate limiting --------

// RateLimit limits request rate with a token bucket.
// If rps <= 0, the limiter is disabled.
func RateLimit(rps float64, burst int) Middleware {
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		return &rateLimited{next: next, rl: newRPSLimiter(rps, burst)}
	}
}

type rateLimited struct {
	next llmclient.LLMClient
	rl   *rpsLimiter
}

func (c *rateLimited) Name() string { return c.next.Name() }

func (c *rateLimited) Close() error {
	c.rl.Stop()
	return c.next.Close()
}

func (c *rateLimited) Generate(ctx context.Context, prompt string) (string, error) {
	if err := c.rl.Acquire(ctx); err != nil {
		return "", err
	}
	return c.next.Generate(ctx, prompt)
}

// -------- Retry with exponential backoff --------

// Retry retries Generate up to maxAttempts with exponential backoff starting
// at baseDelay. Permanent errors and context cancellation stop immediately.
// A rate-limited response waits at least as long as the provider asked.
func Retry(maxAttempts int, baseDelay time.Duration) Middleware {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = 300 * time.Millisecond
	}
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		return &retrying{next: next, max: maxAttempts, base: baseDelay}
	}
}

type retrying struct {
	next llmclient.LLMClient
	max  int
	base time.Duration
}

func (r *retrying) Name() string { return r.next.Name() }
func (r *retrying) Close() error { return r.next.Close() }

func (r *retrying) Generate(ctx context.Context, prompt string) (string, error) {
	var last error
	for i := 0; i < r.max; i++ {
		resp, err := r.next.Generate(ctx, prompt)
		if err == nil {
			return resp, nil
		}
		var pErr *llmclient.PermanentError
		if errors.As(err, &pErr) {
			return "", err
		}
		last = err
		if i == r.max-1 {
			break
		}

		wait := r.base * time.Duration(1<<i)
		var rl *llmclient.RateLimitedError
		if errors.As(err, &rl) && rl.Wait > wait {
			wait = rl.Wait
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}
	}
	return "", last
}

// -------- Logging --------

// WithLogging logs request size, latency and errors. A nil logger uses the
// package default.
func WithLogging(logger logging.Logger) Middleware {
	if logger == nil {
		logger = logging.New("llm")
	}
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		return &logged{next: next, log: logger}
	}
}

type logged struct {
	next llmclient.LLMClient
	log  logging.Logger
}

func (l *logged) Name() string { return l.next.Name() }
func (l *logged) Close() error { return l.next.Close() }

func (l *logged) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	l.log.Debugf("LLM request (%s): %d bytes", l.next.Name(), len(prompt))
	out, err := l.next.Generate(ctx, prompt)
	if err != nil {
		l.log.Warnf("LLM error (%s) after %s: %v", l.next.Name(), time.Since(start), err)
		return out, err
	}
	l.log.Infof("LLM response (%s): %d bytes in %s", l.next.Name(), len(out), time.Since(start))
	return out, nil
}

// -------- Metrics --------

// WithMetrics records request counts and latency per provider.
func WithMetrics(m *metrics.Metrics) Middleware {
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		return &measured{next: next, m: m}
	}
}

type measured struct {
	next llmclient.LLMClient
	m    *metrics.Metrics
}

func (c *measured) Name() string { return c.next.Name() }
func (c *measured) Close() error { return c.next.Close() }

func (c *measured) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	out, err := c.next.Generate(ctx, prompt)
	result := metrics.ResultOK
	if err != nil {
		result = metrics.ResultError
	}
	c.m.AddLLMRequest(c.next.Name(), result, time.Since(start).Seconds())
	return out, err
}
