package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	llmclient "contractcreator/internal/llmClient"
	"contractcreator/internal/logging"
	"contractcreator/internal/metrics"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderFake   = "fake"
)

// Options selects a provider and the middleware stack around it.
type Options struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string

	RPS       float64
	Burst     int
	Retries   int
	RetryBase time.Duration

	Logger  logging.Logger
	Metrics *metrics.Metrics
}

// New builds the provider client wrapped as
// metrics -> logging -> retry -> rate limit -> provider.
func New(ctx context.Context, opts Options) (llmclient.LLMClient, error) {
	var base llmclient.LLMClient
	switch strings.ToLower(strings.TrimSpace(opts.Provider)) {
	case ProviderOpenAI, "":
		base = llmclient.NewOpenAIClient(opts.APIKey, opts.BaseURL, opts.Model)
	case ProviderGemini:
		g, err := llmclient.NewGeminiClient(ctx, opts.APIKey, opts.Model)
		if err != nil {
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		base = g
	case ProviderFake:
		base = NewFakeClient()
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", opts.Provider)
	}

	retries := opts.Retries
	if retries <= 0 {
		retries = 3
	}
	return Wrap(base,
		WithMetrics(opts.Metrics),
		WithLogging(opts.Logger),
		Retry(retries, opts.RetryBase),
		RateLimit(opts.RPS, opts.Burst),
	), nil
}
