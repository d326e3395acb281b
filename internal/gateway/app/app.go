package app

import (
	"context"
	"fmt"

	"contractcreator/internal/gateway/config"
	"contractcreator/internal/gateway/handler"
	"contractcreator/internal/gateway/registry"
	"contractcreator/internal/gateway/server"
	"contractcreator/internal/llm"
	llmclient "contractcreator/internal/llmClient"
	"contractcreator/internal/llmtool"
	"contractcreator/internal/logging"
	"contractcreator/internal/metrics"
	"contractcreator/internal/schema"
	"contractcreator/internal/session"
	"contractcreator/internal/validation"
)

type App struct {
	server   *server.Server
	sessions *registry.Registry
	llm      llmclient.LLMClient
	closers  []func() error
	logger   logging.Logger
}

func New(ctx context.Context, args []string) (*App, error) {
	cfg, err := config.Load(args)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := logging.SetLogLevel(cfg.LogLevel); err != nil {
		return nil, err
	}
	logger := logging.New("gateway", "env", cfg.Env)

	m, err := metrics.New()
	if err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	cli, err := newLLMClient(ctx, cfg.LLM, m)
	if err != nil {
		return nil, err
	}
	validator, err := newValidator(cfg.Validation, m)
	if err != nil {
		_ = cli.Close()
		return nil, err
	}
	snapshots, closeStore, err := initSnapshotStore(cfg.Snapshot, logger)
	if err != nil {
		_ = cli.Close()
		return nil, err
	}

	sessions, err := registry.New(cfg.Session.Max, session.Config{
		MaxNestingDepth: cfg.Session.MaxDepth,
		Format:          schema.FormatPretty,
		DiscardStaleAI:  cfg.Session.DiscardStaleAI,
	}, session.Deps{
		Generator: llmtool.NewContractGenerator(cli),
		Validator: validator,
		Metrics:   m,
	})
	if err != nil {
		_ = cli.Close()
		if closeStore != nil {
			_ = closeStore()
		}
		return nil, err
	}

	h := handler.New(sessions, snapshots, logging.New("handler"))
	mux := server.NewMux(h, m, logging.New("http"), cfg.AllowedOrigins)

	a := &App{
		server:   server.New(cfg.Port, mux, logger),
		sessions: sessions,
		llm:      cli,
		logger:   logger,
	}
	if closeStore != nil {
		a.closers = append(a.closers, closeStore)
	}
	logger.Infow("gateway ready", "llm", cli.Name(), "snapshots", cfg.Snapshot.Backend, "remoteValidator", cfg.Validation.RemoteURL != "")
	return a, nil
}

func newLLMClient(ctx context.Context, cfg config.LLMConfig, m *metrics.Metrics) (llmclient.LLMClient, error) {
	opts := llm.Options{
		Provider: cfg.Provider,
		RPS:      cfg.RPS,
		Burst:    cfg.Burst,
		Retries:  cfg.Retries,
		Logger:   logging.New("llm", "provider", cfg.Provider),
		Metrics:  m,
	}
	switch cfg.Provider {
	case llm.ProviderGemini:
		opts.APIKey, opts.Model = cfg.GeminiKey, cfg.GeminiModel
	default:
		opts.APIKey, opts.BaseURL, opts.Model = cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel
	}
	cli, err := llm.New(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to init llm client: %w", err)
	}
	return cli, nil
}

// newValidator builds remote-or-local validation behind a result cache and
// the metrics/normalization service.
func newValidator(cfg config.ValidationConfig, m *metrics.Metrics) (validation.Validator, error) {
	var base validation.Validator
	if cfg.RemoteURL != "" {
		base = validation.NewRemoteValidator(cfg.RemoteURL, cfg.Timeout)
	} else {
		rules, err := validation.NewRulesValidator()
		if err != nil {
			return nil, fmt.Errorf("failed to init rules validator: %w", err)
		}
		base = rules
	}
	if cfg.CacheSize > 0 {
		cached, err := validation.NewCachedValidator(base, cfg.CacheSize, m)
		if err != nil {
			return nil, err
		}
		base = cached
	}
	return validation.NewService(base, m), nil
}

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	a.sessions.Close()
	if cerr := a.llm.Close(); cerr != nil {
		a.logger.Warnf("close llm client: %v", cerr)
	}
	for _, c := range a.closers {
		if cerr := c(); cerr != nil {
			a.logger.Warnf("close store: %v", cerr)
		}
	}
	return err
}
