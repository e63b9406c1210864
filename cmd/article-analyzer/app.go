package main

import (
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dshills/article-analyzer/analysis"
	"github.com/dshills/article-analyzer/internal/config"
	"github.com/dshills/article-analyzer/pipeline"
	"github.com/dshills/article-analyzer/pipeline/emit"
	"github.com/dshills/article-analyzer/pipeline/store"
)

// app is the wired process: pipeline, metrics registry and the resources
// that must be released on exit.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	pipeline *analysis.Pipeline
	closers  []io.Closer
}

func loadConfig(opts *rootOptions) (*config.Config, error) {
	if opts.envFile != "" {
		return config.Load(opts.envFile)
	}
	return config.Load()
}

// newApp builds the provider clients from cfg and wires the pipeline.
func newApp(cfg *config.Config, logger *slog.Logger, emitters ...emit.Emitter) (*app, error) {
	models, err := config.NewModels(cfg.Providers)
	if err != nil {
		return nil, err
	}
	providers, err := models.Providers(cfg.Providers)
	if err != nil {
		_ = models.Close()
		return nil, err
	}

	a, err := wire(cfg, logger, providers, emitters...)
	if err != nil {
		_ = models.Close()
		return nil, err
	}
	a.closers = append(a.closers, models)
	return a, nil
}

// wire assembles the pipeline around already built providers.
func wire(cfg *config.Config, logger *slog.Logger, providers analysis.Providers, emitters ...emit.Emitter) (*app, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a := &app{cfg: cfg, logger: logger, registry: registry}

	opts := []analysis.Option{
		analysis.WithLogger(logger),
		analysis.WithMetrics(pipeline.NewMetrics(registry)),
		analysis.WithEmitter(append(emit.Multi{emit.NewLogEmitter(logger)}, emitters...)),
		analysis.WithMaxTokens(cfg.Providers.MaxOutputTokens),
	}

	if cfg.JournalDSN != "" {
		journal, err := store.Open[analysis.State](cfg.JournalDSN)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, journal)
		opts = append(opts, analysis.WithStore(journal))
		logger.Info("step journal enabled", "dsn_scheme", journalScheme(cfg.JournalDSN))
	}

	p, err := analysis.New(providers, opts...)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.pipeline = p
	return a, nil
}

// Close releases every resource in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func journalScheme(dsn string) string {
	scheme, _, _ := strings.Cut(dsn, ":")
	return scheme
}
