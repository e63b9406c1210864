package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/article-analyzer/internal/server"
	"github.com/dshills/article-analyzer/pipeline/emit"
)

const shutdownTimeout = 10 * time.Second

type serveOptions struct {
	addr string
}

func newServeCmd(root *rootOptions) *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analysis API over HTTP",
		Long: `Starts the HTTP API:

  POST /analyze   {"text": "...", "topic": "..."}
  GET  /          service description
  GET  /healthz   liveness
  GET  /metrics   Prometheus metrics

The server stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), root, opts)
		},
	}
	cmd.Flags().StringVar(&opts.addr, "addr", "", "Listen address (overrides SERVER_ADDRESS)")
	return cmd
}

func runServe(ctx context.Context, root *rootOptions, opts *serveOptions) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if opts.addr != "" {
		cfg.Server.Address = opts.addr
	}
	logger := cfg.Log.NewLogger(os.Stderr)

	var emitters []emit.Emitter
	var tp *sdktrace.TracerProvider
	if cfg.Tracing {
		tp = newTracerProvider()
		otel.SetTracerProvider(tp)
		emitters = append(emitters, emit.NewOTelEmitter(tp.Tracer("article-analyzer")))
	}

	a, err := newApp(cfg, logger, emitters...)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("close failed", "error", err)
		}
	}()

	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           server.New(a.pipeline, a.registry, logger).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening",
			"addr", cfg.Server.Address,
			"provider_a", cfg.Providers.A,
			"provider_b", cfg.Providers.B,
			"synthesis_provider", cfg.Providers.Synthesis,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		if tp != nil {
			err = errors.Join(err, tp.Shutdown(shutdownCtx))
		}
		return err
	})
	return g.Wait()
}

func newTracerProvider() *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(
		sdktrace.WithResource(sdkresource.NewSchemaless(
			attribute.String("service.name", "article-analyzer"),
			attribute.String("service.version", version),
		)),
	)
}
