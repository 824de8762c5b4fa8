package server

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/n9te9/hive-query-router/internal/config"
	"github.com/n9te9/hive-query-router/internal/loader"
	"github.com/n9te9/hive-query-router/internal/plancache"
	"github.com/n9te9/hive-query-router/internal/router"
	"github.com/n9te9/hive-query-router/internal/telemetry"
)

const routerVersion = "v0.1.0"

// Run loads cfg, starts the supergraph loader, and serves the router
// pipeline over HTTP until an interrupt/TERM signal arrives, then drains
// in-flight requests before exiting.
func Run(cfg *config.Config) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	var source loader.Source
	manager := &loader.Manager{
		Loader:   newSupergraphLoader(cfg),
		Source:   &source,
		Interval: cfg.Supergraph.PollIntervalDuration(),
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill, syscall.SIGTERM)
	defer cancel()

	go manager.Run(ctx)

	pipeline := &router.Pipeline{
		Source:         &source,
		Cache:          plancache.New[router.Result](cfg.PlanCache.MaxEntries),
		AuthMode:       cfg.Authorization.ResolveMode(),
		PlannerTimeout: cfg.Supergraph.PlannerTimeoutDuration(),
	}

	var handler http.Handler = &Handler{Pipeline: pipeline}
	if cfg.Opentelemetry.TracingSetting.Enable {
		handler = otelhttp.NewHandler(handler, cfg.ServiceName)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: handler,
	}

	var shutdownTracer func(context.Context) error
	if cfg.Opentelemetry.TracingSetting.Enable {
		var err error
		shutdownTracer, err = telemetry.InitTracer(ctx, cfg.ServiceName, routerVersion)
		if err != nil {
			log.Fatalf("failed to initialize tracer: %v", err)
		}
	}

	go func() {
		slog.Info("starting router server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("router server failed: %v", err)
		}
	}()

	<-ctx.Done()

	timeoutCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()

	slog.Info("shutting down router server")
	if err := srv.Shutdown(timeoutCtx); err != nil {
		log.Fatalf("failed to shutdown router server: %v", err)
	}

	if shutdownTracer != nil {
		if err := shutdownTracer(timeoutCtx); err != nil {
			log.Fatalf("failed to shutdown tracer: %v", err)
		}
	}

	slog.Info("router server stopped")
}

func newSupergraphLoader(cfg *config.Config) loader.Loader {
	switch {
	case cfg.Supergraph.File != nil:
		return &loader.FileLoader{AbsolutePath: cfg.Supergraph.File.Path}
	case cfg.Supergraph.Hive != nil:
		return &loader.HiveLoader{
			Endpoint:      cfg.Supergraph.Hive.Endpoint,
			CDNKey:        cfg.Supergraph.Hive.CDNKey,
			RouterVersion: routerVersion,
			Retry: loader.RetryOption{
				MaxAttempts: cfg.Supergraph.Hive.RetryAttempts,
				Backoff:     cfg.Supergraph.Hive.RetryBackoffDuration(),
				Timeout:     cfg.Supergraph.Hive.RetryTimeoutDuration(),
			},
		}
	default:
		log.Fatal("router: no supergraph source configured (supergraph.file or supergraph.hive)")
		return nil
	}
}
