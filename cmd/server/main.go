package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	httpadapter "github.com/couchcryptid/childcare-availability/internal/adapter/http"
	"github.com/couchcryptid/childcare-availability/internal/adapter/source"
	"github.com/couchcryptid/childcare-availability/internal/config"
	"github.com/couchcryptid/childcare-availability/internal/ingest"
	"github.com/couchcryptid/childcare-availability/internal/observability"
	"github.com/couchcryptid/childcare-availability/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	var fetcher ingest.Fetcher = source.NewRouter(
		source.NewHTTPClient(cfg.FetchTimeout, metrics, logger),
		source.NewFileFetcher(metrics),
	)
	if cfg.SourceCacheEnabled {
		fetcher = source.NewCachedFetcher(fetcher, metrics)
	}

	loader := ingest.NewLoader(fetcher, cfg.IngestWorkerEnabled, logger, metrics)
	session := pipeline.New(loader, cfg.Plan(), logger, metrics, cfg.LabelMinZoom)

	srv := httpadapter.NewServer(cfg.HTTPAddr, session, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Initial load; /readyz reports 503 until it succeeds.
	go func() {
		if err := session.Run(ctx); err != nil {
			logger.Error("session error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
