package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/medal-flow-etl/internal/adapter/csvsource"
	"github.com/couchcryptid/medal-flow-etl/internal/adapter/filewatch"
	"github.com/couchcryptid/medal-flow-etl/internal/adapter/geojson"
	httpadapter "github.com/couchcryptid/medal-flow-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/medal-flow-etl/internal/adapter/kafka"
	"github.com/couchcryptid/medal-flow-etl/internal/adapter/memory"
	"github.com/couchcryptid/medal-flow-etl/internal/config"
	"github.com/couchcryptid/medal-flow-etl/internal/domain"
	"github.com/couchcryptid/medal-flow-etl/internal/observability"
	"github.com/couchcryptid/medal-flow-etl/internal/pipeline"
	"github.com/jonboulle/clockwork"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// Map geometry is optional (enabled via GEOJSON_URL).
	var features domain.FeatureSource
	if cfg.GeoJSONURL != "" {
		client := geojson.NewClient(cfg.GeoJSONTimeout, metrics, logger)
		cached := geojson.NewCachedFetcher(client, metrics)
		features = geojson.NewSource(cached, cfg.GeoJSONURL)
		logger.Info("map geometry enabled", "url", cfg.GeoJSONURL, "timeout", cfg.GeoJSONTimeout)
	} else {
		logger.Info("map geometry disabled")
	}

	source := csvsource.NewSource(cfg.DataLocation, cfg.MedallistsFile, cfg.MedalsTotalFile, cfg.FetchTimeout, logger)
	transformer := pipeline.NewTransformer(cfg.Charts.Options(cfg.ReferenceYear), features, logger)

	store := memory.NewStore()
	loaders := []pipeline.Loader{store}

	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		loaders = append(loaders, writer)
		logger.Info("kafka sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSinkTopic)
	}

	p := pipeline.New(source, transformer, loaders, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, store, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Re-render when the input files change.
	var triggers <-chan struct{}
	if cfg.WatchEnabled {
		watcher, err := filewatch.New(source.Paths(), cfg.WatchDebounce, clockwork.NewRealClock(), logger)
		if err != nil {
			logger.Error("failed to watch input files", "error", err)
			os.Exit(1)
		}
		triggers = watcher.Triggers()
		go watcher.Run(ctx)
	}

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start render pipeline.
	go func() {
		if err := p.Run(ctx, triggers); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
