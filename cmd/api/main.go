package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"peregovorka/internal/api"
	"peregovorka/internal/availability"
	"peregovorka/internal/booking"
	"peregovorka/internal/config"
	"peregovorka/internal/directory"
	"peregovorka/internal/domain"
	"peregovorka/internal/events"
	"peregovorka/internal/export"
	"peregovorka/internal/logging"
	"peregovorka/internal/metrics"
	"peregovorka/internal/models"
	"peregovorka/internal/planner"
	"peregovorka/internal/repository"
	"peregovorka/internal/storage"
	"peregovorka/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	store, err := initStore(cfg, &logger)
	if err != nil {
		return err
	}
	defer store.Close()

	if !cfg.API.Enabled {
		logger.Warn().Msg("API is disabled in config, but starting API application. Check your config.")
	}

	policy, err := bookingPolicy(cfg)
	if err != nil {
		return err
	}

	bus := events.NewEventBus()
	checker := availability.NewChecker(store, &logger)
	plan := planner.New(checker, store, &logger)
	bookings := booking.NewService(store, checker, bus, policy, &logger)
	dir := directory.NewService(store, bus, &logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exporter := export.NewScheduleExporter(store, cfg.Exports.Path, &logger)
	exportWorker := worker.NewExportWorker(exporter, worker.DefaultBackoff(), 16, &logger)
	exportWorker.Start(ctx)
	defer exportWorker.Stop()
	subscribeExportRefresh(bus, exportWorker, &logger)

	httpServer := api.NewHTTPServer(cfg.API, bookings, plan, dir, exportWorker, &logger)

	startMetrics(ctx, cfg, &logger)

	return startServers(ctx, httpServer, cfg, &logger)
}

// subscribeExportRefresh re-renders the affected day's workbook after every
// booking change. Queue overflow is logged and skipped; the next change or an
// explicit export request catches up.
func subscribeExportRefresh(bus *events.EventBus, exportWorker *worker.ExportWorker, logger *zerolog.Logger) {
	refresh := func(e *events.Event) error {
		var payload events.BookingEventPayload
		if err := json.Unmarshal(e.Payload, &payload); err != nil {
			return err
		}
		if err := exportWorker.Enqueue(worker.ExportJob{From: payload.Date, To: payload.Date}); err != nil {
			logger.Warn().Err(err).Str("date", payload.Date.Key()).Msg("schedule refresh skipped")
		}
		return nil
	}
	bus.Subscribe(events.EventBookingCreated, refresh)
	bus.Subscribe(events.EventBookingUpdated, refresh)
	bus.Subscribe(events.EventBookingDeleted, refresh)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

// initStore builds the record store from config: file or sqlite backend,
// optionally fronted by the day-schedule cache when Redis is configured.
func initStore(cfg *config.Config, logger *zerolog.Logger) (domain.Store, error) {
	var (
		inner domain.Store
		err   error
	)
	switch cfg.Storage.Backend {
	case "sqlite":
		inner, err = storage.NewSQLiteStore(cfg.Storage.SQLitePath, logger)
	default:
		inner, err = storage.NewFileStore(cfg.Storage.DataDir, logger)
	}
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	cache := initScheduleCache(cfg, logger)
	if cache == nil {
		return inner, nil
	}
	return storage.NewCachedStore(inner, cache, logger), nil
}

func initScheduleCache(cfg *config.Config, logger *zerolog.Logger) domain.ScheduleCache {
	if cfg.Redis.Address == "" {
		return nil
	}

	client := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(context.Background(), client); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = repository.Close(client)
		return nil
	}
	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")

	ttl := time.Duration(cfg.Redis.TTLSeconds) * time.Second
	primary := repository.NewRedisScheduleCache(client, ttl)
	fallback := repository.NewMemoryScheduleCache(ttl)
	return repository.NewFailoverScheduleCache(primary, fallback, logger)
}

func bookingPolicy(cfg *config.Config) (booking.Policy, error) {
	policy := booking.DefaultPolicy()

	start, err := models.ParseTimeOfDay(cfg.Booking.WorkdayStart)
	if err != nil {
		return booking.Policy{}, fmt.Errorf("booking.workday_start: %w", err)
	}
	end, err := models.ParseTimeOfDay(cfg.Booking.WorkdayEnd)
	if err != nil {
		return booking.Policy{}, fmt.Errorf("booking.workday_end: %w", err)
	}

	policy.WorkdayStart = start
	policy.WorkdayEnd = end
	policy.HintIntervalMinutes = cfg.Booking.DefaultIntervalMinutes
	if cfg.Booking.OwnerInConflictScan != nil {
		policy.OwnerInConflictScan = *cfg.Booking.OwnerInConflictScan
	}
	policy.RevalidateOnUpdate = cfg.Booking.RevalidateOnUpdate
	return policy, nil
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startServers(ctx context.Context, httpServer *api.HTTPServer, cfg *config.Config, logger *zerolog.Logger) error {
	go func() {
		if !cfg.API.HTTP.Enabled {
			return
		}
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Msg("API server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
