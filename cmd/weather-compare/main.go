package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/i474232898/weather-compare/internal/actions"
	httpapi "github.com/i474232898/weather-compare/internal/api/http"
	"github.com/i474232898/weather-compare/internal/config"
	"github.com/i474232898/weather-compare/internal/logging"
	"github.com/i474232898/weather-compare/internal/scheduler"
	"github.com/i474232898/weather-compare/internal/store"
	"github.com/i474232898/weather-compare/internal/weather"
	"github.com/i474232898/weather-compare/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	sugar, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = sugar.Sync() }()

	// Shared HTTP client for outbound provider calls.
	httpCfg := providers.HTTPClientConfig{
		Client:    &http.Client{Timeout: cfg.HTTPTimeout},
		UserAgent: cfg.UserAgent,
	}

	backend, err := openBackend(cfg, sugar)
	if err != nil {
		sugar.Fatalw("failed to open location store", "backend", cfg.StoreBackend, "error", err)
	}
	locations := store.NewLocations(backend, cfg.StoreNamespace, sugar)
	defer func() {
		if err := locations.Close(); err != nil {
			sugar.Warnw("error closing location store", "error", err)
		}
	}()

	// Providers guarded by circuit breakers.
	geocoder := providers.NewNominatimProvider(httpCfg, cfg.NominatimBaseURL, sugar)
	forecasts := providers.NewNWSProvider(httpCfg, cfg.NWSBaseURL, sugar)

	service := weather.NewService(geocoder, forecasts, locations, sugar)
	actionHandler := actions.NewHandler(locations, httpapi.APIPrefix, sugar)

	// Monitor that periodically logs forecasts for saved locations.
	monitor := scheduler.New(service, cfg.MonitorInterval, sugar)
	if err := monitor.Start(); err != nil {
		sugar.Fatalw("failed to start monitor", "error", err)
	}
	defer monitor.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "weather-compare",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          cfg.HTTPTimeout + 10*time.Second,
		ErrorHandler:          httpapi.NewErrorHandler(sugar),
	})

	// Global middleware
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-compare",
			"store":   cfg.StoreBackend,
		})
	})

	httpapi.RegisterRoutes(app, service, actionHandler)

	go func() {
		sugar.Infow("listening", "port", cfg.Port, "store", cfg.StoreBackend)
		if err := app.Listen(":" + cfg.Port); err != nil {
			sugar.Warnw("fiber server stopped", "error", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		sugar.Errorw("error during shutdown", "error", err)
	}
}

func openBackend(cfg *config.AppConfig, logger *zap.SugaredLogger) (store.Backend, error) {
	switch cfg.StoreBackend {
	case config.BackendRedis:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return store.NewRedisBackend(ctx, cfg.RedisURL)
	case config.BackendSQLite:
		return store.NewSQLiteBackend(cfg.SQLitePath, logger)
	case config.BackendMemory:
		return store.NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
