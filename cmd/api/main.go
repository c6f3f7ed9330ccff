package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/safestreets/safestreets/internal/adapters/http"
	natsadapter "github.com/safestreets/safestreets/internal/adapters/nats"
	"github.com/safestreets/safestreets/internal/adapters/nominatim"
	"github.com/safestreets/safestreets/internal/adapters/police"
	"github.com/safestreets/safestreets/internal/adapters/postcodes"
	"github.com/safestreets/safestreets/internal/adapters/valkey"
	"github.com/safestreets/safestreets/internal/core/domain"
	"github.com/safestreets/safestreets/internal/core/ports"
	"github.com/safestreets/safestreets/internal/core/usecases"
	"github.com/safestreets/safestreets/internal/pkg/config"
	"github.com/safestreets/safestreets/internal/pkg/dispatch"
	"github.com/safestreets/safestreets/internal/pkg/logging"
	"github.com/safestreets/safestreets/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("safestreets-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.Endpoint)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Cache
	var cache *valkey.Cache
	if cfg.Valkey.Enabled {
		cache, err = valkey.New(cfg.Valkey.Addr)
		if err != nil {
			slog.Warn("valkey unavailable", "error", err)
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	// NATS progress feed
	var publisher *natsadapter.Publisher
	if cfg.NATS.Enabled {
		publisher, err = natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable", "error", err)
			publisher = nil
		} else {
			defer publisher.Close()
		}
	}

	region := domain.Bounds{
		MinLat: cfg.Region.MinLat,
		MaxLat: cfg.Region.MaxLat,
		MinLon: cfg.Region.MinLon,
		MaxLon: cfg.Region.MaxLon,
	}

	// Upstream clients
	crimeAPI := police.New(cfg.Police.BaseURL, time.Duration(cfg.Police.TimeoutSec)*time.Second)
	postcodeDir := postcodes.New(cfg.Geocoding.PostcodesBaseURL, time.Duration(cfg.Geocoding.TimeoutSec)*time.Second)
	geocoder := nominatim.New(nominatim.Config{
		BaseURL:        cfg.Geocoding.NominatimBaseURL,
		UserAgent:      cfg.Geocoding.UserAgent,
		RequestsPerSec: cfg.Geocoding.RatePerSec,
		Timeout:        time.Duration(cfg.Geocoding.TimeoutSec) * time.Second,
		Viewbox:        region,
	})

	// One queue per process: every fetch shares the upstream rate limit.
	queue := dispatch.New(crimeAPI, dispatch.Config{
		MinInterval: cfg.Police.MinInterval(),
		Cooldown:    cfg.Police.Cooldown(),
		BackoffStep: cfg.Police.BackoffStep(),
		MaxAttempts: cfg.Police.MaxAttempts,
	})
	go queue.Run(ctx)

	// Use cases
	var cacheSvc ports.CacheService
	if cache != nil {
		cacheSvc = cache
	}
	var progress ports.ProgressPublisher
	if publisher != nil {
		progress = publisher
	}
	locationSvc := usecases.NewLocationService(postcodeDir, geocoder, region, cacheSvc)
	fetchSvc := usecases.NewFetchService(queue, progress, cfg.Police.LagMonths)

	deps := &http.Dependencies{
		Locations:   locationSvc,
		Fetch:       fetchSvc,
		Region:      region,
		MaxRadiusKm: cfg.Police.MaxRadiusKm,
		Cache:       cache,
	}

	// Raw NATS connection for the WebSocket relay
	if cfg.NATS.Enabled {
		if nc, err := natsadapter.RawConn(cfg.NATS.URL); err != nil {
			slog.Warn("nats ws conn unavailable", "error", err)
		} else {
			deps.NATS = nc
		}
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    256 * 1024,
		AppName:      "SafeStreets API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "http://localhost:3000, http://localhost:5173",
		AllowMethods: "GET,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
		MaxAge:       3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
