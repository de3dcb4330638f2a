// Package main is the entry point for the wallet server.
// It loads configuration, opens the configured balance store,
// and serves the wallet API until interrupted.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"walletd/internal/config"
	"walletd/internal/logger"
	"walletd/internal/metrics"
	"walletd/internal/middleware"
	"walletd/internal/repositories"
	"walletd/internal/routes"
	"walletd/internal/services/wallet"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	config.LoadEnv()
	cfg := config.Load()

	log := logger.Init(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	store, closeStore, err := repositories.OpenStore(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("failed to open balance store")
	}
	defer closeStore()

	collector := metrics.NewCollector()
	registry, err := wallet.NewRegistry(store, cfg.Wallet.LedgerConfig(),
		wallet.WithLogger(log),
		wallet.WithMetrics(collector),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid wallet configuration")
	}

	app := fiber.New(fiber.Config{DisableStartupMessage: cfg.IsProduction()})

	app.Use(middleware.RequestID)
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		AllowMethods:     "GET,POST,HEAD",
		AllowCredentials: true,
	}))
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use("/api/wallet", limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests. Please try again later.",
			})
		},
	}))

	routes.SetupRoutes(app, routes.Dependencies{
		Registry:       registry,
		Auth:           middleware.NewAuthMiddleware(cfg.JWTSecret),
		Store:          store,
		StoreDriver:    cfg.StoreDriver,
		MetricsHandler: collector.Handler(),
	})

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	if cfg.Wallet.IdleTTL > 0 {
		go func() {
			ticker := time.NewTicker(cfg.Wallet.IdleTTL / 2)
			defer ticker.Stop()
			for {
				select {
				case <-sweepCtx.Done():
					return
				case <-ticker.C:
					if _, err := registry.EvictIdle(sweepCtx, cfg.Wallet.IdleTTL); err != nil {
						log.Warn().Err(err).Msg("failed to flush idle wallets")
					}
				}
			}
		}()
	}

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error().Err(err).Msg("server stopped")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("driver", cfg.StoreDriver).Msg("wallet server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	stopSweep()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Error().Err(err).Msg("failed to shut down http server")
	}
	// Push any balance a failed write left unsynced.
	if err := registry.Close(ctx); err != nil {
		log.Error().Err(err).Int("wallets", registry.Len()).Msg("some balances were not persisted")
	}
	log.Info().Msg("wallet server stopped")
}
