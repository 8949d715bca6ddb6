// Package main is the entry point for the staff web panel.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"hostingbot/internal/admin"
	"hostingbot/internal/config"
	"hostingbot/internal/pkg/db"
	"hostingbot/internal/pkg/lock"
	"hostingbot/internal/repository"
	"hostingbot/internal/service"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	// Both binaries run migrations so either can start first.
	if err := dbPool.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(dbPool.Pool)
	pkgRepo := repository.NewPackageRepository(dbPool.Pool)
	orderRepo := repository.NewOrderRepository(dbPool.Pool)
	settingRepo := repository.NewSettingRepository(dbPool.Pool)
	txRepo := repository.NewTransactionRepository(dbPool.Pool)
	topupRepo := repository.NewTopupRepository(dbPool.Pool)

	// Initialize services
	settingsService := service.NewSettingsService(settingRepo, cfg.Settings.CacheTTL)
	if err := settingsService.InitDefaults(ctx, cfg.Bot.Token, cfg.Admin.TelegramID, cfg.Admin.Username); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed default settings")
	}

	userLock := lock.NewUserLock()
	catalogService := service.NewCatalogService(pkgRepo, orderRepo)
	orderService := service.NewOrderService(orderRepo, userRepo, pkgRepo, txRepo, settingsService, userLock)
	accountService := service.NewAccountService(userRepo, orderRepo, txRepo, topupRepo)

	server, err := admin.NewServer(admin.Dependencies{
		Config:          cfg.Panel,
		SettingsService: settingsService,
		CatalogService:  catalogService,
		OrderService:    orderService,
		AccountService:  accountService,
		DB:              dbPool,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create admin server")
	}

	go func() {
		if err := server.Start(); err != nil {
			log.Fatal().Err(err).Msg("Admin server failed")
		}
	}()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Admin server shutdown failed")
	}
	log.Info().Msg("Admin server stopped gracefully")
}
