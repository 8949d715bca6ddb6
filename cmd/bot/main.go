// Package main is the entry point for the Telegram storefront bot.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"hostingbot/internal/bot"
	"hostingbot/internal/checkout"
	"hostingbot/internal/config"
	"hostingbot/internal/pkg/db"
	"hostingbot/internal/pkg/lock"
	"hostingbot/internal/repository"
	"hostingbot/internal/service"
)

// switchableNotifier routes reminder messages to whichever bot instance is
// currently running. The instance changes when the token setting changes.
type switchableNotifier struct {
	mu  sync.Mutex
	bot *bot.Bot
}

func (n *switchableNotifier) set(b *bot.Bot) {
	n.mu.Lock()
	n.bot = b
	n.mu.Unlock()
}

func (n *switchableNotifier) Notify(telegramID int64, message string) error {
	n.mu.Lock()
	b := n.bot
	n.mu.Unlock()
	if b == nil {
		return errors.New("bot is not running")
	}
	return b.Notify(telegramID, message)
}

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// .env is optional, real deployments use the environment directly
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().Msg("Configuration loaded successfully")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	// Run database migrations
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

	checkoutFlow := checkout.NewFlow(checkout.NewStore(), catalogService, orderService)

	startBot := func(token string) (*bot.Bot, error) {
		b, err := bot.New(&bot.Dependencies{
			Token:           token,
			SettingsService: settingsService,
			CatalogService:  catalogService,
			OrderService:    orderService,
			AccountService:  accountService,
			CheckoutFlow:    checkoutFlow,
		})
		if err != nil {
			return nil, err
		}
		go func() {
			log.Info().Msg("Bot is starting...")
			b.Start()
		}()
		return b, nil
	}

	token := settingsService.GetString(ctx, service.BotTokenKey, cfg.Bot.Token)
	current, err := startBot(token)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}

	// Renewal reminders are delivered through the running bot instance.
	notifier := &switchableNotifier{}
	notifier.set(current)

	reminderService := service.NewReminderService(orderRepo, notifier, cfg.Reminder.DaysAhead)
	if cfg.Reminder.Enabled {
		if err := reminderService.Start(cfg.Reminder.CronSpec); err != nil {
			log.Fatal().Err(err).Msg("Failed to start reminder scheduler")
		}
	}

	// Token changes from the admin panel restart the bot in place.
	tokenCh := make(chan string, 1)
	settingsService.OnBotTokenChange(func(newToken string) {
		tokenCh <- newToken
	})

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case sig := <-sigChan:
			log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
			reminderService.Stop()
			current.Stop()
			log.Info().Msg("Bot stopped gracefully")
			return

		case newToken := <-tokenCh:
			log.Info().Msg("Bot token changed, restarting bot")
			current.Stop()
			notifier.set(nil)

			// A token swap usually comes with other panel edits, start the
			// new instance from fresh settings.
			settingsService.Invalidate()

			restarted, err := startBot(newToken)
			if err != nil {
				log.Error().Err(err).Msg("Failed to restart bot with new token")
				continue
			}
			current = restarted
			notifier.set(restarted)
			log.Info().Msg("Bot restarted with new token")
		}
	}
}
