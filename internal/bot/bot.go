// Package bot provides the Telegram bot initialization and handler
// registration for the hosting storefront.
package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"hostingbot/internal/checkout"
	"hostingbot/internal/handler"
	"hostingbot/internal/service"
)

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot      *tele.Bot
	settings *service.SettingsService

	catalogHandler  *handler.CatalogHandler
	checkoutHandler *handler.CheckoutHandler
	orderHandler    *handler.OrderHandler
	accountHandler  *handler.AccountHandler
	awaiter         *handler.Awaiter
}

// Dependencies holds everything the bot handlers need.
type Dependencies struct {
	Token           string
	SettingsService *service.SettingsService
	CatalogService  *service.CatalogService
	OrderService    *service.OrderService
	AccountService  *service.AccountService
	CheckoutFlow    *checkout.Flow
}

// New creates a new Bot instance with the given dependencies.
func New(deps *Dependencies) (*Bot, error) {
	if deps.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	pref := tele.Settings{
		Token:  deps.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	awaiter := handler.NewAwaiter()
	b := &Bot{
		bot:             teleBot,
		settings:        deps.SettingsService,
		awaiter:         awaiter,
		catalogHandler:  handler.NewCatalogHandler(deps.CatalogService),
		checkoutHandler: handler.NewCheckoutHandler(deps.CheckoutFlow, deps.AccountService, deps.SettingsService),
		orderHandler:    handler.NewOrderHandler(deps.OrderService, deps.AccountService, awaiter),
		accountHandler:  handler.NewAccountHandler(deps.AccountService, deps.SettingsService, awaiter),
	}

	b.registerMiddleware()
	b.registerHandlers()

	return b, nil
}

func (b *Bot) registerMiddleware() {
	b.bot.Use(RecoveryMiddleware())
	b.bot.Use(LoggingMiddleware())
}

func (b *Bot) registerHandlers() {
	b.bot.Handle("/start", b.accountHandler.HandleStart)
	b.bot.Handle("/help", b.accountHandler.HandleHelp)
	b.bot.Handle("/account", b.accountHandler.HandleAccount)
	b.bot.Handle("/getmyid", b.accountHandler.HandleGetMyID)

	b.bot.Handle("/vps", b.catalogHandler.HandleVps)
	b.bot.Handle("/webhosting", b.catalogHandler.HandleWebHosting)
	b.bot.Handle("/gamehosting", b.catalogHandler.HandleGameHosting)

	b.bot.Handle("/order", b.orderHandler.HandleOrders)
	b.bot.Handle("/confirm_payment", b.orderHandler.HandleConfirmPayment)

	b.bot.Handle(tele.OnText, b.handleText)
	b.bot.Handle(tele.OnPhoto, b.handlePhoto)
	b.bot.Handle(tele.OnCallback, b.handleCallback)
}

// handleText dispatches free text: first to a conversation that awaits a
// typed reply, then to the main menu buttons, then to help.
func (b *Bot) handleText(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	if session := b.checkoutHandler.Flow().Session(sender.ID); session.AwaitsText() {
		return b.checkoutHandler.HandleText(c)
	}
	if b.awaiter.AwaitsText(sender.ID) {
		return b.accountHandler.HandleText(c)
	}

	switch c.Text() {
	case handler.MenuVps:
		return b.catalogHandler.HandleVps(c)
	case handler.MenuWeb:
		return b.catalogHandler.HandleWebHosting(c)
	case handler.MenuGame:
		return b.catalogHandler.HandleGameHosting(c)
	case handler.MenuOrders:
		return b.orderHandler.HandleOrders(c)
	case handler.MenuAccount:
		return b.accountHandler.HandleAccount(c)
	case handler.MenuHelp:
		return b.accountHandler.HandleHelp(c)
	}
	return b.accountHandler.HandleHelp(c)
}

// handlePhoto routes photos to whichever flow awaits a proof image.
func (b *Bot) handlePhoto(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	if !b.awaiter.AwaitsPhoto(sender.ID) {
		return nil
	}
	if err := b.orderHandler.HandleProofPhoto(c); err != nil {
		return err
	}
	return b.accountHandler.HandleTopupPhoto(c)
}

// handleCallback routes inline-keyboard presses on their unique prefix.
func (b *Bot) handleCallback(c tele.Context) error {
	cb := c.Callback()
	if cb == nil {
		return nil
	}

	// Telebot v3 may add a \f prefix to callback data
	data := strings.TrimPrefix(cb.Data, "\f")
	parts := strings.Split(data, "|")
	unique, args := parts[0], parts[1:]

	switch unique {
	case handler.CbPackage:
		return b.catalogHandler.HandlePackageCallback(c, args)
	case checkout.CbBuy:
		return b.checkoutHandler.HandleBuyCallback(c, args)
	case checkout.CbCycle:
		return b.checkoutHandler.HandleCycleCallback(c, args)
	case checkout.CbPay:
		return b.checkoutHandler.HandlePayCallback(c, args)
	case checkout.CbConfirm:
		return b.checkoutHandler.HandleConfirmCallback(c)
	case checkout.CbCancel:
		return b.checkoutHandler.HandleCancelCallback(c)
	case handler.CbOrderCancel:
		return b.orderHandler.HandleCancelCallback(c, args)
	case handler.CbOrderProof:
		return b.orderHandler.HandleProofCallback(c, args)
	case handler.CbTopup:
		return b.accountHandler.HandleTopupCallback(c)
	case handler.CbSetEmail:
		return b.accountHandler.HandleSetEmailCallback(c)
	case handler.CbSetPhone:
		return b.accountHandler.HandleSetPhoneCallback(c)
	}

	log.Debug().Str("unique", unique).Msg("unhandled callback")
	return c.Respond()
}

// Notify sends a plain message to one Telegram user. Satisfies
// service.Notifier for the renewal reminder sweep.
func (b *Bot) Notify(telegramID int64, message string) error {
	_, err := b.bot.Send(&tele.User{ID: telegramID}, message, tele.ModeMarkdown)
	return err
}

// Start begins long polling and blocks until Stop.
func (b *Bot) Start() {
	log.Info().Msg("starting bot")
	b.bot.Start()
}

// Stop halts the poller.
func (b *Bot) Stop() {
	log.Info().Msg("stopping bot")
	b.bot.Stop()
}
