package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"hostingbot/internal/model"
	"hostingbot/internal/repository"
)

// Notifier delivers a message to one Telegram user. The bot satisfies
// this; tests use a recorder.
type Notifier interface {
	Notify(telegramID int64, message string) error
}

// ReminderService sweeps completed orders whose service window ends soon
// and pings the customer once per order.
type ReminderService struct {
	orderRepo *repository.OrderRepository
	notifier  Notifier
	window    time.Duration
	cron      *cron.Cron
}

// NewReminderService creates a new ReminderService instance. daysAhead
// controls how close to the end date an order must be before the customer
// hears about it.
func NewReminderService(orderRepo *repository.OrderRepository, notifier Notifier, daysAhead int) *ReminderService {
	return &ReminderService{
		orderRepo: orderRepo,
		notifier:  notifier,
		window:    time.Duration(daysAhead) * 24 * time.Hour,
	}
}

// Start schedules the sweep on the given cron spec and runs until Stop.
func (s *ReminderService) Start(spec string) error {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := s.Sweep(ctx); err != nil {
			log.Error().Err(err).Msg("renewal reminder sweep failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule reminder sweep: %w", err)
	}
	c.Start()
	s.cron = c
	log.Info().Str("spec", spec).Msg("renewal reminder sweep scheduled")
	return nil
}

// Stop halts the scheduler.
func (s *ReminderService) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// Sweep sends one reminder per due order. An order is marked as reminded
// only when delivery succeeded, so a failed send retries on the next run.
func (s *ReminderService) Sweep(ctx context.Context) error {
	candidates, err := s.orderRepo.DueForReminder(ctx, s.window)
	if err != nil {
		return err
	}

	sent := 0
	for _, c := range candidates {
		msg := reminderMessage(c.Order)
		if err := s.notifier.Notify(c.TelegramID, msg); err != nil {
			log.Warn().Err(err).
				Str("reference", c.Order.Reference).
				Int64("telegram_id", c.TelegramID).
				Msg("failed to deliver renewal reminder")
			continue
		}
		if err := s.orderRepo.MarkReminded(ctx, c.Order.ID); err != nil {
			log.Warn().Err(err).Str("reference", c.Order.Reference).Msg("failed to mark order reminded")
			continue
		}
		sent++
	}

	if len(candidates) > 0 {
		log.Info().Int("due", len(candidates)).Int("sent", sent).Msg("renewal reminder sweep finished")
	}
	return nil
}

func reminderMessage(o *model.Order) string {
	endDate := ""
	if o.EndDate != nil {
		endDate = o.EndDate.Format("02-01-2006")
	}
	return fmt.Sprintf(
		"🔔 *Pengingat Perpanjangan*\n\n"+
			"Layanan *%s* (%s) akan berakhir pada %s.\n"+
			"Segera lakukan perpanjangan agar layanan tidak terputus.",
		o.Label(), o.Reference, endDate,
	)
}
