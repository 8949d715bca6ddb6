package bot

import (
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"
)

// LoggingMiddleware logs every processed update with its latency.
func LoggingMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			start := time.Now()
			err := next(c)

			event := log.Debug()
			if err != nil {
				event = log.Error().Err(err)
			}
			var senderID int64
			if sender := c.Sender(); sender != nil {
				senderID = sender.ID
			}
			event.
				Int64("sender_id", senderID).
				Str("text", c.Text()).
				Dur("took", time.Since(start)).
				Msg("update handled")
			return err
		}
	}
}

// RecoveryMiddleware keeps one panicking handler from killing the poller.
func RecoveryMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			defer func() {
				if r := recover(); r != nil {
					log.Error().Interface("panic", r).Msg("handler panicked")
					_ = c.Send("❌ Terjadi kesalahan, coba lagi nanti.")
				}
			}()
			return next(c)
		}
	}
}
