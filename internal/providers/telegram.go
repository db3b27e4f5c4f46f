package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"resilience-alerting/internal/config"
	"resilience-alerting/internal/utils"
)

// telegramLimiter is the global rate limiter for Telegram messages.
var telegramLimiter *rate.Limiter

func initTelegramLimiter(ratePerSecond int) {
	telegramLimiter = rate.NewLimiter(rate.Limit(float64(ratePerSecond)), ratePerSecond)
}

// NewTelegramSender returns the operations-channel function, or nil when the
// Telegram channel is not configured.
func NewTelegramSender(cfg config.Config, logger *logrus.Logger) func(ctx context.Context, message string) error {
	if !cfg.Telegram.Enabled {
		return nil
	}
	return func(ctx context.Context, message string) error {
		return SendTelegram(ctx, cfg, logger, message)
	}
}

// SendTelegram posts a message to the configured operations chat.
func SendTelegram(ctx context.Context, cfg config.Config, logger *logrus.Logger, message string) error {
	if telegramLimiter == nil {
		initTelegramLimiter(cfg.Telegram.RateLimit)
	}
	if err := telegramLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("telegram rate limit exceeded: %w", err)
	}

	if cfg.Telegram.BotToken == "" {
		return fmt.Errorf("missing bot_token in Telegram configuration")
	}
	if cfg.Telegram.ChatID == 0 {
		return fmt.Errorf("missing chat_id in Telegram configuration")
	}

	return utils.Retry(logger, 3, time.Second, func() error {
		b, err := bot.New(cfg.Telegram.BotToken)
		if err != nil {
			return fmt.Errorf("failed to initialize Telegram bot: %w", err)
		}
		params := &bot.SendMessageParams{
			ChatID:    cfg.Telegram.ChatID,
			Text:      message,
			ParseMode: "Markdown",
		}
		if _, err := b.SendMessage(ctx, params); err != nil {
			return fmt.Errorf("failed to send Telegram message to chat_id %d: %w", cfg.Telegram.ChatID, err)
		}
		return nil
	})
}
