package notify

import (
	"context"
	"fmt"

	"settler/pkg/logger"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier pushes operator alerts. Best effort: a lost alert never affects
// settlement.
type Notifier interface {
	Sendf(ctx context.Context, format string, args ...any)
}

// Telegram sends alerts to a fixed operator chat.
type Telegram struct {
	bot    *tgbot.BotAPI
	chatID int64
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Telegram{bot: b, chatID: chatID}, nil
}

func (t *Telegram) Sendf(_ context.Context, format string, args ...any) {
	msg := tgbot.NewMessage(t.chatID, fmt.Sprintf(format, args...))
	if _, err := t.bot.Send(msg); err != nil {
		logger.Error("telegram send failed: %v", err)
	}
}

// Noop is used when no telegram token is configured.
type Noop struct{}

func (Noop) Sendf(context.Context, string, ...any) {}
