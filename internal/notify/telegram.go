package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// TelegramBot is the slice of the bot API the sender needs; a seam for
// tests.
type TelegramBot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramSender delivers fired notifications to a Telegram chat.
type TelegramSender struct {
	bot    TelegramBot
	chatID int64
	log    *zap.SugaredLogger
}

func NewTelegramSender(token string, chatID int64, log *zap.SugaredLogger) (*TelegramSender, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram token is required")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	log.Infof("[telegram] authorized as @%s", bot.Self.UserName)
	return &TelegramSender{bot: bot, chatID: chatID, log: log}, nil
}

// NewTelegramSenderWithBot injects a prebuilt bot, for tests.
func NewTelegramSenderWithBot(bot TelegramBot, chatID int64, log *zap.SugaredLogger) *TelegramSender {
	return &TelegramSender{bot: bot, chatID: chatID, log: log}
}

func (t *TelegramSender) Send(ctx context.Context, content Content) error {
	msg := tgbotapi.NewMessage(t.chatID, content.Title+"\n"+content.Body)
	if !content.Sound {
		msg.DisableNotification = true
	}
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
