package notify

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

type fakeBot struct {
	sent []tgbotapi.Chattable
	err  error
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func TestTelegramSend(t *testing.T) {
	bot := &fakeBot{}
	s := NewTelegramSenderWithBot(bot, 42, zap.NewNop().Sugar())

	err := s.Send(context.Background(), Content{Title: "🎂 Today: Ana", Body: "body", Sound: true})
	if err != nil {
		t.Fatal(err)
	}

	msg, ok := bot.sent[0].(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("sent %T, want MessageConfig", bot.sent[0])
	}
	if msg.ChatID != 42 {
		t.Errorf("chat id = %d", msg.ChatID)
	}
	if msg.Text != "🎂 Today: Ana\nbody" {
		t.Errorf("text = %q", msg.Text)
	}
	if msg.DisableNotification {
		t.Error("sound on must not disable the notification")
	}
}

func TestTelegramSendSilent(t *testing.T) {
	bot := &fakeBot{}
	s := NewTelegramSenderWithBot(bot, 42, zap.NewNop().Sugar())

	if err := s.Send(context.Background(), Content{Title: "t", Sound: false}); err != nil {
		t.Fatal(err)
	}
	if msg := bot.sent[0].(tgbotapi.MessageConfig); !msg.DisableNotification {
		t.Error("sound off must send silently")
	}
}

func TestTelegramSendError(t *testing.T) {
	s := NewTelegramSenderWithBot(&fakeBot{err: errors.New("blocked")}, 42, zap.NewNop().Sugar())
	if err := s.Send(context.Background(), Content{Title: "t"}); err == nil {
		t.Error("expected error")
	}
}

func TestNewTelegramSenderRequiresToken(t *testing.T) {
	if _, err := NewTelegramSender("", 42, zap.NewNop().Sugar()); err == nil {
		t.Error("empty token must be rejected")
	}
}
