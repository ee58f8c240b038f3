package notify

import (
	"context"

	"go.uber.org/zap"
)

// Sender delivers a fired notification to the user.
type Sender interface {
	Send(ctx context.Context, content Content) error
}

// LogSender writes fired notifications to the log. It is the fallback
// delivery path when no chat channel is configured.
type LogSender struct {
	log *zap.SugaredLogger
}

func NewLogSender(log *zap.SugaredLogger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(ctx context.Context, content Content) error {
	s.log.Infof("[notification] %s — %s", content.Title, content.Body)
	return nil
}
