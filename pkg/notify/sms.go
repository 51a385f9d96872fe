package notify

import (
	"context"

	"go.uber.org/zap"
)

// SMSMessage is a plain-text message to a phone number.
type SMSMessage struct {
	To   string
	Body string
}

// SMSSender delivers a single SMS.
type SMSSender interface {
	Send(ctx context.Context, msg SMSMessage) error
}

// LogSMSSender logs outgoing messages. No SMS gateway is integrated yet.
type LogSMSSender struct {
	logger *zap.Logger
}

// NewLogSMSSender creates a logging SMS sender.
func NewLogSMSSender(logger *zap.Logger) *LogSMSSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSMSSender{logger: logger}
}

// Send logs the message.
func (s *LogSMSSender) Send(ctx context.Context, msg SMSMessage) error {
	s.logger.Info("mock sms", zap.String("to", msg.To), zap.Int("length", len(msg.Body)))
	return nil
}
