package sender

import (
	"context"
	"time"

	"order-notifications/internal/common/logger"

	"github.com/google/uuid"
)

// LogSender writes the message to the logger and always succeeds. It is the
// default transport for local runs and demos.
type LogSender struct {
	logger logger.Logger
	now    func() time.Time
}

func NewLogSender(log logger.Logger) *LogSender {
	return &LogSender{
		logger: log.WithFields(map[string]interface{}{"transport": "log"}),
		now:    time.Now,
	}
}

func (s *LogSender) Send(ctx context.Context, msg Message) (Ack, error) {
	if err := ctx.Err(); err != nil {
		return Ack{}, transportError(msg.Channel, err)
	}
	if err := ValidateRecipient(msg); err != nil {
		return Ack{}, err
	}

	fields := map[string]interface{}{
		"channel": msg.Channel,
		"to":      msg.To,
		"content": msg.Body,
	}
	if msg.Subject != "" {
		fields["subject"] = msg.Subject
	}
	s.logger.Info("notification sent", fields)

	return Ack{MessageID: uuid.NewString(), Provider: "log", SentAt: s.now().UTC()}, nil
}
