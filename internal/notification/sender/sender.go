// Package sender delivers rendered notifications over a channel transport.
package sender

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	apperrors "order-notifications/internal/common/errors"
	"order-notifications/internal/models"
)

// Message is one rendered notification ready for delivery.
type Message struct {
	Channel models.Channel
	To      string
	Subject string // email only
	Body    string
}

// Ack is returned on accepted delivery.
type Ack struct {
	MessageID string
	Provider  string
	SentAt    time.Time
}

// ErrorKind classifies a failed send.
type ErrorKind string

const (
	KindTransport        ErrorKind = "transport"
	KindInvalidRecipient ErrorKind = "invalid_recipient"
	KindRateLimited      ErrorKind = "rate_limited"
)

// SendError is the only error type a Sender returns.
type SendError struct {
	Kind    ErrorKind
	Channel models.Channel
	Err     error
}

func (e *SendError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s send failed: %s", e.Channel, e.Kind)
	}
	return fmt.Sprintf("%s send failed (%s): %v", e.Channel, e.Kind, e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

// Standard maps the send failure onto the shared error codes.
func (e *SendError) Standard(recipient string) *apperrors.StandardError {
	switch e.Kind {
	case KindInvalidRecipient:
		return apperrors.NewInvalidRecipientError(string(e.Channel), recipient)
	case KindRateLimited:
		return apperrors.NewRateLimitedError(string(e.Channel))
	default:
		err := e.Err
		if err == nil {
			err = errors.New(string(e.Kind))
		}
		return apperrors.NewNotificationSendFailedError(string(e.Channel), err)
	}
}

// AsSendError extracts a *SendError from err.
func AsSendError(err error) (*SendError, bool) {
	var se *SendError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// Sender delivers one message. Implementations return *SendError on failure.
type Sender interface {
	Send(ctx context.Context, msg Message) (Ack, error)
}

func transportError(ch models.Channel, err error) *SendError {
	return &SendError{Kind: KindTransport, Channel: ch, Err: err}
}

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneStrip   = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
	phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
)

// ValidateRecipient rejects addresses the channel cannot deliver to.
func ValidateRecipient(msg Message) error {
	ok := false
	switch msg.Channel {
	case models.ChannelEmail:
		ok = emailPattern.MatchString(strings.TrimSpace(msg.To))
	case models.ChannelSMS:
		ok = phonePattern.MatchString(NormalizePhone(msg.To))
	}
	if ok {
		return nil
	}
	return &SendError{
		Kind:    KindInvalidRecipient,
		Channel: msg.Channel,
		Err:     fmt.Errorf("invalid %s recipient %q", msg.Channel, msg.To),
	}
}

// NormalizePhone strips formatting so "+91 98765-43210" becomes "+919876543210".
func NormalizePhone(phone string) string {
	return phoneStrip.Replace(strings.TrimSpace(phone))
}
