package sender

import (
	"context"
	"fmt"
	"time"

	"order-notifications/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESService is the slice of the SES client used for delivery.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESSender delivers email through Amazon SES.
type SESSender struct {
	client  SESService
	from    string
	timeout time.Duration
}

func NewSESSender(client SESService, from string, timeout time.Duration) *SESSender {
	return &SESSender{client: client, from: from, timeout: timeout}
}

func (s *SESSender) Send(ctx context.Context, msg Message) (Ack, error) {
	if msg.Channel != models.ChannelEmail {
		return Ack{}, transportError(msg.Channel, fmt.Errorf("ses only delivers email"))
	}
	if err := ValidateRecipient(msg); err != nil {
		return Ack{}, err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	out, err := s.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Html: &types.Content{Data: aws.String(msg.Body), Charset: aws.String("UTF-8")},
			},
		},
		Source: aws.String(s.from),
	})
	if err != nil {
		return Ack{}, transportError(msg.Channel, err)
	}

	return Ack{MessageID: aws.ToString(out.MessageId), Provider: "ses", SentAt: time.Now().UTC()}, nil
}
