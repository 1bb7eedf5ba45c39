package sender

import (
	"context"
	"fmt"
	"time"

	"order-notifications/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// SNSService is the slice of the SNS client used for delivery.
type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSSender delivers SMS through Amazon SNS direct publish.
type SNSSender struct {
	client   SNSService
	senderID string
	timeout  time.Duration
}

func NewSNSSender(client SNSService, senderID string, timeout time.Duration) *SNSSender {
	return &SNSSender{client: client, senderID: senderID, timeout: timeout}
}

func (s *SNSSender) Send(ctx context.Context, msg Message) (Ack, error) {
	if msg.Channel != models.ChannelSMS {
		return Ack{}, transportError(msg.Channel, fmt.Errorf("sns only delivers sms"))
	}
	if err := ValidateRecipient(msg); err != nil {
		return Ack{}, err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	attrs := map[string]types.MessageAttributeValue{
		"AWS.SNS.SMS.SMSType": {
			DataType:    aws.String("String"),
			StringValue: aws.String("Transactional"),
		},
	}
	if s.senderID != "" {
		attrs["AWS.SNS.SMS.SenderID"] = types.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(s.senderID),
		}
	}

	out, err := s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber:       aws.String(NormalizePhone(msg.To)),
		Message:           aws.String(msg.Body),
		MessageAttributes: attrs,
	})
	if err != nil {
		return Ack{}, transportError(msg.Channel, err)
	}

	return Ack{MessageID: aws.ToString(out.MessageId), Provider: "sns", SentAt: time.Now().UTC()}, nil
}
