package sender

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net/smtp"
	"strings"
	"testing"
	"time"

	apperrors "order-notifications/internal/common/errors"
	"order-notifications/internal/common/logger"
	"order-notifications/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mocks
// ==========================

type MockSESService struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	return m.SendEmailFunc(ctx, params, optFns...)
}

type MockSNSService struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func (m *MockSNSService) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return m.PublishFunc(ctx, params, optFns...)
}

type nopWriteCloser struct{ *bytes.Buffer }

func (nopWriteCloser) Close() error { return nil }

type fakeSMTPClient struct {
	tlsStarted bool
	authed     bool
	from       string
	rcpt       string
	data       bytes.Buffer
	quit       bool
	rcptErr    error
}

func (f *fakeSMTPClient) StartTLS(*tls.Config) error { f.tlsStarted = true; return nil }
func (f *fakeSMTPClient) Auth(smtp.Auth) error       { f.authed = true; return nil }
func (f *fakeSMTPClient) Mail(from string) error     { f.from = from; return nil }
func (f *fakeSMTPClient) Rcpt(to string) error {
	f.rcpt = to
	return f.rcptErr
}
func (f *fakeSMTPClient) Data() (io.WriteCloser, error) { return nopWriteCloser{&f.data}, nil }
func (f *fakeSMTPClient) Quit() error                   { f.quit = true; return nil }
func (f *fakeSMTPClient) Close() error                  { return nil }

type countingSender struct{ calls int }

func (c *countingSender) Send(ctx context.Context, msg Message) (Ack, error) {
	c.calls++
	return Ack{MessageID: "ok", Provider: "test"}, nil
}

// ==========================
// Recipient validation
// ==========================

func TestValidateRecipient(t *testing.T) {
	tests := []struct {
		name    string
		msg     Message
		wantErr bool
	}{
		{"valid email", Message{Channel: models.ChannelEmail, To: "john@example.com"}, false},
		{"email without domain", Message{Channel: models.ChannelEmail, To: "john@"}, true},
		{"email with space", Message{Channel: models.ChannelEmail, To: "jo hn@example.com"}, true},
		{"formatted phone", Message{Channel: models.ChannelSMS, To: "+91 9876543210"}, false},
		{"dashed phone", Message{Channel: models.ChannelSMS, To: "98765-43210"}, false},
		{"too short phone", Message{Channel: models.ChannelSMS, To: "12345"}, true},
		{"letters in phone", Message{Channel: models.ChannelSMS, To: "+91 98765abcde"}, true},
		{"unknown channel", Message{Channel: "push", To: "x"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRecipient(tt.msg)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			se, ok := AsSendError(err)
			require.True(t, ok)
			assert.Equal(t, KindInvalidRecipient, se.Kind)
		})
	}
}

func TestSendError_Standard(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		code apperrors.ErrorCode
	}{
		{KindTransport, apperrors.ErrCodeNotificationSendFailed},
		{KindInvalidRecipient, apperrors.ErrCodeInvalidRecipient},
		{KindRateLimited, apperrors.ErrCodeRateLimited},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			se := &SendError{Kind: tt.kind, Channel: models.ChannelSMS, Err: errors.New("boom")}
			assert.Equal(t, tt.code, se.Standard("+919876543210").Code)
			assert.Contains(t, se.Error(), "sms")
		})
	}
}

// ==========================
// LogSender
// ==========================

func TestLogSender_Send(t *testing.T) {
	s := NewLogSender(logger.NewTestLogger(t))

	ack, err := s.Send(context.Background(), Message{
		Channel: models.ChannelEmail,
		To:      "john@example.com",
		Subject: "Order Confirmation - ORD1",
		Body:    "<p>hi</p>",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, ack.MessageID)
	assert.Equal(t, "log", ack.Provider)

	_, err = s.Send(context.Background(), Message{Channel: models.ChannelSMS, To: "abc"})
	se, ok := AsSendError(err)
	require.True(t, ok)
	assert.Equal(t, KindInvalidRecipient, se.Kind)
}

func TestLogSender_CancelledContext(t *testing.T) {
	s := NewLogSender(logger.NewNoOpLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Send(ctx, Message{Channel: models.ChannelSMS, To: "+919876543210"})
	se, ok := AsSendError(err)
	require.True(t, ok)
	assert.Equal(t, KindTransport, se.Kind)
	assert.ErrorIs(t, err, context.Canceled)
}

// ==========================
// SES / SNS
// ==========================

func TestSESSender_Send(t *testing.T) {
	tests := []struct {
		name     string
		msg      Message
		mockFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
		wantKind ErrorKind
		wantID   string
	}{
		{
			name: "delivered",
			msg:  Message{Channel: models.ChannelEmail, To: "john@example.com", Subject: "S", Body: "B"},
			mockFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
				assert.Equal(t, []string{"john@example.com"}, params.Destination.ToAddresses)
				assert.Equal(t, "noreply@shop.test", aws.ToString(params.Source))
				assert.Equal(t, "S", aws.ToString(params.Message.Subject.Data))
				assert.Equal(t, "B", aws.ToString(params.Message.Body.Html.Data))
				return &ses.SendEmailOutput{MessageId: aws.String("ses-123")}, nil
			},
			wantID: "ses-123",
		},
		{
			name: "throttled",
			msg:  Message{Channel: models.ChannelEmail, To: "john@example.com"},
			mockFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
				return nil, errors.New("Throttling: Maximum sending rate exceeded")
			},
			wantKind: KindTransport,
		},
		{
			name:     "wrong channel",
			msg:      Message{Channel: models.ChannelSMS, To: "+919876543210"},
			wantKind: KindTransport,
		},
		{
			name:     "bad address",
			msg:      Message{Channel: models.ChannelEmail, To: "nope"},
			wantKind: KindInvalidRecipient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockSESService{SendEmailFunc: tt.mockFunc}
			s := NewSESSender(mock, "noreply@shop.test", time.Second)

			ack, err := s.Send(context.Background(), tt.msg)
			if tt.wantKind != "" {
				se, ok := AsSendError(err)
				require.True(t, ok)
				assert.Equal(t, tt.wantKind, se.Kind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, ack.MessageID)
			assert.Equal(t, "ses", ack.Provider)
		})
	}
}

func TestSNSSender_Send(t *testing.T) {
	var captured *sns.PublishInput
	mock := &MockSNSService{
		PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			captured = params
			return &sns.PublishOutput{MessageId: aws.String("sns-1")}, nil
		},
	}
	s := NewSNSSender(mock, "SHOPIN", time.Second)

	ack, err := s.Send(context.Background(), Message{Channel: models.ChannelSMS, To: "+91 98765-43210", Body: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "sns-1", ack.MessageID)

	require.NotNil(t, captured)
	assert.Equal(t, "+919876543210", aws.ToString(captured.PhoneNumber))
	assert.Equal(t, "hello", aws.ToString(captured.Message))
	assert.Equal(t, "Transactional", aws.ToString(captured.MessageAttributes["AWS.SNS.SMS.SMSType"].StringValue))
	assert.Equal(t, "SHOPIN", aws.ToString(captured.MessageAttributes["AWS.SNS.SMS.SenderID"].StringValue))
}

func TestSNSSender_PublishError(t *testing.T) {
	mock := &MockSNSService{
		PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			return nil, errors.New("InvalidParameter")
		},
	}
	s := NewSNSSender(mock, "", 0)

	_, err := s.Send(context.Background(), Message{Channel: models.ChannelSMS, To: "+919876543210"})
	se, ok := AsSendError(err)
	require.True(t, ok)
	assert.Equal(t, KindTransport, se.Kind)
	assert.Contains(t, err.Error(), "InvalidParameter")
}

// ==========================
// SMTP
// ==========================

func TestSMTPSender_Send(t *testing.T) {
	fake := &fakeSMTPClient{}
	s := NewSMTPSender(SMTPConfig{
		Host:     "smtp.shop.test",
		Port:     587,
		Username: "user",
		Password: "pass",
		From:     "orders@shop.test",
		UseTLS:   true,
	}, time.Second)

	var dialed string
	s.dial = func(ctx context.Context, addr string) (smtpClient, error) {
		dialed = addr
		return fake, nil
	}

	ack, err := s.Send(context.Background(), Message{
		Channel: models.ChannelEmail,
		To:      "john@example.com",
		Subject: "Order Delivered - ORD1",
		Body:    "<p>Delivered</p>",
	})
	require.NoError(t, err)
	assert.Equal(t, "smtp", ack.Provider)
	assert.Equal(t, "smtp.shop.test:587", dialed)
	assert.True(t, fake.tlsStarted)
	assert.True(t, fake.authed)
	assert.True(t, fake.quit)
	assert.Equal(t, "orders@shop.test", fake.from)
	assert.Equal(t, "john@example.com", fake.rcpt)

	body := fake.data.String()
	assert.Contains(t, body, "Subject: Order Delivered - ORD1\r\n")
	assert.Contains(t, body, "Content-Type: text/html; charset=UTF-8\r\n")
	assert.Contains(t, body, "\r\n\r\n<p>Delivered</p>")
}

func TestBuildMIME_HeaderValues(t *testing.T) {
	raw := string(buildMIME("orders@shop.test", Message{
		Channel: models.ChannelEmail,
		To:      "john@example.com",
		Subject: "Order Confirmation - X\r\nBcc: victim@evil.test",
		Body:    "<p>hi</p>",
	}, "m1"))

	headers, _, found := strings.Cut(raw, "\r\n\r\n")
	require.True(t, found)
	for _, line := range strings.Split(headers, "\r\n") {
		assert.False(t, strings.HasPrefix(line, "Bcc:"), line)
	}
	assert.Contains(t, headers, "Subject: Order Confirmation - X Bcc: victim@evil.test\r\n")

	raw = string(buildMIME("orders@shop.test", Message{
		Channel: models.ChannelEmail,
		To:      "john@example.com",
		Subject: "Commande confirmée - ORD1",
	}, "m2"))
	assert.Contains(t, raw, "Subject: =?utf-8?q?")
	assert.NotContains(t, raw, "confirmée")
}

func TestSMTPSender_Failures(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{Host: "smtp.shop.test", Port: 25, From: "orders@shop.test"}, 0)

	s.dial = func(ctx context.Context, addr string) (smtpClient, error) {
		return nil, errors.New("connection refused")
	}
	_, err := s.Send(context.Background(), Message{Channel: models.ChannelEmail, To: "john@example.com"})
	se, ok := AsSendError(err)
	require.True(t, ok)
	assert.Equal(t, KindTransport, se.Kind)

	fake := &fakeSMTPClient{rcptErr: errors.New("550 mailbox unavailable")}
	s.dial = func(ctx context.Context, addr string) (smtpClient, error) { return fake, nil }
	_, err = s.Send(context.Background(), Message{Channel: models.ChannelEmail, To: "john@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "550")
	assert.False(t, fake.tlsStarted)
	assert.False(t, fake.authed)
}

// ==========================
// Rate limiting
// ==========================

func TestRateLimited_FailsFastWhenExhausted(t *testing.T) {
	next := &countingSender{}
	s := NewRateLimited(next, 0.001, 2)
	msg := Message{Channel: models.ChannelSMS, To: "+919876543210"}

	_, err := s.Send(context.Background(), msg)
	require.NoError(t, err)
	_, err = s.Send(context.Background(), msg)
	require.NoError(t, err)

	_, err = s.Send(context.Background(), msg)
	se, ok := AsSendError(err)
	require.True(t, ok)
	assert.Equal(t, KindRateLimited, se.Kind)
	assert.Equal(t, 2, next.calls)
}

func TestRateLimited_DisabledReturnsNext(t *testing.T) {
	next := &countingSender{}
	assert.Same(t, Sender(next), NewRateLimited(next, 0, 5))
}
