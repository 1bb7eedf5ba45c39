package sender

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"order-notifications/internal/models"

	"github.com/google/uuid"
)

// SMTPConfig holds the relay settings for SMTPSender.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	UseTLS   bool
}

// smtpClient is the subset of *smtp.Client used to submit one message.
type smtpClient interface {
	StartTLS(config *tls.Config) error
	Auth(a smtp.Auth) error
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

type dialFunc func(ctx context.Context, addr string) (smtpClient, error)

// SMTPSender delivers email through an SMTP relay.
type SMTPSender struct {
	cfg     SMTPConfig
	timeout time.Duration
	dial    dialFunc
}

func NewSMTPSender(cfg SMTPConfig, timeout time.Duration) *SMTPSender {
	return &SMTPSender{cfg: cfg, timeout: timeout, dial: dialSMTP}
}

func dialSMTP(ctx context.Context, addr string) (smtpClient, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	host, _, _ := net.SplitHostPort(addr)
	c, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) (Ack, error) {
	if msg.Channel != models.ChannelEmail {
		return Ack{}, transportError(msg.Channel, fmt.Errorf("smtp only delivers email"))
	}
	if err := ValidateRecipient(msg); err != nil {
		return Ack{}, err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	messageID := uuid.NewString()
	if err := s.submit(ctx, msg, messageID); err != nil {
		return Ack{}, transportError(msg.Channel, err)
	}

	return Ack{MessageID: messageID, Provider: "smtp", SentAt: time.Now().UTC()}, nil
}

func (s *SMTPSender) submit(ctx context.Context, msg Message, messageID string) error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	client, err := s.dial(ctx, addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer client.Close()

	if s.cfg.UseTLS {
		if err := client.StartTLS(&tls.Config{ServerName: s.cfg.Host}); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}

	if s.cfg.Username != "" {
		auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err := client.Mail(s.cfg.From); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("failed to set recipient %s: %w", msg.To, err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open data writer: %w", err)
	}
	if _, err := w.Write(buildMIME(s.cfg.From, msg, messageID)); err != nil {
		w.Close()
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	return client.Quit()
}

// headerValue folds CR and LF into spaces so a value cannot start a new
// header line.
var headerValue = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

func buildMIME(from string, msg Message, messageID string) []byte {
	subject := mime.QEncoding.Encode("utf-8", headerValue.Replace(msg.Subject))

	var b strings.Builder
	b.WriteString("From: " + headerValue.Replace(from) + "\r\n")
	b.WriteString("To: " + headerValue.Replace(msg.To) + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("Message-ID: <" + messageID + "@order-notifications>\r\n")
	b.WriteString("Date: " + time.Now().UTC().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	return []byte(b.String())
}
