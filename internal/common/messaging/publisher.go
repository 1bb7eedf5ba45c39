// Package messaging publishes notification domain events to RabbitMQ.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"order-notifications/internal/common/logger"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Meta identifies one published event.
type Meta struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	CorrelationID string    `json:"correlationId,omitempty"`
	Source        string    `json:"source,omitempty"`
	Time          time.Time `json:"time"`
}

// Envelope is the wire shape of every event.
type Envelope struct {
	Meta Meta        `json:"meta"`
	Data interface{} `json:"data"`
}

// NewEnvelope stamps a fresh id and time on data.
func NewEnvelope(eventType, correlationID string, data interface{}) Envelope {
	return Envelope{
		Meta: Meta{
			ID:            uuid.NewString(),
			Type:          eventType,
			CorrelationID: correlationID,
			Time:          time.Now().UTC(),
		},
		Data: data,
	}
}

// Publisher sends envelopes to a topic exchange.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, env Envelope) error
	Close() error
}

// Config holds the exchange settings for the AMQP publisher.
type Config struct {
	URL      string
	Exchange string
	AppID    string
}

type rmqPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	appID    string
	log      logger.Logger
}

// NewAMQPPublisher dials the broker, declares a durable topic exchange and
// puts the channel in confirm mode.
func NewAMQPPublisher(cfg Config, log logger.Logger) (Publisher, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", cfg.Exchange, err)
	}
	if err := ch.Confirm(false); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable confirms: %w", err)
	}

	return &rmqPublisher{
		conn:     conn,
		ch:       ch,
		exchange: cfg.Exchange,
		appID:    cfg.AppID,
		log:      log.WithFields(map[string]interface{}{"component": "amqp-publisher"}),
	}, nil
}

func (p *rmqPublisher) Publish(ctx context.Context, routingKey string, env Envelope) error {
	msg, err := BuildPublishing(env, p.appID)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	confirm, err := p.ch.PublishWithDeferredConfirmWithContext(ctx, p.exchange, routingKey, false, false, msg)
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	if confirm != nil {
		ok, err := confirm.WaitContext(ctx)
		if err != nil {
			return fmt.Errorf("await confirm %s: %w", routingKey, err)
		}
		if !ok {
			return fmt.Errorf("broker nacked %s", routingKey)
		}
	}

	p.log.Debug("published", map[string]interface{}{
		"exchange":   p.exchange,
		"routingKey": routingKey,
		"messageId":  env.Meta.ID,
	})
	return nil
}

func (p *rmqPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
	}
	return p.conn.Close()
}

// BuildPublishing marshals env into a persistent JSON message.
func BuildPublishing(env Envelope, appID string) (amqp.Publishing, error) {
	if env.Meta.ID == "" {
		return amqp.Publishing{}, fmt.Errorf("envelope meta id is required")
	}
	if env.Meta.CorrelationID == "" {
		env.Meta.CorrelationID = env.Meta.ID
	}
	if env.Meta.Time.IsZero() {
		env.Meta.Time = time.Now().UTC()
	}
	if env.Meta.Source == "" {
		env.Meta.Source = appID
	}

	body, err := json.Marshal(env)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal envelope: %w", err)
	}

	return amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		MessageId:     env.Meta.ID,
		CorrelationId: env.Meta.CorrelationID,
		Type:          env.Meta.Type,
		Timestamp:     env.Meta.Time,
		AppId:         appID,
		Body:          body,
	}, nil
}

// NopPublisher drops every event. Used when messaging is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, Envelope) error { return nil }
func (NopPublisher) Close() error                                    { return nil }
