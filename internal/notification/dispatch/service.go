package dispatch

import (
	"context"
	"time"

	apperrors "order-notifications/internal/common/errors"
	"order-notifications/internal/common/logger"
	"order-notifications/internal/common/messaging"
	"order-notifications/internal/common/metrics"
	"order-notifications/internal/common/observability"
	"order-notifications/internal/models"
	"order-notifications/internal/notification/history"
	"order-notifications/internal/notification/preferences"
	"order-notifications/internal/notification/render"
	"order-notifications/internal/notification/sender"
	"order-notifications/internal/notification/templates"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// EventTypeDispatched is the event type published for every send attempt.
const EventTypeDispatched = "notification.dispatched"

// Service renders and sends order notifications.
type Service struct {
	prefs      preferences.Store
	renderer   *render.Renderer
	senders    map[models.Channel]sender.Sender
	history    history.Log
	publisher  messaging.Publisher
	routingKey string
	obs        *observability.Observability
	logger     logger.Logger
	now        func() time.Time
}

type Option func(*Service)

// WithPublisher publishes every record to routingKey.
func WithPublisher(p messaging.Publisher, routingKey string) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
			s.routingKey = routingKey
		}
	}
}

func WithObservability(o *observability.Observability) Option {
	return func(s *Service) {
		if o != nil {
			s.obs = o
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(
	prefs preferences.Store,
	renderer *render.Renderer,
	senders map[models.Channel]sender.Sender,
	hist history.Log,
	log logger.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		prefs:     prefs,
		renderer:  renderer,
		senders:   senders,
		history:   hist,
		publisher: messaging.NopPublisher{},
		obs:       observability.NewNoop(),
		logger:    log.WithFields(map[string]interface{}{"component": "dispatch"}),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SendOrderNotification dispatches event for one order. Email goes first,
// then SMS. A channel fires only when its flag is on, the order carries a
// contact for it and a template exists. Send failures are recorded in the
// history as failed and are not returned as errors.
func (s *Service) SendOrderNotification(ctx context.Context, event models.Event, data models.NotificationData, userID string) (*Result, error) {
	start := time.Now()
	ctx, span := s.obs.StartSpan(ctx, "dispatch.SendOrderNotification",
		attribute.String("event", string(event)),
		attribute.String("order_id", data.OrderID),
		attribute.String("user_id", userID),
	)
	defer span.End()

	outcome := "dispatched"
	defer func() {
		s.obs.RecordDispatchDuration(ctx, time.Since(start), string(event), outcome)
	}()

	if _, ok := CategoryFor(event); !ok {
		outcome = "error"
		err := apperrors.NewInvalidEventError(string(event))
		span.SetStatus(codes.Error, err.Message)
		return nil, err
	}

	log := s.logger.WithFields(map[string]interface{}{
		"event":    event,
		"order_id": data.OrderID,
		"user_id":  userID,
	})

	prefs, err := s.prefs.Get(ctx, userID)
	if err != nil {
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, "preference lookup failed")
		return nil, err
	}

	result := &Result{Event: event, OrderID: data.OrderID, UserID: userID}

	if !CategoryEnabled(prefs, event) {
		outcome = "suppressed"
		result.Suppressed = true
		metrics.NotificationsSuppressed.WithLabelValues(string(event)).Inc()
		log.Info("Notifications disabled for this event type", nil)
		return result, nil
	}

	var firstErr error
	for _, ch := range models.Channels {
		reason, tmpl, snd := s.plan(prefs, event, data, ch)
		if reason != "" {
			result.Skipped = append(result.Skipped, Skip{Channel: ch, Reason: reason})
			metrics.ChannelsSkipped.WithLabelValues(string(ch), string(reason)).Inc()
			log.Debug("Channel skipped", map[string]interface{}{"channel": ch, "reason": reason})
			continue
		}

		rec := s.send(ctx, snd, tmpl, event, data, userID)
		result.Records = append(result.Records, rec)

		metrics.NotificationsDispatched.WithLabelValues(string(ch), string(event), string(rec.Status)).Inc()
		s.obs.RecordDispatch(ctx, string(ch), string(event), string(rec.Status))

		if err := s.history.Append(ctx, rec); err != nil {
			log.Error("Failed to append history record", map[string]interface{}{
				"record_id": rec.ID,
				"error":     err.Error(),
			})
			if firstErr == nil {
				firstErr = err
			}
		}
		s.publish(ctx, rec, log)
	}

	span.SetAttributes(
		attribute.Int("records", len(result.Records)),
		attribute.Int("failed", result.Failed()),
	)
	if firstErr != nil {
		outcome = "error"
		span.RecordError(firstErr)
		span.SetStatus(codes.Error, "history append failed")
	}
	return result, firstErr
}

func (s *Service) plan(prefs models.NotificationPreferences, event models.Event, data models.NotificationData, ch models.Channel) (SkipReason, templates.Template, sender.Sender) {
	if !prefs.ChannelEnabled(ch) {
		return SkipChannelDisabled, templates.Template{}, nil
	}
	if data.Contact(ch) == "" {
		return SkipNoContact, templates.Template{}, nil
	}
	tmpl, ok := templates.Lookup(ch, event)
	if !ok {
		return SkipNoTemplate, templates.Template{}, nil
	}
	snd, ok := s.senders[ch]
	if !ok || snd == nil {
		return SkipNoSender, templates.Template{}, nil
	}
	return "", tmpl, snd
}

func (s *Service) send(ctx context.Context, snd sender.Sender, tmpl templates.Template, event models.Event, data models.NotificationData, userID string) models.NotificationRecord {
	ts := s.now()
	msg := sender.Message{
		Channel: tmpl.Channel,
		To:      data.Contact(tmpl.Channel),
		Body:    s.renderer.Render(tmpl.Body, data),
	}
	if tmpl.Subject != "" {
		msg.Subject = s.renderer.Render(tmpl.Subject, data)
	}

	rec := models.NotificationRecord{
		ID:        history.NewRecordID(ts, tmpl.Channel),
		Channel:   tmpl.Channel,
		Recipient: msg.To,
		Subject:   msg.Subject,
		Content:   msg.Body,
		Status:    models.StatusSent,
		Timestamp: ts.UTC(),
		Event:     event,
		OrderID:   data.OrderID,
		UserID:    userID,
	}

	ack, err := snd.Send(ctx, msg)
	if err != nil {
		rec.Status = models.StatusFailed
		rec.Error = err.Error()
		s.logger.Warn("Notification send failed", map[string]interface{}{
			"channel":   tmpl.Channel,
			"event":     event,
			"order_id":  data.OrderID,
			"recipient": msg.To,
			"error":     err.Error(),
		})
		return rec
	}

	s.logger.Info("Notification sent", map[string]interface{}{
		"channel":    tmpl.Channel,
		"event":      event,
		"order_id":   data.OrderID,
		"provider":   ack.Provider,
		"message_id": ack.MessageID,
	})
	return rec
}

func (s *Service) publish(ctx context.Context, rec models.NotificationRecord, log logger.Logger) {
	env := messaging.NewEnvelope(EventTypeDispatched, rec.OrderID, rec)
	if err := s.publisher.Publish(ctx, s.routingKey, env); err != nil {
		log.Warn("Failed to publish dispatch event", map[string]interface{}{
			"record_id": rec.ID,
			"error":     err.Error(),
		})
	}
}

// History returns up to limit records, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]models.NotificationRecord, error) {
	return s.history.List(ctx, limit)
}

// Preferences returns the stored preferences for userID, creating defaults.
func (s *Service) Preferences(ctx context.Context, userID string) (models.NotificationPreferences, error) {
	return s.prefs.Get(ctx, userID)
}

// UpdatePreferences replaces the stored preferences for userID.
func (s *Service) UpdatePreferences(ctx context.Context, userID string, prefs models.NotificationPreferences) error {
	return s.prefs.Set(ctx, userID, prefs)
}
