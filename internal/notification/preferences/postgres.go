package preferences

import (
	"context"
	"database/sql"
	"errors"

	apperrors "order-notifications/internal/common/errors"
	"order-notifications/internal/models"
)

const (
	selectPreferences = `SELECT email, sms, order_confirmation, shipping_updates, delivery_notifications, promotional_offers
FROM notification_preferences WHERE user_id = $1`

	insertDefaultPreferences = `INSERT INTO notification_preferences
(user_id, email, sms, order_confirmation, shipping_updates, delivery_notifications, promotional_offers)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (user_id) DO NOTHING`

	upsertPreferences = `INSERT INTO notification_preferences
(user_id, email, sms, order_confirmation, shipping_updates, delivery_notifications, promotional_offers, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
ON CONFLICT (user_id) DO UPDATE SET
email = EXCLUDED.email,
sms = EXCLUDED.sms,
order_confirmation = EXCLUDED.order_confirmation,
shipping_updates = EXCLUDED.shipping_updates,
delivery_notifications = EXCLUDED.delivery_notifications,
promotional_offers = EXCLUDED.promotional_offers,
updated_at = NOW()`
)

// PostgresStore keeps one row per user in notification_preferences.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, userID string) (models.NotificationPreferences, error) {
	prefs, err := s.load(ctx, userID)
	if err == nil {
		return prefs, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return prefs, apperrors.NewPreferenceStoreFailedError(userID, err)
	}

	d := models.DefaultPreferences()
	if _, err := s.db.ExecContext(ctx, insertDefaultPreferences, userID,
		d.Email, d.SMS, d.OrderConfirmation, d.ShippingUpdates, d.DeliveryNotifications, d.PromotionalOffers,
	); err != nil {
		return d, apperrors.NewPreferenceStoreFailedError(userID, err)
	}

	// Re-read so a row inserted concurrently wins over our defaults.
	prefs, err = s.load(ctx, userID)
	if err != nil {
		return d, apperrors.NewPreferenceStoreFailedError(userID, err)
	}
	return prefs, nil
}

func (s *PostgresStore) Set(ctx context.Context, userID string, p models.NotificationPreferences) error {
	if _, err := s.db.ExecContext(ctx, upsertPreferences, userID,
		p.Email, p.SMS, p.OrderConfirmation, p.ShippingUpdates, p.DeliveryNotifications, p.PromotionalOffers,
	); err != nil {
		return apperrors.NewPreferenceStoreFailedError(userID, err)
	}
	return nil
}

func (s *PostgresStore) load(ctx context.Context, userID string) (models.NotificationPreferences, error) {
	var p models.NotificationPreferences
	err := s.db.QueryRowContext(ctx, selectPreferences, userID).Scan(
		&p.Email, &p.SMS, &p.OrderConfirmation, &p.ShippingUpdates, &p.DeliveryNotifications, &p.PromotionalOffers,
	)
	return p, err
}
