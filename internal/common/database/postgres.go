// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"order-notifications/internal/common/config"

	_ "github.com/lib/pq"
)

// PreferencesSchema creates the table backing the Postgres preference store.
const PreferencesSchema = `
CREATE TABLE IF NOT EXISTS notification_preferences (
	user_id                TEXT PRIMARY KEY,
	email                  BOOLEAN NOT NULL,
	sms                    BOOLEAN NOT NULL,
	order_confirmation     BOOLEAN NOT NULL,
	shipping_updates       BOOLEAN NOT NULL,
	delivery_notifications BOOLEAN NOT NULL,
	promotional_offers     BOOLEAN NOT NULL,
	updated_at             TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// PostgresClient wraps the SQL database connection
type PostgresClient struct {
	DB *sql.DB
}

// NewPostgres creates a new PostgreSQL client
func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

// Ping tests the database connection
func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// EnsureSchema creates the notification tables if they are missing.
func (c *PostgresClient) EnsureSchema(ctx context.Context) error {
	if _, err := c.DB.ExecContext(ctx, PreferencesSchema); err != nil {
		return fmt.Errorf("create notification_preferences: %w", err)
	}
	return nil
}

// Close closes the database connection
func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
