package history

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"order-notifications/internal/common/logger"
	"order-notifications/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
)

// DefaultIndex is the Elasticsearch index used for the search mirror.
const DefaultIndex = "notification-history"

// indexedRecord is the document shape the mirror index is mapped for.
type indexedRecord struct {
	ID        string    `json:"id"`
	Channel   string    `json:"channel"`
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject,omitempty"`
	Content   string    `json:"content"`
	Status    string    `json:"status"`
	Event     string    `json:"event,omitempty"`
	OrderID   string    `json:"orderId,omitempty"`
	UserID    string    `json:"userId,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// IndexedLog appends to a primary Log and mirrors each record into
// Elasticsearch. Mirror failures are logged and never fail the append.
type IndexedLog struct {
	primary Log
	es      *elasticsearch.Client
	index   string
	logger  logger.Logger
}

func NewIndexedLog(primary Log, es *elasticsearch.Client, index string, log logger.Logger) *IndexedLog {
	if index == "" {
		index = DefaultIndex
	}
	return &IndexedLog{
		primary: primary,
		es:      es,
		index:   index,
		logger:  log.WithFields(map[string]interface{}{"component": "history-mirror", "index": index}),
	}
}

func (l *IndexedLog) Append(ctx context.Context, rec models.NotificationRecord) error {
	if err := l.primary.Append(ctx, rec); err != nil {
		return err
	}

	if err := l.mirror(ctx, rec); err != nil {
		l.logger.Warn("Failed to mirror history record", map[string]interface{}{
			"record_id": rec.ID,
			"error":     err.Error(),
		})
	}
	return nil
}

func (l *IndexedLog) List(ctx context.Context, limit int) ([]models.NotificationRecord, error) {
	return l.primary.List(ctx, limit)
}

func (l *IndexedLog) mirror(ctx context.Context, rec models.NotificationRecord) error {
	doc := indexedRecord{
		ID:        rec.ID,
		Channel:   string(rec.Channel),
		Recipient: rec.Recipient,
		Subject:   rec.Subject,
		Content:   rec.Content,
		Status:    string(rec.Status),
		Event:     string(rec.Event),
		OrderID:   rec.OrderID,
		UserID:    rec.UserID,
		Error:     rec.Error,
		Timestamp: rec.Timestamp,
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	res, err := l.es.Index(l.index, bytes.NewReader(body),
		l.es.Index.WithContext(ctx),
		l.es.Index.WithDocumentID(rec.ID),
	)
	if err != nil {
		return fmt.Errorf("index record: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index record: %s", res.Status())
	}
	return nil
}
