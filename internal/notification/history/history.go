// Package history keeps the bounded, newest-first log of dispatch attempts.
package history

import (
	"context"
	"fmt"
	"sync"
	"time"

	"order-notifications/internal/models"

	"github.com/google/uuid"
)

// DefaultCapacity is the number of records retained when none is configured.
const DefaultCapacity = 100

// Log stores dispatch records newest first.
type Log interface {
	Append(ctx context.Context, rec models.NotificationRecord) error
	// List returns at most limit records, newest first. A non-positive limit
	// returns everything retained.
	List(ctx context.Context, limit int) ([]models.NotificationRecord, error)
}

// NewRecordID derives a record id from the dispatch timestamp and channel.
// The random suffix keeps ids unique across dispatches in the same
// millisecond, which the search mirror relies on as document id.
func NewRecordID(ts time.Time, ch models.Channel) string {
	return fmt.Sprintf("%d-%s-%s", ts.UnixMilli(), ch, uuid.NewString())
}

// MemoryLog is a mutex-guarded in-process Log.
type MemoryLog struct {
	mu       sync.RWMutex
	capacity int
	records  []models.NotificationRecord
}

func NewMemoryLog(capacity int) *MemoryLog {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemoryLog{
		capacity: capacity,
		records:  make([]models.NotificationRecord, 0, capacity),
	}
}

func (l *MemoryLog) Append(_ context.Context, rec models.NotificationRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.records) < l.capacity {
		l.records = append(l.records, models.NotificationRecord{})
	}
	copy(l.records[1:], l.records[:len(l.records)-1])
	l.records[0] = rec
	return nil
}

func (l *MemoryLog) List(_ context.Context, limit int) ([]models.NotificationRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := len(l.records)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]models.NotificationRecord, n)
	copy(out, l.records[:n])
	return out, nil
}
