package history

import (
	"context"
	"encoding/json"
	"fmt"

	apperrors "order-notifications/internal/common/errors"
	"order-notifications/internal/models"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the list key used when none is configured.
const DefaultRedisKey = "notification_history"

// RedisLog keeps the history in a Redis list so every instance shares it.
type RedisLog struct {
	client   redis.Cmdable
	key      string
	capacity int
}

func NewRedisLog(client redis.Cmdable, key string, capacity int) *RedisLog {
	if key == "" {
		key = DefaultRedisKey
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &RedisLog{client: client, key: key, capacity: capacity}
}

// Append pushes at the head and trims in one MULTI so the list never holds
// more than capacity entries.
func (l *RedisLog) Append(ctx context.Context, rec models.NotificationRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return apperrors.NewHistoryStoreFailedError(err)
	}

	_, err = l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, l.key, raw)
		pipe.LTrim(ctx, l.key, 0, int64(l.capacity-1))
		return nil
	})
	if err != nil {
		return apperrors.NewHistoryStoreFailedError(err)
	}
	return nil
}

func (l *RedisLog) List(ctx context.Context, limit int) ([]models.NotificationRecord, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}

	raws, err := l.client.LRange(ctx, l.key, 0, stop).Result()
	if err != nil {
		return nil, apperrors.NewHistoryStoreFailedError(err)
	}

	out := make([]models.NotificationRecord, 0, len(raws))
	for i, raw := range raws {
		var rec models.NotificationRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, apperrors.NewHistoryStoreFailedError(fmt.Errorf("decode entry %d: %w", i, err))
		}
		out = append(out, rec)
	}
	return out, nil
}
