package preferences

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	apperrors "order-notifications/internal/common/errors"
	"order-notifications/internal/models"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "notification_preferences:"

// RedisStore keeps one JSON document per user.
type RedisStore struct {
	client redis.Cmdable
}

func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

func redisKey(userID string) string {
	return redisKeyPrefix + userID
}

func (s *RedisStore) Get(ctx context.Context, userID string) (models.NotificationPreferences, error) {
	key := redisKey(userID)

	prefs, found, err := s.load(ctx, key)
	if err != nil {
		return prefs, apperrors.NewPreferenceStoreFailedError(userID, err)
	}
	if found {
		return prefs, nil
	}

	defaults := models.DefaultPreferences()
	raw, err := json.Marshal(defaults)
	if err != nil {
		return defaults, apperrors.NewPreferenceStoreFailedError(userID, err)
	}

	created, err := s.client.SetNX(ctx, key, raw, 0).Result()
	if err != nil {
		return defaults, apperrors.NewPreferenceStoreFailedError(userID, err)
	}
	if created {
		return defaults, nil
	}

	// Another writer got there first.
	prefs, found, err = s.load(ctx, key)
	if err != nil {
		return prefs, apperrors.NewPreferenceStoreFailedError(userID, err)
	}
	if !found {
		return defaults, nil
	}
	return prefs, nil
}

func (s *RedisStore) Set(ctx context.Context, userID string, prefs models.NotificationPreferences) error {
	raw, err := json.Marshal(prefs)
	if err != nil {
		return apperrors.NewPreferenceStoreFailedError(userID, err)
	}
	if err := s.client.Set(ctx, redisKey(userID), raw, 0).Err(); err != nil {
		return apperrors.NewPreferenceStoreFailedError(userID, err)
	}
	return nil
}

func (s *RedisStore) load(ctx context.Context, key string) (models.NotificationPreferences, bool, error) {
	var prefs models.NotificationPreferences

	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return prefs, false, nil
	}
	if err != nil {
		return prefs, false, err
	}
	if err := json.Unmarshal(raw, &prefs); err != nil {
		return prefs, false, fmt.Errorf("decode %s: %w", key, err)
	}
	return prefs, true, nil
}
