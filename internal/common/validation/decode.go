package validation

import (
	"encoding/json"
	"fmt"

	apperrors "order-notifications/internal/common/errors"
	"order-notifications/internal/models"
)

// DecodeNotificationData validates raw against NotificationDataSchema and
// decodes it. Every failure is an INVALID_PAYLOAD error.
func DecodeNotificationData(raw json.RawMessage) (models.NotificationData, error) {
	var data models.NotificationData
	if len(raw) == 0 || string(raw) == "null" {
		return data, apperrors.NewInvalidPayloadError("notificationData is required")
	}

	result, err := ValidateJSON(NotificationDataSchema, raw)
	if err != nil {
		return data, apperrors.NewInvalidPayloadError(err.Error())
	}
	if !result.Valid {
		return data, apperrors.NewInvalidPayloadError(result.Summary())
	}

	if err := json.Unmarshal(raw, &data); err != nil {
		return data, apperrors.NewInvalidPayloadError(fmt.Sprintf("decode notificationData: %v", err))
	}
	return data, nil
}

// DecodePreferences requires every flag to be present so an update is always
// a full replace.
func DecodePreferences(raw []byte) (models.NotificationPreferences, error) {
	var prefs models.NotificationPreferences

	result, err := ValidateJSON(PreferencesSchema, raw)
	if err != nil {
		return prefs, apperrors.NewInvalidPayloadError(err.Error())
	}
	if !result.Valid {
		return prefs, apperrors.NewInvalidPayloadError(result.Summary())
	}

	if err := json.Unmarshal(raw, &prefs); err != nil {
		return prefs, apperrors.NewInvalidPayloadError(fmt.Sprintf("decode preferences: %v", err))
	}
	return prefs, nil
}
