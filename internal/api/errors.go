package api

import (
	"net/http"

	apperrors "order-notifications/internal/common/errors"

	"github.com/gin-gonic/gin"
)

var statusByCode = map[apperrors.ErrorCode]int{
	apperrors.ErrCodeInvalidPayload:         http.StatusBadRequest,
	apperrors.ErrCodeInvalidEvent:           http.StatusBadRequest,
	apperrors.ErrCodeInvalidRecipient:       http.StatusBadRequest,
	apperrors.ErrCodeSimulationNotFound:     http.StatusNotFound,
	apperrors.ErrCodeRateLimited:            http.StatusTooManyRequests,
	apperrors.ErrCodePreferenceStoreFailed:  http.StatusServiceUnavailable,
	apperrors.ErrCodeHistoryStoreFailed:     http.StatusServiceUnavailable,
	apperrors.ErrCodeNotificationSendFailed: http.StatusBadGateway,
}

// HTTPStatus maps an error onto a response status.
func HTTPStatus(err error) int {
	if stdErr, ok := apperrors.AsStandard(err); ok {
		if status, ok := statusByCode[stdErr.Code]; ok {
			return status
		}
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	stdErr := apperrors.Normalize(err)
	body := gin.H{
		"error": stdErr.Message,
		"code":  stdErr.Code,
	}
	if stdErr.Details != "" {
		body["details"] = stdErr.Details
	}
	c.JSON(HTTPStatus(err), body)
}
