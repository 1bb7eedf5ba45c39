package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"order-notifications/internal/common/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestOperationalEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewNotificationHandler(context.Background(), new(MockNotificationService), nil)

	healthy := NewRouter(h, []ReadinessCheck{
		{Name: "redis", Check: func(context.Context) error { return nil }},
	}, logger.NewNoOpLogger())

	for _, path := range []string{"/health", "/ready", "/metrics"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", path, nil)
		healthy.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	unhealthy := NewRouter(h, []ReadinessCheck{
		{Name: "zeebe", Check: func(context.Context) error { return errors.New("unavailable") }},
	}, logger.NewNoOpLogger())

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/ready", nil)
	unhealthy.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "zeebe")
}

func TestHTTPStatus_UnknownError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}
