// Package api exposes notification dispatch, preferences, history and
// lifecycle simulations over HTTP.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	apperrors "order-notifications/internal/common/errors"
	"order-notifications/internal/common/validation"
	"order-notifications/internal/models"
	"order-notifications/internal/notification/dispatch"
	"order-notifications/internal/notification/lifecycle"

	"github.com/gin-gonic/gin"
)

const (
	requestTimeout      = 5 * time.Second
	defaultHistoryLimit = 50
)

// NotificationService is the dispatch surface used by the handlers.
type NotificationService interface {
	SendOrderNotification(ctx context.Context, event models.Event, data models.NotificationData, userID string) (*dispatch.Result, error)
	SendTestNotification(ctx context.Context, userID string, profile models.CustomerProfile) (*dispatch.Result, error)
	History(ctx context.Context, limit int) ([]models.NotificationRecord, error)
	Preferences(ctx context.Context, userID string) (models.NotificationPreferences, error)
	UpdatePreferences(ctx context.Context, userID string, prefs models.NotificationPreferences) error
}

// SimulationService starts and controls lifecycle runs.
type SimulationService interface {
	Simulate(ctx context.Context, userID string, data models.NotificationData) *lifecycle.Run
	Get(runID string) (*lifecycle.Run, bool)
	Cancel(runID string) error
}

type NotificationHandler struct {
	svc     NotificationService
	sims    SimulationService
	baseCtx context.Context
}

// NewNotificationHandler runs simulations under baseCtx so they outlive the
// request that started them.
func NewNotificationHandler(baseCtx context.Context, svc NotificationService, sims SimulationService) *NotificationHandler {
	return &NotificationHandler{svc: svc, sims: sims, baseCtx: baseCtx}
}

func (h *NotificationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/users/:userId/notification-preferences", h.GetPreferences)
	rg.PUT("/users/:userId/notification-preferences", h.UpdatePreferences)
	rg.POST("/users/:userId/test-notification", h.SendTestNotification)

	rg.GET("/notifications/history", h.GetHistory)

	rg.POST("/orders/:orderId/notifications", h.SendOrderNotification)
	rg.POST("/orders/:orderId/simulations", h.StartSimulation)

	rg.GET("/simulations/:runId", h.GetSimulation)
	rg.DELETE("/simulations/:runId", h.CancelSimulation)
}

type sendNotificationRequest struct {
	Event            string          `json:"event"`
	UserID           string          `json:"userId"`
	NotificationData json.RawMessage `json:"notificationData"`
}

type simulationRequest struct {
	UserID           string          `json:"userId"`
	NotificationData json.RawMessage `json:"notificationData"`
}

// GetPreferences returns the user's preferences, creating defaults.
func (h *NotificationHandler) GetPreferences(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	prefs, err := h.svc.Preferences(ctx, c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}

// UpdatePreferences replaces the user's preferences. Every flag is required.
func (h *NotificationHandler) UpdatePreferences(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}
	prefs, err := validation.DecodePreferences(body)
	if err != nil {
		respondError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := h.svc.UpdatePreferences(ctx, c.Param("userId"), prefs); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}

// SendTestNotification sends a sample order confirmation to the profile's
// contacts. An empty body uses placeholder contacts.
func (h *NotificationHandler) SendTestNotification(c *gin.Context) {
	var profile models.CustomerProfile
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&profile); err != nil && err != io.EOF {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	result, err := h.svc.SendTestNotification(ctx, c.Param("userId"), profile)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetHistory returns the most recent records, newest first.
func (h *NotificationHandler) GetHistory(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	records, err := h.svc.History(ctx, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": records, "count": len(records)})
}

// SendOrderNotification dispatches one lifecycle event for the order.
func (h *NotificationHandler) SendOrderNotification(c *gin.Context) {
	var req sendNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	event, ok := models.ParseEvent(req.Event)
	if !ok {
		respondError(c, apperrors.NewInvalidEventError(req.Event))
		return
	}
	data, ok := h.orderData(c, req.UserID, req.NotificationData)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	result, err := h.svc.SendOrderNotification(ctx, event, data, req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// StartSimulation walks the order through the lifecycle stages in the
// background.
func (h *NotificationHandler) StartSimulation(c *gin.Context) {
	var req simulationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	data, ok := h.orderData(c, req.UserID, req.NotificationData)
	if !ok {
		return
	}

	run := h.sims.Simulate(h.baseCtx, req.UserID, data)
	c.Header("Location", "/api/v1/simulations/"+run.ID)
	c.JSON(http.StatusAccepted, run.Status())
}

func (h *NotificationHandler) GetSimulation(c *gin.Context) {
	run, ok := h.sims.Get(c.Param("runId"))
	if !ok {
		respondError(c, apperrors.NewSimulationNotFoundError(c.Param("runId")))
		return
	}
	c.JSON(http.StatusOK, run.Status())
}

// CancelSimulation stops the stages not yet fired.
func (h *NotificationHandler) CancelSimulation(c *gin.Context) {
	if err := h.sims.Cancel(c.Param("runId")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// orderData validates the payload and checks it belongs to the order in the
// path. It writes the error response itself.
func (h *NotificationHandler) orderData(c *gin.Context, userID string, raw json.RawMessage) (models.NotificationData, bool) {
	if userID == "" {
		respondError(c, apperrors.NewInvalidPayloadError("userId is required"))
		return models.NotificationData{}, false
	}
	data, err := validation.DecodeNotificationData(raw)
	if err != nil {
		respondError(c, err)
		return data, false
	}
	if orderID := c.Param("orderId"); data.OrderID != orderID {
		respondError(c, apperrors.NewInvalidPayloadError("orderId does not match path"))
		return data, false
	}
	return data, true
}
