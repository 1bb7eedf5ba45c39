// internal/workers/orders/send-order-notification/handler.go
package sendordernotification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	apperrors "order-notifications/internal/common/errors"
	"order-notifications/internal/common/logger"
	"order-notifications/internal/common/metrics"
	"order-notifications/internal/common/validation"
	"order-notifications/internal/models"
	"order-notifications/internal/notification/dispatch"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "send-order-notification"
)

// Dispatcher is the slice of dispatch.Service the worker needs.
type Dispatcher interface {
	SendOrderNotification(ctx context.Context, event models.Event, data models.NotificationData, userID string) (*dispatch.Result, error)
}

type Handler struct {
	config       *Config
	dispatcher   Dispatcher
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, dispatcher Dispatcher, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		dispatcher:   dispatcher,
		logger:       l,
		errorHandler: apperrors.NewErrorHandler(l),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	defer func() {
		metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	}()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(ctx, client, job, apperrors.NewInvalidPayloadError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
}

// Execute validates the job input and dispatches the event.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	event, ok := models.ParseEvent(input.Event)
	if !ok {
		return nil, apperrors.NewInvalidEventError(input.Event)
	}
	if input.UserID == "" {
		return nil, apperrors.NewInvalidPayloadError("userId is required")
	}

	data, err := validation.DecodeNotificationData(input.NotificationData)
	if err != nil {
		return nil, err
	}

	result, err := h.dispatcher.SendOrderNotification(ctx, event, data, input.UserID)
	if err != nil {
		return nil, err
	}

	out := &Output{
		Event:        string(event),
		OrderID:      data.OrderID,
		Suppressed:   result.Suppressed,
		Sent:         result.Sent(),
		Failed:       result.Failed(),
		RecordIDs:    make([]string, 0, len(result.Records)),
		DispatchedAt: time.Now().UTC().Format(time.RFC3339),
	}
	for _, rec := range result.Records {
		out.RecordIDs = append(out.RecordIDs, rec.ID)
	}
	for _, s := range result.Skipped {
		out.Skipped = append(out.Skipped, string(s.Channel)+":"+string(s.Reason))
	}
	return out, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	h.logger.Info("job completed", map[string]interface{}{
		"jobKey":  job.Key,
		"orderId": output.OrderID,
		"sent":    output.Sent,
		"failed":  output.Failed,
	})
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.Normalize(err).Code)).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, err)
}
