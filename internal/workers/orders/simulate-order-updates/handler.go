// internal/workers/orders/simulate-order-updates/handler.go
package simulateorderupdates

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
	"order-notifications/internal/notification/lifecycle"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "simulate-order-updates"
)

// Simulator starts lifecycle runs.
type Simulator interface {
	Simulate(ctx context.Context, userID string, data models.NotificationData) *lifecycle.Run
}

type Handler struct {
	config       *Config
	simulator    Simulator
	baseCtx      context.Context
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

// NewHandler runs simulations under baseCtx so they outlive the job that
// started them and stop when the service shuts down.
func NewHandler(baseCtx context.Context, config *Config, simulator Simulator, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		simulator:    simulator,
		baseCtx:      baseCtx,
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

// Execute starts a simulation. With WaitForCompletion it blocks until the
// run ends; if ctx expires first the run is cancelled.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.UserID == "" {
		return nil, apperrors.NewInvalidPayloadError("userId is required")
	}
	data, err := validation.DecodeNotificationData(input.NotificationData)
	if err != nil {
		return nil, err
	}

	run := h.simulator.Simulate(h.baseCtx, input.UserID, data)
	out := &Output{
		RunID:     run.ID,
		OrderID:   run.OrderID,
		StartedAt: run.StartedAt.Format(time.RFC3339),
	}

	if !h.config.WaitForCompletion {
		return out, nil
	}

	select {
	case <-run.Done():
	case <-ctx.Done():
		run.Cancel()
		run.Wait()
	}

	out.Cancelled = run.Cancelled()
	out.Completed = !out.Cancelled
	for _, e := range run.Fired() {
		out.Fired = append(out.Fired, string(e))
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
		"jobKey": job.Key,
		"runId":  output.RunID,
	})
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.Normalize(err).Code)).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, err)
}
