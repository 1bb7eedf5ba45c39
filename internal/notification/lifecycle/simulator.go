// Package lifecycle drives an order through the demo lifecycle events on a
// timer, one cancellable run per order.
package lifecycle

import (
	"context"
	"strconv"
	"sync"
	"time"

	apperrors "order-notifications/internal/common/errors"
	"order-notifications/internal/common/logger"
	"order-notifications/internal/common/metrics"
	"order-notifications/internal/models"
	"order-notifications/internal/notification/dispatch"
	"order-notifications/internal/notification/render"

	"github.com/google/uuid"
)

const (
	// DefaultStep is the delay between consecutive stages.
	DefaultStep = 2 * time.Second
	// DefaultRetainFinished is how many finished runs stay queryable.
	DefaultRetainFinished = 100

	ShippedCourier      = "FastTrack Express"
	trackingPrefix      = "TRK"
	shippedDeliveryDays = 2
)

// Stages is the order in which a simulation emits events. Stage i fires at
// start + i*step.
var Stages = []models.Event{
	models.EventOrderConfirmation,
	models.EventOrderShipped,
	models.EventOutForDelivery,
	models.EventDelivered,
}

// Dispatcher sends one lifecycle event.
type Dispatcher interface {
	SendOrderNotification(ctx context.Context, event models.Event, data models.NotificationData, userID string) (*dispatch.Result, error)
}

// Simulator starts and tracks lifecycle runs.
type Simulator struct {
	dispatcher Dispatcher
	renderer   *render.Renderer
	step       time.Duration
	logger     logger.Logger
	now        func() time.Time

	mu       sync.Mutex
	runs     map[string]*Run
	finished map[string]*Run
	order    []string // finished run ids, oldest first
	retain   int
	wg       sync.WaitGroup
}

type Option func(*Simulator)

func WithStep(step time.Duration) Option {
	return func(s *Simulator) {
		if step > 0 {
			s.step = step
		}
	}
}

// WithRetainFinished bounds how many finished runs Get still reports.
func WithRetainFinished(n int) Option {
	return func(s *Simulator) {
		if n >= 0 {
			s.retain = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Simulator) {
		if now != nil {
			s.now = now
		}
	}
}

func NewSimulator(d Dispatcher, renderer *render.Renderer, log logger.Logger, opts ...Option) *Simulator {
	s := &Simulator{
		dispatcher: d,
		renderer:   renderer,
		step:       DefaultStep,
		logger:     log.WithFields(map[string]interface{}{"component": "lifecycle"}),
		now:        time.Now,
		runs:       make(map[string]*Run),
		finished:   make(map[string]*Run),
		retain:     DefaultRetainFinished,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Simulate starts a run in its own goroutine and returns immediately.
// Cancelling ctx or calling Run.Cancel aborts the stages not yet fired.
func (s *Simulator) Simulate(ctx context.Context, userID string, data models.NotificationData) *Run {
	runCtx, cancel := context.WithCancel(ctx)
	r := &Run{
		ID:        uuid.NewString(),
		UserID:    userID,
		OrderID:   data.OrderID,
		StartedAt: s.now().UTC(),
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	s.mu.Lock()
	s.runs[r.ID] = r
	s.mu.Unlock()
	metrics.SimulationsActive.Inc()

	s.wg.Add(1)
	go s.run(runCtx, r, data)
	return r
}

func (s *Simulator) run(ctx context.Context, r *Run, data models.NotificationData) {
	defer s.wg.Done()
	defer s.finish(r)

	log := s.logger.WithFields(map[string]interface{}{
		"run_id":   r.ID,
		"order_id": r.OrderID,
		"user_id":  r.UserID,
	})
	log.Info("Order simulation started", nil)

	start := time.Now()
	for i, event := range Stages {
		if !sleepUntil(ctx, start.Add(time.Duration(i)*s.step)) {
			r.markCancelled()
			log.Info("Order simulation cancelled", map[string]interface{}{"next_event": event})
			return
		}

		payload := data
		if event == models.EventOrderShipped {
			payload = s.shippedPayload(data)
		}

		result, err := s.dispatcher.SendOrderNotification(ctx, event, payload, r.UserID)
		if err != nil {
			log.Error("Simulation stage failed", map[string]interface{}{
				"event": event,
				"error": err.Error(),
			})
		} else {
			log.Debug("Simulation stage dispatched", map[string]interface{}{
				"event":      event,
				"sent":       result.Sent(),
				"failed":     result.Failed(),
				"suppressed": result.Suppressed,
			})
		}
		r.markFired(event)
	}

	log.Info("Order simulation completed", nil)
}

// shippedPayload adds the carrier details the shipped stage announces.
func (s *Simulator) shippedPayload(data models.NotificationData) models.NotificationData {
	now := s.now()
	data.TrackingNumber = trackingPrefix + strconv.FormatInt(now.UnixMilli(), 10)
	data.CourierPartner = ShippedCourier
	data.EstimatedDelivery = s.renderer.FormatDate(now.Add(shippedDeliveryDays * 24 * time.Hour))
	return data
}

// finish moves r from the active set to the bounded finished set. done is
// closed under the lock so a finished run always reports Done.
func (s *Simulator) finish(r *Run) {
	r.cancel()

	s.mu.Lock()
	delete(s.runs, r.ID)
	if s.retain > 0 {
		s.finished[r.ID] = r
		s.order = append(s.order, r.ID)
		for len(s.order) > s.retain {
			delete(s.finished, s.order[0])
			s.order = s.order[1:]
		}
	}
	close(r.done)
	s.mu.Unlock()
	metrics.SimulationsActive.Dec()
}

// Get returns a run in progress or one of the most recently finished runs.
func (s *Simulator) Get(runID string) (*Run, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.runs[runID]; ok {
		return r, true
	}
	r, ok := s.finished[runID]
	return r, ok
}

// Cancel aborts a run in progress. Finished runs are not found.
func (s *Simulator) Cancel(runID string) error {
	s.mu.Lock()
	r, ok := s.runs[runID]
	s.mu.Unlock()
	if !ok {
		return apperrors.NewSimulationNotFoundError(runID)
	}
	r.Cancel()
	return nil
}

// Active returns the number of runs in progress.
func (s *Simulator) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.runs)
}

// Shutdown cancels every run and waits for their goroutines to exit or ctx
// to expire.
func (s *Simulator) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	for _, r := range s.runs {
		r.Cancel()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func sleepUntil(ctx context.Context, at time.Time) bool {
	d := time.Until(at)
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return ctx.Err() == nil
	}
}
