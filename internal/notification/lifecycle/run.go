package lifecycle

import (
	"context"
	"sync"
	"time"

	"order-notifications/internal/models"
)

// Run is one in-flight lifecycle simulation.
type Run struct {
	ID        string
	UserID    string
	OrderID   string
	StartedAt time.Time

	cancel context.CancelFunc
	done   chan struct{}

	mu        sync.Mutex
	fired     []models.Event
	cancelled bool
}

// RunStatus is a point-in-time view of a Run.
type RunStatus struct {
	ID        string         `json:"runId"`
	UserID    string         `json:"userId"`
	OrderID   string         `json:"orderId"`
	StartedAt time.Time      `json:"startedAt"`
	Fired     []models.Event `json:"fired"`
	Done      bool           `json:"done"`
	Cancelled bool           `json:"cancelled"`
}

// Cancel stops the stages not yet fired. Safe to call more than once.
func (r *Run) Cancel() {
	r.cancel()
}

// Done is closed when the run finishes or is cancelled.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until Done is closed.
func (r *Run) Wait() {
	<-r.done
}

// Fired returns the events dispatched so far, in order.
func (r *Run) Fired() []models.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Event, len(r.fired))
	copy(out, r.fired)
	return out
}

// Cancelled reports whether the run stopped before its last stage.
func (r *Run) Cancelled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancelled
}

func (r *Run) Status() RunStatus {
	st := RunStatus{
		ID:        r.ID,
		UserID:    r.UserID,
		OrderID:   r.OrderID,
		StartedAt: r.StartedAt,
		Fired:     r.Fired(),
		Cancelled: r.Cancelled(),
	}
	select {
	case <-r.done:
		st.Done = true
	default:
	}
	return st
}

func (r *Run) markFired(e models.Event) {
	r.mu.Lock()
	r.fired = append(r.fired, e)
	r.mu.Unlock()
}

func (r *Run) markCancelled() {
	r.mu.Lock()
	r.cancelled = true
	r.mu.Unlock()
}
