package sender

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimited wraps a Sender and fails fast with KindRateLimited once the
// token bucket is empty. It never queues.
type RateLimited struct {
	next    Sender
	limiter *rate.Limiter
}

// NewRateLimited allows perSecond sends with the given burst. A non-positive
// rate disables limiting and returns next unchanged.
func NewRateLimited(next Sender, perSecond float64, burst int) Sender {
	if perSecond <= 0 {
		return next
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{next: next, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (r *RateLimited) Send(ctx context.Context, msg Message) (Ack, error) {
	if !r.limiter.Allow() {
		return Ack{}, &SendError{
			Kind:    KindRateLimited,
			Channel: msg.Channel,
			Err:     fmt.Errorf("%s send rate exceeded", msg.Channel),
		}
	}
	return r.next.Send(ctx, msg)
}
