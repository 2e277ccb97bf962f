package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"bookingd/internal/domain"
	"bookingd/internal/models"

	"golang.org/x/time/rate"
)

var ErrThrottled = errors.New("notification rate limit exceeded")

// Throttled limits notifications per user with a token bucket.
type Throttled struct {
	next     domain.Notifier
	rps      rate.Limit
	burst    int
	limiters sync.Map
}

func NewThrottled(next domain.Notifier, rps float64, burst int) *Throttled {
	if burst <= 0 {
		burst = models.NotificationRateLimitBurst
	}
	if rps <= 0 {
		rps = models.NotificationRateLimitRPS
	}
	return &Throttled{next: next, rps: rate.Limit(rps), burst: burst}
}

func (t *Throttled) Notify(ctx context.Context, note models.Notification) error {
	if !t.getLimiter(note.UserID).Allow() {
		return fmt.Errorf("%w: user %s", ErrThrottled, note.UserID)
	}
	return t.next.Notify(ctx, note)
}

func (t *Throttled) getLimiter(key string) *rate.Limiter {
	if v, ok := t.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}
	actual, _ := t.limiters.LoadOrStore(key, rate.NewLimiter(t.rps, t.burst))
	return actual.(*rate.Limiter)
}
