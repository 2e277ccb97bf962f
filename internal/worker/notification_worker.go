package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"bookingd/internal/domain"
	"bookingd/internal/metrics"
	"bookingd/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var (
	ErrQueueFull     = errors.New("notification queue is full")
	ErrWorkerStopped = errors.New("notification worker is stopped")
)

var _ domain.Notifier = (*NotificationWorker)(nil)

// DeadLetter is what lands in the dead-letter list once retries are exhausted.
type DeadLetter struct {
	Notification models.Notification `json:"notification"`
	Attempts     int                 `json:"attempts"`
	Error        string              `json:"error"`
	FailedAt     time.Time           `json:"failed_at"`
}

type Options struct {
	QueueSize     int
	Retry         RetryPolicy
	DeadLetterKey string
	// SendTimeout bounds a single delivery attempt.
	SendTimeout time.Duration
}

// NotificationWorker delivers notifications in the background so callers never
// wait on a slow sink. It implements domain.Notifier: Notify only enqueues.
type NotificationWorker struct {
	sink   domain.Notifier
	redis  *redis.Client
	opts   Options
	logger *zerolog.Logger

	queue chan models.Notification

	mu      sync.RWMutex
	stopped bool
	// active counts running Start loops; Drain waits for them to return
	active sync.WaitGroup

	// sleep is swapped in tests
	sleep func(ctx context.Context, d time.Duration) error
}

func NewNotificationWorker(sink domain.Notifier, redisClient *redis.Client, opts Options, logger *zerolog.Logger) *NotificationWorker {
	if opts.QueueSize <= 0 {
		opts.QueueSize = models.NotificationQueueSize
	}
	if opts.Retry.MaxRetries == 0 {
		opts.Retry.MaxRetries = 5
	}
	if opts.DeadLetterKey == "" {
		opts.DeadLetterKey = "bookings:notifications:deadletter"
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = models.DefaultCallTimeout * time.Second
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &NotificationWorker{
		sink:   sink,
		redis:  redisClient,
		opts:   opts,
		logger: logger,
		queue:  make(chan models.Notification, opts.QueueSize),
		sleep:  sleepCtx,
	}
}

// Notify enqueues without blocking.
func (w *NotificationWorker) Notify(ctx context.Context, n models.Notification) error {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.stopped {
		return ErrWorkerStopped
	}

	select {
	case w.queue <- n:
		metrics.SetNotificationQueueDepth(len(w.queue))
		return nil
	default:
		return ErrQueueFull
	}
}

// Len returns the number of queued notifications.
func (w *NotificationWorker) Len() int {
	return len(w.queue)
}

// Start processes the queue until ctx is done. It does nothing after Drain.
func (w *NotificationWorker) Start(ctx context.Context) {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.active.Add(1)
	w.mu.Unlock()
	defer w.active.Done()

	w.logger.Info().Int("queue_size", w.opts.QueueSize).Msg("notification worker started")
	defer w.logger.Info().Msg("notification worker stopped")

	for {
		if ctx.Err() != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case n := <-w.queue:
			metrics.SetNotificationQueueDepth(len(w.queue))
			w.process(ctx, n)
		}
	}
}

// Drain refuses new notifications, waits for Start to return (its context must be
// cancelled) and makes one delivery attempt for each queued one.
// Failures go straight to the dead-letter list.
func (w *NotificationWorker) Drain(ctx context.Context) int {
	w.mu.Lock()
	w.stopped = true
	w.mu.Unlock()

	idle := make(chan struct{})
	go func() {
		w.active.Wait()
		close(idle)
	}()
	select {
	case <-idle:
	case <-ctx.Done():
		w.logger.Warn().Err(ctx.Err()).Msg("notification worker still busy, draining anyway")
	}

	drained := 0
	for {
		select {
		case n := <-w.queue:
			drained++
			if err := w.send(ctx, n); err != nil {
				w.deadLetter(ctx, n, 1, err)
			}
		default:
			metrics.SetNotificationQueueDepth(0)
			if drained > 0 {
				w.logger.Info().Int("count", drained).Msg("notification queue drained")
			}
			return drained
		}
	}
}

func (w *NotificationWorker) process(ctx context.Context, n models.Notification) {
	for attempt := 1; ; attempt++ {
		err := w.send(ctx, n)
		if err == nil {
			return
		}

		log := w.logger.Warn().Err(err).
			Str("kind", string(n.Kind)).
			Str("booking_id", n.BookingID).
			Int("attempt", attempt)

		if w.opts.Retry.Exhausted(attempt) {
			log.Msg("notification delivery failed, retries exhausted")
			w.deadLetter(ctx, n, attempt, err)
			return
		}

		delay := w.opts.Retry.NextDelay(attempt)
		log.Dur("retry_in", delay).Msg("notification delivery failed")
		if err := w.sleep(ctx, delay); err != nil {
			// shutting down: keep it for Drain
			w.requeue(ctx, n, attempt, err)
			return
		}
	}
}

func (w *NotificationWorker) send(ctx context.Context, n models.Notification) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.opts.SendTimeout)
	defer cancel()

	err := w.sink.Notify(ctx, n)
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.IncNotification(string(n.Kind), result)
	return err
}

func (w *NotificationWorker) requeue(ctx context.Context, n models.Notification, attempt int, cause error) {
	select {
	case w.queue <- n:
	default:
		w.deadLetter(ctx, n, attempt, cause)
	}
}

func (w *NotificationWorker) deadLetter(ctx context.Context, n models.Notification, attempts int, cause error) {
	metrics.IncNotification(string(n.Kind), "dead_letter")

	entry := DeadLetter{
		Notification: n,
		Attempts:     attempts,
		Error:        cause.Error(),
		FailedAt:     time.Now(),
	}

	if w.redis == nil {
		w.logger.Error().Err(cause).
			Str("kind", string(n.Kind)).
			Str("booking_id", n.BookingID).
			Str("user_id", n.UserID).
			Msg("notification dropped")
		return
	}

	data, err := json.Marshal(entry)
	if err != nil {
		w.logger.Error().Err(err).Str("booking_id", n.BookingID).Msg("encode dead letter")
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.opts.SendTimeout)
	defer cancel()
	if err := w.redis.LPush(ctx, w.opts.DeadLetterKey, data).Err(); err != nil {
		w.logger.Error().Err(err).Str("booking_id", n.BookingID).Msg("dead letter push failed")
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
