package notify

import (
	"context"
	"sync"
	"time"

	"bookingd/internal/domain"
	"bookingd/internal/models"

	"github.com/rs/zerolog"
)

// Failover sends through primary until it fails, then through fallback.
// Primary is retried once per recovery interval.
type Failover struct {
	primary  domain.Notifier
	fallback domain.Notifier
	recovery time.Duration
	now      func() time.Time
	logger   *zerolog.Logger

	mu        sync.Mutex
	isDown    bool
	lastCheck time.Time
}

func NewFailover(primary, fallback domain.Notifier, recovery time.Duration, logger *zerolog.Logger) *Failover {
	if recovery <= 0 {
		recovery = models.FailoverRecoveryInterval * time.Second
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Failover{
		primary:  primary,
		fallback: fallback,
		recovery: recovery,
		now:      time.Now,
		logger:   logger,
	}
}

func (f *Failover) Notify(ctx context.Context, note models.Notification) error {
	if f.usePrimary() {
		err := f.primary.Notify(ctx, note)
		if err == nil {
			f.markUp()
			return nil
		}
		f.markDown(err)
	}
	return f.fallback.Notify(ctx, note)
}

// IsDown reports whether the primary is currently bypassed.
func (f *Failover) IsDown() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.isDown
}

func (f *Failover) usePrimary() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.isDown || f.now().Sub(f.lastCheck) > f.recovery
}

func (f *Failover) markUp() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.isDown {
		f.logger.Info().Msg("primary notifier recovered")
	}
	f.isDown = false
}

func (f *Failover) markDown(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.isDown {
		f.logger.Error().Err(err).Msg("primary notifier failed, falling back")
	}
	f.isDown = true
	f.lastCheck = f.now()
}
