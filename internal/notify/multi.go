package notify

import (
	"context"
	"errors"

	"bookingd/internal/domain"
	"bookingd/internal/models"
)

// Multi delivers to every sink. One failing sink does not stop the others.
type Multi []domain.Notifier

func (m Multi) Notify(ctx context.Context, note models.Notification) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, note); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var (
	_ domain.Notifier = Multi(nil)
	_ domain.Notifier = (*LogNotifier)(nil)
	_ domain.Notifier = (*EventBusNotifier)(nil)
	_ domain.Notifier = (*RedisNotifier)(nil)
	_ domain.Notifier = (*TelegramNotifier)(nil)
	_ domain.Notifier = (*Failover)(nil)
	_ domain.Notifier = (*Throttled)(nil)
)
