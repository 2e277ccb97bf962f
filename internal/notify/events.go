package notify

import (
	"context"

	"bookingd/internal/domain"
	"bookingd/internal/events"
	"bookingd/internal/models"
)

var _ domain.EventPublisher = (*events.EventBus)(nil)

// EventBusNotifier republishes notifications as booking_* events.
type EventBusNotifier struct {
	publisher domain.EventPublisher
}

func NewEventBusNotifier(publisher domain.EventPublisher) *EventBusNotifier {
	return &EventBusNotifier{publisher: publisher}
}

func (n *EventBusNotifier) Notify(ctx context.Context, note models.Notification) error {
	eventType, err := events.TypeFor(note.Kind)
	if err != nil {
		return err
	}
	return n.publisher.PublishJSON(eventType, events.BookingEventPayload{
		BookingID:  note.BookingID,
		UserID:     note.UserID,
		Kind:       string(note.Kind),
		OccurredAt: note.CreatedAt,
	})
}
