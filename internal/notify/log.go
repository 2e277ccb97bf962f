package notify

import (
	"context"

	"bookingd/internal/models"

	"github.com/rs/zerolog"
)

var messages = map[models.NotificationKind]string{
	models.NotificationCreated:   "Booking created, awaiting confirmation",
	models.NotificationConfirmed: "Booking confirmed",
	models.NotificationCancelled: "Booking cancelled",
	models.NotificationCompleted: "Booking completed, thank you for staying with us",
}

// Message returns the user-facing text for a notification kind.
func Message(kind models.NotificationKind) string {
	if msg, ok := messages[kind]; ok {
		return msg
	}
	return "Booking updated"
}

// LogNotifier writes notifications to the log. It never fails.
type LogNotifier struct {
	logger *zerolog.Logger
}

func NewLogNotifier(logger *zerolog.Logger) *LogNotifier {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, note models.Notification) error {
	n.logger.Info().
		Str("kind", string(note.Kind)).
		Str("user_id", note.UserID).
		Str("booking_id", note.BookingID).
		Msg(Message(note.Kind))
	return nil
}
