package domain

import (
	"context"
	"time"

	"bookingd/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Inventory answers availability and holds reservations for items.
type Inventory interface {
	CheckAvailability(ctx context.Context, itemID string, start, end time.Time) (bool, error)
	Reserve(ctx context.Context, itemID string, start, end time.Time) error
	Release(ctx context.Context, itemID string, start, end time.Time) error
}

// PaymentGateway charges and refunds users. Capture returns the payment identifier.
type PaymentGateway interface {
	Capture(ctx context.Context, userID string, amount int64, method string) (string, error)
	Refund(ctx context.Context, paymentID string) error
}

// Notifier delivers lifecycle notifications. A nil error means delivered (or accepted for delivery).
type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type BookingService interface {
	CreateBooking(ctx context.Context, userID, itemID string, start, end time.Time, totalPrice int64) (*models.Booking, error)
	ConfirmBooking(ctx context.Context, bookingID, paymentMethod string) (*models.Booking, error)
	CancelBooking(ctx context.Context, bookingID string) (*models.Booking, error)
	CompleteBooking(ctx context.Context, bookingID string) (*models.Booking, error)
	GetBooking(id string) (*models.Booking, bool)
	GetBookingsByUser(userID string) []models.Booking
	GetBookingsByItem(itemID string) []models.Booking
	GetActiveBookingsByItem(itemID string) []models.Booking
}
