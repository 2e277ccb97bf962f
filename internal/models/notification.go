package models

import "time"

type NotificationKind string

const (
	NotificationCreated   NotificationKind = "created"
	NotificationConfirmed NotificationKind = "confirmed"
	NotificationCancelled NotificationKind = "cancelled"
	NotificationCompleted NotificationKind = "completed"
)

// Notification describes a single lifecycle event addressed to a user.
type Notification struct {
	Kind      NotificationKind `json:"kind"`
	UserID    string           `json:"user_id"`
	BookingID string           `json:"booking_id"`
	CreatedAt time.Time        `json:"created_at"`
}
