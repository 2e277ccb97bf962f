package models

import "time"

type Booking struct {
	ID         string        `json:"id"`
	UserID     string        `json:"user_id"`
	ItemID     string        `json:"item_id"`
	StartDate  time.Time     `json:"start_date"`
	EndDate    time.Time     `json:"end_date"`
	TotalPrice int64         `json:"total_price"` // minor currency units
	Status     BookingStatus `json:"status"`      // pending, confirmed, cancelled, completed
	PaymentID  string        `json:"payment_id,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// Interval returns the half-open range the booking holds its item for.
func (b *Booking) Interval() Interval {
	return Interval{Start: b.StartDate, End: b.EndDate}
}
