package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestBookingStatus_Transitions(t *testing.T) {
	t.Run("Pending", func(t *testing.T) {
		assert.True(t, StatusPending.CanTransitionTo(StatusConfirmed))
		assert.True(t, StatusPending.CanTransitionTo(StatusCancelled))
		assert.False(t, StatusPending.CanTransitionTo(StatusCompleted))
		assert.False(t, StatusPending.CanTransitionTo(StatusPending))
	})

	t.Run("Confirmed", func(t *testing.T) {
		assert.True(t, StatusConfirmed.CanTransitionTo(StatusCompleted))
		assert.True(t, StatusConfirmed.CanTransitionTo(StatusCancelled))
		assert.False(t, StatusConfirmed.CanTransitionTo(StatusPending))
		assert.False(t, StatusConfirmed.CanTransitionTo(StatusConfirmed))
	})

	t.Run("Terminal", func(t *testing.T) {
		for _, s := range []BookingStatus{StatusCancelled, StatusCompleted} {
			assert.True(t, s.IsTerminal())
			assert.False(t, s.IsActive())
			for _, next := range []BookingStatus{StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted} {
				assert.False(t, s.CanTransitionTo(next), "%s -> %s", s, next)
			}
		}
	})

	t.Run("Active", func(t *testing.T) {
		assert.True(t, StatusPending.IsActive())
		assert.True(t, StatusConfirmed.IsActive())
		assert.False(t, StatusPending.IsTerminal())
	})
}

func TestInterval(t *testing.T) {
	tests := []struct {
		name    string
		a, b    Interval
		overlap bool
	}{
		{"Overlapping", Interval{day("2023-05-03"), day("2023-05-07")}, Interval{day("2023-05-01"), day("2023-05-04")}, true},
		{"Disjoint", Interval{day("2023-05-10"), day("2023-05-15")}, Interval{day("2023-05-01"), day("2023-05-05")}, false},
		{"Touching", Interval{day("2023-08-10"), day("2023-08-15")}, Interval{day("2023-08-15"), day("2023-08-20")}, false},
		{"Contained", Interval{day("2023-01-01"), day("2023-01-31")}, Interval{day("2023-01-10"), day("2023-01-11")}, true},
		{"Identical", Interval{day("2023-01-01"), day("2023-01-05")}, Interval{day("2023-01-01"), day("2023-01-05")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.overlap, tt.a.Overlaps(tt.b))
			assert.Equal(t, tt.overlap, tt.b.Overlaps(tt.a))
		})
	}

	t.Run("EqualIgnoresLocation", func(t *testing.T) {
		utc := Interval{day("2023-01-01"), day("2023-01-05")}
		loc := time.FixedZone("UTC+3", 3*60*60)
		shifted := Interval{utc.Start.In(loc), utc.End.In(loc)}
		assert.True(t, utc.Equal(shifted))
		assert.False(t, utc.Equal(Interval{utc.Start, utc.End.Add(time.Second)}))
	})

	t.Run("Valid", func(t *testing.T) {
		assert.True(t, Interval{day("2023-01-01"), day("2023-01-02")}.Valid())
		assert.False(t, Interval{day("2023-01-02"), day("2023-01-02")}.Valid())
		assert.False(t, Interval{day("2023-01-03"), day("2023-01-02")}.Valid())
	})

	t.Run("BookingInterval", func(t *testing.T) {
		b := &Booking{StartDate: day("2023-01-01"), EndDate: day("2023-01-05")}
		assert.True(t, b.Interval().Equal(Interval{day("2023-01-01"), day("2023-01-05")}))
	})
}
