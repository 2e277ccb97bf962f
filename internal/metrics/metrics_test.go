package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	// Register should be safe to call multiple times
	Register()
	Register()

	t.Run("BookingTransitions", func(t *testing.T) {
		before := testutil.ToFloat64(bookingTransitions.WithLabelValues("confirmed"))
		IncBookingTransition("confirmed")
		assert.Equal(t, before+1, testutil.ToFloat64(bookingTransitions.WithLabelValues("confirmed")))
	})

	t.Run("BookingFailures", func(t *testing.T) {
		before := testutil.ToFloat64(bookingFailures.WithLabelValues("confirm", "not_found"))
		IncBookingFailure("confirm", "not_found")
		assert.Equal(t, before+1, testutil.ToFloat64(bookingFailures.WithLabelValues("confirm", "not_found")))
	})

	t.Run("Notifications", func(t *testing.T) {
		before := testutil.ToFloat64(notifications.WithLabelValues("created", "error"))
		IncNotification("created", "error")
		assert.Equal(t, before+1, testutil.ToFloat64(notifications.WithLabelValues("created", "error")))
	})

	t.Run("QueueDepth", func(t *testing.T) {
		SetNotificationQueueDepth(7)
		assert.Equal(t, float64(7), testutil.ToFloat64(notificationQueue))
	})

	t.Run("Payments", func(t *testing.T) {
		okBefore := testutil.ToFloat64(paymentCalls.WithLabelValues("capture", "ok"))
		errBefore := testutil.ToFloat64(paymentCalls.WithLabelValues("capture", "error"))

		ObservePayment("capture", time.Now(), nil)
		ObservePayment("capture", time.Now(), errors.New("declined"))

		assert.Equal(t, okBefore+1, testutil.ToFloat64(paymentCalls.WithLabelValues("capture", "ok")))
		assert.Equal(t, errBefore+1, testutil.ToFloat64(paymentCalls.WithLabelValues("capture", "error")))
	})
}
