package payment

import (
	"context"
	"time"

	"bookingd/internal/domain"
	"bookingd/internal/metrics"
)

var (
	_ domain.PaymentGateway = (*Simulated)(nil)
	_ domain.PaymentGateway = (*Stripe)(nil)
	_ domain.PaymentGateway = (*Instrumented)(nil)
)

// Instrumented records call counts and latency of the wrapped gateway.
type Instrumented struct {
	next domain.PaymentGateway
}

func NewInstrumented(next domain.PaymentGateway) *Instrumented {
	return &Instrumented{next: next}
}

func (i *Instrumented) Capture(ctx context.Context, userID string, amount int64, method string) (string, error) {
	started := time.Now()
	paymentID, err := i.next.Capture(ctx, userID, amount, method)
	metrics.ObservePayment("capture", started, err)
	return paymentID, err
}

func (i *Instrumented) Refund(ctx context.Context, paymentID string) error {
	started := time.Now()
	err := i.next.Refund(ctx, paymentID)
	metrics.ObservePayment("refund", started, err)
	return err
}
