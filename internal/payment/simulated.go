package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"bookingd/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrInvalidAmount    = errors.New("payment amount must be positive")
	ErrInvalidMethod    = errors.New("unsupported payment method")
	ErrInvalidPaymentID = errors.New("invalid payment id")
	ErrAlreadyRefunded  = errors.New("payment already refunded")
	ErrPaymentDeclined  = errors.New("payment declined")
)

var supportedMethods = map[string]struct{}{
	"credit_card": {},
	"debit_card":  {},
	"paypal":      {},
	"apple_pay":   {},
	"google_pay":  {},
}

// Simulated is an in-process gateway for development and tests.
// Every valid capture succeeds.
type Simulated struct {
	latency time.Duration
	logger  *zerolog.Logger

	mu       sync.Mutex
	refunded map[string]bool
}

func NewSimulated(latency time.Duration, logger *zerolog.Logger) *Simulated {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Simulated{
		latency:  latency,
		logger:   logger,
		refunded: make(map[string]bool),
	}
}

func (s *Simulated) Capture(ctx context.Context, userID string, amount int64, method string) (string, error) {
	if amount <= 0 {
		return "", fmt.Errorf("%w: %d", ErrInvalidAmount, amount)
	}
	if _, ok := supportedMethods[strings.ToLower(method)]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidMethod, method)
	}
	if err := s.wait(ctx); err != nil {
		return "", err
	}

	paymentID := models.PaymentIDPrefix + uuid.NewString()

	s.mu.Lock()
	s.refunded[paymentID] = false
	s.mu.Unlock()

	s.logger.Info().
		Str("payment_id", paymentID).
		Str("user_id", userID).
		Int64("amount", amount).
		Str("method", method).
		Msg("payment captured")
	return paymentID, nil
}

func (s *Simulated) Refund(ctx context.Context, paymentID string) error {
	if !strings.HasPrefix(paymentID, models.PaymentIDPrefix) {
		return fmt.Errorf("%w: %q", ErrInvalidPaymentID, paymentID)
	}
	if err := s.wait(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// ids from another process are accepted, as long as they are refunded once here
	if s.refunded[paymentID] {
		return fmt.Errorf("%w: %s", ErrAlreadyRefunded, paymentID)
	}
	s.refunded[paymentID] = true

	s.logger.Info().Str("payment_id", paymentID).Msg("payment refunded")
	return nil
}

func (s *Simulated) wait(ctx context.Context) error {
	if s.latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
