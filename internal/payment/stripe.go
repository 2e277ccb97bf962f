package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// Stripe captures payments as confirmed PaymentIntents. The method passed to
// Capture is a Stripe PaymentMethod id.
type Stripe struct {
	api      *client.API
	currency string
	logger   *zerolog.Logger
}

type StripeOptions struct {
	SecretKey string
	Currency  string
	// BaseURL overrides the API endpoint, e.g. for stripe-mock.
	BaseURL string
}

func NewStripe(opts StripeOptions, logger *zerolog.Logger) *Stripe {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	cfg := &stripe.BackendConfig{
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	}
	if opts.BaseURL != "" {
		cfg.URL = stripe.String(opts.BaseURL)
	}
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, cfg)

	api := client.New(opts.SecretKey, &stripe.Backends{
		API:     backend,
		Connect: backend,
		Uploads: backend,
	})

	currency := opts.Currency
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}
	return &Stripe{api: api, currency: currency, logger: logger}
}

func (s *Stripe) Capture(ctx context.Context, userID string, amount int64, method string) (string, error) {
	if amount <= 0 {
		return "", fmt.Errorf("%w: %d", ErrInvalidAmount, amount)
	}

	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(amount),
		Currency:      stripe.String(s.currency),
		PaymentMethod: stripe.String(method),
		Confirm:       stripe.Bool(true),
	}
	params.Context = ctx
	params.AddMetadata("user_id", userID)

	intent, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return "", declined(err)
	}
	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		return "", fmt.Errorf("%w: payment intent %s is %s", ErrPaymentDeclined, intent.ID, intent.Status)
	}

	s.logger.Info().
		Str("payment_id", intent.ID).
		Str("user_id", userID).
		Int64("amount", amount).
		Msg("payment intent succeeded")
	return intent.ID, nil
}

func (s *Stripe) Refund(ctx context.Context, paymentID string) error {
	if paymentID == "" {
		return ErrInvalidPaymentID
	}

	params := &stripe.RefundParams{PaymentIntent: stripe.String(paymentID)}
	params.Context = ctx

	refund, err := s.api.Refunds.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodeChargeAlreadyRefunded {
			return fmt.Errorf("%w: %s", ErrAlreadyRefunded, paymentID)
		}
		return fmt.Errorf("stripe refund %s: %w", paymentID, err)
	}

	s.logger.Info().Str("payment_id", paymentID).Str("refund_id", refund.ID).Str("status", string(refund.Status)).Msg("payment refunded")
	return nil
}

// declined wraps card errors with ErrPaymentDeclined and keeps the rest as is.
func declined(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
		return fmt.Errorf("%w: %s", ErrPaymentDeclined, stripeErr.Msg)
	}
	return fmt.Errorf("stripe capture: %w", err)
}
