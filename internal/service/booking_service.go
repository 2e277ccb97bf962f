package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"bookingd/internal/domain"
	"bookingd/internal/metrics"
	"bookingd/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	opCreate   = "create"
	opConfirm  = "confirm"
	opCancel   = "cancel"
	opComplete = "complete"
)

var _ domain.BookingService = (*BookingService)(nil)

type Options struct {
	// CallTimeout bounds every call to inventory, payment and notifier.
	CallTimeout time.Duration
	// Clock defaults to time.Now.
	Clock func() time.Time
	// CompensateFailedReserve refunds the capture when the reservation that follows it fails.
	CompensateFailedReserve bool
}

// BookingService owns booking records and drives them through their lifecycle:
// pending -> confirmed -> completed, with cancellation allowed from pending or confirmed.
type BookingService struct {
	inventory domain.Inventory
	payments  domain.PaymentGateway
	notifier  domain.Notifier
	opts      Options
	logger    *zerolog.Logger

	mu       sync.RWMutex
	bookings map[string]*models.Booking
	order    []string

	// per-booking mutexes serialize transitions without holding mu across external calls
	locks sync.Map
}

func NewBookingService(inventory domain.Inventory, payments domain.PaymentGateway, notifier domain.Notifier, opts Options, logger *zerolog.Logger) *BookingService {
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = models.DefaultCallTimeout * time.Second
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &BookingService{
		inventory: inventory,
		payments:  payments,
		notifier:  notifier,
		opts:      opts,
		logger:    logger,
		bookings:  make(map[string]*models.Booking),
	}
}

func (s *BookingService) CreateBooking(ctx context.Context, userID, itemID string, start, end time.Time, totalPrice int64) (*models.Booking, error) {
	if !start.Before(end) {
		return nil, s.fail(opCreate, "", ErrInvalidDateRange)
	}
	if totalPrice <= 0 {
		return nil, s.fail(opCreate, "", ErrInvalidPrice)
	}

	// Advisory only: the slot is claimed at confirmation.
	available, err := s.checkAvailability(ctx, itemID, start, end)
	if err != nil {
		return nil, s.fail(opCreate, "", err)
	}
	if !available {
		return nil, s.fail(opCreate, "", ErrItemUnavailable)
	}

	now := s.opts.Clock()
	booking := &models.Booking{
		ID:         uuid.NewString(),
		UserID:     userID,
		ItemID:     itemID,
		StartDate:  start,
		EndDate:    end,
		TotalPrice: totalPrice,
		Status:     models.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	s.mu.Lock()
	s.locks.Store(booking.ID, &sync.Mutex{})
	s.bookings[booking.ID] = booking
	s.order = append(s.order, booking.ID)
	snapshot := *booking
	s.mu.Unlock()

	s.logger.Info().
		Str("booking_id", snapshot.ID).
		Str("user_id", userID).
		Str("item_id", itemID).
		Time("start", start).
		Time("end", end).
		Int64("total_price", totalPrice).
		Msg("booking created")
	metrics.IncBookingTransition(string(models.StatusPending))

	s.notify(ctx, models.NotificationCreated, &snapshot)
	return &snapshot, nil
}

func (s *BookingService) ConfirmBooking(ctx context.Context, bookingID, paymentMethod string) (*models.Booking, error) {
	unlock, ok := s.lockBooking(bookingID)
	if !ok {
		return nil, s.fail(opConfirm, bookingID, ErrNotFound)
	}
	defer unlock()

	booking, _ := s.lookup(bookingID)
	if !booking.Status.CanTransitionTo(models.StatusConfirmed) {
		return nil, s.fail(opConfirm, bookingID, &TransitionError{BookingID: bookingID, From: booking.Status, Action: "confirmed"})
	}

	paymentID, err := s.capture(ctx, booking.UserID, booking.TotalPrice, paymentMethod)
	if err != nil {
		return nil, s.fail(opConfirm, bookingID, err)
	}

	if err := s.reserve(ctx, booking.ItemID, booking.StartDate, booking.EndDate); err != nil {
		if s.opts.CompensateFailedReserve {
			err = s.compensate(ctx, booking, paymentID, err)
		} else {
			s.logger.Warn().
				Str("booking_id", bookingID).
				Str("payment_id", paymentID).
				Msg("reservation failed after capture, charge left in place")
		}
		return nil, s.fail(opConfirm, bookingID, err)
	}

	snapshot := s.transition(booking, models.StatusConfirmed, func(b *models.Booking) {
		b.PaymentID = paymentID
	})

	s.logger.Info().Str("booking_id", bookingID).Str("payment_id", paymentID).Msg("booking confirmed")
	s.notify(ctx, models.NotificationConfirmed, &snapshot)
	return &snapshot, nil
}

func (s *BookingService) CancelBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	unlock, ok := s.lockBooking(bookingID)
	if !ok {
		return nil, s.fail(opCancel, bookingID, ErrNotFound)
	}
	defer unlock()

	booking, _ := s.lookup(bookingID)
	if !booking.Status.CanTransitionTo(models.StatusCancelled) {
		return nil, s.fail(opCancel, bookingID, &TransitionError{BookingID: bookingID, From: booking.Status, Action: "cancelled"})
	}

	if booking.Status == models.StatusConfirmed {
		if err := s.refund(ctx, booking.PaymentID); err != nil {
			return nil, s.fail(opCancel, bookingID, err)
		}
		if err := s.release(ctx, booking.ItemID, booking.StartDate, booking.EndDate); err != nil {
			s.logger.Error().Err(err).
				Str("booking_id", bookingID).
				Str("item_id", booking.ItemID).
				Msg("refund issued but release failed")
			return nil, s.fail(opCancel, bookingID, err)
		}
	}

	snapshot := s.transition(booking, models.StatusCancelled, nil)

	s.logger.Info().Str("booking_id", bookingID).Msg("booking cancelled")
	s.notify(ctx, models.NotificationCancelled, &snapshot)
	return &snapshot, nil
}

func (s *BookingService) CompleteBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	unlock, ok := s.lockBooking(bookingID)
	if !ok {
		return nil, s.fail(opComplete, bookingID, ErrNotFound)
	}
	defer unlock()

	booking, _ := s.lookup(bookingID)
	if !booking.Status.CanTransitionTo(models.StatusCompleted) {
		return nil, s.fail(opComplete, bookingID, &TransitionError{BookingID: bookingID, From: booking.Status, Action: "completed"})
	}
	if s.opts.Clock().Before(booking.EndDate) {
		return nil, s.fail(opComplete, bookingID, ErrTooEarly)
	}

	snapshot := s.transition(booking, models.StatusCompleted, nil)

	s.logger.Info().Str("booking_id", bookingID).Msg("booking completed")
	s.notify(ctx, models.NotificationCompleted, &snapshot)
	return &snapshot, nil
}

func (s *BookingService) GetBooking(id string) (*models.Booking, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	booking, ok := s.bookings[id]
	if !ok {
		return nil, false
	}
	snapshot := *booking
	return &snapshot, true
}

func (s *BookingService) GetBookingsByUser(userID string) []models.Booking {
	return s.filter(func(b *models.Booking) bool { return b.UserID == userID })
}

func (s *BookingService) GetBookingsByItem(itemID string) []models.Booking {
	return s.filter(func(b *models.Booking) bool { return b.ItemID == itemID })
}

func (s *BookingService) GetActiveBookingsByItem(itemID string) []models.Booking {
	return s.filter(func(b *models.Booking) bool { return b.ItemID == itemID && b.Status.IsActive() })
}

// AllBookings returns every booking in creation order.
func (s *BookingService) AllBookings() []models.Booking {
	return s.filter(func(*models.Booking) bool { return true })
}

func (s *BookingService) filter(keep func(*models.Booking) bool) []models.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []models.Booking{}
	for _, id := range s.order {
		if b := s.bookings[id]; keep(b) {
			result = append(result, *b)
		}
	}
	return result
}

func (s *BookingService) lookup(id string) (*models.Booking, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	return b, ok
}

// lockBooking takes the booking's mutex. Locks exist only for stored bookings.
func (s *BookingService) lockBooking(id string) (func(), bool) {
	v, ok := s.locks.Load(id)
	if !ok {
		return nil, false
	}
	m := v.(*sync.Mutex)
	m.Lock()
	return m.Unlock, true
}

// transition applies the status change under the write lock and returns a copy.
func (s *BookingService) transition(booking *models.Booking, status models.BookingStatus, mutate func(*models.Booking)) models.Booking {
	s.mu.Lock()
	booking.Status = status
	if mutate != nil {
		mutate(booking)
	}
	booking.UpdatedAt = s.opts.Clock()
	snapshot := *booking
	s.mu.Unlock()

	metrics.IncBookingTransition(string(status))
	return snapshot
}

func (s *BookingService) compensate(ctx context.Context, booking *models.Booking, paymentID string, cause error) error {
	if err := s.refund(ctx, paymentID); err != nil {
		s.logger.Error().Err(err).
			Str("booking_id", booking.ID).
			Str("payment_id", paymentID).
			Msg("compensating refund failed")
		return errors.Join(cause, err)
	}
	s.logger.Warn().Err(cause).
		Str("booking_id", booking.ID).
		Str("payment_id", paymentID).
		Msg("reservation failed after capture, charge refunded")
	return cause
}

func (s *BookingService) fail(op, bookingID string, err error) error {
	metrics.IncBookingFailure(op, reason(err))
	s.logger.Debug().Err(err).Str("op", op).Str("booking_id", bookingID).Msg("booking operation rejected")
	return err
}

func (s *BookingService) checkAvailability(ctx context.Context, itemID string, start, end time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.CallTimeout)
	defer cancel()
	return s.inventory.CheckAvailability(ctx, itemID, start, end)
}

func (s *BookingService) reserve(ctx context.Context, itemID string, start, end time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, s.opts.CallTimeout)
	defer cancel()
	return s.inventory.Reserve(ctx, itemID, start, end)
}

func (s *BookingService) release(ctx context.Context, itemID string, start, end time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, s.opts.CallTimeout)
	defer cancel()
	return s.inventory.Release(ctx, itemID, start, end)
}

func (s *BookingService) capture(ctx context.Context, userID string, amount int64, method string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.CallTimeout)
	defer cancel()
	return s.payments.Capture(ctx, userID, amount, method)
}

func (s *BookingService) refund(ctx context.Context, paymentID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.opts.CallTimeout)
	defer cancel()
	return s.payments.Refund(ctx, paymentID)
}

// notify is best effort: failures are logged and counted, never returned.
func (s *BookingService) notify(ctx context.Context, kind models.NotificationKind, booking *models.Booking) {
	if s.notifier == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.CallTimeout)
	defer cancel()

	n := models.Notification{
		Kind:      kind,
		UserID:    booking.UserID,
		BookingID: booking.ID,
		CreatedAt: s.opts.Clock(),
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		metrics.IncNotification(string(kind), "error")
		s.logger.Warn().Err(err).
			Str("kind", string(kind)).
			Str("booking_id", booking.ID).
			Str("user_id", booking.UserID).
			Msg("notification failed")
		return
	}
	metrics.IncNotification(string(kind), "ok")
}
