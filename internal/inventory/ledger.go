package inventory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"bookingd/internal/domain"
	"bookingd/internal/models"

	"github.com/rs/zerolog"
)

var (
	ErrUnavailable         = errors.New("item is not available for the selected dates")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrItemNotFound        = errors.New("item not found")
	ErrInvalidInterval     = errors.New("interval start must be before its end")
)

var _ domain.Inventory = (*Ledger)(nil)

type ledgerItem struct {
	item         models.Item
	reservations []models.Interval
}

// Ledger tracks bookable items and the intervals reserved on each of them.
// Stored intervals of one item never overlap.
type Ledger struct {
	mu     sync.RWMutex
	items  map[string]*ledgerItem
	order  []string
	logger *zerolog.Logger
}

func NewLedger(items []models.Item, logger *zerolog.Logger) *Ledger {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := &Ledger{
		items:  make(map[string]*ledgerItem, len(items)),
		logger: logger,
	}
	for _, item := range items {
		l.AddItem(item)
	}
	return l
}

// AddItem registers an item. Re-adding a known id updates its name and flag
// and keeps existing reservations.
func (l *Ledger) AddItem(item models.Item) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if existing, ok := l.items[item.ID]; ok {
		existing.item = item
		return
	}
	l.items[item.ID] = &ledgerItem{item: item}
	l.order = append(l.order, item.ID)
}

func (l *Ledger) SetActive(itemID string, active bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.items[itemID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}
	entry.item.IsActive = active
	l.logger.Info().Str("item_id", itemID).Bool("active", active).Msg("item activity changed")
	return nil
}

// Items returns registered items in registration order.
func (l *Ledger) Items() []models.Item {
	l.mu.RLock()
	defer l.mu.RUnlock()

	items := make([]models.Item, 0, len(l.order))
	for _, id := range l.order {
		items = append(items, l.items[id].item)
	}
	return items
}

// Reservations returns a copy of the intervals held on an item, in insertion order.
func (l *Ledger) Reservations(itemID string) []models.Interval {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entry, ok := l.items[itemID]
	if !ok {
		return nil
	}
	return append([]models.Interval(nil), entry.reservations...)
}

func (l *Ledger) CheckAvailability(ctx context.Context, itemID string, start, end time.Time) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.availableLocked(itemID, start, end), nil
}

func (l *Ledger) availableLocked(itemID string, start, end time.Time) bool {
	entry, ok := l.items[itemID]
	if !ok || !entry.item.IsActive {
		return false
	}
	for _, r := range entry.reservations {
		if Overlaps(start, end, r.Start, r.End) {
			return false
		}
	}
	return true
}

// Reserve claims [start, end) on the item. Availability is re-checked under
// the write lock, so concurrent callers for overlapping ranges admit exactly one.
func (l *Ledger) Reserve(ctx context.Context, itemID string, start, end time.Time) error {
	if !(models.Interval{Start: start, End: end}).Valid() {
		return fmt.Errorf("%w: [%s, %s)", ErrInvalidInterval, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.availableLocked(itemID, start, end) {
		return ErrUnavailable
	}

	entry := l.items[itemID]
	entry.reservations = append(entry.reservations, models.Interval{Start: start, End: end})

	l.logger.Debug().
		Str("item_id", itemID).
		Time("start", start).
		Time("end", end).
		Int("reservations", len(entry.reservations)).
		Msg("interval reserved")
	return nil
}

// Release drops the first reservation whose bounds equal [start, end) exactly.
func (l *Ledger) Release(ctx context.Context, itemID string, start, end time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.items[itemID]
	if !ok {
		return ErrReservationNotFound
	}

	target := models.Interval{Start: start, End: end}
	for i, r := range entry.reservations {
		if r.Equal(target) {
			entry.reservations = append(entry.reservations[:i], entry.reservations[i+1:]...)
			l.logger.Debug().Str("item_id", itemID).Time("start", start).Time("end", end).Msg("interval released")
			return nil
		}
	}
	return ErrReservationNotFound
}
