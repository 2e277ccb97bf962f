package service

import (
	"context"
	"fmt"
	"strings"

	"bookingd/internal/models"

	"github.com/rs/zerolog"
)

// ItemCatalog is the item registry side of the inventory ledger.
type ItemCatalog interface {
	AddItem(item models.Item)
	SetActive(itemID string, active bool) error
	Items() []models.Item
}

// ItemService manages bookable items. Reservations stay with the catalog.
type ItemService struct {
	catalog ItemCatalog
	logger  *zerolog.Logger
}

func NewItemService(catalog ItemCatalog, logger *zerolog.Logger) *ItemService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &ItemService{catalog: catalog, logger: logger}
}

func (s *ItemService) GetItems(ctx context.Context) []models.Item {
	return s.catalog.Items()
}

func (s *ItemService) GetActiveItems(ctx context.Context) []models.Item {
	items := s.catalog.Items()
	active := make([]models.Item, 0, len(items))
	for _, item := range items {
		if item.IsActive {
			active = append(active, item)
		}
	}
	return active
}

func (s *ItemService) GetItemByID(ctx context.Context, id string) (*models.Item, error) {
	for _, item := range s.catalog.Items() {
		if item.ID == id {
			return &item, nil
		}
	}
	return nil, fmt.Errorf("item not found: %s", id)
}

// CreateItem registers a new item or updates the name and flag of a known one.
func (s *ItemService) CreateItem(ctx context.Context, item models.Item) error {
	item.ID = strings.TrimSpace(item.ID)
	if item.ID == "" {
		return fmt.Errorf("item id is required")
	}
	s.catalog.AddItem(item)
	s.logger.Info().Str("item_id", item.ID).Str("name", item.Name).Bool("active", item.IsActive).Msg("item registered")
	return nil
}

func (s *ItemService) ActivateItem(ctx context.Context, id string) error {
	return s.catalog.SetActive(id, true)
}

// DeactivateItem stops new reservations on the item. Existing ones are kept.
func (s *ItemService) DeactivateItem(ctx context.Context, id string) error {
	return s.catalog.SetActive(id, false)
}
