// Package inventory implements stock keeping over the inventory slice of the
// shared state. Every function expects to run inside the command loop.
package inventory

import (
	"sort"
	"strings"
	"time"

	"github.com/mamadbah2/restopos/internal/domain/models"
	"github.com/mamadbah2/restopos/internal/service/audit"
	"github.com/mamadbah2/restopos/internal/service/pricing"
	"github.com/mamadbah2/restopos/pkg/id"
)

// CreateInput describes a new stock item.
type CreateInput struct {
	SKU          string  `json:"sku" validate:"required,max=64"`
	Name         string  `json:"name" validate:"required,max=128"`
	Unit         string  `json:"unit" validate:"max=16"`
	Quantity     float64 `json:"quantity" validate:"gte=0"`
	ReorderLevel float64 `json:"reorderLevel" validate:"gte=0"`
	CostPrice    float64 `json:"costPrice" validate:"gte=0"`
}

// UpdateInput changes a stock item. Nil fields are left untouched.
type UpdateInput struct {
	ID           string   `json:"id" validate:"required"`
	SKU          *string  `json:"sku" validate:"omitempty,min=1,max=64"`
	Name         *string  `json:"name" validate:"omitempty,min=1,max=128"`
	Unit         *string  `json:"unit" validate:"omitempty,max=16"`
	Quantity     *float64 `json:"quantity" validate:"omitempty,gte=0"`
	ReorderLevel *float64 `json:"reorderLevel" validate:"omitempty,gte=0"`
	CostPrice    *float64 `json:"costPrice" validate:"omitempty,gte=0"`
	Reason       string   `json:"reason" validate:"max=256"`
}

// Summary is the inventory:metrics view.
type Summary struct {
	Items      int     `json:"items"`
	Archived   int     `json:"archived"`
	LowStock   int     `json:"lowStock"`
	OutOfStock int     `json:"outOfStock"`
	StockValue float64 `json:"stockValue"`
}

// Service performs inventory operations.
type Service struct {
	logLimit int
}

// NewService returns an inventory service with the default log cap.
func NewService() *Service {
	return &Service{logLimit: models.MaxInventoryLogs}
}

// Create adds a stock item. SKUs are unique case-insensitively.
func (s *Service) Create(state *models.State, actor models.Actor, now time.Time, in CreateInput) (models.InventoryItem, error) {
	sku := strings.TrimSpace(in.SKU)
	name := strings.TrimSpace(in.Name)
	if sku == "" || name == "" {
		return models.InventoryItem{}, models.Invalid("sku and name are required")
	}
	if state.InventoryBySKU(sku) >= 0 {
		return models.InventoryItem{}, models.Invalid("sku %s already exists", sku)
	}

	item := models.InventoryItem{
		ID:           id.New("inv", now),
		SKU:          sku,
		Name:         name,
		Unit:         strings.TrimSpace(in.Unit),
		Quantity:     in.Quantity,
		ReorderLevel: in.ReorderLevel,
		CostPrice:    in.CostPrice,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	state.Inventory = append(state.Inventory, item)
	s.log(state, item, in.Quantity, "created", actor, now)
	return item, nil
}

// Update changes a stock item and logs quantity movements.
func (s *Service) Update(state *models.State, actor models.Actor, now time.Time, in UpdateInput) (models.InventoryItem, error) {
	idx := state.InventoryIndex(in.ID)
	if idx < 0 {
		return models.InventoryItem{}, models.NotFound("inventory item", in.ID)
	}
	sku, name := trimmed(in.SKU), trimmed(in.Name)
	if (sku != nil && *sku == "") || (name != nil && *name == "") {
		return models.InventoryItem{}, models.Invalid("sku and name must not be blank")
	}
	if sku != nil {
		if other := state.InventoryBySKU(*sku); other >= 0 && other != idx {
			return models.InventoryItem{}, models.Invalid("sku %s already exists", *sku)
		}
	}

	item := &state.Inventory[idx]
	if sku != nil {
		item.SKU = *sku
	}
	if name != nil {
		item.Name = *name
	}
	if in.Unit != nil {
		item.Unit = strings.TrimSpace(*in.Unit)
	}
	if in.ReorderLevel != nil {
		item.ReorderLevel = *in.ReorderLevel
	}
	if in.CostPrice != nil {
		item.CostPrice = *in.CostPrice
	}
	if in.Quantity != nil && *in.Quantity != item.Quantity {
		change := pricing.Sub(*in.Quantity, item.Quantity)
		item.Quantity = *in.Quantity
		reason := in.Reason
		if reason == "" {
			reason = "adjusted"
		}
		s.log(state, *item, change, reason, actor, now)
	}
	item.UpdatedAt = now
	return *item, nil
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}

// Delete removes a stock item; its movement log is kept.
func (s *Service) Delete(state *models.State, itemID string) (models.InventoryItem, error) {
	idx := state.InventoryIndex(itemID)
	if idx < 0 {
		return models.InventoryItem{}, models.NotFound("inventory item", itemID)
	}
	item := state.Inventory[idx]
	state.Inventory = append(state.Inventory[:idx], state.Inventory[idx+1:]...)
	return item, nil
}

// Archive hides or restores a stock item.
func (s *Service) Archive(state *models.State, itemID string, archived bool, now time.Time) (models.InventoryItem, error) {
	idx := state.InventoryIndex(itemID)
	if idx < 0 {
		return models.InventoryItem{}, models.NotFound("inventory item", itemID)
	}
	item := &state.Inventory[idx]
	item.Archived = archived
	item.UpdatedAt = now
	return *item, nil
}

// Search matches query against sku and name, case-insensitively.
func (s *Service) Search(state *models.State, query string, includeArchived bool) []models.InventoryItem {
	q := strings.ToLower(strings.TrimSpace(query))
	out := []models.InventoryItem{}
	for _, item := range state.Inventory {
		if item.Archived && !includeArchived {
			continue
		}
		if q == "" || strings.Contains(strings.ToLower(item.SKU), q) || strings.Contains(strings.ToLower(item.Name), q) {
			out = append(out, item)
		}
	}
	sortByName(out)
	return out
}

// LowStock lists active items at or below their reorder level but not empty.
func (s *Service) LowStock(state *models.State) []models.InventoryItem {
	out := []models.InventoryItem{}
	for _, item := range state.Inventory {
		if !item.Archived && item.Quantity > 0 && item.Quantity <= item.ReorderLevel {
			out = append(out, item)
		}
	}
	sortByName(out)
	return out
}

// OutOfStock lists active items with nothing left.
func (s *Service) OutOfStock(state *models.State) []models.InventoryItem {
	out := []models.InventoryItem{}
	for _, item := range state.Inventory {
		if !item.Archived && item.Quantity <= 0 {
			out = append(out, item)
		}
	}
	sortByName(out)
	return out
}

// Metrics summarizes stock levels and value.
func (s *Service) Metrics(state *models.State) Summary {
	var sum Summary
	for _, item := range state.Inventory {
		if item.Archived {
			sum.Archived++
			continue
		}
		sum.Items++
		switch {
		case item.Quantity <= 0:
			sum.OutOfStock++
		case item.Quantity <= item.ReorderLevel:
			sum.LowStock++
		}
		sum.StockValue = pricing.Add(sum.StockValue, item.Quantity*item.CostPrice)
	}
	return sum
}

// Logs returns movements, newest first, optionally for one item.
func (s *Service) Logs(state *models.State, itemID string, limit int) []models.InventoryLog {
	out := []models.InventoryLog{}
	for _, entry := range state.InventoryLogs {
		if itemID != "" && entry.ItemID != itemID {
			continue
		}
		out = append(out, entry)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func (s *Service) log(state *models.State, item models.InventoryItem, change float64, reason string, actor models.Actor, now time.Time) {
	entry := models.InventoryLog{
		ID:        id.New("ilg", now),
		ItemID:    item.ID,
		SKU:       item.SKU,
		Change:    change,
		Quantity:  item.Quantity,
		Reason:    reason,
		Actor:     actor.String(),
		Timestamp: now,
	}
	state.InventoryLogs = audit.Prepend(state.InventoryLogs, entry, s.logLimit)
}

func sortByName(items []models.InventoryItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
	})
}
