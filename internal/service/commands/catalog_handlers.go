package commands

import (
	"strings"

	"github.com/mamadbah2/restopos/internal/domain/models"
	"github.com/mamadbah2/restopos/pkg/id"
)

func (s *Service) updateSettings(c *call, p settingsUpdate) (any, error) {
	settings := &c.state.Settings
	if p.TaxPercent != nil {
		settings.TaxPercent = *p.TaxPercent
	}
	if p.ServiceChargePercent != nil {
		settings.ServiceChargePercent = *p.ServiceChargePercent
	}
	if p.Currency != nil {
		settings.Currency = strings.ToUpper(*p.Currency)
	}
	if p.RestaurantName != nil {
		settings.RestaurantName = strings.TrimSpace(*p.RestaurantName)
	}
	return *settings, nil
}

func (s *Service) createCategory(c *call, p categoryCreate) (any, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return nil, models.Invalid("category name is required")
	}
	if categoryNameTaken(c.state, name, "") {
		return nil, models.Invalid("category %s already exists", name)
	}

	cat := models.Category{
		ID:        id.New("cat", c.now),
		Name:      name,
		SortOrder: len(c.state.Categories),
		CreatedAt: c.now,
	}
	if p.SortOrder != nil {
		cat.SortOrder = *p.SortOrder
	}
	c.state.Categories = append(c.state.Categories, cat)
	return cat, nil
}

func (s *Service) updateCategory(c *call, p categoryUpdate) (any, error) {
	idx := c.state.CategoryIndex(p.ID)
	if idx < 0 {
		return nil, models.NotFound("category", p.ID)
	}
	var name string
	if p.Name != nil {
		name = strings.TrimSpace(*p.Name)
		if name == "" {
			return nil, models.Invalid("category name is required")
		}
		if categoryNameTaken(c.state, name, p.ID) {
			return nil, models.Invalid("category %s already exists", name)
		}
	}

	cat := &c.state.Categories[idx]
	if name != "" {
		cat.Name = name
	}
	if p.SortOrder != nil {
		cat.SortOrder = *p.SortOrder
	}
	return *cat, nil
}

func (s *Service) deleteCategory(c *call, p byID) (any, error) {
	idx := c.state.CategoryIndex(p.ID)
	if idx < 0 {
		return nil, models.NotFound("category", p.ID)
	}
	for _, item := range c.state.Menu {
		if item.CategoryID == p.ID {
			return nil, models.Invalid("category %s still has menu items", c.state.Categories[idx].Name)
		}
	}
	cat := c.state.Categories[idx]
	c.state.Categories = append(c.state.Categories[:idx], c.state.Categories[idx+1:]...)
	return cat, nil
}

func (s *Service) createMenuItem(c *call, p menuCreate) (any, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return nil, models.Invalid("menu item name is required")
	}
	if p.CategoryID != "" && c.state.CategoryIndex(p.CategoryID) < 0 {
		return nil, models.NotFound("category", p.CategoryID)
	}

	item := models.MenuItem{
		ID:          id.New("itm", c.now),
		CategoryID:  p.CategoryID,
		Name:        name,
		Description: strings.TrimSpace(p.Description),
		Price:       *p.Price,
		Available:   true,
		SortOrder:   len(c.state.Menu),
		CreatedAt:   c.now,
		UpdatedAt:   c.now,
	}
	if p.Available != nil {
		item.Available = *p.Available
	}
	if p.SortOrder != nil {
		item.SortOrder = *p.SortOrder
	}
	c.state.Menu = append(c.state.Menu, item)
	return item, nil
}

func (s *Service) updateMenuItem(c *call, p menuUpdate) (any, error) {
	idx := c.state.MenuItemIndex(p.ID)
	if idx < 0 {
		return nil, models.NotFound("menu item", p.ID)
	}
	if p.CategoryID != nil && *p.CategoryID != "" && c.state.CategoryIndex(*p.CategoryID) < 0 {
		return nil, models.NotFound("category", *p.CategoryID)
	}
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return nil, models.Invalid("menu item name is required")
	}

	item := &c.state.Menu[idx]
	if p.CategoryID != nil {
		item.CategoryID = *p.CategoryID
	}
	if p.Name != nil {
		item.Name = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		item.Description = strings.TrimSpace(*p.Description)
	}
	if p.Price != nil {
		item.Price = *p.Price
	}
	if p.Available != nil {
		item.Available = *p.Available
	}
	if p.SortOrder != nil {
		item.SortOrder = *p.SortOrder
	}
	item.UpdatedAt = c.now
	return *item, nil
}

func (s *Service) deleteMenuItem(c *call, p byID) (any, error) {
	idx := c.state.MenuItemIndex(p.ID)
	if idx < 0 {
		return nil, models.NotFound("menu item", p.ID)
	}
	item := c.state.Menu[idx]
	c.state.Menu = append(c.state.Menu[:idx], c.state.Menu[idx+1:]...)
	return item, nil
}

func (s *Service) createStaff(c *call, p staffCreate) (any, error) {
	username := strings.TrimSpace(p.Username)
	if len(username) < 3 {
		return nil, models.Invalid("username must have at least 3 characters")
	}
	for _, acc := range c.state.Staff {
		if strings.EqualFold(acc.Username, username) {
			return nil, models.Invalid("username %s is taken", username)
		}
	}
	if s.hasher == nil {
		return nil, models.Invalid("password hashing is not configured")
	}
	hash, err := s.hasher.Hash(p.Password)
	if err != nil {
		return nil, err
	}

	acc := models.StaffAccount{
		ID:           id.New("stf", c.now),
		Username:     username,
		DisplayName:  strings.TrimSpace(p.DisplayName),
		PasswordHash: hash,
		Role:         p.Role,
		Status:       models.StaffActive,
		CreatedAt:    c.now,
	}
	c.state.Staff = append(c.state.Staff, acc)

	acc.PasswordHash = ""
	c.record = acc
	return acc, nil
}

func (s *Service) setStaffStatus(c *call, p staffSetStatus) (any, error) {
	idx := c.state.StaffIndex(p.ID)
	if idx < 0 {
		return nil, models.NotFound("staff", p.ID)
	}
	acc := &c.state.Staff[idx]
	acc.Status = p.Status
	return publicStaff(*acc), nil
}

func (s *Service) setStaffRole(c *call, p staffSetRole) (any, error) {
	idx := c.state.StaffIndex(p.ID)
	if idx < 0 {
		return nil, models.NotFound("staff", p.ID)
	}
	acc := &c.state.Staff[idx]
	acc.Role = p.Role
	return publicStaff(*acc), nil
}

func (s *Service) deleteStaff(c *call, p byID) (any, error) {
	idx := c.state.StaffIndex(p.ID)
	if idx < 0 {
		return nil, models.NotFound("staff", p.ID)
	}
	acc := c.state.Staff[idx]
	c.state.Staff = append(c.state.Staff[:idx], c.state.Staff[idx+1:]...)
	return publicStaff(acc), nil
}

func publicStaff(acc models.StaffAccount) models.StaffAccount {
	acc.PasswordHash = ""
	return acc
}

func categoryNameTaken(state *models.State, name, exceptID string) bool {
	for _, cat := range state.Categories {
		if cat.ID != exceptID && strings.EqualFold(cat.Name, name) {
			return true
		}
	}
	return false
}
