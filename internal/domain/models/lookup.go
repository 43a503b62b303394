package models

import "strings"

// OrderIndex returns the index of the order with id or -1.
func (s *State) OrderIndex(id string) int {
	for i := range s.Orders {
		if s.Orders[i].ID == id {
			return i
		}
	}
	return -1
}

// MenuItemIndex returns the index of the menu item with id or -1.
func (s *State) MenuItemIndex(id string) int {
	for i := range s.Menu {
		if s.Menu[i].ID == id {
			return i
		}
	}
	return -1
}

// CategoryIndex returns the index of the category with id or -1.
func (s *State) CategoryIndex(id string) int {
	for i := range s.Categories {
		if s.Categories[i].ID == id {
			return i
		}
	}
	return -1
}

// StaffIndex returns the index of the staff account with id or -1.
func (s *State) StaffIndex(id string) int {
	for i := range s.Staff {
		if s.Staff[i].ID == id {
			return i
		}
	}
	return -1
}

// StaffByUsername matches usernames exactly; usernames are case-sensitive.
func (s *State) StaffByUsername(username string) int {
	for i := range s.Staff {
		if s.Staff[i].Username == username {
			return i
		}
	}
	return -1
}

// PromoIndex returns the index of the promo with id or -1.
func (s *State) PromoIndex(id string) int {
	for i := range s.Promos {
		if s.Promos[i].ID == id {
			return i
		}
	}
	return -1
}

// PromoByCode matches promo codes case-insensitively.
func (s *State) PromoByCode(code string) int {
	code = strings.TrimSpace(code)
	for i := range s.Promos {
		if strings.EqualFold(s.Promos[i].Code, code) {
			return i
		}
	}
	return -1
}

// InventoryIndex returns the index of the inventory item with id or -1.
func (s *State) InventoryIndex(id string) int {
	for i := range s.Inventory {
		if s.Inventory[i].ID == id {
			return i
		}
	}
	return -1
}

// InventoryBySKU matches SKUs case-insensitively.
func (s *State) InventoryBySKU(sku string) int {
	sku = strings.TrimSpace(sku)
	for i := range s.Inventory {
		if strings.EqualFold(s.Inventory[i].SKU, sku) {
			return i
		}
	}
	return -1
}

// CustomerIndex returns the index of the customer with id or -1.
func (s *State) CustomerIndex(id string) int {
	for i := range s.Customers {
		if s.Customers[i].ID == id {
			return i
		}
	}
	return -1
}

// ReceiptForOrder returns the index of the receipt settling orderID or -1.
func (s *State) ReceiptForOrder(orderID string) int {
	for i := range s.Receipts {
		if s.Receipts[i].OrderID == orderID {
			return i
		}
	}
	return -1
}

// DiscountForOrder returns the index of the promo redemption on orderID or -1.
func (s *State) DiscountForOrder(orderID string) int {
	for i := range s.Discounts {
		if s.Discounts[i].OrderID == orderID {
			return i
		}
	}
	return -1
}
