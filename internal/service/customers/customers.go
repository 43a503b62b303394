// Package customers keeps guest records in step with the orders that reference
// them.
package customers

import (
	"sort"
	"strings"
	"time"

	"github.com/mamadbah2/restopos/internal/domain/models"
	"github.com/mamadbah2/restopos/internal/service/pricing"
	"github.com/mamadbah2/restopos/pkg/id"
)

// Contact identifies a guest on an order.
type Contact struct {
	Name  string
	Phone string
	Email string
}

// Service performs customer operations against the shared state.
type Service struct{}

// NewService returns a customer service.
func NewService() *Service {
	return &Service{}
}

// Find looks a customer up by phone first, then by email.
func (s *Service) Find(state *models.State, c Contact) int {
	phone := normalizePhone(c.Phone)
	email := normalizeEmail(c.Email)
	if phone != "" {
		for i := range state.Customers {
			if normalizePhone(state.Customers[i].Phone) == phone {
				return i
			}
		}
	}
	if email != "" {
		for i := range state.Customers {
			if normalizeEmail(state.Customers[i].Email) == email {
				return i
			}
		}
	}
	return -1
}

// RecordOrder credits an order to its customer, creating the record when the
// contact is new. It returns the empty id when the order carries neither phone
// nor email.
func (s *Service) RecordOrder(state *models.State, c Contact, total float64, at time.Time) string {
	if normalizePhone(c.Phone) == "" && normalizeEmail(c.Email) == "" {
		return ""
	}

	idx := s.Find(state, c)
	if idx < 0 {
		state.Customers = append(state.Customers, models.Customer{
			ID:        id.New("cus", at),
			CreatedAt: at,
		})
		idx = len(state.Customers) - 1
	}

	cust := &state.Customers[idx]
	if name := strings.TrimSpace(c.Name); name != "" {
		cust.Name = name
	}
	if cust.Phone == "" {
		cust.Phone = strings.TrimSpace(c.Phone)
	}
	if cust.Email == "" {
		cust.Email = strings.TrimSpace(c.Email)
	}
	cust.OrderCount++
	cust.TotalSpent = pricing.Add(cust.TotalSpent, total)
	last := at
	cust.LastOrderAt = &last
	return cust.ID
}

// AdjustSpend applies a total delta after an order edit.
func (s *Service) AdjustSpend(state *models.State, customerID string, delta float64) {
	if idx := state.CustomerIndex(customerID); idx >= 0 {
		cust := &state.Customers[idx]
		cust.TotalSpent = pricing.Add(cust.TotalSpent, delta)
	}
}

// RemoveOrder reverses RecordOrder for a deleted order.
func (s *Service) RemoveOrder(state *models.State, customerID string, total float64) {
	idx := state.CustomerIndex(customerID)
	if idx < 0 {
		return
	}
	cust := &state.Customers[idx]
	if cust.OrderCount > 0 {
		cust.OrderCount--
	}
	cust.TotalSpent = pricing.Sub(cust.TotalSpent, total)
}

// Search matches query against name, phone and email. An empty query lists
// everyone. Results are ordered by total spent, highest first.
func (s *Service) Search(state *models.State, query string) []models.Customer {
	q := strings.ToLower(strings.TrimSpace(query))
	out := []models.Customer{}
	for _, c := range state.Customers {
		if q == "" ||
			strings.Contains(strings.ToLower(c.Name), q) ||
			strings.Contains(c.Phone, q) ||
			strings.Contains(strings.ToLower(c.Email), q) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalSpent > out[j].TotalSpent })
	return out
}

// History returns the customer and their orders, newest first.
func (s *Service) History(state *models.State, customerID string) (models.Customer, []models.Order, error) {
	idx := state.CustomerIndex(customerID)
	if idx < 0 {
		return models.Customer{}, nil, models.NotFound("customer", customerID)
	}
	orders := []models.Order{}
	for _, o := range state.Orders {
		if o.CustomerID == customerID {
			orders = append(orders, o)
		}
	}
	sort.SliceStable(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return state.Customers[idx], orders, nil
}

func normalizePhone(p string) string {
	var b strings.Builder
	for _, r := range p {
		if (r >= '0' && r <= '9') || (r == '+' && b.Len() == 0) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
