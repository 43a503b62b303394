package commands

import (
	"github.com/mamadbah2/restopos/internal/domain/models"
	"github.com/mamadbah2/restopos/internal/service/inventory"
)

// Export is a CSV document returned to the caller.
type Export struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Data        string `json:"data"`
}

// CustomerHistory is the customer:getHistory reply.
type CustomerHistory struct {
	Customer models.Customer `json:"customer"`
	Orders   []models.Order  `json:"orders"`
}

func (s *Service) reportMetrics(c *call, _ empty) (any, error) {
	return s.reporting.Metrics(c.state), nil
}

func (s *Service) exportOrders(c *call, p exportRange) (any, error) {
	start, end, err := s.reporting.ParseRange(p.From, p.To)
	if err != nil {
		return nil, err
	}
	doc, err := s.reporting.OrdersCSV(c.state, start, end)
	if err != nil {
		return nil, err
	}
	return s.export(c, "orders", doc), nil
}

func (s *Service) exportCustomers(c *call, _ empty) (any, error) {
	doc, err := s.reporting.CustomersCSV(c.state)
	if err != nil {
		return nil, err
	}
	return s.export(c, "customers", doc), nil
}

func (s *Service) exportInventory(c *call, _ empty) (any, error) {
	doc, err := s.reporting.InventoryCSV(c.state)
	if err != nil {
		return nil, err
	}
	return s.export(c, "inventory", doc), nil
}

func (s *Service) exportStaffPerformance(c *call, _ empty) (any, error) {
	doc, err := s.reporting.StaffPerformanceCSV(c.state)
	if err != nil {
		return nil, err
	}
	return s.export(c, "staff-performance", doc), nil
}

func (s *Service) exportPromoUsage(c *call, _ empty) (any, error) {
	doc, err := s.reporting.PromoUsageCSV(c.state)
	if err != nil {
		return nil, err
	}
	return s.export(c, "promo-usage", doc), nil
}

func (s *Service) export(c *call, name, doc string) Export {
	return Export{
		Filename:    name + "-" + s.metrics.DayKey(c.now) + ".csv",
		ContentType: "text/csv",
		Data:        doc,
	}
}

func (s *Service) createInventory(c *call, p inventory.CreateInput) (any, error) {
	return s.inventory.Create(c.state, c.actor, c.now, p)
}

func (s *Service) updateInventory(c *call, p inventory.UpdateInput) (any, error) {
	return s.inventory.Update(c.state, c.actor, c.now, p)
}

func (s *Service) deleteInventory(c *call, p byID) (any, error) {
	return s.inventory.Delete(c.state, p.ID)
}

func (s *Service) archiveInventory(c *call, p inventoryArchive) (any, error) {
	archived := true
	if p.Archived != nil {
		archived = *p.Archived
	}
	return s.inventory.Archive(c.state, p.ID, archived, c.now)
}

func (s *Service) searchInventory(c *call, p inventorySearch) (any, error) {
	return s.inventory.Search(c.state, p.Query, p.IncludeArchived), nil
}

func (s *Service) lowStock(c *call, _ empty) (any, error) {
	return s.inventory.LowStock(c.state), nil
}

func (s *Service) outOfStock(c *call, _ empty) (any, error) {
	return s.inventory.OutOfStock(c.state), nil
}

func (s *Service) inventoryMetrics(c *call, _ empty) (any, error) {
	return s.inventory.Metrics(c.state), nil
}

func (s *Service) inventoryLogs(c *call, p inventoryLogs) (any, error) {
	return s.inventory.Logs(c.state, p.ItemID, p.Limit), nil
}

func (s *Service) searchCustomers(c *call, p customerSearch) (any, error) {
	return s.customers.Search(c.state, p.Query), nil
}

func (s *Service) customerHistory(c *call, p byID) (any, error) {
	cust, orders, err := s.customers.History(c.state, p.ID)
	if err != nil {
		return nil, err
	}
	return CustomerHistory{Customer: cust, Orders: orders}, nil
}
