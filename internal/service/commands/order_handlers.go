package commands

import (
	"strings"

	"github.com/mamadbah2/restopos/internal/domain/models"
	"github.com/mamadbah2/restopos/internal/service/customers"
	"github.com/mamadbah2/restopos/internal/service/pricing"
	"github.com/mamadbah2/restopos/pkg/id"
)

// orderRecord is the audit payload of order mutations.
type orderRecord struct {
	OrderID   string             `json:"orderId"`
	Status    models.OrderStatus `json:"status"`
	Total     float64            `json:"total"`
	Delta     float64            `json:"delta"`
	PromoCode string             `json:"promoCode,omitempty"`
	TableID   string             `json:"tableId,omitempty"`
	Items     int                `json:"items"`
}

// ReceiptView is the receipt:preview reply.
type ReceiptView struct {
	RestaurantName string               `json:"restaurantName,omitempty"`
	Currency       string               `json:"currency"`
	Order          models.Order         `json:"order"`
	Breakdown      pricing.Breakdown    `json:"breakdown"`
	Receipt        *models.Receipt      `json:"receipt,omitempty"`
	Promo          *models.AppliedPromo `json:"promo,omitempty"`
}

func (s *Service) createOrder(c *call, p orderCreate) (any, error) {
	customerName := strings.TrimSpace(p.CustomerName)
	tableID := strings.TrimSpace(p.TableID)
	if customerName == "" || tableID == "" {
		return nil, models.Invalid("customer name and table are required")
	}
	lines, err := snapshotLines(c.state, p.Items)
	if err != nil {
		return nil, err
	}

	var (
		terms    *models.AppliedPromo
		promoIdx = -1
	)
	if strings.TrimSpace(p.PromoCode) != "" {
		promo, err := redeemablePromo(c, p.PromoCode)
		if err != nil {
			return nil, err
		}
		t := pricing.Terms(promo)
		terms = &t
		promoIdx = c.state.PromoIndex(promo.ID)
	}

	// everything below succeeds; validation is complete
	breakdown := pricing.Price(lines, terms, c.state.Settings)
	order := models.Order{
		ID:            id.New("ord", c.now),
		Status:        models.OrderNew,
		Items:         lines,
		Promo:         terms,
		CustomerName:  customerName,
		CustomerPhone: strings.TrimSpace(p.CustomerPhone),
		CustomerEmail: strings.TrimSpace(p.CustomerEmail),
		TableID:       tableID,
		Note:          strings.TrimSpace(p.Note),
		CreatedBy:     c.actor,
		CreatedAt:     c.now,
	}
	applyBreakdown(&order, breakdown)

	if promoIdx >= 0 {
		c.state.Promos[promoIdx].Uses++
		c.state.Discounts = append(c.state.Discounts, models.Discount{
			ID:        id.New("dsc", c.now),
			OrderID:   order.ID,
			PromoID:   terms.ID,
			Code:      terms.Code,
			Amount:    breakdown.Discount,
			CreatedAt: c.now,
		})
	}

	order.CustomerID = s.customers.RecordOrder(c.state, customers.Contact{
		Name:  order.CustomerName,
		Phone: order.CustomerPhone,
		Email: order.CustomerEmail,
	}, order.Total, c.now)

	c.state.Revenue.Total = pricing.Add(c.state.Revenue.Total, order.Total)
	s.metrics.OrderCreated(&c.state.Metrics, &order)
	c.state.Orders = append(c.state.Orders, order)

	c.record = recordOf(order, order.Total)
	return order, nil
}

func (s *Service) updateOrder(c *call, p orderUpdate) (any, error) {
	idx := c.state.OrderIndex(p.ID)
	if idx < 0 {
		return nil, models.NotFound("order", p.ID)
	}
	before := c.state.Orders[idx]
	if before.Status == models.OrderDone {
		return nil, models.Invalid("order %s is done and can no longer be edited", before.ID)
	}

	after := before
	if len(p.Items) > 0 {
		lines, err := snapshotLines(c.state, p.Items)
		if err != nil {
			return nil, err
		}
		after.Items = lines
	}
	if p.CustomerName != nil {
		name := strings.TrimSpace(*p.CustomerName)
		if name == "" {
			return nil, models.Invalid("customer name is required")
		}
		after.CustomerName = name
	}
	if p.TableID != nil {
		table := strings.TrimSpace(*p.TableID)
		if table == "" {
			return nil, models.Invalid("table is required")
		}
		after.TableID = table
	}
	if p.Note != nil {
		after.Note = strings.TrimSpace(*p.Note)
	}

	applyBreakdown(&after, pricing.Price(after.Items, after.Promo, c.state.Settings))
	now := c.now
	after.UpdatedAt = &now

	delta := pricing.Sub(after.Total, before.Total)
	c.state.Revenue.Total = pricing.Add(c.state.Revenue.Total, delta)
	s.metrics.OrderEdited(&c.state.Metrics, &before, &after)
	s.customers.AdjustSpend(c.state, after.CustomerID, delta)
	if d := c.state.DiscountForOrder(after.ID); d >= 0 {
		c.state.Discounts[d].Amount = after.Discount
	}
	c.state.Orders[idx] = after

	c.record = recordOf(after, delta)
	return after, nil
}

func (s *Service) deleteOrder(c *call, p byID) (any, error) {
	idx := c.state.OrderIndex(p.ID)
	if idx < 0 {
		return nil, models.NotFound("order", p.ID)
	}
	order := c.state.Orders[idx]
	if order.Status == models.OrderDone {
		return nil, models.Invalid("order %s is done and can no longer be deleted", order.ID)
	}
	if c.state.ReceiptForOrder(order.ID) >= 0 {
		return nil, models.Invalid("order %s has a receipt and can no longer be deleted", order.ID)
	}

	c.state.Revenue.Total = pricing.Sub(c.state.Revenue.Total, order.Total)
	s.metrics.OrderDeleted(&c.state.Metrics, &order)
	s.customers.RemoveOrder(c.state, order.CustomerID, order.Total)
	if d := c.state.DiscountForOrder(order.ID); d >= 0 {
		c.state.Discounts = append(c.state.Discounts[:d], c.state.Discounts[d+1:]...)
	}
	c.state.Orders = append(c.state.Orders[:idx], c.state.Orders[idx+1:]...)

	c.record = recordOf(order, -order.Total)
	return order, nil
}

// setOrderStatus moves an order forward through its lifecycle. Timestamps are
// only set once, so repeating a status is a no-op. Moving backwards or out of
// done is rejected; skipping preparing is allowed.
func (s *Service) setOrderStatus(c *call, p orderSetStatus) (any, error) {
	idx := c.state.OrderIndex(p.ID)
	if idx < 0 {
		return nil, models.NotFound("order", p.ID)
	}
	order := &c.state.Orders[idx]
	if statusRank(p.Status) < statusRank(order.Status) {
		return nil, models.Invalid("order %s cannot move from %s back to %s", order.ID, order.Status, p.Status)
	}

	now := c.now
	switch p.Status {
	case models.OrderPreparing:
		if order.AcknowledgedAt == nil {
			order.AcknowledgedAt = &now
		}
		if order.PreparingAt == nil {
			order.PreparingAt = &now
		}
	case models.OrderDone:
		if order.DoneAt == nil {
			order.DoneAt = &now
			secs := now.Sub(order.CreatedAt).Seconds()
			if secs < 0 {
				secs = 0
			}
			order.PrepSeconds = &secs
			s.metrics.OrderCompleted(&c.state.Metrics, order)
		}
	}
	order.Status = p.Status

	c.record = recordOf(*order, 0)
	return *order, nil
}

func (s *Service) createReceipt(c *call, p receiptCreate) (any, error) {
	idx := c.state.OrderIndex(p.OrderID)
	if idx < 0 {
		return nil, models.NotFound("order", p.OrderID)
	}
	if c.state.ReceiptForOrder(p.OrderID) >= 0 {
		return nil, models.Invalid("order %s already has a receipt", p.OrderID)
	}
	order := c.state.Orders[idx]

	receipt := models.Receipt{
		ID:            id.New("rct", c.now),
		OrderID:       order.ID,
		PaymentMethod: p.PaymentMethod,
		Amount:        order.Total,
		CreatedBy:     c.actor,
		CreatedAt:     c.now,
	}
	if p.Amount != nil {
		receipt.Amount = *p.Amount
	}
	c.state.Receipts = append(c.state.Receipts, receipt)
	s.metrics.ReceiptCreated(&c.state.Metrics, &receipt)

	c.record = receipt
	return receipt, nil
}

func (s *Service) previewReceipt(c *call, p receiptPreview) (any, error) {
	idx := c.state.OrderIndex(p.OrderID)
	if idx < 0 {
		return nil, models.NotFound("order", p.OrderID)
	}
	order := c.state.Orders[idx]
	view := ReceiptView{
		RestaurantName: c.state.Settings.RestaurantName,
		Currency:       c.state.Settings.Currency,
		Order:          order,
		Promo:          order.Promo,
		Breakdown: pricing.Breakdown{
			Subtotal:      order.Subtotal,
			Discount:      order.Discount,
			Taxable:       pricing.Sub(order.Subtotal, order.Discount),
			Tax:           order.Tax,
			ServiceCharge: order.ServiceCharge,
			Total:         order.Total,
		},
	}
	if r := c.state.ReceiptForOrder(order.ID); r >= 0 {
		receipt := c.state.Receipts[r]
		view.Receipt = &receipt
	}
	return view, nil
}

// snapshotLines resolves order lines against the current catalog.
func snapshotLines(state *models.State, items []lineInput) ([]models.OrderLine, error) {
	if len(items) == 0 {
		return nil, models.Invalid("at least one item is required")
	}
	lines := make([]models.OrderLine, 0, len(items))
	for _, in := range items {
		if in.Qty <= 0 {
			return nil, models.Invalid("quantity of %s must be positive", in.MenuItemID)
		}
		idx := state.MenuItemIndex(in.MenuItemID)
		if idx < 0 {
			return nil, models.NotFound("menu item", in.MenuItemID)
		}
		item := state.Menu[idx]
		if !item.Available {
			return nil, models.Invalid("menu item %s is not available", item.Name)
		}
		lines = append(lines, models.OrderLine{
			MenuItemID: item.ID,
			Name:       item.Name,
			Price:      item.Price,
			Qty:        in.Qty,
			Note:       strings.TrimSpace(in.Note),
		})
	}
	return lines, nil
}

func applyBreakdown(o *models.Order, b pricing.Breakdown) {
	o.Subtotal = b.Subtotal
	o.Discount = b.Discount
	o.Tax = b.Tax
	o.ServiceCharge = b.ServiceCharge
	o.Total = b.Total
}

func statusRank(s models.OrderStatus) int {
	switch s {
	case models.OrderPreparing:
		return 1
	case models.OrderDone:
		return 2
	}
	return 0
}

func recordOf(o models.Order, delta float64) orderRecord {
	rec := orderRecord{
		OrderID: o.ID,
		Status:  o.Status,
		Total:   o.Total,
		Delta:   delta,
		TableID: o.TableID,
	}
	if o.Promo != nil {
		rec.PromoCode = o.Promo.Code
	}
	for _, line := range o.Items {
		rec.Items += line.Qty
	}
	return rec
}
