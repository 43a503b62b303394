package commands

import (
	"strings"

	"github.com/mamadbah2/restopos/internal/domain/models"
	"github.com/mamadbah2/restopos/internal/service/pricing"
	"github.com/mamadbah2/restopos/pkg/id"
)

// PromoPreview is the promo:apply reply.
type PromoPreview struct {
	Promo     models.AppliedPromo `json:"promo"`
	Subtotal  float64             `json:"subtotal"`
	Discount  float64             `json:"discount"`
	Breakdown pricing.Breakdown   `json:"breakdown"`
}

func (s *Service) createPromo(c *call, p promoCreate) (any, error) {
	code := normalizeCode(p.Code)
	if code == "" {
		return nil, models.Invalid("promo code is required")
	}
	if c.state.PromoByCode(code) >= 0 {
		return nil, models.Invalid("promo code %s already exists", code)
	}
	if p.Type == models.PromoPercentage && p.Value > 100 {
		return nil, models.Invalid("percentage promo value must not exceed 100")
	}

	promo := models.Promo{
		ID:          id.New("pro", c.now),
		Code:        code,
		Type:        p.Type,
		Value:       p.Value,
		MaxDiscount: p.MaxDiscount,
		ExpiresAt:   p.ExpiresAt,
		MaxUses:     p.MaxUses,
		IsActive:    true,
		CreatedAt:   c.now,
	}
	if p.IsActive != nil {
		promo.IsActive = *p.IsActive
	}
	c.state.Promos = append(c.state.Promos, promo)
	return promo, nil
}

func (s *Service) updatePromo(c *call, p promoUpdate) (any, error) {
	idx := c.state.PromoIndex(p.ID)
	if idx < 0 {
		return nil, models.NotFound("promo", p.ID)
	}
	next := c.state.Promos[idx]

	if p.Code != nil {
		code := normalizeCode(*p.Code)
		if other := c.state.PromoByCode(code); code == "" || (other >= 0 && other != idx) {
			return nil, models.Invalid("promo code %s is not available", code)
		}
		next.Code = code
	}
	if p.Type != nil {
		next.Type = *p.Type
	}
	if p.Value != nil {
		next.Value = *p.Value
	}
	if next.Type == models.PromoPercentage && next.Value > 100 {
		return nil, models.Invalid("percentage promo value must not exceed 100")
	}
	if p.MaxDiscount != nil {
		next.MaxDiscount = positiveOrNil(*p.MaxDiscount)
	}
	if p.MaxUses != nil {
		if *p.MaxUses == 0 {
			next.MaxUses = nil
		} else {
			v := *p.MaxUses
			next.MaxUses = &v
		}
	}
	switch {
	case p.ClearExpiry:
		next.ExpiresAt = nil
	case p.ExpiresAt != nil:
		next.ExpiresAt = p.ExpiresAt
	}
	if p.IsActive != nil {
		next.IsActive = *p.IsActive
	}

	c.state.Promos[idx] = next
	return next, nil
}

func (s *Service) deletePromo(c *call, p byID) (any, error) {
	idx := c.state.PromoIndex(p.ID)
	if idx < 0 {
		return nil, models.NotFound("promo", p.ID)
	}
	promo := c.state.Promos[idx]
	c.state.Promos = append(c.state.Promos[:idx], c.state.Promos[idx+1:]...)
	return promo, nil
}

// applyPromo previews a discount with the same lookup and formula order
// creation uses, without counting a use.
func (s *Service) applyPromo(c *call, p promoApply) (any, error) {
	if p.Subtotal == nil && len(p.Items) == 0 {
		return nil, models.Invalid("subtotal or items are required")
	}
	promo, err := redeemablePromo(c, p.Code)
	if err != nil {
		return nil, err
	}

	var lines []models.OrderLine
	if len(p.Items) > 0 {
		lines, err = snapshotLines(c.state, p.Items)
		if err != nil {
			return nil, err
		}
	} else {
		lines = []models.OrderLine{{Name: "subtotal", Price: *p.Subtotal, Qty: 1}}
	}

	terms := pricing.Terms(promo)
	breakdown := pricing.Price(lines, &terms, c.state.Settings)
	return PromoPreview{
		Promo:     terms,
		Subtotal:  breakdown.Subtotal,
		Discount:  breakdown.Discount,
		Breakdown: breakdown,
	}, nil
}

func (s *Service) resetRevenue(c *call, p revenueReset) (any, error) {
	rev := &c.state.Revenue
	adj := models.RevenueAdjustment{
		ID:            id.New("adj", c.now),
		Type:          models.AdjustmentReset,
		Amount:        0,
		PreviousTotal: rev.Total,
		Reason:        strings.TrimSpace(p.Reason),
		Actor:         c.actor.String(),
		CreatedAt:     c.now,
	}
	rev.Total = 0
	rev.Adjustments = append(rev.Adjustments, adj)
	c.record = adj
	return *rev, nil
}

func (s *Service) adjustRevenue(c *call, p revenueAdjust) (any, error) {
	rev := &c.state.Revenue
	adj := models.RevenueAdjustment{
		ID:            id.New("adj", c.now),
		Type:          models.AdjustmentManual,
		Amount:        p.Amount,
		PreviousTotal: rev.Total,
		Reason:        strings.TrimSpace(p.Reason),
		Actor:         c.actor.String(),
		CreatedAt:     c.now,
	}
	rev.Total = pricing.Add(rev.Total, p.Amount)
	rev.Adjustments = append(rev.Adjustments, adj)
	c.record = adj
	return *rev, nil
}

// redeemablePromo finds an active, unexpired promo below its usage limit.
func redeemablePromo(c *call, code string) (models.Promo, error) {
	idx := c.state.PromoByCode(code)
	if idx < 0 {
		return models.Promo{}, models.NotFound("promo", normalizeCode(code))
	}
	promo := c.state.Promos[idx]
	if err := pricing.Redeemable(promo, c.now); err != nil {
		return models.Promo{}, err
	}
	return promo, nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func positiveOrNil(v float64) *float64 {
	if v <= 0 {
		return nil
	}
	return &v
}
