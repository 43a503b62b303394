// Package metrics keeps the derived counters of a state in step with its
// orders and receipts. Counters are running sums; nothing here rescans the
// order collection, so every ledger change must be mirrored by one of the
// calls below inside the same command.
package metrics

import (
	"fmt"
	"time"

	"github.com/mamadbah2/restopos/internal/domain/models"
	"github.com/mamadbah2/restopos/internal/service/pricing"
)

// Aggregator buckets revenue in a fixed time zone.
type Aggregator struct {
	loc *time.Location
}

// NewAggregator returns an aggregator bucketing in loc (UTC when nil).
func NewAggregator(loc *time.Location) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	return &Aggregator{loc: loc}
}

// Location is the bucketing time zone.
func (a *Aggregator) Location() *time.Location { return a.loc }

// DayKey formats the calendar day bucket of t.
func (a *Aggregator) DayKey(t time.Time) string { return t.In(a.loc).Format("2006-01-02") }

// MonthKey formats the year-month bucket of t.
func (a *Aggregator) MonthKey(t time.Time) string { return t.In(a.loc).Format("2006-01") }

// WeekKey formats the ISO-8601 week bucket of t, e.g. 2024-W01.
func (a *Aggregator) WeekKey(t time.Time) string {
	year, week := t.In(a.loc).ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// OrderCreated counts a new order.
func (a *Aggregator) OrderCreated(m *models.Metrics, o *models.Order) {
	a.apply(m, o, 1)
}

// OrderDeleted reverses OrderCreated.
func (a *Aggregator) OrderDeleted(m *models.Metrics, o *models.Order) {
	a.apply(m, o, -1)
}

// OrderEdited moves the counters from the before image of an order to its after image.
func (a *Aggregator) OrderEdited(m *models.Metrics, before, after *models.Order) {
	a.apply(m, before, -1)
	a.apply(m, after, 1)
}

// OrderCompleted records the preparation time of an order that just reached done.
func (a *Aggregator) OrderCompleted(m *models.Metrics, o *models.Order) {
	if o.PrepSeconds == nil || o.DoneAt == nil {
		return
	}
	secs := *o.PrepSeconds

	staff := a.staff(m, o.CreatedBy)
	staff.Completed++
	staff.TotalPrepSeconds = pricing.Add(staff.TotalPrepSeconds, secs)

	day := a.DayKey(*o.DoneAt)
	stat := m.PrepTimes[day]
	if stat == nil {
		stat = &models.PrepStat{}
		m.PrepTimes[day] = stat
	}
	stat.Orders++
	stat.TotalSeconds = pricing.Add(stat.TotalSeconds, secs)
}

// ReceiptCreated adds a payment to its method total.
func (a *Aggregator) ReceiptCreated(m *models.Metrics, r *models.Receipt) {
	key := string(r.PaymentMethod)
	m.PaymentMethods[key] = pricing.Add(m.PaymentMethods[key], r.Amount)
}

func (a *Aggregator) apply(m *models.Metrics, o *models.Order, sign int) {
	for _, line := range o.Items {
		stat := m.Bestsellers[line.MenuItemID]
		if stat == nil {
			stat = &models.ItemStat{Name: line.Name}
			m.Bestsellers[line.MenuItemID] = stat
		}
		stat.Sold += sign * line.Qty
		stat.Revenue = pricing.Add(stat.Revenue, float64(sign)*pricing.LineTotal(line.Price, line.Qty))
		if stat.Sold == 0 && stat.Revenue == 0 {
			delete(m.Bestsellers, line.MenuItemID)
		}
	}

	total := float64(sign) * o.Total

	staff := a.staff(m, o.CreatedBy)
	staff.Orders += sign
	staff.Revenue = pricing.Add(staff.Revenue, total)

	m.DailyRevenue[a.DayKey(o.CreatedAt)] = pricing.Add(m.DailyRevenue[a.DayKey(o.CreatedAt)], total)
	m.WeeklyRevenue[a.WeekKey(o.CreatedAt)] = pricing.Add(m.WeeklyRevenue[a.WeekKey(o.CreatedAt)], total)
	m.MonthlyRevenue[a.MonthKey(o.CreatedAt)] = pricing.Add(m.MonthlyRevenue[a.MonthKey(o.CreatedAt)], total)
	m.HourlyOrders[o.CreatedAt.In(a.loc).Hour()] += sign
}

func (a *Aggregator) staff(m *models.Metrics, actor models.Actor) *models.StaffStat {
	key := actor.ID
	if key == "" {
		key = string(actor.Role)
	}
	stat := m.StaffPerformance[key]
	if stat == nil {
		stat = &models.StaffStat{Name: actor.Name}
		m.StaffPerformance[key] = stat
	}
	return stat
}
