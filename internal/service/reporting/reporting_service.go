package reporting

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/restopos/internal/domain/models"
	"github.com/mamadbah2/restopos/internal/service/pricing"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = time.RFC3339
)

// Service derives read-only reports from the shared state.
type Service struct {
	loc    *time.Location
	logger *zap.Logger
}

// NewService wires a new reporting service instance.
func NewService(loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{loc: loc, logger: logger}
}

// StaffMetric is one row of the staff performance view.
type StaffMetric struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Orders         int     `json:"orders"`
	Revenue        float64 `json:"revenue"`
	Completed      int     `json:"completed"`
	AvgPrepSeconds float64 `json:"avgPrepSeconds"`
}

// Bestseller is one row of the top sellers view.
type Bestseller struct {
	MenuItemID string  `json:"menuItemId"`
	Name       string  `json:"name"`
	Sold       int     `json:"sold"`
	Revenue    float64 `json:"revenue"`
}

// MetricsView is the report:metrics reply.
type MetricsView struct {
	LedgerTotal    float64            `json:"ledgerTotal"`
	Bestsellers    []Bestseller       `json:"bestsellers"`
	Staff          []StaffMetric      `json:"staff"`
	DailyRevenue   map[string]float64 `json:"dailyRevenue"`
	WeeklyRevenue  map[string]float64 `json:"weeklyRevenue"`
	MonthlyRevenue map[string]float64 `json:"monthlyRevenue"`
	HourlyOrders   [24]int            `json:"hourlyOrders"`
	PaymentMethods map[string]float64 `json:"paymentMethods"`
	AvgPrepByDay   map[string]float64 `json:"avgPrepByDay"`
}

// Metrics derives averages and rankings from the stored aggregates.
func (s *Service) Metrics(state *models.State) MetricsView {
	m := state.Metrics
	view := MetricsView{
		LedgerTotal:    state.Revenue.Total,
		Bestsellers:    make([]Bestseller, 0, len(m.Bestsellers)),
		Staff:          make([]StaffMetric, 0, len(m.StaffPerformance)),
		DailyRevenue:   m.DailyRevenue,
		WeeklyRevenue:  m.WeeklyRevenue,
		MonthlyRevenue: m.MonthlyRevenue,
		HourlyOrders:   m.HourlyOrders,
		PaymentMethods: m.PaymentMethods,
		AvgPrepByDay:   make(map[string]float64, len(m.PrepTimes)),
	}

	for itemID, stat := range m.Bestsellers {
		view.Bestsellers = append(view.Bestsellers, Bestseller{MenuItemID: itemID, Name: stat.Name, Sold: stat.Sold, Revenue: stat.Revenue})
	}
	sort.Slice(view.Bestsellers, func(i, j int) bool {
		a, b := view.Bestsellers[i], view.Bestsellers[j]
		if a.Sold != b.Sold {
			return a.Sold > b.Sold
		}
		return a.MenuItemID < b.MenuItemID
	})

	view.Staff = staffMetrics(m)

	for day, stat := range m.PrepTimes {
		if stat.Orders > 0 {
			view.AvgPrepByDay[day] = stat.TotalSeconds / float64(stat.Orders)
		}
	}
	return view
}

// DailyReport summarizes the business day containing day.
func (s *Service) DailyReport(state *models.State, day time.Time) models.DailyReport {
	key := day.In(s.loc).Format(dateLayout)
	report := models.DailyReport{
		Date:           key,
		PaymentMethods: map[string]float64{},
		LedgerTotal:    state.Revenue.Total,
		CreatedAt:      day,
	}

	sold := map[string]int{}
	names := map[string]string{}
	var prepTotal float64
	for _, o := range state.Orders {
		if o.CreatedAt.In(s.loc).Format(dateLayout) == key {
			report.Orders++
			report.Revenue = pricing.Add(report.Revenue, o.Total)
			report.Discounts = pricing.Add(report.Discounts, o.Discount)
			for _, line := range o.Items {
				sold[line.MenuItemID] += line.Qty
				names[line.MenuItemID] = line.Name
			}
		}
		if o.DoneAt != nil && o.DoneAt.In(s.loc).Format(dateLayout) == key {
			report.CompletedOrder++
			if o.PrepSeconds != nil {
				prepTotal += *o.PrepSeconds
			}
		}
	}
	if report.CompletedOrder > 0 {
		report.AvgPrepSeconds = prepTotal / float64(report.CompletedOrder)
	}

	best := -1
	for itemID, qty := range sold {
		if qty > best || (qty == best && names[itemID] < report.TopItem) {
			best = qty
			report.TopItem = names[itemID]
		}
	}

	for _, r := range state.Receipts {
		if r.CreatedAt.In(s.loc).Format(dateLayout) == key {
			method := string(r.PaymentMethod)
			report.PaymentMethods[method] = pricing.Add(report.PaymentMethods[method], r.Amount)
		}
	}
	return report
}

// ParseRange reads optional from/to dates (inclusive, in the report location).
func (s *Service) ParseRange(from, to string) (time.Time, time.Time, error) {
	var start, end time.Time
	if from != "" {
		t, err := time.ParseInLocation(dateLayout, from, s.loc)
		if err != nil {
			return start, end, models.Invalid("invalid from date %q", from)
		}
		start = t
	}
	if to != "" {
		t, err := time.ParseInLocation(dateLayout, to, s.loc)
		if err != nil {
			return start, end, models.Invalid("invalid to date %q", to)
		}
		end = t.AddDate(0, 0, 1)
	}
	if !start.IsZero() && !end.IsZero() && !end.After(start) {
		return start, end, models.Invalid("to date must not precede from date")
	}
	return start, end, nil
}

// OrdersCSV exports orders created in [start, end). Zero bounds are open.
func (s *Service) OrdersCSV(state *models.State, start, end time.Time) (string, error) {
	rows := [][]string{{"id", "createdAt", "status", "customer", "table", "items", "subtotal", "discount", "tax", "serviceCharge", "total", "promo", "createdBy"}}
	for _, o := range state.Orders {
		if !start.IsZero() && o.CreatedAt.Before(start) {
			continue
		}
		if !end.IsZero() && !o.CreatedAt.Before(end) {
			continue
		}
		var items int
		for _, line := range o.Items {
			items += line.Qty
		}
		promo := ""
		if o.Promo != nil {
			promo = o.Promo.Code
		}
		rows = append(rows, []string{
			o.ID,
			o.CreatedAt.In(s.loc).Format(timeLayout),
			string(o.Status),
			o.CustomerName,
			o.TableID,
			strconv.Itoa(items),
			money(o.Subtotal),
			money(o.Discount),
			money(o.Tax),
			money(o.ServiceCharge),
			money(o.Total),
			promo,
			o.CreatedBy.String(),
		})
	}
	return s.encode(rows)
}

// CustomersCSV exports the customer directory.
func (s *Service) CustomersCSV(state *models.State) (string, error) {
	rows := [][]string{{"id", "name", "phone", "email", "orderCount", "totalSpent", "lastOrderAt"}}
	for _, c := range state.Customers {
		last := ""
		if c.LastOrderAt != nil {
			last = c.LastOrderAt.In(s.loc).Format(timeLayout)
		}
		rows = append(rows, []string{c.ID, c.Name, c.Phone, c.Email, strconv.Itoa(c.OrderCount), money(c.TotalSpent), last})
	}
	return s.encode(rows)
}

// InventoryCSV exports stock levels.
func (s *Service) InventoryCSV(state *models.State) (string, error) {
	rows := [][]string{{"id", "sku", "name", "unit", "quantity", "reorderLevel", "costPrice", "archived"}}
	for _, item := range state.Inventory {
		rows = append(rows, []string{
			item.ID,
			item.SKU,
			item.Name,
			item.Unit,
			number(item.Quantity),
			number(item.ReorderLevel),
			money(item.CostPrice),
			strconv.FormatBool(item.Archived),
		})
	}
	return s.encode(rows)
}

// StaffPerformanceCSV exports the per-staff aggregates.
func (s *Service) StaffPerformanceCSV(state *models.State) (string, error) {
	rows := [][]string{{"id", "name", "orders", "revenue", "completed", "avgPrepSeconds"}}
	for _, st := range staffMetrics(state.Metrics) {
		rows = append(rows, []string{st.ID, st.Name, strconv.Itoa(st.Orders), money(st.Revenue), strconv.Itoa(st.Completed), number(st.AvgPrepSeconds)})
	}
	return s.encode(rows)
}

// PromoUsageCSV exports each promo with its redemptions.
func (s *Service) PromoUsageCSV(state *models.State) (string, error) {
	type usage struct {
		orders int
		amount float64
	}
	byPromo := map[string]*usage{}
	for _, d := range state.Discounts {
		u := byPromo[d.PromoID]
		if u == nil {
			u = &usage{}
			byPromo[d.PromoID] = u
		}
		u.orders++
		u.amount = pricing.Add(u.amount, d.Amount)
	}

	rows := [][]string{{"id", "code", "type", "value", "uses", "maxUses", "active", "orders", "discountTotal"}}
	for _, p := range state.Promos {
		maxUses := ""
		if p.MaxUses != nil {
			maxUses = strconv.Itoa(*p.MaxUses)
		}
		u := byPromo[p.ID]
		if u == nil {
			u = &usage{}
		}
		rows = append(rows, []string{
			p.ID,
			p.Code,
			string(p.Type),
			number(p.Value),
			strconv.Itoa(p.Uses),
			maxUses,
			strconv.FormatBool(p.IsActive),
			strconv.Itoa(u.orders),
			money(u.amount),
		})
	}
	return s.encode(rows)
}

func (s *Service) encode(rows [][]string) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return "", fmt.Errorf("write csv: %w", err)
	}
	s.logger.Debug("csv export built", zap.Int("rows", len(rows)-1))
	return buf.String(), nil
}

func staffMetrics(m models.Metrics) []StaffMetric {
	out := make([]StaffMetric, 0, len(m.StaffPerformance))
	for staffID, stat := range m.StaffPerformance {
		out = append(out, StaffMetric{
			ID:             staffID,
			Name:           stat.Name,
			Orders:         stat.Orders,
			Revenue:        stat.Revenue,
			Completed:      stat.Completed,
			AvgPrepSeconds: stat.AvgPrepSeconds(),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Revenue != out[j].Revenue {
			return out[i].Revenue > out[j].Revenue
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
