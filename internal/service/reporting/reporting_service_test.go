package reporting

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/restopos/internal/domain/models"
)

func tp(t time.Time) *time.Time { return &t }
func fp(v float64) *float64     { return &v }

func fixture() *models.State {
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	state := models.NewState()
	state.Revenue.Total = 60
	state.Orders = []models.Order{
		{
			ID:          "ord_1",
			Status:      models.OrderDone,
			Items:       []models.OrderLine{{MenuItemID: "m1", Name: "Burger", Price: 10, Qty: 2}, {MenuItemID: "m2", Name: "Fries", Price: 5, Qty: 1}},
			Subtotal:    25,
			Discount:    2.5,
			Total:       22.5,
			Promo:       &models.AppliedPromo{ID: "pro_1", Code: "TEN"},
			CreatedBy:   models.Actor{ID: "stf_1", Name: "sam", Role: models.RoleStaff},
			CreatedAt:   day.Add(12 * time.Hour),
			DoneAt:      tp(day.Add(12*time.Hour + 10*time.Minute)),
			PrepSeconds: fp(600),
		},
		{
			ID:           "ord_2",
			Status:       models.OrderNew,
			Items:        []models.OrderLine{{MenuItemID: "m2", Name: "Fries", Price: 5, Qty: 3}},
			Subtotal:     15,
			Total:        15,
			CustomerName: "Ada, \"the\" guest",
			CreatedAt:    day.Add(13 * time.Hour),
		},
		{
			ID:        "ord_3",
			Status:    models.OrderNew,
			Items:     []models.OrderLine{{MenuItemID: "m1", Name: "Burger", Price: 10, Qty: 1}},
			Subtotal:  10,
			Total:     10,
			CreatedAt: day.AddDate(0, 0, 1).Add(9 * time.Hour),
		},
	}
	state.Receipts = []models.Receipt{
		{ID: "rct_1", OrderID: "ord_1", PaymentMethod: models.PaymentCard, Amount: 22.5, CreatedAt: day.Add(14 * time.Hour)},
		{ID: "rct_2", OrderID: "ord_2", PaymentMethod: models.PaymentCash, Amount: 15, CreatedAt: day.Add(15 * time.Hour)},
	}
	state.Promos = []models.Promo{{ID: "pro_1", Code: "TEN", Type: models.PromoPercentage, Value: 10, Uses: 1, IsActive: true}}
	state.Discounts = []models.Discount{{ID: "dsc_1", OrderID: "ord_1", PromoID: "pro_1", Code: "TEN", Amount: 2.5}}
	state.Metrics.Bestsellers = map[string]*models.ItemStat{
		"m1": {Name: "Burger", Sold: 3, Revenue: 30},
		"m2": {Name: "Fries", Sold: 4, Revenue: 20},
	}
	state.Metrics.StaffPerformance = map[string]*models.StaffStat{
		"stf_1": {Name: "sam", Orders: 1, Revenue: 22.5, Completed: 1, TotalPrepSeconds: 600},
		"admin": {Name: "admin", Orders: 2, Revenue: 25},
	}
	state.Metrics.PrepTimes = map[string]*models.PrepStat{"2024-05-01": {Orders: 2, TotalSeconds: 900}}
	return state
}

func parseCSV(t *testing.T, doc string) [][]string {
	t.Helper()
	rows, err := csv.NewReader(strings.NewReader(doc)).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestMetricsView(t *testing.T) {
	svc := NewService(time.UTC, nil)
	view := svc.Metrics(fixture())

	require.Equal(t, 60.0, view.LedgerTotal)
	require.Len(t, view.Bestsellers, 2)
	require.Equal(t, "Fries", view.Bestsellers[0].Name)
	require.Equal(t, "admin", view.Staff[0].ID)
	require.Equal(t, 600.0, view.Staff[1].AvgPrepSeconds)
	require.Equal(t, 450.0, view.AvgPrepByDay["2024-05-01"])
}

func TestDailyReport(t *testing.T) {
	svc := NewService(time.UTC, nil)
	report := svc.DailyReport(fixture(), time.Date(2024, 5, 1, 23, 0, 0, 0, time.UTC))

	require.Equal(t, "2024-05-01", report.Date)
	require.Equal(t, 2, report.Orders)
	require.Equal(t, 1, report.CompletedOrder)
	require.Equal(t, 37.5, report.Revenue)
	require.Equal(t, 2.5, report.Discounts)
	require.Equal(t, 600.0, report.AvgPrepSeconds)
	require.Equal(t, "Fries", report.TopItem)
	require.Equal(t, map[string]float64{"card": 22.5, "cash": 15}, report.PaymentMethods)
	require.Equal(t, 60.0, report.LedgerTotal)
}

func TestOrdersCSVRange(t *testing.T) {
	svc := NewService(time.UTC, nil)
	state := fixture()

	start, end, err := svc.ParseRange("2024-05-01", "2024-05-01")
	require.NoError(t, err)
	doc, err := svc.OrdersCSV(state, start, end)
	require.NoError(t, err)

	rows := parseCSV(t, doc)
	require.Len(t, rows, 3)
	require.Equal(t, "id", rows[0][0])
	require.Equal(t, "ord_1", rows[1][0])
	require.Equal(t, "3", rows[1][5])
	require.Equal(t, "22.50", rows[1][10])
	require.Equal(t, "TEN", rows[1][11])
	require.Equal(t, "staff:sam", rows[1][12])
	require.Equal(t, "Ada, \"the\" guest", rows[2][3])

	doc, err = svc.OrdersCSV(state, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, parseCSV(t, doc), 4)

	_, _, err = svc.ParseRange("yesterday", "")
	require.ErrorIs(t, err, models.ErrValidation)
	_, _, err = svc.ParseRange("2024-05-02", "2024-05-01")
	require.ErrorIs(t, err, models.ErrValidation)
}

func TestExports(t *testing.T) {
	svc := NewService(time.UTC, nil)
	state := fixture()
	state.Customers = []models.Customer{{ID: "cus_1", Name: "Ada", Phone: "555", OrderCount: 2, TotalSpent: 37.5}}
	state.Inventory = []models.InventoryItem{{ID: "inv_1", SKU: "BUN", Name: "Buns", Quantity: 12.5, ReorderLevel: 5, CostPrice: 0.4}}

	doc, err := svc.CustomersCSV(state)
	require.NoError(t, err)
	require.Equal(t, []string{"cus_1", "Ada", "555", "", "2", "37.50", ""}, parseCSV(t, doc)[1])

	doc, err = svc.InventoryCSV(state)
	require.NoError(t, err)
	require.Equal(t, []string{"inv_1", "BUN", "Buns", "", "12.5", "5", "0.40", "false"}, parseCSV(t, doc)[1])

	doc, err = svc.StaffPerformanceCSV(state)
	require.NoError(t, err)
	rows := parseCSV(t, doc)
	require.Len(t, rows, 3)
	require.Equal(t, []string{"stf_1", "sam", "1", "22.50", "1", "600"}, rows[2])

	doc, err = svc.PromoUsageCSV(state)
	require.NoError(t, err)
	require.Equal(t, []string{"pro_1", "TEN", "percentage", "10", "1", "", "true", "1", "2.50"}, parseCSV(t, doc)[1])
}
