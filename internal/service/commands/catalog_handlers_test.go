package commands

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/restopos/internal/domain/models"
	"github.com/mamadbah2/restopos/internal/service/inventory"
	"github.com/mamadbah2/restopos/internal/service/reporting"
)

func TestSettingsUpdateIsPartial(t *testing.T) {
	f := newFixture(t)
	settings := f.mustDo(t, admin, models.CmdSettingsUpdate, map[string]any{"currency": "eur", "restaurantName": " Bistro "}).(models.Settings)
	require.Equal(t, models.Settings{TaxPercent: 5, ServiceChargePercent: 10, Currency: "EUR", RestaurantName: "Bistro"}, settings)
}

func TestCategoryRules(t *testing.T) {
	f := newFixture(t)
	catID := f.state().Categories[0].ID

	reply := f.do(t, admin, models.CmdCategoryCreate, map[string]any{"name": "mains"})
	require.False(t, reply.OK)

	drinks := f.mustDo(t, admin, models.CmdCategoryCreate, map[string]any{"name": "Drinks", "sortOrder": 7}).(models.Category)
	require.Equal(t, 7, drinks.SortOrder)

	renamed := f.mustDo(t, admin, models.CmdCategoryUpdate, map[string]any{"id": drinks.ID, "name": "Beverages"}).(models.Category)
	require.Equal(t, "Beverages", renamed.Name)

	reply = f.do(t, admin, models.CmdCategoryDelete, map[string]any{"id": catID})
	require.False(t, reply.OK)
	require.Contains(t, reply.Error, "menu items")

	f.mustDo(t, admin, models.CmdCategoryDelete, map[string]any{"id": drinks.ID})
	require.Len(t, f.state().Categories, 1)

	reply = f.do(t, admin, models.CmdCategoryDelete, map[string]any{"id": drinks.ID})
	require.False(t, reply.OK)
}

func TestMenuRules(t *testing.T) {
	f := newFixture(t)

	reply := f.do(t, admin, models.CmdMenuCreate, map[string]any{"name": "Ghost", "price": 1, "categoryId": "cat_missing"})
	require.False(t, reply.OK)

	reply = f.do(t, admin, models.CmdMenuCreate, map[string]any{"name": "Free"})
	require.False(t, reply.OK, "price is required")

	water := f.mustDo(t, admin, models.CmdMenuCreate, map[string]any{"name": "Water", "price": 0, "available": false}).(models.MenuItem)
	require.False(t, water.Available)
	require.Zero(t, water.Price)

	f.mustDo(t, admin, models.CmdMenuDelete, map[string]any{"id": water.ID})
	require.Equal(t, -1, f.state().MenuItemIndex(water.ID))
}

func TestStaffManagement(t *testing.T) {
	f := newFixture(t)

	acc := f.mustDo(t, admin, models.CmdStaffCreate, map[string]any{"username": "Robin", "password": "hunter22", "role": "cashier"}).(models.StaffAccount)
	require.Empty(t, acc.PasswordHash)
	require.Equal(t, models.StaffActive, acc.Status)

	stored := f.state().Staff[f.state().StaffIndex(acc.ID)]
	require.Equal(t, "hashed:hunter22", stored.PasswordHash)
	require.NotContains(t, string(f.state().Logs[0].Payload), "hunter22")

	reply := f.do(t, admin, models.CmdStaffCreate, map[string]any{"username": "robin", "password": "other1", "role": "kitchen"})
	require.False(t, reply.OK)
	require.Contains(t, reply.Error, "taken")

	reply = f.do(t, admin, models.CmdStaffCreate, map[string]any{"username": "chef", "password": "pw12", "role": "owner"})
	require.False(t, reply.OK)

	before := f.counts()
	reply = f.do(t, admin, models.CmdStaffCreate, map[string]any{"username": "boom", "password": "explode", "role": "kitchen"})
	require.False(t, reply.OK)
	require.Equal(t, before, f.counts())

	paused := f.mustDo(t, admin, models.CmdStaffSetStatus, map[string]any{"id": acc.ID, "status": "paused"}).(models.StaffAccount)
	require.Equal(t, models.StaffPaused, paused.Status)
	require.Empty(t, paused.PasswordHash)

	f.mustDo(t, admin, models.CmdStaffDelete, map[string]any{"id": acc.ID})
	require.Equal(t, -1, f.state().StaffIndex(acc.ID))
}

func TestPromoUpdate(t *testing.T) {
	f := newFixture(t)
	promo := f.state().Promos[0]

	updated := f.mustDo(t, admin, models.CmdPromoUpdate, map[string]any{"id": promo.ID, "value": 20, "maxDiscount": 3, "maxUses": 5}).(models.Promo)
	require.Equal(t, 20.0, updated.Value)
	require.Equal(t, 3.0, *updated.MaxDiscount)
	require.Equal(t, 5, *updated.MaxUses)

	cleared := f.mustDo(t, admin, models.CmdPromoUpdate, map[string]any{"id": promo.ID, "maxDiscount": 0, "maxUses": 0}).(models.Promo)
	require.Nil(t, cleared.MaxDiscount)
	require.Nil(t, cleared.MaxUses)

	reply := f.do(t, admin, models.CmdPromoUpdate, map[string]any{"id": promo.ID, "value": 150})
	require.False(t, reply.OK)
	require.Equal(t, 20.0, f.state().Promos[0].Value)

	o := f.order(t, cashier, map[string]any{"promoCode": "TEN"})
	f.mustDo(t, admin, models.CmdPromoDelete, map[string]any{"id": promo.ID})

	// the order keeps its frozen terms and can still be repriced
	edited := f.mustDo(t, cashier, models.CmdOrderUpdate, map[string]any{
		"id":    o.ID,
		"items": []map[string]any{{"menuItemId": f.fries, "qty": 2}},
	}).(models.Order)
	require.Equal(t, 2.0, edited.Discount)
}

func TestInventoryThroughDispatcher(t *testing.T) {
	f := newFixture(t)

	item := f.mustDo(t, admin, models.CmdInventoryCreate, map[string]any{"sku": "BUN", "name": "Buns", "quantity": 4, "reorderLevel": 10}).(models.InventoryItem)
	reply := f.do(t, cashier, models.CmdInventoryCreate, map[string]any{"sku": "X", "name": "X"})
	require.False(t, reply.OK)

	low := f.mustDo(t, cashier, models.CmdInventoryLowStock, nil).([]models.InventoryItem)
	require.Len(t, low, 1)

	f.mustDo(t, admin, models.CmdInventoryUpdate, map[string]any{"id": item.ID, "quantity": 0, "reason": "spoiled"})
	out := f.mustDo(t, cook, models.CmdInventoryOutOfStock, map[string]any{}).([]models.InventoryItem)
	require.Len(t, out, 1)

	logs := f.mustDo(t, cook, models.CmdInventoryLogs, map[string]any{"itemId": item.ID}).([]models.InventoryLog)
	require.Len(t, logs, 2)
	require.Equal(t, "admin:admin", logs[0].Actor)
	require.Equal(t, -4.0, logs[0].Change)

	sum := f.mustDo(t, cook, models.CmdInventoryMetrics, map[string]any{}).(inventory.Summary)
	require.Equal(t, 1, sum.OutOfStock)

	f.mustDo(t, admin, models.CmdInventoryArchive, map[string]any{"id": item.ID})
	require.Empty(t, f.mustDo(t, cook, models.CmdInventorySearch, map[string]any{}).([]models.InventoryItem))
	require.Len(t, f.mustDo(t, cook, models.CmdInventorySearch, map[string]any{"includeArchived": true}).([]models.InventoryItem), 1)

	f.mustDo(t, admin, models.CmdInventoryDelete, map[string]any{"id": item.ID})
	require.Empty(t, f.state().Inventory)
}

func TestCustomersAndExports(t *testing.T) {
	f := newFixture(t)
	o := f.order(t, cashier, map[string]any{"customerPhone": "555", "customerEmail": "ada@example.com"})
	f.order(t, cashier, map[string]any{"customerPhone": "555"})

	found := f.mustDo(t, cashier, models.CmdCustomerSearch, map[string]any{"query": "ada@"}).([]models.Customer)
	require.Len(t, found, 1)
	require.Equal(t, 2, found[0].OrderCount)

	history := f.mustDo(t, cashier, models.CmdCustomerGetHistory, map[string]any{"id": o.CustomerID}).(CustomerHistory)
	require.Len(t, history.Orders, 2)

	for cmd, header := range map[models.CommandType]string{
		models.CmdCustomerExport:         "id,name,phone",
		models.CmdExportCustomers:        "id,name,phone",
		models.CmdExportInventory:        "id,sku,name",
		models.CmdExportStaffPerformance: "id,name,orders",
		models.CmdExportPromoUsage:       "id,code,type",
		models.CmdReportExportCSV:        "id,createdAt,status",
	} {
		exp := f.mustDo(t, admin, cmd, map[string]any{}).(Export)
		require.True(t, strings.HasPrefix(exp.Data, header), cmd)
		require.Equal(t, "text/csv", exp.ContentType)
		require.True(t, strings.HasSuffix(exp.Filename, "-2024-05-01.csv"), exp.Filename)
	}

	reply := f.do(t, admin, models.CmdReportExportCSV, map[string]any{"from": "May 1st"})
	require.False(t, reply.OK)

	view := f.mustDo(t, admin, models.CmdReportMetrics, nil).(reporting.MetricsView)
	require.Equal(t, 57.5, view.LedgerTotal)
	raw, err := json.Marshal(view)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"hourlyOrders"`)
}
