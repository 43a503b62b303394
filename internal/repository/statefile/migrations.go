package statefile

import (
	"fmt"

	"github.com/mamadbah2/restopos/internal/domain/models"
)

// Migration upgrades a raw state document from version To-1 to To. Every
// migration only fills in what is missing, so running it twice is harmless.
type Migration struct {
	To    int
	Name  string
	Apply func(doc map[string]any)
}

// Migrations are applied in order, starting after the stored version.
var Migrations = []Migration{
	{To: 1, Name: "backfill-collections", Apply: backfillCollections},
	{To: 2, Name: "introduce-metrics", Apply: introduceMetrics},
	{To: 3, Name: "introduce-customers-inventory", Apply: introduceCustomersInventory},
}

// Migrate runs every migration newer than the document version and returns the
// names of the applied migrations.
func Migrate(doc map[string]any) ([]string, error) {
	from := versionOf(doc)
	if from > models.SchemaVersion {
		return nil, fmt.Errorf("state version %d is newer than supported version %d", from, models.SchemaVersion)
	}

	var applied []string
	for _, m := range Migrations {
		if m.To <= from {
			continue
		}
		m.Apply(doc)
		doc["version"] = m.To
		applied = append(applied, m.Name)
	}
	return applied, nil
}

func versionOf(doc map[string]any) int {
	switch v := doc["version"].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func backfillCollections(doc map[string]any) {
	settings := ensureObject(doc, "settings")
	defaults := models.DefaultSettings()
	ensureDefault(settings, "taxPercent", 0.0)
	ensureDefault(settings, "serviceChargePercent", 0.0)
	ensureDefault(settings, "currency", defaults.Currency)

	for _, key := range []string{"categories", "menu", "staff", "orders", "logs", "promos", "receipts"} {
		ensureArray(doc, key)
	}

	revenue := ensureObject(doc, "revenue")
	ensureDefault(revenue, "total", 0.0)
	if _, ok := revenue["adjustments"].([]any); !ok {
		revenue["adjustments"] = []any{}
	}

	for _, acc := range objects(doc["staff"]) {
		ensureDefault(acc, "status", string(models.StaffActive))
		ensureDefault(acc, "role", string(models.StaffCashier))
	}
}

func introduceMetrics(doc map[string]any) {
	metrics := ensureObject(doc, "metrics")
	for _, key := range []string{"bestsellers", "staffPerformance", "dailyRevenue", "weeklyRevenue", "monthlyRevenue", "paymentMethods", "prepTimes"} {
		ensureObject(metrics, key)
	}
	if hours, ok := metrics["hourlyOrders"].([]any); !ok || len(hours) != 24 {
		fresh := make([]any, 24)
		for i := range fresh {
			fresh[i] = 0.0
			if ok && i < len(hours) {
				fresh[i] = hours[i]
			}
		}
		metrics["hourlyOrders"] = fresh
	}
}

func introduceCustomersInventory(doc map[string]any) {
	for _, key := range []string{"inventory", "inventoryLogs", "customers", "discounts"} {
		ensureArray(doc, key)
	}
	for _, promo := range objects(doc["promos"]) {
		ensureDefault(promo, "isActive", true)
		ensureDefault(promo, "uses", 0.0)
	}
	for _, item := range objects(doc["inventory"]) {
		ensureDefault(item, "archived", false)
	}
}

func ensureObject(doc map[string]any, key string) map[string]any {
	if obj, ok := doc[key].(map[string]any); ok {
		return obj
	}
	obj := map[string]any{}
	doc[key] = obj
	return obj
}

func ensureArray(doc map[string]any, key string) {
	if _, ok := doc[key].([]any); !ok {
		doc[key] = []any{}
	}
}

func ensureDefault(obj map[string]any, key string, value any) {
	if v, ok := obj[key]; !ok || v == nil {
		obj[key] = value
	}
}

func objects(v any) []map[string]any {
	list, _ := v.([]any)
	out := make([]map[string]any, 0, len(list))
	for _, el := range list {
		if obj, ok := el.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}
