package models

import (
	"encoding/json"
	"time"
)

// SchemaVersion is the state file version written by this build.
const SchemaVersion = 3

const (
	// MaxLogEntries bounds the audit log; the oldest entries are evicted first.
	MaxLogEntries = 5000
	// MaxInventoryLogs bounds the inventory movement log.
	MaxInventoryLogs = 1000
)

// State is the canonical restaurant state shared by every connected client.
type State struct {
	Version       int             `json:"version"`
	Settings      Settings        `json:"settings"`
	Categories    []Category      `json:"categories"`
	Menu          []MenuItem      `json:"menu"`
	Staff         []StaffAccount  `json:"staff"`
	Orders        []Order         `json:"orders"`
	Revenue       Revenue         `json:"revenue"`
	Logs          []LogEntry      `json:"logs"`
	Promos        []Promo         `json:"promos"`
	Discounts     []Discount      `json:"discounts"`
	Receipts      []Receipt       `json:"receipts"`
	Inventory     []InventoryItem `json:"inventory"`
	Customers     []Customer      `json:"customers"`
	InventoryLogs []InventoryLog  `json:"inventoryLogs"`
	Metrics       Metrics         `json:"metrics"`
}

// Settings holds the admin controlled pricing configuration.
type Settings struct {
	TaxPercent           float64 `json:"taxPercent"`
	ServiceChargePercent float64 `json:"serviceChargePercent"`
	Currency             string  `json:"currency"`
	RestaurantName       string  `json:"restaurantName,omitempty"`
}

// Category groups menu items.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	SortOrder int       `json:"sortOrder"`
	CreatedAt time.Time `json:"createdAt"`
}

// MenuItem is a sellable catalog entry. Its price is authoritative only until an
// order snapshots it.
type MenuItem struct {
	ID          string    `json:"id"`
	CategoryID  string    `json:"categoryId,omitempty"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"`
	Available   bool      `json:"available"`
	SortOrder   int       `json:"sortOrder"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// StaffRole is the job of a staff account.
type StaffRole string

const (
	StaffCashier StaffRole = "cashier"
	StaffKitchen StaffRole = "kitchen"
	StaffManager StaffRole = "manager"
)

// Valid reports whether r is a known staff role.
func (r StaffRole) Valid() bool {
	switch r {
	case StaffCashier, StaffKitchen, StaffManager:
		return true
	}
	return false
}

// StaffStatus toggles whether a staff account may sign in.
type StaffStatus string

const (
	StaffActive StaffStatus = "active"
	StaffPaused StaffStatus = "paused"
)

// StaffAccount is a sign-in identity for restaurant staff.
type StaffAccount struct {
	ID           string      `json:"id"`
	Username     string      `json:"username"`
	DisplayName  string      `json:"displayName,omitempty"`
	PasswordHash string      `json:"passwordHash,omitempty"`
	Role         StaffRole   `json:"role"`
	Status       StaffStatus `json:"status"`
	CreatedAt    time.Time   `json:"createdAt"`
}

// OrderStatus is a node of the order lifecycle.
type OrderStatus string

const (
	OrderNew       OrderStatus = "new"
	OrderPreparing OrderStatus = "preparing"
	OrderDone      OrderStatus = "done"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderNew, OrderPreparing, OrderDone:
		return true
	}
	return false
}

// OrderLine is an immutable snapshot of a menu item taken when the order was priced.
type OrderLine struct {
	MenuItemID string  `json:"menuItemId"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Qty        int     `json:"qty"`
	Note       string  `json:"note,omitempty"`
}

// AppliedPromo freezes the promo terms used to price an order.
type AppliedPromo struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	Type        PromoType `json:"type"`
	Value       float64   `json:"value"`
	MaxDiscount *float64  `json:"maxDiscount,omitempty"`
}

// Order is a customer order moving through new, preparing and done.
type Order struct {
	ID             string        `json:"id"`
	Status         OrderStatus   `json:"status"`
	Items          []OrderLine   `json:"items"`
	Subtotal       float64       `json:"subtotal"`
	Discount       float64       `json:"discount"`
	Tax            float64       `json:"tax"`
	ServiceCharge  float64       `json:"serviceCharge"`
	Total          float64       `json:"total"`
	Promo          *AppliedPromo `json:"promo,omitempty"`
	CustomerName   string        `json:"customerName"`
	CustomerPhone  string        `json:"customerPhone,omitempty"`
	CustomerEmail  string        `json:"customerEmail,omitempty"`
	CustomerID     string        `json:"customerId,omitempty"`
	TableID        string        `json:"tableId"`
	Note           string        `json:"note,omitempty"`
	CreatedBy      Actor         `json:"createdBy"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      *time.Time    `json:"updatedAt,omitempty"`
	AcknowledgedAt *time.Time    `json:"acknowledgedAt,omitempty"`
	PreparingAt    *time.Time    `json:"preparingAt,omitempty"`
	DoneAt         *time.Time    `json:"doneAt,omitempty"`
	PrepSeconds    *float64      `json:"prepSeconds,omitempty"`
}

// PromoType selects the discount formula.
type PromoType string

const (
	PromoPercentage PromoType = "percentage"
	PromoFixed      PromoType = "fixed"
)

// Promo is a redeemable discount code.
type Promo struct {
	ID          string     `json:"id"`
	Code        string     `json:"code"`
	Type        PromoType  `json:"type"`
	Value       float64    `json:"value"`
	MaxDiscount *float64   `json:"maxDiscount,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	MaxUses     *int       `json:"maxUses,omitempty"`
	Uses        int        `json:"uses"`
	IsActive    bool       `json:"isActive"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Discount records one promo redemption on an order.
type Discount struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"orderId"`
	PromoID   string    `json:"promoId"`
	Code      string    `json:"code"`
	Amount    float64   `json:"amount"`
	CreatedAt time.Time `json:"createdAt"`
}

// PaymentMethod is how a receipt was settled.
type PaymentMethod string

const (
	PaymentCash  PaymentMethod = "cash"
	PaymentCard  PaymentMethod = "card"
	PaymentOther PaymentMethod = "other"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentOther:
		return true
	}
	return false
}

// Receipt records the payment of an order.
type Receipt struct {
	ID            string        `json:"id"`
	OrderID       string        `json:"orderId"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	Amount        float64       `json:"amount"`
	CreatedBy     Actor         `json:"createdBy"`
	CreatedAt     time.Time     `json:"createdAt"`
}

// InventoryItem is a stock keeping unit tracked by the kitchen.
type InventoryItem struct {
	ID           string    `json:"id"`
	SKU          string    `json:"sku"`
	Name         string    `json:"name"`
	Unit         string    `json:"unit,omitempty"`
	Quantity     float64   `json:"quantity"`
	ReorderLevel float64   `json:"reorderLevel"`
	CostPrice    float64   `json:"costPrice"`
	Archived     bool      `json:"archived"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// InventoryLog is one stock movement.
type InventoryLog struct {
	ID        string    `json:"id"`
	ItemID    string    `json:"itemId"`
	SKU       string    `json:"sku"`
	Change    float64   `json:"change"`
	Quantity  float64   `json:"quantity"`
	Reason    string    `json:"reason"`
	Actor     string    `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
}

// Customer is a returning guest identified by phone or email.
type Customer struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Phone       string     `json:"phone,omitempty"`
	Email       string     `json:"email,omitempty"`
	OrderCount  int        `json:"orderCount"`
	TotalSpent  float64    `json:"totalSpent"`
	LastOrderAt *time.Time `json:"lastOrderAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Adjustment types recorded on the revenue ledger.
const (
	AdjustmentManual = "ADJUST"
	AdjustmentReset  = "RESET"
)

// Revenue is the ledger: a running total and its manual adjustments.
type Revenue struct {
	Total       float64             `json:"total"`
	Adjustments []RevenueAdjustment `json:"adjustments"`
}

// RevenueAdjustment is a manual change to the ledger total.
type RevenueAdjustment struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	Amount        float64   `json:"amount"`
	PreviousTotal float64   `json:"previousTotal"`
	Reason        string    `json:"reason,omitempty"`
	Actor         string    `json:"actor"`
	CreatedAt     time.Time `json:"createdAt"`
}

// LogEntry is one audit record. Newest entries live at index 0.
type LogEntry struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Type      string          `json:"type"`
	Actor     string          `json:"actor"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Metrics holds incrementally maintained aggregates.
type Metrics struct {
	Bestsellers      map[string]*ItemStat  `json:"bestsellers"`
	StaffPerformance map[string]*StaffStat `json:"staffPerformance"`
	DailyRevenue     map[string]float64    `json:"dailyRevenue"`
	WeeklyRevenue    map[string]float64    `json:"weeklyRevenue"`
	MonthlyRevenue   map[string]float64    `json:"monthlyRevenue"`
	HourlyOrders     [24]int               `json:"hourlyOrders"`
	PaymentMethods   map[string]float64    `json:"paymentMethods"`
	PrepTimes        map[string]*PrepStat  `json:"prepTimes"`
}

// ItemStat counts sales of one menu item.
type ItemStat struct {
	Name    string  `json:"name"`
	Sold    int     `json:"sold"`
	Revenue float64 `json:"revenue"`
}

// StaffStat tracks the orders a staff member created.
type StaffStat struct {
	Name             string  `json:"name"`
	Orders           int     `json:"orders"`
	Revenue          float64 `json:"revenue"`
	Completed        int     `json:"completed"`
	TotalPrepSeconds float64 `json:"totalPrepSeconds"`
}

// AvgPrepSeconds derives the average preparation time of completed orders.
func (s *StaffStat) AvgPrepSeconds() float64 {
	if s == nil || s.Completed == 0 {
		return 0
	}
	return s.TotalPrepSeconds / float64(s.Completed)
}

// PrepStat accumulates preparation time for orders completed in one day.
type PrepStat struct {
	Orders       int     `json:"orders"`
	TotalSeconds float64 `json:"totalSeconds"`
}

// NewState returns an empty state at the current schema version.
func NewState() *State {
	s := &State{
		Version:  SchemaVersion,
		Settings: DefaultSettings(),
	}
	s.Normalize()
	return s
}

// DefaultSettings are applied to fresh states and to states missing settings.
func DefaultSettings() Settings {
	return Settings{Currency: "USD"}
}

// Normalize replaces nil collections with empty ones so that the JSON document
// always carries every key as an array or object.
func (s *State) Normalize() {
	if s.Categories == nil {
		s.Categories = []Category{}
	}
	if s.Menu == nil {
		s.Menu = []MenuItem{}
	}
	if s.Staff == nil {
		s.Staff = []StaffAccount{}
	}
	if s.Orders == nil {
		s.Orders = []Order{}
	}
	if s.Revenue.Adjustments == nil {
		s.Revenue.Adjustments = []RevenueAdjustment{}
	}
	if s.Logs == nil {
		s.Logs = []LogEntry{}
	}
	if s.Promos == nil {
		s.Promos = []Promo{}
	}
	if s.Discounts == nil {
		s.Discounts = []Discount{}
	}
	if s.Receipts == nil {
		s.Receipts = []Receipt{}
	}
	if s.Inventory == nil {
		s.Inventory = []InventoryItem{}
	}
	if s.Customers == nil {
		s.Customers = []Customer{}
	}
	if s.InventoryLogs == nil {
		s.InventoryLogs = []InventoryLog{}
	}
	m := &s.Metrics
	if m.Bestsellers == nil {
		m.Bestsellers = map[string]*ItemStat{}
	}
	if m.StaffPerformance == nil {
		m.StaffPerformance = map[string]*StaffStat{}
	}
	if m.DailyRevenue == nil {
		m.DailyRevenue = map[string]float64{}
	}
	if m.WeeklyRevenue == nil {
		m.WeeklyRevenue = map[string]float64{}
	}
	if m.MonthlyRevenue == nil {
		m.MonthlyRevenue = map[string]float64{}
	}
	if m.PaymentMethods == nil {
		m.PaymentMethods = map[string]float64{}
	}
	if m.PrepTimes == nil {
		m.PrepTimes = map[string]*PrepStat{}
	}
}

// Snapshot returns a shallow copy of the state suitable for clients: staff
// password hashes are stripped. The copy shares every other collection with s
// and must be serialized before s is mutated again.
func (s *State) Snapshot() State {
	out := *s
	out.Staff = make([]StaffAccount, len(s.Staff))
	for i, acc := range s.Staff {
		acc.PasswordHash = ""
		out.Staff[i] = acc
	}
	return out
}
