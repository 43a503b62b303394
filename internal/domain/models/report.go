package models

import "time"

// DailyReport is the end of day summary shipped to the configured report sinks.
type DailyReport struct {
	Date           string             `bson:"date" json:"date"`
	Orders         int                `bson:"orders" json:"orders"`
	CompletedOrder int                `bson:"completed_orders" json:"completed_orders"`
	Revenue        float64            `bson:"revenue" json:"revenue"`
	Discounts      float64            `bson:"discounts" json:"discounts"`
	AvgPrepSeconds float64            `bson:"avg_prep_seconds" json:"avg_prep_seconds"`
	TopItem        string             `bson:"top_item" json:"top_item"`
	PaymentMethods map[string]float64 `bson:"payment_methods" json:"payment_methods"`
	LedgerTotal    float64            `bson:"ledger_total" json:"ledger_total"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
}
