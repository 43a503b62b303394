package commands

import (
	"reflect"
	"strings"
	"time"

	"github.com/mamadbah2/restopos/internal/domain/models"
)

type byID struct {
	ID string `json:"id" validate:"required"`
}

type empty struct{}

type settingsUpdate struct {
	TaxPercent           *float64 `json:"taxPercent" validate:"omitempty,gte=0,lte=100"`
	ServiceChargePercent *float64 `json:"serviceChargePercent" validate:"omitempty,gte=0,lte=100"`
	Currency             *string  `json:"currency" validate:"omitempty,len=3,alpha"`
	RestaurantName       *string  `json:"restaurantName" validate:"omitempty,max=128"`
}

type categoryCreate struct {
	Name      string `json:"name" validate:"required,max=64"`
	SortOrder *int   `json:"sortOrder" validate:"omitempty,gte=0"`
}

type categoryUpdate struct {
	ID        string  `json:"id" validate:"required"`
	Name      *string `json:"name" validate:"omitempty,min=1,max=64"`
	SortOrder *int    `json:"sortOrder" validate:"omitempty,gte=0"`
}

type menuCreate struct {
	CategoryID  string   `json:"categoryId"`
	Name        string   `json:"name" validate:"required,max=128"`
	Description string   `json:"description" validate:"max=512"`
	Price       *float64 `json:"price" validate:"required,gte=0"`
	Available   *bool    `json:"available"`
	SortOrder   *int     `json:"sortOrder" validate:"omitempty,gte=0"`
}

type menuUpdate struct {
	ID          string   `json:"id" validate:"required"`
	CategoryID  *string  `json:"categoryId"`
	Name        *string  `json:"name" validate:"omitempty,min=1,max=128"`
	Description *string  `json:"description" validate:"omitempty,max=512"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	Available   *bool    `json:"available"`
	SortOrder   *int     `json:"sortOrder" validate:"omitempty,gte=0"`
}

type staffCreate struct {
	Username    string           `json:"username" validate:"required,min=3,max=32"`
	Password    string           `json:"password" validate:"required,min=4,max=72"`
	DisplayName string           `json:"displayName" validate:"max=64"`
	Role        models.StaffRole `json:"role" validate:"required,oneof=cashier kitchen manager"`
}

type staffSetStatus struct {
	ID     string             `json:"id" validate:"required"`
	Status models.StaffStatus `json:"status" validate:"required,oneof=active paused"`
}

type staffSetRole struct {
	ID   string           `json:"id" validate:"required"`
	Role models.StaffRole `json:"role" validate:"required,oneof=cashier kitchen manager"`
}

type promoCreate struct {
	Code        string           `json:"code" validate:"required,max=32"`
	Type        models.PromoType `json:"type" validate:"required,oneof=percentage fixed"`
	Value       float64          `json:"value" validate:"gt=0"`
	MaxDiscount *float64         `json:"maxDiscount" validate:"omitempty,gt=0"`
	ExpiresAt   *time.Time       `json:"expiresAt"`
	MaxUses     *int             `json:"maxUses" validate:"omitempty,gte=1"`
	IsActive    *bool            `json:"isActive"`
}

// promoUpdate clears maxDiscount or maxUses when they are sent as 0.
type promoUpdate struct {
	ID          string            `json:"id" validate:"required"`
	Code        *string           `json:"code" validate:"omitempty,min=1,max=32"`
	Type        *models.PromoType `json:"type" validate:"omitempty,oneof=percentage fixed"`
	Value       *float64          `json:"value" validate:"omitempty,gt=0"`
	MaxDiscount *float64          `json:"maxDiscount" validate:"omitempty,gte=0"`
	ExpiresAt   *time.Time        `json:"expiresAt"`
	ClearExpiry bool              `json:"clearExpiry"`
	MaxUses     *int              `json:"maxUses" validate:"omitempty,gte=0"`
	IsActive    *bool             `json:"isActive"`
}

// promoApply previews a promo against either a subtotal or a list of lines.
type promoApply struct {
	Code     string      `json:"code" validate:"required"`
	Subtotal *float64    `json:"subtotal" validate:"omitempty,gte=0"`
	Items    []lineInput `json:"items" validate:"omitempty,dive"`
}

type revenueReset struct {
	Reason string `json:"reason" validate:"max=256"`
}

type revenueAdjust struct {
	Amount float64 `json:"amount" validate:"required"`
	Reason string  `json:"reason" validate:"required,max=256"`
}

type lineInput struct {
	MenuItemID string `json:"menuItemId" validate:"required"`
	Qty        int    `json:"qty" validate:"required,min=1,max=999"`
	Note       string `json:"note" validate:"max=128"`
}

type orderCreate struct {
	Items         []lineInput `json:"items" validate:"required,min=1,dive"`
	CustomerName  string      `json:"customerName" validate:"required,max=64"`
	CustomerPhone string      `json:"customerPhone" validate:"max=32"`
	CustomerEmail string      `json:"customerEmail" validate:"omitempty,email"`
	TableID       string      `json:"tableId" validate:"required,max=16"`
	PromoCode     string      `json:"promoCode" validate:"max=32"`
	Note          string      `json:"note" validate:"max=256"`
}

type orderUpdate struct {
	ID           string      `json:"id" validate:"required"`
	Items        []lineInput `json:"items" validate:"omitempty,min=1,dive"`
	CustomerName *string     `json:"customerName" validate:"omitempty,min=1,max=64"`
	TableID      *string     `json:"tableId" validate:"omitempty,min=1,max=16"`
	Note         *string     `json:"note" validate:"omitempty,max=256"`
}

type orderSetStatus struct {
	ID     string             `json:"id" validate:"required"`
	Status models.OrderStatus `json:"status" validate:"required,oneof=new preparing done"`
}

type receiptCreate struct {
	OrderID       string               `json:"orderId" validate:"required"`
	PaymentMethod models.PaymentMethod `json:"paymentMethod" validate:"required,oneof=cash card other"`
	Amount        *float64             `json:"amount" validate:"omitempty,gte=0"`
}

type receiptPreview struct {
	OrderID string `json:"orderId" validate:"required"`
}

type exportRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type inventoryArchive struct {
	ID       string `json:"id" validate:"required"`
	Archived *bool  `json:"archived"`
}

type inventorySearch struct {
	Query           string `json:"query" validate:"max=128"`
	IncludeArchived bool   `json:"includeArchived"`
}

type inventoryLogs struct {
	ItemID string `json:"itemId"`
	Limit  int    `json:"limit" validate:"gte=0,lte=1000"`
}

type customerSearch struct {
	Query string `json:"query" validate:"max=128"`
}

// jsonFieldName reports validation failures by their wire names.
func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}
