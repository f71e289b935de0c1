package model

import (
	"time"

	"github.com/muhammadheryan/storefront/constant"
	"github.com/shopspring/decimal"
)

var (
	orderTaxRate          = decimal.RequireFromString("0.1")
	freeShippingThreshold = decimal.NewFromInt(100)
	flatShippingPrice     = decimal.NewFromInt(10)
)

// OrderEntity represents the order table entity with its line items.
type OrderEntity struct {
	ID              uint64                 `db:"id" json:"id"`
	UserID          uint64                 `db:"user_id" json:"user_id"`
	User            OrderUser              `db:"user" json:"user"`
	Items           []OrderItem            `db:"-" json:"order_items"`
	ShippingAddress ShippingAddress        `db:"ship" json:"shipping_address"`
	PaymentMethod   constant.PaymentMethod `db:"payment_method" json:"payment_method"`
	ItemsPrice      decimal.Decimal        `db:"items_price" json:"items_price"`
	TaxPrice        decimal.Decimal        `db:"tax_price" json:"tax_price"`
	ShippingPrice   decimal.Decimal        `db:"shipping_price" json:"shipping_price"`
	TotalPrice      decimal.Decimal        `db:"total_price" json:"total_price"`
	IsPaid          bool                   `db:"is_paid" json:"is_paid"`
	IsDelivered     bool                   `db:"is_delivered" json:"is_delivered"`
	DeliveredAt     *time.Time             `db:"delivered_at" json:"delivered_at,omitempty"`
	CreatedAt       time.Time              `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time              `db:"updated_at" json:"updated_at"`
}

// OrderUser is the buyer as shown next to an order. Fields are empty once
// the account is deleted.
type OrderUser struct {
	ID    uint64 `db:"id" json:"id"`
	Name  string `db:"name" json:"name"`
	Email string `db:"email" json:"email"`
}

// OrderItem is a product snapshot taken when the order was placed.
type OrderItem struct {
	OrderID   uint64          `db:"order_id" json:"-"`
	ProductID string          `db:"product_id" json:"product"`
	Name      string          `db:"name" json:"name"`
	Image     string          `db:"image" json:"image"`
	Price     decimal.Decimal `db:"price" json:"price"`
	Quantity  int             `db:"quantity" json:"qty"`
}

type ShippingAddress struct {
	Address    string `db:"address" json:"address" validate:"required"`
	City       string `db:"city" json:"city" validate:"required"`
	PostalCode string `db:"postal_code" json:"postal_code" validate:"required"`
	Country    string `db:"country" json:"country" validate:"required"`
	State      string `db:"state" json:"state"`
}

type OrderItemRequest struct {
	ProductID string `json:"product" validate:"required"`
	Quantity  int    `json:"qty" validate:"required,gt=0"`
}

// CreateOrderRequest carries only what the buyer chooses. Names, images and
// prices are read from the catalog when the order is placed.
type CreateOrderRequest struct {
	Items           []OrderItemRequest     `json:"order_items" validate:"required,min=1,dive"`
	ShippingAddress ShippingAddress        `json:"shipping_address"`
	PaymentMethod   constant.PaymentMethod `json:"payment_method" validate:"required,oneof=stripe paypal cash"`
}

// MergedItems folds repeated products into one line each, keeping the
// order in which products first appear.
func (r *CreateOrderRequest) MergedItems() []OrderItemRequest {
	merged := make([]OrderItemRequest, 0, len(r.Items))
	index := make(map[string]int, len(r.Items))
	for _, it := range r.Items {
		if i, ok := index[it.ProductID]; ok {
			merged[i].Quantity += it.Quantity
			continue
		}
		index[it.ProductID] = len(merged)
		merged = append(merged, it)
	}
	return merged
}

// ComputePrices derives every price field from the line items. Tax is 10%
// of the items rounded to cents; shipping is free above 100.
func (o *OrderEntity) ComputePrices() {
	items := decimal.Zero
	for _, it := range o.Items {
		items = items.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	o.ItemsPrice = items
	o.TaxPrice = items.Mul(orderTaxRate).Round(2)
	if items.GreaterThan(freeShippingThreshold) {
		o.ShippingPrice = decimal.Zero
	} else {
		o.ShippingPrice = flatShippingPrice
	}
	o.TotalPrice = items.Add(o.TaxPrice).Add(o.ShippingPrice)
}
