package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un pedido mayorista.
const (
	WholesaleDraft     = "draft"
	WholesaleConfirmed = "confirmed"
	WholesaleShipped   = "shipped"
	WholesaleDelivered = "delivered"
	WholesaleCancelled = "cancelled"
)

// Estados de pago de un pedido mayorista.
const (
	PaymentUnpaid  = "unpaid"
	PaymentPartial = "partial"
	PaymentPaid    = "paid"
)

// Tipos de precio especial por cliente.
const (
	DiscountTypeRate  = "rate"
	DiscountTypeFixed = "fixed_price"
)

// WholesaleClient es un cliente mayorista.
type WholesaleClient struct {
	ID                  int64
	BusinessID          int64
	Name                string
	BusinessNumber      string
	Phone               string
	DefaultDiscountRate decimal.Decimal
	Active              bool
	CreatedAt           time.Time
}

// WholesalePricing es el precio especial de un producto para un cliente.
type WholesalePricing struct {
	ID           int64
	ClientID     int64
	ProductID    int64
	DiscountType string
	DiscountRate decimal.Decimal
	FixedPrice   *decimal.Decimal
}

// WholesaleOrder es un pedido mayorista. Ship descuenta el inventario.
type WholesaleOrder struct {
	ID             int64
	BusinessID     int64
	StoreID        int64
	ClientID       int64
	Number         string
	OrderDate      time.Time
	Status         string
	TotalAmount    decimal.Decimal
	DiscountAmount decimal.Decimal
	FinalAmount    decimal.Decimal
	PaidAmount     decimal.Decimal
	PaymentStatus  string
	Memo           string
	CreatedBy      *int64
	ShippedBy      *int64
	ShippedAt      *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Items          []WholesaleOrderItem
}

// CanShip indica si el pedido admite el despacho.
func (o *WholesaleOrder) CanShip() bool {
	return o.Status == WholesaleDraft || o.Status == WholesaleConfirmed
}

// WholesaleOrderItem es una línea del pedido.
type WholesaleOrderItem struct {
	ID             int64
	OrderID        int64
	ProductID      int64
	Quantity       decimal.Decimal
	UnitPrice      decimal.Decimal
	DiscountRate   decimal.Decimal
	DiscountAmount decimal.Decimal
	Amount         decimal.Decimal
	Location       string
}

// WholesalePayment es un abono a un pedido.
type WholesalePayment struct {
	ID        int64
	OrderID   int64
	Amount    decimal.Decimal
	Method    string
	PaidAt    time.Time
	Memo      string
	CreatedBy *int64
}

// ClientBalance es el saldo pendiente de un cliente mayorista.
type ClientBalance struct {
	ClientID    int64
	TotalAmount decimal.Decimal
	PaidAmount  decimal.Decimal
	Balance     decimal.Decimal
}
