package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una compra.
const (
	PurchaseDraft     = "draft"
	PurchaseReceived  = "received"
	PurchaseCancelled = "cancelled"
)

// Purchase es una orden de compra a proveedor. Las líneas no afectan inventario hasta Receive.
type Purchase struct {
	ID           int64
	BusinessID   int64
	StoreID      int64
	SupplierID   *int64
	Number       string
	PurchaseDate time.Time
	Status       string
	TotalAmount  decimal.Decimal
	Memo         string
	CreatedBy    *int64
	ReceivedBy   *int64
	ReceivedAt   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Items        []PurchaseItem
}

// PurchaseItem es una línea de compra.
type PurchaseItem struct {
	ID         int64
	PurchaseID int64
	ProductID  int64
	Quantity   decimal.Decimal
	UnitPrice  decimal.Decimal
	Amount     decimal.Decimal
	ExpiryDate *time.Time
	Location   string
}
