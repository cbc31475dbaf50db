package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una venta.
const (
	SaleDraft     = "draft"
	SaleConfirmed = "confirmed"
	SaleCancelled = "cancelled"
)

// Sale es una venta registrada manualmente. Confirm descuenta el inventario.
type Sale struct {
	ID          int64
	BusinessID  int64
	StoreID     int64
	CustomerID  *int64
	Number      string
	SaleDate    time.Time
	Status      string
	TotalAmount decimal.Decimal
	Memo        string
	CreatedBy   *int64
	ConfirmedBy *int64
	ConfirmedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Items       []SaleItem
}

// SaleItem es una línea de venta. Si Lots no está vacío, se descuentan esos lotes en lugar de FEFO.
type SaleItem struct {
	ID        int64
	SaleID    int64
	ProductID int64
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	Amount    decimal.Decimal
	Location  string
	Lots      []LotQuantity
}

// LotQuantity indica una cantidad a tomar de un lote concreto.
type LotQuantity struct {
	LotID    int64
	Quantity decimal.Decimal
}
