package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ubicaciones por defecto dentro de una tienda.
const (
	DefaultLocation = "warehouse"
	KitchenLocation = "kitchen"
)

// LotKey es la identidad de un lote: (producto, tienda, ubicación, vencimiento o nulo).
type LotKey struct {
	ProductID  int64
	StoreID    int64
	Location   string
	ExpiryDate *time.Time
}

// Normalize deja el vencimiento como fecha calendario (UTC, sin hora) y aplica la ubicación por defecto.
func (k LotKey) Normalize() LotKey {
	if k.Location == "" {
		k.Location = DefaultLocation
	}
	k.ExpiryDate = DateOnly(k.ExpiryDate)
	return k
}

// Lot representa la cantidad disponible de un producto en una tienda, ubicación y vencimiento.
// Nunca se elimina: un lote agotado queda en cero y se excluye de FEFO.
type Lot struct {
	ID         int64
	ProductID  int64
	StoreID    int64
	Location   string
	ExpiryDate *time.Time
	Quantity   decimal.Decimal
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Key devuelve la identidad del lote.
func (l *Lot) Key() LotKey {
	return LotKey{ProductID: l.ProductID, StoreID: l.StoreID, Location: l.Location, ExpiryDate: l.ExpiryDate}
}

// InStock indica si el lote tiene cantidad positiva.
func (l *Lot) InStock() bool {
	return l.Quantity.IsPositive()
}

// DateOnly trunca un vencimiento a fecha calendario en UTC.
func DateOnly(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &day
}

// SameExpiry compara dos vencimientos opcionales a nivel de fecha.
func SameExpiry(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return DateOnly(a).Equal(*DateOnly(b))
}

// StockLevel es el total disponible de un producto en una tienda (opcionalmente por ubicación).
type StockLevel struct {
	ProductID int64
	StoreID   int64
	Location  string
	Quantity  decimal.Decimal
	LotCount  int
}
