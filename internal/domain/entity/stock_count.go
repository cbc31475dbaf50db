package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un conteo físico.
const (
	StockCountDraft    = "draft"
	StockCountApproved = "approved"
)

// StockCount es un conteo físico de una ubicación. Approve ajusta las diferencias.
type StockCount struct {
	ID         int64
	BusinessID int64
	StoreID    int64
	Location   string
	CategoryID *int64
	CountDate  time.Time
	Status     string
	Memo       string
	CreatedBy  *int64
	ApprovedBy *int64
	ApprovedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Items      []StockCountItem
}

// StockCountItem es una línea del conteo: cantidad del sistema al crear y cantidad contada.
type StockCountItem struct {
	ID             int64
	CountID        int64
	ProductID      int64
	SystemQuantity decimal.Decimal
	ActualQuantity *decimal.Decimal
	Difference     decimal.Decimal
	Memo           string
}

// HasDifference indica si la línea fue contada y difiere del sistema.
func (i *StockCountItem) HasDifference() bool {
	return i.ActualQuantity != nil && !i.ActualQuantity.Equal(i.SystemQuantity)
}
