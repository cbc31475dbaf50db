package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo de un negocio.
// Code es el código con el que el POS externo identifica el producto.
type Product struct {
	ID            int64
	BusinessID    int64
	CategoryID    *int64
	Code          string
	Name          string
	Unit          string
	PurchasePrice decimal.Decimal
	SellPrice     decimal.Decimal
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
