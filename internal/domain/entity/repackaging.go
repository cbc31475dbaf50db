package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// RepackagingRule convierte un producto origen en N productos destino según su ratio.
type RepackagingRule struct {
	ID              int64
	BusinessID      int64
	Name            string
	SourceProductID int64
	Active          bool
	Memo            string
	CreatedAt       time.Time
	Targets         []RepackagingTarget
}

// RepackagingTarget es un producto destino: cantidad = cantidad origen × Ratio.
type RepackagingTarget struct {
	ID              int64
	RuleID          int64
	TargetProductID int64
	Ratio           decimal.Decimal
}

// RepackagingOutput es la cantidad producida de un destino en una ejecución.
type RepackagingOutput struct {
	ProductID int64
	Quantity  decimal.Decimal
}
