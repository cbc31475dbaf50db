package repository

import (
	"context"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// TransferFilter filtra traslados; StoreID coincide con origen o destino.
type TransferFilter struct {
	BusinessID int64
	StoreID    int64
	Status     string
	Limit      int
	Offset     int
}

// TransferRepository define el puerto de persistencia para traslados y sus líneas.
type TransferRepository interface {
	Create(ctx context.Context, t *entity.Transfer) error
	GetByID(ctx context.Context, id int64) (*entity.Transfer, error)
	GetForUpdate(ctx context.Context, id int64) (*entity.Transfer, error)
	// UpdateStatus persiste estado, responsables y fechas del traslado.
	UpdateStatus(ctx context.Context, t *entity.Transfer) error
	SetShippedQuantity(ctx context.Context, itemID int64, qty decimal.Decimal) error
	SetReceivedQuantity(ctx context.Context, itemID int64, qty decimal.Decimal) error
	List(ctx context.Context, f TransferFilter) ([]*entity.Transfer, error)
	CountOpen(ctx context.Context, storeID int64) (entity.TransferCounts, error)
}
