package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// LotFilter filtra la consulta de lotes. Los campos en cero no filtran.
type LotFilter struct {
	BusinessID     int64
	StoreID        int64
	ProductID      int64
	Location       string
	InStockOnly    bool
	ExpiringBefore *time.Time
	Limit          int
	Offset         int
}

// LotRepository define el puerto del almacén de lotes.
// Los métodos ForUpdate bloquean las filas hasta el fin de la transacción.
type LotRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.Lot, error)
	GetForUpdate(ctx context.Context, id int64) (*entity.Lot, error)
	FindByKeyForUpdate(ctx context.Context, key entity.LotKey) (*entity.Lot, error)
	// ListForUpdate devuelve todos los lotes de (producto, tienda, ubicación) en orden FEFO:
	// vencimiento ascendente, sin vencimiento al final, empate por id.
	ListForUpdate(ctx context.Context, productID, storeID int64, location string) ([]*entity.Lot, error)
	// AddQuantity hace upsert sobre la llave del lote sumando delta.
	AddQuantity(ctx context.Context, key entity.LotKey, delta decimal.Decimal) (*entity.Lot, error)
	SetQuantity(ctx context.Context, id int64, quantity decimal.Decimal) error
	List(ctx context.Context, f LotFilter) ([]*entity.Lot, error)
	// StockLevels suma cantidades por producto en una tienda; location vacío suma todas las ubicaciones.
	StockLevels(ctx context.Context, storeID int64, location string, categoryID *int64) ([]entity.StockLevel, error)
}
