package possync

import (
	"context"

	"github.com/shopspring/decimal"
)

// Source lee las tablas del POS externo. Las filas vienen ordenadas por id ascendente.
type Source interface {
	FetchSaleItems(ctx context.Context, businessID, afterID int64, limit int) ([]SaleRow, error)
	FetchStockTransactions(ctx context.Context, businessID, afterID int64, limit int) ([]StockRow, error)
	FetchProducts(ctx context.Context, businessID int64) ([]ProductRow, error)
}

// ProductCache guarda la resolución código POS → id de producto.
type ProductCache interface {
	GetProductID(ctx context.Context, businessID int64, code string) (int64, bool, error)
	SetProductID(ctx context.Context, businessID int64, code string, productID int64) error
}

// SaleRow es una línea de venta del POS.
type SaleRow struct {
	ID        int64
	MenuCode  string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	ReceiptID int64
}

// Tipos de movimiento de la tabla stock_transactions del POS.
const (
	StockTypeIn     = "IN"
	StockTypeOut    = "OUT"
	StockTypeAdjust = "ADJUST"
)

// StockRow es un movimiento de inventario del POS.
type StockRow struct {
	ID       int64
	Type     string
	MenuCode string
	Quantity decimal.Decimal
	UnitCost decimal.Decimal
	Reason   string
}

// ProductRow es un producto del maestro del POS.
type ProductRow struct {
	Code      string
	Name      string
	SellPrice decimal.Decimal
	CostPrice decimal.Decimal
}
