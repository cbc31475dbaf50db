package dto

import (
	"time"

	"github.com/jhoicas/stockledger-api/internal/application/ledger"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// StockInRequest body para POST /api/inventory/stock-in.
type StockInRequest struct {
	ProductID  int64           `json:"product_id" validate:"required,gt=0"`
	StoreID    int64           `json:"store_id" validate:"required,gt=0"`
	Location   string          `json:"location,omitempty" validate:"max=50"`
	Quantity   decimal.Decimal `json:"quantity" validate:"gt=0"`
	ExpiryDate string          `json:"expiry_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	UnitPrice  decimal.Decimal `json:"unit_price" validate:"gte=0"`
	Reason     string          `json:"reason,omitempty" validate:"max=255"`
}

// StockOutRequest body para POST /api/inventory/stock-out (FEFO).
type StockOutRequest struct {
	ProductID int64           `json:"product_id" validate:"required,gt=0"`
	StoreID   int64           `json:"store_id" validate:"required,gt=0"`
	Location  string          `json:"location,omitempty" validate:"max=50"`
	Quantity  decimal.Decimal `json:"quantity" validate:"gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"gte=0"`
	Reason    string          `json:"reason,omitempty" validate:"max=255"`
}

// LotQuantityRequest cantidad a tomar de un lote.
type LotQuantityRequest struct {
	LotID    int64           `json:"lot_id" validate:"required,gt=0"`
	Quantity decimal.Decimal `json:"quantity" validate:"gt=0"`
}

// LotStockOutRequest body para POST /api/inventory/lot-stock-out.
type LotStockOutRequest struct {
	StoreID   int64                `json:"store_id" validate:"required,gt=0"`
	Lots      []LotQuantityRequest `json:"lots" validate:"required,min=1,dive"`
	UnitPrice decimal.Decimal      `json:"unit_price" validate:"gte=0"`
	Reason    string               `json:"reason,omitempty" validate:"max=255"`
}

// LotMoveRequest body para POST /api/inventory/lot-move.
type LotMoveRequest struct {
	StoreID    int64                `json:"store_id" validate:"required,gt=0"`
	ToLocation string               `json:"to_location" validate:"required,max=50"`
	Lots       []LotQuantityRequest `json:"lots" validate:"required,min=1,dive"`
	Reason     string               `json:"reason,omitempty" validate:"max=255"`
}

// AdjustRequest body para POST /api/inventory/adjust. Con lot_id ajusta ese lote.
type AdjustRequest struct {
	ProductID   int64           `json:"product_id" validate:"required,gt=0"`
	StoreID     int64           `json:"store_id" validate:"required,gt=0"`
	Location    string          `json:"location,omitempty" validate:"max=50"`
	NewQuantity decimal.Decimal `json:"new_quantity" validate:"gte=0"`
	LotID       *int64          `json:"lot_id,omitempty" validate:"omitempty,gt=0"`
	Reason      string          `json:"reason,omitempty" validate:"max=255"`
}

// DiscardRequest body para POST /api/inventory/discard.
type DiscardRequest struct {
	ProductID  int64           `json:"product_id" validate:"required,gt=0"`
	StoreID    int64           `json:"store_id" validate:"required,gt=0"`
	Location   string          `json:"location,omitempty" validate:"max=50"`
	Quantity   decimal.Decimal `json:"quantity" validate:"gt=0"`
	ExpiryDate string          `json:"expiry_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	LotID      *int64          `json:"lot_id,omitempty" validate:"omitempty,gt=0"`
	Reason     string          `json:"reason,omitempty" validate:"max=255"`
}

// MoveRequest body para POST /api/inventory/move (FEFO entre ubicaciones).
type MoveRequest struct {
	ProductID    int64           `json:"product_id" validate:"required,gt=0"`
	StoreID      int64           `json:"store_id" validate:"required,gt=0"`
	FromLocation string          `json:"from_location" validate:"required,max=50"`
	ToLocation   string          `json:"to_location" validate:"required,max=50,nefield=FromLocation"`
	Quantity     decimal.Decimal `json:"quantity" validate:"gt=0"`
	Reason       string          `json:"reason,omitempty" validate:"max=255"`
}

// LotResponse salida de un lote.
type LotResponse struct {
	ID         int64           `json:"id"`
	ProductID  int64           `json:"product_id"`
	StoreID    int64           `json:"store_id"`
	Location   string          `json:"location"`
	ExpiryDate *string         `json:"expiry_date"`
	Quantity   decimal.Decimal `json:"quantity"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// ToLotResponses mapea lotes a su salida.
func ToLotResponses(lots []*entity.Lot) []LotResponse {
	out := make([]LotResponse, 0, len(lots))
	for _, l := range lots {
		out = append(out, LotResponse{
			ID:         l.ID,
			ProductID:  l.ProductID,
			StoreID:    l.StoreID,
			Location:   l.Location,
			ExpiryDate: formatDate(l.ExpiryDate),
			Quantity:   l.Quantity,
			UpdatedAt:  l.UpdatedAt,
		})
	}
	return out
}

// TransactionResponse salida de una fila del libro.
type TransactionResponse struct {
	ID            int64           `json:"id"`
	OperationID   string          `json:"operation_id"`
	ProductID     int64           `json:"product_id"`
	StoreID       int64           `json:"store_id"`
	LotID         *int64          `json:"lot_id,omitempty"`
	Type          string          `json:"type"`
	FromLocation  string          `json:"from_location,omitempty"`
	ToLocation    string          `json:"to_location,omitempty"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Reason        string          `json:"reason"`
	UserID        *int64          `json:"user_id,omitempty"`
	ReferenceType string          `json:"reference_type,omitempty"`
	ReferenceID   *int64          `json:"reference_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ToTransactionResponses mapea transacciones a su salida.
func ToTransactionResponses(txs []*entity.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, TransactionResponse{
			ID:            t.ID,
			OperationID:   t.OperationID,
			ProductID:     t.ProductID,
			StoreID:       t.StoreID,
			LotID:         t.LotID,
			Type:          t.Type,
			FromLocation:  t.FromLocation,
			ToLocation:    t.ToLocation,
			Quantity:      t.Quantity,
			UnitPrice:     t.UnitPrice,
			TotalAmount:   t.TotalAmount,
			Reason:        t.Reason,
			UserID:        t.UserID,
			ReferenceType: t.ReferenceType,
			ReferenceID:   t.ReferenceID,
			CreatedAt:     t.CreatedAt,
		})
	}
	return out
}

// StockLevelResponse total disponible de un producto.
type StockLevelResponse struct {
	ProductID int64           `json:"product_id"`
	Location  string          `json:"location,omitempty"`
	Quantity  decimal.Decimal `json:"quantity"`
	LotCount  int             `json:"lot_count"`
}

// ToStockLevelResponses mapea el resumen de una tienda.
func ToStockLevelResponses(levels []entity.StockLevel) []StockLevelResponse {
	out := make([]StockLevelResponse, 0, len(levels))
	for _, lv := range levels {
		out = append(out, StockLevelResponse{ProductID: lv.ProductID, Location: lv.Location, Quantity: lv.Quantity, LotCount: lv.LotCount})
	}
	return out
}

// AllocationResponse cantidad tomada de un lote.
type AllocationResponse struct {
	LotID     int64           `json:"lot_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	Remaining decimal.Decimal `json:"remaining"`
}

// LedgerResultResponse salida de una operación del libro.
type LedgerResultResponse struct {
	OperationID  string                `json:"operation_id"`
	Transactions []TransactionResponse `json:"transactions"`
	Consumed     []AllocationResponse  `json:"consumed,omitempty"`
	Skipped      []int64               `json:"skipped_lots,omitempty"`
	Shortfall    decimal.Decimal       `json:"shortfall"`
}

// ToLedgerResult mapea el resultado del motor.
func ToLedgerResult(r *ledger.Result) LedgerResultResponse {
	out := LedgerResultResponse{
		OperationID:  r.OperationID,
		Transactions: ToTransactionResponses(r.Transactions),
		Skipped:      r.Skipped,
		Shortfall:    r.Shortfall,
	}
	for _, a := range r.Consumed {
		out.Consumed = append(out.Consumed, AllocationResponse{LotID: a.LotID, Quantity: a.Quantity, Remaining: a.Remaining})
	}
	return out
}

// ToLotQuantities convierte las líneas por lote del request.
func ToLotQuantities(in []LotQuantityRequest) []entity.LotQuantity {
	out := make([]entity.LotQuantity, 0, len(in))
	for _, l := range in {
		out = append(out, entity.LotQuantity{LotID: l.LotID, Quantity: l.Quantity})
	}
	return out
}
