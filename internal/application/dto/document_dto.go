package dto

import (
	"time"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ─── Compras ─────────────────────────────────────────────────────────────────

// PurchaseItemRequest línea de compra.
type PurchaseItemRequest struct {
	ProductID  int64           `json:"product_id" validate:"required,gt=0"`
	Quantity   decimal.Decimal `json:"quantity" validate:"gt=0"`
	UnitPrice  decimal.Decimal `json:"unit_price" validate:"gte=0"`
	ExpiryDate string          `json:"expiry_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Location   string          `json:"location,omitempty" validate:"max=50"`
}

// CreatePurchaseRequest body para POST /api/purchases.
type CreatePurchaseRequest struct {
	StoreID      int64                 `json:"store_id" validate:"required,gt=0"`
	SupplierID   *int64                `json:"supplier_id,omitempty" validate:"omitempty,gt=0"`
	PurchaseDate string                `json:"purchase_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Memo         string                `json:"memo,omitempty" validate:"max=500"`
	Items        []PurchaseItemRequest `json:"items" validate:"required,min=1,dive"`
}

// PurchaseItemsRequest body para PUT /api/purchases/:id/items.
type PurchaseItemsRequest struct {
	Items []PurchaseItemRequest `json:"items" validate:"required,min=1,dive"`
}

// PurchaseItemResponse línea de compra.
type PurchaseItemResponse struct {
	ID         int64           `json:"id"`
	ProductID  int64           `json:"product_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Amount     decimal.Decimal `json:"amount"`
	ExpiryDate *string         `json:"expiry_date"`
	Location   string          `json:"location"`
}

// PurchaseResponse salida de una compra.
type PurchaseResponse struct {
	ID           int64                  `json:"id"`
	StoreID      int64                  `json:"store_id"`
	SupplierID   *int64                 `json:"supplier_id,omitempty"`
	Number       string                 `json:"number"`
	PurchaseDate string                 `json:"purchase_date"`
	Status       string                 `json:"status"`
	TotalAmount  decimal.Decimal        `json:"total_amount"`
	Memo         string                 `json:"memo,omitempty"`
	ReceivedAt   *time.Time             `json:"received_at,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	Items        []PurchaseItemResponse `json:"items,omitempty"`
}

// ToPurchaseResponse mapea una compra.
func ToPurchaseResponse(p *entity.Purchase) PurchaseResponse {
	out := PurchaseResponse{
		ID:           p.ID,
		StoreID:      p.StoreID,
		SupplierID:   p.SupplierID,
		Number:       p.Number,
		PurchaseDate: p.PurchaseDate.Format(DateLayout),
		Status:       p.Status,
		TotalAmount:  p.TotalAmount,
		Memo:         p.Memo,
		ReceivedAt:   p.ReceivedAt,
		CreatedAt:    p.CreatedAt,
	}
	for _, it := range p.Items {
		out.Items = append(out.Items, PurchaseItemResponse{
			ID: it.ID, ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.UnitPrice,
			Amount: it.Amount, ExpiryDate: formatDate(it.ExpiryDate), Location: it.Location,
		})
	}
	return out
}

// ToPurchaseResponses mapea una lista de compras.
func ToPurchaseResponses(ps []*entity.Purchase) []PurchaseResponse {
	out := make([]PurchaseResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, ToPurchaseResponse(p))
	}
	return out
}

// ─── Ventas ──────────────────────────────────────────────────────────────────

// SaleItemRequest línea de venta; con lots se descuentan esos lotes.
type SaleItemRequest struct {
	ProductID int64                `json:"product_id" validate:"required,gt=0"`
	Quantity  decimal.Decimal      `json:"quantity" validate:"gte=0"`
	UnitPrice decimal.Decimal      `json:"unit_price" validate:"gte=0"`
	Location  string               `json:"location,omitempty" validate:"max=50"`
	Lots      []LotQuantityRequest `json:"lots,omitempty" validate:"dive"`
}

// CreateSaleRequest body para POST /api/sales.
type CreateSaleRequest struct {
	StoreID    int64             `json:"store_id" validate:"required,gt=0"`
	CustomerID *int64            `json:"customer_id,omitempty" validate:"omitempty,gt=0"`
	SaleDate   string            `json:"sale_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Memo       string            `json:"memo,omitempty" validate:"max=500"`
	Items      []SaleItemRequest `json:"items" validate:"required,min=1,dive"`
}

// SaleItemsRequest body para PUT /api/sales/:id/items.
type SaleItemsRequest struct {
	Items []SaleItemRequest `json:"items" validate:"required,min=1,dive"`
}

// SaleItemResponse línea de venta.
type SaleItemResponse struct {
	ID        int64                `json:"id"`
	ProductID int64                `json:"product_id"`
	Quantity  decimal.Decimal      `json:"quantity"`
	UnitPrice decimal.Decimal      `json:"unit_price"`
	Amount    decimal.Decimal      `json:"amount"`
	Location  string               `json:"location"`
	Lots      []LotQuantityRequest `json:"lots,omitempty"`
}

// SaleResponse salida de una venta.
type SaleResponse struct {
	ID          int64              `json:"id"`
	StoreID     int64              `json:"store_id"`
	CustomerID  *int64             `json:"customer_id,omitempty"`
	Number      string             `json:"number"`
	SaleDate    string             `json:"sale_date"`
	Status      string             `json:"status"`
	TotalAmount decimal.Decimal    `json:"total_amount"`
	Memo        string             `json:"memo,omitempty"`
	ConfirmedAt *time.Time         `json:"confirmed_at,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	Items       []SaleItemResponse `json:"items,omitempty"`
}

// ToSaleResponse mapea una venta.
func ToSaleResponse(s *entity.Sale) SaleResponse {
	out := SaleResponse{
		ID:          s.ID,
		StoreID:     s.StoreID,
		CustomerID:  s.CustomerID,
		Number:      s.Number,
		SaleDate:    s.SaleDate.Format(DateLayout),
		Status:      s.Status,
		TotalAmount: s.TotalAmount,
		Memo:        s.Memo,
		ConfirmedAt: s.ConfirmedAt,
		CreatedAt:   s.CreatedAt,
	}
	for _, it := range s.Items {
		item := SaleItemResponse{
			ID: it.ID, ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.UnitPrice,
			Amount: it.Amount, Location: it.Location,
		}
		for _, l := range it.Lots {
			item.Lots = append(item.Lots, LotQuantityRequest{LotID: l.LotID, Quantity: l.Quantity})
		}
		out.Items = append(out.Items, item)
	}
	return out
}

// ToSaleResponses mapea una lista de ventas.
func ToSaleResponses(ss []*entity.Sale) []SaleResponse {
	out := make([]SaleResponse, 0, len(ss))
	for _, s := range ss {
		out = append(out, ToSaleResponse(s))
	}
	return out
}

// ─── Conteos físicos ─────────────────────────────────────────────────────────

// CreateStockCountRequest body para POST /api/stock-counts.
type CreateStockCountRequest struct {
	StoreID    int64  `json:"store_id" validate:"required,gt=0"`
	Location   string `json:"location,omitempty" validate:"max=50"`
	CategoryID *int64 `json:"category_id,omitempty" validate:"omitempty,gt=0"`
	CountDate  string `json:"count_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Memo       string `json:"memo,omitempty" validate:"max=500"`
}

// StockCountItemRequest cantidad contada de una línea.
type StockCountItemRequest struct {
	ItemID int64           `json:"item_id" validate:"required,gt=0"`
	Actual decimal.Decimal `json:"actual_quantity" validate:"gte=0"`
	Memo   string          `json:"memo,omitempty" validate:"max=255"`
}

// StockCountItemsRequest body para PUT /api/stock-counts/:id/items.
type StockCountItemsRequest struct {
	Items []StockCountItemRequest `json:"items" validate:"required,min=1,dive"`
}

// StockCountItemResponse línea de conteo.
type StockCountItemResponse struct {
	ID             int64            `json:"id"`
	ProductID      int64            `json:"product_id"`
	SystemQuantity decimal.Decimal  `json:"system_quantity"`
	ActualQuantity *decimal.Decimal `json:"actual_quantity"`
	Difference     decimal.Decimal  `json:"difference"`
	Memo           string           `json:"memo,omitempty"`
}

// StockCountResponse salida de un conteo.
type StockCountResponse struct {
	ID         int64                    `json:"id"`
	StoreID    int64                    `json:"store_id"`
	Location   string                   `json:"location"`
	CategoryID *int64                   `json:"category_id,omitempty"`
	CountDate  string                   `json:"count_date"`
	Status     string                   `json:"status"`
	Memo       string                   `json:"memo,omitempty"`
	ApprovedAt *time.Time               `json:"approved_at,omitempty"`
	CreatedAt  time.Time                `json:"created_at"`
	Items      []StockCountItemResponse `json:"items,omitempty"`
}

// ToStockCountResponse mapea un conteo.
func ToStockCountResponse(sc *entity.StockCount) StockCountResponse {
	out := StockCountResponse{
		ID:         sc.ID,
		StoreID:    sc.StoreID,
		Location:   sc.Location,
		CategoryID: sc.CategoryID,
		CountDate:  sc.CountDate.Format(DateLayout),
		Status:     sc.Status,
		Memo:       sc.Memo,
		ApprovedAt: sc.ApprovedAt,
		CreatedAt:  sc.CreatedAt,
	}
	for _, it := range sc.Items {
		out.Items = append(out.Items, StockCountItemResponse{
			ID: it.ID, ProductID: it.ProductID, SystemQuantity: it.SystemQuantity,
			ActualQuantity: it.ActualQuantity, Difference: it.Difference, Memo: it.Memo,
		})
	}
	return out
}

// ToStockCountResponses mapea una lista de conteos.
func ToStockCountResponses(cs []*entity.StockCount) []StockCountResponse {
	out := make([]StockCountResponse, 0, len(cs))
	for _, c := range cs {
		out = append(out, ToStockCountResponse(c))
	}
	return out
}
