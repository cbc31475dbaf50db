package dto

import (
	"time"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// CreateTransferRequest body para POST /api/transfers.
type CreateTransferRequest struct {
	FromStoreID int64                `json:"from_store_id" validate:"required,gt=0"`
	ToStoreID   int64                `json:"to_store_id" validate:"required,gt=0,nefield=FromStoreID"`
	Items       []LotQuantityRequest `json:"items" validate:"required,min=1,dive"`
	Memo        string               `json:"memo,omitempty" validate:"max=500"`
}

// ReceivedItemRequest cantidad recibida de una línea (recepción parcial).
type ReceivedItemRequest struct {
	ItemID   int64           `json:"item_id" validate:"required,gt=0"`
	Quantity decimal.Decimal `json:"quantity" validate:"gte=0"`
}

// ReceiveTransferRequest body para POST /api/transfers/:id/receive. Sin líneas se recibe lo solicitado.
type ReceiveTransferRequest struct {
	Items []ReceivedItemRequest `json:"items" validate:"dive"`
}

// TransferItemResponse línea de traslado.
type TransferItemResponse struct {
	ID               int64            `json:"id"`
	ProductID        int64            `json:"product_id"`
	LotID            *int64           `json:"lot_id,omitempty"`
	Quantity         decimal.Decimal  `json:"quantity"`
	ShippedQuantity  *decimal.Decimal `json:"shipped_quantity,omitempty"`
	ReceivedQuantity *decimal.Decimal `json:"received_quantity,omitempty"`
	ExpiryDate       *string          `json:"expiry_date"`
	Location         string           `json:"location"`
}

// TransferResponse salida de un traslado.
type TransferResponse struct {
	ID          int64                  `json:"id"`
	FromStoreID int64                  `json:"from_store_id"`
	ToStoreID   int64                  `json:"to_store_id"`
	Status      string                 `json:"status"`
	RequestedBy *int64                 `json:"requested_by,omitempty"`
	ShippedBy   *int64                 `json:"shipped_by,omitempty"`
	ReceivedBy  *int64                 `json:"received_by,omitempty"`
	ShippedAt   *time.Time             `json:"shipped_at,omitempty"`
	ReceivedAt  *time.Time             `json:"received_at,omitempty"`
	Memo        string                 `json:"memo,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	Items       []TransferItemResponse `json:"items,omitempty"`
}

// ToTransferResponse mapea un traslado.
func ToTransferResponse(t *entity.Transfer) TransferResponse {
	out := TransferResponse{
		ID:          t.ID,
		FromStoreID: t.FromStoreID,
		ToStoreID:   t.ToStoreID,
		Status:      t.Status,
		RequestedBy: t.RequestedBy,
		ShippedBy:   t.ShippedBy,
		ReceivedBy:  t.ReceivedBy,
		ShippedAt:   t.ShippedAt,
		ReceivedAt:  t.ReceivedAt,
		Memo:        t.Memo,
		CreatedAt:   t.CreatedAt,
	}
	for _, it := range t.Items {
		out.Items = append(out.Items, TransferItemResponse{
			ID:               it.ID,
			ProductID:        it.ProductID,
			LotID:            it.LotID,
			Quantity:         it.Quantity,
			ShippedQuantity:  it.ShippedQuantity,
			ReceivedQuantity: it.ReceivedQuantity,
			ExpiryDate:       formatDate(it.ExpiryDate),
			Location:         it.Location,
		})
	}
	return out
}

// ToTransferResponses mapea una lista de traslados.
func ToTransferResponses(ts []*entity.Transfer) []TransferResponse {
	out := make([]TransferResponse, 0, len(ts))
	for _, t := range ts {
		out = append(out, ToTransferResponse(t))
	}
	return out
}

// TransferCountsResponse traslados abiertos de una tienda.
type TransferCountsResponse struct {
	Outgoing int `json:"outgoing"`
	Incoming int `json:"incoming"`
}
