package dto

import (
	"time"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// CreateClientRequest body para POST /api/wholesale/clients.
type CreateClientRequest struct {
	Name                string          `json:"name" validate:"required,max=200"`
	BusinessNumber      string          `json:"business_number,omitempty" validate:"max=50"`
	Phone               string          `json:"phone,omitempty" validate:"max=50"`
	DefaultDiscountRate decimal.Decimal `json:"default_discount_rate" validate:"gte=0,lte=100"`
}

// SetPricingRequest body para PUT /api/wholesale/clients/:id/pricing.
type SetPricingRequest struct {
	ProductID    int64            `json:"product_id" validate:"required,gt=0"`
	DiscountType string           `json:"discount_type" validate:"required,oneof=rate fixed_price"`
	DiscountRate decimal.Decimal  `json:"discount_rate" validate:"gte=0,lte=100"`
	FixedPrice   *decimal.Decimal `json:"fixed_price,omitempty" validate:"omitempty,gte=0"`
}

// OrderItemRequest línea de pedido; precio en cero toma el precio de venta del producto.
type OrderItemRequest struct {
	ProductID int64           `json:"product_id" validate:"required,gt=0"`
	Quantity  decimal.Decimal `json:"quantity" validate:"gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"gte=0"`
	Location  string          `json:"location,omitempty" validate:"max=50"`
}

// CreateOrderRequest body para POST /api/wholesale/orders.
type CreateOrderRequest struct {
	StoreID   int64              `json:"store_id" validate:"required,gt=0"`
	ClientID  int64              `json:"client_id" validate:"required,gt=0"`
	OrderDate string             `json:"order_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Memo      string             `json:"memo,omitempty" validate:"max=500"`
	Items     []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// PaymentRequest body para POST /api/wholesale/orders/:id/payments.
type PaymentRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"gt=0"`
	Method string          `json:"method" validate:"required,max=30"`
	Memo   string          `json:"memo,omitempty" validate:"max=255"`
}

// ClientResponse salida de un cliente mayorista.
type ClientResponse struct {
	ID                  int64           `json:"id"`
	Name                string          `json:"name"`
	BusinessNumber      string          `json:"business_number,omitempty"`
	Phone               string          `json:"phone,omitempty"`
	DefaultDiscountRate decimal.Decimal `json:"default_discount_rate"`
	Active              bool            `json:"active"`
}

// ToClientResponse mapea un cliente.
func ToClientResponse(c *entity.WholesaleClient) ClientResponse {
	return ClientResponse{
		ID: c.ID, Name: c.Name, BusinessNumber: c.BusinessNumber, Phone: c.Phone,
		DefaultDiscountRate: c.DefaultDiscountRate, Active: c.Active,
	}
}

// OrderItemResponse línea de pedido.
type OrderItemResponse struct {
	ID             int64           `json:"id"`
	ProductID      int64           `json:"product_id"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	DiscountRate   decimal.Decimal `json:"discount_rate"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Amount         decimal.Decimal `json:"amount"`
	Location       string          `json:"location"`
}

// OrderResponse salida de un pedido mayorista.
type OrderResponse struct {
	ID             int64               `json:"id"`
	StoreID        int64               `json:"store_id"`
	ClientID       int64               `json:"client_id"`
	Number         string              `json:"number"`
	OrderDate      string              `json:"order_date"`
	Status         string              `json:"status"`
	TotalAmount    decimal.Decimal     `json:"total_amount"`
	DiscountAmount decimal.Decimal     `json:"discount_amount"`
	FinalAmount    decimal.Decimal     `json:"final_amount"`
	PaidAmount     decimal.Decimal     `json:"paid_amount"`
	PaymentStatus  string              `json:"payment_status"`
	Memo           string              `json:"memo,omitempty"`
	ShippedAt      *time.Time          `json:"shipped_at,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	Items          []OrderItemResponse `json:"items,omitempty"`
}

// ToOrderResponse mapea un pedido.
func ToOrderResponse(o *entity.WholesaleOrder) OrderResponse {
	out := OrderResponse{
		ID:             o.ID,
		StoreID:        o.StoreID,
		ClientID:       o.ClientID,
		Number:         o.Number,
		OrderDate:      o.OrderDate.Format(DateLayout),
		Status:         o.Status,
		TotalAmount:    o.TotalAmount,
		DiscountAmount: o.DiscountAmount,
		FinalAmount:    o.FinalAmount,
		PaidAmount:     o.PaidAmount,
		PaymentStatus:  o.PaymentStatus,
		Memo:           o.Memo,
		ShippedAt:      o.ShippedAt,
		CreatedAt:      o.CreatedAt,
	}
	for _, it := range o.Items {
		out.Items = append(out.Items, OrderItemResponse{
			ID: it.ID, ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.UnitPrice,
			DiscountRate: it.DiscountRate, DiscountAmount: it.DiscountAmount, Amount: it.Amount, Location: it.Location,
		})
	}
	return out
}

// ToOrderResponses mapea una lista de pedidos.
func ToOrderResponses(os []*entity.WholesaleOrder) []OrderResponse {
	out := make([]OrderResponse, 0, len(os))
	for _, o := range os {
		out = append(out, ToOrderResponse(o))
	}
	return out
}

// BalanceResponse saldo de un cliente.
type BalanceResponse struct {
	ClientID    int64           `json:"client_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	PaidAmount  decimal.Decimal `json:"paid_amount"`
	Balance     decimal.Decimal `json:"balance"`
}
