package entity

import (
	"fmt"
	"time"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/shopspring/decimal"
)

// Estados de un traslado entre tiendas.
const (
	TransferPending   = "pending"
	TransferShipped   = "shipped"
	TransferReceived  = "received"
	TransferCancelled = "cancelled"
)

// Transfer es una solicitud de traslado de mercancía de una tienda a otra.
// La mercancía en tránsito no pertenece al inventario de ninguna de las dos.
type Transfer struct {
	ID          int64
	BusinessID  int64
	FromStoreID int64
	ToStoreID   int64
	Status      string
	RequestedBy *int64
	ShippedBy   *int64
	ReceivedBy  *int64
	ShippedAt   *time.Time
	ReceivedAt  *time.Time
	Memo        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Items       []TransferItem
}

// CanShip indica si el traslado admite el despacho.
func (t *Transfer) CanShip() bool { return t.Status == TransferPending }

// CanReceive indica si el traslado admite la recepción.
func (t *Transfer) CanReceive() bool { return t.Status == TransferShipped }

// CanCancel indica si el traslado admite la cancelación.
func (t *Transfer) CanCancel() bool { return t.Status == TransferPending }

// TransferItem es una línea del traslado. Vencimiento y ubicación se copian del lote origen al crear,
// de modo que el lote destino conserva el vencimiento aunque el origen se agote.
type TransferItem struct {
	ID               int64
	TransferID       int64
	ProductID        int64
	LotID            *int64
	Quantity         decimal.Decimal
	ShippedQuantity  *decimal.Decimal
	ReceivedQuantity *decimal.Decimal
	ExpiryDate       *time.Time
	Location         string
}

// Shipped devuelve lo que salió del origen al despachar; antes del despacho, la cantidad solicitada.
// Con política permisiva puede ser menor que Quantity si el lote no alcanzaba.
func (i *TransferItem) Shipped() decimal.Decimal {
	if i.ShippedQuantity != nil {
		return *i.ShippedQuantity
	}
	return i.Quantity
}

// ResolveReceived devuelve la cantidad recibida: la indicada o, si no hay, la despachada.
// Recibir más de lo despachado es ErrInvalidInput.
func (i *TransferItem) ResolveReceived(override *decimal.Decimal) (decimal.Decimal, error) {
	shipped := i.Shipped()
	if override == nil {
		return shipped, nil
	}
	if override.GreaterThan(shipped) {
		return decimal.Zero, fmt.Errorf("línea %d: recibido %s supera lo despachado %s: %w",
			i.ID, override.String(), shipped.String(), domain.ErrInvalidInput)
	}
	return *override, nil
}

// TransferCounts resume los traslados abiertos de una tienda.
type TransferCounts struct {
	Outgoing int
	Incoming int
}
