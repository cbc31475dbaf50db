package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de transacción del libro de inventario.
const (
	TransactionIn          = "in"
	TransactionOut         = "out"
	TransactionAdjust      = "adjust"
	TransactionDiscard     = "discard"
	TransactionMove        = "move"
	TransactionTransferOut = "transfer_out"
	TransactionTransferIn  = "transfer_in"
)

// Tipos de documento que originan transacciones.
const (
	ReferencePurchase       = "purchase"
	ReferenceSale           = "sale"
	ReferenceTransfer       = "transfer"
	ReferenceWholesaleOrder = "wholesale_order"
	ReferenceStockCount     = "stock_count"
	ReferenceRepackaging    = "repackaging"
	ReferenceRecipe         = "recipe"
	ReferencePosSync        = "pos_sync"
)

// Reference apunta al documento que originó una transacción.
type Reference struct {
	Type string
	ID   int64
}

// Transaction es un registro inmutable del libro. Quantity es la magnitud (con signo en ajustes),
// no un saldo. OperationID agrupa las filas emitidas por una misma llamada.
type Transaction struct {
	ID            int64
	OperationID   string
	BusinessID    int64
	ProductID     int64
	StoreID       int64
	LotID         *int64
	Type          string
	FromLocation  string
	ToLocation    string
	Quantity      decimal.Decimal
	UnitPrice     decimal.Decimal
	TotalAmount   decimal.Decimal
	Reason        string
	UserID        *int64
	ReferenceType string
	ReferenceID   *int64
	CreatedAt     time.Time
}

// SetReference copia la referencia opcional al registro.
func (t *Transaction) SetReference(ref *Reference) {
	if ref == nil {
		return
	}
	id := ref.ID
	t.ReferenceType = ref.Type
	t.ReferenceID = &id
}

// TotalAmount calcula |cantidad × precio unitario|.
func TotalAmount(quantity, unitPrice decimal.Decimal) decimal.Decimal {
	return quantity.Mul(unitPrice).Abs()
}
