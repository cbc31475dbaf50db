package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/inventory"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// TransferOutInput salida exacta de un lote hacia un traslado (sin FEFO).
type TransferOutInput struct {
	Actor     entity.Actor
	LotID     int64
	Quantity  decimal.Decimal
	Reason    string
	Reference *entity.Reference
}

// TransferInInput entrada a la tienda destino de un traslado.
type TransferInInput struct {
	Actor      entity.Actor
	ProductID  int64
	StoreID    int64
	Location   string
	ExpiryDate *time.Time
	Quantity   decimal.Decimal
	Reason     string
	Reference  *entity.Reference
}

// TransferOutTx descuenta la cantidad del lote indicado y registra "transfer_out".
// Solo se usa dentro de la transacción del flujo de traslados.
func (e *Engine) TransferOutTx(ctx context.Context, r repository.Set, in TransferOutInput) (*Result, error) {
	if !in.Quantity.IsPositive() {
		return nil, domain.ErrInvalidInput
	}
	lot, err := r.Lots.GetForUpdate(ctx, in.LotID)
	if err != nil {
		return nil, err
	}
	if lot == nil {
		return nil, fmt.Errorf("lote %d: %w", in.LotID, domain.ErrNotFound)
	}
	take, short := inventory.TakeFromLot(lot, in.Quantity)
	if err := e.onShortfall("transfer_out", lot.ProductID, lot.StoreID, lot.Location, short); err != nil {
		return nil, err
	}
	remaining := lot.Quantity.Sub(take)
	if err := r.Lots.SetQuantity(ctx, lot.ID, remaining); err != nil {
		return nil, err
	}

	res := newResult()
	res.Consumed = []inventory.Allocation{{LotID: lot.ID, Quantity: take, Remaining: remaining}}
	res.Shortfall = short
	lotID := lot.ID
	t := &entity.Transaction{
		ProductID:    lot.ProductID,
		StoreID:      lot.StoreID,
		LotID:        &lotID,
		Type:         entity.TransactionTransferOut,
		FromLocation: lot.Location,
		Quantity:     take,
		Reason:       withShortfall(in.Reason, short),
	}
	if err := e.record(ctx, r, res, in.Actor, t, in.Reference); err != nil {
		return nil, err
	}
	return res, nil
}

// TransferInTx suma la cantidad recibida al lote destino y registra "transfer_in".
func (e *Engine) TransferInTx(ctx context.Context, r repository.Set, in TransferInInput) (*Result, error) {
	if !in.Quantity.IsPositive() {
		return nil, domain.ErrInvalidInput
	}
	if err := e.checkStore(ctx, r, in.Actor, in.StoreID); err != nil {
		return nil, err
	}
	key := entity.LotKey{ProductID: in.ProductID, StoreID: in.StoreID, Location: in.Location, ExpiryDate: in.ExpiryDate}.Normalize()
	lot, err := r.Lots.AddQuantity(ctx, key, in.Quantity)
	if err != nil {
		return nil, err
	}

	res := newResult()
	lotID := lot.ID
	t := &entity.Transaction{
		ProductID:  in.ProductID,
		StoreID:    in.StoreID,
		LotID:      &lotID,
		Type:       entity.TransactionTransferIn,
		ToLocation: key.Location,
		Quantity:   in.Quantity,
		Reason:     in.Reason,
	}
	if err := e.record(ctx, r, res, in.Actor, t, in.Reference); err != nil {
		return nil, err
	}
	return res, nil
}
