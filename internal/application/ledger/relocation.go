package ledger

import (
	"context"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/inventory"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// LotMoveInput reubicación de lotes concretos dentro de una tienda.
type LotMoveInput struct {
	Actor      entity.Actor
	StoreID    int64
	ToLocation string
	Lots       []entity.LotQuantity
	Reason     string
}

// MoveInput reubicación FEFO de una ubicación a otra.
type MoveInput struct {
	Actor        entity.Actor
	ProductID    int64
	StoreID      int64
	FromLocation string
	ToLocation   string
	Quantity     decimal.Decimal
	Reason       string
}

// LotMove mueve lotes concretos a otra ubicación conservando su vencimiento.
// Cada lote genera una transacción "move".
func (e *Engine) LotMove(ctx context.Context, in LotMoveInput) (*Result, error) {
	return e.run(ctx, func(r repository.Set) (*Result, error) { return e.LotMoveTx(ctx, r, in) })
}

// LotMoveTx es LotMove dentro de la transacción del llamador.
func (e *Engine) LotMoveTx(ctx context.Context, r repository.Set, in LotMoveInput) (*Result, error) {
	if in.ToLocation == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := e.checkStore(ctx, r, in.Actor, in.StoreID); err != nil {
		return nil, err
	}
	res := newResult()
	for _, lq := range in.Lots {
		lot, ok, err := e.lockTargetLot(ctx, r, in.Actor, in.StoreID, lq)
		if err != nil {
			return nil, err
		}
		if !ok || lot.Location == in.ToLocation {
			res.Skipped = append(res.Skipped, lq.LotID)
			continue
		}
		take, short := inventory.TakeFromLot(lot, lq.Quantity)
		remaining := lot.Quantity.Sub(take)
		if err := r.Lots.SetQuantity(ctx, lot.ID, remaining); err != nil {
			return nil, err
		}
		dest := entity.LotKey{ProductID: lot.ProductID, StoreID: lot.StoreID, Location: in.ToLocation, ExpiryDate: lot.ExpiryDate}.Normalize()
		if _, err := r.Lots.AddQuantity(ctx, dest, take); err != nil {
			return nil, err
		}
		res.Consumed = append(res.Consumed, inventory.Allocation{LotID: lot.ID, Quantity: take, Remaining: remaining})
		res.Shortfall = res.Shortfall.Add(short)

		lotID := lot.ID
		t := &entity.Transaction{
			ProductID:    lot.ProductID,
			StoreID:      lot.StoreID,
			LotID:        &lotID,
			Type:         entity.TransactionMove,
			FromLocation: lot.Location,
			ToLocation:   in.ToLocation,
			Quantity:     take,
			Reason:       in.Reason,
		}
		if err := e.record(ctx, r, res, in.Actor, t, nil); err != nil {
			return nil, err
		}
	}
	if err := e.onShortfall("lot_move", 0, in.StoreID, in.ToLocation, res.Shortfall); err != nil {
		return nil, err
	}
	return res, nil
}

// Move descuenta por FEFO en la ubicación origen y suma lo movido a un lote sin vencimiento en
// la ubicación destino. Para conservar vencimientos se usa LotMove.
func (e *Engine) Move(ctx context.Context, in MoveInput) (*Result, error) {
	return e.run(ctx, func(r repository.Set) (*Result, error) { return e.MoveTx(ctx, r, in) })
}

// MoveTx es Move dentro de la transacción del llamador.
func (e *Engine) MoveTx(ctx context.Context, r repository.Set, in MoveInput) (*Result, error) {
	from, to := location(in.FromLocation), location(in.ToLocation)
	if !in.Quantity.IsPositive() || from == to {
		return nil, domain.ErrInvalidInput
	}
	if _, err := e.checkProductStore(ctx, r, in.Actor, in.ProductID, in.StoreID); err != nil {
		return nil, err
	}
	allocs, short, err := e.deductFEFO(ctx, r, in.ProductID, in.StoreID, from, in.Quantity)
	if err != nil {
		return nil, err
	}
	if err := e.onShortfall("move", in.ProductID, in.StoreID, from, short); err != nil {
		return nil, err
	}

	res := newResult()
	res.Consumed = allocs
	res.Shortfall = short
	moved := in.Quantity.Sub(short)
	if !moved.IsPositive() {
		return res, nil
	}
	dest := entity.LotKey{ProductID: in.ProductID, StoreID: in.StoreID, Location: to}.Normalize()
	if _, err := r.Lots.AddQuantity(ctx, dest, moved); err != nil {
		return nil, err
	}
	t := &entity.Transaction{
		ProductID:    in.ProductID,
		StoreID:      in.StoreID,
		Type:         entity.TransactionMove,
		FromLocation: from,
		ToLocation:   to,
		Quantity:     moved,
		Reason:       in.Reason,
	}
	if err := e.record(ctx, r, res, in.Actor, t, nil); err != nil {
		return nil, err
	}
	return res, nil
}
