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

// AdjustInput fija una cantidad absoluta en un lote o en una ubicación.
type AdjustInput struct {
	Actor       entity.Actor
	ProductID   int64
	StoreID     int64
	Location    string
	NewQuantity decimal.Decimal
	LotID       *int64
	Reason      string
	Reference   *entity.Reference
}

// DiscardInput baja de mercancía (vencida, dañada). Con LotID descuenta ese lote; con ExpiryDate
// el lote de ese vencimiento; sin ninguno, por FEFO.
type DiscardInput struct {
	Actor      entity.Actor
	ProductID  int64
	StoreID    int64
	Location   string
	Quantity   decimal.Decimal
	ExpiryDate *time.Time
	LotID      *int64
	Reason     string
	Reference  *entity.Reference
}

// Adjust fija la cantidad y registra la diferencia (nuevo − anterior) como transacción "adjust".
//
// Sin LotID la cantidad objetivo es el total de la ubicación:
//   - sin lotes: se crea el lote sin vencimiento con la cantidad nueva;
//   - un lote: ese lote absorbe la diferencia;
//   - varios lotes: una diferencia negativa se descuenta por FEFO y una positiva se suma al lote
//     sin vencimiento, ya que el excedente contado no tiene fecha conocida.
//
// Si la diferencia es cero no se modifica nada ni se registra transacción.
func (e *Engine) Adjust(ctx context.Context, in AdjustInput) (*Result, error) {
	return e.run(ctx, func(r repository.Set) (*Result, error) { return e.AdjustTx(ctx, r, in) })
}

// AdjustTx es Adjust dentro de la transacción del llamador.
func (e *Engine) AdjustTx(ctx context.Context, r repository.Set, in AdjustInput) (*Result, error) {
	if in.NewQuantity.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	if _, err := e.checkProductStore(ctx, r, in.Actor, in.ProductID, in.StoreID); err != nil {
		return nil, err
	}
	loc := location(in.Location)
	res := newResult()

	var (
		diff  decimal.Decimal
		lotID *int64
		err   error
	)
	if in.LotID != nil {
		diff, loc, err = e.adjustLot(ctx, r, in, *in.LotID, res)
		lotID = in.LotID
	} else {
		diff, lotID, err = e.adjustLocation(ctx, r, in.ProductID, in.StoreID, loc, in.NewQuantity, res)
	}
	if err != nil {
		return nil, err
	}
	if diff.IsZero() {
		return res, nil
	}

	t := &entity.Transaction{
		ProductID: in.ProductID,
		StoreID:   in.StoreID,
		LotID:     lotID,
		Type:      entity.TransactionAdjust,
		Quantity:  diff,
		Reason:    in.Reason,
	}
	if diff.IsPositive() {
		t.ToLocation = loc
	} else {
		t.FromLocation = loc
	}
	if err := e.record(ctx, r, res, in.Actor, t, in.Reference); err != nil {
		return nil, err
	}
	return res, nil
}

func (e *Engine) adjustLot(ctx context.Context, r repository.Set, in AdjustInput, lotID int64, res *Result) (decimal.Decimal, string, error) {
	lot, err := r.Lots.GetForUpdate(ctx, lotID)
	if err != nil {
		return decimal.Zero, "", err
	}
	if lot == nil {
		return decimal.Zero, "", fmt.Errorf("lote %d: %w", lotID, domain.ErrNotFound)
	}
	if lot.ProductID != in.ProductID || lot.StoreID != in.StoreID {
		return decimal.Zero, "", domain.ErrInvalidInput
	}
	diff := in.NewQuantity.Sub(lot.Quantity)
	if diff.IsZero() {
		return diff, lot.Location, nil
	}
	if err := r.Lots.SetQuantity(ctx, lot.ID, in.NewQuantity); err != nil {
		return decimal.Zero, "", err
	}
	res.Consumed = append(res.Consumed, inventory.Allocation{LotID: lot.ID, Quantity: diff.Neg(), Remaining: in.NewQuantity})
	return diff, lot.Location, nil
}

func (e *Engine) adjustLocation(ctx context.Context, r repository.Set, productID, storeID int64, loc string, newQty decimal.Decimal, res *Result) (decimal.Decimal, *int64, error) {
	lots, err := r.Lots.ListForUpdate(ctx, productID, storeID, loc)
	if err != nil {
		return decimal.Zero, nil, err
	}
	current := decimal.Zero
	for _, l := range lots {
		current = current.Add(l.Quantity)
	}
	diff := newQty.Sub(current)
	if diff.IsZero() {
		return diff, nil, nil
	}

	switch {
	case len(lots) == 1:
		lot := lots[0]
		remaining := lot.Quantity.Add(diff)
		if err := r.Lots.SetQuantity(ctx, lot.ID, remaining); err != nil {
			return decimal.Zero, nil, err
		}
		res.Consumed = append(res.Consumed, inventory.Allocation{LotID: lot.ID, Quantity: diff.Neg(), Remaining: remaining})
		id := lot.ID
		return diff, &id, nil
	case diff.IsNegative() && len(lots) > 1:
		allocs, short := inventory.PlanFEFO(lots, diff.Neg())
		for _, a := range allocs {
			if err := r.Lots.SetQuantity(ctx, a.LotID, a.Remaining); err != nil {
				return decimal.Zero, nil, err
			}
		}
		res.Consumed = allocs
		// Solo ocurre si hay lotes con saldo negativo; lo descontado es lo que se registra.
		return diff.Add(short), nil, nil
	default:
		key := entity.LotKey{ProductID: productID, StoreID: storeID, Location: loc}.Normalize()
		lot, err := r.Lots.AddQuantity(ctx, key, diff)
		if err != nil {
			return decimal.Zero, nil, err
		}
		id := lot.ID
		return diff, &id, nil
	}
}

// Discard da de baja mercancía y registra una transacción "discard" por la cantidad solicitada.
func (e *Engine) Discard(ctx context.Context, in DiscardInput) (*Result, error) {
	return e.run(ctx, func(r repository.Set) (*Result, error) { return e.DiscardTx(ctx, r, in) })
}

// DiscardTx es Discard dentro de la transacción del llamador.
func (e *Engine) DiscardTx(ctx context.Context, r repository.Set, in DiscardInput) (*Result, error) {
	if !in.Quantity.IsPositive() {
		return nil, domain.ErrInvalidInput
	}
	if _, err := e.checkProductStore(ctx, r, in.Actor, in.ProductID, in.StoreID); err != nil {
		return nil, err
	}
	loc := location(in.Location)
	res := newResult()

	var target *entity.Lot
	switch {
	case in.LotID != nil:
		lot, err := r.Lots.GetForUpdate(ctx, *in.LotID)
		if err != nil {
			return nil, err
		}
		if lot == nil {
			return nil, fmt.Errorf("lote %d: %w", *in.LotID, domain.ErrNotFound)
		}
		if lot.ProductID != in.ProductID || lot.StoreID != in.StoreID {
			return nil, domain.ErrInvalidInput
		}
		target = lot
		loc = lot.Location
	case in.ExpiryDate != nil:
		key := entity.LotKey{ProductID: in.ProductID, StoreID: in.StoreID, Location: loc, ExpiryDate: in.ExpiryDate}.Normalize()
		lot, err := r.Lots.FindByKeyForUpdate(ctx, key)
		if err != nil {
			return nil, err
		}
		if lot == nil {
			res.Shortfall = in.Quantity
		}
		target = lot
	default:
		allocs, short, err := e.deductFEFO(ctx, r, in.ProductID, in.StoreID, loc, in.Quantity)
		if err != nil {
			return nil, err
		}
		res.Consumed = allocs
		res.Shortfall = short
	}

	var lotID *int64
	if target != nil {
		take, short := inventory.TakeFromLot(target, in.Quantity)
		remaining := target.Quantity.Sub(take)
		if err := r.Lots.SetQuantity(ctx, target.ID, remaining); err != nil {
			return nil, err
		}
		res.Consumed = append(res.Consumed, inventory.Allocation{LotID: target.ID, Quantity: take, Remaining: remaining})
		res.Shortfall = short
		id := target.ID
		lotID = &id
	}
	if err := e.onShortfall("discard", in.ProductID, in.StoreID, loc, res.Shortfall); err != nil {
		return nil, err
	}

	t := &entity.Transaction{
		ProductID:    in.ProductID,
		StoreID:      in.StoreID,
		LotID:        lotID,
		Type:         entity.TransactionDiscard,
		FromLocation: loc,
		Quantity:     in.Quantity,
		Reason:       withShortfall(in.Reason, res.Shortfall),
	}
	if err := e.record(ctx, r, res, in.Actor, t, in.Reference); err != nil {
		return nil, err
	}
	return res, nil
}
