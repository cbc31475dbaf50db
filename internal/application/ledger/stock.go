package ledger

import (
	"context"
	"time"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/inventory"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// StockInInput entrada de mercancía a un lote.
type StockInInput struct {
	Actor      entity.Actor
	ProductID  int64
	StoreID    int64
	Location   string
	Quantity   decimal.Decimal
	ExpiryDate *time.Time
	UnitPrice  decimal.Decimal
	Reason     string
	Reference  *entity.Reference
}

// StockOutInput salida de mercancía por FEFO.
type StockOutInput struct {
	Actor     entity.Actor
	ProductID int64
	StoreID   int64
	Location  string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	Reason    string
	Reference *entity.Reference
}

// LotStockOutInput salida de lotes elegidos por el usuario.
type LotStockOutInput struct {
	Actor     entity.Actor
	StoreID   int64
	Lots      []entity.LotQuantity
	UnitPrice decimal.Decimal
	Reason    string
	Reference *entity.Reference
}

// StockIn suma la cantidad al lote (producto, tienda, ubicación, vencimiento), creándolo si no existe.
func (e *Engine) StockIn(ctx context.Context, in StockInInput) (*Result, error) {
	return e.run(ctx, func(r repository.Set) (*Result, error) { return e.StockInTx(ctx, r, in) })
}

// StockInTx es StockIn dentro de la transacción del llamador.
func (e *Engine) StockInTx(ctx context.Context, r repository.Set, in StockInInput) (*Result, error) {
	if !in.Quantity.IsPositive() || in.UnitPrice.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	if _, err := e.checkProductStore(ctx, r, in.Actor, in.ProductID, in.StoreID); err != nil {
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
		Type:       entity.TransactionIn,
		ToLocation: key.Location,
		Quantity:   in.Quantity,
		UnitPrice:  in.UnitPrice,
		Reason:     in.Reason,
	}
	if err := e.record(ctx, r, res, in.Actor, t, in.Reference); err != nil {
		return nil, err
	}
	return res, nil
}

// StockOut descuenta la cantidad de los lotes de la ubicación en orden FEFO y registra una sola
// transacción "out" por la cantidad solicitada.
func (e *Engine) StockOut(ctx context.Context, in StockOutInput) (*Result, error) {
	return e.run(ctx, func(r repository.Set) (*Result, error) { return e.StockOutTx(ctx, r, in) })
}

// StockOutTx es StockOut dentro de la transacción del llamador.
func (e *Engine) StockOutTx(ctx context.Context, r repository.Set, in StockOutInput) (*Result, error) {
	if !in.Quantity.IsPositive() || in.UnitPrice.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	if _, err := e.checkProductStore(ctx, r, in.Actor, in.ProductID, in.StoreID); err != nil {
		return nil, err
	}
	loc := location(in.Location)
	allocs, short, err := e.deductFEFO(ctx, r, in.ProductID, in.StoreID, loc, in.Quantity)
	if err != nil {
		return nil, err
	}
	if err := e.onShortfall("stock_out", in.ProductID, in.StoreID, loc, short); err != nil {
		return nil, err
	}

	res := newResult()
	res.Consumed = allocs
	res.Shortfall = short
	t := &entity.Transaction{
		ProductID:    in.ProductID,
		StoreID:      in.StoreID,
		Type:         entity.TransactionOut,
		FromLocation: loc,
		Quantity:     in.Quantity,
		UnitPrice:    in.UnitPrice,
		Reason:       withShortfall(in.Reason, short),
	}
	if err := e.record(ctx, r, res, in.Actor, t, in.Reference); err != nil {
		return nil, err
	}
	return res, nil
}

// LotStockOut descuenta lotes concretos; cada lote genera su propia transacción "out".
// Los lotes inexistentes, agotados o de otra tienda se omiten con una advertencia.
func (e *Engine) LotStockOut(ctx context.Context, in LotStockOutInput) (*Result, error) {
	return e.run(ctx, func(r repository.Set) (*Result, error) { return e.LotStockOutTx(ctx, r, in) })
}

// LotStockOutTx es LotStockOut dentro de la transacción del llamador.
func (e *Engine) LotStockOutTx(ctx context.Context, r repository.Set, in LotStockOutInput) (*Result, error) {
	if in.UnitPrice.IsNegative() {
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
		if !ok {
			res.Skipped = append(res.Skipped, lq.LotID)
			continue
		}
		take, short := inventory.TakeFromLot(lot, lq.Quantity)
		remaining := lot.Quantity.Sub(take)
		if err := r.Lots.SetQuantity(ctx, lot.ID, remaining); err != nil {
			return nil, err
		}
		res.Consumed = append(res.Consumed, inventory.Allocation{LotID: lot.ID, Quantity: take, Remaining: remaining})
		res.Shortfall = res.Shortfall.Add(short)

		lotID := lot.ID
		t := &entity.Transaction{
			ProductID:    lot.ProductID,
			StoreID:      lot.StoreID,
			LotID:        &lotID,
			Type:         entity.TransactionOut,
			FromLocation: lot.Location,
			Quantity:     take,
			UnitPrice:    in.UnitPrice,
			Reason:       in.Reason,
		}
		if err := e.record(ctx, r, res, in.Actor, t, in.Reference); err != nil {
			return nil, err
		}
	}
	if err := e.onShortfall("lot_stock_out", 0, in.StoreID, "", res.Shortfall); err != nil {
		return nil, err
	}
	return res, nil
}

// lockTargetLot bloquea un lote elegido por el usuario. ok=false indica que debe omitirse.
// Un lote de un producto de otro negocio es un error, no una omisión.
func (e *Engine) lockTargetLot(ctx context.Context, r repository.Set, actor entity.Actor, storeID int64, lq entity.LotQuantity) (*entity.Lot, bool, error) {
	if !lq.Quantity.IsPositive() {
		e.log.Warn().Int64("lot_id", lq.LotID).Str("quantity", lq.Quantity.String()).Msg("lote omitido: cantidad no positiva")
		return nil, false, nil
	}
	lot, err := r.Lots.GetForUpdate(ctx, lq.LotID)
	if err != nil {
		return nil, false, err
	}
	if lot == nil || !lot.InStock() || lot.StoreID != storeID {
		e.log.Warn().Int64("lot_id", lq.LotID).Int64("store_id", storeID).Msg("lote omitido: inexistente, agotado o de otra tienda")
		return nil, false, nil
	}
	p, err := r.Products.GetByID(ctx, lot.ProductID)
	if err != nil {
		return nil, false, err
	}
	if p == nil || p.BusinessID != actor.BusinessID {
		return nil, false, domain.ErrForbidden
	}
	return lot, true, nil
}
