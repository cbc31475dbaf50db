// Package sales implementa las ventas manuales y los pedidos mayoristas. Confirmar una venta o
// despachar un pedido descuenta el inventario por FEFO o por los lotes indicados.
package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/stockledger-api/internal/application/guard"
	"github.com/jhoicas/stockledger-api/internal/application/ledger"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/inventory"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// SaleItemInput línea de venta. Lots elige lotes concretos en lugar de FEFO.
type SaleItemInput struct {
	ProductID int64
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	Location  string
	Lots      []entity.LotQuantity
}

// CreateSaleInput datos de una nueva venta.
type CreateSaleInput struct {
	Actor      entity.Actor
	StoreID    int64
	CustomerID *int64
	SaleDate   time.Time
	Memo       string
	Items      []SaleItemInput
}

// SaleUseCase casos de uso de ventas.
type SaleUseCase struct {
	tx     repository.TxRunner
	repos  repository.Set
	ledger *ledger.Engine
	log    zerolog.Logger
	now    func() time.Time
}

// NewSaleUseCase construye el caso de uso.
func NewSaleUseCase(tx repository.TxRunner, repos repository.Set, engine *ledger.Engine, log zerolog.Logger) *SaleUseCase {
	return &SaleUseCase{
		tx:     tx,
		repos:  repos,
		ledger: engine,
		log:    log.With().Str("component", "sale").Logger(),
		now:    time.Now,
	}
}

// Create registra la venta en borrador con número SA-YYYYMMDD-NNN.
func (uc *SaleUseCase) Create(ctx context.Context, in CreateSaleInput) (*entity.Sale, error) {
	if len(in.Items) == 0 {
		return nil, domain.ErrInvalidInput
	}
	date := in.SaleDate
	if date.IsZero() {
		date = uc.now()
	}
	var out *entity.Sale
	err := uc.tx.Run(ctx, func(r repository.Set) error {
		if _, err := guard.Store(ctx, r, in.Actor, in.StoreID); err != nil {
			return err
		}
		items, total, err := buildSaleItems(ctx, r, in.Actor, in.StoreID, in.Items)
		if err != nil {
			return err
		}
		n, err := r.Sales.CountByDate(ctx, in.Actor.BusinessID, date)
		if err != nil {
			return err
		}
		s := &entity.Sale{
			BusinessID:  in.Actor.BusinessID,
			StoreID:     in.StoreID,
			CustomerID:  in.CustomerID,
			Number:      entity.DocumentNumber(entity.PrefixSale, date, n+1),
			SaleDate:    date,
			Status:      entity.SaleDraft,
			TotalAmount: total,
			Memo:        in.Memo,
			CreatedBy:   in.Actor.UserRef(),
			Items:       items,
		}
		if err := r.Sales.Create(ctx, s); err != nil {
			return err
		}
		out = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Int64("sale_id", out.ID).Str("number", out.Number).Msg("venta creada")
	return out, nil
}

// ReplaceItems reemplaza las líneas de una venta en borrador. Devuelve false fuera de borrador.
func (uc *SaleUseCase) ReplaceItems(ctx context.Context, actor entity.Actor, saleID int64, in []SaleItemInput) (bool, error) {
	if len(in) == 0 {
		return false, domain.ErrInvalidInput
	}
	ok := false
	err := uc.tx.Run(ctx, func(r repository.Set) error {
		s, err := uc.lock(ctx, r, actor, saleID)
		if err != nil {
			return err
		}
		if s.Status != entity.SaleDraft {
			return nil
		}
		items, total, err := buildSaleItems(ctx, r, actor, s.StoreID, in)
		if err != nil {
			return err
		}
		if err := r.Sales.ReplaceItems(ctx, s.ID, items); err != nil {
			return err
		}
		s.TotalAmount = total
		if err := r.Sales.Update(ctx, s); err != nil {
			return err
		}
		ok = true
		return nil
	})
	return ok, err
}

// Confirm descuenta el inventario de cada línea: por los lotes indicados o por FEFO.
// Devuelve false si la venta no está en borrador.
func (uc *SaleUseCase) Confirm(ctx context.Context, actor entity.Actor, saleID int64) (bool, error) {
	ok := false
	err := uc.tx.Run(ctx, func(r repository.Set) error {
		s, err := uc.lock(ctx, r, actor, saleID)
		if err != nil {
			return err
		}
		if s.Status != entity.SaleDraft {
			return nil
		}
		ref := &entity.Reference{Type: entity.ReferenceSale, ID: s.ID}
		reason := "Venta " + s.Number
		for _, it := range s.Items {
			if len(it.Lots) > 0 {
				_, err = uc.ledger.LotStockOutTx(ctx, r, ledger.LotStockOutInput{
					Actor: actor, StoreID: s.StoreID, Lots: it.Lots,
					UnitPrice: it.UnitPrice, Reason: reason, Reference: ref,
				})
			} else {
				_, err = uc.ledger.StockOutTx(ctx, r, ledger.StockOutInput{
					Actor: actor, ProductID: it.ProductID, StoreID: s.StoreID, Location: it.Location,
					Quantity: it.Quantity, UnitPrice: it.UnitPrice, Reason: reason, Reference: ref,
				})
			}
			if err != nil {
				return err
			}
		}
		now := uc.now()
		s.Status = entity.SaleConfirmed
		s.ConfirmedBy = actor.UserRef()
		s.ConfirmedAt = &now
		if err := r.Sales.Update(ctx, s); err != nil {
			return err
		}
		ok = true
		return nil
	})
	if err != nil {
		return false, err
	}
	logTransition(uc.log, "confirm", "sale_id", saleID, ok)
	return ok, nil
}

// Cancel cancela una venta en borrador.
func (uc *SaleUseCase) Cancel(ctx context.Context, actor entity.Actor, saleID int64) (bool, error) {
	ok := false
	err := uc.tx.Run(ctx, func(r repository.Set) error {
		s, err := uc.lock(ctx, r, actor, saleID)
		if err != nil {
			return err
		}
		if s.Status != entity.SaleDraft {
			return nil
		}
		s.Status = entity.SaleCancelled
		if err := r.Sales.Update(ctx, s); err != nil {
			return err
		}
		ok = true
		return nil
	})
	if err != nil {
		return false, err
	}
	logTransition(uc.log, "cancel", "sale_id", saleID, ok)
	return ok, nil
}

// Get devuelve la venta con sus líneas.
func (uc *SaleUseCase) Get(ctx context.Context, actor entity.Actor, saleID int64) (*entity.Sale, error) {
	s, err := uc.repos.Sales.GetByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, domain.ErrNotFound
	}
	if err := guard.Owned(actor, s.BusinessID, "venta", s.ID); err != nil {
		return nil, err
	}
	return s, nil
}

// List lista las ventas del negocio.
func (uc *SaleUseCase) List(ctx context.Context, f repository.DocumentFilter) ([]*entity.Sale, error) {
	if f.BusinessID == 0 {
		return nil, domain.ErrInvalidInput
	}
	return uc.repos.Sales.List(ctx, f)
}

func (uc *SaleUseCase) lock(ctx context.Context, r repository.Set, actor entity.Actor, id int64) (*entity.Sale, error) {
	s, err := r.Sales.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("venta %d: %w", id, domain.ErrNotFound)
	}
	if err := guard.Owned(actor, s.BusinessID, "venta", id); err != nil {
		return nil, err
	}
	return s, nil
}

// buildSaleItems valida productos y lotes elegidos. Con lotes, la cantidad de la línea es la suma
// de las cantidades por lote.
func buildSaleItems(ctx context.Context, r repository.Set, actor entity.Actor, storeID int64, in []SaleItemInput) ([]entity.SaleItem, decimal.Decimal, error) {
	total := decimal.Zero
	items := make([]entity.SaleItem, 0, len(in))
	for _, it := range in {
		if it.UnitPrice.IsNegative() {
			return nil, decimal.Zero, domain.ErrInvalidInput
		}
		if _, err := guard.Product(ctx, r, actor, it.ProductID); err != nil {
			return nil, decimal.Zero, err
		}
		qty := it.Quantity
		if len(it.Lots) > 0 {
			qty = decimal.Zero
			for _, lq := range it.Lots {
				if !lq.Quantity.IsPositive() {
					return nil, decimal.Zero, domain.ErrInvalidInput
				}
				lot, err := r.Lots.GetByID(ctx, lq.LotID)
				if err != nil {
					return nil, decimal.Zero, err
				}
				if lot == nil || lot.StoreID != storeID || lot.ProductID != it.ProductID {
					return nil, decimal.Zero, fmt.Errorf("lote %d del producto %d: %w", lq.LotID, it.ProductID, domain.ErrNotFound)
				}
				qty = qty.Add(lq.Quantity)
			}
		}
		if !qty.IsPositive() {
			return nil, decimal.Zero, domain.ErrInvalidInput
		}
		amount := inventory.LineAmount(qty, it.UnitPrice)
		total = total.Add(amount)
		items = append(items, entity.SaleItem{
			ProductID: it.ProductID,
			Quantity:  qty,
			UnitPrice: it.UnitPrice,
			Amount:    amount,
			Location:  it.Location,
			Lots:      append([]entity.LotQuantity(nil), it.Lots...),
		})
	}
	return items, total, nil
}

func logTransition(log zerolog.Logger, action, idField string, id int64, ok bool) {
	if ok {
		log.Info().Str("action", action).Int64(idField, id).Msg("documento actualizado")
		return
	}
	log.Warn().Str("action", action).Int64(idField, id).Msg("transición no permitida en el estado actual")
}
