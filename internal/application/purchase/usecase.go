// Package purchase implementa las órdenes de compra: borrador, recepción (entrada al inventario
// con costo promedio ponderado) y cancelación.
package purchase

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

// ItemInput línea de compra.
type ItemInput struct {
	ProductID  int64
	Quantity   decimal.Decimal
	UnitPrice  decimal.Decimal
	ExpiryDate *time.Time
	Location   string
}

// CreateInput datos de una nueva compra.
type CreateInput struct {
	Actor        entity.Actor
	StoreID      int64
	SupplierID   *int64
	PurchaseDate time.Time
	Memo         string
	Items        []ItemInput
}

// UseCase casos de uso de compras.
type UseCase struct {
	tx     repository.TxRunner
	repos  repository.Set
	ledger *ledger.Engine
	log    zerolog.Logger
	now    func() time.Time
}

// NewUseCase construye el caso de uso.
func NewUseCase(tx repository.TxRunner, repos repository.Set, engine *ledger.Engine, log zerolog.Logger) *UseCase {
	return &UseCase{
		tx:     tx,
		repos:  repos,
		ledger: engine,
		log:    log.With().Str("component", "purchase").Logger(),
		now:    time.Now,
	}
}

// Create registra la compra en borrador con número PO-YYYYMMDD-NNN. No afecta inventario.
func (uc *UseCase) Create(ctx context.Context, in CreateInput) (*entity.Purchase, error) {
	if len(in.Items) == 0 {
		return nil, domain.ErrInvalidInput
	}
	date := in.PurchaseDate
	if date.IsZero() {
		date = uc.now()
	}
	var out *entity.Purchase
	err := uc.tx.Run(ctx, func(r repository.Set) error {
		if _, err := guard.Store(ctx, r, in.Actor, in.StoreID); err != nil {
			return err
		}
		items, total, err := buildItems(ctx, r, in.Actor, in.Items)
		if err != nil {
			return err
		}
		n, err := r.Purchases.CountByDate(ctx, in.Actor.BusinessID, date)
		if err != nil {
			return err
		}
		p := &entity.Purchase{
			BusinessID:   in.Actor.BusinessID,
			StoreID:      in.StoreID,
			SupplierID:   in.SupplierID,
			Number:       entity.DocumentNumber(entity.PrefixPurchase, date, n+1),
			PurchaseDate: date,
			Status:       entity.PurchaseDraft,
			TotalAmount:  total,
			Memo:         in.Memo,
			CreatedBy:    in.Actor.UserRef(),
			Items:        items,
		}
		if err := r.Purchases.Create(ctx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Int64("purchase_id", out.ID).Str("number", out.Number).Msg("compra creada")
	return out, nil
}

// ReplaceItems reemplaza las líneas de una compra en borrador y recalcula el total.
// Devuelve false si la compra ya no está en borrador.
func (uc *UseCase) ReplaceItems(ctx context.Context, actor entity.Actor, purchaseID int64, in []ItemInput) (bool, error) {
	if len(in) == 0 {
		return false, domain.ErrInvalidInput
	}
	ok := false
	err := uc.tx.Run(ctx, func(r repository.Set) error {
		p, err := lock(ctx, r, actor, purchaseID)
		if err != nil {
			return err
		}
		if p.Status != entity.PurchaseDraft {
			return nil
		}
		items, total, err := buildItems(ctx, r, actor, in)
		if err != nil {
			return err
		}
		if err := r.Purchases.ReplaceItems(ctx, p.ID, items); err != nil {
			return err
		}
		p.TotalAmount = total
		if err := r.Purchases.Update(ctx, p); err != nil {
			return err
		}
		ok = true
		return nil
	})
	return ok, err
}

// Receive da entrada a cada línea con referencia a la compra y actualiza el costo promedio de
// los productos. Devuelve false si la compra no está en borrador.
func (uc *UseCase) Receive(ctx context.Context, actor entity.Actor, purchaseID int64) (bool, error) {
	ok := false
	err := uc.tx.Run(ctx, func(r repository.Set) error {
		p, err := lock(ctx, r, actor, purchaseID)
		if err != nil {
			return err
		}
		if p.Status != entity.PurchaseDraft {
			return nil
		}
		ref := &entity.Reference{Type: entity.ReferencePurchase, ID: p.ID}
		for _, it := range p.Items {
			if err := uc.updateCost(ctx, r, p.StoreID, it); err != nil {
				return err
			}
			if _, err := uc.ledger.StockInTx(ctx, r, ledger.StockInInput{
				Actor:      actor,
				ProductID:  it.ProductID,
				StoreID:    p.StoreID,
				Location:   it.Location,
				Quantity:   it.Quantity,
				ExpiryDate: it.ExpiryDate,
				UnitPrice:  it.UnitPrice,
				Reason:     "Compra " + p.Number,
				Reference:  ref,
			}); err != nil {
				return err
			}
		}
		now := uc.now()
		p.Status = entity.PurchaseReceived
		p.ReceivedBy = actor.UserRef()
		p.ReceivedAt = &now
		if err := r.Purchases.Update(ctx, p); err != nil {
			return err
		}
		ok = true
		return nil
	})
	if err != nil {
		return false, err
	}
	uc.logTransition("receive", purchaseID, ok)
	return ok, nil
}

// updateCost recalcula el costo promedio con el saldo de la tienda antes de la entrada.
func (uc *UseCase) updateCost(ctx context.Context, r repository.Set, storeID int64, it entity.PurchaseItem) error {
	product, err := r.Products.GetByID(ctx, it.ProductID)
	if err != nil {
		return err
	}
	if product == nil {
		return fmt.Errorf("producto %d: %w", it.ProductID, domain.ErrNotFound)
	}
	onHand := decimal.Zero
	levels, err := r.Lots.StockLevels(ctx, storeID, "", nil)
	if err != nil {
		return err
	}
	for _, lv := range levels {
		if lv.ProductID == it.ProductID {
			onHand = lv.Quantity
		}
	}
	cost := inventory.WeightedAverageCost(onHand, product.PurchasePrice, it.Quantity, it.UnitPrice)
	return r.Products.UpdatePrices(ctx, product.ID, cost, product.SellPrice)
}

// Cancel cancela una compra en borrador. No hay efecto en inventario.
func (uc *UseCase) Cancel(ctx context.Context, actor entity.Actor, purchaseID int64) (bool, error) {
	ok := false
	err := uc.tx.Run(ctx, func(r repository.Set) error {
		p, err := lock(ctx, r, actor, purchaseID)
		if err != nil {
			return err
		}
		if p.Status != entity.PurchaseDraft {
			return nil
		}
		p.Status = entity.PurchaseCancelled
		if err := r.Purchases.Update(ctx, p); err != nil {
			return err
		}
		ok = true
		return nil
	})
	if err != nil {
		return false, err
	}
	uc.logTransition("cancel", purchaseID, ok)
	return ok, nil
}

// Get devuelve la compra con sus líneas.
func (uc *UseCase) Get(ctx context.Context, actor entity.Actor, purchaseID int64) (*entity.Purchase, error) {
	p, err := uc.repos.Purchases.GetByID(ctx, purchaseID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	if err := guard.Owned(actor, p.BusinessID, "compra", p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

// List lista las compras del negocio.
func (uc *UseCase) List(ctx context.Context, f repository.DocumentFilter) ([]*entity.Purchase, error) {
	if f.BusinessID == 0 {
		return nil, domain.ErrInvalidInput
	}
	return uc.repos.Purchases.List(ctx, f)
}

func buildItems(ctx context.Context, r repository.Set, actor entity.Actor, in []ItemInput) ([]entity.PurchaseItem, decimal.Decimal, error) {
	total := decimal.Zero
	items := make([]entity.PurchaseItem, 0, len(in))
	for _, it := range in {
		if !it.Quantity.IsPositive() || it.UnitPrice.IsNegative() {
			return nil, decimal.Zero, domain.ErrInvalidInput
		}
		if _, err := guard.Product(ctx, r, actor, it.ProductID); err != nil {
			return nil, decimal.Zero, err
		}
		amount := inventory.LineAmount(it.Quantity, it.UnitPrice)
		total = total.Add(amount)
		items = append(items, entity.PurchaseItem{
			ProductID:  it.ProductID,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			Amount:     amount,
			ExpiryDate: entity.DateOnly(it.ExpiryDate),
			Location:   it.Location,
		})
	}
	return items, total, nil
}

func lock(ctx context.Context, r repository.Set, actor entity.Actor, id int64) (*entity.Purchase, error) {
	p, err := r.Purchases.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("compra %d: %w", id, domain.ErrNotFound)
	}
	if err := guard.Owned(actor, p.BusinessID, "compra", id); err != nil {
		return nil, err
	}
	return p, nil
}

func (uc *UseCase) logTransition(action string, id int64, ok bool) {
	if ok {
		uc.log.Info().Str("action", action).Int64("purchase_id", id).Msg("compra actualizada")
		return
	}
	uc.log.Warn().Str("action", action).Int64("purchase_id", id).Msg("la compra no está en borrador")
}
