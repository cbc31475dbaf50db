// Package stockcount implementa los conteos físicos: se crean con la cantidad del sistema, se
// registran las cantidades contadas y al aprobar se ajustan las diferencias.
package stockcount

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/stockledger-api/internal/application/guard"
	"github.com/jhoicas/stockledger-api/internal/application/ledger"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// CreateInput datos de un nuevo conteo.
type CreateInput struct {
	Actor      entity.Actor
	StoreID    int64
	Location   string
	CategoryID *int64
	CountDate  time.Time
	Memo       string
}

// ItemCount cantidad contada de una línea.
type ItemCount struct {
	ItemID int64
	Actual decimal.Decimal
	Memo   string
}

// UseCase casos de uso de conteos físicos.
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
		log:    log.With().Str("component", "stock_count").Logger(),
		now:    time.Now,
	}
}

// Create toma una foto del saldo por producto en (tienda, ubicación, categoría) como cantidad del sistema.
func (uc *UseCase) Create(ctx context.Context, in CreateInput) (*entity.StockCount, error) {
	loc := in.Location
	if loc == "" {
		loc = entity.DefaultLocation
	}
	date := in.CountDate
	if date.IsZero() {
		date = uc.now()
	}
	var out *entity.StockCount
	err := uc.tx.Run(ctx, func(r repository.Set) error {
		if _, err := guard.Store(ctx, r, in.Actor, in.StoreID); err != nil {
			return err
		}
		levels, err := r.Lots.StockLevels(ctx, in.StoreID, loc, in.CategoryID)
		if err != nil {
			return err
		}
		c := &entity.StockCount{
			BusinessID: in.Actor.BusinessID,
			StoreID:    in.StoreID,
			Location:   loc,
			CategoryID: in.CategoryID,
			CountDate:  date,
			Status:     entity.StockCountDraft,
			Memo:       in.Memo,
			CreatedBy:  in.Actor.UserRef(),
		}
		for _, lv := range levels {
			c.Items = append(c.Items, entity.StockCountItem{
				ProductID:      lv.ProductID,
				SystemQuantity: lv.Quantity,
				Difference:     decimal.Zero,
			})
		}
		if err := r.StockCounts.Create(ctx, c); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Int64("count_id", out.ID).Int("items", len(out.Items)).Msg("conteo creado")
	return out, nil
}

// UpdateItems registra cantidades contadas; diferencia = contado − sistema.
// Devuelve false si el conteo ya fue aprobado.
func (uc *UseCase) UpdateItems(ctx context.Context, actor entity.Actor, countID int64, counts []ItemCount) (bool, error) {
	for _, ic := range counts {
		if ic.Actual.IsNegative() {
			return false, domain.ErrInvalidInput
		}
	}
	ok := false
	err := uc.tx.Run(ctx, func(r repository.Set) error {
		c, err := lock(ctx, r, actor, countID)
		if err != nil {
			return err
		}
		if c.Status != entity.StockCountDraft {
			return nil
		}
		byID := make(map[int64]*entity.StockCountItem, len(c.Items))
		for i := range c.Items {
			byID[c.Items[i].ID] = &c.Items[i]
		}
		for _, ic := range counts {
			item, found := byID[ic.ItemID]
			if !found {
				return fmt.Errorf("línea %d no pertenece al conteo %d: %w", ic.ItemID, c.ID, domain.ErrInvalidInput)
			}
			actual := ic.Actual
			item.ActualQuantity = &actual
			item.Difference = actual.Sub(item.SystemQuantity)
			item.Memo = ic.Memo
			if err := r.StockCounts.UpdateItem(ctx, item); err != nil {
				return err
			}
		}
		ok = true
		return nil
	})
	return ok, err
}

// Approve ajusta a la cantidad contada cada línea con diferencia y marca el conteo como aprobado.
// Devuelve false si el conteo no está en borrador.
func (uc *UseCase) Approve(ctx context.Context, actor entity.Actor, countID int64) (bool, error) {
	ok := false
	adjusted := 0
	err := uc.tx.Run(ctx, func(r repository.Set) error {
		c, err := lock(ctx, r, actor, countID)
		if err != nil {
			return err
		}
		if c.Status != entity.StockCountDraft {
			return nil
		}
		ref := &entity.Reference{Type: entity.ReferenceStockCount, ID: c.ID}
		for _, it := range c.Items {
			if !it.HasDifference() {
				continue
			}
			if _, err := uc.ledger.AdjustTx(ctx, r, ledger.AdjustInput{
				Actor:       actor,
				ProductID:   it.ProductID,
				StoreID:     c.StoreID,
				Location:    c.Location,
				NewQuantity: *it.ActualQuantity,
				Reason:      fmt.Sprintf("Conteo físico #%d", c.ID),
				Reference:   ref,
			}); err != nil {
				return err
			}
			adjusted++
		}
		now := uc.now()
		c.Status = entity.StockCountApproved
		c.ApprovedBy = actor.UserRef()
		c.ApprovedAt = &now
		if err := r.StockCounts.Update(ctx, c); err != nil {
			return err
		}
		ok = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if ok {
		uc.log.Info().Int64("count_id", countID).Int("adjusted", adjusted).Msg("conteo aprobado")
	} else {
		uc.log.Warn().Int64("count_id", countID).Msg("el conteo no está en borrador")
	}
	return ok, nil
}

// Get devuelve el conteo con sus líneas.
func (uc *UseCase) Get(ctx context.Context, actor entity.Actor, countID int64) (*entity.StockCount, error) {
	c, err := uc.repos.StockCounts.GetByID(ctx, countID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	if err := guard.Owned(actor, c.BusinessID, "conteo", c.ID); err != nil {
		return nil, err
	}
	return c, nil
}

// List lista los conteos del negocio.
func (uc *UseCase) List(ctx context.Context, f repository.DocumentFilter) ([]*entity.StockCount, error) {
	if f.BusinessID == 0 {
		return nil, domain.ErrInvalidInput
	}
	return uc.repos.StockCounts.List(ctx, f)
}

func lock(ctx context.Context, r repository.Set, actor entity.Actor, id int64) (*entity.StockCount, error) {
	c, err := r.StockCounts.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("conteo %d: %w", id, domain.ErrNotFound)
	}
	if err := guard.Owned(actor, c.BusinessID, "conteo", id); err != nil {
		return nil, err
	}
	return c, nil
}
