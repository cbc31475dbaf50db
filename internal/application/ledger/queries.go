package ledger

import (
	"context"
	"time"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

// ListLots devuelve los lotes del negocio según el filtro.
func (e *Engine) ListLots(ctx context.Context, f repository.LotFilter) ([]*entity.Lot, error) {
	if f.BusinessID == 0 {
		return nil, domain.ErrInvalidInput
	}
	return e.repos.Lots.List(ctx, f)
}

// ExpiryAlerts devuelve los lotes con stock que vencen dentro de withinDays días
// (incluye los ya vencidos), ordenados por vencimiento.
func (e *Engine) ExpiryAlerts(ctx context.Context, businessID, storeID int64, withinDays int) ([]*entity.Lot, error) {
	if businessID == 0 || withinDays < 0 {
		return nil, domain.ErrInvalidInput
	}
	limit := entity.DateOnly(ptr(e.now().AddDate(0, 0, withinDays+1)))
	return e.repos.Lots.List(ctx, repository.LotFilter{
		BusinessID:     businessID,
		StoreID:        storeID,
		InStockOnly:    true,
		ExpiringBefore: limit,
	})
}

// ListTransactions devuelve el libro filtrado.
func (e *Engine) ListTransactions(ctx context.Context, f repository.TransactionFilter) ([]*entity.Transaction, error) {
	if f.BusinessID == 0 {
		return nil, domain.ErrInvalidInput
	}
	return e.repos.Transactions.List(ctx, f)
}

// StockLevels devuelve el total disponible por producto en una tienda.
func (e *Engine) StockLevels(ctx context.Context, actor entity.Actor, storeID int64, location string) ([]entity.StockLevel, error) {
	if err := e.checkStore(ctx, e.repos, actor, storeID); err != nil {
		return nil, err
	}
	return e.repos.Lots.StockLevels(ctx, storeID, location, nil)
}

func ptr(t time.Time) *time.Time { return &t }
