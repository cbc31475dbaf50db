// Package guard valida que los registros referenciados existan y pertenezcan al negocio del actor.
package guard

import (
	"context"
	"fmt"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

// Store devuelve la tienda si existe y es del negocio del actor.
func Store(ctx context.Context, r repository.Set, actor entity.Actor, storeID int64) (*entity.Store, error) {
	if actor.BusinessID == 0 || storeID == 0 {
		return nil, domain.ErrInvalidInput
	}
	s, err := r.Stores.GetByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("tienda %d: %w", storeID, domain.ErrNotFound)
	}
	if s.BusinessID != actor.BusinessID {
		return nil, domain.ErrForbidden
	}
	return s, nil
}

// Product devuelve el producto si existe y es del negocio del actor.
func Product(ctx context.Context, r repository.Set, actor entity.Actor, productID int64) (*entity.Product, error) {
	if actor.BusinessID == 0 || productID == 0 {
		return nil, domain.ErrInvalidInput
	}
	p, err := r.Products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("producto %d: %w", productID, domain.ErrNotFound)
	}
	if p.BusinessID != actor.BusinessID {
		return nil, domain.ErrForbidden
	}
	return p, nil
}

// Owned oculta como inexistentes los documentos de otro negocio.
func Owned(actor entity.Actor, businessID int64, what string, id int64) error {
	if businessID != actor.BusinessID {
		return fmt.Errorf("%s %d: %w", what, id, domain.ErrNotFound)
	}
	return nil
}
