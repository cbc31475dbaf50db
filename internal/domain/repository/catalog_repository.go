package repository

import (
	"context"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// BusinessRepository define el puerto de persistencia para negocios.
type BusinessRepository interface {
	Create(ctx context.Context, b *entity.Business) error
	GetByID(ctx context.Context, id int64) (*entity.Business, error)
	ListPosEnabled(ctx context.Context) ([]*entity.Business, error)
}

// StoreRepository define el puerto de persistencia para tiendas.
type StoreRepository interface {
	Create(ctx context.Context, s *entity.Store) error
	GetByID(ctx context.Context, id int64) (*entity.Store, error)
	ListByBusiness(ctx context.Context, businessID int64) ([]*entity.Store, error)
}

// ProductRepository define el puerto de persistencia para productos.
type ProductRepository interface {
	Create(ctx context.Context, p *entity.Product) error
	GetByID(ctx context.Context, id int64) (*entity.Product, error)
	GetByCode(ctx context.Context, businessID int64, code string) (*entity.Product, error)
	ListByBusiness(ctx context.Context, businessID int64) ([]*entity.Product, error)
	// UpdatePrices guarda costo y precio de venta (costo promedio de compras, maestro del POS).
	UpdatePrices(ctx context.Context, id int64, purchasePrice, sellPrice decimal.Decimal) error
}
