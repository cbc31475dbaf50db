package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

// DocumentFilter filtra documentos de un negocio. Los campos en cero no filtran.
type DocumentFilter struct {
	BusinessID int64
	StoreID    int64
	Status     string
	Limit      int
	Offset     int
}

// PurchaseRepository define el puerto de persistencia para compras.
type PurchaseRepository interface {
	// CountByDate cuenta las compras del negocio en el día, para numerar PO-YYYYMMDD-NNN.
	CountByDate(ctx context.Context, businessID int64, day time.Time) (int, error)
	Create(ctx context.Context, p *entity.Purchase) error
	GetByID(ctx context.Context, id int64) (*entity.Purchase, error)
	GetForUpdate(ctx context.Context, id int64) (*entity.Purchase, error)
	ReplaceItems(ctx context.Context, purchaseID int64, items []entity.PurchaseItem) error
	// Update persiste estado, total y datos de recepción.
	Update(ctx context.Context, p *entity.Purchase) error
	List(ctx context.Context, f DocumentFilter) ([]*entity.Purchase, error)
}

// SaleRepository define el puerto de persistencia para ventas.
type SaleRepository interface {
	CountByDate(ctx context.Context, businessID int64, day time.Time) (int, error)
	Create(ctx context.Context, s *entity.Sale) error
	GetByID(ctx context.Context, id int64) (*entity.Sale, error)
	GetForUpdate(ctx context.Context, id int64) (*entity.Sale, error)
	ReplaceItems(ctx context.Context, saleID int64, items []entity.SaleItem) error
	Update(ctx context.Context, s *entity.Sale) error
	List(ctx context.Context, f DocumentFilter) ([]*entity.Sale, error)
}

// WholesaleRepository define el puerto de persistencia para clientes, precios y pedidos mayoristas.
type WholesaleRepository interface {
	CreateClient(ctx context.Context, c *entity.WholesaleClient) error
	GetClient(ctx context.Context, id int64) (*entity.WholesaleClient, error)
	UpsertPricing(ctx context.Context, p *entity.WholesalePricing) error
	GetPricing(ctx context.Context, clientID, productID int64) (*entity.WholesalePricing, error)
	CountOrdersByDate(ctx context.Context, businessID int64, day time.Time) (int, error)
	CreateOrder(ctx context.Context, o *entity.WholesaleOrder) error
	GetOrder(ctx context.Context, id int64) (*entity.WholesaleOrder, error)
	GetOrderForUpdate(ctx context.Context, id int64) (*entity.WholesaleOrder, error)
	// UpdateOrder persiste estado, pagos y datos de despacho.
	UpdateOrder(ctx context.Context, o *entity.WholesaleOrder) error
	CreatePayment(ctx context.Context, p *entity.WholesalePayment) error
	ListOrders(ctx context.Context, f DocumentFilter) ([]*entity.WholesaleOrder, error)
	ClientBalance(ctx context.Context, clientID int64) (*entity.ClientBalance, error)
}

// StockCountRepository define el puerto de persistencia para conteos físicos.
type StockCountRepository interface {
	Create(ctx context.Context, c *entity.StockCount) error
	GetByID(ctx context.Context, id int64) (*entity.StockCount, error)
	GetForUpdate(ctx context.Context, id int64) (*entity.StockCount, error)
	UpdateItem(ctx context.Context, item *entity.StockCountItem) error
	Update(ctx context.Context, c *entity.StockCount) error
	List(ctx context.Context, f DocumentFilter) ([]*entity.StockCount, error)
}

// RepackagingRepository define el puerto de persistencia para reglas de reempaque.
type RepackagingRepository interface {
	CreateRule(ctx context.Context, r *entity.RepackagingRule) error
	GetRule(ctx context.Context, id int64) (*entity.RepackagingRule, error)
	ListRules(ctx context.Context, businessID int64) ([]*entity.RepackagingRule, error)
}

// RecipeRepository define el puerto de persistencia para recetas.
type RecipeRepository interface {
	Create(ctx context.Context, r *entity.Recipe) error
	GetByID(ctx context.Context, id int64) (*entity.Recipe, error)
	// FindForMenu busca la receta activa enlazada al producto de menú, o por nombre si no hay enlace.
	FindForMenu(ctx context.Context, businessID, menuProductID int64, menuName string) (*entity.Recipe, error)
	List(ctx context.Context, businessID int64) ([]*entity.Recipe, error)
}
