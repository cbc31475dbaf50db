package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

var _ repository.WholesaleRepository = (*WholesaleRepo)(nil)

// WholesaleRepo implementación del puerto WholesaleRepository sobre PostgreSQL.
type WholesaleRepo struct {
	q Querier
}

// NewWholesaleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewWholesaleRepository(q Querier) *WholesaleRepo {
	return &WholesaleRepo{q: q}
}

// CreateClient persiste un cliente mayorista.
func (r *WholesaleRepo) CreateClient(ctx context.Context, c *entity.WholesaleClient) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO wholesale_clients (business_id, name, business_number, phone, default_discount_rate, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		c.BusinessID, c.Name, c.BusinessNumber, c.Phone, c.DefaultDiscountRate, c.Active,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert wholesale client: %w", err)
	}
	return nil
}

// GetClient obtiene un cliente por ID.
func (r *WholesaleRepo) GetClient(ctx context.Context, id int64) (*entity.WholesaleClient, error) {
	var c entity.WholesaleClient
	err := r.q.QueryRow(ctx, `
		SELECT id, business_id, name, business_number, phone, default_discount_rate, active, created_at
		FROM wholesale_clients WHERE id = $1`, id,
	).Scan(&c.ID, &c.BusinessID, &c.Name, &c.BusinessNumber, &c.Phone, &c.DefaultDiscountRate, &c.Active, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get wholesale client: %w", err)
	}
	return &c, nil
}

// UpsertPricing crea o reemplaza el precio especial de (cliente, producto).
func (r *WholesaleRepo) UpsertPricing(ctx context.Context, p *entity.WholesalePricing) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO wholesale_pricing (client_id, product_id, discount_type, discount_rate, fixed_price)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (client_id, product_id)
		DO UPDATE SET discount_type = EXCLUDED.discount_type, discount_rate = EXCLUDED.discount_rate,
			fixed_price = EXCLUDED.fixed_price
		RETURNING id`,
		p.ClientID, p.ProductID, p.DiscountType, p.DiscountRate, p.FixedPrice,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("upsert wholesale pricing: %w", err)
	}
	return nil
}

// GetPricing obtiene el precio especial de (cliente, producto).
func (r *WholesaleRepo) GetPricing(ctx context.Context, clientID, productID int64) (*entity.WholesalePricing, error) {
	var p entity.WholesalePricing
	err := r.q.QueryRow(ctx, `
		SELECT id, client_id, product_id, discount_type, discount_rate, fixed_price
		FROM wholesale_pricing WHERE client_id = $1 AND product_id = $2`, clientID, productID,
	).Scan(&p.ID, &p.ClientID, &p.ProductID, &p.DiscountType, &p.DiscountRate, &p.FixedPrice)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get wholesale pricing: %w", err)
	}
	return &p, nil
}

// CountOrdersByDate cuenta los pedidos del negocio en el día.
func (r *WholesaleRepo) CountOrdersByDate(ctx context.Context, businessID int64, day time.Time) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM wholesale_orders WHERE business_id = $1 AND order_date = $2::date`,
		businessID, *entity.DateOnly(&day)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count wholesale orders: %w", err)
	}
	return n, nil
}

const orderColumns = `id, business_id, store_id, client_id, number, order_date, status, total_amount, discount_amount,
	final_amount, paid_amount, payment_status, memo, created_by, shipped_by, shipped_at, created_at, updated_at`

func scanOrder(row pgx.Row) (*entity.WholesaleOrder, error) {
	var o entity.WholesaleOrder
	if err := row.Scan(&o.ID, &o.BusinessID, &o.StoreID, &o.ClientID, &o.Number, &o.OrderDate, &o.Status,
		&o.TotalAmount, &o.DiscountAmount, &o.FinalAmount, &o.PaidAmount, &o.PaymentStatus, &o.Memo,
		&o.CreatedBy, &o.ShippedBy, &o.ShippedAt, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	return &o, nil
}

// CreateOrder persiste el pedido con sus líneas.
func (r *WholesaleRepo) CreateOrder(ctx context.Context, o *entity.WholesaleOrder) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO wholesale_orders (business_id, store_id, client_id, number, order_date, status, total_amount,
			discount_amount, final_amount, paid_amount, payment_status, memo, created_by)
		VALUES ($1, $2, $3, $4, $5::date, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at`,
		o.BusinessID, o.StoreID, o.ClientID, o.Number, *entity.DateOnly(&o.OrderDate), o.Status, o.TotalAmount,
		o.DiscountAmount, o.FinalAmount, o.PaidAmount, o.PaymentStatus, o.Memo, o.CreatedBy,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert wholesale order: %w", err)
	}
	for i := range o.Items {
		it := &o.Items[i]
		it.OrderID = o.ID
		err := r.q.QueryRow(ctx, `
			INSERT INTO wholesale_order_items (order_id, product_id, quantity, unit_price, discount_rate,
				discount_amount, amount, location)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id`,
			o.ID, it.ProductID, it.Quantity, it.UnitPrice, it.DiscountRate, it.DiscountAmount, it.Amount, it.Location,
		).Scan(&it.ID)
		if err != nil {
			return fmt.Errorf("insert wholesale order item: %w", err)
		}
	}
	return nil
}

func (r *WholesaleRepo) orderItems(ctx context.Context, orderID int64) ([]entity.WholesaleOrderItem, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, order_id, product_id, quantity, unit_price, discount_rate, discount_amount, amount, location
		FROM wholesale_order_items WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list wholesale order items: %w", err)
	}
	defer rows.Close()
	var list []entity.WholesaleOrderItem
	for rows.Next() {
		var it entity.WholesaleOrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.UnitPrice, &it.DiscountRate,
			&it.DiscountAmount, &it.Amount, &it.Location); err != nil {
			return nil, fmt.Errorf("scan wholesale order item: %w", err)
		}
		list = append(list, it)
	}
	return list, rows.Err()
}

func (r *WholesaleRepo) getOrder(ctx context.Context, query string, id int64) (*entity.WholesaleOrder, error) {
	o, err := scanOrder(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get wholesale order: %w", err)
	}
	if o.Items, err = r.orderItems(ctx, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

// GetOrder obtiene un pedido con sus líneas.
func (r *WholesaleRepo) GetOrder(ctx context.Context, id int64) (*entity.WholesaleOrder, error) {
	return r.getOrder(ctx, `SELECT `+orderColumns+` FROM wholesale_orders WHERE id = $1`, id)
}

// GetOrderForUpdate obtiene un pedido bloqueando la cabecera.
func (r *WholesaleRepo) GetOrderForUpdate(ctx context.Context, id int64) (*entity.WholesaleOrder, error) {
	return r.getOrder(ctx, `SELECT `+orderColumns+` FROM wholesale_orders WHERE id = $1 FOR UPDATE`, id)
}

// UpdateOrder persiste estado, pagos, memo y datos de despacho.
func (r *WholesaleRepo) UpdateOrder(ctx context.Context, o *entity.WholesaleOrder) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE wholesale_orders
		SET status = $2, paid_amount = $3, payment_status = $4, memo = $5, shipped_by = $6, shipped_at = $7,
			updated_at = now()
		WHERE id = $1`,
		o.ID, o.Status, o.PaidAmount, o.PaymentStatus, o.Memo, o.ShippedBy, o.ShippedAt)
	if err != nil {
		return fmt.Errorf("update wholesale order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CreatePayment registra un abono.
func (r *WholesaleRepo) CreatePayment(ctx context.Context, p *entity.WholesalePayment) error {
	var paidAt *time.Time
	if !p.PaidAt.IsZero() {
		paidAt = &p.PaidAt
	}
	err := r.q.QueryRow(ctx, `
		INSERT INTO wholesale_payments (order_id, amount, method, paid_at, memo, created_by)
		VALUES ($1, $2, $3, COALESCE($4::timestamptz, now()), $5, $6)
		RETURNING id, paid_at`,
		p.OrderID, p.Amount, p.Method, paidAt, p.Memo, p.CreatedBy,
	).Scan(&p.ID, &p.PaidAt)
	if err != nil {
		return fmt.Errorf("insert wholesale payment: %w", err)
	}
	return nil
}

// ListOrders consulta pedidos, más recientes primero.
func (r *WholesaleRepo) ListOrders(ctx context.Context, f repository.DocumentFilter) ([]*entity.WholesaleOrder, error) {
	w := documentFilter(f)
	query := `SELECT ` + orderColumns + ` FROM wholesale_orders` + w.where() + ` ORDER BY id DESC` + w.page(f.Limit, f.Offset)
	rows, err := r.q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list wholesale orders: %w", err)
	}
	list, err := collect(rows, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("list wholesale orders: %w", err)
	}
	for _, o := range list {
		if o.Items, err = r.orderItems(ctx, o.ID); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// ClientBalance suma los pedidos no cancelados del cliente y sus abonos.
func (r *WholesaleRepo) ClientBalance(ctx context.Context, clientID int64) (*entity.ClientBalance, error) {
	b := &entity.ClientBalance{ClientID: clientID}
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(SUM(final_amount), 0), COALESCE(SUM(paid_amount), 0)
		FROM wholesale_orders WHERE client_id = $1 AND status <> 'cancelled'`, clientID,
	).Scan(&b.TotalAmount, &b.PaidAmount)
	if err != nil {
		return nil, fmt.Errorf("client balance: %w", err)
	}
	b.Balance = b.TotalAmount.Sub(b.PaidAmount)
	return b, nil
}
