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

var _ repository.PurchaseRepository = (*PurchaseRepo)(nil)

// PurchaseRepo implementación del puerto PurchaseRepository sobre PostgreSQL.
type PurchaseRepo struct {
	q Querier
}

// NewPurchaseRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPurchaseRepository(q Querier) *PurchaseRepo {
	return &PurchaseRepo{q: q}
}

const purchaseColumns = `id, business_id, store_id, supplier_id, number, purchase_date, status, total_amount, memo,
	created_by, received_by, received_at, created_at, updated_at`

func scanPurchase(row pgx.Row) (*entity.Purchase, error) {
	var p entity.Purchase
	if err := row.Scan(&p.ID, &p.BusinessID, &p.StoreID, &p.SupplierID, &p.Number, &p.PurchaseDate, &p.Status,
		&p.TotalAmount, &p.Memo, &p.CreatedBy, &p.ReceivedBy, &p.ReceivedAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// CountByDate cuenta las compras del negocio en el día.
func (r *PurchaseRepo) CountByDate(ctx context.Context, businessID int64, day time.Time) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM purchases WHERE business_id = $1 AND purchase_date = $2::date`,
		businessID, *entity.DateOnly(&day)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count purchases: %w", err)
	}
	return n, nil
}

// Create persiste la compra con sus líneas.
func (r *PurchaseRepo) Create(ctx context.Context, p *entity.Purchase) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO purchases (business_id, store_id, supplier_id, number, purchase_date, status, total_amount, memo, created_by)
		VALUES ($1, $2, $3, $4, $5::date, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`,
		p.BusinessID, p.StoreID, p.SupplierID, p.Number, *entity.DateOnly(&p.PurchaseDate), p.Status,
		p.TotalAmount, p.Memo, p.CreatedBy,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert purchase: %w", err)
	}
	return r.insertItems(ctx, p.ID, p.Items)
}

func (r *PurchaseRepo) insertItems(ctx context.Context, purchaseID int64, items []entity.PurchaseItem) error {
	for i := range items {
		it := &items[i]
		it.PurchaseID = purchaseID
		err := r.q.QueryRow(ctx, `
			INSERT INTO purchase_items (purchase_id, product_id, quantity, unit_price, amount, expiry_date, location)
			VALUES ($1, $2, $3, $4, $5, $6::date, $7)
			RETURNING id`,
			purchaseID, it.ProductID, it.Quantity, it.UnitPrice, it.Amount, entity.DateOnly(it.ExpiryDate), it.Location,
		).Scan(&it.ID)
		if err != nil {
			return fmt.Errorf("insert purchase item: %w", err)
		}
	}
	return nil
}

func (r *PurchaseRepo) items(ctx context.Context, purchaseID int64) ([]entity.PurchaseItem, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, purchase_id, product_id, quantity, unit_price, amount, expiry_date, location
		FROM purchase_items WHERE purchase_id = $1 ORDER BY id`, purchaseID)
	if err != nil {
		return nil, fmt.Errorf("list purchase items: %w", err)
	}
	defer rows.Close()
	var list []entity.PurchaseItem
	for rows.Next() {
		var it entity.PurchaseItem
		if err := rows.Scan(&it.ID, &it.PurchaseID, &it.ProductID, &it.Quantity, &it.UnitPrice, &it.Amount,
			&it.ExpiryDate, &it.Location); err != nil {
			return nil, fmt.Errorf("scan purchase item: %w", err)
		}
		it.ExpiryDate = entity.DateOnly(it.ExpiryDate)
		list = append(list, it)
	}
	return list, rows.Err()
}

func (r *PurchaseRepo) get(ctx context.Context, query string, id int64) (*entity.Purchase, error) {
	p, err := scanPurchase(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get purchase: %w", err)
	}
	if p.Items, err = r.items(ctx, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

// GetByID obtiene una compra con sus líneas.
func (r *PurchaseRepo) GetByID(ctx context.Context, id int64) (*entity.Purchase, error) {
	return r.get(ctx, `SELECT `+purchaseColumns+` FROM purchases WHERE id = $1`, id)
}

// GetForUpdate obtiene una compra bloqueando la cabecera.
func (r *PurchaseRepo) GetForUpdate(ctx context.Context, id int64) (*entity.Purchase, error) {
	return r.get(ctx, `SELECT `+purchaseColumns+` FROM purchases WHERE id = $1 FOR UPDATE`, id)
}

// ReplaceItems reemplaza todas las líneas de la compra.
func (r *PurchaseRepo) ReplaceItems(ctx context.Context, purchaseID int64, items []entity.PurchaseItem) error {
	tag, err := r.q.Exec(ctx, `UPDATE purchases SET updated_at = now() WHERE id = $1`, purchaseID)
	if err != nil {
		return fmt.Errorf("touch purchase: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM purchase_items WHERE purchase_id = $1`, purchaseID); err != nil {
		return fmt.Errorf("delete purchase items: %w", err)
	}
	return r.insertItems(ctx, purchaseID, items)
}

// Update persiste estado, total, memo y datos de recepción.
func (r *PurchaseRepo) Update(ctx context.Context, p *entity.Purchase) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE purchases
		SET status = $2, total_amount = $3, memo = $4, received_by = $5, received_at = $6, updated_at = now()
		WHERE id = $1`,
		p.ID, p.Status, p.TotalAmount, p.Memo, p.ReceivedBy, p.ReceivedAt)
	if err != nil {
		return fmt.Errorf("update purchase: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List consulta compras, más recientes primero.
func (r *PurchaseRepo) List(ctx context.Context, f repository.DocumentFilter) ([]*entity.Purchase, error) {
	w := documentFilter(f)
	query := `SELECT ` + purchaseColumns + ` FROM purchases` + w.where() + ` ORDER BY id DESC` + w.page(f.Limit, f.Offset)
	rows, err := r.q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	list, err := collect(rows, scanPurchase)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	for _, p := range list {
		if p.Items, err = r.items(ctx, p.ID); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// documentFilter traduce el filtro común de documentos.
func documentFilter(f repository.DocumentFilter) *filter {
	w := &filter{}
	if f.BusinessID != 0 {
		w.add("business_id = ?", f.BusinessID)
	}
	if f.StoreID != 0 {
		w.add("store_id = ?", f.StoreID)
	}
	if f.Status != "" {
		w.add("status = ?", f.Status)
	}
	return w
}

// collect lee todas las filas y cierra rows antes de devolver, para poder cargar
// las líneas de cada cabecera sobre la misma conexión.
func collect[T any](rows pgx.Rows, scan func(pgx.Row) (*T, error)) ([]*T, error) {
	defer rows.Close()
	var list []*T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, v)
	}
	return list, rows.Err()
}
