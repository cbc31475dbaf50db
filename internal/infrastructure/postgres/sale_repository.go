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

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo implementación del puerto SaleRepository sobre PostgreSQL.
// Los lotes elegidos por línea se guardan en sale_item_lots.
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

const saleColumns = `id, business_id, store_id, customer_id, number, sale_date, status, total_amount, memo,
	created_by, confirmed_by, confirmed_at, created_at, updated_at`

func scanSale(row pgx.Row) (*entity.Sale, error) {
	var s entity.Sale
	if err := row.Scan(&s.ID, &s.BusinessID, &s.StoreID, &s.CustomerID, &s.Number, &s.SaleDate, &s.Status,
		&s.TotalAmount, &s.Memo, &s.CreatedBy, &s.ConfirmedBy, &s.ConfirmedAt, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

// CountByDate cuenta las ventas del negocio en el día.
func (r *SaleRepo) CountByDate(ctx context.Context, businessID int64, day time.Time) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM sales WHERE business_id = $1 AND sale_date = $2::date`,
		businessID, *entity.DateOnly(&day)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count sales: %w", err)
	}
	return n, nil
}

// Create persiste la venta con sus líneas.
func (r *SaleRepo) Create(ctx context.Context, s *entity.Sale) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO sales (business_id, store_id, customer_id, number, sale_date, status, total_amount, memo, created_by)
		VALUES ($1, $2, $3, $4, $5::date, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`,
		s.BusinessID, s.StoreID, s.CustomerID, s.Number, *entity.DateOnly(&s.SaleDate), s.Status,
		s.TotalAmount, s.Memo, s.CreatedBy,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert sale: %w", err)
	}
	return r.insertItems(ctx, s.ID, s.Items)
}

func (r *SaleRepo) insertItems(ctx context.Context, saleID int64, items []entity.SaleItem) error {
	for i := range items {
		it := &items[i]
		it.SaleID = saleID
		err := r.q.QueryRow(ctx, `
			INSERT INTO sale_items (sale_id, product_id, quantity, unit_price, amount, location)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			saleID, it.ProductID, it.Quantity, it.UnitPrice, it.Amount, it.Location,
		).Scan(&it.ID)
		if err != nil {
			return fmt.Errorf("insert sale item: %w", err)
		}
		for pos, lq := range it.Lots {
			if _, err := r.q.Exec(ctx, `
				INSERT INTO sale_item_lots (sale_item_id, position, lot_id, quantity) VALUES ($1, $2, $3, $4)`,
				it.ID, pos, lq.LotID, lq.Quantity); err != nil {
				return fmt.Errorf("insert sale item lot: %w", err)
			}
		}
	}
	return nil
}

func (r *SaleRepo) items(ctx context.Context, saleID int64) ([]entity.SaleItem, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, sale_id, product_id, quantity, unit_price, amount, location
		FROM sale_items WHERE sale_id = $1 ORDER BY id`, saleID)
	if err != nil {
		return nil, fmt.Errorf("list sale items: %w", err)
	}
	var list []entity.SaleItem
	index := map[int64]int{}
	for rows.Next() {
		var it entity.SaleItem
		if err := rows.Scan(&it.ID, &it.SaleID, &it.ProductID, &it.Quantity, &it.UnitPrice, &it.Amount, &it.Location); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan sale item: %w", err)
		}
		index[it.ID] = len(list)
		list = append(list, it)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sale items: %w", err)
	}
	if len(list) == 0 {
		return list, nil
	}

	lotRows, err := r.q.Query(ctx, `
		SELECT l.sale_item_id, l.lot_id, l.quantity
		FROM sale_item_lots l JOIN sale_items i ON i.id = l.sale_item_id
		WHERE i.sale_id = $1 ORDER BY l.sale_item_id, l.position`, saleID)
	if err != nil {
		return nil, fmt.Errorf("list sale item lots: %w", err)
	}
	defer lotRows.Close()
	for lotRows.Next() {
		var itemID int64
		var lq entity.LotQuantity
		if err := lotRows.Scan(&itemID, &lq.LotID, &lq.Quantity); err != nil {
			return nil, fmt.Errorf("scan sale item lot: %w", err)
		}
		if i, ok := index[itemID]; ok {
			list[i].Lots = append(list[i].Lots, lq)
		}
	}
	return list, lotRows.Err()
}

func (r *SaleRepo) get(ctx context.Context, query string, id int64) (*entity.Sale, error) {
	s, err := scanSale(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}
	if s.Items, err = r.items(ctx, s.ID); err != nil {
		return nil, err
	}
	return s, nil
}

// GetByID obtiene una venta con sus líneas.
func (r *SaleRepo) GetByID(ctx context.Context, id int64) (*entity.Sale, error) {
	return r.get(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id)
}

// GetForUpdate obtiene una venta bloqueando la cabecera.
func (r *SaleRepo) GetForUpdate(ctx context.Context, id int64) (*entity.Sale, error) {
	return r.get(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1 FOR UPDATE`, id)
}

// ReplaceItems reemplaza todas las líneas de la venta.
func (r *SaleRepo) ReplaceItems(ctx context.Context, saleID int64, items []entity.SaleItem) error {
	tag, err := r.q.Exec(ctx, `UPDATE sales SET updated_at = now() WHERE id = $1`, saleID)
	if err != nil {
		return fmt.Errorf("touch sale: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM sale_items WHERE sale_id = $1`, saleID); err != nil {
		return fmt.Errorf("delete sale items: %w", err)
	}
	return r.insertItems(ctx, saleID, items)
}

// Update persiste estado, total, memo y datos de confirmación.
func (r *SaleRepo) Update(ctx context.Context, s *entity.Sale) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE sales
		SET status = $2, total_amount = $3, memo = $4, confirmed_by = $5, confirmed_at = $6, updated_at = now()
		WHERE id = $1`,
		s.ID, s.Status, s.TotalAmount, s.Memo, s.ConfirmedBy, s.ConfirmedAt)
	if err != nil {
		return fmt.Errorf("update sale: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List consulta ventas, más recientes primero.
func (r *SaleRepo) List(ctx context.Context, f repository.DocumentFilter) ([]*entity.Sale, error) {
	w := documentFilter(f)
	query := `SELECT ` + saleColumns + ` FROM sales` + w.where() + ` ORDER BY id DESC` + w.page(f.Limit, f.Offset)
	rows, err := r.q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	list, err := collect(rows, scanSale)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	for _, s := range list {
		if s.Items, err = r.items(ctx, s.ID); err != nil {
			return nil, err
		}
	}
	return list, nil
}
