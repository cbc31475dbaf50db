package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

var _ repository.StockCountRepository = (*StockCountRepo)(nil)

// StockCountRepo implementación del puerto StockCountRepository sobre PostgreSQL.
type StockCountRepo struct {
	q Querier
}

// NewStockCountRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockCountRepository(q Querier) *StockCountRepo {
	return &StockCountRepo{q: q}
}

const stockCountColumns = `id, business_id, store_id, location, category_id, count_date, status, memo,
	created_by, approved_by, approved_at, created_at, updated_at`

func scanStockCount(row pgx.Row) (*entity.StockCount, error) {
	var c entity.StockCount
	if err := row.Scan(&c.ID, &c.BusinessID, &c.StoreID, &c.Location, &c.CategoryID, &c.CountDate, &c.Status, &c.Memo,
		&c.CreatedBy, &c.ApprovedBy, &c.ApprovedAt, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// Create persiste el conteo con la foto de cantidades del sistema.
func (r *StockCountRepo) Create(ctx context.Context, c *entity.StockCount) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO stock_counts (business_id, store_id, location, category_id, count_date, status, memo, created_by)
		VALUES ($1, $2, $3, $4, $5::date, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		c.BusinessID, c.StoreID, c.Location, c.CategoryID, *entity.DateOnly(&c.CountDate), c.Status, c.Memo, c.CreatedBy,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert stock count: %w", err)
	}
	for i := range c.Items {
		it := &c.Items[i]
		it.CountID = c.ID
		err := r.q.QueryRow(ctx, `
			INSERT INTO stock_count_items (count_id, product_id, system_quantity, actual_quantity, difference, memo)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			c.ID, it.ProductID, it.SystemQuantity, it.ActualQuantity, it.Difference, it.Memo,
		).Scan(&it.ID)
		if err != nil {
			return fmt.Errorf("insert stock count item: %w", err)
		}
	}
	return nil
}

func (r *StockCountRepo) items(ctx context.Context, countID int64) ([]entity.StockCountItem, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, count_id, product_id, system_quantity, actual_quantity, difference, memo
		FROM stock_count_items WHERE count_id = $1 ORDER BY id`, countID)
	if err != nil {
		return nil, fmt.Errorf("list stock count items: %w", err)
	}
	defer rows.Close()
	var list []entity.StockCountItem
	for rows.Next() {
		var it entity.StockCountItem
		if err := rows.Scan(&it.ID, &it.CountID, &it.ProductID, &it.SystemQuantity, &it.ActualQuantity,
			&it.Difference, &it.Memo); err != nil {
			return nil, fmt.Errorf("scan stock count item: %w", err)
		}
		list = append(list, it)
	}
	return list, rows.Err()
}

func (r *StockCountRepo) get(ctx context.Context, query string, id int64) (*entity.StockCount, error) {
	c, err := scanStockCount(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock count: %w", err)
	}
	if c.Items, err = r.items(ctx, c.ID); err != nil {
		return nil, err
	}
	return c, nil
}

// GetByID obtiene un conteo con sus líneas.
func (r *StockCountRepo) GetByID(ctx context.Context, id int64) (*entity.StockCount, error) {
	return r.get(ctx, `SELECT `+stockCountColumns+` FROM stock_counts WHERE id = $1`, id)
}

// GetForUpdate obtiene un conteo bloqueando la cabecera.
func (r *StockCountRepo) GetForUpdate(ctx context.Context, id int64) (*entity.StockCount, error) {
	return r.get(ctx, `SELECT `+stockCountColumns+` FROM stock_counts WHERE id = $1 FOR UPDATE`, id)
}

// UpdateItem guarda la cantidad contada de una línea.
func (r *StockCountRepo) UpdateItem(ctx context.Context, item *entity.StockCountItem) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE stock_count_items SET actual_quantity = $3, difference = $4, memo = $5
		WHERE id = $1 AND count_id = $2`,
		item.ID, item.CountID, item.ActualQuantity, item.Difference, item.Memo)
	if err != nil {
		return fmt.Errorf("update stock count item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Update persiste estado, memo y datos de aprobación.
func (r *StockCountRepo) Update(ctx context.Context, c *entity.StockCount) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE stock_counts SET status = $2, memo = $3, approved_by = $4, approved_at = $5, updated_at = now()
		WHERE id = $1`,
		c.ID, c.Status, c.Memo, c.ApprovedBy, c.ApprovedAt)
	if err != nil {
		return fmt.Errorf("update stock count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List consulta conteos, más recientes primero.
func (r *StockCountRepo) List(ctx context.Context, f repository.DocumentFilter) ([]*entity.StockCount, error) {
	w := documentFilter(f)
	query := `SELECT ` + stockCountColumns + ` FROM stock_counts` + w.where() + ` ORDER BY id DESC` + w.page(f.Limit, f.Offset)
	rows, err := r.q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list stock counts: %w", err)
	}
	list, err := collect(rows, scanStockCount)
	if err != nil {
		return nil, fmt.Errorf("list stock counts: %w", err)
	}
	for _, c := range list {
		if c.Items, err = r.items(ctx, c.ID); err != nil {
			return nil, err
		}
	}
	return list, nil
}
