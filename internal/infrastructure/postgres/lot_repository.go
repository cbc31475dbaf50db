package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.LotRepository = (*LotRepo)(nil)

// LotRepo implementación del almacén de lotes sobre PostgreSQL.
// La llave (producto, tienda, ubicación, vencimiento) es única con NULLS NOT DISTINCT.
type LotRepo struct {
	q Querier
}

// NewLotRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLotRepository(q Querier) *LotRepo {
	return &LotRepo{q: q}
}

const (
	lotColumns = `l.id, l.product_id, l.store_id, l.location, l.expiry_date, l.quantity, l.created_at, l.updated_at`
	fefoOrder  = ` ORDER BY l.expiry_date ASC NULLS LAST, l.id`
)

func scanLot(row pgx.Row) (*entity.Lot, error) {
	var l entity.Lot
	if err := row.Scan(&l.ID, &l.ProductID, &l.StoreID, &l.Location, &l.ExpiryDate, &l.Quantity, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	l.ExpiryDate = entity.DateOnly(l.ExpiryDate)
	return &l, nil
}

func (r *LotRepo) one(ctx context.Context, op, query string, args ...any) (*entity.Lot, error) {
	l, err := scanLot(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return l, nil
}

func (r *LotRepo) many(ctx context.Context, op, query string, args ...any) ([]*entity.Lot, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	var list []*entity.Lot
	for rows.Next() {
		l, err := scanLot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lot: %w", err)
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

// GetByID obtiene un lote por ID.
func (r *LotRepo) GetByID(ctx context.Context, id int64) (*entity.Lot, error) {
	return r.one(ctx, "get lot", `SELECT `+lotColumns+` FROM lots l WHERE l.id = $1`, id)
}

// GetForUpdate obtiene un lote bloqueando la fila.
func (r *LotRepo) GetForUpdate(ctx context.Context, id int64) (*entity.Lot, error) {
	return r.one(ctx, "get lot for update", `SELECT `+lotColumns+` FROM lots l WHERE l.id = $1 FOR UPDATE`, id)
}

// FindByKeyForUpdate busca el lote por su llave y lo bloquea.
func (r *LotRepo) FindByKeyForUpdate(ctx context.Context, key entity.LotKey) (*entity.Lot, error) {
	key = key.Normalize()
	return r.one(ctx, "find lot by key", `
		SELECT `+lotColumns+` FROM lots l
		WHERE l.product_id = $1 AND l.store_id = $2 AND l.location = $3
		  AND l.expiry_date IS NOT DISTINCT FROM $4::date
		FOR UPDATE`,
		key.ProductID, key.StoreID, key.Location, key.ExpiryDate)
}

// ListForUpdate bloquea y devuelve los lotes de (producto, tienda, ubicación) en orden FEFO.
func (r *LotRepo) ListForUpdate(ctx context.Context, productID, storeID int64, location string) ([]*entity.Lot, error) {
	return r.many(ctx, "list lots for update", `
		SELECT `+lotColumns+` FROM lots l
		WHERE l.product_id = $1 AND l.store_id = $2 AND l.location = $3`+fefoOrder+`
		FOR UPDATE`,
		productID, storeID, location)
}

// AddQuantity suma delta al lote de la llave, creándolo si no existe.
func (r *LotRepo) AddQuantity(ctx context.Context, key entity.LotKey, delta decimal.Decimal) (*entity.Lot, error) {
	key = key.Normalize()
	l, err := scanLot(r.q.QueryRow(ctx, `
		INSERT INTO lots AS l (product_id, store_id, location, expiry_date, quantity)
		VALUES ($1, $2, $3, $4::date, $5)
		ON CONFLICT ON CONSTRAINT uq_lots_key
		DO UPDATE SET quantity = l.quantity + EXCLUDED.quantity, updated_at = now()
		RETURNING `+lotColumns,
		key.ProductID, key.StoreID, key.Location, key.ExpiryDate, delta))
	if err != nil {
		return nil, fmt.Errorf("upsert lot: %w", err)
	}
	return l, nil
}

// SetQuantity fija la cantidad de un lote.
func (r *LotRepo) SetQuantity(ctx context.Context, id int64, quantity decimal.Decimal) error {
	tag, err := r.q.Exec(ctx, `UPDATE lots SET quantity = $2, updated_at = now() WHERE id = $1`, id, quantity)
	if err != nil {
		return fmt.Errorf("set lot quantity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List consulta lotes con filtros opcionales, en orden FEFO.
func (r *LotRepo) List(ctx context.Context, f repository.LotFilter) ([]*entity.Lot, error) {
	var w filter
	query := `SELECT ` + lotColumns + ` FROM lots l`
	if f.BusinessID != 0 {
		query += ` JOIN products p ON p.id = l.product_id`
		w.add("p.business_id = ?", f.BusinessID)
	}
	if f.StoreID != 0 {
		w.add("l.store_id = ?", f.StoreID)
	}
	if f.ProductID != 0 {
		w.add("l.product_id = ?", f.ProductID)
	}
	if f.Location != "" {
		w.add("l.location = ?", f.Location)
	}
	if f.InStockOnly {
		w.add("l.quantity > ?", 0)
	}
	if f.ExpiringBefore != nil {
		w.add("l.expiry_date < ?::date", *f.ExpiringBefore)
	}
	query += w.where() + fefoOrder + w.page(f.Limit, f.Offset)
	return r.many(ctx, "list lots", query, w.args...)
}

// StockLevels suma las cantidades por producto de una tienda.
func (r *LotRepo) StockLevels(ctx context.Context, storeID int64, location string, categoryID *int64) ([]entity.StockLevel, error) {
	var w filter
	query := `
		SELECT l.product_id, COALESCE(SUM(l.quantity), 0), COUNT(*)
		FROM lots l JOIN products p ON p.id = l.product_id`
	w.add("l.store_id = ?", storeID)
	if location != "" {
		w.add("l.location = ?", location)
	}
	if categoryID != nil {
		w.add("p.category_id = ?", *categoryID)
	}
	query += w.where() + ` GROUP BY l.product_id ORDER BY l.product_id`

	rows, err := r.q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("stock levels: %w", err)
	}
	defer rows.Close()
	list := []entity.StockLevel{}
	for rows.Next() {
		lv := entity.StockLevel{StoreID: storeID, Location: location}
		if err := rows.Scan(&lv.ProductID, &lv.Quantity, &lv.LotCount); err != nil {
			return nil, fmt.Errorf("scan stock level: %w", err)
		}
		list = append(list, lv)
	}
	return list, rows.Err()
}
