// Package possource lee las tablas de la base de datos del POS externo (sale_items,
// stock_transactions y menulist) para el sondeo incremental de la sincronización.
package possource

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/stockledger-api/internal/application/possync"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/postgres"
	"github.com/jhoicas/stockledger-api/pkg/config"
)

var _ possync.Source = (*Reader)(nil)

// Reader implementa possync.Source sobre la base del POS.
type Reader struct {
	pool    *pgxpool.Pool
	pattern string
}

// New abre un pool de solo lectura hacia la base del POS. pattern arma el esquema de cada
// negocio (ej. "pos_%d"); vacío usa las tablas sin calificar.
func New(ctx context.Context, databaseURL, pattern string) (*Reader, error) {
	pool, err := postgres.NewPool(ctx, config.DBConfig{
		DatabaseURL:      databaseURL,
		MaxConns:         4,
		StatementTimeout: time.Minute,
		ReadOnly:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("conectar base POS: %w", err)
	}
	return &Reader{pool: pool, pattern: pattern}, nil
}

// NewWithPool construye el lector sobre un pool existente.
func NewWithPool(pool *pgxpool.Pool, pattern string) *Reader {
	return &Reader{pool: pool, pattern: pattern}
}

// Close cierra el pool.
func (r *Reader) Close() {
	r.pool.Close()
}

// table devuelve el nombre calificado y escapado de una tabla del POS para el negocio.
func (r *Reader) table(businessID int64, name string) string {
	if r.pattern == "" {
		return pgx.Identifier{name}.Sanitize()
	}
	schema := r.pattern
	if strings.Contains(schema, "%") {
		schema = fmt.Sprintf(r.pattern, businessID)
	}
	return pgx.Identifier{schema, name}.Sanitize()
}

// FetchSaleItems lee las líneas de venta posteriores a afterID.
func (r *Reader) FetchSaleItems(ctx context.Context, businessID, afterID int64, limit int) ([]possync.SaleRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, menu_code, quantity::numeric, COALESCE(unit_price, 0)::numeric, COALESCE(receipt_id, 0)
		FROM `+r.table(businessID, "sale_items")+`
		WHERE id > $1 ORDER BY id LIMIT $2`, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("leer sale_items: %w", err)
	}
	defer rows.Close()
	var list []possync.SaleRow
	for rows.Next() {
		var s possync.SaleRow
		if err := rows.Scan(&s.ID, &s.MenuCode, &s.Quantity, &s.UnitPrice, &s.ReceiptID); err != nil {
			return nil, fmt.Errorf("scan sale_items: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// FetchStockTransactions lee los movimientos de inventario posteriores a afterID.
func (r *Reader) FetchStockTransactions(ctx context.Context, businessID, afterID int64, limit int) ([]possync.StockRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, transaction_type, menu_code, quantity::numeric, COALESCE(unit_cost, 0)::numeric, COALESCE(reason, '')
		FROM `+r.table(businessID, "stock_transactions")+`
		WHERE id > $1 ORDER BY id LIMIT $2`, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("leer stock_transactions: %w", err)
	}
	defer rows.Close()
	var list []possync.StockRow
	for rows.Next() {
		var s possync.StockRow
		if err := rows.Scan(&s.ID, &s.Type, &s.MenuCode, &s.Quantity, &s.UnitCost, &s.Reason); err != nil {
			return nil, fmt.Errorf("scan stock_transactions: %w", err)
		}
		s.Type = strings.ToUpper(strings.TrimSpace(s.Type))
		list = append(list, s)
	}
	return list, rows.Err()
}

// FetchProducts lee el maestro de productos (menulist).
func (r *Reader) FetchProducts(ctx context.Context, businessID int64) ([]possync.ProductRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT mcode, mname, COALESCE(mprice1, 0)::numeric, COALESCE(cost_price, 0)::numeric
		FROM `+r.table(businessID, "menulist")+`
		ORDER BY mname`)
	if err != nil {
		return nil, fmt.Errorf("leer menulist: %w", err)
	}
	defer rows.Close()
	var list []possync.ProductRow
	for rows.Next() {
		var p possync.ProductRow
		if err := rows.Scan(&p.Code, &p.Name, &p.SellPrice, &p.CostPrice); err != nil {
			return nil, fmt.Errorf("scan menulist: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}
