package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

var _ repository.TransactionRepository = (*TransactionRepo)(nil)

// TransactionRepo implementación del libro de inventario sobre PostgreSQL. Solo inserta y consulta.
type TransactionRepo struct {
	q Querier
}

// NewTransactionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransactionRepository(q Querier) *TransactionRepo {
	return &TransactionRepo{q: q}
}

// Create inserta una transacción y asigna ID y fecha.
func (r *TransactionRepo) Create(ctx context.Context, t *entity.Transaction) error {
	var createdAt *time.Time
	if !t.CreatedAt.IsZero() {
		createdAt = &t.CreatedAt
	}
	err := r.q.QueryRow(ctx, `
		INSERT INTO transactions (operation_id, business_id, product_id, store_id, lot_id, type,
			from_location, to_location, quantity, unit_price, total_amount, reason, user_id,
			reference_type, reference_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, COALESCE($16::timestamptz, now()))
		RETURNING id, created_at`,
		t.OperationID, t.BusinessID, t.ProductID, t.StoreID, t.LotID, t.Type,
		t.FromLocation, t.ToLocation, t.Quantity, t.UnitPrice, t.TotalAmount, t.Reason, t.UserID,
		t.ReferenceType, t.ReferenceID, createdAt,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// List consulta el libro con filtros opcionales, más recientes primero.
func (r *TransactionRepo) List(ctx context.Context, f repository.TransactionFilter) ([]*entity.Transaction, error) {
	var w filter
	if f.BusinessID != 0 {
		w.add("business_id = ?", f.BusinessID)
	}
	if f.StoreID != 0 {
		w.add("store_id = ?", f.StoreID)
	}
	if f.ProductID != 0 {
		w.add("product_id = ?", f.ProductID)
	}
	if f.Type != "" {
		w.add("type = ?", f.Type)
	}
	if f.ReferenceType != "" {
		w.add("reference_type = ?", f.ReferenceType)
	}
	if f.ReferenceID != 0 {
		w.add("reference_id = ?", f.ReferenceID)
	}
	if f.From != nil {
		w.add("created_at >= ?", *f.From)
	}
	if f.To != nil {
		w.add("created_at <= ?", *f.To)
	}
	query := `
		SELECT id, operation_id, business_id, product_id, store_id, lot_id, type, from_location, to_location,
			quantity, unit_price, total_amount, reason, user_id, reference_type, reference_id, created_at
		FROM transactions` + w.where() + ` ORDER BY id DESC` + w.page(f.Limit, f.Offset)

	rows, err := r.q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()
	var list []*entity.Transaction
	for rows.Next() {
		var t entity.Transaction
		if err := rows.Scan(&t.ID, &t.OperationID, &t.BusinessID, &t.ProductID, &t.StoreID, &t.LotID, &t.Type,
			&t.FromLocation, &t.ToLocation, &t.Quantity, &t.UnitPrice, &t.TotalAmount, &t.Reason, &t.UserID,
			&t.ReferenceType, &t.ReferenceID, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		list = append(list, &t)
	}
	return list, rows.Err()
}
