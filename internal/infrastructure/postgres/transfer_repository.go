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

var _ repository.TransferRepository = (*TransferRepo)(nil)

// TransferRepo implementación del puerto TransferRepository sobre PostgreSQL.
type TransferRepo struct {
	q Querier
}

// NewTransferRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransferRepository(q Querier) *TransferRepo {
	return &TransferRepo{q: q}
}

const transferColumns = `id, business_id, from_store_id, to_store_id, status, requested_by, shipped_by, received_by,
	shipped_at, received_at, memo, created_at, updated_at`

func scanTransfer(row pgx.Row) (*entity.Transfer, error) {
	var t entity.Transfer
	if err := row.Scan(&t.ID, &t.BusinessID, &t.FromStoreID, &t.ToStoreID, &t.Status, &t.RequestedBy, &t.ShippedBy,
		&t.ReceivedBy, &t.ShippedAt, &t.ReceivedAt, &t.Memo, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// Create persiste el traslado con sus líneas.
func (r *TransferRepo) Create(ctx context.Context, t *entity.Transfer) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO transfers (business_id, from_store_id, to_store_id, status, requested_by, memo)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		t.BusinessID, t.FromStoreID, t.ToStoreID, t.Status, t.RequestedBy, t.Memo,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert transfer: %w", err)
	}
	for i := range t.Items {
		it := &t.Items[i]
		it.TransferID = t.ID
		err := r.q.QueryRow(ctx, `
			INSERT INTO transfer_items (transfer_id, product_id, lot_id, quantity, expiry_date, location)
			VALUES ($1, $2, $3, $4, $5::date, $6)
			RETURNING id`,
			t.ID, it.ProductID, it.LotID, it.Quantity, entity.DateOnly(it.ExpiryDate), it.Location,
		).Scan(&it.ID)
		if err != nil {
			return fmt.Errorf("insert transfer item: %w", err)
		}
	}
	return nil
}

func (r *TransferRepo) get(ctx context.Context, query string, id int64) (*entity.Transfer, error) {
	t, err := scanTransfer(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transfer: %w", err)
	}
	if t.Items, err = r.items(ctx, t.ID); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *TransferRepo) items(ctx context.Context, transferID int64) ([]entity.TransferItem, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, transfer_id, product_id, lot_id, quantity, shipped_quantity, received_quantity, expiry_date, location
		FROM transfer_items WHERE transfer_id = $1 ORDER BY id`, transferID)
	if err != nil {
		return nil, fmt.Errorf("list transfer items: %w", err)
	}
	defer rows.Close()
	var list []entity.TransferItem
	for rows.Next() {
		var it entity.TransferItem
		if err := rows.Scan(&it.ID, &it.TransferID, &it.ProductID, &it.LotID, &it.Quantity,
			&it.ShippedQuantity, &it.ReceivedQuantity, &it.ExpiryDate, &it.Location); err != nil {
			return nil, fmt.Errorf("scan transfer item: %w", err)
		}
		it.ExpiryDate = entity.DateOnly(it.ExpiryDate)
		list = append(list, it)
	}
	return list, rows.Err()
}

// GetByID obtiene un traslado con sus líneas.
func (r *TransferRepo) GetByID(ctx context.Context, id int64) (*entity.Transfer, error) {
	return r.get(ctx, `SELECT `+transferColumns+` FROM transfers WHERE id = $1`, id)
}

// GetForUpdate obtiene un traslado bloqueando la cabecera.
func (r *TransferRepo) GetForUpdate(ctx context.Context, id int64) (*entity.Transfer, error) {
	return r.get(ctx, `SELECT `+transferColumns+` FROM transfers WHERE id = $1 FOR UPDATE`, id)
}

// UpdateStatus persiste estado y datos de despacho y recepción.
func (r *TransferRepo) UpdateStatus(ctx context.Context, t *entity.Transfer) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE transfers
		SET status = $2, shipped_by = $3, shipped_at = $4, received_by = $5, received_at = $6, updated_at = now()
		WHERE id = $1`,
		t.ID, t.Status, t.ShippedBy, t.ShippedAt, t.ReceivedBy, t.ReceivedAt)
	if err != nil {
		return fmt.Errorf("update transfer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetShippedQuantity guarda la cantidad que salió del lote origen al despachar.
func (r *TransferRepo) SetShippedQuantity(ctx context.Context, itemID int64, qty decimal.Decimal) error {
	return r.setItemQuantity(ctx, `UPDATE transfer_items SET shipped_quantity = $2 WHERE id = $1`, itemID, qty)
}

// SetReceivedQuantity guarda la cantidad recibida de una línea.
func (r *TransferRepo) SetReceivedQuantity(ctx context.Context, itemID int64, qty decimal.Decimal) error {
	return r.setItemQuantity(ctx, `UPDATE transfer_items SET received_quantity = $2 WHERE id = $1`, itemID, qty)
}

func (r *TransferRepo) setItemQuantity(ctx context.Context, query string, itemID int64, qty decimal.Decimal) error {
	tag, err := r.q.Exec(ctx, query, itemID, qty)
	if err != nil {
		return fmt.Errorf("update transfer item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List consulta traslados; StoreID filtra por origen o destino.
func (r *TransferRepo) List(ctx context.Context, f repository.TransferFilter) ([]*entity.Transfer, error) {
	var w filter
	if f.BusinessID != 0 {
		w.add("business_id = ?", f.BusinessID)
	}
	if f.StoreID != 0 {
		w.add("? IN (from_store_id, to_store_id)", f.StoreID)
	}
	if f.Status != "" {
		w.add("status = ?", f.Status)
	}
	query := `SELECT ` + transferColumns + ` FROM transfers` + w.where() + ` ORDER BY id DESC` + w.page(f.Limit, f.Offset)
	rows, err := r.q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	list, err := collect(rows, scanTransfer)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	for _, t := range list {
		if t.Items, err = r.items(ctx, t.ID); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// CountOpen cuenta traslados salientes (pendientes o despachados) y entrantes (despachados) de una tienda.
func (r *TransferRepo) CountOpen(ctx context.Context, storeID int64) (entity.TransferCounts, error) {
	var c entity.TransferCounts
	err := r.q.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE from_store_id = $1 AND status IN ('pending', 'shipped')),
			COUNT(*) FILTER (WHERE to_store_id = $1 AND status = 'shipped')
		FROM transfers WHERE $1 IN (from_store_id, to_store_id)`, storeID,
	).Scan(&c.Outgoing, &c.Incoming)
	if err != nil {
		return c, fmt.Errorf("count open transfers: %w", err)
	}
	return c, nil
}
