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

var _ repository.PosSyncRepository = (*PosSyncRepo)(nil)

// PosSyncRepo implementación del registro de sincronización POS sobre PostgreSQL.
// La unicidad de líneas aplicadas la da el índice parcial uq_pos_sync_details_record.
type PosSyncRepo struct {
	q Querier
}

// NewPosSyncRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPosSyncRepository(q Querier) *PosSyncRepo {
	return &PosSyncRepo{q: q}
}

// InsertDetail registra el resultado de una línea; devuelve domain.ErrDuplicate si ya fue aplicada.
func (r *PosSyncRepo) InsertDetail(ctx context.Context, d *entity.PosSyncDetail) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO pos_sync_details (business_id, external_table, external_record_id, sync_type, product_code,
			quantity, status, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (business_id, external_table, external_record_id) WHERE status <> 'error' DO NOTHING
		RETURNING id, created_at`,
		d.BusinessID, d.ExternalTable, d.ExternalRecordID, d.SyncType, d.ProductCode, d.Quantity, d.Status, d.ErrorMessage,
	).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert pos sync detail: %w", err)
	}
	return nil
}

// ListDetails lista resultados por línea, más recientes primero; status vacío no filtra.
func (r *PosSyncRepo) ListDetails(ctx context.Context, businessID int64, status string, limit, offset int) ([]*entity.PosSyncDetail, error) {
	var w filter
	w.add("business_id = ?", businessID)
	if status != "" {
		w.add("status = ?", status)
	}
	query := `
		SELECT id, business_id, external_table, external_record_id, sync_type, product_code, quantity, status,
			error_message, created_at
		FROM pos_sync_details` + w.where() + ` ORDER BY id DESC` + w.page(limit, offset)
	rows, err := r.q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list pos sync details: %w", err)
	}
	defer rows.Close()
	var list []*entity.PosSyncDetail
	for rows.Next() {
		var d entity.PosSyncDetail
		if err := rows.Scan(&d.ID, &d.BusinessID, &d.ExternalTable, &d.ExternalRecordID, &d.SyncType, &d.ProductCode,
			&d.Quantity, &d.Status, &d.ErrorMessage, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pos sync detail: %w", err)
		}
		list = append(list, &d)
	}
	return list, rows.Err()
}

const checkpointColumns = `business_id, external_table, last_synced_id, record_count, synced_at`

func scanCheckpoint(row pgx.Row) (*entity.PosSyncCheckpoint, error) {
	var cp entity.PosSyncCheckpoint
	if err := row.Scan(&cp.BusinessID, &cp.ExternalTable, &cp.LastSyncedID, &cp.RecordCount, &cp.SyncedAt); err != nil {
		return nil, err
	}
	return &cp, nil
}

// GetCheckpoint obtiene el último id procesado de una tabla externa.
func (r *PosSyncRepo) GetCheckpoint(ctx context.Context, businessID int64, table string) (*entity.PosSyncCheckpoint, error) {
	cp, err := scanCheckpoint(r.q.QueryRow(ctx,
		`SELECT `+checkpointColumns+` FROM pos_sync_checkpoints WHERE business_id = $1 AND external_table = $2`,
		businessID, table))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get pos checkpoint: %w", err)
	}
	return cp, nil
}

// SaveCheckpoint crea o actualiza el checkpoint de (negocio, tabla).
func (r *PosSyncRepo) SaveCheckpoint(ctx context.Context, cp *entity.PosSyncCheckpoint) error {
	var syncedAt *time.Time
	if !cp.SyncedAt.IsZero() {
		syncedAt = &cp.SyncedAt
	}
	err := r.q.QueryRow(ctx, `
		INSERT INTO pos_sync_checkpoints (business_id, external_table, last_synced_id, record_count, synced_at)
		VALUES ($1, $2, $3, $4, COALESCE($5::timestamptz, now()))
		ON CONFLICT (business_id, external_table)
		DO UPDATE SET last_synced_id = EXCLUDED.last_synced_id, record_count = EXCLUDED.record_count,
			synced_at = EXCLUDED.synced_at
		RETURNING synced_at`,
		cp.BusinessID, cp.ExternalTable, cp.LastSyncedID, cp.RecordCount, syncedAt,
	).Scan(&cp.SyncedAt)
	if err != nil {
		return fmt.Errorf("save pos checkpoint: %w", err)
	}
	return nil
}

// ListCheckpoints lista los checkpoints del negocio por tabla.
func (r *PosSyncRepo) ListCheckpoints(ctx context.Context, businessID int64) ([]*entity.PosSyncCheckpoint, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+checkpointColumns+` FROM pos_sync_checkpoints WHERE business_id = $1 ORDER BY external_table`, businessID)
	if err != nil {
		return nil, fmt.Errorf("list pos checkpoints: %w", err)
	}
	list, err := collect(rows, scanCheckpoint)
	if err != nil {
		return nil, fmt.Errorf("list pos checkpoints: %w", err)
	}
	return list, nil
}

// CountErrorsSince cuenta las líneas con error desde since.
func (r *PosSyncRepo) CountErrorsSince(ctx context.Context, businessID int64, since time.Time) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `
		SELECT COUNT(*) FROM pos_sync_details WHERE business_id = $1 AND status = 'error' AND created_at >= $2`,
		businessID, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count pos sync errors: %w", err)
	}
	return n, nil
}
