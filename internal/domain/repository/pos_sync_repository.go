package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

// PosSyncRepository define el puerto del registro de sincronización POS.
type PosSyncRepository interface {
	// InsertDetail devuelve domain.ErrDuplicate si la línea externa ya fue aplicada.
	InsertDetail(ctx context.Context, d *entity.PosSyncDetail) error
	ListDetails(ctx context.Context, businessID int64, status string, limit, offset int) ([]*entity.PosSyncDetail, error)
	GetCheckpoint(ctx context.Context, businessID int64, table string) (*entity.PosSyncCheckpoint, error)
	SaveCheckpoint(ctx context.Context, cp *entity.PosSyncCheckpoint) error
	ListCheckpoints(ctx context.Context, businessID int64) ([]*entity.PosSyncCheckpoint, error)
	// CountErrorsSince cuenta las líneas con error registradas desde since.
	CountErrorsSince(ctx context.Context, businessID int64, since time.Time) (int, error)
}
