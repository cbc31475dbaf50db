package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

type posSyncRepo struct{ s *session }

// InsertDetail respeta la unicidad (negocio, tabla externa, id externo) de las líneas aplicadas;
// las líneas con error no bloquean un reintento.
func (r *posSyncRepo) InsertDetail(_ context.Context, d *entity.PosSyncDetail) error {
	var err error
	r.s.do(func(st *state) {
		if d.Status != entity.PosLineError {
			for _, cur := range st.details {
				if cur.Status != entity.PosLineError && cur.BusinessID == d.BusinessID &&
					cur.ExternalTable == d.ExternalTable && cur.ExternalRecordID == d.ExternalRecordID {
					err = domain.ErrDuplicate
					return
				}
			}
		}
		d.ID = st.next("pos_sync_details")
		d.CreatedAt = r.s.now()
		st.details = append(st.details, copyPtr(d))
	})
	return err
}

func (r *posSyncRepo) ListDetails(_ context.Context, businessID int64, status string, limit, offset int) ([]*entity.PosSyncDetail, error) {
	var out []*entity.PosSyncDetail
	r.s.do(func(st *state) {
		for i := len(st.details) - 1; i >= 0; i-- {
			d := st.details[i]
			if d.BusinessID == businessID && (status == "" || d.Status == status) {
				out = append(out, copyPtr(d))
			}
		}
	})
	return page(out, limit, offset), nil
}

func checkpointKey(businessID int64, table string) string {
	return fmt.Sprintf("%d/%s", businessID, table)
}

func (r *posSyncRepo) GetCheckpoint(_ context.Context, businessID int64, table string) (*entity.PosSyncCheckpoint, error) {
	var out *entity.PosSyncCheckpoint
	r.s.do(func(st *state) { out = copyPtr(st.checkpoints[checkpointKey(businessID, table)]) })
	return out, nil
}

func (r *posSyncRepo) SaveCheckpoint(_ context.Context, cp *entity.PosSyncCheckpoint) error {
	r.s.do(func(st *state) {
		if cp.SyncedAt.IsZero() {
			cp.SyncedAt = r.s.now()
		}
		st.checkpoints[checkpointKey(cp.BusinessID, cp.ExternalTable)] = copyPtr(cp)
	})
	return nil
}

func (r *posSyncRepo) ListCheckpoints(_ context.Context, businessID int64) ([]*entity.PosSyncCheckpoint, error) {
	var out []*entity.PosSyncCheckpoint
	r.s.do(func(st *state) {
		for _, cp := range st.checkpoints {
			if cp.BusinessID == businessID {
				out = append(out, copyPtr(cp))
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ExternalTable < out[j].ExternalTable })
	return out, nil
}

func (r *posSyncRepo) CountErrorsSince(_ context.Context, businessID int64, since time.Time) (int, error) {
	n := 0
	r.s.do(func(st *state) {
		for _, d := range st.details {
			if d.BusinessID == businessID && d.Status == entity.PosLineError && !d.CreatedAt.Before(since) {
				n++
			}
		}
	})
	return n, nil
}
