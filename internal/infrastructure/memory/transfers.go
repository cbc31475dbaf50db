package memory

import (
	"context"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

type transferRepo struct{ s *session }

func (r *transferRepo) Create(_ context.Context, t *entity.Transfer) error {
	r.s.do(func(st *state) {
		t.ID = st.next("transfers")
		t.CreatedAt = r.s.now()
		t.UpdatedAt = t.CreatedAt
		for i := range t.Items {
			t.Items[i].ID = st.next("transfer_items")
			t.Items[i].TransferID = t.ID
		}
		st.transfers[t.ID] = copyTransfer(t)
	})
	return nil
}

func (r *transferRepo) GetByID(_ context.Context, id int64) (*entity.Transfer, error) {
	var out *entity.Transfer
	r.s.do(func(st *state) {
		if t, ok := st.transfers[id]; ok {
			out = copyTransfer(t)
		}
	})
	return out, nil
}

func (r *transferRepo) GetForUpdate(ctx context.Context, id int64) (*entity.Transfer, error) {
	return r.GetByID(ctx, id)
}

func (r *transferRepo) UpdateStatus(_ context.Context, t *entity.Transfer) error {
	var err error
	r.s.do(func(st *state) {
		cur, ok := st.transfers[t.ID]
		if !ok {
			err = domain.ErrNotFound
			return
		}
		cur.Status = t.Status
		cur.ShippedBy, cur.ShippedAt = t.ShippedBy, t.ShippedAt
		cur.ReceivedBy, cur.ReceivedAt = t.ReceivedBy, t.ReceivedAt
		cur.UpdatedAt = r.s.now()
	})
	return err
}

func (r *transferRepo) SetShippedQuantity(_ context.Context, itemID int64, qty decimal.Decimal) error {
	return r.setItem(itemID, func(it *entity.TransferItem) { it.ShippedQuantity = &qty })
}

func (r *transferRepo) SetReceivedQuantity(_ context.Context, itemID int64, qty decimal.Decimal) error {
	return r.setItem(itemID, func(it *entity.TransferItem) { it.ReceivedQuantity = &qty })
}

func (r *transferRepo) setItem(itemID int64, fn func(*entity.TransferItem)) error {
	err := domain.ErrNotFound
	r.s.do(func(st *state) {
		for _, t := range st.transfers {
			for i := range t.Items {
				if t.Items[i].ID == itemID {
					fn(&t.Items[i])
					err = nil
					return
				}
			}
		}
	})
	return err
}

func (r *transferRepo) List(_ context.Context, f repository.TransferFilter) ([]*entity.Transfer, error) {
	var out []*entity.Transfer
	r.s.do(func(st *state) {
		for _, id := range sortedIDs(st.transfers) {
			t := st.transfers[id]
			if (f.BusinessID != 0 && t.BusinessID != f.BusinessID) ||
				(f.StoreID != 0 && t.FromStoreID != f.StoreID && t.ToStoreID != f.StoreID) ||
				(f.Status != "" && t.Status != f.Status) {
				continue
			}
			out = append(out, copyTransfer(t))
		}
	})
	return page(out, f.Limit, f.Offset), nil
}

func (r *transferRepo) CountOpen(_ context.Context, storeID int64) (entity.TransferCounts, error) {
	var c entity.TransferCounts
	r.s.do(func(st *state) {
		for _, t := range st.transfers {
			if t.FromStoreID == storeID && (t.Status == entity.TransferPending || t.Status == entity.TransferShipped) {
				c.Outgoing++
			}
			if t.ToStoreID == storeID && t.Status == entity.TransferShipped {
				c.Incoming++
			}
		}
	})
	return c, nil
}
