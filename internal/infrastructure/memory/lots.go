package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/inventory"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

type lotRepo struct{ s *session }

func (r *lotRepo) GetByID(_ context.Context, id int64) (*entity.Lot, error) {
	var out *entity.Lot
	r.s.do(func(st *state) { out = copyPtr(st.lots[id]) })
	return out, nil
}

func (r *lotRepo) GetForUpdate(ctx context.Context, id int64) (*entity.Lot, error) {
	return r.GetByID(ctx, id)
}

func (r *lotRepo) FindByKeyForUpdate(_ context.Context, key entity.LotKey) (*entity.Lot, error) {
	key = key.Normalize()
	var out *entity.Lot
	r.s.do(func(st *state) { out = copyPtr(findLot(st, key)) })
	return out, nil
}

func findLot(st *state, key entity.LotKey) *entity.Lot {
	for _, l := range st.lots {
		if l.ProductID == key.ProductID && l.StoreID == key.StoreID && l.Location == key.Location && entity.SameExpiry(l.ExpiryDate, key.ExpiryDate) {
			return l
		}
	}
	return nil
}

func (r *lotRepo) ListForUpdate(_ context.Context, productID, storeID int64, location string) ([]*entity.Lot, error) {
	var out []*entity.Lot
	r.s.do(func(st *state) {
		for _, id := range ascending(st.lots) {
			l := st.lots[id]
			if l.ProductID == productID && l.StoreID == storeID && l.Location == location {
				out = append(out, copyPtr(l))
			}
		}
	})
	inventory.SortFEFO(out)
	return out, nil
}

func (r *lotRepo) AddQuantity(_ context.Context, key entity.LotKey, delta decimal.Decimal) (*entity.Lot, error) {
	key = key.Normalize()
	var out *entity.Lot
	r.s.do(func(st *state) {
		now := r.s.now()
		if l := findLot(st, key); l != nil {
			l.Quantity = l.Quantity.Add(delta)
			l.UpdatedAt = now
			out = copyPtr(l)
			return
		}
		l := &entity.Lot{
			ID:         st.next("lots"),
			ProductID:  key.ProductID,
			StoreID:    key.StoreID,
			Location:   key.Location,
			ExpiryDate: key.ExpiryDate,
			Quantity:   delta,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		st.lots[l.ID] = l
		out = copyPtr(l)
	})
	return out, nil
}

func (r *lotRepo) SetQuantity(_ context.Context, id int64, quantity decimal.Decimal) error {
	var err error
	r.s.do(func(st *state) {
		l, ok := st.lots[id]
		if !ok {
			err = domain.ErrNotFound
			return
		}
		l.Quantity = quantity
		l.UpdatedAt = r.s.now()
	})
	return err
}

func (r *lotRepo) List(_ context.Context, f repository.LotFilter) ([]*entity.Lot, error) {
	var out []*entity.Lot
	r.s.do(func(st *state) {
		for _, id := range ascending(st.lots) {
			l := st.lots[id]
			if f.BusinessID != 0 {
				if p := st.products[l.ProductID]; p == nil || p.BusinessID != f.BusinessID {
					continue
				}
			}
			if (f.StoreID != 0 && l.StoreID != f.StoreID) ||
				(f.ProductID != 0 && l.ProductID != f.ProductID) ||
				(f.Location != "" && l.Location != f.Location) ||
				(f.InStockOnly && !l.InStock()) {
				continue
			}
			if f.ExpiringBefore != nil && (l.ExpiryDate == nil || !l.ExpiryDate.Before(*f.ExpiringBefore)) {
				continue
			}
			out = append(out, copyPtr(l))
		}
	})
	inventory.SortFEFO(out)
	return page(out, f.Limit, f.Offset), nil
}

func (r *lotRepo) StockLevels(_ context.Context, storeID int64, location string, categoryID *int64) ([]entity.StockLevel, error) {
	levels := map[int64]*entity.StockLevel{}
	r.s.do(func(st *state) {
		for _, l := range st.lots {
			if l.StoreID != storeID || (location != "" && l.Location != location) {
				continue
			}
			if categoryID != nil {
				p := st.products[l.ProductID]
				if p == nil || p.CategoryID == nil || *p.CategoryID != *categoryID {
					continue
				}
			}
			lv, ok := levels[l.ProductID]
			if !ok {
				lv = &entity.StockLevel{ProductID: l.ProductID, StoreID: storeID, Location: location, Quantity: decimal.Zero}
				levels[l.ProductID] = lv
			}
			lv.Quantity = lv.Quantity.Add(l.Quantity)
			lv.LotCount++
		}
	})
	out := make([]entity.StockLevel, 0, len(levels))
	for _, lv := range levels {
		out = append(out, *lv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

func ascending[V any](m map[int64]V) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

type transactionRepo struct{ s *session }

func (r *transactionRepo) Create(_ context.Context, t *entity.Transaction) error {
	r.s.do(func(st *state) {
		t.ID = st.next("transactions")
		if t.CreatedAt.IsZero() {
			t.CreatedAt = r.s.now()
		}
		st.transactions = append(st.transactions, copyPtr(t))
	})
	return nil
}

func (r *transactionRepo) List(_ context.Context, f repository.TransactionFilter) ([]*entity.Transaction, error) {
	var out []*entity.Transaction
	r.s.do(func(st *state) {
		for i := len(st.transactions) - 1; i >= 0; i-- {
			t := st.transactions[i]
			if (f.BusinessID != 0 && t.BusinessID != f.BusinessID) ||
				(f.StoreID != 0 && t.StoreID != f.StoreID) ||
				(f.ProductID != 0 && t.ProductID != f.ProductID) ||
				(f.Type != "" && t.Type != f.Type) ||
				(f.ReferenceType != "" && t.ReferenceType != f.ReferenceType) ||
				(f.ReferenceID != 0 && (t.ReferenceID == nil || *t.ReferenceID != f.ReferenceID)) ||
				(f.From != nil && t.CreatedAt.Before(*f.From)) ||
				(f.To != nil && t.CreatedAt.After(*f.To)) {
				continue
			}
			out = append(out, copyPtr(t))
		}
	})
	return page(out, f.Limit, f.Offset), nil
}
