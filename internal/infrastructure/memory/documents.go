package memory

import (
	"context"
	"time"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

type purchaseRepo struct{ s *session }

func (r *purchaseRepo) CountByDate(_ context.Context, businessID int64, day time.Time) (int, error) {
	n := 0
	r.s.do(func(st *state) {
		for _, p := range st.purchases {
			if p.BusinessID == businessID && sameDay(p.PurchaseDate, day) {
				n++
			}
		}
	})
	return n, nil
}

func (r *purchaseRepo) Create(_ context.Context, p *entity.Purchase) error {
	r.s.do(func(st *state) {
		p.ID = st.next("purchases")
		p.CreatedAt = r.s.now()
		p.UpdatedAt = p.CreatedAt
		assignPurchaseItems(st, p.ID, p.Items)
		st.purchases[p.ID] = copyPurchase(p)
	})
	return nil
}

func assignPurchaseItems(st *state, purchaseID int64, items []entity.PurchaseItem) {
	for i := range items {
		items[i].ID = st.next("purchase_items")
		items[i].PurchaseID = purchaseID
	}
}

func (r *purchaseRepo) GetByID(_ context.Context, id int64) (*entity.Purchase, error) {
	var out *entity.Purchase
	r.s.do(func(st *state) {
		if p, ok := st.purchases[id]; ok {
			out = copyPurchase(p)
		}
	})
	return out, nil
}

func (r *purchaseRepo) GetForUpdate(ctx context.Context, id int64) (*entity.Purchase, error) {
	return r.GetByID(ctx, id)
}

func (r *purchaseRepo) ReplaceItems(_ context.Context, purchaseID int64, items []entity.PurchaseItem) error {
	err := domain.ErrNotFound
	r.s.do(func(st *state) {
		p, ok := st.purchases[purchaseID]
		if !ok {
			return
		}
		assignPurchaseItems(st, purchaseID, items)
		p.Items = append([]entity.PurchaseItem(nil), items...)
		err = nil
	})
	return err
}

func (r *purchaseRepo) Update(_ context.Context, p *entity.Purchase) error {
	err := domain.ErrNotFound
	r.s.do(func(st *state) {
		cur, ok := st.purchases[p.ID]
		if !ok {
			return
		}
		cur.Status = p.Status
		cur.TotalAmount = p.TotalAmount
		cur.Memo = p.Memo
		cur.ReceivedBy, cur.ReceivedAt = p.ReceivedBy, p.ReceivedAt
		cur.UpdatedAt = r.s.now()
		err = nil
	})
	return err
}

func (r *purchaseRepo) List(_ context.Context, f repository.DocumentFilter) ([]*entity.Purchase, error) {
	var out []*entity.Purchase
	r.s.do(func(st *state) {
		for _, id := range sortedIDs(st.purchases) {
			p := st.purchases[id]
			if matchDoc(f, p.BusinessID, p.StoreID, p.Status) {
				out = append(out, copyPurchase(p))
			}
		}
	})
	return page(out, f.Limit, f.Offset), nil
}

func matchDoc(f repository.DocumentFilter, businessID, storeID int64, status string) bool {
	return (f.BusinessID == 0 || businessID == f.BusinessID) &&
		(f.StoreID == 0 || storeID == f.StoreID) &&
		(f.Status == "" || status == f.Status)
}

type saleRepo struct{ s *session }

func (r *saleRepo) CountByDate(_ context.Context, businessID int64, day time.Time) (int, error) {
	n := 0
	r.s.do(func(st *state) {
		for _, s := range st.sales {
			if s.BusinessID == businessID && sameDay(s.SaleDate, day) {
				n++
			}
		}
	})
	return n, nil
}

func (r *saleRepo) Create(_ context.Context, s *entity.Sale) error {
	r.s.do(func(st *state) {
		s.ID = st.next("sales")
		s.CreatedAt = r.s.now()
		s.UpdatedAt = s.CreatedAt
		assignSaleItems(st, s.ID, s.Items)
		st.sales[s.ID] = copySale(s)
	})
	return nil
}

func assignSaleItems(st *state, saleID int64, items []entity.SaleItem) {
	for i := range items {
		items[i].ID = st.next("sale_items")
		items[i].SaleID = saleID
	}
}

func (r *saleRepo) GetByID(_ context.Context, id int64) (*entity.Sale, error) {
	var out *entity.Sale
	r.s.do(func(st *state) {
		if s, ok := st.sales[id]; ok {
			out = copySale(s)
		}
	})
	return out, nil
}

func (r *saleRepo) GetForUpdate(ctx context.Context, id int64) (*entity.Sale, error) {
	return r.GetByID(ctx, id)
}

func (r *saleRepo) ReplaceItems(_ context.Context, saleID int64, items []entity.SaleItem) error {
	err := domain.ErrNotFound
	r.s.do(func(st *state) {
		s, ok := st.sales[saleID]
		if !ok {
			return
		}
		assignSaleItems(st, saleID, items)
		s.Items = copySale(&entity.Sale{Items: items}).Items
		err = nil
	})
	return err
}

func (r *saleRepo) Update(_ context.Context, s *entity.Sale) error {
	err := domain.ErrNotFound
	r.s.do(func(st *state) {
		cur, ok := st.sales[s.ID]
		if !ok {
			return
		}
		cur.Status = s.Status
		cur.TotalAmount = s.TotalAmount
		cur.Memo = s.Memo
		cur.ConfirmedBy, cur.ConfirmedAt = s.ConfirmedBy, s.ConfirmedAt
		cur.UpdatedAt = r.s.now()
		err = nil
	})
	return err
}

func (r *saleRepo) List(_ context.Context, f repository.DocumentFilter) ([]*entity.Sale, error) {
	var out []*entity.Sale
	r.s.do(func(st *state) {
		for _, id := range sortedIDs(st.sales) {
			s := st.sales[id]
			if matchDoc(f, s.BusinessID, s.StoreID, s.Status) {
				out = append(out, copySale(s))
			}
		}
	})
	return page(out, f.Limit, f.Offset), nil
}

type stockCountRepo struct{ s *session }

func (r *stockCountRepo) Create(_ context.Context, c *entity.StockCount) error {
	r.s.do(func(st *state) {
		c.ID = st.next("stock_counts")
		c.CreatedAt = r.s.now()
		c.UpdatedAt = c.CreatedAt
		for i := range c.Items {
			c.Items[i].ID = st.next("stock_count_items")
			c.Items[i].CountID = c.ID
		}
		st.counts[c.ID] = copyCount(c)
	})
	return nil
}

func (r *stockCountRepo) GetByID(_ context.Context, id int64) (*entity.StockCount, error) {
	var out *entity.StockCount
	r.s.do(func(st *state) {
		if c, ok := st.counts[id]; ok {
			out = copyCount(c)
		}
	})
	return out, nil
}

func (r *stockCountRepo) GetForUpdate(ctx context.Context, id int64) (*entity.StockCount, error) {
	return r.GetByID(ctx, id)
}

func (r *stockCountRepo) UpdateItem(_ context.Context, item *entity.StockCountItem) error {
	err := domain.ErrNotFound
	r.s.do(func(st *state) {
		c, ok := st.counts[item.CountID]
		if !ok {
			return
		}
		for i := range c.Items {
			if c.Items[i].ID == item.ID {
				c.Items[i].ActualQuantity = item.ActualQuantity
				c.Items[i].Difference = item.Difference
				c.Items[i].Memo = item.Memo
				err = nil
				return
			}
		}
	})
	return err
}

func (r *stockCountRepo) Update(_ context.Context, c *entity.StockCount) error {
	err := domain.ErrNotFound
	r.s.do(func(st *state) {
		cur, ok := st.counts[c.ID]
		if !ok {
			return
		}
		cur.Status = c.Status
		cur.Memo = c.Memo
		cur.ApprovedBy, cur.ApprovedAt = c.ApprovedBy, c.ApprovedAt
		cur.UpdatedAt = r.s.now()
		err = nil
	})
	return err
}

func (r *stockCountRepo) List(_ context.Context, f repository.DocumentFilter) ([]*entity.StockCount, error) {
	var out []*entity.StockCount
	r.s.do(func(st *state) {
		for _, id := range sortedIDs(st.counts) {
			c := st.counts[id]
			if matchDoc(f, c.BusinessID, c.StoreID, c.Status) {
				out = append(out, copyCount(c))
			}
		}
	})
	return page(out, f.Limit, f.Offset), nil
}
