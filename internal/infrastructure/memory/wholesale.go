package memory

import (
	"context"
	"time"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

type wholesaleRepo struct{ s *session }

func (r *wholesaleRepo) CreateClient(_ context.Context, c *entity.WholesaleClient) error {
	r.s.do(func(st *state) {
		c.ID = st.next("wholesale_clients")
		c.CreatedAt = r.s.now()
		st.clients[c.ID] = copyPtr(c)
	})
	return nil
}

func (r *wholesaleRepo) GetClient(_ context.Context, id int64) (*entity.WholesaleClient, error) {
	var out *entity.WholesaleClient
	r.s.do(func(st *state) { out = copyPtr(st.clients[id]) })
	return out, nil
}

func (r *wholesaleRepo) UpsertPricing(_ context.Context, p *entity.WholesalePricing) error {
	r.s.do(func(st *state) {
		key := [2]int64{p.ClientID, p.ProductID}
		if cur, ok := st.pricing[key]; ok {
			p.ID = cur.ID
		} else {
			p.ID = st.next("wholesale_pricing")
		}
		st.pricing[key] = copyPtr(p)
	})
	return nil
}

func (r *wholesaleRepo) GetPricing(_ context.Context, clientID, productID int64) (*entity.WholesalePricing, error) {
	var out *entity.WholesalePricing
	r.s.do(func(st *state) { out = copyPtr(st.pricing[[2]int64{clientID, productID}]) })
	return out, nil
}

func (r *wholesaleRepo) CountOrdersByDate(_ context.Context, businessID int64, day time.Time) (int, error) {
	n := 0
	r.s.do(func(st *state) {
		for _, o := range st.orders {
			if o.BusinessID == businessID && sameDay(o.OrderDate, day) {
				n++
			}
		}
	})
	return n, nil
}

func (r *wholesaleRepo) CreateOrder(_ context.Context, o *entity.WholesaleOrder) error {
	r.s.do(func(st *state) {
		o.ID = st.next("wholesale_orders")
		o.CreatedAt = r.s.now()
		o.UpdatedAt = o.CreatedAt
		for i := range o.Items {
			o.Items[i].ID = st.next("wholesale_order_items")
			o.Items[i].OrderID = o.ID
		}
		st.orders[o.ID] = copyOrder(o)
	})
	return nil
}

func (r *wholesaleRepo) GetOrder(_ context.Context, id int64) (*entity.WholesaleOrder, error) {
	var out *entity.WholesaleOrder
	r.s.do(func(st *state) {
		if o, ok := st.orders[id]; ok {
			out = copyOrder(o)
		}
	})
	return out, nil
}

func (r *wholesaleRepo) GetOrderForUpdate(ctx context.Context, id int64) (*entity.WholesaleOrder, error) {
	return r.GetOrder(ctx, id)
}

func (r *wholesaleRepo) UpdateOrder(_ context.Context, o *entity.WholesaleOrder) error {
	err := domain.ErrNotFound
	r.s.do(func(st *state) {
		cur, ok := st.orders[o.ID]
		if !ok {
			return
		}
		cur.Status = o.Status
		cur.PaidAmount = o.PaidAmount
		cur.PaymentStatus = o.PaymentStatus
		cur.Memo = o.Memo
		cur.ShippedBy, cur.ShippedAt = o.ShippedBy, o.ShippedAt
		cur.UpdatedAt = r.s.now()
		err = nil
	})
	return err
}

func (r *wholesaleRepo) CreatePayment(_ context.Context, p *entity.WholesalePayment) error {
	r.s.do(func(st *state) {
		p.ID = st.next("wholesale_payments")
		st.payments = append(st.payments, copyPtr(p))
	})
	return nil
}

func (r *wholesaleRepo) ListOrders(_ context.Context, f repository.DocumentFilter) ([]*entity.WholesaleOrder, error) {
	var out []*entity.WholesaleOrder
	r.s.do(func(st *state) {
		for _, id := range sortedIDs(st.orders) {
			o := st.orders[id]
			if matchDoc(f, o.BusinessID, o.StoreID, o.Status) {
				out = append(out, copyOrder(o))
			}
		}
	})
	return page(out, f.Limit, f.Offset), nil
}

func (r *wholesaleRepo) ClientBalance(_ context.Context, clientID int64) (*entity.ClientBalance, error) {
	b := &entity.ClientBalance{ClientID: clientID, TotalAmount: decimal.Zero, PaidAmount: decimal.Zero}
	r.s.do(func(st *state) {
		for _, o := range st.orders {
			if o.ClientID != clientID || o.Status == entity.WholesaleCancelled {
				continue
			}
			b.TotalAmount = b.TotalAmount.Add(o.FinalAmount)
			b.PaidAmount = b.PaidAmount.Add(o.PaidAmount)
		}
	})
	b.Balance = b.TotalAmount.Sub(b.PaidAmount)
	return b, nil
}
