package memory

import (
	"context"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

type businessRepo struct{ s *session }

func (r *businessRepo) Create(_ context.Context, b *entity.Business) error {
	r.s.do(func(st *state) {
		b.ID = st.next("businesses")
		b.CreatedAt = r.s.now()
		b.UpdatedAt = b.CreatedAt
		st.businesses[b.ID] = copyPtr(b)
	})
	return nil
}

func (r *businessRepo) GetByID(_ context.Context, id int64) (*entity.Business, error) {
	var out *entity.Business
	r.s.do(func(st *state) { out = copyPtr(st.businesses[id]) })
	return out, nil
}

func (r *businessRepo) ListPosEnabled(_ context.Context) ([]*entity.Business, error) {
	var out []*entity.Business
	r.s.do(func(st *state) {
		ids := sortedIDs(st.businesses)
		for i := len(ids) - 1; i >= 0; i-- {
			if b := st.businesses[ids[i]]; b.PosEnabled {
				out = append(out, copyPtr(b))
			}
		}
	})
	return out, nil
}

type storeRepo struct{ s *session }

func (r *storeRepo) Create(_ context.Context, s *entity.Store) error {
	r.s.do(func(st *state) {
		s.ID = st.next("stores")
		s.CreatedAt = r.s.now()
		s.UpdatedAt = s.CreatedAt
		st.stores[s.ID] = copyPtr(s)
	})
	return nil
}

func (r *storeRepo) GetByID(_ context.Context, id int64) (*entity.Store, error) {
	var out *entity.Store
	r.s.do(func(st *state) { out = copyPtr(st.stores[id]) })
	return out, nil
}

func (r *storeRepo) ListByBusiness(_ context.Context, businessID int64) ([]*entity.Store, error) {
	var out []*entity.Store
	r.s.do(func(st *state) {
		ids := sortedIDs(st.stores)
		for i := len(ids) - 1; i >= 0; i-- {
			if s := st.stores[ids[i]]; s.BusinessID == businessID {
				out = append(out, copyPtr(s))
			}
		}
	})
	return out, nil
}

type productRepo struct{ s *session }

func (r *productRepo) Create(_ context.Context, p *entity.Product) error {
	r.s.do(func(st *state) {
		p.ID = st.next("products")
		p.CreatedAt = r.s.now()
		p.UpdatedAt = p.CreatedAt
		st.products[p.ID] = copyPtr(p)
	})
	return nil
}

func (r *productRepo) GetByID(_ context.Context, id int64) (*entity.Product, error) {
	var out *entity.Product
	r.s.do(func(st *state) { out = copyPtr(st.products[id]) })
	return out, nil
}

func (r *productRepo) GetByCode(_ context.Context, businessID int64, code string) (*entity.Product, error) {
	var out *entity.Product
	r.s.do(func(st *state) {
		for _, p := range st.products {
			if p.BusinessID == businessID && p.Code == code {
				out = copyPtr(p)
				return
			}
		}
	})
	return out, nil
}

func (r *productRepo) ListByBusiness(_ context.Context, businessID int64) ([]*entity.Product, error) {
	var out []*entity.Product
	r.s.do(func(st *state) {
		for _, id := range ascending(st.products) {
			if p := st.products[id]; p.BusinessID == businessID {
				out = append(out, copyPtr(p))
			}
		}
	})
	return out, nil
}

func (r *productRepo) UpdatePrices(_ context.Context, id int64, purchasePrice, sellPrice decimal.Decimal) error {
	err := domain.ErrNotFound
	r.s.do(func(st *state) {
		p, ok := st.products[id]
		if !ok {
			return
		}
		c := *p
		c.PurchasePrice = purchasePrice
		c.SellPrice = sellPrice
		c.UpdatedAt = r.s.now()
		st.products[id] = &c
		err = nil
	})
	return err
}
