// Package memory implementa los repositorios del dominio en memoria. Se usa en pruebas y con
// APP_STORAGE=memory. Run serializa las transacciones y trabaja sobre una copia del estado que
// solo se publica si fn termina sin error.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

var _ repository.TxRunner = (*Store)(nil)

// Store es la base de datos en memoria.
type Store struct {
	mu   sync.Mutex
	data *state
	now  func() time.Time
}

// New crea un store vacío.
func New() *Store {
	return &Store{data: newState(), now: time.Now}
}

// Run ejecuta fn con repositorios sobre una copia del estado; si fn falla la copia se descarta.
func (s *Store) Run(ctx context.Context, fn func(repos repository.Set) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.data.clone()
	if err := fn(s.bind(&session{store: s, st: work})); err != nil {
		return err
	}
	s.data = work
	return nil
}

// Repositories devuelve repositorios fuera de transacción; cada llamada toma el lock del store.
func (s *Store) Repositories() repository.Set {
	return s.bind(&session{store: s})
}

func (s *Store) bind(sess *session) repository.Set {
	return repository.Set{
		Businesses:   &businessRepo{sess},
		Stores:       &storeRepo{sess},
		Products:     &productRepo{sess},
		Lots:         &lotRepo{sess},
		Transactions: &transactionRepo{sess},
		Transfers:    &transferRepo{sess},
		Purchases:    &purchaseRepo{sess},
		Sales:        &saleRepo{sess},
		Wholesale:    &wholesaleRepo{sess},
		StockCounts:  &stockCountRepo{sess},
		Repackaging:  &repackagingRepo{sess},
		Recipes:      &recipeRepo{sess},
		PosSync:      &posSyncRepo{sess},
		Users:        &userRepo{sess},
	}
}

// session apunta al estado de una transacción (st) o al estado publicado del store (st nil).
type session struct {
	store *Store
	st    *state
}

func (s *session) do(fn func(st *state)) {
	if s.st != nil {
		fn(s.st)
		return
	}
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	fn(s.store.data)
}

func (s *session) now() time.Time { return s.store.now() }

type state struct {
	seq          map[string]int64
	businesses   map[int64]*entity.Business
	stores       map[int64]*entity.Store
	products     map[int64]*entity.Product
	lots         map[int64]*entity.Lot
	transactions []*entity.Transaction
	transfers    map[int64]*entity.Transfer
	purchases    map[int64]*entity.Purchase
	sales        map[int64]*entity.Sale
	clients      map[int64]*entity.WholesaleClient
	pricing      map[[2]int64]*entity.WholesalePricing
	orders       map[int64]*entity.WholesaleOrder
	payments     []*entity.WholesalePayment
	counts       map[int64]*entity.StockCount
	rules        map[int64]*entity.RepackagingRule
	recipes      map[int64]*entity.Recipe
	details      []*entity.PosSyncDetail
	checkpoints  map[string]*entity.PosSyncCheckpoint
	users        map[int64]*entity.User
}

func newState() *state {
	return &state{
		seq:         map[string]int64{},
		businesses:  map[int64]*entity.Business{},
		stores:      map[int64]*entity.Store{},
		products:    map[int64]*entity.Product{},
		lots:        map[int64]*entity.Lot{},
		transfers:   map[int64]*entity.Transfer{},
		purchases:   map[int64]*entity.Purchase{},
		sales:       map[int64]*entity.Sale{},
		clients:     map[int64]*entity.WholesaleClient{},
		pricing:     map[[2]int64]*entity.WholesalePricing{},
		orders:      map[int64]*entity.WholesaleOrder{},
		counts:      map[int64]*entity.StockCount{},
		rules:       map[int64]*entity.RepackagingRule{},
		recipes:     map[int64]*entity.Recipe{},
		checkpoints: map[string]*entity.PosSyncCheckpoint{},
		users:       map[int64]*entity.User{},
	}
}

func (st *state) next(table string) int64 {
	st.seq[table]++
	return st.seq[table]
}

// clone copia el estado. Los campos puntero de las entidades nunca se modifican en sitio,
// por lo que basta copiar structs y slices.
func (st *state) clone() *state {
	c := &state{
		seq:          copyMap(st.seq, func(v int64) int64 { return v }),
		businesses:   copyMap(st.businesses, copyPtr[entity.Business]),
		stores:       copyMap(st.stores, copyPtr[entity.Store]),
		products:     copyMap(st.products, copyPtr[entity.Product]),
		lots:         copyMap(st.lots, copyPtr[entity.Lot]),
		transactions: append([]*entity.Transaction(nil), st.transactions...),
		transfers:    copyMap(st.transfers, copyTransfer),
		purchases:    copyMap(st.purchases, copyPurchase),
		sales:        copyMap(st.sales, copySale),
		clients:      copyMap(st.clients, copyPtr[entity.WholesaleClient]),
		pricing:      copyMap(st.pricing, copyPtr[entity.WholesalePricing]),
		orders:       copyMap(st.orders, copyOrder),
		payments:     append([]*entity.WholesalePayment(nil), st.payments...),
		counts:       copyMap(st.counts, copyCount),
		rules:        copyMap(st.rules, copyRule),
		recipes:      copyMap(st.recipes, copyRecipe),
		details:      append([]*entity.PosSyncDetail(nil), st.details...),
		checkpoints:  copyMap(st.checkpoints, copyPtr[entity.PosSyncCheckpoint]),
		users:        copyMap(st.users, copyPtr[entity.User]),
	}
	return c
}

func copyMap[K comparable, V any](m map[K]V, cp func(V) V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = cp(v)
	}
	return out
}

func copyPtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyTransfer(t *entity.Transfer) *entity.Transfer {
	c := *t
	c.Items = append([]entity.TransferItem(nil), t.Items...)
	return &c
}

func copyPurchase(p *entity.Purchase) *entity.Purchase {
	c := *p
	c.Items = append([]entity.PurchaseItem(nil), p.Items...)
	return &c
}

func copySale(s *entity.Sale) *entity.Sale {
	c := *s
	c.Items = make([]entity.SaleItem, len(s.Items))
	for i, it := range s.Items {
		it.Lots = append([]entity.LotQuantity(nil), it.Lots...)
		c.Items[i] = it
	}
	return &c
}

func copyOrder(o *entity.WholesaleOrder) *entity.WholesaleOrder {
	c := *o
	c.Items = append([]entity.WholesaleOrderItem(nil), o.Items...)
	return &c
}

func copyCount(sc *entity.StockCount) *entity.StockCount {
	c := *sc
	c.Items = append([]entity.StockCountItem(nil), sc.Items...)
	return &c
}

func copyRule(r *entity.RepackagingRule) *entity.RepackagingRule {
	c := *r
	c.Targets = append([]entity.RepackagingTarget(nil), r.Targets...)
	return &c
}

func copyRecipe(r *entity.Recipe) *entity.Recipe {
	c := *r
	c.Items = append([]entity.RecipeItem(nil), r.Items...)
	return &c
}

// sortedIDs devuelve las llaves ordenadas de forma descendente (más recientes primero).
func sortedIDs[V any](m map[int64]V) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })
	return ids
}

// page aplica limit/offset a un slice ya ordenado.
func page[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
