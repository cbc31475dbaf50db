package possync_test

import (
	"context"
	"sync"
	"testing"

	"github.com/jhoicas/stockledger-api/internal/application/ledger"
	"github.com/jhoicas/stockledger-api/internal/application/possync"
	"github.com/jhoicas/stockledger-api/internal/application/production"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/memory"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource simula la base del POS filtrando por id externo.
type fakeSource struct {
	sales    []possync.SaleRow
	stock    []possync.StockRow
	products []possync.ProductRow
}

func (s *fakeSource) FetchSaleItems(_ context.Context, _ int64, afterID int64, limit int) ([]possync.SaleRow, error) {
	var out []possync.SaleRow
	for _, r := range s.sales {
		if r.ID > afterID && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeSource) FetchStockTransactions(_ context.Context, _ int64, afterID int64, limit int) ([]possync.StockRow, error) {
	var out []possync.StockRow
	for _, r := range s.stock {
		if r.ID > afterID && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeSource) FetchProducts(context.Context, int64) ([]possync.ProductRow, error) {
	return s.products, nil
}

// mapCache es una caché en memoria que cuenta aciertos.
type mapCache struct {
	mu   sync.Mutex
	ids  map[string]int64
	hits int
}

func (c *mapCache) GetProductID(_ context.Context, _ int64, code string) (int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.ids[code]
	if ok {
		c.hits++
	}
	return id, ok, nil
}

func (c *mapCache) SetProductID(_ context.Context, _ int64, code string, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids[code] = id
	return nil
}

type fixture struct {
	ctx      context.Context
	repos    repository.Set
	engine   *ledger.Engine
	recipes  *production.RecipeUseCase
	adapter  *possync.Adapter
	source   *fakeSource
	cache    *mapCache
	business *entity.Business
	store    int64
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newFixture(t *testing.T, businessType string, policy ledger.StockPolicy) *fixture {
	t.Helper()
	ctx := context.Background()
	st := memory.New()
	repos := st.Repositories()

	b := &entity.Business{Name: "Negocio POS", Type: businessType, PosEnabled: true}
	require.NoError(t, repos.Businesses.Create(ctx, b))
	s := &entity.Store{BusinessID: b.ID, Name: "Principal", Active: true}
	require.NoError(t, repos.Stores.Create(ctx, s))

	engine := ledger.NewEngine(st, repos, policy, zerolog.Nop())
	recipes := production.NewRecipeUseCase(st, repos, engine, zerolog.Nop())
	src := &fakeSource{}
	cache := &mapCache{ids: map[string]int64{}}
	return &fixture{
		ctx: ctx, repos: repos, engine: engine, recipes: recipes,
		adapter:  possync.NewAdapter(st, repos, engine, recipes, src, cache, possync.Config{BatchSize: 10}, zerolog.Nop()),
		source:   src,
		cache:    cache,
		business: b,
		store:    s.ID,
	}
}

func (f *fixture) product(t *testing.T, code string) int64 {
	t.Helper()
	p := &entity.Product{BusinessID: f.business.ID, Code: code, Name: code, Active: true}
	require.NoError(t, f.repos.Products.Create(f.ctx, p))
	return p.ID
}

func (f *fixture) stockIn(t *testing.T, productID int64, location, qty string) {
	t.Helper()
	_, err := f.engine.StockIn(f.ctx, ledger.StockInInput{
		Actor: entity.Actor{BusinessID: f.business.ID}, ProductID: productID, StoreID: f.store, Location: location, Quantity: dec(qty),
	})
	require.NoError(t, err)
}

func (f *fixture) onHand(t *testing.T, productID int64, location string) decimal.Decimal {
	t.Helper()
	levels, err := f.repos.Lots.StockLevels(f.ctx, f.store, location, nil)
	require.NoError(t, err)
	for _, lv := range levels {
		if lv.ProductID == productID {
			return lv.Quantity
		}
	}
	return decimal.Zero
}

func line(id, code, qty string) entity.PosLine {
	return entity.PosLine{ExternalID: id, ProductCode: code, Quantity: dec(qty)}
}

// ─── Ventas ──────────────────────────────────────────────────────────────────

func TestHandleSale_TiendaDescuentaProducto(t *testing.T) {
	f := newFixture(t, entity.BusinessTypeMart, ledger.PolicyPermissive)
	soda := f.product(t, "GAS-350")
	f.stockIn(t, soda, "", "24")

	res, err := f.adapter.HandleSale(f.ctx, possync.Batch{
		BusinessID: f.business.ID,
		Table:      entity.PosTableSaleItems,
		Lines:      []entity.PosLine{line("100", "GAS-350", "3"), line("101", "GAS-350", "2")},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Processed)
	assert.Empty(t, res.Errors)
	assert.True(t, f.onHand(t, soda, entity.DefaultLocation).Equal(dec("19")))

	txs, err := f.repos.Transactions.List(f.ctx, repository.TransactionFilter{ReferenceType: entity.ReferencePosSync})
	require.NoError(t, err)
	assert.Len(t, txs, 2)
	assert.Contains(t, txs[0].Reason, "GAS-350")
}

func TestHandleSale_RestauranteUsaReceta(t *testing.T) {
	f := newFixture(t, entity.BusinessTypeRestaurant, ledger.PolicyPermissive)
	menu := f.product(t, "MENU-HAMB")
	bun := f.product(t, "PAN")
	patty := f.product(t, "CARNE")
	require.NoError(t, f.recipes.Create(f.ctx, entity.Actor{BusinessID: f.business.ID}, &entity.Recipe{
		Name: "Hamburguesa", PosMenuID: &menu, Items: []entity.RecipeItem{
			{ProductID: bun, Quantity: dec("1")},
			{ProductID: patty, Quantity: dec("0.2")},
		},
	}))
	f.stockIn(t, bun, entity.KitchenLocation, "10")
	f.stockIn(t, patty, entity.KitchenLocation, "5")

	res, err := f.adapter.HandleSale(f.ctx, possync.Batch{
		BusinessID: f.business.ID,
		Table:      entity.PosTableSaleItems,
		Lines:      []entity.PosLine{line("1", "MENU-HAMB", "2")},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Processed)
	assert.True(t, f.onHand(t, bun, entity.KitchenLocation).Equal(dec("8")))
	assert.True(t, f.onHand(t, patty, entity.KitchenLocation).Equal(dec("4.6")))
	assert.True(t, f.onHand(t, menu, entity.KitchenLocation).IsZero())
}

func TestHandleSale_RestauranteSinRecetaOmite(t *testing.T) {
	f := newFixture(t, entity.BusinessTypeRestaurant, ledger.PolicyPermissive)
	f.product(t, "BEBIDA")

	res, err := f.adapter.HandleSale(f.ctx, possync.Batch{
		BusinessID: f.business.ID, Table: entity.PosTableSaleItems,
		Lines: []entity.PosLine{line("7", "BEBIDA", "1")},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Processed)
	assert.Equal(t, 1, res.Skipped)

	details, err := f.repos.PosSync.ListDetails(f.ctx, f.business.ID, entity.PosLineSkipped, 0, 0)
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, "7", details[0].ExternalRecordID)
}

func TestHandleSale_LineaRepetidaSeOmite(t *testing.T) {
	f := newFixture(t, entity.BusinessTypeMart, ledger.PolicyPermissive)
	soda := f.product(t, "GAS")
	f.stockIn(t, soda, "", "10")
	batch := possync.Batch{BusinessID: f.business.ID, Table: entity.PosTableSaleItems, Lines: []entity.PosLine{line("55", "GAS", "4")}}

	_, err := f.adapter.HandleSale(f.ctx, batch)
	require.NoError(t, err)
	res, err := f.adapter.HandleSale(f.ctx, batch)
	require.NoError(t, err)

	assert.Equal(t, 0, res.Processed)
	assert.Equal(t, 1, res.Skipped)
	assert.True(t, f.onHand(t, soda, "").Equal(dec("6")), "la venta se descuenta una sola vez")
	assert.Equal(t, 1, f.cache.hits, "el segundo lote resuelve el código desde la caché")
}

func TestHandleSale_LineasInvalidasYDesconocidas(t *testing.T) {
	f := newFixture(t, entity.BusinessTypeMart, ledger.PolicyPermissive)

	res, err := f.adapter.HandleSale(f.ctx, possync.Batch{
		BusinessID: f.business.ID, Table: entity.PosTableSaleItems,
		Lines: []entity.PosLine{line("1", "", "1"), line("2", "X", "0"), line("3", "NO-EXISTE", "1")},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Skipped)
	assert.Empty(t, res.Errors)
}

func TestHandleSale_EstrictoRegistraErrorYPermiteReintento(t *testing.T) {
	f := newFixture(t, entity.BusinessTypeMart, ledger.PolicyStrict)
	soda := f.product(t, "GAS")
	f.stockIn(t, soda, "", "1")
	batch := possync.Batch{BusinessID: f.business.ID, Table: entity.PosTableSaleItems, Lines: []entity.PosLine{line("9", "GAS", "3")}}

	res, err := f.adapter.HandleSale(f.ctx, batch)
	require.NoError(t, err)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "9", res.Errors[0].ExternalID)
	assert.True(t, f.onHand(t, soda, "").Equal(dec("1")))

	errs, err := f.repos.PosSync.ListDetails(f.ctx, f.business.ID, entity.PosLineError, 0, 0)
	require.NoError(t, err)
	assert.Len(t, errs, 1)

	f.stockIn(t, soda, "", "5")
	res, err = f.adapter.HandleSale(f.ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Processed)
	assert.True(t, f.onHand(t, soda, "").Equal(dec("3")))
}

func TestHandleSale_NegocioInexistente(t *testing.T) {
	f := newFixture(t, entity.BusinessTypeMart, ledger.PolicyPermissive)
	_, err := f.adapter.HandleSale(f.ctx, possync.Batch{BusinessID: 999})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ─── Recibos ─────────────────────────────────────────────────────────────────

func TestHandleReceipt_ReenvioNoDescuentaDosVeces(t *testing.T) {
	f := newFixture(t, entity.BusinessTypeMart, ledger.PolicyPermissive)
	chips := f.product(t, "PAPAS")
	f.stockIn(t, chips, "", "10")
	rc := possync.Receipt{BusinessID: f.business.ID, ReceiptNo: 3001, Lines: []entity.PosLine{
		{ProductCode: "PAPAS", Quantity: dec("1")},
		{ProductCode: "PAPAS", Quantity: dec("2")},
	}}

	res, err := f.adapter.HandleReceipt(f.ctx, rc)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Processed)

	res, err = f.adapter.HandleReceipt(f.ctx, rc)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Skipped)
	assert.True(t, f.onHand(t, chips, "").Equal(dec("7")))
}

func TestHandleReceipt_SinNumero(t *testing.T) {
	f := newFixture(t, entity.BusinessTypeMart, ledger.PolicyPermissive)
	_, err := f.adapter.HandleReceipt(f.ctx, possync.Receipt{BusinessID: f.business.ID})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ─── Sondeo ──────────────────────────────────────────────────────────────────

func TestPollSales_AvanzaCheckpoint(t *testing.T) {
	f := newFixture(t, entity.BusinessTypeMart, ledger.PolicyPermissive)
	soda := f.product(t, "GAS")
	f.stockIn(t, soda, "", "20")
	f.source.sales = []possync.SaleRow{
		{ID: 10, MenuCode: "GAS", Quantity: dec("1")},
		{ID: 11, MenuCode: "GAS", Quantity: dec("2")},
	}

	res, err := f.adapter.PollSales(f.ctx, f.business.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Processed)

	cp, err := f.repos.PosSync.GetCheckpoint(f.ctx, f.business.ID, entity.PosTableSaleItems)
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, int64(11), cp.LastSyncedID)
	assert.Equal(t, int64(2), cp.RecordCount)

	f.source.sales = append(f.source.sales, possync.SaleRow{ID: 12, MenuCode: "GAS", Quantity: dec("4")})
	res, err = f.adapter.PollSales(f.ctx, f.business.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Processed)
	assert.True(t, f.onHand(t, soda, "").Equal(dec("13")))
}

func TestPollStockTransactions_EntradasYPerdidas(t *testing.T) {
	f := newFixture(t, entity.BusinessTypeMart, ledger.PolicyPermissive)
	rice := f.product(t, "ARROZ")
	f.source.stock = []possync.StockRow{
		{ID: 1, Type: "IN", MenuCode: "ARROZ", Quantity: dec("10"), UnitCost: dec("2500")},
		{ID: 2, Type: "OUT", MenuCode: "ARROZ", Quantity: dec("-2"), Reason: "vencido"},
		{ID: 3, Type: "adjust", MenuCode: "ARROZ", Quantity: dec("1")},
		{ID: 4, Type: "TRANSFER", MenuCode: "ARROZ", Quantity: dec("1")},
	}

	res, err := f.adapter.PollStockTransactions(f.ctx, f.business.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Processed)
	assert.Equal(t, 1, res.Skipped)
	assert.True(t, f.onHand(t, rice, entity.DefaultLocation).Equal(dec("7")))

	cp, err := f.repos.PosSync.GetCheckpoint(f.ctx, f.business.ID, entity.PosTableStockTransactions)
	require.NoError(t, err)
	assert.Equal(t, int64(4), cp.LastSyncedID)
}

func TestSyncProducts_CreaYActualiza(t *testing.T) {
	f := newFixture(t, entity.BusinessTypeMart, ledger.PolicyPermissive)
	f.product(t, "GAS")
	f.source.products = []possync.ProductRow{
		{Code: "GAS", Name: "Gaseosa", SellPrice: dec("3000"), CostPrice: dec("1800")},
		{Code: "PAPAS", Name: "Papas", SellPrice: dec("2500")},
		{Code: " ", Name: "sin código"},
	}

	res, err := f.adapter.SyncProducts(f.ctx, f.business.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 1, res.Skipped)

	gas, err := f.repos.Products.GetByCode(f.ctx, f.business.ID, "GAS")
	require.NoError(t, err)
	assert.True(t, gas.SellPrice.Equal(dec("3000")))

	res, err = f.adapter.SyncProducts(f.ctx, f.business.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Updated, "sin cambios no se reescribe")
}

func TestSyncAll_RecorreNegociosHabilitados(t *testing.T) {
	f := newFixture(t, entity.BusinessTypeMart, ledger.PolicyPermissive)
	soda := f.product(t, "GAS")
	f.stockIn(t, soda, "", "5")
	f.source.sales = []possync.SaleRow{{ID: 1, MenuCode: "GAS", Quantity: dec("1")}}

	results, err := f.adapter.SyncAll(f.ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].Sales.Processed)

	status, err := f.adapter.Status(f.ctx, f.business.ID)
	require.NoError(t, err)
	assert.Len(t, status.Checkpoints, 1)
	assert.Equal(t, 0, status.RecentErrors)
}

func TestPoll_SinOrigen(t *testing.T) {
	f := newFixture(t, entity.BusinessTypeMart, ledger.PolicyPermissive)
	st := memory.New()
	a := possync.NewAdapter(st, st.Repositories(), f.engine, f.recipes, nil, nil, possync.Config{}, zerolog.Nop())
	_, err := a.PollSales(f.ctx, f.business.ID)
	assert.ErrorIs(t, err, possync.ErrNoSource)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}
