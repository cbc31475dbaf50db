package stockcount_test

import (
	"context"
	"testing"
	"time"

	"github.com/jhoicas/stockledger-api/internal/application/ledger"
	"github.com/jhoicas/stockledger-api/internal/application/stockcount"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/memory"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	ctx    context.Context
	repos  repository.Set
	engine *ledger.Engine
	uc     *stockcount.UseCase
	actor  entity.Actor
	store  int64
	rice   int64
	beans  int64
}

func dec(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	st := memory.New()
	repos := st.Repositories()

	b := &entity.Business{Name: "Granero Central", Type: entity.BusinessTypeMart}
	require.NoError(t, repos.Businesses.Create(ctx, b))
	s := &entity.Store{BusinessID: b.ID, Name: "Centro", Active: true}
	require.NoError(t, repos.Stores.Create(ctx, s))
	rice := &entity.Product{BusinessID: b.ID, Code: "ARROZ", Name: "Arroz"}
	require.NoError(t, repos.Products.Create(ctx, rice))
	beans := &entity.Product{BusinessID: b.ID, Code: "FRIJOL", Name: "Fríjol"}
	require.NoError(t, repos.Products.Create(ctx, beans))

	engine := ledger.NewEngine(st, repos, ledger.PolicyPermissive, zerolog.Nop())
	f := &fixture{
		ctx: ctx, repos: repos, engine: engine,
		uc:    stockcount.NewUseCase(st, repos, engine, zerolog.Nop()),
		actor: entity.Actor{BusinessID: b.ID, UserID: 1},
		store: s.ID, rice: rice.ID, beans: beans.ID,
	}
	exp := time.Date(2026, 11, 30, 0, 0, 0, 0, time.UTC)
	for _, in := range []ledger.StockInInput{
		{ProductID: rice.ID, Quantity: dec(10)},
		{ProductID: rice.ID, Quantity: dec(4), ExpiryDate: &exp},
		{ProductID: beans.ID, Quantity: dec(6)},
	} {
		in.Actor, in.StoreID = f.actor, s.ID
		_, err := engine.StockIn(ctx, in)
		require.NoError(t, err)
	}
	return f
}

func (f *fixture) onHand(t *testing.T, productID int64) decimal.Decimal {
	t.Helper()
	levels, err := f.repos.Lots.StockLevels(f.ctx, f.store, "", nil)
	require.NoError(t, err)
	for _, lv := range levels {
		if lv.ProductID == productID {
			return lv.Quantity
		}
	}
	return decimal.Zero
}

func itemFor(c *entity.StockCount, productID int64) entity.StockCountItem {
	for _, it := range c.Items {
		if it.ProductID == productID {
			return it
		}
	}
	return entity.StockCountItem{}
}

func TestCreate_TomaCantidadDelSistema(t *testing.T) {
	f := newFixture(t)
	c, err := f.uc.Create(f.ctx, stockcount.CreateInput{Actor: f.actor, StoreID: f.store})
	require.NoError(t, err)

	assert.Equal(t, entity.DefaultLocation, c.Location)
	assert.Equal(t, entity.StockCountDraft, c.Status)
	require.Len(t, c.Items, 2)
	assert.True(t, itemFor(c, f.rice).SystemQuantity.Equal(dec(14)))
	assert.True(t, itemFor(c, f.beans).SystemQuantity.Equal(dec(6)))
}

func TestApprove_AjustaSoloDiferencias(t *testing.T) {
	f := newFixture(t)
	c, err := f.uc.Create(f.ctx, stockcount.CreateInput{Actor: f.actor, StoreID: f.store})
	require.NoError(t, err)

	ok, err := f.uc.UpdateItems(f.ctx, f.actor, c.ID, []stockcount.ItemCount{
		{ItemID: itemFor(c, f.rice).ID, Actual: dec(11)},
		{ItemID: itemFor(c, f.beans).ID, Actual: dec(6)},
	})
	require.NoError(t, err)
	require.True(t, ok)

	got, err := f.uc.Get(f.ctx, f.actor, c.ID)
	require.NoError(t, err)
	assert.True(t, itemFor(got, f.rice).Difference.Equal(dec(-3)))

	ok, err = f.uc.Approve(f.ctx, f.actor, c.ID)
	require.NoError(t, err)
	require.True(t, ok)

	assert.True(t, f.onHand(t, f.rice).Equal(dec(11)))
	assert.True(t, f.onHand(t, f.beans).Equal(dec(6)))

	txs, err := f.repos.Transactions.List(f.ctx, repository.TransactionFilter{ReferenceType: entity.ReferenceStockCount, ReferenceID: c.ID})
	require.NoError(t, err)
	require.NotEmpty(t, txs)
	for _, tx := range txs {
		assert.Equal(t, entity.TransactionAdjust, tx.Type)
		assert.Equal(t, f.rice, tx.ProductID)
	}

	ok, err = f.uc.Approve(f.ctx, f.actor, c.ID)
	require.NoError(t, err)
	assert.False(t, ok, "un conteo aprobado no se aprueba de nuevo")

	ok, err = f.uc.UpdateItems(f.ctx, f.actor, c.ID, []stockcount.ItemCount{{ItemID: itemFor(c, f.rice).ID, Actual: dec(1)}})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestApprove_LineasSinContarNoSeAjustan(t *testing.T) {
	f := newFixture(t)
	c, err := f.uc.Create(f.ctx, stockcount.CreateInput{Actor: f.actor, StoreID: f.store})
	require.NoError(t, err)

	ok, err := f.uc.Approve(f.ctx, f.actor, c.ID)
	require.NoError(t, err)
	require.True(t, ok)

	txs, err := f.repos.Transactions.List(f.ctx, repository.TransactionFilter{ReferenceType: entity.ReferenceStockCount})
	require.NoError(t, err)
	assert.Empty(t, txs)
	assert.True(t, f.onHand(t, f.rice).Equal(dec(14)))
}

func TestUpdateItems_LineaAjena(t *testing.T) {
	f := newFixture(t)
	c, err := f.uc.Create(f.ctx, stockcount.CreateInput{Actor: f.actor, StoreID: f.store})
	require.NoError(t, err)

	_, err = f.uc.UpdateItems(f.ctx, f.actor, c.ID, []stockcount.ItemCount{{ItemID: 999, Actual: dec(1)}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.uc.UpdateItems(f.ctx, f.actor, c.ID, []stockcount.ItemCount{{ItemID: itemFor(c, f.rice).ID, Actual: dec(-1)}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
