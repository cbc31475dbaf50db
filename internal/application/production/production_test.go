package production_test

import (
	"context"
	"testing"

	"github.com/jhoicas/stockledger-api/internal/application/ledger"
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

type fixture struct {
	ctx     context.Context
	repos   repository.Set
	engine  *ledger.Engine
	repack  *production.RepackagingUseCase
	recipes *production.RecipeUseCase
	actor   entity.Actor
	store   int64
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newFixture(t *testing.T, policy ledger.StockPolicy) *fixture {
	t.Helper()
	ctx := context.Background()
	st := memory.New()
	repos := st.Repositories()

	b := &entity.Business{Name: "Cocina Criolla", Type: entity.BusinessTypeRestaurant}
	require.NoError(t, repos.Businesses.Create(ctx, b))
	s := &entity.Store{BusinessID: b.ID, Name: "Sede 1", Active: true}
	require.NoError(t, repos.Stores.Create(ctx, s))

	engine := ledger.NewEngine(st, repos, policy, zerolog.Nop())
	return &fixture{
		ctx: ctx, repos: repos, engine: engine,
		repack:  production.NewRepackagingUseCase(st, repos, engine, zerolog.Nop()),
		recipes: production.NewRecipeUseCase(st, repos, engine, zerolog.Nop()),
		actor:   entity.Actor{BusinessID: b.ID, UserID: 9},
		store:   s.ID,
	}
}

func (f *fixture) product(t *testing.T, code, cost string) int64 {
	t.Helper()
	p := &entity.Product{BusinessID: f.actor.BusinessID, Code: code, Name: code, PurchasePrice: dec(cost)}
	require.NoError(t, f.repos.Products.Create(f.ctx, p))
	return p.ID
}

func (f *fixture) stockIn(t *testing.T, productID int64, location, qty string) {
	t.Helper()
	_, err := f.engine.StockIn(f.ctx, ledger.StockInInput{
		Actor: f.actor, ProductID: productID, StoreID: f.store, Location: location, Quantity: dec(qty),
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

// ─── Reempaque ───────────────────────────────────────────────────────────────

func TestExecute_ConvierteOrigenEnDestinos(t *testing.T) {
	f := newFixture(t, ledger.PolicyPermissive)
	sack := f.product(t, "SACO-25", "50000")
	bag := f.product(t, "BOLSA-1", "0")
	half := f.product(t, "BOLSA-05", "0")
	f.stockIn(t, sack, "", "3")

	rule := &entity.RepackagingRule{Name: "Saco a bolsas", SourceProductID: sack, Targets: []entity.RepackagingTarget{
		{TargetProductID: bag, Ratio: dec("20")},
		{TargetProductID: half, Ratio: dec("10")},
	}}
	require.NoError(t, f.repack.CreateRule(f.ctx, f.actor, rule))

	res, err := f.repack.Execute(f.ctx, production.ExecuteInput{Actor: f.actor, RuleID: rule.ID, StoreID: f.store, Quantity: dec("2")})
	require.NoError(t, err)
	require.Len(t, res.Outputs, 2)
	assert.True(t, res.Outputs[0].Quantity.Equal(dec("40")))
	assert.True(t, res.Outputs[1].Quantity.Equal(dec("20")))
	assert.True(t, res.Shortfall.IsZero())

	assert.True(t, f.onHand(t, sack, entity.DefaultLocation).Equal(dec("1")))
	assert.True(t, f.onHand(t, bag, entity.DefaultLocation).Equal(dec("40")))

	txs, err := f.repos.Transactions.List(f.ctx, repository.TransactionFilter{ReferenceType: entity.ReferenceRepackaging, ReferenceID: rule.ID})
	require.NoError(t, err)
	assert.Len(t, txs, 3)
}

func TestExecute_EstrictoSinOrigenRevierte(t *testing.T) {
	f := newFixture(t, ledger.PolicyStrict)
	sack := f.product(t, "SACO-25", "0")
	bag := f.product(t, "BOLSA-1", "0")
	f.stockIn(t, sack, "", "1")
	rule := &entity.RepackagingRule{Name: "Saco", SourceProductID: sack, Targets: []entity.RepackagingTarget{{TargetProductID: bag, Ratio: dec("25")}}}
	require.NoError(t, f.repack.CreateRule(f.ctx, f.actor, rule))

	_, err := f.repack.Execute(f.ctx, production.ExecuteInput{Actor: f.actor, RuleID: rule.ID, StoreID: f.store, Quantity: dec("2")})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.True(t, f.onHand(t, sack, "").Equal(dec("1")))
	assert.True(t, f.onHand(t, bag, "").IsZero())
}

func TestExecute_FaltantePermisivoEscalaDestinos(t *testing.T) {
	f := newFixture(t, ledger.PolicyPermissive)
	sack := f.product(t, "SACO-25", "0")
	bag := f.product(t, "BOLSA-1", "0")
	f.stockIn(t, sack, "", "1")
	rule := &entity.RepackagingRule{Name: "Saco", SourceProductID: sack, Targets: []entity.RepackagingTarget{{TargetProductID: bag, Ratio: dec("20")}}}
	require.NoError(t, f.repack.CreateRule(f.ctx, f.actor, rule))

	res, err := f.repack.Execute(f.ctx, production.ExecuteInput{Actor: f.actor, RuleID: rule.ID, StoreID: f.store, Quantity: dec("3")})
	require.NoError(t, err)
	assert.True(t, res.Shortfall.Equal(dec("2")))
	require.Len(t, res.Outputs, 1)
	assert.True(t, res.Outputs[0].Quantity.Equal(dec("20")), "solo lo que salió del origen")
	assert.True(t, f.onHand(t, sack, "").IsZero())
	assert.True(t, f.onHand(t, bag, "").Equal(dec("20")))

	res, err = f.repack.Execute(f.ctx, production.ExecuteInput{Actor: f.actor, RuleID: rule.ID, StoreID: f.store, Quantity: dec("1")})
	require.NoError(t, err)
	assert.Empty(t, res.Outputs)
	assert.True(t, f.onHand(t, bag, "").Equal(dec("20")))
}

func TestExecute_ReglaInexistenteOInactiva(t *testing.T) {
	f := newFixture(t, ledger.PolicyPermissive)
	_, err := f.repack.Execute(f.ctx, production.ExecuteInput{Actor: f.actor, RuleID: 42, StoreID: f.store, Quantity: dec("1")})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	sack := f.product(t, "SACO", "0")
	bag := f.product(t, "BOLSA", "0")
	inactive := &entity.RepackagingRule{BusinessID: f.actor.BusinessID, Name: "Vieja", SourceProductID: sack,
		Targets: []entity.RepackagingTarget{{TargetProductID: bag, Ratio: dec("2")}}}
	require.NoError(t, f.repos.Repackaging.CreateRule(f.ctx, inactive))
	_, err = f.repack.Execute(f.ctx, production.ExecuteInput{Actor: f.actor, RuleID: inactive.ID, StoreID: f.store, Quantity: dec("1")})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestCreateRule_RatioInvalido(t *testing.T) {
	f := newFixture(t, ledger.PolicyPermissive)
	sack := f.product(t, "SACO", "0")
	bag := f.product(t, "BOLSA", "0")
	err := f.repack.CreateRule(f.ctx, f.actor, &entity.RepackagingRule{Name: "x", SourceProductID: sack,
		Targets: []entity.RepackagingTarget{{TargetProductID: bag, Ratio: dec("0")}}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ─── Recetas ─────────────────────────────────────────────────────────────────

func (f *fixture) burger(t *testing.T) (recipe *entity.Recipe, bun, patty int64) {
	t.Helper()
	bun = f.product(t, "PAN", "500")
	patty = f.product(t, "CARNE", "2500.5")
	recipe = &entity.Recipe{Name: "Hamburguesa", Items: []entity.RecipeItem{
		{ProductID: bun, Quantity: dec("1"), Unit: "und"},
		{ProductID: patty, Quantity: dec("0.15"), Unit: "kg"},
	}}
	require.NoError(t, f.recipes.Create(f.ctx, f.actor, recipe))
	return recipe, bun, patty
}

func TestDeductByRecipe_DescuentaEnCocina(t *testing.T) {
	f := newFixture(t, ledger.PolicyPermissive)
	recipe, bun, patty := f.burger(t)
	f.stockIn(t, bun, entity.KitchenLocation, "10")
	f.stockIn(t, bun, entity.DefaultLocation, "50")
	f.stockIn(t, patty, entity.KitchenLocation, "2")

	results, err := f.recipes.DeductByRecipe(f.ctx, production.DeductInput{Actor: f.actor, RecipeID: recipe.ID, StoreID: f.store, Quantity: dec("4")})
	require.NoError(t, err)
	assert.Len(t, results, 2)

	assert.True(t, f.onHand(t, bun, entity.KitchenLocation).Equal(dec("6")))
	assert.True(t, f.onHand(t, bun, entity.DefaultLocation).Equal(dec("50")), "la bodega no se toca")
	assert.True(t, f.onHand(t, patty, entity.KitchenLocation).Equal(dec("1.4")))

	txs, err := f.repos.Transactions.List(f.ctx, repository.TransactionFilter{ReferenceType: entity.ReferenceRecipe, ReferenceID: recipe.ID})
	require.NoError(t, err)
	assert.Len(t, txs, 2)
}

func TestDeductByRecipe_FaltantePermisivo(t *testing.T) {
	f := newFixture(t, ledger.PolicyPermissive)
	recipe, bun, _ := f.burger(t)
	f.stockIn(t, bun, entity.KitchenLocation, "1")

	results, err := f.recipes.DeductByRecipe(f.ctx, production.DeductInput{Actor: f.actor, RecipeID: recipe.ID, StoreID: f.store, Quantity: dec("3")})
	require.NoError(t, err)
	assert.True(t, results[0].Shortfall.Equal(dec("2")))
	assert.True(t, results[1].Shortfall.Equal(dec("0.45")))
}

func TestCost_SumaIngredientes(t *testing.T) {
	f := newFixture(t, ledger.PolicyPermissive)
	recipe, _, _ := f.burger(t)

	cost, err := f.recipes.Cost(f.ctx, f.actor, recipe.ID)
	require.NoError(t, err)
	// 1 × 500 + 0.15 × 2500.5 = 875.075 → 875.08
	assert.True(t, cost.Equal(dec("875.08")), cost.String())
}
