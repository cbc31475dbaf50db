package ledger_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jhoicas/stockledger-api/internal/application/ledger"
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
	actor   entity.Actor
	storeID int64
	product int64
}

func newFixture(t *testing.T, policy ledger.StockPolicy) *fixture {
	t.Helper()
	ctx := context.Background()
	st := memory.New()
	repos := st.Repositories()

	b := &entity.Business{Name: "Mercado Norte", Type: entity.BusinessTypeMart}
	require.NoError(t, repos.Businesses.Create(ctx, b))
	s := &entity.Store{BusinessID: b.ID, Name: "Sede Centro", Active: true}
	require.NoError(t, repos.Stores.Create(ctx, s))
	p := &entity.Product{BusinessID: b.ID, Code: "LECHE-1L", Name: "Leche 1L", Unit: "und", Active: true}
	require.NoError(t, repos.Products.Create(ctx, p))

	return &fixture{
		ctx:     ctx,
		repos:   repos,
		engine:  ledger.NewEngine(st, repos, policy, zerolog.Nop()),
		actor:   entity.Actor{BusinessID: b.ID, UserID: 7},
		storeID: s.ID,
		product: p.ID,
	}
}

func qty(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func date(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func (f *fixture) stockIn(t *testing.T, location string, n int64, expiry *time.Time) *ledger.Result {
	t.Helper()
	res, err := f.engine.StockIn(f.ctx, ledger.StockInInput{
		Actor: f.actor, ProductID: f.product, StoreID: f.storeID, Location: location,
		Quantity: qty(n), ExpiryDate: expiry, UnitPrice: qty(100), Reason: "compra",
	})
	require.NoError(t, err)
	return res
}

func (f *fixture) lots(t *testing.T, location string) []*entity.Lot {
	t.Helper()
	lots, err := f.repos.Lots.List(f.ctx, repository.LotFilter{ProductID: f.product, StoreID: f.storeID, Location: location})
	require.NoError(t, err)
	return lots
}

func (f *fixture) transactions(t *testing.T) []*entity.Transaction {
	t.Helper()
	txs, err := f.repos.Transactions.List(f.ctx, repository.TransactionFilter{BusinessID: f.actor.BusinessID})
	require.NoError(t, err)
	return txs
}

func quantities(lots []*entity.Lot) []string {
	out := make([]string, len(lots))
	for i, l := range lots {
		out[i] = l.Quantity.String()
	}
	return out
}

// ─── StockIn ─────────────────────────────────────────────────────────────────

func TestStockIn_MismaLlaveAcumulaEnUnLote(t *testing.T) {
	f := newFixture(t, ledger.PolicyPermissive)

	f.stockIn(t, "warehouse", 10, date("2026-03-01"))
	f.stockIn(t, "warehouse", 5, date("2026-03-01"))

	lots := f.lots(t, "warehouse")
	require.Len(t, lots, 1)
	assert.Equal(t, "15", lots[0].Quantity.String())
	assert.Len(t, f.transactions(t), 2)
}

func TestStockIn_RegistraTransaccionConMonto(t *testing.T) {
	f := newFixture(t, ledger.PolicyPermissive)

	res := f.stockIn(t, "", 3, nil)

	require.Len(t, res.Transactions, 1)
	tx := res.Transactions[0]
	assert.Equal(t, entity.TransactionIn, tx.Type)
	assert.Equal(t, entity.DefaultLocation, tx.ToLocation)
	assert.Equal(t, "300", tx.TotalAmount.String())
	require.NotNil(t, tx.UserID)
	assert.Equal(t, int64(7), *tx.UserID)
	assert.NotEmpty(t, tx.OperationID)
}

func TestStockIn_ProductoInexistenteNoModifica(t *testing.T) {
	f := newFixture(t, ledger.PolicyPermissive)

	_, err := f.engine.StockIn(f.ctx, ledger.StockInInput{
		Actor: f.actor, ProductID: 999, StoreID: f.storeID, Quantity: qty(1),
	})

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, f.transactions(t))
}

func TestStockIn_ProductoDeOtroNegocio(t *testing.T) {
	f := newFixture(t, ledger.PolicyPermissive)
	other := &entity.Product{BusinessID: f.actor.BusinessID + 100, Code: "X", Name: "Ajeno"}
	require.NoError(t, f.repos.Products.Create(f.ctx, other))

	_, err := f.engine.StockIn(f.ctx, ledger.StockInInput{
		Actor: f.actor, ProductID: other.ID, StoreID: f.storeID, Quantity: qty(1),
	})

	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestStockIn_CantidadNoPositiva(t *testing.T) {
	f := newFixture(t, ledger.PolicyPermissive)

	_, err := f.engine.StockIn(f.ctx, ledger.StockInInput{
		Actor: f.actor, ProductID: f.product, StoreID: f.storeID, Quantity: qty(0),
	})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ─── StockOut (FEFO) ─────────────────────────────────────────────────────────

func TestStockOut_FEFOConsumePrimeroLoQueVence(t *testing.T) {
	f := newFixture(t, ledger.PolicyPermissive)
	f.stockIn(t, "warehouse", 5, date("2026-01-10"))
	f.stockIn(t, "warehouse", 5, date("2026-02-01"))
	f.stockIn(t, "warehouse", 5, nil)

	res, err := f.engine.StockOut(f.ctx, ledger.StockOutInput{
		Actor: f.actor, ProductID: f.product, StoreID: f.storeID, Location: "warehouse", Quantity: qty(8),
	})

	require.NoError(t, err)
	assert.False(t, res.HasShortfall())
	assert.Equal(t, []string{"0", "2", "5"}, quantities(f.lots(t, "warehouse")))
}

func TestStockOut_EscenarioLoteSinVencimientoAlFinal(t *testing.T) {
	f := newFixture(t, ledger.PolicyPermissive)
	f.stockIn(t, "warehouse", 10, date("2026-03-01"))
	f.stockIn(t, "warehouse", 4, nil)

	res, err := f.engine.StockOut(f.ctx, ledger.StockOutInput{
		Actor: f.actor, ProductID: f.product, StoreID: f.storeID, Location: "warehouse", Quantity: qty(12),
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"0", "2"}, quantities(f.lots(t, "warehouse")))
	require.Len(t, res.Transactions, 1)
	assert.Equal(t, entity.TransactionOut, res.Transactions[0].Type)
	assert.Equal(t, "12", res.Transactions[0].Quantity.String())
	assert.Len(t, res.Consumed, 2)
}

func TestStockOut_FaltantePermisivoDejaLotesEnCero(t *testing.T) {
	f := newFixture(t, ledger.PolicyPermissive)
	f.stockIn(t, "warehouse", 3, date("2026-01-10"))
	f.stockIn(t, "warehouse", 2, nil)

	res, err := f.engine.StockOut(f.ctx, ledger.StockOutInput{
		Actor: f.actor, ProductID: f.product, StoreID: f.storeID, Location: "warehouse", Quantity: qty(9),
	})

	require.NoError(t, err)
	assert.True(t, res.HasShortfall())
	assert.Equal(t, "4", res.Shortfall.String())
	assert.Equal(t, []string{"0", "0"}, quantities(f.lots(t, "warehouse")))
}

func TestStockOut_FaltanteEstrictoRevierte(t *testing.T) {
	f := newFixture(t, ledger.PolicyStrict)
	f.stockIn(t, "warehouse", 3, nil)

	_, err := f.engine.StockOut(f.ctx, ledger.StockOutInput{
		Actor: f.actor, ProductID: f.product, StoreID: f.storeID, Location: "warehouse", Quantity: qty(5),
	})

	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, []string{"3"}, quantities(f.lots(t, "warehouse")))
	assert.Len(t, f.transactions(t), 1)
}

func TestStockOut_NoTocaOtraUbicacion(t *testing.T) {
	f := newFixture(t, ledger.PolicyPermissive)
	f.stockIn(t, "warehouse", 5, nil)
	f.stockIn(t, "kitchen", 5, nil)

	_, err := f.engine.StockOut(f.ctx, ledger.StockOutInput{
		Actor: f.actor, ProductID: f.product, StoreID: f.storeID, Location: "kitchen", Quantity: qty(2),
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"5"}, quantities(f.lots(t, "warehouse")))
	assert.Equal(t, []string{"3"}, quantities(f.lots(t, "kitchen")))
}

// ─── Operaciones por lote ────────────────────────────────────────────────────

func TestLotStockOut_UnaTransaccionPorLoteYOmiteInexistentes(t *testing.T) {
	f := newFixture(t, ledger.PolicyPermissive)
	a := f.stockIn(t, "warehouse", 5, date("2026-01-10")).Transactions[0].LotID
	b := f.stockIn(t, "warehouse", 5, nil).Transactions[0].LotID

	res, err := f.engine.LotStockOut(f.ctx, ledger.LotStockOutInput{
		Actor: f.actor, StoreID: f.storeID, Reason: "dañado",
		Lots: []entity.LotQuantity{
			{LotID: *b, Quantity: qty(2)},
			{LotID: 999, Quantity: qty(1)},
			{LotID: *a, Quantity: qty(1)},
		},
	})

	require.NoError(t, err)
	assert.Len(t, res.Transactions, 2)
	assert.Equal(t, []int64{999}, res.Skipped)
	assert.Equal(t, []string{"4", "3"}, quantities(f.lots(t, "warehouse")))
	for _, tx := range res.Transactions {
		assert.NotNil(t, tx.LotID)
	}
}

func TestLotMove_ConservaVencimiento(t *testing.T) {
	f := newFixture(t, ledger.PolicyPermissive)
	lotID := f.stockIn(t, "warehouse", 6, date("2026-04-15")).Transactions[0].LotID

	res, err := f.engine.LotMove(f.ctx, ledger.LotMoveInput{
		Actor: f.actor, StoreID: f.storeID, ToLocation: "display",
		Lots: []entity.LotQuantity{{LotID: *lotID, Quantity: qty(4)}},
	})

	require.NoError(t, err)
	require.Len(t, res.Transactions, 1)
	assert.Equal(t, entity.TransactionMove, res.Transactions[0].Type)
	dest := f.lots(t, "display")
	require.Len(t, dest, 1)
	assert.Equal(t, "4", dest[0].Quantity.String())
	assert.True(t, entity.SameExpiry(dest[0].ExpiryDate, date("2026-04-15")))
	assert.Equal(t, []string{"2"}, quantities(f.lots(t, "warehouse")))
}

// ─── Move ────────────────────────────────────────────────────────────────────

func TestMove_DestinoSinVencimiento(t *testing.T) {
	f := newFixture(t, ledger.PolicyPermissive)
	f.stockIn(t, "warehouse", 5, date("2026-01-10"))
	f.stockIn(t, "warehouse", 5, date("2026-02-10"))

	res, err := f.engine.Move(f.ctx, ledger.MoveInput{
		Actor: f.actor, ProductID: f.product, StoreID: f.storeID,
		FromLocation: "warehouse", ToLocation: "kitchen", Quantity: qty(7),
	})

	require.NoError(t, err)
	assert.Equal(t, "7", res.Transactions[0].Quantity.String())
	assert.Equal(t, []string{"0", "3"}, quantities(f.lots(t, "warehouse")))
	dest := f.lots(t, "kitchen")
	require.Len(t, dest, 1)
	assert.Nil(t, dest[0].ExpiryDate)
	assert.Equal(t, "7", dest[0].Quantity.String())
}

func TestMove_MismaUbicacionEsInvalido(t *testing.T) {
	f := newFixture(t, ledger.PolicyPermissive)

	_, err := f.engine.Move(f.ctx, ledger.MoveInput{
		Actor: f.actor, ProductID: f.product, StoreID: f.storeID,
		FromLocation: "warehouse", ToLocation: "warehouse", Quantity: qty(1),
	})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ─── Adjust ──────────────────────────────────────────────────────────────────

func TestAdjust_ConLoteRegistraDiferencia(t *testing.T) {
	f := newFixture(t, ledger.PolicyPermissive)
	lotID := f.stockIn(t, "warehouse", 10, date("2026-01-10")).Transactions[0].LotID

	res, err := f.engine.Adjust(f.ctx, ledger.AdjustInput{
		Actor: f.actor, ProductID: f.product, StoreID: f.storeID, NewQuantity: qty(7), LotID: lotID,
	})

	require.NoError(t, err)
	require.Len(t, res.Transactions, 1)
	assert.Equal(t, "-3", res.Transactions[0].Quantity.String())
	assert.Equal(t, []string{"7"}, quantities(f.lots(t, "warehouse")))
}

func TestAdjust_SinLoteVariosLotesNegativoPorFEFO(t *testing.T) {
	f := newFixture(t, ledger.PolicyPermissive)
	f.stockIn(t, "warehouse", 4, date("2026-01-10"))
	f.stockIn(t, "warehouse", 6, nil)

	res, err := f.engine.Adjust(f.ctx, ledger.AdjustInput{
		Actor: f.actor, ProductID: f.product, StoreID: f.storeID, Location: "warehouse", NewQuantity: qty(5),
	})

	require.NoError(t, err)
	assert.Equal(t, "-5", res.Transactions[0].Quantity.String())
	assert.Equal(t, []string{"0", "5"}, quantities(f.lots(t, "warehouse")))
}

func TestAdjust_SinLoteVariosLotesPositivoVaAlLoteSinVencimiento(t *testing.T) {
	f := newFixture(t, ledger.PolicyPermissive)
	f.stockIn(t, "warehouse", 4, date("2026-01-10"))
	f.stockIn(t, "warehouse", 1, date("2026-02-10"))

	res, err := f.engine.Adjust(f.ctx, ledger.AdjustInput{
		Actor: f.actor, ProductID: f.product, StoreID: f.storeID, Location: "warehouse", NewQuantity: qty(8),
	})

	require.NoError(t, err)
	assert.Equal(t, "3", res.Transactions[0].Quantity.String())
	assert.Equal(t, []string{"4", "1", "3"}, quantities(f.lots(t, "warehouse")))
}

func TestAdjust_SinLotesCreaLote(t *testing.T) {
	f := newFixture(t, ledger.PolicyPermissive)

	_, err := f.engine.Adjust(f.ctx, ledger.AdjustInput{
		Actor: f.actor, ProductID: f.product, StoreID: f.storeID, NewQuantity: qty(9),
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"9"}, quantities(f.lots(t, entity.DefaultLocation)))
}

func TestAdjust_SinDiferenciaNoRegistra(t *testing.T) {
	f := newFixture(t, ledger.PolicyPermissive)
	f.stockIn(t, "warehouse", 4, nil)

	res, err := f.engine.Adjust(f.ctx, ledger.AdjustInput{
		Actor: f.actor, ProductID: f.product, StoreID: f.storeID, NewQuantity: qty(4),
	})

	require.NoError(t, err)
	assert.Empty(t, res.Transactions)
	assert.Len(t, f.transactions(t), 1)
}

// ─── Discard ─────────────────────────────────────────────────────────────────

func TestDiscard_PorVencimiento(t *testing.T) {
	f := newFixture(t, ledger.PolicyPermissive)
	f.stockIn(t, "warehouse", 5, date("2026-01-10"))
	f.stockIn(t, "warehouse", 5, date("2026-02-10"))

	res, err := f.engine.Discard(f.ctx, ledger.DiscardInput{
		Actor: f.actor, ProductID: f.product, StoreID: f.storeID, Quantity: qty(2), ExpiryDate: date("2026-02-10"),
	})

	require.NoError(t, err)
	assert.Equal(t, entity.TransactionDiscard, res.Transactions[0].Type)
	assert.Equal(t, []string{"5", "3"}, quantities(f.lots(t, "warehouse")))
}

func TestDiscard_SinLoteNiVencimientoUsaFEFO(t *testing.T) {
	f := newFixture(t, ledger.PolicyPermissive)
	f.stockIn(t, "warehouse", 5, nil)
	f.stockIn(t, "warehouse", 5, date("2026-02-10"))

	_, err := f.engine.Discard(f.ctx, ledger.DiscardInput{
		Actor: f.actor, ProductID: f.product, StoreID: f.storeID, Quantity: qty(6),
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"0", "4"}, quantities(f.lots(t, "warehouse")))
}

func TestDiscard_LoteInexistente(t *testing.T) {
	f := newFixture(t, ledger.PolicyPermissive)
	missing := int64(42)

	_, err := f.engine.Discard(f.ctx, ledger.DiscardInput{
		Actor: f.actor, ProductID: f.product, StoreID: f.storeID, Quantity: qty(1), LotID: &missing,
	})

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ─── Conservación ────────────────────────────────────────────────────────────

func TestConservacion_SumaDeLotesIgualAlLibro(t *testing.T) {
	f := newFixture(t, ledger.PolicyStrict)
	f.stockIn(t, "warehouse", 20, date("2026-01-10"))
	f.stockIn(t, "warehouse", 10, nil)

	_, err := f.engine.StockOut(f.ctx, ledger.StockOutInput{Actor: f.actor, ProductID: f.product, StoreID: f.storeID, Quantity: qty(12)})
	require.NoError(t, err)
	_, err = f.engine.Move(f.ctx, ledger.MoveInput{Actor: f.actor, ProductID: f.product, StoreID: f.storeID, FromLocation: "warehouse", ToLocation: "kitchen", Quantity: qty(9)})
	require.NoError(t, err)
	_, err = f.engine.Discard(f.ctx, ledger.DiscardInput{Actor: f.actor, ProductID: f.product, StoreID: f.storeID, Location: "kitchen", Quantity: qty(2)})
	require.NoError(t, err)
	f.stockIn(t, "kitchen", 3, nil)

	onHand := decimal.Zero
	for _, loc := range []string{"warehouse", "kitchen"} {
		for _, l := range f.lots(t, loc) {
			onHand = onHand.Add(l.Quantity)
		}
	}
	net := decimal.Zero
	for _, tx := range f.transactions(t) {
		switch tx.Type {
		case entity.TransactionIn:
			net = net.Add(tx.Quantity)
		case entity.TransactionOut, entity.TransactionDiscard:
			net = net.Sub(tx.Quantity)
		}
	}
	assert.True(t, onHand.Equal(net), "on hand %s, libro %s", onHand, net)
	assert.Equal(t, "19", onHand.String())
}

// ─── Concurrencia ────────────────────────────────────────────────────────────

func TestStockOut_ConcurrenteNoDescuentaDosVeces(t *testing.T) {
	f := newFixture(t, ledger.PolicyStrict)
	f.stockIn(t, "warehouse", 10, date("2026-01-10"))

	const workers = 20
	var ok, short atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.StockOut(f.ctx, ledger.StockOutInput{
				Actor: f.actor, ProductID: f.product, StoreID: f.storeID, Location: "warehouse", Quantity: qty(1),
			})
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, domain.ErrInsufficientStock):
				short.Add(1)
			default:
				t.Errorf("error inesperado: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(10), ok.Load())
	assert.Equal(t, int32(workers-10), short.Load())
	assert.Equal(t, []string{"0"}, quantities(f.lots(t, "warehouse")))
	out, err := f.repos.Transactions.List(f.ctx, repository.TransactionFilter{BusinessID: f.actor.BusinessID, Type: entity.TransactionOut})
	require.NoError(t, err)
	assert.Len(t, out, 10)
}

// ─── Consultas ───────────────────────────────────────────────────────────────

func TestExpiryAlerts_SoloLotesConStockProximosAVencer(t *testing.T) {
	f := newFixture(t, ledger.PolicyPermissive)
	soon := time.Now().AddDate(0, 0, 3)
	later := time.Now().AddDate(0, 2, 0)
	f.stockIn(t, "warehouse", 2, &soon)
	f.stockIn(t, "warehouse", 2, &later)
	f.stockIn(t, "warehouse", 2, nil)

	lots, err := f.engine.ExpiryAlerts(f.ctx, f.actor.BusinessID, f.storeID, 7)

	require.NoError(t, err)
	require.Len(t, lots, 1)
	assert.True(t, entity.SameExpiry(lots[0].ExpiryDate, &soon))
}

func TestParseStockPolicy(t *testing.T) {
	p, err := ledger.ParseStockPolicy("STRICT")
	require.NoError(t, err)
	assert.Equal(t, ledger.PolicyStrict, p)

	p, err = ledger.ParseStockPolicy("")
	require.NoError(t, err)
	assert.Equal(t, ledger.PolicyPermissive, p)

	_, err = ledger.ParseStockPolicy("laxa")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
