//go:build integration

package postgres_test

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
	"github.com/jhoicas/stockledger-api/internal/infrastructure/postgres"
	"github.com/jhoicas/stockledger-api/pkg/config"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

type pgFixture struct {
	ctx     context.Context
	repos   repository.Set
	tx      *postgres.TxRunner
	engine  *ledger.Engine
	actor   entity.Actor
	storeID int64
}

func newPgFixture(t *testing.T) *pgFixture {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("stockledger_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	m, err := postgres.NewMigrator(dsn, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, m.Up())
	require.NoError(t, m.Up(), "sin cambios no es error")
	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
	require.NoError(t, m.Close())

	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: dsn})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	repos := postgres.Repositories(pool)
	b := &entity.Business{Name: "Mercado Norte", Type: entity.BusinessTypeMart, PosEnabled: true}
	require.NoError(t, repos.Businesses.Create(ctx, b))
	s := &entity.Store{BusinessID: b.ID, Name: "Sede Centro", Active: true}
	require.NoError(t, repos.Stores.Create(ctx, s))

	tx := postgres.NewTxRunner(pool)
	return &pgFixture{
		ctx:     ctx,
		repos:   repos,
		tx:      tx,
		engine:  ledger.NewEngine(tx, repos, ledger.PolicyPermissive, zerolog.Nop()),
		actor:   entity.Actor{BusinessID: b.ID, UserID: 1},
		storeID: s.ID,
	}
}

func (f *pgFixture) product(t *testing.T, code string) int64 {
	t.Helper()
	p := &entity.Product{BusinessID: f.actor.BusinessID, Code: code, Name: code, Unit: "ea", Active: true}
	require.NoError(t, f.repos.Products.Create(f.ctx, p))
	return p.ID
}

func day(s string) *time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return &t
}

func qty(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

// ─── Lotes y FEFO ───────────────────────────────────────────────────────────

func TestPostgres_LedgerFEFOYUpsertDeLotes(t *testing.T) {
	f := newPgFixture(t)
	pid := f.product(t, "LECHE")

	for _, in := range []struct {
		q      int64
		expiry *time.Time
	}{{5, day("2026-03-01")}, {3, nil}, {4, day("2026-02-01")}, {2, nil}} {
		_, err := f.engine.StockIn(f.ctx, ledger.StockInInput{
			Actor: f.actor, ProductID: pid, StoreID: f.storeID, Quantity: qty(in.q), ExpiryDate: in.expiry,
		})
		require.NoError(t, err)
	}

	lots, err := f.repos.Lots.List(f.ctx, repository.LotFilter{StoreID: f.storeID, ProductID: pid})
	require.NoError(t, err)
	require.Len(t, lots, 3, "los lotes sin vencimiento comparten llave")
	assert.Equal(t, "2026-02-01", lots[0].ExpiryDate.Format("2006-01-02"))
	assert.Nil(t, lots[2].ExpiryDate)
	assert.True(t, lots[2].Quantity.Equal(qty(5)))

	res, err := f.engine.StockOut(f.ctx, ledger.StockOutInput{
		Actor: f.actor, ProductID: pid, StoreID: f.storeID, Quantity: qty(6),
	})
	require.NoError(t, err)
	require.Len(t, res.Transactions, 2)

	levels, err := f.repos.Lots.StockLevels(f.ctx, f.storeID, "", nil)
	require.NoError(t, err)
	require.Len(t, levels, 1)
	assert.True(t, levels[0].Quantity.Equal(qty(8)))

	txs, err := f.repos.Transactions.List(f.ctx, repository.TransactionFilter{BusinessID: f.actor.BusinessID, Type: entity.TransactionOut})
	require.NoError(t, err)
	assert.Len(t, txs, 2)
	assert.Equal(t, res.OperationID, txs[0].OperationID)
}

func TestPostgres_TxRunnerRevierteEnError(t *testing.T) {
	f := newPgFixture(t)
	pid := f.product(t, "ARROZ")

	err := f.tx.Run(f.ctx, func(r repository.Set) error {
		_, err := r.Lots.AddQuantity(f.ctx, entity.LotKey{ProductID: pid, StoreID: f.storeID}, qty(10))
		require.NoError(t, err)
		return domain.ErrConflict
	})
	require.ErrorIs(t, err, domain.ErrConflict)

	lots, err := f.repos.Lots.List(f.ctx, repository.LotFilter{ProductID: pid})
	require.NoError(t, err)
	assert.Empty(t, lots)
}

// ─── Concurrencia ───────────────────────────────────────────────────────────

func TestPostgres_SalidasConcurrentesBloqueanElLote(t *testing.T) {
	f := newPgFixture(t)
	pid := f.product(t, "AZUCAR")
	_, err := f.engine.StockIn(f.ctx, ledger.StockInInput{
		Actor: f.actor, ProductID: pid, StoreID: f.storeID, Quantity: qty(10), ExpiryDate: day("2026-08-01"),
	})
	require.NoError(t, err)
	strict := ledger.NewEngine(f.tx, f.repos, ledger.PolicyStrict, zerolog.Nop())

	const workers = 16
	var ok, short atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := strict.StockOut(f.ctx, ledger.StockOutInput{
				Actor: f.actor, ProductID: pid, StoreID: f.storeID, Quantity: qty(1),
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
	lots, err := f.repos.Lots.List(f.ctx, repository.LotFilter{StoreID: f.storeID, ProductID: pid})
	require.NoError(t, err)
	require.Len(t, lots, 1)
	assert.True(t, lots[0].Quantity.IsZero(), "saldo final %s", lots[0].Quantity)
	txs, err := f.repos.Transactions.List(f.ctx, repository.TransactionFilter{BusinessID: f.actor.BusinessID, Type: entity.TransactionOut})
	require.NoError(t, err)
	assert.Len(t, txs, 10)
}

// ─── Documentos ─────────────────────────────────────────────────────────────

func TestPostgres_VentaConservaLotesPorLinea(t *testing.T) {
	f := newPgFixture(t)
	pid := f.product(t, "PAN")
	lot, err := f.repos.Lots.AddQuantity(f.ctx, entity.LotKey{ProductID: pid, StoreID: f.storeID}, qty(9))
	require.NoError(t, err)

	now := time.Now()
	s := &entity.Sale{
		BusinessID: f.actor.BusinessID, StoreID: f.storeID, Number: entity.DocumentNumber(entity.PrefixSale, now, 1),
		SaleDate: now, Status: entity.SaleDraft, TotalAmount: qty(20),
		Items: []entity.SaleItem{{ProductID: pid, Quantity: qty(2), UnitPrice: qty(10), Amount: qty(20),
			Lots: []entity.LotQuantity{{LotID: lot.ID, Quantity: qty(2)}}}},
	}
	require.NoError(t, f.repos.Sales.Create(f.ctx, s))

	got, err := f.repos.Sales.GetByID(f.ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	require.Len(t, got.Items[0].Lots, 1)
	assert.Equal(t, lot.ID, got.Items[0].Lots[0].LotID)

	n, err := f.repos.Sales.CountByDate(f.ctx, f.actor.BusinessID, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	dup := *s
	dup.Items = nil
	assert.ErrorIs(t, f.repos.Sales.Create(f.ctx, &dup), domain.ErrDuplicate)
}

func TestPostgres_TrasladoCargaLineasYConteos(t *testing.T) {
	f := newPgFixture(t)
	pid := f.product(t, "QUESO")
	other := &entity.Store{BusinessID: f.actor.BusinessID, Name: "Sede Sur", Active: true}
	require.NoError(t, f.repos.Stores.Create(f.ctx, other))

	tr := &entity.Transfer{
		BusinessID: f.actor.BusinessID, FromStoreID: f.storeID, ToStoreID: other.ID, Status: entity.TransferShipped,
		Items: []entity.TransferItem{{ProductID: pid, Quantity: qty(3), ExpiryDate: day("2026-05-05"), Location: entity.DefaultLocation}},
	}
	require.NoError(t, f.repos.Transfers.Create(f.ctx, tr))
	require.NoError(t, f.repos.Transfers.SetShippedQuantity(f.ctx, tr.Items[0].ID, qty(3)))
	require.NoError(t, f.repos.Transfers.SetReceivedQuantity(f.ctx, tr.Items[0].ID, qty(2)))
	assert.ErrorIs(t, f.repos.Transfers.SetShippedQuantity(f.ctx, 9999, qty(1)), domain.ErrNotFound)

	got, err := f.repos.Transfers.GetByID(f.ctx, tr.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	require.NotNil(t, got.Items[0].ShippedQuantity)
	assert.True(t, got.Items[0].ShippedQuantity.Equal(qty(3)))
	require.NotNil(t, got.Items[0].ReceivedQuantity)
	assert.True(t, got.Items[0].ReceivedQuantity.Equal(qty(2)))
	assert.Equal(t, "2026-05-05", got.Items[0].ExpiryDate.Format("2006-01-02"))

	counts, err := f.repos.Transfers.CountOpen(f.ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferCounts{Incoming: 1}, counts)
}

// ─── Sincronización POS ─────────────────────────────────────────────────────

func TestPostgres_DetallePOSUnicoSalvoErrores(t *testing.T) {
	f := newPgFixture(t)
	base := entity.PosSyncDetail{
		BusinessID: f.actor.BusinessID, ExternalTable: entity.PosTableSaleItems, ExternalRecordID: "42",
		SyncType: entity.PosSyncSale, ProductCode: "PAN", Quantity: qty(1),
	}

	failed := base
	failed.Status = entity.PosLineError
	require.NoError(t, f.repos.PosSync.InsertDetail(f.ctx, &failed))
	again := failed
	require.NoError(t, f.repos.PosSync.InsertDetail(f.ctx, &again), "los errores no bloquean el reintento")

	ok := base
	ok.Status = entity.PosLineSuccess
	require.NoError(t, f.repos.PosSync.InsertDetail(f.ctx, &ok))

	err := f.tx.Run(f.ctx, func(r repository.Set) error {
		dup := base
		dup.Status = entity.PosLineSuccess
		return r.PosSync.InsertDetail(f.ctx, &dup)
	})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	n, err := f.repos.PosSync.CountErrorsSince(f.ctx, f.actor.BusinessID, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, f.repos.PosSync.SaveCheckpoint(f.ctx, &entity.PosSyncCheckpoint{
		BusinessID: f.actor.BusinessID, ExternalTable: entity.PosTableSaleItems, LastSyncedID: 42, RecordCount: 1,
	}))
	cp, err := f.repos.PosSync.GetCheckpoint(f.ctx, f.actor.BusinessID, entity.PosTableSaleItems)
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, int64(42), cp.LastSyncedID)
}
