//go:build integration

package possource_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/possource"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const posSchema = `
CREATE SCHEMA pos_5;
CREATE TABLE pos_5.sale_items (id BIGINT PRIMARY KEY, menu_code TEXT, quantity NUMERIC, unit_price NUMERIC, receipt_id BIGINT);
CREATE TABLE pos_5.stock_transactions (id BIGINT PRIMARY KEY, transaction_type TEXT, menu_code TEXT, quantity NUMERIC, unit_cost NUMERIC, reason TEXT);
CREATE TABLE pos_5.menulist (id BIGSERIAL PRIMARY KEY, mcode TEXT, mname TEXT, mprice1 NUMERIC, cost_price NUMERIC);
INSERT INTO pos_5.sale_items VALUES (1, 'A1', 2, 3500, 10), (2, 'B2', 1, NULL, NULL), (3, 'A1', 1, 3500, 11);
INSERT INTO pos_5.stock_transactions VALUES (1, 'in', 'A1', 10, 1200, 'compra'), (2, 'OUT', 'A1', -2, NULL, NULL);
INSERT INTO pos_5.menulist (mcode, mname, mprice1, cost_price) VALUES ('B2', 'Bebida', 2000, 800), ('A1', 'Arepa', 3500, NULL);
`

func TestReader_LeeTablasDelPOSPorEsquema(t *testing.T) {
	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("pos"),
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

	r, err := possource.New(ctx, dsn, "pos_%d")
	require.NoError(t, err)
	t.Cleanup(r.Close)

	conn, err := pgx.Connect(ctx, dsn)
	require.NoError(t, err)
	_, err = conn.Exec(ctx, posSchema)
	require.NoError(t, err)
	require.NoError(t, conn.Close(ctx))

	sales, err := r.FetchSaleItems(ctx, 5, 1, 10)
	require.NoError(t, err)
	require.Len(t, sales, 2)
	assert.Equal(t, int64(2), sales[0].ID)
	assert.True(t, sales[0].UnitPrice.IsZero())
	assert.Equal(t, int64(11), sales[1].ReceiptID)

	limited, err := r.FetchSaleItems(ctx, 5, 0, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	stock, err := r.FetchStockTransactions(ctx, 5, 0, 10)
	require.NoError(t, err)
	require.Len(t, stock, 2)
	assert.Equal(t, "IN", stock[0].Type)
	assert.True(t, stock[1].Quantity.Equal(decimal.NewFromInt(-2)))

	products, err := r.FetchProducts(ctx, 5)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "A1", products[0].Code, "ordenado por nombre")
	assert.True(t, products[0].CostPrice.IsZero())
}
