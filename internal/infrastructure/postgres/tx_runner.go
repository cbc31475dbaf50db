package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

var _ repository.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(repos repository.Set) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(Repositories(tx)); err != nil {
		return contention(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return contention(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

// contention agrega domain.ErrConflict a los errores de bloqueo para que el cliente reintente.
func contention(err error) error {
	if isContention(err) {
		return fmt.Errorf("%w: %w", domain.ErrConflict, err)
	}
	return err
}

// Repositories arma el conjunto de repositorios sobre q (pool para lecturas, tx dentro de Run).
func Repositories(q Querier) repository.Set {
	return repository.Set{
		Businesses:   NewBusinessRepository(q),
		Stores:       NewStoreRepository(q),
		Products:     NewProductRepository(q),
		Lots:         NewLotRepository(q),
		Transactions: NewTransactionRepository(q),
		Transfers:    NewTransferRepository(q),
		Purchases:    NewPurchaseRepository(q),
		Sales:        NewSaleRepository(q),
		Wholesale:    NewWholesaleRepository(q),
		StockCounts:  NewStockCountRepository(q),
		Repackaging:  NewRepackagingRepository(q),
		Recipes:      NewRecipeRepository(q),
		PosSync:      NewPosSyncRepository(q),
		Users:        NewUserRepository(q),
	}
}
