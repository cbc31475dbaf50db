package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

// TransactionFilter filtra el libro de transacciones. Los campos en cero no filtran.
type TransactionFilter struct {
	BusinessID    int64
	StoreID       int64
	ProductID     int64
	Type          string
	ReferenceType string
	ReferenceID   int64
	From          *time.Time
	To            *time.Time
	Limit         int
	Offset        int
}

// TransactionRepository define el puerto del libro de inventario (solo inserción).
type TransactionRepository interface {
	Create(ctx context.Context, tx *entity.Transaction) error
	List(ctx context.Context, f TransactionFilter) ([]*entity.Transaction, error)
}
