package repository

import "context"

// Set agrupa los repositorios atados a una misma conexión o transacción.
// Convención: los Get devuelven (nil, nil) cuando el registro no existe.
type Set struct {
	Businesses   BusinessRepository
	Stores       StoreRepository
	Products     ProductRepository
	Lots         LotRepository
	Transactions TransactionRepository
	Transfers    TransferRepository
	Purchases    PurchaseRepository
	Sales        SaleRepository
	Wholesale    WholesaleRepository
	StockCounts  StockCountRepository
	Repackaging  RepackagingRepository
	Recipes      RecipeRepository
	PosSync      PosSyncRepository
	Users        UserRepository
}

// TxRunner ejecuta fn dentro de una transacción, pasando repositorios atados a esa tx.
// Si fn devuelve error, todos los cambios se revierten.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos Set) error) error
}
