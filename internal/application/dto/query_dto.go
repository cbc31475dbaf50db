package dto

// LotQuery filtros de GET /api/inventory/lots.
type LotQuery struct {
	PageRequest
	StoreID     int64  `query:"store_id" validate:"min=0"`
	ProductID   int64  `query:"product_id" validate:"min=0"`
	Location    string `query:"location" validate:"max=50"`
	InStockOnly bool   `query:"in_stock"`
}

// ExpiryQuery filtros de GET /api/inventory/expiry-alerts. Days en cero usa el valor configurado.
type ExpiryQuery struct {
	StoreID int64 `query:"store_id" validate:"min=0"`
	Days    int   `query:"days" validate:"min=0,max=365"`
}

// TransactionQuery filtros de GET /api/inventory/transactions.
type TransactionQuery struct {
	PageRequest
	StoreID       int64  `query:"store_id" validate:"min=0"`
	ProductID     int64  `query:"product_id" validate:"min=0"`
	Type          string `query:"type" validate:"omitempty,oneof=in out move adjust discard transfer_in transfer_out"`
	ReferenceType string `query:"reference_type" validate:"max=50"`
	ReferenceID   int64  `query:"reference_id" validate:"min=0"`
	From          string `query:"from" validate:"omitempty,datetime=2006-01-02"`
	To            string `query:"to" validate:"omitempty,datetime=2006-01-02"`
}

// SummaryQuery filtros de GET /api/inventory/summary.
type SummaryQuery struct {
	StoreID  int64  `query:"store_id" validate:"required,gt=0"`
	Location string `query:"location" validate:"max=50"`
}

// DocumentQuery filtros de los listados de documentos y traslados.
type DocumentQuery struct {
	PageRequest
	StoreID int64  `query:"store_id" validate:"min=0"`
	Status  string `query:"status" validate:"max=20"`
}

// PosDetailQuery filtros de GET /api/pos/details.
type PosDetailQuery struct {
	PageRequest
	Status string `query:"status" validate:"omitempty,oneof=success skipped error"`
}
