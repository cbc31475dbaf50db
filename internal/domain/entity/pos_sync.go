package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de evento POS.
const (
	PosSyncSale    = "sale"
	PosSyncStockIn = "stock_in"
	PosSyncLoss    = "loss"
)

// Resultado por línea sincronizada.
const (
	PosLineSuccess = "success"
	PosLineSkipped = "skipped"
	PosLineError   = "error"
)

// Tablas externas del POS (origen de los ids externos).
const (
	PosTableSaleItems         = "sale_items"
	PosTableStockTransactions = "stock_transactions"
	PosTableReceipts          = "receipts"
)

// PosLine es una línea de evento POS ya normalizada.
type PosLine struct {
	ExternalID  string
	ProductCode string
	ProductName string
	Quantity    decimal.Decimal
	UnitCost    decimal.Decimal
	Reason      string
}

// PosSyncDetail registra el resultado de una línea. La tupla
// (business, external_table, external_record_id) es única.
type PosSyncDetail struct {
	ID               int64
	BusinessID       int64
	ExternalTable    string
	ExternalRecordID string
	SyncType         string
	ProductCode      string
	Quantity         decimal.Decimal
	Status           string
	ErrorMessage     string
	CreatedAt        time.Time
}

// PosSyncCheckpoint es el último id externo procesado por tabla.
type PosSyncCheckpoint struct {
	BusinessID    int64
	ExternalTable string
	LastSyncedID  int64
	RecordCount   int64
	SyncedAt      time.Time
}
