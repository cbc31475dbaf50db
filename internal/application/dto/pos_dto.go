package dto

import (
	"time"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// PosReceiptLine línea de un recibo del POS.
type PosReceiptLine struct {
	ProductCode string          `json:"product_code" validate:"required,max=50"`
	ProductName string          `json:"product_name,omitempty"`
	Quantity    decimal.Decimal `json:"quantity" validate:"gt=0"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// PosReceiptRequest body del webhook POST /api/pos/webhook.
type PosReceiptRequest struct {
	BusinessID int64            `json:"business_id" validate:"required,gt=0"`
	StoreID    int64            `json:"store_id,omitempty" validate:"omitempty,gt=0"`
	ReceiptNo  int64            `json:"receipt_no" validate:"required,gt=0"`
	PosNo      int              `json:"pos_no,omitempty"`
	Lines      []PosReceiptLine `json:"lines" validate:"required,min=1,dive"`
}

// ToPosLines convierte las líneas del recibo.
func (r PosReceiptRequest) ToPosLines() []entity.PosLine {
	out := make([]entity.PosLine, 0, len(r.Lines))
	for _, l := range r.Lines {
		out = append(out, entity.PosLine{
			ProductCode: l.ProductCode,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			UnitCost:    l.UnitPrice,
		})
	}
	return out
}

// PosSyncDetailResponse línea del registro de sincronización.
type PosSyncDetailResponse struct {
	ID               int64           `json:"id"`
	ExternalTable    string          `json:"external_table"`
	ExternalRecordID string          `json:"external_record_id"`
	SyncType         string          `json:"sync_type"`
	ProductCode      string          `json:"product_code"`
	Quantity         decimal.Decimal `json:"quantity"`
	Status           string          `json:"status"`
	ErrorMessage     string          `json:"error_message,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// ToPosSyncDetails mapea el registro de sincronización.
func ToPosSyncDetails(ds []*entity.PosSyncDetail) []PosSyncDetailResponse {
	out := make([]PosSyncDetailResponse, 0, len(ds))
	for _, d := range ds {
		out = append(out, PosSyncDetailResponse{
			ID: d.ID, ExternalTable: d.ExternalTable, ExternalRecordID: d.ExternalRecordID, SyncType: d.SyncType,
			ProductCode: d.ProductCode, Quantity: d.Quantity, Status: d.Status, ErrorMessage: d.ErrorMessage,
			CreatedAt: d.CreatedAt,
		})
	}
	return out
}

// PosCheckpointResponse avance de la sincronización de una tabla del POS.
type PosCheckpointResponse struct {
	ExternalTable string    `json:"external_table"`
	LastSyncedID  int64     `json:"last_synced_id"`
	RecordCount   int64     `json:"record_count"`
	SyncedAt      time.Time `json:"synced_at"`
}

// PosStatusResponse salida de GET /api/pos/status.
type PosStatusResponse struct {
	Checkpoints  []PosCheckpointResponse `json:"checkpoints"`
	RecentErrors int                     `json:"recent_errors"`
}

// ToPosStatus mapea los checkpoints y el conteo de errores recientes.
func ToPosStatus(cps []*entity.PosSyncCheckpoint, recentErrors int) PosStatusResponse {
	out := PosStatusResponse{Checkpoints: make([]PosCheckpointResponse, 0, len(cps)), RecentErrors: recentErrors}
	for _, cp := range cps {
		out.Checkpoints = append(out.Checkpoints, PosCheckpointResponse{
			ExternalTable: cp.ExternalTable,
			LastSyncedID:  cp.LastSyncedID,
			RecordCount:   cp.RecordCount,
			SyncedAt:      cp.SyncedAt,
		})
	}
	return out
}
