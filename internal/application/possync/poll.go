package possync

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
	"golang.org/x/sync/errgroup"
)

// ProductSyncResult resume la sincronización del maestro de productos.
type ProductSyncResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Total   int `json:"total"`
}

// FullSyncResult resume una sincronización completa de un negocio.
type FullSyncResult struct {
	BusinessID        int64             `json:"business_id"`
	Products          ProductSyncResult `json:"products"`
	Sales             SyncResult        `json:"sales"`
	StockTransactions SyncResult        `json:"stock_transactions"`
}

// Status estado de sincronización de un negocio.
type Status struct {
	Checkpoints  []*entity.PosSyncCheckpoint `json:"checkpoints"`
	RecentErrors int                         `json:"recent_errors"`
}

// PollSales lee las ventas del POS posteriores al checkpoint y las aplica. El checkpoint avanza
// hasta el mayor id leído aunque alguna línea falle; las líneas con error quedan registradas.
func (a *Adapter) PollSales(ctx context.Context, businessID int64) (*SyncResult, error) {
	if a.source == nil {
		return nil, ErrNoSource
	}
	last, err := a.checkpoint(ctx, businessID, entity.PosTableSaleItems)
	if err != nil {
		return nil, err
	}
	rows, err := a.source.FetchSaleItems(ctx, businessID, last, a.cfg.BatchSize)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &SyncResult{}, nil
	}
	lines := make([]entity.PosLine, 0, len(rows))
	maxID := last
	for _, row := range rows {
		lines = append(lines, entity.PosLine{
			ExternalID:  strconv.FormatInt(row.ID, 10),
			ProductCode: row.MenuCode,
			Quantity:    row.Quantity,
			UnitCost:    row.UnitPrice,
		})
		maxID = max(maxID, row.ID)
	}
	res, err := a.HandleSale(ctx, Batch{BusinessID: businessID, Table: entity.PosTableSaleItems, Lines: lines})
	if err != nil {
		return nil, err
	}
	if err := a.advance(ctx, businessID, entity.PosTableSaleItems, maxID, len(rows)); err != nil {
		return nil, err
	}
	a.log.Info().Int64("business_id", businessID).Int64("from_id", last).Int64("to_id", maxID).Msg("ventas POS sincronizadas")
	return res, nil
}

// PollStockTransactions lee entradas y pérdidas del POS: IN es entrada; OUT y ADJUST son pérdida.
// Otros tipos se omiten.
func (a *Adapter) PollStockTransactions(ctx context.Context, businessID int64) (*SyncResult, error) {
	if a.source == nil {
		return nil, ErrNoSource
	}
	table := entity.PosTableStockTransactions
	last, err := a.checkpoint(ctx, businessID, table)
	if err != nil {
		return nil, err
	}
	rows, err := a.source.FetchStockTransactions(ctx, businessID, last, a.cfg.BatchSize)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &SyncResult{}, nil
	}
	var ins, losses []entity.PosLine
	res := &SyncResult{}
	maxID := last
	for _, row := range rows {
		maxID = max(maxID, row.ID)
		line := entity.PosLine{
			ExternalID:  strconv.FormatInt(row.ID, 10),
			ProductCode: row.MenuCode,
			Quantity:    row.Quantity.Abs(),
			UnitCost:    row.UnitCost,
			Reason:      row.Reason,
		}
		switch strings.ToUpper(strings.TrimSpace(row.Type)) {
		case StockTypeIn:
			ins = append(ins, line)
		case StockTypeOut, StockTypeAdjust:
			losses = append(losses, line)
		default:
			res.Skipped++
			a.log.Warn().Int64("external_id", row.ID).Str("type", row.Type).Msg("tipo de movimiento POS desconocido")
		}
	}
	if len(ins) > 0 {
		r, err := a.HandleStockIn(ctx, Batch{BusinessID: businessID, Table: table, Lines: ins})
		if err != nil {
			return nil, err
		}
		res.add(*r)
	}
	if len(losses) > 0 {
		r, err := a.HandleLoss(ctx, Batch{BusinessID: businessID, Table: table, Lines: losses})
		if err != nil {
			return nil, err
		}
		res.add(*r)
	}
	if err := a.advance(ctx, businessID, table, maxID, len(rows)); err != nil {
		return nil, err
	}
	return res, nil
}

// SyncProducts crea los productos nuevos del maestro del POS y actualiza precios cambiados.
func (a *Adapter) SyncProducts(ctx context.Context, businessID int64) (*ProductSyncResult, error) {
	if a.source == nil {
		return nil, ErrNoSource
	}
	rows, err := a.source.FetchProducts(ctx, businessID)
	if err != nil {
		return nil, err
	}
	res := &ProductSyncResult{Total: len(rows)}
	for _, row := range rows {
		code := strings.TrimSpace(row.Code)
		name := strings.TrimSpace(row.Name)
		if code == "" {
			res.Skipped++
			continue
		}
		if name == "" {
			name = code
		}
		p, err := a.repos.Products.GetByCode(ctx, businessID, code)
		if err != nil {
			return nil, err
		}
		if p == nil {
			np := &entity.Product{
				BusinessID:    businessID,
				Code:          code,
				Name:          name,
				Unit:          "ea",
				PurchasePrice: row.CostPrice,
				SellPrice:     row.SellPrice,
				Active:        true,
			}
			if err := a.repos.Products.Create(ctx, np); err != nil {
				a.log.Warn().Err(err).Str("code", code).Msg("no se pudo crear el producto del POS")
				res.Skipped++
				continue
			}
			res.Created++
			continue
		}
		if p.SellPrice.Equal(row.SellPrice) && p.PurchasePrice.Equal(row.CostPrice) {
			res.Skipped++
			continue
		}
		if err := a.repos.Products.UpdatePrices(ctx, p.ID, row.CostPrice, row.SellPrice); err != nil {
			return nil, err
		}
		res.Updated++
	}
	a.log.Info().Int64("business_id", businessID).Int("created", res.Created).Int("updated", res.Updated).Msg("maestro de productos POS sincronizado")
	return res, nil
}

// SyncBusiness ejecuta maestro, ventas y movimientos de un negocio, en ese orden.
func (a *Adapter) SyncBusiness(ctx context.Context, businessID int64) (*FullSyncResult, error) {
	out := &FullSyncResult{BusinessID: businessID}
	products, err := a.SyncProducts(ctx, businessID)
	if err != nil {
		return nil, err
	}
	out.Products = *products
	sales, err := a.PollSales(ctx, businessID)
	if err != nil {
		return nil, err
	}
	out.Sales = *sales
	stock, err := a.PollStockTransactions(ctx, businessID)
	if err != nil {
		return nil, err
	}
	out.StockTransactions = *stock
	return out, nil
}

// SyncAll sincroniza todos los negocios con POS habilitado, varios a la vez. Un negocio que falla
// no detiene a los demás; se devuelve el primer error.
func (a *Adapter) SyncAll(ctx context.Context) ([]*FullSyncResult, error) {
	businesses, err := a.repos.Businesses.ListPosEnabled(ctx)
	if err != nil {
		return nil, err
	}
	results := make([]*FullSyncResult, len(businesses))
	errs := make([]error, len(businesses))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Concurrency)
	for i, b := range businesses {
		g.Go(func() error {
			res, err := a.SyncBusiness(gctx, b.ID)
			if err != nil {
				a.log.Error().Err(err).Int64("business_id", b.ID).Msg("falló la sincronización POS del negocio")
				errs[i] = err
				return nil
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var out []*FullSyncResult
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}
	for _, err := range errs {
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

// Status devuelve los checkpoints y los errores de las últimas 24 horas.
func (a *Adapter) Status(ctx context.Context, businessID int64) (*Status, error) {
	cps, err := a.repos.PosSync.ListCheckpoints(ctx, businessID)
	if err != nil {
		return nil, err
	}
	n, err := a.repos.PosSync.CountErrorsSince(ctx, businessID, a.now().Add(-24*time.Hour))
	if err != nil {
		return nil, err
	}
	return &Status{Checkpoints: cps, RecentErrors: n}, nil
}

// Details lista el registro de líneas sincronizadas.
func (a *Adapter) Details(ctx context.Context, businessID int64, status string, limit, offset int) ([]*entity.PosSyncDetail, error) {
	return a.repos.PosSync.ListDetails(ctx, businessID, status, limit, offset)
}

func (a *Adapter) checkpoint(ctx context.Context, businessID int64, table string) (int64, error) {
	cp, err := a.repos.PosSync.GetCheckpoint(ctx, businessID, table)
	if err != nil || cp == nil {
		return 0, err
	}
	return cp.LastSyncedID, nil
}

func (a *Adapter) advance(ctx context.Context, businessID int64, table string, lastID int64, count int) error {
	return a.tx.Run(ctx, func(r repository.Set) error {
		return r.PosSync.SaveCheckpoint(ctx, &entity.PosSyncCheckpoint{
			BusinessID:    businessID,
			ExternalTable: table,
			LastSyncedID:  lastID,
			RecordCount:   int64(count),
			SyncedAt:      a.now(),
		})
	})
}
