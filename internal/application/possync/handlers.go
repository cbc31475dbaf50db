package possync

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jhoicas/stockledger-api/internal/application/ledger"
	"github.com/jhoicas/stockledger-api/internal/application/production"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

// Batch es un lote de líneas de un mismo tipo de evento.
type Batch struct {
	BusinessID int64
	StoreID    int64 // opcional: sin tienda se usa la predeterminada del negocio
	Table      string
	Lines      []entity.PosLine
}

// Receipt es un recibo completo enviado por el POS.
type Receipt struct {
	BusinessID int64
	StoreID    int64
	ReceiptNo  int64
	PosNo      int
	Lines      []entity.PosLine
}

// HandleSale aplica ventas: en restaurantes descuenta los ingredientes de la receta del producto de
// menú (sin receta la línea se omite); en otros negocios descuenta el producto por FEFO.
func (a *Adapter) HandleSale(ctx context.Context, b Batch) (*SyncResult, error) {
	t, err := a.resolve(ctx, b.BusinessID, b.StoreID)
	if err != nil {
		return nil, err
	}
	res := &SyncResult{}
	for _, line := range b.Lines {
		a.process(ctx, t, b.Table, entity.PosSyncSale, line, res, a.saleFunc(ctx, t, line))
	}
	a.logBatch(entity.PosSyncSale, b.Table, t, res)
	return res, nil
}

func (a *Adapter) saleFunc(ctx context.Context, t target, line entity.PosLine) applyFunc {
	if t.business.IsRestaurant() {
		return func(r repository.Set, p *entity.Product, ref *entity.Reference) (bool, error) {
			rc, err := r.Recipes.FindForMenu(ctx, t.business.ID, p.ID, p.Name)
			if err != nil {
				return false, err
			}
			if rc == nil {
				return false, nil
			}
			_, err = a.recipes.DeductTx(ctx, r, rc, production.DeductInput{
				Actor:     t.actor,
				StoreID:   t.storeID,
				Quantity:  line.Quantity,
				Reason:    fmt.Sprintf("Venta POS receta %s (código %s)", rc.Name, p.Code),
				Reference: ref,
			})
			return err == nil, err
		}
	}
	return func(r repository.Set, p *entity.Product, ref *entity.Reference) (bool, error) {
		_, err := a.ledger.StockOutTx(ctx, r, ledger.StockOutInput{
			Actor:     t.actor,
			ProductID: p.ID,
			StoreID:   t.storeID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitCost,
			Reason:    fmt.Sprintf("Venta POS (código %s)", p.Code),
			Reference: ref,
		})
		return err == nil, err
	}
}

// HandleStockIn aplica entradas a la bodega con el costo informado por el POS.
func (a *Adapter) HandleStockIn(ctx context.Context, b Batch) (*SyncResult, error) {
	t, err := a.resolve(ctx, b.BusinessID, b.StoreID)
	if err != nil {
		return nil, err
	}
	res := &SyncResult{}
	for _, line := range b.Lines {
		a.process(ctx, t, b.Table, entity.PosSyncStockIn, line, res, a.stockInFunc(ctx, t, line))
	}
	a.logBatch(entity.PosSyncStockIn, b.Table, t, res)
	return res, nil
}

func (a *Adapter) stockInFunc(ctx context.Context, t target, line entity.PosLine) applyFunc {
	return func(r repository.Set, p *entity.Product, ref *entity.Reference) (bool, error) {
		_, err := a.ledger.StockInTx(ctx, r, ledger.StockInInput{
			Actor:     t.actor,
			ProductID: p.ID,
			StoreID:   t.storeID,
			Location:  entity.DefaultLocation,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitCost,
			Reason:    fmt.Sprintf("Entrada POS (código %s)", p.Code),
			Reference: ref,
		})
		return err == nil, err
	}
}

// HandleLoss aplica pérdidas y bajas del POS como salidas FEFO.
func (a *Adapter) HandleLoss(ctx context.Context, b Batch) (*SyncResult, error) {
	t, err := a.resolve(ctx, b.BusinessID, b.StoreID)
	if err != nil {
		return nil, err
	}
	res := &SyncResult{}
	for _, line := range b.Lines {
		a.process(ctx, t, b.Table, entity.PosSyncLoss, line, res, a.lossFunc(ctx, t, line))
	}
	a.logBatch(entity.PosSyncLoss, b.Table, t, res)
	return res, nil
}

func (a *Adapter) lossFunc(ctx context.Context, t target, line entity.PosLine) applyFunc {
	why := line.Reason
	if why == "" {
		why = "pérdida"
	}
	return func(r repository.Set, p *entity.Product, ref *entity.Reference) (bool, error) {
		_, err := a.ledger.StockOutTx(ctx, r, ledger.StockOutInput{
			Actor:     t.actor,
			ProductID: p.ID,
			StoreID:   t.storeID,
			Quantity:  line.Quantity,
			Reason:    fmt.Sprintf("Pérdida POS: %s (código %s)", why, p.Code),
			Reference: ref,
		})
		return err == nil, err
	}
}

// HandleReceipt aplica un recibo del webhook. Cada línea se identifica como "recibo#índice" en la
// tabla receipts, así reenviar el mismo recibo no vuelve a descontar.
func (a *Adapter) HandleReceipt(ctx context.Context, rc Receipt) (*SyncResult, error) {
	if rc.ReceiptNo <= 0 {
		return nil, fmt.Errorf("número de recibo requerido: %w", domain.ErrInvalidInput)
	}
	lines := make([]entity.PosLine, len(rc.Lines))
	for i, l := range rc.Lines {
		l.ExternalID = strconv.FormatInt(rc.ReceiptNo, 10) + "#" + strconv.Itoa(i+1)
		lines[i] = l
	}
	return a.HandleSale(ctx, Batch{
		BusinessID: rc.BusinessID,
		StoreID:    rc.StoreID,
		Table:      entity.PosTableReceipts,
		Lines:      lines,
	})
}

func (a *Adapter) logBatch(syncType, table string, t target, res *SyncResult) {
	a.log.Info().
		Str("sync_type", syncType).
		Str("table", table).
		Int64("business_id", t.business.ID).
		Int64("store_id", t.storeID).
		Int("processed", res.Processed).
		Int("skipped", res.Skipped).
		Int("errors", len(res.Errors)).
		Msg("lote POS aplicado")
}
