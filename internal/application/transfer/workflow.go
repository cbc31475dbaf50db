// Package transfer implementa el flujo de traslados entre tiendas:
// pending → shipped → received, o pending → cancelled. El despacho descuenta el origen y la
// recepción suma al destino; mientras está en tránsito la mercancía no cuenta en ninguna tienda.
package transfer

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/stockledger-api/internal/application/guard"
	"github.com/jhoicas/stockledger-api/internal/application/ledger"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ItemInput línea solicitada: lote origen y cantidad.
type ItemInput struct {
	LotID    int64
	Quantity decimal.Decimal
}

// CreateInput datos para solicitar un traslado.
type CreateInput struct {
	Actor       entity.Actor
	FromStoreID int64
	ToStoreID   int64
	Items       []ItemInput
	Memo        string
}

// ReceivedItem cantidad realmente recibida de una línea.
type ReceivedItem struct {
	ItemID   int64
	Quantity decimal.Decimal
}

// Workflow orquesta los traslados usando el motor del libro para mover cantidades.
type Workflow struct {
	tx     repository.TxRunner
	repos  repository.Set
	ledger *ledger.Engine
	log    zerolog.Logger
	now    func() time.Time
}

// NewWorkflow construye el flujo de traslados.
func NewWorkflow(tx repository.TxRunner, repos repository.Set, engine *ledger.Engine, log zerolog.Logger) *Workflow {
	return &Workflow{
		tx:     tx,
		repos:  repos,
		ledger: engine,
		log:    log.With().Str("component", "transfer").Logger(),
		now:    time.Now,
	}
}

// Create registra el traslado en pending copiando producto, vencimiento y ubicación de cada lote.
// No modifica cantidades.
func (w *Workflow) Create(ctx context.Context, in CreateInput) (*entity.Transfer, error) {
	if in.Actor.BusinessID == 0 || in.FromStoreID == 0 || in.ToStoreID == 0 || len(in.Items) == 0 {
		return nil, domain.ErrInvalidInput
	}
	if in.FromStoreID == in.ToStoreID {
		return nil, fmt.Errorf("origen y destino son la misma tienda: %w", domain.ErrInvalidInput)
	}
	for _, it := range in.Items {
		if !it.Quantity.IsPositive() {
			return nil, domain.ErrInvalidInput
		}
	}

	var out *entity.Transfer
	err := w.tx.Run(ctx, func(r repository.Set) error {
		for _, storeID := range []int64{in.FromStoreID, in.ToStoreID} {
			if _, err := guard.Store(ctx, r, in.Actor, storeID); err != nil {
				return err
			}
		}
		t := &entity.Transfer{
			BusinessID:  in.Actor.BusinessID,
			FromStoreID: in.FromStoreID,
			ToStoreID:   in.ToStoreID,
			Status:      entity.TransferPending,
			RequestedBy: in.Actor.UserRef(),
			Memo:        in.Memo,
		}
		for _, it := range in.Items {
			lot, err := r.Lots.GetByID(ctx, it.LotID)
			if err != nil {
				return err
			}
			if lot == nil || lot.StoreID != in.FromStoreID {
				return fmt.Errorf("lote %d en tienda %d: %w", it.LotID, in.FromStoreID, domain.ErrNotFound)
			}
			lotID := lot.ID
			t.Items = append(t.Items, entity.TransferItem{
				ProductID:  lot.ProductID,
				LotID:      &lotID,
				Quantity:   it.Quantity,
				ExpiryDate: lot.ExpiryDate,
				Location:   lot.Location,
			})
		}
		if err := r.Transfers.Create(ctx, t); err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Ship despacha un traslado pending: descuenta de cada lote origen la cantidad exacta y guarda en
// cada línea lo que realmente salió (con política permisiva, lo que el lote tenía).
// Devuelve false si el traslado no está en pending.
func (w *Workflow) Ship(ctx context.Context, actor entity.Actor, transferID int64) (bool, error) {
	ok := false
	err := w.tx.Run(ctx, func(r repository.Set) error {
		t, err := w.lock(ctx, r, actor, transferID)
		if err != nil {
			return err
		}
		if !t.CanShip() {
			return nil
		}
		ref := &entity.Reference{Type: entity.ReferenceTransfer, ID: t.ID}
		for _, it := range t.Items {
			shipped := decimal.Zero
			if it.LotID != nil {
				res, err := w.ledger.TransferOutTx(ctx, r, ledger.TransferOutInput{
					Actor:     actor,
					LotID:     *it.LotID,
					Quantity:  it.Quantity,
					Reason:    reason(t.ID),
					Reference: ref,
				})
				if err != nil {
					return err
				}
				shipped = it.Quantity.Sub(res.Shortfall)
			}
			if shipped.LessThan(it.Quantity) {
				w.log.Warn().Int64("transfer_id", t.ID).Int64("item_id", it.ID).
					Str("requested", it.Quantity.String()).Str("shipped", shipped.String()).
					Msg("despacho parcial: el lote origen no alcanzaba")
			}
			if err := r.Transfers.SetShippedQuantity(ctx, it.ID, shipped); err != nil {
				return err
			}
		}
		now := w.now()
		t.Status = entity.TransferShipped
		t.ShippedBy = actor.UserRef()
		t.ShippedAt = &now
		if err := r.Transfers.UpdateStatus(ctx, t); err != nil {
			return err
		}
		ok = true
		return nil
	})
	if err != nil {
		return false, err
	}
	w.logTransition("ship", transferID, ok)
	return ok, nil
}

// Receive recibe un traslado shipped. Cada línea usa la cantidad recibida indicada o, si no hay,
// la despachada; nunca más de lo despachado. Solo las cantidades positivas suman al lote destino.
// La cantidad resuelta queda guardada en la línea. Devuelve false si el traslado no está en shipped.
func (w *Workflow) Receive(ctx context.Context, actor entity.Actor, transferID int64, received []ReceivedItem) (bool, error) {
	overrides := make(map[int64]decimal.Decimal, len(received))
	for _, rc := range received {
		if rc.Quantity.IsNegative() {
			return false, domain.ErrInvalidInput
		}
		overrides[rc.ItemID] = rc.Quantity
	}

	ok := false
	err := w.tx.Run(ctx, func(r repository.Set) error {
		t, err := w.lock(ctx, r, actor, transferID)
		if err != nil {
			return err
		}
		if !t.CanReceive() {
			return nil
		}
		known := make(map[int64]bool, len(t.Items))
		for _, it := range t.Items {
			known[it.ID] = true
		}
		for id := range overrides {
			if !known[id] {
				return fmt.Errorf("línea %d no pertenece al traslado %d: %w", id, t.ID, domain.ErrInvalidInput)
			}
		}

		ref := &entity.Reference{Type: entity.ReferenceTransfer, ID: t.ID}
		for _, it := range t.Items {
			var override *decimal.Decimal
			if q, found := overrides[it.ID]; found {
				override = &q
			}
			qty, err := it.ResolveReceived(override)
			if err != nil {
				return err
			}
			if err := r.Transfers.SetReceivedQuantity(ctx, it.ID, qty); err != nil {
				return err
			}
			if !qty.IsPositive() {
				continue
			}
			if _, err := w.ledger.TransferInTx(ctx, r, ledger.TransferInInput{
				Actor:      actor,
				ProductID:  it.ProductID,
				StoreID:    t.ToStoreID,
				Location:   it.Location,
				ExpiryDate: it.ExpiryDate,
				Quantity:   qty,
				Reason:     reason(t.ID),
				Reference:  ref,
			}); err != nil {
				return err
			}
		}
		now := w.now()
		t.Status = entity.TransferReceived
		t.ReceivedBy = actor.UserRef()
		t.ReceivedAt = &now
		if err := r.Transfers.UpdateStatus(ctx, t); err != nil {
			return err
		}
		ok = true
		return nil
	})
	if err != nil {
		return false, err
	}
	w.logTransition("receive", transferID, ok)
	return ok, nil
}

// Cancel cancela un traslado pending. No hay efecto en inventario.
func (w *Workflow) Cancel(ctx context.Context, actor entity.Actor, transferID int64) (bool, error) {
	ok := false
	err := w.tx.Run(ctx, func(r repository.Set) error {
		t, err := w.lock(ctx, r, actor, transferID)
		if err != nil {
			return err
		}
		if !t.CanCancel() {
			return nil
		}
		t.Status = entity.TransferCancelled
		if err := r.Transfers.UpdateStatus(ctx, t); err != nil {
			return err
		}
		ok = true
		return nil
	})
	if err != nil {
		return false, err
	}
	w.logTransition("cancel", transferID, ok)
	return ok, nil
}

// Get devuelve el traslado con sus líneas.
func (w *Workflow) Get(ctx context.Context, actor entity.Actor, transferID int64) (*entity.Transfer, error) {
	t, err := w.repos.Transfers.GetByID(ctx, transferID)
	if err != nil {
		return nil, err
	}
	if t == nil || t.BusinessID != actor.BusinessID {
		return nil, domain.ErrNotFound
	}
	return t, nil
}

// List devuelve los traslados del negocio; StoreID filtra por origen o destino.
func (w *Workflow) List(ctx context.Context, f repository.TransferFilter) ([]*entity.Transfer, error) {
	if f.BusinessID == 0 {
		return nil, domain.ErrInvalidInput
	}
	return w.repos.Transfers.List(ctx, f)
}

// PendingCounts cuenta los traslados abiertos de una tienda: salientes (pending o shipped) y
// entrantes (shipped hacia la tienda).
func (w *Workflow) PendingCounts(ctx context.Context, actor entity.Actor, storeID int64) (entity.TransferCounts, error) {
	if _, err := guard.Store(ctx, w.repos, actor, storeID); err != nil {
		return entity.TransferCounts{}, err
	}
	return w.repos.Transfers.CountOpen(ctx, storeID)
}

func (w *Workflow) lock(ctx context.Context, r repository.Set, actor entity.Actor, id int64) (*entity.Transfer, error) {
	t, err := r.Transfers.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil || t.BusinessID != actor.BusinessID {
		return nil, fmt.Errorf("traslado %d: %w", id, domain.ErrNotFound)
	}
	return t, nil
}

func (w *Workflow) logTransition(action string, id int64, ok bool) {
	if ok {
		w.log.Info().Str("action", action).Int64("transfer_id", id).Msg("traslado actualizado")
		return
	}
	w.log.Warn().Str("action", action).Int64("transfer_id", id).Msg("transición no permitida en el estado actual")
}

func reason(id int64) string {
	return fmt.Sprintf("Traslado entre tiendas #%d", id)
}
