// Package possync traduce eventos y tablas de un POS externo a operaciones del libro de
// inventario. Cada línea se aplica en su propia transacción junto con su registro de
// sincronización, de modo que una línea externa se aplica una sola vez.
package possync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/stockledger-api/internal/application/ledger"
	"github.com/jhoicas/stockledger-api/internal/application/production"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
	"github.com/rs/zerolog"
)

// ErrNoSource indica que no hay base de datos del POS configurada para el sondeo.
var ErrNoSource = fmt.Errorf("origen POS no configurado: %w", domain.ErrInvalidState)

// LineError es el error de una línea concreta.
type LineError struct {
	ExternalID  string `json:"external_id"`
	ProductCode string `json:"product_code"`
	Message     string `json:"message"`
}

// SyncResult resume un lote de líneas.
type SyncResult struct {
	Processed int         `json:"processed"`
	Skipped   int         `json:"skipped"`
	Errors    []LineError `json:"errors"`
}

func (r *SyncResult) add(o SyncResult) {
	r.Processed += o.Processed
	r.Skipped += o.Skipped
	r.Errors = append(r.Errors, o.Errors...)
}

// Config parámetros del adaptador.
type Config struct {
	BatchSize   int
	Concurrency int
}

// Adapter aplica eventos POS sobre el libro de inventario.
type Adapter struct {
	tx      repository.TxRunner
	repos   repository.Set
	ledger  *ledger.Engine
	recipes *production.RecipeUseCase
	source  Source
	cache   ProductCache
	cfg     Config
	log     zerolog.Logger
	now     func() time.Time
}

// NewAdapter construye el adaptador. source puede ser nil si solo se reciben webhooks.
func NewAdapter(tx repository.TxRunner, repos repository.Set, engine *ledger.Engine, recipes *production.RecipeUseCase,
	source Source, cache ProductCache, cfg Config, log zerolog.Logger) *Adapter {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &Adapter{
		tx:      tx,
		repos:   repos,
		ledger:  engine,
		recipes: recipes,
		source:  source,
		cache:   cache,
		cfg:     cfg,
		log:     log.With().Str("component", "pos_sync").Logger(),
		now:     time.Now,
	}
}

// target es el negocio y la tienda sobre los que se aplica un lote.
type target struct {
	business *entity.Business
	storeID  int64
	actor    entity.Actor
}

// resolve carga el negocio y elige la tienda: la indicada, la predeterminada del negocio o la
// primera tienda activa.
func (a *Adapter) resolve(ctx context.Context, businessID, storeID int64) (target, error) {
	b, err := a.repos.Businesses.GetByID(ctx, businessID)
	if err != nil {
		return target{}, err
	}
	if b == nil {
		return target{}, fmt.Errorf("negocio %d: %w", businessID, domain.ErrNotFound)
	}
	t := target{business: b, actor: entity.Actor{BusinessID: b.ID}}
	if storeID == 0 && b.DefaultStoreID != nil {
		storeID = *b.DefaultStoreID
	}
	if storeID != 0 {
		s, err := a.repos.Stores.GetByID(ctx, storeID)
		if err != nil {
			return target{}, err
		}
		if s == nil || s.BusinessID != b.ID {
			return target{}, fmt.Errorf("tienda %d: %w", storeID, domain.ErrNotFound)
		}
		t.storeID = s.ID
		return t, nil
	}
	stores, err := a.repos.Stores.ListByBusiness(ctx, b.ID)
	if err != nil {
		return target{}, err
	}
	for i := len(stores) - 1; i >= 0; i-- {
		if stores[i].Active {
			t.storeID = stores[i].ID
			break
		}
	}
	if t.storeID == 0 {
		return target{}, fmt.Errorf("negocio %d sin tienda activa: %w", b.ID, domain.ErrNotFound)
	}
	return t, nil
}

// productByCode resuelve el código POS con la caché y, si falla, con el catálogo.
func (a *Adapter) productByCode(ctx context.Context, businessID int64, code string) (*entity.Product, error) {
	if a.cache != nil {
		id, ok, err := a.cache.GetProductID(ctx, businessID, code)
		if err != nil {
			a.log.Warn().Err(err).Str("code", code).Msg("caché de productos no disponible")
		} else if ok {
			p, err := a.repos.Products.GetByID(ctx, id)
			if err != nil {
				return nil, err
			}
			if p != nil && p.BusinessID == businessID && p.Code == code {
				return p, nil
			}
		}
	}
	p, err := a.repos.Products.GetByCode(ctx, businessID, code)
	if err != nil || p == nil {
		return nil, err
	}
	if a.cache != nil {
		if err := a.cache.SetProductID(ctx, businessID, code, p.ID); err != nil {
			a.log.Warn().Err(err).Str("code", code).Msg("no se pudo guardar en caché")
		}
	}
	return p, nil
}

// applyFunc aplica la línea dentro de la transacción. Devuelve false si la línea debe
// registrarse como omitida.
type applyFunc func(r repository.Set, p *entity.Product, ref *entity.Reference) (bool, error)

var errDuplicate = errors.New("línea ya sincronizada")

// process valida, resuelve y aplica una línea, registrando su resultado.
func (a *Adapter) process(ctx context.Context, t target, table, syncType string, line entity.PosLine, res *SyncResult, apply applyFunc) {
	code := strings.TrimSpace(line.ProductCode)
	detail := &entity.PosSyncDetail{
		BusinessID:       t.business.ID,
		ExternalTable:    table,
		ExternalRecordID: line.ExternalID,
		SyncType:         syncType,
		ProductCode:      code,
		Quantity:         line.Quantity,
	}
	if code == "" || !line.Quantity.IsPositive() || line.ExternalID == "" {
		res.Skipped++
		a.recordSkipped(ctx, detail, "línea sin código, id externo o cantidad")
		return
	}
	product, err := a.productByCode(ctx, t.business.ID, code)
	if err != nil {
		a.fail(ctx, res, detail, err)
		return
	}
	if product == nil {
		res.Skipped++
		a.recordSkipped(ctx, detail, "producto no encontrado")
		return
	}

	applied := false
	err = a.tx.Run(ctx, func(r repository.Set) error {
		d := *detail
		d.Status = entity.PosLineSuccess
		if err := r.PosSync.InsertDetail(ctx, &d); err != nil {
			if errors.Is(err, domain.ErrDuplicate) {
				return errDuplicate
			}
			return err
		}
		ok, err := apply(r, product, &entity.Reference{Type: entity.ReferencePosSync, ID: d.ID})
		if err != nil {
			return err
		}
		if !ok {
			return errSkipped
		}
		applied = true
		return nil
	})
	switch {
	case err == nil && applied:
		res.Processed++
	case errors.Is(err, errDuplicate):
		res.Skipped++
		a.log.Debug().Str("table", table).Str("external_id", line.ExternalID).Msg("línea ya sincronizada")
	case errors.Is(err, errSkipped):
		res.Skipped++
		a.recordSkipped(ctx, detail, "sin receta para el producto de menú")
	default:
		a.fail(ctx, res, detail, err)
	}
}

var errSkipped = errors.New("línea omitida")

// recordSkipped deja constancia de una línea omitida para que un reintento no la reaplique.
func (a *Adapter) recordSkipped(ctx context.Context, d *entity.PosSyncDetail, why string) {
	a.log.Warn().Str("table", d.ExternalTable).Str("external_id", d.ExternalRecordID).Str("code", d.ProductCode).Msg("línea POS omitida: " + why)
	if d.ExternalRecordID == "" {
		return
	}
	c := *d
	c.Status = entity.PosLineSkipped
	c.ErrorMessage = why
	if err := a.repos.PosSync.InsertDetail(ctx, &c); err != nil && !errors.Is(err, domain.ErrDuplicate) {
		a.log.Error().Err(err).Msg("no se pudo registrar la línea omitida")
	}
}

// fail registra la línea con error en una transacción aparte; la línea puede reintentarse.
func (a *Adapter) fail(ctx context.Context, res *SyncResult, d *entity.PosSyncDetail, cause error) {
	res.Errors = append(res.Errors, LineError{ExternalID: d.ExternalRecordID, ProductCode: d.ProductCode, Message: cause.Error()})
	a.log.Error().Err(cause).Str("table", d.ExternalTable).Str("external_id", d.ExternalRecordID).Msg("error al aplicar línea POS")
	c := *d
	c.Status = entity.PosLineError
	c.ErrorMessage = cause.Error()
	if err := a.repos.PosSync.InsertDetail(ctx, &c); err != nil {
		a.log.Error().Err(err).Msg("no se pudo registrar el error de la línea")
	}
}
