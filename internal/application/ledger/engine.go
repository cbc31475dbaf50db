// Package ledger implementa el motor del libro de inventario: entradas, salidas FEFO,
// salidas y movimientos por lote, ajustes, bajas y reubicaciones. Cada operación pública corre
// en una sola transacción con bloqueo de las filas de lote tocadas; las variantes Tx permiten
// componerlas dentro de la transacción de un documento.
package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/inventory"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// StockPolicy decide qué hacer cuando el stock no alcanza.
type StockPolicy string

const (
	// PolicyPermissive descuenta lo disponible, deja los lotes en cero y reporta el faltante.
	PolicyPermissive StockPolicy = "permissive"
	// PolicyStrict rechaza la operación con domain.ErrInsufficientStock y revierte la transacción.
	PolicyStrict StockPolicy = "strict"
)

// ParseStockPolicy interpreta el valor de configuración; vacío equivale a permissive.
func ParseStockPolicy(s string) (StockPolicy, error) {
	switch StockPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyPermissive:
		return PolicyPermissive, nil
	case PolicyStrict:
		return PolicyStrict, nil
	}
	return "", fmt.Errorf("política de stock desconocida %q: %w", s, domain.ErrInvalidInput)
}

// Result describe el efecto de una operación del libro.
type Result struct {
	OperationID  string
	Transactions []*entity.Transaction
	Consumed     []inventory.Allocation // lotes descontados y su saldo
	Skipped      []int64                // lotes omitidos en operaciones por lote
	Shortfall    decimal.Decimal        // cantidad que no pudo descontarse
}

// HasShortfall indica si la operación no pudo satisfacer toda la cantidad.
func (r *Result) HasShortfall() bool {
	return r != nil && r.Shortfall.IsPositive()
}

func newResult() *Result {
	return &Result{OperationID: uuid.New().String(), Shortfall: decimal.Zero}
}

// Engine es el motor del libro de inventario.
type Engine struct {
	tx     repository.TxRunner
	repos  repository.Set
	policy StockPolicy
	log    zerolog.Logger
	now    func() time.Time
}

// NewEngine construye el motor. repos se usa para lecturas fuera de transacción.
func NewEngine(tx repository.TxRunner, repos repository.Set, policy StockPolicy, log zerolog.Logger) *Engine {
	if policy == "" {
		policy = PolicyPermissive
	}
	return &Engine{
		tx:     tx,
		repos:  repos,
		policy: policy,
		log:    log.With().Str("component", "ledger").Logger(),
		now:    time.Now,
	}
}

// Policy devuelve la política de stock insuficiente configurada.
func (e *Engine) Policy() StockPolicy { return e.policy }

// run ejecuta op en una transacción nueva y devuelve su resultado.
func (e *Engine) run(ctx context.Context, op func(r repository.Set) (*Result, error)) (*Result, error) {
	var res *Result
	err := e.tx.Run(ctx, func(r repository.Set) error {
		var err error
		res, err = op(r)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// checkProductStore valida que producto y tienda existan y pertenezcan al negocio del actor.
func (e *Engine) checkProductStore(ctx context.Context, r repository.Set, actor entity.Actor, productID, storeID int64) (*entity.Product, error) {
	if actor.BusinessID == 0 || productID == 0 || storeID == 0 {
		return nil, domain.ErrInvalidInput
	}
	p, err := r.Products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("producto %d: %w", productID, domain.ErrNotFound)
	}
	if p.BusinessID != actor.BusinessID {
		return nil, domain.ErrForbidden
	}
	if err := e.checkStore(ctx, r, actor, storeID); err != nil {
		return nil, err
	}
	return p, nil
}

func (e *Engine) checkStore(ctx context.Context, r repository.Set, actor entity.Actor, storeID int64) error {
	if actor.BusinessID == 0 || storeID == 0 {
		return domain.ErrInvalidInput
	}
	s, err := r.Stores.GetByID(ctx, storeID)
	if err != nil {
		return err
	}
	if s == nil {
		return fmt.Errorf("tienda %d: %w", storeID, domain.ErrNotFound)
	}
	if s.BusinessID != actor.BusinessID {
		return domain.ErrForbidden
	}
	return nil
}

// onShortfall aplica la política de stock insuficiente.
func (e *Engine) onShortfall(op string, productID, storeID int64, location string, short decimal.Decimal) error {
	if !short.IsPositive() {
		return nil
	}
	if e.policy == PolicyStrict {
		return fmt.Errorf("%w: faltan %s (producto %d, tienda %d, ubicación %s)",
			domain.ErrInsufficientStock, short.String(), productID, storeID, location)
	}
	e.log.Warn().
		Str("operation", op).
		Int64("product_id", productID).
		Int64("store_id", storeID).
		Str("location", location).
		Str("shortfall", short.String()).
		Msg("stock insuficiente: se descuenta lo disponible")
	return nil
}

// deductFEFO bloquea los lotes de la ubicación, reparte qty en orden FEFO y persiste los saldos.
func (e *Engine) deductFEFO(ctx context.Context, r repository.Set, productID, storeID int64, location string, qty decimal.Decimal) ([]inventory.Allocation, decimal.Decimal, error) {
	lots, err := r.Lots.ListForUpdate(ctx, productID, storeID, location)
	if err != nil {
		return nil, decimal.Zero, err
	}
	allocs, short := inventory.PlanFEFO(lots, qty)
	for _, a := range allocs {
		if err := r.Lots.SetQuantity(ctx, a.LotID, a.Remaining); err != nil {
			return nil, decimal.Zero, err
		}
	}
	return allocs, short, nil
}

// record completa y guarda una transacción del libro, y la agrega al resultado.
func (e *Engine) record(ctx context.Context, r repository.Set, res *Result, actor entity.Actor, t *entity.Transaction, ref *entity.Reference) error {
	t.OperationID = res.OperationID
	t.BusinessID = actor.BusinessID
	t.UserID = actor.UserRef()
	t.TotalAmount = entity.TotalAmount(t.Quantity, t.UnitPrice)
	t.SetReference(ref)
	if t.CreatedAt.IsZero() {
		t.CreatedAt = e.now()
	}
	if err := r.Transactions.Create(ctx, t); err != nil {
		return fmt.Errorf("registrar transacción: %w", err)
	}
	res.Transactions = append(res.Transactions, t)
	return nil
}

func location(loc string) string {
	if loc == "" {
		return entity.DefaultLocation
	}
	return loc
}

func withShortfall(reason string, short decimal.Decimal) string {
	if !short.IsPositive() {
		return reason
	}
	note := "faltante " + short.String()
	if reason == "" {
		return note
	}
	return reason + " (" + note + ")"
}
