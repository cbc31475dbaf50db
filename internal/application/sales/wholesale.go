package sales

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/stockledger-api/internal/application/guard"
	"github.com/jhoicas/stockledger-api/internal/application/ledger"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/pricing"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// OrderItemInput línea de pedido. Con UnitPrice en cero se usa el precio de venta del producto.
type OrderItemInput struct {
	ProductID int64
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	Location  string
}

// CreateOrderInput datos de un nuevo pedido mayorista.
type CreateOrderInput struct {
	Actor     entity.Actor
	StoreID   int64
	ClientID  int64
	OrderDate time.Time
	Memo      string
	Items     []OrderItemInput
}

// PaymentInput abono a un pedido.
type PaymentInput struct {
	Actor   entity.Actor
	OrderID int64
	Amount  decimal.Decimal
	Method  string
	Memo    string
}

// WholesaleUseCase casos de uso de clientes y pedidos mayoristas.
type WholesaleUseCase struct {
	tx     repository.TxRunner
	repos  repository.Set
	ledger *ledger.Engine
	log    zerolog.Logger
	now    func() time.Time
}

// NewWholesaleUseCase construye el caso de uso.
func NewWholesaleUseCase(tx repository.TxRunner, repos repository.Set, engine *ledger.Engine, log zerolog.Logger) *WholesaleUseCase {
	return &WholesaleUseCase{
		tx:     tx,
		repos:  repos,
		ledger: engine,
		log:    log.With().Str("component", "wholesale").Logger(),
		now:    time.Now,
	}
}

// CreateClient registra un cliente mayorista del negocio del actor.
func (uc *WholesaleUseCase) CreateClient(ctx context.Context, actor entity.Actor, c *entity.WholesaleClient) error {
	if actor.BusinessID == 0 || strings.TrimSpace(c.Name) == "" || c.DefaultDiscountRate.IsNegative() || c.DefaultDiscountRate.GreaterThan(decimal.NewFromInt(100)) {
		return domain.ErrInvalidInput
	}
	c.BusinessID = actor.BusinessID
	c.Active = true
	return uc.repos.Wholesale.CreateClient(ctx, c)
}

// SetPricing crea o reemplaza el precio especial de un producto para un cliente.
func (uc *WholesaleUseCase) SetPricing(ctx context.Context, actor entity.Actor, p *entity.WholesalePricing) error {
	switch p.DiscountType {
	case entity.DiscountTypeRate:
		if p.DiscountRate.IsNegative() || p.DiscountRate.GreaterThan(decimal.NewFromInt(100)) {
			return domain.ErrInvalidInput
		}
	case entity.DiscountTypeFixed:
		if p.FixedPrice == nil || p.FixedPrice.IsNegative() {
			return domain.ErrInvalidInput
		}
	default:
		return fmt.Errorf("tipo de descuento %q: %w", p.DiscountType, domain.ErrInvalidInput)
	}
	return uc.tx.Run(ctx, func(r repository.Set) error {
		if _, err := uc.client(ctx, r, actor, p.ClientID); err != nil {
			return err
		}
		if _, err := guard.Product(ctx, r, actor, p.ProductID); err != nil {
			return err
		}
		return r.Wholesale.UpsertPricing(ctx, p)
	})
}

// CreateOrder registra el pedido en borrador (WO-YYYYMMDD-NNN) aplicando los precios del cliente.
func (uc *WholesaleUseCase) CreateOrder(ctx context.Context, in CreateOrderInput) (*entity.WholesaleOrder, error) {
	if len(in.Items) == 0 {
		return nil, domain.ErrInvalidInput
	}
	date := in.OrderDate
	if date.IsZero() {
		date = uc.now()
	}
	var out *entity.WholesaleOrder
	err := uc.tx.Run(ctx, func(r repository.Set) error {
		if _, err := guard.Store(ctx, r, in.Actor, in.StoreID); err != nil {
			return err
		}
		client, err := uc.client(ctx, r, in.Actor, in.ClientID)
		if err != nil {
			return err
		}
		o := &entity.WholesaleOrder{
			BusinessID:    in.Actor.BusinessID,
			StoreID:       in.StoreID,
			ClientID:      client.ID,
			OrderDate:     date,
			Status:        entity.WholesaleDraft,
			PaidAmount:    decimal.Zero,
			PaymentStatus: entity.PaymentUnpaid,
			Memo:          in.Memo,
			CreatedBy:     in.Actor.UserRef(),
		}
		for _, it := range in.Items {
			if !it.Quantity.IsPositive() || it.UnitPrice.IsNegative() {
				return domain.ErrInvalidInput
			}
			product, err := guard.Product(ctx, r, in.Actor, it.ProductID)
			if err != nil {
				return err
			}
			list := it.UnitPrice
			if list.IsZero() {
				list = product.SellPrice
			}
			special, err := r.Wholesale.GetPricing(ctx, client.ID, product.ID)
			if err != nil {
				return err
			}
			q := pricing.Resolve(list, client.DefaultDiscountRate, special)
			o.Items = append(o.Items, entity.WholesaleOrderItem{
				ProductID:    product.ID,
				Quantity:     it.Quantity,
				UnitPrice:    q.UnitPrice,
				DiscountRate: q.DiscountRate,
				Location:     it.Location,
			})
		}
		pricing.Totals(o)
		n, err := r.Wholesale.CountOrdersByDate(ctx, in.Actor.BusinessID, date)
		if err != nil {
			return err
		}
		o.Number = entity.DocumentNumber(entity.PrefixWholesale, date, n+1)
		if err := r.Wholesale.CreateOrder(ctx, o); err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Int64("order_id", out.ID).Str("number", out.Number).Str("final_amount", out.FinalAmount.String()).Msg("pedido mayorista creado")
	return out, nil
}

// Confirm pasa el pedido de borrador a confirmado.
func (uc *WholesaleUseCase) Confirm(ctx context.Context, actor entity.Actor, orderID int64) (bool, error) {
	return uc.transition(ctx, actor, orderID, "confirm", func(r repository.Set, o *entity.WholesaleOrder) (bool, error) {
		if o.Status != entity.WholesaleDraft {
			return false, nil
		}
		o.Status = entity.WholesaleConfirmed
		return true, nil
	})
}

// Ship descuenta por FEFO cada línea del pedido. Se permite desde borrador o confirmado.
func (uc *WholesaleUseCase) Ship(ctx context.Context, actor entity.Actor, orderID int64) (bool, error) {
	return uc.transition(ctx, actor, orderID, "ship", func(r repository.Set, o *entity.WholesaleOrder) (bool, error) {
		if !o.CanShip() {
			return false, nil
		}
		ref := &entity.Reference{Type: entity.ReferenceWholesaleOrder, ID: o.ID}
		for _, it := range o.Items {
			if _, err := uc.ledger.StockOutTx(ctx, r, ledger.StockOutInput{
				Actor:     actor,
				ProductID: it.ProductID,
				StoreID:   o.StoreID,
				Location:  it.Location,
				Quantity:  it.Quantity,
				UnitPrice: it.UnitPrice,
				Reason:    "Pedido mayorista " + o.Number,
				Reference: ref,
			}); err != nil {
				return false, err
			}
		}
		now := uc.now()
		o.Status = entity.WholesaleShipped
		o.ShippedBy = actor.UserRef()
		o.ShippedAt = &now
		return true, nil
	})
}

// Deliver marca como entregado un pedido despachado. Sin efecto en inventario.
func (uc *WholesaleUseCase) Deliver(ctx context.Context, actor entity.Actor, orderID int64) (bool, error) {
	return uc.transition(ctx, actor, orderID, "deliver", func(r repository.Set, o *entity.WholesaleOrder) (bool, error) {
		if o.Status != entity.WholesaleShipped {
			return false, nil
		}
		o.Status = entity.WholesaleDelivered
		return true, nil
	})
}

// Cancel cancela un pedido que aún no se despacha.
func (uc *WholesaleUseCase) Cancel(ctx context.Context, actor entity.Actor, orderID int64) (bool, error) {
	return uc.transition(ctx, actor, orderID, "cancel", func(r repository.Set, o *entity.WholesaleOrder) (bool, error) {
		if !o.CanShip() {
			return false, nil
		}
		o.Status = entity.WholesaleCancelled
		return true, nil
	})
}

// RecordPayment registra un abono y recalcula el estado de pago. El abono no puede superar el saldo.
func (uc *WholesaleUseCase) RecordPayment(ctx context.Context, in PaymentInput) (*entity.WholesaleOrder, error) {
	if !in.Amount.IsPositive() {
		return nil, domain.ErrInvalidInput
	}
	var out *entity.WholesaleOrder
	err := uc.tx.Run(ctx, func(r repository.Set) error {
		o, err := uc.lock(ctx, r, in.Actor, in.OrderID)
		if err != nil {
			return err
		}
		if o.Status == entity.WholesaleCancelled {
			return fmt.Errorf("pedido %d cancelado: %w", o.ID, domain.ErrInvalidState)
		}
		balance := o.FinalAmount.Sub(o.PaidAmount)
		if in.Amount.GreaterThan(balance) {
			return fmt.Errorf("el abono %s supera el saldo %s: %w", in.Amount, balance, domain.ErrInvalidInput)
		}
		if err := r.Wholesale.CreatePayment(ctx, &entity.WholesalePayment{
			OrderID:   o.ID,
			Amount:    in.Amount,
			Method:    in.Method,
			PaidAt:    uc.now(),
			Memo:      in.Memo,
			CreatedBy: in.Actor.UserRef(),
		}); err != nil {
			return err
		}
		o.PaidAmount = o.PaidAmount.Add(in.Amount)
		o.PaymentStatus = pricing.PaymentStatus(o.FinalAmount, o.PaidAmount)
		if err := r.Wholesale.UpdateOrder(ctx, o); err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ClientBalance devuelve el saldo pendiente del cliente sobre pedidos no cancelados.
func (uc *WholesaleUseCase) ClientBalance(ctx context.Context, actor entity.Actor, clientID int64) (*entity.ClientBalance, error) {
	if _, err := uc.client(ctx, uc.repos, actor, clientID); err != nil {
		return nil, err
	}
	return uc.repos.Wholesale.ClientBalance(ctx, clientID)
}

// GetOrder devuelve el pedido con sus líneas.
func (uc *WholesaleUseCase) GetOrder(ctx context.Context, actor entity.Actor, orderID int64) (*entity.WholesaleOrder, error) {
	o, err := uc.repos.Wholesale.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.ErrNotFound
	}
	if err := guard.Owned(actor, o.BusinessID, "pedido", o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

// ListOrders lista los pedidos del negocio.
func (uc *WholesaleUseCase) ListOrders(ctx context.Context, f repository.DocumentFilter) ([]*entity.WholesaleOrder, error) {
	if f.BusinessID == 0 {
		return nil, domain.ErrInvalidInput
	}
	return uc.repos.Wholesale.ListOrders(ctx, f)
}

func (uc *WholesaleUseCase) transition(ctx context.Context, actor entity.Actor, orderID int64, action string,
	apply func(r repository.Set, o *entity.WholesaleOrder) (bool, error)) (bool, error) {
	ok := false
	err := uc.tx.Run(ctx, func(r repository.Set) error {
		o, err := uc.lock(ctx, r, actor, orderID)
		if err != nil {
			return err
		}
		changed, err := apply(r, o)
		if err != nil || !changed {
			return err
		}
		if err := r.Wholesale.UpdateOrder(ctx, o); err != nil {
			return err
		}
		ok = true
		return nil
	})
	if err != nil {
		return false, err
	}
	logTransition(uc.log, action, "order_id", orderID, ok)
	return ok, nil
}

func (uc *WholesaleUseCase) lock(ctx context.Context, r repository.Set, actor entity.Actor, id int64) (*entity.WholesaleOrder, error) {
	o, err := r.Wholesale.GetOrderForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, fmt.Errorf("pedido %d: %w", id, domain.ErrNotFound)
	}
	if err := guard.Owned(actor, o.BusinessID, "pedido", id); err != nil {
		return nil, err
	}
	return o, nil
}

func (uc *WholesaleUseCase) client(ctx context.Context, r repository.Set, actor entity.Actor, id int64) (*entity.WholesaleClient, error) {
	c, err := r.Wholesale.GetClient(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("cliente %d: %w", id, domain.ErrNotFound)
	}
	if err := guard.Owned(actor, c.BusinessID, "cliente", id); err != nil {
		return nil, err
	}
	return c, nil
}
