package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/application/sales"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

// WholesaleHandler maneja clientes y pedidos mayoristas (protegido).
type WholesaleHandler struct {
	uc *sales.WholesaleUseCase
}

// NewWholesaleHandler construye el handler.
func NewWholesaleHandler(uc *sales.WholesaleUseCase) *WholesaleHandler {
	return &WholesaleHandler{uc: uc}
}

// CreateClient godoc
// @Summary      Registrar cliente mayorista
// @Tags         wholesale
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateClientRequest  true  "name, default_discount_rate"
// @Success      201   {object}  dto.ClientResponse
// @Router       /api/wholesale/clients [post]
func (h *WholesaleHandler) CreateClient(c *fiber.Ctx) error {
	var in dto.CreateClientRequest
	if err := bindBody(c, &in); err != nil {
		return respondError(c, err)
	}
	client := &entity.WholesaleClient{
		Name:                in.Name,
		BusinessNumber:      in.BusinessNumber,
		Phone:               in.Phone,
		DefaultDiscountRate: in.DefaultDiscountRate,
	}
	if err := h.uc.CreateClient(c.UserContext(), actorFrom(c), client); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToClientResponse(client))
}

// SetPricing godoc
// @Summary      Precio especial de un producto para el cliente
// @Tags         wholesale
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int                    true  "ID del cliente"
// @Param        body  body  dto.SetPricingRequest  true  "product_id, discount_type, discount_rate, fixed_price"
// @Success      204
// @Router       /api/wholesale/clients/{id}/pricing [put]
func (h *WholesaleHandler) SetPricing(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in dto.SetPricingRequest
	if err := bindBody(c, &in); err != nil {
		return respondError(c, err)
	}
	p := &entity.WholesalePricing{
		ClientID:     id,
		ProductID:    in.ProductID,
		DiscountType: in.DiscountType,
		DiscountRate: in.DiscountRate,
		FixedPrice:   in.FixedPrice,
	}
	if err := h.uc.SetPricing(c.UserContext(), actorFrom(c), p); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Balance godoc
// @Summary      Saldo pendiente del cliente
// @Tags         wholesale
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del cliente"
// @Success      200  {object}  dto.BalanceResponse
// @Router       /api/wholesale/clients/{id}/balance [get]
func (h *WholesaleHandler) Balance(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	b, err := h.uc.ClientBalance(c.UserContext(), actorFrom(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.BalanceResponse{ClientID: b.ClientID, TotalAmount: b.TotalAmount, PaidAmount: b.PaidAmount, Balance: b.Balance})
}

// CreateOrder godoc
// @Summary      Crear pedido mayorista en borrador
// @Tags         wholesale
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateOrderRequest  true  "store_id, client_id, items"
// @Success      201   {object}  dto.OrderResponse
// @Router       /api/wholesale/orders [post]
func (h *WholesaleHandler) CreateOrder(c *fiber.Ctx) error {
	var in dto.CreateOrderRequest
	if err := bindBody(c, &in); err != nil {
		return respondError(c, err)
	}
	date, err := dto.DateOrToday(in.OrderDate)
	if err != nil {
		return respondError(c, err)
	}
	items := make([]sales.OrderItemInput, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, sales.OrderItemInput{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.UnitPrice, Location: it.Location})
	}
	o, err := h.uc.CreateOrder(c.UserContext(), sales.CreateOrderInput{
		Actor:     actorFrom(c),
		StoreID:   in.StoreID,
		ClientID:  in.ClientID,
		OrderDate: date,
		Memo:      in.Memo,
		Items:     items,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToOrderResponse(o))
}

// ListOrders godoc
// @Summary      Listar pedidos mayoristas
// @Tags         wholesale
// @Security     Bearer
// @Produce      json
// @Success      200  {array}   dto.OrderResponse
// @Router       /api/wholesale/orders [get]
func (h *WholesaleHandler) ListOrders(c *fiber.Ctx) error {
	f, err := documentFilter(c)
	if err != nil {
		return respondError(c, err)
	}
	list, err := h.uc.ListOrders(c.UserContext(), f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToOrderResponses(list))
}

// GetOrder godoc
// @Summary      Obtener pedido mayorista
// @Tags         wholesale
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del pedido"
// @Success      200  {object}  dto.OrderResponse
// @Router       /api/wholesale/orders/{id} [get]
func (h *WholesaleHandler) GetOrder(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	o, err := h.uc.GetOrder(c.UserContext(), actorFrom(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToOrderResponse(o))
}

type orderTransition func(ctx context.Context, actor entity.Actor, orderID int64) (bool, error)

// transition ejecuta una transición del pedido y responde con el pedido actualizado.
func (h *WholesaleHandler) transition(fn orderTransition, msg string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return respondError(c, err)
		}
		ok, err := fn(c.UserContext(), actorFrom(c), id)
		if err != nil {
			return respondError(c, err)
		}
		if !ok {
			return invalidState(c, msg)
		}
		return h.GetOrder(c)
	}
}

// Confirm godoc
// @Summary      Confirmar pedido (draft → confirmed)
// @Tags         wholesale
// @Security     Bearer
// @Param        id   path  int  true  "ID del pedido"
// @Success      200  {object}  dto.OrderResponse
// @Router       /api/wholesale/orders/{id}/confirm [post]
func (h *WholesaleHandler) Confirm(c *fiber.Ctx) error {
	return h.transition(h.uc.Confirm, "solo se confirman pedidos en borrador")(c)
}

// Ship godoc
// @Summary      Despachar pedido (descuenta inventario)
// @Tags         wholesale
// @Security     Bearer
// @Param        id   path  int  true  "ID del pedido"
// @Success      200  {object}  dto.OrderResponse
// @Router       /api/wholesale/orders/{id}/ship [post]
func (h *WholesaleHandler) Ship(c *fiber.Ctx) error {
	return h.transition(h.uc.Ship, "solo se despachan pedidos en borrador o confirmados")(c)
}

// Deliver godoc
// @Summary      Marcar pedido entregado
// @Tags         wholesale
// @Security     Bearer
// @Param        id   path  int  true  "ID del pedido"
// @Success      200  {object}  dto.OrderResponse
// @Router       /api/wholesale/orders/{id}/deliver [post]
func (h *WholesaleHandler) Deliver(c *fiber.Ctx) error {
	return h.transition(h.uc.Deliver, "solo se entregan pedidos despachados")(c)
}

// Cancel godoc
// @Summary      Cancelar pedido
// @Tags         wholesale
// @Security     Bearer
// @Param        id   path  int  true  "ID del pedido"
// @Success      200  {object}  dto.OrderResponse
// @Router       /api/wholesale/orders/{id}/cancel [post]
func (h *WholesaleHandler) Cancel(c *fiber.Ctx) error {
	return h.transition(h.uc.Cancel, "el pedido ya no se puede cancelar")(c)
}

// RecordPayment godoc
// @Summary      Registrar abono a un pedido
// @Tags         wholesale
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int                 true  "ID del pedido"
// @Param        body  body  dto.PaymentRequest  true  "amount, method"
// @Success      201   {object}  dto.OrderResponse
// @Router       /api/wholesale/orders/{id}/payments [post]
func (h *WholesaleHandler) RecordPayment(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in dto.PaymentRequest
	if err := bindBody(c, &in); err != nil {
		return respondError(c, err)
	}
	o, err := h.uc.RecordPayment(c.UserContext(), sales.PaymentInput{
		Actor:   actorFrom(c),
		OrderID: id,
		Amount:  in.Amount,
		Method:  in.Method,
		Memo:    in.Memo,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToOrderResponse(o))
}
