package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/application/sales"
)

// SaleHandler maneja las ventas al detal (protegido).
type SaleHandler struct {
	uc *sales.SaleUseCase
}

// NewSaleHandler construye el handler.
func NewSaleHandler(uc *sales.SaleUseCase) *SaleHandler {
	return &SaleHandler{uc: uc}
}

func saleItems(in []dto.SaleItemRequest) []sales.SaleItemInput {
	out := make([]sales.SaleItemInput, 0, len(in))
	for _, it := range in {
		out = append(out, sales.SaleItemInput{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Location:  it.Location,
			Lots:      dto.ToLotQuantities(it.Lots),
		})
	}
	return out
}

// Create godoc
// @Summary      Crear venta en borrador
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateSaleRequest  true  "store_id, items"
// @Success      201   {object}  dto.SaleResponse
// @Router       /api/sales [post]
func (h *SaleHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateSaleRequest
	if err := bindBody(c, &in); err != nil {
		return respondError(c, err)
	}
	date, err := dto.DateOrToday(in.SaleDate)
	if err != nil {
		return respondError(c, err)
	}
	s, err := h.uc.Create(c.UserContext(), sales.CreateSaleInput{
		Actor:      actorFrom(c),
		StoreID:    in.StoreID,
		CustomerID: in.CustomerID,
		SaleDate:   date,
		Memo:       in.Memo,
		Items:      saleItems(in.Items),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToSaleResponse(s))
}

// List godoc
// @Summary      Listar ventas
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        store_id  query  int     false  "Tienda"
// @Param        status    query  string  false  "draft, confirmed, cancelled"
// @Success      200  {array}   dto.SaleResponse
// @Router       /api/sales [get]
func (h *SaleHandler) List(c *fiber.Ctx) error {
	f, err := documentFilter(c)
	if err != nil {
		return respondError(c, err)
	}
	list, err := h.uc.List(c.UserContext(), f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToSaleResponses(list))
}

// Get godoc
// @Summary      Obtener venta
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID de la venta"
// @Success      200  {object}  dto.SaleResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id} [get]
func (h *SaleHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	s, err := h.uc.Get(c.UserContext(), actorFrom(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToSaleResponse(s))
}

// ReplaceItems godoc
// @Summary      Reemplazar líneas de una venta en borrador
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int                   true  "ID de la venta"
// @Param        body  body  dto.SaleItemsRequest  true  "items"
// @Success      200   {object}  dto.SaleResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/items [put]
func (h *SaleHandler) ReplaceItems(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in dto.SaleItemsRequest
	if err := bindBody(c, &in); err != nil {
		return respondError(c, err)
	}
	ok, err := h.uc.ReplaceItems(c.UserContext(), actorFrom(c), id, saleItems(in.Items))
	if err != nil {
		return respondError(c, err)
	}
	if !ok {
		return invalidState(c, "solo se editan ventas en borrador")
	}
	return h.Get(c)
}

// Confirm godoc
// @Summary      Confirmar venta (descuenta inventario)
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID de la venta"
// @Success      200  {object}  dto.SaleResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/confirm [post]
func (h *SaleHandler) Confirm(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ok, err := h.uc.Confirm(c.UserContext(), actorFrom(c), id)
	if err != nil {
		return respondError(c, err)
	}
	if !ok {
		return invalidState(c, "solo se confirman ventas en borrador")
	}
	return h.Get(c)
}

// Cancel godoc
// @Summary      Cancelar venta en borrador
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID de la venta"
// @Success      200  {object}  dto.SaleResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/cancel [post]
func (h *SaleHandler) Cancel(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ok, err := h.uc.Cancel(c.UserContext(), actorFrom(c), id)
	if err != nil {
		return respondError(c, err)
	}
	if !ok {
		return invalidState(c, "solo se cancelan ventas en borrador")
	}
	return h.Get(c)
}
