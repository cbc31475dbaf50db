package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/application/purchase"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

// PurchaseHandler maneja las compras a proveedores (protegido).
type PurchaseHandler struct {
	uc *purchase.UseCase
}

// NewPurchaseHandler construye el handler.
func NewPurchaseHandler(uc *purchase.UseCase) *PurchaseHandler {
	return &PurchaseHandler{uc: uc}
}

func purchaseItems(in []dto.PurchaseItemRequest) ([]purchase.ItemInput, error) {
	out := make([]purchase.ItemInput, 0, len(in))
	for _, it := range in {
		expiry, err := dto.ParseDate(it.ExpiryDate)
		if err != nil {
			return nil, err
		}
		out = append(out, purchase.ItemInput{
			ProductID:  it.ProductID,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			ExpiryDate: expiry,
			Location:   it.Location,
		})
	}
	return out, nil
}

// Create godoc
// @Summary      Crear compra en borrador
// @Tags         purchases
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreatePurchaseRequest  true  "store_id, items"
// @Success      201   {object}  dto.PurchaseResponse
// @Router       /api/purchases [post]
func (h *PurchaseHandler) Create(c *fiber.Ctx) error {
	var in dto.CreatePurchaseRequest
	if err := bindBody(c, &in); err != nil {
		return respondError(c, err)
	}
	date, err := dto.DateOrToday(in.PurchaseDate)
	if err != nil {
		return respondError(c, err)
	}
	items, err := purchaseItems(in.Items)
	if err != nil {
		return respondError(c, err)
	}
	p, err := h.uc.Create(c.UserContext(), purchase.CreateInput{
		Actor:        actorFrom(c),
		StoreID:      in.StoreID,
		SupplierID:   in.SupplierID,
		PurchaseDate: date,
		Memo:         in.Memo,
		Items:        items,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToPurchaseResponse(p))
}

// List godoc
// @Summary      Listar compras
// @Tags         purchases
// @Security     Bearer
// @Produce      json
// @Param        store_id  query  int     false  "Tienda"
// @Param        status    query  string  false  "draft, received, cancelled"
// @Success      200  {array}   dto.PurchaseResponse
// @Router       /api/purchases [get]
func (h *PurchaseHandler) List(c *fiber.Ctx) error {
	f, err := documentFilter(c)
	if err != nil {
		return respondError(c, err)
	}
	list, err := h.uc.List(c.UserContext(), f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToPurchaseResponses(list))
}

// Get godoc
// @Summary      Obtener compra
// @Tags         purchases
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID de la compra"
// @Success      200  {object}  dto.PurchaseResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/purchases/{id} [get]
func (h *PurchaseHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	p, err := h.uc.Get(c.UserContext(), actorFrom(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToPurchaseResponse(p))
}

// ReplaceItems godoc
// @Summary      Reemplazar líneas de una compra en borrador
// @Tags         purchases
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int                       true  "ID de la compra"
// @Param        body  body  dto.PurchaseItemsRequest  true  "items"
// @Success      200   {object}  dto.PurchaseResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/purchases/{id}/items [put]
func (h *PurchaseHandler) ReplaceItems(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in dto.PurchaseItemsRequest
	if err := bindBody(c, &in); err != nil {
		return respondError(c, err)
	}
	items, err := purchaseItems(in.Items)
	if err != nil {
		return respondError(c, err)
	}
	ok, err := h.uc.ReplaceItems(c.UserContext(), actorFrom(c), id, items)
	if err != nil {
		return respondError(c, err)
	}
	if !ok {
		return invalidState(c, "solo se editan compras en borrador")
	}
	return h.Get(c)
}

// Receive godoc
// @Summary      Recibir compra (entra la mercancía al inventario)
// @Tags         purchases
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID de la compra"
// @Success      200  {object}  dto.PurchaseResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/purchases/{id}/receive [post]
func (h *PurchaseHandler) Receive(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ok, err := h.uc.Receive(c.UserContext(), actorFrom(c), id)
	if err != nil {
		return respondError(c, err)
	}
	if !ok {
		return invalidState(c, "solo se reciben compras en borrador")
	}
	return h.Get(c)
}

// Cancel godoc
// @Summary      Cancelar compra en borrador
// @Tags         purchases
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID de la compra"
// @Success      200  {object}  dto.PurchaseResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/purchases/{id}/cancel [post]
func (h *PurchaseHandler) Cancel(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ok, err := h.uc.Cancel(c.UserContext(), actorFrom(c), id)
	if err != nil {
		return respondError(c, err)
	}
	if !ok {
		return invalidState(c, "solo se cancelan compras en borrador")
	}
	return h.Get(c)
}

// documentFilter arma el filtro de listados de documentos del negocio del actor.
func documentFilter(c *fiber.Ctx) (repository.DocumentFilter, error) {
	var q dto.DocumentQuery
	if err := bindQuery(c, &q); err != nil {
		return repository.DocumentFilter{}, err
	}
	q.DefaultPage()
	return repository.DocumentFilter{
		BusinessID: GetBusinessID(c),
		StoreID:    q.StoreID,
		Status:     q.Status,
		Limit:      q.Limit,
		Offset:     q.Offset,
	}, nil
}
