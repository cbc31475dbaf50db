package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/application/stockcount"
)

// StockCountHandler maneja los conteos físicos (protegido).
type StockCountHandler struct {
	uc *stockcount.UseCase
}

// NewStockCountHandler construye el handler.
func NewStockCountHandler(uc *stockcount.UseCase) *StockCountHandler {
	return &StockCountHandler{uc: uc}
}

// Create godoc
// @Summary      Abrir conteo físico (toma las cantidades del sistema)
// @Tags         stock-counts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateStockCountRequest  true  "store_id, location, category_id"
// @Success      201   {object}  dto.StockCountResponse
// @Router       /api/stock-counts [post]
func (h *StockCountHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateStockCountRequest
	if err := bindBody(c, &in); err != nil {
		return respondError(c, err)
	}
	date, err := dto.DateOrToday(in.CountDate)
	if err != nil {
		return respondError(c, err)
	}
	sc, err := h.uc.Create(c.UserContext(), stockcount.CreateInput{
		Actor:      actorFrom(c),
		StoreID:    in.StoreID,
		Location:   in.Location,
		CategoryID: in.CategoryID,
		CountDate:  date,
		Memo:       in.Memo,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToStockCountResponse(sc))
}

// List godoc
// @Summary      Listar conteos
// @Tags         stock-counts
// @Security     Bearer
// @Produce      json
// @Success      200  {array}   dto.StockCountResponse
// @Router       /api/stock-counts [get]
func (h *StockCountHandler) List(c *fiber.Ctx) error {
	f, err := documentFilter(c)
	if err != nil {
		return respondError(c, err)
	}
	list, err := h.uc.List(c.UserContext(), f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToStockCountResponses(list))
}

// Get godoc
// @Summary      Obtener conteo
// @Tags         stock-counts
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del conteo"
// @Success      200  {object}  dto.StockCountResponse
// @Router       /api/stock-counts/{id} [get]
func (h *StockCountHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	sc, err := h.uc.Get(c.UserContext(), actorFrom(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToStockCountResponse(sc))
}

// UpdateItems godoc
// @Summary      Registrar cantidades contadas
// @Tags         stock-counts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int                         true  "ID del conteo"
// @Param        body  body  dto.StockCountItemsRequest  true  "items"
// @Success      200   {object}  dto.StockCountResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock-counts/{id}/items [put]
func (h *StockCountHandler) UpdateItems(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in dto.StockCountItemsRequest
	if err := bindBody(c, &in); err != nil {
		return respondError(c, err)
	}
	counts := make([]stockcount.ItemCount, 0, len(in.Items))
	for _, it := range in.Items {
		counts = append(counts, stockcount.ItemCount{ItemID: it.ItemID, Actual: it.Actual, Memo: it.Memo})
	}
	ok, err := h.uc.UpdateItems(c.UserContext(), actorFrom(c), id, counts)
	if err != nil {
		return respondError(c, err)
	}
	if !ok {
		return invalidState(c, "solo se editan conteos en borrador")
	}
	return h.Get(c)
}

// Approve godoc
// @Summary      Aprobar conteo (ajusta las diferencias)
// @Tags         stock-counts
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del conteo"
// @Success      200  {object}  dto.StockCountResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/stock-counts/{id}/approve [post]
func (h *StockCountHandler) Approve(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ok, err := h.uc.Approve(c.UserContext(), actorFrom(c), id)
	if err != nil {
		return respondError(c, err)
	}
	if !ok {
		return invalidState(c, "solo se aprueban conteos en borrador")
	}
	return h.Get(c)
}
