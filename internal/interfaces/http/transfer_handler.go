package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/application/transfer"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

// TransferHandler maneja los traslados entre tiendas (protegido).
type TransferHandler struct {
	wf *transfer.Workflow
}

// NewTransferHandler construye el handler.
func NewTransferHandler(wf *transfer.Workflow) *TransferHandler {
	return &TransferHandler{wf: wf}
}

// Create godoc
// @Summary      Solicitar traslado
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateTransferRequest  true  "from_store_id, to_store_id, items"
// @Success      201   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/transfers [post]
func (h *TransferHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateTransferRequest
	if err := bindBody(c, &in); err != nil {
		return respondError(c, err)
	}
	items := make([]transfer.ItemInput, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, transfer.ItemInput{LotID: it.LotID, Quantity: it.Quantity})
	}
	t, err := h.wf.Create(c.UserContext(), transfer.CreateInput{
		Actor:       actorFrom(c),
		FromStoreID: in.FromStoreID,
		ToStoreID:   in.ToStoreID,
		Items:       items,
		Memo:        in.Memo,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToTransferResponse(t))
}

// List godoc
// @Summary      Listar traslados
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        store_id  query  int     false  "Tienda origen o destino"
// @Param        status    query  string  false  "pending, shipped, received, cancelled"
// @Success      200  {array}   dto.TransferResponse
// @Router       /api/transfers [get]
func (h *TransferHandler) List(c *fiber.Ctx) error {
	var q dto.DocumentQuery
	if err := bindQuery(c, &q); err != nil {
		return respondError(c, err)
	}
	q.DefaultPage()
	list, err := h.wf.List(c.UserContext(), repository.TransferFilter{
		BusinessID: GetBusinessID(c),
		StoreID:    q.StoreID,
		Status:     q.Status,
		Limit:      q.Limit,
		Offset:     q.Offset,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToTransferResponses(list))
}

// Get godoc
// @Summary      Obtener traslado con sus líneas
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del traslado"
// @Success      200  {object}  dto.TransferResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id} [get]
func (h *TransferHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	t, err := h.wf.Get(c.UserContext(), actorFrom(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToTransferResponse(t))
}

// Pending godoc
// @Summary      Traslados abiertos de una tienda
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        store_id  query  int  true  "Tienda"
// @Success      200  {object}  dto.TransferCountsResponse
// @Router       /api/transfers/pending [get]
func (h *TransferHandler) Pending(c *fiber.Ctx) error {
	storeID := int64(c.QueryInt("store_id"))
	if storeID <= 0 {
		storeID = GetStoreID(c)
	}
	counts, err := h.wf.PendingCounts(c.UserContext(), actorFrom(c), storeID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.TransferCountsResponse{Outgoing: counts.Outgoing, Incoming: counts.Incoming})
}

// Ship godoc
// @Summary      Despachar traslado (pending → shipped)
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del traslado"
// @Success      200  {object}  dto.TransferResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/ship [post]
func (h *TransferHandler) Ship(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ok, err := h.wf.Ship(c.UserContext(), actorFrom(c), id)
	if err != nil {
		return respondError(c, err)
	}
	if !ok {
		return invalidState(c, "solo se despachan traslados pendientes")
	}
	return h.Get(c)
}

// Receive godoc
// @Summary      Recibir traslado (shipped → received)
// @Description  Sin líneas se recibe lo solicitado; con líneas se registra la cantidad recibida de cada una.
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int                         true   "ID del traslado"
// @Param        body  body  dto.ReceiveTransferRequest  false  "items"
// @Success      200   {object}  dto.TransferResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/receive [post]
func (h *TransferHandler) Receive(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in dto.ReceiveTransferRequest
	if len(c.Body()) > 0 {
		if err := bindBody(c, &in); err != nil {
			return respondError(c, err)
		}
	}
	var received []transfer.ReceivedItem
	for _, it := range in.Items {
		received = append(received, transfer.ReceivedItem{ItemID: it.ItemID, Quantity: it.Quantity})
	}
	ok, err := h.wf.Receive(c.UserContext(), actorFrom(c), id, received)
	if err != nil {
		return respondError(c, err)
	}
	if !ok {
		return invalidState(c, "solo se reciben traslados despachados")
	}
	return h.Get(c)
}

// Cancel godoc
// @Summary      Cancelar traslado pendiente
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del traslado"
// @Success      200  {object}  dto.TransferResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/cancel [post]
func (h *TransferHandler) Cancel(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ok, err := h.wf.Cancel(c.UserContext(), actorFrom(c), id)
	if err != nil {
		return respondError(c, err)
	}
	if !ok {
		return invalidState(c, "solo se cancelan traslados pendientes")
	}
	return h.Get(c)
}
