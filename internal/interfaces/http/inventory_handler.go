package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/application/ledger"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

// InventoryHandler expone el libro de inventario: lotes, movimientos y consultas (protegido).
type InventoryHandler struct {
	engine          *ledger.Engine
	expiryAlertDays int
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(engine *ledger.Engine, expiryAlertDays int) *InventoryHandler {
	return &InventoryHandler{engine: engine, expiryAlertDays: expiryAlertDays}
}

// Lots godoc
// @Summary      Listar lotes (orden FEFO)
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        store_id    query  int     false  "Tienda"
// @Param        product_id  query  int     false  "Producto"
// @Param        location    query  string  false  "Ubicación"
// @Param        in_stock    query  bool    false  "Solo lotes con cantidad > 0"
// @Success      200  {array}   dto.LotResponse
// @Router       /api/inventory/lots [get]
func (h *InventoryHandler) Lots(c *fiber.Ctx) error {
	var q dto.LotQuery
	if err := bindQuery(c, &q); err != nil {
		return respondError(c, err)
	}
	q.DefaultPage()
	lots, err := h.engine.ListLots(c.UserContext(), repository.LotFilter{
		BusinessID:  GetBusinessID(c),
		StoreID:     q.StoreID,
		ProductID:   q.ProductID,
		Location:    q.Location,
		InStockOnly: q.InStockOnly,
		Limit:       q.Limit,
		Offset:      q.Offset,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToLotResponses(lots))
}

// ExpiryAlerts godoc
// @Summary      Lotes con stock que vencen pronto (incluye vencidos)
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        store_id  query  int  false  "Tienda"
// @Param        days      query  int  false  "Ventana en días (por defecto la configurada)"
// @Success      200  {array}   dto.LotResponse
// @Router       /api/inventory/expiry-alerts [get]
func (h *InventoryHandler) ExpiryAlerts(c *fiber.Ctx) error {
	var q dto.ExpiryQuery
	if err := bindQuery(c, &q); err != nil {
		return respondError(c, err)
	}
	days := q.Days
	if days == 0 {
		days = h.expiryAlertDays
	}
	lots, err := h.engine.ExpiryAlerts(c.UserContext(), GetBusinessID(c), q.StoreID, days)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"days": days, "lots": dto.ToLotResponses(lots)})
}

// Transactions godoc
// @Summary      Consultar el libro de transacciones
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        store_id        query  int     false  "Tienda"
// @Param        product_id      query  int     false  "Producto"
// @Param        type            query  string  false  "Tipo de transacción"
// @Param        reference_type  query  string  false  "Documento origen"
// @Param        reference_id    query  int     false  "Id del documento origen"
// @Param        from            query  string  false  "Desde (YYYY-MM-DD)"
// @Param        to              query  string  false  "Hasta (YYYY-MM-DD)"
// @Success      200  {array}   dto.TransactionResponse
// @Router       /api/inventory/transactions [get]
func (h *InventoryHandler) Transactions(c *fiber.Ctx) error {
	var q dto.TransactionQuery
	if err := bindQuery(c, &q); err != nil {
		return respondError(c, err)
	}
	q.DefaultPage()
	from, err := dto.ParseDate(q.From)
	if err != nil {
		return respondError(c, err)
	}
	to, err := dto.ParseDate(q.To)
	if err != nil {
		return respondError(c, err)
	}
	if to != nil {
		end := to.AddDate(0, 0, 1).Add(-time.Nanosecond)
		to = &end
	}
	txs, err := h.engine.ListTransactions(c.UserContext(), repository.TransactionFilter{
		BusinessID:    GetBusinessID(c),
		StoreID:       q.StoreID,
		ProductID:     q.ProductID,
		Type:          q.Type,
		ReferenceType: q.ReferenceType,
		ReferenceID:   q.ReferenceID,
		From:          from,
		To:            to,
		Limit:         q.Limit,
		Offset:        q.Offset,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToTransactionResponses(txs))
}

// Summary godoc
// @Summary      Existencias por producto de una tienda
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        store_id  query  int     true   "Tienda"
// @Param        location  query  string  false  "Ubicación"
// @Success      200  {array}   dto.StockLevelResponse
// @Router       /api/inventory/summary [get]
func (h *InventoryHandler) Summary(c *fiber.Ctx) error {
	var q dto.SummaryQuery
	if err := bindQuery(c, &q); err != nil {
		return respondError(c, err)
	}
	levels, err := h.engine.StockLevels(c.UserContext(), actorFrom(c), q.StoreID, q.Location)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToStockLevelResponses(levels))
}

// StockIn godoc
// @Summary      Entrada de mercancía a un lote
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.StockInRequest  true  "product_id, store_id, quantity, expiry_date"
// @Success      201   {object}  dto.LedgerResultResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory/stock-in [post]
func (h *InventoryHandler) StockIn(c *fiber.Ctx) error {
	var in dto.StockInRequest
	if err := bindBody(c, &in); err != nil {
		return respondError(c, err)
	}
	expiry, err := dto.ParseDate(in.ExpiryDate)
	if err != nil {
		return respondError(c, err)
	}
	res, err := h.engine.StockIn(c.UserContext(), ledger.StockInInput{
		Actor:      actorFrom(c),
		ProductID:  in.ProductID,
		StoreID:    in.StoreID,
		Location:   in.Location,
		Quantity:   in.Quantity,
		ExpiryDate: expiry,
		UnitPrice:  in.UnitPrice,
		Reason:     in.Reason,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToLedgerResult(res))
}

// StockOut godoc
// @Summary      Salida de mercancía por FEFO
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.StockOutRequest  true  "product_id, store_id, quantity"
// @Success      201   {object}  dto.LedgerResultResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/stock-out [post]
func (h *InventoryHandler) StockOut(c *fiber.Ctx) error {
	var in dto.StockOutRequest
	if err := bindBody(c, &in); err != nil {
		return respondError(c, err)
	}
	res, err := h.engine.StockOut(c.UserContext(), ledger.StockOutInput{
		Actor:     actorFrom(c),
		ProductID: in.ProductID,
		StoreID:   in.StoreID,
		Location:  in.Location,
		Quantity:  in.Quantity,
		UnitPrice: in.UnitPrice,
		Reason:    in.Reason,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToLedgerResult(res))
}

// LotStockOut godoc
// @Summary      Salida de lotes elegidos
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LotStockOutRequest  true  "store_id, lots"
// @Success      201   {object}  dto.LedgerResultResponse
// @Router       /api/inventory/lot-stock-out [post]
func (h *InventoryHandler) LotStockOut(c *fiber.Ctx) error {
	var in dto.LotStockOutRequest
	if err := bindBody(c, &in); err != nil {
		return respondError(c, err)
	}
	res, err := h.engine.LotStockOut(c.UserContext(), ledger.LotStockOutInput{
		Actor:     actorFrom(c),
		StoreID:   in.StoreID,
		Lots:      dto.ToLotQuantities(in.Lots),
		UnitPrice: in.UnitPrice,
		Reason:    in.Reason,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToLedgerResult(res))
}

// LotMove godoc
// @Summary      Reubicar lotes conservando su vencimiento
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LotMoveRequest  true  "store_id, to_location, lots"
// @Success      201   {object}  dto.LedgerResultResponse
// @Router       /api/inventory/lot-move [post]
func (h *InventoryHandler) LotMove(c *fiber.Ctx) error {
	var in dto.LotMoveRequest
	if err := bindBody(c, &in); err != nil {
		return respondError(c, err)
	}
	res, err := h.engine.LotMove(c.UserContext(), ledger.LotMoveInput{
		Actor:      actorFrom(c),
		StoreID:    in.StoreID,
		ToLocation: in.ToLocation,
		Lots:       dto.ToLotQuantities(in.Lots),
		Reason:     in.Reason,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToLedgerResult(res))
}

// Move godoc
// @Summary      Reubicar por FEFO entre ubicaciones
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.MoveRequest  true  "product_id, store_id, from_location, to_location, quantity"
// @Success      201   {object}  dto.LedgerResultResponse
// @Router       /api/inventory/move [post]
func (h *InventoryHandler) Move(c *fiber.Ctx) error {
	var in dto.MoveRequest
	if err := bindBody(c, &in); err != nil {
		return respondError(c, err)
	}
	res, err := h.engine.Move(c.UserContext(), ledger.MoveInput{
		Actor:        actorFrom(c),
		ProductID:    in.ProductID,
		StoreID:      in.StoreID,
		FromLocation: in.FromLocation,
		ToLocation:   in.ToLocation,
		Quantity:     in.Quantity,
		Reason:       in.Reason,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToLedgerResult(res))
}

// Adjust godoc
// @Summary      Fijar la cantidad de un lote o ubicación
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustRequest  true  "product_id, store_id, new_quantity, lot_id"
// @Success      201   {object}  dto.LedgerResultResponse
// @Router       /api/inventory/adjust [post]
func (h *InventoryHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustRequest
	if err := bindBody(c, &in); err != nil {
		return respondError(c, err)
	}
	res, err := h.engine.Adjust(c.UserContext(), ledger.AdjustInput{
		Actor:       actorFrom(c),
		ProductID:   in.ProductID,
		StoreID:     in.StoreID,
		Location:    in.Location,
		NewQuantity: in.NewQuantity,
		LotID:       in.LotID,
		Reason:      in.Reason,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToLedgerResult(res))
}

// Discard godoc
// @Summary      Baja de mercancía vencida o dañada
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.DiscardRequest  true  "product_id, store_id, quantity, lot_id o expiry_date"
// @Success      201   {object}  dto.LedgerResultResponse
// @Router       /api/inventory/discard [post]
func (h *InventoryHandler) Discard(c *fiber.Ctx) error {
	var in dto.DiscardRequest
	if err := bindBody(c, &in); err != nil {
		return respondError(c, err)
	}
	expiry, err := dto.ParseDate(in.ExpiryDate)
	if err != nil {
		return respondError(c, err)
	}
	res, err := h.engine.Discard(c.UserContext(), ledger.DiscardInput{
		Actor:      actorFrom(c),
		ProductID:  in.ProductID,
		StoreID:    in.StoreID,
		Location:   in.Location,
		Quantity:   in.Quantity,
		ExpiryDate: expiry,
		LotID:      in.LotID,
		Reason:     in.Reason,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToLedgerResult(res))
}
