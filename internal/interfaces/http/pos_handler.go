package http

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/application/possync"
)

// PosSyncQueue encola la sincronización de un negocio en el worker.
type PosSyncQueue interface {
	EnqueuePosSync(ctx context.Context, businessID int64) (*asynq.TaskInfo, error)
}

// PosHandler expone la sincronización con el POS.
type PosHandler struct {
	adapter       *possync.Adapter
	queue         PosSyncQueue
	webhookSecret string
}

// NewPosHandler construye el handler. Sin cola la sincronización manual corre en la petición;
// sin secreto el webhook queda deshabilitado.
func NewPosHandler(adapter *possync.Adapter, queue PosSyncQueue, webhookSecret string) *PosHandler {
	return &PosHandler{adapter: adapter, queue: queue, webhookSecret: webhookSecret}
}

// Sync godoc
// @Summary      Sincronizar el negocio con su POS
// @Description  Con worker configurado encola la tarea (202); si no, sincroniza en la petición (200).
// @Tags         pos
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  possync.FullSyncResult
// @Success      202  {object}  map[string]string
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/pos/sync [post]
func (h *PosHandler) Sync(c *fiber.Ctx) error {
	businessID := GetBusinessID(c)
	if h.queue != nil {
		info, err := h.queue.EnqueuePosSync(c.UserContext(), businessID)
		if err != nil {
			if errors.Is(err, asynq.ErrDuplicateTask) || errors.Is(err, asynq.ErrTaskIDConflict) {
				return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "SYNC_PENDING", Message: "ya hay una sincronización encolada"})
			}
			return respondError(c, err)
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"task_id": info.ID, "queue": info.Queue})
	}
	res, err := h.adapter.SyncBusiness(c.UserContext(), businessID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

// Status godoc
// @Summary      Estado de la sincronización POS
// @Tags         pos
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.PosStatusResponse
// @Router       /api/pos/status [get]
func (h *PosHandler) Status(c *fiber.Ctx) error {
	st, err := h.adapter.Status(c.UserContext(), GetBusinessID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToPosStatus(st.Checkpoints, st.RecentErrors))
}

// Details godoc
// @Summary      Registro por línea de la sincronización POS
// @Tags         pos
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "success, skipped, error"
// @Success      200  {array}   dto.PosSyncDetailResponse
// @Router       /api/pos/details [get]
func (h *PosHandler) Details(c *fiber.Ctx) error {
	var q dto.PosDetailQuery
	if err := bindQuery(c, &q); err != nil {
		return respondError(c, err)
	}
	q.DefaultPage()
	list, err := h.adapter.Details(c.UserContext(), GetBusinessID(c), q.Status, q.Limit, q.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToPosSyncDetails(list))
}

// Webhook godoc
// @Summary      Recibo enviado por el POS
// @Description  Autenticado con el header X-Pos-Secret. Reenviar un recibo no duplica descuentos.
// @Tags         pos
// @Accept       json
// @Produce      json
// @Param        X-Pos-Secret  header  string                 true  "Secreto compartido"
// @Param        body          body    dto.PosReceiptRequest  true  "business_id, receipt_no, lines"
// @Success      200  {object}  possync.SyncResult
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/pos/webhook [post]
func (h *PosHandler) Webhook(c *fiber.Ctx) error {
	if h.webhookSecret == "" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "WEBHOOK_DISABLED", Message: "webhook POS no configurado"})
	}
	if subtle.ConstantTimeCompare([]byte(c.Get("X-Pos-Secret")), []byte(h.webhookSecret)) != 1 {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_SECRET", Message: "secreto POS inválido"})
	}
	var in dto.PosReceiptRequest
	if err := bindBody(c, &in); err != nil {
		return respondError(c, err)
	}
	res, err := h.adapter.HandleReceipt(c.UserContext(), possync.Receipt{
		BusinessID: in.BusinessID,
		StoreID:    in.StoreID,
		ReceiptNo:  in.ReceiptNo,
		PosNo:      in.PosNo,
		Lines:      in.ToPosLines(),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}
