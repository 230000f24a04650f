package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/clinistock-api/internal/application/dto"
	"github.com/jhoicas/clinistock-api/internal/application/inventory"
)

// BatchHandler lotes de ítems con control de lote.
type BatchHandler struct {
	tracker *inventory.BatchTracker
}

// NewBatchHandler construye el handler.
func NewBatchHandler(tracker *inventory.BatchTracker) *BatchHandler {
	return &BatchHandler{tracker: tracker}
}

// Open godoc
// @Summary      Alta manual de lote con su entrada inicial
// @Tags         batches
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.OpenBatchRequest  true  "Lote"
// @Success      201   {object}  dto.BatchResponse
// @Failure      409   {object}  dto.ErrorResponse  "DUPLICATE_BATCH"
// @Router       /api/batches [post]
func (h *BatchHandler) Open(c *fiber.Ctx) error {
	var in dto.OpenBatchRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if in.ClinicID == "" {
		in.ClinicID = GetClinicID(c)
	}
	b, err := h.tracker.OpenBatch(c.UserContext(), inventory.OpenBatchCommand{
		ItemID:         in.ItemID,
		ClinicID:       in.ClinicID,
		BatchNumber:    in.BatchNumber,
		InitialStock:   in.InitialStock,
		ExpirationDate: in.ExpirationDate,
		PurchaseCost:   in.PurchaseCost,
		CreatedBy:      GetUserID(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toBatchResponse(b))
}

func (h *BatchHandler) ListByItem(c *fiber.Ctx) error {
	list, err := h.tracker.ListBatches(c.UserContext(), c.Params("item_id"))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.BatchResponse, 0, len(list))
	for _, b := range list {
		out = append(out, toBatchResponse(b))
	}
	return c.JSON(fiber.Map{"items": out})
}

// SelectFEFO godoc
// @Summary      Simular la selección FEFO para una cantidad (no descuenta stock)
// @Tags         batches
// @Security     Bearer
// @Produce      json
// @Param        item_id   path   string  true  "ID del ítem"
// @Param        quantity  query  int     true  "Cantidad requerida"
// @Success      200  {array}  dto.BatchAllocationResponse
// @Failure      409  {object}  dto.ErrorResponse  "INSUFFICIENT_STOCK"
// @Router       /api/batches/items/{item_id}/fefo [get]
func (h *BatchHandler) SelectFEFO(c *fiber.Ctx) error {
	allocs, err := h.tracker.SelectForConsumption(c.UserContext(), c.Params("item_id"), c.QueryInt("quantity", 0))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.BatchAllocationResponse, 0, len(allocs))
	for _, a := range allocs {
		out = append(out, dto.BatchAllocationResponse{BatchID: a.BatchID, Quantity: a.Quantity})
	}
	return c.JSON(fiber.Map{"allocations": out})
}

// SweepExpirations marca como vencidos los lotes con fecha anterior a ahora (sin tocar stock).
func (h *BatchHandler) SweepExpirations(c *fiber.Ctx) error {
	n, err := h.tracker.SweepExpirations(c.UserContext(), time.Now())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.SweepResponse{Expired: n})
}
