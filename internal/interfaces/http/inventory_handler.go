package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/clinistock-api/internal/application/dto"
	"github.com/jhoicas/clinistock-api/internal/application/inventory"
)

// InventoryHandler maneja las peticiones HTTP del libro de stock y la proyección por sede (protegido).
type InventoryHandler struct {
	ledger        *inventory.StockLedger
	stock         *inventory.ClinicStockProjection
	replenishment *inventory.ReplenishmentUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(ledger *inventory.StockLedger, stock *inventory.ClinicStockProjection, replenishment *inventory.ReplenishmentUseCase) *InventoryHandler {
	return &InventoryHandler{ledger: ledger, stock: stock, replenishment: replenishment}
}

// clinicParam toma clinic_id de la query o, si falta, la sede del token.
func clinicParam(c *fiber.Ctx) string {
	if id := c.Query("clinic_id"); id != "" {
		return id
	}
	return GetClinicID(c)
}

// RegisterMovement godoc
// @Summary      Registrar movimiento de inventario
// @Description  ENTRY, EXIT, ADJUSTMENT (con direction) o TRANSFER (clinic_id origen, target_clinic_id destino).
// @Description  Las salidas de ítems con lote usan FEFO salvo que se indique batch_id.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterMovementRequest  true  "Movimiento"
// @Success      201   {array}   dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse  "INSUFFICIENT_STOCK o LOCK_TIMEOUT"
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) RegisterMovement(c *fiber.Ctx) error {
	var in dto.RegisterMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if in.ClinicID == "" {
		in.ClinicID = GetClinicID(c)
	}
	movs, err := h.ledger.Append(c.UserContext(), inventory.MovementRequest{
		Type:                 strings.ToUpper(in.Type),
		Direction:            strings.ToUpper(in.Direction),
		ItemID:               in.ItemID,
		ClinicID:             in.ClinicID,
		TargetClinicID:       in.TargetClinicID,
		BatchID:              in.BatchID,
		Quantity:             in.Quantity,
		UnitCost:             in.UnitCost,
		Reason:               in.Reason,
		Notes:                in.Notes,
		InvoiceItemReference: in.InvoiceItemReference,
		TreatmentReference:   in.TreatmentReference,
		CreatedBy:            GetUserID(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"items": toMovementResponses(movs)})
}

// ListMovements godoc
// @Summary      Movimientos de un ítem en una sede con el saldo reconstruido
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        item_id    query  string  true  "ID del ítem"
// @Param        clinic_id  query  string  false "ID de la sede (por defecto la del token)"
// @Success      200  {object}  dto.MovementListResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	itemID, clinicID := c.Query("item_id"), clinicParam(c)
	movs, err := h.ledger.ListMovements(c.UserContext(), itemID, clinicID)
	if err != nil {
		return writeError(c, err)
	}
	replayed := 0
	for _, m := range movs {
		replayed += m.SignedQuantity()
	}
	return c.JSON(dto.MovementListResponse{Items: toMovementResponses(movs), ReplayedStock: replayed})
}

// GetStock godoc
// @Summary      Stock de un ítem en una sede
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        item_id    path  string  true  "ID del ítem"
// @Param        clinic_id  path  string  true  "ID de la sede"
// @Success      200  {object}  dto.ClinicStockResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/stock/{item_id}/{clinic_id} [get]
func (h *InventoryHandler) GetStock(c *fiber.Ctx) error {
	s, err := h.stock.GetStock(c.UserContext(), c.Params("item_id"), c.Params("clinic_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toStockResponse(s))
}

// UpdateThresholds godoc
// @Summary      Actualizar mínimo, máximo, punto de reorden y ubicación
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        item_id    path  string  true  "ID del ítem"
// @Param        clinic_id  path  string  true  "ID de la sede"
// @Param        body       body  dto.UpdateThresholdsRequest  true  "Umbrales"
// @Success      200  {object}  dto.ClinicStockResponse
// @Router       /api/inventory/stock/{item_id}/{clinic_id} [put]
func (h *InventoryHandler) UpdateThresholds(c *fiber.Ctx) error {
	var in dto.UpdateThresholdsRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	s, err := h.stock.SetThresholds(c.UserContext(), c.Params("item_id"), c.Params("clinic_id"), inventory.ThresholdsCommand{
		MinimumStock:    in.MinimumStock,
		MaximumStock:    in.MaximumStock,
		ReorderPoint:    in.ReorderPoint,
		StorageLocation: in.StorageLocation,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toStockResponse(s))
}

// ListLowStock godoc
// @Summary      Pares ítem+sede en o bajo el punto de reorden
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        clinic_id  query  string  false  "Filtrar por sede. Vacío = la del token o todas."
// @Success      200  {array}  dto.ClinicStockResponse
// @Router       /api/inventory/low-stock [get]
func (h *InventoryHandler) ListLowStock(c *fiber.Ctx) error {
	rows, err := h.stock.ListLowStock(c.UserContext(), clinicParam(c))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.ClinicStockResponse, 0, len(rows))
	for _, s := range rows {
		out = append(out, toStockResponse(s))
	}
	return c.JSON(fiber.Map{"total": len(out), "items": out})
}

// GetReplenishmentList godoc
// @Summary      Lista de reposición
// @Description  Pares en o bajo el punto de reorden con la cantidad sugerida hasta el máximo,
// @Description  ordenados por déficit relativo y costo estimado.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        clinic_id  query  string  false  "Filtrar por sede. Vacío = la del token o todas."
// @Success      200  {array}   dto.ReplenishmentSuggestionResponse
// @Router       /api/inventory/replenishment-list [get]
func (h *InventoryHandler) GetReplenishmentList(c *fiber.Ctx) error {
	list, err := h.replenishment.GenerateReplenishmentList(c.UserContext(), clinicParam(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"total":          len(list),
		"generated_at":   time.Now(),
		"replenishments": toReplenishmentResponses(list),
	})
}
