package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/clinistock-api/internal/application/dto"
	"github.com/jhoicas/clinistock-api/internal/application/purchasing"
	"github.com/jhoicas/clinistock-api/internal/domain/entity"
	"github.com/jhoicas/clinistock-api/internal/domain/repository"
)

// PurchaseOrderHandler ciclo de vida de órdenes de compra (protegido).
type PurchaseOrderHandler struct {
	wf *purchasing.PurchaseOrderWorkflow
}

// NewPurchaseOrderHandler construye el handler.
func NewPurchaseOrderHandler(wf *purchasing.PurchaseOrderWorkflow) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{wf: wf}
}

// Create godoc
// @Summary      Crear orden de compra en DRAFT
// @Tags         purchase-orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreatePurchaseOrderRequest  true  "Orden"
// @Success      201   {object}  dto.PurchaseOrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/purchase-orders [post]
func (h *PurchaseOrderHandler) Create(c *fiber.Ctx) error {
	var in dto.CreatePurchaseOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if in.ClinicID == "" {
		in.ClinicID = GetClinicID(c)
	}
	cmd := purchasing.CreateOrderCommand{
		SupplierID:           in.SupplierID,
		ClinicID:             in.ClinicID,
		ExpectedDeliveryDate: in.ExpectedDeliveryDate,
		TaxRate:              in.TaxRate,
		Notes:                in.Notes,
		CreatedBy:            GetUserID(c),
	}
	for _, l := range in.Lines {
		cmd.Lines = append(cmd.Lines, purchasing.LineCommand{ItemID: l.ItemID, Quantity: l.Quantity, UnitCost: l.UnitCost})
	}
	o, err := h.wf.Create(c.UserContext(), cmd)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toOrderResponse(o))
}

func (h *PurchaseOrderHandler) GetByID(c *fiber.Ctx) error {
	o, err := h.wf.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toOrderResponse(o))
}

// List godoc
// @Summary      Listar órdenes de compra
// @Tags         purchase-orders
// @Security     Bearer
// @Produce      json
// @Param        status       query  string  false  "DRAFT | SENT | CONFIRMED | PARTIALLY_RECEIVED | RECEIVED | CANCELLED"
// @Param        supplier_id  query  string  false  "Proveedor"
// @Param        clinic_id    query  string  false  "Sede"
// @Param        limit        query  int     false  "Límite"  default(20)
// @Param        offset       query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.PurchaseOrderListResponse
// @Router       /api/purchase-orders [get]
func (h *PurchaseOrderHandler) List(c *fiber.Ctx) error {
	page := dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)}
	page.DefaultPage()
	if page.Limit > 100 {
		page.Limit = 100
	}
	list, err := h.wf.List(c.UserContext(), repository.PurchaseOrderFilter{
		Status:     c.Query("status"),
		SupplierID: c.Query("supplier_id"),
		ClinicID:   c.Query("clinic_id"),
		Limit:      page.Limit,
		Offset:     page.Offset,
	})
	if err != nil {
		return writeError(c, err)
	}
	out := dto.PurchaseOrderListResponse{
		Items: make([]dto.PurchaseOrderResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}
	for _, o := range list {
		out.Items = append(out.Items, toOrderResponse(o))
	}
	return c.JSON(out)
}

// AddLine agrega una línea a una orden en DRAFT.
func (h *PurchaseOrderHandler) AddLine(c *fiber.Ctx) error {
	var in dto.PurchaseOrderLineRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	o, err := h.wf.AddLine(c.UserContext(), c.Params("id"), purchasing.LineCommand{
		ItemID: in.ItemID, Quantity: in.Quantity, UnitCost: in.UnitCost,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toOrderResponse(o))
}

func (h *PurchaseOrderHandler) Send(c *fiber.Ctx) error {
	return h.respond(c, h.wf.Send)
}

func (h *PurchaseOrderHandler) Confirm(c *fiber.Ctx) error {
	return h.respond(c, h.wf.Confirm)
}

func (h *PurchaseOrderHandler) Cancel(c *fiber.Ctx) error {
	return h.respond(c, h.wf.Cancel)
}

func (h *PurchaseOrderHandler) respond(c *fiber.Ctx, action func(ctx context.Context, id string) (*entity.PurchaseOrder, error)) error {
	o, err := action(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toOrderResponse(o))
}

// Receive godoc
// @Summary      Registrar recepción de mercancía
// @Description  Una sola transacción: abre o amplía lotes, registra las entradas y recalcula el estado.
// @Tags         purchase-orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la orden"
// @Param        body  body  dto.ReceivePurchaseOrderRequest  true  "Cantidades por línea"
// @Success      200   {object}  dto.PurchaseOrderResponse
// @Failure      409   {object}  dto.ErrorResponse  "INVALID_STATE"
// @Failure      422   {object}  dto.ErrorResponse  "OVER_RECEIPT"
// @Router       /api/purchase-orders/{id}/receive [post]
func (h *PurchaseOrderHandler) Receive(c *fiber.Ctx) error {
	var in dto.ReceivePurchaseOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	receipts := make([]purchasing.LineReceipt, 0, len(in.Lines))
	for _, l := range in.Lines {
		receipts = append(receipts, purchasing.LineReceipt{
			LineID:         l.LineID,
			Quantity:       l.Quantity,
			BatchNumber:    l.BatchNumber,
			ExpirationDate: l.ExpirationDate,
		})
	}
	o, err := h.wf.Receive(c.UserContext(), c.Params("id"), receipts, GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toOrderResponse(o))
}

// Document godoc
// @Summary      PDF de la orden de compra
// @Tags         purchase-orders
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de la orden"
// @Success      200
// @Router       /api/purchase-orders/{id}/pdf [get]
func (h *PurchaseOrderHandler) Document(c *fiber.Ctx) error {
	pdf, err := h.wf.Document(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="orden-`+c.Params("id")+`.pdf"`)
	return c.Send(pdf)
}
