package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/clinistock-api/internal/application/dto"
	"github.com/jhoicas/clinistock-api/internal/application/usecase"
)

// ClinicHandler maneja las peticiones HTTP de sedes (protegido).
type ClinicHandler struct {
	uc *usecase.ClinicUseCase
}

// NewClinicHandler construye el handler.
func NewClinicHandler(uc *usecase.ClinicUseCase) *ClinicHandler {
	return &ClinicHandler{uc: uc}
}

// Create godoc
// @Summary      Crear sede
// @Tags         clinics
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateClinicRequest  true  "Datos de la sede"
// @Success      201   {object}  dto.ClinicResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/clinics [post]
func (h *ClinicHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateClinicRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if in.Name == "" || in.Code == "" {
		return validation(c, "code y name son requeridos")
	}
	out, err := h.uc.Create(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener sede por ID
// @Tags         clinics
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la sede"
// @Success      200  {object}  dto.ClinicResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/clinics/{id} [get]
func (h *ClinicHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func (h *ClinicHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"items": out})
}
