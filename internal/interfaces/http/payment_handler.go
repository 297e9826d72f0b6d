package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/remisiones-api/internal/application/billing"
	"github.com/jhoicas/remisiones-api/internal/application/dto"
)

// PaymentHandler pagos de clientes y sus asignaciones.
type PaymentHandler struct {
	uc *billing.PaymentUseCase
}

// NewPaymentHandler construye el handler.
func NewPaymentHandler(uc *billing.PaymentUseCase) *PaymentHandler {
	return &PaymentHandler{uc: uc}
}

// Create godoc
// @Summary      Registrar pago y repartirlo entre remisiones
// @Description  Se cubre cada remisión en el orden dado; el sobrante queda en la última.
// @Tags         payments
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreatePaymentRequest  true  "Pago"
// @Success      201   {object}  dto.PaymentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/payments [post]
func (h *PaymentHandler) Create(c *fiber.Ctx) error {
	var in dto.CreatePaymentRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	out, err := h.uc.Allocate(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener pago
// @Tags         payments
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del pago"
// @Success      200  {object}  dto.PaymentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/payments/{id} [get]
func (h *PaymentHandler) GetByID(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badID(c, "id")
	}
	out, err := h.uc.GetByID(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Pagos de un cliente
// @Tags         payments
// @Security     Bearer
// @Produce      json
// @Param        client_id  query  int  true   "Cliente"
// @Param        limit      query  int  false  "Límite"  default(20)
// @Param        offset     query  int  false  "Offset"  default(0)
// @Success      200  {object}  dto.PaymentListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/payments [get]
func (h *PaymentHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.ListByClient(c.UserContext(), int64(c.QueryInt("client_id", 0)), page(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar pago con todas sus asignaciones
// @Tags         payments
// @Security     Bearer
// @Param        id   path  int  true  "ID del pago"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/payments/{id} [delete]
func (h *PaymentHandler) Delete(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badID(c, "id")
	}
	if err := h.uc.Delete(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DeleteAllocation godoc
// @Summary      Eliminar una asignación de pago
// @Description  Reduce el monto del pago; si era su última asignación se elimina el pago.
// @Tags         payments
// @Security     Bearer
// @Param        id   path  int  true  "ID de la asignación"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/payments/allocations/{id} [delete]
func (h *PaymentHandler) DeleteAllocation(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badID(c, "id")
	}
	if err := h.uc.DeleteAllocation(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
