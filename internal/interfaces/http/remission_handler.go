package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/remisiones-api/internal/application/billing"
	"github.com/jhoicas/remisiones-api/internal/application/dto"
	"github.com/jhoicas/remisiones-api/internal/application/remission"
)

// RemissionHandler remisiones y su facturación.
type RemissionHandler struct {
	shipments *remission.ShipmentUseCase
	invoices  *billing.InvoiceUseCase
}

// NewRemissionHandler construye el handler.
func NewRemissionHandler(s *remission.ShipmentUseCase, inv *billing.InvoiceUseCase) *RemissionHandler {
	return &RemissionHandler{shipments: s, invoices: inv}
}

// Create godoc
// @Summary      Crear remisión
// @Description  Las líneas inválidas se reportan en errors y no afectan el stock. Si ninguna línea es válida responde 400 con el detalle por línea.
// @Tags         remissions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateShipmentRequest  true  "Remisión"
// @Success      201   {object}  dto.ShipmentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/remissions [post]
func (h *RemissionHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateShipmentRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	out, err := h.shipments.Create(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener remisión
// @Tags         remissions
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID de la remisión"
// @Success      200  {object}  dto.ShipmentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/remissions/{id} [get]
func (h *RemissionHandler) GetByID(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badID(c, "id")
	}
	out, err := h.shipments.GetByID(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar remisiones
// @Tags         remissions
// @Security     Bearer
// @Produce      json
// @Param        client_id  query  int   false  "Cliente"
// @Param        is_paid    query  bool  false  "Pagada"
// @Param        invoiced   query  bool  false  "Facturada"
// @Param        limit      query  int   false  "Límite"  default(20)
// @Param        offset     query  int   false  "Offset"  default(0)
// @Success      200  {object}  dto.ShipmentListResponse
// @Router       /api/remissions [get]
func (h *RemissionHandler) List(c *fiber.Ctx) error {
	in := dto.ShipmentListRequest{PageRequest: page(c), ClientID: int64(c.QueryInt("client_id", 0))}
	var err error
	if in.IsPaid, err = queryBool(c, "is_paid"); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	if in.Invoiced, err = queryBool(c, "invoiced"); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	out, err := h.shipments.List(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// UpdateLine godoc
// @Summary      Editar línea de remisión
// @Description  El cambio de cajas se registra en el libro y se recalculan totales y estado de pago.
// @Tags         remissions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id      path  int                            true  "ID de la remisión"
// @Param        lineId  path  int                            true  "ID de la línea"
// @Param        body    body  dto.UpdateShipmentLineRequest  true  "Línea"
// @Success      200  {object}  dto.ShipmentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/remissions/{id}/lines/{lineId} [put]
func (h *RemissionHandler) UpdateLine(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badID(c, "id")
	}
	lineID, ok := paramID(c, "lineId")
	if !ok {
		return badID(c, "lineId")
	}
	var in dto.UpdateShipmentLineRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	out, err := h.shipments.UpdateLine(c.UserContext(), id, lineID, GetUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar remisión (devuelve el stock)
// @Tags         remissions
// @Security     Bearer
// @Param        id   path  int  true  "ID de la remisión"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/remissions/{id} [delete]
func (h *RemissionHandler) Delete(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badID(c, "id")
	}
	if err := h.shipments.Delete(c.UserContext(), id, GetUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Invoice godoc
// @Summary      Timbrar CFDI de la remisión
// @Description  Requiere la remisión pagada por completo. A lo sumo un folio por remisión.
// @Tags         remissions
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID de la remisión"
// @Success      201  {object}  dto.InvoiceResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Failure      504  {object}  dto.ErrorResponse
// @Router       /api/remissions/{id}/invoice [post]
func (h *RemissionHandler) Invoice(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badID(c, "id")
	}
	out, err := h.invoices.Issue(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}
