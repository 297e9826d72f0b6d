package http

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/remisiones-api/internal/application/dto"
	"github.com/jhoicas/remisiones-api/internal/application/inventory"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// InventoryHandler entradas de inventario, ajustes y consultas del libro.
type InventoryHandler struct {
	receipts    *inventory.ReceiptUseCase
	adjustments *inventory.AdjustmentUseCase
	ledger      *inventory.LedgerQueryUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(r *inventory.ReceiptUseCase, a *inventory.AdjustmentUseCase, l *inventory.LedgerQueryUseCase) *InventoryHandler {
	return &InventoryHandler{receipts: r, adjustments: a, ledger: l}
}

// CreateReceipt godoc
// @Summary      Registrar entrada de inventario
// @Description  Cada línea suma sus cajas al stock con un movimiento ENTRY.
// @Tags         receipts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateReceiptRequest  true  "Entrada"
// @Success      201   {object}  dto.ReceiptResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/receipts [post]
func (h *InventoryHandler) CreateReceipt(c *fiber.Ctx) error {
	var in dto.CreateReceiptRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	out, err := h.receipts.Create(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// UpdateReceipt godoc
// @Summary      Reemplazar las líneas de una entrada
// @Description  Las diferencias de cajas se registran como movimientos ADJUSTMENT.
// @Tags         receipts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int                       true  "ID de la entrada"
// @Param        body  body  dto.CreateReceiptRequest  true  "Entrada"
// @Success      200   {object}  dto.ReceiptResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/receipts/{id} [put]
func (h *InventoryHandler) UpdateReceipt(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badID(c, "id")
	}
	var in dto.CreateReceiptRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	out, err := h.receipts.Update(c.UserContext(), id, GetUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// DeleteReceipt godoc
// @Summary      Eliminar entrada (revierte su stock)
// @Tags         receipts
// @Security     Bearer
// @Param        id   path  int  true  "ID de la entrada"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/receipts/{id} [delete]
func (h *InventoryHandler) DeleteReceipt(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badID(c, "id")
	}
	if err := h.receipts.Delete(c.UserContext(), id, GetUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetReceipt godoc
// @Summary      Obtener entrada
// @Tags         receipts
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID de la entrada"
// @Success      200  {object}  dto.ReceiptResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/receipts/{id} [get]
func (h *InventoryHandler) GetReceipt(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badID(c, "id")
	}
	out, err := h.receipts.GetByID(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ListReceipts godoc
// @Summary      Listar entradas
// @Tags         receipts
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Límite"  default(20)
// @Param        offset  query  int  false  "Offset"  default(0)
// @Success      200     {object}  dto.ReceiptListResponse
// @Router       /api/receipts [get]
func (h *InventoryHandler) ListReceipts(c *fiber.Ctx) error {
	out, err := h.receipts.List(c.UserContext(), page(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Adjust godoc
// @Summary      Ajuste manual de existencias
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustmentRequest  true  "Ajuste"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/inventory/adjustments [post]
func (h *InventoryHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustmentRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	out, err := h.adjustments.Adjust(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListMovements godoc
// @Summary      Libro de movimientos de un producto
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id  query  int     true   "ID del producto"
// @Param        from        query  string  false  "Desde (RFC3339 o AAAA-MM-DD)"
// @Param        to          query  string  false  "Hasta, exclusivo (RFC3339 o AAAA-MM-DD)"
// @Param        limit       query  int     false  "Límite"  default(20)
// @Param        offset      query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	filter, err := movementFilter(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	out, err := h.ledger.ListMovements(c.UserContext(), filter, page(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Reconcile godoc
// @Summary      Conciliación stock vs libro
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.ReconciliationResponse
// @Router       /api/inventory/reconciliation [get]
func (h *InventoryHandler) Reconcile(c *fiber.Ctx) error {
	out, err := h.ledger.Reconcile(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ExportKardex godoc
// @Summary      Kardex del producto en Excel
// @Tags         inventory
// @Security     Bearer
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        file  path   string  true   "ID del producto con extensión, p. ej. 7.xlsx"
// @Param        from  query  string  false  "Desde"
// @Param        to    query  string  false  "Hasta, exclusivo"
// @Success      200
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/kardex/{file} [get]
func (h *InventoryHandler) ExportKardex(c *fiber.Ctx) error {
	productID, err := strconv.ParseInt(strings.TrimSuffix(c.Params("file"), ".xlsx"), 10, 64)
	if err != nil || productID <= 0 {
		return badID(c, "productId")
	}
	from, err := queryTime(c, "from")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	to, err := queryTime(c, "to")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	var buf bytes.Buffer
	if err := h.ledger.ExportKardex(c.UserContext(), productID, from, to, &buf); err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=kardex-%d.xlsx", productID))
	return c.Send(buf.Bytes())
}

func movementFilter(c *fiber.Ctx) (dto.MovementFilter, error) {
	var f dto.MovementFilter
	id, err := strconv.ParseInt(c.Query("product_id"), 10, 64)
	if err != nil || id <= 0 {
		return f, errors.New("product_id es requerido")
	}
	f.ProductID = id
	if f.From, err = queryTime(c, "from"); err != nil {
		return f, err
	}
	if f.To, err = queryTime(c, "to"); err != nil {
		return f, err
	}
	return f, nil
}

// queryTime acepta RFC3339 o fecha AAAA-MM-DD (medianoche UTC).
func queryTime(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%s: fecha inválida %q", key, raw)
}
