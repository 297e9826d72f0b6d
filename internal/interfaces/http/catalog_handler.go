package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/remisiones-api/internal/application/dto"
	"github.com/jhoicas/remisiones-api/internal/application/usecase"
)

// CatalogHandler productos, proveedores y clientes.
type CatalogHandler struct {
	products  *usecase.ProductUseCase
	suppliers *usecase.SupplierUseCase
	clients   *usecase.ClientUseCase
}

// NewCatalogHandler construye el handler.
func NewCatalogHandler(p *usecase.ProductUseCase, s *usecase.SupplierUseCase, cl *usecase.ClientUseCase) *CatalogHandler {
	return &CatalogHandler{products: p, suppliers: s, clients: cl}
}

// CreateProduct godoc
// @Summary      Crear producto
// @Tags         products
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateProductRequest  true  "Datos del producto"
// @Success      201   {object}  dto.ProductResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/products [post]
func (h *CatalogHandler) CreateProduct(c *fiber.Ctx) error {
	var in dto.CreateProductRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	out, err := h.products.Create(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetProduct godoc
// @Summary      Obtener producto por ID
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del producto"
// @Success      200  {object}  dto.ProductResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id} [get]
func (h *CatalogHandler) GetProduct(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badID(c, "id")
	}
	out, err := h.products.GetByID(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ListProducts godoc
// @Summary      Listar productos con su stock
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Límite"  default(20)
// @Param        offset  query  int  false  "Offset"  default(0)
// @Success      200     {object}  dto.ProductListResponse
// @Router       /api/products [get]
func (h *CatalogHandler) ListProducts(c *fiber.Ctx) error {
	out, err := h.products.List(c.UserContext(), page(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// CreateSupplier godoc
// @Summary      Registrar proveedor
// @Tags         suppliers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateSupplierRequest  true  "Proveedor"
// @Success      201   {object}  dto.SupplierResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/suppliers [post]
func (h *CatalogHandler) CreateSupplier(c *fiber.Ctx) error {
	var in dto.CreateSupplierRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	out, err := h.suppliers.Create(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// CreateClient godoc
// @Summary      Registrar cliente (receptor del CFDI)
// @Tags         clients
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateClientRequest  true  "Cliente"
// @Success      201   {object}  dto.ClientResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/clients [post]
func (h *CatalogHandler) CreateClient(c *fiber.Ctx) error {
	var in dto.CreateClientRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	out, err := h.clients.Create(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}
