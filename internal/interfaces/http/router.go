package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"github.com/jhoicas/remisiones-api/internal/application/billing"
	"github.com/jhoicas/remisiones-api/internal/application/inventory"
	"github.com/jhoicas/remisiones-api/internal/application/remission"
	"github.com/jhoicas/remisiones-api/internal/application/usecase"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ProductUC     *usecase.ProductUseCase
	SupplierUC    *usecase.SupplierUseCase
	ClientUC      *usecase.ClientUseCase
	ReceiptUC     *inventory.ReceiptUseCase
	AdjustmentUC  *inventory.AdjustmentUseCase
	LedgerQueryUC *inventory.LedgerQueryUseCase
	ShipmentUC    *remission.ShipmentUseCase
	InvoiceUC     *billing.InvoiceUseCase
	PaymentUC     *billing.PaymentUseCase
	JWTSecret     string
	ServiceName   string
	// Ping verifica la base de datos para /health; nil = siempre ok.
	Ping func(ctx context.Context) error
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))

	app.Get("/health", func(c *fiber.Ctx) error {
		if deps.Ping != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := deps.Ping(ctx); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "down", "service": deps.ServiceName})
			}
		}
		return c.JSON(fiber.Map{"status": "ok", "service": deps.ServiceName})
	})

	// Todas las rutas de la API requieren Bearer Token; admin pasa cualquier RequireRole.
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))
	almacen := RequireRole(RoleAlmacen)
	ventas := RequireRole(RoleVentas)
	cobranza := RequireRole(RoleCobranza)

	catalog := NewCatalogHandler(deps.ProductUC, deps.SupplierUC, deps.ClientUC)
	api.Post("/products", almacen, catalog.CreateProduct)
	api.Get("/products", catalog.ListProducts)
	api.Get("/products/:id", catalog.GetProduct)
	api.Post("/suppliers", almacen, catalog.CreateSupplier)
	api.Post("/clients", RequireRole(RoleVentas, RoleCobranza), catalog.CreateClient)

	inv := NewInventoryHandler(deps.ReceiptUC, deps.AdjustmentUC, deps.LedgerQueryUC)
	receipts := api.Group("/receipts")
	receipts.Post("/", almacen, inv.CreateReceipt)
	receipts.Get("/", inv.ListReceipts)
	receipts.Get("/:id", inv.GetReceipt)
	receipts.Put("/:id", almacen, inv.UpdateReceipt)
	receipts.Delete("/:id", almacen, inv.DeleteReceipt)

	ledger := api.Group("/inventory")
	ledger.Post("/adjustments", almacen, inv.Adjust)
	ledger.Get("/movements", inv.ListMovements)
	ledger.Get("/reconciliation", almacen, inv.Reconcile)
	ledger.Get("/kardex/:file", inv.ExportKardex)

	rem := NewRemissionHandler(deps.ShipmentUC, deps.InvoiceUC)
	remissions := api.Group("/remissions")
	remissions.Post("/", ventas, rem.Create)
	remissions.Get("/", rem.List)
	remissions.Get("/:id", rem.GetByID)
	remissions.Put("/:id/lines/:lineId", ventas, rem.UpdateLine)
	remissions.Delete("/:id", ventas, rem.Delete)
	remissions.Post("/:id/invoice", cobranza, rem.Invoice)

	pay := NewPaymentHandler(deps.PaymentUC)
	payments := api.Group("/payments", cobranza)
	payments.Post("/", pay.Create)
	payments.Get("/", pay.List)
	payments.Get("/:id", pay.GetByID)
	payments.Delete("/allocations/:id", pay.DeleteAllocation)
	payments.Delete("/:id", pay.Delete)
}
