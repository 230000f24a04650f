package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/clinistock-api/internal/application/inventory"
	"github.com/jhoicas/clinistock-api/internal/application/purchasing"
	"github.com/jhoicas/clinistock-api/internal/application/usecase"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ItemCatalog   *usecase.ItemCatalog
	CategoryUC    *usecase.CategoryUseCase
	SupplierUC    *usecase.SupplierRegistry
	ClinicUC      *usecase.ClinicUseCase
	Ledger        *inventory.StockLedger
	Stock         *inventory.ClinicStockProjection
	Batches       *inventory.BatchTracker
	Replenishment *inventory.ReplenishmentUseCase
	Purchasing    *purchasing.PurchaseOrderWorkflow
	JWTSecret     string
}

// Router registra las rutas de la API. Todas requieren Bearer Token; las escrituras además un rol.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	admin := RequireRole(RoleAdmin)
	stockWriters := RequireRole(RoleAdmin, RoleBodeguero)
	buyers := RequireRole(RoleAdmin, RoleCompras)
	receivers := RequireRole(RoleAdmin, RoleBodeguero, RoleCompras)

	// Catálogo
	items := api.Group("/items")
	itemHandler := NewItemHandler(deps.ItemCatalog)
	items.Get("/", itemHandler.ListByCategory)
	items.Get("/:id", itemHandler.GetByID)
	items.Post("/", admin, itemHandler.Create)
	items.Put("/:id", admin, itemHandler.Update)
	items.Delete("/:id", admin, itemHandler.Deactivate)

	categories := api.Group("/categories")
	categoryHandler := NewCategoryHandler(deps.CategoryUC)
	categories.Get("/", categoryHandler.List)
	categories.Get("/:id", categoryHandler.GetByID)
	categories.Post("/", admin, categoryHandler.Create)
	categories.Put("/:id/parent", admin, categoryHandler.Reparent)

	// Proveedores y sedes
	suppliers := api.Group("/suppliers")
	supplierHandler := NewSupplierHandler(deps.SupplierUC)
	suppliers.Get("/", supplierHandler.List)
	suppliers.Get("/:id", supplierHandler.GetByID)
	suppliers.Post("/", buyers, supplierHandler.Create)
	suppliers.Put("/:id", buyers, supplierHandler.Update)
	suppliers.Post("/:id/deactivate", buyers, supplierHandler.Deactivate)

	clinics := api.Group("/clinics")
	clinicHandler := NewClinicHandler(deps.ClinicUC)
	clinics.Get("/", clinicHandler.List)
	clinics.Get("/:id", clinicHandler.GetByID)
	clinics.Post("/", admin, clinicHandler.Create)

	// Libro de stock
	inv := api.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.Ledger, deps.Stock, deps.Replenishment)
	inv.Post("/movements", stockWriters, inventoryHandler.RegisterMovement)
	inv.Get("/movements", inventoryHandler.ListMovements)
	inv.Get("/stock/:item_id/:clinic_id", inventoryHandler.GetStock)
	inv.Put("/stock/:item_id/:clinic_id", stockWriters, inventoryHandler.UpdateThresholds)
	inv.Get("/low-stock", inventoryHandler.ListLowStock)
	inv.Get("/replenishment-list", inventoryHandler.GetReplenishmentList)

	// Lotes
	batches := api.Group("/batches")
	batchHandler := NewBatchHandler(deps.Batches)
	batches.Post("/", stockWriters, batchHandler.Open)
	batches.Post("/sweep", admin, batchHandler.SweepExpirations)
	batches.Get("/items/:item_id", batchHandler.ListByItem)
	batches.Get("/items/:item_id/fefo", batchHandler.SelectFEFO)

	// Órdenes de compra
	orders := api.Group("/purchase-orders")
	orderHandler := NewPurchaseOrderHandler(deps.Purchasing)
	orders.Get("/", orderHandler.List)
	orders.Get("/:id", orderHandler.GetByID)
	orders.Get("/:id/pdf", orderHandler.Document)
	orders.Post("/", buyers, orderHandler.Create)
	orders.Post("/:id/lines", buyers, orderHandler.AddLine)
	orders.Post("/:id/send", buyers, orderHandler.Send)
	orders.Post("/:id/confirm", buyers, orderHandler.Confirm)
	orders.Post("/:id/cancel", buyers, orderHandler.Cancel)
	orders.Post("/:id/receive", receivers, orderHandler.Receive)
}
