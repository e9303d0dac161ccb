package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/inventario-engine/internal/application/adjustment"
	"github.com/jhoicas/inventario-engine/internal/application/control"
	"github.com/jhoicas/inventario-engine/internal/application/inventory"
	"github.com/jhoicas/inventario-engine/internal/application/production"
	"github.com/jhoicas/inventario-engine/internal/application/transfer"
	"github.com/rs/zerolog"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ledger      *inventory.StockLedger
	Receipts    *inventory.ReceiptUseCase
	LowStock    *inventory.LowStockUseCase
	Recipes     *production.RecipeEngine
	Orders      *production.OrderManager
	Transfers   *transfer.Manager
	Sessions    *control.SessionManager
	Adjustments *adjustment.Authorization
	JWTSecret   string
	Log         zerolog.Logger
}

// Router registra las rutas de la API. Todas requieren Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api", AuthMiddleware(deps.JWTSecret), RequestLogger(deps.Log))

	inv := NewInventoryHandler(deps.Ledger, deps.Receipts, deps.LowStock)
	api.Get("/branches/:id/stock", inv.ListByBranch)
	api.Get("/branches/:id/low-stock", inv.GetLowStock)
	api.Get("/stock/:branch/:product", inv.GetQuantity)
	api.Post("/stock/initialize", inv.Initialize)
	api.Post("/receipts", inv.Receive)
	api.Get("/movements", inv.ListMovements)

	prod := NewProductionHandler(deps.Recipes, deps.Orders)
	api.Post("/recipes", prod.CreateRecipe)
	api.Get("/recipes/:id", prod.GetRecipe)
	api.Post("/recipes/:id/requirements", prod.Requirements)
	orders := api.Group("/production-orders")
	orders.Post("/", prod.CreateOrder)
	orders.Get("/:id", prod.GetOrder)
	orders.Post("/:id/start", prod.StartOrder)
	orders.Post("/:id/complete", prod.CompleteOrder)
	orders.Post("/:id/cancel", prod.CancelOrder)

	tr := NewTransferHandler(deps.Transfers)
	transfers := api.Group("/transfers")
	transfers.Post("/", tr.Create)
	transfers.Get("/pending", tr.ListPending)
	transfers.Get("/:id", tr.Get)
	transfers.Post("/:id/approve", tr.Approve)
	transfers.Post("/:id/reject", tr.Reject)

	ctl := NewControlHandler(deps.Sessions, deps.Adjustments)
	sessions := api.Group("/control-sessions")
	sessions.Post("/", ctl.Open)
	sessions.Get("/:id", ctl.Get)
	sessions.Put("/:id/counts", ctl.RecordCount)
	sessions.Post("/:id/finalize", ctl.Finalize)

	adjustments := api.Group("/adjustments")
	adjustments.Get("/pending", ctl.ListPendingAdjustments)
	adjustments.Get("/:id", ctl.GetAdjustment)
	adjustments.Post("/:id/authorize", ctl.AuthorizeAdjustment)
	adjustments.Post("/:id/reject", ctl.RejectAdjustment)
}
