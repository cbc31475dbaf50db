package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/stockledger-api/internal/application/auth"
	"github.com/jhoicas/stockledger-api/internal/application/ledger"
	"github.com/jhoicas/stockledger-api/internal/application/possync"
	"github.com/jhoicas/stockledger-api/internal/application/production"
	"github.com/jhoicas/stockledger-api/internal/application/purchase"
	"github.com/jhoicas/stockledger-api/internal/application/sales"
	"github.com/jhoicas/stockledger-api/internal/application/stockcount"
	"github.com/jhoicas/stockledger-api/internal/application/transfer"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ledger           *ledger.Engine
	Transfers        *transfer.Workflow
	Purchases        *purchase.UseCase
	Sales            *sales.SaleUseCase
	Wholesale        *sales.WholesaleUseCase
	StockCounts      *stockcount.UseCase
	Repackaging      *production.RepackagingUseCase
	Recipes          *production.RecipeUseCase
	PosSync          *possync.Adapter
	PosQueue         PosSyncQueue // opcional
	AuthUC           *auth.AuthUseCase
	JWTSecret        string
	PosWebhookSecret string
	ExpiryAlertDays  int
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Rutas públicas: deben registrarse antes del grupo protegido.
	authHandler := NewAuthHandler(deps.AuthUC)
	api.Post("/auth/login", authHandler.Login)

	posHandler := NewPosHandler(deps.PosSync, deps.PosQueue, deps.PosWebhookSecret)
	api.Post("/pos/webhook", posHandler.Webhook)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	staff := RequireRole(entity.RoleAdmin, entity.RoleBodeguero)
	adminOnly := RequireRole(entity.RoleAdmin)

	protected.Post("/auth/register", adminOnly, authHandler.Register)

	inv := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.Ledger, deps.ExpiryAlertDays)
	inv.Get("/lots", inventoryHandler.Lots)
	inv.Get("/expiry-alerts", inventoryHandler.ExpiryAlerts)
	inv.Get("/transactions", inventoryHandler.Transactions)
	inv.Get("/summary", inventoryHandler.Summary)
	inv.Post("/stock-in", staff, inventoryHandler.StockIn)
	inv.Post("/stock-out", inventoryHandler.StockOut)
	inv.Post("/lot-stock-out", inventoryHandler.LotStockOut)
	inv.Post("/lot-move", staff, inventoryHandler.LotMove)
	inv.Post("/move", staff, inventoryHandler.Move)
	inv.Post("/adjust", staff, inventoryHandler.Adjust)
	inv.Post("/discard", staff, inventoryHandler.Discard)

	transfers := protected.Group("/transfers")
	transferHandler := NewTransferHandler(deps.Transfers)
	transfers.Post("/", staff, transferHandler.Create)
	transfers.Get("/", transferHandler.List)
	transfers.Get("/pending", transferHandler.Pending)
	transfers.Get("/:id", transferHandler.Get)
	transfers.Post("/:id/ship", staff, transferHandler.Ship)
	transfers.Post("/:id/receive", staff, transferHandler.Receive)
	transfers.Post("/:id/cancel", staff, transferHandler.Cancel)

	purchases := protected.Group("/purchases")
	purchaseHandler := NewPurchaseHandler(deps.Purchases)
	purchases.Post("/", staff, purchaseHandler.Create)
	purchases.Get("/", purchaseHandler.List)
	purchases.Get("/:id", purchaseHandler.Get)
	purchases.Put("/:id/items", staff, purchaseHandler.ReplaceItems)
	purchases.Post("/:id/receive", staff, purchaseHandler.Receive)
	purchases.Post("/:id/cancel", staff, purchaseHandler.Cancel)

	salesGroup := protected.Group("/sales")
	saleHandler := NewSaleHandler(deps.Sales)
	salesGroup.Post("/", saleHandler.Create)
	salesGroup.Get("/", saleHandler.List)
	salesGroup.Get("/:id", saleHandler.Get)
	salesGroup.Put("/:id/items", saleHandler.ReplaceItems)
	salesGroup.Post("/:id/confirm", saleHandler.Confirm)
	salesGroup.Post("/:id/cancel", saleHandler.Cancel)

	wholesale := protected.Group("/wholesale")
	wholesaleHandler := NewWholesaleHandler(deps.Wholesale)
	wholesale.Post("/clients", wholesaleHandler.CreateClient)
	wholesale.Put("/clients/:id/pricing", adminOnly, wholesaleHandler.SetPricing)
	wholesale.Get("/clients/:id/balance", wholesaleHandler.Balance)
	wholesale.Post("/orders", wholesaleHandler.CreateOrder)
	wholesale.Get("/orders", wholesaleHandler.ListOrders)
	wholesale.Get("/orders/:id", wholesaleHandler.GetOrder)
	wholesale.Post("/orders/:id/confirm", wholesaleHandler.Confirm)
	wholesale.Post("/orders/:id/ship", staff, wholesaleHandler.Ship)
	wholesale.Post("/orders/:id/deliver", wholesaleHandler.Deliver)
	wholesale.Post("/orders/:id/cancel", wholesaleHandler.Cancel)
	wholesale.Post("/orders/:id/payments", wholesaleHandler.RecordPayment)

	counts := protected.Group("/stock-counts")
	countHandler := NewStockCountHandler(deps.StockCounts)
	counts.Post("/", staff, countHandler.Create)
	counts.Get("/", countHandler.List)
	counts.Get("/:id", countHandler.Get)
	counts.Put("/:id/items", staff, countHandler.UpdateItems)
	counts.Post("/:id/approve", adminOnly, countHandler.Approve)

	productionHandler := NewProductionHandler(deps.Repackaging, deps.Recipes)
	repack := protected.Group("/repackaging")
	repack.Post("/rules", adminOnly, productionHandler.CreateRule)
	repack.Get("/rules", productionHandler.ListRules)
	repack.Post("/rules/:id/execute", staff, productionHandler.ExecuteRule)

	recipes := protected.Group("/recipes")
	recipes.Post("/", adminOnly, productionHandler.CreateRecipe)
	recipes.Get("/", productionHandler.ListRecipes)
	recipes.Get("/:id", productionHandler.GetRecipe)
	recipes.Get("/:id/cost", productionHandler.RecipeCost)
	recipes.Post("/:id/deduct", productionHandler.DeductRecipe)

	pos := protected.Group("/pos")
	pos.Post("/sync", adminOnly, posHandler.Sync)
	pos.Get("/status", posHandler.Status)
	pos.Get("/details", posHandler.Details)
}
