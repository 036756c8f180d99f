package routes

import (
	"github.com/gofiber/fiber/v2"

	"salestracker-backend/controllers"
	"salestracker-backend/middlewares"
)

// Register wires all HTTP routes.
func Register(app *fiber.App) {
	// Public auth endpoints
	app.Post("/registration", controllers.Register)
	app.Post("/login", controllers.Login)
	app.Post("/logout", controllers.Logout)

	// Protected endpoints (JWT auth)
	protected := app.Group("")
	protected.Use(middlewares.IsAuthenticatedHeader())

	// Idempotency guard FIRST (not tied to request TX)
	protected.Use(middlewares.Idempotency())

	// Then per-request transaction (commits/rolls back around the handler)
	protected.Use(middlewares.RequestTx())

	// Catalog
	protected.Post("/category/", controllers.CreateCategory)
	protected.Post("/article/", controllers.CreateArticle)
	protected.Get("/articles", controllers.GetArticles)

	// Sale ledger
	protected.Get("/sale/", controllers.ListSales)
	protected.Post("/sale/", controllers.CreateSale)
	protected.Patch("/sale/:id", controllers.UpdateSale)
	protected.Delete("/sale/:id", controllers.DeleteSale)

	// Aggregated report
	protected.Get("/sale_by_article", controllers.SalesByArticle)
}
