package routes

import (
	"github.com/gofiber/fiber/v2"

	"invoicing-backend/controllers"
	"invoicing-backend/middlewares"
)

// Register wires all HTTP routes.
func Register(app *fiber.App) {
	api := app.Group("/api")

	// Public auth endpoints
	api.Post("/registration", controllers.Register)
	api.Post("/login", controllers.Login)
	api.Post("/logout", controllers.Logout)

	// Protected endpoints (JWT auth)
	protected := api.Group("")
	protected.Use(middlewares.IsAuthenticatedHeader())

	// Idempotency guard FIRST (not tied to request TX)
	protected.Use(middlewares.Idempotency())

	// Then per-request transaction (commits/rolls back around the handler)
	protected.Use(middlewares.RequestTx())

	// Clients
	protected.Post("/client", controllers.CreateClient)
	protected.Get("/clients", controllers.GetClients)
	protected.Get("/client/:id", controllers.GetClient)
	protected.Put("/client/:id", controllers.UpdateClient)
	protected.Delete("/client/:id", controllers.DeleteClient)

	// Services (batch create)
	protected.Post("/service", controllers.CreateServices)
	protected.Get("/services", controllers.GetServices)
	protected.Get("/service/:id", controllers.GetService)
	protected.Put("/services/:id", controllers.UpdateService)
	protected.Delete("/services/:id", controllers.DeleteService)

	// Invoices
	protected.Post("/invoice", controllers.CreateInvoice)
	protected.Get("/invoices", controllers.GetInvoices)
	protected.Get("/invoice/:id", controllers.GetInvoice)
	protected.Put("/invoices/:id", controllers.UpdateInvoice)
	protected.Delete("/invoices/:id", controllers.DeleteInvoice)
	protected.Post("/invoices/:id/recalculate", controllers.RecalculateInvoice)
	protected.Post("/invoices/:id/pdf", controllers.ExportInvoicePDF)
	protected.Get("/invoices/:id/pdf/:fileID", controllers.DownloadInvoicePDF)

	// Settings singleton
	protected.Get("/settings", controllers.GetSettings)
	protected.Put("/settings", controllers.UpdateSettings)
}
