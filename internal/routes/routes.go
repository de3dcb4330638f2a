// Package routes defines the API routing configuration.
// It sets up all HTTP routes and their corresponding handlers,
// including middleware and authentication requirements.
package routes

import (
	"net/http"

	"walletd/internal/handlers"
	"walletd/internal/middleware"
	"walletd/internal/models"
	"walletd/internal/services/wallet"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

// Dependencies are the collaborators the routes are wired to.
type Dependencies struct {
	Registry       *wallet.Registry
	Auth           *middleware.AuthMiddleware
	Store          handlers.Pinger
	StoreDriver    string
	MetricsHandler http.Handler
}

// SetupRoutes configures all application routes.
// It groups routes by functionality and applies appropriate middleware.
func SetupRoutes(app *fiber.App, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler(deps.Store, deps.StoreDriver)
	walletHandler := handlers.NewWalletHandler(deps.Registry)

	// Public routes
	app.Get("/health", healthHandler.HealthCheck)
	if deps.MetricsHandler != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.MetricsHandler))
	}

	// Wallet routes
	api := app.Group("/api", deps.Auth.Handler)
	w := api.Group("/wallet")
	w.Get("/", middleware.HasPermission(models.PermissionWalletRead), walletHandler.GetWallet)
	w.Get("/enough", middleware.HasPermission(models.PermissionWalletRead), walletHandler.HasEnough)
	w.Post("/topup", middleware.HasPermission(models.PermissionWalletWrite), walletHandler.TopUp)
	w.Post("/funds", middleware.HasPermission(models.PermissionWalletWrite), walletHandler.AddFunds)
	w.Post("/deduct", middleware.HasPermission(models.PermissionWalletWrite), walletHandler.Deduct)
}
