package routes

import (
	"github.com/crisvard/kitoai-booking/controllers"
	"github.com/crisvard/kitoai-booking/middleware"
	"github.com/gofiber/fiber/v2"
)

// SetupPackageRoutes configures package catalog and customer package routes
func SetupPackageRoutes(app *fiber.App) {
	pkg := app.Group("/packages", middleware.Protected())
	pkg.Get("/", controllers.GetAllPackages)
	pkg.Post("/", controllers.CreatePackage)
	pkg.Post("/sell", controllers.SellPackage)

	app.Get("/customers/:id/packages", middleware.Protected(), controllers.GetCustomerPackages)
	app.Post("/customer-package-services/:id/consume", middleware.Protected(), controllers.ConsumePackageSession)
}
