package routes

import (
	"github.com/crisvard/kitoai-booking/controllers"
	"github.com/crisvard/kitoai-booking/middleware"
	"github.com/gofiber/fiber/v2"
)

// SetupCatalogRoutes configures service and professional routes
func SetupCatalogRoutes(app *fiber.App) {
	service := app.Group("/services")
	service.Get("/", middleware.Protected(), controllers.GetAllServices)
	service.Get("/:id", controllers.GetService)
	service.Post("/", middleware.Protected(), controllers.CreateService)
	service.Patch("/:id", middleware.Protected(), controllers.UpdateService)
	service.Delete("/:id", middleware.Protected(), controllers.DeleteService)

	professional := app.Group("/professionals", middleware.Protected())
	professional.Get("/", controllers.GetAllProfessionals)
	professional.Get("/:id", controllers.GetProfessional)
	professional.Post("/", controllers.CreateProfessional)
	professional.Patch("/:id", controllers.UpdateProfessional)
	professional.Delete("/:id", controllers.DeleteProfessional)
}
