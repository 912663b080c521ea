package routes

import (
	"github.com/crisvard/kitoai-booking/controllers"
	"github.com/crisvard/kitoai-booking/middleware"
	"github.com/gofiber/fiber/v2"
)

// SetupCommissionRoutes configures commission rule and record routes
func SetupCommissionRoutes(app *fiber.App) {
	commission := app.Group("/commissions", middleware.Protected())
	commission.Get("/", controllers.GetCommissionRules)
	commission.Post("/", controllers.CreateCommissionRule)
	commission.Delete("/:id", controllers.DeleteCommissionRule)

	app.Get("/commission-records", middleware.Protected(), controllers.GetCommissionRecords)
}
