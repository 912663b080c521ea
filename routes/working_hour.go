package routes

import (
	"github.com/crisvard/kitoai-booking/controllers"
	"github.com/crisvard/kitoai-booking/middleware"
	"github.com/gofiber/fiber/v2"
)

// SetupWorkingHourRoutes configures all working hour related routes
func SetupWorkingHourRoutes(app *fiber.App) {
	workingHour := app.Group("/working-hours")
	workingHour.Get("/", controllers.GetAllWorkingHours)
	workingHour.Get("/:id", controllers.GetWorkingHour)
	workingHour.Post("/", middleware.Protected(), controllers.CreateWorkingHour)
	workingHour.Patch("/:id", middleware.Protected(), controllers.UpdateWorkingHour)
	workingHour.Delete("/:id", middleware.Protected(), controllers.DeleteWorkingHour)
}
