package routes

import (
	"github.com/crisvard/kitoai-booking/controllers"
	"github.com/crisvard/kitoai-booking/middleware"
	"github.com/gofiber/fiber/v2"
)

// SetupAppointmentRoutes configures all appointment related routes
func SetupAppointmentRoutes(app *fiber.App) {
	appointment := app.Group("/appointments", middleware.Protected())
	appointment.Get("/", controllers.GetAllAppointments)
	appointment.Get("/:id", controllers.GetAppointment)
	appointment.Post("/check-conflict", controllers.CheckConflict)
	appointment.Post("/confirm-override", controllers.ConfirmOverride)
	appointment.Post("/", controllers.CreateAppointment)
	appointment.Put("/:id/reschedule", controllers.RescheduleAppointment)
	appointment.Patch("/:id/status", controllers.UpdateAppointmentStatus)
	appointment.Delete("/:id", controllers.DeleteAppointment)

	app.Get("/professionals/:id/slots", middleware.Protected(), controllers.GetSlots)
}
