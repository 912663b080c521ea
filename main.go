package main

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"

	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/crisvard/kitoai-booking/booking"
	"github.com/crisvard/kitoai-booking/controllers"
	"github.com/crisvard/kitoai-booking/cron"
	"github.com/crisvard/kitoai-booking/db"
	"github.com/crisvard/kitoai-booking/redis"
	"github.com/crisvard/kitoai-booking/routes"
)

func main() {
	app := fiber.New()
	db.Init()
	if os.Getenv("RUN_MIGRATIONS") == "true" {
		db.Migrate()
	}

	cfg := booking.DefaultConfig()

	var locker booking.Locker = booking.NewLocalLocker()
	if os.Getenv("REDIS_ADDR") != "" {
		if err := redis.InitRedis(); err != nil {
			log.Fatal(err)
		}
		locker = booking.NewRedisLocker(redis.Client, cfg.LockTimeout)
	}

	controllers.Init(booking.NewEngine(db.GetDB(), cfg, locker))

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Hello, World!")
	})
	routes.SetupAppointmentRoutes(app)
	routes.SetupCatalogRoutes(app)
	routes.SetupWorkingHourRoutes(app)
	routes.SetupPackageRoutes(app)
	routes.SetupCommissionRoutes(app)

	cron.StartCronJobs(cfg)

	if err := app.Listen(":8000"); err != nil {
		log.Fatal(err)
	}
}
