package db

import (
	"fmt"
	"log"

	"github.com/crisvard/kitoai-booking/models"
)

func Migrate() {
	if DB == nil {
		Init()
	}

	// Run AutoMigrate only when explicitly called
	err := DB.AutoMigrate(
		&models.Professional{},
		&models.WorkingHours{},
		&models.Service{},
		&models.Customer{},
		&models.Appointment{},
		&models.AppointmentService{},
		&models.Package{},
		&models.PackageService{},
		&models.CustomerPackage{},
		&models.CustomerPackageService{},
		&models.ProfessionalCommission{},
		&models.CommissionRecord{},
	)
	if err != nil {
		log.Fatal("Failed to run migrations: ", err)
	}

	fmt.Println("✅ Migrations applied successfully!")
}
