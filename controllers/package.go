package controllers

import (
	"errors"

	"github.com/crisvard/kitoai-booking/booking"
	"github.com/crisvard/kitoai-booking/db"
	"github.com/crisvard/kitoai-booking/middleware"
	"github.com/crisvard/kitoai-booking/models"
	"github.com/crisvard/kitoai-booking/utils"
	"github.com/gofiber/fiber/v2"
)

// GetAllPackages returns the tenant's package catalog
func GetAllPackages(c *fiber.Ctx) error {
	ident := middleware.Identity(c)
	var packages []models.Package
	query := db.DB.Preload("Services").Preload("Services.Service")
	if ident.UserID != 0 {
		query = query.Where("user_id = ?", ident.UserID)
	}
	if err := query.Find(&packages).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(packages)
}

// CreatePackage creates a package definition with its service grants
func CreatePackage(c *fiber.Ctx) error {
	ident := middleware.Identity(c)
	pkg := new(models.Package)
	if err := c.BodyParser(pkg); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	pkg.IsActive = true
	pkg.UserID = ident.UserID
	pkg.FranchiseID = ident.FranchiseID
	if err := db.DB.Create(pkg).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(pkg)
}

// SellPackage creates a CustomerPackage with one session counter per
// service the bundle grants.
func SellPackage(c *fiber.Ctx) error {
	ident := middleware.Identity(c)
	var body struct {
		PackageID      uint    `json:"package_id"`
		CustomerID     uint    `json:"customer_id"`
		Paid           bool    `json:"paid"`
		ExpirationDate *string `json:"expiration_date"` // "2006-01-02", optional
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	var pkg models.Package
	if err := db.DB.Preload("Services").First(&pkg, body.PackageID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Package not found",
		})
	}

	customerPackage := models.CustomerPackage{
		PackageID:   pkg.ID,
		CustomerID:  body.CustomerID,
		Paid:        body.Paid,
		UserID:      ident.UserID,
		FranchiseID: ident.FranchiseID,
	}
	if body.ExpirationDate != nil {
		exp, err := utils.ParseDateIn(Engine.Config().BusinessLocation, *body.ExpirationDate)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid expiration_date, expected YYYY-MM-DD",
			})
		}
		customerPackage.ExpirationDate = &exp
	}
	for _, grant := range pkg.Services {
		customerPackage.Services = append(customerPackage.Services, models.CustomerPackageService{
			ServiceID:         grant.ServiceID,
			SessionsRemaining: grant.Sessions,
		})
	}

	if err := db.DB.Create(&customerPackage).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(customerPackage)
}

// GetCustomerPackages lists a customer's purchases with their remaining
// session counters.
func GetCustomerPackages(c *fiber.Ctx) error {
	customerID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid customer id",
		})
	}
	var packages []models.CustomerPackage
	err = db.DB.Preload("Services").Preload("Services.Service").Preload("Package").
		Where("customer_id = ?", customerID).
		Find(&packages).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(packages)
}

// ConsumePackageSession decrements one session from a counter row. The
// decrement is conditional at the storage layer, so a zero counter
// answers 409 instead of going negative.
func ConsumePackageSession(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid customer package service id",
		})
	}
	if err := Engine.Ledger().Consume(uint(id)); err != nil {
		if errors.Is(err, booking.ErrSessionExhausted) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Package session no longer available",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"consumed": true})
}
