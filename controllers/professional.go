package controllers

import (
	"github.com/crisvard/kitoai-booking/db"
	"github.com/crisvard/kitoai-booking/middleware"
	"github.com/crisvard/kitoai-booking/models"
	"github.com/gofiber/fiber/v2"
)

// GetAllProfessionals returns the tenant's professionals
func GetAllProfessionals(c *fiber.Ctx) error {
	ident := middleware.Identity(c)
	var professionals []models.Professional
	query := db.DB.Preload("WorkingHours")
	if ident.UserID != 0 {
		query = query.Where("user_id = ?", ident.UserID)
	}
	if err := query.Find(&professionals).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(professionals)
}

func GetProfessional(c *fiber.Ctx) error {
	id := c.Params("id")
	var professional models.Professional
	if err := db.DB.Preload("WorkingHours").First(&professional, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Professional not found",
		})
	}
	return c.JSON(professional)
}

// CreateProfessional creates a new professional
func CreateProfessional(c *fiber.Ctx) error {
	ident := middleware.Identity(c)
	professional := new(models.Professional)
	if err := c.BodyParser(professional); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	professional.IsActive = true
	professional.UserID = ident.UserID
	professional.FranchiseID = ident.FranchiseID
	if err := db.DB.Create(professional).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(professional)
}

// UpdateProfessional updates a professional
func UpdateProfessional(c *fiber.Ctx) error {
	id := c.Params("id")
	var professional models.Professional
	if err := db.DB.First(&professional, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Professional not found",
		})
	}
	if err := c.BodyParser(&professional); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if err := db.DB.Save(&professional).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(professional)
}

// DeleteProfessional deletes a professional
func DeleteProfessional(c *fiber.Ctx) error {
	id := c.Params("id")
	var professional models.Professional
	if db.DB.First(&professional, id).RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Professional not found",
		})
	}
	db.DB.Delete(&professional)
	return c.SendStatus(fiber.StatusNoContent)
}
