package controllers

import (
	"github.com/crisvard/kitoai-booking/db"
	"github.com/crisvard/kitoai-booking/models"
	"github.com/gofiber/fiber/v2"
)

// GetAllWorkingHours retrieves all working hours from the database

func GetAllWorkingHours(c *fiber.Ctx) error {
	var workingHours []models.WorkingHours
	query := db.DB
	if professionalID := c.QueryInt("professional_id"); professionalID > 0 {
		query = query.Where("professional_id = ?", professionalID)
	}
	if err := query.Find(&workingHours).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get working hours",
		})
	}
	return c.JSON(workingHours)
}

// GetWorkingHour retrieves a specific working hour by ID
func GetWorkingHour(c *fiber.Ctx) error {
	id := c.Params("id")
	var workingHour models.WorkingHours
	if err := db.DB.First(&workingHour, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Working hour not found",
		})
	}
	return c.JSON(workingHour)
}

// CreateWorkingHour creates a new working hour
func CreateWorkingHour(c *fiber.Ctx) error {
	workingHour := new(models.WorkingHours)
	if err := c.BodyParser(workingHour); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to parse request body",
		})
	}
	if err := db.DB.Create(workingHour).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create working hour",
		})
	}
	return c.JSON(workingHour)
}

// UpdateWorkingHour updates an existing working hour
func UpdateWorkingHour(c *fiber.Ctx) error {
	id := c.Params("id")
	var workingHour models.WorkingHours
	if err := db.DB.First(&workingHour, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Working hour not found",
		})
	}
	if err := c.BodyParser(&workingHour); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to parse request body",
		})
	}
	if err := db.DB.Save(&workingHour).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update working hour",
		})
	}
	return c.JSON(workingHour)
}

// DeleteWorkingHour deletes a working hour by ID
func DeleteWorkingHour(c *fiber.Ctx) error {
	id := c.Params("id")
	var workingHour models.WorkingHours
	if err := db.DB.First(&workingHour, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Working hour not found",
		})
	}
	if err := db.DB.Delete(&workingHour).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete working hour",
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
