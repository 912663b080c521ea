package controllers

import (
	"github.com/crisvard/kitoai-booking/db"
	"github.com/crisvard/kitoai-booking/models"
	"github.com/gofiber/fiber/v2"
)

// GetCommissionRules lists the configured commission rules, optionally
// filtered by professional.
func GetCommissionRules(c *fiber.Ctx) error {
	var rules []models.ProfessionalCommission
	query := db.DB
	if professionalID := c.QueryInt("professional_id"); professionalID > 0 {
		query = query.Where("professional_id = ?", professionalID)
	}
	if err := query.Find(&rules).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(rules)
}

// CreateCommissionRule configures how much of a service's price a
// professional earns.
func CreateCommissionRule(c *fiber.Ctx) error {
	rule := new(models.ProfessionalCommission)
	if err := c.BodyParser(rule); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if rule.Type != models.CommissionFixed && rule.Type != models.CommissionPercentage {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "type must be fixed or percentage",
		})
	}
	if err := db.DB.Create(rule).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(rule)
}

// DeleteCommissionRule removes a rule; affected pairs fall back to the
// default fixed amount.
func DeleteCommissionRule(c *fiber.Ctx) error {
	id := c.Params("id")
	var rule models.ProfessionalCommission
	if db.DB.First(&rule, id).RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Commission rule not found",
		})
	}
	db.DB.Delete(&rule)
	return c.SendStatus(fiber.StatusNoContent)
}

// GetCommissionRecords lists settled commissions, optionally filtered by
// professional or appointment.
func GetCommissionRecords(c *fiber.Ctx) error {
	var records []models.CommissionRecord
	query := db.DB
	if professionalID := c.QueryInt("professional_id"); professionalID > 0 {
		query = query.Where("professional_id = ?", professionalID)
	}
	if appointmentID := c.QueryInt("appointment_id"); appointmentID > 0 {
		query = query.Where("appointment_id = ?", appointmentID)
	}
	if err := query.Order("created_at desc").Find(&records).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(records)
}
