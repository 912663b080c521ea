package controllers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/crisvard/kitoai-booking/booking"
	"github.com/crisvard/kitoai-booking/db"
	"github.com/crisvard/kitoai-booking/middleware"
	"github.com/crisvard/kitoai-booking/models"
	"github.com/crisvard/kitoai-booking/utils"
	"github.com/gofiber/fiber/v2"
)

// appointmentRequest is the wire shape of a booking. Date and time are
// wall-clock strings in the business offset; the engine only ever sees
// the UTC instant they resolve to.
type appointmentRequest struct {
	ProfessionalID        uint                       `json:"professional_id"`
	CustomerID            uint                       `json:"customer_id"`
	CustomerName          string                     `json:"customer_name"`
	CustomerPhone         string                     `json:"customer_phone"`
	Services              []booking.ServiceSelection `json:"services"`
	Date                  string                     `json:"date"` // "2006-01-02"
	Time                  string                     `json:"time"` // "15:04"
	Notes                 string                     `json:"notes"`
	RequestToken          string                     `json:"request_token"`
	AcknowledgedConflicts []uint                     `json:"acknowledged_conflicts"`
}

func (r *appointmentRequest) toBookingRequest(cfg booking.Config) (booking.BookingRequest, error) {
	start, err := utils.ParseDateTimeIn(cfg.BusinessLocation, r.Date, r.Time)
	if err != nil {
		return booking.BookingRequest{}, err
	}
	return booking.BookingRequest{
		ProfessionalID: r.ProfessionalID,
		CustomerID:     r.CustomerID,
		CustomerName:   r.CustomerName,
		CustomerPhone:  r.CustomerPhone,
		Services:       r.Services,
		StartTime:      start,
		Notes:          r.Notes,
		RequestToken:   r.RequestToken,
	}, nil
}

// GetSlots returns the candidate start times for a professional on a
// date, each marked available against the requested services.
func GetSlots(c *fiber.Ctx) error {
	professionalID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Invalid professional id",
			Error:   err.Error(),
		})
	}
	date, err := utils.ParseDateIn(Engine.Config().BusinessLocation, c.Query("date"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Invalid date, expected YYYY-MM-DD",
			Error:   err.Error(),
		})
	}
	serviceIDs, err := parseIDList(c.Query("service_ids"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Invalid service_ids",
			Error:   err.Error(),
		})
	}

	slots, err := Engine.GenerateSlots(uint(professionalID), date, serviceIDs)
	if err != nil {
		if errors.Is(err, booking.ErrServiceNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(utils.ErrorResponse{
				Message: "Service not found",
				Error:   err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to generate slots",
			Error:   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"date":  c.Query("date"),
		"slots": slots,
	})
}

// CheckConflict reports the appointments a proposed window would collide
// with, without writing anything.
func CheckConflict(c *fiber.Ctx) error {
	var req struct {
		ProfessionalID       uint   `json:"professional_id"`
		ServiceIDs           []uint `json:"service_ids"`
		Date                 string `json:"date"`
		Time                 string `json:"time"`
		ExcludeAppointmentID uint   `json:"exclude_appointment_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Failed to parse request body",
			Error:   err.Error(),
		})
	}
	start, err := utils.ParseDateTimeIn(Engine.Config().BusinessLocation, req.Date, req.Time)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Invalid date or time",
			Error:   err.Error(),
		})
	}

	report, err := Engine.CheckConflict(req.ProfessionalID, start, req.ServiceIDs, req.ExcludeAppointmentID)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(fiber.Map{
		"has_conflict": len(report.Conflicts) > 0,
		"report":       report,
	})
}

// CreateAppointment books a new appointment. A detected conflict answers
// 409 with the full report; the caller confirms via ConfirmOverride.
func CreateAppointment(c *fiber.Ctx) error {
	var body appointmentRequest
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Failed to parse request body",
			Error:   err.Error(),
		})
	}
	req, err := body.toBookingRequest(Engine.Config())
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Invalid date or time",
			Error:   err.Error(),
		})
	}

	appt, report, err := Engine.CreateAppointment(c.UserContext(), middleware.Identity(c), req)
	if err != nil {
		return bookingError(c, err)
	}
	if report != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"conflict": true,
			"report":   report,
		})
	}
	return c.Status(fiber.StatusCreated).JSON(appt)
}

// ConfirmOverride commits a booking despite acknowledged conflicts. The
// engine re-validates; a changed agenda returns a fresh 409.
func ConfirmOverride(c *fiber.Ctx) error {
	var body appointmentRequest
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Failed to parse request body",
			Error:   err.Error(),
		})
	}
	req, err := body.toBookingRequest(Engine.Config())
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Invalid date or time",
			Error:   err.Error(),
		})
	}

	appt, report, err := Engine.ConfirmOverride(c.UserContext(), middleware.Identity(c), req, body.AcknowledgedConflicts)
	if err != nil {
		return bookingError(c, err)
	}
	if report != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"conflict": true,
			"report":   report,
		})
	}
	return c.Status(fiber.StatusCreated).JSON(appt)
}

// RescheduleAppointment moves an existing appointment to a new window
// and service selection.
func RescheduleAppointment(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Invalid appointment id",
			Error:   err.Error(),
		})
	}
	var body appointmentRequest
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Failed to parse request body",
			Error:   err.Error(),
		})
	}
	req, err := body.toBookingRequest(Engine.Config())
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Invalid date or time",
			Error:   err.Error(),
		})
	}

	appt, report, err := Engine.RescheduleAppointment(c.UserContext(), middleware.Identity(c), uint(id), req)
	if err != nil {
		return bookingError(c, err)
	}
	if report != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"conflict": true,
			"report":   report,
		})
	}
	return c.JSON(appt)
}

// UpdateAppointmentStatus moves an appointment through its lifecycle.
// Completion triggers commission recording.
func UpdateAppointmentStatus(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Invalid appointment id",
			Error:   err.Error(),
		})
	}
	var body struct {
		Status models.AppointmentStatus `json:"status"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Failed to parse request body",
			Error:   err.Error(),
		})
	}

	appt, err := Engine.UpdateStatus(middleware.Identity(c), uint(id), body.Status)
	if err != nil {
		if errors.Is(err, booking.ErrAppointmentNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(utils.ErrorResponse{
				Message: "Appointment not found",
				Error:   err.Error(),
			})
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(utils.ErrorResponse{
			Message: "Invalid status transition",
			Error:   err.Error(),
		})
	}
	return c.JSON(appt)
}

// GetAllAppointments lists the tenant's appointments.
func GetAllAppointments(c *fiber.Ctx) error {
	ident := middleware.Identity(c)
	var appointments []models.Appointment
	query := db.DB.Preload("Services").Preload("Services.Service").Preload("Professional")
	if ident.UserID != 0 {
		query = query.Where("user_id = ?", ident.UserID)
	}
	if err := query.Order("start_time asc").Find(&appointments).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to fetch appointments",
			Error:   err.Error(),
		})
	}
	return c.JSON(appointments)
}

// GetAppointment returns one appointment with its service lines.
func GetAppointment(c *fiber.Ctx) error {
	id := c.Params("id")
	var appointment models.Appointment
	if err := db.DB.Preload("Services").Preload("Services.Service").Preload("Professional").First(&appointment, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(utils.ErrorResponse{
			Message: "Appointment not found",
			Error:   err.Error(),
		})
	}
	return c.JSON(appointment)
}

// DeleteAppointment removes an appointment and restores any package
// sessions it had consumed.
func DeleteAppointment(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Invalid appointment id",
			Error:   err.Error(),
		})
	}
	if err := Engine.DeleteAppointment(middleware.Identity(c), uint(id)); err != nil {
		if errors.Is(err, booking.ErrAppointmentNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(utils.ErrorResponse{
				Message: "Appointment not found",
				Error:   err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to delete appointment",
			Error:   err.Error(),
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// bookingError maps engine failures onto the HTTP taxonomy: validation
// problems are 422 field messages, missing references 404, everything
// else a generic retryable 500.
func bookingError(c *fiber.Ctx, err error) error {
	var vErr *booking.ValidationError
	if errors.As(err, &vErr) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"message": "Validation failed",
			"field":   vErr.Field,
			"error":   vErr.Message,
		})
	}
	if errors.Is(err, booking.ErrServiceNotFound) || errors.Is(err, booking.ErrAppointmentNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(utils.ErrorResponse{
			Message: "Not found",
			Error:   err.Error(),
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
		Message: "Booking failed",
		Error:   err.Error(),
	})
}

// parseIDList parses "1,2,3" query values.
func parseIDList(raw string) ([]uint, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]uint, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}
