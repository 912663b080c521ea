package booking

import (
	"errors"
	"fmt"

	"github.com/crisvard/kitoai-booking/models"
	"gorm.io/gorm"
)

// CommissionCalculator records what a professional earned from a
// completed appointment. It runs once per transition into completed;
// lines paid with a package session earn nothing.
type CommissionCalculator struct {
	db  *gorm.DB
	cfg Config
}

func NewCommissionCalculator(db *gorm.DB, cfg Config) *CommissionCalculator {
	return &CommissionCalculator{db: db, cfg: cfg}
}

// OnCompleted writes one CommissionRecord per cash service line of the
// appointment. Lines that already have a record are skipped, so a repeat
// call never duplicates. A failure on one line does not stop the others;
// the joined error is reported to the caller for logging.
func (c *CommissionCalculator) OnCompleted(appointmentID uint) ([]models.CommissionRecord, error) {
	var appt models.Appointment
	if err := c.db.Preload("Services").First(&appt, appointmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	var records []models.CommissionRecord
	var errs []error
	for _, line := range appt.Services {
		if line.UsedPackageSession {
			continue
		}

		var existing models.CommissionRecord
		err := c.db.Where("appointment_service_id = ?", line.ID).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			errs = append(errs, err)
			continue
		}

		record := c.buildRecord(&appt, &line)
		if err := c.db.Create(&record).Error; err != nil {
			errs = append(errs, fmt.Errorf("commission for line %d: %w", line.ID, err))
			continue
		}
		records = append(records, record)
	}
	return records, errors.Join(errs...)
}

// buildRecord applies the (professional, service) rule, or the
// configured fixed default when none exists.
func (c *CommissionCalculator) buildRecord(appt *models.Appointment, line *models.AppointmentService) models.CommissionRecord {
	record := models.CommissionRecord{
		AppointmentID:        appt.ID,
		AppointmentServiceID: line.ID,
		ProfessionalID:       appt.ProfessionalID,
		ServiceID:            line.ServiceID,
		Status:               "paid",
	}

	var rule models.ProfessionalCommission
	err := c.db.
		Where("professional_id = ? AND service_id = ?", appt.ProfessionalID, line.ServiceID).
		First(&rule).Error
	if err != nil {
		record.Type = models.CommissionFixed
		record.Value = c.cfg.DefaultCommission
		record.Amount = c.cfg.DefaultCommission
		return record
	}

	record.Type = rule.Type
	record.Value = rule.Value
	switch rule.Type {
	case models.CommissionPercentage:
		record.Amount = line.Price * rule.Value / 100
	default:
		record.Amount = rule.Value
	}
	return record
}
