package booking

import (
	"time"

	"github.com/crisvard/kitoai-booking/models"
	"gorm.io/gorm"
)

// agendaLookback bounds the agenda query below the window start. No
// booking spans more than a day, so nothing starting earlier can spill
// into the window.
const agendaLookback = 24 * time.Hour

// ConflictDetector answers whether a proposed window overlaps any of a
// professional's blocking appointments.
type ConflictDetector struct {
	db  *gorm.DB
	cfg Config
}

func NewConflictDetector(db *gorm.DB, cfg Config) *ConflictDetector {
	return &ConflictDetector{db: db, cfg: cfg}
}

// HasConflict returns every blocking appointment whose [start, end)
// interval overlaps [proposedStart, proposedEnd). Intervals are
// half-open, so back-to-back appointments never conflict. An appointment
// id may be excluded for the reschedule flow.
func (d *ConflictDetector) HasConflict(professionalID uint, proposedStart, proposedEnd time.Time, excludeAppointmentID uint) (bool, []Conflict, error) {
	agenda, err := d.Agenda(professionalID, proposedStart, proposedEnd, excludeAppointmentID)
	if err != nil {
		return false, nil, err
	}
	conflicts := d.Overlapping(agenda, proposedStart, proposedEnd)
	return len(conflicts) > 0, conflicts, nil
}

// Agenda loads the blocking appointments that could overlap [from, to),
// bounded in SQL. Callers testing many candidate windows load the agenda
// once and filter with Overlapping.
func (d *ConflictDetector) Agenda(professionalID uint, from, to time.Time, excludeAppointmentID uint) ([]models.Appointment, error) {
	var appointments []models.Appointment
	query := d.db.Preload("Services").
		Where("professional_id = ?", professionalID).
		Where("status IN ?", d.cfg.BlockingStatuses).
		Where("start_time < ?", to).
		Where("start_time > ?", from.Add(-agendaLookback))
	if excludeAppointmentID != 0 {
		query = query.Where("id <> ?", excludeAppointmentID)
	}
	if err := query.Find(&appointments).Error; err != nil {
		return nil, err
	}
	return appointments, nil
}

// Overlapping filters a loaded agenda down to the appointments whose
// half-open window intersects [proposedStart, proposedEnd).
func (d *ConflictDetector) Overlapping(agenda []models.Appointment, proposedStart, proposedEnd time.Time) []Conflict {
	var conflicts []Conflict
	for _, appt := range agenda {
		otherEnd := appt.EndTime(d.cfg.MinDurationMinutes)
		if proposedStart.Before(otherEnd) && proposedEnd.After(appt.StartTime) {
			conflicts = append(conflicts, Conflict{
				AppointmentID: appt.ID,
				CustomerName:  appt.CustomerName,
				StartTime:     appt.StartTime,
				EndTime:       otherEnd,
				Status:        appt.Status,
			})
		}
	}
	return conflicts
}
