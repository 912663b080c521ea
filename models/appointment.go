package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

// Appointment is a booked window on a professional's agenda. StartTime is
// an absolute UTC instant; the end is derived from the service lines, it
// is never stored. Customer name and phone are denormalized because many
// bookings are taken over the counter before a Customer row exists.
type Appointment struct {
	gorm.Model
	ProfessionalID uint                 `json:"professional_id" gorm:"index"`
	Professional   Professional         `json:"professional,omitempty" gorm:"foreignKey:ProfessionalID"`
	CustomerID     uint                 `json:"customer_id" gorm:"index"`
	CustomerName   string               `json:"customer_name"`
	CustomerPhone  string               `json:"customer_phone"`
	StartTime      time.Time            `json:"start_time" gorm:"index"`
	Status         AppointmentStatus    `json:"status" gorm:"index"`
	TotalPrice     float64              `json:"total_price" gorm:"type:decimal(10,2)"`
	Notes          string               `json:"notes"`
	RequestToken   *string              `json:"request_token,omitempty" gorm:"uniqueIndex"`
	OverrideUsed   bool                 `json:"override_used"`
	UserID         uint                 `json:"user_id" gorm:"index"`
	FranchiseID    uint                 `json:"franchise_id" gorm:"index"`
	Services       []AppointmentService `json:"services" gorm:"foreignKey:AppointmentID"`
}

// AppointmentService is one charged line of an appointment. Price is the
// amount actually charged: zero when a package session covered it, in
// which case CustomerPackageServiceID points at the decremented row.
type AppointmentService struct {
	gorm.Model
	AppointmentID            uint    `json:"appointment_id" gorm:"index"`
	ServiceID                uint    `json:"service_id"`
	Service                  Service `json:"service,omitempty" gorm:"foreignKey:ServiceID"`
	Price                    float64 `json:"price" gorm:"type:decimal(10,2)"`
	DurationMinutes          int     `json:"duration_minutes"`
	UsedPackageSession       bool    `json:"used_package_session"`
	CustomerPackageServiceID *uint   `json:"customer_package_service_id,omitempty"`
}

func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	if a.Status == "" {
		a.Status = StatusPending
	}
	return nil
}

// DurationMinutes sums the appointment's service lines. Lines whose
// duration could not be resolved at booking time count as minDuration.
func (a *Appointment) DurationMinutes(minDuration int) int {
	total := 0
	for _, line := range a.Services {
		d := line.DurationMinutes
		if d <= 0 {
			d = minDuration
		}
		total += d
	}
	if total <= 0 {
		total = minDuration
	}
	return total
}

// EndTime derives the appointment's end instant from its lines.
func (a *Appointment) EndTime(minDuration int) time.Time {
	return a.StartTime.Add(time.Duration(a.DurationMinutes(minDuration)) * time.Minute)
}

// CanTransition reports whether moving to newStatus is a legal step of
// the lifecycle. Completed and cancelled are terminal.
func (a *Appointment) CanTransition(newStatus AppointmentStatus) error {
	if a.Status == newStatus {
		return nil
	}
	switch a.Status {
	case StatusPending:
		if newStatus != StatusConfirmed && newStatus != StatusCompleted && newStatus != StatusCancelled {
			return fmt.Errorf("invalid transition from pending to %s", newStatus)
		}
	case StatusConfirmed:
		if newStatus != StatusCompleted && newStatus != StatusCancelled {
			return fmt.Errorf("invalid transition from confirmed to %s", newStatus)
		}
	case StatusCompleted, StatusCancelled:
		return fmt.Errorf("no transitions allowed from %s", a.Status)
	default:
		return fmt.Errorf("unknown status %s", a.Status)
	}
	return nil
}
