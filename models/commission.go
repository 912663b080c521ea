package models

import (
	"gorm.io/gorm"
)

type CommissionType string

const (
	CommissionFixed      CommissionType = "fixed"
	CommissionPercentage CommissionType = "percentage"
)

// ProfessionalCommission is the configured rule for one (professional,
// service) pair. Absence of a rule means the calculator applies the
// configured fallback amount, never a silent zero.
type ProfessionalCommission struct {
	gorm.Model
	ProfessionalID uint           `json:"professional_id" gorm:"index:idx_prof_service_rule"`
	ServiceID      uint           `json:"service_id" gorm:"index:idx_prof_service_rule"`
	Type           CommissionType `json:"type"`
	Value          float64        `json:"value" gorm:"type:decimal(10,2)"`
}

// CommissionRecord is the settled commission for one appointment service
// line. At most one record exists per line; records are written only on
// the transition into completed and never regenerated.
type CommissionRecord struct {
	gorm.Model
	AppointmentID        uint           `json:"appointment_id" gorm:"index"`
	AppointmentServiceID uint           `json:"appointment_service_id" gorm:"uniqueIndex"`
	ProfessionalID       uint           `json:"professional_id" gorm:"index"`
	ServiceID            uint           `json:"service_id"`
	Amount               float64        `json:"amount" gorm:"type:decimal(10,2)"`
	Type                 CommissionType `json:"type"`
	Value                float64        `json:"value" gorm:"type:decimal(10,2)"`
	Status               string         `json:"status"`
}
