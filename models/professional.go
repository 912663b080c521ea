package models

import (
	"gorm.io/gorm"
)

// Professional is a staff member appointments are booked against.
// UserID and FranchiseID identify the owning tenant; both come from the
// admin tooling that manages accounts, the engine only reads them.
type Professional struct {
	gorm.Model
	Name         string         `json:"name"`
	Specialty    string         `json:"specialty"`
	Email        string         `json:"email"`
	Phone        string         `json:"phone"`
	IsActive     bool           `json:"is_active" gorm:"default:true"`
	UserID       uint           `json:"user_id" gorm:"index"`
	FranchiseID  uint           `json:"franchise_id" gorm:"index"`
	WorkingHours []WorkingHours `json:"working_hours,omitempty" gorm:"foreignKey:ProfessionalID"`
	Appointments []Appointment  `json:"appointments,omitempty" gorm:"foreignKey:ProfessionalID"`
}
