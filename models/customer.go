package models

import (
	"gorm.io/gorm"
)

// Customer is the directory record the booking engine upserts on every
// commit. Phone is the lookup key within a tenant: walk-in bookings
// arrive with only a name and phone, not a customer id.
type Customer struct {
	gorm.Model
	Name           string       `json:"name"`
	Phone          string       `json:"phone" gorm:"index"`
	ProfessionalID uint         `json:"professional_id"`
	Professional   Professional `json:"professional,omitempty" gorm:"foreignKey:ProfessionalID"`
	UserID         uint         `json:"user_id" gorm:"index"`
	FranchiseID    uint         `json:"franchise_id" gorm:"index"`
}
