package models

import (
	"gorm.io/gorm"
)

// Service is a bookable catalog item. Price and duration are read at
// booking time and copied onto the appointment's service lines, so later
// catalog edits never rewrite history.
type Service struct {
	gorm.Model
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	Price           float64 `json:"price" gorm:"type:decimal(10,2)"`
	DurationMinutes int     `json:"duration_minutes"`
	IsActive        bool    `json:"is_active" gorm:"default:true"`
	UserID          uint    `json:"user_id" gorm:"index"`
	FranchiseID     uint    `json:"franchise_id" gorm:"index"`
}
