package models

import (
	"gorm.io/gorm"
)

type DayOfWeek int

const (
	Sunday DayOfWeek = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

// WorkingHours is one availability window for a professional on a given
// weekday. A professional may have several windows on the same day
// (morning and afternoon shifts); the slot calculator merges them.
type WorkingHours struct {
	gorm.Model
	ProfessionalID  uint         `json:"professional_id" gorm:"index"`
	Professional    Professional `json:"professional,omitempty" gorm:"foreignKey:ProfessionalID"`
	DayOfWeek       DayOfWeek    `json:"day_of_week"`
	StartTime       string       `json:"start_time"` // "HH:MM" 24h
	EndTime         string       `json:"end_time"`   // "HH:MM" 24h
	IntervalMinutes int          `json:"interval_minutes"`
	IsAvailable     bool         `json:"is_available" gorm:"default:true"`
}
