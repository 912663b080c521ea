package models

import (
	"time"

	"gorm.io/gorm"
)

// Package is the catalog definition of a prepaid bundle.
type Package struct {
	gorm.Model
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       float64          `json:"price" gorm:"type:decimal(10,2)"`
	IsActive    bool             `json:"is_active" gorm:"default:true"`
	UserID      uint             `json:"user_id" gorm:"index"`
	FranchiseID uint             `json:"franchise_id" gorm:"index"`
	Services    []PackageService `json:"services" gorm:"foreignKey:PackageID"`
}

// PackageService says how many sessions of a service the bundle grants.
type PackageService struct {
	gorm.Model
	PackageID uint    `json:"package_id" gorm:"index"`
	ServiceID uint    `json:"service_id"`
	Service   Service `json:"service,omitempty" gorm:"foreignKey:ServiceID"`
	Sessions  int     `json:"sessions"`
}

// CustomerPackage is a purchased bundle. Sessions are only consumable
// while the purchase is paid and unexpired.
type CustomerPackage struct {
	gorm.Model
	PackageID      uint                     `json:"package_id"`
	Package        Package                  `json:"package,omitempty" gorm:"foreignKey:PackageID"`
	CustomerID     uint                     `json:"customer_id" gorm:"index"`
	Customer       Customer                 `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	Paid           bool                     `json:"paid"`
	ExpirationDate *time.Time               `json:"expiration_date,omitempty"`
	UserID         uint                     `json:"user_id" gorm:"index"`
	FranchiseID    uint                     `json:"franchise_id" gorm:"index"`
	Services       []CustomerPackageService `json:"services" gorm:"foreignKey:CustomerPackageID"`
}

// Usable reports whether sessions of this purchase may be consumed now.
func (cp *CustomerPackage) Usable(now time.Time) bool {
	if !cp.Paid {
		return false
	}
	return cp.ExpirationDate == nil || !cp.ExpirationDate.Before(now)
}

// CustomerPackageService tracks the remaining sessions of one service
// inside a purchased bundle. SessionsRemaining never goes negative: the
// ledger decrements it with a conditional UPDATE, not read-then-write.
type CustomerPackageService struct {
	gorm.Model
	CustomerPackageID uint            `json:"customer_package_id" gorm:"index"`
	CustomerPackage   CustomerPackage `json:"customer_package,omitempty" gorm:"foreignKey:CustomerPackageID"`
	ServiceID         uint            `json:"service_id" gorm:"index"`
	Service           Service         `json:"service,omitempty" gorm:"foreignKey:ServiceID"`
	SessionsRemaining int             `json:"sessions_remaining"`
}
