package booking

import (
	"errors"
	"time"

	"github.com/crisvard/kitoai-booking/models"
	"gorm.io/gorm"
)

// Ledger owns the package session counters. Consumption is a single
// conditional UPDATE so two concurrent bookings can never both take the
// last session.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// Consume decrements sessions_remaining by one, failing closed with
// ErrSessionExhausted when the counter is already zero.
func (l *Ledger) Consume(customerPackageServiceID uint) error {
	return l.ConsumeTx(l.db, customerPackageServiceID)
}

// ConsumeTx is Consume inside an existing transaction.
func (l *Ledger) ConsumeTx(tx *gorm.DB, customerPackageServiceID uint) error {
	res := tx.Model(&models.CustomerPackageService{}).
		Where("id = ? AND sessions_remaining > 0", customerPackageServiceID).
		UpdateColumn("sessions_remaining", gorm.Expr("sessions_remaining - 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSessionExhausted
	}
	return nil
}

// RestoreTx gives one session back, for cancellation and deletion flows
// that reverse a consumed line.
func (l *Ledger) RestoreTx(tx *gorm.DB, customerPackageServiceID uint) error {
	res := tx.Model(&models.CustomerPackageService{}).
		Where("id = ?", customerPackageServiceID).
		UpdateColumn("sessions_remaining", gorm.Expr("sessions_remaining + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSessionExhausted
	}
	return nil
}

// Restore is RestoreTx against the ledger's own connection.
func (l *Ledger) Restore(customerPackageServiceID uint) error {
	return l.RestoreTx(l.db, customerPackageServiceID)
}

// EligibleFor finds a consumable session row for (customer, service):
// the owning purchase must be paid and unexpired and the counter
// positive. Returns nil with no error when nothing qualifies.
func (l *Ledger) EligibleFor(tx *gorm.DB, customerID, serviceID uint, now time.Time) (*models.CustomerPackageService, error) {
	var cps models.CustomerPackageService
	err := tx.
		Joins("JOIN customer_packages ON customer_packages.id = customer_package_services.customer_package_id").
		Where("customer_packages.customer_id = ?", customerID).
		Where("customer_packages.paid = ?", true).
		Where("customer_packages.deleted_at IS NULL").
		Where("(customer_packages.expiration_date IS NULL OR customer_packages.expiration_date >= ?)", now).
		Where("customer_package_services.service_id = ?", serviceID).
		Where("customer_package_services.sessions_remaining > 0").
		Order("customer_packages.expiration_date ASC").
		First(&cps).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cps, nil
}
