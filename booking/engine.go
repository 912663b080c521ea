package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/crisvard/kitoai-booking/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ServiceSelection is one requested line of a booking.
type ServiceSelection struct {
	ServiceID  uint `json:"service_id"`
	UsePackage bool `json:"use_package"`
}

// BookingRequest carries everything needed to create or reschedule an
// appointment. CustomerID is zero for walk-ins, in which case name and
// phone identify (or create) the customer record.
type BookingRequest struct {
	ProfessionalID uint               `json:"professional_id"`
	CustomerID     uint               `json:"customer_id"`
	CustomerName   string             `json:"customer_name"`
	CustomerPhone  string             `json:"customer_phone"`
	Services       []ServiceSelection `json:"services"`
	StartTime      time.Time          `json:"start_time"`
	Notes          string             `json:"notes"`
	RequestToken   string             `json:"request_token"`
	RescheduleOf   uint               `json:"reschedule_of"`
}

// Engine orchestrates booking creation, rescheduling, status transitions
// and their side effects. All writes of one booking happen in a single
// transaction under the professional's serialization lock.
type Engine struct {
	db          *gorm.DB
	cfg         Config
	locker      Locker
	detector    *ConflictDetector
	slots       *SlotCalculator
	ledger      *Ledger
	commissions *CommissionCalculator
}

func NewEngine(db *gorm.DB, cfg Config, locker Locker) *Engine {
	detector := NewConflictDetector(db, cfg)
	return &Engine{
		db:          db,
		cfg:         cfg,
		locker:      locker,
		detector:    detector,
		slots:       NewSlotCalculator(db, cfg, detector),
		ledger:      NewLedger(db),
		commissions: NewCommissionCalculator(db, cfg),
	}
}

func (e *Engine) Config() Config              { return e.cfg }
func (e *Engine) Ledger() *Ledger             { return e.ledger }
func (e *Engine) Detector() *ConflictDetector { return e.detector }
func (e *Engine) Slots() *SlotCalculator      { return e.slots }

func (e *Engine) Commissions() *CommissionCalculator { return e.commissions }

// GenerateSlots delegates to the slot calculator.
func (e *Engine) GenerateSlots(professionalID uint, date time.Time, requestedServiceIDs []uint) ([]Slot, error) {
	return e.slots.GenerateSlots(professionalID, date, requestedServiceIDs)
}

// CheckConflict resolves the requested services into a proposed window
// and reports every blocking appointment that overlaps it.
func (e *Engine) CheckConflict(professionalID uint, start time.Time, serviceIDs []uint, excludeAppointmentID uint) (*ConflictReport, error) {
	selections := make([]ServiceSelection, 0, len(serviceIDs))
	for _, id := range serviceIDs {
		selections = append(selections, ServiceSelection{ServiceID: id})
	}
	_, total, err := e.resolveLines(selections)
	if err != nil {
		return nil, err
	}
	end := start.Add(total)
	_, conflicts, err := e.detector.HasConflict(professionalID, start, end, excludeAppointmentID)
	if err != nil {
		return nil, err
	}
	return &ConflictReport{ProposedStart: start, ProposedEnd: end, Conflicts: conflicts}, nil
}

// CreateAppointment books a new appointment. When the proposed window
// overlaps existing bookings it returns a ConflictReport and writes
// nothing; the caller confirms through ConfirmOverride.
func (e *Engine) CreateAppointment(ctx context.Context, ident CallerIdentity, req BookingRequest) (*models.Appointment, *ConflictReport, error) {
	return e.book(ctx, ident, req, false, nil)
}

// ConfirmOverride commits a booking despite known conflicts. The check
// is re-run from scratch: if the agenda changed while the caller was
// deciding and new conflicts appeared beyond the acknowledged set, a
// fresh ConflictReport comes back instead of a commit.
func (e *Engine) ConfirmOverride(ctx context.Context, ident CallerIdentity, req BookingRequest, acknowledgedConflicts []uint) (*models.Appointment, *ConflictReport, error) {
	return e.book(ctx, ident, req, true, acknowledgedConflicts)
}

// RescheduleAppointment moves an appointment to a new window and service
// selection. The old service lines and any commission records are
// removed before the new state is written; the old window stops blocking
// other bookings as soon as the transaction commits. Package sessions
// are reconciled against the new selection: dropped package lines give
// their session back, added ones consume.
func (e *Engine) RescheduleAppointment(ctx context.Context, ident CallerIdentity, appointmentID uint, req BookingRequest) (*models.Appointment, *ConflictReport, error) {
	req.RescheduleOf = appointmentID
	return e.book(ctx, ident, req, false, nil)
}

func (e *Engine) book(ctx context.Context, ident CallerIdentity, req BookingRequest, override bool, acknowledged []uint) (*models.Appointment, *ConflictReport, error) {
	if err := e.validate(req); err != nil {
		return nil, nil, err
	}

	if req.RequestToken != "" {
		if _, err := uuid.Parse(req.RequestToken); err != nil {
			return nil, nil, &ValidationError{Field: "request_token", Message: "request token must be a UUID"}
		}
		// Idempotent retry: a token that already booked returns the
		// existing appointment instead of creating a duplicate.
		var existing models.Appointment
		err := e.db.Preload("Services").Where("request_token = ?", req.RequestToken).First(&existing).Error
		if err == nil {
			return &existing, nil, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, err
		}
	}

	plans, total, err := e.resolveLines(req.Services)
	if err != nil {
		return nil, nil, err
	}
	proposedEnd := req.StartTime.Add(total)

	release, err := e.locker.Lock(ctx, req.ProfessionalID)
	if err != nil {
		return nil, nil, err
	}
	defer release()

	hasConflict, conflicts, err := e.detector.HasConflict(req.ProfessionalID, req.StartTime, proposedEnd, req.RescheduleOf)
	if err != nil {
		return nil, nil, err
	}
	if hasConflict {
		report := &ConflictReport{ProposedStart: req.StartTime, ProposedEnd: proposedEnd, Conflicts: conflicts}
		if !override || !acknowledges(acknowledged, conflicts) {
			return nil, report, nil
		}
	}

	var appt *models.Appointment
	err = e.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		appt, txErr = e.commit(tx, ident, req, plans, override && hasConflict)
		return txErr
	})
	if err != nil {
		return nil, nil, err
	}
	return appt, nil, nil
}

// commit performs the write sequence of one booking. Ordering matters:
// the appointment row must exist before any session is decremented, so a
// failed insert never orphans a consumed session.
func (e *Engine) commit(tx *gorm.DB, ident CallerIdentity, req BookingRequest, plans []linePlan, overrideUsed bool) (*models.Appointment, error) {
	now := time.Now().UTC()

	var prior *models.Appointment
	if req.RescheduleOf != 0 {
		var p models.Appointment
		if err := tx.Preload("Services").First(&p, req.RescheduleOf).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrAppointmentNotFound
			}
			return nil, err
		}
		if p.Status == models.StatusCompleted || p.Status == models.StatusCancelled {
			return nil, &ValidationError{Field: "reschedule_of", Message: fmt.Sprintf("cannot reschedule a %s appointment", p.Status)}
		}
		// Give the old lines' sessions back before the new selection is
		// priced and consumed, so only the difference between the two
		// selections moves the counters.
		if err := e.restoreSessions(tx, &p); err != nil {
			return nil, err
		}
		if err := tx.Where("appointment_id = ?", p.ID).Delete(&models.AppointmentService{}).Error; err != nil {
			return nil, err
		}
		if err := tx.Where("appointment_id = ?", p.ID).Delete(&models.CommissionRecord{}).Error; err != nil {
			return nil, err
		}
		prior = &p
	}

	customer, err := e.upsertCustomer(tx, ident, req)
	if err != nil {
		return nil, err
	}

	lines := make([]models.AppointmentService, 0, len(plans))
	for _, plan := range plans {
		line := models.AppointmentService{
			ServiceID:       plan.svc.ID,
			Price:           plan.svc.Price,
			DurationMinutes: plan.durationMinutes,
		}
		if plan.sel.UsePackage {
			cps, err := e.ledger.EligibleFor(tx, customer.ID, plan.svc.ID, now)
			if err != nil {
				return nil, err
			}
			if cps != nil {
				id := cps.ID
				line.Price = 0
				line.UsedPackageSession = true
				line.CustomerPackageServiceID = &id
			}
		}
		lines = append(lines, line)
	}

	var appt models.Appointment
	if prior != nil {
		appt = *prior
		appt.StartTime = req.StartTime
		appt.Notes = req.Notes
		appt.CustomerID = customer.ID
		appt.CustomerName = customer.Name
		appt.CustomerPhone = customer.Phone
		appt.OverrideUsed = overrideUsed
		appt.Services = nil
		if err := tx.Save(&appt).Error; err != nil {
			return nil, err
		}
	} else {
		appt = models.Appointment{
			ProfessionalID: req.ProfessionalID,
			CustomerID:     customer.ID,
			CustomerName:   customer.Name,
			CustomerPhone:  customer.Phone,
			StartTime:      req.StartTime,
			Status:         models.StatusPending,
			Notes:          req.Notes,
			OverrideUsed:   overrideUsed,
			UserID:         ident.UserID,
			FranchiseID:    ident.FranchiseID,
		}
		if req.RequestToken != "" {
			token := req.RequestToken
			appt.RequestToken = &token
		}
		if err := tx.Create(&appt).Error; err != nil {
			return nil, err
		}
	}

	for i := range lines {
		lines[i].AppointmentID = appt.ID
	}
	if err := tx.Create(&lines).Error; err != nil {
		return nil, err
	}

	// A reschedule consumes here too: its old lines were restored above,
	// so an unchanged package line nets out to zero movement.
	for i := range lines {
		if !lines[i].UsedPackageSession {
			continue
		}
		err := e.ledger.ConsumeTx(tx, *lines[i].CustomerPackageServiceID)
		if errors.Is(err, ErrSessionExhausted) {
			// Lost the race for the last session: this line falls
			// back to the cash price instead of failing the booking.
			lines[i].Price = plans[i].svc.Price
			lines[i].UsedPackageSession = false
			lines[i].CustomerPackageServiceID = nil
			if err := tx.Save(&lines[i]).Error; err != nil {
				return nil, err
			}
			continue
		}
		if err != nil {
			return nil, err
		}
	}

	total := 0.0
	for _, line := range lines {
		total += line.Price
	}
	appt.TotalPrice = total
	if err := tx.Model(&models.Appointment{}).Where("id = ?", appt.ID).Update("total_price", total).Error; err != nil {
		return nil, err
	}
	appt.Services = lines
	return &appt, nil
}

// UpdateStatus moves an appointment through its lifecycle. Setting the
// current status again is a no-op. Completion triggers commission
// recording after the status is saved; a commission failure is logged
// and never rolls the completion back. Cancellation restores any
// consumed package sessions.
func (e *Engine) UpdateStatus(ident CallerIdentity, appointmentID uint, newStatus models.AppointmentStatus) (*models.Appointment, error) {
	var appt models.Appointment
	if err := e.db.Preload("Services").First(&appt, appointmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	if appt.Status == newStatus {
		return &appt, nil
	}
	if err := appt.CanTransition(newStatus); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}

	err := e.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&appt).Update("status", newStatus).Error; err != nil {
			return err
		}
		if newStatus == models.StatusCancelled {
			return e.restoreSessions(tx, &appt)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if newStatus == models.StatusCompleted {
		if _, err := e.commissions.OnCompleted(appt.ID); err != nil {
			log.Printf("commission recording failed for appointment %d: %v", appt.ID, err)
		}
	}
	return &appt, nil
}

// DeleteAppointment removes an appointment with its lines and commission
// records, restoring package sessions the booking had consumed. Sessions
// of a completed appointment are not refunded.
func (e *Engine) DeleteAppointment(ident CallerIdentity, appointmentID uint) error {
	var appt models.Appointment
	if err := e.db.Preload("Services").First(&appt, appointmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAppointmentNotFound
		}
		return err
	}
	return e.db.Transaction(func(tx *gorm.DB) error {
		// Cancelled already gave its sessions back; a completed booking
		// rendered the service, so its sessions stay spent.
		if appt.Status != models.StatusCancelled && appt.Status != models.StatusCompleted {
			if err := e.restoreSessions(tx, &appt); err != nil {
				return err
			}
		}
		if err := tx.Where("appointment_id = ?", appt.ID).Delete(&models.AppointmentService{}).Error; err != nil {
			return err
		}
		if err := tx.Where("appointment_id = ?", appt.ID).Delete(&models.CommissionRecord{}).Error; err != nil {
			return err
		}
		return tx.Delete(&appt).Error
	})
}

func (e *Engine) restoreSessions(tx *gorm.DB, appt *models.Appointment) error {
	for _, line := range appt.Services {
		if line.UsedPackageSession && line.CustomerPackageServiceID != nil {
			if err := e.ledger.RestoreTx(tx, *line.CustomerPackageServiceID); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Engine) validate(req BookingRequest) error {
	if len(req.Services) == 0 {
		return &ValidationError{Field: "services", Message: "no services selected"}
	}
	if req.ProfessionalID == 0 {
		return &ValidationError{Field: "professional_id", Message: "professional is required"}
	}
	if req.StartTime.IsZero() {
		return &ValidationError{Field: "start_time", Message: "start time is required"}
	}
	if req.CustomerID == 0 && req.CustomerName == "" {
		return &ValidationError{Field: "customer_name", Message: "customer name is required for a new customer"}
	}
	return nil
}

type linePlan struct {
	sel             ServiceSelection
	svc             models.Service
	durationMinutes int
}

// resolveLines loads each selected service and sums the total duration
// of the proposed window.
func (e *Engine) resolveLines(selections []ServiceSelection) ([]linePlan, time.Duration, error) {
	plans := make([]linePlan, 0, len(selections))
	totalMinutes := 0
	for _, sel := range selections {
		var svc models.Service
		if err := e.db.First(&svc, sel.ServiceID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, 0, fmt.Errorf("%w: %d", ErrServiceNotFound, sel.ServiceID)
			}
			return nil, 0, err
		}
		if !svc.IsActive {
			return nil, 0, fmt.Errorf("%w: %d", ErrServiceNotFound, sel.ServiceID)
		}
		d := svc.DurationMinutes
		if d <= 0 {
			d = e.cfg.MinDurationMinutes
		}
		plans = append(plans, linePlan{sel: sel, svc: svc, durationMinutes: d})
		totalMinutes += d
	}
	if totalMinutes <= 0 {
		totalMinutes = e.cfg.MinDurationMinutes
	}
	return plans, time.Duration(totalMinutes) * time.Minute, nil
}

// upsertCustomer creates or refreshes the customer record the booking is
// for, keeping the best-known professional assignment and tenant ids.
func (e *Engine) upsertCustomer(tx *gorm.DB, ident CallerIdentity, req BookingRequest) (*models.Customer, error) {
	if req.CustomerID != 0 {
		var cust models.Customer
		if err := tx.First(&cust, req.CustomerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, &ValidationError{Field: "customer_id", Message: "customer not found"}
			}
			return nil, err
		}
		if req.CustomerName != "" {
			cust.Name = req.CustomerName
		}
		if req.CustomerPhone != "" {
			cust.Phone = req.CustomerPhone
		}
		cust.ProfessionalID = req.ProfessionalID
		if err := tx.Save(&cust).Error; err != nil {
			return nil, err
		}
		return &cust, nil
	}

	if req.CustomerPhone != "" {
		var cust models.Customer
		err := tx.Where("phone = ? AND user_id = ?", req.CustomerPhone, ident.UserID).First(&cust).Error
		if err == nil {
			cust.Name = req.CustomerName
			cust.ProfessionalID = req.ProfessionalID
			if err := tx.Save(&cust).Error; err != nil {
				return nil, err
			}
			return &cust, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	cust := models.Customer{
		Name:           req.CustomerName,
		Phone:          req.CustomerPhone,
		ProfessionalID: req.ProfessionalID,
		UserID:         ident.UserID,
		FranchiseID:    ident.FranchiseID,
	}
	if err := tx.Create(&cust).Error; err != nil {
		return nil, err
	}
	return &cust, nil
}

// acknowledges reports whether every current conflict was acknowledged
// by the caller. A conflict that appeared after the report was issued
// forces a fresh confirmation round.
func acknowledges(acknowledged []uint, conflicts []Conflict) bool {
	seen := make(map[uint]bool, len(acknowledged))
	for _, id := range acknowledged {
		seen[id] = true
	}
	for _, c := range conflicts {
		if !seen[c.AppointmentID] {
			return false
		}
	}
	return true
}
