package booking

import (
	"errors"
	"fmt"
	"time"

	"github.com/crisvard/kitoai-booking/models"
)

var (
	// ErrSessionExhausted is returned by the ledger when a package
	// session believed available at check time is gone by commit time.
	ErrSessionExhausted = errors.New("package session no longer available")

	// ErrServiceNotFound marks a booking line referencing an unknown or
	// inactive service.
	ErrServiceNotFound = errors.New("service not found")

	// ErrAppointmentNotFound marks an operation on a missing appointment.
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrLockTimeout is returned when the per-professional booking lock
	// could not be acquired in time.
	ErrLockTimeout = errors.New("timed out waiting for booking lock")

	// ErrInvalidTransition marks a status change the lifecycle forbids.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// ValidationError rejects a request before any write. It carries the
// offending field so the caller can render a field-level message.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Conflict identifies one existing appointment overlapping a proposed
// window, with enough data for a human-readable confirmation prompt.
type Conflict struct {
	AppointmentID uint                     `json:"appointment_id"`
	CustomerName  string                   `json:"customer_name"`
	StartTime     time.Time                `json:"start_time"`
	EndTime       time.Time                `json:"end_time"`
	Status        models.AppointmentStatus `json:"status"`
}

// ConflictReport is a structured result, not an error: it asks the
// caller to confirm before the booking is committed. Returning one
// causes no state change.
type ConflictReport struct {
	ProposedStart time.Time  `json:"proposed_start"`
	ProposedEnd   time.Time  `json:"proposed_end"`
	Conflicts     []Conflict `json:"conflicts"`
}

// ConflictIDs lists the ids a caller must acknowledge to force-book.
func (r *ConflictReport) ConflictIDs() []uint {
	ids := make([]uint, 0, len(r.Conflicts))
	for _, c := range r.Conflicts {
		ids = append(ids, c.AppointmentID)
	}
	return ids
}
