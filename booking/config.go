package booking

import (
	"time"

	"github.com/crisvard/kitoai-booking/models"
)

// Config carries every tunable the engine used to hide as an inline
// literal: the fallback working window, the slot step, the commission
// default and the business display offset all live here.
type Config struct {
	// SlotIntervalMinutes is the step between candidate start times when
	// a working-hours row does not set its own interval.
	SlotIntervalMinutes int

	// DefaultDayStart and DefaultDayEnd bound the fallback window used
	// when a professional has no working hours configured for a weekday.
	DefaultDayStart string // "HH:MM"
	DefaultDayEnd   string // "HH:MM"

	// MinDurationMinutes is assumed for a service line whose duration
	// cannot be resolved, and as the probe duration when a slot query
	// arrives before any service was selected.
	MinDurationMinutes int

	// DefaultCommission is the fixed fallback amount applied when no
	// commission rule exists for a (professional, service) pair.
	DefaultCommission float64

	// BlockingStatuses are the appointment statuses that occupy a
	// professional's agenda for conflict purposes.
	BlockingStatuses []models.AppointmentStatus

	// BusinessLocation is the fixed offset wall-clock input is entered
	// in. The engine itself stores and compares UTC instants only; the
	// HTTP layer uses this to parse and render local times.
	BusinessLocation *time.Location

	// LockTimeout bounds how long a booking waits for the
	// per-professional serialization lock.
	LockTimeout time.Duration
}

// DefaultConfig returns the documented production defaults.
func DefaultConfig() Config {
	return Config{
		SlotIntervalMinutes: 30,
		DefaultDayStart:     "08:00",
		DefaultDayEnd:       "18:00",
		MinDurationMinutes:  30,
		DefaultCommission:   20.00,
		BlockingStatuses: []models.AppointmentStatus{
			models.StatusPending,
			models.StatusConfirmed,
		},
		BusinessLocation: time.FixedZone("UTC-3", -3*60*60),
		LockTimeout:      5 * time.Second,
	}
}

type ActorType string

const (
	ActorAdmin        ActorType = "admin"
	ActorProfessional ActorType = "professional"
)

// CallerIdentity says who is invoking the engine. Every operation takes
// one; the engine never probes the call site to guess the caller kind.
type CallerIdentity struct {
	UserID         uint      `json:"user_id"`
	FranchiseID    uint      `json:"franchise_id"`
	Actor          ActorType `json:"actor"`
	ProfessionalID uint      `json:"professional_id,omitempty"`
}
