package booking

import (
	"fmt"
	"sort"
	"time"

	"github.com/crisvard/kitoai-booking/models"
	"gorm.io/gorm"
)

// Slot is one candidate start time on a professional's day.
type Slot struct {
	Time      string    `json:"time"` // "HH:MM" in the business offset
	Start     time.Time `json:"start"`
	Available bool      `json:"available"`
}

// SlotCalculator derives bookable start times from working hours and the
// professional's existing agenda. It never writes.
type SlotCalculator struct {
	db       *gorm.DB
	cfg      Config
	detector *ConflictDetector
}

func NewSlotCalculator(db *gorm.DB, cfg Config, detector *ConflictDetector) *SlotCalculator {
	return &SlotCalculator{db: db, cfg: cfg, detector: detector}
}

// GenerateSlots lists every candidate start time for the professional on
// the given date, each marked available or not against the requested
// services' total duration. The date's year, month and day are read in
// its own location; pass a business-local midnight.
func (s *SlotCalculator) GenerateSlots(professionalID uint, date time.Time, requestedServiceIDs []uint) ([]Slot, error) {
	var hours []models.WorkingHours
	err := s.db.
		Where("professional_id = ?", professionalID).
		Where("day_of_week = ?", int(date.Weekday())).
		Find(&hours).Error
	if err != nil {
		return nil, err
	}

	duration, err := s.totalDuration(requestedServiceIDs)
	if err != nil {
		return nil, err
	}

	candidates := map[string]time.Time{}
	if len(hours) == 0 {
		// No configuration at all for the weekday: fall back to the
		// default business window. A day whose rows are all marked
		// unavailable is a day off and yields nothing.
		if err := s.collect(candidates, date, s.cfg.DefaultDayStart, s.cfg.DefaultDayEnd, s.cfg.SlotIntervalMinutes); err != nil {
			return nil, err
		}
	}
	for _, wh := range hours {
		if !wh.IsAvailable {
			continue
		}
		interval := wh.IntervalMinutes
		if interval <= 0 {
			interval = s.cfg.SlotIntervalMinutes
		}
		if err := s.collect(candidates, date, wh.StartTime, wh.EndTime, interval); err != nil {
			return nil, err
		}
	}

	keys := make([]string, 0, len(candidates))
	for k := range candidates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	slots := make([]Slot, 0, len(keys))
	if len(keys) == 0 {
		return slots, nil
	}

	// One agenda load covers every candidate; each window is then tested
	// in memory.
	first := candidates[keys[0]]
	last := candidates[keys[len(keys)-1]]
	agenda, err := s.detector.Agenda(professionalID, first, last.Add(duration), 0)
	if err != nil {
		return nil, err
	}
	for _, k := range keys {
		start := candidates[k]
		conflicts := s.detector.Overlapping(agenda, start, start.Add(duration))
		slots = append(slots, Slot{Time: k, Start: start, Available: len(conflicts) == 0})
	}
	return slots, nil
}

// collect adds every interval step in [windowStart, windowEnd) to the
// candidate set, keyed by wall-clock "HH:MM" for deduplication across
// overlapping windows.
func (s *SlotCalculator) collect(candidates map[string]time.Time, date time.Time, windowStart, windowEnd string, intervalMinutes int) error {
	start, err := atClock(date, windowStart)
	if err != nil {
		return err
	}
	end, err := atClock(date, windowEnd)
	if err != nil {
		return err
	}
	step := time.Duration(intervalMinutes) * time.Minute
	for cur := start; cur.Before(end); cur = cur.Add(step) {
		candidates[cur.Format("15:04")] = cur
	}
	return nil
}

// totalDuration sums the requested services' durations. With no services
// selected yet the minimum probe duration applies.
func (s *SlotCalculator) totalDuration(serviceIDs []uint) (time.Duration, error) {
	minutes := 0
	for _, id := range serviceIDs {
		var svc models.Service
		if err := s.db.First(&svc, id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return 0, fmt.Errorf("%w: %d", ErrServiceNotFound, id)
			}
			return 0, err
		}
		d := svc.DurationMinutes
		if d <= 0 {
			d = s.cfg.MinDurationMinutes
		}
		minutes += d
	}
	if minutes <= 0 {
		minutes = s.cfg.MinDurationMinutes
	}
	return time.Duration(minutes) * time.Minute, nil
}

// atClock places an "HH:MM" wall-clock time on the given date, in the
// date's location.
func atClock(date time.Time, clock string) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: %v", clock, err)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, date.Location()), nil
}
