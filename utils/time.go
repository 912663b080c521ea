package utils

import "time"

// ToLocal converts a stored UTC instant to the business display offset.
func ToLocal(t time.Time, loc *time.Location) time.Time {
	return t.In(loc)
}

// ParseDateTimeIn parses a "YYYY-MM-DD" date and "HH:MM" clock entered
// in the business offset and returns the UTC instant.
func ParseDateTimeIn(loc *time.Location, date, clock string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+clock, loc)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// ParseDateIn parses a "YYYY-MM-DD" date as local midnight in the
// business offset. Slot generation works on this value so the weekday
// and candidate times match the business wall clock.
func ParseDateIn(loc *time.Location, date string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", date, loc)
}
