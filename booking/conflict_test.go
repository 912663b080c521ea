package booking

import (
	"testing"
	"time"

	"github.com/crisvard/kitoai-booking/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasConflictOverlap(t *testing.T) {
	engine, db := testEngine(t)
	prof := seedProfessional(t, db)
	existing := seedAppointment(t, db, prof.ID, utc(2025, 3, 10, 10, 0), 30, models.StatusConfirmed)

	cases := []struct {
		name     string
		start    time.Time
		end      time.Time
		conflict bool
	}{
		{"same window", utc(2025, 3, 10, 10, 0), utc(2025, 3, 10, 10, 30), true},
		{"proposed covers existing", utc(2025, 3, 10, 9, 45), utc(2025, 3, 10, 10, 45), true},
		{"starts inside existing", utc(2025, 3, 10, 10, 15), utc(2025, 3, 10, 10, 45), true},
		{"ends inside existing", utc(2025, 3, 10, 9, 45), utc(2025, 3, 10, 10, 15), true},
		{"ends exactly at existing start", utc(2025, 3, 10, 9, 30), utc(2025, 3, 10, 10, 0), false},
		{"starts exactly at existing end", utc(2025, 3, 10, 10, 30), utc(2025, 3, 10, 11, 0), false},
		{"far away", utc(2025, 3, 10, 15, 0), utc(2025, 3, 10, 15, 30), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			has, conflicts, err := engine.Detector().HasConflict(prof.ID, tc.start, tc.end, 0)
			require.NoError(t, err)
			assert.Equal(t, tc.conflict, has)
			if tc.conflict {
				require.Len(t, conflicts, 1)
				assert.Equal(t, existing.ID, conflicts[0].AppointmentID)
				assert.Equal(t, existing.StartTime, conflicts[0].StartTime)
			} else {
				assert.Empty(t, conflicts)
			}
		})
	}
}

func TestHasConflictReturnsAllOverlaps(t *testing.T) {
	engine, db := testEngine(t)
	prof := seedProfessional(t, db)
	seedAppointment(t, db, prof.ID, utc(2025, 3, 10, 10, 0), 30, models.StatusPending)
	seedAppointment(t, db, prof.ID, utc(2025, 3, 10, 10, 30), 30, models.StatusConfirmed)

	has, conflicts, err := engine.Detector().HasConflict(prof.ID, utc(2025, 3, 10, 10, 0), utc(2025, 3, 10, 11, 0), 0)
	require.NoError(t, err)
	assert.True(t, has)
	assert.Len(t, conflicts, 2)
}

func TestHasConflictIgnoresNonBlockingStatuses(t *testing.T) {
	engine, db := testEngine(t)
	prof := seedProfessional(t, db)
	seedAppointment(t, db, prof.ID, utc(2025, 3, 10, 10, 0), 30, models.StatusCancelled)
	seedAppointment(t, db, prof.ID, utc(2025, 3, 10, 10, 0), 30, models.StatusCompleted)

	has, _, err := engine.Detector().HasConflict(prof.ID, utc(2025, 3, 10, 10, 0), utc(2025, 3, 10, 10, 30), 0)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestHasConflictExcludesAppointment(t *testing.T) {
	engine, db := testEngine(t)
	prof := seedProfessional(t, db)
	existing := seedAppointment(t, db, prof.ID, utc(2025, 3, 10, 10, 0), 30, models.StatusConfirmed)

	has, _, err := engine.Detector().HasConflict(prof.ID, utc(2025, 3, 10, 10, 0), utc(2025, 3, 10, 10, 30), existing.ID)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestHasConflictIsolatedByProfessional(t *testing.T) {
	engine, db := testEngine(t)
	busy := seedProfessional(t, db)
	free := seedProfessional(t, db)
	seedAppointment(t, db, busy.ID, utc(2025, 3, 10, 10, 0), 30, models.StatusConfirmed)

	has, _, err := engine.Detector().HasConflict(free.ID, utc(2025, 3, 10, 10, 0), utc(2025, 3, 10, 10, 30), 0)
	require.NoError(t, err)
	assert.False(t, has)
}

// A line whose duration was never resolved blocks at least the minimum
// duration rather than a zero-length window.
func TestHasConflictAppliesMinimumDuration(t *testing.T) {
	engine, db := testEngine(t)
	prof := seedProfessional(t, db)
	seedAppointment(t, db, prof.ID, utc(2025, 3, 10, 10, 0), 0, models.StatusConfirmed)

	has, _, err := engine.Detector().HasConflict(prof.ID, utc(2025, 3, 10, 10, 15), utc(2025, 3, 10, 10, 45), 0)
	require.NoError(t, err)
	assert.True(t, has)
}
