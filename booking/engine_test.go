package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/crisvard/kitoai-booking/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simpleRequest(prof models.Professional, svc models.Service) BookingRequest {
	return BookingRequest{
		ProfessionalID: prof.ID,
		CustomerName:   "Carla",
		CustomerPhone:  "11988887777",
		Services:       []ServiceSelection{{ServiceID: svc.ID}},
		StartTime:      utc(2025, 3, 10, 10, 0),
	}
}

func TestCreateAppointmentValidation(t *testing.T) {
	engine, db := testEngine(t)
	prof := seedProfessional(t, db)
	svc := seedService(t, db, "Cut", 50, 30)

	cases := []struct {
		name   string
		mutate func(*BookingRequest)
		field  string
	}{
		{"no services selected", func(r *BookingRequest) { r.Services = nil }, "services"},
		{"missing professional", func(r *BookingRequest) { r.ProfessionalID = 0 }, "professional_id"},
		{"missing start time", func(r *BookingRequest) { r.StartTime = time.Time{} }, "start_time"},
		{"new customer without name", func(r *BookingRequest) { r.CustomerName = "" }, "customer_name"},
		{"malformed request token", func(r *BookingRequest) { r.RequestToken = "not-a-uuid" }, "request_token"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := simpleRequest(prof, svc)
			tc.mutate(&req)
			_, report, err := engine.CreateAppointment(context.Background(), testIdentity(), req)
			assert.Nil(t, report)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tc.field, vErr.Field)
		})
	}
}

func TestCreateAppointmentUnknownService(t *testing.T) {
	engine, db := testEngine(t)
	prof := seedProfessional(t, db)
	svc := seedService(t, db, "Cut", 50, 30)

	req := simpleRequest(prof, svc)
	req.Services = []ServiceSelection{{ServiceID: svc.ID + 100}}
	_, _, err := engine.CreateAppointment(context.Background(), testIdentity(), req)
	assert.ErrorIs(t, err, ErrServiceNotFound)
}

func TestCreateAppointmentHappyPath(t *testing.T) {
	engine, db := testEngine(t)
	prof := seedProfessional(t, db)
	cut := seedService(t, db, "Cut", 50, 30)
	color := seedService(t, db, "Color", 120, 60)

	req := simpleRequest(prof, cut)
	req.Services = append(req.Services, ServiceSelection{ServiceID: color.ID})
	appt, report, err := engine.CreateAppointment(context.Background(), testIdentity(), req)
	require.NoError(t, err)
	require.Nil(t, report)
	require.NotNil(t, appt)

	assert.Equal(t, models.StatusPending, appt.Status)
	assert.Equal(t, 170.0, appt.TotalPrice)
	assert.Equal(t, 90, appt.DurationMinutes(30))
	require.Len(t, appt.Services, 2)
	assert.False(t, appt.OverrideUsed)

	// The booking upserted the customer with the professional assignment.
	var cust models.Customer
	require.NoError(t, db.Where("phone = ?", "11988887777").First(&cust).Error)
	assert.Equal(t, "Carla", cust.Name)
	assert.Equal(t, prof.ID, cust.ProfessionalID)
	assert.Equal(t, cust.ID, appt.CustomerID)
}

func TestCreateAppointmentConflictWritesNothing(t *testing.T) {
	engine, db := testEngine(t)
	prof := seedProfessional(t, db)
	svc := seedService(t, db, "Cut", 50, 30)
	existing := seedAppointment(t, db, prof.ID, utc(2025, 3, 10, 10, 0), 30, models.StatusConfirmed)

	appt, report, err := engine.CreateAppointment(context.Background(), testIdentity(), simpleRequest(prof, svc))
	require.NoError(t, err)
	assert.Nil(t, appt)
	require.NotNil(t, report)
	require.Len(t, report.Conflicts, 1)
	assert.Equal(t, existing.ID, report.Conflicts[0].AppointmentID)
	assert.Equal(t, utc(2025, 3, 10, 10, 0), report.ProposedStart)
	assert.Equal(t, utc(2025, 3, 10, 10, 30), report.ProposedEnd)

	var count int64
	require.NoError(t, db.Model(&models.Appointment{}).Count(&count).Error)
	assert.EqualValues(t, 1, count, "a conflict report must cause no writes")
}

func TestBackToBackBookingsCommit(t *testing.T) {
	engine, db := testEngine(t)
	prof := seedProfessional(t, db)
	svc := seedService(t, db, "Cut", 50, 30)

	first := simpleRequest(prof, svc)
	_, report, err := engine.CreateAppointment(context.Background(), testIdentity(), first)
	require.NoError(t, err)
	require.Nil(t, report)

	second := simpleRequest(prof, svc)
	second.CustomerName = "Duda"
	second.CustomerPhone = "11977776666"
	second.StartTime = utc(2025, 3, 10, 10, 30)
	appt, report, err := engine.CreateAppointment(context.Background(), testIdentity(), second)
	require.NoError(t, err)
	require.Nil(t, report, "back-to-back appointments must not conflict")
	assert.NotNil(t, appt)
}

func TestConfirmOverrideCommitsDespiteConflict(t *testing.T) {
	engine, db := testEngine(t)
	prof := seedProfessional(t, db)
	svc := seedService(t, db, "Cut", 50, 30)
	existing := seedAppointment(t, db, prof.ID, utc(2025, 3, 10, 10, 0), 30, models.StatusConfirmed)

	req := simpleRequest(prof, svc)
	appt, report, err := engine.ConfirmOverride(context.Background(), testIdentity(), req, []uint{existing.ID})
	require.NoError(t, err)
	require.Nil(t, report)
	require.NotNil(t, appt)
	assert.True(t, appt.OverrideUsed)
}

func TestConfirmOverrideRevalidatesConflictSet(t *testing.T) {
	engine, db := testEngine(t)
	prof := seedProfessional(t, db)
	svc := seedService(t, db, "Cut", 50, 30)
	acknowledged := seedAppointment(t, db, prof.ID, utc(2025, 3, 10, 10, 0), 30, models.StatusConfirmed)
	// A second conflicting booking lands while the caller is deciding.
	newcomer := seedAppointment(t, db, prof.ID, utc(2025, 3, 10, 10, 15), 30, models.StatusPending)

	req := simpleRequest(prof, svc)
	appt, report, err := engine.ConfirmOverride(context.Background(), testIdentity(), req, []uint{acknowledged.ID})
	require.NoError(t, err)
	assert.Nil(t, appt, "an unacknowledged conflict must block the commit")
	require.NotNil(t, report)
	assert.Contains(t, report.ConflictIDs(), newcomer.ID)
}

func TestPackageSessionPricing(t *testing.T) {
	engine, db := testEngine(t)
	prof := seedProfessional(t, db)
	svc := seedService(t, db, "Cut", 50, 30)
	cust := seedCustomer(t, db, "Bia", "11999990000")
	cps := seedCustomerPackage(t, db, cust.ID, svc.ID, 2, true, nil)

	req := simpleRequest(prof, svc)
	req.CustomerID = cust.ID
	req.Services = []ServiceSelection{{ServiceID: svc.ID, UsePackage: true}}
	appt, report, err := engine.CreateAppointment(context.Background(), testIdentity(), req)
	require.NoError(t, err)
	require.Nil(t, report)

	require.Len(t, appt.Services, 1)
	line := appt.Services[0]
	assert.True(t, line.UsedPackageSession)
	assert.Equal(t, 0.0, line.Price)
	require.NotNil(t, line.CustomerPackageServiceID)
	assert.Equal(t, cps.ID, *line.CustomerPackageServiceID)
	assert.Equal(t, 0.0, appt.TotalPrice)

	var after models.CustomerPackageService
	require.NoError(t, db.First(&after, cps.ID).Error)
	assert.Equal(t, 1, after.SessionsRemaining)
}

func TestPackageIneligibleFallsBackToCash(t *testing.T) {
	engine, db := testEngine(t)
	prof := seedProfessional(t, db)
	svc := seedService(t, db, "Cut", 50, 30)
	cust := seedCustomer(t, db, "Bia", "11999990000")
	seedCustomerPackage(t, db, cust.ID, svc.ID, 2, false, nil) // never paid

	req := simpleRequest(prof, svc)
	req.CustomerID = cust.ID
	req.Services = []ServiceSelection{{ServiceID: svc.ID, UsePackage: true}}
	appt, _, err := engine.CreateAppointment(context.Background(), testIdentity(), req)
	require.NoError(t, err)

	line := appt.Services[0]
	assert.False(t, line.UsedPackageSession)
	assert.Equal(t, 50.0, line.Price)
	assert.Equal(t, 50.0, appt.TotalPrice)
}

// Two lines racing for the last session of the same package: exactly one
// gets it, the other falls back to the cash price, and the counter stops
// at zero.
func TestLastSessionFallback(t *testing.T) {
	engine, db := testEngine(t)
	prof := seedProfessional(t, db)
	svc := seedService(t, db, "Cut", 50, 30)
	cust := seedCustomer(t, db, "Bia", "11999990000")
	cps := seedCustomerPackage(t, db, cust.ID, svc.ID, 1, true, nil)

	req := simpleRequest(prof, svc)
	req.CustomerID = cust.ID
	req.Services = []ServiceSelection{
		{ServiceID: svc.ID, UsePackage: true},
		{ServiceID: svc.ID, UsePackage: true},
	}
	appt, report, err := engine.CreateAppointment(context.Background(), testIdentity(), req)
	require.NoError(t, err)
	require.Nil(t, report)

	consumed := 0
	cash := 0
	for _, line := range appt.Services {
		if line.UsedPackageSession {
			consumed++
			assert.Equal(t, 0.0, line.Price)
		} else {
			cash++
			assert.Equal(t, 50.0, line.Price)
		}
	}
	assert.Equal(t, 1, consumed)
	assert.Equal(t, 1, cash)
	assert.Equal(t, 50.0, appt.TotalPrice)

	var after models.CustomerPackageService
	require.NoError(t, db.First(&after, cps.ID).Error)
	assert.Equal(t, 0, after.SessionsRemaining)
}

func TestRequestTokenIdempotency(t *testing.T) {
	engine, db := testEngine(t)
	prof := seedProfessional(t, db)
	svc := seedService(t, db, "Cut", 50, 30)

	req := simpleRequest(prof, svc)
	req.RequestToken = uuid.NewString()

	first, _, err := engine.CreateAppointment(context.Background(), testIdentity(), req)
	require.NoError(t, err)
	second, report, err := engine.CreateAppointment(context.Background(), testIdentity(), req)
	require.NoError(t, err)
	require.Nil(t, report)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&models.Appointment{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestRescheduleConsistency(t *testing.T) {
	engine, db := testEngine(t)
	prof := seedProfessional(t, db)
	cut := seedService(t, db, "Cut", 50, 30)
	color := seedService(t, db, "Color", 120, 60)

	appt, _, err := engine.CreateAppointment(context.Background(), testIdentity(), simpleRequest(prof, cut))
	require.NoError(t, err)
	oldLineIDs := []uint{appt.Services[0].ID}

	move := simpleRequest(prof, color)
	move.Services = []ServiceSelection{{ServiceID: color.ID}}
	move.StartTime = utc(2025, 3, 10, 14, 0)
	moved, report, err := engine.RescheduleAppointment(context.Background(), testIdentity(), appt.ID, move)
	require.NoError(t, err)
	require.Nil(t, report)

	assert.Equal(t, appt.ID, moved.ID)
	assert.Equal(t, utc(2025, 3, 10, 14, 0), moved.StartTime)
	assert.Equal(t, 120.0, moved.TotalPrice)
	require.Len(t, moved.Services, 1)
	assert.Equal(t, color.ID, moved.Services[0].ServiceID)

	// The old service lines are gone.
	var lines []models.AppointmentService
	require.NoError(t, db.Where("id IN ?", oldLineIDs).Find(&lines).Error)
	assert.Empty(t, lines)

	// The old window no longer blocks other bookings.
	other := simpleRequest(prof, cut)
	other.CustomerName = "Duda"
	other.CustomerPhone = "11977776666"
	booked, report, err := engine.CreateAppointment(context.Background(), testIdentity(), other)
	require.NoError(t, err)
	require.Nil(t, report)
	assert.NotNil(t, booked)
}

func TestRescheduleExcludesOwnWindow(t *testing.T) {
	engine, db := testEngine(t)
	prof := seedProfessional(t, db)
	svc := seedService(t, db, "Cut", 50, 30)

	appt, _, err := engine.CreateAppointment(context.Background(), testIdentity(), simpleRequest(prof, svc))
	require.NoError(t, err)

	// Moving by 15 minutes overlaps the appointment's own old window.
	move := simpleRequest(prof, svc)
	move.StartTime = utc(2025, 3, 10, 10, 15)
	moved, report, err := engine.RescheduleAppointment(context.Background(), testIdentity(), appt.ID, move)
	require.NoError(t, err)
	require.Nil(t, report, "an appointment must not conflict with itself")
	assert.Equal(t, utc(2025, 3, 10, 10, 15), moved.StartTime)
}

// Moving a package booking keeps its pricing and nets the counter to
// zero movement: the old line's session is restored, the new one
// consumes.
func TestRescheduleKeepsPackageLine(t *testing.T) {
	engine, db := testEngine(t)
	prof := seedProfessional(t, db)
	svc := seedService(t, db, "Cut", 50, 30)
	cust := seedCustomer(t, db, "Bia", "11999990000")
	cps := seedCustomerPackage(t, db, cust.ID, svc.ID, 2, true, nil)

	req := simpleRequest(prof, svc)
	req.CustomerID = cust.ID
	req.Services = []ServiceSelection{{ServiceID: svc.ID, UsePackage: true}}
	appt, _, err := engine.CreateAppointment(context.Background(), testIdentity(), req)
	require.NoError(t, err)

	move := req
	move.StartTime = utc(2025, 3, 10, 15, 0)
	moved, report, err := engine.RescheduleAppointment(context.Background(), testIdentity(), appt.ID, move)
	require.NoError(t, err)
	require.Nil(t, report)

	require.Len(t, moved.Services, 1)
	assert.True(t, moved.Services[0].UsedPackageSession)
	assert.Equal(t, 0.0, moved.Services[0].Price)

	var after models.CustomerPackageService
	require.NoError(t, db.First(&after, cps.ID).Error)
	assert.Equal(t, 1, after.SessionsRemaining, "a reschedule must not consume a second session")
}

// Switching a cash line to package use on reschedule consumes a session;
// cancelling afterwards brings the counter back to the purchased amount,
// never above it.
func TestReschedulePicksUpPackageLine(t *testing.T) {
	engine, db := testEngine(t)
	prof := seedProfessional(t, db)
	svc := seedService(t, db, "Cut", 50, 30)
	cust := seedCustomer(t, db, "Bia", "11999990000")
	cps := seedCustomerPackage(t, db, cust.ID, svc.ID, 2, true, nil)

	req := simpleRequest(prof, svc)
	req.CustomerID = cust.ID
	appt, _, err := engine.CreateAppointment(context.Background(), testIdentity(), req)
	require.NoError(t, err)
	require.Equal(t, 50.0, appt.TotalPrice)

	move := req
	move.Services = []ServiceSelection{{ServiceID: svc.ID, UsePackage: true}}
	move.StartTime = utc(2025, 3, 10, 15, 0)
	moved, report, err := engine.RescheduleAppointment(context.Background(), testIdentity(), appt.ID, move)
	require.NoError(t, err)
	require.Nil(t, report)

	require.Len(t, moved.Services, 1)
	assert.True(t, moved.Services[0].UsedPackageSession)
	assert.Equal(t, 0.0, moved.TotalPrice)

	var after models.CustomerPackageService
	require.NoError(t, db.First(&after, cps.ID).Error)
	assert.Equal(t, 1, after.SessionsRemaining)

	_, err = engine.UpdateStatus(testIdentity(), moved.ID, models.StatusCancelled)
	require.NoError(t, err)

	var restored models.CustomerPackageService
	require.NoError(t, db.First(&restored, cps.ID).Error)
	assert.Equal(t, 2, restored.SessionsRemaining, "counter must never exceed the purchased amount")
}

// Dropping package use on reschedule gives the session back and charges
// the cash price.
func TestRescheduleDropsPackageLine(t *testing.T) {
	engine, db := testEngine(t)
	prof := seedProfessional(t, db)
	svc := seedService(t, db, "Cut", 50, 30)
	cust := seedCustomer(t, db, "Bia", "11999990000")
	cps := seedCustomerPackage(t, db, cust.ID, svc.ID, 2, true, nil)

	req := simpleRequest(prof, svc)
	req.CustomerID = cust.ID
	req.Services = []ServiceSelection{{ServiceID: svc.ID, UsePackage: true}}
	appt, _, err := engine.CreateAppointment(context.Background(), testIdentity(), req)
	require.NoError(t, err)
	require.Equal(t, 0.0, appt.TotalPrice)

	move := req
	move.Services = []ServiceSelection{{ServiceID: svc.ID}}
	move.StartTime = utc(2025, 3, 10, 15, 0)
	moved, report, err := engine.RescheduleAppointment(context.Background(), testIdentity(), appt.ID, move)
	require.NoError(t, err)
	require.Nil(t, report)

	require.Len(t, moved.Services, 1)
	assert.False(t, moved.Services[0].UsedPackageSession)
	assert.Equal(t, 50.0, moved.TotalPrice)

	var after models.CustomerPackageService
	require.NoError(t, db.First(&after, cps.ID).Error)
	assert.Equal(t, 2, after.SessionsRemaining)
}

func TestRescheduleTerminalAppointmentRejected(t *testing.T) {
	engine, db := testEngine(t)
	prof := seedProfessional(t, db)
	svc := seedService(t, db, "Cut", 50, 30)
	done := seedAppointment(t, db, prof.ID, utc(2025, 3, 10, 10, 0), 30, models.StatusCompleted)

	move := simpleRequest(prof, svc)
	move.StartTime = utc(2025, 3, 10, 15, 0)
	_, _, err := engine.RescheduleAppointment(context.Background(), testIdentity(), done.ID, move)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "reschedule_of", vErr.Field)
}

func TestCancellationRestoresSessions(t *testing.T) {
	engine, db := testEngine(t)
	prof := seedProfessional(t, db)
	svc := seedService(t, db, "Cut", 50, 30)
	cust := seedCustomer(t, db, "Bia", "11999990000")
	cps := seedCustomerPackage(t, db, cust.ID, svc.ID, 1, true, nil)

	req := simpleRequest(prof, svc)
	req.CustomerID = cust.ID
	req.Services = []ServiceSelection{{ServiceID: svc.ID, UsePackage: true}}
	appt, _, err := engine.CreateAppointment(context.Background(), testIdentity(), req)
	require.NoError(t, err)

	var consumed models.CustomerPackageService
	require.NoError(t, db.First(&consumed, cps.ID).Error)
	require.Equal(t, 0, consumed.SessionsRemaining)

	_, err = engine.UpdateStatus(testIdentity(), appt.ID, models.StatusCancelled)
	require.NoError(t, err)

	var restored models.CustomerPackageService
	require.NoError(t, db.First(&restored, cps.ID).Error)
	assert.Equal(t, 1, restored.SessionsRemaining)
}

func TestUpdateStatusTransitions(t *testing.T) {
	engine, db := testEngine(t)
	prof := seedProfessional(t, db)
	svc := seedService(t, db, "Cut", 50, 30)

	appt, _, err := engine.CreateAppointment(context.Background(), testIdentity(), simpleRequest(prof, svc))
	require.NoError(t, err)

	confirmed, err := engine.UpdateStatus(testIdentity(), appt.ID, models.StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, confirmed.Status)

	completed, err := engine.UpdateStatus(testIdentity(), appt.ID, models.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, completed.Status)

	// Completed is terminal.
	_, err = engine.UpdateStatus(testIdentity(), appt.ID, models.StatusConfirmed)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestDeleteAppointmentRestoresSessions(t *testing.T) {
	engine, db := testEngine(t)
	prof := seedProfessional(t, db)
	svc := seedService(t, db, "Cut", 50, 30)
	cust := seedCustomer(t, db, "Bia", "11999990000")
	cps := seedCustomerPackage(t, db, cust.ID, svc.ID, 1, true, nil)

	req := simpleRequest(prof, svc)
	req.CustomerID = cust.ID
	req.Services = []ServiceSelection{{ServiceID: svc.ID, UsePackage: true}}
	appt, _, err := engine.CreateAppointment(context.Background(), testIdentity(), req)
	require.NoError(t, err)

	require.NoError(t, engine.DeleteAppointment(testIdentity(), appt.ID))

	var restored models.CustomerPackageService
	require.NoError(t, db.First(&restored, cps.ID).Error)
	assert.Equal(t, 1, restored.SessionsRemaining)

	var lines []models.AppointmentService
	require.NoError(t, db.Where("appointment_id = ?", appt.ID).Find(&lines).Error)
	assert.Empty(t, lines)
}

// Deleting a completed appointment must not refund its sessions: the
// service was rendered.
func TestDeleteCompletedKeepsSessionsSpent(t *testing.T) {
	engine, db := testEngine(t)
	prof := seedProfessional(t, db)
	svc := seedService(t, db, "Cut", 50, 30)
	cust := seedCustomer(t, db, "Bia", "11999990000")
	cps := seedCustomerPackage(t, db, cust.ID, svc.ID, 1, true, nil)

	req := simpleRequest(prof, svc)
	req.CustomerID = cust.ID
	req.Services = []ServiceSelection{{ServiceID: svc.ID, UsePackage: true}}
	appt, _, err := engine.CreateAppointment(context.Background(), testIdentity(), req)
	require.NoError(t, err)

	_, err = engine.UpdateStatus(testIdentity(), appt.ID, models.StatusCompleted)
	require.NoError(t, err)

	require.NoError(t, engine.DeleteAppointment(testIdentity(), appt.ID))

	var after models.CustomerPackageService
	require.NoError(t, db.First(&after, cps.ID).Error)
	assert.Equal(t, 0, after.SessionsRemaining)
}

// Two bookings racing for the last session: exactly one is
// package-priced, the other pays cash, and the counter ends at zero.
func TestConcurrentBookingsLastSession(t *testing.T) {
	engine, db := testEngine(t)
	prof := seedProfessional(t, db)
	svc := seedService(t, db, "Cut", 50, 30)
	cust := seedCustomer(t, db, "Bia", "11999990000")
	cps := seedCustomerPackage(t, db, cust.ID, svc.ID, 1, true, nil)

	starts := []time.Time{utc(2025, 3, 10, 10, 0), utc(2025, 3, 10, 14, 0)}
	results := make([]*models.Appointment, len(starts))
	errs := make([]error, len(starts))

	var wg sync.WaitGroup
	for i := range starts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := simpleRequest(prof, svc)
			req.CustomerID = cust.ID
			req.Services = []ServiceSelection{{ServiceID: svc.ID, UsePackage: true}}
			req.StartTime = starts[i]
			results[i], _, errs[i] = engine.CreateAppointment(context.Background(), testIdentity(), req)
		}(i)
	}
	wg.Wait()

	packagePriced := 0
	for i := range results {
		require.NoError(t, errs[i])
		require.NotNil(t, results[i])
		require.Len(t, results[i].Services, 1)
		if results[i].Services[0].UsedPackageSession {
			packagePriced++
			assert.Equal(t, 0.0, results[i].TotalPrice)
		} else {
			assert.Equal(t, 50.0, results[i].TotalPrice)
		}
	}
	assert.Equal(t, 1, packagePriced)

	var after models.CustomerPackageService
	require.NoError(t, db.First(&after, cps.ID).Error)
	assert.Equal(t, 0, after.SessionsRemaining)
}
