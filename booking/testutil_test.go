package booking

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/crisvard/kitoai-booking/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.Professional{},
		&models.WorkingHours{},
		&models.Service{},
		&models.Customer{},
		&models.Appointment{},
		&models.AppointmentService{},
		&models.Package{},
		&models.PackageService{},
		&models.CustomerPackage{},
		&models.CustomerPackageService{},
		&models.ProfessionalCommission{},
		&models.CommissionRecord{},
	))
	return db
}

func testEngine(t *testing.T) (*Engine, *gorm.DB) {
	t.Helper()
	db := testDB(t)
	return NewEngine(db, DefaultConfig(), NewLocalLocker()), db
}

func testIdentity() CallerIdentity {
	return CallerIdentity{UserID: 1, FranchiseID: 1, Actor: ActorAdmin}
}

func seedProfessional(t *testing.T, db *gorm.DB) models.Professional {
	t.Helper()
	p := models.Professional{Name: "Ana", Specialty: "Hair", IsActive: true, UserID: 1, FranchiseID: 1}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func seedService(t *testing.T, db *gorm.DB, name string, price float64, minutes int) models.Service {
	t.Helper()
	s := models.Service{Name: name, Price: price, DurationMinutes: minutes, IsActive: true, UserID: 1}
	require.NoError(t, db.Create(&s).Error)
	return s
}

func seedWorkingHours(t *testing.T, db *gorm.DB, professionalID uint, day models.DayOfWeek, start, end string) models.WorkingHours {
	t.Helper()
	wh := models.WorkingHours{ProfessionalID: professionalID, DayOfWeek: day, StartTime: start, EndTime: end, IsAvailable: true}
	require.NoError(t, db.Create(&wh).Error)
	return wh
}

// seedAppointment inserts a blocking appointment with one service line of
// the given duration, bypassing the engine.
func seedAppointment(t *testing.T, db *gorm.DB, professionalID uint, start time.Time, minutes int, status models.AppointmentStatus) models.Appointment {
	t.Helper()
	appt := models.Appointment{
		ProfessionalID: professionalID,
		CustomerName:   "Walk-in",
		StartTime:      start,
		Status:         status,
		UserID:         1,
	}
	require.NoError(t, db.Create(&appt).Error)
	line := models.AppointmentService{AppointmentID: appt.ID, DurationMinutes: minutes}
	require.NoError(t, db.Create(&line).Error)
	appt.Services = []models.AppointmentService{line}
	return appt
}

// seedCustomerPackage gives a customer a paid package with the given
// remaining sessions for one service. Pass a nil expiration for a
// package that never expires.
func seedCustomerPackage(t *testing.T, db *gorm.DB, customerID, serviceID uint, remaining int, paid bool, expiration *time.Time) models.CustomerPackageService {
	t.Helper()
	pkg := models.Package{Name: "Bundle", IsActive: true, UserID: 1}
	require.NoError(t, db.Create(&pkg).Error)
	cp := models.CustomerPackage{PackageID: pkg.ID, CustomerID: customerID, Paid: paid, ExpirationDate: expiration, UserID: 1}
	require.NoError(t, db.Create(&cp).Error)
	cps := models.CustomerPackageService{CustomerPackageID: cp.ID, ServiceID: serviceID, SessionsRemaining: remaining}
	require.NoError(t, db.Create(&cps).Error)
	return cps
}

func seedCustomer(t *testing.T, db *gorm.DB, name, phone string) models.Customer {
	t.Helper()
	c := models.Customer{Name: name, Phone: phone, UserID: 1, FranchiseID: 1}
	require.NoError(t, db.Create(&c).Error)
	return c
}

// utc builds an instant without the noise of time.Date at call sites.
func utc(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
}
