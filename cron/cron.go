package cron

import (
	"fmt"
	"log"
	"time"

	"github.com/crisvard/kitoai-booking/booking"
	"github.com/crisvard/kitoai-booking/db"
	"github.com/crisvard/kitoai-booking/models"
	"github.com/crisvard/kitoai-booking/utils"
	"github.com/robfig/cron/v3"
)

// StartCronJobs initializes and starts the cron scheduler for appointment reminders
func StartCronJobs(cfg booking.Config) {
	c := cron.New()
	// Run every minute to check for appointments in the next hour
	_, err := c.AddFunc("* * * * *", func() { sendAppointmentReminders(cfg) })
	if err != nil {
		log.Fatalf("Failed to add cron job: %v", err)
	}
	c.Start()
	log.Println("Cron job scheduler started for appointment reminders")
}

// sendAppointmentReminders checks for appointments and sends reminders
func sendAppointmentReminders(cfg booking.Config) {
	var appointments []models.Appointment
	now := time.Now()
	// Look for appointments starting in the next hour
	startWindow := now.Add(55 * time.Minute)
	endWindow := now.Add(65 * time.Minute)

	err := db.DB.Preload("Services").Preload("Services.Service").Preload("Professional").
		Where("status = ? AND start_time BETWEEN ? AND ?", models.StatusConfirmed, startWindow, endWindow).
		Find(&appointments).Error
	if err != nil {
		log.Printf("Error fetching appointments for reminders: %v", err)
		return
	}

	for _, appointment := range appointments {
		if appointment.Professional.Email == "" {
			continue
		}
		if err := sendReminderEmail(&appointment, cfg); err != nil {
			log.Printf("Failed to send reminder for appointment %d: %v", appointment.ID, err)
			continue
		}
		log.Printf("Sent reminder for appointment %d to %s", appointment.ID, appointment.Professional.Email)
	}
}

// sendReminderEmail constructs and sends the reminder email
func sendReminderEmail(appointment *models.Appointment, cfg booking.Config) error {
	start := utils.ToLocal(appointment.StartTime, cfg.BusinessLocation)
	end := utils.ToLocal(appointment.EndTime(cfg.MinDurationMinutes), cfg.BusinessLocation)

	subject := fmt.Sprintf("Reminder: Upcoming Appointment - %s", appointment.CustomerName)
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>This is a reminder for an appointment scheduled in one hour.</p>
		<p><strong>Details:</strong></p>
		<ul>
			<li><strong>Customer:</strong> %s (%s)</li>
			<li><strong>Start Time:</strong> %s</li>
			<li><strong>End Time:</strong> %s</li>
			<li><strong>Status:</strong> %s</li>
		</ul>
		<p>Best regards,</p>
		<p>Your Appointment Team</p>
	`, appointment.Professional.Name, appointment.CustomerName, appointment.CustomerPhone,
		start.Format("2006-01-02 15:04"),
		end.Format("2006-01-02 15:04"),
		appointment.Status)

	return utils.SendEmail(appointment.Professional.Email, subject, body)
}
