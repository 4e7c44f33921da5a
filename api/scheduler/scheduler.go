package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/snofleet/fleet-rental-api/databases"
	"github.com/snofleet/fleet-rental-api/models"
	"github.com/snofleet/fleet-rental-api/reservations"
)

// Scheduler handles the periodic background jobs: expiring reservations,
// closing out past schedule entries and sending reservation reminders.
type Scheduler struct {
	cron       *cron.Cron
	ResDB      databases.ReservationDatabase
	VehicleDB  databases.VehicleDatabase
	ScheduleDB databases.ScheduleDatabase
	DriverDB   databases.DriverDatabase
	LockDB     databases.SchedulerLockDatabase
	Mailer     reservations.Mailer
	instanceID string
}

// NewScheduler creates a new scheduler instance
func NewScheduler(
	resDB databases.ReservationDatabase,
	vehicleDB databases.VehicleDatabase,
	scheduleDB databases.ScheduleDatabase,
	driverDB databases.DriverDatabase,
	lockDB databases.SchedulerLockDatabase,
	mailer reservations.Mailer,
) *Scheduler {
	// Generate a unique instance ID for this pod
	instanceID := os.Getenv("DYNO") // Heroku sets this to "web.1", "web.2", etc.
	if instanceID == "" {
		instanceID = fmt.Sprintf("instance-%d", time.Now().UnixNano())
	}

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		ResDB:      resDB,
		VehicleDB:  vehicleDB,
		ScheduleDB: scheduleDB,
		DriverDB:   driverDB,
		LockDB:     lockDB,
		Mailer:     mailer,
		instanceID: instanceID,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// Expire ended reservations every 5 minutes
	_, err := s.cron.AddFunc("*/5 * * * *", s.ExpireReservations)
	if err != nil {
		zap.S().Errorw("failed to register reservation expiry job", "error", err)
	}

	// Close out yesterday's schedule entries shortly after midnight UTC
	_, err = s.cron.AddFunc("10 0 * * *", s.CompleteSchedules)
	if err != nil {
		zap.S().Errorw("failed to register schedule completion job", "error", err)
	}

	// Remind drivers about reservations starting within the next hour
	_, err = s.cron.AddFunc("0 * * * *", s.SendReminders)
	if err != nil {
		zap.S().Errorw("failed to register reminder job", "error", err)
	}

	s.cron.Start()
	zap.S().Info("fleet scheduler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("fleet scheduler stopped")
}

// ExpireReservations completes reservations whose window has passed and frees
// the vehicles still mirroring them.
func (s *Scheduler) ExpireReservations() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	acquired, err := s.LockDB.TryAcquireLock(ctx, "reservation_expiry_job", s.instanceID, 5*time.Minute)
	if err != nil {
		zap.S().Errorw("failed to acquire lock for reservation expiry job", "error", err)
		return
	}
	if !acquired {
		zap.S().Debug("reservation expiry job already running on another instance, skipping")
		return
	}
	defer s.LockDB.ReleaseLock(ctx, "reservation_expiry_job", s.instanceID)

	now := time.Now()

	expired, err := s.ResDB.UpdateMany(ctx, bson.M{
		"status":     models.ReservationActive,
		"reservedTo": bson.M{"$lt": now},
	}, bson.M{
		"$set": bson.M{"status": models.ReservationCompleted},
	})
	if err != nil {
		zap.S().Errorw("failed to complete expired reservations", "error", err)
		return
	}

	// A vehicle still marked reserved past its window was never picked up;
	// put it back in the pool.
	freed, err := s.VehicleDB.UpdateMany(ctx, bson.M{
		"status":     models.StatusReserved,
		"reservedTo": bson.M{"$lt": now},
	}, bson.M{
		"$set": bson.M{
			"status":      models.StatusFree,
			"lastUpdated": now,
		},
		"$unset": bson.M{
			"reservedBy":   "",
			"reservedFrom": "",
			"reservedTo":   "",
		},
	})
	if err != nil {
		zap.S().Errorw("failed to free vehicles with expired reservations", "error", err)
		return
	}

	if expired > 0 || freed > 0 {
		zap.S().Infow("reservation expiry complete",
			"reservationsCompleted", expired,
			"vehiclesFreed", freed,
			"instance", s.instanceID,
		)
	}
}

// CompleteSchedules marks schedule entries from previous days as completed.
func (s *Scheduler) CompleteSchedules() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	acquired, err := s.LockDB.TryAcquireLock(ctx, "schedule_completion_job", s.instanceID, 10*time.Minute)
	if err != nil {
		zap.S().Errorw("failed to acquire lock for schedule completion job", "error", err)
		return
	}
	if !acquired {
		zap.S().Debug("schedule completion job already running on another instance, skipping")
		return
	}
	defer s.LockDB.ReleaseLock(ctx, "schedule_completion_job", s.instanceID)

	// Dates are stored as "2006-01-02" strings, so a lexical comparison
	// against today is a date comparison.
	today := time.Now().UTC().Format("2006-01-02")

	completed, err := s.ScheduleDB.UpdateMany(ctx, bson.M{
		"status": models.ScheduleScheduled,
		"date":   bson.M{"$lt": today},
	}, bson.M{
		"$set": bson.M{"status": models.ScheduleCompleted},
	})
	if err != nil {
		zap.S().Errorw("failed to complete past schedule entries", "error", err)
		return
	}

	zap.S().Infow("schedule completion complete",
		"entriesCompleted", completed,
		"instance", s.instanceID,
	)
}

// SendReminders mails drivers whose reservations start within the next hour.
// ReminderSentAt keeps the hourly sweep from mailing twice.
func (s *Scheduler) SendReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	acquired, err := s.LockDB.TryAcquireLock(ctx, "reservation_reminder_job", s.instanceID, 10*time.Minute)
	if err != nil {
		zap.S().Errorw("failed to acquire lock for reminder job", "error", err)
		return
	}
	if !acquired {
		zap.S().Debug("reminder job already running on another instance, skipping")
		return
	}
	defer s.LockDB.ReleaseLock(ctx, "reservation_reminder_job", s.instanceID)

	now := time.Now()
	upcoming, err := s.ResDB.Find(ctx, bson.M{
		"status": models.ReservationActive,
		"reservedFrom": bson.M{
			"$gt": now,
			"$lt": now.Add(time.Hour),
		},
		"reminderSentAt": nil,
	})
	if err != nil {
		zap.S().Errorw("failed to find reservations needing reminders", "error", err)
		return
	}

	sent := 0
	for _, res := range upcoming {
		// driver codes are shared across the fleet, the name pins the driver
		driver, err := s.DriverDB.FindOne(ctx, bson.M{"driverCode": res.DriverID, "name": res.DriverName})
		if err != nil || driver.Email == "" {
			continue
		}
		if err := s.Mailer.SendReservationReminder(ctx, *driver, res); err != nil {
			zap.S().Errorw("failed to send reservation reminder",
				"reservationId", res.ID.Hex(),
				"error", err,
			)
			continue
		}
		if _, err := s.ResDB.UpdateOne(ctx, bson.M{"_id": res.ID}, bson.M{
			"$set": bson.M{"reminderSentAt": now},
		}); err != nil {
			zap.S().Warnw("failed to mark reminder as sent",
				"reservationId", res.ID.Hex(),
				"error", err,
			)
		}
		sent++
	}

	if sent > 0 {
		zap.S().Infow("reservation reminders sent",
			"count", sent,
			"instance", s.instanceID,
		)
	}
}
