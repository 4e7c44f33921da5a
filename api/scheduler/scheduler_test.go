package scheduler_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/snofleet/fleet-rental-api/api/scheduler"
	"github.com/snofleet/fleet-rental-api/databases/mocks"
	"github.com/snofleet/fleet-rental-api/models"
)

type fakeMailer struct {
	reminders     []models.Reservation
	confirmations int
}

func (f *fakeMailer) SendReservationConfirmation(_ context.Context, _ models.Driver, _ []models.Reservation) error {
	f.confirmations++
	return nil
}

func (f *fakeMailer) SendReservationReminder(_ context.Context, _ models.Driver, r models.Reservation) error {
	f.reminders = append(f.reminders, r)
	return nil
}

func acquiredLock() *mocks.SchedulerLockDatabase {
	lockDB := &mocks.SchedulerLockDatabase{}
	lockDB.On("TryAcquireLock", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	lockDB.On("ReleaseLock", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	return lockDB
}

func TestScheduler_ExpireReservations(t *testing.T) {
	resDB := &mocks.ReservationDatabase{}
	vehicleDB := &mocks.VehicleDatabase{}
	lockDB := acquiredLock()

	resDB.On("UpdateMany", mock.Anything, mock.Anything, mock.Anything).Return(int64(2), nil)
	vehicleDB.On("UpdateMany", mock.Anything, mock.Anything, mock.Anything).Return(int64(1), nil)

	s := scheduler.NewScheduler(resDB, vehicleDB, &mocks.ScheduleDatabase{}, &mocks.DriverDatabase{}, lockDB, &fakeMailer{})
	s.ExpireReservations()

	resDB.AssertNumberOfCalls(t, "UpdateMany", 1)
	vehicleDB.AssertNumberOfCalls(t, "UpdateMany", 1)
	lockDB.AssertNumberOfCalls(t, "ReleaseLock", 1)
}

func TestScheduler_ExpireReservationsLockHeld(t *testing.T) {
	resDB := &mocks.ReservationDatabase{}
	lockDB := &mocks.SchedulerLockDatabase{}
	lockDB.On("TryAcquireLock", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(false, nil)

	s := scheduler.NewScheduler(resDB, &mocks.VehicleDatabase{}, &mocks.ScheduleDatabase{}, &mocks.DriverDatabase{}, lockDB, &fakeMailer{})
	s.ExpireReservations()

	resDB.AssertNotCalled(t, "UpdateMany", mock.Anything, mock.Anything, mock.Anything)
	lockDB.AssertNotCalled(t, "ReleaseLock", mock.Anything, mock.Anything, mock.Anything)
}

func TestScheduler_CompleteSchedules(t *testing.T) {
	scheduleDB := &mocks.ScheduleDatabase{}
	lockDB := acquiredLock()

	scheduleDB.On("UpdateMany", mock.Anything, mock.Anything, mock.Anything).Return(int64(3), nil)

	s := scheduler.NewScheduler(&mocks.ReservationDatabase{}, &mocks.VehicleDatabase{}, scheduleDB, &mocks.DriverDatabase{}, lockDB, &fakeMailer{})
	s.CompleteSchedules()

	scheduleDB.AssertNumberOfCalls(t, "UpdateMany", 1)
	lockDB.AssertNumberOfCalls(t, "ReleaseLock", 1)
}

func TestScheduler_SendReminders(t *testing.T) {
	resDB := &mocks.ReservationDatabase{}
	driverDB := &mocks.DriverDatabase{}
	lockDB := acquiredLock()
	mailer := &fakeMailer{}

	resID := primitive.NewObjectID()
	oneHourWindow := mock.MatchedBy(func(filter bson.M) bool {
		window, ok := filter["reservedFrom"].(bson.M)
		if !ok {
			return false
		}
		return window["$lt"].(time.Time).Sub(window["$gt"].(time.Time)) == time.Hour
	})
	resDB.On("Find", mock.Anything, oneHourWindow).Return([]models.Reservation{
		{
			ID:           resID,
			DriverID:     "1234",
			DriverName:   "Bruker 1",
			ReservedFrom: time.Now().Add(30 * time.Minute),
			Status:       models.ReservationActive,
		},
	}, nil)
	driverDB.On("FindOne", mock.Anything, mock.Anything).
		Return(&models.Driver{Name: "Bruker 1", Code: "1234", Email: "bruker1@taxi.no"}, nil)
	resDB.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(int64(1), nil)

	s := scheduler.NewScheduler(resDB, &mocks.VehicleDatabase{}, &mocks.ScheduleDatabase{}, driverDB, lockDB, mailer)
	s.SendReminders()

	if len(mailer.reminders) != 1 {
		t.Fatalf("expected 1 reminder, got %d", len(mailer.reminders))
	}
	if mailer.reminders[0].ID != resID {
		t.Errorf("reminder sent for the wrong reservation")
	}
	// the reservation is marked so the next sweep skips it
	resDB.AssertNumberOfCalls(t, "UpdateOne", 1)
}

func TestScheduler_SendRemindersResolvesDriverByCodeAndName(t *testing.T) {
	resDB := &mocks.ReservationDatabase{}
	driverDB := &mocks.DriverDatabase{}
	mailer := &fakeMailer{}

	// every sample driver shares the code, the name must pick the right one
	resDB.On("Find", mock.Anything, mock.Anything).Return([]models.Reservation{
		{
			ID:           primitive.NewObjectID(),
			DriverID:     "1234",
			DriverName:   "Bruker 2",
			ReservedFrom: time.Now().Add(45 * time.Minute),
			Status:       models.ReservationActive,
		},
	}, nil)
	driverDB.On("FindOne", mock.Anything, bson.M{"driverCode": "1234", "name": "Bruker 2"}).
		Return(&models.Driver{Name: "Bruker 2", Code: "1234", Email: "bruker2@taxi.no"}, nil)
	resDB.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(int64(1), nil)

	s := scheduler.NewScheduler(resDB, &mocks.VehicleDatabase{}, &mocks.ScheduleDatabase{}, driverDB, acquiredLock(), mailer)
	s.SendReminders()

	if len(mailer.reminders) != 1 {
		t.Fatalf("expected 1 reminder, got %d", len(mailer.reminders))
	}
	driverDB.AssertExpectations(t)
}

func TestScheduler_SendRemindersSkipsDriversWithoutEmail(t *testing.T) {
	resDB := &mocks.ReservationDatabase{}
	driverDB := &mocks.DriverDatabase{}
	mailer := &fakeMailer{}

	resDB.On("Find", mock.Anything, mock.Anything).Return([]models.Reservation{
		{ID: primitive.NewObjectID(), DriverID: "1234", ReservedFrom: time.Now().Add(time.Hour)},
	}, nil)
	driverDB.On("FindOne", mock.Anything, mock.Anything).
		Return(&models.Driver{Name: "Bruker 1", Code: "1234"}, nil)

	s := scheduler.NewScheduler(resDB, &mocks.VehicleDatabase{}, &mocks.ScheduleDatabase{}, driverDB, acquiredLock(), mailer)
	s.SendReminders()

	if len(mailer.reminders) != 0 {
		t.Errorf("expected no reminders, got %d", len(mailer.reminders))
	}
	resDB.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}
