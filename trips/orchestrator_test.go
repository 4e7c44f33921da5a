package trips_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/snofleet/fleet-rental-api/databases/mocks"
	"github.com/snofleet/fleet-rental-api/drivers"
	"github.com/snofleet/fleet-rental-api/fleet"
	"github.com/snofleet/fleet-rental-api/models"
	"github.com/snofleet/fleet-rental-api/trips"
)

// fakeStore fails uploads whose public id contains a failing position.
type fakeStore struct {
	fail map[trips.Position]bool
}

func (s *fakeStore) Upload(_ context.Context, publicID string, _ []byte) (string, error) {
	for pos, fail := range s.fail {
		if fail && strings.Contains(publicID, string(pos)) {
			return "", errors.New("network upload failed")
		}
	}
	return "https://res.cloudinary.com/demo/" + publicID + ".jpg", nil
}

func (s *fakeStore) Delete(_ context.Context, _ string) error { return nil }

func fixedNow() time.Time {
	return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
}

func confirmReadyWorkflow(t *testing.T, vehicle models.Vehicle, tripType trips.TripType, driver *models.Driver) *trips.Workflow {
	t.Helper()
	w, err := trips.NewWorkflow("session-1", vehicle, tripType, 4)
	assert.NoError(t, err)
	w.Driver = driver
	assert.NoError(t, w.Forward())
	for _, pos := range trips.Positions {
		assert.NoError(t, w.AddPhoto(pos, []byte("jpeg-bytes"), "image/jpeg"))
	}
	assert.NoError(t, w.Forward())
	return w
}

func TestOrchestratorAuthenticate(t *testing.T) {
	vehicle := models.Vehicle{ID: primitive.NewObjectID(), PlateNumber: "EL12345", Status: models.StatusFree}
	o := &trips.Orchestrator{Directory: drivers.NewSampleDirectory(), Now: fixedNow}

	w, err := trips.NewWorkflow("session-1", vehicle, trips.TripPickup, 4)
	assert.NoError(t, err)

	assert.NoError(t, o.Authenticate(context.Background(), w, "1234", "Bruker 1"))
	assert.Equal(t, trips.StageCapturingPhotos, w.Stage)
	assert.Equal(t, "Bruker 1", w.Driver.Name)
}

func TestOrchestratorAuthenticateRejectsBadCredentials(t *testing.T) {
	vehicle := models.Vehicle{ID: primitive.NewObjectID(), PlateNumber: "EL12345", Status: models.StatusFree}
	o := &trips.Orchestrator{Directory: drivers.NewSampleDirectory(), Now: fixedNow}

	w, err := trips.NewWorkflow("session-1", vehicle, trips.TripPickup, 4)
	assert.NoError(t, err)

	err = o.Authenticate(context.Background(), w, "9999", "Bruker 1")
	assert.ErrorIs(t, err, drivers.ErrInvalidCredentials)
	assert.Equal(t, trips.StageAuthenticating, w.Stage)
}

func TestOrchestratorAuthenticateReturnWrongDriver(t *testing.T) {
	vehicle := models.Vehicle{ID: primitive.NewObjectID(), PlateNumber: "EL12345", Status: models.StatusBusy, DriverName: "Bruker 1"}
	o := &trips.Orchestrator{Directory: drivers.NewSampleDirectory(), Now: fixedNow}

	w, err := trips.NewWorkflow("session-1", vehicle, trips.TripReturn, 4)
	assert.NoError(t, err)

	err = o.Authenticate(context.Background(), w, "1234", "Bruker 2")
	var nerr *drivers.NotAuthorizedError
	assert.ErrorAs(t, err, &nerr)
	assert.Equal(t, "Bruker 1", nerr.RequiredDriver)
}

func TestOrchestratorConfirmTake(t *testing.T) {
	vehicle := models.Vehicle{ID: primitive.NewObjectID(), PlateNumber: "EL12345", Status: models.StatusFree}
	driver := &models.Driver{Code: "1234", Name: "Bruker 1"}
	w := confirmReadyWorkflow(t, vehicle, trips.TripPickup, driver)

	vehicleDB := &mocks.VehicleDatabase{}
	photoDB := &mocks.PhotoDatabase{}
	photoDB.On("InsertOne", mock.Anything, mock.Anything).Return("inserted-id", nil)
	vehicleDB.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(int64(1), nil)

	o := &trips.Orchestrator{
		VehicleDB: vehicleDB,
		PhotoDB:   photoDB,
		Store:     &fakeStore{},
		Directory: drivers.NewSampleDirectory(),
		Now:       fixedNow,
	}

	result, err := o.Confirm(context.Background(), w, trips.ConfirmInput{ChargeLevel: 80})
	assert.NoError(t, err)
	assert.Len(t, result.Uploaded, 4)
	assert.Empty(t, result.Failed)
	assert.Equal(t, trips.StageIdle, w.Stage)

	vehicleDB.AssertNumberOfCalls(t, "UpdateOne", 1)
	photoDB.AssertNumberOfCalls(t, "InsertOne", 4)
}

func TestOrchestratorConfirmPartialUploadFailure(t *testing.T) {
	vehicle := models.Vehicle{ID: primitive.NewObjectID(), PlateNumber: "EL12345", Status: models.StatusFree}
	driver := &models.Driver{Code: "1234", Name: "Bruker 1"}
	w := confirmReadyWorkflow(t, vehicle, trips.TripPickup, driver)

	vehicleDB := &mocks.VehicleDatabase{}
	photoDB := &mocks.PhotoDatabase{}
	photoDB.On("InsertOne", mock.Anything, mock.Anything).Return("inserted-id", nil)
	vehicleDB.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(int64(1), nil)

	o := &trips.Orchestrator{
		VehicleDB: vehicleDB,
		PhotoDB:   photoDB,
		Store:     &fakeStore{fail: map[trips.Position]bool{trips.PositionLeft: true}},
		Directory: drivers.NewSampleDirectory(),
		Now:       fixedNow,
	}

	result, err := o.Confirm(context.Background(), w, trips.ConfirmInput{ChargeLevel: 80})
	assert.NoError(t, err)

	// three photos recorded, one reported, the status update still happened
	assert.Len(t, result.Uploaded, 3)
	assert.Len(t, result.Failed, 1)
	assert.Equal(t, trips.PositionLeft, result.Failed[0].Position)
	vehicleDB.AssertNumberOfCalls(t, "UpdateOne", 1)
}

func TestOrchestratorConfirmValidatesBeforeUploading(t *testing.T) {
	vehicle := models.Vehicle{ID: primitive.NewObjectID(), PlateNumber: "EL12345", Status: models.StatusFree}
	driver := &models.Driver{Code: "1234", Name: "Bruker 1"}
	w := confirmReadyWorkflow(t, vehicle, trips.TripPickup, driver)

	vehicleDB := &mocks.VehicleDatabase{}
	photoDB := &mocks.PhotoDatabase{}

	o := &trips.Orchestrator{
		VehicleDB: vehicleDB,
		PhotoDB:   photoDB,
		Store:     &fakeStore{},
		Directory: drivers.NewSampleDirectory(),
		Now:       fixedNow,
	}

	_, err := o.Confirm(context.Background(), w, trips.ConfirmInput{ChargeLevel: 120})
	var verr *fleet.ValidationError
	assert.ErrorAs(t, err, &verr)

	// nothing was uploaded or written
	photoDB.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
	vehicleDB.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrchestratorConfirmVehicleVanished(t *testing.T) {
	vehicle := models.Vehicle{ID: primitive.NewObjectID(), PlateNumber: "EL12345", Status: models.StatusFree}
	driver := &models.Driver{Code: "1234", Name: "Bruker 1"}
	w := confirmReadyWorkflow(t, vehicle, trips.TripPickup, driver)

	vehicleDB := &mocks.VehicleDatabase{}
	photoDB := &mocks.PhotoDatabase{}
	photoDB.On("InsertOne", mock.Anything, mock.Anything).Return("inserted-id", nil)
	vehicleDB.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), nil)

	o := &trips.Orchestrator{
		VehicleDB: vehicleDB,
		PhotoDB:   photoDB,
		Store:     &fakeStore{},
		Directory: drivers.NewSampleDirectory(),
		Now:       fixedNow,
	}

	_, err := o.Confirm(context.Background(), w, trips.ConfirmInput{ChargeLevel: 80})
	assert.ErrorIs(t, err, fleet.ErrNotFound)
}

func TestRegistryLifecycle(t *testing.T) {
	r := trips.NewRegistry()
	vehicle := models.Vehicle{ID: primitive.NewObjectID(), PlateNumber: "EL12345", Status: models.StatusFree}

	w, err := r.Create(vehicle, trips.TripPickup, 4)
	assert.NoError(t, err)
	assert.NotEmpty(t, w.ID)

	got, err := r.Get(w.ID)
	assert.NoError(t, err)
	assert.Equal(t, w, got)

	r.Remove(w.ID)
	_, err = r.Get(w.ID)
	assert.ErrorIs(t, err, trips.ErrSessionNotFound)
}
