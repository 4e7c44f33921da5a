package trips_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/snofleet/fleet-rental-api/models"
	"github.com/snofleet/fleet-rental-api/trips"
)

func newPickupWorkflow(t *testing.T) *trips.Workflow {
	t.Helper()
	w, err := trips.NewWorkflow("session-1", models.Vehicle{PlateNumber: "EL12345", Status: models.StatusFree}, trips.TripPickup, 4)
	assert.NoError(t, err)
	return w
}

func TestNewWorkflowRejectsUnknownTripType(t *testing.T) {
	_, err := trips.NewWorkflow("session-1", models.Vehicle{}, trips.TripType("joyride"), 4)
	assert.Error(t, err)
}

func TestWorkflowForwardBlockedWithoutDriver(t *testing.T) {
	w := newPickupWorkflow(t)

	err := w.Forward()
	var serr *trips.StageError
	assert.ErrorAs(t, err, &serr)
	assert.Equal(t, trips.StageAuthenticating, w.Stage)
}

func TestWorkflowPhotoStageRules(t *testing.T) {
	w := newPickupWorkflow(t)
	w.Driver = &models.Driver{Code: "1234", Name: "Bruker 1"}
	assert.NoError(t, w.Forward())
	assert.Equal(t, trips.StageCapturingPhotos, w.Stage)

	// forward blocked until all four positions are captured
	assert.Error(t, w.Forward())

	for _, pos := range trips.Positions {
		assert.NoError(t, w.AddPhoto(pos, []byte("jpeg-bytes"), "image/jpeg"))
	}
	assert.True(t, w.PhotosComplete())
	assert.NoError(t, w.Forward())
	assert.Equal(t, trips.StageConfirmingCharge, w.Stage)
}

func TestWorkflowAddPhotoValidation(t *testing.T) {
	w := newPickupWorkflow(t)

	// wrong stage
	err := w.AddPhoto(trips.PositionFront, []byte("x"), "image/jpeg")
	var serr *trips.StageError
	assert.ErrorAs(t, err, &serr)

	w.Driver = &models.Driver{Code: "1234", Name: "Bruker 1"}
	assert.NoError(t, w.Forward())

	assert.Error(t, w.AddPhoto(trips.Position("top"), []byte("x"), "image/jpeg"))
	assert.Error(t, w.AddPhoto(trips.PositionFront, nil, "image/jpeg"))
}

func TestWorkflowRetakeReplacesPhoto(t *testing.T) {
	w := newPickupWorkflow(t)
	w.Driver = &models.Driver{Code: "1234", Name: "Bruker 1"}
	assert.NoError(t, w.Forward())

	assert.NoError(t, w.AddPhoto(trips.PositionFront, []byte("first"), "image/jpeg"))
	assert.NoError(t, w.AddPhoto(trips.PositionFront, []byte("second"), "image/jpeg"))
	assert.Len(t, w.Photos, 1)
	assert.Equal(t, []byte("second"), w.Photos[trips.PositionFront].Data)

	assert.NoError(t, w.RemovePhoto(trips.PositionFront))
	assert.Empty(t, w.Photos)
}

func TestWorkflowBack(t *testing.T) {
	w := newPickupWorkflow(t)
	w.Driver = &models.Driver{Code: "1234", Name: "Bruker 1"}
	assert.NoError(t, w.Forward())
	assert.NoError(t, w.AddPhoto(trips.PositionFront, []byte("x"), "image/jpeg"))

	assert.NoError(t, w.Back())
	assert.Equal(t, trips.StageAuthenticating, w.Stage)

	// captured input survives going back
	assert.Len(t, w.Photos, 1)

	assert.Error(t, w.Back())
}

func TestWorkflowCancelDiscardsState(t *testing.T) {
	w := newPickupWorkflow(t)
	w.Driver = &models.Driver{Code: "1234", Name: "Bruker 1"}
	assert.NoError(t, w.Forward())
	assert.NoError(t, w.AddPhoto(trips.PositionFront, []byte("x"), "image/jpeg"))

	w.Cancel()

	assert.Equal(t, trips.StageIdle, w.Stage)
	assert.Nil(t, w.Driver)
	assert.Empty(t, w.Photos)
}

func TestWorkflowAdminPhotoRequirement(t *testing.T) {
	// the admin detail flow runs the same workflow with a looser photo count
	w, err := trips.NewWorkflow("session-2", models.Vehicle{PlateNumber: "EL12345", Status: models.StatusFree}, trips.TripPickup, 1)
	assert.NoError(t, err)
	w.Driver = &models.Driver{Code: "1234", Name: "Bruker 1"}
	assert.NoError(t, w.Forward())

	assert.NoError(t, w.AddPhoto(trips.PositionFront, []byte("x"), "image/jpeg"))
	assert.NoError(t, w.Forward())
	assert.Equal(t, trips.StageConfirmingCharge, w.Stage)
}
