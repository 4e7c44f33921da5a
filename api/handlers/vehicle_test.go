package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/snofleet/fleet-rental-api/api/handlers"
	"github.com/snofleet/fleet-rental-api/config"
	"github.com/snofleet/fleet-rental-api/databases"
	"github.com/snofleet/fleet-rental-api/databases/mocks"
	"github.com/snofleet/fleet-rental-api/models"
)

type MockDatabaseHelper struct {
	mock.Mock
}

// Client provides a mock function.
func (_m *MockDatabaseHelper) Client() databases.ClientHelper {
	ret := _m.Called()

	var r0 databases.ClientHelper
	if rf, ok := ret.Get(0).(func() databases.ClientHelper); ok {
		r0 = rf()
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(databases.ClientHelper)
		}
	}

	return r0
}

// Collection provides a mock function.
func (_m *MockDatabaseHelper) Collection(name string) databases.CollectionHelper {
	ret := _m.Called(name)

	var r0 databases.CollectionHelper
	if rf, ok := ret.Get(0).(func(string) databases.CollectionHelper); ok {
		r0 = rf(name)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(databases.CollectionHelper)
		}
	}

	return r0
}

func TestVehicle_VehicleByIDHandlerBadHex(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/vehicle/asdf", nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"vehicle_id": "asdf"})

	v := handlers.Vehicle{}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(v.VehicleByIDHandler)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusBadRequest {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusBadRequest)
	}

	expected := `{"response": "failed to get objectID from Hex, the provided hex string is not a valid ObjectID"}`
	if rr.Body.String() != expected {
		t.Errorf("handler returned unexpected body: got %v want %v", rr.Body.String(), expected)
	}
}

func TestVehicle_VehicleByIDHandlerQueryDeadline(t *testing.T) {
	vID := primitive.NewObjectID()
	hasDeadline := mock.MatchedBy(func(ctx context.Context) bool {
		_, ok := ctx.Deadline()
		return ok
	})
	vehicleDB := &mocks.VehicleDatabase{}
	vehicleDB.On("FindOne", hasDeadline, mock.Anything).
		Return(&models.Vehicle{ID: vID, PlateNumber: "EL12345", Status: models.StatusFree}, nil)

	v := handlers.Vehicle{DB: vehicleDB}

	req, err := http.NewRequest("GET", "/api/v1/vehicle/"+vID.Hex(), nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"vehicle_id": vID.Hex()})

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(v.VehicleByIDHandler)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}
	vehicleDB.AssertExpectations(t)
}

func TestVehicle_VehicleByIDHandlerNotFound(t *testing.T) {
	vID := primitive.NewObjectID()
	req, err := http.NewRequest("GET", "/api/v1/vehicle/"+vID.Hex(), nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"vehicle_id": vID.Hex()})

	var db databases.DatabaseHelper
	var conn databases.CollectionHelper
	var singleResultHelper databases.SingleResultHelper

	db = &MockDatabaseHelper{} // can be used as db = &mocks.DatabaseHelper{}
	conn = &mocks.CollectionHelper{}
	singleResultHelper = &mocks.SingleResultHelper{}

	singleResultHelper.(*mocks.SingleResultHelper).On("Decode", mock.Anything).Return(errors.New("mocked-error"))
	conn.(*mocks.CollectionHelper).On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.(*MockDatabaseHelper).On("Collection", "vehicles").Return(conn)

	v := handlers.Vehicle{
		DB: databases.NewVehicleDatabase(db),
	}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(v.VehicleByIDHandler)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusNotFound {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusNotFound)
	}

	expected := `{"response": "failed to get vehicle by ID, mocked-error"}`
	if rr.Body.String() != expected {
		t.Errorf("handler returned unexpected body: got %v want %v", rr.Body.String(), expected)
	}
}

func TestVehicle_VehicleHandler(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/vehicles?limit=10", nil)
	if err != nil {
		t.Fatal(err)
	}

	vehicleDB := &mocks.VehicleDatabase{}
	scheduleDB := &mocks.ScheduleDatabase{}

	vehicleDB.On("Find", mock.Anything, mock.Anything, mock.Anything).Return([]models.Vehicle{
		{PlateNumber: "EL12345", Status: models.StatusFree},
	}, nil)
	scheduleDB.On("Find", mock.Anything, mock.Anything).Return([]models.ScheduleEntry{}, nil)

	v := handlers.Vehicle{
		DB:         vehicleDB,
		ScheduleDB: scheduleDB,
		Policy:     config.Policy{ReserveUpcomingSameDay: true},
	}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(v.VehicleHandler)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}
	if !strings.Contains(rr.Body.String(), `"plate_number":"EL12345"`) {
		t.Errorf("handler returned unexpected body: got %v", rr.Body.String())
	}
}

func TestVehicle_VehicleHandlerScheduleOverride(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/vehicles?limit=10", nil)
	if err != nil {
		t.Fatal(err)
	}

	vehicleDB := &mocks.VehicleDatabase{}
	scheduleDB := &mocks.ScheduleDatabase{}

	vehicleDB.On("Find", mock.Anything, mock.Anything, mock.Anything).Return([]models.Vehicle{
		{PlateNumber: "EL12345", Status: models.StatusFree},
	}, nil)
	// schedule lookup failure falls back to the stored status
	scheduleDB.On("Find", mock.Anything, mock.Anything).Return(nil, errors.New("mocked-error"))

	v := handlers.Vehicle{
		DB:         vehicleDB,
		ScheduleDB: scheduleDB,
		Policy:     config.Policy{ReserveUpcomingSameDay: true},
	}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(v.VehicleHandler)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}
	if !strings.Contains(rr.Body.String(), `"status":"free"`) {
		t.Errorf("handler returned unexpected body: got %v", rr.Body.String())
	}
}

func TestVehicle_MaintenanceHandler(t *testing.T) {
	vID := primitive.NewObjectID()
	req, err := http.NewRequest("POST", "/api/v1/vehicle/"+vID.Hex()+"/maintenance",
		strings.NewReader(`{"reason": "brake service"}`))
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"vehicle_id": vID.Hex()})

	vehicleDB := &mocks.VehicleDatabase{}
	vehicleDB.On("FindOne", mock.Anything, mock.Anything).
		Return(&models.Vehicle{ID: vID, PlateNumber: "EL12345", Status: models.StatusFree}, nil).Once()
	vehicleDB.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(int64(1), nil)
	vehicleDB.On("FindOne", mock.Anything, mock.Anything).
		Return(&models.Vehicle{ID: vID, PlateNumber: "EL12345", Status: models.StatusMaintenance, MaintenanceReason: "brake service"}, nil).Once()

	v := handlers.Vehicle{DB: vehicleDB}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(v.MaintenanceHandler)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}
	if !strings.Contains(rr.Body.String(), `"status":"maintenance"`) {
		t.Errorf("handler returned unexpected body: got %v", rr.Body.String())
	}
	vehicleDB.AssertNumberOfCalls(t, "UpdateOne", 1)
}

func TestVehicle_CancelReservationHandlerWrongState(t *testing.T) {
	vID := primitive.NewObjectID()
	req, err := http.NewRequest("DELETE", "/api/v1/vehicle/"+vID.Hex()+"/reservation", nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"vehicle_id": vID.Hex()})

	vehicleDB := &mocks.VehicleDatabase{}
	vehicleDB.On("FindOne", mock.Anything, mock.Anything).
		Return(&models.Vehicle{ID: vID, PlateNumber: "EL12345", Status: models.StatusBusy}, nil)

	v := handlers.Vehicle{DB: vehicleDB}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(v.CancelReservationHandler)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusBadRequest {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusBadRequest)
	}
	vehicleDB.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestVehicle_CreateVehicleHandlerMissingPlate(t *testing.T) {
	req, err := http.NewRequest("POST", "/api/v1/vehicle", strings.NewReader(`{"model": "Kia e-Niro"}`))
	if err != nil {
		t.Fatal(err)
	}

	v := handlers.Vehicle{DB: &mocks.VehicleDatabase{}}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(v.CreateVehicleHandler)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusBadRequest {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusBadRequest)
	}

	expected := `{"response": "failed to validate vehicle, plate_number must not be empty"}`
	if rr.Body.String() != expected {
		t.Errorf("handler returned unexpected body: got %v want %v", rr.Body.String(), expected)
	}
}
