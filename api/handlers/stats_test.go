package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/snofleet/fleet-rental-api/api/handlers"
	"github.com/snofleet/fleet-rental-api/databases/mocks"
	"github.com/snofleet/fleet-rental-api/models"
)

func TestStats_FleetStatsHandler(t *testing.T) {
	vehicleDB := &mocks.VehicleDatabase{}
	vehicleDB.On("Find", mock.Anything, mock.Anything).Return([]models.Vehicle{
		{PlateNumber: "EL12345", Status: models.StatusFree, BatteryLevel: 90, FuelLevel: 80},
		{PlateNumber: "EL12346", Status: models.StatusBusy, BatteryLevel: 20, FuelLevel: 75},
		{PlateNumber: "EL12347", Status: models.StatusBusy, BatteryLevel: 85, FuelLevel: 15},
		{PlateNumber: "EL12348", Status: models.StatusMaintenance, BatteryLevel: 50, FuelLevel: 60},
	}, nil)

	s := handlers.Stats{VehicleDB: vehicleDB}

	req, err := http.NewRequest("GET", "/api/v1/stats/fleet", nil)
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(s.FleetStatsHandler)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}

	expected := `{"totalCars":4,"activeCars":3,"maintenanceCars":1,"lowBatteryCars":1,"lowFuelCars":1,"utilization":75}`
	if rr.Body.String() != expected {
		t.Errorf("handler returned unexpected body: got %v want %v", rr.Body.String(), expected)
	}
}

func TestStats_FleetStatsHandlerCountsDrainedVehicles(t *testing.T) {
	// a parked fleet still utilizes, and a dead battery or empty tank is low
	vehicleDB := &mocks.VehicleDatabase{}
	vehicleDB.On("Find", mock.Anything, mock.Anything).Return([]models.Vehicle{
		{PlateNumber: "EL12345", Status: models.StatusFree, BatteryLevel: 0, FuelLevel: 0},
		{PlateNumber: "EL12346", Status: models.StatusFree, BatteryLevel: 80, FuelLevel: 90},
	}, nil)

	s := handlers.Stats{VehicleDB: vehicleDB}

	req, err := http.NewRequest("GET", "/api/v1/stats/fleet", nil)
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(s.FleetStatsHandler)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}

	expected := `{"totalCars":2,"activeCars":2,"maintenanceCars":0,"lowBatteryCars":1,"lowFuelCars":1,"utilization":100}`
	if rr.Body.String() != expected {
		t.Errorf("handler returned unexpected body: got %v want %v", rr.Body.String(), expected)
	}
}

func TestStats_DriverStatsHandler(t *testing.T) {
	driverDB := &mocks.DriverDatabase{}
	driverDB.On("Find", mock.Anything, mock.Anything).Return([]models.Driver{
		{Name: "Bruker 1", Status: models.DriverActive, TotalHours: 120, Rating: 4.5},
		{Name: "Bruker 2", Status: models.DriverActive, TotalHours: 80, Rating: 3.8},
		{Name: "Bruker 3", Status: models.DriverInactive, TotalHours: 10},
	}, nil)

	s := handlers.Stats{DriverDB: driverDB}

	req, err := http.NewRequest("GET", "/api/v1/stats/drivers", nil)
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(s.DriverStatsHandler)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}

	// unrated drivers stay out of the average
	expected := `{"totalDrivers":3,"activeDrivers":2,"totalHours":210,"averageRating":4.15}`
	if rr.Body.String() != expected {
		t.Errorf("handler returned unexpected body: got %v want %v", rr.Body.String(), expected)
	}
}

func TestStats_PhotoStatsHandler(t *testing.T) {
	photoDB := &mocks.PhotoDatabase{}
	photoDB.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(10), nil).Once()
	photoDB.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(6), nil).Once()
	photoDB.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(4), nil).Once()
	photoDB.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(3), nil).Once()

	s := handlers.Stats{PhotoDB: photoDB}

	req, err := http.NewRequest("GET", "/api/v1/stats/photos", nil)
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(s.PhotoStatsHandler)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}

	expected := `{"totalPhotos":10,"pickupPhotos":6,"returnPhotos":4,"recentPhotos":3}`
	if rr.Body.String() != expected {
		t.Errorf("handler returned unexpected body: got %v want %v", rr.Body.String(), expected)
	}
}
