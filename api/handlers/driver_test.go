package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/snofleet/fleet-rental-api/api/handlers"
	"github.com/snofleet/fleet-rental-api/databases/mocks"
	"github.com/snofleet/fleet-rental-api/drivers"
	"github.com/snofleet/fleet-rental-api/models"
)

func TestDriver_DriverHandler(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/drivers", nil)
	if err != nil {
		t.Fatal(err)
	}

	driverDB := &mocks.DriverDatabase{}
	driverDB.On("Find", mock.Anything, mock.Anything).Return([]models.Driver{
		{Name: "Bruker 1", Code: "1234", Status: models.DriverActive},
	}, nil)

	d := handlers.Driver{DB: driverDB}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(d.DriverHandler)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}
	if !strings.Contains(rr.Body.String(), `"name":"Bruker 1"`) {
		t.Errorf("handler returned unexpected body: got %v", rr.Body.String())
	}
}

func TestDriver_CreateDriverHandlerMissingName(t *testing.T) {
	req, err := http.NewRequest("POST", "/api/v1/driver", strings.NewReader(`{"driver_id": "1234"}`))
	if err != nil {
		t.Fatal(err)
	}

	d := handlers.Driver{DB: &mocks.DriverDatabase{}}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(d.CreateDriverHandler)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusBadRequest {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusBadRequest)
	}

	expected := `{"response": "failed to validate driver, name and driver_id must not be empty"}`
	if rr.Body.String() != expected {
		t.Errorf("handler returned unexpected body: got %v want %v", rr.Body.String(), expected)
	}
}

func TestDriver_ValidateDriverHandler(t *testing.T) {
	req, err := http.NewRequest("POST", "/api/v1/driver/validate",
		strings.NewReader(`{"driver_id": "1234", "driver_name": "Bruker 3"}`))
	if err != nil {
		t.Fatal(err)
	}

	d := handlers.Driver{Directory: drivers.NewSampleDirectory()}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(d.ValidateDriverHandler)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}
	if !strings.Contains(rr.Body.String(), `"name":"Bruker 3"`) {
		t.Errorf("handler returned unexpected body: got %v", rr.Body.String())
	}
}

func TestDriver_ValidateDriverHandlerBadCode(t *testing.T) {
	req, err := http.NewRequest("POST", "/api/v1/driver/validate",
		strings.NewReader(`{"driver_id": "0000", "driver_name": "Bruker 3"}`))
	if err != nil {
		t.Fatal(err)
	}

	d := handlers.Driver{Directory: drivers.NewSampleDirectory()}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(d.ValidateDriverHandler)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusUnauthorized {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusUnauthorized)
	}

	expected := `{"response": "invalid driver credentials, invalid driver credentials"}`
	if rr.Body.String() != expected {
		t.Errorf("handler returned unexpected body: got %v want %v", rr.Body.String(), expected)
	}
}

func TestDriver_UpdateDriverHandlerUnknownField(t *testing.T) {
	dID := primitive.NewObjectID()
	req, err := http.NewRequest("PATCH", "/api/v1/driver/"+dID.Hex(),
		strings.NewReader(`{"shoe_size": 44}`))
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"driver_id": dID.Hex()})

	driverDB := &mocks.DriverDatabase{}
	d := handlers.Driver{DB: driverDB}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(d.UpdateDriverHandler)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusBadRequest {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusBadRequest)
	}
	driverDB.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestDriver_DeleteDriverByIDHandlerNotFound(t *testing.T) {
	dID := primitive.NewObjectID()
	req, err := http.NewRequest("DELETE", "/api/v1/driver/"+dID.Hex(), nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"driver_id": dID.Hex()})

	driverDB := &mocks.DriverDatabase{}
	driverDB.On("DeleteOne", mock.Anything, mock.Anything).Return(int64(0), nil)

	d := handlers.Driver{DB: driverDB}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(d.DeleteDriverByIDHandler)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusNotFound {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusNotFound)
	}
}
