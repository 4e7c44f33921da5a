package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/snofleet/fleet-rental-api/api"
	"github.com/snofleet/fleet-rental-api/config"
	"github.com/snofleet/fleet-rental-api/databases"
	"github.com/snofleet/fleet-rental-api/drivers"
	"github.com/snofleet/fleet-rental-api/models"
)

// Driver exported for testing purposes
type Driver struct {
	DB        databases.DriverDatabase
	Directory drivers.Directory
}

// DriverHandler returns all drivers
func (d Driver) DriverHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := d.DB.Find(ctx, bson.D{})
	if err != nil {
		config.ErrorStatus("failed to get drivers", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Driver{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// DriverByIDHandler returns a driver by ID
func (d Driver) DriverByIDHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	drvID := mux.Vars(r)["driver_id"]

	dID, err := primitive.ObjectIDFromHex(drvID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	dbResp, err := d.DB.FindOne(ctx, bson.M{"_id": dID})
	if err != nil {
		config.ErrorStatus("failed to get driver by ID", http.StatusNotFound, w, err)
		return
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// CreateDriverHandler creates a driver record
func (d Driver) CreateDriverHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	var driver models.Driver
	if err := json.NewDecoder(r.Body).Decode(&driver); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if driver.Name == "" || driver.Code == "" {
		config.ErrorStatus("failed to validate driver", http.StatusBadRequest, w, fmt.Errorf("name and driver_id must not be empty"))
		return
	}
	if driver.Status == "" {
		driver.Status = models.DriverActive
	}
	driver.ID = primitive.NewObjectID()
	driver.CreatedAt = time.Now()

	if _, err := d.DB.InsertOne(ctx, driver); err != nil {
		config.ErrorStatus("failed to create driver", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(driver)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// UpdateDriverHandler applies a partial edit to a driver record
func (d Driver) UpdateDriverHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	drvID := mux.Vars(r)["driver_id"]

	dID, err := primitive.ObjectIDFromHex(drvID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var fields map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	set := bson.M{}
	for key, raw := range fields {
		switch key {
		case "name":
			set["name"] = raw
		case "driver_id":
			set["driverCode"] = raw
		case "phone_number":
			set["phoneNumber"] = raw
		case "email":
			set["email"] = raw
		case "license_number":
			set["licenseNumber"] = raw
		case "status":
			s, _ := raw.(string)
			switch models.DriverStatus(s) {
			case models.DriverActive, models.DriverInactive, models.DriverOnLeave:
				set["status"] = s
			default:
				config.ErrorStatus("failed to validate driver update", http.StatusBadRequest, w, fmt.Errorf("unknown status %q", s))
				return
			}
		default:
			config.ErrorStatus("failed to validate driver update", http.StatusBadRequest, w, fmt.Errorf("unknown field %q", key))
			return
		}
	}

	matched, err := d.DB.UpdateOne(ctx, bson.M{"_id": dID}, bson.M{"$set": set})
	if err != nil {
		config.ErrorStatus("failed to update driver", http.StatusInternalServerError, w, err)
		return
	}
	if matched == 0 {
		config.ErrorStatus("failed to update driver", http.StatusNotFound, w, fmt.Errorf("driver not found"))
		return
	}

	updated, err := d.DB.FindOne(ctx, bson.M{"_id": dID})
	if err != nil {
		config.ErrorStatus("failed to get driver by ID", http.StatusNotFound, w, err)
		return
	}
	b, err := json.Marshal(updated)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// DeleteDriverByIDHandler removes a driver record
func (d Driver) DeleteDriverByIDHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	drvID := mux.Vars(r)["driver_id"]

	dID, err := primitive.ObjectIDFromHex(drvID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	deleted, err := d.DB.DeleteOne(ctx, bson.M{"_id": dID})
	if err != nil {
		config.ErrorStatus("failed to delete driver", http.StatusInternalServerError, w, err)
		return
	}
	if deleted == 0 {
		config.ErrorStatus("failed to delete driver", http.StatusNotFound, w, fmt.Errorf("driver not found"))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(fmt.Sprintf(`{"deleted": "%s"}`, drvID)))
}

// ValidateDriverHandler checks a driver code/name pair against the directory.
// Stateless on purpose; every status-changing action re-validates.
func (d Driver) ValidateDriverHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DriverID   string `json:"driver_id"`
		DriverName string `json:"driver_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	driver, err := d.Directory.Validate(ctx, body.DriverID, body.DriverName)
	if err != nil {
		if errors.Is(err, drivers.ErrInvalidCredentials) {
			config.ErrorStatus("invalid driver credentials", http.StatusUnauthorized, w, err)
			return
		}
		config.ErrorStatus("failed to validate driver", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(driver)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
