package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/snofleet/fleet-rental-api/api"
	"github.com/snofleet/fleet-rental-api/config"
	"github.com/snofleet/fleet-rental-api/databases"
	"github.com/snofleet/fleet-rental-api/fleet"
	"github.com/snofleet/fleet-rental-api/models"
)

// Page for pagination defaults
var Page int

// Vehicle exported for testing purposes
type Vehicle struct {
	DB         databases.VehicleDatabase
	ScheduleDB databases.ScheduleDatabase
	Policy     config.Policy
	Hub        *ChangeHub
}

// VehicleHandler returns all vehicles with the schedule-derived status
// projection applied
func (v Vehicle) VehicleHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	Limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		zap.S().Warnf(fmt.Sprintf("limit not set, using default of %v, err: %v", Limit|10, err))
	}
	limit64 := int64(Limit)
	Page = getPage(Page, r)
	skip64 := int64(Page * Limit)
	dbResp, err := v.DB.Find(ctx, bson.D{}, &options.FindOptions{Limit: &limit64, Skip: &skip64})
	if err != nil {
		config.ErrorStatus("failed to get vehicles", http.StatusNotFound, w, err)
		return
	}

	now := time.Now()
	entries, err := v.ScheduleDB.Find(ctx, bson.M{
		"date":   now.Format("2006-01-02"),
		"status": models.ScheduleScheduled,
	})
	if err != nil {
		zap.S().Warnf("failed to get schedules for projection, serving stored status, err: %v", err)
		entries = nil
	}
	dbResp = fleet.WithScheduleOverride(dbResp, entries, now, v.Policy.ReserveUpcomingSameDay)

	// Because the frontend requires that the data elements exist, if len == 0
	// then we will just return an empty data object
	if len(dbResp) == 0 {
		dbResp = []models.Vehicle{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// VehicleByIDHandler returns a vehicle by ID, stored status only
func (v Vehicle) VehicleByIDHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	vehID := mux.Vars(r)["vehicle_id"]

	zap.S().Debugf("vehicle_id: %v", vehID)

	vID, err := primitive.ObjectIDFromHex(vehID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	dbResp, err := v.DB.FindOne(ctx, bson.M{"_id": vID})
	if err != nil {
		config.ErrorStatus("failed to get vehicle by ID", http.StatusNotFound, w, err)
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

// CreateVehicleHandler creates a vehicle from the posted fields
func (v Vehicle) CreateVehicleHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	var vehicle models.Vehicle
	if err := json.NewDecoder(r.Body).Decode(&vehicle); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if vehicle.PlateNumber == "" {
		config.ErrorStatus("failed to validate vehicle", http.StatusBadRequest, w, fmt.Errorf("plate_number must not be empty"))
		return
	}
	if vehicle.Status == "" {
		vehicle.Status = models.StatusFree
	}
	if _, err := fleet.ParseStatus(string(vehicle.Status)); err != nil {
		config.ErrorStatus("failed to validate vehicle", http.StatusBadRequest, w, err)
		return
	}
	if err := validateVehicleNumbers(&vehicle); err != nil {
		config.ErrorStatus("failed to validate vehicle", http.StatusBadRequest, w, err)
		return
	}
	vehicle.ID = primitive.NewObjectID()
	vehicle.CreatedAt = time.Now()
	vehicle.LastUpdated = vehicle.CreatedAt

	if _, err := v.DB.InsertOne(ctx, vehicle); err != nil {
		config.ErrorStatus("failed to create vehicle", http.StatusInternalServerError, w, err)
		return
	}
	v.Hub.Broadcast("vehicles", ActionInsert, vehicle)

	b, err := json.Marshal(vehicle)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// UpdateVehicleHandler applies a partial admin edit to a vehicle
func (v Vehicle) UpdateVehicleHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	vehID := mux.Vars(r)["vehicle_id"]

	vID, err := primitive.ObjectIDFromHex(vehID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var fields map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	current, err := v.DB.FindOne(ctx, bson.M{"_id": vID})
	if err != nil {
		config.ErrorStatus("failed to get vehicle by ID", http.StatusNotFound, w, err)
		return
	}

	set, err := buildVehicleUpdate(current, fields)
	if err != nil {
		config.ErrorStatus("failed to validate vehicle update", http.StatusBadRequest, w, err)
		return
	}

	matched, err := v.DB.UpdateOne(ctx, bson.M{"_id": vID}, bson.M{"$set": set})
	if err != nil {
		config.ErrorStatus("failed to update vehicle", http.StatusInternalServerError, w, err)
		return
	}
	if matched == 0 {
		config.ErrorStatus("failed to update vehicle", http.StatusNotFound, w, fleet.ErrNotFound)
		return
	}

	updated, err := v.DB.FindOne(ctx, bson.M{"_id": vID})
	if err != nil {
		config.ErrorStatus("failed to get vehicle by ID", http.StatusNotFound, w, err)
		return
	}
	v.Hub.Broadcast("vehicles", ActionUpdate, updated)

	b, err := json.Marshal(updated)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// DeleteVehicleByIDHandler removes a vehicle, explicit admin action only
func (v Vehicle) DeleteVehicleByIDHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	vehID := mux.Vars(r)["vehicle_id"]

	vID, err := primitive.ObjectIDFromHex(vehID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	deleted, err := v.DB.DeleteOne(ctx, bson.M{"_id": vID})
	if err != nil {
		config.ErrorStatus("failed to delete vehicle", http.StatusInternalServerError, w, err)
		return
	}
	if deleted == 0 {
		config.ErrorStatus("failed to delete vehicle", http.StatusNotFound, w, fleet.ErrNotFound)
		return
	}
	v.Hub.Broadcast("vehicles", ActionDelete, bson.M{"_id": vehID})

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(fmt.Sprintf(`{"deleted": "%s"}`, vehID)))
}

// MaintenanceHandler moves a vehicle into maintenance with a reason
func (v Vehicle) MaintenanceHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	vehID := mux.Vars(r)["vehicle_id"]

	vID, err := primitive.ObjectIDFromHex(vehID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var body struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	vehicle, err := v.DB.FindOne(ctx, bson.M{"_id": vID})
	if err != nil {
		config.ErrorStatus("failed to get vehicle by ID", http.StatusNotFound, w, err)
		return
	}

	update, err := fleet.EnterMaintenance(vehicle, body.Reason, time.Now())
	if err != nil {
		config.ErrorStatus("failed to move vehicle to maintenance", http.StatusBadRequest, w, err)
		return
	}
	v.applyUpdate(ctx, w, vID, update)
}

// EndMaintenanceHandler returns a vehicle from maintenance to the free pool
func (v Vehicle) EndMaintenanceHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	vehID := mux.Vars(r)["vehicle_id"]

	vID, err := primitive.ObjectIDFromHex(vehID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	vehicle, err := v.DB.FindOne(ctx, bson.M{"_id": vID})
	if err != nil {
		config.ErrorStatus("failed to get vehicle by ID", http.StatusNotFound, w, err)
		return
	}

	update, err := fleet.ExitMaintenance(vehicle, time.Now())
	if err != nil {
		config.ErrorStatus("failed to end maintenance", http.StatusBadRequest, w, err)
		return
	}
	v.applyUpdate(ctx, w, vID, update)
}

// CancelReservationHandler frees a reserved vehicle
func (v Vehicle) CancelReservationHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	vehID := mux.Vars(r)["vehicle_id"]

	vID, err := primitive.ObjectIDFromHex(vehID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	vehicle, err := v.DB.FindOne(ctx, bson.M{"_id": vID})
	if err != nil {
		config.ErrorStatus("failed to get vehicle by ID", http.StatusNotFound, w, err)
		return
	}

	update, err := fleet.CancelReservation(vehicle, time.Now())
	if err != nil {
		config.ErrorStatus("failed to cancel reservation", http.StatusBadRequest, w, err)
		return
	}
	v.applyUpdate(ctx, w, vID, update)
}

func (v Vehicle) applyUpdate(ctx context.Context, w http.ResponseWriter, vID primitive.ObjectID, update bson.M) {
	matched, err := v.DB.UpdateOne(ctx, bson.M{"_id": vID}, update)
	if err != nil {
		config.ErrorStatus("failed to update vehicle", http.StatusInternalServerError, w, err)
		return
	}
	if matched == 0 {
		config.ErrorStatus("failed to update vehicle", http.StatusNotFound, w, fleet.ErrNotFound)
		return
	}

	updated, err := v.DB.FindOne(ctx, bson.M{"_id": vID})
	if err != nil {
		config.ErrorStatus("failed to get vehicle by ID", http.StatusNotFound, w, err)
		return
	}
	v.Hub.Broadcast("vehicles", ActionUpdate, updated)

	b, err := json.Marshal(updated)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// buildVehicleUpdate validates an admin partial edit and maps the snake_case
// request fields onto the stored document fields.
func buildVehicleUpdate(current *models.Vehicle, fields map[string]interface{}) (bson.M, error) {
	set := bson.M{"lastUpdated": time.Now()}
	for key, raw := range fields {
		switch key {
		case "plate_number":
			s, ok := raw.(string)
			if !ok || s == "" {
				return nil, fmt.Errorf("plate_number must be a non-empty string")
			}
			set["plateNumber"] = s
		case "model":
			s, _ := raw.(string)
			set["model"] = s
		case "status":
			s, _ := raw.(string)
			status, err := fleet.ParseStatus(s)
			if err != nil {
				return nil, err
			}
			if !fleet.CanTransition(current.Status, status) {
				return nil, &fleet.TransitionError{From: current.Status, To: status}
			}
			set["status"] = status
		case "location":
			s, _ := raw.(string)
			set["location"] = s
		case "floor":
			s, _ := raw.(string)
			set["floor"] = s
		case "side":
			s, _ := raw.(string)
			set["side"] = s
		case "notes":
			s, _ := raw.(string)
			set["notes"] = s
		case "battery_level", "fuel_level":
			n, err := intField(key, raw)
			if err != nil {
				return nil, err
			}
			if err := fleet.ValidateLevel(key, n); err != nil {
				return nil, err
			}
			if key == "battery_level" {
				set["batteryLevel"] = n
			} else {
				set["fuelLevel"] = n
			}
		case "mileage":
			n, err := intField(key, raw)
			if err != nil {
				return nil, err
			}
			if err := fleet.ValidateMileage(n); err != nil {
				return nil, err
			}
			set["mileage"] = n
		default:
			return nil, fmt.Errorf("unknown field %q", key)
		}
	}
	return set, nil
}

func validateVehicleNumbers(vehicle *models.Vehicle) error {
	if err := fleet.ValidateLevel("battery_level", vehicle.BatteryLevel); err != nil {
		return err
	}
	if err := fleet.ValidateLevel("fuel_level", vehicle.FuelLevel); err != nil {
		return err
	}
	return fleet.ValidateMileage(vehicle.Mileage)
}

func intField(key string, raw interface{}) (int, error) {
	f, ok := raw.(float64)
	if !ok || f != float64(int(f)) {
		return 0, fmt.Errorf("%s must be a whole number", key)
	}
	return int(f), nil
}

func getPage(Page int, r *http.Request) int {
	if r.URL.Query().Get("page") == "" {
		zap.S().Warnf("page not set, using default of %v", Page)
	} else {
		var err error
		Page, err = strconv.Atoi(r.URL.Query().Get("page"))
		if err != nil {
			zap.S().Errorf(fmt.Sprintf("error parsing page number: %v", err))
		}
		if Page < 0 {
			zap.S().Warnf(fmt.Sprintf("cannot process page number less than 1. Got: %v", Page))
			return 0
		}
	}
	return Page
}
