package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/snofleet/fleet-rental-api/api"
	"github.com/snofleet/fleet-rental-api/config"
	"github.com/snofleet/fleet-rental-api/databases"
	"github.com/snofleet/fleet-rental-api/fleet"
	"github.com/snofleet/fleet-rental-api/models"
)

// Schedule exported for testing purposes
type Schedule struct {
	DB        databases.ScheduleDatabase
	VehicleDB databases.VehicleDatabase
	Hub       *ChangeHub
}

// ScheduleHandler returns schedule entries, optionally filtered by week
// (?week=2006-01-02, any day in the week) or driver (?driver_id=)
func (s Schedule) ScheduleHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	filter := bson.M{}
	if driverID := r.URL.Query().Get("driver_id"); driverID != "" {
		filter["driverID"] = driverID
	}
	if week := r.URL.Query().Get("week"); week != "" {
		day, err := time.Parse("2006-01-02", week)
		if err != nil {
			config.ErrorStatus("failed to parse week", http.StatusBadRequest, w, err)
			return
		}
		// roll back to Monday
		offset := (int(day.Weekday()) + 6) % 7
		monday := day.AddDate(0, 0, -offset)
		sunday := monday.AddDate(0, 0, 6)
		filter["date"] = bson.M{
			"$gte": monday.Format("2006-01-02"),
			"$lte": sunday.Format("2006-01-02"),
		}
	}

	dbResp, err := s.DB.Find(ctx, filter)
	if err != nil {
		config.ErrorStatus("failed to get schedules", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.ScheduleEntry{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// CreateScheduleHandler creates one schedule entry. Assigning a vehicle also
// mirrors reserved onto it, best effort.
func (s Schedule) CreateScheduleHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	var entry models.ScheduleEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if err := validateScheduleEntry(&entry); err != nil {
		config.ErrorStatus("failed to validate schedule entry", http.StatusBadRequest, w, err)
		return
	}
	entry.ID = primitive.NewObjectID()
	entry.CreatedAt = time.Now()

	if _, err := s.DB.InsertOne(ctx, entry); err != nil {
		config.ErrorStatus("failed to create schedule entry", http.StatusInternalServerError, w, err)
		return
	}
	s.Hub.Broadcast("schedules", ActionInsert, entry)
	s.mirrorVehicle(ctx, entry)

	b, err := json.Marshal(entry)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// CreateScheduleBulkHandler creates many schedule entries in one call
func (s Schedule) CreateScheduleBulkHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	var entries []models.ScheduleEntry
	if err := json.NewDecoder(r.Body).Decode(&entries); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if len(entries) == 0 {
		config.ErrorStatus("failed to validate schedule entries", http.StatusBadRequest, w, fmt.Errorf("at least one entry is required"))
		return
	}

	now := time.Now()
	docs := make([]interface{}, 0, len(entries))
	for i := range entries {
		if err := validateScheduleEntry(&entries[i]); err != nil {
			config.ErrorStatus("failed to validate schedule entries", http.StatusBadRequest, w, err)
			return
		}
		entries[i].ID = primitive.NewObjectID()
		entries[i].CreatedAt = now
		docs = append(docs, entries[i])
	}

	if _, err := s.DB.InsertMany(ctx, docs); err != nil {
		config.ErrorStatus("failed to create schedule entries", http.StatusInternalServerError, w, err)
		return
	}
	for _, entry := range entries {
		s.Hub.Broadcast("schedules", ActionInsert, entry)
		s.mirrorVehicle(ctx, entry)
	}

	b, err := json.Marshal(entries)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// UpdateScheduleHandler applies a partial edit to a schedule entry. A vehicle
// reassignment re-mirrors reserved onto the new vehicle.
func (s Schedule) UpdateScheduleHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	schedID := mux.Vars(r)["schedule_id"]

	sID, err := primitive.ObjectIDFromHex(schedID)
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
		case "driver_id":
			set["driverID"] = raw
		case "driver_name":
			set["driverName"] = raw
		case "date":
			set["date"] = raw
		case "start_time":
			set["startTime"] = raw
		case "end_time":
			set["endTime"] = raw
		case "total_hours":
			set["totalHours"] = raw
		case "vehicle_assigned":
			set["vehicleAssigned"] = raw
		case "notes":
			set["notes"] = raw
		case "shift_number":
			set["shiftNumber"] = raw
		case "status":
			st, _ := raw.(string)
			switch models.ScheduleStatus(st) {
			case models.ScheduleScheduled, models.ScheduleCompleted, models.ScheduleCancelled:
				set["status"] = st
			default:
				config.ErrorStatus("failed to validate schedule update", http.StatusBadRequest, w, fmt.Errorf("unknown status %q", st))
				return
			}
		default:
			config.ErrorStatus("failed to validate schedule update", http.StatusBadRequest, w, fmt.Errorf("unknown field %q", key))
			return
		}
	}

	matched, err := s.DB.UpdateOne(ctx, bson.M{"_id": sID}, bson.M{"$set": set})
	if err != nil {
		config.ErrorStatus("failed to update schedule entry", http.StatusInternalServerError, w, err)
		return
	}
	if matched == 0 {
		config.ErrorStatus("failed to update schedule entry", http.StatusNotFound, w, fmt.Errorf("schedule entry not found"))
		return
	}

	updated, err := s.DB.FindOne(ctx, bson.M{"_id": sID})
	if err != nil {
		config.ErrorStatus("failed to get schedule entry by ID", http.StatusNotFound, w, err)
		return
	}
	s.Hub.Broadcast("schedules", ActionUpdate, updated)
	if _, reassigned := fields["vehicle_assigned"]; reassigned {
		s.mirrorVehicle(ctx, *updated)
	}

	b, err := json.Marshal(updated)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// DeleteScheduleByIDHandler removes a schedule entry
func (s Schedule) DeleteScheduleByIDHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	schedID := mux.Vars(r)["schedule_id"]

	sID, err := primitive.ObjectIDFromHex(schedID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	deleted, err := s.DB.DeleteOne(ctx, bson.M{"_id": sID})
	if err != nil {
		config.ErrorStatus("failed to delete schedule entry", http.StatusInternalServerError, w, err)
		return
	}
	if deleted == 0 {
		config.ErrorStatus("failed to delete schedule entry", http.StatusNotFound, w, fmt.Errorf("schedule entry not found"))
		return
	}
	s.Hub.Broadcast("schedules", ActionDelete, bson.M{"_id": schedID})

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(fmt.Sprintf(`{"deleted": "%s"}`, schedID)))
}

// mirrorVehicle marks an assigned vehicle reserved for the entry's window.
// Best effort; the projection covers display regardless.
func (s Schedule) mirrorVehicle(ctx context.Context, entry models.ScheduleEntry) {
	if entry.VehicleAssigned == "" || entry.Status != models.ScheduleScheduled {
		return
	}
	vehicle, err := s.VehicleDB.FindOne(ctx, bson.M{"plateNumber": entry.VehicleAssigned})
	if err != nil {
		zap.S().Warnw("schedule vehicle lookup failed", "plate", entry.VehicleAssigned, "error", err)
		return
	}
	from, err1 := time.Parse("2006-01-02 15:04:05", entry.Date+" "+entry.StartTime)
	to, err2 := time.Parse("2006-01-02 15:04:05", entry.Date+" "+entry.EndTime)
	if err1 != nil || err2 != nil {
		zap.S().Warnw("schedule window not parseable", "date", entry.Date, "start", entry.StartTime, "end", entry.EndTime)
		return
	}
	driver := &models.Driver{Code: entry.DriverID, Name: entry.DriverName}
	update, err := fleet.Reserve(vehicle, driver, from, to, time.Now())
	if err != nil {
		zap.S().Warnw("vehicle not mirrored to reserved", "plate", entry.VehicleAssigned, "error", err)
		return
	}
	if _, err := s.VehicleDB.UpdateOne(ctx, bson.M{"_id": vehicle.ID}, update); err != nil {
		zap.S().Warnw("schedule vehicle update failed", "plate", entry.VehicleAssigned, "error", err)
	}
}

func validateScheduleEntry(entry *models.ScheduleEntry) error {
	if entry.DriverName == "" {
		return fmt.Errorf("driver_name must not be empty")
	}
	if _, err := time.Parse("2006-01-02", entry.Date); err != nil {
		return fmt.Errorf("date must be formatted 2006-01-02: %v", err)
	}
	if _, err := time.Parse("15:04:05", entry.StartTime); err != nil {
		return fmt.Errorf("start_time must be formatted 15:04:05: %v", err)
	}
	if _, err := time.Parse("15:04:05", entry.EndTime); err != nil {
		return fmt.Errorf("end_time must be formatted 15:04:05: %v", err)
	}
	if entry.EndTime <= entry.StartTime {
		return fmt.Errorf("end_time must be after start_time")
	}
	if entry.Status == "" {
		entry.Status = models.ScheduleScheduled
	}
	return nil
}
