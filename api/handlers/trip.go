package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/snofleet/fleet-rental-api/api"
	"github.com/snofleet/fleet-rental-api/config"
	"github.com/snofleet/fleet-rental-api/databases"
	"github.com/snofleet/fleet-rental-api/drivers"
	"github.com/snofleet/fleet-rental-api/fleet"
	"github.com/snofleet/fleet-rental-api/trips"
)

// maxPhotoBytes caps one uploaded image body.
const maxPhotoBytes = 10 << 20

// Trip exported for testing purposes
type Trip struct {
	VehicleDB    databases.VehicleDatabase
	Registry     *trips.Registry
	Orchestrator *trips.Orchestrator
	Policy       config.Policy
	Hub          *ChangeHub
}

// tripSessionResponse is the session view returned by every trip endpoint.
type tripSessionResponse struct {
	SessionID      string   `json:"session_id"`
	VehicleID      string   `json:"vehicle_id"`
	PlateNumber    string   `json:"plate_number"`
	TripType       string   `json:"trip_type"`
	Stage          string   `json:"stage"`
	DriverName     string   `json:"driver_name,omitempty"`
	Photos         []string `json:"photos"`
	RequiredPhotos int      `json:"required_photos"`
}

func sessionResponse(w *trips.Workflow) tripSessionResponse {
	resp := tripSessionResponse{
		SessionID:      w.ID,
		VehicleID:      w.Vehicle.ID.Hex(),
		PlateNumber:    w.Vehicle.PlateNumber,
		TripType:       string(w.Type),
		Stage:          string(w.Stage),
		Photos:         []string{},
		RequiredPhotos: w.RequiredPhotos,
	}
	if w.Driver != nil {
		resp.DriverName = w.Driver.Name
	}
	for _, pos := range trips.Positions {
		if _, ok := w.Photos[pos]; ok {
			resp.Photos = append(resp.Photos, string(pos))
		}
	}
	return resp
}

func (t Trip) writeSession(w http.ResponseWriter, status int, wf *trips.Workflow) {
	b, err := json.Marshal(sessionResponse(wf))
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(status)
	w.Write(b)
}

// tripError maps domain errors onto status codes shared by every trip endpoint.
func tripError(msg string, w http.ResponseWriter, err error) {
	var stageErr *trips.StageError
	var valErr *fleet.ValidationError
	var transErr *fleet.TransitionError
	var authErr *drivers.NotAuthorizedError
	switch {
	case errors.Is(err, trips.ErrSessionNotFound), errors.Is(err, fleet.ErrNotFound):
		config.ErrorStatus(msg, http.StatusNotFound, w, err)
	case errors.Is(err, drivers.ErrInvalidCredentials):
		config.ErrorStatus(msg, http.StatusUnauthorized, w, err)
	case errors.As(err, &authErr):
		config.ErrorStatus(msg, http.StatusForbidden, w, err)
	case errors.As(err, &stageErr), errors.As(err, &valErr), errors.As(err, &transErr):
		config.ErrorStatus(msg, http.StatusBadRequest, w, err)
	default:
		config.ErrorStatus(msg, http.StatusInternalServerError, w, err)
	}
}

// CreateTripHandler opens a new trip session for a vehicle.
func (t Trip) CreateTripHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		VehicleID string `json:"vehicle_id"`
		TripType  string `json:"trip_type"`
		Admin     bool   `json:"admin,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	vID, err := primitive.ObjectIDFromHex(body.VehicleID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	vehicle, err := t.VehicleDB.FindOne(ctx, bson.M{"_id": vID})
	if err != nil {
		config.ErrorStatus("failed to get vehicle by ID", http.StatusNotFound, w, err)
		return
	}

	required := t.Policy.RequiredPhotoCount
	if body.Admin {
		required = t.Policy.AdminMinPhotos
	}
	wf, err := t.Registry.Create(*vehicle, trips.TripType(body.TripType), required)
	if err != nil {
		config.ErrorStatus("failed to start trip session", http.StatusBadRequest, w, err)
		return
	}
	t.writeSession(w, http.StatusCreated, wf)
}

// TripByIDHandler returns the current session state.
func (t Trip) TripByIDHandler(w http.ResponseWriter, r *http.Request) {
	wf, err := t.Registry.Get(mux.Vars(r)["session_id"])
	if err != nil {
		tripError("failed to get trip session", w, err)
		return
	}
	t.writeSession(w, http.StatusOK, wf)
}

// AuthenticateTripHandler validates driver credentials and advances the flow.
func (t Trip) AuthenticateTripHandler(w http.ResponseWriter, r *http.Request) {
	wf, err := t.Registry.Get(mux.Vars(r)["session_id"])
	if err != nil {
		tripError("failed to get trip session", w, err)
		return
	}
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

	if err := t.Orchestrator.Authenticate(ctx, wf, body.DriverID, body.DriverName); err != nil {
		tripError("failed to authenticate driver", w, err)
		return
	}
	t.writeSession(w, http.StatusOK, wf)
}

// TripPhotoHandler stages one photo in the session.
func (t Trip) TripPhotoHandler(w http.ResponseWriter, r *http.Request) {
	wf, err := t.Registry.Get(mux.Vars(r)["session_id"])
	if err != nil {
		tripError("failed to get trip session", w, err)
		return
	}
	pos, err := trips.ParsePosition(mux.Vars(r)["photo_type"])
	if err != nil {
		config.ErrorStatus("failed to parse photo type", http.StatusBadRequest, w, err)
		return
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxPhotoBytes+1))
	if err != nil {
		config.ErrorStatus("failed to read photo body", http.StatusBadRequest, w, err)
		return
	}
	if len(data) == 0 {
		config.ErrorStatus("failed to read photo body", http.StatusBadRequest, w, fmt.Errorf("empty photo body"))
		return
	}
	if len(data) > maxPhotoBytes {
		config.ErrorStatus("photo too large", http.StatusRequestEntityTooLarge, w, fmt.Errorf("photo exceeds %d bytes", maxPhotoBytes))
		return
	}
	if err := wf.AddPhoto(pos, data, r.Header.Get("Content-Type")); err != nil {
		tripError("failed to add photo", w, err)
		return
	}
	t.writeSession(w, http.StatusOK, wf)
}

// DeleteTripPhotoHandler discards a staged photo so it can be retaken.
func (t Trip) DeleteTripPhotoHandler(w http.ResponseWriter, r *http.Request) {
	wf, err := t.Registry.Get(mux.Vars(r)["session_id"])
	if err != nil {
		tripError("failed to get trip session", w, err)
		return
	}
	pos, err := trips.ParsePosition(mux.Vars(r)["photo_type"])
	if err != nil {
		config.ErrorStatus("failed to parse photo type", http.StatusBadRequest, w, err)
		return
	}
	if err := wf.RemovePhoto(pos); err != nil {
		tripError("failed to remove photo", w, err)
		return
	}
	t.writeSession(w, http.StatusOK, wf)
}

// AdvanceTripHandler moves the session to the next stage.
func (t Trip) AdvanceTripHandler(w http.ResponseWriter, r *http.Request) {
	wf, err := t.Registry.Get(mux.Vars(r)["session_id"])
	if err != nil {
		tripError("failed to get trip session", w, err)
		return
	}
	if err := wf.Forward(); err != nil {
		tripError("failed to advance trip session", w, err)
		return
	}
	t.writeSession(w, http.StatusOK, wf)
}

// BackTripHandler moves the session one stage back, keeping captured input.
func (t Trip) BackTripHandler(w http.ResponseWriter, r *http.Request) {
	wf, err := t.Registry.Get(mux.Vars(r)["session_id"])
	if err != nil {
		tripError("failed to get trip session", w, err)
		return
	}
	if err := wf.Back(); err != nil {
		tripError("failed to step trip session back", w, err)
		return
	}
	t.writeSession(w, http.StatusOK, wf)
}

// ConfirmTripHandler uploads the staged photos and applies the vehicle update.
func (t Trip) ConfirmTripHandler(w http.ResponseWriter, r *http.Request) {
	wf, err := t.Registry.Get(mux.Vars(r)["session_id"])
	if err != nil {
		tripError("failed to get trip session", w, err)
		return
	}
	var body struct {
		ChargeLevel int    `json:"charge_level"`
		Floor       string `json:"floor,omitempty"`
		Side        string `json:"side,omitempty"`
		Notes       string `json:"notes,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	result, err := t.Orchestrator.Confirm(ctx, wf, trips.ConfirmInput{
		ChargeLevel: body.ChargeLevel,
		Floor:       body.Floor,
		Side:        body.Side,
		Notes:       body.Notes,
	})
	if err != nil {
		tripError("failed to confirm trip", w, err)
		return
	}
	t.Registry.Remove(wf.ID)

	vehicle, err := t.VehicleDB.FindOne(ctx, bson.M{"_id": wf.Vehicle.ID})
	if err == nil {
		t.Hub.Broadcast("vehicles", ActionUpdate, vehicle)
	}
	for _, p := range result.Uploaded {
		t.Hub.Broadcast("photos", ActionInsert, p)
	}

	b, err := json.Marshal(result)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// CancelTripHandler abandons the session and discards staged photos.
func (t Trip) CancelTripHandler(w http.ResponseWriter, r *http.Request) {
	wf, err := t.Registry.Get(mux.Vars(r)["session_id"])
	if err != nil {
		tripError("failed to get trip session", w, err)
		return
	}
	wf.Cancel()
	t.Registry.Remove(wf.ID)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(fmt.Sprintf(`{"cancelled": "%s"}`, wf.ID)))
}
