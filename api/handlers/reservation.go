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
	"github.com/snofleet/fleet-rental-api/fleet"
	"github.com/snofleet/fleet-rental-api/models"
	"github.com/snofleet/fleet-rental-api/reservations"
)

// Reservation exported for testing purposes
type Reservation struct {
	DB      databases.ReservationDatabase
	Manager *reservations.Manager
	Hub     *ChangeHub
}

// reservationRequestBody is the wire shape for one reservation in a batch
type reservationRequestBody struct {
	VehicleID     string     `json:"vehicle_id"`
	DriverID      string     `json:"driver_id"`
	DriverName    string     `json:"driver_name"`
	ReservedFrom  time.Time  `json:"reserved_from"`
	ReservedTo    *time.Time `json:"reserved_to,omitempty"`
	DurationHours int        `json:"duration_hours,omitempty"`
	Notes         string     `json:"notes,omitempty"`
}

// ReservationHandler returns all reservations, optionally filtered by status
func (res Reservation) ReservationHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	filter := bson.M{}
	if status := r.URL.Query().Get("status"); status != "" {
		filter["status"] = status
	}

	dbResp, err := res.DB.Find(ctx, filter)
	if err != nil {
		config.ErrorStatus("failed to get reservations", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Reservation{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// CreateReservationsHandler accepts one or more reservation requests in a
// single submission with all-or-nothing semantics
func (res Reservation) CreateReservationsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	var bodies []reservationRequestBody
	if err := json.NewDecoder(r.Body).Decode(&bodies); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	reqs := make([]reservations.Request, 0, len(bodies))
	for i, b := range bodies {
		vID, err := primitive.ObjectIDFromHex(b.VehicleID)
		if err != nil {
			config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, fmt.Errorf("requests[%d].vehicle_id: %w", i, err))
			return
		}
		reqs = append(reqs, reservations.Request{
			VehicleID:     vID,
			DriverCode:    b.DriverID,
			DriverName:    b.DriverName,
			Start:         b.ReservedFrom,
			End:           b.ReservedTo,
			DurationHours: b.DurationHours,
			Notes:         b.Notes,
		})
	}

	created, err := res.Manager.CreateBatch(ctx, reqs)
	if err != nil {
		var verr *fleet.ValidationError
		switch {
		case errors.As(err, &verr):
			config.ErrorStatus("failed to validate reservations", http.StatusBadRequest, w, err)
		case errors.Is(err, drivers.ErrInvalidCredentials):
			config.ErrorStatus("invalid driver credentials", http.StatusUnauthorized, w, err)
		default:
			config.ErrorStatus("failed to create reservations", http.StatusInternalServerError, w, err)
		}
		return
	}
	for _, c := range created {
		res.Hub.Broadcast("reservations", ActionInsert, c)
	}

	b, err := json.Marshal(created)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// CancelReservationByIDHandler cancels one reservation row
func (res Reservation) CancelReservationByIDHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	resID := mux.Vars(r)["reservation_id"]

	rID, err := primitive.ObjectIDFromHex(resID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	matched, err := res.DB.UpdateOne(ctx, bson.M{"_id": rID}, bson.M{
		"$set": bson.M{"status": models.ReservationCancelled},
	})
	if err != nil {
		config.ErrorStatus("failed to cancel reservation", http.StatusInternalServerError, w, err)
		return
	}
	if matched == 0 {
		config.ErrorStatus("failed to cancel reservation", http.StatusNotFound, w, fmt.Errorf("reservation not found"))
		return
	}
	res.Hub.Broadcast("reservations", ActionUpdate, bson.M{"_id": resID, "status": models.ReservationCancelled})

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(fmt.Sprintf(`{"cancelled": "%s"}`, resID)))
}
