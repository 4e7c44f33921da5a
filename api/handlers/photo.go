package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/snofleet/fleet-rental-api/api"
	"github.com/snofleet/fleet-rental-api/config"
	"github.com/snofleet/fleet-rental-api/databases"
	"github.com/snofleet/fleet-rental-api/models"
	"github.com/snofleet/fleet-rental-api/trips"
)

// Photo exported for testing purposes
type Photo struct {
	DB    databases.PhotoDatabase
	Store trips.PhotoStore
	Hub   *ChangeHub
}

// VehiclePhotosHandler returns photo records for one vehicle, newest first.
func (p Photo) VehiclePhotosHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	vehicleID := mux.Vars(r)["vehicle_id"]

	vID, err := primitive.ObjectIDFromHex(vehicleID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}
	filter := bson.M{"vehicleID": vID}
	if tripType := r.URL.Query().Get("trip_type"); tripType != "" {
		filter["tripType"] = tripType
	}

	dbResp, err := p.DB.Find(ctx, filter, options.Find().SetSort(bson.M{"uploadedAt": -1}))
	if err != nil {
		config.ErrorStatus("failed to get photos", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.TripPhoto{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// RecentPhotosHandler returns the newest photo records across the fleet.
func (p Photo) RecentPhotosHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	limit := int64(20)
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.ParseInt(l, 10, 64)
		if err != nil || parsed < 1 || parsed > 100 {
			config.ErrorStatus("failed to parse limit", http.StatusBadRequest, w, fmt.Errorf("limit must be between 1 and 100"))
			return
		}
		limit = parsed
	}

	dbResp, err := p.DB.Find(ctx, bson.M{},
		options.Find().SetSort(bson.M{"uploadedAt": -1}).SetLimit(limit))
	if err != nil {
		config.ErrorStatus("failed to get photos", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.TripPhoto{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// DeletePhotoByIDHandler removes a photo record and its stored image. The
// record always goes; a storage failure only leaves an orphan in Cloudinary.
func (p Photo) DeletePhotoByIDHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	photoID := mux.Vars(r)["photo_id"]

	pID, err := primitive.ObjectIDFromHex(photoID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}
	photo, err := p.DB.FindOne(ctx, bson.M{"_id": pID})
	if err != nil {
		config.ErrorStatus("failed to get photo by ID", http.StatusNotFound, w, err)
		return
	}

	if photo.PublicID != "" && p.Store != nil {
		if err := p.Store.Delete(ctx, photo.PublicID); err != nil {
			zap.S().Warnw("failed to delete stored image",
				"publicID", photo.PublicID,
				"error", err,
			)
		}
	}

	if _, err := p.DB.DeleteOne(ctx, bson.M{"_id": pID}); err != nil {
		config.ErrorStatus("failed to delete photo", http.StatusInternalServerError, w, err)
		return
	}
	p.Hub.Broadcast("photos", ActionDelete, bson.M{"_id": photoID})

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(fmt.Sprintf(`{"deleted": "%s"}`, photoID)))
}
