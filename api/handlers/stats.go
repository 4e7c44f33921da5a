package handlers

import (
	"encoding/json"
	"math"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/snofleet/fleet-rental-api/api"
	"github.com/snofleet/fleet-rental-api/config"
	"github.com/snofleet/fleet-rental-api/databases"
	"github.com/snofleet/fleet-rental-api/models"
)

// lowLevelThreshold marks a vehicle as needing charge or fuel.
const lowLevelThreshold = 30

// Stats exported for testing purposes
type Stats struct {
	VehicleDB databases.VehicleDatabase
	DriverDB  databases.DriverDatabase
	PhotoDB   databases.PhotoDatabase
}

// FleetStatsHandler summarizes vehicle counts for the dashboard header.
func (s Stats) FleetStatsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	vehicles, err := s.VehicleDB.Find(ctx, bson.M{})
	if err != nil {
		config.ErrorStatus("failed to get vehicles", http.StatusNotFound, w, err)
		return
	}

	stats := models.FleetStats{TotalCars: len(vehicles)}
	for _, v := range vehicles {
		switch v.Status {
		case models.StatusFree, models.StatusBusy:
			stats.ActiveCars++
		case models.StatusMaintenance:
			stats.MaintenanceCars++
		}
		if v.BatteryLevel < lowLevelThreshold {
			stats.LowBatteryCars++
		}
		if v.FuelLevel < lowLevelThreshold {
			stats.LowFuelCars++
		}
	}
	if stats.TotalCars > 0 {
		stats.Utilization = int(math.Round(float64(stats.ActiveCars) / float64(stats.TotalCars) * 100))
	}

	b, err := json.Marshal(stats)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// DriverStatsHandler summarizes the driver pool.
func (s Stats) DriverStatsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	driversResp, err := s.DriverDB.Find(ctx, bson.M{})
	if err != nil {
		config.ErrorStatus("failed to get drivers", http.StatusNotFound, w, err)
		return
	}

	stats := models.DriverStats{TotalDrivers: len(driversResp)}
	var ratingSum float64
	var rated int
	for _, d := range driversResp {
		if d.Status == models.DriverActive {
			stats.ActiveDrivers++
		}
		stats.TotalHours += d.TotalHours
		if d.Rating > 0 {
			ratingSum += d.Rating
			rated++
		}
	}
	if rated > 0 {
		stats.AverageRating = math.Round(ratingSum/float64(rated)*100) / 100
	}

	b, err := json.Marshal(stats)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// PhotoStatsHandler summarizes trip photo volume. Recent means the last week.
func (s Stats) PhotoStatsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	total, err := s.PhotoDB.CountDocuments(ctx, bson.M{})
	if err != nil {
		config.ErrorStatus("failed to count photos", http.StatusNotFound, w, err)
		return
	}
	pickups, err := s.PhotoDB.CountDocuments(ctx, bson.M{"tripType": "pickup"})
	if err != nil {
		config.ErrorStatus("failed to count photos", http.StatusNotFound, w, err)
		return
	}
	returns, err := s.PhotoDB.CountDocuments(ctx, bson.M{"tripType": "return"})
	if err != nil {
		config.ErrorStatus("failed to count photos", http.StatusNotFound, w, err)
		return
	}
	weekAgo := time.Now().AddDate(0, 0, -7)
	recent, err := s.PhotoDB.CountDocuments(ctx, bson.M{"uploadedAt": bson.M{"$gte": weekAgo}})
	if err != nil {
		config.ErrorStatus("failed to count photos", http.StatusNotFound, w, err)
		return
	}

	stats := models.PhotoStats{
		TotalPhotos:  int(total),
		PickupPhotos: int(pickups),
		ReturnPhotos: int(returns),
		RecentPhotos: int(recent),
	}
	b, err := json.Marshal(stats)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
