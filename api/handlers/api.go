package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/snofleet/fleet-rental-api/api"
	"github.com/snofleet/fleet-rental-api/api/scheduler"
	"github.com/snofleet/fleet-rental-api/config"
	"github.com/snofleet/fleet-rental-api/databases"
	"github.com/snofleet/fleet-rental-api/drivers"
	"github.com/snofleet/fleet-rental-api/models"
	"github.com/snofleet/fleet-rental-api/reservations"
	"github.com/snofleet/fleet-rental-api/trips"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router   *mux.Router
	Config   config.Config
	Hub      *ChangeHub
	dbHelper databases.DatabaseHelper
	store    trips.PhotoStore
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	// setup go-guardian for middleware
	m := api.MiddlewareDB{DB: databases.NewAdminDatabase(a.dbHelper)}
	m.SetupGoGuardian()

	r := mux.NewRouter()

	if a.Hub == nil {
		a.Hub = NewChangeHub()
	}

	vehicleDB := databases.NewVehicleDatabase(a.dbHelper)
	driverDB := databases.NewDriverDatabase(a.dbHelper)
	scheduleDB := databases.NewScheduleDatabase(a.dbHelper)
	reservationDB := databases.NewReservationDatabase(a.dbHelper)
	photoDB := databases.NewPhotoDatabase(a.dbHelper)

	directory := drivers.NewMongoDirectory(driverDB)
	mailer := reservations.NewSendGridMailer(&a.Config)

	v := Vehicle{DB: vehicleDB, ScheduleDB: scheduleDB, Policy: a.Config.Policy, Hub: a.Hub}
	d := Driver{DB: driverDB, Directory: directory}
	sched := Schedule{DB: scheduleDB, VehicleDB: vehicleDB, Hub: a.Hub}
	res := Reservation{
		DB:  reservationDB,
		Hub: a.Hub,
		Manager: &reservations.Manager{
			ReservationDB: reservationDB,
			VehicleDB:     vehicleDB,
			Directory:     directory,
			Mailer:        mailer,
		},
	}
	t := Trip{
		VehicleDB: vehicleDB,
		Registry:  trips.NewRegistry(),
		Orchestrator: &trips.Orchestrator{
			VehicleDB: vehicleDB,
			PhotoDB:   photoDB,
			Store:     a.store,
			Directory: directory,
		},
		Policy: a.Config.Policy,
		Hub:    a.Hub,
	}
	p := Photo{DB: photoDB, Store: a.store, Hub: a.Hub}
	admin := Admin{DB: databases.NewAdminDatabase(a.dbHelper), JWTSecret: a.Config.JWTSecret}
	stats := Stats{VehicleDB: vehicleDB, DriverDB: driverDB, PhotoDB: photoDB}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	r.HandleFunc("/ws/changes", a.Hub.ServeWS)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()
	apiCreate.Use(api.TimeoutMiddleware(30 * time.Second))

	apiCreate.Handle("/auth/token", api.Middleware(http.HandlerFunc(m.CreateToken))).Methods("POST")
	apiCreate.Handle("/auth/logout", api.Middleware(http.HandlerFunc(api.RevokeToken))).Methods("DELETE")

	apiCreate.Handle("/admin/login", http.HandlerFunc(admin.LoginHandler)).Methods("POST")

	// the garage tablet drives the trip flow without a bearer token; the
	// driver code entered in the flow is the authentication
	apiCreate.Handle("/vehicles", http.HandlerFunc(v.VehicleHandler)).Methods("GET")
	apiCreate.Handle("/vehicle/{vehicle_id}", http.HandlerFunc(v.VehicleByIDHandler)).Methods("GET")
	apiCreate.Handle("/vehicle", api.Middleware(http.HandlerFunc(v.CreateVehicleHandler))).Methods("POST")
	apiCreate.Handle("/vehicle/{vehicle_id}", api.Middleware(http.HandlerFunc(v.UpdateVehicleHandler))).Methods("PATCH")
	apiCreate.Handle("/vehicle/{vehicle_id}", api.Middleware(http.HandlerFunc(v.DeleteVehicleByIDHandler))).Methods("DELETE")
	apiCreate.Handle("/vehicle/{vehicle_id}/maintenance", api.Middleware(http.HandlerFunc(v.MaintenanceHandler))).Methods("POST")
	apiCreate.Handle("/vehicle/{vehicle_id}/maintenance", api.Middleware(http.HandlerFunc(v.EndMaintenanceHandler))).Methods("DELETE")
	apiCreate.Handle("/vehicle/{vehicle_id}/reservation", api.Middleware(http.HandlerFunc(v.CancelReservationHandler))).Methods("DELETE")
	apiCreate.Handle("/vehicle/{vehicle_id}/photos", api.Middleware(http.HandlerFunc(p.VehiclePhotosHandler))).Methods("GET")

	apiCreate.Handle("/drivers", api.Middleware(http.HandlerFunc(d.DriverHandler))).Methods("GET")
	apiCreate.Handle("/driver", api.Middleware(http.HandlerFunc(d.CreateDriverHandler))).Methods("POST")
	apiCreate.Handle("/driver/validate", http.HandlerFunc(d.ValidateDriverHandler)).Methods("POST")
	apiCreate.Handle("/driver/{driver_id}", api.Middleware(http.HandlerFunc(d.DriverByIDHandler))).Methods("GET")
	apiCreate.Handle("/driver/{driver_id}", api.Middleware(http.HandlerFunc(d.UpdateDriverHandler))).Methods("PATCH")
	apiCreate.Handle("/driver/{driver_id}", api.Middleware(http.HandlerFunc(d.DeleteDriverByIDHandler))).Methods("DELETE")

	apiCreate.Handle("/schedules", api.Middleware(http.HandlerFunc(sched.ScheduleHandler))).Methods("GET")
	apiCreate.Handle("/schedule", api.Middleware(http.HandlerFunc(sched.CreateScheduleHandler))).Methods("POST")
	apiCreate.Handle("/schedules/bulk", api.Middleware(http.HandlerFunc(sched.CreateScheduleBulkHandler))).Methods("POST")
	apiCreate.Handle("/schedule/{schedule_id}", api.Middleware(http.HandlerFunc(sched.UpdateScheduleHandler))).Methods("PATCH")
	apiCreate.Handle("/schedule/{schedule_id}", api.Middleware(http.HandlerFunc(sched.DeleteScheduleByIDHandler))).Methods("DELETE")

	apiCreate.Handle("/reservations", api.Middleware(http.HandlerFunc(res.ReservationHandler))).Methods("GET")
	apiCreate.Handle("/reservations", http.HandlerFunc(res.CreateReservationsHandler)).Methods("POST")
	apiCreate.Handle("/reservation/{reservation_id}", api.Middleware(http.HandlerFunc(res.CancelReservationByIDHandler))).Methods("DELETE")

	apiCreate.Handle("/trip", http.HandlerFunc(t.CreateTripHandler)).Methods("POST")
	apiCreate.Handle("/trip/{session_id}", http.HandlerFunc(t.TripByIDHandler)).Methods("GET")
	apiCreate.Handle("/trip/{session_id}", http.HandlerFunc(t.CancelTripHandler)).Methods("DELETE")
	apiCreate.Handle("/trip/{session_id}/authenticate", http.HandlerFunc(t.AuthenticateTripHandler)).Methods("POST")
	apiCreate.Handle("/trip/{session_id}/photos/{photo_type}", http.HandlerFunc(t.TripPhotoHandler)).Methods("POST")
	apiCreate.Handle("/trip/{session_id}/photos/{photo_type}", http.HandlerFunc(t.DeleteTripPhotoHandler)).Methods("DELETE")
	apiCreate.Handle("/trip/{session_id}/advance", http.HandlerFunc(t.AdvanceTripHandler)).Methods("POST")
	apiCreate.Handle("/trip/{session_id}/back", http.HandlerFunc(t.BackTripHandler)).Methods("POST")
	apiCreate.Handle("/trip/{session_id}/confirm", http.HandlerFunc(t.ConfirmTripHandler)).Methods("POST")

	apiCreate.Handle("/photos/recent", api.Middleware(http.HandlerFunc(p.RecentPhotosHandler))).Methods("GET")
	apiCreate.Handle("/photo/{photo_id}", api.Middleware(http.HandlerFunc(p.DeletePhotoByIDHandler))).Methods("DELETE")

	apiCreate.Handle("/stats/fleet", api.Middleware(http.HandlerFunc(stats.FleetStatsHandler))).Methods("GET")
	apiCreate.Handle("/stats/drivers", api.Middleware(http.HandlerFunc(stats.DriverStatsHandler))).Methods("GET")
	apiCreate.Handle("/stats/photos", api.Middleware(http.HandlerFunc(stats.PhotoStatsHandler))).Methods("GET")

	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("fleet-rental-api has connected to the database")

	seedCtx, cancel := api.WithQueryTimeout(context.Background())
	defer cancel()
	if err := drivers.Seed(seedCtx, databases.NewDriverDatabase(a.dbHelper)); err != nil {
		zap.S().With(err).Warn("failed to seed drivers collection")
	}

	if a.Config.CloudinaryCloudName != "" {
		store, err := trips.NewCloudinaryStore(&a.Config)
		if err != nil {
			zap.S().With(err).Error("failed to create cloudinary store")
			return err
		}
		a.store = store
	} else {
		zap.S().Warn("cloudinary is not configured, photo uploads will fail")
	}

	// initialize api router
	a.initializeRoutes()
	return nil

}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

// NewScheduler builds the background job runner on the same db connection.
// Must be called after Initialize.
func (a *App) NewScheduler() *scheduler.Scheduler {
	return scheduler.NewScheduler(
		databases.NewReservationDatabase(a.dbHelper),
		databases.NewVehicleDatabase(a.dbHelper),
		databases.NewScheduleDatabase(a.dbHelper),
		databases.NewDriverDatabase(a.dbHelper),
		databases.NewSchedulerLockDatabase(a.dbHelper),
		reservations.NewSendGridMailer(&a.Config),
	)
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
