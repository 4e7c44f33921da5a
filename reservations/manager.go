package reservations

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/snofleet/fleet-rental-api/databases"
	"github.com/snofleet/fleet-rental-api/drivers"
	"github.com/snofleet/fleet-rental-api/fleet"
	"github.com/snofleet/fleet-rental-api/models"
)

// Request is one reservation in a batch submission. End wins over
// DurationHours when both are given.
type Request struct {
	VehicleID     primitive.ObjectID
	DriverCode    string
	DriverName    string
	Start         time.Time
	End           *time.Time
	DurationHours int
	Notes         string
}

// Manager validates and creates reservation batches with all-or-nothing
// semantics: every request is validated before any is persisted.
type Manager struct {
	ReservationDB databases.ReservationDatabase
	VehicleDB     databases.VehicleDatabase
	Directory     drivers.Directory
	Mailer        Mailer

	// Now is swappable for tests; defaults to time.Now.
	Now func() time.Time
}

func (m *Manager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

type validated struct {
	req    Request
	driver *models.Driver
	end    time.Time
}

// ValidateBatch checks every request and resolves each driver and end time.
// The first failure aborts with the offending request's index in the error.
func (m *Manager) ValidateBatch(ctx context.Context, reqs []Request) ([]validated, error) {
	if len(reqs) == 0 {
		return nil, &fleet.ValidationError{Field: "requests", Reason: "at least one reservation is required"}
	}
	now := m.now()
	out := make([]validated, 0, len(reqs))
	for i, r := range reqs {
		if r.DriverCode == "" {
			return nil, &fleet.ValidationError{Field: field(i, "driver_id"), Reason: "must not be empty"}
		}
		if r.DriverName == "" {
			return nil, &fleet.ValidationError{Field: field(i, "driver_name"), Reason: "must not be empty"}
		}
		if r.Start.IsZero() {
			return nil, &fleet.ValidationError{Field: field(i, "reserved_from"), Reason: "must be set"}
		}
		if !r.Start.After(now) {
			return nil, &fleet.ValidationError{Field: field(i, "reserved_from"), Reason: "must be in the future"}
		}
		var end time.Time
		if r.End != nil {
			if !r.End.After(r.Start) {
				return nil, &fleet.ValidationError{Field: field(i, "reserved_to"), Reason: "must be after the start time"}
			}
			end = *r.End
		} else {
			if r.DurationHours < 1 || r.DurationHours > 24 {
				return nil, &fleet.ValidationError{Field: field(i, "duration_hours"), Reason: fmt.Sprintf("must be between 1 and 24, got %d", r.DurationHours)}
			}
			end = r.Start.Add(time.Duration(r.DurationHours) * time.Hour)
		}
		driver, err := m.Directory.Validate(ctx, r.DriverCode, r.DriverName)
		if err != nil {
			return nil, err
		}
		out = append(out, validated{req: r, driver: driver, end: end})
	}
	return out, nil
}

// CreateBatch validates every request, then persists one reservation per
// request and mirrors the first window per vehicle onto the vehicle record.
// The vehicle mirror is best effort; a vehicle that cannot move to reserved
// keeps its status while the reservation rows stand.
func (m *Manager) CreateBatch(ctx context.Context, reqs []Request) ([]models.Reservation, error) {
	batch, err := m.ValidateBatch(ctx, reqs)
	if err != nil {
		return nil, err
	}
	now := m.now()

	created := make([]models.Reservation, 0, len(batch))
	mirrored := make(map[primitive.ObjectID]bool)
	for _, v := range batch {
		res := models.Reservation{
			VehicleID:    v.req.VehicleID,
			DriverID:     v.req.DriverCode,
			DriverName:   v.driver.Name,
			ReservedFrom: v.req.Start,
			ReservedTo:   v.end,
			Status:       models.ReservationActive,
			Notes:        v.req.Notes,
			CreatedAt:    now,
		}
		id, err := m.ReservationDB.InsertOne(ctx, res)
		if err != nil {
			return created, err
		}
		if oid, ok := id.(primitive.ObjectID); ok {
			res.ID = oid
		}
		created = append(created, res)

		if mirrored[v.req.VehicleID] {
			continue
		}
		mirrored[v.req.VehicleID] = true
		m.mirrorToVehicle(ctx, v, now)
	}

	m.sendConfirmations(ctx, batch, created)
	return created, nil
}

// mirrorToVehicle reflects the reservation window onto the vehicle's summary
// fields. Failures are logged, not returned; the reservation row is already
// authoritative.
func (m *Manager) mirrorToVehicle(ctx context.Context, v validated, now time.Time) {
	vehicle, err := m.VehicleDB.FindOne(ctx, bson.M{"_id": v.req.VehicleID})
	if err != nil {
		zap.S().Warnw("reservation vehicle lookup failed", "vehicleId", v.req.VehicleID.Hex(), "error", err)
		return
	}
	update, err := fleet.Reserve(vehicle, v.driver, v.req.Start, v.end, now)
	if err != nil {
		zap.S().Warnw("vehicle not mirrored to reserved", "vehicleId", v.req.VehicleID.Hex(), "status", vehicle.Status, "error", err)
		return
	}
	if _, err := m.VehicleDB.UpdateOne(ctx, bson.M{"_id": v.req.VehicleID}, update); err != nil {
		zap.S().Warnw("reservation vehicle update failed", "vehicleId", v.req.VehicleID.Hex(), "error", err)
	}
}

// sendConfirmations emails each distinct driver that has an address on file.
// Mail failure never fails the batch.
func (m *Manager) sendConfirmations(ctx context.Context, batch []validated, created []models.Reservation) {
	if m.Mailer == nil {
		return
	}
	byDriver := make(map[string]*models.Driver)
	resByDriver := make(map[string][]models.Reservation)
	for i, v := range batch {
		if v.driver.Email == "" {
			continue
		}
		byDriver[v.driver.Email] = v.driver
		resByDriver[v.driver.Email] = append(resByDriver[v.driver.Email], created[i])
	}
	for email, driver := range byDriver {
		if err := m.Mailer.SendReservationConfirmation(ctx, *driver, resByDriver[email]); err != nil {
			zap.S().Warnw("reservation confirmation email failed", "email", email, "error", err)
		}
	}
}

func field(i int, name string) string {
	return fmt.Sprintf("requests[%d].%s", i, name)
}
