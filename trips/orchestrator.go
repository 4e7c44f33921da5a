package trips

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/snofleet/fleet-rental-api/databases"
	"github.com/snofleet/fleet-rental-api/drivers"
	"github.com/snofleet/fleet-rental-api/fleet"
	"github.com/snofleet/fleet-rental-api/models"
)

// Orchestrator runs the three-step trip flow: driver authentication, photo
// capture, charge/location confirmation ending in a single vehicle update.
type Orchestrator struct {
	VehicleDB databases.VehicleDatabase
	PhotoDB   databases.PhotoDatabase
	Store     PhotoStore
	Directory drivers.Directory

	// Now is swappable for tests; defaults to time.Now.
	Now func() time.Time
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// Authenticate validates the code/name pair and, for a return flow, that the
// driver is the one attached to the vehicle. On success the workflow advances
// to photo capture.
func (o *Orchestrator) Authenticate(ctx context.Context, w *Workflow, code, name string) error {
	if w.Stage != StageAuthenticating {
		return &StageError{Stage: w.Stage, Op: "authenticate"}
	}
	driver, err := o.Directory.Validate(ctx, code, name)
	if err != nil {
		return err
	}
	if w.Type == TripReturn {
		if err := drivers.AuthorizeReturn(&w.Vehicle, driver); err != nil {
			return err
		}
	}
	w.Driver = driver
	return w.Forward()
}

// ConfirmInput carries the final confirmation step's fields. Floor and side
// only apply to returns.
type ConfirmInput struct {
	ChargeLevel int
	Floor       string
	Side        string
	Notes       string
}

// PhotoFailure reports one photo that could not be stored.
type PhotoFailure struct {
	Position Position `json:"photo_type"`
	Error    string   `json:"error"`
}

// ConfirmResult reports what the confirmation persisted. Failed photos do not
// block the status update; callers surface the counts to the user.
type ConfirmResult struct {
	Uploaded []models.TripPhoto `json:"uploaded"`
	Failed   []PhotoFailure     `json:"failed"`
}

// Confirm validates and applies the final status update. Photos captured in
// memory are uploaded first, each independently; then the vehicle's charge
// level, location and status change in one update. The upload and the update
// are two separate calls, so an interruption between them can leave uploaded
// photos with a stale vehicle status.
func (o *Orchestrator) Confirm(ctx context.Context, w *Workflow, in ConfirmInput) (*ConfirmResult, error) {
	if w.Stage != StageConfirmingCharge {
		return nil, &StageError{Stage: w.Stage, Op: "confirm"}
	}
	if w.Driver == nil {
		return nil, &StageError{Stage: w.Stage, Op: "confirm without authenticated driver"}
	}
	now := o.now()

	var update bson.M
	var err error
	switch w.Type {
	case TripPickup:
		if w.Vehicle.Status == models.StatusReserved {
			update, err = fleet.StartReservedTrip(&w.Vehicle, w.Driver, in.ChargeLevel, now)
		} else {
			update, err = fleet.Take(&w.Vehicle, w.Driver, in.ChargeLevel, now)
		}
	case TripReturn:
		if err := drivers.AuthorizeReturn(&w.Vehicle, w.Driver); err != nil {
			return nil, err
		}
		update, err = fleet.Return(&w.Vehicle, in.ChargeLevel, in.Floor, in.Side, in.Notes, now)
	}
	if err != nil {
		return nil, err
	}

	result := &ConfirmResult{}
	for _, pos := range Positions {
		photo, ok := w.Photos[pos]
		if !ok {
			continue
		}
		publicID := fmt.Sprintf("%s/%s/%s_%d", w.Vehicle.ID.Hex(), w.Type, pos, now.Unix())
		url, err := o.Store.Upload(ctx, publicID, photo.Data)
		if err != nil {
			zap.S().Errorw("trip photo upload failed", "vehicle", w.Vehicle.PlateNumber, "position", pos, "error", err)
			result.Failed = append(result.Failed, PhotoFailure{Position: pos, Error: err.Error()})
			continue
		}
		record := models.TripPhoto{
			VehicleID:  w.Vehicle.ID,
			DriverName: w.Driver.Name,
			TripType:   string(w.Type),
			Position:   string(pos),
			PhotoURL:   url,
			FileName:   fmt.Sprintf("%s_%d.jpg", pos, now.Unix()),
			PublicID:   publicID,
			UploadedAt: now,
			CreatedAt:  now,
		}
		if _, err := o.PhotoDB.InsertOne(ctx, record); err != nil {
			zap.S().Errorw("trip photo record insert failed", "vehicle", w.Vehicle.PlateNumber, "position", pos, "error", err)
			result.Failed = append(result.Failed, PhotoFailure{Position: pos, Error: err.Error()})
			continue
		}
		result.Uploaded = append(result.Uploaded, record)
	}

	matched, err := o.VehicleDB.UpdateOne(ctx, bson.M{"_id": w.Vehicle.ID}, update)
	if err != nil {
		return result, err
	}
	if matched == 0 {
		return result, fleet.ErrNotFound
	}

	w.Stage = StageIdle
	return result, nil
}
