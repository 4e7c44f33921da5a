package fleet

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/snofleet/fleet-rental-api/models"
)

// Parking locations stamped onto vehicles by the trip actions. A vehicle on an
// active trip shows as on the road; a returned vehicle goes back to the garage.
const (
	LocationOnRoad = "På Vei"
	LocationGarage = "SNØ P-hus | APCOA PARKING"
)

// NotReservedForError is returned when a driver tries to start a trip on a
// vehicle reserved for someone else.
type NotReservedForError struct {
	RequiredDriver string
}

func (e *NotReservedForError) Error() string {
	return fmt.Sprintf("vehicle is reserved for %s", e.RequiredDriver)
}

// ValidateLevel checks a percentage field (battery, fuel, charge levels).
func ValidateLevel(field string, v int) error {
	if v < 0 || v > 100 {
		return &ValidationError{Field: field, Reason: fmt.Sprintf("must be between 0 and 100, got %d", v)}
	}
	return nil
}

// ValidateMileage checks the odometer reading.
func ValidateMileage(v int) error {
	if v < 0 {
		return &ValidationError{Field: "mileage", Reason: fmt.Sprintf("must not be negative, got %d", v)}
	}
	return nil
}

// Take builds the update for a validated take action (free -> busy). The
// driver is attached, the pickup charge recorded and any leftover reservation
// fields cleared. Nothing is written here; the caller persists the returned
// update as a single operation.
func Take(v *models.Vehicle, d *models.Driver, pickupCharge int, now time.Time) (bson.M, error) {
	if v == nil {
		return nil, ErrNotFound
	}
	if v.Status != models.StatusFree {
		return nil, &TransitionError{From: v.Status, To: models.StatusBusy}
	}
	if err := ValidateLevel("pickup_charge_level", pickupCharge); err != nil {
		return nil, err
	}
	return bson.M{
		"$set": bson.M{
			"status":            models.StatusBusy,
			"driverID":          d.Code,
			"driverName":        d.Name,
			"location":          LocationOnRoad,
			"pickupChargeLevel": pickupCharge,
			"lastUpdated":       now,
		},
		"$unset": bson.M{
			"reservedBy":        "",
			"reservedFrom":      "",
			"reservedTo":        "",
			"returnChargeLevel": "",
		},
	}, nil
}

// Return builds the update for a validated return action (busy -> free). The
// driver is detached and the return charge and parking spot recorded.
func Return(v *models.Vehicle, returnCharge int, floor, side, notes string, now time.Time) (bson.M, error) {
	if v == nil {
		return nil, ErrNotFound
	}
	if v.Status != models.StatusBusy {
		return nil, &TransitionError{From: v.Status, To: models.StatusFree}
	}
	if err := ValidateLevel("return_charge_level", returnCharge); err != nil {
		return nil, err
	}
	set := bson.M{
		"status":            models.StatusFree,
		"location":          LocationGarage,
		"floor":             floor,
		"side":              side,
		"returnChargeLevel": returnCharge,
		"lastUpdated":       now,
	}
	if notes != "" {
		set["notes"] = notes
	}
	return bson.M{
		"$set": set,
		"$unset": bson.M{
			"driverID":          "",
			"driverName":        "",
			"pickupChargeLevel": "",
			"reservedBy":        "",
			"reservedFrom":      "",
			"reservedTo":        "",
		},
	}, nil
}

// Reserve builds the update for a successful reservation (free -> reserved).
// The window must start in the future and end after it starts.
func Reserve(v *models.Vehicle, d *models.Driver, from, to time.Time, now time.Time) (bson.M, error) {
	if v == nil {
		return nil, ErrNotFound
	}
	if v.Status != models.StatusFree && v.Status != models.StatusReserved {
		return nil, &TransitionError{From: v.Status, To: models.StatusReserved}
	}
	if !from.After(now) {
		return nil, &ValidationError{Field: "reserved_from", Reason: "must be in the future"}
	}
	if !to.After(from) {
		return nil, &ValidationError{Field: "reserved_to", Reason: "must be after the start time"}
	}
	return bson.M{
		"$set": bson.M{
			"status":       models.StatusReserved,
			"reservedBy":   d.Name,
			"reservedFrom": from,
			"reservedTo":   to,
			"lastUpdated":  now,
		},
	}, nil
}

// CancelReservation builds the update for a cancellation (reserved -> free).
func CancelReservation(v *models.Vehicle, now time.Time) (bson.M, error) {
	if v == nil {
		return nil, ErrNotFound
	}
	if v.Status != models.StatusReserved {
		return nil, &TransitionError{From: v.Status, To: models.StatusFree}
	}
	return bson.M{
		"$set": bson.M{
			"status":      models.StatusFree,
			"lastUpdated": now,
		},
		"$unset": bson.M{
			"driverID":     "",
			"driverName":   "",
			"reservedBy":   "",
			"reservedFrom": "",
			"reservedTo":   "",
		},
	}, nil
}

// StartReservedTrip builds the update for starting a trip on a reserved
// vehicle (reserved -> busy). Only the driver holding the reservation may
// start it.
func StartReservedTrip(v *models.Vehicle, d *models.Driver, pickupCharge int, now time.Time) (bson.M, error) {
	if v == nil {
		return nil, ErrNotFound
	}
	if v.Status != models.StatusReserved {
		return nil, &TransitionError{From: v.Status, To: models.StatusBusy}
	}
	if v.ReservedBy != d.Name {
		return nil, &NotReservedForError{RequiredDriver: v.ReservedBy}
	}
	if err := ValidateLevel("pickup_charge_level", pickupCharge); err != nil {
		return nil, err
	}
	return bson.M{
		"$set": bson.M{
			"status":            models.StatusBusy,
			"driverID":          d.Code,
			"driverName":        d.Name,
			"location":          LocationOnRoad,
			"pickupChargeLevel": pickupCharge,
			"lastUpdated":       now,
		},
		"$unset": bson.M{
			"reservedBy":   "",
			"reservedFrom": "",
			"reservedTo":   "",
		},
	}, nil
}

// EnterMaintenance builds the admin-only update pulling a vehicle out of
// circulation. Allowed from any state.
func EnterMaintenance(v *models.Vehicle, reason string, now time.Time) (bson.M, error) {
	if v == nil {
		return nil, ErrNotFound
	}
	return bson.M{
		"$set": bson.M{
			"status":            models.StatusMaintenance,
			"maintenanceReason": reason,
			"lastUpdated":       now,
		},
		"$unset": bson.M{
			"driverID":     "",
			"driverName":   "",
			"reservedBy":   "",
			"reservedFrom": "",
			"reservedTo":   "",
		},
	}, nil
}

// ExitMaintenance builds the admin-only update returning a vehicle to the
// free pool.
func ExitMaintenance(v *models.Vehicle, now time.Time) (bson.M, error) {
	if v == nil {
		return nil, ErrNotFound
	}
	if v.Status != models.StatusMaintenance {
		return nil, &TransitionError{From: v.Status, To: models.StatusFree}
	}
	return bson.M{
		"$set": bson.M{
			"status":      models.StatusFree,
			"lastUpdated": now,
		},
		"$unset": bson.M{
			"maintenanceReason": "",
		},
	}, nil
}
