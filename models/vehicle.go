package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VehicleStatus describes the current availability of a vehicle.
type VehicleStatus string

// The four vehicle lifecycle states.
const (
	StatusFree        VehicleStatus = "free"
	StatusBusy        VehicleStatus = "busy"
	StatusReserved    VehicleStatus = "reserved"
	StatusMaintenance VehicleStatus = "maintenance"
)

// Vehicle holds the structure for the vehicle collection in mongo.
//
// Invariants maintained by the fleet package: busy implies DriverName is set,
// free implies no driver and no reservation window, reserved implies a
// non-empty window.
type Vehicle struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	PlateNumber string             `json:"plate_number" bson:"plateNumber"`
	Model       string             `json:"model" bson:"model"`
	Status      VehicleStatus      `json:"status" bson:"status"`

	Location string `json:"location" bson:"location"`
	Floor    string `json:"floor,omitempty" bson:"floor,omitempty"`
	Side     string `json:"side,omitempty" bson:"side,omitempty"`

	BatteryLevel int `json:"battery_level" bson:"batteryLevel"`
	FuelLevel    int `json:"fuel_level" bson:"fuelLevel"`
	Mileage      int `json:"mileage" bson:"mileage"`

	DriverID   string `json:"driver_id,omitempty" bson:"driverID,omitempty"`
	DriverName string `json:"driver_name,omitempty" bson:"driverName,omitempty"`

	ReservedBy   string     `json:"reserved_by,omitempty" bson:"reservedBy,omitempty"`
	ReservedFrom *time.Time `json:"reserved_from,omitempty" bson:"reservedFrom,omitempty"`
	ReservedTo   *time.Time `json:"reserved_to,omitempty" bson:"reservedTo,omitempty"`

	PickupChargeLevel *int `json:"pickup_charge_level,omitempty" bson:"pickupChargeLevel,omitempty"`
	ReturnChargeLevel *int `json:"return_charge_level,omitempty" bson:"returnChargeLevel,omitempty"`

	Notes             string `json:"notes,omitempty" bson:"notes,omitempty"`
	MaintenanceReason string `json:"maintenance_reason,omitempty" bson:"maintenanceReason,omitempty"`

	LastUpdated time.Time `json:"last_updated" bson:"lastUpdated"`
	CreatedAt   time.Time `json:"created_at" bson:"createdAt"`
}
