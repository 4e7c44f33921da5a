package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DriverStatus describes whether a driver may currently take vehicles.
type DriverStatus string

const (
	DriverActive   DriverStatus = "active"
	DriverInactive DriverStatus = "inactive"
	DriverOnLeave  DriverStatus = "on_leave"
)

// Driver holds the structure for the driver collection in mongo. Code is the
// identifying code the driver types together with their display name when
// taking or returning a vehicle.
type Driver struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name          string             `json:"name" bson:"name"`
	Code          string             `json:"driver_id" bson:"driverCode"`
	PhoneNumber   string             `json:"phone_number,omitempty" bson:"phoneNumber,omitempty"`
	Email         string             `json:"email,omitempty" bson:"email,omitempty"`
	LicenseNumber string             `json:"license_number,omitempty" bson:"licenseNumber,omitempty"`
	Status        DriverStatus       `json:"status" bson:"status"`
	JoinDate      time.Time          `json:"join_date,omitempty" bson:"joinDate,omitempty"`
	TotalHours    int                `json:"total_hours" bson:"totalHours"`
	Rating        float64            `json:"rating" bson:"rating"`
	CreatedAt     time.Time          `json:"created_at" bson:"createdAt"`
}
