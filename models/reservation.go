package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReservationStatus describes the lifecycle of a reservation.
type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "active"
	ReservationCompleted ReservationStatus = "completed"
	ReservationCancelled ReservationStatus = "cancelled"
)

// Reservation holds the structure for the reservation collection in mongo.
type Reservation struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	VehicleID    primitive.ObjectID `json:"vehicle_id" bson:"vehicleID"`
	DriverID     string             `json:"driver_id" bson:"driverID"`
	DriverName   string             `json:"driver_name" bson:"driverName"`
	ReservedFrom time.Time          `json:"reserved_from" bson:"reservedFrom"`
	ReservedTo   time.Time          `json:"reserved_to" bson:"reservedTo"`
	Status       ReservationStatus  `json:"status" bson:"status"`
	Notes        string             `json:"notes,omitempty" bson:"notes,omitempty"`

	// ReminderSentAt is set by the scheduler once the upcoming-reservation
	// reminder mail has gone out, so the hourly sweep stays idempotent.
	ReminderSentAt *time.Time `json:"reminder_sent_at,omitempty" bson:"reminderSentAt,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"createdAt"`
}
