package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ScheduleStatus describes the lifecycle of a schedule entry.
type ScheduleStatus string

const (
	ScheduleScheduled ScheduleStatus = "scheduled"
	ScheduleCompleted ScheduleStatus = "completed"
	ScheduleCancelled ScheduleStatus = "cancelled"
)

// ScheduleEntry holds the structure for the schedule collection in mongo.
// Date is "2006-01-02" and the times are "15:04:05"; the schedule override
// projection compares these as strings, which is well defined for the fixed
// formats.
type ScheduleEntry struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	DriverID        string             `json:"driver_id" bson:"driverID"`
	DriverName      string             `json:"driver_name" bson:"driverName"`
	Date            string             `json:"date" bson:"date"`
	StartTime       string             `json:"start_time" bson:"startTime"`
	EndTime         string             `json:"end_time" bson:"endTime"`
	TotalHours      float64            `json:"total_hours,omitempty" bson:"totalHours,omitempty"`
	VehicleAssigned string             `json:"vehicle_assigned,omitempty" bson:"vehicleAssigned,omitempty"`
	Status          ScheduleStatus     `json:"status" bson:"status"`
	Notes           string             `json:"notes,omitempty" bson:"notes,omitempty"`
	ShiftNumber     int                `json:"shift_number,omitempty" bson:"shiftNumber,omitempty"`
	CreatedAt       time.Time          `json:"created_at" bson:"createdAt"`
}
