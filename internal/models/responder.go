package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ResponderStatus string

const (
	ResponderStatusAvailable ResponderStatus = "available"
	ResponderStatusBusy      ResponderStatus = "busy"
	ResponderStatusOffline   ResponderStatus = "offline"
)

type Responder struct {
	ID                 primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name               string             `json:"name" bson:"name" validate:"required"`
	Phone              string             `json:"phone" bson:"phone"`
	Status             ResponderStatus    `json:"status" bson:"status" default:"offline"`
	VehicleType        VehicleType        `json:"vehicle_type" bson:"vehicle_type" default:"bike"`
	CurrentLocation    *Location          `json:"current_location" bson:"current_location"`
	LastLocationUpdate *time.Time         `json:"last_location_update" bson:"last_location_update"`
	Rating             float64            `json:"rating" bson:"rating" default:"5"`
	TotalRescues       int64              `json:"total_rescues" bson:"total_rescues" default:"0"`
	IsOnDuty           bool               `json:"is_on_duty" bson:"is_on_duty" default:"false"`
	DutyStartedAt      *time.Time         `json:"duty_started_at" bson:"duty_started_at"`
	MaxRangeKM         float64            `json:"max_range_km" bson:"max_range_km" default:"0"`
	Schedule           []ShiftWindow      `json:"schedule" bson:"schedule"`
	CreatedAt          time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at" bson:"updated_at"`
}

// ShiftWindow is one weekly duty slot. DayOfWeek is 0-6 with 0 = Sunday;
// times are "HH:MM" in the responder's local zone.
type ShiftWindow struct {
	DayOfWeek  int    `json:"day_of_week" bson:"day_of_week" validate:"min=0,max=6"`
	ShiftStart string `json:"shift_start" bson:"shift_start"`
	ShiftEnd   string `json:"shift_end" bson:"shift_end"`
	IsActive   bool   `json:"is_active" bson:"is_active"`
}

// HasLocationFix reports whether the responder has ever sent a GPS ping.
func (r *Responder) HasLocationFix() bool {
	return r.CurrentLocation != nil && len(r.CurrentLocation.Coordinates) == 2
}

// IsOnShift reports whether t falls inside an active schedule window.
// Responders with no schedule rows are treated as always on shift.
func (r *Responder) IsOnShift(t time.Time) bool {
	if len(r.Schedule) == 0 {
		return true
	}

	day := int(t.Weekday())
	clock := t.Format("15:04")
	for _, window := range r.Schedule {
		if !window.IsActive || window.DayOfWeek != day {
			continue
		}
		if window.ShiftStart <= clock && clock <= window.ShiftEnd {
			return true
		}
	}
	return false
}
