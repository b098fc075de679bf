package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EmergencyType string
type EmergencyStatus string

const (
	EmergencyTypeHeartAttack         EmergencyType = "heart_attack"
	EmergencyTypeStroke              EmergencyType = "stroke"
	EmergencyTypeCardiacArrest       EmergencyType = "cardiac_arrest"
	EmergencyTypeSevereTrauma        EmergencyType = "severe_trauma"
	EmergencyTypeAccident            EmergencyType = "accident"
	EmergencyTypeSevereBleeding      EmergencyType = "severe_bleeding"
	EmergencyTypeFracture            EmergencyType = "fracture"
	EmergencyTypeBreathingDifficulty EmergencyType = "breathing_difficulty"
	EmergencyTypeMinorInjury         EmergencyType = "minor_injury"
	EmergencyTypeFall                EmergencyType = "fall"
	EmergencyTypeGeneral             EmergencyType = "general"
	EmergencyTypeNonUrgent           EmergencyType = "non_urgent"
	EmergencyTypeAssistance          EmergencyType = "assistance"

	EmergencyStatusPending     EmergencyStatus = "pending"
	EmergencyStatusDispatching EmergencyStatus = "dispatching"
	EmergencyStatusAccepted    EmergencyStatus = "accepted"
	EmergencyStatusInProgress  EmergencyStatus = "in_progress"
	EmergencyStatusCompleted   EmergencyStatus = "completed"
	EmergencyStatusCancelled   EmergencyStatus = "cancelled"
	EmergencyStatusExpired     EmergencyStatus = "expired"
)

type Emergency struct {
	ID                  primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Type                EmergencyType      `json:"emergency_type" bson:"emergency_type" validate:"required"`
	Priority            Priority           `json:"priority" bson:"priority"`
	Status              EmergencyStatus    `json:"status" bson:"status" default:"pending"`
	PatientLocation     Location           `json:"patient_location" bson:"patient_location" validate:"required"`
	PatientName         string             `json:"patient_name,omitempty" bson:"patient_name,omitempty"`
	PatientPhone        string             `json:"patient_phone,omitempty" bson:"patient_phone,omitempty"`
	Description         string             `json:"description" bson:"description"`
	SLADeadline         time.Time          `json:"sla_deadline" bson:"sla_deadline"`
	LastRadiusKM        float64            `json:"last_radius_km" bson:"last_radius_km"`
	AmbulanceDispatchID string             `json:"ambulance_dispatch_id,omitempty" bson:"ambulance_dispatch_id,omitempty"`
	CreatedAt           time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at" bson:"updated_at"`
	CompletedAt         *time.Time         `json:"completed_at" bson:"completed_at"`
}

// IsOpen reports whether the emergency can still be offered to responders.
func (e *Emergency) IsOpen() bool {
	return e.Status == EmergencyStatusPending || e.Status == EmergencyStatusDispatching
}

// IsTerminal reports whether the emergency has reached a final state.
func (e *Emergency) IsTerminal() bool {
	switch e.Status {
	case EmergencyStatusCompleted, EmergencyStatusCancelled, EmergencyStatusExpired:
		return true
	}
	return false
}
