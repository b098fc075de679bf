package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AssignmentStatus string
type ReassignmentReason string

const (
	AssignmentStatusActive    AssignmentStatus = "active"
	AssignmentStatusCompleted AssignmentStatus = "completed"
	AssignmentStatusAbandoned AssignmentStatus = "abandoned"

	ReassignReasonTimeout              ReassignmentReason = "timeout"
	ReassignReasonResponderUnavailable ReassignmentReason = "responder_unavailable"
	ReassignReasonResponderRejected    ReassignmentReason = "responder_rejected"
	ReassignReasonVehicleBreakdown     ReassignmentReason = "vehicle_breakdown"
	ReassignReasonManualOverride       ReassignmentReason = "manual_override"
	ReassignReasonBetterMatchFound     ReassignmentReason = "better_match_found"
)

// Assignment binds exactly one emergency to one responder after a won
// lock-on. At most one assignment per emergency is active at a time.
type Assignment struct {
	ID                primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	EmergencyID       primitive.ObjectID `json:"emergency_id" bson:"emergency_id" validate:"required"`
	ResponderID       primitive.ObjectID `json:"responder_id" bson:"responder_id" validate:"required"`
	Status            AssignmentStatus   `json:"status" bson:"status" default:"active"`
	CurrentDistanceKM float64            `json:"current_distance_km" bson:"current_distance_km"`
	ETAMinutes        int                `json:"eta_minutes" bson:"eta_minutes"`
	AssignedAt        time.Time          `json:"assigned_at" bson:"assigned_at"`
	ReleasedAt        *time.Time         `json:"released_at" bson:"released_at"`
	ReleaseReason     ReassignmentReason `json:"release_reason,omitempty" bson:"release_reason,omitempty"`
	CompletedAt       *time.Time         `json:"completed_at" bson:"completed_at"`
}

// ValidReassignmentReason reports whether the reason belongs to the closed
// enumeration accepted by the reassignment controller.
func ValidReassignmentReason(reason ReassignmentReason) bool {
	switch reason {
	case ReassignReasonTimeout, ReassignReasonResponderUnavailable,
		ReassignReasonResponderRejected, ReassignReasonVehicleBreakdown,
		ReassignReasonManualOverride, ReassignReasonBetterMatchFound:
		return true
	}
	return false
}

// ReassignmentResult is returned to the caller of the reassignment
// controller.
type ReassignmentResult struct {
	Success        bool               `json:"success"`
	NewOfferCount  int                `json:"new_offer_count"`
	Reason         ReassignmentReason `json:"reason"`
	Message        string             `json:"message"`
	NewResponderID *primitive.ObjectID `json:"new_responder_id,omitempty"`
}
