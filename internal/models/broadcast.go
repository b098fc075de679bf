package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BroadcastStatus string

const (
	BroadcastStatusPending  BroadcastStatus = "pending"
	BroadcastStatusAccepted BroadcastStatus = "accepted"
	BroadcastStatusRejected BroadcastStatus = "rejected"
	BroadcastStatusExpired  BroadcastStatus = "expired"
)

// Broadcast is one offer of one emergency to one responder. Offers are
// terminal once accepted, rejected or expired; re-dispatch creates a fresh
// row with a higher Round.
type Broadcast struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	EmergencyID    primitive.ObjectID `json:"emergency_id" bson:"emergency_id" validate:"required"`
	ResponderID    primitive.ObjectID `json:"responder_id" bson:"responder_id" validate:"required"`
	Round          int                `json:"round" bson:"round" default:"1"`
	DistanceKM     float64            `json:"distance_km" bson:"distance_km"`
	ETAMinutes     int                `json:"eta_minutes" bson:"eta_minutes"`
	Score          float64            `json:"score" bson:"score"`
	ResponseStatus BroadcastStatus    `json:"response_status" bson:"response_status" default:"pending"`
	BroadcastAt    time.Time          `json:"broadcast_at" bson:"broadcast_at"`
	RespondedAt    *time.Time         `json:"responded_at" bson:"responded_at"`
	LockedAt       *time.Time         `json:"locked_at" bson:"locked_at"`
}

// PendingAlert is a pending broadcast joined with its emergency, the shape
// responder clients poll for.
type PendingAlert struct {
	Broadcast Broadcast `json:"broadcast"`
	Emergency Emergency `json:"emergency"`
}
