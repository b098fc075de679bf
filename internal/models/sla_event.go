package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SLAEventType string
type SLAUrgency string

const (
	SLAEventCreated           SLAEventType = "created"
	SLAEventDispatched        SLAEventType = "dispatched"
	SLAEventAccepted          SLAEventType = "accepted"
	SLAEventRejected          SLAEventType = "rejected"
	SLAEventReassigned        SLAEventType = "reassigned"
	SLAEventCompleted         SLAEventType = "completed"
	SLAEventCompletedBreached SLAEventType = "completed_sla_breached"
	SLAEventExpired           SLAEventType = "expired"
	SLAEventCancelled         SLAEventType = "cancelled"

	SLAUrgencyNormal   SLAUrgency = "normal"
	SLAUrgencyWarning  SLAUrgency = "warning"
	SLAUrgencyCritical SLAUrgency = "critical"
	SLAUrgencyBreached SLAUrgency = "breached"
)

// SLAEvent is one append-only audit row. Rows are written once by the SLA
// tracker and never mutated.
type SLAEvent struct {
	ID          primitive.ObjectID     `json:"id" bson:"_id,omitempty"`
	EmergencyID primitive.ObjectID     `json:"emergency_id" bson:"emergency_id" validate:"required"`
	EventType   SLAEventType           `json:"event_type" bson:"event_type" validate:"required"`
	Details     map[string]interface{} `json:"details" bson:"details"`
	CreatedAt   time.Time              `json:"created_at" bson:"created_at"`
}

// SLAStatus is the live countdown view for one emergency.
type SLAStatus struct {
	EmergencyID      primitive.ObjectID `json:"emergency_id"`
	Priority         Priority           `json:"priority"`
	SLADeadline      time.Time          `json:"sla_deadline"`
	RemainingMinutes int                `json:"remaining_minutes"`
	IsBreached       bool               `json:"is_breached"`
	Urgency          SLAUrgency         `json:"urgency"`
	Status           EmergencyStatus    `json:"status"`
}
