package models

// CreateEmergencyRequest is the intake payload. Latitude/longitude are
// mandatory; everything else helps the responder but never blocks intake.
type CreateEmergencyRequest struct {
	Type         EmergencyType `json:"emergency_type" validate:"required"`
	Latitude     float64       `json:"latitude" validate:"min=-90,max=90"`
	Longitude    float64       `json:"longitude" validate:"min=-180,max=180"`
	PatientName  string        `json:"patient_name"`
	PatientPhone string        `json:"patient_phone"`
	Description  string        `json:"description"`
}

type RegisterResponderRequest struct {
	Name        string      `json:"name" validate:"required"`
	Phone       string      `json:"phone"`
	VehicleType VehicleType `json:"vehicle_type"`
	MaxRangeKM  float64     `json:"max_range_km" validate:"min=0"`
}

type UpdateLocationRequest struct {
	Latitude  float64 `json:"latitude" validate:"min=-90,max=90"`
	Longitude float64 `json:"longitude" validate:"min=-180,max=180"`
}

type SetDutyRequest struct {
	OnDuty bool `json:"on_duty"`
}

type SetVehicleRequest struct {
	VehicleType VehicleType `json:"vehicle_type" validate:"required"`
}

// RespondRequest identifies the responder answering an offer. Reason is
// free text and only meaningful on rejections.
type RespondRequest struct {
	ResponderID string `json:"responder_id" validate:"required,object_id"`
	Reason      string `json:"reason,omitempty"`
}

// ReassignRequest releases the named responder and re-broadcasts. The
// current responder id fences retried requests: a reassignment only
// applies while that responder still holds the assignment.
type ReassignRequest struct {
	CurrentResponderID string             `json:"current_responder_id" validate:"required,object_id"`
	Reason             ReassignmentReason `json:"reason" validate:"required"`
}

// RankedResponder is one scored candidate from a matching pass.
type RankedResponder struct {
	Responder  *Responder `json:"responder"`
	DistanceKM float64    `json:"distance_km"`
	ETAMinutes int        `json:"eta_minutes"`
	Score      float64    `json:"score"`
}

// DispatchResult is returned from emergency intake: the stored emergency
// plus the offers created by the first broadcast pass.
type DispatchResult struct {
	Emergency  *Emergency   `json:"emergency"`
	Broadcasts []*Broadcast `json:"broadcasts"`
	RadiusKM   float64      `json:"radius_km"`
}
